package storage

import "testing"

func TestStepConfigPredicatesNilSafe(t *testing.T) {
	var cfg *StepConfig
	if cfg.HasJoinLink() || cfg.HasShareLink() || cfg.HasReward() {
		t.Fatal("nil config must report nothing configured")
	}
}

func TestStepConfigLinkPredicates(t *testing.T) {
	cases := []struct {
		name string
		cfg  StepConfig
		join bool
		shr  bool
	}{
		{"both http", StepConfig{JoinLink: "https://t.me/x", ShareLink: "http://t.me/y"}, true, true},
		{"empty", StepConfig{}, false, false},
		{"non-url garbage", StepConfig{JoinLink: "not a link", ShareLink: "ftp://x"}, false, false},
		{"share only", StepConfig{ShareLink: "https://t.me/share"}, false, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.HasJoinLink(); got != tc.join {
				t.Fatalf("HasJoinLink = %v, want %v", got, tc.join)
			}
			if got := tc.cfg.HasShareLink(); got != tc.shr {
				t.Fatalf("HasShareLink = %v, want %v", got, tc.shr)
			}
		})
	}
}

func TestStepConfigHasReward(t *testing.T) {
	cfg := StepConfig{RewardFileID: "BAAC_file"}
	if !cfg.HasReward() {
		t.Fatal("expected reward present")
	}
	cfg.RewardFileID = ""
	if cfg.HasReward() {
		t.Fatal("empty file id must mean no reward")
	}
}

func TestUserTaskDone(t *testing.T) {
	u := &User{JoinCompleted: true}
	if !u.TaskDone(TaskJoin) {
		t.Fatal("join should be done")
	}
	if u.TaskDone(TaskShare) {
		t.Fatal("share should not be done")
	}
	var nilUser *User
	if nilUser.TaskDone(TaskJoin) {
		t.Fatal("nil user has no completed tasks")
	}
}
