package engine

import (
	"reflect"
	"testing"

	"gatebot/storage"
)

func fullConfig(step int) *storage.StepConfig {
	return &storage.StepConfig{
		StepNumber:    step,
		JoinLink:      "https://t.me/joinchat/abc",
		ShareLink:     "https://t.me/share/url?url=x",
		RewardFileID:  "BAAC_video",
		RewardCaption: "enjoy",
	}
}

func findAction(t *testing.T, rm RenderModel, unique string) *Action {
	t.Helper()
	for i := range rm.Actions {
		if rm.Actions[i].Unique == unique {
			return &rm.Actions[i]
		}
	}
	return nil
}

func TestFreshUserBothTasksActionable(t *testing.T) {
	u := &storage.User{ID: 1, CurrentStep: 1}
	rm := BuildRenderModel(u, fullConfig(1), false)

	if len(rm.Actions) != 2 {
		t.Fatalf("actions = %d, want join + share only", len(rm.Actions))
	}
	if rm.Actions[0].Kind != ActionLink || rm.Actions[0].URL == "" {
		t.Fatalf("join action should be an external link: %+v", rm.Actions[0])
	}
	if rm.Actions[1].Kind != ActionLink || rm.Actions[1].URL == "" {
		t.Fatalf("share action should be an external link: %+v", rm.Actions[1])
	}
	if findAction(t, rm, CbClaimReward) != nil {
		t.Fatal("fresh user must not see a claim action")
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	u := &storage.User{ID: 1, CurrentStep: 2, JoinCompleted: true}
	cfg := fullConfig(2)

	first := BuildRenderModel(u, cfg, false)
	second := BuildRenderModel(u, cfg, false)
	if !reflect.DeepEqual(first, second) {
		t.Fatal("same inputs must render identically")
	}
}

func TestBothDoneShowsClaim(t *testing.T) {
	u := &storage.User{ID: 1, CurrentStep: 1, JoinCompleted: true, ShareCompleted: true}
	rm := BuildRenderModel(u, fullConfig(1), false)

	claim := findAction(t, rm, CbClaimReward)
	if claim == nil {
		t.Fatal("expected claim action")
	}
	if claim.Data != "1" {
		t.Fatalf("claim data = %q, want step number", claim.Data)
	}
	if findAction(t, rm, CbProgressInfo) != nil {
		t.Fatal("no progress indicator when both tasks are done")
	}
}

func TestBothDoneWithoutRewardShowsUnavailable(t *testing.T) {
	cfg := fullConfig(1)
	cfg.RewardFileID = ""
	u := &storage.User{ID: 1, CurrentStep: 1, JoinCompleted: true, ShareCompleted: true}
	rm := BuildRenderModel(u, cfg, false)

	if findAction(t, rm, CbClaimReward) != nil {
		t.Fatal("no claim action without a reward")
	}
	if findAction(t, rm, CbRewardNotSet) == nil {
		t.Fatal("expected reward-not-set informational action")
	}
}

func TestPartialConfigShareOnly(t *testing.T) {
	// Step configured with only a share link: join unavailable, share
	// actionable; after sharing, progress indicator and never a reward.
	cfg := &storage.StepConfig{StepNumber: 3, ShareLink: "https://t.me/share/url?url=x"}
	u := &storage.User{ID: 1, CurrentStep: 3}

	rm := BuildRenderModel(u, cfg, false)
	if findAction(t, rm, CbLinkNotSet) == nil {
		t.Fatal("join should render as not set")
	}
	if rm.Actions[1].Kind != ActionLink {
		t.Fatalf("share should be actionable: %+v", rm.Actions[1])
	}

	u.ShareCompleted = true
	rm = BuildRenderModel(u, cfg, false)
	if findAction(t, rm, CbProgressInfo) == nil {
		t.Fatal("expected progress indicator with one task done")
	}
	if findAction(t, rm, CbClaimReward) != nil || findAction(t, rm, CbRewardNotSet) != nil {
		t.Fatal("no reward actions while a task is outstanding")
	}
}

func TestUnconfiguredStepRendersUnavailable(t *testing.T) {
	u := &storage.User{ID: 1, CurrentStep: 2}
	rm := BuildRenderModel(u, nil, false)

	if len(rm.Actions) != 2 {
		t.Fatalf("actions = %d, want two unavailable tasks", len(rm.Actions))
	}
	for _, a := range rm.Actions {
		if a.Unique != CbLinkNotSet {
			t.Fatalf("expected link-not-set action, got %+v", a)
		}
	}
}

func TestAdminSeesPanelButton(t *testing.T) {
	u := &storage.User{ID: 1, CurrentStep: 1}
	rm := BuildRenderModel(u, nil, true)
	if findAction(t, rm, CbAdminPanel) == nil {
		t.Fatal("admin must see the panel button")
	}
	rm = BuildRenderModel(u, nil, false)
	if findAction(t, rm, CbAdminPanel) != nil {
		t.Fatal("non-admin must not see the panel button")
	}
}
