package progress

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gatebot/storage"
)

// memUserStore mimics the conditional-update semantics of the real
// Postgres store: guarded transitions re-check preconditions under lock.
type memUserStore struct {
	mu    sync.Mutex
	users map[int64]*storage.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[int64]*storage.User)}
}

func (s *memUserStore) GetOrCreate(_ context.Context, id int64, username string) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		u = &storage.User{ID: id, Username: username, CurrentStep: 1}
		s.users[id] = u
	}
	u.Username = username
	copied := *u
	return &copied, nil
}

func (s *memUserStore) Get(_ context.Context, id int64) (*storage.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	copied := *u
	return &copied, nil
}

func (s *memUserStore) MarkTaskDone(_ context.Context, id int64, step int, task storage.Task) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.CurrentStep != step {
		return false, nil
	}
	switch task {
	case storage.TaskJoin:
		u.JoinCompleted = true
	case storage.TaskShare:
		u.ShareCompleted = true
	default:
		return false, errors.New("unknown task")
	}
	return true, nil
}

func (s *memUserStore) AdvanceFromStep(_ context.Context, id int64, step int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.CurrentStep != step || !u.JoinCompleted || !u.ShareCompleted {
		return false, nil
	}
	u.CurrentStep++
	u.JoinCompleted = false
	u.ShareCompleted = false
	u.LastRewardStep = step
	return true, nil
}

type memStepGetter struct {
	configs map[int]*storage.StepConfig
}

func (g *memStepGetter) Get(_ context.Context, step int) (*storage.StepConfig, error) {
	cfg, ok := g.configs[step]
	if !ok {
		return nil, nil
	}
	copied := *cfg
	return &copied, nil
}

func rewardStep(step int) *memStepGetter {
	return &memStepGetter{configs: map[int]*storage.StepConfig{
		step: {
			StepNumber:    step,
			JoinLink:      "https://t.me/joinchat/abc",
			ShareLink:     "https://t.me/share/url?url=x",
			RewardFileID:  "BAAC_video",
			RewardCaption: "step reward",
		},
	}}
}

func TestGetOrCreateStartsAtStepOne(t *testing.T) {
	tr := NewTracker(newMemUserStore(), rewardStep(1))
	u, err := tr.GetOrCreate(context.Background(), 100, "alice")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if u.CurrentStep != 1 || u.JoinCompleted || u.ShareCompleted || u.LastRewardStep != 0 {
		t.Fatalf("fresh user state wrong: %+v", u)
	}
}

func TestStaleMarkIsNoOp(t *testing.T) {
	store := newMemUserStore()
	tr := NewTracker(store, rewardStep(1))
	ctx := context.Background()
	_, _ = tr.GetOrCreate(ctx, 100, "alice")

	applied, err := tr.MarkJoinCompleted(ctx, 100, 4)
	if err != nil {
		t.Fatalf("MarkJoinCompleted: %v", err)
	}
	if applied {
		t.Fatal("stale mark must not apply")
	}
	u, _ := tr.Get(ctx, 100)
	if u.JoinCompleted {
		t.Fatal("stale mark must not mutate state")
	}
}

func TestAdvanceResetsFlags(t *testing.T) {
	store := newMemUserStore()
	tr := NewTracker(store, rewardStep(1))
	ctx := context.Background()
	_, _ = tr.GetOrCreate(ctx, 100, "alice")
	_, _ = tr.MarkJoinCompleted(ctx, 100, 1)
	_, _ = tr.MarkShareCompleted(ctx, 100, 1)

	reward, err := tr.TryAdvanceAndIssueReward(ctx, 100, 1)
	if err != nil {
		t.Fatalf("TryAdvanceAndIssueReward: %v", err)
	}
	if reward.Step != 1 || reward.FileID != "BAAC_video" {
		t.Fatalf("reward = %+v", reward)
	}

	u, _ := tr.Get(ctx, 100)
	if u.CurrentStep != 2 {
		t.Fatalf("current step = %d, want 2", u.CurrentStep)
	}
	if u.JoinCompleted || u.ShareCompleted {
		t.Fatal("flags must reset on advance")
	}
	if u.LastRewardStep != 1 {
		t.Fatalf("last reward step = %d, want 1", u.LastRewardStep)
	}
}

func TestAdvanceRequiresBothTasks(t *testing.T) {
	tr := NewTracker(newMemUserStore(), rewardStep(1))
	ctx := context.Background()
	_, _ = tr.GetOrCreate(ctx, 100, "alice")
	_, _ = tr.MarkJoinCompleted(ctx, 100, 1)

	_, err := tr.TryAdvanceAndIssueReward(ctx, 100, 1)
	if !errors.Is(err, ErrTaskIncomplete) {
		t.Fatalf("err = %v, want ErrTaskIncomplete", err)
	}

	u, _ := tr.Get(ctx, 100)
	if u.CurrentStep != 1 {
		t.Fatal("failed claim must not advance")
	}
}

func TestAdvanceRequiresReward(t *testing.T) {
	noReward := &memStepGetter{configs: map[int]*storage.StepConfig{
		1: {StepNumber: 1, ShareLink: "https://t.me/share/url?url=x"},
	}}
	tr := NewTracker(newMemUserStore(), noReward)
	ctx := context.Background()
	_, _ = tr.GetOrCreate(ctx, 100, "alice")
	_, _ = tr.MarkJoinCompleted(ctx, 100, 1)
	_, _ = tr.MarkShareCompleted(ctx, 100, 1)

	_, err := tr.TryAdvanceAndIssueReward(ctx, 100, 1)
	if !errors.Is(err, ErrRewardNotConfigured) {
		t.Fatalf("err = %v, want ErrRewardNotConfigured", err)
	}
	u, _ := tr.Get(ctx, 100)
	if u.CurrentStep != 1 || !u.JoinCompleted || !u.ShareCompleted {
		t.Fatal("claim without reward must not mutate state")
	}
}

func TestConcurrentClaimsIssueExactlyOneReward(t *testing.T) {
	tr := NewTracker(newMemUserStore(), rewardStep(1))
	ctx := context.Background()
	_, _ = tr.GetOrCreate(ctx, 100, "alice")
	_, _ = tr.MarkJoinCompleted(ctx, 100, 1)
	_, _ = tr.MarkShareCompleted(ctx, 100, 1)

	const claims = 32
	var wg sync.WaitGroup
	results := make(chan error, claims)
	for i := 0; i < claims; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tr.TryAdvanceAndIssueReward(ctx, 100, 1)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var issued, lost int
	for err := range results {
		switch {
		case err == nil:
			issued++
		case errors.Is(err, ErrTaskIncomplete):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if issued != 1 {
		t.Fatalf("issued = %d, want exactly 1", issued)
	}
	if lost != claims-1 {
		t.Fatalf("lost = %d, want %d", lost, claims-1)
	}

	u, _ := tr.Get(ctx, 100)
	if u.CurrentStep != 2 {
		t.Fatalf("current step = %d, want 2 after single advance", u.CurrentStep)
	}
}
