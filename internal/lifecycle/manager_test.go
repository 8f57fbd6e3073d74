package lifecycle

import (
	"context"
	"errors"
	"testing"
	"time"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/gateway/memory"
	"levelUpAPI/internal/progression"
	"levelUpAPI/internal/types/player"
	"levelUpAPI/internal/types/submission"
)

// fixedDay picks a date whose daily quest targets path1, keeping quest
// bonuses out of path2/path3 test math.
var fixedDay = time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)

func linkPayload() submission.Payload {
	return submission.Payload{Type: submission.TypeLink, Content: "https://example.com/work"}
}

func mustActivity(t *testing.T, id string) (catalog.Activity, string) {
	t.Helper()
	act, pathID, ok := catalog.ActivityByID(catalog.LearningPaths, id)
	if !ok {
		t.Fatalf("activity %s not on default board", id)
	}
	return act, pathID
}

func setup(t *testing.T) (*memory.Store, *Manager) {
	t.Helper()
	ctx := context.Background()
	mem := memory.New()

	cls, err := mem.CreateClass(ctx, "teacher-1", "Room 12")
	if err != nil {
		t.Fatalf("create class: %v", err)
	}
	state, err := mem.JoinClass(ctx, cls.Code, "Alex")
	if err != nil {
		t.Fatalf("join class: %v", err)
	}

	mgr, err := Open(ctx, mem, state.ID)
	if err != nil {
		t.Fatalf("open session: %v", err)
	}
	mgr.Now = func() time.Time { return fixedDay }
	return mem, mgr
}

func TestSubmitActivityAtMostOnePending(t *testing.T) {
	_, mgr := setup(t)
	ctx := context.Background()
	act, pathID := mustActivity(t, "2a")

	first, err := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	second, err := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("resubmission created a new record: %s vs %s", first.ID, second.ID)
	}
	if got := mgr.PendingCount(); got != 1 {
		t.Errorf("PendingCount = %d, want 1", got)
	}
}

func TestSubmitActivityValidatesPayload(t *testing.T) {
	_, mgr := setup(t)
	act, pathID := mustActivity(t, "2a")

	_, err := mgr.SubmitActivity(context.Background(), act, pathID, submission.Payload{Type: "carrier_pigeon", Content: "x"})
	if !errors.Is(err, gateway.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}

	_, err = mgr.SubmitActivity(context.Background(), act, pathID, submission.Payload{Type: submission.TypeLink, Content: "   "})
	if !errors.Is(err, gateway.ErrValidation) {
		t.Errorf("empty content: err = %v, want ErrValidation", err)
	}
}

func TestReconcileAppliesApprovalExactlyOnce(t *testing.T) {
	mem, mgr := setup(t)
	ctx := context.Background()
	act, pathID := mustActivity(t, "2a")

	sub, err := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := mem.ReviewSubmission(ctx, sub.ID, submission.StatusApproved, "Nice work"); err != nil {
		t.Fatalf("review: %v", err)
	}

	if err := mgr.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	// 100 base plus the 25 XP first_mission unlock.
	if got := mgr.State().XP; got != 125 {
		t.Errorf("XP after first reconcile = %d, want 125", got)
	}

	if err := mgr.Reconcile(ctx); err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if got := mgr.State().XP; got != 125 {
		t.Errorf("XP after second reconcile = %d, want 125 (reward applied twice)", got)
	}
	if got := mgr.PendingCount(); got != 0 {
		t.Errorf("PendingCount = %d, want 0", got)
	}
}

func TestOfflineApprovalAppliedOnReopen(t *testing.T) {
	mem, mgr := setup(t)
	ctx := context.Background()
	act, pathID := mustActivity(t, "2a")

	sub, err := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	studentID := mgr.State().ID

	// The session goes away before the teacher gets to it.
	if _, err := mem.ReviewSubmission(ctx, sub.ID, submission.StatusApproved, ""); err != nil {
		t.Fatalf("review: %v", err)
	}

	reopened, err := Open(ctx, mem, studentID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Now = func() time.Time { return fixedDay }

	if err := reopened.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	st := reopened.State()
	if st.XP != 125 {
		t.Errorf("XP after offline approval = %d, want 125", st.XP)
	}
	if st.TotalActivitiesCompleted != 1 {
		t.Errorf("TotalActivitiesCompleted = %d, want 1", st.TotalActivitiesCompleted)
	}
	if events := reopened.Events(); len(events) == 0 {
		t.Error("expected reward events after applying the offline approval")
	}
}

func TestReopenDoesNotReplayAppliedRewards(t *testing.T) {
	mem, mgr := setup(t)
	ctx := context.Background()
	act, pathID := mustActivity(t, "2a")

	sub, _ := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	mem.ReviewSubmission(ctx, sub.ID, submission.StatusApproved, "")
	if err := mgr.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	studentID := mgr.State().ID

	reopened, err := Open(ctx, mem, studentID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	reopened.Now = func() time.Time { return fixedDay }
	if err := reopened.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile after reopen: %v", err)
	}

	if got := reopened.State().XP; got != 125 {
		t.Errorf("XP after reopen = %d, want 125 (reward replayed)", got)
	}
	if events := reopened.Events(); len(events) != 0 {
		t.Errorf("replay produced %d events, want 0", len(events))
	}
}

func TestReconcilePersistsState(t *testing.T) {
	mem, mgr := setup(t)
	ctx := context.Background()
	act, pathID := mustActivity(t, "2a")

	sub, _ := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	mem.ReviewSubmission(ctx, sub.ID, submission.StatusApproved, "")
	if err := mgr.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	stored, err := mem.GetPlayerState(ctx, mgr.State().ID)
	if err != nil {
		t.Fatalf("load stored state: %v", err)
	}
	if stored.XP != 125 {
		t.Errorf("stored XP = %d, want 125", stored.XP)
	}
}

func TestReconcileRejectionGivesNothing(t *testing.T) {
	mem, mgr := setup(t)
	ctx := context.Background()
	act, pathID := mustActivity(t, "2a")

	sub, _ := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	if _, err := mem.ReviewSubmission(ctx, sub.ID, submission.StatusRejected, "Try again"); err != nil {
		t.Fatalf("review: %v", err)
	}
	if err := mgr.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}

	st := mgr.State()
	if st.XP != 0 || st.TotalActivitiesCompleted != 0 {
		t.Errorf("rejection granted rewards: XP=%d total=%d", st.XP, st.TotalActivitiesCompleted)
	}
	subs := mgr.Submissions()
	if len(subs) != 1 || subs[0].Status != submission.StatusRejected || subs[0].TeacherFeedback != "Try again" {
		t.Errorf("local view = %+v, want one rejected submission with feedback", subs)
	}
}

// droppingStore hides the submission list once, the way a backend read can
// lag behind a just-created record.
type droppingStore struct {
	*memory.Store
	dropNext bool
}

func (d *droppingStore) ListSubmissionsForStudent(ctx context.Context, studentID string) ([]*submission.Submission, error) {
	if d.dropNext {
		d.dropNext = false
		return nil, nil
	}
	return d.Store.ListSubmissionsForStudent(ctx, studentID)
}

func TestReconcileKeepsLocalPendingMissingFromServer(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	cls, _ := mem.CreateClass(ctx, "teacher-1", "Room 12")
	state, _ := mem.JoinClass(ctx, cls.Code, "Alex")

	ds := &droppingStore{Store: mem}
	mgr, err := Open(ctx, ds, state.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mgr.Now = func() time.Time { return fixedDay }

	act, pathID := mustActivity(t, "2a")
	if _, err := mgr.SubmitActivity(ctx, act, pathID, linkPayload()); err != nil {
		t.Fatalf("submit: %v", err)
	}

	ds.dropNext = true
	if err := mgr.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := mgr.PendingCount(); got != 1 {
		t.Errorf("pending submission vanished during lagged read: PendingCount = %d, want 1", got)
	}
}

// flakySaveStore fails a set number of state writes, the way a backend
// blip can land between reward application and persistence.
type flakySaveStore struct {
	*memory.Store
	failSaves int
}

func (f *flakySaveStore) SavePlayerState(ctx context.Context, state *player.State) error {
	if f.failSaves > 0 {
		f.failSaves--
		return gateway.ErrBackendUnavailable
	}
	return f.Store.SavePlayerState(ctx, state)
}

func TestReconcileRetriesFailedSave(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	cls, _ := mem.CreateClass(ctx, "teacher-1", "Room 12")
	state, _ := mem.JoinClass(ctx, cls.Code, "Alex")

	fs := &flakySaveStore{Store: mem}
	mgr, err := Open(ctx, fs, state.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	mgr.Now = func() time.Time { return fixedDay }

	act, pathID := mustActivity(t, "2a")
	sub, _ := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	mem.ReviewSubmission(ctx, sub.ID, submission.StatusApproved, "")

	fs.failSaves = 1
	if err := mgr.Reconcile(ctx); err == nil {
		t.Fatal("expected the failed save to surface")
	}
	if got := mgr.State().XP; got != 125 {
		t.Fatalf("in-memory XP = %d, want 125", got)
	}
	stored, _ := mem.GetPlayerState(ctx, state.ID)
	if stored.XP != 0 {
		t.Fatalf("stored XP = %d before a successful save, want 0", stored.XP)
	}

	// Nothing new arrives, but the unsaved state is written on the next
	// pass anyway.
	if err := mgr.Reconcile(ctx); err != nil {
		t.Fatalf("retry reconcile: %v", err)
	}
	stored, _ = mem.GetPlayerState(ctx, state.ID)
	if stored.XP != 125 {
		t.Errorf("stored XP after retry = %d, want 125", stored.XP)
	}
	if got := mgr.State().XP; got != 125 {
		t.Errorf("in-memory XP after retry = %d, want 125 (reward applied twice)", got)
	}
}

func TestEventsDrainOnce(t *testing.T) {
	mem, mgr := setup(t)
	ctx := context.Background()
	act, pathID := mustActivity(t, "2a")

	sub, _ := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	mem.ReviewSubmission(ctx, sub.ID, submission.StatusApproved, "")
	mgr.Reconcile(ctx)

	events := mgr.Events()
	if len(events) == 0 {
		t.Fatal("expected at least one event after approval")
	}
	if events[0].Type != progression.EventAchievement {
		t.Errorf("events[0].Type = %s, want achievement", events[0].Type)
	}
	if again := mgr.Events(); len(again) != 0 {
		t.Errorf("second drain returned %d events, want 0", len(again))
	}
}

func TestMysteryBoxFlow(t *testing.T) {
	mem, mgr := setup(t)
	ctx := context.Background()

	// No box pending yet.
	reward, err := mgr.OpenMysteryBox(ctx)
	if err != nil || reward != nil {
		t.Fatalf("OpenMysteryBox with none pending = (%v, %v), want (nil, nil)", reward, err)
	}

	// Third approved activity grants a box.
	for _, id := range []string{"1a", "1b", "2a"} {
		act, pathID := mustActivity(t, id)
		sub, err := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
		if err != nil {
			t.Fatalf("submit %s: %v", id, err)
		}
		if _, err := mem.ReviewSubmission(ctx, sub.ID, submission.StatusApproved, ""); err != nil {
			t.Fatalf("review %s: %v", id, err)
		}
	}
	if err := mgr.Reconcile(ctx); err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if got := mgr.State().PendingMysteryBoxes; got != 1 {
		t.Fatalf("PendingMysteryBoxes = %d, want 1", got)
	}

	reward, err = mgr.OpenMysteryBox(ctx)
	if err != nil {
		t.Fatalf("open box: %v", err)
	}
	if reward == nil {
		t.Fatal("expected a reward")
	}
	if got := mgr.State().PendingMysteryBoxes; got != 0 {
		t.Errorf("PendingMysteryBoxes after open = %d, want 0", got)
	}

	reward, err = mgr.OpenMysteryBox(ctx)
	if err != nil || reward != nil {
		t.Errorf("second open = (%v, %v), want (nil, nil)", reward, err)
	}
}

func TestShopPurchaseAndEquip(t *testing.T) {
	_, mgr := setup(t)
	ctx := context.Background()

	if err := mgr.BuyAvatarItem(ctx, "gold"); !errors.Is(err, gateway.ErrConflict) {
		t.Errorf("buying above balance: err = %v, want ErrConflict", err)
	}

	if err := mgr.BuyAvatarItem(ctx, "cool"); err != nil {
		t.Fatalf("buy: %v", err)
	}
	st := mgr.State()
	if st.Coins != 60 {
		t.Errorf("Coins = %d, want 60", st.Coins)
	}
	if !st.OwnsItem("cool") {
		t.Error("purchased item not owned")
	}

	if err := mgr.BuyAvatarItem(ctx, "cool"); !errors.Is(err, gateway.ErrConflict) {
		t.Errorf("double purchase: err = %v, want ErrConflict", err)
	}

	if err := mgr.EquipAvatarItem(ctx, "cool"); err != nil {
		t.Fatalf("equip: %v", err)
	}
	if got := mgr.State().Avatar.Face; got != "cool" {
		t.Errorf("Avatar.Face = %q, want cool", got)
	}

	if err := mgr.EquipAvatarItem(ctx, "crown"); !errors.Is(err, gateway.ErrConflict) {
		t.Errorf("equipping unowned: err = %v, want ErrConflict", err)
	}
	if err := mgr.BuyAvatarItem(ctx, "jetpack"); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("unknown item: err = %v, want ErrNotFound", err)
	}

	// Every slot can go back to its free default, the accessory included.
	if err := mgr.BuyAvatarItem(ctx, "glasses"); err != nil {
		t.Fatalf("buy glasses: %v", err)
	}
	if err := mgr.EquipAvatarItem(ctx, "glasses"); err != nil {
		t.Fatalf("equip glasses: %v", err)
	}
	if got := mgr.State().Avatar.Accessory; got != "glasses" {
		t.Errorf("Avatar.Accessory = %q, want glasses", got)
	}
	if err := mgr.EquipAvatarItem(ctx, "bare"); err != nil {
		t.Fatalf("equip accessory default: %v", err)
	}
	if got := mgr.State().Avatar.Accessory; got != "bare" {
		t.Errorf("Avatar.Accessory after unequip = %q, want bare", got)
	}
}

func TestJoinGuildResetsContribution(t *testing.T) {
	_, mgr := setup(t)
	ctx := context.Background()

	if err := mgr.JoinGuild(ctx, "guild_mushrooms"); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("unknown guild: err = %v, want ErrNotFound", err)
	}

	if err := mgr.JoinGuild(ctx, "guild_phoenix"); err != nil {
		t.Fatalf("join guild: %v", err)
	}
	if got := mgr.State().GuildID; got != "guild_phoenix" {
		t.Errorf("GuildID = %q, want guild_phoenix", got)
	}

	// Switching guilds starts the contribution count over.
	if err := mgr.JoinGuild(ctx, "guild_wolves"); err != nil {
		t.Fatalf("switch guild: %v", err)
	}
	st := mgr.State()
	if st.GuildID != "guild_wolves" || st.GuildXPContributed != 0 {
		t.Errorf("after switch: guild=%q contributed=%d", st.GuildID, st.GuildXPContributed)
	}
}

func TestBackgroundPollAppliesApproval(t *testing.T) {
	mem, mgr := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	act, pathID := mustActivity(t, "2a")
	sub, err := mgr.SubmitActivity(ctx, act, pathID, linkPayload())
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	mgr.Start(ctx, 10*time.Millisecond)
	if _, err := mem.ReviewSubmission(ctx, sub.ID, submission.StatusApproved, ""); err != nil {
		t.Fatalf("review: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if mgr.State().XP > 0 {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("poll never applied the approval")
}

func TestRegistryLifecycle(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	cls, _ := mem.CreateClass(ctx, "teacher-1", "Room 12")
	state, _ := mem.JoinClass(ctx, cls.Code, "Alex")

	reg := NewRegistry(mem, 50*time.Millisecond)
	defer reg.CloseAll()

	if _, ok := reg.Get(state.ID); ok {
		t.Fatal("Get before Open should miss")
	}

	mgr, err := reg.Open(ctx, state.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	got, ok := reg.Get(state.ID)
	if !ok || got != mgr {
		t.Error("Get should return the opened session")
	}

	// Opening again reuses the live session.
	again, err := reg.Open(ctx, state.ID)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if again != mgr {
		t.Error("reopening an open session should not replace it")
	}

	reg.Close(state.ID)
	if _, ok := reg.Get(state.ID); ok {
		t.Error("Get after Close should miss")
	}

	if _, err := reg.Open(ctx, "missing-student"); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("open unknown student: err = %v, want ErrNotFound", err)
	}
}
