// Package lifecycle owns the per-session mutable player state. A Manager
// is the single writer for one student: submissions go out through it,
// server-confirmed approvals come back through Reconcile, and every other
// player mutation (boxes, shop, guild) is funneled through the same lock.
package lifecycle

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/progression"
	"levelUpAPI/internal/types/player"
	"levelUpAPI/internal/types/submission"
)

type Manager struct {
	mu     sync.Mutex
	gw     gateway.Gateway
	state  *player.State
	subs   []*submission.Submission
	seen   map[string]submission.Status
	events []progression.Event
	rng    *rand.Rand
	dirty  bool

	// Now is the clock used for streak and quest math. Replace before
	// Start when tests need fixed dates.
	Now func() time.Time
}

// NewManager wraps already-loaded state. Most callers want Open.
func NewManager(gw gateway.Gateway, state *player.State, subs []*submission.Submission) *Manager {
	// Approved statuses are not pre-seeded: an approval that landed while
	// no session was open must still go through the engine on the first
	// reconcile. Already-rewarded submissions are in the completed sets,
	// so replaying them there is a no-op.
	seen := make(map[string]submission.Status, len(subs))
	for _, s := range subs {
		if s.Status == submission.StatusApproved {
			continue
		}
		seen[s.ID] = s.Status
	}
	return &Manager{
		gw:    gw,
		state: state,
		subs:  subs,
		seen:  seen,
		rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
		Now:   time.Now,
	}
}

// Open loads the student's document and submission list and builds the
// session manager around them.
func Open(ctx context.Context, gw gateway.Gateway, studentID string) (*Manager, error) {
	state, err := gw.GetPlayerState(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load player state: %w", err)
	}
	subs, err := gw.ListSubmissionsForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load submissions: %w", err)
	}
	return NewManager(gw, state, subs), nil
}

// SetRand replaces the mystery box random source. Tests use a seeded one.
func (m *Manager) SetRand(rng *rand.Rand) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rng = rng
}

// State returns a copy of the current player document.
func (m *Manager) State() *player.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone()
}

// Submissions returns a copy of the local submission view.
func (m *Manager) Submissions() []*submission.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*submission.Submission, len(m.subs))
	for i, s := range m.subs {
		cp := *s
		out[i] = &cp
	}
	return out
}

// PendingCount returns how many local submissions still await review.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.subs {
		if s.Status == submission.StatusPending {
			n++
		}
	}
	return n
}

// Events drains the queued level-up/achievement/mystery-box notifications.
func (m *Manager) Events() []progression.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.events
	m.events = nil
	return out
}

// SubmitActivity creates a pending submission for an activity. If one is
// already pending for the same activity the existing record comes back
// unchanged: at most one pending submission per activity, so rapid
// resubmission cannot farm rewards.
func (m *Manager) SubmitActivity(ctx context.Context, act catalog.Activity, pathID string, payload submission.Payload) (*submission.Submission, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", gateway.ErrValidation, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.pendingFor(act.ID, false); existing != nil {
		cp := *existing
		return &cp, nil
	}
	draft := &submission.Submission{
		StudentID:     m.state.ID,
		ClassID:       m.state.ClassID,
		ActivityID:    act.ID,
		ActivityTitle: act.Title,
		ActivityType:  act.Type,
		PathID:        pathID,
		XP:            act.XP,
		Type:          payload.Type,
		Content:       payload.Content,
		Note:          payload.Note,
	}
	return m.create(ctx, draft)
}

// SubmitBoss creates a pending boss submission, under the same
// at-most-one-pending rule keyed by boss id.
func (m *Manager) SubmitBoss(ctx context.Context, boss catalog.BossChallenge, payload submission.Payload) (*submission.Submission, error) {
	if err := payload.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", gateway.ErrValidation, err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing := m.pendingFor(boss.ID, true); existing != nil {
		cp := *existing
		return &cp, nil
	}
	draft := &submission.Submission{
		StudentID:     m.state.ID,
		ClassID:       m.state.ClassID,
		ActivityID:    boss.ID,
		ActivityTitle: boss.Name,
		ActivityType:  "Boss Challenge",
		PathID:        "boss",
		XP:            boss.Reward,
		IsBoss:        true,
		Type:          payload.Type,
		Content:       payload.Content,
		Note:          payload.Note,
	}
	return m.create(ctx, draft)
}

func (m *Manager) pendingFor(activityID string, isBoss bool) *submission.Submission {
	for _, s := range m.subs {
		if s.ActivityID == activityID && s.IsBoss == isBoss && s.Status == submission.StatusPending {
			return s
		}
	}
	return nil
}

func (m *Manager) create(ctx context.Context, draft *submission.Submission) (*submission.Submission, error) {
	created, err := m.gw.CreateSubmission(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create submission: %w", err)
	}
	m.subs = append(m.subs, created)
	m.seen[created.ID] = created.Status
	cp := *created
	return &cp, nil
}

// Reconcile pulls the authoritative submission list and folds it into
// local state. Every submission newly seen as approved is applied through
// the engine exactly once; the local list becomes the server list plus any
// locally-created pending records the server has not surfaced yet, so a
// fresh submission never transiently disappears during write propagation.
func (m *Manager) Reconcile(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	server, err := m.gw.ListSubmissionsForStudent(ctx, m.state.ID)
	if err != nil {
		return fmt.Errorf("list submissions: %w", err)
	}

	changed := false
	for _, sub := range server {
		if sub.Status != submission.StatusApproved || m.seen[sub.ID] == submission.StatusApproved {
			continue
		}
		var next *player.State
		var events []progression.Event
		if sub.IsBoss {
			next, events = progression.ApplyApprovedBoss(m.state, sub)
		} else {
			next, events = progression.ApplyApprovedActivity(m.state, sub, m.Now())
		}
		if next != m.state {
			m.state = next
			changed = true
		}
		m.events = append(m.events, events...)
	}

	serverIDs := make(map[string]bool, len(server))
	merged := make([]*submission.Submission, 0, len(server))
	for _, sub := range server {
		serverIDs[sub.ID] = true
		merged = append(merged, sub)
	}
	for _, local := range m.subs {
		if local.Status == submission.StatusPending && !serverIDs[local.ID] {
			merged = append(merged, local)
		}
	}
	m.subs = merged
	m.seen = make(map[string]submission.Status, len(merged))
	for _, sub := range merged {
		m.seen[sub.ID] = sub.Status
	}

	if changed {
		m.dirty = true
	}
	if m.dirty {
		if err := m.save(ctx); err != nil {
			return err
		}
	}
	return nil
}

// OpenMysteryBox resolves one pending box and persists the result. Returns
// a nil reward when nothing is pending.
func (m *Manager) OpenMysteryBox(ctx context.Context) (*catalog.MysteryReward, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, reward, events := progression.OpenMysteryBox(m.state, m.rng)
	if reward == nil {
		return nil, nil
	}
	m.state = next
	m.events = append(m.events, events...)
	if err := m.save(ctx); err != nil {
		return reward, err
	}
	return reward, nil
}

// JoinGuild moves the player to a guild and zeroes the contribution
// counter, per the guild-change rule.
func (m *Manager) JoinGuild(ctx context.Context, guildID string) error {
	if _, ok := catalog.GuildByID(guildID); !ok {
		return fmt.Errorf("%w: guild %s", gateway.ErrNotFound, guildID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = m.state.Clone()
	m.state.GuildID = guildID
	m.state.GuildXPContributed = 0
	return m.save(ctx)
}

// BuyAvatarItem spends coins on a shop item. Already-owned items and
// insufficient balances are conflicts, not purchases.
func (m *Manager) BuyAvatarItem(ctx context.Context, itemID string) error {
	item, ok := catalog.AvatarItemByID(itemID)
	if !ok {
		return fmt.Errorf("%w: item %s", gateway.ErrNotFound, itemID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.OwnsItem(item.ID) {
		return fmt.Errorf("%w: item already owned", gateway.ErrConflict)
	}
	if m.state.Coins < item.Cost {
		return fmt.Errorf("%w: not enough coins", gateway.ErrConflict)
	}
	m.state = m.state.Clone()
	m.state.Coins -= item.Cost
	m.state.OwnedItems = append(m.state.OwnedItems, item.ID)
	return m.save(ctx)
}

// EquipAvatarItem equips an owned item into its category slot.
func (m *Manager) EquipAvatarItem(ctx context.Context, itemID string) error {
	item, ok := catalog.AvatarItemByID(itemID)
	if !ok {
		return fmt.Errorf("%w: item %s", gateway.ErrNotFound, itemID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.state.OwnsItem(item.ID) {
		return fmt.Errorf("%w: item not owned", gateway.ErrConflict)
	}
	m.state = m.state.Clone()
	switch item.Category {
	case "color":
		m.state.Avatar.Color = item.ID
	case "hat":
		m.state.Avatar.Hat = item.ID
	case "accessory":
		m.state.Avatar.Accessory = item.ID
	case "face":
		m.state.Avatar.Face = item.ID
	}
	return m.save(ctx)
}

// SetPlayerName updates the display name.
func (m *Manager) SetPlayerName(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = m.state.Clone()
	m.state.Name = name
	return m.save(ctx)
}

// save persists the current state; callers hold the lock. A failed write
// leaves the state marked dirty so the next reconcile retries it.
func (m *Manager) save(ctx context.Context) error {
	if err := m.gw.SavePlayerState(ctx, m.state.Clone()); err != nil {
		m.dirty = true
		return fmt.Errorf("save player state: %w", err)
	}
	m.dirty = false
	return nil
}
