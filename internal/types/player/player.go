package player

import (
	"maps"
	"slices"
	"time"
)

// DateLayout is how activity dates are stored on the player document.
// Calendar days only, no time component, so streak math stays timezone-stable.
const DateLayout = "2006-01-02"

type Avatar struct {
	Color     string `json:"color" firestore:"color"`
	Hat       string `json:"hat" firestore:"hat"`
	Accessory string `json:"accessory" firestore:"accessory"`
	Face      string `json:"face" firestore:"face"`
}

// State is the full progression document for one student. It is loaded once
// per session, owned by the session's lifecycle manager and mutated only
// through the progression engine's outputs.
type State struct {
	ID      string `json:"id" firestore:"-"`
	ClassID string `json:"class_id" firestore:"classId"`
	Name    string `json:"name" firestore:"name"`

	XP    int `json:"xp" firestore:"xp"`
	Coins int `json:"coins" firestore:"coins"`

	CompletedActivities     []string `json:"completed_activities" firestore:"completedActivities"`
	CompletedBossChallenges []string `json:"completed_boss_challenges" firestore:"completedBossChallenges"`

	CurrentStreak      int    `json:"current_streak" firestore:"currentStreak"`
	LastActivityDate   string `json:"last_activity_date" firestore:"lastActivityDate"`
	StreakShieldActive bool   `json:"streak_shield_active" firestore:"streakShieldActive"`

	UnlockedAchievements []string `json:"unlocked_achievements" firestore:"unlockedAchievements"`

	GuildID            string `json:"guild_id" firestore:"guildId"`
	GuildXPContributed int    `json:"guild_xp_contributed" firestore:"guildXpContributed"`

	Avatar     Avatar   `json:"avatar" firestore:"avatar"`
	OwnedItems []string `json:"owned_items" firestore:"ownedItems"`

	DailyQuestCompleted bool   `json:"daily_quest_completed" firestore:"dailyQuestCompleted"`
	LastDailyQuestDate  string `json:"last_daily_quest_date" firestore:"lastDailyQuestDate"`

	MysteryBoxesOpened  int `json:"mystery_boxes_opened" firestore:"mysteryBoxesOpened"`
	PendingMysteryBoxes int `json:"pending_mystery_boxes" firestore:"pendingMysteryBoxes"`

	DoubleXPActive bool `json:"double_xp_active" firestore:"doubleXpActive"`

	TotalActivitiesCompleted int            `json:"total_activities_completed" firestore:"totalActivitiesCompleted"`
	CollaborationCount       int            `json:"collaboration_count" firestore:"collaborationCount"`
	PathCompletions          map[string]int `json:"path_completions" firestore:"pathCompletions"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// NewState returns a fresh player document with the starting balances and
// the default avatar items already owned.
func NewState(id, classID, name string) *State {
	return &State{
		ID:      id,
		ClassID: classID,
		Name:    name,
		XP:      0,
		Coins:   100,
		Avatar: Avatar{
			Color:     "default",
			Hat:       "none",
			Accessory: "bare",
			Face:      "happy",
		},
		OwnedItems:      []string{"default", "none", "bare", "happy"},
		PathCompletions: map[string]int{"path1": 0, "path2": 0, "path3": 0},
		CreatedAt:       time.Now(),
	}
}

// Clone deep-copies the state so engine functions can stay pure.
func (s *State) Clone() *State {
	out := *s
	out.CompletedActivities = slices.Clone(s.CompletedActivities)
	out.CompletedBossChallenges = slices.Clone(s.CompletedBossChallenges)
	out.UnlockedAchievements = slices.Clone(s.UnlockedAchievements)
	out.OwnedItems = slices.Clone(s.OwnedItems)
	out.PathCompletions = maps.Clone(s.PathCompletions)
	if out.PathCompletions == nil {
		out.PathCompletions = map[string]int{}
	}
	return &out
}

func (s *State) HasCompletedActivity(activityID string) bool {
	return slices.Contains(s.CompletedActivities, activityID)
}

func (s *State) HasCompletedBoss(bossID string) bool {
	return slices.Contains(s.CompletedBossChallenges, bossID)
}

func (s *State) HasAchievement(id string) bool {
	return slices.Contains(s.UnlockedAchievements, id)
}

func (s *State) OwnsItem(itemID string) bool {
	return slices.Contains(s.OwnedItems, itemID)
}

// Date formats a timestamp as a stored activity date.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween returns the number of whole calendar days from a stored date
// to the given day. ok is false when the stored date is empty or malformed.
func DaysBetween(stored string, day time.Time) (int, bool) {
	if stored == "" {
		return 0, false
	}
	from, err := time.Parse(DateLayout, stored)
	if err != nil {
		return 0, false
	}
	to, err := time.Parse(DateLayout, Date(day))
	if err != nil {
		return 0, false
	}
	return int(to.Sub(from).Hours() / 24), true
}
