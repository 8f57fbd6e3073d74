// Package progression implements the reward state machine: leveling,
// streaks, daily quests, achievements and mystery boxes. Every function
// here is pure over player.State (mystery box draws take an injected rand
// source) so the lifecycle manager can treat outputs as the only source
// of player mutation.
package progression

import (
	"math"
	"math/rand"
	"time"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/types/player"
	"levelUpAPI/internal/types/submission"
)

type EventType string

const (
	EventLevelUp     EventType = "level_up"
	EventAchievement EventType = "achievement"
	EventMysteryBox  EventType = "mystery_box"
)

// Event is a UI-facing notification produced by a state transition.
type Event struct {
	Type        EventType              `json:"type"`
	Level       *catalog.Level         `json:"level,omitempty"`
	Achievement *catalog.Achievement   `json:"achievement,omitempty"`
	Reward      *catalog.MysteryReward `json:"reward,omitempty"`
}

// LevelFor returns the highest tier whose threshold the xp total has met.
// Tier 1 has threshold 0, so the result is defined for any xp >= 0.
func LevelFor(xp int) catalog.Level {
	current := catalog.Levels[0]
	for _, lvl := range catalog.Levels {
		if xp >= lvl.XPRequired {
			current = lvl
		} else {
			break
		}
	}
	return current
}

// NextLevelThreshold returns the XP needed for the next tier, or the
// current tier's threshold when the player is already at the top.
func NextLevelThreshold(xp int) int {
	current := LevelFor(xp)
	for _, lvl := range catalog.Levels {
		if lvl.Level == current.Level+1 {
			return lvl.XPRequired
		}
	}
	return current.XPRequired
}

// DailyQuestFor selects the quest for a date by day-of-year rotation.
// Deterministic and identical on every client, no persisted state.
func DailyQuestFor(date time.Time) catalog.DailyQuest {
	return catalog.DailyQuests[date.YearDay()%len(catalog.DailyQuests)]
}

// QuestMatches reports whether an activity satisfies a quest's target,
// either by activity type or by learning path.
func QuestMatches(quest catalog.DailyQuest, activityType, pathID string) bool {
	if quest.TargetType != "" && activityType == quest.TargetType {
		return true
	}
	if quest.TargetPath != "" && pathID == quest.TargetPath {
		return true
	}
	return false
}

// questDoneToday reports whether the daily quest bonus was already claimed
// on the given day. The completed flag alone is not enough: it goes stale
// at midnight and is superseded by LastDailyQuestDate.
func questDoneToday(s *player.State, today time.Time) bool {
	return s.DailyQuestCompleted && s.LastDailyQuestDate == player.Date(today)
}

// ApplyApprovedActivity turns an approved activity submission into XP,
// streak, quest and mystery-box updates. Re-applying a submission whose
// activity id is already completed is a silent no-op, which is what makes
// duplicate reconciliation safe.
func ApplyApprovedActivity(s *player.State, sub *submission.Submission, today time.Time) (*player.State, []Event) {
	if s.HasCompletedActivity(sub.ActivityID) {
		return s, nil
	}

	next := s.Clone()

	// Streak: consecutive calendar days with an approved activity. The
	// shield forgives exactly one gap and is consumed only when it does.
	if diff, ok := player.DaysBetween(s.LastActivityDate, today); ok {
		switch {
		case diff == 1:
			next.CurrentStreak = s.CurrentStreak + 1
		case diff > 1:
			if s.StreakShieldActive {
				next.StreakShieldActive = false
			} else {
				next.CurrentStreak = 1
			}
		}
	} else {
		next.CurrentStreak = 1
	}
	next.LastActivityDate = player.Date(today)

	// XP: quest multiplier first, then the one-shot double-XP flag. They
	// stack multiplicatively and are consumed independently.
	xpEarned := sub.XP
	if xpEarned == 0 {
		xpEarned = 100
	}
	quest := DailyQuestFor(today)
	if QuestMatches(quest, sub.ActivityType, sub.PathID) && !questDoneToday(s, today) {
		xpEarned = int(math.Floor(float64(xpEarned) * quest.Multiplier))
		next.DailyQuestCompleted = true
		next.LastDailyQuestDate = player.Date(today)
	}
	if s.DoubleXPActive {
		xpEarned *= 2
		next.DoubleXPActive = false
	}

	next.CompletedActivities = append(next.CompletedActivities, sub.ActivityID)
	next.TotalActivitiesCompleted++
	next.PathCompletions[sub.PathID]++
	if sub.ActivityType == "Collaboration" {
		next.CollaborationCount++
	}

	boxGranted := next.TotalActivitiesCompleted%3 == 0
	if boxGranted {
		next.PendingMysteryBoxes++
	}

	next.XP += xpEarned
	if next.GuildID != "" {
		next.GuildXPContributed += xpEarned
	}

	events := unlockAchievements(next)

	oldLevel := LevelFor(s.XP)
	newLevel := LevelFor(next.XP)
	if newLevel.Level > oldLevel.Level {
		lvl := newLevel
		events = append(events, Event{Type: EventLevelUp, Level: &lvl})
	}
	if boxGranted {
		events = append(events, Event{Type: EventMysteryBox})
	}

	return next, events
}

// ApplyApprovedBoss handles boss submissions: straight XP, the boss
// completed-set, a guaranteed mystery box, and achievement evaluation.
// No streak or quest interaction.
func ApplyApprovedBoss(s *player.State, sub *submission.Submission) (*player.State, []Event) {
	if s.HasCompletedBoss(sub.ActivityID) {
		return s, nil
	}

	next := s.Clone()
	next.XP += sub.XP
	next.CompletedBossChallenges = append(next.CompletedBossChallenges, sub.ActivityID)
	if next.GuildID != "" {
		next.GuildXPContributed += sub.XP
	}
	next.PendingMysteryBoxes++

	events := unlockAchievements(next)
	events = append(events, Event{Type: EventMysteryBox})
	return next, events
}

// OpenMysteryBox resolves one pending box: a weighted rarity draw, then a
// uniform pick among that rarity's rewards. Returns the input state and a
// nil reward when no box is pending.
func OpenMysteryBox(s *player.State, rng *rand.Rand) (*player.State, *catalog.MysteryReward, []Event) {
	if s.PendingMysteryBoxes <= 0 {
		return s, nil, nil
	}

	rarity := catalog.RarityWeights[raritySampler.Sample(rng)].Rarity
	pool := catalog.MysteryRewardsByRarity(rarity)
	reward := pool[rng.Intn(len(pool))]

	next := s.Clone()
	next.PendingMysteryBoxes--
	next.MysteryBoxesOpened++

	switch reward.Type {
	case catalog.RewardXP:
		next.XP += reward.Amount
	case catalog.RewardCoins:
		next.Coins += reward.Amount
	case catalog.RewardItem:
		switch reward.Item {
		case catalog.ItemStreakShield:
			next.StreakShieldActive = true
		case catalog.ItemDoubleXP:
			next.DoubleXPActive = true
		}
	}

	events := unlockAchievements(next)
	return next, &reward, events
}

var raritySampler = newRaritySampler()

func newRaritySampler() *WeightedSampler {
	weights := make([]int, len(catalog.RarityWeights))
	for i, rw := range catalog.RarityWeights {
		weights[i] = rw.Weight
	}
	return NewWeightedSampler(weights)
}
