package progression

import (
	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/types/player"
)

// predicate decides whether an achievement's condition holds for a state.
type predicate func(*player.State) bool

// predicates maps achievement ids to their unlock conditions. Evaluation
// order comes from catalog.Achievements, not from this map.
var predicates = map[string]predicate{
	"first_mission": func(s *player.State) bool { return s.TotalActivitiesCompleted >= 1 },
	"variety_pack": func(s *player.State) bool {
		return s.PathCompletions["path1"] > 0 && s.PathCompletions["path2"] > 0 && s.PathCompletions["path3"] > 0
	},
	"streak_3":     func(s *player.State) bool { return s.CurrentStreak >= 3 },
	"streak_5":     func(s *player.State) bool { return s.CurrentStreak >= 5 },
	"streak_10":    func(s *player.State) bool { return s.CurrentStreak >= 10 },
	"collab_3":     func(s *player.State) bool { return s.CollaborationCount >= 3 },
	"wordsmith_5":  func(s *player.State) bool { return s.PathCompletions["path1"] >= 5 },
	"data_5":       func(s *player.State) bool { return s.PathCompletions["path2"] >= 5 },
	"creator_5":    func(s *player.State) bool { return s.PathCompletions["path3"] >= 5 },
	"level_5":      func(s *player.State) bool { return LevelFor(s.XP).Level >= 5 },
	"boss_slayer":  func(s *player.State) bool { return len(s.CompletedBossChallenges) >= 1 },
	"lucky_draw":   func(s *player.State) bool { return s.MysteryBoxesOpened >= 5 },
	"guild_hero":   func(s *player.State) bool { return s.GuildXPContributed >= 500 },
	"completionist": func(s *player.State) bool { return len(s.CompletedActivities) >= 6 },
}

// unlockAchievements evaluates the registry against the state, records new
// unlocks and credits their XP rewards directly (no quest or double-XP
// multipliers). All predicates see the state as it was before this pass,
// so one unlock's reward cannot cascade into another within the same pass.
// Mutates the state in place; callers pass the already-cloned next state.
func unlockAchievements(next *player.State) []Event {
	var newlyUnlocked []catalog.Achievement
	for _, def := range catalog.Achievements {
		if next.HasAchievement(def.ID) {
			continue
		}
		check, ok := predicates[def.ID]
		if !ok || !check(next) {
			continue
		}
		newlyUnlocked = append(newlyUnlocked, def)
		next.UnlockedAchievements = append(next.UnlockedAchievements, def.ID)
	}

	var events []Event
	for _, def := range newlyUnlocked {
		next.XP += def.XPReward
		ach := def
		events = append(events, Event{Type: EventAchievement, Achievement: &ach})
	}
	return events
}
