package catalog

import "testing"

func TestLevelsAreOrdered(t *testing.T) {
	if Levels[0].XPRequired != 0 {
		t.Fatalf("first tier threshold = %d, want 0", Levels[0].XPRequired)
	}
	for i := 1; i < len(Levels); i++ {
		if Levels[i].XPRequired <= Levels[i-1].XPRequired {
			t.Errorf("tier %d threshold %d not above tier %d threshold %d",
				Levels[i].Level, Levels[i].XPRequired, Levels[i-1].Level, Levels[i-1].XPRequired)
		}
		if Levels[i].Level != Levels[i-1].Level+1 {
			t.Errorf("tier numbering jumps from %d to %d", Levels[i-1].Level, Levels[i].Level)
		}
	}
}

func TestAchievementIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for _, a := range Achievements {
		if seen[a.ID] {
			t.Errorf("duplicate achievement id %s", a.ID)
		}
		seen[a.ID] = true
		if a.XPReward <= 0 {
			t.Errorf("achievement %s has non-positive XP reward", a.ID)
		}
	}
}

func TestEveryRarityHasRewards(t *testing.T) {
	for _, rw := range RarityWeights {
		if rw.Weight <= 0 {
			t.Errorf("rarity %s has non-positive weight", rw.Rarity)
		}
		if len(MysteryRewardsByRarity(rw.Rarity)) == 0 {
			t.Errorf("rarity %s has no rewards to draw from", rw.Rarity)
		}
	}
}

func TestDailyQuestsTargetSomething(t *testing.T) {
	for _, q := range DailyQuests {
		if q.TargetType == "" && q.TargetPath == "" {
			t.Errorf("quest %s targets nothing", q.ID)
		}
		if q.Multiplier <= 1 {
			t.Errorf("quest %s multiplier %v gives no bonus", q.ID, q.Multiplier)
		}
	}
}

func TestActivityByID(t *testing.T) {
	act, pathID, ok := ActivityByID(LearningPaths, "2b")
	if !ok {
		t.Fatal("activity 2b not found on default board")
	}
	if pathID != "path2" || act.Type != "Collaboration" {
		t.Errorf("2b resolved to path %s type %s", pathID, act.Type)
	}

	if _, _, ok := ActivityByID(LearningPaths, "nope"); ok {
		t.Error("unknown activity id should not resolve")
	}
}

func TestDefaultBoardCoversEveryPath(t *testing.T) {
	for _, p := range LearningPaths {
		if len(p.Options) == 0 {
			t.Errorf("path %s has no activities", p.ID)
		}
		for _, a := range p.Options {
			if a.XP <= 0 {
				t.Errorf("activity %s has non-positive XP", a.ID)
			}
		}
	}
}

func TestShopDefaultsAreFree(t *testing.T) {
	for _, id := range []string{"default", "none", "bare", "happy"} {
		item, ok := AvatarItemByID(id)
		if !ok {
			t.Fatalf("starter item %s missing from shop", id)
		}
		if item.Cost != 0 {
			t.Errorf("starter item %s costs %d, want 0", id, item.Cost)
		}
	}
}

func TestEveryCategoryHasFreeDefault(t *testing.T) {
	// Each slot needs a zero-cost entry so equipping back to the default
	// is always possible.
	free := make(map[string]bool)
	for _, item := range AvatarItems {
		if item.Cost == 0 {
			free[item.Category] = true
		}
	}
	for _, item := range AvatarItems {
		if !free[item.Category] {
			t.Errorf("category %s has no free default entry", item.Category)
		}
	}
}
