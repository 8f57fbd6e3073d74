// Package catalog holds the static reference data the progression engine
// runs against: level tiers, achievement definitions, the daily quest
// rotation, mystery reward tables, the avatar shop and the activity board.
// Loaded once, read-only, process-wide.
package catalog

type Level struct {
	Level      int    `json:"level"`
	XPRequired int    `json:"xp_required"`
	Title      string `json:"title"`
	Color      string `json:"color"`
}

// Levels is ordered by ascending XPRequired; tier 1 starts at 0 so a level
// is defined for every xp value.
var Levels = []Level{
	{Level: 1, XPRequired: 0, Title: "Rookie", Color: "#94a3b8"},
	{Level: 2, XPRequired: 150, Title: "Explorer", Color: "#38bdf8"},
	{Level: 3, XPRequired: 350, Title: "Adventurer", Color: "#4ade80"},
	{Level: 4, XPRequired: 600, Title: "Hero", Color: "#a78bfa"},
	{Level: 5, XPRequired: 900, Title: "Champion", Color: "#fb923c"},
	{Level: 6, XPRequired: 1300, Title: "Legend", Color: "#f87171"},
	{Level: 7, XPRequired: 1800, Title: "Mythic", Color: "#facc15"},
}

type Achievement struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	XPReward    int    `json:"xp_reward"`
}

// Achievements is the unlock registry. Order matters: predicates are
// evaluated and unlock events emitted in this order.
var Achievements = []Achievement{
	{ID: "first_mission", Name: "First Mission", Description: "Complete your first activity", Icon: "🚀", XPReward: 25},
	{ID: "variety_pack", Name: "Variety Pack", Description: "Complete an activity on every path", Icon: "🎨", XPReward: 50},
	{ID: "streak_3", Name: "On a Roll", Description: "Keep a 3-day streak", Icon: "🔥", XPReward: 30},
	{ID: "streak_5", Name: "Unstoppable", Description: "Keep a 5-day streak", Icon: "⚡", XPReward: 60},
	{ID: "streak_10", Name: "Perfect Ten", Description: "Keep a 10-day streak", Icon: "💫", XPReward: 120},
	{ID: "collab_3", Name: "Team Player", Description: "Complete 3 collaboration activities", Icon: "🤝", XPReward: 40},
	{ID: "wordsmith_5", Name: "Wordsmith", Description: "Complete 5 Wordsmith activities", Icon: "📖", XPReward: 50},
	{ID: "data_5", Name: "Data Detective", Description: "Complete 5 Data Scientist activities", Icon: "📊", XPReward: 50},
	{ID: "creator_5", Name: "Master Maker", Description: "Complete 5 Creator activities", Icon: "🎬", XPReward: 50},
	{ID: "level_5", Name: "Champion", Description: "Reach level 5", Icon: "🏆", XPReward: 100},
	{ID: "boss_slayer", Name: "Boss Slayer", Description: "Defeat a boss challenge", Icon: "⚔️", XPReward: 75},
	{ID: "lucky_draw", Name: "Lucky Draw", Description: "Open 5 mystery boxes", Icon: "🎁", XPReward: 40},
	{ID: "guild_hero", Name: "Guild Hero", Description: "Contribute 500 XP to your guild", Icon: "🛡️", XPReward: 80},
	{ID: "completionist", Name: "Completionist", Description: "Complete 6 different activities", Icon: "👑", XPReward: 150},
}

func AchievementByID(id string) (Achievement, bool) {
	for _, a := range Achievements {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

type DailyQuest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	TargetType  string  `json:"target_type,omitempty"`
	TargetPath  string  `json:"target_path,omitempty"`
	Multiplier  float64 `json:"multiplier"`
}

// DailyQuests rotates by day-of-year modulo its length, so every client
// computes the same quest for a given date without any persisted state.
var DailyQuests = []DailyQuest{
	{ID: "quest_hightech", Name: "Gadget Guru", Description: "Complete a High Tech activity", TargetType: "High Tech", Multiplier: 2},
	{ID: "quest_wordsmith", Name: "Word Wizard", Description: "Complete a Wordsmith activity", TargetPath: "path1", Multiplier: 2},
	{ID: "quest_collab", Name: "Better Together", Description: "Complete a Collaboration activity", TargetType: "Collaboration", Multiplier: 2},
	{ID: "quest_data", Name: "Number Cruncher", Description: "Complete a Data Scientist activity", TargetPath: "path2", Multiplier: 2},
	{ID: "quest_creator", Name: "Studio Session", Description: "Complete a Creator activity", TargetPath: "path3", Multiplier: 2},
	{ID: "quest_lowtech", Name: "Unplugged", Description: "Complete a Low Tech activity", TargetType: "Low Tech", Multiplier: 3},
}

type Rarity string

const (
	RarityCommon   Rarity = "common"
	RarityUncommon Rarity = "uncommon"
	RarityRare     Rarity = "rare"
	RarityEpic     Rarity = "epic"
)

// RarityWeight pairs a rarity tier with its draw weight. Order is the fixed
// subtraction order of the cumulative draw.
type RarityWeight struct {
	Rarity Rarity
	Weight int
}

var RarityWeights = []RarityWeight{
	{RarityCommon, 50},
	{RarityUncommon, 30},
	{RarityRare, 15},
	{RarityEpic, 5},
}

type RewardType string

const (
	RewardXP    RewardType = "xp"
	RewardCoins RewardType = "coins"
	RewardItem  RewardType = "item"
)

const (
	ItemStreakShield = "streak_shield"
	ItemDoubleXP     = "double_xp"
)

type MysteryReward struct {
	ID     string     `json:"id"`
	Label  string     `json:"label"`
	Rarity Rarity     `json:"rarity"`
	Type   RewardType `json:"type"`
	Amount int        `json:"amount,omitempty"`
	Item   string     `json:"item,omitempty"`
}

var MysteryRewards = []MysteryReward{
	{ID: "mr_xp_15", Label: "Small XP Boost", Rarity: RarityCommon, Type: RewardXP, Amount: 15},
	{ID: "mr_xp_25", Label: "XP Boost", Rarity: RarityCommon, Type: RewardXP, Amount: 25},
	{ID: "mr_coins_20", Label: "Coin Pouch", Rarity: RarityCommon, Type: RewardCoins, Amount: 20},
	{ID: "mr_xp_75", Label: "Big XP Boost", Rarity: RarityUncommon, Type: RewardXP, Amount: 75},
	{ID: "mr_coins_50", Label: "Coin Stash", Rarity: RarityUncommon, Type: RewardCoins, Amount: 50},
	{ID: "mr_shield", Label: "Streak Shield", Rarity: RarityRare, Type: RewardItem, Item: ItemStreakShield},
	{ID: "mr_coins_150", Label: "Coin Chest", Rarity: RarityRare, Type: RewardCoins, Amount: 150},
	{ID: "mr_double_xp", Label: "Double XP", Rarity: RarityEpic, Type: RewardItem, Item: ItemDoubleXP},
	{ID: "mr_xp_300", Label: "Massive XP Boost", Rarity: RarityEpic, Type: RewardXP, Amount: 300},
}

func MysteryRewardsByRarity(r Rarity) []MysteryReward {
	var out []MysteryReward
	for _, reward := range MysteryRewards {
		if reward.Rarity == r {
			out = append(out, reward)
		}
	}
	return out
}

type Guild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon"`
}

var Guilds = []Guild{
	{ID: "guild_phoenix", Name: "Phoenix Squad", Icon: "🐦‍🔥"},
	{ID: "guild_dragons", Name: "Dragon Riders", Icon: "🐉"},
	{ID: "guild_wolves", Name: "Wolf Pack", Icon: "🐺"},
}

func GuildByID(id string) (Guild, bool) {
	for _, g := range Guilds {
		if g.ID == id {
			return g, true
		}
	}
	return Guild{}, false
}
