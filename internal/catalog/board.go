package catalog

// Activity is one choice on a learning path.
type Activity struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Desc  string `json:"desc"`
	Type  string `json:"type"`
	XP    int    `json:"xp"`
}

type LearningPath struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle"`
	Color    string     `json:"color"`
	Options  []Activity `json:"options"`
}

// LearningPaths is the default activity board. Teachers can override it
// per class; the override is stored on the class document.
var LearningPaths = []LearningPath{
	{
		ID:       "path1",
		Title:    "The Wordsmith",
		Subtitle: "Vocabulary Quest",
		Color:    "#2563eb",
		Options: []Activity{
			{ID: "1a", Title: "Voice Battle", Desc: "Record yourself defining 5 unit words. No typing allowed!", Type: "High Tech", XP: 100},
			{ID: "1b", Title: "Word Sketch", Desc: "Draw a visual representation of 3 complex terms.", Type: "Low Tech", XP: 100},
		},
	},
	{
		ID:       "path2",
		Title:    "The Data Scientist",
		Subtitle: "Progress Mission",
		Color:    "#9333ea",
		Options: []Activity{
			{ID: "2a", Title: "Goal Tracker", Desc: "Update your Lexia/Math chart. What is your \"Power Move\"?", Type: "Self-Reflection", XP: 100},
			{ID: "2b", Title: "Peer Interview", Desc: "Ask a friend how they beat a hard level today.", Type: "Collaboration", XP: 100},
		},
	},
	{
		ID:       "path3",
		Title:    "The Creator",
		Subtitle: "Expression Boss",
		Color:    "#ea580c",
		Options: []Activity{
			{ID: "3a", Title: "Tutorial Video", Desc: "Film a 60-second \"How-To\" for a 4th grader.", Type: "High Tech", XP: 150},
			{ID: "3b", Title: "Boss Map", Desc: "Sketch a map showing the steps to solve a big problem.", Type: "Low Tech", XP: 150},
		},
	},
}

type BossChallenge struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Desc   string `json:"desc"`
	Reward int    `json:"reward"`
}

var BossChallenges = []BossChallenge{
	{ID: "boss_unit", Name: "Unit Boss", Desc: "Combine all three paths into one presentation.", Reward: 200},
	{ID: "boss_final", Name: "The Final Project", Desc: "Teach the whole unit to a classmate and record it.", Reward: 250},
}

func ActivityByID(paths []LearningPath, activityID string) (Activity, string, bool) {
	for _, p := range paths {
		for _, a := range p.Options {
			if a.ID == activityID {
				return a, p.ID, true
			}
		}
	}
	return Activity{}, "", false
}

func BossByID(id string) (BossChallenge, bool) {
	for _, b := range BossChallenges {
		if b.ID == id {
			return b, true
		}
	}
	return BossChallenge{}, false
}

// AvatarItem is a cosmetic shop entry purchasable with coins.
type AvatarItem struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	Name     string `json:"name"`
	Cost     int    `json:"cost"`
}

var AvatarItems = []AvatarItem{
	{ID: "default", Category: "color", Name: "Classic", Cost: 0},
	{ID: "red", Category: "color", Name: "Crimson", Cost: 50},
	{ID: "blue", Category: "color", Name: "Ocean", Cost: 50},
	{ID: "gold", Category: "color", Name: "Gold Rush", Cost: 200},
	{ID: "none", Category: "hat", Name: "No Hat", Cost: 0},
	{ID: "cap", Category: "hat", Name: "Ball Cap", Cost: 75},
	{ID: "wizard", Category: "hat", Name: "Wizard Hat", Cost: 150},
	{ID: "crown", Category: "hat", Name: "Crown", Cost: 250},
	{ID: "bare", Category: "accessory", Name: "None", Cost: 0},
	{ID: "glasses", Category: "accessory", Name: "Smart Glasses", Cost: 60},
	{ID: "headphones", Category: "accessory", Name: "Headphones", Cost: 120},
	{ID: "happy", Category: "face", Name: "Happy", Cost: 0},
	{ID: "cool", Category: "face", Name: "Cool", Cost: 40},
	{ID: "determined", Category: "face", Name: "Determined", Cost: 40},
}

func AvatarItemByID(id string) (AvatarItem, bool) {
	for _, item := range AvatarItems {
		if item.ID == id {
			return item, true
		}
	}
	return AvatarItem{}, false
}
