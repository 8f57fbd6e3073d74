package handlers

import (
	"net/http"
	"time"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/progression"
)

// CatalogHandler serves the static game content: levels, achievements,
// the daily quest, the shop, bosses and guilds. Everything here is public
// and safe to cache client-side.
type CatalogHandler struct{}

func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

func (h *CatalogHandler) GetLevels(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"levels": catalog.Levels})
}

func (h *CatalogHandler) GetAchievements(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"achievements": catalog.Achievements})
}

// GetDailyQuest returns today's quest. The rotation is date-keyed so every
// student in every class sees the same quest on the same day.
func (h *CatalogHandler) GetDailyQuest(w http.ResponseWriter, r *http.Request) {
	quest := progression.DailyQuestFor(time.Now())
	respondWithJSON(w, http.StatusOK, quest)
}

func (h *CatalogHandler) GetShop(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"items": catalog.AvatarItems})
}

func (h *CatalogHandler) GetDefaultBoard(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"paths": catalog.LearningPaths})
}

func (h *CatalogHandler) GetBosses(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"bosses": catalog.BossChallenges})
}

func (h *CatalogHandler) GetGuilds(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"guilds": catalog.Guilds})
}
