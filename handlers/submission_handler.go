package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/lifecycle"
	"levelUpAPI/internal/types/submission"
	"levelUpAPI/middleware"
)

type SubmissionHandler struct {
	registry *lifecycle.Registry
	store    gateway.Store
	players  *PlayerHandler
}

func NewSubmissionHandler(registry *lifecycle.Registry, store gateway.Store, players *PlayerHandler) *SubmissionHandler {
	return &SubmissionHandler{
		registry: registry,
		store:    store,
		players:  players,
	}
}

// SubmitActivity hands in work for one activity on the class board. The
// submission goes in as pending; XP lands only after teacher approval.
func (h *SubmissionHandler) SubmitActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.players.session(ctx, w, r)
	if !ok {
		return
	}

	var body struct {
		ActivityID string             `json:"activityId"`
		Payload    submission.Payload `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	board, err := h.boardFor(ctx, mgr.State().ClassID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to load activity board")
		return
	}

	act, pathID, found := catalog.ActivityByID(board, body.ActivityID)
	if !found {
		respondWithError(w, http.StatusNotFound, "Activity not found on this class's board")
		return
	}

	sub, err := mgr.SubmitActivity(ctx, act, pathID, body.Payload)
	if err != nil {
		if errors.Is(err, gateway.ErrValidation) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to create submission")
		return
	}

	middleware.RecordSubmissionCreated(false)
	respondWithJSON(w, http.StatusCreated, sub)
}

// SubmitBoss hands in a boss challenge.
func (h *SubmissionHandler) SubmitBoss(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.players.session(ctx, w, r)
	if !ok {
		return
	}

	var body struct {
		BossID  string             `json:"bossId"`
		Payload submission.Payload `json:"payload"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	boss, found := catalog.BossByID(body.BossID)
	if !found {
		respondWithError(w, http.StatusNotFound, "Boss challenge not found")
		return
	}

	sub, err := mgr.SubmitBoss(ctx, boss, body.Payload)
	if err != nil {
		if errors.Is(err, gateway.ErrValidation) {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to create submission")
		return
	}

	middleware.RecordSubmissionCreated(true)
	respondWithJSON(w, http.StatusCreated, sub)
}

// ListMine returns the student's own submission history, newest last.
func (h *SubmissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.players.session(ctx, w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"submissions": mgr.Submissions()})
}

func (h *SubmissionHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.players.session(ctx, w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"pending": mgr.PendingCount()})
}

// Sync forces an immediate reconcile instead of waiting for the next
// background poll. The client calls it on foreground/resume.
func (h *SubmissionHandler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	mgr, ok := h.players.session(ctx, w, r)
	if !ok {
		return
	}

	if err := mgr.Reconcile(ctx); err != nil {
		respondWithError(w, http.StatusBadGateway, "Sync failed, will retry in background")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{
		"state":  mgr.State(),
		"events": mgr.Events(),
	})
}

func (h *SubmissionHandler) boardFor(ctx context.Context, classID string) ([]catalog.LearningPath, error) {
	board, err := h.store.GetClassActivities(ctx, classID)
	if err != nil {
		return nil, err
	}
	if board == nil {
		return catalog.LearningPaths, nil
	}
	return board, nil
}
