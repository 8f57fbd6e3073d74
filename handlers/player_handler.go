package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/lifecycle"
	"levelUpAPI/internal/types/class"
	"levelUpAPI/middleware"
)

// DeviceRegistrar stores push tokens. Nil when the active backend has no
// device token storage.
type DeviceRegistrar interface {
	RegisterDevice(ctx context.Context, studentID, token, platform string) error
}

type PlayerHandler struct {
	registry *lifecycle.Registry
	store    gateway.Store
	devices  DeviceRegistrar
}

func NewPlayerHandler(registry *lifecycle.Registry, store gateway.Store, devices DeviceRegistrar) *PlayerHandler {
	return &PlayerHandler{
		registry: registry,
		store:    store,
		devices:  devices,
	}
}

// JoinClass resolves a class code, creates the player document on first
// join and opens a live session for it.
func (h *PlayerHandler) JoinClass(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req class.JoinClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Code == "" || req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Both 'code' and 'name' are required")
		return
	}

	state, err := h.store.JoinClass(ctx, req.Code, req.Name)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Class code not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to join class")
		return
	}

	if _, err := h.registry.Open(ctx, state.ID); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to open session")
		return
	}

	respondWithJSON(w, http.StatusOK, state)
}

// GetState returns the live player document for an open session.
func (h *PlayerHandler) GetState(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, mgr.State())
}

// GetEvents drains the queued level-up, achievement and mystery box
// notifications. Each event is delivered once.
func (h *PlayerHandler) GetEvents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"events": mgr.Events()})
}

func (h *PlayerHandler) OpenMysteryBox(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	reward, err := mgr.OpenMysteryBox(ctx)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to open mystery box")
		return
	}
	if reward == nil {
		respondWithError(w, http.StatusConflict, "No mystery box to open")
		return
	}

	middleware.RecordMysteryBoxOpened()
	respondWithJSON(w, http.StatusOK, map[string]any{
		"reward": reward,
		"state":  mgr.State(),
	})
}

func (h *PlayerHandler) JoinGuild(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	var body struct {
		GuildID string `json:"guildId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := mgr.JoinGuild(ctx, body.GuildID); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Guild not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to join guild")
		return
	}

	respondWithJSON(w, http.StatusOK, mgr.State())
}

func (h *PlayerHandler) BuyAvatarItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	var body struct {
		ItemID string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := mgr.BuyAvatarItem(ctx, body.ItemID); err != nil {
		switch {
		case errors.Is(err, gateway.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Item not found")
		case errors.Is(err, gateway.ErrConflict):
			respondWithError(w, http.StatusConflict, err.Error())
		default:
			respondWithError(w, http.StatusInternalServerError, "Unable to buy item")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, mgr.State())
}

func (h *PlayerHandler) EquipAvatarItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	var body struct {
		ItemID string `json:"itemId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := mgr.EquipAvatarItem(ctx, body.ItemID); err != nil {
		switch {
		case errors.Is(err, gateway.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Item not found")
		case errors.Is(err, gateway.ErrConflict):
			respondWithError(w, http.StatusConflict, "Item not owned")
		default:
			respondWithError(w, http.StatusInternalServerError, "Unable to equip item")
		}
		return
	}

	respondWithJSON(w, http.StatusOK, mgr.State())
}

func (h *PlayerHandler) SetName(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	mgr, ok := h.session(ctx, w, r)
	if !ok {
		return
	}

	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Name is required")
		return
	}

	if err := mgr.SetPlayerName(ctx, body.Name); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to update name")
		return
	}

	respondWithJSON(w, http.StatusOK, mgr.State())
}

func (h *PlayerHandler) RegisterDevice(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if h.devices == nil {
		respondWithError(w, http.StatusNotImplemented, "Push notifications not enabled on this backend")
		return
	}

	var body struct {
		StudentID string `json:"studentId"`
		Token     string `json:"token"`
		Platform  string `json:"platform"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.StudentID == "" || body.Token == "" {
		respondWithError(w, http.StatusBadRequest, "Both 'studentId' and 'token' are required")
		return
	}

	if err := h.devices.RegisterDevice(ctx, body.StudentID, body.Token, body.Platform); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to register device")
		return
	}

	respondWithJSON(w, http.StatusCreated, map[string]string{"message": "device registered"})
}

// Logout closes the student's live session and stops its background sync.
func (h *PlayerHandler) Logout(w http.ResponseWriter, r *http.Request) {
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'studentId' is required")
		return
	}

	h.registry.Close(studentID)
	respondWithJSON(w, http.StatusOK, map[string]string{"message": "session closed"})
}

// session resolves the studentId query parameter to a live session,
// opening one on demand for students returning after a restart.
func (h *PlayerHandler) session(ctx context.Context, w http.ResponseWriter, r *http.Request) (*lifecycle.Manager, bool) {
	studentID := r.URL.Query().Get("studentId")
	if studentID == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'studentId' is required")
		return nil, false
	}

	if mgr, ok := h.registry.Get(studentID); ok {
		return mgr, true
	}

	mgr, err := h.registry.Open(ctx, studentID)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Student not found")
			return nil, false
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to open session")
		return nil, false
	}
	return mgr, true
}

// Helper functions
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}
