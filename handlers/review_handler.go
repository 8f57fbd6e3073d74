package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/types/submission"
	"levelUpAPI/middleware"
)

// ReviewHandler is the teacher-side review surface. All routes sit behind
// Clerk auth.
type ReviewHandler struct {
	store gateway.Store
}

func NewReviewHandler(store gateway.Store) *ReviewHandler {
	return &ReviewHandler{store: store}
}

// ListClassSubmissions returns a class's submissions in creation order.
// An optional status query parameter narrows the list, e.g. ?status=pending
// for the review queue.
func (h *ReviewHandler) ListClassSubmissions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	classID := r.URL.Query().Get("classId")
	if classID == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'classId' is required")
		return
	}

	subs, err := h.store.ListSubmissionsForClass(ctx, classID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to list submissions")
		return
	}

	if statusFilter := r.URL.Query().Get("status"); statusFilter != "" {
		want := submission.Status(statusFilter)
		if !want.Valid() {
			respondWithError(w, http.StatusBadRequest, "Unknown status filter")
			return
		}
		filtered := subs[:0]
		for _, sub := range subs {
			if sub.Status == want {
				filtered = append(filtered, sub)
			}
		}
		subs = filtered
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

// Review approves or rejects one pending submission. The decision is
// final; a second review returns 409.
func (h *ReviewHandler) Review(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := middleware.GetClerkID(ctx); !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var body struct {
		SubmissionID string `json:"submissionId"`
		Decision     string `json:"decision"`
		Feedback     string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	status := submission.Status(body.Decision)
	if status != submission.StatusApproved && status != submission.StatusRejected {
		respondWithError(w, http.StatusBadRequest, "Decision must be 'approved' or 'rejected'")
		return
	}

	sub, err := h.store.ReviewSubmission(ctx, body.SubmissionID, status, body.Feedback)
	if err != nil {
		switch {
		case errors.Is(err, gateway.ErrNotFound):
			respondWithError(w, http.StatusNotFound, "Submission not found")
		case errors.Is(err, gateway.ErrConflict):
			respondWithError(w, http.StatusConflict, "Submission already reviewed")
		default:
			respondWithError(w, http.StatusInternalServerError, "Unable to review submission")
		}
		return
	}

	middleware.RecordReviewDecision(body.Decision)
	respondWithJSON(w, http.StatusOK, sub)
}
