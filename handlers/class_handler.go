package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/types/class"
	"levelUpAPI/middleware"
)

// TeacherResolver maps a Clerk identity to a backend teacher id, creating
// the teacher record on first sight. Nil when the backend keys teachers
// directly by Clerk id.
type TeacherResolver interface {
	EnsureTeacher(ctx context.Context, clerkID, name, email string) (string, error)
}

type ClassHandler struct {
	store    gateway.Store
	teachers TeacherResolver
}

func NewClassHandler(store gateway.Store, teachers TeacherResolver) *ClassHandler {
	return &ClassHandler{
		store:    store,
		teachers: teachers,
	}
}

func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	teacherID, ok := h.teacherID(ctx, w)
	if !ok {
		return
	}

	var req class.CreateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "Class name is required")
		return
	}

	cls, err := h.store.CreateClass(ctx, teacherID, req.Name)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to create class")
		return
	}

	respondWithJSON(w, http.StatusCreated, cls)
}

func (h *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	teacherID, ok := h.teacherID(ctx, w)
	if !ok {
		return
	}

	classes, err := h.store.ListClasses(ctx, teacherID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to list classes")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

func (h *ClassHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.teacherID(ctx, w); !ok {
		return
	}

	classID := r.URL.Query().Get("classId")
	if classID == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'classId' is required")
		return
	}

	if err := h.store.DeleteClass(ctx, classID); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Class not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to delete class")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "class deleted"})
}

// GetClassByCode is the public code check students hit before joining.
func (h *ClassHandler) GetClassByCode(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	code := r.URL.Query().Get("code")
	if code == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'code' is required")
		return
	}

	cls, err := h.store.GetClassByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Class code not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to look up class")
		return
	}

	respondWithJSON(w, http.StatusOK, cls)
}

func (h *ClassHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.teacherID(ctx, w); !ok {
		return
	}

	classID := r.URL.Query().Get("classId")
	if classID == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'classId' is required")
		return
	}

	students, err := h.store.ListStudents(ctx, classID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to list students")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"students": students})
}

// SaveActivities replaces the class's activity board.
func (h *ClassHandler) SaveActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, ok := h.teacherID(ctx, w); !ok {
		return
	}

	var body struct {
		ClassID string                 `json:"classId"`
		Paths   []catalog.LearningPath `json:"paths"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.ClassID == "" || len(body.Paths) == 0 {
		respondWithError(w, http.StatusBadRequest, "Both 'classId' and 'paths' are required")
		return
	}

	if err := h.store.SaveClassActivities(ctx, body.ClassID, body.Paths); err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			respondWithError(w, http.StatusNotFound, "Class not found")
			return
		}
		respondWithError(w, http.StatusInternalServerError, "Unable to save activities")
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "activities saved"})
}

// GetActivities returns the class's board, falling back to the default
// board when the teacher has not customized it.
func (h *ClassHandler) GetActivities(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	classID := r.URL.Query().Get("classId")
	if classID == "" {
		respondWithError(w, http.StatusBadRequest, "Query parameter 'classId' is required")
		return
	}

	board, err := h.store.GetClassActivities(ctx, classID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to load activities")
		return
	}
	if board == nil {
		board = catalog.LearningPaths
	}

	respondWithJSON(w, http.StatusOK, map[string]any{"paths": board})
}

func (h *ClassHandler) teacherID(ctx context.Context, w http.ResponseWriter) (string, bool) {
	clerkID, ok := middleware.GetClerkID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return "", false
	}
	if h.teachers == nil {
		return clerkID, true
	}
	teacherID, err := h.teachers.EnsureTeacher(ctx, clerkID, "", "")
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "Unable to resolve teacher account")
		return "", false
	}
	return teacherID, true
}
