// Package memory is an in-memory gateway backend. It backs local
// development without credentials and is the test double for the
// lifecycle manager.
package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/types/class"
	"levelUpAPI/internal/types/player"
	"levelUpAPI/internal/types/submission"
)

type Store struct {
	mu          sync.Mutex
	players     map[string]*player.State
	submissions map[string]*submission.Submission
	classes     map[string]*class.Class
	activities  map[string][]catalog.LearningPath
	subOrder    []string
}

var _ gateway.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		players:     make(map[string]*player.State),
		submissions: make(map[string]*submission.Submission),
		classes:     make(map[string]*class.Class),
		activities:  make(map[string][]catalog.LearningPath),
	}
}

func (s *Store) GetPlayerState(ctx context.Context, studentID string) (*player.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.players[studentID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	return st.Clone(), nil
}

func (s *Store) SavePlayerState(ctx context.Context, state *player.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[state.ID]; !ok {
		return gateway.ErrNotFound
	}
	s.players[state.ID] = state.Clone()
	return nil
}

func (s *Store) CreateSubmission(ctx context.Context, sub *submission.Submission) (*submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *sub
	stored.ID = uuid.New().String()
	stored.Status = submission.StatusPending
	stored.SubmittedAt = time.Now()
	s.submissions[stored.ID] = &stored
	s.subOrder = append(s.subOrder, stored.ID)
	out := stored
	return &out, nil
}

func (s *Store) ListSubmissionsForStudent(ctx context.Context, studentID string) ([]*submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*submission.Submission
	for _, id := range s.subOrder {
		if sub := s.submissions[id]; sub.StudentID == studentID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ListSubmissionsForClass(ctx context.Context, classID string) ([]*submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*submission.Submission
	for _, id := range s.subOrder {
		if sub := s.submissions[id]; sub.ClassID == classID {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) ReviewSubmission(ctx context.Context, submissionID string, status submission.Status, feedback string) (*submission.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[submissionID]
	if !ok {
		return nil, gateway.ErrNotFound
	}
	if sub.Status.Terminal() {
		return nil, gateway.ErrConflict
	}
	if !status.Terminal() {
		return nil, gateway.ErrValidation
	}
	now := time.Now()
	sub.Status = status
	sub.TeacherFeedback = feedback
	sub.ReviewedAt = &now
	cp := *sub
	return &cp, nil
}

func (s *Store) CreateClass(ctx context.Context, teacherID, name string) (*class.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code := s.uniqueCode()
	c := &class.Class{
		ID:        uuid.New().String(),
		TeacherID: teacherID,
		Name:      name,
		Code:      code,
		CreatedAt: time.Now(),
	}
	s.classes[c.ID] = c
	cp := *c
	return &cp, nil
}

func (s *Store) uniqueCode() string {
	for {
		code := strings.ToUpper(uuid.New().String()[:6])
		taken := false
		for _, c := range s.classes {
			if c.Code == code {
				taken = true
				break
			}
		}
		if !taken {
			return code
		}
	}
}

func (s *Store) ListClasses(ctx context.Context, teacherID string) ([]*class.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*class.Class
	for _, c := range s.classes {
		if c.TeacherID == teacherID {
			cp := *c
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *Store) DeleteClass(ctx context.Context, classID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[classID]; !ok {
		return gateway.ErrNotFound
	}
	delete(s.classes, classID)
	delete(s.activities, classID)
	return nil
}

func (s *Store) GetClassByCode(ctx context.Context, code string) (*class.Class, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classByCode(code)
	if !ok {
		return nil, gateway.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *Store) classByCode(code string) (*class.Class, bool) {
	for _, c := range s.classes {
		if strings.EqualFold(c.Code, code) {
			return c, true
		}
	}
	return nil, false
}

func (s *Store) JoinClass(ctx context.Context, code, studentName string) (*player.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.classByCode(code)
	if !ok {
		return nil, gateway.ErrNotFound
	}
	for _, st := range s.players {
		if st.ClassID == c.ID && st.Name == studentName {
			return st.Clone(), nil
		}
	}
	st := player.NewState(uuid.New().String(), c.ID, studentName)
	s.players[st.ID] = st
	c.StudentCount++
	return st.Clone(), nil
}

func (s *Store) ListStudents(ctx context.Context, classID string) ([]*player.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*player.State
	for _, st := range s.players {
		if st.ClassID == classID {
			out = append(out, st.Clone())
		}
	}
	return out, nil
}

func (s *Store) SaveClassActivities(ctx context.Context, classID string, paths []catalog.LearningPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.classes[classID]; !ok {
		return gateway.ErrNotFound
	}
	s.activities[classID] = paths
	return nil
}

func (s *Store) GetClassActivities(ctx context.Context, classID string) ([]catalog.LearningPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activities[classID], nil
}
