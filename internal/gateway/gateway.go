// Package gateway defines the persistence contract the progression core
// depends on. Implementations live in gateway/memory, gateway/firestoregw
// and the pgx-backed services package; the core never sees which one it
// is talking to.
package gateway

import (
	"context"
	"errors"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/types/class"
	"levelUpAPI/internal/types/player"
	"levelUpAPI/internal/types/submission"
)

var (
	// ErrNotFound: the requested student, class or submission does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict: duplicate pending submission, or a review of an
	// already-terminal submission.
	ErrConflict = errors.New("conflict")
	// ErrValidation: malformed submission payload.
	ErrValidation = errors.New("invalid submission")
	// ErrBackendUnavailable: the storage backend could not be reached.
	// Reconciliation treats this as transient and keeps polling.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// Gateway is the document-store surface the lifecycle manager drives.
// All calls may fail with ErrBackendUnavailable; none retry internally.
type Gateway interface {
	GetPlayerState(ctx context.Context, studentID string) (*player.State, error)
	SavePlayerState(ctx context.Context, state *player.State) error

	// CreateSubmission assigns the id, sets status=pending and stamps
	// SubmittedAt; the caller fills every other field.
	CreateSubmission(ctx context.Context, sub *submission.Submission) (*submission.Submission, error)
	ListSubmissionsForStudent(ctx context.Context, studentID string) ([]*submission.Submission, error)
	ListSubmissionsForClass(ctx context.Context, classID string) ([]*submission.Submission, error)

	// ReviewSubmission moves a pending submission to approved or rejected,
	// setting feedback and ReviewedAt exactly once. A second review of the
	// same submission is ErrConflict.
	ReviewSubmission(ctx context.Context, submissionID string, status submission.Status, feedback string) (*submission.Submission, error)
}

// Roster covers teacher/class/student bookkeeping. Separate from Gateway
// because the progression core never touches it.
type Roster interface {
	CreateClass(ctx context.Context, teacherID, name string) (*class.Class, error)
	ListClasses(ctx context.Context, teacherID string) ([]*class.Class, error)
	DeleteClass(ctx context.Context, classID string) error
	GetClassByCode(ctx context.Context, code string) (*class.Class, error)

	// JoinClass resolves the code and returns the class's student with the
	// given name, creating a fresh player document on first join.
	JoinClass(ctx context.Context, code, studentName string) (*player.State, error)
	ListStudents(ctx context.Context, classID string) ([]*player.State, error)

	SaveClassActivities(ctx context.Context, classID string, paths []catalog.LearningPath) error
	// GetClassActivities returns the class's activity board override, or
	// nil when the class uses the default board.
	GetClassActivities(ctx context.Context, classID string) ([]catalog.LearningPath, error)
}

// Store is the full backend surface main wires up.
type Store interface {
	Gateway
	Roster
}
