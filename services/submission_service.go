package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/types/submission"
)

type SubmissionService struct {
	db           *pgxpool.Pool
	notifService *NotificationService
}

func NewSubmissionService(db *pgxpool.Pool, notifService *NotificationService) *SubmissionService {
	return &SubmissionService{
		db:           db,
		notifService: notifService,
	}
}

const submissionColumns = `
	id, student_id, class_id, activity_id, activity_title, activity_type,
	path_id, xp, is_boss, submission_type, content, note, submitted_at,
	status, teacher_feedback, reviewed_at
`

func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	sub := &submission.Submission{}
	err := row.Scan(
		&sub.ID,
		&sub.StudentID,
		&sub.ClassID,
		&sub.ActivityID,
		&sub.ActivityTitle,
		&sub.ActivityType,
		&sub.PathID,
		&sub.XP,
		&sub.IsBoss,
		&sub.Type,
		&sub.Content,
		&sub.Note,
		&sub.SubmittedAt,
		&sub.Status,
		&sub.TeacherFeedback,
		&sub.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *SubmissionService) CreateSubmission(ctx context.Context, sub *submission.Submission) (*submission.Submission, error) {
	stored := *sub
	stored.ID = uuid.New().String()
	stored.Status = submission.StatusPending
	stored.SubmittedAt = time.Now()

	query := `
	INSERT INTO submissions (id, student_id, class_id, activity_id, activity_title,
		activity_type, path_id, xp, is_boss, submission_type, content, note,
		submitted_at, status, teacher_feedback)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err := s.db.Exec(
		ctx,
		query,
		stored.ID,
		stored.StudentID,
		stored.ClassID,
		stored.ActivityID,
		stored.ActivityTitle,
		stored.ActivityType,
		stored.PathID,
		stored.XP,
		stored.IsBoss,
		stored.Type,
		stored.Content,
		stored.Note,
		stored.SubmittedAt,
		stored.Status,
		stored.TeacherFeedback,
	)
	if err != nil {
		return nil, fmt.Errorf("create submission: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	return &stored, nil
}

func (s *SubmissionService) ListSubmissionsForStudent(ctx context.Context, studentID string) ([]*submission.Submission, error) {
	return s.list(ctx, "student_id", studentID)
}

func (s *SubmissionService) ListSubmissionsForClass(ctx context.Context, classID string) ([]*submission.Submission, error) {
	return s.list(ctx, "class_id", classID)
}

func (s *SubmissionService) list(ctx context.Context, field, value string) ([]*submission.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE ` + field + ` = $1 ORDER BY submitted_at`

	rows, err := s.db.Query(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	defer rows.Close()

	var out []*submission.Submission
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// ReviewSubmission applies the terminal pending -> approved|rejected
// transition inside a transaction so a double review can never win the
// race. The student's session observes the change on its next poll.
func (s *SubmissionService) ReviewSubmission(ctx context.Context, submissionID string, status submission.Status, feedback string) (*submission.Submission, error) {
	if !status.Terminal() {
		return nil, fmt.Errorf("%w: review status must be approved or rejected", gateway.ErrValidation)
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin review: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	defer tx.Rollback(ctx)

	var current submission.Status
	err = tx.QueryRow(ctx, `SELECT status FROM submissions WHERE id = $1 FOR UPDATE`, submissionID).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("submission %s: %w", submissionID, gateway.ErrNotFound)
		}
		return nil, fmt.Errorf("get submission: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	if current.Terminal() {
		return nil, fmt.Errorf("submission %s already reviewed: %w", submissionID, gateway.ErrConflict)
	}

	query := `
	UPDATE submissions
	SET status = $2, teacher_feedback = $3, reviewed_at = NOW()
	WHERE id = $1
	RETURNING ` + submissionColumns

	sub, err := scanSubmission(tx.QueryRow(ctx, query, submissionID, status, feedback))
	if err != nil {
		return nil, fmt.Errorf("update submission: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit review: %w: %v", gateway.ErrBackendUnavailable, err)
	}

	// Best effort: the review stands whether or not the push lands.
	if s.notifService != nil {
		if err := s.notifService.SendReviewNotification(ctx, sub); err != nil {
			log.Printf("review push for submission %s: %v", sub.ID, err)
		}
	}
	return sub, nil
}
