package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/types/submission"
)

// PushProvider delivers a push message to a set of device tokens.
// The FCM client in internal/notification implements it.
type PushProvider interface {
	SendPush(ctx context.Context, tokens []string, title, body string, data map[string]string) error
}

type NotificationService struct {
	db           *pgxpool.Pool
	pushProvider PushProvider
}

func NewNotificationService(db *pgxpool.Pool) *NotificationService {
	return &NotificationService{db: db}
}

func (s *NotificationService) SetPushProvider(p PushProvider) {
	s.pushProvider = p
}

func (s *NotificationService) RegisterDevice(ctx context.Context, studentID, token, platform string) error {
	query := `
	INSERT INTO device_tokens (student_id, token, platform, created_at)
	VALUES ($1, $2, $3, NOW())
	ON CONFLICT (token) DO UPDATE SET student_id = EXCLUDED.student_id, platform = EXCLUDED.platform
	`
	if _, err := s.db.Exec(ctx, query, studentID, token, platform); err != nil {
		return fmt.Errorf("register device: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	return nil
}

func (s *NotificationService) deviceTokens(ctx context.Context, studentID string) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT token FROM device_tokens WHERE student_id = $1`, studentID)
	if err != nil {
		return nil, fmt.Errorf("get device tokens: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// SendReviewNotification pushes the review outcome to the student's
// devices. No-op without a configured provider or registered devices.
func (s *NotificationService) SendReviewNotification(ctx context.Context, sub *submission.Submission) error {
	if s.pushProvider == nil {
		return nil
	}
	tokens, err := s.deviceTokens(ctx, sub.StudentID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		return nil
	}

	title := "Work reviewed!"
	body := fmt.Sprintf("Your submission for %q was %s.", sub.ActivityTitle, sub.Status)
	if sub.Status == submission.StatusApproved {
		body = fmt.Sprintf("Your submission for %q was approved. +%d XP!", sub.ActivityTitle, sub.XP)
	}

	return s.pushProvider.SendPush(ctx, tokens, title, body, map[string]string{
		"submission_id": sub.ID,
		"status":        string(sub.Status),
	})
}
