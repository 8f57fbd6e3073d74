package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/types/class"
)

type ClassService struct {
	db *pgxpool.Pool
}

func NewClassService(db *pgxpool.Pool) *ClassService {
	return &ClassService{db: db}
}

// EnsureTeacher upserts the teacher record for a verified Clerk identity
// and returns its id.
func (s *ClassService) EnsureTeacher(ctx context.Context, clerkID, name, email string) (string, error) {
	query := `
	INSERT INTO teachers (id, clerk_id, name, email, created_at)
	VALUES ($1, $2, $3, $4, NOW())
	ON CONFLICT (clerk_id) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email
	RETURNING id
	`

	var id string
	err := s.db.QueryRow(ctx, query, uuid.New().String(), clerkID, name, email).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("ensure teacher: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	return id, nil
}

func (s *ClassService) TeacherIDForClerkID(ctx context.Context, clerkID string) (string, error) {
	var id string
	err := s.db.QueryRow(ctx, `SELECT id FROM teachers WHERE clerk_id = $1`, clerkID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", fmt.Errorf("teacher: %w", gateway.ErrNotFound)
		}
		return "", fmt.Errorf("get teacher: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	return id, nil
}

func (s *ClassService) CreateClass(ctx context.Context, teacherID, name string) (*class.Class, error) {
	code, err := s.uniqueClassCode(ctx)
	if err != nil {
		return nil, err
	}

	c := &class.Class{
		ID:        uuid.New().String(),
		TeacherID: teacherID,
		Name:      name,
		Code:      code,
		CreatedAt: time.Now(),
	}

	query := `
	INSERT INTO classes (id, teacher_id, name, code, student_count, created_at)
	VALUES ($1, $2, $3, $4, 0, $5)
	`
	if _, err := s.db.Exec(ctx, query, c.ID, c.TeacherID, c.Name, c.Code, c.CreatedAt); err != nil {
		return nil, fmt.Errorf("create class: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	return c, nil
}

func (s *ClassService) uniqueClassCode(ctx context.Context) (string, error) {
	for {
		code := strings.ToUpper(uuid.New().String()[:6])
		var exists bool
		err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM classes WHERE code = $1)`, code).Scan(&exists)
		if err != nil {
			return "", fmt.Errorf("check class code: %w: %v", gateway.ErrBackendUnavailable, err)
		}
		if !exists {
			return code, nil
		}
	}
}

func (s *ClassService) ListClasses(ctx context.Context, teacherID string) ([]*class.Class, error) {
	query := `
	SELECT id, teacher_id, name, code, student_count, created_at
	FROM classes
	WHERE teacher_id = $1
	ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list classes: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	defer rows.Close()

	var out []*class.Class
	for rows.Next() {
		c := &class.Class{}
		if err := rows.Scan(&c.ID, &c.TeacherID, &c.Name, &c.Code, &c.StudentCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan class: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *ClassService) DeleteClass(ctx context.Context, classID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM classes WHERE id = $1`, classID)
	if err != nil {
		return fmt.Errorf("delete class: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("class %s: %w", classID, gateway.ErrNotFound)
	}
	return nil
}

func (s *ClassService) GetClassByCode(ctx context.Context, code string) (*class.Class, error) {
	query := `
	SELECT c.id, c.teacher_id, c.name, c.code, c.student_count, c.created_at,
		COALESCE(t.name, 'Unknown')
	FROM classes c
	LEFT JOIN teachers t ON t.id = c.teacher_id
	WHERE c.code = UPPER($1)
	`

	c := &class.Class{}
	err := s.db.QueryRow(ctx, query, code).Scan(
		&c.ID,
		&c.TeacherID,
		&c.Name,
		&c.Code,
		&c.StudentCount,
		&c.CreatedAt,
		&c.TeacherName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("class code %s: %w", code, gateway.ErrNotFound)
		}
		return nil, fmt.Errorf("get class by code: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	return c, nil
}

func (s *ClassService) SaveClassActivities(ctx context.Context, classID string, paths []catalog.LearningPath) error {
	result, err := s.db.Exec(ctx, `UPDATE classes SET activities = $2 WHERE id = $1`, classID, paths)
	if err != nil {
		return fmt.Errorf("save class activities: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("class %s: %w", classID, gateway.ErrNotFound)
	}
	return nil
}

func (s *ClassService) GetClassActivities(ctx context.Context, classID string) ([]catalog.LearningPath, error) {
	var paths []catalog.LearningPath
	err := s.db.QueryRow(ctx, `SELECT activities FROM classes WHERE id = $1`, classID).Scan(&paths)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("class %s: %w", classID, gateway.ErrNotFound)
		}
		return nil, fmt.Errorf("get class activities: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	return paths, nil
}
