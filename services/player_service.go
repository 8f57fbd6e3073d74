package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/types/player"
)

// PlayerService stores player documents in Postgres. The progression state
// is one JSONB column: the gateway contract is document-shaped, and
// flattening two dozen counters into columns buys nothing here.
type PlayerService struct {
	db *pgxpool.Pool
}

func NewPlayerService(db *pgxpool.Pool) *PlayerService {
	return &PlayerService{db: db}
}

func (s *PlayerService) GetPlayerState(ctx context.Context, studentID string) (*player.State, error) {
	query := `
	SELECT id, class_id, name, state, created_at
	FROM players
	WHERE id = $1
	`

	st := &player.State{}
	var id, classID, name string
	var createdAt time.Time
	err := s.db.QueryRow(ctx, query, studentID).Scan(&id, &classID, &name, st, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("student %s: %w", studentID, gateway.ErrNotFound)
		}
		return nil, fmt.Errorf("get student: %w: %v", gateway.ErrBackendUnavailable, err)
	}

	st.ID = id
	st.ClassID = classID
	st.Name = name
	st.CreatedAt = createdAt
	return st, nil
}

func (s *PlayerService) SavePlayerState(ctx context.Context, state *player.State) error {
	query := `
	UPDATE players
	SET name = $2, state = $3, updated_at = NOW()
	WHERE id = $1
	`

	result, err := s.db.Exec(ctx, query, state.ID, state.Name, state)
	if err != nil {
		return fmt.Errorf("save student: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("student %s: %w", state.ID, gateway.ErrNotFound)
	}
	return nil
}

func (s *PlayerService) JoinClass(ctx context.Context, code, studentName string) (*player.State, error) {
	var classID string
	err := s.db.QueryRow(ctx, `SELECT id FROM classes WHERE code = UPPER($1)`, code).Scan(&classID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("class code %s: %w", code, gateway.ErrNotFound)
		}
		return nil, fmt.Errorf("get class by code: %w: %v", gateway.ErrBackendUnavailable, err)
	}

	// Returning students pick their existing record back up by name.
	existing, err := s.findStudent(ctx, classID, studentName)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gateway.ErrNotFound) {
		return nil, err
	}

	st := player.NewState(uuid.New().String(), classID, studentName)
	query := `
	INSERT INTO players (id, class_id, name, state, created_at)
	VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := s.db.Exec(ctx, query, st.ID, st.ClassID, st.Name, st, st.CreatedAt); err != nil {
		return nil, fmt.Errorf("create student: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	if _, err := s.db.Exec(ctx, `UPDATE classes SET student_count = student_count + 1 WHERE id = $1`, classID); err != nil {
		return nil, fmt.Errorf("bump student count: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	return st, nil
}

func (s *PlayerService) findStudent(ctx context.Context, classID, name string) (*player.State, error) {
	query := `
	SELECT id, class_id, name, state, created_at
	FROM players
	WHERE class_id = $1 AND name = $2
	`

	st := &player.State{}
	var id, cid, sname string
	var createdAt time.Time
	err := s.db.QueryRow(ctx, query, classID, name).Scan(&id, &cid, &sname, st, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, gateway.ErrNotFound
		}
		return nil, fmt.Errorf("find student: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	st.ID = id
	st.ClassID = cid
	st.Name = sname
	st.CreatedAt = createdAt
	return st, nil
}

func (s *PlayerService) ListStudents(ctx context.Context, classID string) ([]*player.State, error) {
	query := `
	SELECT id, class_id, name, state, created_at
	FROM players
	WHERE class_id = $1
	ORDER BY created_at
	`

	rows, err := s.db.Query(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("list students: %w: %v", gateway.ErrBackendUnavailable, err)
	}
	defer rows.Close()

	var out []*player.State
	for rows.Next() {
		st := &player.State{}
		var id, cid, name string
		var createdAt time.Time
		if err := rows.Scan(&id, &cid, &name, st, &createdAt); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		st.ID = id
		st.ClassID = cid
		st.Name = name
		st.CreatedAt = createdAt
		out = append(out, st)
	}
	return out, rows.Err()
}
