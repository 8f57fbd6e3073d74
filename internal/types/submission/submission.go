package submission

import (
	"errors"
	"strings"
	"time"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

func (s Status) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

type Type string

const (
	TypeLink Type = "link"
	TypeFile Type = "file"
)

// Submission is one piece of submitted student work. Everything except the
// review fields is immutable after creation; Status moves pending ->
// approved|rejected exactly once, and TeacherFeedback/ReviewedAt are set on
// that transition.
type Submission struct {
	ID              string     `json:"id" firestore:"-"`
	StudentID       string     `json:"student_id" firestore:"studentId"`
	ClassID         string     `json:"class_id" firestore:"classId"`
	ActivityID      string     `json:"activity_id" firestore:"activityId"`
	ActivityTitle   string     `json:"activity_title" firestore:"activityTitle"`
	ActivityType    string     `json:"activity_type" firestore:"activityType"`
	PathID          string     `json:"path_id" firestore:"pathId"`
	XP              int        `json:"xp" firestore:"xp"`
	IsBoss          bool       `json:"is_boss" firestore:"isBoss"`
	Type            Type       `json:"submission_type" firestore:"submissionType"`
	Content         string     `json:"content" firestore:"content"`
	Note            string     `json:"note" firestore:"note"`
	SubmittedAt     time.Time  `json:"submitted_at" firestore:"submittedAt"`
	Status          Status     `json:"status" firestore:"status"`
	TeacherFeedback string     `json:"teacher_feedback" firestore:"teacherFeedback"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty" firestore:"reviewedAt"`
}

// Payload is what the student actually hands in: a link or a file reference,
// with an optional note.
type Payload struct {
	Type    Type   `json:"type"`
	Content string `json:"content"`
	Note    string `json:"note"`
}

var errEmptyContent = errors.New("submission needs a link or file content")

func (p Payload) Validate() error {
	if p.Type != TypeLink && p.Type != TypeFile {
		return errors.New("submission type must be 'link' or 'file'")
	}
	if strings.TrimSpace(p.Content) == "" {
		return errEmptyContent
	}
	return nil
}
