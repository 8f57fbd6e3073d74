package memory

import (
	"context"
	"errors"
	"testing"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/types/submission"
)

func TestJoinClassByCode(t *testing.T) {
	ctx := context.Background()
	s := New()

	cls, err := s.CreateClass(ctx, "teacher-1", "Room 12")
	if err != nil {
		t.Fatalf("create class: %v", err)
	}
	if len(cls.Code) != 6 {
		t.Errorf("class code %q, want 6 characters", cls.Code)
	}

	st, err := s.JoinClass(ctx, cls.Code, "Alex")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if st.Coins != 100 {
		t.Errorf("starting coins = %d, want 100", st.Coins)
	}

	// Same name in the same class resumes the existing player; codes are
	// case-insensitive because students type them by hand.
	again, err := s.JoinClass(ctx, cls.Code, "Alex")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if again.ID != st.ID {
		t.Error("rejoin created a second player")
	}

	if _, err := s.JoinClass(ctx, "ZZZZZZ", "Alex"); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("bad code: err = %v, want ErrNotFound", err)
	}

	got, err := s.GetClassByCode(ctx, cls.Code)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.StudentCount != 1 {
		t.Errorf("StudentCount = %d, want 1", got.StudentCount)
	}
}

func TestReviewSubmissionIsFinal(t *testing.T) {
	ctx := context.Background()
	s := New()
	cls, _ := s.CreateClass(ctx, "teacher-1", "Room 12")
	st, _ := s.JoinClass(ctx, cls.Code, "Alex")

	created, err := s.CreateSubmission(ctx, &submission.Submission{
		StudentID:  st.ID,
		ClassID:    cls.ID,
		ActivityID: "2a",
		Type:       submission.TypeLink,
		Content:    "https://example.com",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Status != submission.StatusPending {
		t.Errorf("Status = %s, want pending", created.Status)
	}

	reviewed, err := s.ReviewSubmission(ctx, created.ID, submission.StatusApproved, "Great")
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.ReviewedAt == nil || reviewed.TeacherFeedback != "Great" {
		t.Errorf("review fields not set: %+v", reviewed)
	}

	if _, err := s.ReviewSubmission(ctx, created.ID, submission.StatusRejected, ""); !errors.Is(err, gateway.ErrConflict) {
		t.Errorf("second review: err = %v, want ErrConflict", err)
	}
	if _, err := s.ReviewSubmission(ctx, "missing", submission.StatusApproved, ""); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("unknown id: err = %v, want ErrNotFound", err)
	}
}

func TestListSubmissionsKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	cls, _ := s.CreateClass(ctx, "teacher-1", "Room 12")
	st, _ := s.JoinClass(ctx, cls.Code, "Alex")

	for _, id := range []string{"1a", "2a", "3a"} {
		if _, err := s.CreateSubmission(ctx, &submission.Submission{
			StudentID:  st.ID,
			ClassID:    cls.ID,
			ActivityID: id,
			Type:       submission.TypeLink,
			Content:    "https://example.com/" + id,
		}); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	subs, err := s.ListSubmissionsForStudent(ctx, st.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(subs) != 3 {
		t.Fatalf("len = %d, want 3", len(subs))
	}
	for i, want := range []string{"1a", "2a", "3a"} {
		if subs[i].ActivityID != want {
			t.Errorf("subs[%d] = %s, want %s", i, subs[i].ActivityID, want)
		}
	}

	byClass, err := s.ListSubmissionsForClass(ctx, cls.ID)
	if err != nil {
		t.Fatalf("list by class: %v", err)
	}
	if len(byClass) != 3 {
		t.Errorf("class list len = %d, want 3", len(byClass))
	}
}

func TestClassActivitiesOverride(t *testing.T) {
	ctx := context.Background()
	s := New()
	cls, _ := s.CreateClass(ctx, "teacher-1", "Room 12")

	board, err := s.GetClassActivities(ctx, cls.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if board != nil {
		t.Error("fresh class should have no board override")
	}

	custom := []catalog.LearningPath{{
		ID:    "pathX",
		Title: "Custom Path",
		Options: []catalog.Activity{
			{ID: "x1", Title: "Custom Activity", Type: "Low Tech", XP: 50},
		},
	}}
	if err := s.SaveClassActivities(ctx, cls.ID, custom); err != nil {
		t.Fatalf("save: %v", err)
	}

	board, err = s.GetClassActivities(ctx, cls.ID)
	if err != nil {
		t.Fatalf("get after save: %v", err)
	}
	if len(board) != 1 || board[0].ID != "pathX" {
		t.Errorf("board = %+v, want the saved override", board)
	}

	if err := s.SaveClassActivities(ctx, "missing", custom); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("unknown class: err = %v, want ErrNotFound", err)
	}

	if err := s.DeleteClass(ctx, cls.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetClassByCode(ctx, cls.Code); !errors.Is(err, gateway.ErrNotFound) {
		t.Errorf("lookup after delete: err = %v, want ErrNotFound", err)
	}
}
