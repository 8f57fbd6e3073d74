// Package firestoregw backs the persistence gateway with Cloud Firestore.
// Collections: teachers, classes, students, submissions. One document per
// student carries the whole progression state; submissions are queried by
// studentId/classId fields.
package firestoregw

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"levelUpAPI/internal/catalog"
	"levelUpAPI/internal/gateway"
	"levelUpAPI/internal/types/class"
	"levelUpAPI/internal/types/player"
	"levelUpAPI/internal/types/submission"
)

type Store struct {
	client *firestore.Client
}

var _ gateway.Store = (*Store)(nil)

// New initializes the Firestore client. Credentials come from the
// FIREBASE_SERVICE_ACCOUNT_JSON environment variable (Base64 encoded),
// falling back to a local service account key file.
func New(ctx context.Context, localFilePath string) (*Store, error) {
	var opt option.ClientOption

	encodedCreds := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if encodedCreds != "" {
		decoded, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("failed to decode base64 firebase credentials: %v", err)
		}
		opt = option.WithCredentialsJSON(decoded)
		log.Println("Firestore gateway: initializing from FIREBASE_SERVICE_ACCOUNT_JSON environment variable.")
	} else {
		if _, err := os.Stat(localFilePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("local firebase file not found: %s, and FIREBASE_SERVICE_ACCOUNT_JSON is not set", localFilePath)
		}
		opt = option.WithCredentialsFile(localFilePath)
		log.Printf("Firestore gateway: initializing from local file: %s.", localFilePath)
	}

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %v", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firestore client: %v", err)
	}
	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// wrapErr maps Firestore failures onto the gateway's error kinds.
func wrapErr(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%s: %w", op, gateway.ErrNotFound)
	}
	return fmt.Errorf("%s: %w: %v", op, gateway.ErrBackendUnavailable, err)
}

func (s *Store) GetPlayerState(ctx context.Context, studentID string) (*player.State, error) {
	snap, err := s.client.Collection("students").Doc(studentID).Get(ctx)
	if err != nil {
		return nil, wrapErr("get student", err)
	}
	st := &player.State{}
	if err := snap.DataTo(st); err != nil {
		return nil, fmt.Errorf("decode student %s: %w", studentID, err)
	}
	st.ID = snap.Ref.ID
	return st, nil
}

func (s *Store) SavePlayerState(ctx context.Context, state *player.State) error {
	_, err := s.client.Collection("students").Doc(state.ID).Set(ctx, state)
	if err != nil {
		return wrapErr("save student", err)
	}
	return nil
}

func (s *Store) CreateSubmission(ctx context.Context, sub *submission.Submission) (*submission.Submission, error) {
	stored := *sub
	stored.Status = submission.StatusPending
	stored.SubmittedAt = time.Now()
	ref, _, err := s.client.Collection("submissions").Add(ctx, &stored)
	if err != nil {
		return nil, wrapErr("create submission", err)
	}
	stored.ID = ref.ID
	return &stored, nil
}

func (s *Store) ListSubmissionsForStudent(ctx context.Context, studentID string) ([]*submission.Submission, error) {
	return s.listSubmissions(ctx, "studentId", studentID)
}

func (s *Store) ListSubmissionsForClass(ctx context.Context, classID string) ([]*submission.Submission, error) {
	return s.listSubmissions(ctx, "classId", classID)
}

func (s *Store) listSubmissions(ctx context.Context, field, value string) ([]*submission.Submission, error) {
	iter := s.client.Collection("submissions").Where(field, "==", value).Documents(ctx)
	defer iter.Stop()

	var out []*submission.Submission
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr("list submissions", err)
		}
		sub := &submission.Submission{}
		if err := snap.DataTo(sub); err != nil {
			return nil, fmt.Errorf("decode submission %s: %w", snap.Ref.ID, err)
		}
		sub.ID = snap.Ref.ID
		out = append(out, sub)
	}
	return out, nil
}

func (s *Store) ReviewSubmission(ctx context.Context, submissionID string, st submission.Status, feedback string) (*submission.Submission, error) {
	if !st.Terminal() {
		return nil, fmt.Errorf("%w: review status must be approved or rejected", gateway.ErrValidation)
	}
	ref := s.client.Collection("submissions").Doc(submissionID)
	var reviewed *submission.Submission

	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(ref)
		if err != nil {
			return err
		}
		sub := &submission.Submission{}
		if err := snap.DataTo(sub); err != nil {
			return err
		}
		if sub.Status.Terminal() {
			return gateway.ErrConflict
		}
		now := time.Now()
		sub.ID = snap.Ref.ID
		sub.Status = st
		sub.TeacherFeedback = feedback
		sub.ReviewedAt = &now
		reviewed = sub
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: st},
			{Path: "teacherFeedback", Value: feedback},
			{Path: "reviewedAt", Value: now},
		})
	})
	if err != nil {
		if err == gateway.ErrConflict {
			return nil, fmt.Errorf("review submission %s: %w", submissionID, gateway.ErrConflict)
		}
		return nil, wrapErr("review submission", err)
	}
	return reviewed, nil
}

// classDoc mirrors the class document, including the optional per-class
// activity board override.
type classDoc struct {
	TeacherID    string                 `firestore:"teacherId"`
	Name         string                 `firestore:"name"`
	Code         string                 `firestore:"code"`
	StudentCount int                    `firestore:"studentCount"`
	Activities   []catalog.LearningPath `firestore:"activities"`
	CreatedAt    time.Time              `firestore:"createdAt"`
}

func (d *classDoc) toClass(id string) *class.Class {
	return &class.Class{
		ID:           id,
		TeacherID:    d.TeacherID,
		Name:         d.Name,
		Code:         d.Code,
		StudentCount: d.StudentCount,
		CreatedAt:    d.CreatedAt,
	}
}

func (s *Store) CreateClass(ctx context.Context, teacherID, name string) (*class.Class, error) {
	code, err := s.uniqueClassCode(ctx)
	if err != nil {
		return nil, err
	}
	doc := &classDoc{
		TeacherID: teacherID,
		Name:      name,
		Code:      code,
		CreatedAt: time.Now(),
	}
	ref, _, err := s.client.Collection("classes").Add(ctx, doc)
	if err != nil {
		return nil, wrapErr("create class", err)
	}
	return doc.toClass(ref.ID), nil
}

func (s *Store) uniqueClassCode(ctx context.Context) (string, error) {
	for {
		code := strings.ToUpper(uuid.New().String()[:6])
		iter := s.client.Collection("classes").Where("code", "==", code).Limit(1).Documents(ctx)
		_, err := iter.Next()
		iter.Stop()
		if err == iterator.Done {
			return code, nil
		}
		if err != nil {
			return "", wrapErr("check class code", err)
		}
	}
}

func (s *Store) ListClasses(ctx context.Context, teacherID string) ([]*class.Class, error) {
	iter := s.client.Collection("classes").Where("teacherId", "==", teacherID).Documents(ctx)
	defer iter.Stop()

	var out []*class.Class
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr("list classes", err)
		}
		doc := &classDoc{}
		if err := snap.DataTo(doc); err != nil {
			return nil, fmt.Errorf("decode class %s: %w", snap.Ref.ID, err)
		}
		out = append(out, doc.toClass(snap.Ref.ID))
	}
	return out, nil
}

func (s *Store) DeleteClass(ctx context.Context, classID string) error {
	ref := s.client.Collection("classes").Doc(classID)
	if _, err := ref.Get(ctx); err != nil {
		return wrapErr("get class", err)
	}
	if _, err := ref.Delete(ctx); err != nil {
		return wrapErr("delete class", err)
	}
	return nil
}

func (s *Store) GetClassByCode(ctx context.Context, code string) (*class.Class, error) {
	snap, doc, err := s.classByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	c := doc.toClass(snap.Ref.ID)

	// Teacher name is display-only; a missing teacher doc is not an error.
	if tSnap, err := s.client.Collection("teachers").Doc(doc.TeacherID).Get(ctx); err == nil {
		t := &class.Teacher{}
		if err := tSnap.DataTo(t); err == nil {
			c.TeacherName = t.Name
		}
	}
	return c, nil
}

func (s *Store) classByCode(ctx context.Context, code string) (*firestore.DocumentSnapshot, *classDoc, error) {
	iter := s.client.Collection("classes").Where("code", "==", strings.ToUpper(code)).Limit(1).Documents(ctx)
	defer iter.Stop()

	snap, err := iter.Next()
	if err == iterator.Done {
		return nil, nil, fmt.Errorf("class code %s: %w", code, gateway.ErrNotFound)
	}
	if err != nil {
		return nil, nil, wrapErr("get class by code", err)
	}
	doc := &classDoc{}
	if err := snap.DataTo(doc); err != nil {
		return nil, nil, fmt.Errorf("decode class %s: %w", snap.Ref.ID, err)
	}
	return snap, doc, nil
}

func (s *Store) JoinClass(ctx context.Context, code, studentName string) (*player.State, error) {
	snap, doc, err := s.classByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	classID := snap.Ref.ID

	iter := s.client.Collection("students").
		Where("classId", "==", classID).
		Where("name", "==", studentName).
		Limit(1).Documents(ctx)
	existing, err := iter.Next()
	iter.Stop()
	if err == nil {
		st := &player.State{}
		if err := existing.DataTo(st); err != nil {
			return nil, fmt.Errorf("decode student %s: %w", existing.Ref.ID, err)
		}
		st.ID = existing.Ref.ID
		return st, nil
	}
	if err != iterator.Done {
		return nil, wrapErr("find student", err)
	}

	st := player.NewState("", classID, studentName)
	ref, _, err := s.client.Collection("students").Add(ctx, st)
	if err != nil {
		return nil, wrapErr("create student", err)
	}
	st.ID = ref.ID

	_, err = snap.Ref.Update(ctx, []firestore.Update{
		{Path: "studentCount", Value: doc.StudentCount + 1},
	})
	if err != nil {
		log.Printf("failed to bump student count for class %s: %v", classID, err)
	}
	return st, nil
}

func (s *Store) ListStudents(ctx context.Context, classID string) ([]*player.State, error) {
	iter := s.client.Collection("students").Where("classId", "==", classID).Documents(ctx)
	defer iter.Stop()

	var out []*player.State
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, wrapErr("list students", err)
		}
		st := &player.State{}
		if err := snap.DataTo(st); err != nil {
			return nil, fmt.Errorf("decode student %s: %w", snap.Ref.ID, err)
		}
		st.ID = snap.Ref.ID
		out = append(out, st)
	}
	return out, nil
}

func (s *Store) SaveClassActivities(ctx context.Context, classID string, paths []catalog.LearningPath) error {
	_, err := s.client.Collection("classes").Doc(classID).Update(ctx, []firestore.Update{
		{Path: "activities", Value: paths},
	})
	if err != nil {
		return wrapErr("save class activities", err)
	}
	return nil
}

func (s *Store) GetClassActivities(ctx context.Context, classID string) ([]catalog.LearningPath, error) {
	snap, err := s.client.Collection("classes").Doc(classID).Get(ctx)
	if err != nil {
		return nil, wrapErr("get class", err)
	}
	doc := &classDoc{}
	if err := snap.DataTo(doc); err != nil {
		return nil, fmt.Errorf("decode class %s: %w", classID, err)
	}
	return doc.Activities, nil
}
