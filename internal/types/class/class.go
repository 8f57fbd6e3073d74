package class

import "time"

// Class is a teacher-owned group that students join with a short code.
type Class struct {
	ID           string    `json:"id" firestore:"-"`
	TeacherID    string    `json:"teacher_id" firestore:"teacherId"`
	Name         string    `json:"name" firestore:"name"`
	Code         string    `json:"code" firestore:"code"`
	StudentCount int       `json:"student_count" firestore:"studentCount"`
	TeacherName  string    `json:"teacher_name,omitempty" firestore:"-"`
	CreatedAt    time.Time `json:"created_at" firestore:"createdAt"`
}

type Teacher struct {
	ID        string    `json:"id" firestore:"-"`
	ClerkID   string    `json:"clerk_id" firestore:"clerkId"`
	Name      string    `json:"name" firestore:"name"`
	Email     string    `json:"email" firestore:"email"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

type CreateClassRequest struct {
	Name string `json:"name"`
}

type JoinClassRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}
