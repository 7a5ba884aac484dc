package models

import "time"

// Task is a todo item owned by exactly one user.
type Task struct {
	ID        int64
	UserID    int64
	Content   string
	Completed bool
	CreatedAt time.Time
}

// OwnedBy reports whether userID owns the task.
func (t *Task) OwnedBy(userID int64) bool {
	return t != nil && t.UserID == userID
}
