package models

import "go.mongodb.org/mongo-driver/bson/primitive"

type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
)

// AllStatuses vraća sve statuse redom kolona na tabli.
func AllStatuses() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusDone}
}

func (s TaskStatus) IsValid() bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusDone:
		return true
	}
	return false
}

type Task struct {
	ID      primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Content string             `json:"content" bson:"content"`
	Status  TaskStatus         `json:"status" bson:"status"`
}
