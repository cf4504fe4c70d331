package models

import (
	"time"
)

// Task is the durable record of one asynchronous cluster operation. A task
// is created in the running state at request admission time and is mutated
// only by the executor that owns it; once terminal it is immutable.
type Task struct {
	ID        string     `json:"task_id" gorm:"primarykey"`
	Kind      TaskKind   `json:"kind" gorm:"not null"`
	Status    TaskStatus `json:"status" gorm:"default:'running';index"`
	Message   string     `json:"message"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	// Target cluster
	ClusterID   string `json:"cluster_id" gorm:"index;not null"`
	ClusterName string `json:"cluster_name" gorm:"index"`
}

// TaskKind defines the kind of operation a task tracks
type TaskKind string

const (
	TaskKindCreate TaskKind = "create"
	TaskKindDelete TaskKind = "delete"
)

// TaskStatus defines the possible states of a task
type TaskStatus string

const (
	TaskStatusRunning TaskStatus = "running"
	TaskStatusSuccess TaskStatus = "success"
	TaskStatusError   TaskStatus = "error"
)

// IsTerminal returns true once the task has reached a final state
func (t *Task) IsTerminal() bool {
	return t.Status == TaskStatusSuccess || t.Status == TaskStatusError
}

// TableName returns the table name for the Task model
func (Task) TableName() string {
	return "tasks"
}
