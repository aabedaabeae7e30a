package model

import (
	"strings"
	"time"
)

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusDelay  TaskStatus = "DELAY"
	StatusTodo   TaskStatus = "TODO"
	StatusDoing  TaskStatus = "DOING"
	StatusDone   TaskStatus = "DONE"
	StatusCancel TaskStatus = "CANCEL"
)

// Valid reports whether s is one of the known states.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusDelay, StatusTodo, StatusDoing, StatusDone, StatusCancel:
		return true
	}
	return false
}

// ParseTaskStatus accepts any letter case, e.g. "doing".
func ParseTaskStatus(raw string) (TaskStatus, bool) {
	s := TaskStatus(strings.ToUpper(strings.TrimSpace(raw)))
	return s, s.Valid()
}

const (
	MinQuadrant = 1
	MaxQuadrant = 4
)

// ValidQuadrant reports whether q is an Eisenhower quadrant:
// 1 urgent/important, 2 not urgent/important, 3 urgent/not important,
// 4 neither.
func ValidQuadrant(q int) bool {
	return q >= MinQuadrant && q <= MaxQuadrant
}

// Task represents a single item in the planner.
type Task struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	UserID           uint       `gorm:"not null;index:idx_task_owner_quadrant,priority:1;index:idx_task_owner_status,priority:1;index:idx_task_owner_planned,priority:1" json:"-"`
	Title            string     `gorm:"not null" json:"title"`
	Description      string     `json:"description,omitempty"`
	Quadrant         int        `gorm:"not null;index:idx_task_owner_quadrant,priority:2" json:"quadrant"`
	CategoryID       *uint      `gorm:"index" json:"categoryId,omitempty"`
	RecurrenceRuleID *uint      `gorm:"index" json:"recurrenceRuleId,omitempty"`
	Status           TaskStatus `gorm:"type:varchar(16);not null;index:idx_task_owner_status,priority:2" json:"status"`
	PlannedStart     *time.Time `gorm:"index:idx_task_owner_planned,priority:2" json:"plannedStart,omitempty"`
	PlannedEnd       *time.Time `json:"plannedEnd,omitempty"`
	ActualStart      *time.Time `json:"actualStart,omitempty"`
	ActualEnd        *time.Time `json:"actualEnd,omitempty"`
	Version          int64      `gorm:"not null" json:"version"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}
