package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"asteritime/internal/model"
)

// TaskFilter narrows a task listing. Nil fields are not applied; the planned
// start range applies only when both bounds are set.
type TaskFilter struct {
	Quadrant    *int
	CategoryID  *uint
	Status      *model.TaskStatus
	PlannedFrom *time.Time
	PlannedTo   *time.Time
}

// HasTimeRange reports whether both planned start bounds are present.
func (f TaskFilter) HasTimeRange() bool {
	return f.PlannedFrom != nil && f.PlannedTo != nil
}

func (f TaskFilter) apply(q *gorm.DB) *gorm.DB {
	if f.Quadrant != nil {
		q = q.Where("quadrant = ?", *f.Quadrant)
	}
	if f.CategoryID != nil {
		q = q.Where("category_id = ?", *f.CategoryID)
	}
	if f.Status != nil {
		q = q.Where("status = ?", *f.Status)
	}
	if f.HasTimeRange() {
		q = q.Where("planned_start BETWEEN ? AND ?", *f.PlannedFrom, *f.PlannedTo)
	}
	return q
}

// TaskRepository handles CRUD for tasks.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.Version == 0 {
		task.Version = 1
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// List returns the owner's tasks matching every filter set, newest first.
func (r *TaskRepository) List(ctx context.Context, userID uint, filter TaskFilter) ([]model.Task, error) {
	tasks := []model.Task{}
	q := filter.apply(r.db.WithContext(ctx).Where("user_id = ?", userID))
	if err := q.Order("created_at DESC, id DESC").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ListByStatus returns the owner's tasks in the given status regardless of
// planned time.
func (r *TaskRepository) ListByStatus(ctx context.Context, userID uint, status model.TaskStatus) ([]model.Task, error) {
	return r.List(ctx, userID, TaskFilter{Status: &status})
}

func (r *TaskRepository) FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateVersioned writes every mutable column of task provided the stored row
// still has task.Version and the referenced category and rule still exist for
// the owner. On success task.Version is incremented; otherwise
// ErrStaleVersion is returned and nothing is written.
func (r *TaskRepository) UpdateVersioned(ctx context.Context, task *model.Task) error {
	now := time.Now().UTC()
	q := r.db.WithContext(ctx).Model(&model.Task{}).
		Where("id = ? AND user_id = ? AND version = ?", task.ID, task.UserID, task.Version)
	if task.CategoryID != nil {
		q = q.Where(referenceExists(model.Category{}.TableName()), *task.CategoryID, task.UserID)
	}
	if task.RecurrenceRuleID != nil {
		q = q.Where(referenceExists(model.RecurrenceRule{}.TableName()), *task.RecurrenceRuleID, task.UserID)
	}
	res := q.Updates(map[string]interface{}{
		"title":              task.Title,
		"description":        task.Description,
		"quadrant":           task.Quadrant,
		"category_id":        task.CategoryID,
		"recurrence_rule_id": task.RecurrenceRuleID,
		"status":             task.Status,
		"planned_start":      task.PlannedStart,
		"planned_end":        task.PlannedEnd,
		"actual_start":       task.ActualStart,
		"actual_end":         task.ActualEnd,
		"version":            task.Version + 1,
		"updated_at":         now,
	})
	if res.Error != nil {
		return fmt.Errorf("update task: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleVersion
	}
	task.Version++
	task.UpdatedAt = now
	return nil
}

// Delete removes a task for the given user. It reports false when nothing matched.
func (r *TaskRepository) Delete(ctx context.Context, userID, taskID uint) (bool, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
	if res.Error != nil {
		return false, fmt.Errorf("delete task: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func referenceExists(table string) string {
	return "EXISTS (SELECT 1 FROM " + table + " ref WHERE ref.id = ? AND ref.user_id = ?)"
}
