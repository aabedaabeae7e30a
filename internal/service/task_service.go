package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"asteritime/internal/model"
	"asteritime/internal/repository"
)

// TaskStore is the persistence the task service needs.
type TaskStore interface {
	Create(ctx context.Context, task *model.Task) error
	List(ctx context.Context, userID uint, filter repository.TaskFilter) ([]model.Task, error)
	FindByID(ctx context.Context, userID, taskID uint) (*model.Task, error)
	UpdateVersioned(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, userID, taskID uint) (bool, error)
}

// CategoryLookup resolves a category of an owner.
type CategoryLookup interface {
	FindByID(ctx context.Context, userID, id uint) (*model.Category, error)
}

// RecurrenceRuleLookup resolves a recurrence rule of an owner.
type RecurrenceRuleLookup interface {
	FindByID(ctx context.Context, userID, id uint) (*model.RecurrenceRule, error)
}

// TaskDraft represents data required to create a task.
type TaskDraft struct {
	Title            string
	Description      string
	Quadrant         int
	CategoryID       *uint
	RecurrenceRuleID *uint
	Status           model.TaskStatus
	PlannedStart     *time.Time
	PlannedEnd       *time.Time
	ActualStart      *time.Time
	ActualEnd        *time.Time
}

// TaskService wraps task-related business logic. Every operation is scoped
// to the owner id it receives.
type TaskService struct {
	tasks      TaskStore
	categories CategoryLookup
	rules      RecurrenceRuleLookup
	logger     *zap.Logger
	retry      retrier
	now        func() time.Time
}

func NewTaskService(tasks TaskStore, categories CategoryLookup, rules RecurrenceRuleLookup, logger *zap.Logger) *TaskService {
	return &TaskService{
		tasks:      tasks,
		categories: categories,
		rules:      rules,
		logger:     logger,
		retry:      newRetrier(logger),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// ListTasks returns the owner's tasks matching all supplied filters, newest
// first. No match yields an empty slice.
func (s *TaskService) ListTasks(ctx context.Context, owner uint, filter repository.TaskFilter) ([]model.Task, error) {
	if filter.Quadrant != nil && !model.ValidQuadrant(*filter.Quadrant) {
		return nil, validationf("quadrant must be between %d and %d", model.MinQuadrant, model.MaxQuadrant)
	}
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, validationf("unknown status %q", *filter.Status)
	}
	if (filter.PlannedFrom == nil) != (filter.PlannedTo == nil) {
		return nil, validationf("time range needs both start and end")
	}
	if filter.HasTimeRange() {
		filter.PlannedFrom = utcPtr(filter.PlannedFrom)
		filter.PlannedTo = utcPtr(filter.PlannedTo)
	}
	tasks, err := s.tasks.List(ctx, owner, filter)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTask(ctx context.Context, owner, id uint) (*model.Task, error) {
	task, err := s.tasks.FindByID(ctx, owner, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get task %d", id), err)
	}
	return task, nil
}

// CreateTask stores a new task for owner. The initial status is whatever the
// draft carries; it must be a known status.
func (s *TaskService) CreateTask(ctx context.Context, owner uint, draft TaskDraft) (*model.Task, error) {
	title := strings.TrimSpace(draft.Title)
	if title == "" {
		return nil, validationf("title is required")
	}
	if !model.ValidQuadrant(draft.Quadrant) {
		return nil, validationf("quadrant must be between %d and %d, got %d", model.MinQuadrant, model.MaxQuadrant, draft.Quadrant)
	}
	if !draft.Status.Valid() {
		return nil, validationf("unknown status %q", draft.Status)
	}
	if err := s.checkReferences(ctx, owner, draft.CategoryID, draft.RecurrenceRuleID); err != nil {
		return nil, err
	}

	task := model.Task{
		UserID:           owner,
		Title:            title,
		Description:      draft.Description,
		Quadrant:         draft.Quadrant,
		CategoryID:       draft.CategoryID,
		RecurrenceRuleID: draft.RecurrenceRuleID,
		Status:           draft.Status,
		PlannedStart:     utcPtr(draft.PlannedStart),
		PlannedEnd:       utcPtr(draft.PlannedEnd),
		ActualStart:      utcPtr(draft.ActualStart),
		ActualEnd:        utcPtr(draft.ActualEnd),
	}
	if err := s.tasks.Create(ctx, &task); err != nil {
		return nil, storeErr("create task", err)
	}
	s.logger.Info("task created",
		zap.Uint("user_id", owner),
		zap.Uint("task_id", task.ID),
		zap.String("status", string(task.Status)),
	)
	return &task, nil
}

// UpdateTask merges patch into the owner's task, enforcing the lifecycle
// rules, and writes it under an optimistic version check. A concurrent write
// restarts the whole read-merge-write sequence, at most MaxWriteAttempts times.
func (s *TaskService) UpdateTask(ctx context.Context, owner, id uint, patch TaskPatch) (*model.Task, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}

	var updated *model.Task
	err := s.retry.run(ctx, "task", func(ctx context.Context) error {
		if err := s.checkReferences(ctx, owner, patch.CategoryID, patch.RecurrenceRuleID); err != nil {
			return err
		}
		task, err := s.tasks.FindByID(ctx, owner, id)
		if err != nil {
			return storeErr(fmt.Sprintf("update task %d", id), err)
		}
		if patch.Version != nil && *patch.Version != task.Version {
			return fmt.Errorf("update task %d: %w: version %d is stale, current is %d",
				id, ErrConflict, *patch.Version, task.Version)
		}

		from := task.Status
		changed, err := applyTaskPatch(task, patch, s.now())
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) && patch.Status != nil {
				taskTransitionsRejected.WithLabelValues(string(from), string(*patch.Status)).Inc()
			}
			return err
		}

		if err := s.tasks.UpdateVersioned(ctx, task); err != nil {
			if errors.Is(err, repository.ErrStaleVersion) {
				return err
			}
			return storeErr(fmt.Sprintf("update task %d", id), err)
		}
		if changed {
			taskTransitions.WithLabelValues(string(from), string(task.Status)).Inc()
			s.logger.Info("task status changed",
				zap.Uint("user_id", owner),
				zap.Uint("task_id", id),
				zap.String("from", string(from)),
				zap.String("to", string(task.Status)),
			)
		}
		updated = task
		return nil
	})
	if errors.Is(err, repository.ErrStaleVersion) {
		return nil, fmt.Errorf("update task %d: %w", id, ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTask removes the owner's task. It reports false when there was
// nothing to delete.
func (s *TaskService) DeleteTask(ctx context.Context, owner, id uint) (bool, error) {
	deleted, err := s.tasks.Delete(ctx, owner, id)
	if err != nil {
		return false, storeErr(fmt.Sprintf("delete task %d", id), err)
	}
	if deleted {
		s.logger.Info("task deleted", zap.Uint("user_id", owner), zap.Uint("task_id", id))
	}
	return deleted, nil
}

// checkReferences makes sure referenced category and rule belong to owner.
func (s *TaskService) checkReferences(ctx context.Context, owner uint, categoryID, ruleID *uint) error {
	if categoryID != nil {
		if _, err := s.categories.FindByID(ctx, owner, *categoryID); err != nil {
			if repository.IsNotFound(err) {
				return validationf("category %d does not exist", *categoryID)
			}
			return storeErr("find category", err)
		}
	}
	if ruleID != nil {
		if _, err := s.rules.FindByID(ctx, owner, *ruleID); err != nil {
			if repository.IsNotFound(err) {
				return validationf("recurrence rule %d does not exist", *ruleID)
			}
			return storeErr("find recurrence rule", err)
		}
	}
	return nil
}
