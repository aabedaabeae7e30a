package service

import (
	"fmt"
	"strings"
	"time"

	"asteritime/internal/model"
)

// TaskPatch is a sparse task update. A nil field leaves the stored value
// unchanged; there is no way to clear a field through a patch.
type TaskPatch struct {
	Title            *string
	Description      *string
	Quadrant         *int
	CategoryID       *uint
	RecurrenceRuleID *uint
	Status           *model.TaskStatus
	PlannedStart     *time.Time
	PlannedEnd       *time.Time
	ActualStart      *time.Time
	ActualEnd        *time.Time
	// Version, when set, must equal the stored version.
	Version *int64
}

// validate rejects out-of-range values before any read.
func (p TaskPatch) validate() error {
	if p.Quadrant != nil && !model.ValidQuadrant(*p.Quadrant) {
		return validationf("quadrant must be between %d and %d, got %d", model.MinQuadrant, model.MaxQuadrant, *p.Quadrant)
	}
	if p.Status != nil && !p.Status.Valid() {
		return validationf("unknown status %q", *p.Status)
	}
	return nil
}

// checkTransition enforces the two forbidden moves of the lifecycle.
func checkTransition(from, to model.TaskStatus) error {
	switch {
	case from == model.StatusTodo && to == model.StatusDone:
		return fmt.Errorf("%w: %s to %s: must pass through %s", ErrInvalidTransition, from, to, model.StatusDoing)
	case from == model.StatusDoing && to == model.StatusTodo:
		return fmt.Errorf("%w: %s to %s: cannot revert to %s", ErrInvalidTransition, from, to, model.StatusTodo)
	}
	return nil
}

// checkTaskState is the last check before a write.
func checkTaskState(t *model.Task) error {
	switch {
	case !model.ValidQuadrant(t.Quadrant):
		return fmt.Errorf("%w: task %d has no valid quadrant", ErrInvalidState, t.ID)
	case !t.Status.Valid():
		return fmt.Errorf("%w: task %d has no valid status", ErrInvalidState, t.ID)
	case strings.TrimSpace(t.Title) == "":
		return fmt.Errorf("%w: task %d has an empty title", ErrInvalidState, t.ID)
	}
	return nil
}

// applyTaskPatch merges p into t and applies the status side effects,
// using now for derived timestamps. It reports whether the status changed.
// t is left partially modified on error; callers discard it.
func applyTaskPatch(t *model.Task, p TaskPatch, now time.Time) (bool, error) {
	if err := p.validate(); err != nil {
		return false, err
	}

	if p.Title != nil {
		if title := strings.TrimSpace(*p.Title); title != "" {
			t.Title = title
		}
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Quadrant != nil {
		t.Quadrant = *p.Quadrant
	}
	if p.CategoryID != nil {
		t.CategoryID = p.CategoryID
	}
	if p.RecurrenceRuleID != nil {
		t.RecurrenceRuleID = p.RecurrenceRuleID
	}
	if p.PlannedStart != nil {
		t.PlannedStart = utcPtr(p.PlannedStart)
	}
	if p.PlannedEnd != nil {
		t.PlannedEnd = utcPtr(p.PlannedEnd)
	}

	from := t.Status
	changed := p.Status != nil && *p.Status != from
	if changed {
		to := *p.Status
		if err := checkTransition(from, to); err != nil {
			return false, err
		}
		t.Status = to
		switch to {
		case model.StatusDoing:
			t.ActualStart = derive(t.ActualStart, p.ActualStart, now)
		case model.StatusDone:
			t.ActualEnd = derive(t.ActualEnd, p.ActualEnd, now)
			if t.ActualStart == nil {
				t.ActualStart = derive(nil, p.ActualStart, now)
			}
		}
	} else {
		if p.ActualStart != nil {
			t.ActualStart = utcPtr(p.ActualStart)
		}
		if p.ActualEnd != nil {
			t.ActualEnd = utcPtr(p.ActualEnd)
		}
	}

	if err := checkTaskState(t); err != nil {
		return false, err
	}
	return changed, nil
}

// derive picks the value of a derived timestamp: the caller's explicit value,
// else the current one, else now.
func derive(current, explicit *time.Time, now time.Time) *time.Time {
	if explicit != nil {
		return utcPtr(explicit)
	}
	if current != nil {
		return current
	}
	ts := now.UTC()
	return &ts
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
