package service

import (
	"context"
	"fmt"
	"strings"

	"asteritime/internal/model"
	"asteritime/internal/repository"
)

// RecurrenceRuleService provides owner-scoped recurrence rule CRUD.
type RecurrenceRuleService struct {
	repo *repository.RecurrenceRuleRepository
}

func NewRecurrenceRuleService(repo *repository.RecurrenceRuleRepository) *RecurrenceRuleService {
	return &RecurrenceRuleService{repo: repo}
}

func (s *RecurrenceRuleService) List(ctx context.Context, owner uint) ([]model.RecurrenceRule, error) {
	rules, err := s.repo.ListByUser(ctx, owner)
	return rules, storeErr("list recurrence rules", err)
}

func (s *RecurrenceRuleService) Get(ctx context.Context, owner, id uint) (*model.RecurrenceRule, error) {
	rule, err := s.repo.FindByID(ctx, owner, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get recurrence rule %d", id), err)
	}
	return rule, nil
}

// Create adds a rule; expressions are unique per owner.
func (s *RecurrenceRuleService) Create(ctx context.Context, owner uint, expr string) (*model.RecurrenceRule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, validationf("frequency expression is required")
	}
	if _, err := s.repo.FindByExpression(ctx, owner, expr); err == nil {
		return nil, fmt.Errorf("recurrence rule %q: %w", expr, ErrAlreadyExists)
	} else if !repository.IsNotFound(err) {
		return nil, storeErr("find recurrence rule", err)
	}

	rule := model.RecurrenceRule{UserID: owner, FrequencyExpression: expr}
	if err := s.repo.Create(ctx, &rule); err != nil {
		if repository.IsDuplicate(err) {
			return nil, fmt.Errorf("recurrence rule %q: %w", expr, ErrAlreadyExists)
		}
		return nil, storeErr("create recurrence rule", err)
	}
	return &rule, nil
}

func (s *RecurrenceRuleService) Delete(ctx context.Context, owner, id uint) (bool, error) {
	deleted, err := s.repo.Delete(ctx, owner, id)
	if err != nil {
		return false, storeErr(fmt.Sprintf("delete recurrence rule %d", id), err)
	}
	return deleted, nil
}
