package service

import (
	"context"
	"fmt"
	"strings"

	"asteritime/internal/model"
	"asteritime/internal/repository"
)

// CategoryService provides owner-scoped category CRUD.
type CategoryService struct {
	repo *repository.CategoryRepository
}

func NewCategoryService(repo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) List(ctx context.Context, owner uint) ([]model.Category, error) {
	categories, err := s.repo.ListByUser(ctx, owner)
	return categories, storeErr("list categories", err)
}

func (s *CategoryService) Get(ctx context.Context, owner, id uint) (*model.Category, error) {
	category, err := s.repo.FindByID(ctx, owner, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("get category %d", id), err)
	}
	return category, nil
}

// Create adds a category; names are unique per owner.
func (s *CategoryService) Create(ctx context.Context, owner uint, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationf("category name is required")
	}
	if _, err := s.repo.FindByName(ctx, owner, name); err == nil {
		return nil, fmt.Errorf("category %q: %w", name, ErrAlreadyExists)
	} else if !repository.IsNotFound(err) {
		return nil, storeErr("find category", err)
	}

	category := model.Category{UserID: owner, Name: name}
	if err := s.repo.Create(ctx, &category); err != nil {
		if repository.IsDuplicate(err) {
			return nil, fmt.Errorf("category %q: %w", name, ErrAlreadyExists)
		}
		return nil, storeErr("create category", err)
	}
	return &category, nil
}

// Delete removes the owner's category and detaches it from their tasks.
func (s *CategoryService) Delete(ctx context.Context, owner, id uint) (bool, error) {
	deleted, err := s.repo.Delete(ctx, owner, id)
	if err != nil {
		return false, storeErr(fmt.Sprintf("delete category %d", id), err)
	}
	return deleted, nil
}
