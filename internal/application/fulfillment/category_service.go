package fulfillment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/spellworks/backend/internal/domain/fulfillment"
	"github.com/spellworks/backend/internal/domain/shared"
)

// CategoryService manages the categories that own prompt templates.
type CategoryService struct {
	categories fulfillment.CategoryRepository
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(categories fulfillment.CategoryRepository) *CategoryService {
	return &CategoryService{categories: categories}
}

// List returns all categories, active and inactive.
func (s *CategoryService) List(ctx context.Context) ([]CategoryResponse, error) {
	categories, err := s.categories.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	responses := make([]CategoryResponse, len(categories))
	for i := range categories {
		responses[i] = *ToCategoryResponse(&categories[i])
	}
	return responses, nil
}

// Get returns a category by id.
func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToCategoryResponse(category), nil
}

// Create creates a category. The slug must be unique.
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	_, err := s.categories.FindBySlug(ctx, req.Slug)
	if err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Category with this slug already exists")
	}
	if !errors.Is(err, fulfillment.ErrCategoryNotFound) {
		return nil, err
	}

	category := fulfillment.NewCategory(req.Name, req.Slug, req.PromptTemplate)
	category.Description = req.Description
	category.EmailSubject = req.EmailSubject
	if req.DisplayOrder != nil {
		category.DisplayOrder = *req.DisplayOrder
	}

	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return ToCategoryResponse(category), nil
}

// Update changes mutable category fields; nil request fields are left as is.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		category.Name = *req.Name
	}
	if req.Description != nil {
		category.Description = *req.Description
	}
	if req.PromptTemplate != nil {
		category.PromptTemplate = *req.PromptTemplate
	}
	if req.EmailSubject != nil {
		category.EmailSubject = *req.EmailSubject
	}
	if req.Active != nil {
		category.Active = *req.Active
	}
	if req.DisplayOrder != nil {
		category.DisplayOrder = *req.DisplayOrder
	}

	if err := s.categories.Save(ctx, category); err != nil {
		return nil, err
	}
	return ToCategoryResponse(category), nil
}
