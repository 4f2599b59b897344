package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/spellworks/backend/internal/domain/fulfillment"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

var _ fulfillment.CategoryRepository = (*GormCategoryRepository)(nil)

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*fulfillment.Category, error) {
	var category fulfillment.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fulfillment.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindBySlug finds a category by its slug
func (r *GormCategoryRepository) FindBySlug(ctx context.Context, slug string) (*fulfillment.Category, error) {
	var category fulfillment.Category
	if err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fulfillment.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

// FindActive returns active categories ordered for title matching
func (r *GormCategoryRepository) FindActive(ctx context.Context) ([]fulfillment.Category, error) {
	var categories []fulfillment.Category
	if err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Order("display_order ASC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindAll returns every category
func (r *GormCategoryRepository) FindAll(ctx context.Context) ([]fulfillment.Category, error) {
	var categories []fulfillment.Category
	if err := r.db.WithContext(ctx).
		Order("display_order ASC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// Create inserts a new category
func (r *GormCategoryRepository) Create(ctx context.Context, category *fulfillment.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

// Save updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, category *fulfillment.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}
