package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// treeOrder keeps siblings in their configured display order.
const treeOrder = "sort_order ASC, name ASC"

// GormCategoryRepository persists the category tree. Descendant lookups
// use the materialized path column instead of recursive queries.
type GormCategoryRepository struct {
	db *gorm.DB
}

func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

func (r *GormCategoryRepository) one(ctx context.Context, query string, args ...interface{}) (*catalog.Category, error) {
	var category catalog.Category
	err := r.db.WithContext(ctx).Where(query, args...).First(&category).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	return r.one(ctx, "id = ?", id)
}

// FindBySlug looks a category up by its URL slug. Slugs are stored
// lowercase.
func (r *GormCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	return r.one(ctx, "slug = ?", strings.ToLower(slug))
}

func (r *GormCategoryRepository) FindAll(ctx context.Context, filter shared.Filter) ([]catalog.Category, error) {
	var categories []catalog.Category
	query := r.paginate(r.conditions(r.db.WithContext(ctx).Model(&catalog.Category{}), filter), filter)
	if err := query.Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

// FindChildren returns the direct children of a category.
func (r *GormCategoryRepository) FindChildren(ctx context.Context, parentID uuid.UUID) ([]catalog.Category, error) {
	var categories []catalog.Category
	err := r.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order(treeOrder).
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// FindRootCategories returns the categories at the top of the tree.
func (r *GormCategoryRepository) FindRootCategories(ctx context.Context) ([]catalog.Category, error) {
	var categories []catalog.Category
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order(treeOrder).
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// FindDescendants returns the whole subtree below a category, matched
// by path prefix.
func (r *GormCategoryRepository) FindDescendants(ctx context.Context, categoryID uuid.UUID) ([]catalog.Category, error) {
	parent, err := r.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	var categories []catalog.Category
	err = r.db.WithContext(ctx).
		Where("path LIKE ?", parent.Path+"/%").
		Order("path ASC").
		Find(&categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// HasChildren reports whether any category names this one as parent.
func (r *GormCategoryRepository) HasChildren(ctx context.Context, categoryID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&catalog.Category{}).
		Where("parent_id = ?", categoryID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *GormCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&catalog.Category{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *GormCategoryRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	err := r.conditions(r.db.WithContext(ctx).Model(&catalog.Category{}), filter).
		Count(&count).Error
	return count, err
}

// conditions applies the search and field filters without pagination,
// shared between FindAll and Count.
func (r *GormCategoryRepository) conditions(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR slug ILIKE ?", pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "parent_id":
			if value == nil {
				query = query.Where("parent_id IS NULL")
			} else {
				query = query.Where("parent_id = ?", value)
			}
		case "level":
			query = query.Where("level = ?", value)
		}
	}
	return query
}

func (r *GormCategoryRepository) paginate(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	if filter.OrderBy == "" {
		return query.Order(treeOrder)
	}
	orderBy := ValidateSortField(filter.OrderBy, CategorySortFields, "sort_order")
	return query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
}

var _ catalog.CategoryRepository = (*GormCategoryRepository)(nil)
