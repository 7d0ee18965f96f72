package catalog

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// CategoryService handles category tree operations
type CategoryService struct {
	categoryRepo catalog.CategoryRepository
	productRepo  catalog.ProductRepository
	logger       *zap.Logger
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(
	categoryRepo catalog.CategoryRepository,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
) *CategoryService {
	return &CategoryService{
		categoryRepo: categoryRepo,
		productRepo:  productRepo,
		logger:       logger,
	}
}

// Create creates a new category, optionally under a parent
func (s *CategoryService) Create(ctx context.Context, req CreateCategoryRequest) (*CategoryResponse, error) {
	if _, err := s.categoryRepo.FindBySlug(ctx, req.Slug); err == nil {
		return nil, shared.NewDomainError("SLUG_ALREADY_EXISTS", "Category with this slug already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	var category *catalog.Category
	var err error
	if req.ParentID != nil {
		parent, ferr := s.categoryRepo.FindByID(ctx, *req.ParentID)
		if ferr != nil {
			if errors.Is(ferr, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_PARENT", "Parent category not found")
			}
			return nil, ferr
		}
		category, err = catalog.NewChildCategory(req.Slug, req.Name, parent)
	} else {
		category, err = catalog.NewCategory(req.Slug, req.Name)
	}
	if err != nil {
		return nil, err
	}

	if req.Description != "" {
		if err := category.Update(req.Name, req.Description); err != nil {
			return nil, err
		}
	}
	if req.SortOrder != 0 {
		category.SetSortOrder(req.SortOrder)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		s.logger.Error("Failed to save category", zap.String("slug", category.Slug), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Category created",
		zap.String("category_id", category.ID.String()),
		zap.String("slug", category.Slug))

	resp := toCategoryResponse(category)
	return &resp, nil
}

// GetByID returns a category by ID
func (s *CategoryService) GetByID(ctx context.Context, categoryID uuid.UUID) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

// GetBySlug returns a category by slug
func (s *CategoryService) GetBySlug(ctx context.Context, slug string) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	resp := toCategoryResponse(category)
	return &resp, nil
}

// Tree returns the whole category tree, children nested under parents
// and siblings ordered by sort order then name
func (s *CategoryService) Tree(ctx context.Context) ([]CategoryResponse, error) {
	filter := shared.DefaultFilter()
	filter.Page = 1
	filter.PageSize = 1000
	filter.OrderBy = ""

	categories, err := s.categoryRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	return buildTree(categories, nil), nil
}

// Subtree returns a category with all of its descendants nested
func (s *CategoryService) Subtree(ctx context.Context, categoryID uuid.UUID) (*CategoryResponse, error) {
	root, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	descendants, err := s.categoryRepo.FindDescendants(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	resp := toCategoryResponse(root)
	resp.Children = buildTree(descendants, &root.ID)
	return &resp, nil
}

// Update updates a category's details
func (s *CategoryService) Update(ctx context.Context, categoryID uuid.UUID, req UpdateCategoryRequest) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if err := category.Update(req.Name, req.Description); err != nil {
		return nil, err
	}
	if req.SortOrder != nil {
		category.SetSortOrder(*req.SortOrder)
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	resp := toCategoryResponse(category)
	return &resp, nil
}

// Activate makes a category visible
func (s *CategoryService) Activate(ctx context.Context, categoryID uuid.UUID) (*CategoryResponse, error) {
	return s.transition(ctx, categoryID, (*catalog.Category).Activate)
}

// Deactivate hides a category
func (s *CategoryService) Deactivate(ctx context.Context, categoryID uuid.UUID) (*CategoryResponse, error) {
	return s.transition(ctx, categoryID, (*catalog.Category).Deactivate)
}

// Delete removes a category. A category that still has children or
// products referencing it cannot be deleted.
func (s *CategoryService) Delete(ctx context.Context, categoryID uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return err
	}

	hasChildren, err := s.categoryRepo.HasChildren(ctx, categoryID)
	if err != nil {
		return err
	}
	if hasChildren {
		return shared.NewDomainError("CATEGORY_HAS_CHILDREN", "Delete or move the child categories first")
	}

	productCount, err := s.productRepo.CountByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	if productCount > 0 {
		return shared.NewDomainError("CATEGORY_HAS_PRODUCTS", "Reassign the category's products first")
	}

	if err := s.categoryRepo.Delete(ctx, categoryID); err != nil {
		return err
	}

	s.logger.Info("Category deleted", zap.String("category_id", categoryID.String()))
	return nil
}

func (s *CategoryService) transition(ctx context.Context, categoryID uuid.UUID, change func(*catalog.Category) error) (*CategoryResponse, error) {
	category, err := s.categoryRepo.FindByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	if err := change(category); err != nil {
		return nil, err
	}

	if err := s.categoryRepo.Save(ctx, category); err != nil {
		return nil, err
	}

	resp := toCategoryResponse(category)
	return &resp, nil
}

// buildTree nests categories under the given parent (nil for roots)
func buildTree(categories []catalog.Category, parentID *uuid.UUID) []CategoryResponse {
	var nodes []CategoryResponse
	for i := range categories {
		c := &categories[i]
		if !sameParent(c.ParentID, parentID) {
			continue
		}
		node := toCategoryResponse(c)
		node.Children = buildTree(categories, &c.ID)
		nodes = append(nodes, node)
	}

	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].SortOrder != nodes[j].SortOrder {
			return nodes[i].SortOrder < nodes[j].SortOrder
		}
		return nodes[i].Name < nodes[j].Name
	})

	return nodes
}

func sameParent(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
