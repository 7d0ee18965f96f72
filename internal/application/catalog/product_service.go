package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shared/valueobject"
)

// ProductService handles product catalog operations
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	logger       *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// Create creates a new product
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	price, err := valueobject.NewMoneyUSDFromString(req.Price)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price must be a decimal number")
	}

	if _, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil {
		return nil, shared.NewDomainError("SKU_ALREADY_EXISTS", "Product with this SKU already exists")
	} else if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
	}

	product, err := catalog.NewProduct(req.SKU, req.Name, price)
	if err != nil {
		return nil, err
	}

	if req.Description != "" || req.Brand != "" {
		if err := product.Update(req.Name, req.Description, req.Brand); err != nil {
			return nil, err
		}
	}
	if req.CategoryID != nil {
		product.SetCategory(req.CategoryID)
	}
	if req.Stock > 0 {
		if err := product.Restock(req.Stock); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		s.logger.Error("Failed to save product", zap.String("sku", product.SKU), zap.Error(err))
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("sku", product.SKU))

	resp := toProductResponse(product)
	return &resp, nil
}

// GetByID returns a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(product)
	return &resp, nil
}

// GetBySKU returns a product by SKU
func (s *ProductService) GetBySKU(ctx context.Context, sku string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	resp := toProductResponse(product)
	return &resp, nil
}

// List returns a page of products matching the filter
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	f := s.toSharedFilter(filter)

	products, err := s.productRepo.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.Count(ctx, f)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = toProductResponse(&products[i])
	}

	result := shared.NewPaginated(responses, total, f.Page, f.PageSize)
	return &result, nil
}

// ListByCategory returns a page of products in a category
func (s *ProductService) ListByCategory(ctx context.Context, categoryID uuid.UUID, filter ProductListFilter) (*shared.Paginated[ProductResponse], error) {
	if _, err := s.categoryRepo.FindByID(ctx, categoryID); err != nil {
		return nil, err
	}

	f := s.toSharedFilter(filter)

	products, err := s.productRepo.FindByCategory(ctx, categoryID, f)
	if err != nil {
		return nil, err
	}
	total, err := s.productRepo.CountByCategory(ctx, categoryID)
	if err != nil {
		return nil, err
	}

	responses := make([]ProductResponse, len(products))
	for i := range products {
		responses[i] = toProductResponse(&products[i])
	}

	result := shared.NewPaginated(responses, total, f.Page, f.PageSize)
	return &result, nil
}

// Update updates a product's details with optimistic locking
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Update(req.Name, req.Description, req.Brand); err != nil {
		return nil, err
	}

	if req.Price != nil {
		price, err := valueobject.NewMoneyUSDFromString(*req.Price)
		if err != nil {
			return nil, shared.NewDomainError("INVALID_PRICE", "Price must be a decimal number")
		}
		if err := product.SetPrice(price); err != nil {
			return nil, err
		}
	}

	if req.CategoryID != nil {
		if _, err := s.categoryRepo.FindByID(ctx, *req.CategoryID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError("INVALID_CATEGORY", "Category not found")
			}
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		s.logger.Warn("Failed to update product",
			zap.String("product_id", productID.String()),
			zap.Error(err))
		return nil, err
	}

	resp := toProductResponse(product)
	return &resp, nil
}

// Restock adds stock to a product
func (s *ProductService) Restock(ctx context.Context, productID uuid.UUID, req RestockRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := product.Restock(req.Quantity); err != nil {
		return nil, err
	}

	if err := s.productRepo.ReleaseStock(ctx, productID, req.Quantity); err != nil {
		return nil, err
	}

	s.logger.Info("Product restocked",
		zap.String("product_id", productID.String()),
		zap.Int64("quantity", req.Quantity))

	resp := toProductResponse(product)
	return &resp, nil
}

// Activate makes a product purchasable again
func (s *ProductService) Activate(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	return s.transition(ctx, productID, (*catalog.Product).Activate)
}

// Deactivate hides a product from sale without discontinuing it
func (s *ProductService) Deactivate(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	return s.transition(ctx, productID, (*catalog.Product).Deactivate)
}

// Discontinue permanently retires a product
func (s *ProductService) Discontinue(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	return s.transition(ctx, productID, (*catalog.Product).Discontinue)
}

// Delete removes a product from the catalog
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return err
	}

	if err := s.productRepo.Delete(ctx, productID); err != nil {
		return err
	}

	s.logger.Info("Product deleted", zap.String("product_id", productID.String()))
	return nil
}

// AttachImage appends an object storage key to the product's images
func (s *ProductService) AttachImage(ctx context.Context, productID uuid.UUID, key string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := product.AddImage(key); err != nil {
		return nil, err
	}

	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	resp := toProductResponse(product)
	return &resp, nil
}

// DetachImage removes an object storage key from the product's images
func (s *ProductService) DetachImage(ctx context.Context, productID uuid.UUID, key string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := product.RemoveImage(key); err != nil {
		return nil, err
	}

	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) transition(ctx context.Context, productID uuid.UUID, change func(*catalog.Product) error) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	if err := change(product); err != nil {
		return nil, err
	}

	if err := s.productRepo.SaveWithLock(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product status changed",
		zap.String("product_id", productID.String()),
		zap.String("status", string(product.Status)))

	resp := toProductResponse(product)
	return &resp, nil
}

func (s *ProductService) toSharedFilter(filter ProductListFilter) shared.Filter {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}
	f.Search = filter.Search
	if filter.Status != "" {
		f.Filters["status"] = filter.Status
	}
	if filter.Brand != "" {
		f.Filters["brand"] = filter.Brand
	}
	if filter.CategoryID != nil {
		f.Filters["category_id"] = *filter.CategoryID
	}
	if filter.MinPrice != "" {
		f.Filters["min_price"] = filter.MinPrice
	}
	if filter.MaxPrice != "" {
		f.Filters["max_price"] = filter.MaxPrice
	}
	if filter.InStock {
		f.Filters["in_stock"] = true
	}
	return f
}
