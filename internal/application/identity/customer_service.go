package identity

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
)

// CustomerService handles administrative account operations
type CustomerService struct {
	customerRepo identity.CustomerRepository
	logger       *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo identity.CustomerRepository, logger *zap.Logger) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		logger:       logger,
	}
}

// ListCustomers returns a page of accounts matching the filter
func (s *CustomerService) ListCustomers(ctx context.Context, input ListCustomersInput) (*shared.Paginated[CustomerInfo], error) {
	filter := shared.DefaultFilter()
	if input.Page > 0 {
		filter.Page = input.Page
	}
	if input.PageSize > 0 {
		filter.PageSize = input.PageSize
	}
	if input.OrderBy != "" {
		filter.OrderBy = input.OrderBy
	}
	if input.OrderDir != "" {
		filter.OrderDir = input.OrderDir
	}
	filter.Search = input.Search
	if input.Status != "" {
		filter.Filters["status"] = input.Status
	}
	if input.Role != "" {
		filter.Filters["role"] = input.Role
	}

	customers, err := s.customerRepo.FindAll(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to list accounts", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list accounts")
	}

	total, err := s.customerRepo.Count(ctx, filter)
	if err != nil {
		s.logger.Error("Failed to count accounts", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list accounts")
	}

	infos := make([]CustomerInfo, len(customers))
	for i := range customers {
		infos[i] = toCustomerInfo(&customers[i])
	}

	result := shared.NewPaginated(infos, total, filter.Page, filter.PageSize)
	return &result, nil
}

// GetCustomer returns a single account by ID
func (s *CustomerService) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerInfo, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	info := toCustomerInfo(customer)
	return &info, nil
}

// DisableCustomer blocks an account from logging in
func (s *CustomerService) DisableCustomer(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := customer.Disable(); err != nil {
		return err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to disable account",
			zap.String("customer_id", id.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to disable account")
	}

	s.logger.Info("Account disabled", zap.String("customer_id", id.String()))
	return nil
}

// EnableCustomer re-activates a disabled account
func (s *CustomerService) EnableCustomer(ctx context.Context, id uuid.UUID) error {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := customer.Enable(); err != nil {
		return err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to enable account",
			zap.String("customer_id", id.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to enable account")
	}

	s.logger.Info("Account enabled", zap.String("customer_id", id.String()))
	return nil
}

func parseCustomerID(raw string) (uuid.UUID, error) {
	return uuid.Parse(raw)
}
