package identity

import (
	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/shared"
)

// Aggregate type constant
const AggregateTypeCustomer = "Customer"

// Event type constants
const (
	EventTypeCustomerRegistered      = "CustomerRegistered"
	EventTypeCustomerPasswordChanged = "CustomerPasswordChanged"
	EventTypeCustomerStatusChanged   = "CustomerStatusChanged"
)

// CustomerRegisteredEvent is published when a new account is created
type CustomerRegisteredEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID    `json:"customer_id"`
	Email      string       `json:"email"`
	Role       CustomerRole `json:"role"`
}

// NewCustomerRegisteredEvent creates a new CustomerRegisteredEvent
func NewCustomerRegisteredEvent(customer *Customer) *CustomerRegisteredEvent {
	return &CustomerRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerRegistered, AggregateTypeCustomer, customer.ID),
		CustomerID:      customer.ID,
		Email:           customer.Email,
		Role:            customer.Role,
	}
}

// CustomerPasswordChangedEvent is published when a password changes
type CustomerPasswordChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewCustomerPasswordChangedEvent creates a new CustomerPasswordChangedEvent
func NewCustomerPasswordChangedEvent(customer *Customer) *CustomerPasswordChangedEvent {
	return &CustomerPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerPasswordChanged, AggregateTypeCustomer, customer.ID),
		CustomerID:      customer.ID,
	}
}

// CustomerStatusChangedEvent is published when an account's status changes
type CustomerStatusChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID      `json:"customer_id"`
	OldStatus  CustomerStatus `json:"old_status"`
	NewStatus  CustomerStatus `json:"new_status"`
}

// NewCustomerStatusChangedEvent creates a new CustomerStatusChangedEvent
func NewCustomerStatusChangedEvent(customer *Customer, oldStatus, newStatus CustomerStatus) *CustomerStatusChangedEvent {
	return &CustomerStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerStatusChanged, AggregateTypeCustomer, customer.ID),
		CustomerID:      customer.ID,
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
	}
}
