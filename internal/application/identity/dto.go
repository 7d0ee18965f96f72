package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/storefront/backend/internal/domain/identity"
)

// RegisterInput contains the input for account registration
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// LoginInput contains the input for login
type LoginInput struct {
	Email    string
	Password string
	IP       string // Client IP for login tracking
}

// AuthResult contains the tokens issued after register/login
type AuthResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
	Customer              CustomerInfo
}

// CustomerInfo contains account information returned to clients
type CustomerInfo struct {
	ID          uuid.UUID
	Email       string
	FirstName   string
	LastName    string
	Role        string
	Status      string
	LastLoginAt *time.Time
	CreatedAt   time.Time
}

// RefreshInput contains the input for token refresh
type RefreshInput struct {
	RefreshToken string
}

// RefreshResult contains the new token pair
type RefreshResult struct {
	AccessToken           string
	RefreshToken          string
	AccessTokenExpiresAt  time.Time
	RefreshTokenExpiresAt time.Time
	TokenType             string
}

// LogoutInput contains the input for logout
type LogoutInput struct {
	CustomerID uuid.UUID
	TokenJTI   string
	TokenTTL   time.Duration // Remaining lifetime of the presented token
}

// ChangePasswordInput contains the input for a password change
type ChangePasswordInput struct {
	CustomerID  uuid.UUID
	OldPassword string
	NewPassword string
}

// ListCustomersInput contains filters for the admin customer listing
type ListCustomersInput struct {
	Page     int
	PageSize int
	OrderBy  string
	OrderDir string
	Search   string
	Status   string
	Role     string
}

func toCustomerInfo(c *identity.Customer) CustomerInfo {
	return CustomerInfo{
		ID:          c.ID,
		Email:       c.Email,
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Role:        string(c.Role),
		Status:      string(c.Status),
		LastLoginAt: c.LastLoginAt,
		CreatedAt:   c.CreatedAt,
	}
}
