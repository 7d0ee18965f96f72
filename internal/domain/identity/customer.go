package identity

import (
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/storefront/backend/internal/domain/shared"
)

// CustomerStatus represents the status of a customer account
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusLocked   CustomerStatus = "locked"   // Locked due to failed attempts
	CustomerStatusDisabled CustomerStatus = "disabled" // Manually disabled
)

// CustomerRole represents the role of an account
type CustomerRole string

const (
	RoleCustomer CustomerRole = "customer"
	RoleAdmin    CustomerRole = "admin"
)

// Password cost for bcrypt
const bcryptCost = 12

// Customer represents a registered account in the store
// It is the aggregate root for account-related operations
type Customer struct {
	shared.BaseAggregateRoot
	Email          string         `gorm:"type:varchar(200);not null;uniqueIndex"`
	PasswordHash   string         `gorm:"type:varchar(100);not null"`
	FirstName      string         `gorm:"type:varchar(100);not null"`
	LastName       string         `gorm:"type:varchar(100);not null"`
	Role           CustomerRole   `gorm:"type:varchar(20);not null;default:'customer'"`
	Status         CustomerStatus `gorm:"type:varchar(20);not null;default:'active'"`
	LastLoginAt    *time.Time
	LastLoginIP    string `gorm:"type:varchar(45)"`
	FailedAttempts int    `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (Customer) TableName() string {
	return "customers"
}

// NewCustomer creates a new customer account
func NewCustomer(email, password, firstName, lastName string) (*Customer, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	if err := validateName(firstName, "First name"); err != nil {
		return nil, err
	}
	if err := validateName(lastName, "Last name"); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	customer := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Email:             email,
		PasswordHash:      passwordHash,
		FirstName:         strings.TrimSpace(firstName),
		LastName:          strings.TrimSpace(lastName),
		Role:              RoleCustomer,
		Status:            CustomerStatusActive,
	}

	customer.AddDomainEvent(NewCustomerRegisteredEvent(customer))

	return customer, nil
}

// NewAdmin creates a new account with the admin role
func NewAdmin(email, password, firstName, lastName string) (*Customer, error) {
	customer, err := NewCustomer(email, password, firstName, lastName)
	if err != nil {
		return nil, err
	}

	customer.Role = RoleAdmin
	return customer, nil
}

// UpdateProfile updates the customer's name
func (c *Customer) UpdateProfile(firstName, lastName string) error {
	if err := validateName(firstName, "First name"); err != nil {
		return err
	}
	if err := validateName(lastName, "Last name"); err != nil {
		return err
	}

	c.FirstName = strings.TrimSpace(firstName)
	c.LastName = strings.TrimSpace(lastName)
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// ChangePassword changes the customer's password after verifying the current one
func (c *Customer) ChangePassword(oldPassword, newPassword string) error {
	if !c.VerifyPassword(oldPassword) {
		return shared.NewDomainError("INVALID_PASSWORD", "Current password is incorrect")
	}

	return c.SetPassword(newPassword)
}

// SetPassword sets a new password without checking the old one (admin reset)
func (c *Customer) SetPassword(newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return shared.NewDomainError("PASSWORD_HASH_ERROR", "Failed to hash password")
	}

	c.PasswordHash = passwordHash
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerPasswordChangedEvent(c))

	return nil
}

// VerifyPassword verifies if the provided password matches
func (c *Customer) VerifyPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
	return err == nil
}

// Lock locks the account for the given duration
func (c *Customer) Lock(duration time.Duration) error {
	if c.Status == CustomerStatusDisabled {
		return shared.NewDomainError("ACCOUNT_DISABLED", "Cannot lock a disabled account")
	}

	until := time.Now().Add(duration)
	c.Status = CustomerStatusLocked
	c.LockedUntil = &until
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Unlock clears an account lock
func (c *Customer) Unlock() error {
	if c.Status != CustomerStatusLocked {
		return shared.NewDomainError("NOT_LOCKED", "Account is not locked")
	}

	c.Status = CustomerStatusActive
	c.FailedAttempts = 0
	c.LockedUntil = nil
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Disable disables the account
func (c *Customer) Disable() error {
	if c.Status == CustomerStatusDisabled {
		return shared.NewDomainError("ALREADY_DISABLED", "Account is already disabled")
	}

	oldStatus := c.Status
	c.Status = CustomerStatusDisabled
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, oldStatus, CustomerStatusDisabled))

	return nil
}

// Enable re-enables a disabled account
func (c *Customer) Enable() error {
	if c.Status != CustomerStatusDisabled {
		return shared.NewDomainError("NOT_DISABLED", "Account is not disabled")
	}

	c.Status = CustomerStatusActive
	c.FailedAttempts = 0
	c.LockedUntil = nil
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	c.AddDomainEvent(NewCustomerStatusChangedEvent(c, CustomerStatusDisabled, CustomerStatusActive))

	return nil
}

// RecordLoginSuccess records a successful login
func (c *Customer) RecordLoginSuccess(ip string) {
	now := time.Now()
	c.LastLoginAt = &now
	c.LastLoginIP = ip
	c.FailedAttempts = 0
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// RecordLoginFailure records a failed login attempt
// Returns true if the account was locked as a result
func (c *Customer) RecordLoginFailure(maxAttempts int, lockDuration time.Duration) bool {
	c.FailedAttempts++
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	if c.FailedAttempts >= maxAttempts {
		_ = c.Lock(lockDuration)
		return true
	}

	return false
}

// IsAdmin returns true if the account has the admin role
func (c *Customer) IsAdmin() bool {
	return c.Role == RoleAdmin
}

// IsLocked returns true if the account is locked and the lock has not expired
func (c *Customer) IsLocked() bool {
	if c.Status != CustomerStatusLocked {
		return false
	}
	if c.LockedUntil != nil && time.Now().After(*c.LockedUntil) {
		return false
	}
	return true
}

// IsDisabled returns true if the account is disabled
func (c *Customer) IsDisabled() bool {
	return c.Status == CustomerStatusDisabled
}

// CanLogin returns true if the account can log in
func (c *Customer) CanLogin() bool {
	if c.Status == CustomerStatusDisabled {
		return false
	}
	if c.IsLocked() {
		return false
	}
	return true
}

// FullName returns the customer's full name
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

// Validation functions

func validateEmail(email string) error {
	if email == "" {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot be empty")
	}
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters")
	}

	emailRegex := regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	if !emailRegex.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format")
	}

	return nil
}

func validatePassword(password string) error {
	if password == "" {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot be empty")
	}
	if len(password) < 8 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must be at least 8 characters")
	}
	if len(password) > 128 {
		return shared.NewDomainError("INVALID_PASSWORD", "Password cannot exceed 128 characters")
	}

	hasLetter := regexp.MustCompile(`[a-zA-Z]`).MatchString(password)
	hasNumber := regexp.MustCompile(`[0-9]`).MatchString(password)
	if !hasLetter || !hasNumber {
		return shared.NewDomainError("INVALID_PASSWORD", "Password must contain at least one letter and one number")
	}

	return nil
}

func validateName(name, field string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", field+" cannot be empty")
	}
	if len(name) > 100 {
		return shared.NewDomainError("INVALID_NAME", field+" cannot exceed 100 characters")
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
