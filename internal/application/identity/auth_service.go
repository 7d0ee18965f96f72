package identity

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/identity"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/auth"
)

// AuthServiceConfig contains account security settings
type AuthServiceConfig struct {
	MaxLoginAttempts int           // Failed attempts before the account locks
	LockDuration     time.Duration // How long a locked account stays locked
}

// DefaultAuthServiceConfig returns default configuration
func DefaultAuthServiceConfig() AuthServiceConfig {
	return AuthServiceConfig{
		MaxLoginAttempts: 5,
		LockDuration:     15 * time.Minute,
	}
}

// AuthService handles registration and authentication
type AuthService struct {
	customerRepo identity.CustomerRepository
	jwtService   *auth.JWTService
	blacklist    auth.TokenBlacklist
	config       AuthServiceConfig
	logger       *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	customerRepo identity.CustomerRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		customerRepo: customerRepo,
		jwtService:   jwtService,
		blacklist:    blacklist,
		config:       config,
		logger:       logger,
	}
}

// Register creates a new customer account and issues a token pair
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	customer, err := identity.NewCustomer(input.Email, input.Password, input.FirstName, input.LastName)
	if err != nil {
		return nil, err
	}

	exists, err := s.customerRepo.ExistsByEmail(ctx, customer.Email)
	if err != nil {
		s.logger.Error("Failed to check email uniqueness", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to register account")
	}
	if exists {
		return nil, shared.NewDomainError("EMAIL_ALREADY_REGISTERED", "An account with this email already exists")
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to save new account", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to register account")
	}

	s.logger.Info("Account registered",
		zap.String("customer_id", customer.ID.String()),
		zap.String("email", customer.Email))

	return s.issueTokens(customer)
}

// Login authenticates a customer and returns a token pair
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	customer, err := s.customerRepo.FindByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Warn("Login attempt for unknown email", zap.String("email", input.Email))
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	if !customer.CanLogin() {
		if customer.IsLocked() {
			s.logger.Warn("Login attempt for locked account",
				zap.String("customer_id", customer.ID.String()))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Account is locked. Try again later")
		}
		return nil, shared.NewDomainError("ACCOUNT_DISABLED", "Account has been disabled")
	}

	if !customer.VerifyPassword(input.Password) {
		locked := customer.RecordLoginFailure(s.config.MaxLoginAttempts, s.config.LockDuration)
		if err := s.customerRepo.Save(ctx, customer); err != nil {
			s.logger.Error("Failed to record login failure", zap.Error(err))
		}

		if locked {
			s.logger.Warn("Account locked after repeated failures",
				zap.String("customer_id", customer.ID.String()),
				zap.Int("attempts", s.config.MaxLoginAttempts))
			return nil, shared.NewDomainError("ACCOUNT_LOCKED", "Too many failed login attempts. Account has been locked")
		}
		return nil, shared.NewDomainError("INVALID_CREDENTIALS", "Invalid email or password")
	}

	customer.RecordLoginSuccess(input.IP)
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		// The login itself succeeded; losing the audit fields is tolerable
		s.logger.Error("Failed to record login success", zap.Error(err))
	}

	s.logger.Info("Customer logged in",
		zap.String("customer_id", customer.ID.String()))

	return s.issueTokens(customer)
}

// Refresh validates a refresh token and issues a new token pair.
// Email and role are re-read from the account so stale claims never
// outlive an account change.
func (s *AuthService) Refresh(ctx context.Context, input RefreshInput) (*RefreshResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(input.RefreshToken)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token is invalid or expired")
	}

	if err := s.checkBlacklist(ctx, claims); err != nil {
		return nil, err
	}

	customerID, err := claims.GetCustomerUUID()
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token is invalid or expired")
	}

	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_TOKEN", "Account no longer exists")
	}
	if !customer.CanLogin() {
		return nil, shared.NewDomainError("ACCOUNT_DISABLED", "Account is not active")
	}

	pair, err := s.jwtService.RefreshTokenPair(input.RefreshToken, customer.Email, string(customer.Role))
	if err != nil {
		s.logger.Warn("Token refresh rejected",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INVALID_TOKEN", "Refresh token is invalid or expired")
	}

	return &RefreshResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}, nil
}

// Logout blacklists the presented token for the rest of its lifetime
func (s *AuthService) Logout(ctx context.Context, input LogoutInput) error {
	if input.TokenJTI == "" || input.TokenTTL <= 0 {
		return nil
	}

	if err := s.blacklist.AddToBlacklist(ctx, input.TokenJTI, input.TokenTTL); err != nil {
		s.logger.Error("Failed to blacklist token",
			zap.String("customer_id", input.CustomerID.String()),
			zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to log out")
	}

	s.logger.Info("Customer logged out",
		zap.String("customer_id", input.CustomerID.String()))
	return nil
}

// ChangePassword verifies the old password, stores the new hash, and
// invalidates every session issued before the change
func (s *AuthService) ChangePassword(ctx context.Context, input ChangePasswordInput) error {
	customer, err := s.customerRepo.FindByID(ctx, input.CustomerID)
	if err != nil {
		return shared.ErrNotFound
	}

	if err := customer.ChangePassword(input.OldPassword, input.NewPassword); err != nil {
		return err
	}

	if err := s.customerRepo.Save(ctx, customer); err != nil {
		s.logger.Error("Failed to save password change", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to change password")
	}

	ttl := s.jwtService.GetRefreshTokenExpiration()
	if err := s.blacklist.AddCustomerTokensToBlacklist(ctx, customer.ID.String(), ttl); err != nil {
		s.logger.Error("Failed to invalidate existing sessions",
			zap.String("customer_id", customer.ID.String()),
			zap.Error(err))
	}

	s.logger.Info("Password changed",
		zap.String("customer_id", customer.ID.String()))
	return nil
}

// CurrentCustomer returns the account for an authenticated customer ID
func (s *AuthService) CurrentCustomer(ctx context.Context, customerID string) (*CustomerInfo, error) {
	id, err := parseCustomerID(customerID)
	if err != nil {
		return nil, shared.ErrUnauthorized
	}

	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	info := toCustomerInfo(customer)
	return &info, nil
}

// VerifyAccessClaims checks an access token's claims against the
// blacklist. The JWT middleware calls this on every request.
func (s *AuthService) VerifyAccessClaims(ctx context.Context, claims *auth.Claims) error {
	return s.checkBlacklist(ctx, claims)
}

func (s *AuthService) checkBlacklist(ctx context.Context, claims *auth.Claims) error {
	if claims.ID != "" {
		blacklisted, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			s.logger.Error("Blacklist lookup failed", zap.Error(err))
			return shared.NewDomainError("INTERNAL_ERROR", "Failed to validate token")
		}
		if blacklisted {
			return shared.NewDomainError("INVALID_TOKEN", "Token has been revoked")
		}
	}

	invalidated, err := s.blacklist.IsCustomerTokenInvalidated(ctx, claims.CustomerID, claims.GetIssuedAtTime())
	if err != nil {
		s.logger.Error("Blacklist lookup failed", zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to validate token")
	}
	if invalidated {
		return shared.NewDomainError("INVALID_TOKEN", "Token has been revoked")
	}

	return nil
}

func (s *AuthService) issueTokens(customer *identity.Customer) (*AuthResult, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		CustomerID: customer.ID,
		Email:      customer.Email,
		Role:       string(customer.Role),
	})
	if err != nil {
		s.logger.Error("Failed to generate token pair", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}

	return &AuthResult{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
		Customer:              toCustomerInfo(customer),
	}, nil
}
