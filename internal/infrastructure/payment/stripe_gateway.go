package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/paymentintent"
	"github.com/stripe/stripe-go/v81/webhook"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/shared/valueobject"
	"github.com/storefront/backend/internal/infrastructure/config"
)

// Webhook event types the checkout flow reacts to. Everything else is
// acknowledged and ignored.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
	EventPaymentCanceled  = "payment_intent.canceled"
)

var (
	// ErrMissingSecretKey indicates the gateway was constructed without an API key
	ErrMissingSecretKey = errors.New("stripe: secret key is required")

	// ErrMissingWebhookSecret indicates webhook verification cannot be performed
	ErrMissingWebhookSecret = errors.New("stripe: webhook secret is required")
)

// CreateIntentInput contains the order details needed to open a payment intent
type CreateIntentInput struct {
	OrderID       uuid.UUID
	OrderNumber   string
	Amount        valueobject.Money
	CustomerEmail string
	Metadata      map[string]string
}

// PaymentIntent is the gateway-neutral view of a processor payment intent
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
	Amount       int64 // minor units
	Currency     string
}

// WebhookEvent is a verified webhook notification from the processor
type WebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
}

// PaymentGateway abstracts the payment processor used during checkout
type PaymentGateway interface {
	CreateIntent(ctx context.Context, input CreateIntentInput) (*PaymentIntent, error)
	GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	CancelIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// StripeGateway implements PaymentGateway on the Stripe API
type StripeGateway struct {
	config config.StripeConfig
	logger *zap.Logger
}

// NewStripeGateway creates a Stripe-backed payment gateway and registers
// the API key with the Stripe client
func NewStripeGateway(cfg config.StripeConfig, logger *zap.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, ErrMissingSecretKey
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	stripe.Key = cfg.SecretKey

	return &StripeGateway{
		config: cfg,
		logger: logger,
	}, nil
}

// CreateIntent opens a payment intent for the given order amount.
// The order ID and number travel in intent metadata so webhook events
// can be correlated back to the order.
func (g *StripeGateway) CreateIntent(ctx context.Context, input CreateIntentInput) (*PaymentIntent, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("stripe: intent amount must be positive, got %s", input.Amount.String())
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(input.Amount.Cents()),
		Currency: stripe.String(strings.ToLower(string(input.Amount.Currency()))),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	if input.CustomerEmail != "" {
		params.ReceiptEmail = stripe.String(input.CustomerEmail)
	}

	params.Metadata = map[string]string{
		"order_id":     input.OrderID.String(),
		"order_number": input.OrderNumber,
	}
	for k, v := range input.Metadata {
		params.Metadata[k] = v
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		g.logger.Error("Failed to create payment intent",
			zap.String("order_id", input.OrderID.String()),
			zap.String("order_number", input.OrderNumber),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create payment intent: %w", err)
	}

	g.logger.Info("Created payment intent",
		zap.String("order_id", input.OrderID.String()),
		zap.String("intent_id", intent.ID),
		zap.Int64("amount", intent.Amount),
		zap.String("currency", string(intent.Currency)))

	return fromStripeIntent(intent), nil
}

// GetIntent retrieves the current state of a payment intent
func (g *StripeGateway) GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	if intentID == "" {
		return nil, fmt.Errorf("stripe: intent ID is required")
	}

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	intent, err := paymentintent.Get(intentID, params)
	if err != nil {
		g.logger.Error("Failed to get payment intent",
			zap.String("intent_id", intentID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to get payment intent: %w", err)
	}

	return fromStripeIntent(intent), nil
}

// CancelIntent cancels a payment intent that has not been captured yet
func (g *StripeGateway) CancelIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	if intentID == "" {
		return nil, fmt.Errorf("stripe: intent ID is required")
	}

	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx

	intent, err := paymentintent.Cancel(intentID, params)
	if err != nil {
		g.logger.Error("Failed to cancel payment intent",
			zap.String("intent_id", intentID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to cancel payment intent: %w", err)
	}

	g.logger.Info("Cancelled payment intent", zap.String("intent_id", intentID))

	return fromStripeIntent(intent), nil
}

// VerifyWebhook checks the webhook signature and extracts the payment
// intent reference for intent lifecycle events
func (g *StripeGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	if g.config.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}

	event, err := webhook.ConstructEvent(payload, signature, g.config.WebhookSecret)
	if err != nil {
		g.logger.Warn("Webhook signature verification failed", zap.Error(err))
		return nil, fmt.Errorf("stripe: webhook signature verification failed: %w", err)
	}

	result := &WebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	switch event.Type {
	case EventPaymentSucceeded, EventPaymentFailed, EventPaymentCanceled:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return nil, fmt.Errorf("stripe: failed to unmarshal payment intent from event %s: %w", event.ID, err)
		}
		result.PaymentIntentID = intent.ID
	default:
		g.logger.Debug("Ignoring webhook event type",
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)))
	}

	return result, nil
}

func fromStripeIntent(intent *stripe.PaymentIntent) *PaymentIntent {
	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
		Amount:       intent.Amount,
		Currency:     string(intent.Currency),
	}
}

var _ PaymentGateway = (*StripeGateway)(nil)
