package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// StubPaymentGateway is an in-memory PaymentGateway for development and
// tests. Intents succeed immediately and webhook payloads are accepted
// without signature verification.
type StubPaymentGateway struct {
	mu      sync.Mutex
	seq     int
	intents map[string]*PaymentIntent
}

// NewStubPaymentGateway creates an in-memory gateway
func NewStubPaymentGateway() *StubPaymentGateway {
	return &StubPaymentGateway{
		intents: make(map[string]*PaymentIntent),
	}
}

// CreateIntent records an intent with a deterministic identifier
func (s *StubPaymentGateway) CreateIntent(ctx context.Context, input CreateIntentInput) (*PaymentIntent, error) {
	if !input.Amount.IsPositive() {
		return nil, fmt.Errorf("stub gateway: intent amount must be positive")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	intent := &PaymentIntent{
		ID:           fmt.Sprintf("pi_stub_%06d", s.seq),
		ClientSecret: fmt.Sprintf("pi_stub_%06d_secret", s.seq),
		Status:       "requires_payment_method",
		Amount:       input.Amount.Cents(),
		Currency:     strings.ToLower(string(input.Amount.Currency())),
	}
	s.intents[intent.ID] = intent

	return intent, nil
}

// GetIntent returns a previously created intent
func (s *StubPaymentGateway) GetIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("stub gateway: no such intent: %s", intentID)
	}
	return intent, nil
}

// CancelIntent marks a previously created intent as canceled
func (s *StubPaymentGateway) CancelIntent(ctx context.Context, intentID string) (*PaymentIntent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	intent, ok := s.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("stub gateway: no such intent: %s", intentID)
	}
	intent.Status = "canceled"
	return intent, nil
}

// VerifyWebhook treats the signature as the event type and the payload
// as the intent ID, which lets tests drive the checkout flow end to end
func (s *StubPaymentGateway) VerifyWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	return &WebhookEvent{
		ID:              fmt.Sprintf("evt_stub_%s_%s", signature, payload),
		Type:            signature,
		PaymentIntentID: string(payload),
	}, nil
}

var _ PaymentGateway = (*StubPaymentGateway)(nil)
