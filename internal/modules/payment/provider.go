// README: Payment provider contract and the dev/test mock.
package payment

import (
	"context"
	"fmt"
	"time"
)

// Intent is a provider-side payment authorization for a booking's fare.
type Intent struct {
	Ref          string `json:"providerRef"`
	ClientSecret string `json:"clientSecret"`
	Amount       int64  `json:"amount"` // minor units (paise)
}

// Provider abstracts the payment gateway. Amounts are minor units.
type Provider interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error)
	Verify(ctx context.Context, providerRef string) (string, error)
}

// MockProvider accepts everything; the default outside production.
type MockProvider struct{}

func NewMockProvider() *MockProvider { return &MockProvider{} }

func (*MockProvider) CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error) {
	ref := fmt.Sprintf("mock_intent_%d", time.Now().UnixNano())
	return Intent{Ref: ref, ClientSecret: "mock_client_secret_" + ref, Amount: amount}, nil
}

func (*MockProvider) Verify(ctx context.Context, providerRef string) (string, error) {
	return "paid", nil
}
