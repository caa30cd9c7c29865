// README: Stripe-backed payment provider.
package payment

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/paymentintent"
)

// StripeProvider drives real payment intents through Stripe.
type StripeProvider struct{}

// NewStripeProvider sets the package-level API key and returns the provider.
func NewStripeProvider(apiKey string) *StripeProvider {
	stripe.Key = apiKey
	return &StripeProvider{}
}

func (*StripeProvider) CreateIntent(ctx context.Context, amount int64, currency string) (Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	pi, err := paymentintent.New(params)
	if err != nil {
		return Intent{}, err
	}
	return Intent{Ref: pi.ID, ClientSecret: pi.ClientSecret, Amount: pi.Amount}, nil
}

func (*StripeProvider) Verify(ctx context.Context, providerRef string) (string, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := paymentintent.Get(providerRef, params)
	if err != nil {
		return "", err
	}
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		return "paid", nil
	}
	return string(pi.Status), nil
}
