// README: Payment service - creates intents for bookings and confirms them.
package payment

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"rideflow/internal/modules/booking"
	"rideflow/internal/types"
)

// Service stamps the payment block on bookings through a Provider.
type Service struct {
	bookings booking.Store
	provider Provider
	log      zerolog.Logger
}

func NewService(bookings booking.Store, provider Provider, log zerolog.Logger) *Service {
	return &Service{bookings: bookings, provider: provider, log: log}
}

// CreateIntent opens a provider intent for the booking's current fare total
// and records the reference on the booking. Only completed or running
// bookings have a settled enough fare to pay for.
func (s *Service) CreateIntent(ctx context.Context, bookingID types.ID) (Intent, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return Intent{}, err
	}
	if b.Status != booking.StatusRunning && b.Status != booking.StatusCompleted {
		return Intent{}, fmt.Errorf("booking %s not payable in status %s: %w", b.ID, b.Status, booking.ErrBadRequest)
	}
	if b.Payment.Status == "paid" {
		return Intent{}, fmt.Errorf("booking %s already paid: %w", b.ID, booking.ErrBadRequest)
	}

	amount := int64(math.Round(b.Fare.Total * 100))
	intent, err := s.provider.CreateIntent(ctx, amount, "inr")
	if err != nil {
		return Intent{}, fmt.Errorf("create payment intent: %w", err)
	}

	p := b.Payment
	p.ProviderRef = intent.Ref
	if err := s.bookings.SetPayment(ctx, b.ID, p); err != nil {
		return Intent{}, err
	}
	s.log.Info().Str("booking_id", string(b.ID)).Str("provider_ref", intent.Ref).Int64("amount", amount).Msg("payment intent created")
	return intent, nil
}

// Confirm checks the provider's view of the intent and, when it settled,
// marks the booking paid and appends a log line.
func (s *Service) Confirm(ctx context.Context, bookingID types.ID) (booking.Payment, error) {
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return booking.Payment{}, err
	}
	if b.Payment.ProviderRef == "" {
		return booking.Payment{}, fmt.Errorf("booking %s has no payment intent: %w", b.ID, booking.ErrBadRequest)
	}
	if b.Payment.Status == "paid" {
		return b.Payment, nil
	}

	status, err := s.provider.Verify(ctx, b.Payment.ProviderRef)
	if err != nil {
		return booking.Payment{}, fmt.Errorf("verify payment: %w", err)
	}
	if status != "paid" {
		return b.Payment, nil
	}

	p := b.Payment
	p.Status = "paid"
	if err := s.bookings.SetPayment(ctx, b.ID, p); err != nil {
		return booking.Payment{}, err
	}
	if err := s.bookings.AppendLog(ctx, b.ID, "Payment received"); err != nil {
		s.log.Warn().Err(err).Str("booking_id", string(b.ID)).Msg("append payment log failed")
	}
	s.log.Info().Str("booking_id", string(b.ID)).Msg("payment confirmed")
	return p, nil
}
