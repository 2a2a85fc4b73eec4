package services

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/metrics"
)

// StripeEscrow holds buyer funds on a manual-capture PaymentIntent.
type StripeEscrow struct {
	api      *client.API
	currency string
	log      logger.Logger
	metrics  *metrics.Metrics
}

// NewStripeEscrow creates an escrow backed by the Stripe API.
func NewStripeEscrow(secretKey, currency string, log logger.Logger, m *metrics.Metrics) *StripeEscrow {
	api := &client.API{}
	api.Init(secretKey, nil)
	return NewStripeEscrowWithClient(api, currency, log, m)
}

// NewStripeEscrowWithClient uses a preconfigured client, for custom backends.
func NewStripeEscrowWithClient(api *client.API, currency string, log logger.Logger, m *metrics.Metrics) *StripeEscrow {
	return &StripeEscrow{api: api, currency: currency, log: log, metrics: m}
}

func (s *StripeEscrow) Enabled() bool { return true }

// Hold authorizes amount (minor units) without capturing it.
func (s *StripeEscrow) Hold(ctx context.Context, amount int64, meta HoldMetadata) (*Hold, error) {
	params := &stripe.PaymentIntentParams{
		Amount:        stripe.Int64(amount),
		Currency:      stripe.String(s.currency),
		CaptureMethod: stripe.String(string(stripe.PaymentIntentCaptureMethodManual)),
	}
	params.Context = ctx
	params.AddMetadata("match_id", meta.MatchID.String())
	params.AddMetadata("buyer_id", meta.BuyerID.String())
	params.AddMetadata("seller_id", meta.SellerID.String())

	pi, err := s.api.PaymentIntents.New(params)
	s.metrics.Escrow("hold", err)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	s.log.Info("payment hold created", "payment_intent", pi.ID, "match_id", meta.MatchID, "amount", amount)
	return &Hold{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}

// Capture transfers held funds. Capturing an intent that already succeeded is a no-op.
func (s *StripeEscrow) Capture(ctx context.Context, holdID string) error {
	pi, err := s.get(ctx, holdID)
	if err != nil {
		s.metrics.Escrow("capture", err)
		return err
	}
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		return nil
	}

	params := &stripe.PaymentIntentCaptureParams{}
	params.Context = ctx
	_, err = s.api.PaymentIntents.Capture(holdID, params)
	s.metrics.Escrow("capture", err)
	if err != nil {
		return fmt.Errorf("capture payment intent %s: %w", holdID, err)
	}
	return nil
}

// Cancel releases the hold. A captured intent is refunded instead.
func (s *StripeEscrow) Cancel(ctx context.Context, holdID string) error {
	pi, err := s.get(ctx, holdID)
	if err != nil {
		s.metrics.Escrow("cancel", err)
		return err
	}

	switch pi.Status {
	case stripe.PaymentIntentStatusCanceled:
		return nil
	case stripe.PaymentIntentStatusSucceeded:
		params := &stripe.RefundParams{PaymentIntent: stripe.String(holdID)}
		params.Context = ctx
		_, err = s.api.Refunds.New(params)
		s.metrics.Escrow("refund", err)
		if err != nil {
			return fmt.Errorf("refund payment intent %s: %w", holdID, err)
		}
		return nil
	}

	params := &stripe.PaymentIntentCancelParams{}
	params.Context = ctx
	_, err = s.api.PaymentIntents.Cancel(holdID, params)
	s.metrics.Escrow("cancel", err)
	if err != nil {
		return fmt.Errorf("cancel payment intent %s: %w", holdID, err)
	}
	return nil
}

func (s *StripeEscrow) get(ctx context.Context, holdID string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	pi, err := s.api.PaymentIntents.Get(holdID, params)
	if err != nil {
		return nil, fmt.Errorf("get payment intent %s: %w", holdID, err)
	}
	return pi, nil
}
