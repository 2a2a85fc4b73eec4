package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrEscrowDisabled is returned by DisabledEscrow when asked to move money.
var ErrEscrowDisabled = errors.New("escrow is disabled")

// HoldMetadata is attached to a hold for reconciliation on the processor side.
type HoldMetadata struct {
	MatchID  uuid.UUID
	BuyerID  uuid.UUID
	SellerID uuid.UUID
}

// Hold is an authorized but uncaptured payment.
type Hold struct {
	ID           string
	ClientSecret string
}

// Escrow wraps a payment processor's hold, capture and cancel primitives.
// Failures are returned as-is; callers decide how to reconcile.
type Escrow interface {
	// Enabled reports whether money moves through the processor. When false the
	// marketplace confirms transfers bilaterally.
	Enabled() bool
	Hold(ctx context.Context, amount int64, meta HoldMetadata) (*Hold, error)
	Capture(ctx context.Context, holdID string) error
	Cancel(ctx context.Context, holdID string) error
}

// DisabledEscrow is the bilateral strategy: no payment processor is involved.
type DisabledEscrow struct{}

func (DisabledEscrow) Enabled() bool { return false }

func (DisabledEscrow) Hold(ctx context.Context, amount int64, meta HoldMetadata) (*Hold, error) {
	return nil, ErrEscrowDisabled
}

// Capture is a no-op so reconciliation paths work without a processor.
func (DisabledEscrow) Capture(ctx context.Context, holdID string) error { return nil }

func (DisabledEscrow) Cancel(ctx context.Context, holdID string) error { return nil }
