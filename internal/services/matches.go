package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/metrics"
	"github.com/example/bagswap/internal/models"
	"github.com/example/bagswap/internal/store"
)

// MatchStore is the persistence needed by the match lifecycle.
type MatchStore interface {
	store.UserStore
	store.ListingStore
	store.MatchStore
	store.DisputeStore
}

// DisputeNotifier tells admins about disputes.
type DisputeNotifier interface {
	NotifyDisputeOpened(d DisputeNotification) error
	NotifyDisputeResolved(d DisputeNotification) error
}

// Confirmation types accepted by Confirm.
const (
	ConfirmBoth   = "both"
	ConfirmSeller = "seller"
	ConfirmBuyer  = "buyer"
)

// MatchService drives the match lifecycle state machine.
type MatchService struct {
	store    MatchStore
	fraud    *FraudService
	escrow   Escrow
	notifier DisputeNotifier
	appLog   *AppLog
	log      logger.Logger
	metrics  *metrics.Metrics
	currency string
	now      func() time.Time
}

// NewMatchService creates a MatchService.
func NewMatchService(st MatchStore, fraud *FraudService, escrow Escrow, notifier DisputeNotifier, appLog *AppLog, log logger.Logger, m *metrics.Metrics, currency string) *MatchService {
	if escrow == nil {
		escrow = DisabledEscrow{}
	}
	return &MatchService{
		store:    st,
		fraud:    fraud,
		escrow:   escrow,
		notifier: notifier,
		appLog:   appLog,
		log:      log,
		metrics:  m,
		currency: currency,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (s *MatchService) WithClock(now func() time.Time) *MatchService {
	s.now = now
	return s
}

// CreateMatchInput is a buyer's booking request.
type CreateMatchInput struct {
	ListingID  uuid.UUID
	BuyerID    uuid.UUID
	QuantityKg int
}

// CreateMatchResult carries the new match and the payment client secret, if any.
type CreateMatchResult struct {
	Match               *MatchView
	PaymentClientSecret string
	FraudCheck          FraudCheckResult
	AutoAccepted        bool
}

// Create opens a PENDING match after the fraud, listing, self-booking and capacity guards.
func (s *MatchService) Create(ctx context.Context, in CreateMatchInput) (*CreateMatchResult, error) {
	if in.ListingID == uuid.Nil || in.BuyerID == uuid.Nil || in.QuantityKg == 0 {
		return nil, validationError("Missing required fields: listingId, quantityKg, userId")
	}
	if in.QuantityKg < 0 {
		return nil, validationError("quantityKg must be positive")
	}

	buyer, err := s.store.GetUser(ctx, in.BuyerID)
	if err != nil {
		return nil, storeError("User", err)
	}
	if buyer.Suspended {
		return nil, forbiddenError("Account is suspended")
	}

	check := s.fraud.PerformFraudCheck(ctx, buyer, IntentBuy)
	if !check.Allowed {
		return nil, &Error{
			Kind:    KindForbidden,
			Message: "Match creation not allowed",
			Data: map[string]any{
				"reason":               "FRAUD_CHECK_FAILED",
				"flags":                check.Flags,
				"requiresManualReview": check.RequiresManualReview,
			},
		}
	}

	listing, err := s.store.GetListing(ctx, in.ListingID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !listing.Active) {
		return nil, notFoundError("Listing not found or inactive")
	}
	if err != nil {
		return nil, upstreamError("failed to load listing", err)
	}
	if listing.SellerID == buyer.ID {
		return nil, validationError("Cannot book your own listing")
	}
	if in.QuantityKg > listing.WeightKg {
		return nil, validationError("Requested weight exceeds available capacity")
	}

	match := &models.Match{
		BaseModel:   models.BaseModel{ID: uuid.New()},
		ListingID:   listing.ID,
		BuyerID:     buyer.ID,
		QuantityKg:  in.QuantityKg,
		TotalAmount: listing.PricePerKg * int64(in.QuantityKg),
		Status:      models.MatchPending,
		FraudFlags:  check.Flags,
	}

	result := &CreateMatchResult{FraudCheck: check}
	if s.escrow.Enabled() {
		hold, err := s.escrow.Hold(ctx, match.TotalAmount, HoldMetadata{
			MatchID:  match.ID,
			BuyerID:  buyer.ID,
			SellerID: listing.SellerID,
		})
		if err != nil {
			s.appLog.Error(ctx, "payment hold failed", map[string]any{"match_id": match.ID, "error": err.Error()})
			return nil, upstreamError("Failed to create payment hold", err)
		}
		match.PaymentIntentID = hold.ID
		result.PaymentClientSecret = hold.ClientSecret
	}

	if err := s.store.CreateMatch(ctx, match); err != nil {
		if match.PaymentIntentID != "" {
			if cancelErr := s.escrow.Cancel(ctx, match.PaymentIntentID); cancelErr != nil {
				s.log.Error("cancel orphaned payment hold failed", "payment_intent", match.PaymentIntentID, "error", cancelErr)
			}
		}
		return nil, upstreamError("Failed to create match", err)
	}
	s.metrics.Transition("NONE", string(models.MatchPending))

	created := match
	if listing.AutoAccept && listing.Seller != nil && CanAutoAccept(listing.Seller) && !check.RequiresManualReview {
		accepted, err := s.store.TransitionMatch(ctx, match.ID, s.acceptTransition())
		if err != nil {
			s.log.Warn("auto-accept failed, match left pending", "match_id", match.ID, "error", err)
		} else {
			s.metrics.Transition(string(models.MatchPending), string(models.MatchAccepted))
			created = accepted
			result.AutoAccepted = true
		}
	}

	if created.Listing == nil {
		if loaded, err := s.store.GetMatch(ctx, match.ID); err == nil {
			created = loaded
		} else {
			created.Listing = listing
			created.Buyer = buyer
		}
	}

	s.appLog.Info(ctx, "match created", map[string]any{
		"match_id":     match.ID,
		"listing_id":   listing.ID,
		"buyer_id":     buyer.ID,
		"total_amount": match.TotalAmount,
		"flags":        check.Flags,
	})

	result.Match = NewMatchView(created, buyer.ID)
	return result, nil
}

func (s *MatchService) acceptTransition() store.Transition {
	return store.Transition{
		From: []models.MatchStatus{models.MatchPending},
		To:   models.MatchAccepted,
		Apply: func(m *models.Match) {
			now := s.now()
			m.AcceptedAt = &now
			m.QRToken = GenerateQRToken()
		},
	}
}

// Contacts holds both parties' unredacted contact details.
type Contacts struct {
	Seller *ContactInfo `json:"seller"`
	Buyer  *ContactInfo `json:"buyer"`
}

// AcceptResult is returned once the seller accepts.
type AcceptResult struct {
	Match    *MatchView
	Contacts Contacts
}

// Accept moves a PENDING match to ACCEPTED. Only the listing's seller may accept.
func (s *MatchService) Accept(ctx context.Context, matchID, actorID uuid.UUID) (*AcceptResult, error) {
	match, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if match.SellerID() != actorID {
		return nil, forbiddenError("Only the seller can accept this match")
	}
	if match.Status != models.MatchPending {
		return nil, statusConflict(fmt.Sprintf("Match cannot be accepted. Current status: %s", match.Status), match.Status)
	}

	updated, err := s.transition(ctx, match, s.acceptTransition(), "accepted", "Failed to accept match")
	if err != nil {
		return nil, err
	}

	result := &AcceptResult{
		Match:    NewMatchView(updated, actorID),
		Contacts: Contacts{Buyer: FullContact(updated.Buyer)},
	}
	if updated.Listing != nil {
		result.Contacts.Seller = FullContact(updated.Listing.Seller)
	}
	return result, nil
}

// Cancel withdraws a PENDING match and releases its hold.
func (s *MatchService) Cancel(ctx context.Context, matchID, actorID uuid.UUID) (*MatchView, error) {
	match, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(actorID) {
		return nil, forbiddenError("Only match participants can cancel")
	}
	if match.Status != models.MatchPending {
		return nil, statusConflict(fmt.Sprintf("Match cannot be cancelled. Current status: %s", match.Status), match.Status)
	}

	if match.PaymentIntentID != "" {
		if err := s.escrow.Cancel(ctx, match.PaymentIntentID); err != nil {
			s.appLog.Error(ctx, "payment hold cancel failed", map[string]any{"match_id": match.ID, "error": err.Error()})
			return nil, upstreamError("Failed to cancel payment hold", err)
		}
	}

	updated, err := s.store.TransitionMatch(ctx, match.ID, store.Transition{
		From: []models.MatchStatus{models.MatchPending},
		To:   models.MatchCancelled,
	})
	if errors.Is(err, store.ErrStatusConflict) && match.PaymentIntentID != "" {
		current, loadErr := s.store.GetMatch(ctx, match.ID)
		if loadErr == nil && current.Status == models.MatchCancelled {
			// The processor's cancel event got there first.
			return NewMatchView(current, actorID), nil
		}
		// The hold is gone but the match moved on; park it for an admin.
		s.reconcile(ctx, match, actorID, "cancel_race", errors.New("match changed after payment hold was cancelled"))
		return nil, upstreamError("Match changed while cancelling. Marked for manual review.", err)
	}
	if err != nil {
		return nil, s.transitionError(ctx, match.ID, err, "Failed to cancel match")
	}
	s.metrics.Transition(string(models.MatchPending), string(models.MatchCancelled))

	return NewMatchView(updated, actorID), nil
}

// ConfirmInput is a participant's handover confirmation.
type ConfirmInput struct {
	MatchID          uuid.UUID
	ActorID          uuid.UUID
	ConfirmationType string
	QRCode           string
}

// PaymentSummary describes the settlement triggered by a confirmation.
type PaymentSummary struct {
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

// ConfirmResult is returned by Confirm.
type ConfirmResult struct {
	Match   *MatchView
	Payment PaymentSummary
	Message string
}

// Confirm records that the baggage handover happened. With escrow the match becomes
// CONFIRMED and the hold is captured, otherwise it is RELEASED directly. A failure after the
// status change moves the match to DISPUTED.
func (s *MatchService) Confirm(ctx context.Context, in ConfirmInput) (*ConfirmResult, error) {
	confirmationType := in.ConfirmationType
	if confirmationType == "" {
		confirmationType = ConfirmBoth
	}
	switch confirmationType {
	case ConfirmBoth, ConfirmSeller, ConfirmBuyer:
	default:
		return nil, validationError("confirmationType must be one of: both, seller, buyer")
	}

	match, err := s.load(ctx, in.MatchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(in.ActorID) {
		return nil, forbiddenError("Only match participants can confirm")
	}
	if match.Status != models.MatchAccepted {
		return nil, statusConflict(fmt.Sprintf("Match cannot be confirmed. Current status: %s", match.Status), match.Status)
	}
	if in.QRCode != "" && !s.qrMatches(match, in.QRCode) {
		return nil, validationError("Invalid or expired confirmation code")
	}

	holding := s.escrow.Enabled() && match.PaymentIntentID != ""
	target := models.MatchReleased
	if holding {
		target = models.MatchConfirmed
	}

	actor := in.ActorID
	updated, err := s.transition(ctx, match, store.Transition{
		From: []models.MatchStatus{models.MatchAccepted},
		To:   target,
		Apply: func(m *models.Match) {
			now := s.now()
			m.ConfirmedAt = &now
			m.ConfirmedBy = &actor
			m.ConfirmationType = confirmationType
		},
	}, "confirmed", "Failed to update match status")
	if err != nil {
		return nil, err
	}

	if err := s.settleConfirmation(ctx, updated, holding); err != nil {
		s.reconcile(ctx, updated, in.ActorID, "confirmation_failed", err)
		return nil, upstreamError("Match confirmation failed. Marked for manual review.", err)
	}

	result := &ConfirmResult{
		Match:   NewMatchView(updated, in.ActorID),
		Payment: PaymentSummary{Status: "confirmed", Amount: updated.TotalAmount},
		Message: "Match confirmed successfully. Payment will be handled at the airport.",
	}
	if holding {
		result.Payment.Status = "captured"
		result.Message = "Match confirmed successfully. Held funds have been captured."
	}
	return result, nil
}

// settleConfirmation captures the hold and then updates both parties' counters.
func (s *MatchService) settleConfirmation(ctx context.Context, match *models.Match, holding bool) error {
	if holding {
		if err := s.escrow.Capture(ctx, match.PaymentIntentID); err != nil {
			return fmt.Errorf("capture payment: %w", err)
		}
	}

	if _, err := s.store.UpdateUser(ctx, match.SellerID(), func(u *models.User) {
		u.MatchHistoryCount++
		u.TrustScore = TrustScore(u)
	}); err != nil {
		return fmt.Errorf("update seller metrics: %w", err)
	}

	if _, err := s.store.UpdateUser(ctx, match.BuyerID, func(u *models.User) {
		u.MatchHistoryCount++
		if u.PastFlightsCount == 0 {
			u.PastFlightsCount++
		}
		u.TrustScore = TrustScore(u)
	}); err != nil {
		return fmt.Errorf("update buyer metrics: %w", err)
	}
	return nil
}

func (s *MatchService) qrMatches(match *models.Match, code string) bool {
	data, ok := DecodeQR(code)
	if !ok || !data.Valid(s.now()) {
		return false
	}
	return data.MatchID == match.ID && match.QRToken != "" && data.Token == match.QRToken
}

// reconcile force-moves a match to DISPUTED and opens a system dispute for an admin.
func (s *MatchService) reconcile(ctx context.Context, match *models.Match, actorID uuid.UUID, reason string, cause error) {
	err := s.store.ForceMatchStatus(ctx, match.ID, models.MatchDisputed)
	if errors.Is(err, store.ErrStatusConflict) {
		s.appLog.Error(ctx, "reconciliation skipped for settled match", map[string]any{
			"match_id": match.ID,
			"reason":   reason,
			"error":    cause.Error(),
		})
		return
	}
	if err != nil {
		s.log.Error("force match to disputed failed", "match_id", match.ID, "error", err)
	} else {
		s.metrics.Transition(string(match.Status), string(models.MatchDisputed))
	}

	dispute := &models.Dispute{
		MatchID:    match.ID,
		ReporterID: actorID,
		Reason:     reason,
		Details:    cause.Error(),
		Status:     models.DisputePending,
	}
	if err := s.store.CreateDispute(ctx, dispute); err != nil && !errors.Is(err, store.ErrDuplicate) {
		s.log.Error("create reconciliation dispute failed", "match_id", match.ID, "error", err)
	}

	s.appLog.Error(ctx, "match moved to DISPUTED for reconciliation", map[string]any{
		"match_id": match.ID,
		"reason":   reason,
		"error":    cause.Error(),
	})
}

// DisputeInput is a participant's dispute report.
type DisputeInput struct {
	MatchID uuid.UUID
	ActorID uuid.UUID
	Reason  string
	Details string
}

// DisputeResult is returned by Dispute.
type DisputeResult struct {
	Match     *MatchView
	Message   string
	DisputeID string
}

// Dispute moves an ACCEPTED or CONFIRMED match to DISPUTED. Held funds stay held.
func (s *MatchService) Dispute(ctx context.Context, in DisputeInput) (*DisputeResult, error) {
	if in.ActorID == uuid.Nil || in.Reason == "" {
		return nil, validationError("userId and reason required")
	}

	match, err := s.load(ctx, in.MatchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(in.ActorID) {
		return nil, forbiddenError("Only match participants can dispute")
	}
	if match.Status != models.MatchAccepted && match.Status != models.MatchConfirmed {
		return nil, statusConflict(fmt.Sprintf("Match cannot be disputed. Current status: %s", match.Status), match.Status)
	}

	updated, err := s.transition(ctx, match, store.Transition{
		From: []models.MatchStatus{models.MatchAccepted, models.MatchConfirmed},
		To:   models.MatchDisputed,
	}, "disputed", "Failed to update match status")
	if err != nil {
		return nil, err
	}

	disputeID := fmt.Sprintf("dispute_%s_%d", match.ID, s.now().UnixMilli())
	dispute := &models.Dispute{
		MatchID:    match.ID,
		ReporterID: in.ActorID,
		Reason:     in.Reason,
		Details:    in.Details,
		Status:     models.DisputePending,
	}
	if err := s.store.CreateDispute(ctx, dispute); err != nil {
		s.log.Error("create dispute record failed", "match_id", match.ID, "error", err)
	} else {
		disputeID = dispute.ID.String()
	}

	s.fraud.RecordFlag(ctx, in.ActorID, models.FlagDisputeReported, map[string]any{
		"match_id": match.ID,
		"reason":   in.Reason,
		"details":  in.Details,
	})

	if s.notifier != nil {
		notification := s.notification(updated, in.Reason, in.Details)
		go func() {
			if err := s.notifier.NotifyDisputeOpened(notification); err != nil {
				s.log.Warn("dispute notification failed", "match_id", notification.MatchID, "error", err)
			}
		}()
	}

	return &DisputeResult{
		Match:     NewMatchView(updated, in.ActorID),
		Message:   "Dispute reported successfully. Funds held for admin review.",
		DisputeID: disputeID,
	}, nil
}

func (s *MatchService) notification(m *models.Match, reason, details string) DisputeNotification {
	n := DisputeNotification{
		MatchID:  m.ID.String(),
		Reason:   reason,
		Details:  details,
		Amount:   m.TotalAmount,
		Currency: s.currency,
	}
	if m.Listing != nil && m.Listing.Flight != nil {
		n.FlightNo = m.Listing.Flight.FlightNo
		n.FlightDate = m.Listing.Flight.FlightDate.Format(models.FlightDateLayout)
	}
	return n
}

// Match roles accepted by List.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// List returns the user's matches, newest first. An empty role returns both sides.
func (s *MatchService) List(ctx context.Context, userID uuid.UUID, role string) ([]MatchView, error) {
	if userID == uuid.Nil {
		return nil, validationError("userId parameter required")
	}

	filter := store.MatchFilter{}
	switch role {
	case RoleBuyer:
		filter.BuyerID = &userID
	case RoleSeller:
		filter.SellerID = &userID
	case "":
		filter.ParticipantID = &userID
	default:
		return nil, validationError("type must be buyer or seller")
	}

	matches, err := s.store.ListMatches(ctx, filter)
	if err != nil {
		return nil, upstreamError("Failed to fetch matches", err)
	}

	views := make([]MatchView, 0, len(matches))
	for i := range matches {
		views = append(views, *NewMatchView(&matches[i], userID))
	}
	return views, nil
}

// Get returns a single match to one of its participants.
func (s *MatchService) Get(ctx context.Context, matchID, viewerID uuid.UUID) (*MatchView, error) {
	match, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(viewerID) {
		return nil, forbiddenError("Only match participants can view this match")
	}
	return NewMatchView(match, viewerID), nil
}

// QRResult is a handover confirmation code.
type QRResult struct {
	Code      string    `json:"code"`
	Data      QRData    `json:"data"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// QRCode issues a confirmation code for an ACCEPTED match.
func (s *MatchService) QRCode(ctx context.Context, matchID, viewerID uuid.UUID) (*QRResult, error) {
	match, err := s.load(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.IsParticipant(viewerID) {
		return nil, forbiddenError("Only match participants can view the confirmation code")
	}
	if match.Status != models.MatchAccepted || match.QRToken == "" {
		return nil, statusConflict(fmt.Sprintf("Confirmation code unavailable. Current status: %s", match.Status), match.Status)
	}

	now := s.now()
	data := QRData{MatchID: match.ID, Token: match.QRToken, Type: RoleBuyer, Timestamp: now.UnixMilli()}
	if viewerID == match.SellerID() {
		data.Type = RoleSeller
	}
	return &QRResult{Code: EncodeQR(data), Data: data, ExpiresAt: now.Add(QRMaxAge)}, nil
}

// PaymentOutcome is a processor-side status change of a hold.
type PaymentOutcome string

const (
	PaymentSucceeded PaymentOutcome = "succeeded"
	PaymentFailed    PaymentOutcome = "failed"
	PaymentCanceled  PaymentOutcome = "canceled"
)

// ApplyPaymentOutcome reconciles a match with a processor event. A captured hold
// releases a CONFIRMED match; a failed or canceled hold cancels a PENDING one.
// Events that do not apply to the match's current status are ignored.
func (s *MatchService) ApplyPaymentOutcome(ctx context.Context, intentID string, outcome PaymentOutcome) (*models.Match, error) {
	match, err := s.store.FindMatchByPaymentIntent(ctx, intentID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, upstreamError("failed to load match", err)
	}

	var t store.Transition
	switch outcome {
	case PaymentSucceeded:
		t = store.Transition{From: []models.MatchStatus{models.MatchConfirmed}, To: models.MatchReleased}
	case PaymentFailed, PaymentCanceled:
		t = store.Transition{From: []models.MatchStatus{models.MatchPending}, To: models.MatchCancelled}
	default:
		return match, nil
	}
	if !t.Allows(match.Status) {
		return match, nil
	}

	updated, err := s.store.TransitionMatch(ctx, match.ID, t)
	if errors.Is(err, store.ErrStatusConflict) {
		return match, nil
	}
	if err != nil {
		return nil, upstreamError("failed to update match status", err)
	}
	s.metrics.Transition(string(match.Status), string(t.To))
	s.appLog.Info(ctx, "match updated from payment event", map[string]any{
		"match_id":       match.ID,
		"payment_intent": intentID,
		"outcome":        string(outcome),
		"status":         string(t.To),
	})
	return updated, nil
}

func (s *MatchService) load(ctx context.Context, matchID uuid.UUID) (*models.Match, error) {
	if matchID == uuid.Nil {
		return nil, validationError("matchId is required")
	}
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, storeError("Match", err)
	}
	return match, nil
}

// transition applies t, reporting a lost race as a state conflict with the fresh status.
func (s *MatchService) transition(ctx context.Context, match *models.Match, t store.Transition, event, failure string) (*models.Match, error) {
	updated, err := s.store.TransitionMatch(ctx, match.ID, t)
	if err != nil {
		return nil, s.transitionError(ctx, match.ID, err, failure)
	}
	s.metrics.Transition(string(match.Status), string(t.To))
	s.log.Info("match "+event, "match_id", match.ID, "from", match.Status, "to", t.To)
	return updated, nil
}

func (s *MatchService) transitionError(ctx context.Context, matchID uuid.UUID, err error, failure string) error {
	if errors.Is(err, store.ErrStatusConflict) {
		current, loadErr := s.store.GetMatch(ctx, matchID)
		if loadErr != nil {
			return upstreamError(failure, err)
		}
		return statusConflict(fmt.Sprintf("Match status changed. Current status: %s", current.Status), current.Status)
	}
	return upstreamError(failure, err)
}

// MatchView is a match as presented to a particular viewer. Contact details of the
// other party are revealed once the seller has accepted.
type MatchView struct {
	models.Match
	Listing *ListingView `json:"listing,omitempty"`
	Buyer   *ContactInfo `json:"buyer,omitempty"`
}

// NewMatchView projects m for viewerID.
func NewMatchView(m *models.Match, viewerID uuid.UUID) *MatchView {
	return newMatchView(m, viewerID, false)
}

// NewAdminMatchView projects m with both parties unredacted.
func NewAdminMatchView(m *models.Match) *MatchView {
	return newMatchView(m, uuid.Nil, true)
}

func newMatchView(m *models.Match, viewerID uuid.UUID, revealAll bool) *MatchView {
	view := &MatchView{Match: *m}
	view.Match.Listing = nil
	view.Match.Buyer = nil

	reveal := revealAll || (m.IsParticipant(viewerID) && contactsRevealed(m.Status))
	if m.Listing != nil {
		listing := *m.Listing
		sellerViewer := viewerID
		if reveal {
			sellerViewer = m.Listing.SellerID
		}
		view.Listing = NewListingView(&listing, sellerViewer)
	}
	if m.Buyer != nil {
		if reveal || viewerID == m.BuyerID {
			view.Buyer = FullContact(m.Buyer)
		} else {
			view.Buyer = MaskContact(m.Buyer)
		}
	}
	return view
}

func contactsRevealed(status models.MatchStatus) bool {
	switch status {
	case models.MatchAccepted, models.MatchConfirmed, models.MatchReleased, models.MatchDisputed:
		return true
	}
	return false
}
