package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/metrics"
	"github.com/example/bagswap/internal/models"
	"github.com/example/bagswap/internal/store"
)

// AdminStore is the persistence needed by the admin surface.
type AdminStore interface {
	store.UserStore
	store.ListingStore
	store.MatchStore
	store.DisputeStore
	store.FraudFlagStore
	store.StatsStore
}

// Dispute resolutions.
const (
	ResolutionRefund  = "refund"
	ResolutionRelease = "release"
	ResolutionPartial = "partial"
)

// DisputeService applies admin decisions to disputed matches.
type DisputeService struct {
	store    AdminStore
	escrow   Escrow
	notifier DisputeNotifier
	appLog   *AppLog
	log      logger.Logger
	metrics  *metrics.Metrics
	currency string
	now      func() time.Time
}

// NewDisputeService creates a DisputeService.
func NewDisputeService(st AdminStore, escrow Escrow, notifier DisputeNotifier, appLog *AppLog, log logger.Logger, m *metrics.Metrics, currency string) *DisputeService {
	if escrow == nil {
		escrow = DisabledEscrow{}
	}
	return &DisputeService{
		store:    st,
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
func (s *DisputeService) WithClock(now func() time.Time) *DisputeService {
	s.now = now
	return s
}

// DisputedMatch pairs a DISPUTED match with its dispute record, if one exists.
type DisputedMatch struct {
	*MatchView
	Dispute *models.Dispute `json:"dispute"`
}

// ListOpen returns every DISPUTED match, newest first.
func (s *DisputeService) ListOpen(ctx context.Context) ([]DisputedMatch, error) {
	matches, err := s.store.ListMatches(ctx, store.MatchFilter{Status: models.MatchDisputed})
	if err != nil {
		return nil, upstreamError("Failed to fetch disputes", err)
	}

	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ID)
	}
	disputes, err := s.store.ListDisputesByMatches(ctx, ids)
	if err != nil {
		return nil, upstreamError("Failed to fetch disputes", err)
	}
	byMatch := make(map[uuid.UUID]*models.Dispute, len(disputes))
	for i := range disputes {
		byMatch[disputes[i].MatchID] = &disputes[i]
	}

	out := make([]DisputedMatch, 0, len(matches))
	for i := range matches {
		out = append(out, DisputedMatch{
			MatchView: NewAdminMatchView(&matches[i]),
			Dispute:   byMatch[matches[i].ID],
		})
	}
	return out, nil
}

// ResolveInput is an admin decision.
type ResolveInput struct {
	MatchID    uuid.UUID
	Resolution string
	AdminNotes string
}

// ResolveResult reports the settlement applied.
type ResolveResult struct {
	Match         *MatchView
	Resolution    string
	PaymentAction string
	Message       string
}

// Resolve settles a DISPUTED match. Refund cancels the hold and ends in CANCELLED, release
// captures it and ends in RELEASED. Partial only records the notes; the split is settled
// outside the system and the match stays DISPUTED.
func (s *DisputeService) Resolve(ctx context.Context, in ResolveInput) (*ResolveResult, error) {
	if in.MatchID == uuid.Nil || in.Resolution == "" {
		return nil, validationError("matchId and resolution required")
	}

	var target models.MatchStatus
	switch in.Resolution {
	case ResolutionRefund:
		target = models.MatchCancelled
	case ResolutionRelease:
		target = models.MatchReleased
	case ResolutionPartial:
	default:
		return nil, validationError("Invalid resolution. Must be: refund, release, or partial")
	}

	match, err := s.store.GetMatch(ctx, in.MatchID)
	if err != nil {
		return nil, storeError("Match", err)
	}
	if match.Status != models.MatchDisputed {
		return nil, statusConflict(fmt.Sprintf("Match is not disputed. Current status: %s", match.Status), match.Status)
	}

	if in.Resolution == ResolutionPartial {
		if in.AdminNotes != "" {
			s.updateDispute(ctx, match, func(d *models.Dispute) {
				d.AdminNotes = in.AdminNotes
			})
		}
		s.appLog.Info(ctx, "partial dispute resolution recorded", map[string]any{"match_id": match.ID})
		return &ResolveResult{
			Match:         NewAdminMatchView(match),
			Resolution:    in.Resolution,
			PaymentAction: "none",
			Message:       "Partial resolution recorded. The split must be settled manually.",
		}, nil
	}

	paymentAction := "none"
	if match.PaymentIntentID != "" && s.escrow.Enabled() {
		var escrowErr error
		if in.Resolution == ResolutionRefund {
			escrowErr = s.escrow.Cancel(ctx, match.PaymentIntentID)
			paymentAction = "refunded"
		} else {
			escrowErr = s.escrow.Capture(ctx, match.PaymentIntentID)
			paymentAction = "released"
		}
		if escrowErr != nil {
			s.appLog.Error(ctx, "dispute settlement failed", map[string]any{
				"match_id":   match.ID,
				"resolution": in.Resolution,
				"error":      escrowErr.Error(),
			})
			return nil, upstreamError("Dispute resolution failed", escrowErr)
		}
	}

	updated, err := s.store.TransitionMatch(ctx, match.ID, store.Transition{
		From: []models.MatchStatus{models.MatchDisputed},
		To:   target,
	})
	if errors.Is(err, store.ErrStatusConflict) {
		return nil, statusConflict("Match status changed during resolution", match.Status)
	}
	if err != nil {
		return nil, upstreamError("Failed to update match status", err)
	}
	s.metrics.Transition(string(models.MatchDisputed), string(target))

	resolvedAt := s.now()
	s.updateDispute(ctx, match, func(d *models.Dispute) {
		d.Status = models.DisputeResolved
		d.Resolution = in.Resolution
		d.AdminNotes = in.AdminNotes
		d.ResolvedAt = &resolvedAt
	})

	s.appLog.Info(ctx, "dispute resolved", map[string]any{
		"match_id":       match.ID,
		"resolution":     in.Resolution,
		"payment_action": paymentAction,
	})

	if s.notifier != nil {
		n := DisputeNotification{
			MatchID:    match.ID.String(),
			Amount:     match.TotalAmount,
			Currency:   s.currency,
			Resolution: in.Resolution,
		}
		go func() {
			if err := s.notifier.NotifyDisputeResolved(n); err != nil {
				s.log.Warn("resolution notification failed", "match_id", n.MatchID, "error", err)
			}
		}()
	}

	return &ResolveResult{
		Match:         NewAdminMatchView(updated),
		Resolution:    in.Resolution,
		PaymentAction: paymentAction,
		Message:       fmt.Sprintf("Dispute resolved: %s.", in.Resolution),
	}, nil
}

// updateDispute mutates the match's dispute, creating one when the participant's report
// was never stored.
func (s *DisputeService) updateDispute(ctx context.Context, match *models.Match, fn func(*models.Dispute)) {
	dispute, err := s.store.GetDisputeByMatch(ctx, match.ID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		dispute = &models.Dispute{MatchID: match.ID, Reason: "admin_review", Status: models.DisputePending}
		fn(dispute)
		err = s.store.CreateDispute(ctx, dispute)
	case err == nil:
		fn(dispute)
		err = s.store.SaveDispute(ctx, dispute)
	}
	if err != nil {
		s.log.Error("update dispute record failed", "match_id", match.ID, "error", err)
		s.appLog.Error(ctx, "update dispute record failed", map[string]any{"match_id": match.ID, "error": err.Error()})
	}
}

// SuspendUser blocks a user from trading and withdraws their active listings.
func (s *DisputeService) SuspendUser(ctx context.Context, userID uuid.UUID, reason string) (*models.User, error) {
	if userID == uuid.Nil {
		return nil, validationError("userId is required")
	}
	user, err := s.store.UpdateUser(ctx, userID, func(u *models.User) {
		u.Suspended = true
		u.SuspendedReason = reason
	})
	if err != nil {
		return nil, storeError("User", err)
	}

	listings, err := s.store.ListListings(ctx, store.ListingFilter{SellerID: &userID, ActiveOnly: true})
	if err != nil {
		s.log.Warn("list listings of suspended user failed", "user_id", userID, "error", err)
	}
	for _, l := range listings {
		if err := s.store.SetListingActive(ctx, l.ID, false); err != nil {
			s.log.Warn("deactivate listing of suspended user failed", "listing_id", l.ID, "error", err)
		}
	}

	s.appLog.Info(ctx, "user suspended", map[string]any{"user_id": userID, "reason": reason, "listings": len(listings)})
	return user, nil
}

// FraudFlagView exposes a flag with its decoded details.
type FraudFlagView struct {
	models.FraudFlag
	Details json.RawMessage `json:"details,omitempty"`
}

// FraudFlagPage is a page of fraud flags.
type FraudFlagPage struct {
	Flags []FraudFlagView `json:"flags"`
	Total int64           `json:"total"`
}

// ListFraudFlags returns flags newest first, optionally for one user.
func (s *DisputeService) ListFraudFlags(ctx context.Context, userID *uuid.UUID, limit, offset int) (*FraudFlagPage, error) {
	flags, total, err := s.store.ListFraudFlags(ctx, userID, limit, offset)
	if err != nil {
		return nil, upstreamError("Failed to fetch fraud flags", err)
	}
	page := &FraudFlagPage{Flags: make([]FraudFlagView, 0, len(flags)), Total: total}
	for _, f := range flags {
		view := FraudFlagView{FraudFlag: f}
		if len(f.Details) > 0 && json.Valid(f.Details) {
			view.Details = json.RawMessage(f.Details)
		}
		page.Flags = append(page.Flags, view)
	}
	return page, nil
}

// Stats are the admin dashboard aggregates. TotalRevenue is in major units.
type Stats struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalMatches     int64   `json:"totalMatches"`
	ActiveListings   int64   `json:"activeListings"`
	DisputedMatches  int64   `json:"disputedMatches"`
	CompletedMatches int64   `json:"completedMatches"`
	TotalRevenue     float64 `json:"totalRevenue"`
	FraudFlags       int64   `json:"fraudFlags"`
}

// Stats aggregates marketplace counts. Revenue counts RELEASED matches only.
func (s *DisputeService) Stats(ctx context.Context) (*Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, upstreamError("Failed to compute stats", err)
	}
	return &Stats{
		TotalUsers:       st.TotalUsers,
		TotalMatches:     st.TotalMatches,
		ActiveListings:   st.ActiveListings,
		DisputedMatches:  st.DisputedMatches,
		CompletedMatches: st.CompletedMatches,
		TotalRevenue:     float64(st.RevenueCents) / 100,
		FraudFlags:       st.FraudFlags,
	}, nil
}
