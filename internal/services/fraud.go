package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/example/bagswap/internal/logger"
	"github.com/example/bagswap/internal/metrics"
	"github.com/example/bagswap/internal/models"
	"github.com/example/bagswap/internal/store"
)

// Intent is the side of the marketplace a fraud check is run for.
type Intent string

const (
	IntentBuy  Intent = "buy"
	IntentSell Intent = "sell"
)

// Verdict flags reported by PerformFraudCheck.
const (
	CheckInsufficientFlightHistory = "INSUFFICIENT_FLIGHT_HISTORY"
	CheckRapidRequests             = models.FlagRapidRequests
	CheckNewUser                   = "NEW_USER"
)

// FraudPolicy holds the thresholds of the fraud heuristic.
type FraudPolicy struct {
	RapidWindow    time.Duration
	RapidThreshold int64
	NewUserAge     time.Duration
	// OverrideScore lets a trusted user through a manual-review verdict.
	OverrideScore int
}

// DefaultFraudPolicy returns the production thresholds.
func DefaultFraudPolicy() FraudPolicy {
	return FraudPolicy{
		RapidWindow:    24 * time.Hour,
		RapidThreshold: 3,
		NewUserAge:     7 * 24 * time.Hour,
		OverrideScore:  30,
	}
}

// FraudCheckResult is the verdict of PerformFraudCheck.
type FraudCheckResult struct {
	Allowed              bool     `json:"allowed"`
	RequiresManualReview bool     `json:"requiresManualReview"`
	Flags                []string `json:"flags"`
	TrustScore           int      `json:"trustScore"`
}

// FraudService runs the rule-based fraud heuristic.
type FraudService struct {
	matches store.MatchStore
	flags   store.FraudFlagStore
	policy  FraudPolicy
	log     logger.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// NewFraudService creates a FraudService with the default policy.
func NewFraudService(matches store.MatchStore, flags store.FraudFlagStore, log logger.Logger, m *metrics.Metrics) *FraudService {
	return &FraudService{
		matches: matches,
		flags:   flags,
		policy:  DefaultFraudPolicy(),
		log:     log,
		metrics: m,
		now:     time.Now,
	}
}

// WithPolicy overrides the thresholds.
func (s *FraudService) WithPolicy(p FraudPolicy) *FraudService {
	s.policy = p
	return s
}

// WithClock overrides the time source.
func (s *FraudService) WithClock(now func() time.Time) *FraudService {
	s.now = now
	return s
}

// PerformFraudCheck evaluates user for intent. It always returns a result; datastore
// failures are logged and the affected rule is skipped.
func (s *FraudService) PerformFraudCheck(ctx context.Context, user *models.User, intent Intent) FraudCheckResult {
	result := FraudCheckResult{Flags: []string{}}
	now := s.now()

	if intent == IntentBuy && !IsBuyerEligible(user) {
		result.Flags = append(result.Flags, CheckInsufficientFlightHistory)
		result.RequiresManualReview = true
	}

	if intent == IntentBuy && s.hasRapidRequests(ctx, user, now) {
		result.Flags = append(result.Flags, CheckRapidRequests)
		result.RequiresManualReview = true
	}

	if user.CreatedAt.After(now.Add(-s.policy.NewUserAge)) && user.MatchHistoryCount == 0 {
		result.Flags = append(result.Flags, CheckNewUser)
		if intent == IntentBuy {
			result.RequiresManualReview = true
		}
	}

	result.TrustScore = TrustScore(user)
	result.Allowed = !result.RequiresManualReview || result.TrustScore >= s.policy.OverrideScore

	s.metrics.FraudVerdict(string(intent), result.Allowed, result.RequiresManualReview)
	return result
}

func (s *FraudService) hasRapidRequests(ctx context.Context, user *models.User, now time.Time) bool {
	count, err := s.matches.CountMatchesByBuyerSince(ctx, user.ID, now.Add(-s.policy.RapidWindow))
	if err != nil {
		s.log.Warn("fraud check: count recent matches failed", "user_id", user.ID, "error", err)
		return false
	}
	if count < s.policy.RapidThreshold {
		return false
	}

	s.RecordFlag(ctx, user.ID, models.FlagRapidRequests, map[string]any{"count": count, "timeframe": "24h"})
	return true
}

// RecordFlag appends a fraud flag, logging instead of failing.
func (s *FraudService) RecordFlag(ctx context.Context, userID uuid.UUID, flagType string, details map[string]any) {
	payload, _ := json.Marshal(details)
	flag := &models.FraudFlag{UserID: userID, FlagType: flagType, Details: payload}
	if err := s.flags.CreateFraudFlag(ctx, flag); err != nil {
		s.log.Warn("create fraud flag failed", "user_id", userID, "flag_type", flagType, "error", err)
	}
}
