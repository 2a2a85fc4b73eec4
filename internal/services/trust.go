package services

import "github.com/example/bagswap/internal/models"

const (
	AutoAcceptMinMatches = 2
	BuyerMinFlights      = 1
)

// TrustScore derives a 0-100 reputation from verification and history counters.
func TrustScore(u *models.User) int {
	score := 0
	if u.Verified {
		score += 20
	}
	score += min(max(u.MatchHistoryCount, 0)*10, 50)
	score += min(max(u.PastFlightsCount, 0)*5, 30)
	return min(score, 100)
}

// CanAutoAccept reports whether a seller's listing-level auto-accept may take effect.
func CanAutoAccept(u *models.User) bool {
	return u.MatchHistoryCount >= AutoAcceptMinMatches && u.Verified
}

// IsBuyerEligible reports whether the user has flown before.
func IsBuyerEligible(u *models.User) bool {
	return u.PastFlightsCount >= BuyerMinFlights
}
