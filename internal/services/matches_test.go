package services

import (
	"context"
	"errors"
	"testing"

	"github.com/example/bagswap/internal/models"
	"github.com/example/bagswap/internal/store"
)

func TestCreateMatchComputesTotal(t *testing.T) {
	env := newTestEnv(t, false)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, false)

	res, err := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 10})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Match.TotalAmount != 5000 {
		t.Fatalf("total = %d, want 5000", res.Match.TotalAmount)
	}
	if res.Match.Status != models.MatchPending {
		t.Fatalf("status = %s, want PENDING", res.Match.Status)
	}
	if res.PaymentClientSecret != "" {
		t.Fatal("no client secret expected without escrow")
	}
}

func TestCreateMatchRejectsOverCapacity(t *testing.T) {
	env := newTestEnv(t, false)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, false)

	_, err := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 16})
	assertKind(t, err, KindValidation)

	matches, _ := env.store.ListMatches(env.ctx, store.MatchFilter{})
	if len(matches) != 0 {
		t.Fatalf("no match row may be created, got %d", len(matches))
	}
}

func TestCreateMatchGuards(t *testing.T) {
	env := newTestEnv(t, true)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, false)

	_, err := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: seller.ID, QuantityKg: 1})
	assertKind(t, err, KindValidation)

	_, err = env.matches.Create(env.ctx, CreateMatchInput{ListingID: buyer.ID, BuyerID: buyer.ID, QuantityKg: 1})
	assertKind(t, err, KindNotFound)

	newcomer := env.user(t, "newcomer@example.com", func(u *models.User) { u.CreatedAt = testNow })
	svcErr := assertKind(t, func() error {
		_, err := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: newcomer.ID, QuantityKg: 1})
		return err
	}(), KindForbidden)
	if svcErr.Data["reason"] != "FRAUD_CHECK_FAILED" {
		t.Fatalf("unexpected error data %v", svcErr.Data)
	}

	if env.escrow.holds != 0 {
		t.Fatalf("rejected requests must not open holds, got %d", env.escrow.holds)
	}
}

func TestCreateMatchOpensHold(t *testing.T) {
	env := newTestEnv(t, true)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, false)

	res, err := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 2})
	if err != nil {
		t.Fatal(err)
	}
	if res.PaymentClientSecret != "pi_1_secret" || res.Match.PaymentIntentID != "pi_1" {
		t.Fatalf("unexpected payment fields: %q %q", res.PaymentClientSecret, res.Match.PaymentIntentID)
	}
}

func TestCreateMatchAutoAccepts(t *testing.T) {
	env := newTestEnv(t, false)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, true)

	res, err := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !res.AutoAccepted || res.Match.Status != models.MatchAccepted {
		t.Fatalf("expected auto-accepted match, got %s", res.Match.Status)
	}
}

func TestAcceptRequiresSellerAndPending(t *testing.T) {
	env := newTestEnv(t, false)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, false)
	res, _ := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 1})

	_, err := env.matches.Accept(env.ctx, res.Match.ID, buyer.ID)
	assertKind(t, err, KindForbidden)

	accepted, err := env.matches.Accept(env.ctx, res.Match.ID, seller.ID)
	if err != nil {
		t.Fatal(err)
	}
	if accepted.Match.Status != models.MatchAccepted {
		t.Fatalf("status = %s", accepted.Match.Status)
	}
	if accepted.Contacts.Seller.Email != seller.Email || accepted.Contacts.Buyer.Phone != buyer.Phone {
		t.Fatalf("expected full contacts, got %+v", accepted.Contacts)
	}
	if env.reload(t, res.Match.ID).QRToken == "" {
		t.Fatal("accept must issue a confirmation token")
	}

	_, err = env.matches.Accept(env.ctx, res.Match.ID, seller.ID)
	svcErr := assertKind(t, err, KindConflict)
	if svcErr.Data["currentStatus"] != "ACCEPTED" {
		t.Fatalf("expected current status echoed, got %v", svcErr.Data)
	}
}

func TestConfirmRejectsPendingMatch(t *testing.T) {
	env := newTestEnv(t, false)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, false)
	res, _ := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 1})

	_, err := env.matches.Confirm(env.ctx, ConfirmInput{MatchID: res.Match.ID, ActorID: buyer.ID})
	assertKind(t, err, KindConflict)

	if got := env.reload(t, res.Match.ID).Status; got != models.MatchPending {
		t.Fatalf("status = %s, want PENDING", got)
	}
}

func TestConfirmUpdatesCounters(t *testing.T) {
	env := newTestEnv(t, false)
	seller, buyer := env.parties(t)
	env.store.UpdateUser(env.ctx, buyer.ID, func(u *models.User) { u.PastFlightsCount = 0 })
	listing := env.listing(t, seller, 15, 500, false)

	// buyer without flights needs the trust override to book
	res, err := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 1})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := env.matches.Accept(env.ctx, res.Match.ID, seller.ID); err != nil {
		t.Fatal(err)
	}

	sellerBefore := env.mustUser(t, seller.ID)
	buyerBefore := env.mustUser(t, buyer.ID)

	confirmed, err := env.matches.Confirm(env.ctx, ConfirmInput{MatchID: res.Match.ID, ActorID: seller.ID, ConfirmationType: ConfirmSeller})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Match.Status != models.MatchReleased {
		t.Fatalf("bilateral confirm must release, got %s", confirmed.Match.Status)
	}

	sellerAfter := env.mustUser(t, seller.ID)
	buyerAfter := env.mustUser(t, buyer.ID)
	if sellerAfter.MatchHistoryCount != sellerBefore.MatchHistoryCount+1 {
		t.Fatalf("seller history %d -> %d", sellerBefore.MatchHistoryCount, sellerAfter.MatchHistoryCount)
	}
	if buyerAfter.MatchHistoryCount != buyerBefore.MatchHistoryCount+1 {
		t.Fatalf("buyer history %d -> %d", buyerBefore.MatchHistoryCount, buyerAfter.MatchHistoryCount)
	}
	if buyerAfter.PastFlightsCount != 1 {
		t.Fatalf("buyer flights = %d, want 1", buyerAfter.PastFlightsCount)
	}
	if sellerAfter.PastFlightsCount != sellerBefore.PastFlightsCount {
		t.Fatal("seller flights must not change")
	}
	if buyerAfter.TrustScore != TrustScore(buyerAfter) {
		t.Fatal("trust score must be recomputed")
	}
}

func TestConfirmKeepsFlightCountWhenAlreadyFlown(t *testing.T) {
	env := newTestEnv(t, false)
	match, _, buyer := env.acceptedMatch(t)
	before := env.mustUser(t, buyer.ID).PastFlightsCount

	if _, err := env.matches.Confirm(env.ctx, ConfirmInput{MatchID: match.ID, ActorID: buyer.ID}); err != nil {
		t.Fatal(err)
	}
	if after := env.mustUser(t, buyer.ID).PastFlightsCount; after != before {
		t.Fatalf("flights %d -> %d", before, after)
	}
}

func TestConfirmWithEscrowCaptures(t *testing.T) {
	env := newTestEnv(t, true)
	match, _, buyer := env.acceptedMatch(t)

	res, err := env.matches.Confirm(env.ctx, ConfirmInput{MatchID: match.ID, ActorID: buyer.ID})
	if err != nil {
		t.Fatal(err)
	}
	if res.Match.Status != models.MatchConfirmed || res.Payment.Status != "captured" {
		t.Fatalf("unexpected result %s / %s", res.Match.Status, res.Payment.Status)
	}
	if len(env.escrow.captured) != 1 || env.escrow.captured[0] != match.PaymentIntentID {
		t.Fatalf("expected capture of %s, got %v", match.PaymentIntentID, env.escrow.captured)
	}

	released, err := env.matches.ApplyPaymentOutcome(env.ctx, match.PaymentIntentID, PaymentSucceeded)
	if err != nil {
		t.Fatal(err)
	}
	if released.Status != models.MatchReleased {
		t.Fatalf("succeeded payment must release, got %s", released.Status)
	}
}

func TestConfirmFailureMovesToDisputed(t *testing.T) {
	env := newTestEnv(t, true)
	match, seller, buyer := env.acceptedMatch(t)
	env.escrow.captureErr = errors.New("card declined")

	_, err := env.matches.Confirm(env.ctx, ConfirmInput{MatchID: match.ID, ActorID: buyer.ID})
	assertKind(t, err, KindUpstream)

	if got := env.mustUser(t, seller.ID).MatchHistoryCount; got != seller.MatchHistoryCount {
		t.Fatalf("seller match count = %d, want %d after failed capture", got, seller.MatchHistoryCount)
	}
	if got := env.mustUser(t, buyer.ID).MatchHistoryCount; got != buyer.MatchHistoryCount {
		t.Fatalf("buyer match count = %d, want %d after failed capture", got, buyer.MatchHistoryCount)
	}

	if got := env.reload(t, match.ID).Status; got != models.MatchDisputed {
		t.Fatalf("status = %s, want DISPUTED", got)
	}
	dispute, err := env.store.GetDisputeByMatch(env.ctx, match.ID)
	if err != nil {
		t.Fatalf("expected reconciliation dispute: %v", err)
	}
	if dispute.Reason != "confirmation_failed" {
		t.Fatalf("reason = %q", dispute.Reason)
	}

	var errorLogs int
	for _, l := range env.store.Logs() {
		if l.Level == models.LogLevelError {
			errorLogs++
		}
	}
	if errorLogs == 0 {
		t.Fatal("expected an error entry in the application log")
	}
}

func TestConfirmValidatesQRCode(t *testing.T) {
	env := newTestEnv(t, false)
	match, seller, buyer := env.acceptedMatch(t)

	qr, err := env.matches.QRCode(env.ctx, match.ID, seller.ID)
	if err != nil {
		t.Fatal(err)
	}
	if qr.Data.Type != RoleSeller {
		t.Fatalf("type = %s", qr.Data.Type)
	}

	forged := EncodeQR(QRData{MatchID: match.ID, Token: "WRONG", Type: RoleBuyer, Timestamp: testNow.UnixMilli()})
	_, err = env.matches.Confirm(env.ctx, ConfirmInput{MatchID: match.ID, ActorID: buyer.ID, QRCode: forged})
	assertKind(t, err, KindValidation)

	if _, err := env.matches.Confirm(env.ctx, ConfirmInput{MatchID: match.ID, ActorID: buyer.ID, QRCode: qr.Code}); err != nil {
		t.Fatalf("valid code rejected: %v", err)
	}
}

func TestConfirmRejectsUnknownConfirmationType(t *testing.T) {
	env := newTestEnv(t, false)
	match, _, buyer := env.acceptedMatch(t)

	_, err := env.matches.Confirm(env.ctx, ConfirmInput{MatchID: match.ID, ActorID: buyer.ID, ConfirmationType: "courier"})
	assertKind(t, err, KindValidation)
}

func TestDisputeCreatesRecordAndFlag(t *testing.T) {
	env := newTestEnv(t, true)
	match, seller, buyer := env.acceptedMatch(t)

	_, err := env.matches.Dispute(env.ctx, DisputeInput{MatchID: match.ID, ActorID: buyer.ID})
	assertKind(t, err, KindValidation)

	res, err := env.matches.Dispute(env.ctx, DisputeInput{MatchID: match.ID, ActorID: buyer.ID, Reason: "no_show", Details: "seller missed the flight"})
	if err != nil {
		t.Fatal(err)
	}
	if res.Match.Status != models.MatchDisputed {
		t.Fatalf("status = %s", res.Match.Status)
	}

	dispute, err := env.store.GetDisputeByMatch(env.ctx, match.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.DisputeID != dispute.ID.String() || dispute.Status != models.DisputePending {
		t.Fatalf("unexpected dispute %+v", dispute)
	}

	flags, _, _ := env.store.ListFraudFlags(env.ctx, &buyer.ID, 0, 0)
	if len(flags) != 1 || flags[0].FlagType != models.FlagDisputeReported {
		t.Fatalf("expected DISPUTE_REPORTED flag, got %v", flags)
	}
	if len(env.escrow.captured)+len(env.escrow.cancelled) != 0 {
		t.Fatal("disputed funds must stay held")
	}

	_, err = env.matches.Dispute(env.ctx, DisputeInput{MatchID: match.ID, ActorID: seller.ID, Reason: "again"})
	assertKind(t, err, KindConflict)
}

func TestCancelReleasesHold(t *testing.T) {
	env := newTestEnv(t, true)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, false)
	res, _ := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 1})

	outsider := env.user(t, "outsider@example.com", nil)
	_, err := env.matches.Cancel(env.ctx, res.Match.ID, outsider.ID)
	assertKind(t, err, KindForbidden)

	cancelled, err := env.matches.Cancel(env.ctx, res.Match.ID, buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if cancelled.Status != models.MatchCancelled {
		t.Fatalf("status = %s", cancelled.Status)
	}
	if len(env.escrow.cancelled) != 1 {
		t.Fatalf("expected hold cancelled, got %v", env.escrow.cancelled)
	}

	_, err = env.matches.Accept(env.ctx, res.Match.ID, seller.ID)
	assertKind(t, err, KindConflict)
}

func TestCancelAfterProcessorCancelStaysCancelled(t *testing.T) {
	env := newTestEnv(t, true)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, false)
	res, err := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 1})
	if err != nil {
		t.Fatal(err)
	}

	// The processor reports the voided hold before Cancel updates the match.
	env.escrow.onCancel = func(holdID string) {
		if _, err := env.matches.ApplyPaymentOutcome(env.ctx, holdID, PaymentCanceled); err != nil {
			t.Errorf("apply outcome: %v", err)
		}
	}

	cancelled, err := env.matches.Cancel(env.ctx, res.Match.ID, buyer.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != models.MatchCancelled {
		t.Fatalf("status = %s", cancelled.Status)
	}
	if got := env.reload(t, res.Match.ID).Status; got != models.MatchCancelled {
		t.Fatalf("stored status = %s, want CANCELLED", got)
	}
	if _, err := env.store.GetDisputeByMatch(env.ctx, res.Match.ID); err == nil {
		t.Fatal("no reconciliation dispute expected for a cancelled match")
	}
}

func TestReconcileLeavesTerminalMatch(t *testing.T) {
	env := newTestEnv(t, false)
	match, _, buyer := env.acceptedMatch(t)
	if _, err := env.matches.Confirm(env.ctx, ConfirmInput{MatchID: match.ID, ActorID: buyer.ID}); err != nil {
		t.Fatal(err)
	}
	released := env.reload(t, match.ID)

	env.matches.reconcile(env.ctx, released, buyer.ID, "late_failure", errors.New("boom"))

	if got := env.reload(t, match.ID).Status; got != models.MatchReleased {
		t.Fatalf("status = %s, want RELEASED", got)
	}
	if _, err := env.store.GetDisputeByMatch(env.ctx, match.ID); err == nil {
		t.Fatal("no dispute expected for a released match")
	}
}

func TestListAndGetRespectParticipants(t *testing.T) {
	env := newTestEnv(t, false)
	match, seller, buyer := env.acceptedMatch(t)
	outsider := env.user(t, "outsider@example.com", nil)

	asSeller, err := env.matches.List(env.ctx, seller.ID, RoleSeller)
	if err != nil || len(asSeller) != 1 {
		t.Fatalf("seller list = %d (%v)", len(asSeller), err)
	}
	asBuyerSelling, _ := env.matches.List(env.ctx, buyer.ID, RoleSeller)
	if len(asBuyerSelling) != 0 {
		t.Fatal("buyer has no matches as seller")
	}

	view, err := env.matches.Get(env.ctx, match.ID, buyer.ID)
	if err != nil {
		t.Fatal(err)
	}
	if view.Listing.Seller.Email != seller.Email {
		t.Fatal("accepted match reveals seller contact to buyer")
	}

	_, err = env.matches.Get(env.ctx, match.ID, outsider.ID)
	assertKind(t, err, KindForbidden)
}

func TestPaymentFailureCancelsPendingMatch(t *testing.T) {
	env := newTestEnv(t, true)
	seller, buyer := env.parties(t)
	listing := env.listing(t, seller, 15, 500, false)
	res, _ := env.matches.Create(env.ctx, CreateMatchInput{ListingID: listing.ID, BuyerID: buyer.ID, QuantityKg: 1})

	updated, err := env.matches.ApplyPaymentOutcome(context.Background(), res.Match.PaymentIntentID, PaymentFailed)
	if err != nil {
		t.Fatal(err)
	}
	if updated.Status != models.MatchCancelled {
		t.Fatalf("status = %s", updated.Status)
	}

	unknown, err := env.matches.ApplyPaymentOutcome(context.Background(), "pi_unknown", PaymentFailed)
	if err != nil || unknown != nil {
		t.Fatalf("unknown intents are ignored, got %v %v", unknown, err)
	}
}
