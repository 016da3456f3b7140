package payments

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
	"github.com/beastcodes27/movie-backend/internal/services/fastlipa"
	"github.com/beastcodes27/movie-backend/internal/services/purchases"
)

// ledgerStub keeps the same create-if-absent contract as the real ledger so
// duplicate commits are visible to tests.
type ledgerStub struct {
	commitCalls int
	records     map[string]model.Purchase
	err         error
}

func newLedgerStub() *ledgerStub {
	return &ledgerStub{records: make(map[string]model.Purchase)}
}

func (l *ledgerStub) Commit(_ context.Context, userID int64, movieID string, price float64, transactionID string) (purchases.CommitResult, error) {
	l.commitCalls++
	if l.err != nil {
		return purchases.CommitResult{}, l.err
	}

	key := fmt.Sprintf("%d/%s", userID, movieID)
	if existing, ok := l.records[key]; ok {
		return purchases.CommitResult{Purchase: existing, AlreadyPurchased: true}, nil
	}
	record := model.Purchase{
		ID:            fmt.Sprintf("purchase-%d", len(l.records)+1),
		UserID:        userID,
		MovieID:       movieID,
		Price:         price,
		Status:        model.PurchaseStatusCompleted,
		PaymentMethod: model.PaymentMethodFastLipa,
		TransactionID: transactionID,
	}
	l.records[key] = record
	return purchases.CommitResult{Purchase: record}, nil
}

func newTestService(gateway Gateway, ledger Ledger, clock *fakeClock) *Service {
	svc := NewService(gateway, ledger, Config{Poller: DefaultPollerConfig()}, zap.NewNop())
	svc.poller.now = clock.Now
	svc.poller.sleep = clock.Sleep
	svc.sleep = clock.Sleep
	return svc
}

func validInput() PurchaseInput {
	return PurchaseInput{
		UserID:       42,
		MovieID:      "movie-7",
		Price:        5000,
		PhoneNumber:  "0712345678",
		CustomerName: "Asha",
	}
}

func TestPurchaseEndToEnd(t *testing.T) {
	gateway := &gatewayStub{
		statuses:   []string{"USSD_PUSHED", "PENDING", "PENDING", "SUCCESS"},
		nextTranID: "TX-100",
	}
	ledger := newLedgerStub()
	svc := newTestService(gateway, ledger, newFakeClock())

	var updates []ProgressUpdate
	result, err := svc.Purchase(context.Background(), validInput(), func(u ProgressUpdate) {
		updates = append(updates, u)
	})
	if err != nil {
		t.Fatalf("purchase: %v", err)
	}

	if result.TransactionID != "TX-100" {
		t.Fatalf("unexpected transaction id: %s", result.TransactionID)
	}
	if result.AlreadyPurchased {
		t.Fatal("first purchase must not report as already owned")
	}
	if ledger.commitCalls != 1 {
		t.Fatalf("expected exactly one commit, got %d", ledger.commitCalls)
	}
	if len(ledger.records) != 1 {
		t.Fatalf("expected exactly one purchase record, got %d", len(ledger.records))
	}

	// Request-sent milestone plus one update per polling cycle.
	if len(updates) < 4 {
		t.Fatalf("expected at least 4 progress updates, got %d", len(updates))
	}
	if updates[0].Status != "USSD_PUSHED" {
		t.Fatalf("first update must be the request-sent milestone, got %s", updates[0].Status)
	}
	for i := 1; i < len(updates); i++ {
		if updates[i].Attempt < updates[i-1].Attempt {
			t.Fatalf("attempt numbers must be non-decreasing: %v", updates)
		}
	}
}

func TestPurchaseRejectsInvalidPhoneBeforeGatewayCall(t *testing.T) {
	gateway := &gatewayStub{}
	svc := newTestService(gateway, newLedgerStub(), newFakeClock())

	in := validInput()
	in.PhoneNumber = "12ab"
	_, err := svc.Purchase(context.Background(), in, nil)
	if !errors.Is(err, fastlipa.ErrInvalidPhoneFormat) {
		t.Fatalf("want ErrInvalidPhoneFormat, got %v", err)
	}
	if gateway.createCalls != 0 {
		t.Fatal("gateway must not be called for a malformed phone number")
	}
}

func TestPurchaseValidatesInput(t *testing.T) {
	svc := newTestService(&gatewayStub{}, newLedgerStub(), newFakeClock())

	cases := []PurchaseInput{
		{UserID: 0, MovieID: "m", Price: 100, PhoneNumber: "0712345678"},
		{UserID: 1, MovieID: "  ", Price: 100, PhoneNumber: "0712345678"},
		{UserID: 1, MovieID: "m", Price: 0, PhoneNumber: "0712345678"},
	}
	for _, in := range cases {
		if _, err := svc.Purchase(context.Background(), in, nil); !errors.Is(err, ErrValidation) {
			t.Fatalf("input %+v: want ErrValidation, got %v", in, err)
		}
	}
}

func TestPurchaseRepeatedIsIdempotent(t *testing.T) {
	gateway := &gatewayStub{statuses: []string{"SUCCESS"}, nextTranID: "TX-1"}
	ledger := newLedgerStub()
	svc := newTestService(gateway, ledger, newFakeClock())

	if _, err := svc.Purchase(context.Background(), validInput(), nil); err != nil {
		t.Fatalf("first purchase: %v", err)
	}

	gateway.nextTranID = "TX-2"
	result, err := svc.Purchase(context.Background(), validInput(), nil)
	if err != nil {
		t.Fatalf("second purchase: %v", err)
	}
	if !result.AlreadyPurchased {
		t.Fatal("second purchase must report as already owned")
	}
	if len(ledger.records) != 1 {
		t.Fatalf("expected exactly one purchase record, got %d", len(ledger.records))
	}
}

func TestPurchaseFailureDoesNotCommit(t *testing.T) {
	gateway := &gatewayStub{statuses: []string{"PENDING", "FAILED"}, nextTranID: "TX-9"}
	ledger := newLedgerStub()
	svc := newTestService(gateway, ledger, newFakeClock())

	result, err := svc.Purchase(context.Background(), validInput(), nil)
	if !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("want ErrPaymentFailed, got %v", err)
	}
	if ledger.commitCalls != 0 {
		t.Fatal("failed payment must not reach the ledger")
	}
	// The transaction id survives failure so a manual recheck stays possible.
	if result.TransactionID != "TX-9" {
		t.Fatalf("unexpected transaction id: %s", result.TransactionID)
	}
}

func TestPurchaseCommitFailureIsDistinguishable(t *testing.T) {
	gateway := &gatewayStub{statuses: []string{"SUCCESS"}, nextTranID: "TX-3"}
	ledger := newLedgerStub()
	ledger.err = errors.New("connection refused")
	svc := newTestService(gateway, ledger, newFakeClock())

	result, err := svc.Purchase(context.Background(), validInput(), nil)
	if !errors.Is(err, ErrCommitFailed) {
		t.Fatalf("want ErrCommitFailed, got %v", err)
	}
	// The transaction id is the recovery handle for a manual recheck.
	if result.TransactionID != "TX-3" {
		t.Fatalf("unexpected transaction id: %s", result.TransactionID)
	}
}

func TestPurchaseTimeoutDoesNotCommit(t *testing.T) {
	gateway := &gatewayStub{statuses: []string{"PENDING"}, nextTranID: "TX-5"}
	ledger := newLedgerStub()
	svc := newTestService(gateway, ledger, newFakeClock())

	result, err := svc.Purchase(context.Background(), validInput(), nil)
	if !errors.Is(err, ErrPaymentTimeout) {
		t.Fatalf("want ErrPaymentTimeout, got %v", err)
	}
	if ledger.commitCalls != 0 {
		t.Fatal("timed-out payment must not reach the ledger")
	}
	if result.TransactionID != "TX-5" {
		t.Fatalf("unexpected transaction id: %s", result.TransactionID)
	}
}

func TestCancelledPollThenManualRecheckCommitsOnce(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	gateway := &gatewayStub{
		statuses:    []string{"PENDING"},
		nextTranID:  "TX-77",
		cancelAfter: 2,
		cancelFn:    cancel,
	}
	ledger := newLedgerStub()
	svc := newTestService(gateway, ledger, newFakeClock())

	result, err := svc.Purchase(ctx, validInput(), nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if ledger.commitCalls != 0 {
		t.Fatal("cancelled purchase must not reach the ledger")
	}

	gateway.statuses = []string{"CONFIRMED"}
	gateway.checkCalls = 0
	manual, err := svc.CheckStatusManually(context.Background(), result.TransactionID, 42, "movie-7", 5000)
	if err != nil {
		t.Fatalf("manual check: %v", err)
	}
	if !manual.Committed {
		t.Fatal("confirmed manual check must commit")
	}
	if manual.AlreadyPurchased {
		t.Fatal("first commit must not report as already owned")
	}
	if len(ledger.records) != 1 {
		t.Fatalf("expected exactly one purchase record, got %d", len(ledger.records))
	}
}

func TestManualRecheckLeavesPendingUncommitted(t *testing.T) {
	gateway := &gatewayStub{statuses: []string{"PENDING"}}
	ledger := newLedgerStub()
	svc := newTestService(gateway, ledger, newFakeClock())

	result, err := svc.CheckStatusManually(context.Background(), "TX-1", 42, "movie-7", 5000)
	if err != nil {
		t.Fatalf("manual check: %v", err)
	}
	if result.Committed {
		t.Fatal("pending status must not commit")
	}
	if result.Status != "PENDING" {
		t.Fatalf("unexpected status: %s", result.Status)
	}
	if ledger.commitCalls != 0 {
		t.Fatalf("unexpected ledger commits: %d", ledger.commitCalls)
	}
}

func TestManualRecheckReportsFailure(t *testing.T) {
	gateway := &gatewayStub{statuses: []string{"declined"}}
	svc := newTestService(gateway, newLedgerStub(), newFakeClock())

	result, err := svc.CheckStatusManually(context.Background(), "TX-1", 42, "movie-7", 5000)
	if !errors.Is(err, ErrPaymentFailed) {
		t.Fatalf("want ErrPaymentFailed, got %v", err)
	}
	if result.Status != "DECLINED" {
		t.Fatalf("status must be normalized to upper case, got %s", result.Status)
	}
}

func TestManualRecheckWaitsGracePeriod(t *testing.T) {
	gateway := &gatewayStub{statuses: []string{"SUCCESS"}}
	svc := NewService(gateway, newLedgerStub(), Config{
		Poller:         DefaultPollerConfig(),
		ManualCheckLag: 2 * time.Second,
	}, zap.NewNop())

	var slept time.Duration
	svc.sleep = func(_ context.Context, d time.Duration) error {
		slept += d
		return nil
	}

	if _, err := svc.CheckStatusManually(context.Background(), "TX-1", 42, "movie-7", 5000); err != nil {
		t.Fatalf("manual check: %v", err)
	}
	if slept != 2*time.Second {
		t.Fatalf("expected a 2s grace delay, slept %s", slept)
	}
}
