package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/beastcodes27/movie-backend/internal/metrics"
	"github.com/beastcodes27/movie-backend/internal/services/fastlipa"
	"github.com/beastcodes27/movie-backend/internal/services/purchases"
)

var (
	ErrValidation     = errors.New("validation error")
	ErrPaymentFailed  = errors.New("payment failed or was cancelled")
	ErrPaymentTimeout = errors.New("payment request timed out")

	// ErrCommitFailed marks a ledger write failure after the gateway already
	// confirmed the payment. The charge must not be retried; the transaction
	// id is the recovery handle for a manual status recheck.
	ErrCommitFailed = errors.New("payment confirmed but purchase was not recorded")
)

const statusUSSDPushed = "USSD_PUSHED"

type Gateway interface {
	NormalizePhone(raw string) (string, error)
	CreateTransaction(ctx context.Context, phoneNumber string, amount float64, name string) (fastlipa.Transaction, error)
	CheckStatus(ctx context.Context, transactionID string) (fastlipa.StatusResult, error)
}

type Ledger interface {
	Commit(ctx context.Context, userID int64, movieID string, price float64, transactionID string) (purchases.CommitResult, error)
}

// Service is the only path by which a purchase record is created: it creates
// the gateway transaction, waits for the poller's terminal outcome, and
// commits the entitlement.
type Service struct {
	gateway   Gateway
	ledger    Ledger
	poller    *Poller
	log       *zap.Logger
	manualLag time.Duration
	sleep     func(ctx context.Context, d time.Duration) error
}

type Config struct {
	Poller         PollerConfig
	ManualCheckLag time.Duration
}

type PurchaseInput struct {
	UserID       int64
	MovieID      string
	Price        float64
	PhoneNumber  string
	CustomerName string
}

type PurchaseResult struct {
	TransactionID    string
	AlreadyPurchased bool
}

type ManualCheckResult struct {
	Status           string
	Committed        bool
	AlreadyPurchased bool
}

func NewService(gateway Gateway, ledger Ledger, cfg Config, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.ManualCheckLag <= 0 {
		cfg.ManualCheckLag = 2 * time.Second
	}

	return &Service{
		gateway:   gateway,
		ledger:    ledger,
		poller:    NewPoller(gateway, cfg.Poller, log),
		log:       log,
		manualLag: cfg.ManualCheckLag,
		sleep:     sleepCtx,
	}
}

// Purchase drives one purchase attempt end to end. The progress observer is
// invoked with a request-sent milestone once the transaction exists and once
// per polling cycle afterwards. On failure or timeout the transaction id is
// still returned so the caller can offer a manual recheck.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput, onUpdate ProgressFunc) (PurchaseResult, error) {
	if in.UserID <= 0 || strings.TrimSpace(in.MovieID) == "" || in.Price <= 0 {
		return PurchaseResult{}, ErrValidation
	}
	if s.gateway == nil || s.ledger == nil {
		return PurchaseResult{}, fmt.Errorf("payment dependencies are not configured")
	}

	// Reject malformed numbers before any network traffic.
	if _, err := s.gateway.NormalizePhone(in.PhoneNumber); err != nil {
		return PurchaseResult{}, err
	}

	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		name = "Customer"
	}

	tx, err := s.gateway.CreateTransaction(ctx, in.PhoneNumber, in.Price, name)
	if err != nil {
		return PurchaseResult{}, err
	}
	metrics.PaymentsStarted.Inc()

	s.log.Info("payment transaction created",
		zap.String("transaction_id", tx.ID),
		zap.Int64("user_id", in.UserID),
		zap.String("movie_id", in.MovieID),
	)
	s.poller.notify(onUpdate, ProgressUpdate{
		Status:        statusUSSDPushed,
		TransactionID: tx.ID,
	})

	if _, err := s.poller.Poll(ctx, tx.ID, onUpdate); err != nil {
		return PurchaseResult{TransactionID: tx.ID}, err
	}

	result, err := s.commit(ctx, in.UserID, in.MovieID, in.Price, tx.ID)
	if err != nil {
		// The payment went through but the entitlement write failed; the
		// caller must surface this with a manual-recheck hint, not retry
		// the charge.
		s.log.Error("payment confirmed but ledger commit failed",
			zap.String("transaction_id", tx.ID),
			zap.Int64("user_id", in.UserID),
			zap.String("movie_id", in.MovieID),
			zap.Error(err),
		)
		return PurchaseResult{TransactionID: tx.ID}, fmt.Errorf("%w: %v", ErrCommitFailed, err)
	}

	return PurchaseResult{
		TransactionID:    tx.ID,
		AlreadyPurchased: result.AlreadyPurchased,
	}, nil
}

// CheckStatusManually is the out-of-band recovery path: one status check
// after a short grace delay, committing through the same ledger path as
// automatic confirmation.
func (s *Service) CheckStatusManually(ctx context.Context, transactionID string, userID int64, movieID string, price float64) (ManualCheckResult, error) {
	if strings.TrimSpace(transactionID) == "" || userID <= 0 || strings.TrimSpace(movieID) == "" {
		return ManualCheckResult{}, ErrValidation
	}
	if s.gateway == nil || s.ledger == nil {
		return ManualCheckResult{}, fmt.Errorf("payment dependencies are not configured")
	}

	// Give the gateway a moment to settle after the user confirms on the
	// handset.
	if err := s.sleep(ctx, s.manualLag); err != nil {
		return ManualCheckResult{}, err
	}

	result, err := s.gateway.CheckStatus(ctx, transactionID)
	if err != nil {
		return ManualCheckResult{}, err
	}

	status := strings.ToUpper(result.PaymentStatus)
	switch Classify(status) {
	case OutcomeConfirmed:
		commit, err := s.commit(ctx, userID, movieID, price, transactionID)
		if err != nil {
			return ManualCheckResult{Status: status}, fmt.Errorf("%w: %v", ErrCommitFailed, err)
		}
		return ManualCheckResult{
			Status:           status,
			Committed:        true,
			AlreadyPurchased: commit.AlreadyPurchased,
		}, nil
	case OutcomeFailed:
		metrics.PaymentsFailed.Inc()
		return ManualCheckResult{Status: status}, ErrPaymentFailed
	default:
		return ManualCheckResult{Status: status}, nil
	}
}

func (s *Service) commit(ctx context.Context, userID int64, movieID string, price float64, transactionID string) (purchases.CommitResult, error) {
	result, err := s.ledger.Commit(ctx, userID, movieID, price, transactionID)
	if err != nil {
		return purchases.CommitResult{}, err
	}

	metrics.PaymentsConfirmed.Inc()
	if result.AlreadyPurchased {
		metrics.PurchasesAlreadyOwned.Inc()
	}
	return result, nil
}
