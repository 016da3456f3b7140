package payments

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/beastcodes27/movie-backend/internal/metrics"
	"github.com/beastcodes27/movie-backend/internal/services/fastlipa"
)

type StatusChecker interface {
	CheckStatus(ctx context.Context, transactionID string) (fastlipa.StatusResult, error)
}

type ProgressUpdate struct {
	Status         string
	TransactionID  string
	Attempt        int
	ElapsedSeconds int
}

// ProgressFunc receives one update per polling cycle. A panicking or slow
// observer never aborts the poll loop.
type ProgressFunc func(ProgressUpdate)

type PollerConfig struct {
	Timeout      time.Duration
	InitialDelay time.Duration
	FastInterval time.Duration
	SlowInterval time.Duration
	FastAttempts int
}

func DefaultPollerConfig() PollerConfig {
	return PollerConfig{
		Timeout:      2 * time.Minute,
		InitialDelay: 5 * time.Second,
		FastInterval: 3 * time.Second,
		SlowInterval: 3 * time.Second,
		FastAttempts: 5,
	}
}

// Poller drives a created transaction to a terminal outcome by querying the
// gateway on a schedule until the status classifies as confirmed or failed,
// or the wall-clock budget runs out.
type Poller struct {
	gateway StatusChecker
	cfg     PollerConfig
	log     *zap.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewPoller(gateway StatusChecker, cfg PollerConfig, log *zap.Logger) *Poller {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPollerConfig().Timeout
	}
	if cfg.FastInterval <= 0 {
		cfg.FastInterval = DefaultPollerConfig().FastInterval
	}
	if cfg.SlowInterval <= 0 {
		cfg.SlowInterval = cfg.FastInterval
	}
	if cfg.FastAttempts <= 0 {
		cfg.FastAttempts = DefaultPollerConfig().FastAttempts
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Poller{
		gateway: gateway,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		sleep:   sleepCtx,
	}
}

// Poll blocks until the transaction reaches a terminal outcome. Cancelling the
// context stops the loop before the next status check; no further observer
// notifications happen after that.
func (p *Poller) Poll(ctx context.Context, transactionID string, onUpdate ProgressFunc) (fastlipa.StatusResult, error) {
	start := p.now()

	// Give the USSD push time to reach the handset before the first check.
	if err := p.sleep(ctx, p.cfg.InitialDelay); err != nil {
		return fastlipa.StatusResult{}, err
	}

	attempt := 0
	for {
		attempt++
		elapsed := p.now().Sub(start)
		if elapsed >= p.cfg.Timeout {
			metrics.PaymentsTimedOut.Inc()
			return fastlipa.StatusResult{}, ErrPaymentTimeout
		}
		if err := ctx.Err(); err != nil {
			return fastlipa.StatusResult{}, err
		}

		result, err := p.gateway.CheckStatus(ctx, transactionID)
		if err != nil {
			// One flaky poll must not abort an otherwise successful
			// payment; retry until the budget is spent.
			p.log.Warn("status poll attempt failed",
				zap.String("transaction_id", transactionID),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			if sleepErr := p.sleep(ctx, p.interval(attempt)); sleepErr != nil {
				return fastlipa.StatusResult{}, sleepErr
			}
			continue
		}

		status := strings.ToUpper(result.PaymentStatus)
		p.notify(onUpdate, ProgressUpdate{
			Status:         status,
			TransactionID:  transactionID,
			Attempt:        attempt,
			ElapsedSeconds: int(elapsed / time.Second),
		})

		switch Classify(status) {
		case OutcomeConfirmed:
			metrics.PollDuration.Observe(p.now().Sub(start).Seconds())
			p.log.Info("payment confirmed",
				zap.String("transaction_id", transactionID),
				zap.Int("attempts", attempt),
			)
			return result, nil
		case OutcomeFailed:
			metrics.PollDuration.Observe(p.now().Sub(start).Seconds())
			metrics.PaymentsFailed.Inc()
			return result, ErrPaymentFailed
		}

		p.log.Debug("transaction still pending",
			zap.String("transaction_id", transactionID),
			zap.String("status", status),
			zap.Int("attempt", attempt),
		)

		if err := p.sleep(ctx, p.interval(attempt)); err != nil {
			return fastlipa.StatusResult{}, err
		}
	}
}

// interval is a pure function of the attempt count, evaluated fresh each
// cycle. Both phases currently use the same value; the branch at FastAttempts
// exists so the post-confirmation phase can be slowed independently.
func (p *Poller) interval(attempt int) time.Duration {
	if attempt >= p.cfg.FastAttempts {
		return p.cfg.SlowInterval
	}
	return p.cfg.FastInterval
}

func (p *Poller) notify(onUpdate ProgressFunc, update ProgressUpdate) {
	if onUpdate == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn("progress observer panicked", zap.Any("panic", r))
		}
	}()
	onUpdate(update)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
