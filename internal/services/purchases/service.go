package purchases

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
)

var ErrValidation = errors.New("validation error")

// ErrPurchaseNotFound is returned by stores when no record exists for a
// (user, movie) key.
var ErrPurchaseNotFound = errors.New("purchase not found")

type PurchaseStore interface {
	Get(ctx context.Context, userID int64, movieID string) (model.Purchase, error)
	// CreateIfAbsent inserts the record unless one already exists for the
	// (UserID, MovieID) key. It returns the stored record and whether this
	// call created it.
	CreateIfAbsent(ctx context.Context, purchase model.Purchase) (model.Purchase, bool, error)
	AppendOwned(ctx context.Context, userID int64, movieID string, now time.Time) error
	ListOwned(ctx context.Context, userID int64) ([]string, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Purchase, error)
	ListAll(ctx context.Context) ([]model.Purchase, error)
}

type MovieStore interface {
	GetByID(ctx context.Context, movieID string) (model.Movie, error)
}

// OwnedCache is a best-effort read cache over the owned-movies index. A nil
// cache and a failing cache behave the same: reads fall through to the store.
type OwnedCache interface {
	Get(ctx context.Context, userID int64) ([]string, bool, error)
	Set(ctx context.Context, userID int64, movieIDs []string) error
	Add(ctx context.Context, userID int64, movieID string) error
}

type Service struct {
	store  PurchaseStore
	movies MovieStore
	cache  OwnedCache
	log    *zap.Logger
	now    func() time.Time
	newID  func() string
}

type CommitResult struct {
	Purchase         model.Purchase
	AlreadyPurchased bool
}

type HistoryEntry struct {
	Purchase model.Purchase
	Movie    *model.Movie
}

type Stats struct {
	TotalTransactions int
	TotalRevenue      float64
	UniqueBuyers      int
	Recent            []model.Purchase
}

func NewService(store PurchaseStore, movies MovieStore, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		store:  store,
		movies: movies,
		log:    log,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Service) AttachOwnedCache(cache OwnedCache) {
	s.cache = cache
}

// Commit records a completed purchase exactly once per (userID, movieID).
// A second commit for the same pair is a no-op reported via AlreadyPurchased.
// The record insert and the index append are two separate writes; the record
// always lands first so an interrupted commit never yields an index entry
// without a backing record.
func (s *Service) Commit(ctx context.Context, userID int64, movieID string, price float64, transactionID string) (CommitResult, error) {
	if userID <= 0 || strings.TrimSpace(movieID) == "" {
		return CommitResult{}, ErrValidation
	}
	if s.store == nil {
		return CommitResult{}, fmt.Errorf("purchase store is nil")
	}

	record := model.Purchase{
		ID:            s.newID(),
		UserID:        userID,
		MovieID:       strings.TrimSpace(movieID),
		Price:         price,
		Status:        model.PurchaseStatusCompleted,
		PaymentMethod: model.PaymentMethodFastLipa,
		TransactionID: strings.TrimSpace(transactionID),
		PurchasedAt:   s.now().UTC(),
	}

	stored, created, err := s.store.CreateIfAbsent(ctx, record)
	if err != nil {
		return CommitResult{}, fmt.Errorf("create purchase record: %w", err)
	}
	if !created {
		return CommitResult{Purchase: stored, AlreadyPurchased: true}, nil
	}

	if err := s.store.AppendOwned(ctx, userID, record.MovieID, record.PurchasedAt); err != nil {
		// Record exists but the index write failed. The caller sees the
		// error; HasPurchased still answers from the record store.
		return CommitResult{}, fmt.Errorf("append owned movie index: %w", err)
	}

	if s.cache != nil {
		if cacheErr := s.cache.Add(ctx, userID, record.MovieID); cacheErr != nil {
			s.log.Warn("owned cache add failed",
				zap.Int64("user_id", userID),
				zap.String("movie_id", record.MovieID),
				zap.Error(cacheErr),
			)
		}
	}

	return CommitResult{Purchase: stored, AlreadyPurchased: false}, nil
}

// HasPurchased reports whether a purchase record exists. Lookup failures read
// as "not purchased" rather than an error.
func (s *Service) HasPurchased(ctx context.Context, userID int64, movieID string) bool {
	if userID <= 0 || strings.TrimSpace(movieID) == "" || s.store == nil {
		return false
	}

	_, err := s.store.Get(ctx, userID, movieID)
	if err != nil {
		if !errors.Is(err, ErrPurchaseNotFound) {
			s.log.Warn("purchase lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		}
		return false
	}
	return true
}

// ListPurchasedMovieIDs returns the user's owned movie ids; empty on any
// lookup failure.
func (s *Service) ListPurchasedMovieIDs(ctx context.Context, userID int64) []string {
	if userID <= 0 || s.store == nil {
		return []string{}
	}

	if s.cache != nil {
		if ids, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
			return ids
		}
	}

	ids, err := s.store.ListOwned(ctx, userID)
	if err != nil {
		s.log.Warn("owned index lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		return []string{}
	}
	if ids == nil {
		ids = []string{}
	}

	if s.cache != nil && len(ids) > 0 {
		if cacheErr := s.cache.Set(ctx, userID, ids); cacheErr != nil {
			s.log.Warn("owned cache fill failed", zap.Int64("user_id", userID), zap.Error(cacheErr))
		}
	}

	return ids
}

// History returns the user's purchases newest first, each joined with the
// movie when it still exists in the catalog.
func (s *Service) History(ctx context.Context, userID int64) ([]HistoryEntry, error) {
	if userID <= 0 {
		return nil, ErrValidation
	}
	if s.store == nil {
		return nil, fmt.Errorf("purchase store is nil")
	}

	records, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list purchases for user: %w", err)
	}
	sortNewestFirst(records)

	entries := make([]HistoryEntry, 0, len(records))
	for _, record := range records {
		entries = append(entries, HistoryEntry{
			Purchase: record,
			Movie:    s.lookupMovie(ctx, record.MovieID),
		})
	}
	return entries, nil
}

func (s *Service) ListAll(ctx context.Context) ([]model.Purchase, error) {
	if s.store == nil {
		return nil, fmt.Errorf("purchase store is nil")
	}
	records, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list all purchases: %w", err)
	}
	sortNewestFirst(records)
	return records, nil
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	records, err := s.ListAll(ctx)
	if err != nil {
		return Stats{}, err
	}

	buyers := make(map[int64]struct{}, len(records))
	stats := Stats{TotalTransactions: len(records)}
	for _, record := range records {
		stats.TotalRevenue += record.Price
		buyers[record.UserID] = struct{}{}
	}
	stats.UniqueBuyers = len(buyers)

	recent := records
	if len(recent) > 10 {
		recent = recent[:10]
	}
	stats.Recent = recent

	return stats, nil
}

func (s *Service) lookupMovie(ctx context.Context, movieID string) *model.Movie {
	if s.movies == nil {
		return nil
	}
	movie, err := s.movies.GetByID(ctx, movieID)
	if err != nil {
		return nil
	}
	return &movie
}

func sortNewestFirst(records []model.Purchase) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PurchasedAt.After(records[j].PurchasedAt)
	})
}
