package catalog

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrMovieNotFound = errors.New("movie not found")
)

const posterURLTTL = 7 * 24 * time.Hour

type Store interface {
	GetByID(ctx context.Context, movieID string) (model.Movie, error)
	List(ctx context.Context, category string) ([]model.Movie, error)
	Search(ctx context.Context, query string) ([]model.Movie, error)
	Create(ctx context.Context, movie model.Movie) error
	SetPosterURL(ctx context.Context, movieID, posterURL string) error
	Delete(ctx context.Context, movieID string) error
}

type ObjectStorage interface {
	EnsureBucket(ctx context.Context) error
	PutObject(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	store   Store
	storage ObjectStorage
	now     func() time.Time
	newID   func() string
}

type CreateMovieInput struct {
	Title       string
	Description string
	Category    string
	Genres      []string
	TrailerURL  string
	IsPremium   bool
	Price       float64
}

func NewService(store Store, storage ObjectStorage) *Service {
	return &Service{
		store:   store,
		storage: storage,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

func (s *Service) GetByID(ctx context.Context, movieID string) (model.Movie, error) {
	if strings.TrimSpace(movieID) == "" {
		return model.Movie{}, ErrValidation
	}
	if s.store == nil {
		return model.Movie{}, fmt.Errorf("movie store is nil")
	}
	return s.store.GetByID(ctx, movieID)
}

// List returns the catalog, optionally narrowed to one category.
func (s *Service) List(ctx context.Context, category string) ([]model.Movie, error) {
	if s.store == nil {
		return nil, fmt.Errorf("movie store is nil")
	}
	movies, err := s.store.List(ctx, strings.TrimSpace(category))
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return movies, nil
}

func (s *Service) Search(ctx context.Context, query string) ([]model.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.List(ctx, "")
	}
	if s.store == nil {
		return nil, fmt.Errorf("movie store is nil")
	}
	movies, err := s.store.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	return movies, nil
}

func (s *Service) Create(ctx context.Context, in CreateMovieInput) (model.Movie, error) {
	if strings.TrimSpace(in.Title) == "" {
		return model.Movie{}, ErrValidation
	}
	if in.IsPremium && in.Price <= 0 {
		return model.Movie{}, ErrValidation
	}
	if s.store == nil {
		return model.Movie{}, fmt.Errorf("movie store is nil")
	}

	movie := model.Movie{
		ID:          s.newID(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    strings.TrimSpace(in.Category),
		Genres:      in.Genres,
		TrailerURL:  strings.TrimSpace(in.TrailerURL),
		IsPremium:   in.IsPremium,
		Price:       in.Price,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Create(ctx, movie); err != nil {
		return model.Movie{}, fmt.Errorf("create movie: %w", err)
	}
	return movie, nil
}

func (s *Service) Delete(ctx context.Context, movieID string) error {
	if strings.TrimSpace(movieID) == "" {
		return ErrValidation
	}
	if s.store == nil {
		return fmt.Errorf("movie store is nil")
	}
	return s.store.Delete(ctx, movieID)
}

// UploadPoster stores the poster object and records its signed URL on the
// movie. A failed record update removes the freshly written object.
func (s *Service) UploadPoster(ctx context.Context, movieID, fileName, contentType string, body io.Reader, size int64) (string, error) {
	if strings.TrimSpace(movieID) == "" || body == nil || size <= 0 {
		return "", ErrValidation
	}
	if s.store == nil || s.storage == nil {
		return "", fmt.Errorf("catalog dependencies are not configured")
	}

	if _, err := s.store.GetByID(ctx, movieID); err != nil {
		return "", err
	}

	if err := s.storage.EnsureBucket(ctx); err != nil {
		return "", fmt.Errorf("ensure bucket: %w", err)
	}

	objectKey, err := buildPosterObjectKey(movieID, fileName)
	if err != nil {
		return "", fmt.Errorf("build object key: %w", err)
	}

	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	if err := s.storage.PutObject(ctx, objectKey, body, size, contentType); err != nil {
		return "", fmt.Errorf("put poster object: %w", err)
	}

	posterURL, err := s.storage.PresignGet(ctx, objectKey, posterURLTTL)
	if err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		return "", fmt.Errorf("presign poster url: %w", err)
	}

	if err := s.store.SetPosterURL(ctx, movieID, posterURL); err != nil {
		_ = s.storage.Delete(ctx, objectKey)
		return "", fmt.Errorf("set poster url: %w", err)
	}

	return posterURL, nil
}

func buildPosterObjectKey(movieID, fileName string) (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	ext := strings.ToLower(path.Ext(fileName))
	if ext == "" || len(ext) > 8 {
		ext = ".jpg"
	}

	return fmt.Sprintf("posters/%s/%s%s", movieID, hex.EncodeToString(buf), ext), nil
}
