package catalog

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
)

type storeStub struct {
	movies    map[string]model.Movie
	created   []model.Movie
	posterURL map[string]string
	setErr    error
}

func newStoreStub() *storeStub {
	return &storeStub{
		movies:    make(map[string]model.Movie),
		posterURL: make(map[string]string),
	}
}

func (s *storeStub) GetByID(_ context.Context, movieID string) (model.Movie, error) {
	movie, ok := s.movies[movieID]
	if !ok {
		return model.Movie{}, ErrMovieNotFound
	}
	return movie, nil
}

func (s *storeStub) List(_ context.Context, category string) ([]model.Movie, error) {
	var out []model.Movie
	for _, movie := range s.movies {
		if category == "" || movie.Category == category {
			out = append(out, movie)
		}
	}
	return out, nil
}

func (s *storeStub) Search(_ context.Context, query string) ([]model.Movie, error) {
	var out []model.Movie
	for _, movie := range s.movies {
		if strings.Contains(strings.ToLower(movie.Title), strings.ToLower(query)) {
			out = append(out, movie)
		}
	}
	return out, nil
}

func (s *storeStub) Create(_ context.Context, movie model.Movie) error {
	s.created = append(s.created, movie)
	s.movies[movie.ID] = movie
	return nil
}

func (s *storeStub) SetPosterURL(_ context.Context, movieID, posterURL string) error {
	if s.setErr != nil {
		return s.setErr
	}
	s.posterURL[movieID] = posterURL
	return nil
}

func (s *storeStub) Delete(_ context.Context, movieID string) error {
	delete(s.movies, movieID)
	return nil
}

type storageStub struct {
	objects map[string]string
	deletes []string
}

func newStorageStub() *storageStub {
	return &storageStub{objects: make(map[string]string)}
}

func (s *storageStub) EnsureBucket(context.Context) error {
	return nil
}

func (s *storageStub) PutObject(_ context.Context, key string, _ io.Reader, _ int64, contentType string) error {
	s.objects[key] = contentType
	return nil
}

func (s *storageStub) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (s *storageStub) Delete(_ context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return nil
}

func newCatalogService(store Store, storage ObjectStorage) *Service {
	svc := NewService(store, storage)
	svc.now = func() time.Time {
		return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	svc.newID = func() string { return "movie-1" }
	return svc
}

func TestCreateMovie(t *testing.T) {
	store := newStoreStub()
	svc := newCatalogService(store, nil)

	movie, err := svc.Create(context.Background(), CreateMovieInput{
		Title:     "  The Heist  ",
		Category:  "Action",
		Genres:    []string{"Thriller"},
		IsPremium: true,
		Price:     5000,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if movie.ID == "" || movie.Title != "The Heist" {
		t.Fatalf("unexpected movie: %+v", movie)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one stored movie, got %d", len(store.created))
	}
}

func TestCreateMovieValidation(t *testing.T) {
	svc := newCatalogService(newStoreStub(), nil)

	if _, err := svc.Create(context.Background(), CreateMovieInput{Title: "  "}); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank title: want ErrValidation, got %v", err)
	}
	if _, err := svc.Create(context.Background(), CreateMovieInput{Title: "X", IsPremium: true, Price: 0}); !errors.Is(err, ErrValidation) {
		t.Fatalf("premium without price: want ErrValidation, got %v", err)
	}
}

func TestSearchFallsBackToListOnEmptyQuery(t *testing.T) {
	store := newStoreStub()
	store.movies["a"] = model.Movie{ID: "a", Title: "Alpha"}
	store.movies["b"] = model.Movie{ID: "b", Title: "Beta"}
	svc := newCatalogService(store, nil)

	movies, err := svc.Search(context.Background(), "   ")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("empty query must list everything, got %d", len(movies))
	}

	movies, err = svc.Search(context.Background(), "alp")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(movies) != 1 || movies[0].ID != "a" {
		t.Fatalf("unexpected search result: %v", movies)
	}
}

func TestUploadPosterStoresObjectAndURL(t *testing.T) {
	store := newStoreStub()
	store.movies["m1"] = model.Movie{ID: "m1", Title: "Alpha"}
	storage := newStorageStub()
	svc := newCatalogService(store, storage)

	url, err := svc.UploadPoster(context.Background(), "m1", "poster.PNG", "image/png", strings.NewReader("img"), 3)
	if err != nil {
		t.Fatalf("upload poster: %v", err)
	}
	if !strings.HasPrefix(url, "https://cdn.test/posters/m1/") {
		t.Fatalf("unexpected poster url: %s", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Fatalf("extension must come from the file name: %s", url)
	}
	if store.posterURL["m1"] != url {
		t.Fatalf("poster url must be persisted, got %q", store.posterURL["m1"])
	}
	if len(storage.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(storage.objects))
	}
}

func TestUploadPosterUnknownMovie(t *testing.T) {
	svc := newCatalogService(newStoreStub(), newStorageStub())

	_, err := svc.UploadPoster(context.Background(), "missing", "p.jpg", "image/jpeg", strings.NewReader("img"), 3)
	if !errors.Is(err, ErrMovieNotFound) {
		t.Fatalf("want ErrMovieNotFound, got %v", err)
	}
}

func TestUploadPosterCleansUpOnRecordFailure(t *testing.T) {
	store := newStoreStub()
	store.movies["m1"] = model.Movie{ID: "m1"}
	store.setErr = errors.New("db down")
	storage := newStorageStub()
	svc := newCatalogService(store, storage)

	_, err := svc.UploadPoster(context.Background(), "m1", "p.jpg", "image/jpeg", strings.NewReader("img"), 3)
	if err == nil {
		t.Fatal("record failure must surface")
	}
	if len(storage.deletes) != 1 {
		t.Fatalf("orphaned object must be deleted, got %v", storage.deletes)
	}
}
