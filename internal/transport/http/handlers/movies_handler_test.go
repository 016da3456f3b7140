package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
	catalogsvc "github.com/beastcodes27/movie-backend/internal/services/catalog"
	"github.com/beastcodes27/movie-backend/internal/transport/http/dto"
)

func newMoviesTestHandler(seed ...model.Movie) (*MoviesHandler, *movieCatalogStore, *posterStorageStub) {
	store := &movieCatalogStore{movies: make(map[string]model.Movie)}
	for _, movie := range seed {
		store.movies[movie.ID] = movie
	}
	storage := &posterStorageStub{objects: make(map[string][]byte)}
	return NewMoviesHandler(catalogsvc.NewService(store, storage)), store, storage
}

func chiRequest(method, target, paramKey, paramValue string, body io.Reader) *http.Request {
	req := httptest.NewRequest(method, target, body)
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(paramKey, paramValue)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func TestMoviesListReturnsCatalog(t *testing.T) {
	handler, _, _ := newMoviesTestHandler(
		model.Movie{ID: "movie-1", Title: "Safari ya Mwisho", Category: "drama"},
		model.Movie{ID: "movie-2", Title: "Usiku wa Giza", Category: "thriller", IsPremium: true, Price: 3000},
	)

	rr := httptest.NewRecorder()
	handler.List(rr, httptest.NewRequest(http.MethodGet, "/movies", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload dto.MovieListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Movies) != 2 {
		t.Fatalf("unexpected movie count: got %d want 2", len(payload.Movies))
	}

	var premium *dto.MovieResponse
	for i := range payload.Movies {
		if payload.Movies[i].ID == "movie-2" {
			premium = &payload.Movies[i]
		}
	}
	if premium == nil {
		t.Fatalf("premium movie missing from listing")
	}
	if premium.PriceLabel == "" {
		t.Fatalf("premium movie must carry a formatted price")
	}
}

func TestMoviesListSearchQuery(t *testing.T) {
	handler, _, _ := newMoviesTestHandler(
		model.Movie{ID: "movie-1", Title: "Safari ya Mwisho"},
		model.Movie{ID: "movie-2", Title: "Usiku wa Giza"},
	)

	rr := httptest.NewRecorder()
	handler.List(rr, httptest.NewRequest(http.MethodGet, "/movies?q=safari", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusOK)
	}

	var payload dto.MovieListResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(payload.Movies) != 1 || payload.Movies[0].ID != "movie-1" {
		t.Fatalf("unexpected search result: %+v", payload.Movies)
	}
}

func TestMoviesGetUnknownID(t *testing.T) {
	handler, _, _ := newMoviesTestHandler()

	rr := httptest.NewRecorder()
	handler.Get(rr, chiRequest(http.MethodGet, "/movies/missing", "id", "missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}

func TestMoviesCreatePersistsMovie(t *testing.T) {
	handler, store, _ := newMoviesTestHandler()

	body, _ := json.Marshal(dto.CreateMovieRequest{
		Title:     "Mji wa Ndoto",
		Category:  "drama",
		Genres:    []string{"drama", "family"},
		IsPremium: true,
		Price:     4000,
	})
	rr := httptest.NewRecorder()
	handler.Create(rr, httptest.NewRequest(http.MethodPost, "/movies", bytes.NewReader(body)))

	if rr.Code != http.StatusCreated {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	var payload dto.MovieResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if payload.ID == "" {
		t.Fatalf("created movie must carry an id")
	}
	if _, ok := store.movies[payload.ID]; !ok {
		t.Fatalf("created movie not persisted")
	}
}

func TestMoviesCreateRejectsPremiumWithoutPrice(t *testing.T) {
	handler, _, _ := newMoviesTestHandler()

	body, _ := json.Marshal(dto.CreateMovieRequest{Title: "Bei Sifuri", IsPremium: true})
	rr := httptest.NewRecorder()
	handler.Create(rr, httptest.NewRequest(http.MethodPost, "/movies", bytes.NewReader(body)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestMoviesUploadPosterStoresObjectAndURL(t *testing.T) {
	handler, store, storage := newMoviesTestHandler(
		model.Movie{ID: "movie-1", Title: "Safari ya Mwisho"},
	)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("poster", "cover.png")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("png-bytes")); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}

	req := chiRequest(http.MethodPost, "/movies/movie-1/poster", "id", "movie-1", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rr := httptest.NewRecorder()
	handler.UploadPoster(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: got %d want %d, body %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var payload dto.PosterUploadResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !payload.OK || !strings.HasSuffix(payload.PosterURL, ".png") {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if len(storage.objects) != 1 {
		t.Fatalf("expected exactly one stored object, got %d", len(storage.objects))
	}
	if store.movies["movie-1"].PosterURL != payload.PosterURL {
		t.Fatalf("poster url not persisted on the movie record")
	}
}

func TestMoviesDeleteUnknownID(t *testing.T) {
	handler, _, _ := newMoviesTestHandler()

	rr := httptest.NewRecorder()
	handler.Delete(rr, chiRequest(http.MethodDelete, "/movies/missing", "id", "missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: got %d want %d", rr.Code, http.StatusNotFound)
	}
}

type movieCatalogStore struct {
	movies map[string]model.Movie
}

func (s *movieCatalogStore) GetByID(_ context.Context, movieID string) (model.Movie, error) {
	movie, ok := s.movies[movieID]
	if !ok {
		return model.Movie{}, catalogsvc.ErrMovieNotFound
	}
	return movie, nil
}

func (s *movieCatalogStore) List(_ context.Context, category string) ([]model.Movie, error) {
	var out []model.Movie
	for _, movie := range s.movies {
		if category == "" || movie.Category == category {
			out = append(out, movie)
		}
	}
	return out, nil
}

func (s *movieCatalogStore) Search(_ context.Context, query string) ([]model.Movie, error) {
	needle := strings.ToLower(query)
	var out []model.Movie
	for _, movie := range s.movies {
		if strings.Contains(strings.ToLower(movie.Title), needle) {
			out = append(out, movie)
		}
	}
	return out, nil
}

func (s *movieCatalogStore) Create(_ context.Context, movie model.Movie) error {
	s.movies[movie.ID] = movie
	return nil
}

func (s *movieCatalogStore) SetPosterURL(_ context.Context, movieID, posterURL string) error {
	movie, ok := s.movies[movieID]
	if !ok {
		return catalogsvc.ErrMovieNotFound
	}
	movie.PosterURL = posterURL
	s.movies[movieID] = movie
	return nil
}

func (s *movieCatalogStore) Delete(_ context.Context, movieID string) error {
	if _, ok := s.movies[movieID]; !ok {
		return catalogsvc.ErrMovieNotFound
	}
	delete(s.movies, movieID)
	return nil
}

type posterStorageStub struct {
	objects map[string][]byte
}

func (s *posterStorageStub) EnsureBucket(context.Context) error { return nil }

func (s *posterStorageStub) PutObject(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *posterStorageStub) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://cdn.test/" + key, nil
}

func (s *posterStorageStub) Delete(_ context.Context, key string) error {
	delete(s.objects, key)
	return nil
}
