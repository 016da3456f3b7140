package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
	catalogsvc "github.com/beastcodes27/movie-backend/internal/services/catalog"
	"github.com/beastcodes27/movie-backend/internal/transport/http/dto"
	httperrors "github.com/beastcodes27/movie-backend/internal/transport/http/errors"
)

const maxPosterUploadBytes = 10 << 20

type MoviesHandler struct {
	catalog *catalogsvc.Service
}

func NewMoviesHandler(catalog *catalogsvc.Service) *MoviesHandler {
	return &MoviesHandler{catalog: catalog}
}

// List serves the catalog. "q" searches; "category" narrows a plain listing.
func (h *MoviesHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	query := r.URL.Query().Get("q")
	category := r.URL.Query().Get("category")

	var (
		movies []model.Movie
		err    error
	)
	if query != "" {
		movies, err = h.catalog.Search(r.Context(), query)
	} else {
		movies, err = h.catalog.List(r.Context(), category)
	}
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MovieListResponse{
		Movies: dto.MoviesFromModels(movies),
	})
}

func (h *MoviesHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	movie, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.MovieFromModel(movie))
}

func (h *MoviesHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	var req dto.CreateMovieRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid request body")
		return
	}

	movie, err := h.catalog.Create(r.Context(), catalogsvc.CreateMovieInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Genres:      req.Genres,
		TrailerURL:  req.TrailerURL,
		IsPremium:   req.IsPremium,
		Price:       req.Price,
	})
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusCreated, dto.MovieFromModel(movie))
}

func (h *MoviesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *MoviesHandler) UploadPoster(w http.ResponseWriter, r *http.Request) {
	if h.catalog == nil {
		writeInternal(w, "CATALOG_SERVICE_UNAVAILABLE", "catalog service is unavailable")
		return
	}

	if err := r.ParseMultipartForm(maxPosterUploadBytes); err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("poster")
	if err != nil {
		writeBadRequest(w, "INVALID_REQUEST", "poster file is required")
		return
	}
	defer func() { _ = file.Close() }()

	posterURL, err := h.catalog.UploadPoster(
		r.Context(),
		chi.URLParam(r, "id"),
		header.Filename,
		header.Header.Get("Content-Type"),
		file,
		header.Size,
	)
	if err != nil {
		handleCatalogError(w, err)
		return
	}

	httperrors.Write(w, http.StatusOK, dto.PosterUploadResponse{
		OK:        true,
		PosterURL: posterURL,
	})
}

func handleCatalogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalogsvc.ErrValidation):
		writeBadRequest(w, "VALIDATION_ERROR", "invalid movie payload")
	case errors.Is(err, catalogsvc.ErrMovieNotFound):
		writeNotFound(w, "MOVIE_NOT_FOUND", "movie not found")
	default:
		writeInternal(w, "INTERNAL_ERROR", "catalog operation failed")
	}
}
