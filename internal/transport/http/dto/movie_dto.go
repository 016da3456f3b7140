package dto

import (
	"time"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
	"github.com/beastcodes27/movie-backend/internal/pkg/money"
)

type MovieResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	Genres      []string  `json:"genres,omitempty"`
	PosterURL   string    `json:"poster_url,omitempty"`
	TrailerURL  string    `json:"trailer_url,omitempty"`
	IsPremium   bool      `json:"is_premium"`
	Price       float64   `json:"price"`
	PriceLabel  string    `json:"price_label,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type MovieListResponse struct {
	Movies []MovieResponse `json:"movies"`
}

type CreateMovieRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Genres      []string `json:"genres"`
	TrailerURL  string   `json:"trailer_url"`
	IsPremium   bool     `json:"is_premium"`
	Price       float64  `json:"price"`
}

type PosterUploadResponse struct {
	OK        bool   `json:"ok"`
	PosterURL string `json:"poster_url"`
}

func MovieFromModel(movie model.Movie) MovieResponse {
	out := MovieResponse{
		ID:          movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		Category:    movie.Category,
		Genres:      movie.Genres,
		PosterURL:   movie.PosterURL,
		TrailerURL:  movie.TrailerURL,
		IsPremium:   movie.IsPremium,
		Price:       movie.Price,
		CreatedAt:   movie.CreatedAt,
	}
	if movie.IsPremium && movie.Price > 0 {
		out.PriceLabel = money.FormatTZS(movie.Price)
	}
	return out
}

func MoviesFromModels(movies []model.Movie) []MovieResponse {
	out := make([]MovieResponse, 0, len(movies))
	for _, movie := range movies {
		out = append(out, MovieFromModel(movie))
	}
	return out
}
