package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/beastcodes27/movie-backend/internal/domain/model"
	catalogsvc "github.com/beastcodes27/movie-backend/internal/services/catalog"
)

const movieColumns = "id, title, description, category, genres, poster_url, trailer_url, is_premium, price, created_at"

type MovieRepo struct {
	pool *pgxpool.Pool
}

func NewMovieRepo(pool *pgxpool.Pool) *MovieRepo {
	return &MovieRepo{pool: pool}
}

func (r *MovieRepo) GetByID(ctx context.Context, movieID string) (model.Movie, error) {
	if r.pool == nil {
		return model.Movie{}, fmt.Errorf("postgres pool is nil")
	}

	movie, err := scanMovie(r.pool.QueryRow(ctx, `
SELECT `+movieColumns+`
FROM movies
WHERE id = $1
`, movieID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Movie{}, catalogsvc.ErrMovieNotFound
		}
		return model.Movie{}, fmt.Errorf("find movie by id: %w", err)
	}

	return movie, nil
}

func (r *MovieRepo) List(ctx context.Context, category string) ([]model.Movie, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	query := `
SELECT ` + movieColumns + `
FROM movies
ORDER BY created_at DESC
`
	args := []any{}
	if strings.TrimSpace(category) != "" {
		query = `
SELECT ` + movieColumns + `
FROM movies
WHERE category = $1
ORDER BY created_at DESC
`
		args = append(args, strings.TrimSpace(category))
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer rows.Close()

	return collectMovies(rows)
}

func (r *MovieRepo) Search(ctx context.Context, query string) ([]model.Movie, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	pattern := "%" + strings.TrimSpace(query) + "%"
	rows, err := r.pool.Query(ctx, `
SELECT `+movieColumns+`
FROM movies
WHERE title ILIKE $1
   OR description ILIKE $1
   OR category ILIKE $1
ORDER BY created_at DESC
`, pattern)
	if err != nil {
		return nil, fmt.Errorf("search movies: %w", err)
	}
	defer rows.Close()

	return collectMovies(rows)
}

func (r *MovieRepo) Create(ctx context.Context, movie model.Movie) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	_, err := r.pool.Exec(ctx, `
INSERT INTO movies (
	id,
	title,
	description,
	category,
	genres,
	poster_url,
	trailer_url,
	is_premium,
	price,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`,
		movie.ID,
		movie.Title,
		movie.Description,
		movie.Category,
		movie.Genres,
		movie.PosterURL,
		movie.TrailerURL,
		movie.IsPremium,
		movie.Price,
		movie.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert movie: %w", err)
	}
	return nil
}

func (r *MovieRepo) SetPosterURL(ctx context.Context, movieID, posterURL string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
UPDATE movies
SET poster_url = $2
WHERE id = $1
`, movieID, posterURL)
	if err != nil {
		return fmt.Errorf("update movie poster: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalogsvc.ErrMovieNotFound
	}
	return nil
}

func (r *MovieRepo) Delete(ctx context.Context, movieID string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `
DELETE FROM movies
WHERE id = $1
`, movieID)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalogsvc.ErrMovieNotFound
	}
	return nil
}

func scanMovie(row pgx.Row) (model.Movie, error) {
	var movie model.Movie
	if err := row.Scan(
		&movie.ID,
		&movie.Title,
		&movie.Description,
		&movie.Category,
		&movie.Genres,
		&movie.PosterURL,
		&movie.TrailerURL,
		&movie.IsPremium,
		&movie.Price,
		&movie.CreatedAt,
	); err != nil {
		return model.Movie{}, err
	}
	return movie, nil
}

func collectMovies(rows pgx.Rows) ([]model.Movie, error) {
	movies := make([]model.Movie, 0)
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movie row: %w", err)
		}
		movies = append(movies, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate movie rows: %w", err)
	}
	return movies, nil
}
