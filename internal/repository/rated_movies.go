package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Dragy007/Movie-RecS/internal/domain"
)

// RatedMoviesRepository provides persistence helpers for a user's rated movies.
// The collection is append-only; rows are never mutated after creation.
type RatedMoviesRepository struct {
	pool     *pgxpool.Pool
	notifier *Notifier
}

const ratedMovieColumns = `
    id,
    user_id,
    title,
    rating,
    summary,
    poster_kind,
    poster_value,
    release_date,
    vote_average,
    created_at
`

// AppendParams bundles the fields required to store a rated movie.
type AppendParams struct {
	UserID      string
	Title       string
	Rating      int
	Summary     string
	Poster      domain.PosterRef
	ReleaseDate *string
	VoteAverage *float64
}

// Append inserts a new rated-movie row. The creation timestamp is assigned by
// the database, never by the caller. Subscribers are notified after a
// successful insert.
func (r *RatedMoviesRepository) Append(ctx context.Context, params AppendParams) (domain.RatedMovie, error) {
	query := fmt.Sprintf(`
        INSERT INTO rated_movies (id, user_id, title, rating, summary, poster_kind, poster_value, release_date, vote_average)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING %s
    `, ratedMovieColumns)

	id := uuid.NewString()
	row := r.pool.QueryRow(ctx, query,
		id,
		params.UserID,
		params.Title,
		params.Rating,
		params.Summary,
		string(params.Poster.Kind),
		params.Poster.Value,
		params.ReleaseDate,
		params.VoteAverage,
	)
	movie, err := scanRatedMovie(row)
	if err != nil {
		return domain.RatedMovie{}, fmt.Errorf("append rated movie: %w", err)
	}

	r.notifier.Publish(params.UserID)
	return movie, nil
}

// ListByUser returns all of a user's rated movies, newest first.
func (r *RatedMoviesRepository) ListByUser(ctx context.Context, userID string) ([]domain.RatedMovie, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM rated_movies
        WHERE user_id = $1
        ORDER BY created_at DESC, id DESC
    `, ratedMovieColumns)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list rated movies: %w", err)
	}
	defer rows.Close()

	var results []domain.RatedMovie
	for rows.Next() {
		movie, err := scanRatedMovie(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, movie)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// GetByID fetches a single rated movie owned by the given user.
func (r *RatedMoviesRepository) GetByID(ctx context.Context, userID, id string) (domain.RatedMovie, error) {
	query := fmt.Sprintf(`
        SELECT %s FROM rated_movies
        WHERE user_id = $1 AND id = $2
    `, ratedMovieColumns)

	movie, err := scanRatedMovie(r.pool.QueryRow(ctx, query, userID, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.RatedMovie{}, ErrNotFound
		}
		return domain.RatedMovie{}, err
	}
	return movie, nil
}

func scanRatedMovie(row pgx.Row) (domain.RatedMovie, error) {
	var (
		movie       domain.RatedMovie
		posterKind  string
		posterValue string
	)
	err := row.Scan(
		&movie.ID,
		&movie.UserID,
		&movie.Title,
		&movie.Rating,
		&movie.Summary,
		&posterKind,
		&posterValue,
		&movie.ReleaseDate,
		&movie.VoteAverage,
		&movie.CreatedAt,
	)
	if err != nil {
		return domain.RatedMovie{}, err
	}
	movie.Poster = domain.PosterRef{Kind: domain.PosterKind(posterKind), Value: posterValue}
	return movie, nil
}
