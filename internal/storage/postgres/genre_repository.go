package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/readshelf/library-api/internal/domain/genre"
	"github.com/readshelf/library-api/internal/ierr"
	"go.uber.org/zap"
)

type GenreRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewGenreRepository(db *pgxpool.Pool, logger *zap.Logger) *GenreRepository {
	return &GenreRepository{
		db:     db,
		logger: logger.Named("GenreRepository"),
	}
}

var _ genre.Repository = (*GenreRepository)(nil)

func (r *GenreRepository) Create(ctx context.Context, g *genre.Genre) (uuid.UUID, error) {
	query := `
        INSERT INTO genres (name)
        VALUES ($1)
        RETURNING id
    `

	var insertedID uuid.UUID
	err := r.db.QueryRow(ctx, query, g.Name).Scan(&insertedID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Attempted to create duplicate genre", zap.String("name", g.Name))
			return uuid.Nil, ierr.ErrDuplicateGenre
		}

		r.logger.Error("Failed to create genre in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error on create genre: %w", err)
	}

	r.logger.Info("Genre created successfully", zap.String("id", insertedID.String()), zap.String("name", g.Name))
	return insertedID, nil
}

func (r *GenreRepository) FindByID(ctx context.Context, id uuid.UUID) (*genre.Genre, error) {
	query := `
        SELECT id, name, created_at
        FROM genres
        WHERE id = $1
    `

	var g genre.Genre
	err := r.db.QueryRow(ctx, query, id).Scan(&g.ID, &g.Name, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrGenreNotFound
		}

		r.logger.Error("Failed to find genre by id", zap.String("id", id.String()), zap.Error(err))
		return nil, fmt.Errorf("database error finding genre: %w", err)
	}

	return &g, nil
}

func (r *GenreRepository) List(ctx context.Context) ([]*genre.GenreWithCount, error) {
	query := `
        SELECT ge.id, ge.name, ge.created_at, COUNT(bg.book_id) AS book_count
        FROM genres ge
        LEFT JOIN book_genres bg ON bg.genre_id = ge.id
        GROUP BY ge.id, ge.name, ge.created_at
        ORDER BY ge.name ASC
    `

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query list of genres", zap.Error(err))
		return nil, fmt.Errorf("database error on list genres: %w", err)
	}
	defer rows.Close()

	genres := make([]*genre.GenreWithCount, 0)
	for rows.Next() {
		var g genre.GenreWithCount
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt, &g.BookCount); err != nil {
			r.logger.Error("Failed to scan genre row during list", zap.Error(err))
			return nil, fmt.Errorf("database scan error during list: %w", err)
		}
		genres = append(genres, &g)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating genre rows", zap.Error(err))
		return nil, fmt.Errorf("database iteration error on list genres: %w", err)
	}

	return genres, nil
}

func (r *GenreRepository) FindByNames(ctx context.Context, names []string) ([]*genre.Genre, error) {
	if len(names) == 0 {
		return []*genre.Genre{}, nil
	}

	query := `
        SELECT id, name, created_at
        FROM genres
        WHERE name = ANY($1)
    `

	rows, err := r.db.Query(ctx, query, names)
	if err != nil {
		r.logger.Error("Failed to query genres by names", zap.Error(err))
		return nil, fmt.Errorf("database error finding genres by names: %w", err)
	}
	defer rows.Close()

	genres := make([]*genre.Genre, 0, len(names))
	for rows.Next() {
		var g genre.Genre
		if err := rows.Scan(&g.ID, &g.Name, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("database scan error finding genres by names: %w", err)
		}
		genres = append(genres, &g)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("database iteration error finding genres by names: %w", err)
	}

	return genres, nil
}
