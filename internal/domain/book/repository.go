package book

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, b *Book, genreIDs []uuid.UUID) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Book, error)
	List(ctx context.Context, params ListParams) ([]*Book, int64, error)
	Update(ctx context.Context, b *Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReplaceGenres(ctx context.Context, bookID uuid.UUID, genreIDs []uuid.UUID) error
	UpsertRating(ctx context.Context, r *Rating) error
	RatingSummary(ctx context.Context, bookID uuid.UUID) (avg float64, count int64, err error)

	// Aggregates feeding the statistics summary.
	CountAll(ctx context.Context) (int64, error)
	CountRatings(ctx context.Context) (int64, error)
	OverallAverageRating(ctx context.Context) (float64, error)
	CountPerGenre(ctx context.Context) (map[string]int64, error)
	TopRated(ctx context.Context, minRatings int, limit int) ([]*TopRatedBook, error)
	RecentlyAdded(ctx context.Context, limit int) ([]*RecentBook, error)
}
