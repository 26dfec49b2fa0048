package service

import (
	"context"
	"fmt"
	"time"

	"github.com/readshelf/library-api/internal/domain/book"
	"github.com/readshelf/library-api/internal/domain/user"
	"github.com/readshelf/library-api/internal/handler/dto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	topRatedMinRatings = 1
	topRatedLimit      = 5
	recentlyAddedLimit = 5
)

// StatsCache stores the pre-built summary. A miss is (nil, nil); errors mean
// the cache itself is unreachable.
type StatsCache interface {
	GetSummary(ctx context.Context) (*dto.StatsSummaryResponse, error)
	SetSummary(ctx context.Context, summary *dto.StatsSummaryResponse, ttl time.Duration) error
}

type StatsService struct {
	books  book.Repository
	users  user.Repository
	cache  StatsCache
	ttl    time.Duration
	logger *zap.Logger
}

func NewStatsService(books book.Repository, users user.Repository, cache StatsCache, ttl time.Duration, logger *zap.Logger) *StatsService {
	return &StatsService{
		books:  books,
		users:  users,
		cache:  cache,
		ttl:    ttl,
		logger: logger.Named("StatsService"),
	}
}

// Summary returns the cached catalog summary, falling back to a direct
// computation when the cache misses or is unreachable.
func (s *StatsService) Summary(ctx context.Context) (*dto.StatsSummaryResponse, error) {
	cached, err := s.cache.GetSummary(ctx)
	if err != nil {
		s.logger.Warn("Stats cache unavailable, computing summary directly", zap.Error(err))
	} else if cached != nil {
		return cached, nil
	}

	summary, err := s.computeSummary(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetSummary(ctx, summary, s.ttl); err != nil {
		s.logger.Warn("Failed to store stats summary in cache", zap.Error(err))
	}

	return summary, nil
}

// Refresh recomputes the summary and overwrites the cached copy. The periodic
// background task calls this so interactive requests mostly hit the cache.
func (s *StatsService) Refresh(ctx context.Context) error {
	summary, err := s.computeSummary(ctx)
	if err != nil {
		return err
	}

	if err := s.cache.SetSummary(ctx, summary, s.ttl); err != nil {
		return fmt.Errorf("failed to store refreshed stats summary: %w", err)
	}

	s.logger.Info("Stats summary refreshed",
		zap.Int64("total_books", summary.TotalBooks),
		zap.Int64("total_ratings", summary.TotalRatings),
	)
	return nil
}

// computeSummary runs the aggregate queries concurrently. Each goroutine
// writes a distinct field, so no locking is needed.
func (s *StatsService) computeSummary(ctx context.Context) (*dto.StatsSummaryResponse, error) {
	var summary dto.StatsSummaryResponse

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.books.CountAll(gctx)
		if err != nil {
			return fmt.Errorf("counting books: %w", err)
		}
		summary.TotalBooks = n
		return nil
	})
	g.Go(func() error {
		n, err := s.users.Count(gctx)
		if err != nil {
			return fmt.Errorf("counting users: %w", err)
		}
		summary.TotalUsers = n
		return nil
	})
	g.Go(func() error {
		n, err := s.books.CountRatings(gctx)
		if err != nil {
			return fmt.Errorf("counting ratings: %w", err)
		}
		summary.TotalRatings = n
		return nil
	})
	g.Go(func() error {
		avg, err := s.books.OverallAverageRating(gctx)
		if err != nil {
			return fmt.Errorf("computing overall average rating: %w", err)
		}
		summary.AverageRating = avg
		return nil
	})
	g.Go(func() error {
		perGenre, err := s.books.CountPerGenre(gctx)
		if err != nil {
			return fmt.Errorf("counting books per genre: %w", err)
		}
		summary.BooksPerGenre = perGenre
		return nil
	})
	g.Go(func() error {
		top, err := s.books.TopRated(gctx, topRatedMinRatings, topRatedLimit)
		if err != nil {
			return fmt.Errorf("fetching top rated books: %w", err)
		}
		summary.TopRated = top
		return nil
	})
	g.Go(func() error {
		recent, err := s.books.RecentlyAdded(gctx, recentlyAddedLimit)
		if err != nil {
			return fmt.Errorf("fetching recently added books: %w", err)
		}
		summary.RecentlyAdded = recent
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary.GeneratedAt = time.Now().UTC()
	return &summary, nil
}
