package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/readshelf/library-api/internal/domain/book"
	"github.com/readshelf/library-api/internal/handler/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockStatsCache implements StatsCache for testing
type MockStatsCache struct {
	mock.Mock
}

func (m *MockStatsCache) GetSummary(ctx context.Context) (*dto.StatsSummaryResponse, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.StatsSummaryResponse), args.Error(1)
}

func (m *MockStatsCache) SetSummary(ctx context.Context, summary *dto.StatsSummaryResponse, ttl time.Duration) error {
	args := m.Called(ctx, summary, ttl)
	return args.Error(0)
}

const testStatsTTL = 10 * time.Minute

func newStatsFixture() (*MockBookRepository, *MockUserRepository, *MockStatsCache, *StatsService) {
	books := new(MockBookRepository)
	users := new(MockUserRepository)
	cache := new(MockStatsCache)
	svc := NewStatsService(books, users, cache, testStatsTTL, zap.NewNop())
	return books, users, cache, svc
}

func armAggregates(books *MockBookRepository, users *MockUserRepository) {
	books.On("CountAll", mock.Anything).Return(int64(12), nil)
	users.On("Count", mock.Anything).Return(int64(4), nil)
	books.On("CountRatings", mock.Anything).Return(int64(30), nil)
	books.On("OverallAverageRating", mock.Anything).Return(3.8, nil)
	books.On("CountPerGenre", mock.Anything).Return(map[string]int64{"Fantasy": 7, "History": 5}, nil)
	books.On("TopRated", mock.Anything, 1, 5).
		Return([]*book.TopRatedBook{{Title: "Dune", AverageRating: 4.9, RatingsCount: 12}}, nil)
	books.On("RecentlyAdded", mock.Anything, 5).
		Return([]*book.RecentBook{{Title: "Most Recent"}}, nil)
}

func TestStatsService_Summary_ReturnsCachedCopy(t *testing.T) {
	books, _, cache, svc := newStatsFixture()

	cached := &dto.StatsSummaryResponse{TotalBooks: 42, GeneratedAt: time.Now().UTC()}
	cache.On("GetSummary", mock.Anything).Return(cached, nil)

	summary, err := svc.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(42), summary.TotalBooks)
	books.AssertNotCalled(t, "CountAll", mock.Anything)
	cache.AssertNotCalled(t, "SetSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsService_Summary_ComputesOnMiss(t *testing.T) {
	books, users, cache, svc := newStatsFixture()

	cache.On("GetSummary", mock.Anything).Return(nil, nil)
	armAggregates(books, users)
	cache.On("SetSummary", mock.Anything, mock.AnythingOfType("*dto.StatsSummaryResponse"), testStatsTTL).Return(nil)

	summary, err := svc.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(12), summary.TotalBooks)
	assert.Equal(t, int64(4), summary.TotalUsers)
	assert.Equal(t, int64(30), summary.TotalRatings)
	assert.Equal(t, 3.8, summary.AverageRating)
	assert.Equal(t, map[string]int64{"Fantasy": 7, "History": 5}, summary.BooksPerGenre)
	require.Len(t, summary.TopRated, 1)
	assert.Equal(t, "Dune", summary.TopRated[0].Title)
	require.Len(t, summary.RecentlyAdded, 1)
	assert.WithinDuration(t, time.Now().UTC(), summary.GeneratedAt, 10*time.Second)

	cache.AssertExpectations(t)
}

func TestStatsService_Summary_FallsBackWhenCacheUnavailable(t *testing.T) {
	books, users, cache, svc := newStatsFixture()

	cache.On("GetSummary", mock.Anything).Return(nil, errors.New("redis: connection refused"))
	armAggregates(books, users)
	cache.On("SetSummary", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis: connection refused"))

	summary, err := svc.Summary(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(12), summary.TotalBooks)
}

func TestStatsService_Summary_AggregateFailure(t *testing.T) {
	books, users, cache, svc := newStatsFixture()

	cache.On("GetSummary", mock.Anything).Return(nil, nil)
	books.On("CountAll", mock.Anything).Return(int64(0), errors.New("relation does not exist"))
	users.On("Count", mock.Anything).Return(int64(0), nil)
	books.On("CountRatings", mock.Anything).Return(int64(0), nil)
	books.On("OverallAverageRating", mock.Anything).Return(0.0, nil)
	books.On("CountPerGenre", mock.Anything).Return(map[string]int64{}, nil)
	books.On("TopRated", mock.Anything, 1, 5).Return([]*book.TopRatedBook{}, nil)
	books.On("RecentlyAdded", mock.Anything, 5).Return([]*book.RecentBook{}, nil)

	_, err := svc.Summary(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "counting books")
	cache.AssertNotCalled(t, "SetSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestStatsService_Refresh_StoresFreshSummary(t *testing.T) {
	books, users, cache, svc := newStatsFixture()

	armAggregates(books, users)

	var stored *dto.StatsSummaryResponse
	cache.On("SetSummary", mock.Anything, mock.AnythingOfType("*dto.StatsSummaryResponse"), testStatsTTL).
		Run(func(args mock.Arguments) { stored = args.Get(1).(*dto.StatsSummaryResponse) }).
		Return(nil)

	err := svc.Refresh(context.Background())

	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, int64(12), stored.TotalBooks)
	cache.AssertNotCalled(t, "GetSummary", mock.Anything)
}

func TestStatsService_Refresh_CacheWriteFailure(t *testing.T) {
	books, users, cache, svc := newStatsFixture()

	armAggregates(books, users)
	cache.On("SetSummary", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis: connection refused"))

	err := svc.Refresh(context.Background())

	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to store refreshed stats summary")
}
