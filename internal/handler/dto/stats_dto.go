package dto

import (
	"time"

	"github.com/readshelf/library-api/internal/domain/book"
)

// StatsSummaryResponse is cached as-is in Redis, so every field must survive
// a JSON round trip.
type StatsSummaryResponse struct {
	TotalBooks    int64                `json:"totalBooks"`
	TotalUsers    int64                `json:"totalUsers"`
	TotalRatings  int64                `json:"totalRatings"`
	AverageRating float64              `json:"averageRating"`
	BooksPerGenre map[string]int64     `json:"booksPerGenre"`
	TopRated      []*book.TopRatedBook `json:"topRated"`
	RecentlyAdded []*book.RecentBook   `json:"recentlyAdded"`
	GeneratedAt   time.Time            `json:"generatedAt"`
}
