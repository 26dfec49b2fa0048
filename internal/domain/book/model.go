package book

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Book is the catalog aggregate. Genres come from the book_genres join table
// and the rating aggregate is computed from the ratings table at query time,
// so neither is a column on books.
type Book struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	Title         string         `db:"title" json:"title"`
	Author        string         `db:"author" json:"author"`
	ISBN          sql.NullString `db:"isbn" json:"isbn,omitempty"`
	Description   sql.NullString `db:"description" json:"description,omitempty"`
	PublishedYear sql.NullInt32  `db:"published_year" json:"published_year,omitempty"`
	PageCount     sql.NullInt32  `db:"page_count" json:"page_count,omitempty"`
	Genres        []string       `json:"genres"`
	AverageRating float64        `json:"average_rating"`
	RatingsCount  int64          `json:"ratings_count"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// Rating is one user's score for one book. (book_id, user_id) is unique;
// rating again overwrites the previous value.
type Rating struct {
	BookID    uuid.UUID `db:"book_id"`
	UserID    uuid.UUID `db:"user_id"`
	Value     int       `db:"value"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

const (
	RatingMin = 1
	RatingMax = 5
)

// ListParams narrows and orders a catalog listing.
type ListParams struct {
	Search    *string
	Genre     *string
	Author    *string
	MinRating *float64
	Limit     int
	Offset    int
	SortBy    string
	SortOrder string
}

// TopRatedBook is a stats projection: books ranked by average rating with a
// minimum ratings-count cutoff.
type TopRatedBook struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	AverageRating float64   `json:"average_rating"`
	RatingsCount  int64     `json:"ratings_count"`
}

// RecentBook is a stats projection: the latest additions to the catalog.
type RecentBook struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"created_at"`
}
