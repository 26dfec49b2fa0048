package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/readshelf/library-api/internal/domain/book"
)

type CreateBookRequest struct {
	Title         string   `json:"title" binding:"required,max=255"`
	Author        string   `json:"author" binding:"required,max=255"`
	ISBN          *string  `json:"isbn" binding:"omitempty,isbn"`
	Description   *string  `json:"description" binding:"omitempty,max=2000"`
	PublishedYear *int32   `json:"published_year" binding:"omitempty,gte=1000,lte=2100"`
	PageCount     *int32   `json:"page_count" binding:"omitempty,gt=0"`
	Genres        []string `json:"genres" binding:"omitempty,max=16,dive,required,max=64"`
}

type UpdateBookRequest struct {
	Title         *string   `json:"title" binding:"omitempty,min=1,max=255"`
	Author        *string   `json:"author" binding:"omitempty,min=1,max=255"`
	ISBN          *string   `json:"isbn" binding:"omitempty,isbn"`
	Description   *string   `json:"description" binding:"omitempty,max=2000"`
	PublishedYear *int32    `json:"published_year" binding:"omitempty,gte=1000,lte=2100"`
	PageCount     *int32    `json:"page_count" binding:"omitempty,gt=0"`
	Genres        *[]string `json:"genres" binding:"omitempty,max=16,dive,required,max=64"`
}

type BookResponse struct {
	ID            uuid.UUID `json:"id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	ISBN          *string   `json:"isbn,omitempty"`
	Description   *string   `json:"description,omitempty"`
	PublishedYear *int32    `json:"published_year,omitempty"`
	PageCount     *int32    `json:"page_count,omitempty"`
	Genres        []string  `json:"genres"`
	AverageRating float64   `json:"average_rating"`
	RatingsCount  int64     `json:"ratings_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewBookResponse(b *book.Book) *BookResponse {
	resp := &BookResponse{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Genres:        b.Genres,
		AverageRating: b.AverageRating,
		RatingsCount:  b.RatingsCount,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if resp.Genres == nil {
		resp.Genres = []string{}
	}
	if b.ISBN.Valid {
		resp.ISBN = &b.ISBN.String
	}
	if b.Description.Valid {
		resp.Description = &b.Description.String
	}
	if b.PublishedYear.Valid {
		resp.PublishedYear = &b.PublishedYear.Int32
	}
	if b.PageCount.Valid {
		resp.PageCount = &b.PageCount.Int32
	}
	return resp
}

type ListBooksRequest struct {
	Search    *string  `form:"search" binding:"omitempty,max=255"`
	Genre     *string  `form:"genre" binding:"omitempty,max=64"`
	Author    *string  `form:"author" binding:"omitempty,max=255"`
	MinRating *float64 `form:"min_rating" binding:"omitempty,gte=0,lte=5"`
	Limit     int      `form:"limit,default=20" binding:"omitempty,gte=1,lte=100"`
	Offset    int      `form:"offset,default=0" binding:"omitempty,gte=0"`
	SortBy    string   `form:"sort_by,default=created_at" binding:"omitempty,oneof=created_at title author average_rating published_year"`
	SortOrder string   `form:"sort_order,default=DESC" binding:"omitempty,oneof=ASC DESC"`
}

type PaginatedBooksResponse struct {
	Books      []*BookResponse `json:"books"`
	TotalCount int64           `json:"totalCount"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

type RateBookRequest struct {
	Value int `json:"value" binding:"required,gte=1,lte=5"`
}

// RatingResponse returns the refreshed aggregate after a rating is stored.
type RatingResponse struct {
	BookID        uuid.UUID `json:"book_id"`
	AverageRating float64   `json:"average_rating"`
	RatingsCount  int64     `json:"ratings_count"`
}

type ReplaceGenresRequest struct {
	Genres []string `json:"genres" binding:"omitempty,max=16,dive,required,max=64"`
}
