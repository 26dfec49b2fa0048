package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/readshelf/library-api/internal/domain/genre"
)

type CreateGenreRequest struct {
	Name string `json:"name" binding:"required,min=2,max=64"`
}

type GenreResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	BookCount int64     `json:"book_count"`
	CreatedAt time.Time `json:"created_at"`
}

func NewGenreResponse(g *genre.GenreWithCount) *GenreResponse {
	return &GenreResponse{
		ID:        g.ID,
		Name:      g.Name,
		BookCount: g.BookCount,
		CreatedAt: g.CreatedAt,
	}
}
