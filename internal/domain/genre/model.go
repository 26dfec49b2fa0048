package genre

import (
	"time"

	"github.com/google/uuid"
)

type Genre struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GenreWithCount pairs a genre with the number of books tagged with it.
type GenreWithCount struct {
	Genre
	BookCount int64 `json:"book_count"`
}
