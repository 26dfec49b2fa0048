package genre

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, g *Genre) (uuid.UUID, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Genre, error)
	List(ctx context.Context) ([]*GenreWithCount, error)
	// FindByNames resolves genre names to records. Missing names are simply
	// absent from the result; the caller decides whether that is an error.
	FindByNames(ctx context.Context, names []string) ([]*Genre, error)
}
