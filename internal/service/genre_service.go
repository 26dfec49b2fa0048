package service

import (
	"context"
	"fmt"

	"github.com/readshelf/library-api/internal/domain/genre"
	"go.uber.org/zap"
)

type GenreService struct {
	repo   genre.Repository
	logger *zap.Logger
}

func NewGenreService(repo genre.Repository, logger *zap.Logger) *GenreService {
	return &GenreService{
		repo:   repo,
		logger: logger.Named("GenreService"),
	}
}

// List returns every genre together with the number of books tagged with it.
func (s *GenreService) List(ctx context.Context) ([]*genre.GenreWithCount, error) {
	genres, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository error listing genres: %w", err)
	}
	return genres, nil
}

func (s *GenreService) Create(ctx context.Context, name string) (*genre.Genre, error) {
	s.logger.Info("Attempting to create a new genre", zap.String("name", name))

	insertedID, err := s.repo.Create(ctx, &genre.Genre{Name: name})
	if err != nil {
		return nil, fmt.Errorf("repository error during genre creation: %w", err)
	}

	createdGenre, err := s.repo.FindByID(ctx, insertedID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created genre (id: %s): %w", insertedID, err)
	}

	s.logger.Info("Genre created", zap.String("id", createdGenre.ID.String()), zap.String("name", createdGenre.Name))
	return createdGenre, nil
}
