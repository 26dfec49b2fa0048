package service

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/readshelf/library-api/internal/domain/book"
	"github.com/readshelf/library-api/internal/domain/genre"
	"github.com/readshelf/library-api/internal/handler/dto"
	"github.com/readshelf/library-api/internal/ierr"
	"go.uber.org/zap"
)

type BookService struct {
	books  book.Repository
	genres genre.Repository
	logger *zap.Logger
}

func NewBookService(books book.Repository, genres genre.Repository, logger *zap.Logger) *BookService {
	return &BookService{
		books:  books,
		genres: genres,
		logger: logger.Named("BookService"),
	}
}

func (s *BookService) Create(ctx context.Context, req *dto.CreateBookRequest) (*book.Book, error) {
	s.logger.Info("Attempting to create a new book", zap.String("title", req.Title), zap.String("author", req.Author))

	genreIDs, err := s.resolveGenreIDs(ctx, req.Genres)
	if err != nil {
		return nil, err
	}

	newBook := &book.Book{
		Title:  req.Title,
		Author: req.Author,
	}
	if req.ISBN != nil {
		newBook.ISBN = sql.NullString{String: *req.ISBN, Valid: true}
	}
	if req.Description != nil {
		newBook.Description = sql.NullString{String: *req.Description, Valid: true}
	}
	if req.PublishedYear != nil {
		newBook.PublishedYear = sql.NullInt32{Int32: *req.PublishedYear, Valid: true}
	}
	if req.PageCount != nil {
		newBook.PageCount = sql.NullInt32{Int32: *req.PageCount, Valid: true}
	}

	insertedID, err := s.books.Create(ctx, newBook, genreIDs)
	if err != nil {
		return nil, fmt.Errorf("repository error during book creation: %w", err)
	}

	createdBook, err := s.books.FindByID(ctx, insertedID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve created book (id: %s): %w", insertedID, err)
	}

	s.logger.Info("Book created", zap.String("id", createdBook.ID.String()), zap.String("title", createdBook.Title))
	return createdBook, nil
}

func (s *BookService) GetByID(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repository error fetching book: %w", err)
	}
	return b, nil
}

func (s *BookService) List(ctx context.Context, req *dto.ListBooksRequest) ([]*book.Book, int64, error) {
	params := book.ListParams{
		Search:    req.Search,
		Genre:     req.Genre,
		Author:    req.Author,
		MinRating: req.MinRating,
		Limit:     req.Limit,
		Offset:    req.Offset,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	}

	books, total, err := s.books.List(ctx, params)
	if err != nil {
		return nil, 0, fmt.Errorf("repository error listing books: %w", err)
	}
	return books, total, nil
}

func (s *BookService) Update(ctx context.Context, id uuid.UUID, req *dto.UpdateBookRequest) (*book.Book, error) {
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("repository error fetching book for update: %w", err)
	}

	if req.Title != nil {
		b.Title = *req.Title
	}
	if req.Author != nil {
		b.Author = *req.Author
	}
	if req.ISBN != nil {
		b.ISBN = sql.NullString{String: *req.ISBN, Valid: true}
	}
	if req.Description != nil {
		b.Description = sql.NullString{String: *req.Description, Valid: true}
	}
	if req.PublishedYear != nil {
		b.PublishedYear = sql.NullInt32{Int32: *req.PublishedYear, Valid: true}
	}
	if req.PageCount != nil {
		b.PageCount = sql.NullInt32{Int32: *req.PageCount, Valid: true}
	}

	if err := s.books.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("repository error during book update: %w", err)
	}

	if req.Genres != nil {
		genreIDs, err := s.resolveGenreIDs(ctx, *req.Genres)
		if err != nil {
			return nil, err
		}
		if err := s.books.ReplaceGenres(ctx, id, genreIDs); err != nil {
			return nil, fmt.Errorf("repository error replacing genres: %w", err)
		}
	}

	updated, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve updated book (id: %s): %w", id, err)
	}

	s.logger.Info("Book updated", zap.String("id", id.String()))
	return updated, nil
}

func (s *BookService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.books.Delete(ctx, id); err != nil {
		return fmt.Errorf("repository error during book deletion: %w", err)
	}

	s.logger.Info("Book deleted", zap.String("id", id.String()))
	return nil
}

// Rate stores or overwrites the caller's rating for a book and returns the
// refreshed aggregate.
func (s *BookService) Rate(ctx context.Context, bookID, userID uuid.UUID, value int) (float64, int64, error) {
	rating := &book.Rating{
		BookID: bookID,
		UserID: userID,
		Value:  value,
	}

	if err := s.books.UpsertRating(ctx, rating); err != nil {
		return 0, 0, fmt.Errorf("repository error storing rating: %w", err)
	}

	avg, count, err := s.books.RatingSummary(ctx, bookID)
	if err != nil {
		return 0, 0, fmt.Errorf("repository error reading rating summary: %w", err)
	}

	s.logger.Info("Book rated",
		zap.String("book_id", bookID.String()),
		zap.String("user_id", userID.String()),
		zap.Int("value", value),
	)
	return avg, count, nil
}

// ReplaceGenres overwrites the book's genre set. An empty list clears it.
func (s *BookService) ReplaceGenres(ctx context.Context, bookID uuid.UUID, names []string) (*book.Book, error) {
	if _, err := s.books.FindByID(ctx, bookID); err != nil {
		return nil, fmt.Errorf("repository error fetching book for genre update: %w", err)
	}

	genreIDs, err := s.resolveGenreIDs(ctx, names)
	if err != nil {
		return nil, err
	}

	if err := s.books.ReplaceGenres(ctx, bookID, genreIDs); err != nil {
		return nil, fmt.Errorf("repository error replacing genres: %w", err)
	}

	updated, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve book after genre update (id: %s): %w", bookID, err)
	}

	s.logger.Info("Book genres replaced", zap.String("book_id", bookID.String()), zap.Int("genres", len(genreIDs)))
	return updated, nil
}

// resolveGenreIDs maps genre names to their ids, deduplicating the input.
// Every name must already exist.
func (s *BookService) resolveGenreIDs(ctx context.Context, names []string) ([]uuid.UUID, error) {
	if len(names) == 0 {
		return nil, nil
	}

	unique := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		unique = append(unique, name)
	}

	found, err := s.genres.FindByNames(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("repository error resolving genres: %w", err)
	}

	byName := make(map[string]uuid.UUID, len(found))
	for _, g := range found {
		byName[g.Name] = g.ID
	}

	ids := make([]uuid.UUID, 0, len(unique))
	var missing []string
	for _, name := range unique {
		id, ok := byName[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		ids = append(ids, id)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ierr.ErrGenreNotFound, strings.Join(missing, ", "))
	}

	return ids, nil
}
