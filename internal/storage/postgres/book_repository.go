package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/readshelf/library-api/internal/domain/book"
	"github.com/readshelf/library-api/internal/ierr"
	"go.uber.org/zap"
)

// bookSelect pulls a book row together with its rating aggregate and genre
// names. Aggregates are computed at read time, never stored on the row.
const bookSelect = `
        SELECT
            b.id, b.title, b.author, b.isbn, b.description,
            b.published_year, b.page_count,
            COALESCE(g.names, ARRAY[]::TEXT[]) AS genres,
            COALESCE(r.avg_rating, 0)::FLOAT8 AS average_rating,
            COALESCE(r.ratings_count, 0) AS ratings_count,
            b.created_at, b.updated_at
        FROM books b
        LEFT JOIN (
            SELECT book_id, AVG(value) AS avg_rating, COUNT(*) AS ratings_count
            FROM ratings
            GROUP BY book_id
        ) r ON r.book_id = b.id
        LEFT JOIN (
            SELECT bg.book_id, ARRAY_AGG(ge.name ORDER BY ge.name) AS names
            FROM book_genres bg
            JOIN genres ge ON ge.id = bg.genre_id
            GROUP BY bg.book_id
        ) g ON g.book_id = b.id
    `

// sortColumns whitelists the sortable fields. Anything else falls back to
// creation time.
var sortColumns = map[string]string{
	"created_at":     "b.created_at",
	"title":          "b.title",
	"author":         "b.author",
	"average_rating": "average_rating",
	"published_year": "b.published_year",
}

type BookRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewBookRepository(db *pgxpool.Pool, logger *zap.Logger) *BookRepository {
	return &BookRepository{
		db:     db,
		logger: logger.Named("BookRepository"),
	}
}

var _ book.Repository = (*BookRepository)(nil)

func (r *BookRepository) Create(ctx context.Context, b *book.Book, genreIDs []uuid.UUID) (uuid.UUID, error) {
	var insertedID uuid.UUID

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		query := `
            INSERT INTO books (title, author, isbn, description, published_year, page_count)
            VALUES ($1, $2, $3, $4, $5, $6)
            RETURNING id
        `
		err := tx.QueryRow(ctx, query,
			b.Title,
			b.Author,
			b.ISBN,
			b.Description,
			b.PublishedYear,
			b.PageCount,
		).Scan(&insertedID)
		if err != nil {
			return err
		}

		for _, genreID := range genreIDs {
			_, err := tx.Exec(ctx, `INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2)`, insertedID, genreID)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Attempted to create book with duplicate ISBN",
				zap.String("title", b.Title),
				zap.String("constraint", pgErr.ConstraintName),
			)
			return uuid.Nil, ierr.ErrDuplicateISBN
		}

		r.logger.Error("Failed to create book in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error on create book: %w", err)
	}

	r.logger.Info("Book created successfully", zap.String("id", insertedID.String()))
	return insertedID, nil
}

func (r *BookRepository) FindByID(ctx context.Context, id uuid.UUID) (*book.Book, error) {
	query := bookSelect + ` WHERE b.id = $1`

	row := r.db.QueryRow(ctx, query, id)
	return r.scanBook(row)
}

func (r *BookRepository) List(ctx context.Context, params book.ListParams) ([]*book.Book, int64, error) {
	var (
		conditions []string
		args       []any
	)

	if params.Search != nil && *params.Search != "" {
		args = append(args, "%"+*params.Search+"%")
		conditions = append(conditions, fmt.Sprintf("(b.title ILIKE $%d OR b.author ILIKE $%d)", len(args), len(args)))
	}
	if params.Author != nil && *params.Author != "" {
		args = append(args, "%"+*params.Author+"%")
		conditions = append(conditions, fmt.Sprintf("b.author ILIKE $%d", len(args)))
	}
	if params.Genre != nil && *params.Genre != "" {
		args = append(args, *params.Genre)
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
            SELECT 1 FROM book_genres bg2
            JOIN genres ge2 ON ge2.id = bg2.genre_id
            WHERE bg2.book_id = b.id AND ge2.name = $%d
        )`, len(args)))
	}
	if params.MinRating != nil {
		args = append(args, *params.MinRating)
		conditions = append(conditions, fmt.Sprintf("COALESCE(r.avg_rating, 0) >= $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := `
        SELECT COUNT(*)
        FROM books b
        LEFT JOIN (
            SELECT book_id, AVG(value) AS avg_rating
            FROM ratings
            GROUP BY book_id
        ) r ON r.book_id = b.id
    ` + where

	var total int64
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		r.logger.Error("Failed to count books", zap.Error(err))
		return nil, 0, fmt.Errorf("database error on count books: %w", err)
	}

	sortColumn, ok := sortColumns[params.SortBy]
	if !ok {
		sortColumn = "b.created_at"
	}
	direction := "DESC"
	if strings.EqualFold(params.SortOrder, "ASC") {
		direction = "ASC"
	}

	args = append(args, params.Limit)
	limitPos := len(args)
	args = append(args, params.Offset)
	offsetPos := len(args)

	query := bookSelect + where + fmt.Sprintf(" ORDER BY %s %s, b.id ASC LIMIT $%d OFFSET $%d", sortColumn, direction, limitPos, offsetPos)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query list of books", zap.Error(err))
		return nil, 0, fmt.Errorf("database error on list books: %w", err)
	}
	defer rows.Close()

	books := make([]*book.Book, 0)
	for rows.Next() {
		b, err := r.scanBook(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("database scan error during list: %w", err)
		}
		books = append(books, b)
	}

	if err = rows.Err(); err != nil {
		r.logger.Error("Error iterating book rows", zap.Error(err))
		return nil, 0, fmt.Errorf("database iteration error on list books: %w", err)
	}

	return books, total, nil
}

func (r *BookRepository) Update(ctx context.Context, b *book.Book) error {
	query := `
        UPDATE books SET
            title = $1,
            author = $2,
            isbn = $3,
            description = $4,
            published_year = $5,
            page_count = $6,
            updated_at = NOW()
        WHERE id = $7
    `

	cmdTag, err := r.db.Exec(ctx, query,
		b.Title,
		b.Author,
		b.ISBN,
		b.Description,
		b.PublishedYear,
		b.PageCount,
		b.ID,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			r.logger.Warn("Attempted to update book to duplicate ISBN",
				zap.String("id", b.ID.String()),
				zap.String("constraint", pgErr.ConstraintName),
			)
			return ierr.ErrDuplicateISBN
		}

		r.logger.Error("Failed to update book in database", zap.String("id", b.ID.String()), zap.Error(err))
		return fmt.Errorf("database error on update book: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update book, but no rows were affected", zap.String("id", b.ID.String()))
		return ierr.ErrBookNotFound
	}

	r.logger.Info("Book updated successfully", zap.String("id", b.ID.String()))
	return nil
}

func (r *BookRepository) Delete(ctx context.Context, id uuid.UUID) error {
	cmdTag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete book from database", zap.String("id", id.String()), zap.Error(err))
		return fmt.Errorf("database error on delete book: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ierr.ErrBookNotFound
	}

	r.logger.Info("Book deleted successfully", zap.String("id", id.String()))
	return nil
}

func (r *BookRepository) ReplaceGenres(ctx context.Context, bookID uuid.UUID, genreIDs []uuid.UUID) error {
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM book_genres WHERE book_id = $1`, bookID); err != nil {
			return err
		}

		for _, genreID := range genreIDs {
			_, err := tx.Exec(ctx, `INSERT INTO book_genres (book_id, genre_id) VALUES ($1, $2)`, bookID, genreID)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ierr.ErrBookNotFound
		}

		r.logger.Error("Failed to replace book genres", zap.String("book_id", bookID.String()), zap.Error(err))
		return fmt.Errorf("database error on replace genres: %w", err)
	}

	return nil
}

func (r *BookRepository) UpsertRating(ctx context.Context, rating *book.Rating) error {
	query := `
        INSERT INTO ratings (book_id, user_id, value)
        VALUES ($1, $2, $3)
        ON CONFLICT (book_id, user_id)
        DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()
    `

	_, err := r.db.Exec(ctx, query, rating.BookID, rating.UserID, rating.Value)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			if strings.Contains(pgErr.ConstraintName, "book") {
				return ierr.ErrBookNotFound
			}
			return ierr.ErrUserNotFound
		}

		r.logger.Error("Failed to upsert rating",
			zap.String("book_id", rating.BookID.String()),
			zap.String("user_id", rating.UserID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("database error on upsert rating: %w", err)
	}

	return nil
}

func (r *BookRepository) RatingSummary(ctx context.Context, bookID uuid.UUID) (float64, int64, error) {
	query := `
        SELECT COALESCE(AVG(value), 0)::FLOAT8, COUNT(*)
        FROM ratings
        WHERE book_id = $1
    `

	var (
		avg   float64
		count int64
	)
	if err := r.db.QueryRow(ctx, query, bookID).Scan(&avg, &count); err != nil {
		r.logger.Error("Failed to read rating summary", zap.String("book_id", bookID.String()), zap.Error(err))
		return 0, 0, fmt.Errorf("database error on rating summary: %w", err)
	}

	return avg, count, nil
}

func (r *BookRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error on count books: %w", err)
	}
	return count, nil
}

func (r *BookRepository) CountRatings(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM ratings`).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error on count ratings: %w", err)
	}
	return count, nil
}

func (r *BookRepository) OverallAverageRating(ctx context.Context) (float64, error) {
	var avg float64
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(AVG(value), 0)::FLOAT8 FROM ratings`).Scan(&avg); err != nil {
		return 0, fmt.Errorf("database error on overall average rating: %w", err)
	}
	return avg, nil
}

func (r *BookRepository) CountPerGenre(ctx context.Context) (map[string]int64, error) {
	query := `
        SELECT ge.name, COUNT(bg.book_id)
        FROM genres ge
        LEFT JOIN book_genres bg ON bg.genre_id = ge.id
        GROUP BY ge.name
    `

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("database error on count per genre: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			name  string
			count int64
		)
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("database scan error on count per genre: %w", err)
		}
		counts[name] = count
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("database iteration error on count per genre: %w", err)
	}

	return counts, nil
}

func (r *BookRepository) TopRated(ctx context.Context, minRatings int, limit int) ([]*book.TopRatedBook, error) {
	query := `
        SELECT b.id, b.title, b.author, r.avg_rating::FLOAT8, r.ratings_count
        FROM books b
        JOIN (
            SELECT book_id, AVG(value) AS avg_rating, COUNT(*) AS ratings_count
            FROM ratings
            GROUP BY book_id
        ) r ON r.book_id = b.id
        WHERE r.ratings_count >= $1
        ORDER BY r.avg_rating DESC, r.ratings_count DESC, b.id ASC
        LIMIT $2
    `

	rows, err := r.db.Query(ctx, query, minRatings, limit)
	if err != nil {
		return nil, fmt.Errorf("database error on top rated books: %w", err)
	}
	defer rows.Close()

	books := make([]*book.TopRatedBook, 0, limit)
	for rows.Next() {
		var b book.TopRatedBook
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.AverageRating, &b.RatingsCount); err != nil {
			return nil, fmt.Errorf("database scan error on top rated books: %w", err)
		}
		books = append(books, &b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("database iteration error on top rated books: %w", err)
	}

	return books, nil
}

func (r *BookRepository) RecentlyAdded(ctx context.Context, limit int) ([]*book.RecentBook, error) {
	query := `
        SELECT id, title, author, created_at
        FROM books
        ORDER BY created_at DESC, id ASC
        LIMIT $1
    `

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("database error on recently added books: %w", err)
	}
	defer rows.Close()

	books := make([]*book.RecentBook, 0, limit)
	for rows.Next() {
		var b book.RecentBook
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("database scan error on recently added books: %w", err)
		}
		books = append(books, &b)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("database iteration error on recently added books: %w", err)
	}

	return books, nil
}

func (r *BookRepository) scanBook(row pgx.Row) (*book.Book, error) {
	var b book.Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.ISBN,
		&b.Description,
		&b.PublishedYear,
		&b.PageCount,
		&b.Genres,
		&b.AverageRating,
		&b.RatingsCount,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrBookNotFound
		}

		r.logger.Error("Failed to scan book row", zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return &b, nil
}
