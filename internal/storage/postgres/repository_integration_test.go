package postgres

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/readshelf/library-api/internal/domain/book"
	"github.com/readshelf/library-api/internal/domain/genre"
	"github.com/readshelf/library-api/internal/domain/user"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

// newTestPool starts a disposable PostgreSQL container, applies all
// migrations, and returns a connected pool. Each test gets its own container
// for full isolation.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("library_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("admin123"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string")

	runTestMigrations(t, dsn)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err, "Failed to create connection pool")
	t.Cleanup(pool.Close)

	return pool
}

func runTestMigrations(t *testing.T, dsn string) {
	t.Helper()

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err, "Failed to open migration connection")
	defer db.Close()

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	require.NoError(t, err, "Failed to create migration driver")

	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir(t), "postgres", driver)
	require.NoError(t, err, "Failed to create migrate instance")

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to run migrations")
	}
}

func migrationsDir(t *testing.T) string {
	t.Helper()

	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok, "Failed to locate caller")
	return filepath.Clean(filepath.Join(filepath.Dir(filename), "..", "..", "..", "migrations"))
}

func mustCreateUser(t *testing.T, users *UserRepository, username string) uuid.UUID {
	t.Helper()

	id, err := users.Create(context.Background(), &user.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         user.RoleMember,
	})
	require.NoError(t, err)
	return id
}

func mustCreateBook(t *testing.T, books *BookRepository, title, author string, genreIDs []uuid.UUID) uuid.UUID {
	t.Helper()

	id, err := books.Create(context.Background(), &book.Book{Title: title, Author: author}, genreIDs)
	require.NoError(t, err)
	return id
}

func mustGenreIDs(t *testing.T, genres *GenreRepository, names ...string) []uuid.UUID {
	t.Helper()

	found, err := genres.FindByNames(context.Background(), names)
	require.NoError(t, err)
	require.Len(t, found, len(names))

	ids := make([]uuid.UUID, len(found))
	for i, g := range found {
		ids[i] = g.ID
	}
	return ids
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func TestUserRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := newTestPool(t)
	users := NewUserRepository(pool, zap.NewNop())

	id, err := users.Create(ctx, &user.User{
		Username:     "reader",
		Email:        "reader@example.com",
		PasswordHash: "not-a-real-hash",
		DisplayName:  sql.NullString{String: "Avid Reader", Valid: true},
		Role:         user.RoleMember,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	found, err := users.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "reader", found.Username)
	assert.Equal(t, "reader@example.com", found.Email)
	assert.Equal(t, user.RoleMember, found.Role)
	require.True(t, found.DisplayName.Valid)
	assert.Equal(t, "Avid Reader", found.DisplayName.String)
	assert.False(t, found.CreatedAt.IsZero())

	byName, err := users.FindByUsername(ctx, "reader")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)

	_, err = users.Create(ctx, &user.User{
		Username:     "reader",
		Email:        "other@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         user.RoleMember,
	})
	assert.ErrorIs(t, err, ierr.ErrUsernameTaken)

	_, err = users.Create(ctx, &user.User{
		Username:     "other",
		Email:        "reader@example.com",
		PasswordHash: "not-a-real-hash",
		Role:         user.RoleMember,
	})
	assert.ErrorIs(t, err, ierr.ErrEmailTaken)

	_, err = users.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ierr.ErrUserNotFound)

	_, err = users.FindByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ierr.ErrUserNotFound)

	found.Email = "fresh@example.com"
	require.NoError(t, users.Update(ctx, found))
	updated, err := users.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "fresh@example.com", updated.Email)

	err = users.Update(ctx, &user.User{ID: uuid.New(), Email: "x@example.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ierr.ErrUserNotFound)

	count, err := users.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestGenreRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := newTestPool(t)
	genres := NewGenreRepository(pool, zap.NewNop())

	// The migration seeds eight genres, listed alphabetically.
	seeded, err := genres.List(ctx)
	require.NoError(t, err)
	require.Len(t, seeded, 8)
	assert.Equal(t, "Biography", seeded[0].Name)
	assert.Equal(t, int64(0), seeded[0].BookCount)

	id, err := genres.Create(ctx, &genre.Genre{Name: "Poetry"})
	require.NoError(t, err)

	created, err := genres.FindByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Poetry", created.Name)

	_, err = genres.Create(ctx, &genre.Genre{Name: "Poetry"})
	assert.ErrorIs(t, err, ierr.ErrDuplicateGenre)

	_, err = genres.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ierr.ErrGenreNotFound)

	// Missing names are simply absent, never an error.
	partial, err := genres.FindByNames(ctx, []string{"Fantasy", "Atlantisology"})
	require.NoError(t, err)
	require.Len(t, partial, 1)
	assert.Equal(t, "Fantasy", partial[0].Name)

	none, err := genres.FindByNames(ctx, []string{})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestBookRepository_Integration_CRUD(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := newTestPool(t)
	books := NewBookRepository(pool, zap.NewNop())
	genres := NewGenreRepository(pool, zap.NewNop())

	ids := mustGenreIDs(t, genres, "History", "Fantasy")
	bookID, err := books.Create(ctx, &book.Book{
		Title:  "The Hobbit",
		Author: "J.R.R. Tolkien",
		ISBN:   sql.NullString{String: "9780306406157", Valid: true},
	}, ids)
	require.NoError(t, err)

	found, err := books.FindByID(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit", found.Title)
	require.True(t, found.ISBN.Valid)
	assert.Equal(t, "9780306406157", found.ISBN.String)
	// Genre names come back alphabetically regardless of insert order.
	assert.Equal(t, []string{"Fantasy", "History"}, found.Genres)
	assert.Equal(t, 0.0, found.AverageRating)
	assert.Equal(t, int64(0), found.RatingsCount)

	_, err = books.Create(ctx, &book.Book{
		Title:  "Another",
		Author: "Someone",
		ISBN:   sql.NullString{String: "9780306406157", Valid: true},
	}, nil)
	assert.ErrorIs(t, err, ierr.ErrDuplicateISBN)

	found.Title = "The Hobbit, Revised"
	require.NoError(t, books.Update(ctx, found))
	updated, err := books.FindByID(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, "The Hobbit, Revised", updated.Title)

	err = books.Update(ctx, &book.Book{ID: uuid.New(), Title: "x", Author: "y"})
	assert.ErrorIs(t, err, ierr.ErrBookNotFound)

	mysteryIDs := mustGenreIDs(t, genres, "Mystery")
	require.NoError(t, books.ReplaceGenres(ctx, bookID, mysteryIDs))
	retagged, err := books.FindByID(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mystery"}, retagged.Genres)

	require.NoError(t, books.ReplaceGenres(ctx, bookID, nil))
	cleared, err := books.FindByID(ctx, bookID)
	require.NoError(t, err)
	assert.Empty(t, cleared.Genres)

	err = books.ReplaceGenres(ctx, uuid.New(), mysteryIDs)
	assert.ErrorIs(t, err, ierr.ErrBookNotFound)

	require.NoError(t, books.Delete(ctx, bookID))
	_, err = books.FindByID(ctx, bookID)
	assert.ErrorIs(t, err, ierr.ErrBookNotFound)
	assert.ErrorIs(t, books.Delete(ctx, bookID), ierr.ErrBookNotFound)
}

func TestBookRepository_Integration_ListFilters(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := newTestPool(t)
	books := NewBookRepository(pool, zap.NewNop())
	genres := NewGenreRepository(pool, zap.NewNop())
	users := NewUserRepository(pool, zap.NewNop())

	mustCreateBook(t, books, "The Hobbit", "J.R.R. Tolkien", mustGenreIDs(t, genres, "Fantasy"))
	duneID := mustCreateBook(t, books, "Dune", "Frank Herbert", mustGenreIDs(t, genres, "Science Fiction"))
	mustCreateBook(t, books, "A Brief History of Time", "Stephen Hawking", mustGenreIDs(t, genres, "Non-fiction"))

	userID := mustCreateUser(t, users, "rater")
	require.NoError(t, books.UpsertRating(ctx, &book.Rating{BookID: duneID, UserID: userID, Value: 5}))

	all, total, err := books.List(ctx, book.ListParams{Limit: 10, SortBy: "created_at", SortOrder: "DESC"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, all, 3)

	bySearch, total, err := books.List(ctx, book.ListParams{Search: strPtr("dUnE"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, bySearch, 1)
	assert.Equal(t, "Dune", bySearch[0].Title)

	byGenre, total, err := books.List(ctx, book.ListParams{Genre: strPtr("Fantasy"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, byGenre, 1)
	assert.Equal(t, "The Hobbit", byGenre[0].Title)

	byAuthor, total, err := books.List(ctx, book.ListParams{Author: strPtr("tolkien"), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, byAuthor, 1)

	byRating, total, err := books.List(ctx, book.ListParams{MinRating: floatPtr(4), Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, byRating, 1)
	assert.Equal(t, "Dune", byRating[0].Title)
	assert.Equal(t, 5.0, byRating[0].AverageRating)

	sorted, _, err := books.List(ctx, book.ListParams{Limit: 10, SortBy: "title", SortOrder: "ASC"})
	require.NoError(t, err)
	require.Len(t, sorted, 3)
	assert.Equal(t, "A Brief History of Time", sorted[0].Title)
	assert.Equal(t, "The Hobbit", sorted[2].Title)

	page, total, err := books.List(ctx, book.ListParams{Limit: 2, Offset: 2, SortBy: "title", SortOrder: "ASC"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, "The Hobbit", page[0].Title)
}

func TestBookRepository_Integration_Ratings(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := newTestPool(t)
	books := NewBookRepository(pool, zap.NewNop())
	users := NewUserRepository(pool, zap.NewNop())

	bookID := mustCreateBook(t, books, "Dune", "Frank Herbert", nil)
	alice := mustCreateUser(t, users, "alice")
	bob := mustCreateUser(t, users, "bob")

	require.NoError(t, books.UpsertRating(ctx, &book.Rating{BookID: bookID, UserID: alice, Value: 5}))
	require.NoError(t, books.UpsertRating(ctx, &book.Rating{BookID: bookID, UserID: bob, Value: 4}))

	avg, count, err := books.RatingSummary(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 4.5, avg)
	assert.Equal(t, int64(2), count)

	// Rating again overwrites instead of adding a second row.
	require.NoError(t, books.UpsertRating(ctx, &book.Rating{BookID: bookID, UserID: alice, Value: 3}))
	avg, count, err = books.RatingSummary(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, avg)
	assert.Equal(t, int64(2), count)

	found, err := books.FindByID(ctx, bookID)
	require.NoError(t, err)
	assert.Equal(t, 3.5, found.AverageRating)
	assert.Equal(t, int64(2), found.RatingsCount)

	err = books.UpsertRating(ctx, &book.Rating{BookID: uuid.New(), UserID: alice, Value: 4})
	assert.ErrorIs(t, err, ierr.ErrBookNotFound)

	err = books.UpsertRating(ctx, &book.Rating{BookID: bookID, UserID: uuid.New(), Value: 4})
	assert.ErrorIs(t, err, ierr.ErrUserNotFound)

	avg, count, err = books.RatingSummary(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, 0.0, avg)
	assert.Equal(t, int64(0), count)
}

func TestBookRepository_Integration_StatsAggregates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	pool := newTestPool(t)
	books := NewBookRepository(pool, zap.NewNop())
	genres := NewGenreRepository(pool, zap.NewNop())
	users := NewUserRepository(pool, zap.NewNop())

	fantasy := mustGenreIDs(t, genres, "Fantasy")
	history := mustGenreIDs(t, genres, "History")

	duneID := mustCreateBook(t, books, "Dune", "Frank Herbert", fantasy)
	hobbitID := mustCreateBook(t, books, "The Hobbit", "J.R.R. Tolkien", fantasy)
	romeID := mustCreateBook(t, books, "SPQR", "Mary Beard", history)

	alice := mustCreateUser(t, users, "alice")
	bob := mustCreateUser(t, users, "bob")

	require.NoError(t, books.UpsertRating(ctx, &book.Rating{BookID: duneID, UserID: alice, Value: 5}))
	require.NoError(t, books.UpsertRating(ctx, &book.Rating{BookID: duneID, UserID: bob, Value: 5}))
	require.NoError(t, books.UpsertRating(ctx, &book.Rating{BookID: hobbitID, UserID: alice, Value: 3}))

	total, err := books.CountAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	ratings, err := books.CountRatings(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), ratings)

	avg, err := books.OverallAverageRating(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 4.33, avg, 0.01)

	perGenre, err := books.CountPerGenre(ctx)
	require.NoError(t, err)
	assert.Len(t, perGenre, 8)
	assert.Equal(t, int64(2), perGenre["Fantasy"])
	assert.Equal(t, int64(1), perGenre["History"])
	assert.Equal(t, int64(0), perGenre["Children"])

	top, err := books.TopRated(ctx, 1, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, "Dune", top[0].Title)
	assert.Equal(t, 5.0, top[0].AverageRating)
	assert.Equal(t, int64(2), top[0].RatingsCount)
	assert.Equal(t, "The Hobbit", top[1].Title)

	top, err = books.TopRated(ctx, 2, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Dune", top[0].Title)

	// Spread creation times out so the ordering is deterministic.
	_, err = pool.Exec(ctx, `UPDATE books SET created_at = NOW() - INTERVAL '2 days' WHERE id = $1`, duneID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE books SET created_at = NOW() - INTERVAL '1 day' WHERE id = $1`, hobbitID)
	require.NoError(t, err)

	recent, err := books.RecentlyAdded(ctx, 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, romeID, recent[0].ID)
	assert.Equal(t, hobbitID, recent[1].ID)
}
