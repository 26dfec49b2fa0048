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
	"github.com/readshelf/library-api/internal/domain/user"
	"github.com/readshelf/library-api/internal/ierr"
	"go.uber.org/zap"
)

type UserRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewUserRepository(db *pgxpool.Pool, logger *zap.Logger) *UserRepository {
	return &UserRepository{
		db:     db,
		logger: logger.Named("UserRepository"),
	}
}

var _ user.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, u *user.User) (uuid.UUID, error) {
	query := `
        INSERT INTO users (username, email, password_hash, display_name, role)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `

	var insertedID uuid.UUID
	err := r.db.QueryRow(ctx, query,
		u.Username,
		u.Email,
		u.PasswordHash,
		u.DisplayName,
		u.Role,
	).Scan(&insertedID)

	if err != nil {
		if conflictErr := uniqueUserViolation(err); conflictErr != nil {
			r.logger.Warn("Attempted to create user violating a unique constraint", zap.String("username", u.Username))
			return uuid.Nil, conflictErr
		}

		r.logger.Error("Failed to create user in database", zap.Error(err))
		return uuid.Nil, fmt.Errorf("database error on create user: %w", err)
	}

	r.logger.Info("User created successfully", zap.String("id", insertedID.String()), zap.String("username", u.Username))
	return insertedID, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	query := `
        SELECT id, username, email, password_hash, display_name, role, created_at, updated_at
        FROM users
        WHERE id = $1
    `

	row := r.db.QueryRow(ctx, query, id)
	return r.scanUser(row)
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `
        SELECT id, username, email, password_hash, display_name, role, created_at, updated_at
        FROM users
        WHERE username = $1
    `

	row := r.db.QueryRow(ctx, query, username)
	return r.scanUser(row)
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	query := `
        UPDATE users SET
            email = $1,
            password_hash = $2,
            display_name = $3,
            updated_at = NOW()
        WHERE id = $4
    `

	cmdTag, err := r.db.Exec(ctx, query,
		u.Email,
		u.PasswordHash,
		u.DisplayName,
		u.ID,
	)

	if err != nil {
		if conflictErr := uniqueUserViolation(err); conflictErr != nil {
			r.logger.Warn("Attempted to update user violating a unique constraint", zap.String("id", u.ID.String()))
			return conflictErr
		}

		r.logger.Error("Failed to update user in database", zap.String("id", u.ID.String()), zap.Error(err))
		return fmt.Errorf("database error on update user: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		r.logger.Warn("Attempted to update user, but no rows were affected", zap.String("id", u.ID.String()))
		return ierr.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("database error on count users: %w", err)
	}
	return count, nil
}

func (r *UserRepository) scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.DisplayName,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ierr.ErrUserNotFound
		}

		r.logger.Error("Failed to scan user row", zap.Error(err))
		return nil, fmt.Errorf("database scan error: %w", err)
	}

	return &u, nil
}

// uniqueUserViolation maps a 23505 on the users table to the conflicting
// field, or returns nil for any other error.
func uniqueUserViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}

	if strings.Contains(pgErr.ConstraintName, "email") {
		return ierr.ErrEmailTaken
	}
	return ierr.ErrUsernameTaken
}
