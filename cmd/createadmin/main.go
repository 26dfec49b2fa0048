package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/readshelf/library-api/internal/domain/user"
	"github.com/readshelf/library-api/internal/ierr"
	"github.com/readshelf/library-api/internal/storage/postgres"
	"github.com/readshelf/library-api/internal/util"
	"go.uber.org/zap"
)

// Bootstraps a librarian account so a fresh deployment has someone who can
// manage the catalog.
func main() {
	username := flag.String("username", "", "Username for the librarian account")
	email := flag.String("email", "", "Email for the librarian account")
	password := flag.String("password", "", "Password for the librarian account")
	flag.Parse()

	if *username == "" || *email == "" || *password == "" {
		log.Fatal("-username, -email and -password are all required")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	hash, err := util.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	logger, _ := zap.NewDevelopment()
	pool, err := pgxpool.New(context.Background(), dbURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	repo := postgres.NewUserRepository(pool, logger)

	librarian := &user.User{
		Username:     *username,
		Email:        *email,
		PasswordHash: hash,
		Role:         user.RoleLibrarian,
	}

	userID, err := repo.Create(context.Background(), librarian)
	if err != nil {
		if errors.Is(err, ierr.ErrConflict) {
			log.Fatalf("A user with this username or email already exists: %v", err)
		}
		log.Fatalf("Failed to save librarian account to database: %v", err)
	}

	fmt.Printf("Librarian account created with ID: %s\n", userID)
}
