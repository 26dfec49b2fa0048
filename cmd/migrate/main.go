package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/readshelf/library-api/internal/config"
	"github.com/readshelf/library-api/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "./configs/config.dev.yaml", "Path to configuration file")
	migrationsPath := flag.String("path", "./migrations", "Path to migrations directory")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.NewZapLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Sync()

	absPath, err := filepath.Abs(*migrationsPath)
	if err != nil {
		appLogger.Fatal("Failed to resolve migrations path", zap.Error(err))
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		appLogger.Fatal("Failed to open database connection", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		appLogger.Fatal("Failed to ping database", zap.Error(err))
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		appLogger.Fatal("Failed to create migration driver", zap.Error(err))
	}

	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", absPath), "postgres", driver)
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	defer m.Close()

	switch command {
	case "up":
		if err := m.Up(); err != nil && err != migrate.ErrNoChange {
			appLogger.Fatal("Migration up failed", zap.Error(err))
		}
		logVersion(m, appLogger)

	case "down":
		if err := m.Steps(-1); err != nil && err != migrate.ErrNoChange {
			appLogger.Fatal("Migration down failed", zap.Error(err))
		}
		logVersion(m, appLogger)

	case "version":
		logVersion(m, appLogger)

	case "force":
		if len(args) < 2 {
			appLogger.Fatal("Version required. Usage: migrate force <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			appLogger.Fatal("Invalid version number", zap.String("value", args[1]))
		}
		appLogger.Warn("Forcing migration version")
		if err := m.Force(version); err != nil {
			appLogger.Fatal("Force version failed", zap.Error(err))
		}

	default:
		appLogger.Error("Unknown command", zap.String("command", command))
		printUsage()
		os.Exit(1)
	}
}

func logVersion(m *migrate.Migrate, logger *zap.Logger) {
	version, dirty, err := m.Version()
	if err == migrate.ErrNilVersion {
		logger.Info("No migrations applied")
		return
	}
	if err != nil {
		logger.Fatal("Failed to read migration version", zap.Error(err))
	}
	logger.Info("Current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
}

func printUsage() {
	fmt.Println(`Library API migration tool

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up               Apply all pending migrations
  down             Roll back the most recent migration
  version          Show current migration version
  force <version>  Force set migration version (use with caution)

Flags:
  -config string   Path to configuration file (default: ./configs/config.dev.yaml)
  -path string     Path to migrations directory (default: ./migrations)`)
}
