package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"kukkee/internal/domain"
	"kukkee/internal/repository"
	"kukkee/migrations"
	"kukkee/pkg/database"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

const usage = "Usage: go run ./cmd/migrate [up|down|steps N|force V|version|seed]"

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}
	command := os.Args[1]

	if command == "seed" {
		if err := seedDemoPoll(dbURL); err != nil {
			log.Fatalf("Failed to seed data: %v", err)
		}
		return
	}

	m, err := newMigrator(dbURL)
	if err != nil {
		log.Fatalf("Failed to initialize migrations: %v", err)
	}
	defer m.Close()

	switch command {
	case "up":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "steps":
		n, convErr := intArg()
		if convErr != nil {
			log.Fatal(convErr)
		}
		err = m.Steps(n)
	case "force":
		v, convErr := intArg()
		if convErr != nil {
			log.Fatal(convErr)
		}
		err = m.Force(v)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
			log.Fatalf("Failed to read version: %v", verr)
		}
		fmt.Printf("Version: %d, Dirty: %v\n", version, dirty)
		return
	default:
		fmt.Printf("Unknown command: %s\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatalf("Migration %s failed: %v", command, err)
	}
	fmt.Printf("✅ Migration %s completed\n", command)
}

// newMigrator reads migrations from the embedded FS and talks to PostgreSQL
// through the pgx/v5 driver
func newMigrator(dbURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", src, pgx5URL(dbURL))
}

// pgx5URL rewrites a postgres:// URL to the scheme the pgx/v5 driver registers
func pgx5URL(dbURL string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dbURL, prefix) {
			return "pgx5://" + strings.TrimPrefix(dbURL, prefix)
		}
	}
	return dbURL
}

func intArg() (int, error) {
	if len(os.Args) < 3 {
		return 0, errors.New(usage)
	}
	return strconv.Atoi(os.Args[2])
}

// seedDemoPoll inserts one open public poll for local testing
func seedDemoPoll(dbURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, dbURL, database.DefaultPoolOptions())
	if err != nil {
		return err
	}
	defer db.Close()

	now := time.Now().UTC()
	day := now.Truncate(24 * time.Hour).Add(24 * time.Hour)
	req := domain.CreatePollRequest{
		Title:    "Team lunch",
		Location: "Cafeteria",
		Type:     domain.PollTypePublic,
	}
	for i := 0; i < 3; i++ {
		start := day.Add(time.Duration(i)*24*time.Hour + 12*time.Hour)
		req.Times = append(req.Times, domain.TimeSlot{
			Start: start.UnixMilli(),
			End:   start.Add(time.Hour).UnixMilli(),
		})
	}
	if err := req.Validate(); err != nil {
		return err
	}

	poll := domain.NewPoll(uuid.NewString(), "demo", req, now)
	stored, err := repository.NewPostgresPollRepository(db).Create(ctx, &poll)
	if err != nil {
		return err
	}

	fmt.Printf("  Seeded poll %s (%d slots)\n", stored.ID, len(stored.Times))
	return nil
}
