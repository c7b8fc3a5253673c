package main

import (
	"database/sql"
	"errors"
	"flag"
	"os"
	"strconv"

	migrateV4 "github.com/golang-migrate/migrate/v4"
	_ "github.com/lib/pq"

	"github.com/yourusername/verification-api/internal/config"
	"github.com/yourusername/verification-api/pkg/database"
	"github.com/yourusername/verification-api/pkg/logger"
)

// Usage: migrate [-config path] up|down|version|force <version>
func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "path to config.yaml")
	flag.Parse()

	logger.Init("verification-migrate", "", "")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Log.Fatalf("Failed to load config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.Database.PostgresConnectionString())
	if err != nil {
		logger.Log.Fatal(err)
	}
	defer db.Close()

	m, err := database.NewMigrator(db, cfg.Database.MigrationsPath)
	if err != nil {
		logger.Log.Fatal(err)
	}

	switch cmd := flag.Arg(0); cmd {
	case "up", "":
		err = m.Up()
	case "down":
		err = m.Steps(-1)
	case "version":
		version, dirty, verr := m.Version()
		if verr != nil && !errors.Is(verr, migrateV4.ErrNilVersion) {
			logger.Log.Fatal(verr)
		}
		logger.Log.Infof("version=%d dirty=%t", version, dirty)
		return
	case "force":
		version, perr := strconv.Atoi(flag.Arg(1))
		if perr != nil {
			logger.Log.Fatalf("force needs a numeric version: %v", perr)
		}
		// Clears a dirty state left by a failed migration.
		err = m.Force(version)
	default:
		logger.Log.Fatalf("unknown command %q", cmd)
	}

	if errors.Is(err, migrateV4.ErrNoChange) {
		logger.Log.Info("No change")
		return
	}
	if err != nil {
		logger.Log.Fatalf("Migration failed: %v", err)
	}
	logger.Log.Info("Done")
}
