//go:build integration

package test_utils

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sequenceit/proposaldesk/internal/config"
	"github.com/sequenceit/proposaldesk/internal/database"
	log "github.com/sirupsen/logrus"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	testDbName = "proposaldesk"
	testDbUser = "test_proposaldesk"
	testDbPass = "test_proposaldesk"
)

// TestWithDB starts PostgreSQL in a container, applies the migrations and
// returns an open pool together with a function that stops the container.
func TestWithDB() (*pgxpool.Pool, func()) {
	ctx := context.Background()

	initScript, err := projectFile("dev", "init.sql")
	if err != nil {
		log.Fatalf("Failed to locate init script: %v", err)
	}
	container, err := postgres.Run(ctx, "postgres:18.1-alpine",
		postgres.WithInitScripts(initScript),
		postgres.WithDatabase(testDbName),
		postgres.WithUsername(testDbUser),
		postgres.WithPassword(testDbPass),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		log.Errorf("Failed to start postgres container: %v", err)
		os.Exit(1)
	}

	host, _ := container.Host(ctx)
	port, _ := container.MappedPort(ctx, "5432/tcp")
	log.Infof("Postgres container started at %s:%d", host, port.Int())

	cfg := config.Database{
		Driver: config.DriverPostgres,
		Host:   host,
		Port:   port.Int(),
		User:   testDbUser,
		Pass:   testDbPass,
		Name:   testDbName,
		Schema: "proposaldesk",
	}
	if err := database.Migrate(cfg); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	pool, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}

	return pool, func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			log.Warnf("Failed to terminate postgres container: %v", err)
		}
	}
}

func projectFile(parts ...string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.Join(append([]string{dir}, parts...)...), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("could not find project root")
		}
		dir = parent
	}
}
