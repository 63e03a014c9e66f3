package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"tempiaops/internal/config"
	"tempiaops/migrations"
)

// connectWithRetry creates the application database on first start and
// then connects to it, retrying while Postgres comes up.
func connectWithRetry(cfg config.DatabaseConfig, maxAttempts int, delay time.Duration, log *zap.Logger) (*sqlx.DB, error) {
	if err := ensureDatabase(cfg); err != nil {
		log.Warn("could not ensure database exists", zap.String("database", cfg.Name), zap.Error(err))
	}

	var db *sqlx.DB
	var err error
	for i := 0; i < maxAttempts; i++ {
		db, err = sqlx.Connect("postgres", cfg.GetDSN())
		if err == nil {
			return db, nil
		}

		log.Warn("failed to connect to database",
			zap.Int("attempt", i+1),
			zap.Int("max_attempts", maxAttempts),
			zap.Error(err),
		)
		time.Sleep(delay)
	}

	return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxAttempts, err)
}

func ensureDatabase(cfg config.DatabaseConfig) error {
	system := cfg
	system.Name = "postgres"

	pgDB, err := sqlx.Connect("postgres", system.GetDSN())
	if err != nil {
		return fmt.Errorf("failed to connect to postgres database: %w", err)
	}
	defer pgDB.Close()

	var exists bool
	err = pgDB.Get(&exists, "SELECT EXISTS(SELECT datname FROM pg_catalog.pg_database WHERE datname = $1)", cfg.Name)
	if err != nil {
		return fmt.Errorf("failed to check database existence: %w", err)
	}
	if exists {
		return nil
	}

	if _, err := pgDB.Exec("CREATE DATABASE " + pq.QuoteIdentifier(cfg.Name)); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	return nil
}

func newMigrator(cfg config.DatabaseConfig) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, cfg.GetURL())
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// runMigrations applies every pending migration. A dirty version left by a
// crashed run is forced before retrying.
func runMigrations(cfg config.DatabaseConfig, log *zap.Logger) error {
	var m *migrate.Migrate
	var err error

	for i := 0; i < 5; i++ {
		m, err = newMigrator(cfg)
		if err == nil {
			break
		}
		log.Warn("failed to create migrate instance", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(5 * time.Second)
	}
	if err != nil {
		return fmt.Errorf("failed to create migrate instance after retries: %w", err)
	}
	defer m.Close()

	if err := forceIfDirty(m, log); err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, _, _ := m.Version()
	log.Info("migrations applied", zap.Uint("version", version))
	return nil
}

func forceIfDirty(m *migrate.Migrate, log *zap.Logger) error {
	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if dirty {
		log.Warn("found dirty database state, forcing version", zap.Uint("version", version))
		if err := m.Force(int(version)); err != nil {
			return fmt.Errorf("failed to force version: %w", err)
		}
	}
	return nil
}
