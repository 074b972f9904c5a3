package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/torii-authz/torii/internal/infrastructure/config"
	"github.com/torii-authz/torii/internal/infrastructure/database"
)

const migrationsPathSuffix = "internal/infrastructure/database/migrations/postgres"

var env string

func main() {
	rootCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
	}

	rootCmd.PersistentFlags().StringVar(&env, "env", "dev", "environment (dev, test, prod)")

	rootCmd.AddCommand(upCmd())
	rootCmd.AddCommand(downCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(forceCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := newMigrate()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := m.Up(); err != nil && err != migrate.ErrNoChange {
				return fmt.Errorf("migration up failed: %w", err)
			}
			log.Println("Migrations applied")
			return nil
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := newMigrate()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := m.Steps(-1); err != nil {
				return fmt.Errorf("migration down failed: %w", err)
			}
			log.Println("Rolled back one migration")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, cleanup, err := newMigrate()
			if err != nil {
				return err
			}
			defer cleanup()

			version, dirty, err := m.Version()
			if err == migrate.ErrNilVersion {
				log.Println("No migrations applied yet")
				return nil
			}
			if err != nil {
				return fmt.Errorf("failed to get version: %w", err)
			}
			log.Printf("Version: %d, dirty: %v", version, dirty)
			return nil
		},
	}
}

func forceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "force <version>",
		Short: "Force the migration version without running migrations",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			version, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid version %q: %w", args[0], err)
			}

			m, cleanup, err := newMigrate()
			if err != nil {
				return err
			}
			defer cleanup()

			if err := m.Force(version); err != nil {
				return fmt.Errorf("force failed: %w", err)
			}
			log.Printf("Forced version to %d", version)
			return nil
		},
	}
}

// newMigrate builds a migrate instance against the configured database.
func newMigrate() (*migrate.Migrate, func(), error) {
	if err := config.InitConfig(env); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize config: %w", err)
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	pg, err := database.NewPostgres(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	driver, err := database.NewMigrateDriver(pg.DB)
	if err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("failed to create migrate driver: %w", err)
	}

	path, err := migrationsPath()
	if err != nil {
		pg.Close()
		return nil, nil, err
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", path),
		"postgres",
		driver,
	)
	if err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}

	return m, func() { pg.Close() }, nil
}

// migrationsPath finds the migrations directory relative to the project root.
func migrationsPath() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(dir, migrationsPathSuffix)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("migrations directory not found")
		}
		dir = parent
	}
}
