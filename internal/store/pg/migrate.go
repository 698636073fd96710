package pg

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Migrator aplica migraciones SQL embebidas sobre el pool.
type Migrator struct {
	store         *Store
	migrationsFS  embed.FS
	migrationsDir string
}

// NewMigrator crea un Migrator sobre el store dado.
func NewMigrator(store *Store, migrationsFS embed.FS, migrationsDir string) *Migrator {
	return &Migrator{
		store:         store,
		migrationsFS:  migrationsFS,
		migrationsDir: migrationsDir,
	}
}

// Migration es una migración individual.
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// Result resume una corrida de migraciones.
type Result struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)\.sql$`)

// ParseMigrations lee y ordena las migraciones del FS embebido.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	var migrations []Migration

	err := fs.WalkDir(m.migrationsFS, m.migrationsDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		match := migrationFilePattern.FindStringSubmatch(filepath.Base(path))
		if match == nil {
			return nil
		}
		version, err := strconv.Atoi(match[1])
		if err != nil {
			return fmt.Errorf("pg: bad migration version in %s: %w", path, err)
		}
		raw, err := m.migrationsFS.ReadFile(path)
		if err != nil {
			return err
		}
		migrations = append(migrations, Migration{
			Version: version,
			Name:    strings.TrimSuffix(match[2], ".sql"),
			SQL:     string(raw),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(migrations, func(i, j int) bool { return migrations[i].Version < migrations[j].Version })
	return migrations, nil
}

// Run aplica las migraciones pendientes en orden, registrando cada versión en
// schema_migrations. Cada migración corre en su propia transacción.
func (m *Migrator) Run(ctx context.Context) (*Result, error) {
	start := time.Now()

	_, err := m.store.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version    INT PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("pg: create schema_migrations: %w", err)
	}

	migrations, err := m.ParseMigrations()
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, mig := range migrations {
		var exists bool
		err := m.store.pool.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)`, mig.Version,
		).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if exists {
			res.Skipped = append(res.Skipped, mig.Version)
			continue
		}

		tx, err := m.store.pool.Begin(ctx)
		if err != nil {
			return nil, err
		}
		if _, err := tx.Exec(ctx, mig.SQL); err != nil {
			_ = tx.Rollback(ctx)
			return nil, fmt.Errorf("pg: migration %04d_%s failed: %w", mig.Version, mig.Name, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO schema_migrations (version, name) VALUES ($1, $2)`,
			mig.Version, mig.Name,
		); err != nil {
			_ = tx.Rollback(ctx)
			return nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, err
		}
		res.Applied = append(res.Applied, mig.Version)
	}

	res.Duration = time.Since(start)
	return res, nil
}
