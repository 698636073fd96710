// Package store selecciona el backend de persistencia según configuración.
package store

import (
	"context"
	"fmt"

	"github.com/systemrpg/backend/internal/store/core"
	"github.com/systemrpg/backend/internal/store/memory"
	"github.com/systemrpg/backend/internal/store/pg"
)

// Config selecciona e inicializa el backend.
type Config struct {
	Driver       string `yaml:"driver"` // "postgres" | "memory"
	DSN          string `yaml:"dsn"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// Open crea el core.Store del driver configurado.
func Open(ctx context.Context, cfg Config) (core.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return pg.Connect(ctx, pg.Config{
			DSN:          cfg.DSN,
			MaxOpenConns: cfg.MaxOpenConns,
			MaxIdleConns: cfg.MaxIdleConns,
		})
	case "memory", "":
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
