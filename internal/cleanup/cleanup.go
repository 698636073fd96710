// Package cleanup corre el prune periódico de la blacklist: las entradas
// cuyo token ya expiró no pueden autenticar de todas formas, así que solo
// ocupan espacio e inflan el lookup del hot path.
package cleanup

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/systemrpg/backend/internal/i18n"
	"github.com/systemrpg/backend/internal/metrics"
	"github.com/systemrpg/backend/internal/observability/logger"
	"github.com/systemrpg/backend/internal/store/core"
)

// Config del scheduler de limpieza.
type Config struct {
	// Schedule en formato cron estándar de 5 campos. Default: cada hora.
	Schedule string `yaml:"schedule"`
	// Timeout por pasada de prune.
	Timeout time.Duration `yaml:"timeout"`
}

// Scheduler ejecuta PruneExpired según el cron configurado.
type Scheduler struct {
	blacklist core.BlacklistRepository
	catalog   *i18n.Catalog
	cron      *cron.Cron
	timeout   time.Duration
	schedule  string
	now       func() time.Time
}

// New crea el scheduler (no lo arranca).
func New(blacklist core.BlacklistRepository, catalog *i18n.Catalog, cfg Config) *Scheduler {
	if cfg.Schedule == "" {
		cfg.Schedule = "0 * * * *"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Scheduler{
		blacklist: blacklist,
		catalog:   catalog,
		cron:      cron.New(),
		timeout:   cfg.Timeout,
		schedule:  cfg.Schedule,
		now:       time.Now,
	}
}

// Start registra el job y arranca el cron. Stop() detiene el scheduler y
// espera a que termine la pasada en curso.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.runOnce); err != nil {
		return err
	}
	s.cron.Start()
	logger.L().Info("blacklist cleanup scheduled",
		logger.Component("cleanup"),
		logger.String("schedule", s.schedule),
	)
	return nil
}

// Stop frena el cron y bloquea hasta que el job en curso termine.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunNow ejecuta una pasada fuera de schedule (comando de migración, tests).
func (s *Scheduler) RunNow(ctx context.Context) (int64, error) {
	return s.prune(ctx)
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	log := logger.L().With(logger.Component("cleanup"))
	log.Info(s.catalog.Message(i18n.DefaultLocale, "cleanup.started"))

	start := s.now()
	removed, err := s.prune(ctx)
	if err != nil {
		log.Error(s.catalog.Message(i18n.DefaultLocale, "cleanup.error"), logger.Err(err))
		return
	}

	log.Info(s.catalog.Message(i18n.DefaultLocale, "cleanup.completed"),
		logger.Count(removed),
		logger.Duration(s.now().Sub(start)),
	)
}

func (s *Scheduler) prune(ctx context.Context) (int64, error) {
	removed, err := s.blacklist.PruneExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}

	active, err := s.blacklist.CountActive(ctx, s.now().UTC())
	if err != nil {
		// El conteo es solo para la métrica.
		active = -1
	}
	metrics.RecordBlacklistPrune(removed, active)
	return removed, nil
}
