// Command systemrpg arranca el backend de autenticación: serve levanta el
// servidor HTTP, migrate aplica el esquema de Postgres y keygen genera un
// par Ed25519 para el modo EdDSA.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/systemrpg/backend/internal/auth"
	"github.com/systemrpg/backend/internal/cache"
	"github.com/systemrpg/backend/internal/cleanup"
	"github.com/systemrpg/backend/internal/config"
	authctrl "github.com/systemrpg/backend/internal/http/controllers/auth"
	healthctrl "github.com/systemrpg/backend/internal/http/controllers/health"
	mw "github.com/systemrpg/backend/internal/http/middlewares"
	"github.com/systemrpg/backend/internal/http/router"
	authsvc "github.com/systemrpg/backend/internal/http/services/auth"
	"github.com/systemrpg/backend/internal/i18n"
	"github.com/systemrpg/backend/internal/jwt"
	"github.com/systemrpg/backend/internal/metrics"
	"github.com/systemrpg/backend/internal/observability/logger"
	"github.com/systemrpg/backend/internal/rate"
	"github.com/systemrpg/backend/internal/store"
	"github.com/systemrpg/backend/internal/store/pg"
	"github.com/systemrpg/backend/migrations"
)

func main() {
	// .env es opcional: en contenedores la config llega por env directo.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: .env no cargado: %v\n", err)
	}

	var configPath string

	root := &cobra.Command{
		Use:           "systemrpg",
		Short:         "Backend de autenticación de SystemRPG",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", envOr("SYSTEMRPG_CONFIG", ""), "path al config.yaml (env SYSTEMRPG_CONFIG)")

	root.AddCommand(serveCmd(&configPath))
	root.AddCommand(migrateCmd(&configPath))
	root.AddCommand(keygenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ============================================================
// serve
// ============================================================

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Levanta el servidor HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return runServer(cfg)
		},
	}
}

func runServer(cfg *config.Config) error {
	logEnv := "dev"
	if cfg.Log.Format == "json" {
		logEnv = "prod"
	}
	logger.Init(logger.Config{
		Env:         logEnv,
		Level:       cfg.Log.Level,
		ServiceName: "systemrpg",
	})
	defer logger.Sync() //nolint:errcheck

	log := logger.Named("main")

	catalog, err := i18n.Load()
	if err != nil {
		return fmt.Errorf("i18n: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.Config{
		Driver:       cfg.Storage.Driver,
		DSN:          cfg.Storage.DSN,
		MaxOpenConns: cfg.Storage.MaxOpenConns,
		MaxIdleConns: cfg.Storage.MaxIdleConns,
	})
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	defer st.Close() //nolint:errcheck

	cacheClient, err := cache.New(cache.Config{
		Driver:   cfg.Cache.Driver,
		Host:     cfg.Cache.Host,
		Port:     cfg.Cache.Port,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		Prefix:   cfg.Cache.Prefix,
	})
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cacheClient.Close() //nolint:errcheck

	blacklist := store.NewCachedBlacklist(st.Blacklist(), cacheClient, cfg.Auth.BlacklistCacheTTL)

	codec, err := buildCodec(cfg)
	if err != nil {
		return fmt.Errorf("jwt: %w", err)
	}

	validator := auth.NewValidator(codec, blacklist, cfg.Auth.BlacklistTimeout)

	service := authsvc.NewService(codec, validator, st.Users(), blacklist, catalog, authsvc.Config{
		AccessTTL:  cfg.JWT.AccessTTL,
		RefreshTTL: cfg.JWT.RefreshTTL,
	})

	metricsHandler, err := metrics.Register(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	var loginLimit mw.Middleware
	if cfg.Rate.Enabled {
		lim := rate.NewFixedWindow(cacheClient, "rl", cfg.Rate.Login.Limit, cfg.Rate.Login.Window)
		loginLimit = mw.WithRateLimit(lim, catalog)
	}

	handler := router.New(router.Deps{
		Auth:   authctrl.NewController(service),
		Health: healthctrl.NewController(st),
		AuthMiddleware: mw.RequireAuth(mw.AuthConfig{
			Validator:   validator,
			Catalog:     catalog,
			ContextPath: cfg.Server.ContextPath,
		}),
		LoginRateLimit: loginLimit,
		Locale:         mw.WithLocale(catalog),
		MetricsHandler: metricsHandler,
		AllowedOrigins: cfg.Server.CORSAllowedOrigins,
	})
	if cfg.Server.ContextPath != "" {
		handler = http.StripPrefix(cfg.Server.ContextPath, handler)
	}

	sched := cleanup.New(blacklist, catalog, cleanup.Config{
		Schedule: cfg.Cleanup.Schedule,
		Timeout:  cfg.Cleanup.Timeout,
	})
	if err := sched.Start(); err != nil {
		return fmt.Errorf("cleanup: %w", err)
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening",
			logger.String("addr", cfg.Server.Addr),
			logger.String("env", cfg.App.Env),
			logger.String("storage", cfg.Storage.Driver),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down", logger.Duration(cfg.Server.ShutdownTimeout))
		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", logger.Err(err))
		return err
	}
	log.Info("server stopped")
	return nil
}

// buildCodec arma el codec de firma según jwt.alg.
func buildCodec(cfg *config.Config) (*jwt.Codec, error) {
	switch cfg.JWT.Alg {
	case "HS256":
		secret := cfg.JWT.Secret
		if secret == "" {
			// Solo viable con storage memory (config.Validate lo garantiza);
			// útil para desarrollo local sin .env.
			secret = "dev-only-secret-do-not-use-in-prod"
		}
		return jwt.NewHMACCodec(secret), nil
	case "EdDSA":
		priv, err := readEd25519PrivateKey(cfg.JWT.PrivateKey)
		if err != nil {
			return nil, err
		}
		pub, err := readEd25519PublicKey(cfg.JWT.PublicKey)
		if err != nil {
			return nil, err
		}
		kid := cfg.JWT.KeyID
		if kid == "" {
			kid = "default"
		}
		return jwt.NewEdDSACodec(kid, priv, pub), nil
	default:
		return nil, fmt.Errorf("unsupported alg %q", cfg.JWT.Alg)
	}
}

func readEd25519PrivateKey(path string) (ed25519.PrivateKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%s: not a PEM file", path)
	}
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%s: not an Ed25519 key", path)
	}
	return priv, nil
}

func readEd25519PublicKey(path string) (ed25519.PublicKey, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("%s: not a PEM file", path)
	}
	key, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%s: not an Ed25519 key", path)
	}
	return pub, nil
}

// ============================================================
// migrate
// ============================================================

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Aplica las migraciones de Postgres pendientes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if cfg.Storage.Driver != "postgres" {
				return fmt.Errorf("migrate requiere storage.driver=postgres (actual: %q)", cfg.Storage.Driver)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()

			pgStore, err := pg.Connect(ctx, pg.Config{
				DSN:          cfg.Storage.DSN,
				MaxOpenConns: cfg.Storage.MaxOpenConns,
				MaxIdleConns: cfg.Storage.MaxIdleConns,
			})
			if err != nil {
				return fmt.Errorf("connect: %w", err)
			}
			defer pgStore.Close() //nolint:errcheck

			res, err := pg.NewMigrator(pgStore, migrations.Postgres, migrations.PostgresDir).Run(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("applied=%v skipped=%v duration=%s\n", res.Applied, res.Skipped, res.Duration)
			return nil
		},
	}
}

// ============================================================
// keygen
// ============================================================

func keygenCmd() *cobra.Command {
	var privPath, pubPath string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Genera un par Ed25519 en PEM para jwt.alg=EdDSA",
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				return err
			}

			privDER, err := x509.MarshalPKCS8PrivateKey(priv)
			if err != nil {
				return err
			}
			pubDER, err := x509.MarshalPKIXPublicKey(pub)
			if err != nil {
				return err
			}

			privPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER})
			pubPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})

			if err := os.WriteFile(privPath, privPEM, 0o600); err != nil {
				return err
			}
			if err := os.WriteFile(pubPath, pubPEM, 0o644); err != nil {
				return err
			}
			fmt.Printf("written %s and %s\n", privPath, pubPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&privPath, "priv", "jwt_ed25519.pem", "archivo de salida de la clave privada")
	cmd.Flags().StringVar(&pubPath, "pub", "jwt_ed25519.pub.pem", "archivo de salida de la clave pública")
	return cmd
}
