// Package config carga la configuración YAML con defaults sanos y overrides
// por variables de entorno.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr               string   `yaml:"addr"`
		ContextPath        string   `yaml:"context_path"`
		CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
		ShutdownTimeout    time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`  // debug | info | warn | error
		Format string `yaml:"format"` // console | json
	} `yaml:"log"`

	Storage struct {
		Driver       string `yaml:"driver"` // postgres | memory
		DSN          string `yaml:"dsn"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		MaxIdleConns int    `yaml:"max_idle_conns"`
	} `yaml:"storage"`

	Cache struct {
		Driver   string `yaml:"driver"` // memory | redis
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"cache"`

	JWT struct {
		// Alg: HS256 (secret compartido) | EdDSA (par Ed25519 + JWKS)
		Alg        string        `yaml:"alg"`
		Secret     string        `yaml:"secret"`
		KeyID      string        `yaml:"key_id"`
		PrivateKey string        `yaml:"private_key_file"`
		PublicKey  string        `yaml:"public_key_file"`
		AccessTTL  time.Duration `yaml:"access_ttl"`
		RefreshTTL time.Duration `yaml:"refresh_ttl"`
	} `yaml:"jwt"`

	Auth struct {
		// BlacklistTimeout acota el lookup de blacklist del hot path.
		BlacklistTimeout  time.Duration `yaml:"blacklist_timeout"`
		BlacklistCacheTTL time.Duration `yaml:"blacklist_cache_ttl"`
	} `yaml:"auth"`

	Rate struct {
		Enabled bool `yaml:"enabled"`
		Login   struct {
			Limit  int           `yaml:"limit"`
			Window time.Duration `yaml:"window"`
		} `yaml:"login"`
	} `yaml:"rate"`

	Cleanup struct {
		Schedule string        `yaml:"schedule"`
		Timeout  time.Duration `yaml:"timeout"`
	} `yaml:"cleanup"`
}

// Load lee el YAML (path vacío = solo defaults + env), aplica defaults y
// pisa con variables de entorno.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		if c.App.Env == "prod" {
			c.Log.Format = "json"
		} else {
			c.Log.Format = "console"
		}
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "memory"
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.Prefix == "" {
		c.Cache.Prefix = "systemrpg"
	}
	if c.JWT.Alg == "" {
		c.JWT.Alg = "HS256"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = 15 * time.Minute
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = 720 * time.Hour // 30d
	}
	if c.Auth.BlacklistTimeout == 0 {
		c.Auth.BlacklistTimeout = 2 * time.Second
	}
	if c.Auth.BlacklistCacheTTL == 0 {
		c.Auth.BlacklistCacheTTL = 5 * time.Minute
	}
	if c.Rate.Login.Limit == 0 {
		c.Rate.Login.Limit = 10
	}
	if c.Rate.Login.Window == 0 {
		c.Rate.Login.Window = time.Minute
	}
	if c.Cleanup.Schedule == "" {
		c.Cleanup.Schedule = "0 * * * *"
	}
	if c.Cleanup.Timeout == 0 {
		c.Cleanup.Timeout = 30 * time.Second
	}

	c.applyEnvOverrides()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate chequea los valores críticos.
func (c *Config) Validate() error {
	switch c.JWT.Alg {
	case "HS256":
		if c.Storage.Driver != "memory" && len(c.JWT.Secret) < 32 {
			return fmt.Errorf("config: jwt.secret must be at least 32 bytes for HS256")
		}
	case "EdDSA":
		if c.JWT.PrivateKey == "" || c.JWT.PublicKey == "" {
			return fmt.Errorf("config: jwt key files required for EdDSA")
		}
	default:
		return fmt.Errorf("config: unsupported jwt.alg %q", c.JWT.Alg)
	}
	if c.Storage.Driver == "postgres" && c.Storage.DSN == "" {
		return fmt.Errorf("config: storage.dsn required for postgres driver")
	}
	return nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
func getEnvDur(key string) (time.Duration, bool) {
	if s, ok := getEnvStr(key); ok {
		if d, err := time.ParseDuration(strings.TrimSpace(s)); err == nil {
			return d, true
		}
	}
	return 0, false
}
func getEnvCSV(key string) ([]string, bool) {
	if s, ok := getEnvStr(key); ok {
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out, true
	}
	return nil, false
}

// applyEnvOverrides pisa el YAML con variables de entorno.
func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("SERVER_CONTEXT_PATH"); ok {
		c.Server.ContextPath = v
	}
	if v, ok := getEnvCSV("SERVER_CORS_ALLOWED_ORIGINS"); ok {
		c.Server.CORSAllowedOrigins = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("STORAGE_DRIVER"); ok {
		c.Storage.Driver = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvInt("STORAGE_MAX_OPEN_CONNS"); ok {
		c.Storage.MaxOpenConns = v
	}
	if v, ok := getEnvStr("CACHE_DRIVER"); ok {
		c.Cache.Driver = v
	}
	if v, ok := getEnvStr("CACHE_HOST"); ok {
		c.Cache.Host = v
	}
	if v, ok := getEnvInt("CACHE_PORT"); ok {
		c.Cache.Port = v
	}
	if v, ok := getEnvStr("CACHE_PASSWORD"); ok {
		c.Cache.Password = v
	}
	if v, ok := getEnvStr("JWT_ALG"); ok {
		c.JWT.Alg = v
	}
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvDur("JWT_ACCESS_TTL"); ok {
		c.JWT.AccessTTL = v
	}
	if v, ok := getEnvDur("JWT_REFRESH_TTL"); ok {
		c.JWT.RefreshTTL = v
	}
	if v, ok := getEnvDur("AUTH_BLACKLIST_TIMEOUT"); ok {
		c.Auth.BlacklistTimeout = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvStr("CLEANUP_SCHEDULE"); ok {
		c.Cleanup.Schedule = v
	}
}
