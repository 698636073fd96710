package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config del logger global.
type Config struct {
	// Env: "dev" arma salida de consola legible, "prod" arma JSON por línea.
	Env string

	// Level mínimo: "debug", "info", "warn", "error". Default "info".
	Level string

	// ServiceName se agrega como campo base en todos los logs. Opcional.
	ServiceName string

	// Version del binario, también campo base. Opcional.
	Version string
}

func (c Config) isProd() bool {
	return strings.EqualFold(c.Env, "prod")
}

// build arma el core a mano: encoder según entorno sobre stderr, con
// stacktraces solo desde Error en prod.
func build(cfg Config) *zap.Logger {
	enc := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.isProd() {
		enc.EncodeTime = zapcore.ISO8601TimeEncoder
		enc.EncodeLevel = zapcore.LowercaseLevelEncoder
		encoder = zapcore.NewJSONEncoder(enc)
	} else {
		enc.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(enc)
	}

	core := zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), parseLevel(cfg.Level))

	opts := []zap.Option{zap.AddCaller(), zap.AddCallerSkip(1)}
	if cfg.isProd() {
		opts = append(opts, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	l := zap.New(core, opts...)
	if cfg.ServiceName != "" {
		l = l.With(zap.String("service", cfg.ServiceName))
	}
	if cfg.Version != "" {
		l = l.With(zap.String("version", cfg.Version))
	}
	return l
}

func parseLevel(lvl string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
