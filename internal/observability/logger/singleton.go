package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	initOnce sync.Once
	root     *zap.Logger
)

// Init configura el logger global. Idempotente: llamadas posteriores no
// tienen efecto, así que va una sola vez al arrancar el proceso.
func Init(cfg Config) {
	initOnce.Do(func() {
		root = build(cfg)
	})
}

// L devuelve el logger global. Sin Init previo cae a dev/info, que es lo
// que quieren los tests.
func L() *zap.Logger {
	if root == nil {
		Init(Config{Env: "dev", Level: "info"})
	}
	return root
}

// Named devuelve el logger global nombrado por componente.
func Named(name string) *zap.Logger {
	return L().Named(name)
}

// Sync descarga los buffers pendientes; para el defer de main.
func Sync() error {
	if root == nil {
		return nil
	}
	return root.Sync()
}
