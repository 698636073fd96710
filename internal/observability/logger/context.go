package logger

import (
	"context"

	"go.uber.org/zap"
)

type loggerKey struct{}

// ToContext cuelga un logger del contexto. Los middlewares lo usan para
// propagar un logger con request_id/method/path hacia las capas de abajo.
func ToContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, l)
}

// From recupera el logger del contexto, o el global si no hay ninguno.
func From(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return L()
}
