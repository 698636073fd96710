package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos con nombre fijo: así los dashboards filtran por la misma key sin
// importar desde qué capa se logueó.

// ---- request ----

// RequestID correlaciona todos los logs de un mismo request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method es el verbo HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path es el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status es el status code de la respuesta.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// DurationMs es la duración del request en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// Bytes son los bytes escritos en la respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// ---- auth ----

// UserID identifica al usuario autenticado.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// Username del usuario autenticado.
func Username(v string) zap.Field {
	return zap.String("username", v)
}

// Token recibe un token YA enmascarado (token.Mask). Nunca el crudo.
func Token(masked string) zap.Field {
	return zap.String("token", masked)
}

// Outcome es el resultado de una validación de token.
func Outcome(v string) zap.Field {
	return zap.String("outcome", v)
}

// Fingerprint de un token. Es un hash, seguro de loguear.
func Fingerprint(v string) zap.Field {
	return zap.String("fingerprint", v)
}

// ---- sistema ----

// Component nombra el módulo que emite el log.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op nombra la operación en curso.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Layer indica la capa (handler, service, repository).
func Layer(v string) zap.Field {
	return zap.String("layer", v)
}

// Err adjunta un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count es un conteo genérico.
func Count(v int64) zap.Field {
	return zap.Int64("count", v)
}

// Duration es una duración genérica.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// Any envuelve zap.Any.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}

// String envuelve zap.String.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}
