// Package migrations embebe los archivos SQL en el binario.
// Formato de archivo: {version}_{name}.sql (ej: 0001_init.sql)
package migrations

import "embed"

//go:embed postgres/*.sql
var Postgres embed.FS

// PostgresDir es el directorio dentro del FS embebido.
const PostgresDir = "postgres"
