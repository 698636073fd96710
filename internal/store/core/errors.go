package core

import "errors"

var (
	// ErrNotFound indica que el registro no existe.
	ErrNotFound = errors.New("not found")

	// ErrConflict indica violación de unicidad (fingerprint o username/email duplicado).
	// Para la blacklist, callers idempotentes pueden tratarlo como éxito.
	ErrConflict = errors.New("conflict")

	// ErrInvalid indica datos inválidos para persistir.
	ErrInvalid = errors.New("invalid")
)

// IsConflict helper para chequear duplicados.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound helper para chequear ausencia.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
