// Package helpers agrupa utilidades compartidas por controllers.
package helpers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	apperrors "github.com/systemrpg/backend/internal/http/errors"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// ReadJSON decodifica el body JSON en dst. Rechaza bodies gigantes y campos
// desconocidos no: la tolerancia a campos extra es intencional.
func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperrors.ErrInvalidJSON.WithDetail("empty body")
		}
		return apperrors.ErrInvalidJSON.WithCause(err)
	}
	return nil
}

// WriteJSON serializa v con el status dado.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
