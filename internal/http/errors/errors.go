package errors

import (
	"encoding/json"
	"net/http"
	"time"
)

// ErrorResponse es el envelope estandarizado que ve el cliente.
// Timestamp en epoch millis; Error es la frase HTTP, Type el código interno.
type ErrorResponse struct {
	Timestamp   int64        `json:"timestamp"`
	Type        string       `json:"type"`
	Status      int          `json:"status"`
	Error       string       `json:"error"`
	Message     string       `json:"message"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`
	Detail      string       `json:"detail,omitempty"`
	Path        string       `json:"path,omitempty"`
}

// unauthorizedBody es el body 401 compacto del middleware de autenticación.
// Shape fijo: error, message localizado, timestamp en millis.
type unauthorizedBody struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
}

// WriteError serializa el error como envelope estandarizado.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := FromError(err)

	resp := ErrorResponse{
		Timestamp:   time.Now().UnixMilli(),
		Type:        appErr.Code,
		Status:      appErr.HTTPStatus,
		Error:       http.StatusText(appErr.HTTPStatus),
		Message:     appErr.Message,
		FieldErrors: appErr.FieldErrors,
		Detail:      appErr.Detail,
	}
	if r != nil {
		resp.Path = r.URL.Path
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(appErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteUnauthorized escribe el body 401 del middleware de autenticación.
// Todos los sub-motivos de rechazo colapsan acá: el body nunca revela cuál
// chequeo falló, solo un mensaje localizado genérico.
func WriteUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(unauthorizedBody{
		Error:     "Unauthorized",
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
}
