// Package errors define la estructura estándar de errores HTTP y el envelope
// de respuesta que consume todo el servicio.
package errors

import (
	"fmt"
	"net/http"
)

// AppError define la estructura estándar para errores de la aplicación.
type AppError struct {
	Code        string       `json:"code"`
	Message     string       `json:"message"`
	Detail      string       `json:"detail,omitempty"`
	FieldErrors []FieldError `json:"fieldErrors,omitempty"`
	HTTPStatus  int          `json:"-"` // No se serializa, usado para el header
	Err         error        `json:"-"` // Causa original, solo para logs
}

// FieldError describe un error de validación de un campo puntual.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implementa la interfaz error.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap permite acceder al error original.
func (e *AppError) Unwrap() error {
	return e.Err
}

// New crea un nuevo AppError.
func New(status int, code, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: status,
	}
}

// FromError intenta convertir un error genérico en un AppError.
// Si no lo es, devuelve un error interno genérico conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail agrega detalle al error. Devuelve una COPIA para no mutar las
// variables globales base.
func (e *AppError) WithDetail(detail string) *AppError {
	newErr := *e
	newErr.Detail = detail
	return &newErr
}

// WithMessage reemplaza el mensaje (típicamente por el texto localizado).
// Devuelve una COPIA.
func (e *AppError) WithMessage(msg string) *AppError {
	newErr := *e
	newErr.Message = msg
	return &newErr
}

// WithCause agrega la causa original. Devuelve una COPIA.
func (e *AppError) WithCause(err error) *AppError {
	newErr := *e
	newErr.Err = err
	return &newErr
}

// WithFieldErrors agrega errores de validación por campo. Devuelve una COPIA.
func (e *AppError) WithFieldErrors(fes ...FieldError) *AppError {
	newErr := *e
	newErr.FieldErrors = fes
	return &newErr
}

// =================================================================================
// LISTA DE ERRORES PREDEFINIDOS
// =================================================================================

var (
	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "The request contains invalid syntax or missing parameters.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrInvalidJSON = &AppError{
		Code:       "INVALID_JSON",
		Message:    "The request body is not valid JSON.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrValidation = &AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "One or more fields are invalid.",
		HTTPStatus: http.StatusBadRequest,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Authentication required.",
		HTTPStatus: http.StatusUnauthorized,
	}

	ErrForbidden = &AppError{
		Code:       "FORBIDDEN",
		Message:    "You do not have permission to access this resource.",
		HTTPStatus: http.StatusForbidden,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "The requested resource was not found.",
		HTTPStatus: http.StatusNotFound,
	}

	ErrConflict = &AppError{
		Code:       "CONFLICT",
		Message:    "The resource already exists.",
		HTTPStatus: http.StatusConflict,
	}

	ErrTooManyRequests = &AppError{
		Code:       "RATE_LIMITED",
		Message:    "Too many requests. Try again later.",
		HTTPStatus: http.StatusTooManyRequests,
	}

	ErrInternalServerError = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError,
	}
)
