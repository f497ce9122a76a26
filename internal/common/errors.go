package common

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound       = errors.New("requested resource not found")
	ErrUnauthorized   = errors.New("unauthorized access")
	ErrForbidden      = errors.New("forbidden access")
	ErrBadRequest     = errors.New("bad request")
	ErrConflict       = errors.New("resource conflict") // e.g., username already exists
	ErrInternalServer = errors.New("internal server error")
	ErrValidation     = errors.New("validation failed")
	ErrCredential     = errors.New("invalid credential") // wrong old password, expired reset token
)

// FieldError is a failure scoped to a single input field so forms can be
// redisplayed with per-field messages. Kind is ErrValidation or ErrCredential.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Kind    error  `json:"-"`
}

func (e FieldError) Error() string {
	return e.Field + ": " + e.Message
}

func (e FieldError) Unwrap() error {
	return e.Kind
}

// FieldErrors collects every field failure of one operation.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	msgs := make([]string, 0, len(fe))
	for _, e := range fe {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func (fe FieldErrors) Unwrap() []error {
	errs := make([]error, 0, len(fe))
	for _, e := range fe {
		errs = append(errs, e)
	}
	return errs
}

// Add appends a validation failure for field.
func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message, Kind: ErrValidation})
}

// AddCredential appends a credential failure for field.
func (fe *FieldErrors) AddCredential(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message, Kind: ErrCredential})
}

// Err returns nil when nothing was collected so callers can write
// `return errs.Err()` without tripping over a typed nil.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// ValidationError builds a single-field validation failure.
func ValidationError(field, message string) error {
	return FieldErrors{{Field: field, Message: message, Kind: ErrValidation}}
}

// CredentialError builds a single-field credential failure.
func CredentialError(field, message string) error {
	return FieldErrors{{Field: field, Message: message, Kind: ErrCredential}}
}

// FieldErrorsFrom extracts the collected field failures from err, if any.
func FieldErrorsFrom(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	// Field failures are form errors, even when one of them is a wrong
	// old password.
	if _, ok := FieldErrorsFrom(err); ok {
		if errors.Is(err, ErrValidation) {
			return http.StatusBadRequest
		}
		if errors.Is(err, ErrCredential) {
			return http.StatusUnauthorized
		}
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrCredential) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // Unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}
