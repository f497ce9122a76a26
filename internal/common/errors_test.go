package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatusFromError(t *testing.T) {
	mixed := FieldErrors{}
	mixed.AddCredential("oldPassword", "Incorrect old password.")
	mixed.Add("verifyPassword", "Verify Password cannot be blank.")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation and credential", mixed, http.StatusBadRequest},
		{"credential only", CredentialError("oldPassword", "Incorrect old password."), http.StatusUnauthorized},
		{"wrapped field errors", fmt.Errorf("signup: %w", ValidationError("username", "bad")), http.StatusBadRequest},
		{"not found", fmt.Errorf("find: %w", ErrNotFound), http.StatusNotFound},
		{"unauthorized", ErrUnauthorized, http.StatusUnauthorized},
		{"forbidden", fmt.Errorf("player: %w", ErrForbidden), http.StatusForbidden},
		{"bad request", ErrBadRequest, http.StatusBadRequest},
		{"conflict", fmt.Errorf("create: %w", ErrConflict), http.StatusConflict},
		{"pg unique violation", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}), http.StatusConflict},
		{"other pg error", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"}), http.StatusInternalServerError},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, HTTPStatusFromError(tt.err))
		})
	}
}

func TestFieldErrors_Err(t *testing.T) {
	var errs FieldErrors
	require.NoError(t, errs.Err())

	errs.Add("nickname", "Nickname cannot be blank.")
	err := errs.Err()
	require.ErrorIs(t, err, ErrValidation)
	require.NotErrorIs(t, err, ErrCredential)

	fe, ok := FieldErrorsFrom(fmt.Errorf("wrap: %w", err))
	require.True(t, ok)
	require.Equal(t, "nickname", fe[0].Field)
}
