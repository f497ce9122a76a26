package common

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

func RespondWithError(w http.ResponseWriter, code int, message string) {
	RespondWithJSON(w, code, ErrorResponse{Error: message})
}

// RespondWithDomainError maps err to a status and writes it. Field failures
// are listed under details; internal errors are logged and not echoed.
func RespondWithDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	code := HTTPStatusFromError(err)
	if code == http.StatusInternalServerError {
		logger.Error("request failed", slog.Any("err", err))
		RespondWithError(w, code, ErrInternalServer.Error())
		return
	}

	resp := ErrorResponse{Error: err.Error()}
	if fe, ok := FieldErrorsFrom(err); ok {
		resp.Details = fe
		if errors.Is(err, ErrValidation) {
			resp.Error = ErrValidation.Error()
		} else {
			resp.Error = ErrCredential.Error()
		}
	}
	RespondWithJSON(w, code, resp)
}

func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
