package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"oj_account/internal/app/service"
	"oj_account/internal/common"
	"oj_account/internal/platform/logger"
	"oj_account/internal/platform/notify"

	"github.com/go-chi/chi/v5"
)

type AuthHandler struct {
	authService *service.AuthService
	sender      notify.Sender
}

func NewAuthHandler(authService *service.AuthService, sender notify.Sender) *AuthHandler {
	return &AuthHandler{authService: authService, sender: sender}
}

func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.signup)
	r.Post("/login", h.login)
	r.Post("/login/auth-key", h.loginWithAuthKey)
	r.Post("/password-reset/request", h.requestPasswordReset)
	r.Post("/password-reset/confirm", h.confirmPasswordReset)
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func (h *AuthHandler) signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	resp, err := h.authService.Signup(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, resp)
}

func (h *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.authService.Login(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) loginWithAuthKey(w http.ResponseWriter, r *http.Request) {
	var req service.AuthKeyLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	resp, err := h.authService.LoginWithAuthKey(r.Context(), req)
	if err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	log := logger.FromContext(r.Context())
	token, err := h.authService.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		common.RespondWithDomainError(w, log, err)
		return
	}
	if err := h.sender.SendPasswordReset(r.Context(), req.Email, token); err != nil {
		log.Error("failed to send password reset", slog.Any("err", err))
		common.RespondWithError(w, http.StatusInternalServerError, "Sorry, we are unable to reset password for the provided email address.")
		return
	}
	common.RespondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Check your email for further instructions."})
}

func (h *AuthHandler) confirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.authService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "New password saved."})
}
