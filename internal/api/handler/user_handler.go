package handler

import (
	"encoding/json"
	"net/http"
	"oj_account/internal/api/middleware"
	"oj_account/internal/app/service"
	"oj_account/internal/common"
	"oj_account/internal/platform/logger"
	"strconv"

	"github.com/go-chi/chi/v5"
)

type UserHandler struct {
	userService  *service.UserService
	statsService *service.StatsService
}

func NewUserHandler(userService *service.UserService, statsService *service.StatsService) *UserHandler {
	return &UserHandler{userService: userService, statsService: statsService}
}

func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/{userID}/stats", h.getStats) // Public

	r.Group(func(me chi.Router) {
		me.Use(middleware.Authenticator)
		me.Get("/me", h.getMe)
		me.Delete("/me", h.deleteMe)
		me.Put("/me/profile", h.updateProfile)
		me.Put("/me/password", h.changePassword)
		me.Put("/me/language", h.setLanguage)
		me.Post("/me/auth-key/rotate", h.rotateAuthKey)
	})
}

func (h *UserHandler) getStats(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	log := logger.FromContext(r.Context())
	if _, err := h.userService.GetActiveUser(r.Context(), userID); err != nil {
		common.RespondWithDomainError(w, log, err)
		return
	}
	stats, err := h.statsService.ComputeStats(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, log, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, stats)
}

func (h *UserHandler) getMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	user, err := h.userService.GetActiveUser(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) deleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	if err := h.userService.Delete(r.Context(), userID); err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) updateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req service.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	user, err := h.userService.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, user)
}

func (h *UserHandler) changePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req service.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.userService.ChangePassword(r.Context(), userID, req); err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "Password changed."})
}

func (h *UserHandler) setLanguage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}

	var req service.SetLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	if err := h.userService.SetLanguage(r.Context(), userID, req.Language); err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) rotateAuthKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return
	}
	if err := h.userService.RotateAuthKey(r.Context(), userID); err != nil {
		common.RespondWithDomainError(w, logger.FromContext(r.Context()), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
