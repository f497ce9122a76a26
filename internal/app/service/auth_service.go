package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"oj_account/internal/common"
	"oj_account/internal/common/security"
	"oj_account/internal/domain/model"
	"oj_account/internal/domain/repository"
	"oj_account/internal/platform/logger"
)

type AuthService struct {
	userRepo repository.UserRepository
	identity *IdentityService
}

func NewAuthService(userRepo repository.UserRepository, identity *IdentityService) *AuthService {
	return &AuthService{userRepo: userRepo, identity: identity}
}

type SignupRequest struct {
	Username string `json:"username"`
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	LoginField string `json:"login_field"` // id, email or username
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`
}

type AuthKeyLoginRequest struct {
	UserID  int64  `json:"user_id"`
	AuthKey string `json:"auth_key"`
}

type AuthResponse struct {
	User    *model.User `json:"user"`
	Token   string      `json:"token"`
	AuthKey string      `json:"auth_key,omitempty"` // only when remember_me was requested
}

func (s *AuthService) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	var errs common.FieldErrors
	validateUsername(&errs, req.Username)
	validateNickname(&errs, req.Nickname)
	validateEmail(&errs, req.Email)
	validatePassword(&errs, "password", "Password", req.Password)
	if err := errs.Err(); err != nil {
		return nil, err
	}

	taken, err := s.userRepo.UsernameTaken(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("this username has already been taken: %w", common.ErrConflict)
	}

	user := &model.User{
		Username: req.Username,
		Nickname: req.Nickname,
		Email:    req.Email,
		Status:   model.StatusActive,
		Role:     model.RoleUser, // Default role
	}
	if err := s.identity.SetPassword(user, req.Password); err != nil {
		return nil, err
	}
	if err := s.identity.GenerateAuthKey(user); err != nil {
		return nil, fmt.Errorf("failed to generate auth key: %w", err)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		// Repo returns common.ErrConflict when a concurrent signup won the race
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := security.GenerateToken(user.ID, user.Role.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	logger.FromContext(ctx).Info("user registered", slog.Int64("user_id", user.ID))
	return &AuthResponse{User: user, Token: token}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	if req.LoginField == "" || req.Password == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.identity.FindByLoginHandle(ctx, req.LoginField)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !s.identity.VerifyPassword(user, req.Password) {
		return nil, common.ErrUnauthorized // Generic message for security
	}

	resp := &AuthResponse{User: user}
	if req.RememberMe {
		if user.AuthKey == "" {
			if err := s.identity.GenerateAuthKey(user); err != nil {
				return nil, fmt.Errorf("failed to generate auth key: %w", err)
			}
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to store auth key: %w", err)
			}
		}
		resp.AuthKey = user.AuthKey
	}

	resp.Token, err = security.GenerateToken(user.ID, user.Role.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return resp, nil
}

// LoginWithAuthKey re-authenticates a "remember me" client.
func (s *AuthService) LoginWithAuthKey(ctx context.Context, req AuthKeyLoginRequest) (*AuthResponse, error) {
	if req.UserID == 0 || req.AuthKey == "" {
		return nil, common.ErrBadRequest
	}

	user, err := s.identity.FindActiveByID(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if !s.identity.ValidateAuthKey(user, req.AuthKey) {
		return nil, common.ErrUnauthorized
	}

	token, err := security.GenerateToken(user.ID, user.Role.String())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &AuthResponse{User: user, Token: token}, nil
}

// RequestPasswordReset issues a reset token for the active user owning
// email, reusing one that has not expired yet. Delivering the token is up to
// the caller.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	var errs common.FieldErrors
	validateEmail(&errs, email)
	if err := errs.Err(); err != nil {
		return "", err
	}

	user, err := s.identity.findActive(ctx, repository.UserCriteria{Email: &email})
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", fmt.Errorf("no active user with this email: %w", common.ErrNotFound)
	}

	if user.PasswordResetToken == nil || !s.identity.ResetTokenValid(*user.PasswordResetToken) {
		if err := s.identity.GeneratePasswordResetToken(user); err != nil {
			return "", fmt.Errorf("failed to generate reset token: %w", err)
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return "", fmt.Errorf("failed to store reset token: %w", err)
		}
	}

	logger.FromContext(ctx).Info("password reset requested", slog.Int64("user_id", user.ID))
	return *user.PasswordResetToken, nil
}

// ResetPassword consumes a reset token. The token is cleared in the same
// write that stores the new hash.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	var errs common.FieldErrors
	validatePassword(&errs, "password", "Password", newPassword)
	if err := errs.Err(); err != nil {
		return err
	}

	user, err := s.identity.FindByResetToken(ctx, token)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return common.CredentialError("token", "Wrong password reset token.")
	}

	if err := s.identity.SetPassword(user, newPassword); err != nil {
		return err
	}
	s.identity.RemovePasswordResetToken(user)
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store new password: %w", err)
	}

	logger.FromContext(ctx).Info("password reset", slog.Int64("user_id", user.ID))
	return nil
}

func validateEmail(errs *common.FieldErrors, email string) {
	if email == "" {
		errs.Add("email", "Email cannot be blank.")
		return
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs.Add("email", "Email is not a valid email address.")
	}
}
