package service

import (
	"context"
	"fmt"
	"log/slog"
	"oj_account/internal/common"
	"oj_account/internal/domain/model"
	"oj_account/internal/domain/repository"
	"oj_account/internal/platform/logger"
)

type UserService struct {
	userRepo repository.UserRepository
	identity *IdentityService
}

func NewUserService(userRepo repository.UserRepository, identity *IdentityService) *UserService {
	return &UserService{userRepo: userRepo, identity: identity}
}

type ChangePasswordRequest struct {
	OldPassword    string `json:"old_password"`
	NewPassword    string `json:"new_password"`
	VerifyPassword string `json:"verify_password"`
}

type UpdateProfileRequest struct {
	Nickname string `json:"nickname"`
}

type SetLanguageRequest struct {
	Language int `json:"language"`
}

func (s *UserService) GetActiveUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.identity.FindActiveByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, common.ErrNotFound
	}
	return user, nil
}

// ChangePassword stores a new hash only after every field has validated.
func (s *UserService) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	user, err := s.GetActiveUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == model.RolePlayer {
		return fmt.Errorf("contest accounts cannot change their password: %w", common.ErrForbidden)
	}

	if err := s.identity.ValidateOldPasswordChange(ctx, user, req.OldPassword, req.NewPassword, req.VerifyPassword); err != nil {
		return err
	}

	if err := s.identity.SetPassword(user, req.NewPassword); err != nil {
		return err
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store new password: %w", err)
	}

	logger.FromContext(ctx).Info("password changed", slog.Int64("user_id", user.ID))
	return nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*model.User, error) {
	user, err := s.GetActiveUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == model.RolePlayer {
		return nil, fmt.Errorf("contest accounts cannot change their profile: %w", common.ErrForbidden)
	}
	if err := ValidateNickname(req.Nickname); err != nil {
		return nil, err
	}

	user.Nickname = req.Nickname
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// SetLanguage updates only the language column of userID.
func (s *UserService) SetLanguage(ctx context.Context, userID int64, language int) error {
	if _, ok := model.LanguageName(language); !ok {
		return common.ValidationError("language", "Language is invalid.")
	}
	if _, err := s.GetActiveUser(ctx, userID); err != nil {
		return err
	}
	if err := s.userRepo.UpdateLanguage(ctx, userID, language); err != nil {
		return fmt.Errorf("failed to set language: %w", err)
	}
	return nil
}

// RotateAuthKey invalidates every "remember me" session of the user.
func (s *UserService) RotateAuthKey(ctx context.Context, userID int64) error {
	user, err := s.GetActiveUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.identity.GenerateAuthKey(user); err != nil {
		return fmt.Errorf("failed to generate auth key: %w", err)
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to store auth key: %w", err)
	}
	return nil
}

// Delete is a soft delete: the row stays, the account stops resolving.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	user, err := s.GetActiveUser(ctx, userID)
	if err != nil {
		return err
	}
	user.Status = model.StatusDeleted
	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	logger.FromContext(ctx).Info("user deleted", slog.Int64("user_id", user.ID))
	return nil
}
