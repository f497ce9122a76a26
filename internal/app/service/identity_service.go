package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"oj_account/internal/common"
	"oj_account/internal/common/security"
	"oj_account/internal/domain/model"
	"oj_account/internal/domain/repository"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Clock supplies the current time. Tests pin it.
type Clock func() time.Time

const (
	usernameMessage   = "Username may only contain letters, digits and underscores, must not be purely numeric, and must be 4-32 characters long."
	nicknameMaxLength = 16
	passwordMaxBytes  = 72 // bcrypt input limit
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{4,32}$`)
	digitsPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// IdentityService answers identity and credential questions about users:
// who is active, does a password match, is a reset token still usable.
// Mutating helpers only change the *model.User they are given; callers persist.
type IdentityService struct {
	userRepo         repository.UserRepository
	hasher           security.Hasher
	clock            Clock
	resetTokenExpire int64
	randomString     func() (string, error)
}

func NewIdentityService(userRepo repository.UserRepository, hasher security.Hasher, resetTokenExpireSeconds int64, clock Clock) *IdentityService {
	if clock == nil {
		clock = time.Now
	}
	return &IdentityService{
		userRepo:         userRepo,
		hasher:           hasher,
		clock:            clock,
		resetTokenExpire: resetTokenExpireSeconds,
		randomString:     security.RandomString,
	}
}

// FindActiveByID returns (nil, nil) when the user is missing or not active.
func (s *IdentityService) FindActiveByID(ctx context.Context, id int64) (*model.User, error) {
	return s.findActive(ctx, repository.UserCriteria{ID: &id})
}

// FindByLoginHandle resolves what a user typed into the login box. An
// integer is an id, anything with '@' after the first character is an
// email, everything else is a username.
func (s *IdentityService) FindByLoginHandle(ctx context.Context, handle string) (*model.User, error) {
	var criteria repository.UserCriteria
	if id, err := strconv.ParseInt(handle, 10, 64); err == nil {
		criteria.ID = &id
	} else if strings.Index(handle, "@") > 0 {
		criteria.Email = &handle
	} else {
		criteria.Username = &handle
	}
	return s.findActive(ctx, criteria)
}

// FindByResetToken returns nil for empty, malformed or expired tokens
// without touching the store.
func (s *IdentityService) FindByResetToken(ctx context.Context, token string) (*model.User, error) {
	if !s.ResetTokenValid(token) {
		return nil, nil
	}
	return s.findActive(ctx, repository.UserCriteria{PasswordResetToken: &token})
}

// findActive never hands out a non-active user, whatever the store returns.
func (s *IdentityService) findActive(ctx context.Context, criteria repository.UserCriteria) (*model.User, error) {
	user, err := s.findOne(ctx, criteria.Active())
	if err != nil || !user.IsActive() {
		return nil, err
	}
	return user, nil
}

func (s *IdentityService) findOne(ctx context.Context, criteria repository.UserCriteria) (*model.User, error) {
	user, err := s.userRepo.FindOne(ctx, criteria)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// ResetTokenValid checks token against a single reading of the clock.
func (s *IdentityService) ResetTokenValid(token string) bool {
	return IsResetTokenValid(token, s.resetTokenExpire, s.clock().Unix())
}

// IsResetTokenValid parses the unix timestamp after the last '_' of token.
// It fails closed on empty tokens and unparseable suffixes.
func IsResetTokenValid(token string, expireSeconds, now int64) bool {
	if token == "" {
		return false
	}
	i := strings.LastIndexByte(token, '_')
	if i < 0 {
		return false
	}
	issuedAt, err := strconv.ParseInt(token[i+1:], 10, 64)
	if err != nil {
		return false
	}
	return issuedAt+expireSeconds >= now
}

func (s *IdentityService) VerifyPassword(user *model.User, password string) bool {
	if user == nil {
		return false
	}
	return s.hasher.Verify(password, user.PasswordHash)
}

func (s *IdentityService) SetPassword(user *model.User, password string) error {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

// GenerateAuthKey assigns a fresh "remember me" key.
func (s *IdentityService) GenerateAuthKey(user *model.User) error {
	key, err := s.randomString()
	if err != nil {
		return err
	}
	user.AuthKey = key
	return nil
}

func (s *IdentityService) ValidateAuthKey(user *model.User, authKey string) bool {
	if user == nil || user.AuthKey == "" || authKey == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(user.AuthKey), []byte(authKey)) == 1
}

// GeneratePasswordResetToken assigns "<random>_<unix now>".
func (s *IdentityService) GeneratePasswordResetToken(user *model.User) error {
	random, err := s.randomString()
	if err != nil {
		return err
	}
	token := random + "_" + strconv.FormatInt(s.clock().Unix(), 10)
	user.PasswordResetToken = &token
	return nil
}

func (s *IdentityService) RemovePasswordResetToken(user *model.User) {
	user.PasswordResetToken = nil
}

// ValidateOldPasswordChange collects every failure of a password change form.
// The old password is checked against the stored hash, not the in-memory one.
func (s *IdentityService) ValidateOldPasswordChange(ctx context.Context, user *model.User, oldPassword, newPassword, verifyPassword string) error {
	var errs common.FieldErrors

	if oldPassword == "" {
		errs.Add("oldPassword", "Old Password cannot be blank.")
	} else {
		stored := user
		if user.ID != 0 {
			found, err := s.findOne(ctx, repository.UserCriteria{ID: &user.ID})
			if err != nil {
				return err
			}
			stored = found
		}
		if stored == nil || !s.VerifyPassword(stored, oldPassword) {
			errs.AddCredential("oldPassword", "Incorrect old password.")
		}
	}

	validatePassword(&errs, "newPassword", "New Password", newPassword)

	if verifyPassword == "" {
		errs.Add("verifyPassword", "Verify Password cannot be blank.")
	} else if verifyPassword != newPassword {
		errs.Add("verifyPassword", `Verify Password must be equal to "New Password".`)
	}

	return errs.Err()
}

// ValidateUsername enforces: letters, digits and '_' only, 4-32 long, not
// all digits, no leading or trailing '_'.
func ValidateUsername(username string) error {
	var errs common.FieldErrors
	validateUsername(&errs, username)
	return errs.Err()
}

func validateUsername(errs *common.FieldErrors, username string) {
	switch {
	case username == "":
		errs.Add("username", "Username cannot be blank.")
	case !usernamePattern.MatchString(username),
		digitsPattern.MatchString(username),
		strings.HasPrefix(username, "_"),
		strings.HasSuffix(username, "_"):
		errs.Add("username", usernameMessage)
	}
}

func ValidateNickname(nickname string) error {
	var errs common.FieldErrors
	validateNickname(&errs, nickname)
	return errs.Err()
}

func validateNickname(errs *common.FieldErrors, nickname string) {
	switch {
	case strings.TrimSpace(nickname) == "":
		errs.Add("nickname", "Nickname cannot be blank.")
	case utf8.RuneCountInString(nickname) > nicknameMaxLength:
		errs.Add("nickname", fmt.Sprintf("Nickname should contain at most %d characters.", nicknameMaxLength))
	}
}

func validatePassword(errs *common.FieldErrors, field, label, password string) {
	switch {
	case password == "":
		errs.Add(field, label+" cannot be blank.")
	case len(password) > passwordMaxBytes:
		errs.Add(field, fmt.Sprintf("%s should contain at most %d bytes.", label, passwordMaxBytes))
	}
}
