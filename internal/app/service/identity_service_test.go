package service

import (
	"context"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"oj_account/internal/common"
	"oj_account/internal/common/security"
	"oj_account/internal/domain/model"
	"oj_account/internal/domain/repository"
	"oj_account/internal/platform/database"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var fixedNow = time.Unix(1700000000, 0)

func fixedClock() time.Time { return fixedNow }

type testEnv struct {
	userRepo       repository.UserRepository
	submissionRepo repository.SubmissionRepository
	identity       *IdentityService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "service.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(db, database.SQLite))

	security.InitJWT([]byte("test-secret"), time.Hour)

	userRepo := newRecordingUserRepository(repository.NewSQLUserRepository(db, database.SQLite))
	return &testEnv{
		userRepo:       userRepo,
		submissionRepo: repository.NewSQLSubmissionRepository(db, database.SQLite),
		identity:       NewIdentityService(userRepo, security.NewBcryptHasher(bcrypt.MinCost), 3600, fixedClock),
	}
}

// createUser stores an active user whose password is "secret123".
func (e *testEnv) createUser(t *testing.T, username string, mutate ...func(*model.User)) *model.User {
	t.Helper()
	u := &model.User{
		Username: username,
		Nickname: "nick",
		Email:    username + "@example.com",
		Status:   model.StatusActive,
		Role:     model.RoleUser,
	}
	require.NoError(t, e.identity.SetPassword(u, "secret123"))
	require.NoError(t, e.identity.GenerateAuthKey(u))
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, e.userRepo.Create(context.Background(), u))
	return u
}

func idString(id int64) string { return strconv.FormatInt(id, 10) }

// recordingUserRepository remembers the last criteria passed to FindOne.
type recordingUserRepository struct {
	repository.UserRepository
	last repository.UserCriteria
}

func newRecordingUserRepository(inner repository.UserRepository) *recordingUserRepository {
	return &recordingUserRepository{UserRepository: inner}
}

func (r *recordingUserRepository) FindOne(ctx context.Context, c repository.UserCriteria) (*model.User, error) {
	r.last = c
	return r.UserRepository.FindOne(ctx, c)
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		valid    bool
	}{
		{"four chars", "ab12", true},
		{"three chars", "abc", false},
		{"purely numeric", "1234", false},
		{"leading underscore", "_abcd", false},
		{"trailing underscore", "abcd_", false},
		{"mixed case", "abCD_12", true},
		{"inner underscore", "ab_cd", true},
		{"thirty two chars", "abcdefghijabcdefghijabcdefghij12", true},
		{"thirty three chars", "abcdefghijabcdefghijabcdefghij123", false},
		{"hyphen", "ab-cd", false},
		{"blank", "", false},
		{"long numeric", "123456789012345678901234567890123", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			if tt.valid {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, common.ErrValidation)
			fe, ok := common.FieldErrorsFrom(err)
			require.True(t, ok)
			require.Equal(t, "username", fe[0].Field)
		})
	}
}

func TestValidateNickname(t *testing.T) {
	require.NoError(t, ValidateNickname("Алиса"))
	require.NoError(t, ValidateNickname("sixteen-chars-ok"))
	require.ErrorIs(t, ValidateNickname(""), common.ErrValidation)
	require.ErrorIs(t, ValidateNickname("   "), common.ErrValidation)
	require.ErrorIs(t, ValidateNickname("seventeen-chars-x"), common.ErrValidation)
}

func TestIsResetTokenValid(t *testing.T) {
	require.False(t, IsResetTokenValid("", 500, 1400))
	require.True(t, IsResetTokenValid("abc_1000", 500, 1400))
	require.True(t, IsResetTokenValid("abc_1000", 500, 1500))
	require.False(t, IsResetTokenValid("abc_1000", 500, 1600))
	require.False(t, IsResetTokenValid("abc", 500, 0))
	require.False(t, IsResetTokenValid("abc_", 500, 0))
	require.False(t, IsResetTokenValid("abc_xyz", 500, 0))
	// Only the suffix after the last '_' counts.
	require.True(t, IsResetTokenValid("a_b_c_1000", 500, 1400))
}

func TestIdentityService_FindByLoginHandle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	recorder := env.userRepo.(*recordingUserRepository)
	alice := env.createUser(t, "alice")
	gone := env.createUser(t, "gone", func(u *model.User) { u.Status = model.StatusDeleted })

	t.Run("numeric handle is an id", func(t *testing.T) {
		got, err := env.identity.FindByLoginHandle(ctx, "42")
		require.NoError(t, err)
		require.Nil(t, got)
		require.NotNil(t, recorder.last.ID)
		require.Equal(t, int64(42), *recorder.last.ID)
		require.Nil(t, recorder.last.Email)
		require.Nil(t, recorder.last.Username)
		require.Equal(t, model.StatusActive, *recorder.last.Status)
	})

	t.Run("email handle", func(t *testing.T) {
		_, err := env.identity.FindByLoginHandle(ctx, "a@b.com")
		require.NoError(t, err)
		require.NotNil(t, recorder.last.Email)
		require.Equal(t, "a@b.com", *recorder.last.Email)
		require.Nil(t, recorder.last.ID)
	})

	t.Run("username handle", func(t *testing.T) {
		got, err := env.identity.FindByLoginHandle(ctx, "alice")
		require.NoError(t, err)
		require.NotNil(t, recorder.last.Username)
		require.Equal(t, alice.ID, got.ID)
	})

	t.Run("leading at sign is a username", func(t *testing.T) {
		_, err := env.identity.FindByLoginHandle(ctx, "@alice")
		require.NoError(t, err)
		require.NotNil(t, recorder.last.Username)
	})

	t.Run("resolves active users by every handle", func(t *testing.T) {
		for _, handle := range []string{"alice", "ALICE", alice.Email, idString(alice.ID)} {
			got, err := env.identity.FindByLoginHandle(ctx, handle)
			require.NoError(t, err)
			require.NotNil(t, got, handle)
			require.Equal(t, alice.ID, got.ID)
		}
	})

	t.Run("deleted users never resolve", func(t *testing.T) {
		for _, handle := range []string{"gone", gone.Email, idString(gone.ID)} {
			got, err := env.identity.FindByLoginHandle(ctx, handle)
			require.NoError(t, err)
			require.Nil(t, got, handle)
		}
		got, err := env.identity.FindActiveByID(ctx, gone.ID)
		require.NoError(t, err)
		require.Nil(t, got)
	})
}

func TestIdentityService_ResetToken(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice")

	require.NoError(t, env.identity.GeneratePasswordResetToken(u))
	require.NotNil(t, u.PasswordResetToken)
	require.Regexp(t, `^[A-Za-z0-9_-]+_1700000000$`, *u.PasswordResetToken)
	require.NoError(t, env.userRepo.Update(ctx, u))

	got, err := env.identity.FindByResetToken(ctx, *u.PasswordResetToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	t.Run("expired token is not looked up", func(t *testing.T) {
		expired := NewIdentityService(env.userRepo, security.NewBcryptHasher(bcrypt.MinCost), 3600,
			func() time.Time { return fixedNow.Add(3601 * time.Second) })
		got, err := expired.FindByResetToken(ctx, *u.PasswordResetToken)
		require.NoError(t, err)
		require.Nil(t, got)
	})

	t.Run("empty and unknown tokens", func(t *testing.T) {
		got, err := env.identity.FindByResetToken(ctx, "")
		require.NoError(t, err)
		require.Nil(t, got)
		got, err = env.identity.FindByResetToken(ctx, "unknown_1700000000")
		require.NoError(t, err)
		require.Nil(t, got)
	})

	env.identity.RemovePasswordResetToken(u)
	require.Nil(t, u.PasswordResetToken)
}

func TestIdentityService_AuthKey(t *testing.T) {
	env := newTestEnv(t)
	u := &model.User{}

	require.NoError(t, env.identity.GenerateAuthKey(u))
	first := u.AuthKey
	require.Len(t, first, security.RandomStringLength)
	require.True(t, env.identity.ValidateAuthKey(u, first))
	require.False(t, env.identity.ValidateAuthKey(u, "nope"))

	require.NoError(t, env.identity.GenerateAuthKey(u))
	require.NotEqual(t, first, u.AuthKey)
	require.False(t, env.identity.ValidateAuthKey(u, first))

	require.False(t, env.identity.ValidateAuthKey(&model.User{}, ""))
	require.False(t, env.identity.ValidateAuthKey(nil, first))
}

func TestIdentityService_ValidateOldPasswordChange(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	u := env.createUser(t, "alice")

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, env.identity.ValidateOldPasswordChange(ctx, u, "secret123", "newpass1", "newpass1"))
	})

	t.Run("wrong old password is a credential failure", func(t *testing.T) {
		err := env.identity.ValidateOldPasswordChange(ctx, u, "wrong", "newpass1", "newpass1")
		require.ErrorIs(t, err, common.ErrCredential)
		require.NotErrorIs(t, err, common.ErrValidation)
	})

	t.Run("mismatched verify", func(t *testing.T) {
		err := env.identity.ValidateOldPasswordChange(ctx, u, "secret123", "newpass1", "newpass2")
		require.ErrorIs(t, err, common.ErrValidation)
		fe, _ := common.FieldErrorsFrom(err)
		require.Len(t, fe, 1)
		require.Equal(t, "verifyPassword", fe[0].Field)
	})

	t.Run("all fields required", func(t *testing.T) {
		err := env.identity.ValidateOldPasswordChange(ctx, u, "", "", "")
		fe, ok := common.FieldErrorsFrom(err)
		require.True(t, ok)
		require.Len(t, fe, 3)
		require.Equal(t, "oldPassword", fe[0].Field)
		require.Equal(t, "newPassword", fe[1].Field)
		require.Equal(t, "verifyPassword", fe[2].Field)
	})

	t.Run("checks the stored hash", func(t *testing.T) {
		stale := *u
		require.NoError(t, env.identity.SetPassword(&stale, "inmemory"))
		err := env.identity.ValidateOldPasswordChange(ctx, &stale, "inmemory", "newpass1", "newpass1")
		require.ErrorIs(t, err, common.ErrCredential)
	})
}

// staleUserRepository ignores the status criterion, like a replica that has
// not seen the soft delete yet.
type staleUserRepository struct {
	repository.UserRepository
	user *model.User
}

func (r staleUserRepository) FindOne(ctx context.Context, c repository.UserCriteria) (*model.User, error) {
	return r.user, nil
}

func TestIdentityService_NeverReturnsInactiveUsers(t *testing.T) {
	ctx := context.Background()
	deleted := &model.User{ID: 3, Username: "gone", Status: model.StatusDeleted}
	identity := NewIdentityService(staleUserRepository{user: deleted}, security.NewBcryptHasher(bcrypt.MinCost), 3600, fixedClock)

	got, err := identity.FindActiveByID(ctx, 3)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = identity.FindByLoginHandle(ctx, "gone")
	require.NoError(t, err)
	require.Nil(t, got)
}
