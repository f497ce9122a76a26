package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"oj_account/internal/common"
	"oj_account/internal/domain/model"
	"oj_account/internal/platform/database"
	"strings"
	"time"
)

// UserCriteria is an equality conjunction; nil fields are ignored.
// Username is matched case-insensitively.
type UserCriteria struct {
	ID                 *int64
	Username           *string
	Email              *string
	PasswordResetToken *string
	Status             *model.UserStatus
}

// Active returns a copy of c restricted to active users.
func (c UserCriteria) Active() UserCriteria {
	s := model.StatusActive
	c.Status = &s
	return c
}

func (c UserCriteria) IsEmpty() bool {
	return c.ID == nil && c.Username == nil && c.Email == nil &&
		c.PasswordResetToken == nil && c.Status == nil
}

type UserRepository interface {
	// Create inserts user and fills in ID, CreatedAt and UpdatedAt.
	Create(ctx context.Context, user *model.User) error
	// FindOne returns common.ErrNotFound when nothing matches.
	FindOne(ctx context.Context, criteria UserCriteria) (*model.User, error)
	// Update persists every mutable column of user and bumps UpdatedAt.
	Update(ctx context.Context, user *model.User) error
	UpdateLanguage(ctx context.Context, userID int64, language int) error
	// UsernameTaken compares case-insensitively.
	UsernameTaken(ctx context.Context, username string) (bool, error)
}

type sqlUserRepository struct {
	db      *sql.DB
	dialect database.Dialect
	now     func() time.Time
}

func NewSQLUserRepository(db *sql.DB, dialect database.Dialect) UserRepository {
	return &sqlUserRepository{db: db, dialect: dialect, now: time.Now}
}

const userColumns = `id, username, nickname, email, password_hash, auth_key,
	password_reset_token, status, role, language, created_at, updated_at`

func (r *sqlUserRepository) Create(ctx context.Context, user *model.User) error {
	if !user.Status.Valid() {
		return fmt.Errorf("sqlUserRepository.Create: invalid status %d: %w", user.Status, common.ErrBadRequest)
	}
	now := r.now().Unix()
	query := r.dialect.Rebind(`INSERT INTO users (username, nickname, email, password_hash, auth_key,
	          password_reset_token, status, role, language, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.Nickname, user.Email, user.PasswordHash, user.AuthKey,
		nullString(user.PasswordResetToken), int(user.Status), int(user.Role), user.Language, now, now,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("sqlUserRepository.Create: %w", err)
	}
	user.CreatedAt = time.Unix(now, 0)
	user.UpdatedAt = user.CreatedAt
	return nil
}

func (r *sqlUserRepository) FindOne(ctx context.Context, criteria UserCriteria) (*model.User, error) {
	if criteria.IsEmpty() {
		return nil, fmt.Errorf("sqlUserRepository.FindOne: empty criteria: %w", common.ErrBadRequest)
	}

	var (
		conds []string
		args  []interface{}
	)
	if criteria.ID != nil {
		conds = append(conds, "id = ?")
		args = append(args, *criteria.ID)
	}
	if criteria.Username != nil {
		conds = append(conds, "LOWER(username) = LOWER(?)")
		args = append(args, *criteria.Username)
	}
	if criteria.Email != nil {
		conds = append(conds, "email = ?")
		args = append(args, *criteria.Email)
	}
	if criteria.PasswordResetToken != nil {
		conds = append(conds, "password_reset_token = ?")
		args = append(args, *criteria.PasswordResetToken)
	}
	if criteria.Status != nil {
		conds = append(conds, "status = ?")
		args = append(args, int(*criteria.Status))
	}

	query := r.dialect.Rebind(`SELECT ` + userColumns + ` FROM users WHERE ` +
		strings.Join(conds, " AND ") + ` ORDER BY id LIMIT 1`)
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("sqlUserRepository.FindOne: %w", err)
	}
	return user, nil
}

func (r *sqlUserRepository) Update(ctx context.Context, user *model.User) error {
	if !user.Status.Valid() {
		return fmt.Errorf("sqlUserRepository.Update: invalid status %d: %w", user.Status, common.ErrBadRequest)
	}
	now := r.now().Unix()
	query := r.dialect.Rebind(`UPDATE users SET username = ?, nickname = ?, email = ?, password_hash = ?,
	          auth_key = ?, password_reset_token = ?, status = ?, role = ?, language = ?, updated_at = ?
	          WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query,
		user.Username, user.Nickname, user.Email, user.PasswordHash, user.AuthKey,
		nullString(user.PasswordResetToken), int(user.Status), int(user.Role), user.Language, now,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("user with given username already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("sqlUserRepository.Update: %w", err)
	}
	if err := requireRow(res); err != nil {
		return err
	}
	user.UpdatedAt = time.Unix(now, 0)
	return nil
}

func (r *sqlUserRepository) UpdateLanguage(ctx context.Context, userID int64, language int) error {
	query := r.dialect.Rebind(`UPDATE users SET language = ?, updated_at = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, language, r.now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("sqlUserRepository.UpdateLanguage: %w", err)
	}
	return requireRow(res)
}

func (r *sqlUserRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	query := r.dialect.Rebind(`SELECT COUNT(*) FROM users WHERE LOWER(username) = LOWER(?)`)
	var n int
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&n); err != nil {
		return false, fmt.Errorf("sqlUserRepository.UsernameTaken: %w", err)
	}
	return n > 0, nil
}

func scanUser(row *sql.Row) (*model.User, error) {
	var (
		user                 model.User
		resetToken           sql.NullString
		status, role         int
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&user.ID, &user.Username, &user.Nickname, &user.Email, &user.PasswordHash, &user.AuthKey,
		&resetToken, &status, &role, &user.Language, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	if resetToken.Valid {
		user.PasswordResetToken = &resetToken.String
	}
	user.Status = model.UserStatus(status)
	user.Role = model.UserRole(role)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)
	return &user, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
