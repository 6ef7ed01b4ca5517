package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	verrors "vlab/internal/errors"
)

// User is a registered account.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateUser inserts a new user. Username and email must be unused;
// violations come back as ErrConflict naming the duplicated field.
func (s *Store) CreateUser(ctx context.Context, user *User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if taken, err := s.exists(ctx, `SELECT 1 FROM users WHERE username = ?`, user.Username); err != nil {
		return err
	} else if taken {
		return verrors.ErrConflict.GenWithStackByArgs("username")
	}
	if taken, err := s.exists(ctx, `SELECT 1 FROM users WHERE email = ?`, user.Email); err != nil {
		return err
	} else if taken {
		return verrors.ErrConflict.GenWithStackByArgs("email")
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.IsActive = true
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, full_name, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FullName,
		user.IsActive, user.CreatedAt, user.UpdatedAt)
	return verrors.WrapError(verrors.ErrStoreUnavailable, err)
}

// GetUserByUsername returns the user with the given username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, full_name, is_active, created_at, updated_at
		FROM users WHERE username = ?`, username))
}

// GetUserByID returns the user with the given id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, full_name, is_active, created_at, updated_at
		FROM users WHERE id = ?`, id))
}

func (s *Store) scanUser(row *sql.Row) (*User, error) {
	var u User
	var fullName sql.NullString
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&fullName, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, verrors.ErrNotFound.GenWithStackByArgs("user")
	}
	if err != nil {
		return nil, verrors.WrapError(verrors.ErrStoreUnavailable, err)
	}
	u.FullName = fullName.String
	return &u, nil
}

func (s *Store) exists(ctx context.Context, query string, args ...interface{}) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, verrors.WrapError(verrors.ErrStoreUnavailable, err)
	}
	return true, nil
}
