package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/bookshelfapp/bookshelf-server/internal/domain"
	"github.com/bookshelfapp/bookshelf-server/internal/store"
)

// userColumns must match the scan order in scanUser.
const userColumns = `id, created_at, updated_at, email, username, full_name,
	password_hash, role, is_active`

func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var (
		u         domain.User
		createdAt string
		updatedAt string
		fullName  sql.NullString
		role      string
		active    int
	)

	err := scanner.Scan(
		&u.ID,
		&createdAt,
		&updatedAt,
		&u.Email,
		&u.Username,
		&fullName,
		&u.PasswordHash,
		&role,
		&active,
	)
	if err != nil {
		return nil, err
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}

	u.FullName = fullName.String
	u.Role = domain.Role(role)
	u.Active = active != 0

	return &u, nil
}

// CreateUser inserts user and sets its ID.
// Returns store.ErrEmailExists or store.ErrUsernameExists on a uniqueness conflict.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	if user.CreatedAt.IsZero() {
		user.InitTimestamps()
	}
	if user.Role == "" {
		user.Role = domain.RoleUser
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users (
			created_at, updated_at, email, username, full_name,
			password_hash, role, is_active
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
		strings.TrimSpace(user.Email),
		user.Username,
		nullString(user.FullName),
		user.PasswordHash,
		string(user.Role),
		boolToInt(user.Active),
	)
	if err != nil {
		if isUniqueViolation(err) {
			if strings.Contains(err.Error(), "users.email") {
				return store.ErrEmailExists
			}
			return store.ErrUsernameExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("user id: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByEmail matches email case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.getUserWhere(ctx, "email = ?", strings.TrimSpace(email))
}

// GetUserByUsername matches username exactly.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.getUserWhere(ctx, "username = ?", username)
}

// GetUserByLogin matches identifier against username first, then email.
func (s *Store) GetUserByLogin(ctx context.Context, identifier string) (*domain.User, error) {
	u, err := s.GetUserByUsername(ctx, identifier)
	if err == nil || !errors.Is(err, store.ErrUserNotFound) {
		return u, err
	}
	return s.GetUserByEmail(ctx, identifier)
}

func (s *Store) getUserWhere(ctx context.Context, where string, arg any) (*domain.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE `+where, arg)

	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
