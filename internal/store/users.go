package store

import (
	"context"

	"textile-backoffice/internal/models"
)

const userColumns = "id, name, role, language, password_hash, created_at"

// CreateUser inserts a new user
func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now()
	}
	_, err := s.q(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)`),
		user.ID, user.Name, user.Role, user.Language, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return mapGetError(err, "user", user.ID)
	}
	return nil
}

// UpsertUser writes a user under its own id, replacing any row with that id
func (s *Store) UpsertUser(ctx context.Context, user *models.User) error {
	_, err := s.q(ctx).ExecContext(ctx, s.db.Rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			role = excluded.role,
			language = excluded.language,
			password_hash = excluded.password_hash,
			created_at = excluded.created_at`),
		user.ID, user.Name, user.Role, user.Language, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return mapGetError(err, "user", user.ID)
	}
	return nil
}

// GetUserByID retrieves a user by ID
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := s.get(ctx, &user, "SELECT "+userColumns+" FROM users WHERE id = ?", id); err != nil {
		return nil, mapGetError(err, "user", id)
	}
	return &user, nil
}

// ListUsers retrieves all users in creation order
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.selectAll(ctx, &users, "SELECT "+userColumns+" FROM users ORDER BY created_at, id")
	return users, err
}

// UpdateUser overwrites the mutable fields of a user
func (s *Store) UpdateUser(ctx context.Context, user *models.User) error {
	return s.exec(ctx, "user", user.ID,
		"UPDATE users SET name = ?, role = ?, language = ?, password_hash = ? WHERE id = ?",
		user.Name, user.Role, user.Language, user.PasswordHash, user.ID)
}

// DeleteUser removes a user
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.exec(ctx, "user", id, "DELETE FROM users WHERE id = ?", id)
}
