package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AgusMolinaCode/DCA_Ledger/internal/models"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password, name, external_id, created_at`

// CreateUser inserts user and fills in its id. A duplicate email reports
// models.ErrConflict.
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO users (email, password, name, external_id, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.Password, user.Name, nullable(user.ExternalID), user.CreatedAt,
	).Scan(&user.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s: %w", user.Email, models.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetUserByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = $1`, externalID)
}

// UpsertExternalUser keeps a Clerk user in sync: it updates the user already
// linked to externalID, links an existing local account with the same email,
// or creates a new one.
func (r *UserRepository) UpsertExternalUser(ctx context.Context, externalID, email, name string) (*models.User, error) {
	user, err := r.GetUserByExternalID(ctx, externalID)
	switch {
	case err == nil:
		_, err = r.db.ExecContext(ctx,
			`UPDATE users SET email = $1, name = $2 WHERE id = $3`, email, name, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to update user: %w", err)
		}
		user.Email, user.Name = email, name
		return user, nil
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	user, err = r.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		_, err = r.db.ExecContext(ctx,
			`UPDATE users SET external_id = $1, name = $2 WHERE id = $3`, externalID, name, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to link user: %w", err)
		}
		user.ExternalID, user.Name = externalID, name
		return user, nil
	case !errors.Is(err, models.ErrNotFound):
		return nil, err
	}

	user = &models.User{Email: email, Name: name, ExternalID: externalID}
	if err := r.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) DeleteUser(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *UserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u          models.User
		externalID sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Email, &u.Password, &u.Name, &externalID, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.ExternalID = externalID.String
	u.CreatedAt = u.CreatedAt.UTC()
	return &u, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
