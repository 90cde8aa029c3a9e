package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lendahand-backend/internal/domain"
	"lendahand-backend/internal/logger"
	"lendahand-backend/internal/repository"
)

type userRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (full_name, email, password_hash, phone, address, role, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	if u.Role == "" {
		u.Role = domain.UserRoleBorrower
	}
	u.CreatedAt = time.Now().UTC()
	logger.DatabaseCall("users.Create", query, "email", u.Email)
	err := r.db.QueryRowContext(ctx, query, u.FullName, u.Email, u.PasswordHash, u.Phone, u.Address, u.Role, u.CreatedAt).Scan(&u.ID)
	logger.DatabaseResult("users.Create", 1, err)
	return mapError(err)
}

func (r *userRepository) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	query := `SELECT id, full_name, email, password_hash, COALESCE(phone, ''), COALESCE(address, ''), role, created_at
	          FROM users WHERE id = $1`
	return r.scanOne(ctx, query, id, fmt.Sprintf("user %d", id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, full_name, email, password_hash, COALESCE(phone, ''), COALESCE(address, ''), role, created_at
	          FROM users WHERE email = $1`
	return r.scanOne(ctx, query, email, fmt.Sprintf("user %q", email))
}

func (r *userRepository) scanOne(ctx context.Context, query string, arg any, label string) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Phone, &u.Address, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", label, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}
