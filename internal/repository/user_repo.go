package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"adaptt/internal/model"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a user and returns the new id. A duplicate phone number
// surfaces as ErrPhoneTaken.
func (r *UserRepository) Create(ctx context.Context, name, phone, regionID string) (int, error) {
	query := `
        INSERT INTO users (name, phone_number, region_id)
        VALUES ($1, $2, $3)
        RETURNING user_id
    `
	var id int
	err := r.db.QueryRow(ctx, query, name, phone, regionID).Scan(&id)
	if isUniqueViolation(err) {
		return 0, ErrPhoneTaken
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *UserRepository) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	query := `
        SELECT user_id, name, phone_number, region_id, created_at
        FROM users
        WHERE phone_number = $1
    `
	var u model.User
	err := r.db.QueryRow(ctx, query, phone).Scan(&u.ID, &u.Name, &u.Phone, &u.RegionID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
