package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"adaptt/internal/model"
)

type LocationRepository struct {
	db *pgxpool.Pool
}

func NewLocationRepository(db *pgxpool.Pool) *LocationRepository {
	return &LocationRepository{db: db}
}

func (r *LocationRepository) Upsert(ctx context.Context, loc model.Location) error {
	query := `
        INSERT INTO locations (id, name, region, country)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (id) DO UPDATE
        SET name = EXCLUDED.name,
            region = EXCLUDED.region,
            country = EXCLUDED.country
    `
	_, err := r.db.Exec(ctx, query, loc.ID, loc.Name, loc.Region, loc.Country)
	return err
}

func (r *LocationRepository) List(ctx context.Context) ([]model.Location, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, region, country FROM locations ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	locations := []model.Location{}
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.Region, &l.Country); err != nil {
			return nil, err
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// Exists reports whether a region id is known. User registration validates
// the region against the synced catalog.
func (r *LocationRepository) Exists(ctx context.Context, id string) (bool, error) {
	var found bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM locations WHERE id = $1)`, id).Scan(&found)
	return found, err
}
