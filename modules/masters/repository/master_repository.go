package repository

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/masters/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// MasterRepository implements ports.MasterRepository over Postgres.
type MasterRepository struct {
	pool *pgxpool.Pool
}

// NewMasterRepository creates a new master repository.
func NewMasterRepository(pool *pgxpool.Pool) *MasterRepository {
	return &MasterRepository{pool: pool}
}

func (r *MasterRepository) ListPrefectures(ctx context.Context) ([]model.Prefecture, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, name, region FROM master_prefectures ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Prefecture
	for rows.Next() {
		var p model.Prefecture
		if err := rows.Scan(&p.Code, &p.Name, &p.Region); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *MasterRepository) ListCities(ctx context.Context) ([]model.City, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT code, pref_cd, lat, lng, adjacent_city_codes FROM master_cities ORDER BY code`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.City
	for rows.Next() {
		var c model.City
		if err := rows.Scan(&c.Code, &c.PrefCD, &c.Lat, &c.Lng, &c.AdjacentCityCodes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *MasterRepository) ListOccupations(ctx context.Context) ([]model.Occupation, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, name FROM master_occupations ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Occupation
	for rows.Next() {
		var o model.Occupation
		if err := rows.Scan(&o.Code, &o.Name); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *MasterRepository) ListEmploymentTypes(ctx context.Context) ([]model.EmploymentType, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, name FROM master_employment_types ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EmploymentType
	for rows.Next() {
		var e model.EmploymentType
		if err := rows.Scan(&e.Code, &e.Name); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *MasterRepository) ListFeatures(ctx context.Context) ([]model.Feature, error) {
	rows, err := r.pool.Query(ctx, `SELECT code, name FROM master_features ORDER BY code`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Feature
	for rows.Next() {
		var f model.Feature
		if err := rows.Scan(&f.Code, &f.Name); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *MasterRepository) ListKeywords(ctx context.Context) ([]model.Keyword, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT keyword, search_volume, difficulty, category FROM master_keywords ORDER BY keyword`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Keyword
	for rows.Next() {
		var k model.Keyword
		if err := rows.Scan(&k.Keyword, &k.SearchVolume, &k.Difficulty, &k.Category); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}
