package ports

import (
	"context"

	"github.com/andreypavlenko/matchday/modules/masters/model"
)

// MasterRepository loads every reference table the Master Cache hashes
// into memory once per run (§4.A). Master data is read-only to the
// pipeline; there is no writer in this module.
type MasterRepository interface {
	ListPrefectures(ctx context.Context) ([]model.Prefecture, error)
	ListCities(ctx context.Context) ([]model.City, error)
	ListOccupations(ctx context.Context) ([]model.Occupation, error)
	ListEmploymentTypes(ctx context.Context) ([]model.EmploymentType, error)
	ListFeatures(ctx context.Context) ([]model.Feature, error)
	ListKeywords(ctx context.Context) ([]model.Keyword, error)
}
