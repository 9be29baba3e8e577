package service

import (
	"context"
	"fmt"

	"github.com/andreypavlenko/matchday/modules/masters/model"
	"github.com/andreypavlenko/matchday/modules/masters/ports"
)

// Cache hashes every master table into memory once per run and exposes
// O(1) lookups (§4.A). It is read-only after Load and safe for
// concurrent readers — every later stage shares one instance.
type Cache struct {
	prefectures     map[int]model.Prefecture
	cities          map[int]model.City
	occupations     map[int]model.Occupation
	employmentTypes map[int]model.EmploymentType
	features        map[string]model.Feature
	keywords        []model.Keyword
}

// Load builds a Cache from the master repository.
func Load(ctx context.Context, repo ports.MasterRepository) (*Cache, error) {
	prefs, err := repo.ListPrefectures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load prefectures: %w", err)
	}
	cities, err := repo.ListCities(ctx)
	if err != nil {
		return nil, fmt.Errorf("load cities: %w", err)
	}
	occupations, err := repo.ListOccupations(ctx)
	if err != nil {
		return nil, fmt.Errorf("load occupations: %w", err)
	}
	employmentTypes, err := repo.ListEmploymentTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load employment types: %w", err)
	}
	features, err := repo.ListFeatures(ctx)
	if err != nil {
		return nil, fmt.Errorf("load features: %w", err)
	}
	keywords, err := repo.ListKeywords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load keywords: %w", err)
	}

	c := &Cache{
		prefectures:     make(map[int]model.Prefecture, len(prefs)),
		cities:          make(map[int]model.City, len(cities)),
		occupations:     make(map[int]model.Occupation, len(occupations)),
		employmentTypes: make(map[int]model.EmploymentType, len(employmentTypes)),
		features:        make(map[string]model.Feature, len(features)),
		keywords:        keywords,
	}
	for _, p := range prefs {
		c.prefectures[p.Code] = p
	}
	for _, city := range cities {
		c.cities[city.Code] = city
	}
	for _, o := range occupations {
		c.occupations[o.Code] = o
	}
	for _, e := range employmentTypes {
		c.employmentTypes[e.Code] = e
	}
	for _, f := range features {
		c.features[f.Code] = f
	}

	return c, nil
}

func (c *Cache) Prefecture(code int) (model.Prefecture, bool) {
	p, ok := c.prefectures[code]
	return p, ok
}

func (c *Cache) City(code int) (model.City, bool) {
	city, ok := c.cities[code]
	return city, ok
}

func (c *Cache) Occupation(code int) (model.Occupation, bool) {
	o, ok := c.occupations[code]
	return o, ok
}

func (c *Cache) EmploymentType(code int) (model.EmploymentType, bool) {
	e, ok := c.employmentTypes[code]
	return e, ok
}

func (c *Cache) Feature(code string) (model.Feature, bool) {
	f, ok := c.features[code]
	return f, ok
}

func (c *Cache) Keywords() []model.Keyword {
	return c.keywords
}

// RequirePrefecture fails fast when a job references a pref_cd missing
// from the master table (§4.A), wrapping model.ErrMasterMissing.
func (c *Cache) RequirePrefecture(code int) (model.Prefecture, error) {
	p, ok := c.prefectures[code]
	if !ok {
		return model.Prefecture{}, fmt.Errorf("pref_cd %d: %w", code, model.ErrMasterMissing)
	}
	return p, nil
}

// RequireCity fails fast when a job references a city_cd missing from
// the master table.
func (c *Cache) RequireCity(code int) (model.City, error) {
	city, ok := c.cities[code]
	if !ok {
		return model.City{}, fmt.Errorf("city_cd %d: %w", code, model.ErrMasterMissing)
	}
	return city, nil
}

// Adjacency returns the set of city codes adjacent to cityCD, per the
// master's adjacent_city_codes column (§4.A). Unknown cities have no
// neighbors.
func (c *Cache) Adjacency(cityCD int) map[int]bool {
	city, ok := c.cities[cityCD]
	if !ok {
		return nil
	}
	set := make(map[int]bool, len(city.AdjacentCityCodes))
	for _, code := range city.AdjacentCityCodes {
		set[code] = true
	}
	return set
}
