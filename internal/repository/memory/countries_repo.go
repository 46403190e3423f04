// Package memory holds an in-memory Countries implementation. The refresh
// pipeline takes the storage abstraction as a dependency, so tests (and local
// runs without Postgres) can use this instead of the pgx-backed repository.
package memory

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bsenturk/country-cache/internal/models"
	"github.com/bsenturk/country-cache/internal/repository"
)

type CountriesRepo struct {
	mu        sync.RWMutex
	byName    map[string]models.Country // keyed by lower(name)
	refreshed *time.Time
}

var _ repository.Countries = (*CountriesRepo)(nil)

func NewCountriesRepo() *CountriesRepo {
	return &CountriesRepo{byName: make(map[string]models.Country)}
}

func (r *CountriesRepo) List(_ context.Context, f repository.ListFilter) ([]models.Country, error) {
	field, desc, err := f.Order()
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	out := make([]models.Country, 0, len(r.byName))
	for _, c := range r.byName {
		if f.Region != "" && (c.Region == nil || !strings.EqualFold(*c.Region, f.Region)) {
			continue
		}
		if f.CurrencyCode != "" && (c.CurrencyCode == nil || !strings.EqualFold(*c.CurrencyCode, f.CurrencyCode)) {
			continue
		}
		out = append(out, c)
	}
	r.mu.RUnlock()

	sortCountries(out, field, desc)

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(out) {
		out = out[:f.Limit]
	}
	return out, nil
}

func sortCountries(cs []models.Country, field string, desc bool) {
	gdp := func(c models.Country) float64 {
		if c.EstimatedGDP == nil {
			// nil GDP sorts below every real value, so "-estimated_gdp"
			// puts rate-less countries last
			return math.Inf(-1)
		}
		return *c.EstimatedGDP
	}
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if desc {
			a, b = b, a
		}
		switch field {
		case "population":
			return a.Population < b.Population
		case "estimated_gdp":
			return gdp(a) < gdp(b)
		case "last_refreshed_at":
			return a.LastRefreshedAt.Before(b.LastRefreshedAt)
		default:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	})
}

func (r *CountriesRepo) GetByName(_ context.Context, name string) (models.Country, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return models.Country{}, repository.ErrNotFound
	}
	return c, nil
}

func (r *CountriesRepo) Delete(_ context.Context, name string) error {
	key := strings.ToLower(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byName[key]; !ok {
		return repository.ErrNotFound
	}
	delete(r.byName, key)
	return nil
}

func (r *CountriesRepo) Names(_ context.Context) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]struct{}, len(r.byName))
	for k := range r.byName {
		out[k] = struct{}{}
	}
	return out, nil
}

func (r *CountriesRepo) ReplaceBulk(_ context.Context, inserts, updates []models.Country, refreshedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range append(inserts[:len(inserts):len(inserts)], updates...) {
		c.LastRefreshedAt = refreshedAt
		r.byName[strings.ToLower(c.Name)] = c
	}
	t := refreshedAt
	r.refreshed = &t
	return nil
}

func (r *CountriesRepo) TopByGDP(_ context.Context, n int) ([]models.Country, error) {
	r.mu.RLock()
	out := make([]models.Country, 0, len(r.byName))
	for _, c := range r.byName {
		if c.EstimatedGDP != nil {
			out = append(out, c)
		}
	}
	r.mu.RUnlock()

	sortCountries(out, "estimated_gdp", true)
	if n < len(out) {
		out = out[:n]
	}
	return out, nil
}

func (r *CountriesRepo) Status(_ context.Context) (models.CacheStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cs := models.CacheStatus{TotalCountries: len(r.byName)}
	if r.refreshed != nil {
		t := *r.refreshed
		cs.LastRefreshedAt = &t
	}
	return cs, nil
}
