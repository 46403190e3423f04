package services

import (
	"context"

	"github.com/bsenturk/country-cache/internal/models"
	"github.com/bsenturk/country-cache/internal/repository"
)

// CountryService is the read/delete side over the persisted set.
type CountryService struct{ repo repository.Countries }

func NewCountryService(repo repository.Countries) *CountryService {
	return &CountryService{repo: repo}
}

func (s *CountryService) List(ctx context.Context, f repository.ListFilter) ([]models.Country, error) {
	return s.repo.List(ctx, f)
}

func (s *CountryService) Get(ctx context.Context, name string) (models.Country, error) {
	return s.repo.GetByName(ctx, name)
}

func (s *CountryService) Delete(ctx context.Context, name string) error {
	return s.repo.Delete(ctx, name)
}

func (s *CountryService) Status(ctx context.Context) (models.CacheStatus, error) {
	return s.repo.Status(ctx)
}
