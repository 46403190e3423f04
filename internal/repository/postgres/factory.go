package postgres

import (
	repo "github.com/bsenturk/country-cache/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repositories struct {
	Countries repo.Countries
}

func NewRepositories(pool *pgxpool.Pool) Repositories {
	return Repositories{
		Countries: &countriesRepo{pool},
	}
}
