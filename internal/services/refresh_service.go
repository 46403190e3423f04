package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bsenturk/country-cache/internal/metrics"
	"github.com/bsenturk/country-cache/internal/models"
	"github.com/bsenturk/country-cache/internal/repository"
	"github.com/bsenturk/country-cache/internal/sources"
)

// ErrRefreshInProgress is returned when a refresh is invoked while another
// one is still running. Refreshes are serialized; overlapping runs would
// have no defined write ordering.
var ErrRefreshInProgress = errors.New("refresh already in progress")

// SummaryRenderer regenerates the summary artifact from persisted state.
type SummaryRenderer interface {
	Render(ctx context.Context) error
}

// RefreshService runs the full pipeline: fetch both sources concurrently,
// reconcile, classify against persisted names, bulk-write atomically, then
// re-render the summary image.
type RefreshService struct {
	countries sources.CountrySource
	rates     sources.RateSource
	repo      repository.Countries
	renderer  SummaryRenderer // optional
	running   atomic.Bool
}

func NewRefreshService(cs sources.CountrySource, rs sources.RateSource, repo repository.Countries, renderer SummaryRenderer) *RefreshService {
	return &RefreshService{countries: cs, rates: rs, repo: repo, renderer: renderer}
}

func (s *RefreshService) Refresh(ctx context.Context) (models.RefreshOutcome, error) {
	if !s.running.CompareAndSwap(false, true) {
		return models.RefreshOutcome{}, ErrRefreshInProgress
	}
	defer s.running.Store(false)

	log := slog.With("refresh_id", uuid.NewString())
	start := time.Now().UTC()
	defer func() { metrics.RefreshDuration.Observe(time.Since(start).Seconds()) }()

	// Both fetches run concurrently; the first hard failure cancels the
	// sibling and aborts the run before anything is written.
	var (
		raw   []models.RawCountry
		rates map[string]float64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		raw, err = s.countries.Fetch(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		rates, err = s.rates.Fetch(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		metrics.RefreshesTotal.WithLabelValues("aborted").Inc()
		var se *sources.Error
		if errors.As(err, &se) {
			metrics.SourceFailures.WithLabelValues(se.Source).Inc()
		}
		log.Error("source fetch failed", "err", err)
		return models.RefreshOutcome{}, err
	}
	log.Info("fetched source data", "countries", len(raw), "rates", len(rates))

	candidates := reconcile(raw, rates)

	existing, err := s.repo.Names(ctx)
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		return models.RefreshOutcome{}, fmt.Errorf("load existing countries: %w", err)
	}
	inserts, updates := classify(candidates, existing)

	if err := s.repo.ReplaceBulk(ctx, inserts, updates, start); err != nil {
		metrics.RefreshesTotal.WithLabelValues("failed").Inc()
		log.Error("bulk write failed, rolled back", "err", err)
		return models.RefreshOutcome{}, fmt.Errorf("bulk write: %w", err)
	}
	processed := len(inserts) + len(updates)
	metrics.RefreshesTotal.WithLabelValues("success").Inc()
	metrics.CountriesCached.Set(float64(len(existing) + len(inserts)))
	log.Info("refresh written", "inserts", len(inserts), "updates", len(updates))

	// The render never fails a refresh that already committed.
	if s.renderer != nil && processed > 0 {
		if err := s.renderer.Render(ctx); err != nil {
			log.Error("summary render failed", "err", err)
		}
	}

	return models.RefreshOutcome{Status: "success", CountriesProcessed: processed}, nil
}
