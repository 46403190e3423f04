package api

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bsenturk/country-cache/internal/api/httpx"
	"github.com/bsenturk/country-cache/internal/config"
	"github.com/bsenturk/country-cache/internal/metrics"
	"github.com/bsenturk/country-cache/internal/middleware"
	"github.com/bsenturk/country-cache/internal/models"
	"github.com/bsenturk/country-cache/internal/repository"
	"github.com/bsenturk/country-cache/internal/services"
	"github.com/bsenturk/country-cache/internal/sources"
)

func NewRouter(cfg config.Config, cs *services.CountryService, rs *services.RefreshService) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.RateLimit(cfg.RateRPS), middleware.HTTPMetrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", metrics.Handler())

	// ---------- refresh ----------
	r.Post("/countries/refresh", func(w http.ResponseWriter, r *http.Request) {
		out, err := rs.Refresh(r.Context())
		if err != nil {
			var se *sources.Error
			switch {
			case errors.Is(err, services.ErrRefreshInProgress):
				httpx.WriteError(w, http.StatusConflict, "Refresh already in progress", "")
			case errors.As(err, &se):
				httpx.WriteError(w, http.StatusServiceUnavailable, "External data source unavailable", se.Error())
			default:
				httpx.WriteError(w, http.StatusServiceUnavailable, "Failed to save data to the database", err.Error())
			}
			return
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	})

	// ---------- list ----------
	r.Get("/countries", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := repository.ListFilter{
			Region:       q.Get("region"),
			CurrencyCode: q.Get("currency_code"),
			Ordering:     q.Get("ordering"),
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				f.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				f.Offset = n
			}
		}

		out, err := cs.List(r.Context(), f)
		if err != nil {
			if errors.Is(err, repository.ErrBadOrdering) {
				httpx.WriteError(w, http.StatusBadRequest, "Invalid ordering field", f.Ordering)
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "An internal server error occurred", "")
			return
		}
		if out == nil {
			out = []models.Country{}
		}
		httpx.WriteJSON(w, http.StatusOK, out)
	})

	// summary image, routed before the {name} lookup
	r.Get("/countries/image", func(w http.ResponseWriter, r *http.Request) {
		f, err := os.Open(cfg.SummaryImagePath)
		if err != nil {
			httpx.WriteError(w, http.StatusNotFound, "Summary image not found", "")
			return
		}
		defer f.Close()
		w.Header().Set("Content-Type", "image/png")
		_, _ = io.Copy(w, f)
	})

	// ---------- single country ----------
	r.Get("/countries/{name}", func(w http.ResponseWriter, r *http.Request) {
		c, err := cs.Get(r.Context(), pathName(r))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				httpx.WriteDetail(w, http.StatusNotFound, "Not found.")
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "An internal server error occurred", "")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, c)
	})

	r.Delete("/countries/{name}", func(w http.ResponseWriter, r *http.Request) {
		if err := cs.Delete(r.Context(), pathName(r)); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				httpx.WriteDetail(w, http.StatusNotFound, "Not found.")
				return
			}
			httpx.WriteError(w, http.StatusInternalServerError, "An internal server error occurred", "")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	// ---------- status ----------
	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		st, err := cs.Status(r.Context())
		if err != nil {
			httpx.WriteError(w, http.StatusInternalServerError, "An internal server error occurred", "")
			return
		}
		httpx.WriteJSON(w, http.StatusOK, st)
	})

	return r
}

func pathName(r *http.Request) string {
	name := chi.URLParam(r, "name")
	if dec, err := url.PathUnescape(name); err == nil {
		return dec
	}
	return name
}
