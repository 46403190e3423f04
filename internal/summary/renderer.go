// Package summary renders the single PNG artifact that summarizes the
// persisted country set after each refresh.
package summary

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/bsenturk/country-cache/internal/models"
	"github.com/bsenturk/country-cache/internal/worker"
)

const (
	canvasWidth  = 1000
	canvasHeight = 800
	topCountries = 5
	flagWidth    = 60
	flagHeight   = 40
)

// Store is the slice of the repository the renderer reads.
type Store interface {
	TopByGDP(ctx context.Context, n int) ([]models.Country, error)
	Status(ctx context.Context) (models.CacheStatus, error)
}

type Renderer struct {
	store Store
	pool  *worker.Pool
	http  *http.Client
	path  string
}

func NewRenderer(store Store, pool *worker.Pool, path string) *Renderer {
	return &Renderer{
		store: store,
		pool:  pool,
		http:  &http.Client{Timeout: 15 * time.Second},
		path:  path,
	}
}

// Path is where the current artifact lives; it is replaced wholesale on
// every render.
func (r *Renderer) Path() string { return r.path }

// Render draws the summary from persisted state and atomically replaces the
// artifact. Individual flags that cannot be fetched or decoded are skipped.
func (r *Renderer) Render(ctx context.Context) error {
	status, err := r.store.Status(ctx)
	if err != nil {
		return fmt.Errorf("load cache status: %w", err)
	}
	top, err := r.store.TopByGDP(ctx, topCountries)
	if err != nil {
		return fmt.Errorf("load top countries: %w", err)
	}
	flags := r.fetchFlags(ctx, top)

	titleFace, err := newFace(36)
	if err != nil {
		return err
	}
	headerFace, err := newFace(28)
	if err != nil {
		return err
	}
	textFace, err := newFace(22)
	if err != nil {
		return err
	}

	dc := gg.NewContext(canvasWidth, canvasHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(titleFace)
	dc.DrawString("Country Data Summary", 50, 75)

	dc.SetRGB255(50, 50, 50)
	dc.SetFontFace(textFace)
	dc.DrawString(fmt.Sprintf("Total Countries Cached: %d", status.TotalCountries), 50, 130)
	if status.LastRefreshedAt != nil {
		dc.DrawString("Last Refreshed: "+status.LastRefreshedAt.UTC().Format("2006-01-02 15:04:05 UTC"), 50, 170)
	}

	dc.SetRGB(0, 0, 0)
	dc.SetFontFace(headerFace)
	dc.DrawString("Top 5 Countries by Estimated GDP:", 50, 255)

	y := 300
	for i, c := range top {
		if flags[i] != nil {
			dc.DrawImage(scaleFlag(flags[i]), 60, y)
		}
		var gdpBillions float64
		if c.EstimatedGDP != nil {
			gdpBillions = *c.EstimatedGDP / 1_000_000_000
		}
		dc.SetRGB255(20, 20, 20)
		dc.SetFontFace(textFace)
		dc.DrawString(fmt.Sprintf("%d. %s - GDP: $%.2f Billion", i+1, c.Name, gdpBillions), 140, float64(y+28))
		y += 80
	}

	return r.writeArtifact(dc)
}

func (r *Renderer) writeArtifact(dc *gg.Context) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	tmp := r.path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if err := dc.EncodePNG(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, r.path)
}

type flagResult struct {
	idx int
	img image.Image
	err error
}

// fetchFlags downloads the top countries' flags through the worker pool and
// waits for all of them. A failed flag leaves a nil slot.
func (r *Renderer) fetchFlags(ctx context.Context, top []models.Country) []image.Image {
	out := make([]image.Image, len(top))
	results := make(chan flagResult, len(top))

	pending := 0
	for i, c := range top {
		if c.FlagURL == nil || *c.FlagURL == "" {
			continue
		}
		i, url := i, *c.FlagURL
		pending++
		r.pool.Submit(func() {
			img, err := r.fetchFlag(ctx, url)
			results <- flagResult{idx: i, img: img, err: err}
		})
	}
	for ; pending > 0; pending-- {
		res := <-results
		if res.err != nil {
			slog.Warn("flag fetch failed, skipping", "err", res.err)
			continue
		}
		out[res.idx] = res.img
	}
	return out
}

func (r *Renderer) fetchFlag(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("flag %s: unexpected status %s", url, resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	if err != nil {
		// SVG flags land here; the list entry is drawn without a flag
		return nil, fmt.Errorf("flag %s: %w", url, err)
	}
	return img, nil
}

func scaleFlag(src image.Image) image.Image {
	dst := image.NewRGBA(image.Rect(0, 0, flagWidth, flagHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}

func newFace(size float64) (font.Face, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingFull})
}
