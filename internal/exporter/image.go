package exporter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"golang.org/x/sync/singleflight"

	"datainsights/pkg/contracts/domain"
)

// Supported static image formats.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatPDF  = "pdf"
)

const pixelsPerInch = 96.0

// ImageRenderer rasterizes chart descriptors through a headless Chrome
// instance. Concurrent identical render requests are collapsed into a
// single browser run.
type ImageRenderer struct {
	html    *HTMLExporter
	timeout time.Duration
	logger  *slog.Logger
	group   singleflight.Group
}

// NewImageRenderer creates an image renderer with a per-render timeout.
func NewImageRenderer(html *HTMLExporter, timeout time.Duration, logger *slog.Logger) *ImageRenderer {
	return &ImageRenderer{
		html:    html,
		timeout: timeout,
		logger:  logger.With(slog.String("component", "image_renderer")),
	}
}

// Render produces PNG, JPEG or PDF bytes for the descriptor at the
// requested pixel dimensions.
func (r *ImageRenderer) Render(ctx context.Context, desc *domain.ChartDescriptor, format string, width, height int) ([]byte, error) {
	switch format {
	case FormatPNG, FormatJPEG, FormatPDF:
	default:
		return nil, fmt.Errorf("unsupported image format: %s", format)
	}

	// Force the descriptor layout to the export dimensions so the
	// rendered page fills the viewport exactly.
	sized := *desc
	sized.Layout.Width = width
	sized.Layout.Height = height

	html, err := r.html.Export(&sized)
	if err != nil {
		return nil, fmt.Errorf("build render page: %w", err)
	}

	key := renderKey(html, format, width, height)
	result, err, _ := r.group.Do(key, func() (interface{}, error) {
		return r.renderOnce(ctx, html, format, width, height)
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

func (r *ImageRenderer) renderOnce(ctx context.Context, html []byte, format string, width, height int) ([]byte, error) {
	start := time.Now()

	// The page is served from a temp file; chromedp needs a URL, not
	// bytes.
	dir, err := os.MkdirTemp("", "chart-render-*")
	if err != nil {
		return nil, fmt.Errorf("create render dir: %w", err)
	}
	defer os.RemoveAll(dir)

	pagePath := filepath.Join(dir, "chart.html")
	if err := os.WriteFile(pagePath, html, 0644); err != nil {
		return nil, fmt.Errorf("write render page: %w", err)
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	renderCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	var buf []byte

	actions := chromedp.Tasks{
		chromedp.EmulateViewport(int64(width), int64(height)),
		chromedp.Navigate("file://" + pagePath),
		chromedp.WaitVisible(`#chart`, chromedp.ByID),
		// Plotly draws asynchronously after the container appears.
		chromedp.WaitVisible(`#chart .main-svg`, chromedp.ByQuery),
	}

	switch format {
	case FormatPNG:
		actions = append(actions, chromedp.FullScreenshot(&buf, 100))
	case FormatJPEG:
		actions = append(actions, chromedp.FullScreenshot(&buf, 90))
	case FormatPDF:
		actions = append(actions, chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().
				WithPaperWidth(float64(width) / pixelsPerInch).
				WithPaperHeight(float64(height) / pixelsPerInch).
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			buf = pdf
			return nil
		}))
	}

	if err := chromedp.Run(renderCtx, actions); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}

	r.logger.InfoContext(ctx, "static render complete",
		slog.String("format", format),
		slog.Int("width", width),
		slog.Int("height", height),
		slog.Int("bytes", len(buf)),
		slog.Duration("duration", time.Since(start)),
	)

	return buf, nil
}

func renderKey(html []byte, format string, width, height int) string {
	sum := sha256.Sum256(html)
	return fmt.Sprintf("%s:%dx%d:%s", format, width, height, hex.EncodeToString(sum[:]))
}
