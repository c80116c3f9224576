// Package images fetches remotely hosted inspection photos and normalizes
// them for embedding in reports.
package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/site-vigilance/backend/internal/models"
)

// Defaults matching the source form's photo handling.
const (
	DefaultTimeout     = 10 * time.Second
	DefaultMaxWidth    = 800
	DefaultJPEGQuality = 85
	DefaultWorkers     = 4

	// maxDownloadBytes caps a single image download.
	maxDownloadBytes = 20 << 20
)

// driveIDPatterns are the Drive sharing URL shapes the source data uses.
var driveIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/file/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`/d/([a-zA-Z0-9_-]+)`),
	regexp.MustCompile(`[?&]id=([a-zA-Z0-9_-]+)`),
}

// Resolver downloads image references and converts them to bounded JPEGs.
// A Resolver holds no per-run state and is safe for concurrent use.
type Resolver struct {
	client      *http.Client
	downloadURL string // Drive direct-download format, %s = file ID
	maxWidth    int
	jpegQuality int
	workers     int
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTimeout sets the per-image fetch timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.client.Timeout = d
		}
	}
}

// WithMaxWidth bounds the maximum image width after normalization.
func WithMaxWidth(w int) Option {
	return func(r *Resolver) {
		if w > 0 {
			r.maxWidth = w
		}
	}
}

// WithJPEGQuality sets the re-encode quality (1-100).
func WithJPEGQuality(q int) Option {
	return func(r *Resolver) {
		if q > 0 && q <= 100 {
			r.jpegQuality = q
		}
	}
}

// WithWorkers bounds how many images resolve concurrently.
func WithWorkers(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithDownloadURLFormat overrides the Drive direct-download URL format.
// Tests point this at a local server.
func WithDownloadURLFormat(format string) Option {
	return func(r *Resolver) { r.downloadURL = format }
}

// NewResolver creates a Resolver with the given options.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{
		client:      &http.Client{Timeout: DefaultTimeout},
		downloadURL: "https://drive.google.com/uc?export=download&id=%s",
		maxWidth:    DefaultMaxWidth,
		jpegQuality: DefaultJPEGQuality,
		workers:     DefaultWorkers,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ExtractDriveFileID pulls the file ID out of a Drive sharing URL.
func ExtractDriveFileID(url string) (string, bool) {
	for _, re := range driveIDPatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// DownloadURL converts an image reference into the URL to fetch. Drive
// sharing links become direct-download URLs; anything else passes through.
func (r *Resolver) DownloadURL(ref string) (string, error) {
	if !strings.Contains(ref, "drive.google.com") {
		return ref, nil
	}
	id, ok := ExtractDriveFileID(ref)
	if !ok {
		return "", fmt.Errorf("no file ID in Drive URL")
	}
	return fmt.Sprintf(r.downloadURL, id), nil
}

// Resolve fetches and normalizes one image reference. Failure is data:
// every failure mode comes back as a failure-marked ResolvedImage so one
// broken image never aborts the report.
func (r *Resolver) Resolve(ctx context.Context, ref string) models.ResolvedImage {
	fetchURL, err := r.DownloadURL(ref)
	if err != nil {
		return models.ResolvedFailed(ref, fmt.Sprintf("malformed reference: %v", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fetchURL, nil)
	if err != nil {
		return models.ResolvedFailed(ref, fmt.Sprintf("invalid URL: %v", err))
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return models.ResolvedFailed(ref, fmt.Sprintf("download failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.ResolvedFailed(ref, fmt.Sprintf("download failed: status %s", resp.Status))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return models.ResolvedFailed(ref, fmt.Sprintf("download failed: %v", err))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return models.ResolvedFailed(ref, fmt.Sprintf("content is not a supported image: %v", err))
	}

	encoded, bounds, err := r.normalize(img, format)
	if err != nil {
		return models.ResolvedFailed(ref, fmt.Sprintf("image processing failed: %v", err))
	}

	return models.ResolvedOK(ref, encoded, "image/jpeg", bounds.Dx(), bounds.Dy())
}

// normalize flattens transparency onto white, bounds the width preserving
// aspect ratio, and re-encodes as JPEG.
func (r *Resolver) normalize(img image.Image, format string) ([]byte, image.Rectangle, error) {
	if format == "png" || format == "gif" {
		flat := image.NewRGBA(img.Bounds())
		draw.Draw(flat, flat.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), img, img.Bounds().Min, draw.Over)
		img = flat
	}

	if img.Bounds().Dx() > r.maxWidth {
		img = imaging.Resize(img, r.maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: r.jpegQuality}); err != nil {
		return nil, image.Rectangle{}, err
	}
	return buf.Bytes(), img.Bounds(), nil
}

// ResolveAll resolves every reference, preserving input order. References
// resolve independently on a bounded worker group; partial failures are
// returned in place, never propagated as an error.
func (r *Resolver) ResolveAll(ctx context.Context, refs []string) []models.ResolvedImage {
	if len(refs) == 0 {
		return nil
	}

	results := make([]models.ResolvedImage, len(refs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			results[i] = r.Resolve(ctx, ref)
			return nil
		})
	}
	g.Wait() // workers never return errors; failures are data

	return results
}
