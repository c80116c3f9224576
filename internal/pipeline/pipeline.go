// Package pipeline wires the report stages into one sequential run:
// fetch -> filter -> resolve images -> render.
package pipeline

import (
	"context"
	"fmt"

	"github.com/site-vigilance/backend/internal/filter"
	"github.com/site-vigilance/backend/internal/images"
	"github.com/site-vigilance/backend/internal/models"
	"github.com/site-vigilance/backend/internal/report"
	"github.com/site-vigilance/backend/internal/sheets"
)

// Stage names surfaced with fatal errors so the caller can say where a run
// died.
const (
	StageFetch  = "fetch"
	StageFilter = "filter"
	StageImages = "images"
	StageRender = "render"
)

// StageError wraps a fatal pipeline error with the stage that produced it.
// Row-level and image-level failures never become StageErrors; they are
// absorbed as warnings and placeholders.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// ProgressFunc receives coarse progress (0-100) as a run advances.
type ProgressFunc func(progress float64, stage string)

// Pipeline holds the stage implementations. A Pipeline carries no per-run
// state; each Run builds fresh structures and discards them.
type Pipeline struct {
	fetcher  *sheets.Fetcher
	resolver *images.Resolver
	renderer *report.Renderer
	sheetID  string
	gid      string
}

// New assembles a pipeline against one configured sheet.
func New(fetcher *sheets.Fetcher, resolver *images.Resolver, renderer *report.Renderer, sheetID, gid string) *Pipeline {
	return &Pipeline{
		fetcher:  fetcher,
		resolver: resolver,
		renderer: renderer,
		sheetID:  sheetID,
		gid:      gid,
	}
}

// Run executes a full pipeline pass: fetch the sheet, then defer to
// RunWithRecords for the remaining stages.
func (p *Pipeline) Run(ctx context.Context, criteria models.FilterCriteria, progress ProgressFunc) (*models.RenderedReport, error) {
	notify(progress, 0, StageFetch)

	records, warnings, err := p.fetcher.Fetch(ctx, p.sheetID, p.gid)
	if err != nil {
		return nil, &StageError{Stage: StageFetch, Err: err}
	}

	return p.RunWithRecords(ctx, records, len(warnings), criteria, progress)
}

// RunWithRecords executes the filter, image and render stages over an
// already-fetched dataset (the session layer caches sheet loads).
func (p *Pipeline) RunWithRecords(ctx context.Context, records []models.InspectionRecord, skippedRows int, criteria models.FilterCriteria, progress ProgressFunc) (*models.RenderedReport, error) {
	notify(progress, 20, StageFilter)
	matched := filter.Apply(records, criteria)

	notify(progress, 25, StageImages)
	enriched := make([]models.EnrichedRecord, len(matched))
	for i, rec := range matched {
		if err := ctx.Err(); err != nil {
			return nil, &StageError{Stage: StageImages, Err: err}
		}
		enriched[i] = models.EnrichedRecord{
			Record: rec,
			Images: p.resolver.ResolveAll(ctx, rec.ImageURLs),
		}
		notify(progress, 25+float64(i+1)*65/float64(len(matched)), StageImages)
	}

	notify(progress, 90, StageRender)
	rendered, err := p.renderer.Render(enriched)
	if err != nil {
		return nil, &StageError{Stage: StageRender, Err: err}
	}

	rendered.SkippedRows = skippedRows
	rendered.Filename = report.Filename(criteria, rendered.GeneratedAt)

	notify(progress, 100, StageRender)
	return rendered, nil
}

func notify(progress ProgressFunc, pct float64, stage string) {
	if progress != nil {
		progress(pct, stage)
	}
}
