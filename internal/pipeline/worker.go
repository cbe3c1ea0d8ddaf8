package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/store"
)

// OutlineStore is the persistence the worker needs.
type OutlineStore interface {
	Put(ctx context.Context, rec store.Record) error
	GetByHash(ctx context.Context, contentHash string) (*store.Record, error)
}

// Worker processes a single document job.
type Worker struct {
	extractor *outline.Extractor
	store     OutlineStore
	stats     *Stats
	parseOpts parser.Options
	log       *slog.Logger
}

func NewWorker(extractor *outline.Extractor, st OutlineStore, stats *Stats, parseOpts parser.Options, log *slog.Logger) *Worker {
	return &Worker{
		extractor: extractor,
		store:     st,
		stats:     stats,
		parseOpts: parseOpts,
		log:       log,
	}
}

// Process runs parse, dedup, extraction and storage for a job. Failures are
// recorded on the job; nothing is retried.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "doc_id", job.DocID, "file", job.Filename)
	start := time.Now()
	defer job.releaseFileData()

	fail := func(phase string, err error) {
		log.Error("document failed", "phase", phase, "error", err)
		job.AddError(fmt.Sprintf("%s: %s", phase, err))
		job.SetStatus(StatusFailed, phase)
		if w.stats != nil {
			w.stats.Record(time.Since(start), true)
		}
	}

	// Phase 1: Parse
	job.SetStatus(StatusParsing, "parsing")
	p, err := parser.ForFile(job.Filename, w.parseOpts)
	if err != nil {
		fail("parsing", err)
		return
	}
	doc, err := p.Parse(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		fail("parsing", err)
		return
	}
	hash := ContentHashHex([]byte(doc.Layout()))
	job.SetParsed(doc.NumPages(), doc.FragmentCount(), hash)
	log.Debug("parsed document", "pages", doc.NumPages(), "fragments", doc.FragmentCount())

	// Phase 1.5: Dedup check
	if w.store != nil && !job.Force {
		prev, err := w.store.GetByHash(ctx, hash)
		switch {
		case err == nil && prev.Outline != nil:
			log.Info("duplicate document, skipping", "existing_doc_id", prev.DocID)
			job.SetResult(reuseOutline(prev.Outline, outline.Title(doc.MetadataTitle(), job.Filename)))
			job.SetStatus(StatusDupSkipped, "dedup")
			return
		case err == nil:
			log.Warn("stored duplicate has no outline, re-extracting", "existing_doc_id", prev.DocID)
		case !errors.Is(err, store.ErrNotFound):
			log.Warn("dedup check failed, proceeding", "error", err)
		}
	}

	// Phase 2: Outline
	job.SetStatus(StatusOutlining, "outlining")
	out, err := w.extractor.Extract(doc, job.Filename)
	if err != nil {
		fail("outlining", err)
		return
	}
	job.SetResult(out)
	log.Info("outline extracted", "headings", len(out.Outline), "title", out.Title)

	// Phase 3: Store
	if w.store != nil {
		job.SetStatus(StatusStoring, "storing")
		err := w.store.Put(ctx, store.Record{
			DocID:       job.DocID,
			Filename:    job.Filename,
			ContentHash: hash,
			PageCount:   doc.NumPages(),
			Outline:     out,
		})
		if err != nil {
			fail("storing", err)
			return
		}
	}

	if w.stats != nil {
		w.stats.Record(time.Since(start), false)
	}
	job.SetStatus(StatusCompleted, "done")
}

// reuseOutline copies a stored outline for a duplicate upload. The headings
// are shared content; the title belongs to the upload being processed.
func reuseOutline(stored *outline.Outline, title string) *outline.Outline {
	headings := make([]outline.Heading, len(stored.Outline))
	copy(headings, stored.Outline)
	return &outline.Outline{Title: title, Outline: headings}
}
