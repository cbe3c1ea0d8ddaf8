// Package batch extracts outlines for every document in a directory and
// writes one JSON file per document.
package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
)

// OutputSuffix is appended to the input stem to name the output file.
const OutputSuffix = "_outline.json"

// Summary counts the outcome of one Run.
type Summary struct {
	Processed int `json:"processed"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Runner drives extraction over a directory.
type Runner struct {
	extractor *outline.Extractor
	parseOpts parser.Options
	workers   int
	log       *slog.Logger
}

// NewRunner returns a Runner extracting up to workers documents at a time.
func NewRunner(extractor *outline.Extractor, parseOpts parser.Options, workers int, log *slog.Logger) *Runner {
	if workers <= 0 {
		workers = 1
	}
	return &Runner{
		extractor: extractor,
		parseOpts: parseOpts,
		workers:   workers,
		log:       log,
	}
}

// ExtractFile parses and outlines a single file.
func (r *Runner) ExtractFile(ctx context.Context, path string) (*outline.Outline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := parser.ForFile(path, r.parseOpts)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := p.Parse(f, filepath.Base(path))
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return r.extractor.Extract(doc, filepath.Base(path))
}

// Run outlines every supported file directly inside inputDir. A document
// that fails is logged and counted; only setup errors fail the run.
func (r *Runner) Run(ctx context.Context, inputDir, outputDir string) (Summary, error) {
	files, skipped, err := discover(inputDir)
	if err != nil {
		return Summary{}, err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return Summary{}, fmt.Errorf("creating output dir: %w", err)
	}

	var processed, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for _, path := range files {
		g.Go(func() error {
			if err := r.processFile(gctx, path, outputDir); err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				failed.Add(1)
				return nil
			}
			processed.Add(1)
			return nil
		})
	}
	err = g.Wait()

	sum := Summary{
		Processed: int(processed.Load()),
		Failed:    int(failed.Load()),
		Skipped:   skipped,
	}
	r.log.Info("batch complete",
		"input", inputDir,
		"output", outputDir,
		"processed", sum.Processed,
		"failed", sum.Failed,
		"skipped", sum.Skipped,
	)
	return sum, err
}

// Watch runs once over inputDir and then outlines files as they are
// created or rewritten, until ctx is cancelled.
func (r *Runner) Watch(ctx context.Context, inputDir, outputDir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()
	if err := watcher.Add(inputDir); err != nil {
		return fmt.Errorf("watching %s: %w", inputDir, err)
	}

	if _, err := r.Run(ctx, inputDir, outputDir); err != nil {
		return err
	}
	r.log.Info("watching for documents", "input", inputDir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path, ok := handleEvent(event)
			if !ok {
				continue
			}
			if err := r.processFile(ctx, path, outputDir); err != nil && ctx.Err() != nil {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watcher error", "error", err)
		}
	}
}

// handleEvent reports the document path an event should trigger, if any.
func handleEvent(event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, OutputSuffix) {
		return "", false
	}
	if !parser.IsSupportedExtension(name) {
		return "", false
	}
	info, err := os.Stat(event.Name)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return event.Name, true
}

func (r *Runner) processFile(ctx context.Context, path, outputDir string) error {
	start := time.Now()
	name := filepath.Base(path)

	out, err := r.ExtractFile(ctx, path)
	if err != nil {
		r.log.Error("document failed", "file", name, "error", err)
		return err
	}
	dest := filepath.Join(outputDir, OutputName(name))
	if err := writeOutline(dest, out); err != nil {
		r.log.Error("writing outline failed", "file", name, "error", err)
		return err
	}
	r.log.Info("outline written",
		"file", name,
		"output", dest,
		"headings", len(out.Outline),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// OutputName maps "report.pdf" to "report_outline.json".
func OutputName(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base)) + OutputSuffix
}

// Encode writes o as indented JSON without HTML escaping.
func Encode(o *outline.Outline) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeOutline(dest string, o *outline.Outline) error {
	data, err := Encode(o)
	if err != nil {
		return fmt.Errorf("encoding outline: %w", err)
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// discover lists supported regular files in dir, sorted by name, and
// counts entries it skipped.
func discover(dir string) ([]string, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("reading input dir: %w", err)
	}
	var files []string
	skipped := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || !parser.IsSupportedExtension(name) {
			skipped++
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, skipped, nil
}
