package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/outline"
	"github.com/dgallion1/docoutline/internal/parser"
	"github.com/dgallion1/docoutline/internal/store"
)

const sampleText = "Abstract\n\n1.1 Scope\n\nThis paragraph is body text.\n"

type memStore struct {
	mu     sync.Mutex
	byHash map[string]store.Record
	putErr error
	puts   int
}

func newMemStore() *memStore {
	return &memStore{byHash: make(map[string]store.Record)}
}

func (m *memStore) Put(_ context.Context, rec store.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.puts++
	m.byHash[rec.ContentHash] = rec
	return nil
}

func (m *memStore) GetByHash(_ context.Context, hash string) (*store.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.byHash[hash]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWorker(st OutlineStore) *Worker {
	return NewWorker(outline.New(outline.DefaultOptions()), st, NewStats(time.Hour), parser.Options{}, testLogger())
}

func TestWorker_ProcessCompletes(t *testing.T) {
	st := newMemStore()
	w := newTestWorker(st)
	job := NewJob("paper.txt", []byte(sampleText))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q (errors %v)", StatusCompleted, snap.Status, snap.Progress.Errors)
	}
	if snap.Progress.Pages != 1 {
		t.Errorf("expected 1 page, got %d", snap.Progress.Pages)
	}
	if snap.Progress.Fragments != 3 {
		t.Errorf("expected 3 fragments, got %d", snap.Progress.Fragments)
	}
	out := job.Result()
	if out == nil {
		t.Fatal("expected outline result")
	}
	if out.Title != "paper" {
		t.Errorf("expected title %q, got %q", "paper", out.Title)
	}
	want := []outline.Heading{
		{Level: "H1", Text: "Abstract", Page: 1},
		{Level: "H2", Text: "1.1 Scope", Page: 1},
	}
	if len(out.Outline) != len(want) {
		t.Fatalf("expected %d headings, got %+v", len(want), out.Outline)
	}
	for i := range want {
		if out.Outline[i] != want[i] {
			t.Errorf("heading %d: expected %+v, got %+v", i, want[i], out.Outline[i])
		}
	}
	if st.puts != 1 {
		t.Errorf("expected 1 stored outline, got %d", st.puts)
	}
	if job.FileData() != nil {
		t.Error("expected file data released after processing")
	}
	if w.stats.Snapshot().Count != 1 {
		t.Errorf("expected 1 recorded latency, got %d", w.stats.Snapshot().Count)
	}
}

func TestWorker_DuplicateSkipped(t *testing.T) {
	st := newMemStore()
	w := newTestWorker(st)

	w.Process(context.Background(), NewJob("first.txt", []byte(sampleText)))

	dup := NewJob("second.txt", []byte(sampleText))
	w.Process(context.Background(), dup)

	if dup.Status != StatusDupSkipped {
		t.Fatalf("expected status %q, got %q", StatusDupSkipped, dup.Status)
	}
	got := dup.Result()
	if got == nil {
		t.Fatal("expected the stored headings to be returned")
	}
	if got.Title != "second" {
		t.Errorf("expected title from the duplicate's own filename, got %q", got.Title)
	}
	if len(got.Outline) != 2 || got.Outline[1].Text != "1.1 Scope" {
		t.Errorf("expected stored headings, got %+v", got.Outline)
	}
	if st.puts != 1 {
		t.Errorf("expected no second store, got %d puts", st.puts)
	}
	if stored := st.byHash[dup.ContentHash]; stored.Outline.Title != "first" {
		t.Errorf("expected stored outline to keep its title, got %q", stored.Outline.Title)
	}
}

func TestWorker_DuplicateUsesOwnMetadataTitle(t *testing.T) {
	st := newMemStore()
	w := newTestWorker(st)
	page := "<h1>Introduction</h1><p>Body.</p>"

	w.Process(context.Background(), NewJob("alpha.html",
		[]byte("<html><head><title>Alpha Report</title></head><body>"+page+"</body></html>")))

	dup := NewJob("beta.html",
		[]byte("<html><head><title>Beta Report</title></head><body>"+page+"</body></html>"))
	w.Process(context.Background(), dup)

	if dup.Status != StatusDupSkipped {
		t.Fatalf("expected status %q, got %q", StatusDupSkipped, dup.Status)
	}
	if got := dup.Result().Title; got != "Beta Report" {
		t.Errorf("expected title %q, got %q", "Beta Report", got)
	}
}

func TestWorker_ForceReextracts(t *testing.T) {
	st := newMemStore()
	w := newTestWorker(st)

	w.Process(context.Background(), NewJob("first.txt", []byte(sampleText)))

	job := NewJob("second.txt", []byte(sampleText))
	job.Force = true
	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q", StatusCompleted, job.Status)
	}
	if job.Result().Title != "second" {
		t.Errorf("expected fresh extraction, got title %q", job.Result().Title)
	}
	if st.puts != 2 {
		t.Errorf("expected 2 puts, got %d", st.puts)
	}
}

func TestWorker_UnsupportedFormatFails(t *testing.T) {
	w := newTestWorker(newMemStore())
	job := NewJob("data.xlsx", []byte("whatever"))

	w.Process(context.Background(), job)

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.Phase != "parsing" {
		t.Errorf("expected failure in parsing, got %q", snap.Phase)
	}
	if len(snap.Progress.Errors) != 1 {
		t.Errorf("expected 1 error, got %v", snap.Progress.Errors)
	}
	if w.stats.Snapshot().Failed != 1 {
		t.Errorf("expected 1 failed sample, got %d", w.stats.Snapshot().Failed)
	}
}

func TestWorker_StoreErrorFails(t *testing.T) {
	st := newMemStore()
	st.putErr = errors.New("disk full")
	w := newTestWorker(st)
	job := NewJob("paper.txt", []byte(sampleText))

	w.Process(context.Background(), job)

	if job.Status != StatusFailed {
		t.Fatalf("expected status %q, got %q", StatusFailed, job.Status)
	}
	if job.Phase != "storing" {
		t.Errorf("expected failure while storing, got %q", job.Phase)
	}
	if job.Result() == nil {
		t.Error("expected outline to be kept even though storing failed")
	}
	snap := w.stats.Snapshot()
	if snap.Count != 0 || snap.Failed != 1 {
		t.Errorf("expected only a failed sample, got count=%d failed=%d", snap.Count, snap.Failed)
	}
}

func TestWorker_NilStore(t *testing.T) {
	w := newTestWorker(nil)
	job := NewJob("paper.md", []byte("# Introduction\n\nBody text here.\n"))

	w.Process(context.Background(), job)

	if job.Status != StatusCompleted {
		t.Fatalf("expected status %q, got %q", StatusCompleted, job.Status)
	}
	if got := job.Result().Outline; len(got) != 1 || got[0].Text != "Introduction" {
		t.Errorf("unexpected outline %+v", got)
	}
}
