package pipeline

import (
	"testing"
	"time"

	"github.com/dgallion1/docoutline/internal/outline"
)

func TestContentHashHex_KnownValues(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"hello world", "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
		{"", "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
	}
	for _, tt := range tests {
		if got := ContentHashHex([]byte(tt.in)); got != tt.want {
			t.Errorf("ContentHashHex(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if ContentHashHex([]byte("aaa")) == ContentHashHex([]byte("bbb")) {
		t.Error("expected different hashes for different inputs")
	}
}

func TestNewJob(t *testing.T) {
	data := []byte("hello world")
	job := NewJob("report.pdf", data)

	if job.ID == "" {
		t.Fatal("expected job ID")
	}
	if job.DocID != "b94d27b9934d3e08" {
		t.Errorf("expected doc ID from content hash, got %q", job.DocID)
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if string(job.FileData()) != "hello world" {
		t.Errorf("expected file data to be kept, got %q", job.FileData())
	}

	other := NewJob("report.pdf", data)
	if other.ID == job.ID {
		t.Error("expected unique job IDs")
	}
	if other.DocID != job.DocID {
		t.Error("expected identical content to share a doc ID")
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []struct {
		status JobStatus
		phase  string
	}{
		{StatusParsing, "parsing"},
		{StatusOutlining, "outlining"},
		{StatusStoring, "storing"},
		{StatusCompleted, "done"},
	}

	for _, tr := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(tr.status, tr.phase)

		if job.Status != tr.status {
			t.Errorf("expected status %q, got %q", tr.status, job.Status)
		}
		if job.Phase != tr.phase {
			t.Errorf("expected phase %q, got %q", tr.phase, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", tr.status)
		}
	}
}

func TestJobStatus_Done(t *testing.T) {
	done := map[JobStatus]bool{
		StatusQueued:     false,
		StatusParsing:    false,
		StatusOutlining:  false,
		StatusStoring:    false,
		StatusCompleted:  true,
		StatusFailed:     true,
		StatusDupSkipped: true,
	}
	for status, want := range done {
		if got := status.Done(); got != want {
			t.Errorf("%q.Done() = %v, want %v", status, got, want)
		}
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("parsing: no pages")
	job.AddError("storing: disk full")

	snap := job.Snapshot()
	if len(snap.Progress.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Progress.Errors))
	}
	if snap.Progress.Errors[0] != "parsing: no pages" {
		t.Errorf("expected first error %q, got %q", "parsing: no pages", snap.Progress.Errors[0])
	}
}

func TestJob_SetParsed(t *testing.T) {
	job := &Job{ID: "parsed-test", UpdatedAt: time.Now()}
	job.SetParsed(3, 42, "abc")

	snap := job.Snapshot()
	if snap.Progress.Pages != 3 {
		t.Errorf("expected 3 pages, got %d", snap.Progress.Pages)
	}
	if snap.Progress.Fragments != 42 {
		t.Errorf("expected 42 fragments, got %d", snap.Progress.Fragments)
	}
	if job.ContentHash != "abc" {
		t.Errorf("expected content hash %q, got %q", "abc", job.ContentHash)
	}
}

func TestJob_SetResult(t *testing.T) {
	job := &Job{ID: "result-test", UpdatedAt: time.Now()}
	if job.Result() != nil {
		t.Fatal("expected nil result before extraction")
	}

	out := &outline.Outline{
		Title: "Report",
		Outline: []outline.Heading{
			{Level: "H1", Text: "Introduction", Page: 1},
			{Level: "H2", Text: "1.1 Scope", Page: 2},
		},
	}
	job.SetResult(out)

	if job.Result() != out {
		t.Error("expected stored result")
	}
	snap := job.Snapshot()
	if snap.Progress.Headings != 2 {
		t.Errorf("expected 2 headings, got %d", snap.Progress.Headings)
	}
	if snap.Result == nil || snap.Result.Title != "Report" {
		t.Errorf("expected snapshot result, got %+v", snap.Result)
	}
}

func TestJob_FileData(t *testing.T) {
	job := &Job{ID: "data-test"}
	data := []byte("file content here")
	job.SetFileData(data)
	got := job.FileData()
	if string(got) != string(data) {
		t.Errorf("expected file data %q, got %q", data, got)
	}

	job.releaseFileData()
	if job.FileData() != nil {
		t.Error("expected file data to be released")
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Progress.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Progress.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Progress.Errors))
	}
}

func TestJob_SnapshotErrorsAreCopied(t *testing.T) {
	job := &Job{ID: "copy-test", UpdatedAt: time.Now()}
	job.AddError("first")
	snap := job.Snapshot()
	snap.Progress.Errors[0] = "mutated"

	if got := job.Snapshot().Progress.Errors[0]; got != "first" {
		t.Errorf("expected snapshot to be a copy, job now has %q", got)
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", UpdatedAt: time.Now()}
	store.Put(expired)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
}

func TestJobStore_CleanupEmpty(t *testing.T) {
	store := NewJobStore(time.Hour)
	// Should not panic on empty store.
	store.Cleanup()
}
