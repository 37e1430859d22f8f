package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or timeout expires.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met before timeout")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestDebouncer_Coalesces(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	for i := 0; i < 10; i++ {
		d.Call()
	}
	waitFor(t, time.Second, func() bool { return calls.Load() == 1 })

	time.Sleep(80 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
	if d.IsPending() {
		t.Error("IsPending() = true after the call ran")
	}
}

func TestDebouncer_SpacedCalls(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(20*time.Millisecond, func() { calls.Add(1) })

	for i := 1; i <= 3; i++ {
		d.Call()
		want := int32(i)
		waitFor(t, time.Second, func() bool { return calls.Load() == want })
	}
}

func TestDebouncer_Cancel(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(30*time.Millisecond, func() { calls.Add(1) })

	d.Call()
	if !d.IsPending() {
		t.Fatal("IsPending() = false after Call")
	}
	d.Cancel()
	if d.IsPending() {
		t.Fatal("IsPending() = true after Cancel")
	}

	time.Sleep(80 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Errorf("calls = %d, want 0", n)
	}
}

func TestDebouncer_Flush(t *testing.T) {
	var calls atomic.Int32
	d := NewDebouncer(50*time.Millisecond, func() { calls.Add(1) })

	d.Flush()
	if n := calls.Load(); n != 0 {
		t.Fatalf("Flush with nothing pending ran %d calls", n)
	}

	d.Call()
	d.Flush()
	if n := calls.Load(); n != 1 {
		t.Fatalf("calls after Flush = %d, want 1", n)
	}

	time.Sleep(100 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("calls = %d, scheduled call should have been cleared", n)
	}
}

// recorder is a Target that remembers every text it was given.
type recorder struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (r *recorder) Update(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
	return r.err
}

func (r *recorder) last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.texts) == 0 {
		return ""
	}
	return r.texts[len(r.texts)-1]
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.texts)
}

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestNew_Errors(t *testing.T) {
	dir := t.TempDir()

	if _, err := New(filepath.Join(dir, "missing.md"), &recorder{}); !errors.Is(err, ErrPathNotExist) {
		t.Errorf("New(missing) = %v, want ErrPathNotExist", err)
	}
	if _, err := New(dir, &recorder{}); !errors.Is(err, ErrNotFile) {
		t.Errorf("New(dir) = %v, want ErrNotFile", err)
	}

	path := filepath.Join(dir, "doc.md")
	writeFile(t, path, "# x")
	if _, err := New(path, nil); !errors.Is(err, ErrNilTarget) {
		t.Errorf("New(nil target) = %v, want ErrNilTarget", err)
	}
}

func TestWatcher_Sync(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	writeFile(t, path, "# hello")

	rec := &recorder{}
	w, err := New(path, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := rec.last(); got != "# hello" {
		t.Errorf("target got %q, want %q", got, "# hello")
	}
	if n := w.Stats().Syncs; n != 1 {
		t.Errorf("Syncs = %d, want 1", n)
	}
}

func TestWatcher_SyncErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	writeFile(t, path, "# hello")

	failure := errors.New("boom")
	rec := &recorder{err: failure}
	w, err := New(path, rec)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := w.Sync(); !errors.Is(err, failure) {
		t.Errorf("Sync() = %v, want target error", err)
	}

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	if err := w.Sync(); err == nil {
		t.Error("Sync() on a removed file = nil, want error")
	}

	stats := w.Stats()
	if stats.Errors != 2 {
		t.Errorf("Errors = %d, want 2", stats.Errors)
	}
	if !errors.Is(stats.LastError, os.ErrNotExist) {
		t.Errorf("LastError = %v, want os.ErrNotExist", stats.LastError)
	}
}

func TestWatcher_FollowsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	writeFile(t, path, "# one")

	rec := &recorder{}
	w, err := New(path, rec, WithDelay(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	writeFile(t, path, "# two")
	waitFor(t, 2*time.Second, func() bool { return rec.last() == "# two" })

	// Other files in the directory are ignored.
	before := rec.count()
	writeFile(t, filepath.Join(dir, "other.md"), "# other")
	time.Sleep(60 * time.Millisecond)
	if n := rec.count(); n != before {
		t.Errorf("updates = %d after writing another file, want %d", n, before)
	}

	// Atomic save: write a temporary file and rename it over the target.
	tmp := filepath.Join(dir, ".doc.md.tmp")
	writeFile(t, tmp, "# three")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatal(err)
	}
	waitFor(t, 2*time.Second, func() bool { return rec.last() == "# three" })

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run() = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if n := w.Stats().Events; n <= 0 {
		t.Errorf("Events = %d, want at least one", n)
	}
}

func TestWatcher_Close(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.md")
	writeFile(t, path, "# one")

	w, err := New(path, &recorder{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() = %v, want nil after Close", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Close")
	}
	if err := w.Run(context.Background()); !errors.Is(err, ErrWatcherClosed) {
		t.Errorf("Run after Close = %v, want ErrWatcherClosed", err)
	}
}
