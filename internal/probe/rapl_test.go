package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeCounter(t *testing.T, path, value string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(value), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestRAPLProbe_DeltaToWatts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy_uj")
	writeCounter(t, path, "1000000\n")

	p := NewRAPLProbe(path)
	p.Window = 100 * time.Millisecond
	go func() {
		time.Sleep(20 * time.Millisecond)
		// 5 J consumed over a 0.1s window reads as 50 W.
		writeCounter(t, path, "6000000\n")
	}()

	res, err := p.Attempt(context.Background())
	if err != nil {
		t.Fatalf("Attempt: %v", err)
	}
	if !res.Available || res.Source != "rapl" {
		t.Fatalf("result = %+v", res)
	}
	if res.Watts != 50 {
		t.Errorf("watts = %v, want 50", res.Watts)
	}
}

func TestRAPLProbe_CounterWrap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy_uj")
	writeCounter(t, path, "9000000\n")

	p := NewRAPLProbe(path)
	p.Window = 100 * time.Millisecond
	go func() {
		time.Sleep(20 * time.Millisecond)
		writeCounter(t, path, "100\n")
	}()

	if _, err := p.Attempt(context.Background()); err == nil {
		t.Error("expected error when the counter wraps")
	}
}

func TestRAPLProbe_MissingFile(t *testing.T) {
	p := NewRAPLProbe(filepath.Join(t.TempDir(), "nope"))
	if _, err := p.Attempt(context.Background()); err == nil {
		t.Error("expected error for missing counter file")
	}
}

func TestRAPLProbe_Unparsable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy_uj")
	writeCounter(t, path, "garbage\n")
	p := NewRAPLProbe(path)
	if _, err := p.Attempt(context.Background()); err == nil {
		t.Error("expected error for non-numeric counter")
	}
}

func TestRAPLProbe_CancelledDuringWindow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "energy_uj")
	writeCounter(t, path, "1000000\n")

	p := NewRAPLProbe(path)
	p.Window = 10 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := p.Attempt(ctx); err == nil {
		t.Error("expected context error while waiting out the window")
	}
}
