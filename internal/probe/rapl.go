package probe

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// RAPLProbe reads the Linux powercap cumulative energy counter twice and
// converts the microjoule delta into watts.
type RAPLProbe struct {
	Path   string
	Window time.Duration
}

// NewRAPLProbe probes the energy counter at path; an empty path uses the
// conventional intel-rapl package-0 location.
func NewRAPLProbe(path string) *RAPLProbe {
	if path == "" {
		path = "/sys/class/powercap/intel-rapl:0/energy_uj"
	}
	return &RAPLProbe{Path: path, Window: time.Second}
}

func (p *RAPLProbe) Name() string { return "rapl" }

// Attempt reads the counter, waits one window, reads again, and returns
// the average draw over the window.
func (p *RAPLProbe) Attempt(ctx context.Context) (Result, error) {
	first, err := p.readCounter()
	if err != nil {
		return Result{}, err
	}

	select {
	case <-time.After(p.Window):
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}

	second, err := p.readCounter()
	if err != nil {
		return Result{}, err
	}
	if second < first {
		// Counter wrapped; skip this source for the tick.
		return Result{}, fmt.Errorf("rapl: counter wrapped (%d -> %d)", first, second)
	}

	watts := float64(second-first) / 1e6 / p.Window.Seconds()
	return Result{Watts: watts, Source: p.Name(), Available: true}, nil
}

func (p *RAPLProbe) readCounter() (uint64, error) {
	data, err := os.ReadFile(p.Path)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("rapl: parse %s: %w", p.Path, err)
	}
	return v, nil
}
