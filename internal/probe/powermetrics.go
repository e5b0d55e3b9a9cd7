package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// powermetrics sampler set and duration are fixed; the tool samples for
// one second and prints "<Label>: <value> <unit>" lines.
var powermetricsArgs = []string{"--samplers", "cpu_power,gpu_power,ane_power", "--duration", "1"}

// PowermetricsProbe reads whole-package power from the macOS vendor
// sampling tool, summing CPU, GPU, and Neural Engine draw.
type PowermetricsProbe struct {
	run     Runner
	timeout time.Duration
}

// NewPowermetricsProbe returns a probe invoking powermetrics with a
// bounded timeout covering its one-second sampling window.
func NewPowermetricsProbe() *PowermetricsProbe {
	return &PowermetricsProbe{run: execRunner, timeout: 3 * time.Second}
}

func (p *PowermetricsProbe) Name() string { return "powermetrics" }

func (p *PowermetricsProbe) Attempt(ctx context.Context) (Result, error) {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.run(tctx, "powermetrics", powermetricsArgs...)
	if err != nil {
		return Result{}, fmt.Errorf("powermetrics: %w", err)
	}
	milliwatts, err := parsePowermetricsMilliwatts(string(out))
	if err != nil {
		return Result{}, err
	}
	return Result{Watts: milliwatts / 1000, Source: p.Name(), Available: true}, nil
}

// parsePowermetricsMilliwatts sums the CPU, GPU, and ANE power lines.
// Values are reported in milliwatts.
func parsePowermetricsMilliwatts(out string) (float64, error) {
	labels := []string{"CPU Power:", "GPU Power:", "ANE Power:"}
	var total float64
	found := false
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		for _, label := range labels {
			if !strings.HasPrefix(trimmed, label) {
				continue
			}
			rest := strings.Fields(strings.TrimSpace(strings.TrimPrefix(trimmed, label)))
			if len(rest) == 0 {
				continue
			}
			v, err := strconv.ParseFloat(rest[0], 64)
			if err != nil {
				continue
			}
			total += v
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("powermetrics: no power lines in output")
	}
	return total, nil
}
