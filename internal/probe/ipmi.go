package probe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// IPMIProbe reads system power from the out-of-band sensor table printed
// by `ipmitool sensor`.
type IPMIProbe struct {
	run     Runner
	timeout time.Duration
}

// NewIPMIProbe returns a probe invoking ipmitool with a bounded timeout.
func NewIPMIProbe() *IPMIProbe {
	return &IPMIProbe{run: execRunner, timeout: 3 * time.Second}
}

func (p *IPMIProbe) Name() string { return "ipmitool" }

func (p *IPMIProbe) Attempt(ctx context.Context) (Result, error) {
	tctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	out, err := p.run(tctx, "ipmitool", "sensor")
	if err != nil {
		return Result{}, fmt.Errorf("ipmitool: %w", err)
	}
	watts, err := parseSensorWatts(string(out))
	if err != nil {
		return Result{}, err
	}
	return Result{Watts: watts, Source: p.Name(), Available: true}, nil
}

// parseSensorWatts scans the pipe-delimited sensor table for the first
// row whose label contains "Power" and returns its reading column.
func parseSensorWatts(out string) (float64, error) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "Power") {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 2 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			continue
		}
		return v, nil
	}
	return 0, fmt.Errorf("ipmitool: no power sensor row in output")
}
