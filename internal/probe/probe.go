// Ordered power-source probing with graceful fallback
package probe

import (
	"context"
	"os/exec"

	"carbontrace/internal/logging"
)

// Result is a power reading tagged with its source, or an explicit
// unavailable outcome. It is never partially populated.
type Result struct {
	Watts     float64
	Source    string
	Available bool
}

// Unavailable is the all-probes-failed outcome; the caller falls back to
// estimation.
func Unavailable() Result {
	return Result{Source: "unavailable"}
}

// Probe is a single platform-specific attempt to read a hardware power
// value. A missing executable, non-zero exit, or unparsable output is an
// error the chain absorbs; it never reaches the sampling loop.
type Probe interface {
	Name() string
	Attempt(ctx context.Context) (Result, error)
}

// Chain tries probes in a fixed priority order and returns the first
// success. Only one source is trusted per tick; there is no averaging
// across sources.
type Chain struct {
	probes []Probe
}

// NewChain builds a chain over the given probes, in priority order.
func NewChain(probes ...Probe) *Chain {
	return &Chain{probes: probes}
}

// Probe walks the chain. Failures advance to the next probe; if every
// probe fails the result is Unavailable.
func (c *Chain) Probe(ctx context.Context) Result {
	log := logging.FromContext(ctx)
	for _, p := range c.probes {
		if ctx.Err() != nil {
			return Unavailable()
		}
		res, err := p.Attempt(ctx)
		if err != nil {
			log.Debug("probe failed", "probe", p.Name(), "err", err)
			continue
		}
		if res.Available {
			return res
		}
	}
	return Unavailable()
}

// Runner abstracts subprocess execution so probes can be tested against
// canned output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
