package probe

import (
	"context"
	"errors"
	"testing"
)

// stubProbe scripts one outcome and records whether it was consulted.
type stubProbe struct {
	name   string
	result Result
	err    error
	called bool
}

func (s *stubProbe) Name() string { return s.name }

func (s *stubProbe) Attempt(ctx context.Context) (Result, error) {
	s.called = true
	return s.result, s.err
}

func TestChain_FirstSuccessWins(t *testing.T) {
	first := &stubProbe{name: "first", err: errors.New("missing")}
	second := &stubProbe{name: "second", err: errors.New("unparsable")}
	third := &stubProbe{name: "third", result: Result{Watts: 42, Source: "third", Available: true}}
	fourth := &stubProbe{name: "fourth", result: Result{Watts: 99, Source: "fourth", Available: true}}

	res := NewChain(first, second, third, fourth).Probe(context.Background())

	if !res.Available || res.Watts != 42 {
		t.Fatalf("chain result = %+v, want 42W from third", res)
	}
	if res.Source != "third" {
		t.Errorf("source = %q, want third", res.Source)
	}
	if !first.called || !second.called || !third.called {
		t.Error("probes before the succeeding one must all be consulted")
	}
	if fourth.called {
		t.Error("probe after the succeeding one must not be invoked")
	}
}

func TestChain_AllFailReturnsUnavailable(t *testing.T) {
	probes := []Probe{
		&stubProbe{name: "a", err: errors.New("no file")},
		&stubProbe{name: "b", err: errors.New("exit 1")},
		&stubProbe{name: "c", err: errors.New("bad output")},
	}
	res := NewChain(probes...).Probe(context.Background())
	if res.Available {
		t.Fatalf("chain result = %+v, want unavailable", res)
	}
	if res.Source != "unavailable" {
		t.Errorf("source = %q, want unavailable", res.Source)
	}
}

func TestChain_EmptyChainUnavailable(t *testing.T) {
	if res := NewChain().Probe(context.Background()); res.Available {
		t.Fatalf("empty chain returned %+v", res)
	}
}

func TestChain_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &stubProbe{name: "a", result: Result{Watts: 10, Source: "a", Available: true}}
	if res := NewChain(p).Probe(ctx); res.Available {
		t.Fatalf("cancelled chain returned %+v", res)
	}
	if p.called {
		t.Error("probe invoked after cancellation")
	}
}
