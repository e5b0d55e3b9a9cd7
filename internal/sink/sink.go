// Record sinks and fan-out
package sink

import (
	"context"
	"errors"

	"carbontrace/internal/logging"

	"carbontrace/internal/telemetry"
)

// Sink consumes one canonical record per tick.
type Sink interface {
	Name() string
	Publish(telemetry.MetricRecord) error
}

// Multi fans a record out to every sink. Sinks are independent: a
// failing sink is logged and skipped, the others still receive the
// record. The joined error is returned for visibility only.
type Multi struct {
	sinks []Sink
}

// NewMulti creates a fan-out over the given sinks.
func NewMulti(sinks ...Sink) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Name() string { return "multi" }

// Publish delivers the record to all sinks regardless of failures.
func (m *Multi) Publish(rec telemetry.MetricRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Publish(rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublishLogged delivers the record and logs each sink failure with the
// context logger.
func (m *Multi) PublishLogged(ctx context.Context, rec telemetry.MetricRecord) {
	log := logging.FromContext(ctx)
	for _, s := range m.sinks {
		if err := s.Publish(rec); err != nil {
			log.Error("sink publish failed", "sink", s.Name(), "err", err)
		}
	}
}

// Close closes every sink that holds resources.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
