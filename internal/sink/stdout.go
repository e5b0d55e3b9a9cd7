package sink

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"carbontrace/internal/telemetry"
)

// StdoutSink prints each record as one JSON line, for print-only runs
// and piping into other tools.
type StdoutSink struct {
	out    io.Writer
	schema telemetry.Schema
}

// NewStdoutSink writes to STDOUT.
func NewStdoutSink(schema telemetry.Schema) *StdoutSink {
	return &StdoutSink{out: os.Stdout, schema: schema}
}

func (s *StdoutSink) Name() string { return "stdout" }

// Publish encodes the record's schema fields as a flat JSON object.
func (s *StdoutSink) Publish(rec telemetry.MetricRecord) error {
	obj := map[string]any{
		"timestamp": rec.Timestamp.UTC().Format(time.RFC3339),
		"run_id":    rec.RunID,
		"source":    rec.Power.Source,
	}
	for _, f := range s.schema.Fields {
		switch f.Kind {
		case telemetry.FieldNumeric:
			if v, ok := rec.Numeric(f.Name); ok {
				obj[f.Name] = v
			}
		case telemetry.FieldLabel:
			obj[f.Name] = rec.Value(f.Name)
		}
	}
	return json.NewEncoder(s.out).Encode(obj)
}
