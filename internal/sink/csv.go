package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"carbontrace/internal/telemetry"
)

// CSVSink appends one row per record to a flat file. The header is
// written exactly once, only when the file is newly created.
type CSVSink struct {
	path   string
	schema telemetry.Schema
	file   *os.File
	writer *csv.Writer
}

// NewCSVSink opens (or creates) the target file and writes the header if
// the file is new or empty.
func NewCSVSink(path string, schema telemetry.Schema) (*CSVSink, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("csv sink: open %s: %w", path, err)
	}
	s := &CSVSink{path: path, schema: schema, file: file, writer: csv.NewWriter(file)}

	stat, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("csv sink: stat %s: %w", path, err)
	}
	if stat.Size() == 0 {
		if err := s.writer.Write(schema.Header()); err != nil {
			file.Close()
			return nil, fmt.Errorf("csv sink: write header: %w", err)
		}
		s.writer.Flush()
		if err := s.writer.Error(); err != nil {
			file.Close()
			return nil, fmt.Errorf("csv sink: flush header: %w", err)
		}
	}
	return s, nil
}

func (s *CSVSink) Name() string { return "csv" }

// Publish appends the record row and flushes so a crash loses at most
// the in-flight tick.
func (s *CSVSink) Publish(rec telemetry.MetricRecord) error {
	if err := s.writer.Write(rec.Row(s.schema)); err != nil {
		return fmt.Errorf("csv sink: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("csv sink: %w", err)
	}
	return nil
}

// Close flushes buffered rows and closes the file.
func (s *CSVSink) Close() error {
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return err
	}
	return s.file.Close()
}
