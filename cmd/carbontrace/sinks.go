package main

import (
	"os"

	"carbontrace/internal/sink"
	"carbontrace/internal/telemetry"
)

// buildSinks assembles the sink set for a monitoring run. The registry
// sink is always first; print-only swaps the CSV file for STDOUT, the
// history sink joins when GREPTIMEDB_ENDPOINT is set, and the terminal
// view is appended last so its shutdown runs after the data sinks.
func buildSinks(prom *sink.PromSink, schema telemetry.Schema, static telemetry.StaticInfo,
	csvPath string, printOnly, tui bool) ([]sink.Sink, error) {
	sinks := []sink.Sink{prom}

	if printOnly {
		sinks = append(sinks, sink.NewStdoutSink(schema))
	} else {
		csvSink, err := sink.NewCSVSink(csvPath, schema)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, csvSink)
	}

	if endpoint := os.Getenv("GREPTIMEDB_ENDPOINT"); endpoint != "" {
		gt, err := sink.NewGreptimeSink(endpoint, os.Getenv("GREPTIMEDB_TABLE"))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, gt)
	}

	if tui {
		sinks = append(sinks, sink.NewTUISink(static))
	}
	return sinks, nil
}
