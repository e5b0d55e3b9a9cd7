package telemetry

import (
	"testing"
	"time"
)

func TestBuilder_FillsSentinels(t *testing.T) {
	b := NewBuilder(DefaultSchema())
	rec := b.Build(StaticInfo{ProjectName: "proj"}, PowerSample{}, EnergySample{}, Tick{
		Timestamp: time.Unix(0, 0),
		RunID:     "abcd1234",
		Duration:  time.Second,
	})

	if rec.Static.ProjectName != "proj" {
		t.Errorf("project_name = %q, want proj", rec.Static.ProjectName)
	}
	if rec.Static.CountryName != Unknown {
		t.Errorf("country_name = %q, want sentinel %q", rec.Static.CountryName, Unknown)
	}
	if rec.Static.CountryISOCode != NotAvailable {
		t.Errorf("country_iso_code = %q, want sentinel %q", rec.Static.CountryISOCode, NotAvailable)
	}
	if rec.Static.OnCloud != "N" {
		t.Errorf("on_cloud = %q, want N", rec.Static.OnCloud)
	}
	if rec.Static.RAMName != "Generic RAM" {
		t.Errorf("ram_name = %q, want Generic RAM", rec.Static.RAMName)
	}
	if rec.Static.TrackingMode != "machine" {
		t.Errorf("tracking_mode = %q, want machine", rec.Static.TrackingMode)
	}
}

func TestBuilder_GeneratesRunIDAndTimestamp(t *testing.T) {
	b := NewBuilder(DefaultSchema())
	rec := b.Build(StaticInfo{}, PowerSample{}, EnergySample{}, Tick{Duration: time.Second})

	if len(rec.RunID) != 8 {
		t.Errorf("run_id = %q, want 8 characters", rec.RunID)
	}
	if rec.Timestamp.IsZero() {
		t.Error("timestamp not filled")
	}
	if rec.Duration != 1 {
		t.Errorf("duration = %v, want 1", rec.Duration)
	}

	other := b.Build(StaticInfo{}, PowerSample{}, EnergySample{}, Tick{Duration: time.Second})
	if other.RunID == rec.RunID {
		t.Errorf("run_id %q repeated across ticks", rec.RunID)
	}
}

func TestBuilder_RowMatchesSchema(t *testing.T) {
	schema := DefaultSchema()
	b := NewBuilder(schema)
	rec := b.Build(StaticInfo{}, PowerSample{CPUPower: 32.5}, EnergySample{EnergyConsumed: 1.125e-5}, Tick{
		Timestamp: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		RunID:     "deadbeef",
		Duration:  time.Second,
	})

	row := rec.Row(schema)
	if len(row) != len(schema.Fields) {
		t.Fatalf("row has %d columns, schema has %d", len(row), len(schema.Fields))
	}
	if row[0] != "2025-03-01T12:00:00Z" {
		t.Errorf("timestamp column = %q", row[0])
	}
	for i, f := range schema.Fields {
		if row[i] == "" {
			t.Errorf("empty column %s", f.Name)
		}
	}
}
