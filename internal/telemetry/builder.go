package telemetry

import (
	"time"

	"github.com/google/uuid"
)

// Tick identifies one iteration of the sampling loop.
type Tick struct {
	Timestamp time.Time
	RunID     string
	Duration  time.Duration
}

// NewRunID returns a short opaque identifier, regenerated per tick.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// Builder merges static info, a power/energy sample, and tick metadata
// into one canonical record. It is a pure merge: a missing static field
// becomes its sentinel, never an error.
type Builder struct {
	schema Schema
}

// NewBuilder returns a builder for the given schema.
func NewBuilder(schema Schema) *Builder {
	return &Builder{schema: schema}
}

// Schema returns the record layout the builder fills.
func (b *Builder) Schema() Schema { return b.schema }

// Build constructs the canonical record for one tick.
func (b *Builder) Build(static StaticInfo, power PowerSample, energy EnergySample, tick Tick) MetricRecord {
	fillSentinels(&static)
	if tick.RunID == "" {
		tick.RunID = NewRunID()
	}
	if tick.Timestamp.IsZero() {
		tick.Timestamp = time.Now()
	}
	return MetricRecord{
		Timestamp: tick.Timestamp.UTC(),
		RunID:     tick.RunID,
		Duration:  tick.Duration.Seconds(),
		Power:     power,
		Energy:    energy,
		Static:    static,
	}
}

func fillSentinels(s *StaticInfo) {
	defaults := map[string]*string{
		"project_name":     &s.ProjectName,
		"country_name":     &s.CountryName,
		"country_iso_code": &s.CountryISOCode,
		"region":           &s.Region,
		"latitude":         &s.Latitude,
		"longitude":        &s.Longitude,
		"on_cloud":         &s.OnCloud,
		"cloud_provider":   &s.CloudProvider,
		"cloud_region":     &s.CloudRegion,
		"os":               &s.OS,
		"runtime_version":  &s.RuntimeVersion,
		"cpu_model":        &s.CPUModel,
		"cpu_name":         &s.CPUName,
		"gpu_model":        &s.GPUModel,
		"gpu_name":         &s.GPUName,
		"ram_name":         &s.RAMName,
		"tracking_mode":    &s.TrackingMode,
	}
	for _, f := range DefaultSchema().Fields {
		if f.Kind != FieldLabel {
			continue
		}
		if p, ok := defaults[f.Name]; ok && *p == "" {
			*p = f.Default
		}
	}
}
