package telemetry

import (
	"strconv"
	"time"
)

// Sentinel values used when a static fact cannot be determined. One
// missing field never drops a sample.
const (
	Unknown      = "Unknown"
	NotAvailable = "N/A"
)

// StaticInfo holds the facts collected once at startup.
type StaticInfo struct {
	ProjectName    string
	TrackingMode   string
	CountryName    string
	CountryISOCode string
	Region         string
	Latitude       string
	Longitude      string
	OnCloud        string
	CloudProvider  string
	CloudRegion    string
	OS             string
	RuntimeVersion string
	CPUCount       int
	CPUModel       string
	CPUName        string
	GPUCount       int
	GPUModel       string
	GPUName        string
	RAMTotalGB     float64
	RAMName        string
}

// PowerSample is instantaneous component power in watts, tagged with the
// source that produced it.
type PowerSample struct {
	CPUPower float64
	GPUPower float64
	RAMPower float64
	Source   string
}

// EnergySample is the per-tick energy and emission figures derived from a
// PowerSample over the sampling interval.
type EnergySample struct {
	CPUEnergy      float64 // kWh
	GPUEnergy      float64 // kWh
	RAMEnergy      float64 // kWh
	EnergyConsumed float64 // kWh
	Emissions      float64 // kgCO2e
	EmissionsRate  float64 // kgCO2e/s
}

// MetricRecord is the canonical row produced once per sampling tick and
// consumed by every sink.
type MetricRecord struct {
	Timestamp time.Time
	RunID     string
	Duration  float64 // seconds

	Power  PowerSample
	Energy EnergySample
	Static StaticInfo
}

// Value returns the string form of the named schema field.
func (r *MetricRecord) Value(name string) string {
	if v, ok := r.Numeric(name); ok {
		return formatFloat(v)
	}
	switch name {
	case "timestamp":
		return r.Timestamp.UTC().Format(time.RFC3339)
	case "run_id":
		return r.RunID
	case "project_name":
		return r.Static.ProjectName
	case "country_name":
		return r.Static.CountryName
	case "country_iso_code":
		return r.Static.CountryISOCode
	case "region":
		return r.Static.Region
	case "on_cloud":
		return r.Static.OnCloud
	case "cloud_provider":
		return r.Static.CloudProvider
	case "cloud_region":
		return r.Static.CloudRegion
	case "os":
		return r.Static.OS
	case "runtime_version":
		return r.Static.RuntimeVersion
	case "cpu_model":
		return r.Static.CPUModel
	case "cpu_name":
		return r.Static.CPUName
	case "gpu_model":
		return r.Static.GPUModel
	case "gpu_name":
		return r.Static.GPUName
	case "longitude":
		return r.Static.Longitude
	case "latitude":
		return r.Static.Latitude
	case "ram_name":
		return r.Static.RAMName
	case "tracking_mode":
		return r.Static.TrackingMode
	}
	return ""
}

// Numeric returns the named gauge value and whether the field is numeric.
func (r *MetricRecord) Numeric(name string) (float64, bool) {
	switch name {
	case "duration":
		return r.Duration, true
	case "emissions":
		return r.Energy.Emissions, true
	case "emissions_rate":
		return r.Energy.EmissionsRate, true
	case "cpu_power":
		return r.Power.CPUPower, true
	case "gpu_power":
		return r.Power.GPUPower, true
	case "ram_power":
		return r.Power.RAMPower, true
	case "cpu_energy":
		return r.Energy.CPUEnergy, true
	case "gpu_energy":
		return r.Energy.GPUEnergy, true
	case "ram_energy":
		return r.Energy.RAMEnergy, true
	case "energy_consumed":
		return r.Energy.EnergyConsumed, true
	case "cpu_count":
		return float64(r.Static.CPUCount), true
	case "gpu_count":
		return float64(r.Static.GPUCount), true
	case "ram_total_size":
		return r.Static.RAMTotalGB, true
	}
	return 0, false
}

// Row renders the record as ordered strings matching the schema header.
func (r *MetricRecord) Row(schema Schema) []string {
	out := make([]string, len(schema.Fields))
	for i, f := range schema.Fields {
		v := r.Value(f.Name)
		if v == "" {
			v = f.Default
		}
		out[i] = v
	}
	return out
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
