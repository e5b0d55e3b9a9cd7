// Versioned record schema shared by all sinks
package telemetry

// FieldKind classifies a schema field so sinks can decide how to export
// it without hardcoding column positions.
type FieldKind int

const (
	// FieldTime is the sample wall-clock timestamp.
	FieldTime FieldKind = iota
	// FieldID is an opaque identifier, exported to neither gauges nor labels.
	FieldID
	// FieldNumeric is a non-negative floating point metric.
	FieldNumeric
	// FieldLabel is a text field exported as a metadata dimension.
	FieldLabel
)

// Field is one ordered column of the canonical record.
type Field struct {
	Name    string
	Kind    FieldKind
	Default string
}

// Schema is the ordered field list for one record layout version. The CSV
// sink derives its header from it and the registry sink derives its gauge
// and label sets, so the two can never disagree on columns.
type Schema struct {
	Version int
	Fields  []Field
}

// DefaultSchema returns the v1 record layout.
func DefaultSchema() Schema {
	return Schema{
		Version: 1,
		Fields: []Field{
			{Name: "timestamp", Kind: FieldTime},
			{Name: "project_name", Kind: FieldLabel, Default: Unknown},
			{Name: "run_id", Kind: FieldID},
			{Name: "duration", Kind: FieldNumeric, Default: "0"},
			{Name: "emissions", Kind: FieldNumeric, Default: "0"},
			{Name: "emissions_rate", Kind: FieldNumeric, Default: "0"},
			{Name: "cpu_power", Kind: FieldNumeric, Default: "0"},
			{Name: "gpu_power", Kind: FieldNumeric, Default: "0"},
			{Name: "ram_power", Kind: FieldNumeric, Default: "0"},
			{Name: "cpu_energy", Kind: FieldNumeric, Default: "0"},
			{Name: "gpu_energy", Kind: FieldNumeric, Default: "0"},
			{Name: "ram_energy", Kind: FieldNumeric, Default: "0"},
			{Name: "energy_consumed", Kind: FieldNumeric, Default: "0"},
			{Name: "country_name", Kind: FieldLabel, Default: Unknown},
			{Name: "country_iso_code", Kind: FieldLabel, Default: NotAvailable},
			{Name: "region", Kind: FieldLabel, Default: NotAvailable},
			{Name: "on_cloud", Kind: FieldLabel, Default: "N"},
			{Name: "cloud_provider", Kind: FieldLabel, Default: NotAvailable},
			{Name: "cloud_region", Kind: FieldLabel, Default: NotAvailable},
			{Name: "os", Kind: FieldLabel, Default: Unknown},
			{Name: "runtime_version", Kind: FieldLabel, Default: Unknown},
			{Name: "cpu_count", Kind: FieldNumeric, Default: "0"},
			{Name: "cpu_model", Kind: FieldLabel, Default: Unknown},
			{Name: "cpu_name", Kind: FieldLabel, Default: Unknown},
			{Name: "gpu_count", Kind: FieldNumeric, Default: "0"},
			{Name: "gpu_model", Kind: FieldLabel, Default: NotAvailable},
			{Name: "gpu_name", Kind: FieldLabel, Default: Unknown},
			{Name: "longitude", Kind: FieldLabel, Default: NotAvailable},
			{Name: "latitude", Kind: FieldLabel, Default: NotAvailable},
			{Name: "ram_total_size", Kind: FieldNumeric, Default: "0"},
			{Name: "ram_name", Kind: FieldLabel, Default: "Generic RAM"},
			{Name: "tracking_mode", Kind: FieldLabel, Default: "machine"},
		},
	}
}

// Header returns the ordered column names.
func (s Schema) Header() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// NumericFields returns the fields exported as gauges.
func (s Schema) NumericFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == FieldNumeric {
			out = append(out, f)
		}
	}
	return out
}

// LabelFields returns the fields exported as metadata dimensions.
func (s Schema) LabelFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Kind == FieldLabel {
			out = append(out, f)
		}
	}
	return out
}
