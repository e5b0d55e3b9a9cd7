// YAML config loader with CUE validation integration
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so intervals can be written as "1s" or
// "500ms" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// PowerConstants holds the named estimation and emission constants. The
// defaults are illustrative, not calibrated; deployments should set them
// per region and hardware.
type PowerConstants struct {
	CPUTDPWatts      float64 `yaml:"cpu_tdp_watts"`      // full-load CPU package power
	RAMWattsPerGB    float64 `yaml:"ram_watts_per_gb"`   // per-GB RAM draw
	GridCarbonFactor float64 `yaml:"grid_carbon_factor"` // gCO2e per kWh
	CPUWattsPerCore  float64 `yaml:"cpu_watts_per_core"` // container estimate basis
	WattsPerRequest  float64 `yaml:"watts_per_request"`  // data-center request estimate
	PUE              float64 `yaml:"pue"`                // facility power usage effectiveness
}

// ContainerConfig controls the optional Docker/Kubernetes collection.
type ContainerConfig struct {
	Enabled      bool `yaml:"enabled"`
	RefreshTicks int  `yaml:"refresh_ticks"`
}

// MonitorConfig is the root configuration for the sampling loop.
type MonitorConfig struct {
	ProjectName  string          `yaml:"project_name"`
	TrackingMode string          `yaml:"tracking_mode"`
	TickInterval Duration        `yaml:"tick_interval"`
	CSVPath      string          `yaml:"csv_path"`
	MetricsAddr  string          `yaml:"metrics_addr"`
	RAPLPath     string          `yaml:"rapl_path"`
	GeoEndpoint  string          `yaml:"geo_endpoint"`
	Power        PowerConstants  `yaml:"power"`
	Containers   ContainerConfig `yaml:"containers"`
}

// Defaults mirrored by schemas/monitor.cue.
const (
	DefaultTickInterval     = time.Second
	DefaultMetricsAddr      = ":9271"
	DefaultCSVPath          = "sustainability_metrics.csv"
	DefaultRAPLPath         = "/sys/class/powercap/intel-rapl:0/energy_uj"
	DefaultGeoEndpoint      = "http://ip-api.com/json/"
	DefaultCPUTDPWatts      = 65
	DefaultRAMWattsPerGB    = 2
	DefaultGridCarbonFactor = 400
	DefaultCPUWattsPerCore  = 2.5
	DefaultWattsPerRequest  = 0.0002
	DefaultPUE              = 1.5
)

// Load loads YAML config and validates it against a CUE schema.
func Load(configPath, cueSchemaPath string) (*MonitorConfig, error) {
	if err := ValidateWithCue(configPath, cueSchemaPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg MonitorConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with all defaults applied, used when no
// config file is given.
func Default() *MonitorConfig {
	cfg := &MonitorConfig{}
	cfg.applyDefaults()
	return cfg
}

func (c *MonitorConfig) applyDefaults() {
	if c.ProjectName == "" {
		c.ProjectName = "carbontrace"
	}
	if c.TrackingMode == "" {
		c.TrackingMode = "machine"
	}
	if c.TickInterval <= 0 {
		c.TickInterval = Duration(DefaultTickInterval)
	}
	if c.CSVPath == "" {
		c.CSVPath = DefaultCSVPath
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = DefaultMetricsAddr
	}
	if c.RAPLPath == "" {
		c.RAPLPath = DefaultRAPLPath
	}
	if c.GeoEndpoint == "" {
		c.GeoEndpoint = DefaultGeoEndpoint
	}
	if c.Power.CPUTDPWatts <= 0 {
		c.Power.CPUTDPWatts = DefaultCPUTDPWatts
	}
	if c.Power.RAMWattsPerGB <= 0 {
		c.Power.RAMWattsPerGB = DefaultRAMWattsPerGB
	}
	if c.Power.GridCarbonFactor <= 0 {
		c.Power.GridCarbonFactor = DefaultGridCarbonFactor
	}
	if c.Power.CPUWattsPerCore <= 0 {
		c.Power.CPUWattsPerCore = DefaultCPUWattsPerCore
	}
	if c.Power.WattsPerRequest <= 0 {
		c.Power.WattsPerRequest = DefaultWattsPerRequest
	}
	if c.Power.PUE <= 0 {
		c.Power.PUE = DefaultPUE
	}
	if c.Containers.RefreshTicks <= 0 {
		c.Containers.RefreshTicks = 30
	}
}
