package telemetry

import "time"

// Power source tags carried in PowerSample.Source.
const (
	SourceEstimate = "estimate"
)

// Estimator derives component power from utilization when no hardware
// reading is available, and converts power into energy and emissions.
// All constants come from configuration; there are no hidden literals.
type Estimator struct {
	CPUTDPWatts      float64
	RAMWattsPerGB    float64
	GridCarbonFactor float64 // gCO2e per kWh
}

// NewEstimator returns an estimator using the given named constants.
func NewEstimator(cpuTDPWatts, ramWattsPerGB, gridCarbonFactor float64) *Estimator {
	return &Estimator{
		CPUTDPWatts:      cpuTDPWatts,
		RAMWattsPerGB:    ramWattsPerGB,
		GridCarbonFactor: gridCarbonFactor,
	}
}

// EstimatePower computes CPU and RAM power from utilization. GPU power is
// filled in by the caller from the vendor library when one is present.
func (e *Estimator) EstimatePower(cpuPercent, ramUsedGB float64) PowerSample {
	if cpuPercent < 0 {
		cpuPercent = 0
	}
	if ramUsedGB < 0 {
		ramUsedGB = 0
	}
	return PowerSample{
		CPUPower: (cpuPercent / 100) * e.CPUTDPWatts,
		RAMPower: ramUsedGB * e.RAMWattsPerGB,
		Source:   SourceEstimate,
	}
}

// Energy converts a power sample over the sampling interval into per
// component energy (kWh), total consumption, and grid emissions.
func (e *Estimator) Energy(p PowerSample, interval time.Duration) EnergySample {
	seconds := interval.Seconds()
	hours := seconds / 3600

	s := EnergySample{
		CPUEnergy: p.CPUPower * hours / 1000,
		GPUEnergy: p.GPUPower * hours / 1000,
		RAMEnergy: p.RAMPower * hours / 1000,
	}
	s.EnergyConsumed = s.CPUEnergy + s.GPUEnergy + s.RAMEnergy
	s.Emissions = s.EnergyConsumed * e.GridCarbonFactor / 1000
	if seconds > 0 {
		s.EmissionsRate = s.Emissions / seconds
	}
	return s
}
