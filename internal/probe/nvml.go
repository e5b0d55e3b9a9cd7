package probe

import (
	"fmt"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// GPUMeter is the optional NVML handle owned by the sampling loop. Its
// wattage is added to the chain or estimate output, it never competes
// with them. A zero GPUMeter reports not available.
type GPUMeter struct {
	device nvml.Device
	name   string
	count  int
	open   bool
}

// OpenGPUMeter initializes NVML and grabs the first device handle.
// Initialization failure is a normal outcome on hosts without an NVIDIA
// GPU and is returned as an error for the caller to log once.
func OpenGPUMeter() (*GPUMeter, error) {
	if ret := nvml.Init(); ret != nvml.SUCCESS {
		return nil, fmt.Errorf("nvml init: %s", nvml.ErrorString(ret))
	}
	count, ret := nvml.DeviceGetCount()
	if ret != nvml.SUCCESS || count == 0 {
		nvml.Shutdown()
		return nil, fmt.Errorf("nvml: no devices (%s)", nvml.ErrorString(ret))
	}
	device, ret := nvml.DeviceGetHandleByIndex(0)
	if ret != nvml.SUCCESS {
		nvml.Shutdown()
		return nil, fmt.Errorf("nvml device 0: %s", nvml.ErrorString(ret))
	}
	name, ret := device.GetName()
	if ret != nvml.SUCCESS {
		name = ""
	}
	return &GPUMeter{device: device, name: name, count: count, open: true}, nil
}

// Available reports whether the meter holds a live handle.
func (m *GPUMeter) Available() bool { return m != nil && m.open }

// PowerWatts returns the current board draw converted from milliwatts.
func (m *GPUMeter) PowerWatts() (float64, bool) {
	if !m.Available() {
		return 0, false
	}
	mw, ret := m.device.GetPowerUsage()
	if ret != nvml.SUCCESS {
		return 0, false
	}
	return float64(mw) / 1000, true
}

// DeviceName returns the name of device 0, if known.
func (m *GPUMeter) DeviceName() string {
	if m == nil {
		return ""
	}
	return m.name
}

// DeviceCount returns the number of NVML devices.
func (m *GPUMeter) DeviceCount() int {
	if m == nil {
		return 0
	}
	return m.count
}

// Close releases the NVML handle. Safe to call on a nil meter.
func (m *GPUMeter) Close() {
	if m.Available() {
		m.open = false
		nvml.Shutdown()
	}
}
