// One-shot static system facts, best effort with sentinels
package sysinfo

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"carbontrace/internal/logging"
	"carbontrace/internal/telemetry"
)

// Runner abstracts the vendor-string subprocess calls for testing.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Provider collects static hardware and OS facts once at startup. Every
// lookup that fails leaves its field empty; the record builder fills the
// sentinel.
type Provider struct {
	run  Runner
	goos string
}

// NewProvider returns a provider for the current platform.
func NewProvider() *Provider {
	return &Provider{run: execRunner, goos: runtime.GOOS}
}

// Collect gathers CPU, GPU, RAM, and OS facts. Individual subsystems
// that fail are skipped so the caller always gets as much as possible.
func (p *Provider) Collect(ctx context.Context) telemetry.StaticInfo {
	log := logging.FromContext(ctx)
	info := telemetry.StaticInfo{RuntimeVersion: runtime.Version()}

	if stats, err := cpu.InfoWithContext(ctx); err == nil && len(stats) > 0 {
		info.CPUModel = stats[0].ModelName
	} else if err != nil {
		log.Warn("could not read CPU info", "err", err)
	}
	if count, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUCount = count
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.RAMTotalGB = roundGB(vm.Total)
	} else {
		log.Warn("could not read memory info", "err", err)
	}
	if h, err := host.InfoWithContext(ctx); err == nil {
		info.OS = fmt.Sprintf("%s-%s", capitalize(h.OS), h.PlatformVersion)
	} else {
		info.OS = runtime.GOOS
	}

	info.CPUName = p.cpuName(ctx)
	info.GPUName, info.GPUCount = p.gpuName(ctx)
	info.RAMName = p.ramName(ctx)
	return info
}

// Usage returns live CPU utilization (percent across all cores) and RAM
// in use (GB) for the estimator.
func Usage(ctx context.Context) (cpuPercent, ramUsedGB float64, err error) {
	pcts, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, 0, err
	}
	if len(pcts) > 0 {
		cpuPercent = pcts[0]
	}
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return cpuPercent, 0, err
	}
	return cpuPercent, float64(vm.Used) / (1 << 30), nil
}

func (p *Provider) cpuName(ctx context.Context) string {
	switch p.goos {
	case "linux":
		out, err := p.run(ctx, "cat", "/proc/cpuinfo")
		if err != nil {
			return ""
		}
		return parseCPUInfoModel(string(out))
	case "darwin":
		out, err := p.run(ctx, "sysctl", "-n", "machdep.cpu.brand_string")
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	case "windows":
		out, err := p.run(ctx, "wmic", "cpu", "get", "Name")
		if err != nil {
			return ""
		}
		return parseWmicValue(string(out))
	}
	return ""
}

func (p *Provider) gpuName(ctx context.Context) (string, int) {
	switch p.goos {
	case "linux":
		out, err := p.run(ctx, "lspci")
		if err != nil {
			return "", 0
		}
		return parseLspciGPU(string(out))
	case "darwin":
		out, err := p.run(ctx, "system_profiler", "SPDisplaysDataType")
		if err != nil {
			return "", 0
		}
		return parseChipsetModel(string(out))
	case "windows":
		out, err := p.run(ctx, "wmic", "path", "win32_videocontroller", "get", "name")
		if err != nil {
			return "", 0
		}
		if name := parseWmicValue(string(out)); name != "" {
			return name, 1
		}
	}
	return "", 0
}

func (p *Provider) ramName(ctx context.Context) string {
	switch p.goos {
	case "linux":
		out, err := p.run(ctx, "dmidecode", "--type", "17")
		if err != nil {
			return ""
		}
		return parseDmidecodeManufacturer(string(out))
	case "windows":
		out, err := p.run(ctx, "wmic", "memorychip", "get", "Manufacturer")
		if err != nil {
			return ""
		}
		return parseWmicValue(string(out))
	}
	return ""
}

// parseCPUInfoModel extracts the first "model name" entry of /proc/cpuinfo.
func parseCPUInfoModel(out string) string {
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "model name") {
			if _, v, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// parseLspciGPU returns the device description of the first VGA row.
func parseLspciGPU(out string) (string, int) {
	for _, line := range strings.Split(out, "\n") {
		if !strings.Contains(line, "VGA") {
			continue
		}
		if idx := strings.LastIndex(line, ":"); idx >= 0 && idx+1 < len(line) {
			return strings.TrimSpace(line[idx+1:]), 1
		}
	}
	return "", 0
}

// parseChipsetModel extracts the "Chipset Model" line of system_profiler
// display output.
func parseChipsetModel(out string) (string, int) {
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Chipset Model:") {
			if _, v, ok := strings.Cut(line, ":"); ok {
				return strings.TrimSpace(v), 1
			}
		}
	}
	return "", 0
}

// parseDmidecodeManufacturer returns the first Manufacturer value of a
// type-17 memory device listing.
func parseDmidecodeManufacturer(out string) string {
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "Manufacturer:") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "Manufacturer:"))
		}
	}
	return ""
}

// parseWmicValue returns the first data row of a wmic listing, which
// prints a header line followed by the value.
func parseWmicValue(out string) string {
	lines := strings.Split(strings.ReplaceAll(out, "\r", ""), "\n")
	if len(lines) < 2 {
		return ""
	}
	return strings.TrimSpace(lines[1])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func roundGB(bytes uint64) float64 {
	gb := float64(bytes) / (1 << 30)
	return float64(int(gb*100+0.5)) / 100
}
