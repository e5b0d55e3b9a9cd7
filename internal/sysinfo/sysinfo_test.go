package sysinfo

import (
	"context"
	"testing"
)

const cpuinfoFixture = `processor	: 0
vendor_id	: GenuineIntel
model name	: Intel(R) Core(TM) i7-9750H CPU @ 2.60GHz
cache size	: 12288 KB

processor	: 1
model name	: Intel(R) Core(TM) i7-9750H CPU @ 2.60GHz
`

const lspciFixture = `00:00.0 Host bridge: Intel Corporation 8th Gen Core Processor Host Bridge
00:02.0 VGA compatible controller: Intel Corporation UHD Graphics 630 (Mobile)
00:14.0 USB controller: Intel Corporation Cannon Lake PCH USB 3.1
`

const profilerFixture = `Graphics/Displays:

    Apple M2:

      Chipset Model: Apple M2
      Type: GPU
      Bus: Built-In
`

const dmidecodeFixture = `# dmidecode 3.3
Handle 0x0040, DMI type 17, 40 bytes
Memory Device
	Size: 16 GB
	Manufacturer: Samsung
	Part Number: M471A2K43DB1-CTD
`

func TestParseCPUInfoModel(t *testing.T) {
	got := parseCPUInfoModel(cpuinfoFixture)
	if got != "Intel(R) Core(TM) i7-9750H CPU @ 2.60GHz" {
		t.Errorf("model = %q", got)
	}
	if parseCPUInfoModel("flags : fpu vme\n") != "" {
		t.Error("expected empty model for cpuinfo without model name")
	}
}

func TestParseLspciGPU(t *testing.T) {
	name, count := parseLspciGPU(lspciFixture)
	if name != "Intel Corporation UHD Graphics 630 (Mobile)" || count != 1 {
		t.Errorf("gpu = %q count=%d", name, count)
	}
	if _, count := parseLspciGPU("00:14.0 USB controller: Intel\n"); count != 0 {
		t.Error("expected no GPU without a VGA row")
	}
}

func TestParseChipsetModel(t *testing.T) {
	name, count := parseChipsetModel(profilerFixture)
	if name != "Apple M2" || count != 1 {
		t.Errorf("gpu = %q count=%d", name, count)
	}
}

func TestParseDmidecodeManufacturer(t *testing.T) {
	if got := parseDmidecodeManufacturer(dmidecodeFixture); got != "Samsung" {
		t.Errorf("manufacturer = %q", got)
	}
}

func TestParseWmicValue(t *testing.T) {
	out := "Name\r\nIntel(R) Core(TM) i5-8250U\r\n\r\n"
	if got := parseWmicValue(out); got != "Intel(R) Core(TM) i5-8250U" {
		t.Errorf("value = %q", got)
	}
	if parseWmicValue("Name") != "" {
		t.Error("expected empty value for header-only output")
	}
}

func TestProviderVendorStrings(t *testing.T) {
	calls := map[string]string{}
	p := &Provider{goos: "linux", run: func(ctx context.Context, name string, args ...string) ([]byte, error) {
		calls[name] = name
		switch name {
		case "cat":
			return []byte(cpuinfoFixture), nil
		case "lspci":
			return []byte(lspciFixture), nil
		case "dmidecode":
			return []byte(dmidecodeFixture), nil
		}
		return nil, nil
	}}

	if got := p.cpuName(context.Background()); got != "Intel(R) Core(TM) i7-9750H CPU @ 2.60GHz" {
		t.Errorf("cpuName = %q", got)
	}
	name, count := p.gpuName(context.Background())
	if count != 1 || name == "" {
		t.Errorf("gpuName = %q count=%d", name, count)
	}
	if got := p.ramName(context.Background()); got != "Samsung" {
		t.Errorf("ramName = %q", got)
	}
}

func TestRoundGB(t *testing.T) {
	if got := roundGB(17179869184); got != 16 {
		t.Errorf("16GiB rounds to %v", got)
	}
	// 16.625 GiB rounds to two decimals.
	if got := roundGB(17851153253); got != 16.63 {
		t.Errorf("roundGB = %v, want 16.63", got)
	}
}

func TestCapitalize(t *testing.T) {
	if capitalize("linux") != "Linux" {
		t.Error("capitalize failed")
	}
	if capitalize("") != "" {
		t.Error("capitalize of empty string changed it")
	}
}
