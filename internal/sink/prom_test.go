package sink

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"carbontrace/internal/container"
	"carbontrace/internal/telemetry"
)

func TestPromSink_GaugesOverwrite(t *testing.T) {
	s := NewPromSink(telemetry.DefaultSchema())

	if err := s.Publish(sampleRecord("run00001")); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := testutil.ToFloat64(s.gauges["cpu_power"]); got != 32.5 {
		t.Errorf("cpu_power = %v, want 32.5", got)
	}

	// The next tick overwrites, it never accumulates.
	rec := sampleRecord("run00002")
	rec.Power.CPUPower = 10
	if err := s.Publish(rec); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if got := testutil.ToFloat64(s.gauges["cpu_power"]); got != 10 {
		t.Errorf("cpu_power after second tick = %v, want 10", got)
	}
}

func TestPromSink_InfoCarriesLabels(t *testing.T) {
	s := NewPromSink(telemetry.DefaultSchema())
	if err := s.Publish(sampleRecord("run00001")); err != nil {
		t.Fatal(err)
	}

	families, err := s.Registry().Gather()
	if err != nil {
		t.Fatal(err)
	}
	for _, mf := range families {
		if mf.GetName() != "sustainability_info" {
			continue
		}
		if len(mf.GetMetric()) != 1 {
			t.Fatalf("info has %d series, want 1", len(mf.GetMetric()))
		}
		m := mf.GetMetric()[0]
		if m.GetGauge().GetValue() != 1 {
			t.Errorf("info value = %v, want 1", m.GetGauge().GetValue())
		}
		labels := map[string]string{}
		for _, lp := range m.GetLabel() {
			labels[lp.GetName()] = lp.GetValue()
		}
		if labels["project_name"] != "test-project" {
			t.Errorf("project_name label = %q", labels["project_name"])
		}
		if labels["ram_name"] != "Generic RAM" {
			t.Errorf("ram_name label = %q", labels["ram_name"])
		}
		return
	}
	t.Fatal("sustainability_info not gathered")
}

func TestPromSink_InfoOldSeriesDropped(t *testing.T) {
	s := NewPromSink(telemetry.DefaultSchema())
	s.Publish(sampleRecord("run00001"))

	rec := sampleRecord("run00002")
	rec.Static.ProjectName = "renamed"
	s.Publish(rec)

	families, _ := s.Registry().Gather()
	for _, mf := range families {
		if mf.GetName() == "sustainability_info" && len(mf.GetMetric()) != 1 {
			t.Errorf("info has %d series after label change, want 1", len(mf.GetMetric()))
		}
	}
}

func TestPromSink_ContainerGauges(t *testing.T) {
	s := NewPromSink(telemetry.DefaultSchema())
	s.SetContainerMetrics(container.Metrics{
		RunningContainers: 3,
		IdleContainers:    1,
		AvgImageSize:      120.5,
		Pods:              12,
		Nodes:             3,
		PodsPerNode:       4,
	})
	if got := testutil.ToFloat64(s.containersRunning); got != 3 {
		t.Errorf("containers_running = %v, want 3", got)
	}
	if got := testutil.ToFloat64(s.podsPerNode); got != 4 {
		t.Errorf("pods_per_node = %v, want 4", got)
	}
}

func TestPromSink_MetricsEndpoint(t *testing.T) {
	s := NewPromSink(telemetry.DefaultSchema())
	s.Publish(sampleRecord("run00001"))

	srv := httptest.NewServer(promhttp.HandlerFor(s.Registry(), promhttp.HandlerOpts{}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	text := string(raw)
	if !strings.Contains(text, "sustainability_cpu_power 32.5") {
		t.Errorf("exposition missing cpu_power gauge:\n%s", text)
	}
	if !strings.Contains(text, "sustainability_info{") {
		t.Error("exposition missing info metric")
	}
}
