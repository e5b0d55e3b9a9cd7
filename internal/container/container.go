// Docker and Kubernetes sustainability telemetry via their CLIs
package container

import (
	"context"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Runner abstracts CLI execution for testing.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Metrics summarizes container and orchestration state. Missing CLIs
// yield the zero value; collection never fails hard.
type Metrics struct {
	DockerRunning     bool
	RunningContainers int
	IdleContainers    int
	AvgImageSize      float64
	Pods              int
	Nodes             int
	PodsPerNode       float64
}

// Client queries the docker and kubectl CLIs with bounded timeouts.
type Client struct {
	run     Runner
	timeout time.Duration
}

// NewClient returns a CLI-backed client.
func NewClient() *Client {
	return &Client{run: execRunner, timeout: 5 * time.Second}
}

// Collect gathers container and Kubernetes counts.
func (c *Client) Collect(ctx context.Context) Metrics {
	tctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var m Metrics
	if _, err := c.run(tctx, "docker", "info"); err == nil {
		m.DockerRunning = true
		m.RunningContainers = countLines(c.output(tctx, "docker", "ps", "-q"))
		m.IdleContainers = countLines(c.output(tctx, "docker", "ps", "--filter", "status=exited", "-q"))
		m.AvgImageSize = avgImageSize(c.output(tctx, "docker", "images", "--format", "{{.Size}}"))
	}

	m.Pods = countLines(c.output(tctx, "kubectl", "get", "pods", "--all-namespaces", "--no-headers"))
	m.Nodes = countLines(c.output(tctx, "kubectl", "get", "nodes", "--no-headers"))
	if m.Nodes > 0 {
		m.PodsPerNode = float64(m.Pods) / float64(m.Nodes)
	}
	return m
}

// PowerEstimate converts container CPU utilization into active and idle
// watt figures using the configured per-core constant.
func PowerEstimate(cpuPercent, wattsPerCore float64) (active, idle float64) {
	active = wattsPerCore * cpuPercent / 100
	idle = wattsPerCore * 0.1
	return active, idle
}

func (c *Client) output(ctx context.Context, name string, args ...string) string {
	out, err := c.run(ctx, name, args...)
	if err != nil {
		return ""
	}
	return string(out)
}

func countLines(out string) int {
	trimmed := strings.TrimSpace(out)
	if trimmed == "" {
		return 0
	}
	return len(strings.Split(trimmed, "\n"))
}

// avgImageSize averages the leading numeric token of `docker images
// --format {{.Size}}` output. Units are not normalized, matching the
// coarse reporting this feeds.
func avgImageSize(out string) float64 {
	var sum float64
	var n int
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimFunc(fields[0], func(r rune) bool {
			return r != '.' && (r < '0' || r > '9')
		}), 64)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
