// Sampling loop driving probes, estimation, and sinks
package monitor

import (
	"context"
	"time"

	"carbontrace/internal/container"
	"carbontrace/internal/logging"
	"carbontrace/internal/probe"
	"carbontrace/internal/sink"
	"carbontrace/internal/telemetry"
)

// UsageFunc supplies live CPU utilization (percent) and RAM in use (GB).
type UsageFunc func(ctx context.Context) (cpuPercent, ramUsedGB float64, err error)

// Monitor owns the sampling lifecycle: static info and the optional GPU
// handle are acquired before Run, each tick probes or estimates power,
// builds the canonical record, and publishes it to every sink. Shutdown
// waits for the tick in progress, then releases the GPU handle and
// flushes sinks.
type Monitor struct {
	static    telemetry.StaticInfo
	chain     *probe.Chain
	gpu       *probe.GPUMeter
	estimator *telemetry.Estimator
	builder   *telemetry.Builder
	sinks     *sink.Multi
	usage     UsageFunc
	interval  time.Duration

	prom           *sink.PromSink
	containers     *container.Client
	containerEvery int
	ticks          int
}

// Options carries the optional collaborators.
type Options struct {
	// Prom receives container gauges when Containers is set.
	Prom *sink.PromSink
	// Containers enables Docker/Kubernetes collection.
	Containers *container.Client
	// ContainerEvery is the tick period between container refreshes.
	ContainerEvery int
}

// New assembles a monitor. The GPU meter may be nil when NVML failed to
// initialize; sinks must already be wired into the Multi.
func New(static telemetry.StaticInfo, chain *probe.Chain, gpu *probe.GPUMeter,
	estimator *telemetry.Estimator, builder *telemetry.Builder, sinks *sink.Multi,
	usage UsageFunc, interval time.Duration, opts Options) *Monitor {
	if interval <= 0 {
		interval = time.Second
	}
	every := opts.ContainerEvery
	if every <= 0 {
		every = 30
	}
	return &Monitor{
		static:         static,
		chain:          chain,
		gpu:            gpu,
		estimator:      estimator,
		builder:        builder,
		sinks:          sinks,
		usage:          usage,
		interval:       interval,
		prom:           opts.Prom,
		containers:     opts.Containers,
		containerEvery: every,
	}
}

// Run starts the sampling loop and blocks until the context is done. The
// tick in progress always completes its publishes before Run returns.
func (m *Monitor) Run(ctx context.Context) {
	log := logging.FromContext(ctx)
	log.Info("starting monitor", "tick_interval", m.interval)

	m.refreshContainers(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.tick(ctx)
		case <-ctx.Done():
			log.Info("stopping monitor")
			m.shutdown(ctx)
			return
		}
	}
}

// tick runs one sample: probe or estimate, build, publish.
func (m *Monitor) tick(ctx context.Context) {
	log := logging.FromContext(ctx)
	now := time.Now()

	cpuPercent, ramUsedGB, err := m.usage(ctx)
	if err != nil {
		log.Warn("utilization read failed", "err", err)
	}

	power := m.samplePower(ctx, cpuPercent, ramUsedGB)
	energy := m.estimator.Energy(power, m.interval)

	rec := m.builder.Build(m.static, power, energy, telemetry.Tick{
		Timestamp: now,
		RunID:     telemetry.NewRunID(),
		Duration:  m.interval,
	})
	m.sinks.PublishLogged(ctx, rec)

	m.ticks++
	if m.containers != nil && m.ticks%m.containerEvery == 0 {
		m.refreshContainers(ctx)
	}
}

// samplePower consults the probe chain first and falls back to the
// estimator. GPU wattage from the vendor library is additive either way.
func (m *Monitor) samplePower(ctx context.Context, cpuPercent, ramUsedGB float64) telemetry.PowerSample {
	var power telemetry.PowerSample
	if res := m.chain.Probe(ctx); res.Available {
		power = telemetry.PowerSample{CPUPower: res.Watts, Source: res.Source}
	} else {
		power = m.estimator.EstimatePower(cpuPercent, ramUsedGB)
	}
	if m.gpu.Available() {
		if watts, ok := m.gpu.PowerWatts(); ok {
			power.GPUPower = watts
		}
	}
	return power
}

func (m *Monitor) refreshContainers(ctx context.Context) {
	if m.containers == nil || m.prom == nil {
		return
	}
	m.prom.SetContainerMetrics(m.containers.Collect(ctx))
}

// shutdown releases the GPU handle and flushes sink state.
func (m *Monitor) shutdown(ctx context.Context) {
	log := logging.FromContext(ctx)
	m.gpu.Close()
	if err := m.sinks.Close(); err != nil {
		log.Error("sink close failed", "err", err)
	}
}
