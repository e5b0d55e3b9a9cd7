package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"carbontrace/internal/config"
	"carbontrace/internal/container"
	"carbontrace/internal/location"
	"carbontrace/internal/logging"
	"carbontrace/internal/monitor"
	"carbontrace/internal/probe"
	"carbontrace/internal/sink"
	"carbontrace/internal/sysinfo"
	"carbontrace/internal/telemetry"
)

var (
	monConfigPath string
	monSchemaPath string
	monTick       time.Duration
	monCSVPath    string
	monPrintOnly  bool
	monTUI        bool
	monContainers bool
	monVerbose    bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the sampling loop",
	Long:  "monitor samples power on a fixed cadence and publishes each record to the configured sinks.",
	RunE: func(cmd *cobra.Command, args []string) error {
		log := logging.New(monVerbose)

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyOverrides(cfg)

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()
		ctx = logging.NewContext(ctx, log)

		// Static facts, collected once.
		static := sysinfo.NewProvider().Collect(ctx)
		static.ProjectName = cfg.ProjectName
		static.TrackingMode = cfg.TrackingMode

		detector := location.NewDetector(cfg.GeoEndpoint)
		geo := detector.Geolocate(ctx)
		static.CountryName = geo.CountryName
		static.CountryISOCode = geo.CountryISOCode
		static.Region = geo.Region
		static.Latitude = geo.Latitude
		static.Longitude = geo.Longitude

		cloud := detector.DetectCloud(ctx)
		if cloud.OnCloud {
			static.OnCloud = "Y"
		} else {
			static.OnCloud = "N"
		}
		static.CloudProvider = cloud.Provider
		static.CloudRegion = cloud.Region

		// Optional NVML handle, owned by the monitor until shutdown.
		gpu, err := probe.OpenGPUMeter()
		if err != nil {
			log.Warn("GPU monitoring unavailable", "err", err)
		} else {
			static.GPUName = gpu.DeviceName()
			static.GPUModel = gpu.DeviceName()
			static.GPUCount = gpu.DeviceCount()
		}

		chain := probe.NewChain(
			probe.NewRAPLProbe(cfg.RAPLPath),
			probe.NewIPMIProbe(),
			probe.NewPowermetricsProbe(),
		)
		estimator := telemetry.NewEstimator(cfg.Power.CPUTDPWatts, cfg.Power.RAMWattsPerGB, cfg.Power.GridCarbonFactor)
		schema := telemetry.DefaultSchema()
		builder := telemetry.NewBuilder(schema)

		prom := sink.NewPromSink(schema)
		if monPrintOnly {
			log.Info("print-only mode: records will be printed to STDOUT")
		}
		sinks, err := buildSinks(prom, schema, static, cfg.CSVPath, monPrintOnly, monTUI)
		if err != nil {
			return err
		}

		go func() {
			log.Info("metrics endpoint listening", "addr", cfg.MetricsAddr)
			if err := prom.Serve(ctx, cfg.MetricsAddr); err != nil {
				log.Error("metrics endpoint failed", "err", err)
			}
		}()

		opts := monitor.Options{Prom: prom}
		if monContainers || cfg.Containers.Enabled {
			opts.Containers = container.NewClient()
			opts.ContainerEvery = cfg.Containers.RefreshTicks
		}

		m := monitor.New(static, chain, gpu, estimator, builder,
			sink.NewMulti(sinks...), sysinfo.Usage, cfg.TickInterval.Std(), opts)
		m.Run(ctx)

		log.Info("monitoring stopped", "csv", cfg.CSVPath)
		return nil
	},
}

func loadConfig() (*config.MonitorConfig, error) {
	if _, err := os.Stat(monConfigPath); err != nil {
		// No config file; run on defaults.
		return config.Default(), nil
	}
	return config.Load(monConfigPath, monSchemaPath)
}

func applyOverrides(cfg *config.MonitorConfig) {
	if monTick > 0 {
		cfg.TickInterval = config.Duration(monTick)
	}
	if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
		if d, err := time.ParseDuration(envTick); err == nil {
			cfg.TickInterval = config.Duration(d)
		}
	}
	if monCSVPath != "" {
		cfg.CSVPath = monCSVPath
	}
	if project := os.Getenv("PROJECT_NAME"); project != "" {
		cfg.ProjectName = project
	}
}

func init() {
	monitorCmd.Flags().StringVar(&monConfigPath, "config", "config/monitor.yaml", "Path to monitor configuration YAML")
	monitorCmd.Flags().StringVar(&monSchemaPath, "schema", "schemas/monitor.cue", "Path to CUE schema file")
	monitorCmd.Flags().DurationVar(&monTick, "tick", 0, "Sampling interval override (e.g. 500ms, 2s)")
	monitorCmd.Flags().StringVar(&monCSVPath, "csv", "", "CSV output path override")
	monitorCmd.Flags().BoolVar(&monPrintOnly, "print-only", false, "Print records to STDOUT instead of the CSV file")
	monitorCmd.Flags().BoolVar(&monTUI, "tui", false, "Render a live terminal view of the latest sample")
	monitorCmd.Flags().BoolVar(&monContainers, "containers", false, "Collect Docker/Kubernetes gauges")
	monitorCmd.Flags().BoolVar(&monVerbose, "verbose", false, "Enable debug logging, including probe fallback decisions")
}
