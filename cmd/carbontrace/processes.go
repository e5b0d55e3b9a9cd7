package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
	"github.com/spf13/cobra"

	"carbontrace/internal/config"
	"carbontrace/internal/logging"
	"carbontrace/internal/probe"
)

var (
	procPID int32
	procRPS float64
)

var processesCmd = &cobra.Command{
	Use:   "processes",
	Short: "List processes with CPU and memory usage",
	Long:  "processes enumerates running processes; with --pid it reports one process in detail, including a power reading or a facility-power estimate.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := logging.NewContext(context.Background(), logging.New(false))
		if procPID > 0 {
			return processDetail(ctx, procPID)
		}
		return listProcesses(ctx)
	},
}

func listProcesses(ctx context.Context) error {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("%-10s %-30s %-15s %8s %12s\n", "PID", "NAME", "STATUS", "CPU%", "RSS")
	fmt.Println(strings.Repeat("-", 80))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		status, _ := p.StatusWithContext(ctx)
		cpu, _ := p.CPUPercentWithContext(ctx)
		var rss uint64
		if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
			rss = mi.RSS
		}
		fmt.Printf("%-10d %-30s %-15s %8.1f %12d\n", p.Pid, truncate(name, 30), strings.Join(status, ","), cpu, rss)
	}
	return nil
}

func processDetail(ctx context.Context, pid int32) error {
	cfg := config.Default()
	p, err := process.NewProcessWithContext(ctx, pid)
	if err != nil {
		return fmt.Errorf("process %d: %w", pid, err)
	}
	name, _ := p.NameWithContext(ctx)
	status, _ := p.StatusWithContext(ctx)
	cpu, _ := p.CPUPercentWithContext(ctx)
	threads, _ := p.NumThreadsWithContext(ctx)
	var rss uint64
	if mi, err := p.MemoryInfoWithContext(ctx); err == nil && mi != nil {
		rss = mi.RSS
	}

	fmt.Printf("PID:      %d\n", pid)
	fmt.Printf("Name:     %s\n", name)
	fmt.Printf("Status:   %s\n", strings.Join(status, ","))
	fmt.Printf("CPU:      %.1f%%\n", cpu)
	fmt.Printf("Memory:   %d bytes\n", rss)
	fmt.Printf("Threads:  %d\n", threads)

	// A direct reading beats the estimate when any probe source works.
	chain := probe.NewChain(
		probe.NewRAPLProbe(cfg.RAPLPath),
		probe.NewIPMIProbe(),
		probe.NewPowermetricsProbe(),
	)
	tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if res := chain.Probe(tctx); res.Available {
		fmt.Printf("Power:    %.2f W (%s)\n", res.Watts, res.Source)
		return nil
	}

	itPower := procRPS * cfg.Power.WattsPerRequest
	facilityPower := itPower * cfg.Power.PUE
	fmt.Printf("Estimated IT power for %.0f req/s: %.2f W\n", procRPS, itPower)
	fmt.Printf("Estimated facility power (PUE %.1f): %.2f W\n", cfg.Power.PUE, facilityPower)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-1] + "…"
}

func init() {
	processesCmd.Flags().Int32Var(&procPID, "pid", 0, "Report a single process in detail")
	processesCmd.Flags().Float64Var(&procRPS, "rps", 30000, "Assumed request rate for the data-center power estimate")
}
