package sink

import (
	"context"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"carbontrace/internal/telemetry"
)

// greptimeClient is the slice of the ingester client the sink uses,
// mockable in tests.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeSink keeps the full sample history in a time-series table, one
// row per tick. It is optional and enabled by endpoint configuration.
type GreptimeSink struct {
	client greptimeClient
	table  string
}

// NewGreptimeSink connects to the ingester endpoint.
func NewGreptimeSink(endpoint, tableName string) (*GreptimeSink, error) {
	cfg := greptime.NewConfig(endpoint)
	if host, port, err := net.SplitHostPort(endpoint); err == nil {
		cfg = greptime.NewConfig(host)
		if p, perr := strconv.Atoi(port); perr == nil {
			cfg.WithPort(p)
		}
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if tableName == "" {
		tableName = "sustainability_metrics"
	}
	return &GreptimeSink{client: client, table: tableName}, nil
}

func (s *GreptimeSink) Name() string { return "greptimedb" }

// Publish appends one row with the record's numeric fields, tagged by
// project and power source.
func (s *GreptimeSink) Publish(rec telemetry.MetricRecord) error {
	ctx := ingesterContext.New(context.Background())

	tbl, err := table.New(s.table)
	if err != nil {
		return err
	}
	tbl.AddTagColumn("project_name", types.STRING)
	tbl.AddTagColumn("source", types.STRING)
	tbl.AddFieldColumn("run_id", types.STRING)
	tbl.AddFieldColumn("duration", types.FLOAT64)
	tbl.AddFieldColumn("cpu_power", types.FLOAT64)
	tbl.AddFieldColumn("gpu_power", types.FLOAT64)
	tbl.AddFieldColumn("ram_power", types.FLOAT64)
	tbl.AddFieldColumn("cpu_energy", types.FLOAT64)
	tbl.AddFieldColumn("gpu_energy", types.FLOAT64)
	tbl.AddFieldColumn("ram_energy", types.FLOAT64)
	tbl.AddFieldColumn("energy_consumed", types.FLOAT64)
	tbl.AddFieldColumn("emissions", types.FLOAT64)
	tbl.AddFieldColumn("emissions_rate", types.FLOAT64)
	tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND)

	if err := tbl.AddRow(
		rec.Static.ProjectName,
		rec.Power.Source,
		rec.RunID,
		rec.Duration,
		rec.Power.CPUPower,
		rec.Power.GPUPower,
		rec.Power.RAMPower,
		rec.Energy.CPUEnergy,
		rec.Energy.GPUEnergy,
		rec.Energy.RAMEnergy,
		rec.Energy.EnergyConsumed,
		rec.Energy.Emissions,
		rec.Energy.EmissionsRate,
		rec.Timestamp,
	); err != nil {
		return err
	}

	if _, err := s.client.Write(ctx, tbl); err != nil {
		return err
	}
	return nil
}
