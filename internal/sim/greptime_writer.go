package sim

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"readonly-sim/internal/state"
)

// DefaultStateTable is the GreptimeDB table receiving state reports.
const DefaultStateTable = "agent_state"

const greptimeWriteTimeout = 5 * time.Second

type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeDBWriter writes state reports to GreptimeDB via the ingester client
type GreptimeDBWriter struct {
	client greptimeClient
	table  string
	runID  string
	now    func() time.Time
}

// NewGreptimeDBWriter connects to endpoint ("host" or "host:port"). Rows are
// tagged with runID so several runs can share a table.
func NewGreptimeDBWriter(endpoint, database, tableName, runID string) (*GreptimeDBWriter, error) {
	host, port, err := splitEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	cfg := greptime.NewConfig(host).WithDatabase(database)
	if port != 0 {
		cfg = cfg.WithPort(port)
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if tableName == "" {
		tableName = DefaultStateTable
	}
	return &GreptimeDBWriter{client: client, table: tableName, runID: runID, now: time.Now}, nil
}

func splitEndpoint(endpoint string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(endpoint)
	if err != nil {
		// No port given.
		return endpoint, 0, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, fmt.Errorf("invalid GreptimeDB port %q: %w", portStr, err)
	}
	return host, port, nil
}

// Publish inserts one state report.
func (w *GreptimeDBWriter) Publish(rec state.Record) error {
	tbl, err := table.New(w.table)
	if err != nil {
		return err
	}
	for _, c := range []string{"run_id", "name"} {
		if err := tbl.AddTagColumn(c, types.STRING); err != nil {
			return err
		}
	}
	fields := []struct {
		name string
		typ  types.ColumnType
	}{
		{"x", types.FLOAT64},
		{"y", types.FLOAT64},
		{"z", types.FLOAT64},
		{"yaw", types.FLOAT64},
		{"level_name", types.STRING},
		{"destination", types.STRING},
		{"seq", types.UINT64},
		{"sim_time", types.FLOAT64},
	}
	for _, f := range fields {
		if err := tbl.AddFieldColumn(f.name, f.typ); err != nil {
			return err
		}
	}
	if err := tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND); err != nil {
		return err
	}

	p := rec.Pose.Position
	if err := tbl.AddRow(w.runID, rec.Name, p.X, p.Y, p.Z, rec.Pose.Yaw(), rec.Level, rec.Destination, rec.Seq, rec.SimTime, w.now()); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), greptimeWriteTimeout)
	defer cancel()
	if _, err := w.client.Write(ctx, tbl); err != nil {
		return fmt.Errorf("greptime write %s: %w", w.table, err)
	}
	return nil
}
