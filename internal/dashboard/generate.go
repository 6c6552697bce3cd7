// Package dashboard renders Grafana dashboards for the agent state table.
package dashboard

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/template"
)

//go:embed agent_state.json.tmpl
var agentStateTemplate string

// OutputFile is the name Render writes inside the output directory.
const OutputFile = "grafana-dashboard.json"

// Params fills the dashboard template.
type Params struct {
	Title         string
	Table         string
	DatasourceUID string
}

// ParamsFromEnv reads the datasource uid from GREPTIMEDB_DATASOURCE_UID.
func ParamsFromEnv(table string) (Params, error) {
	uid := os.Getenv("GREPTIMEDB_DATASOURCE_UID")
	if uid == "" {
		return Params{}, fmt.Errorf("environment variable GREPTIMEDB_DATASOURCE_UID not set")
	}
	return Params{Title: "Agent state", Table: table, DatasourceUID: uid}, nil
}

// Write renders the dashboard to w.
func Write(w io.Writer, p Params) error {
	if p.Table == "" {
		return fmt.Errorf("table name required")
	}
	if p.Title == "" {
		p.Title = "Agent state"
	}
	t, err := template.New("agent_state").Parse(agentStateTemplate)
	if err != nil {
		return err
	}
	return t.Execute(w, p)
}

// Render writes the rendered dashboard to outDir/OutputFile.
func Render(outDir string, p Params) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}
	outPath := filepath.Join(outDir, OutputFile)
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if err := Write(f, p); err != nil {
		f.Close()
		return "", err
	}
	return outPath, f.Close()
}
