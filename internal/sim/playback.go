package sim

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"readonly-sim/internal/agent"
	"readonly-sim/internal/logging"
	"readonly-sim/internal/state"
)

// ReplaySamples feeds recorded pose samples from r into the matching agents,
// in file order and without delays. Simulation time comes from the samples.
// Recorded destination changes are applied before the samples that follow them.
// It returns the number of reports the agents emitted.
func ReplaySamples(ctx context.Context, r io.Reader, agents []*agent.Agent) (int, error) {
	log := logging.FromContext(ctx)
	byName := make(map[string]*agent.Agent, len(agents))
	for _, a := range agents {
		byName[a.Name()] = a
	}
	skipped := make(map[string]bool)

	dec := json.NewDecoder(r)
	emitted := 0
	for {
		if err := ctx.Err(); err != nil {
			return emitted, err
		}
		var s state.Sample
		if err := dec.Decode(&s); err != nil {
			if err == io.EOF {
				return emitted, nil
			}
			return emitted, err
		}
		a, ok := byName[s.Agent]
		if !ok {
			if !skipped[s.Agent] {
				log.Warn("skipping samples for unknown agent", "agent", s.Agent)
				skipped[s.Agent] = true
			}
			continue
		}
		if s.IsDestination() {
			a.SetDestination(*s.Destination)
			continue
		}
		if _, ok := a.Update(s.Pose, s.SimTime); ok {
			emitted++
		}
	}
}

// ReplaySampleFile opens a sample log, decompressing .zst files, and replays it.
func ReplaySampleFile(ctx context.Context, path string, agents []*agent.Agent) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	var r io.Reader = f
	if isZstd(path) {
		zr, err := zstd.NewReader(f)
		if err != nil {
			return 0, err
		}
		defer zr.Close()
		r = zr
	}
	return ReplaySamples(ctx, r, agents)
}
