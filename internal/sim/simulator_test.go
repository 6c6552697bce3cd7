package sim

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"readonly-sim/internal/agent"
	"readonly-sim/internal/config"
	"readonly-sim/internal/scenario"
	"readonly-sim/internal/state"
)

// MockWriter collects state reports for validation
type MockWriter struct {
	Records []state.Record
}

func (w *MockWriter) Publish(rec state.Record) error {
	w.Records = append(w.Records, rec)
	return nil
}

type mockRecorder struct {
	samples []state.Sample
}

func (r *mockRecorder) RecordSample(s state.Sample) error {
	r.samples = append(r.samples, s)
	return nil
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func rate(v float64) *float64 { return &v }

func testConfig() *config.SimulationConfig {
	return &config.SimulationConfig{
		StepSeconds: 0.2,
		Building: config.Building{Name: "office", Levels: []config.Level{
			{Name: "L1", MinZ: 0, MaxZ: 3},
			{Name: "L2", MinZ: 3, MaxZ: 6},
		}},
		Agents: []config.Agent{
			{
				Name:        "cart-1",
				Destination: "L2",
				Trajectory: []config.Waypoint{
					{T: 0, X: 0, Y: 0, Z: 1},
					{T: 2, X: 0, Y: 0, Z: 4},
				},
			},
			{Name: "cart-2", UpdateRate: rate(10)},
		},
	}
}

func TestSimulator_StepThrottlesReports(t *testing.T) {
	writer := &MockWriter{}
	s, err := NewSimulator(testConfig(), writer, time.Second, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	ctx := context.Background()
	for i := 0; i < 7; i++ {
		s.Step(ctx)
	}

	var cart1 []state.Record
	for _, r := range writer.Records {
		if r.Name == "cart-1" {
			cart1 = append(cart1, r)
		}
	}
	wantTimes := []float64{0, 0.6, 1.2}
	if len(cart1) != len(wantTimes) {
		t.Fatalf("cart-1 reports = %+v", cart1)
	}
	for i, r := range cart1 {
		if r.Seq != uint64(i) {
			t.Errorf("report %d seq = %d", i, r.Seq)
		}
		if diff := r.SimTime - wantTimes[i]; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("report %d at %v, want %v", i, r.SimTime, wantTimes[i])
		}
		if r.Destination != "L2" {
			t.Errorf("report %d destination = %q", i, r.Destination)
		}
	}
	if cart1[0].Level != "L1" {
		t.Errorf("first level = %q, want L1", cart1[0].Level)
	}
	// z = 1 + 1.5*1.2 = 2.8 is still on L1; the lift reaches L2 at t=1.33.
	if cart1[2].Level != "L1" {
		t.Errorf("level at 1.2 = %q, want L1", cart1[2].Level)
	}

	cart2 := 0
	for _, r := range writer.Records {
		if r.Name == "cart-2" {
			cart2++
			if r.Level != "L1" {
				t.Errorf("cart-2 at origin level = %q", r.Level)
			}
		}
	}
	// 10 Hz with 0.2 s steps reports on every tick.
	if cart2 != 7 {
		t.Errorf("cart-2 reports = %d, want 7", cart2)
	}
}

func TestSimulator_SetDestination(t *testing.T) {
	writer := &MockWriter{}
	s, err := NewSimulator(testConfig(), writer, time.Second, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	if s.SetDestination("ghost", "L1") {
		t.Fatalf("unknown agent accepted a destination")
	}
	if !s.SetDestination("cart-2", "dock") {
		t.Fatalf("SetDestination rejected cart-2")
	}
	if d, _ := s.Destination("cart-2"); d != "dock" {
		t.Fatalf("Destination = %q", d)
	}
	recs := s.Step(context.Background())
	for _, r := range recs {
		if r.Name == "cart-2" && r.Destination != "dock" {
			t.Fatalf("cart-2 destination = %q", r.Destination)
		}
	}
	latest, ok := s.LatestFor("cart-2")
	if !ok || latest.Destination != "dock" {
		t.Fatalf("LatestFor = %+v, %v", latest, ok)
	}
	if got := s.Latest(); len(got) != 2 || got[0].Name != "cart-1" {
		t.Fatalf("Latest = %+v", got)
	}
}

func TestSimulator_AppliesScenario(t *testing.T) {
	sc := &scenario.Scenario{Events: []scenario.Event{
		{At: 0.3, Agent: "cart-2", Destination: "L1"},
		{At: 0, Agent: "ghost", Destination: "L2"},
	}}
	if err := sc.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	writer := &MockWriter{}
	s, err := NewSimulator(testConfig(), writer, time.Second, WithLogger(quietLogger()), WithScenario(sc))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	var dests []string
	for i := 0; i < 3; i++ {
		for _, r := range s.Step(context.Background()) {
			if r.Name == "cart-2" {
				dests = append(dests, r.Destination)
			}
		}
	}
	want := []string{"", "", "L1"}
	if len(dests) != len(want) {
		t.Fatalf("cart-2 reports = %v, want %v", dests, want)
	}
	for i := range want {
		if dests[i] != want[i] {
			t.Fatalf("cart-2 destinations = %v, want %v", dests, want)
		}
	}
}

func TestSimulator_RecordsSamples(t *testing.T) {
	rec := &mockRecorder{}
	s, err := NewSimulator(testConfig(), nil, time.Second, WithLogger(quietLogger()), WithRecorder(rec), WithRunID("run-1"))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	s.Step(context.Background())
	s.Step(context.Background())
	if len(rec.samples) != 4 {
		t.Fatalf("recorded %d samples, want 4", len(rec.samples))
	}
	if s.RunID() != "run-1" {
		t.Fatalf("RunID = %q", s.RunID())
	}
	if got := s.SimTime(); got != 0.4 {
		t.Fatalf("SimTime = %v, want 0.4", got)
	}
	if names := s.Agents(); len(names) != 2 || names[1] != "cart-2" {
		t.Fatalf("Agents = %v", names)
	}
}

func TestNewSimulator_ConfigurationErrors(t *testing.T) {
	cfg := testConfig()
	cfg.Agents[1].UpdateRate = rate(0)
	_, err := NewSimulator(cfg, nil, time.Second, WithLogger(quietLogger()))
	var cerr *agent.ConfigurationError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}

	cfg = testConfig()
	cfg.Agents[1].Name = "cart-1"
	if _, err := NewSimulator(cfg, nil, time.Second, WithLogger(quietLogger())); err == nil {
		t.Fatalf("expected duplicate agent error")
	}

	cfg = testConfig()
	cfg.Building.Levels[1].MaxZ = 2
	if _, err := NewSimulator(cfg, nil, time.Second, WithLogger(quietLogger())); err == nil {
		t.Fatalf("expected building error")
	}
}

func TestSimulator_RunStopsOnCancel(t *testing.T) {
	writer := &MockWriter{}
	s, err := NewSimulator(testConfig(), writer, time.Millisecond, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	deadline := time.After(2 * time.Second)
	for s.SimTime() < 0.6 {
		select {
		case <-deadline:
			t.Fatalf("simulator did not advance")
		default:
			time.Sleep(time.Millisecond)
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

// blockingWriter holds every Publish until release is closed.
type blockingWriter struct {
	entered chan struct{}
	release chan struct{}
}

func (w *blockingWriter) Publish(state.Record) error {
	select {
	case w.entered <- struct{}{}:
	default:
	}
	<-w.release
	return nil
}

func TestSimulator_ReadsDoNotWaitForPublish(t *testing.T) {
	w := &blockingWriter{entered: make(chan struct{}, 1), release: make(chan struct{})}
	s, err := NewSimulator(testConfig(), w, time.Second, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	stepped := make(chan struct{})
	go func() {
		s.Step(context.Background())
		close(stepped)
	}()
	<-w.entered

	read := make(chan struct{})
	go func() {
		s.SimTime()
		s.Latest()
		s.Destination("cart-1")
		close(read)
	}()
	select {
	case <-read:
	case <-time.After(2 * time.Second):
		t.Fatalf("reads blocked while a publish was in flight")
	}
	close(w.release)
	<-stepped
	if got := s.SimTime(); got != 0.2 {
		t.Fatalf("SimTime after one step = %v, want 0.2", got)
	}
}

func TestSimulator_StepUsesConfiguredLogger(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	sc := &scenario.Scenario{Events: []scenario.Event{{At: 0, Agent: "cart-1", Destination: "roof"}}}
	if err := sc.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	s, err := NewSimulator(testConfig(), nil, time.Second, WithLogger(log), WithScenario(sc))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	buf.Reset()
	s.Step(context.Background())
	if !strings.Contains(buf.String(), "scenario destination") {
		t.Fatalf("scenario event not logged through WithLogger: %q", buf.String())
	}
}

func TestSimulator_RecordsDestinationChanges(t *testing.T) {
	rec := &mockRecorder{}
	s, err := NewSimulator(testConfig(), nil, time.Second, WithLogger(quietLogger()), WithRecorder(rec))
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	s.Step(context.Background())
	s.SetDestination("cart-2", "dock")
	s.Step(context.Background())

	// two pose samples, the change, two pose samples
	if len(rec.samples) != 5 {
		t.Fatalf("recorded %d samples, want 5", len(rec.samples))
	}
	ch := rec.samples[2]
	if !ch.IsDestination() || ch.Agent != "cart-2" || *ch.Destination != "dock" || ch.SimTime != 0.2 {
		t.Fatalf("unexpected destination sample %+v", ch)
	}
}
