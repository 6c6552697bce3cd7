package agent

import "testing"

func TestThrottleExample(t *testing.T) {
	th := NewThrottle(0.5)
	type emit struct {
		at  float64
		seq uint64
	}
	var got []emit
	for _, ts := range []float64{0.0, 0.2, 0.6, 0.9, 1.1} {
		if seq, ok := th.Admit(ts); ok {
			got = append(got, emit{ts, seq})
		}
	}
	want := []emit{{0.0, 0}, {0.6, 1}, {1.1, 2}}
	if len(got) != len(want) {
		t.Fatalf("emissions = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("emission %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestThrottleFirstTickAlwaysEmits(t *testing.T) {
	for _, ts := range []float64{0, 1e9, -5, 0.001} {
		th := NewThrottle(10)
		if _, ok := th.LastReport(); ok {
			t.Fatalf("fresh throttle has a last report")
		}
		seq, ok := th.Admit(ts)
		if !ok || seq != 0 {
			t.Fatalf("first Admit(%v) = %d, %v", ts, seq, ok)
		}
	}
}

func TestThrottleSuppressDoesNotMutate(t *testing.T) {
	th := NewThrottle(1)
	th.Admit(0)
	for _, ts := range []float64{0.1, 0.5, 0.99} {
		if _, ok := th.Admit(ts); ok {
			t.Fatalf("Admit(%v) emitted", ts)
		}
	}
	if last, _ := th.LastReport(); last != 0 {
		t.Fatalf("last report moved to %v on suppression", last)
	}
	// Measured from the last emitted report, not the last call.
	if seq, ok := th.Admit(1.0); !ok || seq != 1 {
		t.Fatalf("Admit(1.0) = %d, %v", seq, ok)
	}
}

func TestThrottleSpacingAndSequence(t *testing.T) {
	const threshold = 0.25
	th := NewThrottle(threshold)
	var times []float64
	var seqs []uint64
	ts := 0.0
	for i := 0; i < 500; i++ {
		// Irregular but non-decreasing steps.
		ts += 0.013 * float64(i%7)
		if seq, ok := th.Admit(ts); ok {
			times = append(times, ts)
			seqs = append(seqs, seq)
		}
	}
	if len(times) < 2 {
		t.Fatalf("too few emissions: %d", len(times))
	}
	for i := 1; i < len(times); i++ {
		if times[i]-times[i-1] < threshold {
			t.Errorf("emissions %v and %v closer than %v", times[i-1], times[i], threshold)
		}
	}
	for i, s := range seqs {
		if s != uint64(i) {
			t.Fatalf("seq[%d] = %d", i, s)
		}
	}
}

func TestThrottleBackwardJumpEmits(t *testing.T) {
	th := NewThrottle(0.5)
	th.Admit(10)
	seq, ok := th.Admit(2)
	if !ok || seq != 1 {
		t.Fatalf("Admit after restart = %d, %v", seq, ok)
	}
	if _, ok := th.Admit(2.1); ok {
		t.Fatalf("throttle not measured from restart time")
	}
}

func TestThrottleLongGapSingleReport(t *testing.T) {
	th := NewThrottle(0.5)
	th.Admit(0)
	seq, ok := th.Admit(100)
	if !ok || seq != 1 {
		t.Fatalf("Admit(100) = %d, %v", seq, ok)
	}
	if last, _ := th.LastReport(); last != 100 {
		t.Fatalf("last = %v", last)
	}
}
