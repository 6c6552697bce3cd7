package agent

// lastReport is either neverReported or reportedAt.
type lastReport interface {
	isLastReport()
}

type neverReported struct{}

type reportedAt float64

func (neverReported) isLastReport() {}
func (reportedAt) isLastReport()    {}

// Throttle rate limits reports on simulation time and numbers the ones it
// lets through. It is not safe for concurrent use.
type Throttle struct {
	threshold float64
	last      lastReport
	seq       uint64
}

// NewThrottle returns a throttle admitting at most one report per threshold
// seconds of simulation time.
func NewThrottle(threshold float64) *Throttle {
	return &Throttle{threshold: threshold, last: neverReported{}}
}

// Threshold returns the minimum simulation time between two reports.
func (t *Throttle) Threshold() float64 {
	return t.threshold
}

// Admit decides whether a report is due at simTime. When it is, the report's
// sequence number is returned and the throttle moves on; otherwise nothing
// changes. A clock that runs backwards is taken as a simulation restart.
func (t *Throttle) Admit(simTime float64) (uint64, bool) {
	if last, ok := t.last.(reportedAt); ok {
		elapsed := simTime - float64(last)
		if elapsed >= 0 && elapsed < t.threshold {
			return 0, false
		}
	}
	seq := t.seq
	t.seq++
	t.last = reportedAt(simTime)
	return seq, true
}

// LastReport returns the simulation time of the last admitted report.
func (t *Throttle) LastReport() (float64, bool) {
	last, ok := t.last.(reportedAt)
	return float64(last), ok
}
