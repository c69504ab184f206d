package pb

import "math"

// PLBD computes the pseudo literal block distance of a learnt constraint:
// the number of distinct decision levels among the variables of its
// current terms (spec.md §4.7). Smaller is better -- a constraint spanning
// few decision levels is more likely to be useful again soon.
func PLBD(trail *Trail, c Constraint) int {
	levels := map[int]bool{}
	for _, t := range c.Terms {
		v := t.Lit.VarID()
		if trail.IsAssigned(v) {
			levels[trail.GetDecisionLevel(v)] = true
		}
	}
	return len(levels)
}

// RestartPolicy watches the running distribution of PLBD values and
// decides when the search has drifted into an unproductive region worth
// abandoning via a restart to decision level 0 (spec.md §4.7).
type RestartPolicy struct {
	window     []float64
	windowSize int
	windowSum  float64

	longMean         float64
	longVar          float64
	longTimeConstant float64
	haveLong         bool

	pRestart              float64
	minConflictsBetween   int
	conflictsSinceRestart int
}

// NewRestartPolicy returns a policy tracking a short-term window of
// shortWindow PLBD samples against a long-term EWMA with the given time
// constant, restarting once the Gaussian CDF of the short-term mean's
// normalized distance from the long-term mean exceeds pRestart and at least
// minConflicts
// conflicts have passed since the previous restart.
func NewRestartPolicy(shortWindow int, longTimeConstant, pRestart float64, minConflicts int) *RestartPolicy {
	return &RestartPolicy{
		windowSize:          shortWindow,
		longTimeConstant:    longTimeConstant,
		pRestart:            pRestart,
		minConflictsBetween: minConflicts,
	}
}

// NotifyRestart resets the between-restart conflict counter; the driver
// calls this whenever it backjumps to level 0 for any reason.
func (p *RestartPolicy) NotifyRestart() {
	p.conflictsSinceRestart = 0
}

// Observe folds in one more conflict's PLBD value and reports whether the
// restart criterion now fires.
func (p *RestartPolicy) Observe(plbd int) bool {
	p.conflictsSinceRestart++

	val := float64(plbd)
	p.window = append(p.window, val)
	p.windowSum += val
	if len(p.window) > p.windowSize {
		p.windowSum -= p.window[0]
		p.window = p.window[1:]
	}
	if len(p.window) < p.windowSize {
		return false
	}
	shortMean := p.windowSum / float64(p.windowSize)

	if !p.haveLong {
		p.longMean = shortMean
		p.longVar = 0
		p.haveLong = true
		return false
	}

	alpha := 1 / p.longTimeConstant
	diff := shortMean - p.longMean
	p.longMean += alpha * diff
	p.longVar = (1 - alpha) * (p.longVar + alpha*diff*diff)

	if p.longVar <= 0 {
		return false
	}
	z := gaussianCDF((shortMean - p.longMean) / math.Sqrt(2*p.longVar))
	if z > p.pRestart && p.conflictsSinceRestart >= p.minConflictsBetween {
		p.conflictsSinceRestart = 0
		return true
	}
	return false
}

func gaussianCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}
