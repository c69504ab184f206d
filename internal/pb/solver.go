package pb

import "time"

// Options configures a Solver, mirroring the teacher's Options/DefaultOptions
// pattern. The tuning constants named in spec.md §4.2/§4.6/§4.7 are exposed
// here rather than hardcoded so callers (and tests) can dial the search
// heuristics without touching engine internals.
type Options struct {
	// Tau1 is the EWMA time constant for VarOrder's literal-true-probability
	// statistic; Tau2 is the time constant for variable activity decay.
	Tau1 float64
	Tau2 float64

	PhaseSaving bool

	// FlattenThreshold bounds the largest coefficient conflict analysis
	// tolerates before dividing a constraint down (spec.md §9's overflow
	// discipline).
	FlattenThreshold uint64

	// RestartThreshold is p_restart: the Gaussian-CDF value past which the
	// PLBD watcher triggers a restart (spec.md §4.7).
	RestartThreshold float64
	// ShortTermWindow is W_s, the sliding-window length for the PLBD
	// watcher's short-term mean.
	ShortTermWindow int
	// LongTermWindow is W_l, the EWMA time constant for the PLBD watcher's
	// long-term mean and variance.
	LongTermWindow float64
	// MinConflictsBetweenRestarts is N_min.
	MinConflictsBetweenRestarts int

	// RowActivityDecay is the per-conflict decay factor applied to learnt
	// row activity, mirroring the teacher's ClauseDecay.
	RowActivityDecay float64

	// ReduceInterval is how many conflicts elapse between learnt-row
	// reduction passes.
	ReduceInterval int

	// TimeBudget is the wall-clock budget for Solve; 0 means unbounded
	// (spec.md §5).
	TimeBudget time.Duration
}

// DefaultOptions returns reasonable defaults for all tuning constants.
func DefaultOptions() Options {
	return Options{
		Tau1:                        1000,
		Tau2:                        100,
		PhaseSaving:                 true,
		FlattenThreshold:            1 << 32,
		RestartThreshold:            0.6,
		ShortTermWindow:             50,
		LongTermWindow:              5000,
		MinConflictsBetweenRestarts: 50,
		ReduceInterval:              2000,
		RowActivityDecay:            0.999,
	}
}

// Solver is the top-level search driver of spec.md §4.8: it owns the
// trail, the composite propagation engine, the variable order, the PLBD
// restart watcher, and the learnt-row reducer, and drives them through the
// propagate / analyze / backjump / decide state machine.
type Solver struct {
	opts Options

	trail    *Trail
	engine   *Engine
	order    *VarOrder
	restarts *RestartPolicy
	reducer  *Reducer

	numVars int

	startTime time.Time

	numConflicts         int
	conflictsSinceReduce int
	pendingRestart       bool
	unsat                bool
}

// NewSolver returns an empty Solver configured with opts.
func NewSolver(opts Options) *Solver {
	trail := NewTrail()
	return &Solver{
		opts:     opts,
		trail:    trail,
		engine:   NewEngine(trail),
		order:    NewVarOrder(opts.Tau1, opts.Tau2, opts.PhaseSaving),
		restarts: NewRestartPolicy(opts.ShortTermWindow, opts.LongTermWindow, opts.RestartThreshold, opts.MinConflictsBetweenRestarts),
		reducer:  NewReducer(),
	}
}

// NewDefaultSolver returns a Solver configured with DefaultOptions.
func NewDefaultSolver() *Solver {
	return NewSolver(DefaultOptions())
}

// AddVariable registers a new Boolean variable and returns its id.
func (s *Solver) AddVariable() int {
	v := s.trail.AddVariable()
	s.engine.AddVariable()
	s.order.AddVariable(true)
	s.numVars++
	return v
}

// NumVariables returns the number of variables registered so far.
func (s *Solver) NumVariables() int {
	return s.numVars
}

// AddConstraint installs a problem constraint. It returns false if doing so
// makes the problem unsatisfiable at decision level 0 -- once that happens
// the solver is permanently unsatisfiable and Solve will report so without
// searching.
func (s *Solver) AddConstraint(c Constraint) bool {
	if s.unsat {
		return false
	}
	st := s.engine.AddConstraint(c, false)
	st = s.drainAfterAdd(st)
	if st.IsConflict() || s.engine.IsUnsat() {
		s.unsat = true
		return false
	}
	return true
}

// drainAfterAdd flushes whatever a constraint addition queued for
// propagation, including any forced root-level backjump, until the engine
// reports a conflict or the queue runs dry.
func (s *Solver) drainAfterAdd(st EngineState) EngineState {
	for st.IsBackjumpRequired() {
		s.engine.Backjump(st.BackjumpLevel(), s.onUnassign)
		if s.engine.IsUnsat() {
			return ConflictState(NoReason)
		}
		st = s.engine.Propagate()
	}
	if st.IsNoConflict() {
		st = s.engine.Propagate()
	}
	return st
}

func (s *Solver) onUnassign(v int, lastValue LBool) {
	s.order.PushUnassigned(v, lastValue)
}

// Solve runs the CDCL search loop to completion (or until the time budget
// expires) and reports the result.
func (s *Solver) Solve() Result {
	if s.unsat {
		return Result{Outcome: Unsatisfiable}
	}
	s.startTime = time.Now()

	st := s.engine.Propagate()
	for {
		if st.IsConflict() {
			if s.trail.DecisionLevel() == 0 {
				return Result{Outcome: Unsatisfiable}
			}
			next, ok := s.analyzeAndLearn(st.ConflictRow())
			if !ok {
				return Result{Outcome: Unsatisfiable}
			}
			st = next
			continue
		}

		if s.trail.NumAssignments() == s.trail.NumVariables() {
			return Result{Outcome: Satisfiable, Model: s.buildModel()}
		}
		if s.opts.TimeBudget > 0 && time.Since(s.startTime) > s.opts.TimeBudget {
			return Result{Outcome: Unknown}
		}
		if s.pendingRestart {
			s.pendingRestart = false
			s.restarts.NotifyRestart()
			s.engine.Backjump(0, s.onUnassign)
			st = s.engine.Propagate()
			continue
		}

		v := s.order.PopUnassigned(func(v int) bool { return s.trail.IsAssigned(v) })
		st = s.engine.Decide(s.order.DecisionLiteral(v))
	}
}

// analyzeAndLearn runs the conflict analyzer over conflictRow, updates the
// activity/probability/PLBD statistics, backjumps, and installs the learnt
// constraint. It returns the engine state to resume the search loop with,
// or ok == false if the analyzer determined the problem is unsatisfiable.
func (s *Solver) analyzeAndLearn(conflictRow RowID) (EngineState, bool) {
	s.numConflicts++
	s.order.DecayProbabilities(s.trail.Assigned())

	outcome := Analyze(s.trail, s.engine, s.order, conflictRow, s.opts.FlattenThreshold)
	if outcome.Unsat {
		return EngineState{}, false
	}
	s.order.DecayActivities(outcome.BumpVars, func(v int) bool { return !s.trail.IsAssigned(v) })
	s.engine.DecayRowActivity(s.opts.RowActivityDecay)
	for _, id := range outcome.BumpRows {
		s.reducer.Bump(id, s.engine.RowActivity(id))
	}

	if s.restarts.Observe(PLBD(s.trail, outcome.Learnt)) {
		s.pendingRestart = true
	}

	s.engine.Backjump(outcome.Level, s.onUnassign)
	if s.engine.IsUnsat() {
		return EngineState{}, false
	}

	before := s.engine.NumRows()
	st := s.engine.AddConstraint(outcome.Learnt, true)
	for id := before; id < s.engine.NumRows(); id++ {
		s.engine.BumpRowActivity(RowID(id))
		s.reducer.Track(RowID(id), s.engine.RowActivity(RowID(id)))
	}
	st = s.drainAfterAdd(st)
	if s.engine.IsUnsat() {
		return EngineState{}, false
	}

	s.conflictsSinceReduce++
	if s.conflictsSinceReduce >= s.opts.ReduceInterval {
		s.reducer.Reduce(s.engine, s.trail)
		s.conflictsSinceReduce = 0
	}

	return st, true
}

func (s *Solver) buildModel() []bool {
	model := make([]bool, s.numVars)
	for v := 0; v < s.numVars; v++ {
		model[v] = s.trail.IsTrue(PositiveLiteral(v))
	}
	return model
}
