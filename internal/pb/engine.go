package pb

// Engine is the composite propagation engine of spec.md §4.3: it owns the
// trail and dispatches each added constraint, by shape, to one of three
// propagation disciplines (unit / cardinality / weighted-linear), chaining
// assignments down through cheaper layers before the more expensive ones,
// per spec.md §4.3's "Per-engine contract". Rather than three mutually
// delegating objects, it is implemented as spec.md §9 suggests: one
// tagged-union row store dispatched on statically, with a single shared
// propagation queue (see row.go's rowKind).
type Engine struct {
	trail *Trail

	rows []*row

	cardWatchers   [][]RowID       // indexed by Literal: rows watching that literal
	linearOccurs   [][]linOccurs   // indexed by Literal: rows containing that literal as a term

	propQueue *Queue[Literal]

	// Unit constraints added above decision level 0 cannot be committed
	// immediately; they wait here until the next backjump to level 0
	// (spec.md §4.3.1).
	pendingUnits []pendingUnit

	unsat bool // true once a conflict has been derived at decision level 0

	claActivityInc float64 // current bump amount for BumpRowActivity
}

type linOccurs struct {
	row   RowID
	coeff uint64
}

type pendingUnit struct {
	lit Literal
	row RowID
}

// NewEngine returns an empty Engine backed by the given trail.
func NewEngine(trail *Trail) *Engine {
	return &Engine{
		trail:          trail,
		propQueue:      NewQueue[Literal](128),
		claActivityInc: 1,
	}
}

// RowActivity returns a row's current activity score.
func (e *Engine) RowActivity(id RowID) float64 {
	return e.rows[id].activity
}

// BumpRowActivity increases a learnt row's activity, rescaling every row's
// activity if the bump would overflow the float64 range used here.
func (e *Engine) BumpRowActivity(id RowID) {
	r := e.rows[id]
	r.activity += e.claActivityInc
	if r.activity > 1e100 {
		e.claActivityInc *= 1e-100
		for _, row := range e.rows {
			row.activity *= 1e-100
		}
	}
}

// DecayRowActivity implements the per-conflict decay half of the learnt-row
// activity EWMA (the bump half is BumpRowActivity): increasing the bump
// increment is equivalent to decaying every existing activity, so decay is
// a single multiply with no pass over e.rows.
func (e *Engine) DecayRowActivity(factor float64) {
	e.claActivityInc /= factor
}

func (e *Engine) AddVariable() {
	e.cardWatchers = append(e.cardWatchers, nil, nil)
	e.linearOccurs = append(e.linearOccurs, nil, nil)
}

// IsUnsat reports whether the engine has derived a decision-level-0
// conflict.
func (e *Engine) IsUnsat() bool {
	return e.unsat
}

func (e *Engine) newRow(kind rowKind, c Constraint, isLearnt bool) *row {
	r := &row{
		id:       RowID(len(e.rows)),
		kind:     kind,
		terms:    c.Terms,
		rhs:      c.RHS,
		isLearnt: isLearnt,
		minPLBD:  -1,
	}
	e.rows = append(e.rows, r)
	return r
}

func (e *Engine) Row(id RowID) *row {
	return e.rows[id]
}

func (e *Engine) NumRows() int {
	return len(e.rows)
}

// Explain returns the constraint currently represented by row id.
func (e *Engine) Explain(id RowID) Constraint {
	return e.rows[id].toConstraint()
}

// assignLiteral commits lit (with the given reason) if it is unassigned,
// reports success if it is already true, and reports failure (without
// touching the trail) if it is already false -- i.e. a conflict caused by
// whatever row is trying to force lit.
func (e *Engine) assignLiteral(lit Literal, reason RowID) bool {
	switch e.trail.GetValue(lit) {
	case True:
		return true
	case False:
		return false
	default:
		_ = e.trail.Assign(lit, reason)
		e.propQueue.Push(lit)
		return true
	}
}

// Decide commits lit as a new decision and runs it through propagation.
func (e *Engine) Decide(lit Literal) EngineState {
	_ = e.trail.Decide(lit)
	e.propQueue.Push(lit)
	return e.Propagate()
}

// Propagate drains the shared propagation queue, updating cardinality
// watchers and weighted-linear sup trackers for every newly-false literal,
// until either the queue is empty (Noconflict) or some row is violated.
func (e *Engine) Propagate() EngineState {
	for !e.propQueue.IsEmpty() {
		lit := e.propQueue.Pop()
		falseLit := lit.Opposite()

		if st := e.propagateCardinality(falseLit); st.IsConflict() {
			e.propQueue.Clear()
			return st
		}
		if st := e.propagateLinear(falseLit); st.IsConflict() {
			e.propQueue.Clear()
			return st
		}
	}
	return NoConflictState()
}

// Backjump undoes assignments down to level, restoring cardinality watch
// invariants and weighted-linear sup/max-unassigned-coeff bookkeeping, and
// pushing unassigned variables back onto onUnassign (which the driver wires
// to the variable order). After reaching level 0 it flushes any
// AddConstraint calls that were deferred because they arrived above level 0
// (spec.md §4.3.1).
func (e *Engine) Backjump(level int, onUnassign func(v int, lastValue LBool)) {
	e.propQueue.Clear()
	e.trail.Backjump(level, func(v int, lastValue LBool) {
		l := PositiveLiteral(v)
		if lastValue == False {
			l = NegativeLiteral(v)
		}
		e.restoreLinear(l.Opposite())
		if onUnassign != nil {
			onUnassign(v, lastValue)
		}
	})

	if level == 0 {
		pending := e.pendingUnits
		e.pendingUnits = nil
		for _, pu := range pending {
			if !e.assignLiteral(pu.lit, pu.row) {
				e.unsat = true
			}
		}
	}
}

// AddConstraint strengthens c against the current level-0 assignment and
// dispatches it by shape to the matching engine (spec.md §4.5). It returns
// the resulting EngineState: strengthening plus propagating the new row may
// itself produce a conflict or require a backjump to level 0 (e.g. a unit
// row added above the root).
func (e *Engine) AddConstraint(c Constraint, isLearnt bool) EngineState {
	sc := Strengthen(c, e.trail)

	switch sc.Shape() {
	case ShapeTautological:
		// An empty result is a tautology only if the literals fixed true at
		// level 0 already reach rhs; otherwise no assignment satisfies c.
		var rootTrue uint64
		for _, t := range c.Terms {
			if e.trail.IsTrue(t.Lit) && e.trail.GetDecisionLevel(t.Lit.VarID()) == 0 {
				rootTrue += t.Coeff
			}
		}
		if rootTrue < c.RHS {
			e.unsat = true
			return ConflictState(NoReason)
		}
		return NoConflictState()
	case ShapeUnit:
		return e.addUnit(sc.Terms[0].Lit, isLearnt)
	case ShapeCardinality:
		if int(sc.RHS) == len(sc.Terms) {
			// Every literal is forced: spec.md §4.5 routes this to the
			// unit engine rather than installing a (watch-less) row.
			st := NoConflictState()
			for _, t := range sc.Terms {
				st = Combine(st, e.addUnit(t.Lit, isLearnt))
				if st.IsConflict() {
					return st
				}
			}
			return st
		}
		return e.addCardinalityRow(sc, isLearnt)
	default: // ShapeLinear
		if shortcut, ok := decomposeSATEncoded(sc); ok {
			st := NoConflictState()
			for _, d := range shortcut {
				st = Combine(st, e.addCardinalityRow(d, isLearnt))
				if st.IsConflict() {
					return st
				}
			}
			return st
		}
		return e.addLinearRow(sc, isLearnt)
	}
}

// decomposeSATEncoded implements spec.md §4.5's SAT-encoding shortcut.
// After saturation every coefficient is <= rhs. If exactly one term's
// coefficient equals rhs (call its literal f -- on its own it satisfies
// the constraint) and every other ("sub-rhs") term's coefficient sums to
// exactly rhs (together they are the only other way to satisfy it, and
// only if every single one of them holds), then:
//
//	Σ aᵢ·ℓᵢ >= rhs  <=>  f ∨ (s₁ ∧ s₂ ∧ ... ∧ sₘ)
//	                 <=>  (f ∨ s₁) ∧ (f ∨ s₂) ∧ ... ∧ (f ∨ sₘ)
//
// by distributing OR over AND -- a set of two-literal cardinality
// constraints jointly equivalent to the original, and far more eagerly
// unit-propagating than the general weighted-linear engine's sup
// accounting. Grounded on original_source/pb_engine/src/theories.rs's
// shape-based dispatch.
func decomposeSATEncoded(c Constraint) ([]Constraint, bool) {
	if len(c.Terms) < 2 {
		return nil, false
	}

	var full Term
	nFull := 0
	var subSum uint64
	for _, t := range c.Terms {
		if t.Coeff == c.RHS {
			nFull++
			full = t
		} else {
			subSum += t.Coeff
		}
	}
	if nFull != 1 || subSum != c.RHS {
		return nil, false
	}

	out := make([]Constraint, 0, len(c.Terms)-1)
	for _, t := range c.Terms {
		if t.Coeff == c.RHS {
			continue
		}
		out = append(out, Constraint{
			Terms: []Term{{Lit: full.Lit, Coeff: 1}, {Lit: t.Lit, Coeff: 1}},
			RHS:   1,
		})
	}
	return out, true
}
