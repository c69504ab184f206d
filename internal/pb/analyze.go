package pb

import "sort"

// ConflictOutcome is what the conflict analyzer reports for a single
// conflict (spec.md §4.6): either the problem is unsatisfiable, or a
// learnt constraint together with the level to backjump to.
type ConflictOutcome struct {
	Unsat    bool
	Level    int
	Learnt   Constraint
	BumpVars []int   // variables whose activity the driver should bump
	BumpRows []RowID // learnt rows explained during analysis, already bumped
}

// Analyze runs the cutting-planes conflict analysis loop starting from the
// row that first went sup < rhs. It repeatedly resolves the current
// constraint against the reason of the latest falsified, propagated
// literal, flattening and strengthening after every step, until the
// constraint would propagate at some level below the current one.
//
// flattenThreshold bounds how large a coefficient is allowed to grow before
// Flatten divides through (spec.md §9's "overflow discipline"; wired from
// Options.FlattenThreshold).
func Analyze(trail *Trail, eng *Engine, order *VarOrder, conflictRow RowID, flattenThreshold uint64) ConflictOutcome {
	ra := newRandomAccessConstraint()
	ra.reset(eng.Explain(conflictRow))
	var bump []int
	var bumpRows []RowID

	// A learnt row's activity is bumped every time it is consulted during
	// analysis, mirroring the teacher's ExplainFailure/ExplainAssign bumping
	// a clause's activity whenever it explains a conflict or an assignment.
	bumpRow := func(id RowID) {
		if !eng.Row(id).isLearnt {
			return
		}
		eng.BumpRowActivity(id)
		bumpRows = append(bumpRows, id)
	}
	bumpRow(conflictRow)

	// causal, a ResetSet over the literal space, is reused across every
	// resolveStep of this analysis instead of allocating a fresh map per
	// step (spec.md §4.6 runs one resolveStep per trail literal undone).
	causal := &ResetSet{}
	for i := 0; i < 2*trail.NumVariables(); i++ {
		causal.Expand()
	}

	for {
		if level, ok := backjumpLevel(trail, ra); ok && level < trail.DecisionLevel() {
			return ConflictOutcome{Level: level, Learnt: ra.toConstraint(1, nil), BumpVars: bump, BumpRows: bumpRows}
		}
		if trail.DecisionLevel() == 0 {
			return ConflictOutcome{Unsat: true}
		}

		lit, reasonRow, ok := pickConflictLiteral(trail, ra)
		if !ok {
			return ConflictOutcome{Unsat: true}
		}
		bump = append(bump, lit.VarID())
		bumpRow(reasonRow)

		assignOrder := trail.GetAssignmentOrder(lit.VarID())
		reason := Strengthen(eng.Explain(reasonRow), trail)

		resolveStep(trail, order, ra, lit, assignOrder, reason, causal)
		flattenStep(trail, ra, assignOrder-1, flattenThreshold)

		flat := Strengthen(ra.toConstraint(1, nil), trail)
		ra.reset(flat)
	}
}

// pickConflictLiteral selects the literal of ra that is currently false and
// was derived by propagation (not a decision), choosing the one assigned
// latest on the trail (spec.md §4.6 step 1).
func pickConflictLiteral(trail *Trail, ra *randomAccessConstraint) (Literal, RowID, bool) {
	bestOrder := -1
	var best Literal
	var bestRow RowID

	for _, l := range ra.lits {
		if ra.get(l).isZero() || !trail.IsFalse(l) {
			continue
		}
		v := l.VarID()
		r := trail.GetReason(v)
		if r == NoReason {
			continue
		}
		if ord := trail.GetAssignmentOrder(v); ord > bestOrder {
			bestOrder, best, bestRow = ord, l, r
		}
	}
	if bestOrder == -1 {
		return 0, 0, false
	}
	return best, bestRow, true
}

// resolveStep eliminates lit's variable from ra by combining it with
// reason, the row that propagated ¬lit (spec.md §4.6, "Resolve in detail").
func resolveStep(trail *Trail, order *VarOrder, ra *randomAccessConstraint, lit Literal, assignOrder int, reason Constraint, causal *ResetSet) {
	cAlpha := ra.get(lit).lo
	oppLit := lit.Opposite()

	var rAlpha uint64
	for _, t := range reason.Terms {
		if t.Lit == oppLit {
			rAlpha = t.Coeff
			break
		}
	}
	if rAlpha == 0 || cAlpha == 0 {
		return // malformed reason; nothing to cancel against
	}

	bound := assignOrder - 1
	cSlack := supAtRA(trail, ra, bound) - ra.rhs.lo
	rSlack := supAtConstraint(trail, reason, bound) - reason.RHS

	lhs := mulU64(cSlack, rAlpha).add(mulU64(rSlack, cAlpha))
	threshold := mulU64(cAlpha, rAlpha)

	if lhs.cmp(threshold) < 0 {
		// Case A: the clean combination already preserves the conflict
		// property, no rounding needed.
		g := gcdU64(cAlpha, rAlpha)
		ra.combineScaled(rAlpha/g, reason, cAlpha/g)
		return
	}

	// Case B: round the reason down to a pivot coefficient of 1, rounding
	// its causal literals up so the conflict property survives.
	rounded := roundConstraint(trail, order, reason, oppLit, rAlpha, bound, causal)
	ra.combineScaled(1, rounded, cAlpha)
}

// causalLiterals marks, in causal, the smallest subset (by descending
// activity) of c's literals false at or before bound whose combined
// coefficients could be removed from c's pre-propagation sup while still
// leaving the pivot's propagation forced -- the literals that must round up
// to preserve soundness (spec.md §4.6, "the causal set of a propagation").
// causal is cleared first; it must already be sized to the literal space.
func causalLiterals(trail *Trail, order *VarOrder, c Constraint, pivot Literal, pivotCoeff uint64, bound int, causal *ResetSet) {
	causal.Clear()

	var total uint64
	type cand struct {
		lit   Literal
		coeff uint64
	}
	var falseLits []cand
	for _, t := range c.Terms {
		total += t.Coeff
		if t.Lit == pivot {
			continue
		}
		if trail.IsFalseAt(t.Lit, bound) {
			falseLits = append(falseLits, cand{t.Lit, t.Coeff})
		}
	}
	sort.Slice(falseLits, func(i, j int) bool {
		return order.Activity(falseLits[i].lit.VarID()) > order.Activity(falseLits[j].lit.VarID())
	})

	var threshold uint64
	if total > pivotCoeff+c.RHS {
		threshold = total - pivotCoeff - c.RHS + 1
	}

	var acc uint64
	for _, cd := range falseLits {
		if acc >= threshold {
			break
		}
		causal.Add(int(cd.lit))
		acc += cd.coeff
	}
}

func ceilDivU64(a, b uint64) uint64 {
	if a == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// roundConstraint divides c through by divisor so the pivot's coefficient
// becomes 1, rounding c's causal literals up and every other literal down.
func roundConstraint(trail *Trail, order *VarOrder, c Constraint, pivot Literal, divisor uint64, bound int, causal *ResetSet) Constraint {
	causalLiterals(trail, order, c, pivot, divisor, bound, causal)

	terms := make([]Term, 0, len(c.Terms))
	for _, t := range c.Terms {
		if t.Lit == pivot {
			terms = append(terms, Term{Lit: pivot, Coeff: 1})
			continue
		}
		var nc uint64
		if causal.Contains(int(t.Lit)) {
			nc = ceilDivU64(t.Coeff, divisor)
		} else {
			nc = t.Coeff / divisor
		}
		if nc == 0 {
			continue
		}
		terms = append(terms, Term{Lit: t.Lit, Coeff: nc})
	}
	return Constraint{Terms: terms, RHS: ceilDivU64(c.RHS, divisor)}
}

// flattenStep divides ra through by a divisor large enough to bring its
// largest coefficient back under threshold, rounding literals false at or
// before bound (the causals of the conflict) up and every other literal
// down (spec.md §4.6, "Flatten").
func flattenStep(trail *Trail, ra *randomAccessConstraint, bound int, threshold uint64) {
	var maxCoeff uint64
	for _, l := range ra.lits {
		if c := ra.get(l); !c.isZero() && c.lo > maxCoeff {
			maxCoeff = c.lo
		}
	}
	if maxCoeff <= threshold {
		return
	}

	var causalMin uint64
	haveCausal := false
	for _, l := range ra.lits {
		c := ra.get(l)
		if c.isZero() || !trail.IsFalseAt(l, bound) {
			continue
		}
		if !haveCausal || c.lo < causalMin {
			causalMin, haveCausal = c.lo, true
		}
	}

	divisor := maxCoeff / threshold
	if divisor < 1 {
		divisor = 1
	}
	if haveCausal && causalMin > divisor {
		divisor = causalMin
	}
	if divisor <= 1 {
		return
	}

	for _, l := range ra.lits {
		c := ra.get(l)
		if c.isZero() {
			continue
		}
		if trail.IsFalseAt(l, bound) {
			ra.set(l, u128FromUint64(c.divCeil(divisor)))
		} else {
			ra.set(l, u128FromUint64(c.divFloor(divisor)))
		}
	}
	ra.rhs = u128FromUint64(ra.rhs.divCeil(divisor))
}

// supAtRA returns the sum of coefficients of ra's literals not false at or
// before trail position bound.
func supAtRA(trail *Trail, ra *randomAccessConstraint, bound int) uint64 {
	var sup uint64
	for _, l := range ra.lits {
		if c := ra.get(l); !c.isZero() && !trail.IsFalseAt(l, bound) {
			sup += c.lo
		}
	}
	return sup
}

// supAtConstraint returns the sum of coefficients of c's terms not false at
// or before trail position bound.
func supAtConstraint(trail *Trail, c Constraint, bound int) uint64 {
	var sup uint64
	for _, t := range c.Terms {
		if !trail.IsFalseAt(t.Lit, bound) {
			sup += t.Coeff
		}
	}
	return sup
}

// backjumpLevel computes the shallowest decision level at which ra would
// still propagate, per spec.md §4.6's per-level sup/slack accounting.
// Decision level d's own drop is kept cumulative (backjumping to level k
// keeps levels 0..k and undoes k+1..d, matching Trail.Backjump's
// contract), so candidate forced literals are those at levels strictly
// above k, plus any literal still unassigned regardless of level.
func backjumpLevel(trail *Trail, ra *randomAccessConstraint) (int, bool) {
	d := trail.DecisionLevel()
	dropAtLevel := make([]uint64, d+1)
	maxAtLevel := make([]uint64, d+1)
	var total, unassignedMax uint64

	for _, l := range ra.lits {
		c := ra.get(l)
		if c.isZero() {
			continue
		}
		coeff := c.lo
		total += coeff

		v := l.VarID()
		if !trail.IsAssigned(v) {
			if coeff > unassignedMax {
				unassignedMax = coeff
			}
			continue
		}
		lvl := trail.GetDecisionLevel(v)
		if trail.IsFalse(l) {
			dropAtLevel[lvl] += coeff
		}
		if coeff > maxAtLevel[lvl] {
			maxAtLevel[lvl] = coeff
		}
	}

	maxAbove := make([]uint64, d+2)
	for k := d; k >= 0; k-- {
		m := maxAtLevel[k]
		if k+1 <= d && maxAbove[k+1] > m {
			m = maxAbove[k+1]
		}
		maxAbove[k] = m
	}

	rhs := ra.rhs.lo
	var cumDrop uint64
	for k := 0; k < d; k++ {
		cumDrop += dropAtLevel[k]
		supAfter := total - cumDrop
		maxInterval := maxAbove[k+1]
		if unassignedMax > maxInterval {
			maxInterval = unassignedMax
		}
		if supAfter >= rhs && supAfter-maxInterval < rhs {
			return k, true
		}
	}
	return 0, false
}
