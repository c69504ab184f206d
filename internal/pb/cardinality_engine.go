package pb

// The cardinality engine generalizes 2-literal clause watching to k+1
// literals for a "at least k of n" constraint (spec.md §4.3.2). The first
// k+1 entries of row.terms are the watched literals; the invariant
// maintained between calls is that as long as any unwatched literal is
// still true or unassigned, no watched literal needs attention. When a
// watched literal falls false, propagateCardinality first tries to swap it
// for a not-false unwatched literal; only when the whole unwatched tail is
// false does the row have to force or detect conflict among its k+1
// watches.

func (e *Engine) addCardWatch(lit Literal, id RowID) {
	e.cardWatchers[lit] = append(e.cardWatchers[lit], id)
}

// addCardinalityRow installs a strengthened cardinality constraint (every
// coefficient 1, 1 <= rhs < number of terms) and runs it through its initial
// check in case some of its literals are already assigned.
func (e *Engine) addCardinalityRow(c Constraint, isLearnt bool) EngineState {
	terms := make([]Term, len(c.Terms))
	copy(terms, c.Terms)
	k := int(c.RHS)

	r := e.newRow(kindCardinality, Constraint{RHS: c.RHS}, isLearnt)
	r.terms = terms
	r.rhs = c.RHS
	r.k = k

	numWatch := k + 1
	// Prefer watching literals that aren't already false, so freshly added
	// rows don't immediately need a force/conflict check.
	next := numWatch
	for i := 0; i < numWatch; i++ {
		for e.trail.IsFalse(terms[i].Lit) && next < len(terms) {
			terms[i], terms[next] = terms[next], terms[i]
			next++
		}
	}
	for i := 0; i < numWatch; i++ {
		e.addCardWatch(terms[i].Lit, r.id)
	}

	return e.checkCardinalityRow(r)
}

// tryReplaceWatch looks for a not-false literal in r's unwatched tail to
// take falseLit's place among the k+1 watches. It reports whether a
// replacement was found (and, if so, installs the new watch itself).
func (e *Engine) tryReplaceWatch(r *row, falseLit Literal) bool {
	idx := -1
	for i := 0; i <= r.k; i++ {
		if r.terms[i].Lit == falseLit {
			idx = i
			break
		}
	}
	if idx == -1 {
		return true // stale watcher entry (row no longer watches falseLit here); drop it
	}
	for j := r.k + 1; j < len(r.terms); j++ {
		if !e.trail.IsFalse(r.terms[j].Lit) {
			r.terms[idx], r.terms[j] = r.terms[j], r.terms[idx]
			e.addCardWatch(r.terms[idx].Lit, r.id)
			return true
		}
	}
	return false
}

// checkCardinalityRow inspects r's k+1 watched literals once every unwatched
// literal is known to be false. With at most n-k-1 false literals outside
// the watch set, the constraint tolerates at most one more false among the
// watches; two or more is a conflict, exactly one forces every other
// watched literal true, and zero leaves nothing to do yet (unless every
// watch is already assigned true).
func (e *Engine) checkCardinalityRow(r *row) EngineState {
	for i := r.k + 1; i < len(r.terms); i++ {
		if !e.trail.IsFalse(r.terms[i].Lit) {
			return NoConflictState()
		}
	}

	falseCount := 0
	for i := 0; i <= r.k; i++ {
		if e.trail.IsFalse(r.terms[i].Lit) {
			falseCount++
		}
	}
	if falseCount >= 2 {
		return ConflictState(r.id)
	}
	if falseCount == 0 {
		return NoConflictState() // k+1 non-false literals remain, more than the k needed: no forcing yet
	}

	for i := 0; i <= r.k; i++ {
		lit := r.terms[i].Lit
		if e.trail.IsFalse(lit) || e.trail.IsTrue(lit) {
			continue
		}
		if !e.assignLiteral(lit, r.id) {
			return ConflictState(r.id)
		}
	}
	return NoConflictState()
}

// propagateCardinality handles every cardinality row watching falseLit.
func (e *Engine) propagateCardinality(falseLit Literal) EngineState {
	ws := e.cardWatchers[falseLit]
	e.cardWatchers[falseLit] = ws[:0]

	for i, id := range ws {
		r := e.rows[id]
		if r.deleted {
			continue
		}
		if e.tryReplaceWatch(r, falseLit) {
			continue
		}
		e.cardWatchers[falseLit] = append(e.cardWatchers[falseLit], id)
		if st := e.checkCardinalityRow(r); st.IsConflict() {
			e.cardWatchers[falseLit] = append(e.cardWatchers[falseLit], ws[i+1:]...)
			return st
		}
	}
	return NoConflictState()
}
