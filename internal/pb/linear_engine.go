package pb

// The weighted-linear engine tracks, per row, sup: the sum of coefficients
// of literals that are not currently false (true or unassigned). Since
// sup is the best the row could still reach, sup < rhs is a conflict, and
// any unassigned literal whose coefficient exceeds the row's slack
// (sup - rhs) must be forced true -- leaving it false would drop sup below
// rhs (spec.md §4.3.3). maxUnassignedCoeff lets a row skip the scan for
// forced literals entirely when nothing unassigned is large enough to
// matter.

// addLinearRow installs a strengthened general constraint (at least one
// coefficient > 1) and runs its initial check.
func (e *Engine) addLinearRow(c Constraint, isLearnt bool) EngineState {
	terms := make([]Term, len(c.Terms))
	copy(terms, c.Terms)

	r := e.newRow(kindLinear, Constraint{RHS: c.RHS}, isLearnt)
	r.terms = terms
	r.rhs = c.RHS

	var sup, maxUnassigned uint64
	for _, t := range terms {
		if !e.trail.IsFalse(t.Lit) {
			sup += t.Coeff
			if e.trail.GetValue(t.Lit) == Unknown && t.Coeff > maxUnassigned {
				maxUnassigned = t.Coeff
			}
		}
		e.linearOccurs[t.Lit] = append(e.linearOccurs[t.Lit], linOccurs{row: r.id, coeff: t.Coeff})
	}
	r.sup = sup
	r.maxUnassignedCoeff = maxUnassigned

	return e.forceLinearRow(r)
}

// forceLinearRow checks r's current sup against its rhs and forces every
// unassigned literal whose coefficient exceeds the slack.
func (e *Engine) forceLinearRow(r *row) EngineState {
	if r.sup < r.rhs {
		return ConflictState(r.id)
	}
	slack := r.sup - r.rhs
	if r.maxUnassignedCoeff <= slack {
		return NoConflictState()
	}

	var newMax uint64
	for _, t := range r.terms {
		if e.trail.GetValue(t.Lit) != Unknown {
			continue
		}
		if t.Coeff > slack {
			if !e.assignLiteral(t.Lit, r.id) {
				return ConflictState(r.id)
			}
		} else if t.Coeff > newMax {
			newMax = t.Coeff
		}
	}
	r.maxUnassignedCoeff = newMax
	return NoConflictState()
}

// propagateLinear handles every linear row with a term on falseLit.
func (e *Engine) propagateLinear(falseLit Literal) EngineState {
	for _, o := range e.linearOccurs[falseLit] {
		r := e.rows[o.row]
		if r.deleted {
			continue
		}
		r.sup -= o.coeff
		if st := e.forceLinearRow(r); st.IsConflict() {
			return st
		}
	}
	return NoConflictState()
}

// restoreLinear undoes the bookkeeping for lit's variable becoming
// unassigned again, lit being the literal that was false: rows containing
// lit get its coefficient back in sup, and rows containing either literal
// may now have a larger unassigned coefficient.
func (e *Engine) restoreLinear(lit Literal) {
	for _, o := range e.linearOccurs[lit] {
		r := e.rows[o.row]
		if r.deleted {
			continue
		}
		r.sup += o.coeff
		if o.coeff > r.maxUnassignedCoeff {
			r.maxUnassignedCoeff = o.coeff
		}
	}
	for _, o := range e.linearOccurs[lit.Opposite()] {
		r := e.rows[o.row]
		if !r.deleted && o.coeff > r.maxUnassignedCoeff {
			r.maxUnassignedCoeff = o.coeff
		}
	}
}
