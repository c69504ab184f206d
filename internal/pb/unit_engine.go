package pb

// addUnit implements spec.md §4.3.1's unit engine: the cheapest and first
// layer in the propagation chain. A unit constraint carries no slack at all,
// so adding one either commits its literal outright or, if the trail
// already disagrees, is itself the conflict.
//
// A unit constraint added above decision level 0 cannot be committed safely
// -- the assignment would have to survive a later backjump into the middle
// of the level it was added at, which the trail does not support. Instead
// it is parked in pendingUnits and the driver is told to backjump to level
// 0 first; Engine.Backjump flushes the queue once it gets there.
func (e *Engine) addUnit(lit Literal, isLearnt bool) EngineState {
	r := e.newRow(kindUnit, Constraint{Terms: []Term{{Lit: lit, Coeff: 1}}, RHS: 1}, isLearnt)

	if e.trail.DecisionLevel() > 0 {
		e.pendingUnits = append(e.pendingUnits, pendingUnit{lit: lit, row: r.id})
		return BackjumpRequiredState(0)
	}

	if !e.assignLiteral(lit, r.id) {
		e.unsat = true
		return ConflictState(r.id)
	}
	return NoConflictState()
}
