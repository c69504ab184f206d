package pb

import "testing"

// learntCardinality returns an "at least 1 of {a, b, c}" row over fresh,
// never-forced variables, learnt so it is eligible for row-activity bumps.
func learntCardinality(trail *Trail, eng *Engine, a, b, c int) RowID {
	before := eng.NumRows()
	eng.AddConstraint(Constraint{Terms: []Term{
		{Lit: PositiveLiteral(a), Coeff: 1},
		{Lit: PositiveLiteral(b), Coeff: 1},
		{Lit: PositiveLiteral(c), Coeff: 1},
	}, RHS: 1}, true)
	return RowID(before)
}

func TestEngineBumpRowActivityIncreasesOnlyTheBumpedRow(t *testing.T) {
	trail := NewTrail()
	eng := NewEngine(trail)
	var vars []int
	for i := 0; i < 6; i++ {
		vars = append(vars, trail.AddVariable())
		eng.AddVariable()
	}

	r0 := learntCardinality(trail, eng, vars[0], vars[1], vars[2])
	r1 := learntCardinality(trail, eng, vars[3], vars[4], vars[5])

	eng.BumpRowActivity(r0)
	eng.BumpRowActivity(r0)

	if eng.RowActivity(r0) <= eng.RowActivity(r1) {
		t.Errorf("RowActivity(r0)=%f should exceed RowActivity(r1)=%f after two bumps", eng.RowActivity(r0), eng.RowActivity(r1))
	}
}

func TestEngineDecayRowActivityGrowsFutureBumps(t *testing.T) {
	trail := NewTrail()
	eng := NewEngine(trail)
	var vars []int
	for i := 0; i < 3; i++ {
		vars = append(vars, trail.AddVariable())
		eng.AddVariable()
	}
	r := learntCardinality(trail, eng, vars[0], vars[1], vars[2])

	eng.BumpRowActivity(r)
	first := eng.RowActivity(r)

	eng.DecayRowActivity(0.5) // halve the decay factor: future bumps count for more
	eng.BumpRowActivity(r)
	second := eng.RowActivity(r) - first

	if second <= first {
		t.Errorf("bump after DecayRowActivity(0.5) added %f, want more than the first bump's %f", second, first)
	}
}
