package pb

import "testing"

// clause returns a 2-literal "at least one" cardinality constraint over two
// fresh variables, never assigned by construction, so AddConstraint neither
// forces anything nor locks the resulting row.
func clause(a, b int) Constraint {
	return Constraint{Terms: []Term{
		{Lit: PositiveLiteral(a), Coeff: 1},
		{Lit: PositiveLiteral(b), Coeff: 1},
	}, RHS: 1}
}

func TestReducerTracksAndReduces(t *testing.T) {
	trail := NewTrail()
	eng := NewEngine(trail)
	rd := NewReducer()

	var ids []RowID
	for i := 0; i < 6; i++ {
		a := trail.AddVariable()
		eng.AddVariable()
		b := trail.AddVariable()
		eng.AddVariable()

		st := eng.AddConstraint(clause(a, b), true)
		if st.IsConflict() {
			t.Fatalf("unexpected conflict adding row %d", i)
		}
		id := RowID(eng.NumRows() - 1)
		ids = append(ids, id)
		rd.Track(id, float64(i)) // increasing activity: row 0 is least active
	}

	if got, want := rd.NumTracked(), 6; got != want {
		t.Fatalf("NumTracked() = %d, want %d", got, want)
	}

	rd.Reduce(eng, trail)

	if got, want := rd.NumTracked(), 3; got != want {
		t.Fatalf("NumTracked() after Reduce() = %d, want %d", got, want)
	}
	if !eng.Row(ids[0]).deleted {
		t.Errorf("lowest-activity row was not deleted by Reduce()")
	}
	if eng.Row(ids[len(ids)-1]).deleted {
		t.Errorf("highest-activity row was deleted by Reduce()")
	}
}

func TestReducerSkipsLockedRows(t *testing.T) {
	trail := NewTrail()
	eng := NewEngine(trail)
	rd := NewReducer()

	v0 := trail.AddVariable()
	eng.AddVariable()

	// A unit row that is currently the reason for v0's assignment: locked,
	// must survive Reduce() regardless of activity.
	st := eng.AddConstraint(unit(v0, true, 1), true)
	if st.IsConflict() {
		t.Fatalf("unexpected conflict")
	}
	lockedID := RowID(eng.NumRows() - 1)
	rd.Track(lockedID, 0) // lowest activity, would normally be evicted first

	for i := 0; i < 3; i++ {
		a := trail.AddVariable()
		eng.AddVariable()
		b := trail.AddVariable()
		eng.AddVariable()

		st := eng.AddConstraint(clause(a, b), true)
		if st.IsConflict() {
			t.Fatalf("unexpected conflict adding row %d", i)
		}
		rd.Track(RowID(eng.NumRows()-1), float64(i+1))
	}

	rd.Reduce(eng, trail)

	if eng.Row(lockedID).deleted {
		t.Errorf("Reduce() deleted a locked row")
	}
}
