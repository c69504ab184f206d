package pb

import "testing"

func TestVarOrderPopPrefersHighestActivity(t *testing.T) {
	vo := NewVarOrder(1000, 100, true)
	for i := 0; i < 3; i++ {
		vo.AddVariable(true)
	}

	// DecayActivities bumps every variable in its conflicting-vars argument
	// by 1/tau2 (spec.md §4.2), so repeating variable 2 across two calls
	// and variable 1 once gives it the higher activity.
	vo.DecayActivities([]int{2}, func(v int) bool { return true })
	vo.DecayActivities([]int{2}, func(v int) bool { return true })
	vo.DecayActivities([]int{1}, func(v int) bool { return true })

	assigned := map[int]bool{}
	isAssigned := func(v int) bool { return assigned[v] }

	first := vo.PopUnassigned(isAssigned)
	if first != 2 {
		t.Fatalf("PopUnassigned() = %d, want 2 (highest activity)", first)
	}
	assigned[first] = true

	second := vo.PopUnassigned(isAssigned)
	if second != 1 {
		t.Fatalf("PopUnassigned() = %d, want 1 (second-highest activity)", second)
	}
}

func TestVarOrderPopSkipsStaleEntries(t *testing.T) {
	vo := NewVarOrder(1000, 100, true)
	vo.AddVariable(true)
	vo.AddVariable(true)

	assigned := map[int]bool{0: true}
	isAssigned := func(v int) bool { return assigned[v] }

	got := vo.PopUnassigned(isAssigned)
	if got != 1 {
		t.Fatalf("PopUnassigned() = %d, want 1 (0 is already assigned)", got)
	}
}

func TestVarOrderDecisionLiteralUsesPhase(t *testing.T) {
	vo := NewVarOrder(1000, 100, true)
	vo.AddVariable(false)

	if lit := vo.DecisionLiteral(0); lit.IsPositive() {
		t.Errorf("DecisionLiteral(0) = %v, want the negative literal (saved phase false)", lit)
	}

	vo.PushUnassigned(0, True)
	if lit := vo.DecisionLiteral(0); !lit.IsPositive() {
		t.Errorf("DecisionLiteral(0) = %v, want the positive literal after PushUnassigned(0, True)", lit)
	}
}

func TestVarOrderDecayActivitiesBumpsConflictVars(t *testing.T) {
	vo := NewVarOrder(1000, 2, true)
	vo.AddVariable(true)
	vo.AddVariable(true)

	vo.DecayActivities([]int{0}, func(v int) bool { return false })

	if vo.Activity(0) <= vo.Activity(1) {
		t.Errorf("Activity(0)=%f should exceed Activity(1)=%f after being bumped", vo.Activity(0), vo.Activity(1))
	}
}

func TestVarOrderDecayProbabilities(t *testing.T) {
	vo := NewVarOrder(2, 100, true)
	vo.AddVariable(true)

	vo.DecayProbabilities([]Literal{PositiveLiteral(0)})
	if p := vo.Probability(PositiveLiteral(0)); p <= 0 {
		t.Errorf("Probability(x0) = %f, want > 0 after it appeared on the trail", p)
	}
	if p := vo.Probability(NegativeLiteral(0)); p != 0 {
		t.Errorf("Probability(!x0) = %f, want 0", p)
	}
}
