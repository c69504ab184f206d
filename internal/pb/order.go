package pb

import (
	"log"

	"github.com/rhartert/yagh"
)

// VarOrder maintains the priority queue of unassigned variables used to pick
// the next decision variable (spec.md §4.2), plus the two running estimates
// that drive it:
//
//   - activity[v]: an EWMA estimate of how often v participates in
//     conflicts. This is the classic VSIDS score and is what the heap is
//     keyed on.
//   - probability[l]: an EWMA estimate of the fraction of time literal l
//     sits true on the trail. Tracked per spec.md §4.2 as a running
//     statistic; it is not required to pick decisions but conflict
//     analysis and restart tuning can consult it.
//
// The heap breaks ties using insertion order (the order variables were
// declared with AddVariable), same as the teacher's VarOrder.
type VarOrder struct {
	heap *yagh.IntMap[float64]

	activity []float64 // a[v], in [0, 1e100)

	probability []float64 // p[l], indexed by Literal

	tau1 float64 // time-constant for probability EWMA
	tau2 float64 // time-constant for activity EWMA

	phases      []LBool
	phaseSaving bool
}

// NewVarOrder returns a new, empty VarOrder.
func NewVarOrder(tau1, tau2 float64, phaseSaving bool) *VarOrder {
	return &VarOrder{
		heap:        yagh.New[float64](0),
		tau1:        tau1,
		tau2:        tau2,
		phaseSaving: phaseSaving,
	}
}

// AddVariable registers a new variable with the given initial decision
// phase.
func (vo *VarOrder) AddVariable(initPhase bool) {
	v := len(vo.phases)

	vo.activity = append(vo.activity, 0)
	vo.probability = append(vo.probability, 0, 0)
	vo.phases = append(vo.phases, Lift(initPhase))

	vo.heap.GrowBy(1)
	vo.heap.Put(v, 0)
}

// PushUnassigned reinserts a variable whose assignment was undone by a
// backjump into the set of decision candidates, recording the value it
// last held as its phase hint.
func (vo *VarOrder) PushUnassigned(v int, lastValue LBool) {
	if vo.phaseSaving && lastValue != Unknown {
		vo.phases[v] = lastValue
	}
	vo.heap.Put(v, -vo.activity[v])
}

// PopUnassigned selects the next decision variable: the unassigned variable
// with the highest activity.
func (vo *VarOrder) PopUnassigned(isAssigned func(v int) bool) int {
	for {
		next, ok := vo.heap.Pop()
		if !ok {
			log.Fatal("pb: PopUnassigned called with no unassigned variable left")
		}
		if isAssigned(next.Elem) {
			continue // stale entry, variable got assigned without going through the heap
		}
		return next.Elem
	}
}

// DecisionLiteral returns the literal to assign when v is picked as a
// decision variable, using its saved phase (or the initial phase given to
// AddVariable if no phase has ever been saved).
func (vo *VarOrder) DecisionLiteral(v int) Literal {
	if vo.phases[v] == False {
		return NegativeLiteral(v)
	}
	return PositiveLiteral(v)
}

// DecayActivities implements spec.md §4.2's per-conflict activity decay:
// a[v] *= (1 - 1/tau2) for every variable, followed by bumping every
// variable present in the conflicting-assignment set A by 1/tau2.
func (vo *VarOrder) DecayActivities(conflictingVars []int, inHeap func(v int) bool) {
	decay := 1 - 1/vo.tau2
	for v := range vo.activity {
		vo.activity[v] *= decay
	}
	bump := 1 / vo.tau2
	for _, v := range conflictingVars {
		vo.activity[v] += bump
		if inHeap(v) {
			vo.heap.Put(v, -vo.activity[v])
		}
	}
}

// DecayProbabilities implements spec.md §4.2's per-conflict probability
// EWMA update: p[l] *= (1 - 1/tau1) for every literal, then p[l] += 1/tau1
// for every literal currently committed on the trail.
func (vo *VarOrder) DecayProbabilities(trail []Literal) {
	decay := 1 - 1/vo.tau1
	for l := range vo.probability {
		vo.probability[l] *= decay
	}
	bump := 1 / vo.tau1
	for _, l := range trail {
		vo.probability[l] += bump
	}
}

// Probability returns the current EWMA estimate of the fraction of time l
// sits true on the trail.
func (vo *VarOrder) Probability(l Literal) float64 {
	return vo.probability[l]
}

// Activity returns the current conflict-activity of variable v.
func (vo *VarOrder) Activity(v int) float64 {
	return vo.activity[v]
}
