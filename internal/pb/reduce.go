package pb

import "github.com/rhartert/yagh"

// deleteRow marks a row as no longer part of the problem. Both propagation
// engines check row.deleted before acting on a watcher/occurrence entry:
// stale cardWatchers entries are dropped the next time they're visited,
// while stale linearOccurs entries stay in place and are skipped.
func (e *Engine) deleteRow(id RowID) {
	e.rows[id].deleted = true
}

// Reducer periodically thins the set of learnt rows by deleting its
// lowest-activity half, the same policy as the teacher's ReduceDB, but
// keyed through a yagh.IntMap heap instead of a sort.Slice pass so eviction
// candidates come off in activity order without re-sorting the whole set
// each time.
type Reducer struct {
	heap  *yagh.IntMap[float64]
	cap   int
	count int
}

func NewReducer() *Reducer {
	return &Reducer{heap: yagh.New[float64](0)}
}

func (rd *Reducer) ensureCapacity(id RowID) {
	if int(id) >= rd.cap {
		rd.heap.GrowBy(int(id) - rd.cap + 1)
		rd.cap = int(id) + 1
	}
}

// Track registers a newly created learnt row with the given activity.
func (rd *Reducer) Track(id RowID, activity float64) {
	rd.ensureCapacity(id)
	rd.heap.Put(int(id), activity)
	rd.count++
}

// Bump updates a tracked row's activity (e.g. after it takes part in a
// conflict), keeping the heap in sync.
func (rd *Reducer) Bump(id RowID, activity float64) {
	rd.heap.Put(int(id), activity)
}

// NumTracked returns how many learnt rows the reducer currently believes
// are live.
func (rd *Reducer) NumTracked() int {
	return rd.count
}

// Reduce deletes roughly the lower half (by activity) of tracked learnt
// rows, skipping any row currently locked (serving as the reason for a
// trail assignment).
func (rd *Reducer) Reduce(eng *Engine, trail *Trail) {
	target := rd.count / 2
	if target < 1 {
		return
	}

	type requeued struct {
		id  RowID
		act float64
	}
	var keep []requeued
	deleted := 0

	for deleted < target {
		entry, ok := rd.heap.Pop()
		if !ok {
			break
		}
		id := RowID(entry.Elem)
		r := eng.rows[id]
		if r.deleted {
			rd.count--
			continue
		}
		if r.locked(trail) {
			keep = append(keep, requeued{id, r.activity})
			continue
		}
		eng.deleteRow(id)
		rd.count--
		deleted++
	}

	for _, rq := range keep {
		rd.heap.Put(int(rq.id), rq.act)
	}
}
