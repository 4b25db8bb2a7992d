package depsolver

// assignSeq is a pull iterator over candidate assignment sets. Each
// call produces the next set; the second return is false once the
// sequence is exhausted. Sequences are pulled serially on the solving
// goroutine and may be abandoned at any point.
type assignSeq func() (assignmentSet, bool)

func emptyAssignSeq() assignSeq {
	return func() (assignmentSet, bool) { return assignmentSet{}, false }
}

// solveState pairs a partial assignment with the constraint set active
// while it was built. The merger folds over sequences of these.
type solveState struct {
	assignment  assignmentSet
	constraints ConstraintSet
}

// stateSeq is a pull iterator over solve states.
type stateSeq func() (solveState, bool)

func singleStateSeq(st solveState) stateSeq {
	done := false
	return func() (solveState, bool) {
		if done {
			return solveState{}, false
		}
		done = true
		return st, true
	}
}

func emptyStateSeq() stateSeq {
	return func() (solveState, bool) { return solveState{}, false }
}

// replayableSeq memoizes an assignSeq so the same subtree result can
// be iterated again without re-entering the solver. Elements are
// buffered as they are first pulled; later iterators replay the buffer
// before pulling anything new from the underlying generator.
//
// Pulls happen only on the single solving goroutine, so no locking is
// needed here; see the shared-state notes on the solver.
type replayableSeq struct {
	source assignSeq
	buf    []assignmentSet
	done   bool
}

func newReplayableSeq(source assignSeq) *replayableSeq {
	return &replayableSeq{source: source}
}

// iterator returns a fresh pull iterator over the memoized sequence.
func (r *replayableSeq) iterator() assignSeq {
	next := 0
	return func() (assignmentSet, bool) {
		if next < len(r.buf) {
			a := r.buf[next]
			next++
			return a, true
		}
		if r.done {
			return assignmentSet{}, false
		}
		a, ok := r.source()
		if !ok {
			r.done = true
			return assignmentSet{}, false
		}
		r.buf = append(r.buf, a)
		next++
		return a, true
	}
}
