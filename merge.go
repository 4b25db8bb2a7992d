package depsolver

import "github.com/sirupsen/logrus"

// mergeSubtrees produces the lazy cross-product of the subtree
// solutions for each dependency, keeping only combinations whose
// assignments agree and whose induced constraints merge.
//
// Every dependency's requirement is merged into the active set before
// any descent, so a child search always sees its siblings'
// constraints; combined with latest-first candidate order this yields
// the maximality property. The fold over dependencies is eager - it
// builds the generator pipeline - while each step's composition is
// lazy: no subtree is materialized until pulled.
func (r *Resolver) mergeSubtrees(deps []Constraint, seed assignmentSet, active ConstraintSet, excl exclusionMap) assignSeq {
	merged := active
	var ok bool
	for _, d := range deps {
		merged, ok = merged.Merge(d)
		if !ok {
			if r.l.Level >= logrus.DebugLevel {
				r.l.WithField("dep", d.String()).Debug("Sibling constraints are unsatisfiable together")
			}
			return emptyAssignSeq()
		}
	}

	seq := singleStateSeq(solveState{assignment: seed, constraints: merged})
	for _, d := range deps {
		seq = r.mergeStep(seq, d, excl)
	}

	return func() (assignmentSet, bool) {
		st, ok := seq()
		if !ok {
			return assignmentSet{}, false
		}
		return st.assignment, true
	}
}

// mergeStep composes one dependency into a sequence of partial solve
// states: for every state pulled from prev, it enumerates the
// dependency's subtree solutions under that state's constraints and
// yields each consistent combination.
func (r *Resolver) mergeStep(prev stateSeq, dep Constraint, excl exclusionMap) stateSeq {
	var cur solveState
	var sub assignSeq

	return func() (solveState, bool) {
		for {
			if r.halted() {
				return solveState{}, false
			}

			if sub != nil {
				combined, ok := r.combineNext(cur, sub)
				if ok {
					return combined, true
				}
				if r.halted() {
					return solveState{}, false
				}
				sub = nil
			}

			st, ok := prev()
			if !ok {
				return solveState{}, false
			}

			if r.incomplete && !r.cache.has(dep.Identifier) {
				// Incomplete mode never fetches; an unknown dependency
				// simply does not participate.
				return st, true
			}

			container, err := r.cache.get(r.ctx, dep.Identifier)
			if err != nil {
				r.latch(err)
				return solveState{}, false
			}
			if r.incomplete {
				// Every view of this container's dependencies must
				// agree on what was dropped, induced-constraint
				// recomputation included.
				container = cachedOnlyContainer{Container: container, cache: r.cache}
			}

			cur = st
			sub = r.resolveSubtree(container, st.constraints, excl)
		}
	}
}

// combineNext pulls subtree solutions until one is consistent with the
// current state, returning false when the subtree is exhausted or the
// search halts.
func (r *Resolver) combineNext(cur solveState, sub assignSeq) (solveState, bool) {
	for {
		if r.halted() {
			return solveState{}, false
		}

		sa, ok := sub()
		if !ok {
			return solveState{}, false
		}

		mergedA, ok := cur.assignment.merge(sa)
		if !ok {
			continue
		}

		induced, err := sa.inducedConstraints()
		if err != nil {
			r.latch(err)
			return solveState{}, false
		}
		mergedK, ok := cur.constraints.MergeSet(induced)
		if !ok {
			continue
		}

		return solveState{assignment: mergedA, constraints: mergedK}, true
	}
}
