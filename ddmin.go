package depsolver

import (
	"context"

	"github.com/sirupsen/logrus"
)

// inputChange identifies one removable input: a dependency or a pin,
// by position. The debugger minimizes over sets of these.
type inputChange struct {
	pin   bool
	index int
}

// debugUnsatisfiable narrows a failing (dependencies, pins) input down
// to a minimal subset that still fails, using ddmin over
// allow-this-input changes. Trials run in incomplete mode, so nothing
// new is fetched. Returns errDebugTimeout when the time budget is
// exhausted before minimization converges.
func (r *Resolver) debugUnsatisfiable(dependencies, pins []Constraint) ([]Constraint, []Constraint, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.debugBudget)
	defer cancel()

	outerCtx := r.ctx
	r.ctx = ctx
	r.incomplete = true
	defer func() {
		r.ctx = outerCtx
		r.incomplete = false
	}()

	all := make([]inputChange, 0, len(dependencies)+len(pins))
	for i := range dependencies {
		all = append(all, inputChange{index: i})
	}
	for i := range pins {
		all = append(all, inputChange{pin: true, index: i})
	}

	stillFails := func(allowed []inputChange) bool {
		allowedDep := make(map[int]bool, len(allowed))
		allowedPin := make(map[int]bool, len(allowed))
		for _, c := range allowed {
			if c.pin {
				allowedPin[c.index] = true
			} else {
				allowedDep[c.index] = true
			}
		}

		// Disallowed dependencies are forced out of the search by an
		// unversioned constraint rather than removed outright, so
		// transitive references to them stay satisfiable.
		trialDeps := make([]Constraint, 0, len(dependencies))
		disallowedIDs := make(map[PackageIdentifier]bool)
		for i, d := range dependencies {
			if allowedDep[i] {
				trialDeps = append(trialDeps, d)
			} else {
				disallowedIDs[d.Identifier] = true
				trialDeps = append(trialDeps, Constraint{
					Identifier:  d.Identifier,
					Requirement: UnversionedRequirement{},
				})
			}
		}

		trialPins := make([]Constraint, 0, len(pins))
		for i, p := range pins {
			if !allowedPin[i] {
				continue
			}
			if disallowedIDs[p.Identifier] {
				// A pin on a forced-out package makes the trial
				// meaningless; it cannot demonstrate the failure.
				return false
			}
			trialPins = append(trialPins, p)
		}

		if r.l.Level >= logrus.DebugLevel {
			r.l.WithFields(logrus.Fields{
				"deps": len(trialDeps),
				"pins": len(trialPins),
			}).Debug("Debugger trial")
		}

		res := r.resolveOnce(trialDeps, trialPins)
		return res.Unsatisfiable
	}

	minimal, err := ddmin(ctx, all, stillFails)
	if err != nil {
		return nil, nil, err
	}

	var mindeps, minpins []Constraint
	for _, c := range minimal {
		if c.pin {
			minpins = append(minpins, pins[c.index])
		} else {
			mindeps = append(mindeps, dependencies[c.index])
		}
	}
	return mindeps, minpins, nil
}

// ddmin is the classic delta-debugging minimization: repeatedly try to
// reduce to a subset or a complement at increasing granularity until
// the set is 1-minimal under the predicate.
func ddmin(ctx context.Context, changes []inputChange, pred func([]inputChange) bool) ([]inputChange, error) {
	current := changes
	granularity := 2

	for len(current) >= 2 {
		if ctx.Err() != nil {
			return nil, errDebugTimeout
		}

		subsets := partitionChanges(current, granularity)
		reduced := false

		for _, subset := range subsets {
			if ctx.Err() != nil {
				return nil, errDebugTimeout
			}
			if pred(subset) {
				current = subset
				granularity = 2
				reduced = true
				break
			}
		}
		if reduced {
			continue
		}

		if granularity > 2 {
			for i := range subsets {
				if ctx.Err() != nil {
					return nil, errDebugTimeout
				}
				complement := complementOf(current, subsets, i)
				if pred(complement) {
					current = complement
					granularity--
					reduced = true
					break
				}
			}
			if reduced {
				continue
			}
		}

		if granularity >= len(current) {
			break
		}
		granularity = min(granularity*2, len(current))
	}

	return current, nil
}

func partitionChanges(changes []inputChange, n int) [][]inputChange {
	out := make([][]inputChange, 0, n)
	size := len(changes) / n
	rem := len(changes) % n
	start := 0
	for i := 0; i < n && start < len(changes); i++ {
		end := start + size
		if i < rem {
			end++
		}
		if end > start {
			out = append(out, changes[start:end])
		}
		start = end
	}
	return out
}

func complementOf(all []inputChange, subsets [][]inputChange, skip int) []inputChange {
	out := make([]inputChange, 0, len(all))
	for i, subset := range subsets {
		if i == skip {
			continue
		}
		out = append(out, subset...)
	}
	return out
}
