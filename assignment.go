package depsolver

import "fmt"

// A BoundVersion is the concrete outcome for one package in an
// assignment: pinned to a version, pinned to a revision, taken from
// the working copy, or excluded from the graph entirely.
type BoundVersion interface {
	fmt.Stringer
	_boundVersion()
}

func (Excluded) _boundVersion()         {}
func (BoundAt) _boundVersion()          {}
func (BoundRevision) _boundVersion()    {}
func (BoundUnversioned) _boundVersion() {}

// Excluded bars the package from the assignment. Only reachable when
// nothing else in the graph requires the package.
type Excluded struct{}

func (Excluded) String() string { return "excluded" }

// BoundAt binds the package to one concrete version.
type BoundAt struct {
	Version *Version
}

func (b BoundAt) String() string { return b.Version.String() }

// BoundRevision binds the package to an opaque revision identifier.
type BoundRevision struct {
	Revision string
}

func (b BoundRevision) String() string { return "rev[" + b.Revision + "]" }

// BoundUnversioned binds the package to its working copy.
type BoundUnversioned struct{}

func (BoundUnversioned) String() string { return "unversioned" }

func boundEqual(a, b BoundVersion) bool {
	switch ta := a.(type) {
	case Excluded:
		_, ok := b.(Excluded)
		return ok
	case BoundUnversioned:
		_, ok := b.(BoundUnversioned)
		return ok
	case BoundRevision:
		tb, ok := b.(BoundRevision)
		return ok && ta.Revision == tb.Revision
	case BoundAt:
		tb, ok := b.(BoundAt)
		return ok && versionEq(ta.Version, tb.Version)
	}
	return false
}

type assignmentEntry struct {
	container Container
	binding   BoundVersion
}

// An assignmentSet is an insertion-ordered persistent mapping from
// package to its container and binding. Iteration order preserves the
// order in which assignments were added, which keeps solver output
// deterministic. Like ConstraintSet, published values are immutable;
// inserts and merges return fresh sets.
type assignmentSet struct {
	order   []PackageIdentifier
	entries map[PackageIdentifier]assignmentEntry
}

func newAssignmentSet() assignmentSet {
	return assignmentSet{}
}

func (as assignmentSet) binding(id PackageIdentifier) (BoundVersion, bool) {
	e, has := as.entries[id]
	if !has {
		return nil, false
	}
	return e.binding, true
}

func (as assignmentSet) len() int { return len(as.order) }

// with returns a copy of the set extended by one entry. The caller is
// responsible for only inserting bindings that hold under the set's
// induced constraints; the search constructs them so by construction.
func (as assignmentSet) with(container Container, binding BoundVersion) assignmentSet {
	id := container.Identifier()
	if _, has := as.entries[id]; has {
		panic(fmt.Sprintf("canary - reassigning already-bound package %s", id))
	}

	order := make([]PackageIdentifier, len(as.order), len(as.order)+1)
	copy(order, as.order)
	order = append(order, id)

	entries := make(map[PackageIdentifier]assignmentEntry, len(as.entries)+1)
	for k, v := range as.entries {
		entries[k] = v
	}
	entries[id] = assignmentEntry{container: container, binding: binding}

	return assignmentSet{order: order, entries: entries}
}

// merge combines two assignment sets, requiring exact agreement on any
// package present in both. Entries unique to other are appended in
// other's order. The second return is false on disagreement.
func (as assignmentSet) merge(other assignmentSet) (assignmentSet, bool) {
	out := as
	for _, id := range other.order {
		oe := other.entries[id]
		if e, has := out.entries[id]; has {
			if !boundEqual(e.binding, oe.binding) {
				return assignmentSet{}, false
			}
			continue
		}
		out = out.with(oe.container, oe.binding)
	}
	return out, true
}

// inducedConstraints computes the pointwise merge of the dependency
// constraints contributed by every versioned or revisioned entry.
// Excluded and unversioned entries contribute nothing here; an
// unversioned package's own dependencies enter the search when its
// subtree is solved, not through induction.
//
// A pointwise merge failure inside one valid assignment set cannot
// happen; it panics as a canary.
func (as assignmentSet) inducedConstraints() (ConstraintSet, error) {
	cs := NewConstraintSet()
	for _, id := range as.order {
		e := as.entries[id]

		var deps []Constraint
		var err error
		switch b := e.binding.(type) {
		case Excluded, BoundUnversioned:
			continue
		case BoundAt:
			deps, err = e.container.GetDependencies(b.Version)
		case BoundRevision:
			deps, err = e.container.GetRevisionDependencies(b.Revision)
		}
		if err != nil {
			return ConstraintSet{}, err
		}

		for _, dep := range deps {
			var ok bool
			cs, ok = cs.Merge(dep)
			if !ok {
				panic(fmt.Sprintf("canary - induced constraints of a published assignment set do not merge: %s requires %s", id, dep))
			}
		}
	}
	return cs, nil
}

// isValid indicates whether the given binding for container holds
// under the set's induced constraints.
func (as assignmentSet) isValid(binding BoundVersion, container Container) (bool, error) {
	induced, err := as.inducedConstraints()
	if err != nil {
		return false, err
	}
	active := induced.Get(container.Identifier())

	switch b := binding.(type) {
	case BoundUnversioned:
		return true, nil
	case Excluded:
		return isAnyRequirement(active), nil
	case BoundRevision:
		if isAnyRequirement(active) {
			return true, nil
		}
		rr, ok := active.(RevisionRequirement)
		return ok && rr.Revision == b.Revision, nil
	case BoundAt:
		vs, ok := active.(VersionSetRequirement)
		return ok && vs.Set.Contains(b.Version), nil
	}
	return false, nil
}

// checkIfValidAndComplete verifies the two result invariants: every
// entry's binding holds under the set's induced constraints, and every
// package those constraints mention has a non-excluded entry.
func (as assignmentSet) checkIfValidAndComplete() (bool, error) {
	for _, id := range as.order {
		e := as.entries[id]
		ok, err := as.isValid(e.binding, e.container)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}

	induced, err := as.inducedConstraints()
	if err != nil {
		return false, err
	}
	for _, id := range induced.Packages() {
		b, has := as.binding(id)
		if !has {
			return false, nil
		}
		if _, excluded := b.(Excluded); excluded {
			return false, nil
		}
	}
	return true, nil
}
