package depsolver

import "fmt"

// A Requirement expresses what bindings are acceptable for a package:
// a set of versions, one specific revision, or the unversioned working
// copy.
//
// The sum is sealed; the solver's merge rules are complete over the
// three variants, and the system relies on that closure.
type Requirement interface {
	fmt.Stringer
	_requirement()
}

func (VersionSetRequirement) _requirement()  {}
func (RevisionRequirement) _requirement()    {}
func (UnversionedRequirement) _requirement() {}

// VersionSetRequirement restricts a package to a set of versions.
type VersionSetRequirement struct {
	Set VersionSetSpecifier
}

func (r VersionSetRequirement) String() string { return r.Set.String() }

// RevisionRequirement pins a package to an opaque revision identifier,
// such as a commit hash or branch name.
type RevisionRequirement struct {
	Revision string
}

func (r RevisionRequirement) String() string { return "rev[" + r.Revision + "]" }

// UnversionedRequirement uses the package's working copy directly.
type UnversionedRequirement struct{}

func (UnversionedRequirement) String() string { return "unversioned" }

// anyRequirement is the default requirement for packages nothing has
// constrained yet.
func anyRequirement() Requirement {
	return VersionSetRequirement{Set: AnyVersionSet()}
}

func isAnyRequirement(r Requirement) bool {
	vs, ok := r.(VersionSetRequirement)
	return ok && vs.Set.IsAny()
}

// mergeRequirements computes the conjunction of an existing
// requirement with a newly arriving one. The second return is false
// when the two cannot be satisfied together, in which case the branch
// under consideration must be abandoned.
//
// Unversioned dominates everything. A revision merges with an
// identical revision, or replaces an unconstrained version set; a
// version set arriving on a revision always fails, even the
// unconstrained one. Version sets merge by intersection, failing when
// the intersection is empty.
func mergeRequirements(current, next Requirement) (Requirement, bool) {
	if _, ok := current.(UnversionedRequirement); ok {
		return current, true
	}

	switch tn := next.(type) {
	case UnversionedRequirement:
		return tn, true

	case RevisionRequirement:
		switch tc := current.(type) {
		case RevisionRequirement:
			if tc.Revision == tn.Revision {
				return tc, true
			}
			return nil, false
		case VersionSetRequirement:
			if tc.Set.IsAny() {
				return tn, true
			}
			return nil, false
		}

	case VersionSetRequirement:
		switch tc := current.(type) {
		case RevisionRequirement:
			return nil, false
		case VersionSetRequirement:
			merged := tc.Set.Intersect(tn.Set)
			if merged.IsEmpty() {
				return nil, false
			}
			return VersionSetRequirement{Set: merged}, true
		}
	}

	panic(fmt.Sprintf("unreachable requirement merge: %T with %T", current, next))
}
