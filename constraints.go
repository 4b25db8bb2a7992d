package depsolver

import (
	"sort"
	"strings"
)

// PackageIdentifier is the stable identity of a package: the identity
// string by which it is referenced, plus the source location it is
// fetched from. The zero Source means the default location for the
// identity.
type PackageIdentifier struct {
	Identity string
	Source   string
}

func (id PackageIdentifier) String() string {
	if id.Source == "" {
		return id.Identity
	}
	return id.Identity + " (from " + id.Source + ")"
}

func (id PackageIdentifier) less(other PackageIdentifier) bool {
	if id.Identity != other.Identity {
		return id.Identity < other.Identity
	}
	return id.Source < other.Source
}

// A Constraint restricts the allowable bindings of a single package.
type Constraint struct {
	Identifier  PackageIdentifier
	Requirement Requirement
}

func (c Constraint) String() string {
	return c.Identifier.String() + " " + c.Requirement.String()
}

// A ConstraintSet is a persistent mapping from package to the merged
// requirement every participant so far has placed on it. Lookups of
// unknown packages see the unbounded version set. Values are immutable
// once published; merges return fresh sets, leaving the receiver
// untouched, so sets may be shared freely between live search
// branches.
//
// No key ever maps to the empty version set; the merge that would
// produce one fails instead.
type ConstraintSet struct {
	m map[PackageIdentifier]Requirement
}

// NewConstraintSet returns the unconstrained set.
func NewConstraintSet() ConstraintSet {
	return ConstraintSet{}
}

// Get returns the active requirement for id.
func (cs ConstraintSet) Get(id PackageIdentifier) Requirement {
	if r, has := cs.m[id]; has {
		return r
	}
	return anyRequirement()
}

// Len returns the number of explicitly constrained packages.
func (cs ConstraintSet) Len() int { return len(cs.m) }

// Packages returns the constrained identifiers in sorted order.
func (cs ConstraintSet) Packages() []PackageIdentifier {
	ids := make([]PackageIdentifier, 0, len(cs.m))
	for id := range cs.m {
		ids = append(ids, id)
	}
	sortIdentifiers(ids)
	return ids
}

func sortIdentifiers(ids []PackageIdentifier) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })
}

// Merge folds one constraint into the set, returning the combined set.
// The second return is false when the constraint is incompatible with
// the requirement already present, and the receiver is unchanged
// either way.
func (cs ConstraintSet) Merge(c Constraint) (ConstraintSet, bool) {
	merged, ok := mergeRequirements(cs.Get(c.Identifier), c.Requirement)
	if !ok {
		return ConstraintSet{}, false
	}

	out := make(map[PackageIdentifier]Requirement, len(cs.m)+1)
	for id, r := range cs.m {
		out[id] = r
	}
	out[c.Identifier] = merged
	return ConstraintSet{m: out}, true
}

// MergeSet merges every entry of other into the set pointwise. Any
// pointwise failure fails the whole merge.
func (cs ConstraintSet) MergeSet(other ConstraintSet) (ConstraintSet, bool) {
	out := cs
	var ok bool
	for _, id := range other.Packages() {
		out, ok = out.Merge(Constraint{Identifier: id, Requirement: other.m[id]})
		if !ok {
			return ConstraintSet{}, false
		}
	}
	return out, true
}

// fingerprint renders the set deterministically, for use as a
// memoization key. Two sets with equal contents always produce the
// same fingerprint.
func (cs ConstraintSet) fingerprint() string {
	var sb strings.Builder
	for _, id := range cs.Packages() {
		sb.WriteString(id.Identity)
		sb.WriteByte(0)
		sb.WriteString(id.Source)
		sb.WriteByte(0)
		sb.WriteString(cs.m[id].String())
		sb.WriteByte(0)
	}
	return sb.String()
}

func (cs ConstraintSet) String() string {
	parts := make([]string, 0, len(cs.m))
	for _, id := range cs.Packages() {
		parts = append(parts, id.String()+" "+cs.m[id].String())
	}
	return "{" + strings.Join(parts, "; ") + "}"
}
