package depsolver

import "fmt"

type versionSetKind uint8

const (
	versionSetEmpty versionSetKind = iota
	versionSetAny
	versionSetExact
	versionSetRange
)

var (
	emptySet = VersionSetSpecifier{kind: versionSetEmpty}
	anySet   = VersionSetSpecifier{kind: versionSetAny}
)

// VersionSetSpecifier describes the set of versions admissible for a
// package: no versions, all versions, exactly one version, or a
// half-open range [lower, upper).
type VersionSetSpecifier struct {
	kind  versionSetKind
	exact *Version
	// range bounds; upper is exclusive
	lower, upper *Version
}

// EmptyVersionSet returns the specifier admitting no versions.
func EmptyVersionSet() VersionSetSpecifier { return emptySet }

// AnyVersionSet returns the unbounded specifier.
func AnyVersionSet() VersionSetSpecifier { return anySet }

// ExactVersionSet returns the specifier admitting only v.
func ExactVersionSet(v *Version) VersionSetSpecifier {
	return VersionSetSpecifier{kind: versionSetExact, exact: v}
}

// RangeVersionSet returns the specifier admitting versions in
// [lower, upper). A degenerate range is the empty set.
func RangeVersionSet(lower, upper *Version) VersionSetSpecifier {
	if !versionLess(lower, upper) {
		return emptySet
	}
	return VersionSetSpecifier{kind: versionSetRange, lower: lower, upper: upper}
}

// IsEmpty indicates whether the specifier admits no versions.
func (s VersionSetSpecifier) IsEmpty() bool { return s.kind == versionSetEmpty }

// IsAny indicates whether the specifier admits all versions.
func (s VersionSetSpecifier) IsAny() bool { return s.kind == versionSetAny }

// Contains indicates whether v is a member of the set.
func (s VersionSetSpecifier) Contains(v *Version) bool {
	switch s.kind {
	case versionSetEmpty:
		return false
	case versionSetAny:
		return true
	case versionSetExact:
		return versionEq(s.exact, v)
	case versionSetRange:
		return !versionLess(v, s.lower) && versionLess(v, s.upper)
	}
	panic(fmt.Sprintf("unknown version set kind %d", s.kind))
}

// Intersect computes the set of versions in both s and o. The empty
// set is the zero of intersection; the unbounded set is its identity.
func (s VersionSetSpecifier) Intersect(o VersionSetSpecifier) VersionSetSpecifier {
	if s.kind == versionSetEmpty || o.kind == versionSetEmpty {
		return emptySet
	}
	if s.kind == versionSetAny {
		return o
	}
	if o.kind == versionSetAny {
		return s
	}

	if s.kind == versionSetExact {
		if o.Contains(s.exact) {
			return s
		}
		return emptySet
	}
	if o.kind == versionSetExact {
		if s.Contains(o.exact) {
			return o
		}
		return emptySet
	}

	// both are ranges; the intersection is the overlap, or nothing
	lower := s.lower
	if versionLess(lower, o.lower) {
		lower = o.lower
	}
	upper := s.upper
	if versionLess(o.upper, upper) {
		upper = o.upper
	}
	return RangeVersionSet(lower, upper)
}

// Union computes a set containing every version in s or o. Where the
// four-state representation cannot express a disjoint union exactly,
// the result widens to the smallest representable superset.
func (s VersionSetSpecifier) Union(o VersionSetSpecifier) VersionSetSpecifier {
	if s.kind == versionSetAny || o.kind == versionSetAny {
		return anySet
	}
	if s.kind == versionSetEmpty {
		return o
	}
	if o.kind == versionSetEmpty {
		return s
	}

	if s.kind == versionSetExact && o.kind == versionSetExact {
		if versionEq(s.exact, o.exact) {
			return s
		}
		lo, hi := s.exact, o.exact
		if versionLess(hi, lo) {
			lo, hi = hi, lo
		}
		return RangeVersionSet(lo, bumpPatch(hi))
	}

	lower := s.lowerBound()
	if versionLess(o.lowerBound(), lower) {
		lower = o.lowerBound()
	}
	upper := s.upperBound()
	if versionLess(upper, o.upperBound()) {
		upper = o.upperBound()
	}
	return RangeVersionSet(lower, upper)
}

// Difference computes versions in s but not in o. Removals that would
// punch a hole in a range (unrepresentable in four states) return a
// superset: s unchanged.
func (s VersionSetSpecifier) Difference(o VersionSetSpecifier) VersionSetSpecifier {
	if s.kind == versionSetEmpty || o.kind == versionSetAny {
		return emptySet
	}
	if o.kind == versionSetEmpty {
		return s
	}

	switch s.kind {
	case versionSetAny:
		return s
	case versionSetExact:
		if o.Contains(s.exact) {
			return emptySet
		}
		return s
	case versionSetRange:
		switch o.kind {
		case versionSetExact:
			// only an edge removal at the lower bound stays contiguous;
			// the remainder starts at the least version above the bound,
			// which is a prerelease: "-0" of the next patch, or ".0"
			// appended to the bound's own prerelease
			if versionEq(o.exact, s.lower) {
				l := s.lower
				next := fmt.Sprintf("%d.%d.%d-0", l.Major(), l.Minor(), l.Patch()+1)
				if l.Prerelease() != "" {
					next = fmt.Sprintf("%d.%d.%d-%s.0", l.Major(), l.Minor(), l.Patch(), l.Prerelease())
				}
				return RangeVersionSet(MustVersion(next), s.upper)
			}
			return s
		case versionSetRange:
			if !versionLess(s.lower, o.upper) || !versionLess(o.lower, s.upper) {
				// disjoint
				return s
			}
			coversLower := !versionLess(s.lower, o.lower)
			coversUpper := !versionLess(o.upper, s.upper)
			switch {
			case coversLower && coversUpper:
				return emptySet
			case coversLower:
				return RangeVersionSet(o.upper, s.upper)
			case coversUpper:
				return RangeVersionSet(s.lower, o.lower)
			}
			// o punches an interior hole
			return s
		}
	}
	return s
}

// Equal reports structural set equality.
func (s VersionSetSpecifier) Equal(o VersionSetSpecifier) bool {
	if s.kind != o.kind {
		return false
	}
	switch s.kind {
	case versionSetExact:
		return versionEq(s.exact, o.exact)
	case versionSetRange:
		return versionEq(s.lower, o.lower) && versionEq(s.upper, o.upper)
	}
	return true
}

func (s VersionSetSpecifier) String() string {
	switch s.kind {
	case versionSetEmpty:
		return "{}"
	case versionSetAny:
		return "*"
	case versionSetExact:
		return s.exact.String()
	case versionSetRange:
		return fmt.Sprintf("[%s, %s)", s.lower, s.upper)
	}
	panic(fmt.Sprintf("unknown version set kind %d", s.kind))
}

func (s VersionSetSpecifier) lowerBound() *Version {
	if s.kind == versionSetExact {
		return s.exact
	}
	return s.lower
}

func (s VersionSetSpecifier) upperBound() *Version {
	if s.kind == versionSetExact {
		return bumpPatch(s.exact)
	}
	return s.upper
}

// bumpPatch returns the next patch version, the exclusive upper bound
// that keeps v itself admissible.
func bumpPatch(v *Version) *Version {
	n := v.IncPatch()
	return &n
}

