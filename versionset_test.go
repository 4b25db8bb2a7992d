package depsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mkrange(lower, upper string) VersionSetSpecifier {
	return RangeVersionSet(MustVersion(lower), MustVersion(upper))
}

func TestVersionOrdering(t *testing.T) {
	ordered := []string{"0.9.0", "1.0.0-alpha", "1.0.0-alpha.1", "1.0.0-beta", "1.0.0", "1.0.1", "1.1.0", "2.0.0"}
	for i := 0; i < len(ordered)-1; i++ {
		lo, hi := MustVersion(ordered[i]), MustVersion(ordered[i+1])
		assert.True(t, versionLess(lo, hi), "%s should sort below %s", lo, hi)
		assert.False(t, versionLess(hi, lo))
	}
}

func TestVersionSetContains(t *testing.T) {
	r := mkrange("1.0.0", "2.0.0")
	assert.True(t, r.Contains(MustVersion("1.0.0")))
	assert.True(t, r.Contains(MustVersion("1.9.9")))
	assert.False(t, r.Contains(MustVersion("2.0.0")), "upper bound is exclusive")
	assert.False(t, r.Contains(MustVersion("0.9.9")))

	assert.True(t, AnyVersionSet().Contains(MustVersion("0.0.1")))
	assert.False(t, EmptyVersionSet().Contains(MustVersion("0.0.1")))

	e := ExactVersionSet(MustVersion("1.2.3"))
	assert.True(t, e.Contains(MustVersion("1.2.3")))
	assert.False(t, e.Contains(MustVersion("1.2.4")))
}

func TestVersionSetDegenerateRange(t *testing.T) {
	assert.True(t, mkrange("2.0.0", "2.0.0").IsEmpty())
	assert.True(t, mkrange("2.0.0", "1.0.0").IsEmpty())
}

func TestVersionSetIntersection(t *testing.T) {
	a := mkrange("1.0.0", "3.0.0")
	b := mkrange("2.0.0", "4.0.0")

	got := a.Intersect(b)
	assert.True(t, got.Equal(mkrange("2.0.0", "3.0.0")))

	// disjoint ranges intersect to nothing
	assert.True(t, mkrange("1.0.0", "2.0.0").Intersect(mkrange("3.0.0", "4.0.0")).IsEmpty())

	// exact against range
	e := ExactVersionSet(MustVersion("2.5.0"))
	assert.True(t, a.Intersect(e).Equal(e))
	assert.True(t, e.Intersect(mkrange("3.0.0", "4.0.0")).IsEmpty())
}

func TestVersionSetIntersectionLaws(t *testing.T) {
	sets := []VersionSetSpecifier{
		EmptyVersionSet(),
		AnyVersionSet(),
		ExactVersionSet(MustVersion("1.5.0")),
		mkrange("1.0.0", "2.0.0"),
		mkrange("1.5.0", "3.0.0"),
		mkrange("4.0.0", "5.0.0"),
	}

	for _, a := range sets {
		// idempotence
		assert.True(t, a.Intersect(a).Equal(a), "a ∩ a != a for %s", a)
		// identity and zero
		assert.True(t, a.Intersect(AnyVersionSet()).Equal(a))
		assert.True(t, a.Intersect(EmptyVersionSet()).IsEmpty())

		for _, b := range sets {
			// commutativity
			assert.True(t, a.Intersect(b).Equal(b.Intersect(a)), "a ∩ b != b ∩ a for %s, %s", a, b)

			for _, c := range sets {
				// associativity
				l := a.Intersect(b).Intersect(c)
				r := a.Intersect(b.Intersect(c))
				assert.True(t, l.Equal(r), "(a∩b)∩c != a∩(b∩c) for %s, %s, %s", a, b, c)
			}
		}
	}
}

func TestVersionSetUnion(t *testing.T) {
	// overlapping ranges merge exactly
	got := mkrange("1.0.0", "2.0.0").Union(mkrange("1.5.0", "3.0.0"))
	assert.True(t, got.Equal(mkrange("1.0.0", "3.0.0")))

	// identity and absorbing elements
	r := mkrange("1.0.0", "2.0.0")
	assert.True(t, r.Union(EmptyVersionSet()).Equal(r))
	assert.True(t, r.Union(AnyVersionSet()).IsAny())

	// a union always contains both operands
	sets := []VersionSetSpecifier{
		ExactVersionSet(MustVersion("1.0.0")),
		ExactVersionSet(MustVersion("4.0.0")),
		mkrange("1.0.0", "2.0.0"),
		mkrange("3.0.0", "5.0.0"),
	}
	probes := []string{"1.0.0", "1.5.0", "3.0.0", "4.0.0", "4.9.9"}
	for _, a := range sets {
		for _, b := range sets {
			u := a.Union(b)
			for _, p := range probes {
				v := MustVersion(p)
				if a.Contains(v) || b.Contains(v) {
					assert.True(t, u.Contains(v), "%s ∪ %s lost %s", a, b, v)
				}
			}
		}
	}
}

func TestVersionSetDifference(t *testing.T) {
	r := mkrange("1.0.0", "3.0.0")

	assert.True(t, r.Difference(EmptyVersionSet()).Equal(r))
	assert.True(t, r.Difference(AnyVersionSet()).IsEmpty())

	// removal at the edges stays representable
	assert.True(t, r.Difference(mkrange("1.0.0", "2.0.0")).Equal(mkrange("2.0.0", "3.0.0")))
	assert.True(t, r.Difference(mkrange("2.0.0", "4.0.0")).Equal(mkrange("1.0.0", "2.0.0")))
	assert.True(t, r.Difference(mkrange("0.5.0", "4.0.0")).IsEmpty())

	e := ExactVersionSet(MustVersion("2.0.0"))
	assert.True(t, e.Difference(r).IsEmpty())
	assert.True(t, e.Difference(mkrange("3.0.0", "4.0.0")).Equal(e))

	// an interior removal cannot shrink the representation; the
	// result must still cover everything actually remaining
	interior := r.Difference(mkrange("1.5.0", "2.0.0"))
	require.True(t, interior.Contains(MustVersion("1.0.0")))
	require.True(t, interior.Contains(MustVersion("2.5.0")))
}

func TestVersionSetString(t *testing.T) {
	assert.Equal(t, "{}", EmptyVersionSet().String())
	assert.Equal(t, "*", AnyVersionSet().String())
	assert.Equal(t, "1.2.3", ExactVersionSet(MustVersion("1.2.3")).String())
	assert.Equal(t, "[1.0.0, 2.0.0)", mkrange("1.0.0", "2.0.0").String())
}
