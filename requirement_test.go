package depsolver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeVersionSetRequirements(t *testing.T) {
	a := VersionSetRequirement{Set: mkrange("1.0.0", "3.0.0")}
	b := VersionSetRequirement{Set: mkrange("2.0.0", "4.0.0")}

	merged, ok := mergeRequirements(a, b)
	require.True(t, ok)
	assert.True(t, merged.(VersionSetRequirement).Set.Equal(mkrange("2.0.0", "3.0.0")))

	// empty intersection fails the merge
	_, ok = mergeRequirements(a, VersionSetRequirement{Set: mkrange("5.0.0", "6.0.0")})
	assert.False(t, ok)
}

func TestMergeRevisionRequirements(t *testing.T) {
	rev := RevisionRequirement{Revision: "abc123"}

	// identical revisions are a no-op
	merged, ok := mergeRequirements(rev, RevisionRequirement{Revision: "abc123"})
	require.True(t, ok)
	assert.Equal(t, rev, merged)

	// differing revisions cannot merge
	_, ok = mergeRequirements(rev, RevisionRequirement{Revision: "def456"})
	assert.False(t, ok)

	// a revision may land on an unconstrained version set...
	merged, ok = mergeRequirements(anyRequirement(), rev)
	require.True(t, ok)
	assert.Equal(t, rev, merged)

	// ...but not on a constrained one, in either direction
	vs := VersionSetRequirement{Set: mkrange("1.0.0", "2.0.0")}
	_, ok = mergeRequirements(vs, rev)
	assert.False(t, ok)
	_, ok = mergeRequirements(rev, vs)
	assert.False(t, ok)
}

func TestMergeUnversionedDominates(t *testing.T) {
	local := UnversionedRequirement{}
	others := []Requirement{
		anyRequirement(),
		VersionSetRequirement{Set: mkrange("1.0.0", "2.0.0")},
		VersionSetRequirement{Set: ExactVersionSet(MustVersion("1.0.0"))},
		RevisionRequirement{Revision: "abc123"},
		UnversionedRequirement{},
	}

	for _, other := range others {
		merged, ok := mergeRequirements(other, local)
		require.True(t, ok, "unversioned failed to merge over %s", other)
		assert.Equal(t, local, merged)

		merged, ok = mergeRequirements(local, other)
		require.True(t, ok, "%s failed to merge into unversioned", other)
		assert.Equal(t, local, merged)
	}
}
