package depsolver

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// memoKey identifies one subtree computation: the container plus the
// entire active constraint set it was solved under. Coarse but sound;
// a narrower fingerprint with on-reuse filtering is a known possible
// refinement.
type memoKey struct {
	id PackageIdentifier
	fp string
}

// exclusionMap names versions that must not be considered per package,
// keyed by the version's canonical string.
type exclusionMap map[PackageIdentifier]map[string]bool

func (m exclusionMap) excludes(id PackageIdentifier, v *Version) bool {
	vs, has := m[id]
	return has && vs[v.String()]
}

// resolveSubtree lazily enumerates the valid assignment sets rooted at
// container under the given constraints. Results are memoized when no
// exclusions are in play; memoized sequences replay without
// re-entering the solver.
func (r *Resolver) resolveSubtree(container Container, constraints ConstraintSet, excl exclusionMap) assignSeq {
	if len(excl) > 0 {
		return r.subtreeSeq(container, constraints, excl)
	}

	key := memoKey{id: container.Identifier(), fp: constraints.fingerprint()}
	if rs, has := r.memo[key]; has {
		if r.l.Level >= logrus.DebugLevel {
			r.l.WithField("name", key.id).Debug("Subtree memo hit")
		}
		return rs.iterator()
	}
	rs := newReplayableSeq(r.subtreeSeq(container, constraints, excl))
	r.memo[key] = rs
	return rs.iterator()
}

func (r *Resolver) subtreeSeq(container Container, constraints ConstraintSet, excl exclusionMap) assignSeq {
	switch req := constraints.Get(container.Identifier()).(type) {
	case UnversionedRequirement:
		return r.unversionedSubtree(container, constraints, excl)
	case RevisionRequirement:
		return r.revisionSubtree(container, req.Revision, constraints, excl)
	case VersionSetRequirement:
		return r.versionSubtree(container, req.Set, constraints, excl)
	}
	panic("canary - unreachable requirement variant in subtree dispatch")
}

// unversionedSubtree solves for a package used as a working copy: the
// copy's own dependencies are pulled into the search here.
func (r *Resolver) unversionedSubtree(container Container, constraints ConstraintSet, excl exclusionMap) assignSeq {
	id := container.Identifier()
	var inner assignSeq
	return func() (assignmentSet, bool) {
		if r.halted() {
			return assignmentSet{}, false
		}
		if inner == nil {
			deps, err := container.GetUnversionedDependencies()
			if err != nil {
				r.latch(&ProviderError{Identifier: id, Err: errors.Wrap(err, "unversioned dependencies")})
				return assignmentSet{}, false
			}
			if containsSelf(deps, id) {
				r.latch(&CycleError{Identifier: id})
				return assignmentSet{}, false
			}
			seed := newAssignmentSet().with(container, BoundUnversioned{})
			inner = r.mergeSubtrees(deps, seed, constraints, excl)
		}
		return inner()
	}
}

// revisionSubtree solves for a package pinned to a revision. Its
// dependency list may name anything except an unversioned working
// copy.
func (r *Resolver) revisionSubtree(container Container, revision string, constraints ConstraintSet, excl exclusionMap) assignSeq {
	id := container.Identifier()
	var inner assignSeq
	return func() (assignmentSet, bool) {
		if r.halted() {
			return assignmentSet{}, false
		}
		if inner == nil {
			deps, err := container.GetRevisionDependencies(revision)
			if err != nil {
				r.latch(&ProviderError{Identifier: id, Err: errors.Wrapf(err, "dependencies at %s", revision)})
				return assignmentSet{}, false
			}
			for _, d := range deps {
				if _, unversioned := d.Requirement.(UnversionedRequirement); unversioned {
					r.latch(&RevisionDependencyContainsLocalPackageError{
						Dependency: id,
						Local:      d.Identifier,
					})
					return assignmentSet{}, false
				}
			}
			if containsSelf(deps, id) {
				r.latch(&CycleError{Identifier: id})
				return assignmentSet{}, false
			}
			seed := newAssignmentSet().with(container, BoundRevision{Revision: revision})
			inner = r.mergeSubtrees(deps, seed, constraints, excl)
		}
		return inner()
	}
}

// versionSubtree enumerates candidate versions latest-first and
// concatenates the per-candidate solution sequences in that order,
// which is what makes accepted solutions maximal.
func (r *Resolver) versionSubtree(container Container, set VersionSetSpecifier, constraints ConstraintSet, excl exclusionMap) assignSeq {
	id := container.Identifier()
	versions := container.Versions(func(v *Version) bool {
		return set.Contains(v) && !excl.excludes(id, v)
	})

	idx := 0
	var last *Version
	var inner assignSeq

	return func() (assignmentSet, bool) {
		for {
			if r.halted() {
				return assignmentSet{}, false
			}

			if inner != nil {
				if a, ok := inner(); ok {
					return a, true
				}
				inner = nil
			}

			if idx >= len(versions) {
				return assignmentSet{}, false
			}
			v := versions[idx]
			idx++

			if !container.IsToolsVersionCompatible(v) {
				if r.l.Level >= logrus.DebugLevel {
					r.l.WithFields(logrus.Fields{
						"name":    id,
						"version": v,
					}).Debug("Skipping tools-incompatible version")
				}
				continue
			}

			// Enumeration must be strictly decreasing; anything else
			// is a provider defect that would break maximality.
			if last != nil && !versionLess(v, last) {
				r.latch(&ProviderError{
					Identifier: id,
					Err:        errors.Errorf("version enumeration out of order: %s after %s", v, last),
				})
				return assignmentSet{}, false
			}
			last = v

			deps, err := container.GetDependencies(v)
			if err != nil {
				r.latch(&ProviderError{Identifier: id, Err: errors.Wrapf(err, "dependencies at %s", v)})
				return assignmentSet{}, false
			}

			if bad := nonVersionedDeps(deps); len(bad) > 0 {
				r.latch(&IncompatibleConstraintsError{
					Dependency: id,
					Version:    v,
					Revisions:  bad,
				})
				return assignmentSet{}, false
			}

			if containsSelf(deps, id) {
				r.latch(&CycleError{Identifier: id})
				return assignmentSet{}, false
			}

			if r.l.Level >= logrus.DebugLevel {
				r.l.WithFields(logrus.Fields{
					"name":    id,
					"version": v,
					"deps":    len(deps),
				}).Debug("Attempting candidate version")
			}

			seed := newAssignmentSet().with(container, BoundAt{Version: v})
			inner = r.mergeSubtrees(deps, seed, constraints, excl)
		}
	}
}

// cachedOnlyContainer is the incomplete-mode view of a container: the
// dependency lists it reports omit packages whose containers are not
// already cached, since incomplete mode never fetches.
type cachedOnlyContainer struct {
	Container
	cache *containerCache
}

func (c cachedOnlyContainer) GetDependencies(version *Version) ([]Constraint, error) {
	deps, err := c.Container.GetDependencies(version)
	return c.filter(deps), err
}

func (c cachedOnlyContainer) GetRevisionDependencies(revision string) ([]Constraint, error) {
	deps, err := c.Container.GetRevisionDependencies(revision)
	return c.filter(deps), err
}

func (c cachedOnlyContainer) GetUnversionedDependencies() ([]Constraint, error) {
	deps, err := c.Container.GetUnversionedDependencies()
	return c.filter(deps), err
}

func (c cachedOnlyContainer) filter(deps []Constraint) []Constraint {
	kept := deps[:0:0]
	for _, d := range deps {
		if c.cache.has(d.Identifier) {
			kept = append(kept, d)
		}
	}
	return kept
}

func nonVersionedDeps(deps []Constraint) []Constraint {
	var bad []Constraint
	for _, d := range deps {
		switch d.Requirement.(type) {
		case RevisionRequirement, UnversionedRequirement:
			bad = append(bad, d)
		}
	}
	return bad
}

func containsSelf(deps []Constraint, id PackageIdentifier) bool {
	for _, d := range deps {
		if d.Identifier == id {
			return true
		}
	}
	return false
}
