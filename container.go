package depsolver

import "context"

// A Container abstracts over one package source: it enumerates the
// versions available for the package and exposes the constraints each
// version, revision, or working copy declares on other packages.
//
// Version enumeration is latest-first; the solver relies on that order
// for its maximality property, and asserts it.
type Container interface {
	// Identifier returns the identity this container was fetched for.
	Identifier() PackageIdentifier

	// Versions returns the available versions for which isIncluded
	// returns true, latest-first.
	Versions(isIncluded func(*Version) bool) []*Version

	// GetDependencies returns the constraints declared at the given
	// version.
	GetDependencies(version *Version) ([]Constraint, error)

	// GetRevisionDependencies returns the constraints declared at the
	// given revision.
	GetRevisionDependencies(revision string) ([]Constraint, error)

	// GetUnversionedDependencies returns the constraints declared by
	// the working copy.
	GetUnversionedDependencies() ([]Constraint, error)

	// GetUpdatedIdentifier reports the canonical identity of the
	// package once bound; identity may only be fully known after
	// resolution picks a concrete state of the package.
	GetUpdatedIdentifier(boundVersion BoundVersion) (PackageIdentifier, error)

	// IsToolsVersionCompatible indicates whether the given version can
	// be built by the running toolchain. Incompatible versions are
	// silently skipped during enumeration.
	IsToolsVersionCompatible(version *Version) bool
}

// A Provider produces containers on demand. Implementations typically
// front repository checkouts and manifest parsing; the solver treats
// them as an oracle and caches every answer for the lifetime of one
// Resolve call.
type Provider interface {
	GetContainer(ctx context.Context, id PackageIdentifier, skipUpdate bool) (Container, error)
}

// A Delegate observes container fetch lifecycle events. It has no
// control over the search.
type Delegate interface {
	// Fetching is called when a fetch for id begins.
	Fetching(id PackageIdentifier)
	// Fetched is called when the fetch for id completes, with the
	// error if it failed.
	Fetched(id PackageIdentifier, err error)
}
