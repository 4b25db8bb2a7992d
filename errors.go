package depsolver

import (
	"bytes"
	"errors"
	"fmt"
)

// ErrCancelled is reported when Cancel or context cancellation was
// observed during a solve.
var ErrCancelled = errors.New("dependency resolution cancelled")

// errDebugTimeout distinguishes a debugger that ran out of budget from
// one that finished minimizing; the facade then reports the untrimmed
// failure.
var errDebugTimeout = errors.New("conflict minimization exceeded its time budget")

// CycleError reports a container whose dependency list names itself.
type CycleError struct {
	Identifier PackageIdentifier
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("the package %s depends on itself", e.Identifier)
}

// IncompatibleConstraintsError reports a versioned package that
// declares dependencies on revisioned or unversioned packages, which a
// version-based consumer cannot use.
type IncompatibleConstraintsError struct {
	// Dependency is the versioned package declaring the offending
	// constraints, at the version that declares them.
	Dependency PackageIdentifier
	Version    *Version
	// Revisions are the revision- or unversioned-requirement
	// constraints it declared.
	Revisions []Constraint
}

func (e *IncompatibleConstraintsError) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "the package %s at %s has non-versioned dependencies:", e.Dependency, e.Version)
	for _, c := range e.Revisions {
		fmt.Fprintf(&buf, "\n\t%s is required %s", c.Identifier, c.Requirement)
	}
	return buf.String()
}

// RevisionDependencyContainsLocalPackageError reports a revision-bound
// package that transitively requires an unversioned working copy.
type RevisionDependencyContainsLocalPackageError struct {
	// Dependency is the revision-bound package.
	Dependency PackageIdentifier
	// Local is the unversioned package it requires.
	Local PackageIdentifier
}

func (e *RevisionDependencyContainsLocalPackageError) Error() string {
	return fmt.Sprintf("the revision-pinned package %s depends on the local package %s", e.Dependency, e.Local)
}

// MissingVersionsError reports input constraints whose containers
// expose no version satisfying them, commonly because the remote has
// not been tagged.
type MissingVersionsError struct {
	Constraints []Constraint
}

func (e *MissingVersionsError) Error() string {
	var buf bytes.Buffer
	buf.WriteString("the following constraints have no satisfying versions available:")
	for _, c := range e.Constraints {
		fmt.Fprintf(&buf, "\n\t%s", c)
	}
	return buf.String()
}

// ProviderError wraps a failure inside a container operation with the
// package it occurred for.
type ProviderError struct {
	Identifier PackageIdentifier
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("container operation for %s failed: %s", e.Identifier, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }
