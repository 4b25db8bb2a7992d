package depsolver

import (
	"fmt"

	"github.com/Masterminds/semver"
)

// Version is a semantic version: major, minor, patch, optional
// prerelease identifiers and build metadata. Prereleases order below
// their release, per semver 2.0.
type Version = semver.Version

// NewVersion parses a semver string into a Version.
func NewVersion(body string) (*Version, error) {
	return semver.NewVersion(body)
}

// MustVersion parses a semver string, panicking on malformed input.
// For use with static version literals only.
func MustVersion(body string) *Version {
	v, err := semver.NewVersion(body)
	if err != nil {
		panic(fmt.Sprintf("malformed version %q: %s", body, err))
	}
	return v
}

func versionLess(a, b *Version) bool {
	return a.Compare(b) < 0
}

func versionEq(a, b *Version) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Compare(b) == 0
}
