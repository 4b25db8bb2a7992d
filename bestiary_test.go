package depsolver

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// This file holds the fixture bestiary: a tiny string DSL for
// declaring package universes, and the in-memory provider the solver
// tests run against.
//
// A depspec names one state of one package and the constraints it
// declares there:
//
//	dsv("a 1.0.0", "b [2.0.0,3.0.0)")   version 1.0.0 of a
//	dsv("a r:abc", "b =1.0.0")          revision abc of a
//	dsv("a local", "b *")               a's working copy
//
// Requirement strings: "*" any, "=1.2.3" exact, "[1.0.0,2.0.0)"
// half-open range, "r:abc" revision, "local" unversioned.

// nvSplit splits an "info" string on the first space into name and
// state. Panics on malformed input; fixtures must be well-formed.
func nvSplit(info string) (name, state string) {
	s := strings.SplitN(info, " ", 2)
	if len(s) < 2 {
		panic(fmt.Sprintf("malformed depspec info string %q", info))
	}
	return s[0], s[1]
}

func mkid(name string) PackageIdentifier {
	return PackageIdentifier{Identity: name}
}

// mkreq parses a requirement string.
func mkreq(body string) Requirement {
	switch {
	case body == "*":
		return VersionSetRequirement{Set: AnyVersionSet()}
	case body == "local":
		return UnversionedRequirement{}
	case strings.HasPrefix(body, "r:"):
		return RevisionRequirement{Revision: body[2:]}
	case strings.HasPrefix(body, "="):
		return VersionSetRequirement{Set: ExactVersionSet(MustVersion(body[1:]))}
	case strings.HasPrefix(body, "["):
		inner := strings.TrimSuffix(strings.TrimPrefix(body, "["), ")")
		parts := strings.SplitN(inner, ",", 2)
		if len(parts) != 2 {
			panic(fmt.Sprintf("malformed range %q", body))
		}
		return VersionSetRequirement{Set: RangeVersionSet(
			MustVersion(strings.TrimSpace(parts[0])),
			MustVersion(strings.TrimSpace(parts[1])),
		)}
	}
	panic(fmt.Sprintf("malformed requirement %q", body))
}

// mkdep parses "name requirement" into a Constraint.
func mkdep(info string) Constraint {
	name, req := nvSplit(info)
	return Constraint{Identifier: mkid(name), Requirement: mkreq(req)}
}

func mkdeps(infos ...string) []Constraint {
	out := make([]Constraint, 0, len(infos))
	for _, s := range infos {
		out = append(out, mkdep(s))
	}
	return out
}

type depspec struct {
	name  string
	state string // version string, "r:<rev>", or "local"
	deps  []Constraint
}

func dsv(nv string, deps ...string) depspec {
	name, state := nvSplit(nv)
	return depspec{name: name, state: state, deps: mkdeps(deps...)}
}

// fixContainer is the in-memory Container over a set of depspecs for
// one package.
type fixContainer struct {
	id           PackageIdentifier
	versions     []*Version // latest-first
	deps         map[string][]Constraint
	revDeps      map[string][]Constraint
	localDeps    []Constraint
	hasLocal     bool
	incompatible map[string]bool
	updated      *PackageIdentifier
}

func (c *fixContainer) Identifier() PackageIdentifier { return c.id }

func (c *fixContainer) Versions(isIncluded func(*Version) bool) []*Version {
	var out []*Version
	for _, v := range c.versions {
		if isIncluded(v) {
			out = append(out, v)
		}
	}
	return out
}

func (c *fixContainer) GetDependencies(version *Version) ([]Constraint, error) {
	deps, has := c.deps[version.String()]
	if !has {
		return nil, errors.Errorf("no version %s of %s", version, c.id)
	}
	return deps, nil
}

func (c *fixContainer) GetRevisionDependencies(revision string) ([]Constraint, error) {
	deps, has := c.revDeps[revision]
	if !has {
		return nil, errors.Errorf("no revision %s of %s", revision, c.id)
	}
	return deps, nil
}

func (c *fixContainer) GetUnversionedDependencies() ([]Constraint, error) {
	if !c.hasLocal {
		return nil, nil
	}
	return c.localDeps, nil
}

func (c *fixContainer) GetUpdatedIdentifier(BoundVersion) (PackageIdentifier, error) {
	if c.updated != nil {
		return *c.updated, nil
	}
	return c.id, nil
}

func (c *fixContainer) IsToolsVersionCompatible(version *Version) bool {
	return !c.incompatible[version.String()]
}

// fixProvider serves fixContainers, recording fetch order and
// optionally gating fetches on a channel so tests can hold them open.
type fixProvider struct {
	mu         sync.Mutex
	containers map[PackageIdentifier]*fixContainer
	errs       map[PackageIdentifier]error
	fetched    []PackageIdentifier
	gate       chan struct{}
}

// mkprovider groups depspecs by package into an in-memory provider.
func mkprovider(specs ...depspec) *fixProvider {
	containers := make(map[PackageIdentifier]*fixContainer)
	for _, ds := range specs {
		id := mkid(ds.name)
		c, has := containers[id]
		if !has {
			c = &fixContainer{
				id:           id,
				deps:         make(map[string][]Constraint),
				revDeps:      make(map[string][]Constraint),
				incompatible: make(map[string]bool),
			}
			containers[id] = c
		}

		switch {
		case ds.state == "local":
			c.hasLocal = true
			c.localDeps = ds.deps
		case strings.HasPrefix(ds.state, "r:"):
			c.revDeps[ds.state[2:]] = ds.deps
		default:
			v := MustVersion(ds.state)
			c.versions = append(c.versions, v)
			c.deps[v.String()] = ds.deps
		}
	}

	for _, c := range containers {
		vs := c.versions
		sort.Slice(vs, func(i, j int) bool { return vs[j].LessThan(vs[i]) })
	}
	return &fixProvider{
		containers: containers,
		errs:       make(map[PackageIdentifier]error),
	}
}

func (p *fixProvider) GetContainer(ctx context.Context, id PackageIdentifier, skipUpdate bool) (Container, error) {
	if p.gate != nil {
		<-p.gate
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetched = append(p.fetched, id)

	if err, has := p.errs[id]; has {
		return nil, err
	}
	c, has := p.containers[id]
	if !has {
		return nil, errors.Errorf("unknown package %s", id)
	}
	return c, nil
}

func (p *fixProvider) fetchCount(id PackageIdentifier) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, f := range p.fetched {
		if f == id {
			n++
		}
	}
	return n
}

// markIncompatible flags versions of a package as failing the tools
// check.
func (p *fixProvider) markIncompatible(name string, versions ...string) {
	c := p.containers[mkid(name)]
	for _, v := range versions {
		c.incompatible[v] = true
	}
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func mksolver(p Provider) *Resolver {
	return New(p, nil, testLogger(), false, false)
}

// wantB declares one expected binding, "a 1.0.0" / "a r:abc" /
// "a local" / "a excluded".
func wantB(infos ...string) []Binding {
	out := make([]Binding, 0, len(infos))
	for _, info := range infos {
		name, state := nvSplit(info)
		var b BoundVersion
		switch {
		case state == "local":
			b = BoundUnversioned{}
		case state == "excluded":
			b = Excluded{}
		case strings.HasPrefix(state, "r:"):
			b = BoundRevision{Revision: state[2:]}
		default:
			b = BoundAt{Version: MustVersion(state)}
		}
		out = append(out, Binding{Identifier: mkid(name), BoundVersion: b})
	}
	return out
}

func bindingsEqual(a, b []Binding) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Identifier != b[i].Identifier || !boundEqual(a[i].BoundVersion, b[i].BoundVersion) {
			return false
		}
	}
	return true
}

func fmtBindings(bs []Binding) string {
	parts := make([]string, 0, len(bs))
	for _, b := range bs {
		parts = append(parts, b.Identifier.String()+" "+b.BoundVersion.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
