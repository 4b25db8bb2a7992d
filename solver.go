package depsolver

import (
	"context"
	"sync"
	"time"

	"github.com/sdboyer/constext"
	"github.com/sirupsen/logrus"
)

const defaultDebugBudget = 10 * time.Second

// A Resolver computes complete, maximal bindings for a set of input
// constraints, consulting a Provider for the universe of packages.
//
// The search is a depth-first, lazy, backtracking walk over persistent
// constraint and assignment sets. It runs on the calling goroutine;
// only container fetching is concurrent. A Resolver may be used for
// any number of sequential Resolve calls, but calls must not overlap.
type Resolver struct {
	provider    Provider
	delegate    Delegate
	l           *logrus.Logger
	prefetch    bool
	skipUpdate  bool
	debugBudget time.Duration

	lifetimeCtx context.Context
	cancelLife  context.CancelFunc

	// latchmu guards latched. The latch is the sole channel by which
	// failures inside lazy iterators reach the facade; iterators
	// observe it and terminate rather than returning errors through
	// the generator pipeline.
	latchmu sync.Mutex
	latched error

	// Per-invocation state. The search is single-threaded, so none of
	// this needs locking; the cache has its own.
	cache      *containerCache
	memo       map[memoKey]*replayableSeq
	incomplete bool
	ctx        context.Context
}

// New creates a Resolver backed by the given provider. The delegate
// and logger may be nil. When prefetch is set, containers for input
// constraints are requested eagerly and in parallel with the search.
// skipUpdate is passed through to the provider on every fetch.
func New(provider Provider, delegate Delegate, l *logrus.Logger, prefetch, skipUpdate bool) *Resolver {
	if l == nil {
		l = logrus.New()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Resolver{
		provider:    provider,
		delegate:    delegate,
		l:           l,
		prefetch:    prefetch,
		skipUpdate:  skipUpdate,
		debugBudget: defaultDebugBudget,
		lifetimeCtx: ctx,
		cancelLife:  cancel,
	}
}

// Cancel stops an in-flight Resolve. Safe to call from any goroutine;
// the search observes it at its next step. A cancelled Resolver stays
// cancelled.
func (r *Resolver) Cancel() {
	r.latchmu.Lock()
	if r.latched == nil {
		r.latched = ErrCancelled
	}
	r.latchmu.Unlock()
	r.cancelLife()
}

// Containers returns the identifiers fetched so far, sorted, for
// diagnostic use.
func (r *Resolver) Containers() []PackageIdentifier {
	if r.cache == nil {
		return nil
	}
	return r.cache.identifiers()
}

// Resolve finds a complete assignment satisfying every input
// constraint and pin. On success the result carries one binding per
// transitively referenced package, in the deterministic order the
// search fixed them. When no assignment exists the inputs are
// minimized to a smallest still-failing subset before being reported.
func (r *Resolver) Resolve(ctx context.Context, constraints, pins []Constraint) Result {
	cctx, cancel := constext.Cons(ctx, r.lifetimeCtx)
	defer cancel()
	r.ctx = cctx

	r.cache = newContainerCache(r.provider, r.delegate, r.skipUpdate)
	defer r.cache.wait()
	r.incomplete = false

	res := r.resolveOnce(constraints, pins)
	if !res.Unsatisfiable {
		return res
	}

	if r.l.Level >= logrus.InfoLevel {
		r.l.WithFields(logrus.Fields{
			"deps": len(constraints),
			"pins": len(pins),
		}).Info("No solution found, minimizing inputs")
	}

	mindeps, minpins, err := r.debugUnsatisfiable(constraints, pins)
	if err != nil {
		// Out of budget; report the untrimmed failure.
		if r.l.Level >= logrus.WarnLevel {
			r.l.WithField("err", err).Warn("Conflict minimization abandoned")
		}
		return res
	}
	return Result{Unsatisfiable: true, Dependencies: mindeps, Pins: minpins}
}

// resolveOnce runs one full search over the given inputs, without the
// post-failure diagnosis loop. The debugger drives it directly for its
// trials.
func (r *Resolver) resolveOnce(constraints, pins []Constraint) Result {
	r.resetLatch()
	r.memo = make(map[memoKey]*replayableSeq)
	if err := r.latchedErr(); err != nil {
		return Result{Err: err}
	}

	// Seed the active constraint set with every input, then the pins.
	// Input conflicts are a failure; pin conflicts silently keep the
	// first-merged pin.
	seed := NewConstraintSet()
	var ok bool
	for _, c := range constraints {
		seed, ok = seed.Merge(c)
		if !ok {
			return Result{Unsatisfiable: true, Dependencies: constraints, Pins: pins}
		}
	}
	for _, p := range pins {
		if merged, ok := seed.Merge(p); ok {
			seed = merged
		} else if r.l.Level >= logrus.DebugLevel {
			r.l.WithField("pin", p.String()).Debug("Dropping pin incompatible with earlier inputs")
		}
	}

	if r.prefetch && !r.incomplete {
		ids := make([]PackageIdentifier, 0, len(constraints))
		for _, c := range constraints {
			ids = append(ids, c.Identifier)
		}
		r.cache.prefetch(r.ctx, ids)
	}

	seq := r.mergeSubtrees(constraints, newAssignmentSet(), seed, nil)
	a, found := seq()

	if found {
		return r.successResult(a)
	}

	if err := r.latchedErr(); err != nil {
		return Result{Err: err}
	}
	if missing := r.diagnoseMissingVersions(constraints); len(missing) > 0 {
		return Result{Err: &MissingVersionsError{Constraints: missing}}
	}
	return Result{Unsatisfiable: true, Dependencies: constraints, Pins: pins}
}

func (r *Resolver) successResult(a assignmentSet) Result {
	if ok, err := a.checkIfValidAndComplete(); err != nil {
		return Result{Err: err}
	} else if !ok {
		panic("canary - search produced an invalid or incomplete assignment")
	}

	bindings := make([]Binding, 0, a.len())
	for _, id := range a.order {
		e := a.entries[id]
		updated, err := e.container.GetUpdatedIdentifier(e.binding)
		if err != nil {
			return Result{Err: &ProviderError{Identifier: id, Err: err}}
		}
		bindings = append(bindings, Binding{Identifier: updated, BoundVersion: e.binding})
	}

	if r.l.Level >= logrus.InfoLevel {
		r.l.WithField("count", len(bindings)).Info("Found complete assignment")
	}
	return Result{Bindings: bindings}
}

// diagnoseMissingVersions finds input constraints whose containers
// expose no satisfying version at all; these explain a failure better
// than a generic unsatisfiability report.
func (r *Resolver) diagnoseMissingVersions(constraints []Constraint) []Constraint {
	var missing []Constraint
	for _, c := range constraints {
		vs, ok := c.Requirement.(VersionSetRequirement)
		if !ok {
			continue
		}
		if r.incomplete && !r.cache.has(c.Identifier) {
			continue
		}
		container, err := r.cache.get(r.ctx, c.Identifier)
		if err != nil {
			continue
		}
		if len(container.Versions(vs.Set.Contains)) == 0 {
			missing = append(missing, c)
		}
	}
	return missing
}

// latch records err as the search-terminating failure, unless one is
// already recorded. Every lazy iterator checks the latch before doing
// work and yields empty once it is set.
func (r *Resolver) latch(err error) {
	r.latchmu.Lock()
	if r.latched == nil {
		r.latched = err
	}
	r.latchmu.Unlock()
}

func (r *Resolver) latchedErr() error {
	r.latchmu.Lock()
	defer r.latchmu.Unlock()
	return r.latched
}

// halted indicates the search must stop: an error is latched or a
// context was cancelled. Observing a context cancellation latches
// ErrCancelled so the facade reports it.
func (r *Resolver) halted() bool {
	if r.latchedErr() != nil {
		return true
	}
	if r.ctx != nil && r.ctx.Err() != nil {
		r.latch(ErrCancelled)
		return true
	}
	return false
}

// resetLatch clears per-run failures. Cancellation sticks: once the
// resolver's lifetime context is dead, every run reports cancelled.
func (r *Resolver) resetLatch() {
	r.latchmu.Lock()
	defer r.latchmu.Unlock()
	if r.lifetimeCtx.Err() != nil {
		r.latched = ErrCancelled
		return
	}
	r.latched = nil
}
