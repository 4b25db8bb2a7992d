package depsolver

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

type containerEntry struct {
	container Container
	err       error
}

// containerCache memoizes container fetches for the lifetime of one
// resolution. Fetches requested while a prefetch for the same package
// is in flight block on the condition variable instead of fetching
// twice. Fetch errors are cached and surfaced on every subsequent get.
//
// All state transitions happen under mu; only the outbound provider
// request runs outside it.
type containerCache struct {
	provider   Provider
	delegate   Delegate
	skipUpdate bool

	mu          sync.Mutex
	cond        *sync.Cond
	containers  map[PackageIdentifier]containerEntry
	prefetching map[PackageIdentifier]bool
	group       errgroup.Group
}

func newContainerCache(provider Provider, delegate Delegate, skipUpdate bool) *containerCache {
	cc := &containerCache{
		provider:    provider,
		delegate:    delegate,
		skipUpdate:  skipUpdate,
		containers:  make(map[PackageIdentifier]containerEntry),
		prefetching: make(map[PackageIdentifier]bool),
	}
	cc.cond = sync.NewCond(&cc.mu)
	return cc
}

// get returns the container for id, fetching it synchronously if no
// prior fetch or in-flight prefetch covers it.
func (cc *containerCache) get(ctx context.Context, id PackageIdentifier) (Container, error) {
	cc.mu.Lock()
	for {
		if e, has := cc.containers[id]; has {
			cc.mu.Unlock()
			return e.container, e.err
		}
		if !cc.prefetching[id] {
			break
		}
		cc.cond.Wait()
	}

	// Not cached, not being prefetched: fetch on the calling thread.
	// Mark the id so a racing prefetch folds in with this request.
	cc.prefetching[id] = true
	cc.mu.Unlock()

	container, err := cc.fetch(ctx, id)

	cc.mu.Lock()
	cc.containers[id] = containerEntry{container: container, err: err}
	delete(cc.prefetching, id)
	cc.cond.Broadcast()
	cc.mu.Unlock()

	return container, err
}

// has indicates whether id is already cached, without fetching. Used
// by incomplete mode, which refuses to touch uncached containers.
func (cc *containerCache) has(id PackageIdentifier) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	_, ok := cc.containers[id]
	return ok
}

// prefetch requests the given ids asynchronously. Ids already cached
// or already being prefetched are left alone. Errors are cached and
// reported by the get that first reads them.
func (cc *containerCache) prefetch(ctx context.Context, ids []PackageIdentifier) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	for _, id := range ids {
		if _, has := cc.containers[id]; has {
			continue
		}
		if cc.prefetching[id] {
			continue
		}
		cc.prefetching[id] = true

		id := id
		cc.group.Go(func() error {
			container, err := cc.fetch(ctx, id)

			cc.mu.Lock()
			cc.containers[id] = containerEntry{container: container, err: err}
			delete(cc.prefetching, id)
			cc.cond.Broadcast()
			cc.mu.Unlock()
			return nil
		})
	}
}

// wait blocks until every in-flight prefetch has landed, so that no
// fetch goroutine outlives the resolution that started it.
func (cc *containerCache) wait() {
	_ = cc.group.Wait()
}

func (cc *containerCache) fetch(ctx context.Context, id PackageIdentifier) (Container, error) {
	if cc.delegate != nil {
		cc.delegate.Fetching(id)
	}
	container, err := cc.provider.GetContainer(ctx, id, cc.skipUpdate)
	if err != nil {
		err = &ProviderError{Identifier: id, Err: errors.Wrap(err, "fetching container")}
	}
	if cc.delegate != nil {
		cc.delegate.Fetched(id, err)
	}
	return container, err
}

// identifiers returns the cached identifiers, sorted, for diagnostics.
func (cc *containerCache) identifiers() []PackageIdentifier {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	ids := make([]PackageIdentifier, 0, len(cc.containers))
	for id := range cc.containers {
		ids = append(ids, id)
	}
	sortIdentifiers(ids)
	return ids
}
