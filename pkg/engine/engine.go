package engine

import (
	"context"
	"errors"

	"github.com/arkiv-labs/dossier/backend/pkg/store"

	"golang.org/x/sync/singleflight"
)

const (
	defaultMaxNetworkDepth = 4
	defaultMaxPathDepth    = 6
	defaultParallelFetches = 8
)

// MergeLocker serializes merges across callers and processes. fn runs while
// the lock for key is held; the lock context is canceled if the lock is lost.
type MergeLocker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Engine answers relationship-graph queries over a PersonStore: bounded
// network expansion, shortest connection paths, duplicate detection and
// duplicate merging. All query operations are stateless and safe for
// concurrent use; MergePersons is the only mutation.
type Engine struct {
	store  store.PersonStore
	scorer Scorer
	locker MergeLocker

	maxNetworkDepth int
	maxPathDepth    int
	parallelFetches int

	dupeFlight singleflight.Group
}

// Params defines the configuration for creating an Engine.
//
// Store is required. Scorer defaults to Jaro-Winkler. Locker is optional;
// without one, merges rely solely on the store's own transaction locking.
// MaxNetworkDepth and MaxPathDepth clamp caller-supplied bounds to keep
// worst-case traversal work bounded on dense graphs.
type Params struct {
	Store  store.PersonStore
	Scorer Scorer
	Locker MergeLocker

	MaxNetworkDepth int
	MaxPathDepth    int
	ParallelFetches int
}

// New creates an Engine configured with the provided parameters.
func New(params Params) (*Engine, error) {
	if params.Store == nil {
		return nil, errors.New("engine: store is required")
	}

	e := &Engine{
		store:           params.Store,
		scorer:          params.Scorer,
		locker:          params.Locker,
		maxNetworkDepth: params.MaxNetworkDepth,
		maxPathDepth:    params.MaxPathDepth,
		parallelFetches: params.ParallelFetches,
	}
	if e.scorer == nil {
		e.scorer = JaroWinkler{}
	}
	if e.maxNetworkDepth <= 0 {
		e.maxNetworkDepth = defaultMaxNetworkDepth
	}
	if e.maxPathDepth <= 0 {
		e.maxPathDepth = defaultMaxPathDepth
	}
	if e.parallelFetches <= 0 {
		e.parallelFetches = defaultParallelFetches
	}
	return e, nil
}
