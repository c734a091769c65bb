// Package leaselock implements a renewable lease lock on a Postgres table.
// The merge path uses it to serialize person merges across processes.
package leaselock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

var (
	ErrBusy = errors.New("lease lock busy")
	ErrLost = errors.New("lease lock lost")
)

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Client acquires leases against one database.
type Client struct {
	db dbConn

	ttl        time.Duration
	renewEvery time.Duration

	wait         bool
	waitInterval time.Duration
}

// Options tune lease behavior. Zero values fall back to a 2 minute TTL
// renewed at half-life, with non-waiting acquisition.
type Options struct {
	TTL        time.Duration
	RenewEvery time.Duration

	// Wait retries acquisition at WaitInterval instead of failing with
	// ErrBusy when the lock is held.
	Wait         bool
	WaitInterval time.Duration
}

// New creates a lease client over the given pool.
func New(pool *pgxpool.Pool, opts Options) *Client {
	if opts.TTL <= 0 {
		opts.TTL = 2 * time.Minute
	}
	if opts.RenewEvery <= 0 || opts.RenewEvery >= opts.TTL {
		opts.RenewEvery = max(opts.TTL/2, time.Second)
	}
	if opts.WaitInterval <= 0 {
		opts.WaitInterval = 250 * time.Millisecond
	}
	return &Client{
		db:           pool,
		ttl:          opts.TTL,
		renewEvery:   opts.RenewEvery,
		wait:         opts.Wait,
		waitInterval: opts.WaitInterval,
	}
}

// WithLock runs fn while holding the lease for key. The context passed to
// fn is canceled if the lease is lost, so long transactions notice before
// another holder takes over.
//
// WithLock satisfies the engine's MergeLocker interface.
func (c *Client) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	lease, err := c.acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		_ = lease.release(context.Background())
	}()
	return fn(lease.ctx)
}

type lease struct {
	key   string
	token string
	ctx   context.Context

	client *Client
	cancel context.CancelCauseFunc

	stopOnce sync.Once
	stopCh   chan struct{}
}

func (c *Client) acquire(ctx context.Context, key string) (*lease, error) {
	if key == "" {
		return nil, errors.New("lease lock key is empty")
	}

	token, err := gonanoid.New()
	if err != nil {
		return nil, err
	}
	ttlMs := c.ttl.Milliseconds()

	for {
		var returnedKey string
		err := c.db.QueryRow(ctx, tryAcquireSQL, key, token, ttlMs).Scan(&returnedKey)
		if err == nil && returnedKey != "" {
			break
		}
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		if !c.wait {
			return nil, ErrBusy
		}
		if err := sleep(ctx, c.waitInterval); err != nil {
			return nil, err
		}
	}

	leaseCtx, cancel := context.WithCancelCause(ctx)
	l := &lease{
		key:    key,
		token:  token,
		ctx:    leaseCtx,
		client: c,
		cancel: cancel,
		stopCh: make(chan struct{}),
	}
	go l.renewLoop(ttlMs)
	return l, nil
}

func (l *lease) release(ctx context.Context) error {
	l.stopOnce.Do(func() {
		close(l.stopCh)
		l.cancel(context.Canceled)
	})
	_, err := l.client.db.Exec(ctx, releaseSQL, l.key, l.token)
	return err
}

func (l *lease) renewLoop(ttlMs int64) {
	t := time.NewTicker(l.client.renewEvery)
	defer t.Stop()

	for {
		select {
		case <-l.stopCh:
			return
		case <-l.ctx.Done():
			return
		case <-t.C:
			if err := l.renewOnce(ttlMs); err != nil {
				l.cancel(err)
				return
			}
		}
	}
}

func (l *lease) renewOnce(ttlMs int64) error {
	renewCtx, cancel := context.WithTimeout(l.ctx, 15*time.Second)
	defer cancel()

	var returnedKey string
	err := l.client.db.QueryRow(renewCtx, renewSQL, l.key, l.token, ttlMs).Scan(&returnedKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrLost
	}
	return err
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const tryAcquireSQL = `
INSERT INTO app_locks (lock_key, locked_by, expires_at)
VALUES ($1, $2, now() + ($3::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by  = EXCLUDED.locked_by,
    expires_at = EXCLUDED.expires_at
WHERE app_locks.expires_at < now()
   OR app_locks.locked_by = EXCLUDED.locked_by
RETURNING lock_key;
`

const renewSQL = `
UPDATE app_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING lock_key;
`

const releaseSQL = `
DELETE FROM app_locks
WHERE lock_key = $1 AND locked_by = $2;
`
