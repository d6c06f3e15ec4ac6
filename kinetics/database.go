package kinetics

import (
	"context"
	"errors"
	"fmt"

	"github.com/pflow-xyz/biopetri/bgtask"
)

// ErrNotFound is returned when Database.Lookup exhausts every tier without
// a hit; Assign then proceeds to the Heuristic tier.
var ErrNotFound = errors.New("kinetics: enzyme not found in any database tier")

// Entry is a resolved EC-number lookup: Vmax/Km for a Michaelis-Menten law,
// or K for a mass-action law, whichever the source provides.
type Entry struct {
	Kind      LawKind
	Vmax      float64
	Km        float64
	K         float64
	Estimated bool   // true when the source marks this as an estimate, not measured
	Origin    string // "cache" | "remote" | "fallback"
}

// Database implements the three-tier lookup chain: local
// SQLite cache -> remote query -> bundled fallback table. A tier failure
// (timeout, unreachable, malformed response) falls through to the next
// tier; exhausting all three returns ErrNotFound.
type Database struct {
	Cache    *SQLiteCache
	Remote   *RemoteClient
	Fallback *FallbackTable

	pool *bgtask.Pool
}

// NewDatabase wires the three tiers together. Any of cache/remote may be
// nil (e.g. no SQLite file configured, or offline mode), in which case
// that tier is skipped.
func NewDatabase(cache *SQLiteCache, remote *RemoteClient) *Database {
	return &Database{Cache: cache, Remote: remote, Fallback: NewFallbackTable()}
}

// UsePool routes remote lookups through p instead of issuing the HTTP
// request on the calling goroutine: the request is submitted as a
// cancellable background task and its result drained from the task's
// queue, so the pool's concurrency limit bounds how many enzyme-database
// requests are in flight at once.
func (d *Database) UsePool(p *bgtask.Pool) {
	d.pool = p
}

// Lookup tries cache, then remote (unless offline), then the bundled
// fallback, in that order.
func (d *Database) Lookup(ctx context.Context, ec string, offline bool) (*Entry, error) {
	if d.Cache != nil {
		if e, err := d.Cache.Lookup(ec); err == nil {
			e.Origin = "cache"
			return e, nil
		}
	}
	if !offline && d.Remote != nil {
		if e, err := d.remoteLookup(ctx, ec); err == nil {
			e.Origin = "remote"
			if d.Cache != nil {
				_ = d.Cache.Store(ec, e)
			}
			return e, nil
		}
	}
	if d.Fallback != nil {
		if e, ok := d.Fallback.Lookup(ec); ok {
			e.Origin = "fallback"
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: ec=%s", ErrNotFound, ec)
}

// remoteLookup issues the network request, through the background pool
// when one is attached. The pool's context governs cancellation of the
// submitted task; the per-request deadline still applies inside
// RemoteClient.Lookup either way.
func (d *Database) remoteLookup(ctx context.Context, ec string) (*Entry, error) {
	if d.pool == nil {
		return d.Remote.Lookup(ctx, ec)
	}
	fut := d.pool.Submit(func(taskCtx context.Context) (any, error) {
		return d.Remote.Lookup(taskCtx, ec)
	})
	res := <-fut.Done()
	if res.Err != nil {
		return nil, res.Err
	}
	return res.Value.(*Entry), nil
}
