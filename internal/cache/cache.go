// Package cache keeps the client-side copy of report lists, one snapshot
// per owning identity. The cache is the single shared mutable resource of
// the client: pollers refresh it, the lifecycle controller writes mutation
// results into it, and screens only read copies out of it.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/delacruzpj/deskhub_client/internal/models"
)

// ErrMutationInFlight is returned when a second mutation is requested for a
// report whose previous mutation has not resolved yet.
var ErrMutationInFlight = errors.New("cache: a mutation for this report is already in flight")

// Key identifies the owning identity of a cached report list.
type Key struct {
	Role    models.Role
	OwnerID string
}

// Fetcher loads the report list for a key from the backend.
type Fetcher interface {
	FetchReports(ctx context.Context, key Key) ([]*models.Report, error)
}

// Meta is the cache metadata of one snapshot.
type Meta struct {
	LastFetched time.Time
	Stale       bool
	Fetched     bool
	Err         error
}

// Stats is the dashboard aggregation of one snapshot. Opened and pending
// both count as in progress.
type Stats struct {
	Unopened   int
	InProgress int
	Resolved   int
	Total      int
}

// snapshot holds reports in first-seen order so that created_at ties sort
// stably by insertion.
type snapshot struct {
	reports     []*models.Report
	lastFetched time.Time
	stale       bool
	fetched     bool
	lastErr     error
}

type Cache struct {
	mu sync.Mutex

	fetcher Fetcher
	logger  *logrus.Logger

	snapshots  map[Key]*snapshot
	refreshing map[Key]bool
	inFlight   map[string]struct{}
}

func New(fetcher Fetcher, logger *logrus.Logger) *Cache {
	return &Cache{
		fetcher:    fetcher,
		logger:     logger,
		snapshots:  make(map[Key]*snapshot),
		refreshing: make(map[Key]bool),
		inFlight:   make(map[string]struct{}),
	}
}

// List returns a copy of the snapshot for a key, sorted by created_at
// descending, ties broken by first-seen order. An unfetched or empty key
// yields an empty list.
func (c *Cache) List(key Key) []*models.Report {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[key]
	if !ok {
		return []*models.Report{}
	}

	out := make([]*models.Report, len(snap.reports))
	for i, r := range snap.reports {
		out[i] = r.Clone()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// Get returns a copy of one cached report.
func (c *Cache) Get(key Key, id string) (*models.Report, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r := c.find(key, id); r != nil {
		return r.Clone(), true
	}
	return nil, false
}

// Meta returns the cache metadata for a key.
func (c *Cache) Meta(key Key) Meta {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap, ok := c.snapshots[key]
	if !ok {
		return Meta{}
	}
	return Meta{
		LastFetched: snap.lastFetched,
		Stale:       snap.stale,
		Fetched:     snap.fetched,
		Err:         snap.lastErr,
	}
}

// Stats aggregates the snapshot for a key into dashboard counts.
func (c *Cache) Stats(key Key) Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var stats Stats
	snap, ok := c.snapshots[key]
	if !ok {
		return stats
	}
	for _, r := range snap.reports {
		stats.Total++
		switch {
		case r.Status == models.StatusUnopened:
			stats.Unopened++
		case r.Status.InProgress():
			stats.InProgress++
		case r.Status == models.StatusResolved:
			stats.Resolved++
		}
	}
	return stats
}

// Refresh fetches the list for a key and reconciles it into the snapshot.
// Refreshes are serialized per key: while one is in flight, further calls
// return the current snapshot without issuing a request. A failed fetch
// keeps the previous snapshot, marks it stale, and returns the error.
func (c *Cache) Refresh(ctx context.Context, key Key) ([]*models.Report, error) {
	c.mu.Lock()
	if c.refreshing[key] {
		// suppress request pile-up for this key
		c.mu.Unlock()
		return c.List(key), nil
	}
	c.refreshing[key] = true
	c.mu.Unlock()

	reports, err := c.fetcher.FetchReports(ctx, key)

	c.mu.Lock()
	delete(c.refreshing, key)
	snap, ok := c.snapshots[key]
	if !ok {
		snap = &snapshot{}
		c.snapshots[key] = snap
	}

	if err != nil {
		snap.stale = true
		snap.lastErr = err
		c.mu.Unlock()
		c.logger.WithError(err).WithFields(logrus.Fields{
			"role":     key.Role,
			"owner_id": key.OwnerID,
		}).Warn("Report refresh failed, keeping previous snapshot")
		return nil, fmt.Errorf("cache: refresh: %w", err)
	}

	inFlight := c.inFlightSet()
	snap.reports = Reconcile(snap.reports, reports, inFlight)
	snap.lastFetched = time.Now()
	snap.stale = false
	snap.fetched = true
	snap.lastErr = nil
	c.mu.Unlock()

	return c.List(key), nil
}

// TrackMutation claims the single in-flight mutation slot for a report.
func (c *Cache) TrackMutation(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, busy := c.inFlight[id]; busy {
		return ErrMutationInFlight
	}
	c.inFlight[id] = struct{}{}
	return nil
}

// UntrackMutation releases the in-flight slot without touching the entry.
func (c *Cache) UntrackMutation(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, id)
}

// ApplyOptimistic overlays a status onto a cached entry ahead of the server
// response and returns the previous status for rollback.
func (c *Cache) ApplyOptimistic(key Key, id string, status models.Status) (models.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := c.find(key, id)
	if r == nil {
		return "", false
	}
	prev := r.Status
	r.Status = status
	return prev, true
}

// CommitMutation replaces a cached entry with the server-confirmed record
// and releases the in-flight slot.
func (c *Cache) CommitMutation(key Key, record *models.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, record.ID)
	c.upsert(key, record)
}

// RollbackMutation restores the last known-good status after a failed
// mutation and releases the in-flight slot.
func (c *Cache) RollbackMutation(key Key, id string, prev models.Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, id)
	if r := c.find(key, id); r != nil {
		r.Status = prev
	}
}

// Upsert inserts or replaces one record, for newly filed cases.
func (c *Cache) Upsert(key Key, record *models.Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.upsert(key, record)
}

// Remove drops one record, after a confirmed delete.
func (c *Cache) Remove(key Key, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.inFlight, id)
	snap, ok := c.snapshots[key]
	if !ok {
		return
	}
	for i, r := range snap.reports {
		if r.ID == id {
			snap.reports = append(snap.reports[:i], snap.reports[i+1:]...)
			return
		}
	}
}

// InvalidateAll discards every snapshot. Fired on identity change so one
// account's reports never show under another.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshots = make(map[Key]*snapshot)
	c.inFlight = make(map[string]struct{})
}

// find returns the live entry, caller holds the lock.
func (c *Cache) find(key Key, id string) *models.Report {
	snap, ok := c.snapshots[key]
	if !ok {
		return nil
	}
	for _, r := range snap.reports {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// upsert replaces by id or appends, caller holds the lock.
func (c *Cache) upsert(key Key, record *models.Report) {
	snap, ok := c.snapshots[key]
	if !ok {
		snap = &snapshot{}
		c.snapshots[key] = snap
	}
	cp := record.Clone()
	for i, r := range snap.reports {
		if r.ID == record.ID {
			snap.reports[i] = cp
			return
		}
	}
	snap.reports = append(snap.reports, cp)
}

// inFlightSet copies the in-flight ids, caller holds the lock.
func (c *Cache) inFlightSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.inFlight))
	for id := range c.inFlight {
		set[id] = struct{}{}
	}
	return set
}
