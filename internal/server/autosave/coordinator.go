// Package autosave coalesces rapid note edits into delayed persistence.
// Each note id carries at most one pending record and one scheduled flush;
// recording a new edit replaces both, so a burst of edits inside one delay
// window produces exactly one store write holding the latest data.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/notesync/internal/logging"
)

// DefaultDelay is the passive auto-save window.
const DefaultDelay = 2 * time.Minute

// Store persists the latest note data when a flush fires.
type Store interface {
	Save(ctx context.Context, id, heading, content string, createdAt time.Time) error
}

// Pending is the in-memory edit record for one note. While it exists it is
// the authoritative source for reads of that note, superseding the store.
type Pending struct {
	Heading   string
	Content   string
	StartedAt time.Time
}

type entry struct {
	heading   string
	content   string
	startedAt time.Time
	timer     *time.Timer
}

type Coordinator struct {
	mu      sync.Mutex
	pending map[string]*entry

	store  Store
	delay  time.Duration
	logger logging.Logger
}

func New(store Store, delay time.Duration, logger logging.Logger) *Coordinator {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Coordinator{
		pending: make(map[string]*entry),
		store:   store,
		delay:   delay,
		logger:  logger.With("module", "autosave"),
	}
}

// RecordEdit overwrites the pending data for id with the latest values and
// restarts its flush timer. The first edit for an id captures the edit
// session start time, used as the createdAt candidate at flush time.
func (c *Coordinator) RecordEdit(id, heading, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.pending[id]
	if ok {
		e.timer.Stop()
		e.heading = heading
		e.content = content
	} else {
		e = &entry{
			heading:   heading,
			content:   content,
			startedAt: time.Now().UTC(),
		}
		c.pending[id] = e
	}

	e.timer = time.AfterFunc(c.delay, func() {
		c.flushExpired(id, e)
	})
}

// flushExpired is the timer callback. The entry identity check discards
// callbacks whose timer was replaced after they were already scheduled to run.
func (c *Coordinator) flushExpired(id string, fired *entry) {
	c.mu.Lock()
	e, ok := c.pending[id]
	if !ok || e != fired {
		c.mu.Unlock()
		return
	}
	delete(c.pending, id)
	c.mu.Unlock()

	ctx := context.Background()
	if err := c.store.Save(ctx, id, e.heading, e.content, e.startedAt); err != nil {
		c.logger.Error(ctx, "scheduled flush failed", "id", id, "error", err)
		return
	}
	c.logger.Debug(ctx, "scheduled flush complete", "id", id)
}

// Flush writes the pending data for id, if any, and clears it. Flushing with
// no pending data is a no-op.
func (c *Coordinator) Flush(ctx context.Context, id string) error {
	c.mu.Lock()
	e, ok := c.pending[id]
	if !ok {
		c.mu.Unlock()
		return nil
	}
	e.timer.Stop()
	delete(c.pending, id)
	c.mu.Unlock()

	return c.store.Save(ctx, id, e.heading, e.content, e.startedAt)
}

// ForceFlush writes the given data immediately, cancelling any scheduled
// flush and dropping the pending record for id. Used for explicit
// user-initiated saves.
func (c *Coordinator) ForceFlush(ctx context.Context, id, heading, content string) error {
	c.mu.Lock()
	var createdAt time.Time
	if e, ok := c.pending[id]; ok {
		e.timer.Stop()
		delete(c.pending, id)
		createdAt = e.startedAt
	}
	c.mu.Unlock()

	return c.store.Save(ctx, id, heading, content, createdAt)
}

// Discard cancels any scheduled flush for id and drops its pending data
// without writing. Used when a note is deleted.
func (c *Coordinator) Discard(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.pending[id]; ok {
		e.timer.Stop()
		delete(c.pending, id)
	}
}

// DrainAll flushes every pending note, waiting for all writes to complete.
// Individual failures are logged and do not abort the rest of the batch.
// Used at process shutdown.
func (c *Coordinator) DrainAll(ctx context.Context) {
	c.mu.Lock()
	drained := make(map[string]*entry, len(c.pending))
	for id, e := range c.pending {
		e.timer.Stop()
		drained[id] = e
	}
	c.pending = make(map[string]*entry)
	c.mu.Unlock()

	for id, e := range drained {
		if err := c.store.Save(ctx, id, e.heading, e.content, e.startedAt); err != nil {
			c.logger.Error(ctx, "drain flush failed", "id", id, "error", err)
			continue
		}
		c.logger.Info(ctx, "drained pending note", "id", id)
	}
}

// Get returns the pending record for id, if one exists.
func (c *Coordinator) Get(id string) (Pending, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.pending[id]
	if !ok {
		return Pending{}, false
	}
	return Pending{Heading: e.heading, Content: e.content, StartedAt: e.startedAt}, true
}

// All returns a snapshot of every pending record keyed by note id, for
// merging into listings.
func (c *Coordinator) All() map[string]Pending {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]Pending, len(c.pending))
	for id, e := range c.pending {
		out[id] = Pending{Heading: e.heading, Content: e.content, StartedAt: e.startedAt}
	}
	return out
}
