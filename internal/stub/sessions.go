package stub

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"femstat/models"
)

// sessionEntry is one live upload: the dataset, its inferred schema, and
// the last analysis run against it.
type sessionEntry struct {
	dataset      *Dataset
	schema       *models.SchemaResponse
	results      *models.AnalysisResponse
	lastAccessed time.Time
}

// sessionCache is the in-memory TTL session store. Sessions expire on the
// TTL after the last access; a janitor sweeps them out periodically.
type sessionCache struct {
	mu       sync.RWMutex
	sessions map[string]*sessionEntry
	ttl      time.Duration
	now      func() time.Time
}

func newSessionCache(ttl time.Duration) *sessionCache {
	return &sessionCache{
		sessions: make(map[string]*sessionEntry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create stores a freshly uploaded dataset and mints its session id: a
// short content hash plus a timestamp suffix, opaque to clients but handy
// in logs.
func (c *sessionCache) Create(dataset *Dataset, schema *models.SchemaResponse) string {
	sum := md5.Sum([]byte(strings.Join(dataset.Headers, ",") + fmt.Sprint(dataset.NRows())))
	ts := fmt.Sprint(c.now().Unix())
	if len(ts) > 8 {
		ts = ts[len(ts)-8:]
	}
	id := hex.EncodeToString(sum[:])[:16] + "_" + ts

	c.mu.Lock()
	c.sessions[id] = &sessionEntry{
		dataset:      dataset,
		schema:       schema,
		lastAccessed: c.now(),
	}
	c.mu.Unlock()
	return id
}

// Get returns the live session, expiring it lazily when the TTL has
// passed. Each hit refreshes the TTL.
func (c *sessionCache) Get(id string) (*sessionEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.sessions[id]
	if !ok {
		return nil, false
	}
	if c.now().Sub(entry.lastAccessed) > c.ttl {
		delete(c.sessions, id)
		return nil, false
	}
	entry.lastAccessed = c.now()
	return entry, true
}

// SetResults attaches an analysis run to its session.
func (c *sessionCache) SetResults(id string, results *models.AnalysisResponse) {
	c.mu.Lock()
	if entry, ok := c.sessions[id]; ok {
		entry.results = results
	}
	c.mu.Unlock()
}

// Delete purges one session.
func (c *sessionCache) Delete(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[id]; !ok {
		return false
	}
	delete(c.sessions, id)
	return true
}

// Len reports the number of live sessions (expired ones included until
// swept).
func (c *sessionCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sessions)
}

// StartJanitor sweeps expired sessions until stop is closed.
func (c *sessionCache) StartJanitor(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.sweep()
			case <-stop:
				return
			}
		}
	}()
}

func (c *sessionCache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, entry := range c.sessions {
		if c.now().Sub(entry.lastAccessed) > c.ttl {
			delete(c.sessions, id)
		}
	}
}
