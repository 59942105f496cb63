package application

import "sync"

// dayCache stores fully built day rosters keyed by ISO date. Entries
// are populated on read miss and purged whenever an attendance write
// touches the key's date, so a hit is always consistent with the
// database state the reader could otherwise observe. There is no TTL.
type dayCache struct {
	mu      sync.RWMutex
	entries map[string]*DayRoster
}

func newDayCache() *dayCache {
	return &dayCache{entries: make(map[string]*DayRoster)}
}

func (c *dayCache) Get(date string) (*DayRoster, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	roster, ok := c.entries[date]
	c.mu.RUnlock()
	return roster, ok
}

func (c *dayCache) Store(date string, roster *DayRoster) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries[date] = roster
	c.mu.Unlock()
}

// Invalidate drops the entry for one date. Callers invoke it before a
// write becomes visible so no reader can hold a stale roster.
func (c *dayCache) Invalidate(date string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.entries, date)
	c.mu.Unlock()
}

// Reset drops every entry.
func (c *dayCache) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]*DayRoster)
	c.mu.Unlock()
}
