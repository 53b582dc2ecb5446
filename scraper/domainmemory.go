package scraper

import (
	"sync"
	"time"
)

// hostEntry marks a host as browser-first with an expiry.
type hostEntry struct {
	expiresAt time.Time
}

// DomainMemory remembers hosts whose standard fetch produced nothing
// useful so later enrichments for the same host go straight to the
// browser. Entries expire after the configured TTL and are pruned
// periodically.
type DomainMemory struct {
	store sync.Map // host (string) -> *hostEntry
	ttl   time.Duration
	done  chan struct{}
}

// NewDomainMemory creates a DomainMemory with the given TTL and starts
// a background goroutine that prunes expired entries every hour.
func NewDomainMemory(ttl time.Duration) *DomainMemory {
	dm := &DomainMemory{
		ttl:  ttl,
		done: make(chan struct{}),
	}
	go dm.cleanupLoop()
	return dm
}

// NeedsBrowser reports whether the host previously required the browser
// fallback and the memory has not yet expired.
func (dm *DomainMemory) NeedsBrowser(host string) bool {
	val, ok := dm.store.Load(host)
	if !ok {
		return false
	}
	entry := val.(*hostEntry)
	if time.Now().After(entry.expiresAt) {
		dm.store.Delete(host)
		return false
	}
	return true
}

// MarkBrowser records that the host needed the browser fallback.
func (dm *DomainMemory) MarkBrowser(host string) {
	dm.store.Store(host, &hostEntry{expiresAt: time.Now().Add(dm.ttl)})
}

// Forget removes the memory for a host, restoring the standard-first path.
func (dm *DomainMemory) Forget(host string) {
	dm.store.Delete(host)
}

// Stop terminates the background cleanup goroutine.
func (dm *DomainMemory) Stop() {
	close(dm.done)
}

func (dm *DomainMemory) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-dm.done:
			return
		case <-ticker.C:
			now := time.Now()
			dm.store.Range(func(key, value any) bool {
				entry := value.(*hostEntry)
				if now.After(entry.expiresAt) {
					dm.store.Delete(key)
				}
				return true
			})
		}
	}
}
