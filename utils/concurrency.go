package utils

import (
	"sync"
	"time"
)

// RateLimiter enforces a minimum interval between successive calls to Wait.
// The browser backend uses it to space out page loads across source sites.
type RateLimiter struct {
	mu       sync.Mutex
	interval time.Duration
	last     time.Time
}

// NewRateLimiter creates a RateLimiter with the given interval in milliseconds.
func NewRateLimiter(intervalMs int) *RateLimiter {
	return &RateLimiter{interval: time.Duration(intervalMs) * time.Millisecond}
}

// Wait blocks until the interval has passed since the previous call.
func (r *RateLimiter) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.last.IsZero() {
		if elapsed := time.Since(r.last); elapsed < r.interval {
			time.Sleep(r.interval - elapsed)
		}
	}
	r.last = time.Now()
}

// URLSet is a set of URLs that remembers insertion order.
type URLSet struct {
	mu    sync.RWMutex
	seen  map[string]struct{}
	order []string
}

// NewURLSet creates an empty URLSet.
func NewURLSet() *URLSet {
	return &URLSet{seen: make(map[string]struct{})}
}

// Add returns true if the URL was newly added, false if already present.
func (s *URLSet) Add(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.seen[url]; exists {
		return false
	}
	s.seen[url] = struct{}{}
	s.order = append(s.order, url)
	return true
}

// Contains returns true if the URL is in the set.
func (s *URLSet) Contains(url string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.seen[url]
	return exists
}

// Size returns the number of unique URLs tracked.
func (s *URLSet) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// List returns the URLs in first-seen order.
func (s *URLSet) List() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}
