/***************************************************************
 *
 * Copyright (C) 2026, LaunchpadHQ, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you
 * may not use this file except in compliance with the License.  You may
 * obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 ***************************************************************/

// Package cache provides the TTL-bounded store backing the catalog and
// URL-format caches. Freshness is a hard cutoff: an entry older than the
// TTL is treated as absent, never returned as a stale best-effort value.
package cache

import (
	"sync"
	"time"
)

// Entry pairs a cached value with the instant it was stored.
type Entry[T any] struct {
	Timestamp time.Time
	Value     T
}

// Store is a mutex-guarded TTL map. The clock is injectable so tests can
// drive expiry deterministically instead of sleeping.
type Store[T any] struct {
	mu      sync.RWMutex
	entries map[string]Entry[T]
	ttl     time.Duration
	now     func() time.Time
}

func NewStore[T any](ttl time.Duration) *Store[T] {
	return &Store[T]{
		entries: make(map[string]Entry[T]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// SetClock overrides the store's notion of "now". Only meant for tests.
func (s *Store[T]) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Get returns the value for key if it is present and unexpired.
func (s *Store[T]) Get(key string) (value T, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, found := s.entries[key]
	if !found {
		return
	}
	if s.now().Sub(entry.Timestamp) >= s.ttl {
		return
	}
	return entry.Value, true
}

// Set stores value under key, stamped with the current time. An existing
// entry is replaced whole, never mutated in place.
func (s *Store[T]) Set(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = Entry[T]{Timestamp: s.now(), Value: value}
}

// Delete drops key, if present. Used to evict a cached URL that failed
// revalidation.
func (s *Store[T]) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
