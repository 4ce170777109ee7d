// Copyright (C) 2026 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package shardmap provides a lock-striped concurrent map keyed by handle.
package shardmap

import (
	"sync"

	"github.com/google/vkcheck/validation/handle"
)

// DefaultShards is the shard count used when none is specified.
const DefaultShards = 64

type shard[V any] struct {
	mu sync.RWMutex
	m  map[handle.Handle]V
}

// Map is a concurrent map from handle to V.
// Each operation on a single key is linearizable. Operations on keys in
// different shards never contend.
type Map[V any] struct {
	shards []shard[V]
}

// New returns a map with n shards. n is rounded up to a power of two; values
// less than one select DefaultShards.
func New[V any](n int) *Map[V] {
	if n < 1 {
		n = DefaultShards
	}
	size := 1
	for size < n {
		size <<= 1
	}
	m := &Map[V]{shards: make([]shard[V], size)}
	for i := range m.shards {
		m.shards[i].m = map[handle.Handle]V{}
	}
	return m
}

// Shards returns the number of shards.
func (m *Map[V]) Shards() int { return len(m.shards) }

func (m *Map[V]) shard(h handle.Handle) *shard[V] {
	// Handles are often pointers or small counters, so fold the high bits in
	// before masking.
	k := uint64(h)
	k ^= k >> 32
	k ^= k >> 12
	k ^= k >> 6
	return &m.shards[k&uint64(len(m.shards)-1)]
}

// Insert adds v under h if h is absent.
// It returns false, leaving the existing value, if h was already present.
func (m *Map[V]) Insert(h handle.Handle, v V) bool {
	s := m.shard(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[h]; ok {
		return false
	}
	s.m[h] = v
	return true
}

// Find returns the value stored under h.
func (m *Map[V]) Find(h handle.Handle) (V, bool) {
	s := m.shard(h)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[h]
	return v, ok
}

// Contains returns true if h is present.
func (m *Map[V]) Contains(h handle.Handle) bool {
	_, ok := m.Find(h)
	return ok
}

// Pop removes h and returns the value that was stored.
func (m *Map[V]) Pop(h handle.Handle) (V, bool) {
	s := m.shard(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[h]
	if ok {
		delete(s.m, h)
	}
	return v, ok
}

// Erase removes h, returning true if it was present.
func (m *Map[V]) Erase(h handle.Handle) bool {
	_, ok := m.Pop(h)
	return ok
}

// Update calls f with the value stored under h while holding the shard lock,
// and stores the result. It returns false if h is absent.
func (m *Map[V]) Update(h handle.Handle, f func(V) V) bool {
	s := m.shard(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[h]
	if ok {
		s.m[h] = f(v)
	}
	return ok
}

// Compute replaces the entry for h with the result of f while holding the
// shard lock. f receives the current value and whether it was present; the
// entry is stored if f returns true and removed otherwise.
func (m *Map[V]) Compute(h handle.Handle, f func(v V, ok bool) (V, bool)) {
	s := m.shard(h)
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.m[h]
	if v, keep := f(old, ok); keep {
		s.m[h] = v
	} else if ok {
		delete(s.m, h)
	}
}

// Len returns the number of entries. The count is not a snapshot when the map
// is being modified concurrently.
func (m *Map[V]) Len() int {
	n := 0
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Entry is a key value pair returned by Snapshot.
type Entry[V any] struct {
	Handle handle.Handle
	Value  V
}

// Snapshot returns a copy of the entries that match pred, or all entries if
// pred is nil. Each shard is copied under its own lock, so the result is
// consistent per shard and the caller may mutate the map while iterating it.
func (m *Map[V]) Snapshot(pred func(handle.Handle, V) bool) []Entry[V] {
	out := []Entry[V]{}
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.RLock()
		for h, v := range s.m {
			if pred == nil || pred(h, v) {
				out = append(out, Entry[V]{h, v})
			}
		}
		s.mu.RUnlock()
	}
	return out
}

// Clear removes every entry.
func (m *Map[V]) Clear() {
	for i := range m.shards {
		s := &m.shards[i]
		s.mu.Lock()
		s.m = map[handle.Handle]V{}
		s.mu.Unlock()
	}
}
