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

// Package registry tracks the lifetime and parentage of every object handle
// passed through the validation layer.
//
// A Registry holds one tracker per context (instance or device). Each tracker
// keeps one sharded map per object kind, so lookups for unrelated objects
// never contend. Every violation is reported to the diagnostic sink; the
// returned errors are advisory and wrap the diag sentinels.
package registry

import (
	"context"
	"sort"
	"sync"

	"github.com/google/vkcheck/core/fault"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
	"github.com/google/vkcheck/validation/shardmap"
)

// Errors returned for malformed requests.
const (
	ErrNullHandle     = fault.Const("Null handle")
	ErrInvalidKind    = fault.Const("Invalid object kind")
	ErrUnknownContext = fault.Const("Unknown dispatch context")
)

// Registry is the process-wide table of contexts and their objects.
type Registry struct {
	sink   diag.Sink
	shards int

	mu       sync.RWMutex
	contexts map[handle.Typed]*tracker
}

// Option configures a Registry.
type Option func(*Registry)

// WithShards sets the number of shards of every per-kind map.
func WithShards(n int) Option {
	return func(r *Registry) { r.shards = n }
}

// New returns an empty registry reporting to sink.
func New(sink diag.Sink, opts ...Option) *Registry {
	if sink == nil {
		sink = diag.Discard
	}
	r := &Registry{
		sink:     sink,
		shards:   shardmap.DefaultShards,
		contexts: map[handle.Typed]*tracker{},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func (r *Registry) report(ctx context.Context, d diag.Diagnostic) {
	r.sink.Report(ctx, d)
}

// Contexts returns the number of live contexts.
func (r *Registry) Contexts() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}

// Roots returns the live instances, ordered by handle.
func (r *Registry) Roots() []handle.Typed {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []handle.Typed{}
	for key := range r.contexts {
		if key.Kind == handle.Instance {
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// Context returns the context that dispatches calls for obj: the object
// itself for contexts, otherwise the instance or device it was created under.
func (r *Registry) Context(obj handle.Typed) (handle.Typed, bool) {
	if t := r.tracker(obj); t != nil {
		return t.self, true
	}
	return handle.Typed{}, false
}

// tracker returns the tracker a call dispatched on obj is served by.
func (r *Registry) tracker(obj handle.Typed) *tracker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.contexts[obj]; ok {
		return t
	}
	info := obj.Kind.Info()
	if info.Context || !obj.Kind.Valid() {
		return nil
	}
	for _, t := range r.contexts {
		if t.self.Kind == info.Parent && t.objects[obj.Kind].Contains(obj.Handle) {
			return t
		}
	}
	return nil
}

// owner returns the tracker holding objects of kind k for calls dispatched on
// dispatch. Instance level kinds used through a device resolve to the
// device's instance.
func (r *Registry) owner(dispatch handle.Typed, k handle.Kind) *tracker {
	t := r.tracker(dispatch)
	if t != nil && k.Info().Parent == handle.Instance && t.instance != nil {
		return t.instance
	}
	return t
}

// trackers returns the live trackers of contexts of kind k.
func (r *Registry) trackers(k handle.Kind) []*tracker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*tracker{}
	for _, t := range r.contexts {
		if t.self.Kind == k {
			out = append(out, t)
		}
	}
	return out
}

// addContext registers t, returning false if its context already exists.
func (r *Registry) addContext(t *tracker) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contexts[t.self]; ok {
		return false
	}
	r.contexts[t.self] = t
	return true
}

// takeContext removes and returns the tracker of the context obj.
func (r *Registry) takeContext(obj handle.Typed) (*tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.contexts[obj]
	if ok {
		delete(r.contexts, obj)
	}
	return t, ok
}

// takeDevices removes and returns the device trackers created under the
// instance tracker it, ordered by handle.
func (r *Registry) takeDevices(it *tracker) []*tracker {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*tracker{}
	for key, t := range r.contexts {
		if t.instance == it {
			out = append(out, t)
			delete(r.contexts, key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].self.Handle < out[j].self.Handle })
	return out
}
