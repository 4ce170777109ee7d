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

package registry

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/vkcheck/validation/handle"
	"github.com/google/vkcheck/validation/shardmap"
)

// Status holds the status flags of an object record.
type Status uint8

const (
	// StatusSecondary marks secondary command buffers.
	StatusSecondary Status = 1 << iota
	// StatusCustomAllocator marks objects created with application supplied
	// allocation callbacks.
	StatusCustomAllocator
)

// Has returns true if every flag in f is set.
func (s Status) Has(f Status) bool { return s&f == f }

// Record is a copy of the registry's record of one live object.
type Record struct {
	Handle   handle.Handle
	Kind     handle.Kind
	Parent   handle.Handle
	Status   Status
	Children []handle.Handle // Only set for pool kinds, ordered by handle.
}

// Typed returns the typed handle of the record.
func (r Record) Typed() handle.Typed { return r.Kind.Of(r.Handle) }

type object struct {
	kind   handle.Kind
	handle handle.Handle
	parent handle.Handle
	status Status

	mu       sync.Mutex
	children map[handle.Handle]struct{}
}

func newObject(obj handle.Typed, parent handle.Handle, status Status) *object {
	o := &object{kind: obj.Kind, handle: obj.Handle, parent: parent, status: status}
	if obj.Kind.Info().IsPool() {
		o.children = map[handle.Handle]struct{}{}
	}
	return o
}

func (o *object) typed() handle.Typed { return o.kind.Of(o.handle) }

func (o *object) addChild(h handle.Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.children[h] = struct{}{}
}

func (o *object) removeChild(h handle.Handle) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.children, h)
}

// takeChildren empties the child set, returning its previous contents.
func (o *object) takeChildren() []handle.Handle {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := sortedHandles(o.children)
	o.children = map[handle.Handle]struct{}{}
	return out
}

func (o *object) record() Record {
	out := Record{Handle: o.handle, Kind: o.kind, Parent: o.parent, Status: o.status}
	if o.kind.Info().IsPool() {
		o.mu.Lock()
		out.Children = sortedHandles(o.children)
		o.mu.Unlock()
	}
	return out
}

func sortedHandles(set map[handle.Handle]struct{}) []handle.Handle {
	out := make([]handle.Handle, 0, len(set))
	for h := range set {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// tracker holds the objects owned by one context.
type tracker struct {
	self     handle.Typed
	instance *tracker // nil for instance trackers

	objects [handle.Count]*shardmap.Map[*object]
	images  *shardmap.Map[*object] // swapchain images, keyed by image

	counts [handle.Count]atomic.Int64
	total  atomic.Int64
}

func newTracker(self handle.Typed, instance *tracker, shards int) *tracker {
	t := &tracker{self: self, instance: instance, images: shardmap.New[*object](shards)}
	for k := range t.objects {
		t.objects[k] = shardmap.New[*object](shards)
	}
	return t
}

func (t *tracker) add(k handle.Kind, n int64) {
	t.counts[k].Add(n)
	t.total.Add(n)
}

func (t *tracker) find(obj handle.Typed) (*object, bool) {
	return t.objects[obj.Kind].Find(obj.Handle)
}

// contains returns true if obj is live in t, including swapchain images.
func (t *tracker) contains(obj handle.Typed) bool {
	if t.objects[obj.Kind].Contains(obj.Handle) {
		return true
	}
	return obj.Kind == handle.Image && t.images.Contains(obj.Handle)
}
