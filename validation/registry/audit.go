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
	"context"
	"sort"

	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
)

// ReportUndestroyedObjects reports one leak with code for every object still
// owned by the context scope, other than retrieved objects and child contexts.
// It returns the number of leaks reported.
func (r *Registry) ReportUndestroyedObjects(ctx context.Context, scope handle.Typed, code string) int {
	t := r.tracker(scope)
	if t == nil || t.self != scope {
		return 0
	}
	return r.reportLeaks(ctx, t, code)
}

// DestroyUndestroyedObjects silently removes every object still owned by the
// context scope, other than child contexts, and returns how many were removed.
func (r *Registry) DestroyUndestroyedObjects(ctx context.Context, scope handle.Typed) int {
	t := r.tracker(scope)
	if t == nil || t.self != scope {
		return 0
	}
	return r.destroyAll(ctx, t)
}

func auditKinds(scope handle.Kind) []handle.Kind {
	out := []handle.Kind{}
	for _, k := range handle.OwnedBy(scope) {
		if !k.Info().Context {
			out = append(out, k)
		}
	}
	return out
}

func (r *Registry) reportLeaks(ctx context.Context, t *tracker, code string) int {
	n := 0
	for _, k := range auditKinds(t.self.Kind) {
		if k.Info().Retrieved {
			continue
		}
		for _, rec := range snapshot(t, k) {
			r.report(ctx, diag.New(diag.Leak, rec.Typed(), code,
				"OBJ ERROR : For %v, %v has not been destroyed.", t.self, rec.Typed()))
			n++
		}
	}
	return n
}

func (r *Registry) destroyAll(ctx context.Context, t *tracker) int {
	n := 0
	for _, k := range auditKinds(t.self.Kind) {
		for _, e := range t.objects[k].Snapshot(nil) {
			if t.objects[k].Erase(e.Handle) {
				t.add(k, -1)
				n++
			}
		}
	}
	t.images.Clear()
	if n > 0 {
		log.D(ctx, "Removed %d objects of %v", n, t.self)
	}
	return n
}

// Snapshot returns the records of the live objects of kind k in the context
// dispatch resolves to, ordered by handle.
func (r *Registry) Snapshot(dispatch handle.Typed, k handle.Kind) []Record {
	if !k.Valid() {
		return nil
	}
	t := r.owner(dispatch, k)
	if t == nil {
		return nil
	}
	return snapshot(t, k)
}

func snapshot(t *tracker, k handle.Kind) []Record {
	entries := t.objects[k].Snapshot(nil)
	out := make([]Record, len(entries))
	for i, e := range entries {
		out[i] = e.Value.record()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Handle < out[j].Handle })
	return out
}

// SwapchainImages returns the images retrieved from swapchain, ordered by
// handle.
func (r *Registry) SwapchainImages(dispatch handle.Typed, swapchain handle.Handle) []handle.Handle {
	t := r.owner(dispatch, handle.Image)
	if t == nil {
		return nil
	}
	set := map[handle.Handle]struct{}{}
	for _, e := range t.images.Snapshot(func(_ handle.Handle, o *object) bool { return o.parent == swapchain }) {
		set[e.Handle] = struct{}{}
	}
	return sortedHandles(set)
}

// Count returns the number of live objects of kind k in the context dispatch
// resolves to.
func (r *Registry) Count(dispatch handle.Typed, k handle.Kind) int {
	if !k.Valid() {
		return 0
	}
	if t := r.owner(dispatch, k); t != nil {
		return int(t.counts[k].Load())
	}
	return 0
}

// Total returns the number of live objects recorded in the context dispatch
// resolves to.
func (r *Registry) Total(dispatch handle.Typed) int {
	if t := r.tracker(dispatch); t != nil {
		return int(t.total.Load())
	}
	return 0
}
