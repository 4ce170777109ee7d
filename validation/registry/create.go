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

	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/config"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
	"github.com/pkg/errors"
)

// Create records obj as created by a call dispatched on dispatch.
//
// Creating an instance or device also creates the context its objects are
// tracked in. When parent names a live pool of the kind obj is allocated from,
// obj joins the pool's child set. Recording a handle that is already live is
// reported as an internal inconsistency and the existing record is kept,
// except for retrieved kinds which may be recorded repeatedly.
func (r *Registry) Create(ctx context.Context, dispatch, obj handle.Typed, parent handle.Handle, status Status) error {
	if !obj.Kind.Valid() {
		return errors.Wrapf(ErrInvalidKind, "Creating %v", obj)
	}
	if obj.IsNull() {
		return errors.Wrapf(ErrNullHandle, "Creating %v", obj.Kind)
	}
	if obj.Kind == handle.Instance {
		return r.createInstance(ctx, obj, status)
	}
	t := r.owner(dispatch, obj.Kind)
	if t == nil {
		r.report(ctx, diag.New(diag.UnknownObject, dispatch, diag.CodeUnknownObject,
			"Creating %v through unknown %v", obj, dispatch))
		return errors.Wrapf(ErrUnknownContext, "Creating %v", obj)
	}
	o := newObject(obj, parent, status)
	if !t.objects[obj.Kind].Insert(obj.Handle, o) {
		if obj.Kind.Info().Retrieved {
			return nil
		}
		return r.duplicate(ctx, obj)
	}
	t.add(obj.Kind, 1)
	if obj.Kind == handle.Device {
		if !r.addContext(newTracker(obj, t, r.shards)) {
			r.report(ctx, diag.New(diag.InternalInconsistency, obj, diag.CodeInternalError,
				"Context %v already registered", obj))
		}
	}
	if pool := obj.Kind.Pool(); pool != handle.Unknown && !parent.IsNull() {
		if p, ok := t.objects[pool].Find(parent); ok {
			p.addChild(obj.Handle)
		}
		if config.CheckInvariants {
			r.checkPool(ctx, t, pool.Of(parent))
		}
	}
	if config.LogCreates {
		log.D(ctx, "Created %v in %v", obj, t.self)
	}
	return nil
}

func (r *Registry) createInstance(ctx context.Context, obj handle.Typed, status Status) error {
	t := newTracker(obj, nil, r.shards)
	if !r.addContext(t) {
		return r.duplicate(ctx, obj)
	}
	t.objects[handle.Instance].Insert(obj.Handle, newObject(obj, handle.Null, status))
	t.add(handle.Instance, 1)
	if config.LogCreates {
		log.D(ctx, "Created %v", obj)
	}
	return nil
}

func (r *Registry) duplicate(ctx context.Context, obj handle.Typed) error {
	r.report(ctx, diag.New(diag.InternalInconsistency, obj, diag.CodeInternalError,
		"Couldn't insert %v as it already exists. This should not happen and may indicate a race condition in the application.", obj))
	return errors.Wrapf(diag.ErrInternalInconsistency, "Creating %v", obj)
}

// CreateSwapchainImage records image as retrieved from swapchain.
// Images retrieved more than once are recorded once.
func (r *Registry) CreateSwapchainImage(ctx context.Context, dispatch handle.Typed, image, swapchain handle.Handle) error {
	if image.IsNull() {
		return errors.Wrapf(ErrNullHandle, "Creating %v", handle.Image)
	}
	t := r.owner(dispatch, handle.Image)
	if t == nil {
		r.report(ctx, diag.New(diag.UnknownObject, dispatch, diag.CodeUnknownObject,
			"Retrieving images through unknown %v", dispatch))
		return errors.Wrapf(ErrUnknownContext, "Creating %v", handle.Image.Of(image))
	}
	t.images.Insert(image, newObject(handle.Image.Of(image), swapchain, 0))
	return nil
}

// checkPool verifies that every child recorded for pool is live.
func (r *Registry) checkPool(ctx context.Context, t *tracker, pool handle.Typed) {
	p, ok := t.find(pool)
	if !ok {
		return
	}
	child := pool.Kind.Info().Child
	for _, h := range p.record().Children {
		if !t.objects[child].Contains(h) {
			r.report(ctx, diag.New(diag.InternalInconsistency, child.Of(h), diag.CodeInternalError,
				"Child of %v is not live", pool))
		}
	}
}
