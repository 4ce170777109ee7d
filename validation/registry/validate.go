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

	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
	"github.com/pkg/errors"
)

// Validate checks that obj is live and belongs to the context dispatch
// resolves to.
//
// A null handle passes when nullAllowed is set. Contexts are checked against
// the process-wide context table. Other objects are looked up in the
// dispatching context, and images also in its swapchain image table. An
// object found only under another context is reported with wrongParentCode;
// when that code is empty the use passes silently. Anything else is reported
// as unknown with invalidCode.
func (r *Registry) Validate(ctx context.Context, dispatch, obj handle.Typed, nullAllowed bool, invalidCode, wrongParentCode string) error {
	if obj.IsNull() && nullAllowed {
		return nil
	}
	if invalidCode == "" {
		invalidCode = diag.CodeUnknownObject
	}
	info := obj.Kind.Info()
	if info.Context {
		if r.isContext(obj) {
			return nil
		}
		return r.unknown(ctx, obj, invalidCode, "Invalid %v Object %v.", obj.Kind, obj.Handle)
	}
	t := r.owner(dispatch, obj.Kind)
	if t != nil && t.contains(obj) {
		return nil
	}
	for _, other := range r.trackers(info.Parent) {
		if other == t || !other.contains(obj) {
			continue
		}
		if wrongParentCode == "" || obj.Kind == handle.SurfaceKHR {
			return nil
		}
		r.report(ctx, diag.New(diag.WrongParent, obj, wrongParentCode,
			"Object %v was not created, allocated or retrieved from the correct %v (found under %v).",
			obj, info.Parent, other.self))
		return errors.Wrapf(diag.ErrWrongParent, "%v", obj)
	}
	return r.unknown(ctx, obj, invalidCode, "Invalid %v Object %v.", obj.Kind, obj.Handle)
}

func (r *Registry) isContext(obj handle.Typed) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.contexts[obj]
	return ok
}

func (r *Registry) unknown(ctx context.Context, obj handle.Typed, code, msg string, args ...interface{}) error {
	r.report(ctx, diag.New(diag.UnknownObject, obj, code, msg, args...))
	return errors.Wrapf(diag.ErrUnknownObject, "%v", obj)
}

// ValidateParent checks that child was allocated from pool, for calls that
// free children through their pool.
func (r *Registry) ValidateParent(ctx context.Context, dispatch, child, pool handle.Typed, invalidCode, parentCode string) error {
	if invalidCode == "" {
		invalidCode = diag.CodeUnknownObject
	}
	var o *object
	ok := false
	if t := r.owner(dispatch, child.Kind); t != nil {
		o, ok = t.find(child)
	}
	if !ok {
		return r.unknown(ctx, child, invalidCode, "Invalid %v.", child)
	}
	if o.parent != pool.Handle {
		if parentCode == "" {
			parentCode = diag.CodeWrongParent
		}
		r.report(ctx, diag.New(diag.WrongParent, child, parentCode,
			"%v belongs to %v rather than %v.", child, pool.Kind.Of(o.parent), pool))
		return errors.Wrapf(diag.ErrWrongParent, "%v", child)
	}
	return nil
}

// ValidateDestroy checks that the allocator usage of a destroy call matches
// the creation of obj. A mismatch is reported with customCode when obj was
// created with a custom allocator, and with defaultCode when it was not. An
// empty code disables that check. Unknown objects pass; Destroy reports them.
func (r *Registry) ValidateDestroy(ctx context.Context, dispatch, obj handle.Typed, customAllocator bool, customCode, defaultCode string) error {
	if obj.IsNull() {
		return nil
	}
	_, o, ok := r.locate(dispatch, obj)
	if !ok {
		return nil
	}
	return r.checkAllocator(ctx, o, customAllocator, customCode, defaultCode)
}

// locate finds the record of obj and the tracker holding it.
func (r *Registry) locate(dispatch, obj handle.Typed) (*tracker, *object, bool) {
	var t *tracker
	switch obj.Kind {
	case handle.Instance:
		t = r.tracker(obj)
	case handle.Device:
		if dt := r.tracker(obj); dt != nil {
			t = dt.instance
		}
	default:
		t = r.owner(dispatch, obj.Kind)
	}
	if t == nil {
		return nil, nil, false
	}
	o, ok := t.find(obj)
	return t, o, ok
}

func (r *Registry) checkAllocator(ctx context.Context, o *object, customAllocator bool, customCode, defaultCode string) error {
	created := o.status.Has(StatusCustomAllocator)
	switch {
	case created && !customAllocator && customCode != "":
		r.report(ctx, diag.New(diag.AllocatorMismatch, o.typed(), customCode,
			"Custom allocator not specified while destroying %v but specified at creation.", o.typed()))
	case !created && customAllocator && defaultCode != "":
		r.report(ctx, diag.New(diag.AllocatorMismatch, o.typed(), defaultCode,
			"Custom allocator specified while destroying %v but not specified at creation.", o.typed()))
	default:
		return nil
	}
	return errors.Wrapf(diag.ErrAllocatorMismatch, "%v", o.typed())
}

// Status returns the status flags of the live object obj.
func (r *Registry) Status(dispatch, obj handle.Typed) (Status, bool) {
	_, o, ok := r.locate(dispatch, obj)
	if !ok {
		return 0, false
	}
	return o.status, true
}
