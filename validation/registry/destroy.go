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

	"github.com/google/vkcheck/core/fault"
	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/config"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
	"github.com/pkg/errors"
)

// Destroy removes obj, checking its allocator usage with the default codes.
// See DestroyChecked.
func (r *Registry) Destroy(ctx context.Context, dispatch, obj handle.Typed, customAllocator bool) error {
	return r.DestroyChecked(ctx, dispatch, obj, customAllocator, diag.CodeCustomAllocator, diag.CodeDefaultAllocator)
}

// DestroyChecked removes obj after checking that customAllocator matches its
// creation, as ValidateDestroy does.
//
// Pools destroy their children first. Swapchains drop the images retrieved
// from them. Devices and instances audit and drop every object they still
// own, reporting each as a leak. Destroying a null handle does nothing;
// destroying a handle that is not live is reported once and changes nothing.
func (r *Registry) DestroyChecked(ctx context.Context, dispatch, obj handle.Typed, customAllocator bool, customCode, defaultCode string) error {
	if obj.IsNull() {
		return nil
	}
	switch obj.Kind {
	case handle.Instance:
		return r.destroyInstance(ctx, obj, customAllocator, customCode, defaultCode)
	case handle.Device:
		return r.destroyDevice(ctx, obj, customAllocator, customCode, defaultCode)
	}
	var o *object
	ok := false
	t := r.owner(dispatch, obj.Kind)
	if t != nil {
		o, ok = t.objects[obj.Kind].Pop(obj.Handle)
	}
	if !ok {
		return r.notLive(ctx, obj)
	}
	err := r.checkAllocator(ctx, o, customAllocator, customCode, defaultCode)
	r.release(ctx, t, o)
	return err
}

func (r *Registry) notLive(ctx context.Context, obj handle.Typed) error {
	return r.unknown(ctx, obj, diag.CodeUnknownObject,
		"Unable to remove %v. Was it created? Has it already been destroyed?", obj)
}

// release completes the removal of o, which has been taken out of t.
func (r *Registry) release(ctx context.Context, t *tracker, o *object) {
	t.add(o.kind, -1)
	info := o.kind.Info()
	if info.IsPool() {
		r.freeChildren(ctx, t, o)
	}
	if o.kind == handle.SwapchainKHR {
		images := t.images.Snapshot(func(_ handle.Handle, i *object) bool { return i.parent == o.handle })
		for _, e := range images {
			t.images.Erase(e.Handle)
		}
	}
	if pool := o.kind.Pool(); pool != handle.Unknown && !o.parent.IsNull() {
		if p, ok := t.objects[pool].Find(o.parent); ok {
			p.removeChild(o.handle)
		}
	}
	if config.LogCreates {
		log.D(ctx, "Destroyed %v in %v", o.typed(), t.self)
	}
}

// freeChildren destroys every child of pool.
func (r *Registry) freeChildren(ctx context.Context, t *tracker, pool *object) {
	child := pool.kind.Info().Child
	for _, h := range pool.takeChildren() {
		if _, ok := t.objects[child].Pop(h); !ok {
			r.report(ctx, diag.New(diag.InternalInconsistency, child.Of(h), diag.CodeInternalError,
				"Couldn't free %v while destroying %v: not live.", child.Of(h), pool.typed()))
			continue
		}
		t.add(child, -1)
	}
}

// ResetPool frees every child of pool if its kind frees children on reset.
func (r *Registry) ResetPool(ctx context.Context, dispatch, pool handle.Typed) error {
	if !pool.Kind.Info().ResetFreesChildren {
		return nil
	}
	var o *object
	ok := false
	t := r.owner(dispatch, pool.Kind)
	if t != nil {
		o, ok = t.find(pool)
	}
	if !ok {
		return r.unknown(ctx, pool, diag.CodeUnknownObject, "Invalid %v Object %v.", pool.Kind, pool.Handle)
	}
	r.freeChildren(ctx, t, o)
	return nil
}

func (r *Registry) destroyDevice(ctx context.Context, obj handle.Typed, customAllocator bool, customCode, defaultCode string) error {
	dt, ok := r.takeContext(obj)
	if !ok || dt.instance == nil {
		return r.notLive(ctx, obj)
	}
	var err error
	if o, ok := dt.instance.objects[handle.Device].Pop(obj.Handle); ok {
		err = r.checkAllocator(ctx, o, customAllocator, customCode, defaultCode)
		dt.instance.add(handle.Device, -1)
	} else {
		r.report(ctx, diag.New(diag.InternalInconsistency, obj, diag.CodeInternalError,
			"Context %v has no record in %v.", obj, dt.instance.self))
	}
	r.reportLeaks(ctx, dt, diag.CodeDestroyDeviceLeak)
	r.destroyAll(ctx, dt)
	return err
}

// The allocator codes of devices that are still live when their instance is
// destroyed.
const (
	codeInstanceCustomAllocator  = "VUID-vkDestroyInstance-instance-00630"
	codeInstanceDefaultAllocator = "VUID-vkDestroyInstance-instance-00631"
)

func (r *Registry) destroyInstance(ctx context.Context, obj handle.Typed, customAllocator bool, customCode, defaultCode string) error {
	it, ok := r.takeContext(obj)
	if !ok {
		return r.notLive(ctx, obj)
	}
	ctx = log.Enter(ctx, "destroyInstance")
	errs := fault.List{}
	for _, dt := range r.takeDevices(it) {
		r.report(ctx, diag.New(diag.Leak, dt.self, diag.CodeObjectLeak,
			"OBJ ERROR : %v has not been destroyed.", dt.self))
		r.reportLeaks(ctx, dt, diag.CodeDestroyInstanceLeak)
		if o, ok := it.objects[handle.Device].Pop(dt.self.Handle); ok {
			errs.Collect(r.checkAllocator(ctx, o, customAllocator, codeInstanceCustomAllocator, codeInstanceDefaultAllocator))
			it.add(handle.Device, -1)
		}
		r.destroyAll(ctx, dt)
	}
	r.reportLeaks(ctx, it, diag.CodeDestroyInstanceLeak)
	r.destroyAll(ctx, it)
	if o, ok := it.objects[handle.Instance].Pop(obj.Handle); ok {
		errs.Collect(r.checkAllocator(ctx, o, customAllocator, customCode, defaultCode))
		it.add(handle.Instance, -1)
	}
	if err := errs.Err(); err != nil {
		return errors.Wrapf(err, "Destroying %v", obj)
	}
	return nil
}
