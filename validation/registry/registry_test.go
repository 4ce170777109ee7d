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

package registry_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/vkcheck/core/assert"
	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
	"github.com/google/vkcheck/validation/registry"
)

var (
	instance = handle.Instance.Of(0x1)
	physical = handle.PhysicalDevice.Of(0x2)
	deviceA  = handle.Device.Of(0x10)
	deviceB  = handle.Device.Of(0x20)
)

const (
	invalidCode = "VUID-test-object-parameter"
	parentCode  = "VUID-test-object-parent"
)

func setup(ctx context.Context) (*registry.Registry, *diag.Collector) {
	c := &diag.Collector{}
	r := registry.New(c, registry.WithShards(8))
	for _, obj := range []struct {
		dispatch, obj handle.Typed
	}{
		{instance, instance},
		{instance, physical},
		{physical, deviceA},
		{physical, deviceB},
	} {
		err := r.Create(ctx, obj.dispatch, obj.obj, physical.Handle, 0)
		assert.For(ctx, "create %v", obj.obj).ThatError(err).Succeeded()
	}
	return r, c
}

func TestRoundTrip(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	for _, test := range []struct {
		dispatch handle.Typed
		kinds    []handle.Kind
	}{
		{deviceA, handle.OwnedBy(handle.Device)},
		{instance, handle.OwnedBy(handle.Instance)},
	} {
		for i, k := range test.kinds {
			if k.Info().Context {
				continue
			}
			obj := k.Of(handle.Handle(0x1000 + i))
			assert.For(ctx, "create %v", obj).ThatError(r.Create(ctx, test.dispatch, obj, handle.Null, 0)).Succeeded()
			assert.For(ctx, "validate %v", obj).ThatError(
				r.Validate(ctx, test.dispatch, obj, false, invalidCode, parentCode)).Succeeded()
			assert.For(ctx, "count %v", obj).ThatInteger(r.Count(test.dispatch, k)).Equals(1)
			assert.For(ctx, "destroy %v", obj).ThatError(r.Destroy(ctx, test.dispatch, obj, false)).Succeeded()
			assert.For(ctx, "destroyed %v", obj).ThatError(
				r.Validate(ctx, test.dispatch, obj, false, invalidCode, parentCode)).HasCause(diag.ErrUnknownObject)
			assert.For(ctx, "count after %v", obj).ThatInteger(r.Count(test.dispatch, k)).Equals(0)
		}
	}
	unknown := c.Filter(diag.UnknownObject)
	assert.For(ctx, "unknown").ThatInteger(c.Len()).Equals(len(unknown))
	for _, d := range unknown {
		assert.For(ctx, "code").ThatString(d.Code).Equals(invalidCode)
	}
}

func TestNullHandles(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	null := handle.Buffer.Of(handle.Null)
	assert.For(ctx, "allowed").ThatError(r.Validate(ctx, deviceA, null, true, invalidCode, "")).Succeeded()
	assert.For(ctx, "not allowed").ThatError(
		r.Validate(ctx, deviceA, null, false, invalidCode, "")).HasCause(diag.ErrUnknownObject)
	assert.For(ctx, "create").ThatError(r.Create(ctx, deviceA, null, handle.Null, 0)).HasCause(registry.ErrNullHandle)
	assert.For(ctx, "destroy").ThatError(r.Destroy(ctx, deviceA, null, false)).Succeeded()
	assert.For(ctx, "kind").ThatError(
		r.Create(ctx, deviceA, handle.Unknown.Of(5), handle.Null, 0)).HasCause(registry.ErrInvalidKind)
	assert.For(ctx, "diagnostics").ThatInteger(c.Len()).Equals(1)
}

func TestDoubleDestroy(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	fence := handle.Fence.Of(0x77)
	r.Create(ctx, deviceA, fence, handle.Null, 0)
	assert.For(ctx, "first").ThatError(r.Destroy(ctx, deviceA, fence, false)).Succeeded()
	assert.For(ctx, "second").ThatError(r.Destroy(ctx, deviceA, fence, false)).HasCause(diag.ErrUnknownObject)
	assert.For(ctx, "diagnostics").ThatInteger(c.Len()).Equals(1)
	assert.For(ctx, "count").ThatInteger(r.Count(deviceA, handle.Fence)).Equals(0)
	assert.For(ctx, "total").ThatInteger(r.Total(deviceA)).Equals(0)
}

func TestPoolScenario(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	pool := handle.DescriptorPool.Of(42)
	set := handle.DescriptorSet.Of(100)
	assert.For(ctx, "create pool").ThatError(r.Create(ctx, deviceA, pool, handle.Null, 0)).Succeeded()
	assert.For(ctx, "create set").ThatError(r.Create(ctx, deviceA, set, pool.Handle, 0)).Succeeded()
	assert.For(ctx, "validate set").ThatError(r.Validate(ctx, deviceA, set, false, invalidCode, "")).Succeeded()
	assert.For(ctx, "children").ThatSlice(r.Snapshot(deviceA, handle.DescriptorPool)[0].Children).Equals(
		[]handle.Handle{100})

	assert.For(ctx, "destroy pool").ThatError(r.Destroy(ctx, deviceA, pool, false)).Succeeded()
	assert.For(ctx, "no diagnostics").ThatInteger(c.Len()).Equals(0)
	assert.For(ctx, "set gone").ThatError(
		r.Validate(ctx, deviceA, set, false, invalidCode, "")).HasCause(diag.ErrUnknownObject)
	assert.For(ctx, "set count").ThatInteger(r.Count(deviceA, handle.DescriptorSet)).Equals(0)

	c.Reset()
	assert.For(ctx, "destroy again").ThatError(r.Destroy(ctx, deviceA, pool, false)).HasCause(diag.ErrUnknownObject)
	got := c.Diagnostics()
	if assert.For(ctx, "one diagnostic").ThatSlice(got).IsLength(1) {
		assert.For(ctx, "about the pool").That(got[0].Object()).Equals(pool)
	}
}

func TestCommandPoolCascade(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	pool := handle.CommandPool.Of(0x50)
	r.Create(ctx, deviceA, pool, handle.Null, 0)
	r.Create(ctx, deviceA, handle.CommandBuffer.Of(0x51), pool.Handle, 0)
	r.Create(ctx, deviceA, handle.CommandBuffer.Of(0x52), pool.Handle, registry.StatusSecondary)
	records := r.Snapshot(deviceA, handle.CommandBuffer)
	if assert.For(ctx, "records").ThatSlice(records).IsLength(2) {
		assert.For(ctx, "parent").That(records[0].Parent).Equals(pool.Handle)
		assert.For(ctx, "secondary").ThatBoolean(records[1].Status.Has(registry.StatusSecondary)).IsTrue()
	}

	assert.For(ctx, "reset").ThatError(r.ResetPool(ctx, deviceA, pool)).Succeeded()
	assert.For(ctx, "reset keeps buffers").ThatInteger(r.Count(deviceA, handle.CommandBuffer)).Equals(2)

	r.Destroy(ctx, deviceA, pool, false)
	for _, h := range []handle.Handle{0x51, 0x52} {
		err := r.Validate(ctx, deviceA, handle.CommandBuffer.Of(h), false, invalidCode, "")
		assert.For(ctx, "buffer %v", h).ThatError(err).HasCause(diag.ErrUnknownObject)
	}
	assert.For(ctx, "unknown only").ThatInteger(c.Count(diag.UnknownObject)).Equals(c.Len())
}

func TestFreeFromPool(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	pool := handle.DescriptorPool.Of(0x60)
	other := handle.DescriptorPool.Of(0x61)
	set := handle.DescriptorSet.Of(0x62)
	r.Create(ctx, deviceA, pool, handle.Null, 0)
	r.Create(ctx, deviceA, other, handle.Null, 0)
	r.Create(ctx, deviceA, set, pool.Handle, 0)

	err := r.ValidateParent(ctx, deviceA, set, other, invalidCode, diag.CodeFreeDescriptorSet)
	assert.For(ctx, "wrong pool").ThatError(err).HasCause(diag.ErrWrongParent)
	assert.For(ctx, "wrong pool code").ThatString(c.Diagnostics()[0].Code).Equals(diag.CodeFreeDescriptorSet)
	assert.For(ctx, "right pool").ThatError(
		r.ValidateParent(ctx, deviceA, set, pool, invalidCode, diag.CodeFreeDescriptorSet)).Succeeded()

	assert.For(ctx, "free").ThatError(r.Destroy(ctx, deviceA, set, false)).Succeeded()
	assert.For(ctx, "child set").ThatSlice(r.Snapshot(deviceA, handle.DescriptorPool)[0].Children).IsEmpty()
	c.Reset()
	r.Destroy(ctx, deviceA, pool, false)
	assert.For(ctx, "no stale children").ThatInteger(c.Len()).Equals(0)
}

func TestResetDescriptorPool(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	pool := handle.DescriptorPool.Of(0x70)
	r.Create(ctx, deviceA, pool, handle.Null, 0)
	r.Create(ctx, deviceA, handle.DescriptorSet.Of(0x71), pool.Handle, 0)
	r.Create(ctx, deviceA, handle.DescriptorSet.Of(0x72), pool.Handle, 0)
	assert.For(ctx, "reset").ThatError(r.ResetPool(ctx, deviceA, pool)).Succeeded()
	assert.For(ctx, "sets").ThatInteger(r.Count(deviceA, handle.DescriptorSet)).Equals(0)
	assert.For(ctx, "pool").ThatError(r.Validate(ctx, deviceA, pool, false, invalidCode, "")).Succeeded()
	assert.For(ctx, "unknown pool").ThatError(
		r.ResetPool(ctx, deviceA, handle.DescriptorPool.Of(0x79))).HasCause(diag.ErrUnknownObject)
	assert.For(ctx, "diagnostics").ThatInteger(c.Len()).Equals(1)
}

func TestLeakAudit(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	pool := handle.DescriptorPool.Of(0x80)
	for _, obj := range []handle.Typed{
		handle.Buffer.Of(0x81),
		handle.Buffer.Of(0x82),
		handle.Buffer.Of(0x83),
		handle.Image.Of(0x84),
		handle.Queue.Of(0x85),
		pool,
	} {
		r.Create(ctx, deviceA, obj, handle.Null, 0)
	}
	r.Create(ctx, deviceA, handle.DescriptorSet.Of(0x86), pool.Handle, 0)
	r.Create(ctx, deviceA, handle.DescriptorSet.Of(0x87), pool.Handle, 0)
	r.Create(ctx, deviceB, handle.Buffer.Of(0x90), handle.Null, 0)

	assert.For(ctx, "destroy device").ThatError(r.Destroy(ctx, deviceA, deviceA, false)).Succeeded()
	leaks := c.Filter(diag.Leak)
	assert.For(ctx, "leaks").ThatSlice(leaks).IsLength(7)
	assert.For(ctx, "only leaks").ThatInteger(c.Len()).Equals(7)
	for _, d := range leaks {
		assert.For(ctx, "leak code").ThatString(d.Code).Equals(diag.CodeDestroyDeviceLeak)
		assert.For(ctx, "not a queue").That(d.Kind).NotEquals(handle.Queue)
	}
	assert.For(ctx, "device gone").ThatError(
		r.Validate(ctx, instance, deviceA, false, invalidCode, "")).HasCause(diag.ErrUnknownObject)
	assert.For(ctx, "no records").ThatSlice(r.Snapshot(deviceA, handle.Buffer)).IsEmpty()
	assert.For(ctx, "devices").ThatInteger(r.Count(instance, handle.Device)).Equals(1)
	assert.For(ctx, "other device").ThatInteger(r.Count(deviceB, handle.Buffer)).Equals(1)
	assert.For(ctx, "contexts").ThatInteger(r.Contexts()).Equals(2)
}

func TestExplicitAudit(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	r.Create(ctx, deviceA, handle.Sampler.Of(0x5), handle.Null, 0)
	r.Create(ctx, deviceA, handle.Queue.Of(0x6), handle.Null, 0)
	assert.For(ctx, "reported").ThatInteger(r.ReportUndestroyedObjects(ctx, deviceA, diag.CodeObjectLeak)).Equals(1)
	assert.For(ctx, "still live").ThatInteger(r.Total(deviceA)).Equals(2)
	assert.For(ctx, "removed").ThatInteger(r.DestroyUndestroyedObjects(ctx, deviceA)).Equals(2)
	assert.For(ctx, "empty").ThatInteger(r.Total(deviceA)).Equals(0)
	assert.For(ctx, "leaks").ThatInteger(c.Count(diag.Leak)).Equals(1)
	assert.For(ctx, "not a context").ThatInteger(
		r.ReportUndestroyedObjects(ctx, handle.Queue.Of(0x6), diag.CodeObjectLeak)).Equals(0)
}

func TestInstanceTeardown(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	r.Create(ctx, deviceA, handle.Buffer.Of(0x100), handle.Null, 0)
	r.Create(ctx, instance, handle.SurfaceKHR.Of(0x101), handle.Null, 0)
	assert.For(ctx, "destroy").ThatError(r.Destroy(ctx, instance, instance, false)).Succeeded()
	leaks := c.Filter(diag.Leak)
	assert.For(ctx, "leaks").ThatSlice(leaks).IsLength(4)
	codes := map[handle.Typed]string{}
	for _, d := range leaks {
		codes[d.Object()] = d.Code
	}
	assert.For(ctx, "device A").ThatString(codes[deviceA]).Equals(diag.CodeObjectLeak)
	assert.For(ctx, "device B").ThatString(codes[deviceB]).Equals(diag.CodeObjectLeak)
	assert.For(ctx, "buffer").ThatString(codes[handle.Buffer.Of(0x100)]).Equals(diag.CodeDestroyInstanceLeak)
	assert.For(ctx, "surface").ThatString(codes[handle.SurfaceKHR.Of(0x101)]).Equals(diag.CodeDestroyInstanceLeak)
	assert.For(ctx, "contexts").ThatInteger(r.Contexts()).Equals(0)
	assert.For(ctx, "instance").ThatError(
		r.Validate(ctx, instance, instance, false, invalidCode, "")).HasCause(diag.ErrUnknownObject)
	assert.For(ctx, "twice").ThatError(r.Destroy(ctx, instance, instance, false)).HasCause(diag.ErrUnknownObject)
}

func TestWrongParent(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	buffer := handle.Buffer.Of(0x200)
	r.Create(ctx, deviceA, buffer, handle.Null, 0)

	err := r.Validate(ctx, deviceB, buffer, false, invalidCode, parentCode)
	assert.For(ctx, "with code").ThatError(err).HasCause(diag.ErrWrongParent)
	got := c.Diagnostics()
	if assert.For(ctx, "reported").ThatSlice(got).IsLength(1) {
		assert.For(ctx, "class").That(got[0].Class).Equals(diag.WrongParent)
		assert.For(ctx, "code").ThatString(got[0].Code).Equals(parentCode)
	}

	c.Reset()
	assert.For(ctx, "without code").ThatError(r.Validate(ctx, deviceB, buffer, false, invalidCode, "")).Succeeded()
	assert.For(ctx, "silent").ThatInteger(c.Len()).Equals(0)

	// A second instance with its own surface.
	other := handle.Instance.Of(0x300)
	surface := handle.SurfaceKHR.Of(0x301)
	r.Create(ctx, other, other, handle.Null, 0)
	r.Create(ctx, other, surface, handle.Null, 0)
	assert.For(ctx, "surface").ThatError(r.Validate(ctx, instance, surface, false, invalidCode, parentCode)).Succeeded()
	assert.For(ctx, "surface via device").ThatError(
		r.Validate(ctx, deviceA, surface, false, invalidCode, parentCode)).Succeeded()
	assert.For(ctx, "surface silent").ThatInteger(c.Len()).Equals(0)
}

func TestDispatchThroughObjects(t *testing.T) {
	ctx := log.Testing(t)
	r, _ := setup(ctx)
	queue := handle.Queue.Of(0x400)
	r.Create(ctx, deviceA, queue, handle.Null, 0)
	owner, ok := r.Context(queue)
	assert.For(ctx, "found").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "owner").That(owner).Equals(deviceA)
	owner, _ = r.Context(physical)
	assert.For(ctx, "physical").That(owner).Equals(instance)
	_, ok = r.Context(handle.Queue.Of(0x401))
	assert.For(ctx, "unknown").ThatBoolean(ok).IsFalse()
	sem := handle.Semaphore.Of(0x402)
	assert.For(ctx, "create via queue").ThatError(r.Create(ctx, queue, sem, handle.Null, 0)).Succeeded()
	assert.For(ctx, "on device").ThatInteger(r.Count(deviceA, handle.Semaphore)).Equals(1)
}

func TestUnknownContext(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	err := r.Create(ctx, handle.Device.Of(0x999), handle.Buffer.Of(1), handle.Null, 0)
	assert.For(ctx, "create").ThatError(err).HasCause(registry.ErrUnknownContext)
	assert.For(ctx, "reported").ThatInteger(c.Count(diag.UnknownObject)).Equals(1)
}

func TestDuplicateCreate(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	buffer := handle.Buffer.Of(0x500)
	r.Create(ctx, deviceA, buffer, handle.Null, registry.StatusCustomAllocator)
	err := r.Create(ctx, deviceA, buffer, handle.Null, 0)
	assert.For(ctx, "duplicate").ThatError(err).HasCause(diag.ErrInternalInconsistency)
	assert.For(ctx, "reported").ThatInteger(c.Count(diag.InternalInconsistency)).Equals(1)
	assert.For(ctx, "count").ThatInteger(r.Count(deviceA, handle.Buffer)).Equals(1)
	assert.For(ctx, "old record kept").ThatBoolean(
		r.Snapshot(deviceA, handle.Buffer)[0].Status.Has(registry.StatusCustomAllocator)).IsTrue()

	c.Reset()
	queue := handle.Queue.Of(0x501)
	r.Create(ctx, deviceA, queue, handle.Null, 0)
	assert.For(ctx, "retrieved").ThatError(r.Create(ctx, deviceA, queue, handle.Null, 0)).Succeeded()
	assert.For(ctx, "physical").ThatError(r.Create(ctx, instance, physical, handle.Null, 0)).Succeeded()
	assert.For(ctx, "silent").ThatInteger(c.Len()).Equals(0)

	err = r.Create(ctx, physical, deviceA, handle.Null, 0)
	assert.For(ctx, "device").ThatError(err).HasCause(diag.ErrInternalInconsistency)
}

func TestAllocatorMismatch(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	custom := handle.Image.Of(0x600)
	plain := handle.Image.Of(0x601)
	r.Create(ctx, deviceA, custom, handle.Null, registry.StatusCustomAllocator)
	r.Create(ctx, deviceA, plain, handle.Null, 0)

	err := r.ValidateDestroy(ctx, deviceA, plain, true, "VUID-custom", "VUID-default")
	assert.For(ctx, "validate").ThatError(err).HasCause(diag.ErrAllocatorMismatch)
	assert.For(ctx, "validate code").ThatString(c.Diagnostics()[0].Code).Equals("VUID-default")
	assert.For(ctx, "disabled").ThatError(r.ValidateDestroy(ctx, deviceA, plain, true, "", "")).Succeeded()

	c.Reset()
	err = r.Destroy(ctx, deviceA, custom, false)
	assert.For(ctx, "destroy").ThatError(err).HasCause(diag.ErrAllocatorMismatch)
	assert.For(ctx, "destroy code").ThatString(c.Diagnostics()[0].Code).Equals(diag.CodeCustomAllocator)
	assert.For(ctx, "still destroyed").ThatError(
		r.Validate(ctx, deviceA, custom, false, invalidCode, "")).HasCause(diag.ErrUnknownObject)
	assert.For(ctx, "matching").ThatError(r.Destroy(ctx, deviceA, plain, false)).Succeeded()
}

func TestSwapchainImages(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	swapchain := handle.SwapchainKHR.Of(0x700)
	r.Create(ctx, deviceA, swapchain, handle.Null, 0)
	for _, h := range []handle.Handle{0x701, 0x702, 0x701} {
		assert.For(ctx, "retrieve %v", h).ThatError(r.CreateSwapchainImage(ctx, deviceA, h, swapchain.Handle)).Succeeded()
	}
	assert.For(ctx, "images").ThatSlice(r.SwapchainImages(deviceA, swapchain.Handle)).Equals(
		[]handle.Handle{0x701, 0x702})
	image := handle.Image.Of(0x702)
	assert.For(ctx, "validate").ThatError(r.Validate(ctx, deviceA, image, false, invalidCode, "")).Succeeded()
	assert.For(ctx, "not counted").ThatInteger(r.Count(deviceA, handle.Image)).Equals(0)

	r.Destroy(ctx, deviceA, swapchain, false)
	assert.For(ctx, "cleared").ThatSlice(r.SwapchainImages(deviceA, swapchain.Handle)).IsEmpty()
	assert.For(ctx, "image gone").ThatError(
		r.Validate(ctx, deviceA, image, false, invalidCode, "")).HasCause(diag.ErrUnknownObject)
	assert.For(ctx, "one diagnostic").ThatInteger(c.Len()).Equals(1)
}

func TestConcurrentLifetimes(t *testing.T) {
	ctx := log.Testing(t)
	r, c := setup(ctx)
	const workers, per = 8, 200
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			device := deviceA
			if w%2 == 1 {
				device = deviceB
			}
			for i := 0; i < per; i++ {
				obj := handle.Buffer.Of(handle.Handle(0x10000 + w*per + i))
				r.Create(ctx, device, obj, handle.Null, 0)
				r.Validate(ctx, device, obj, false, invalidCode, parentCode)
				r.Destroy(ctx, device, obj, false)
			}
		}(w)
	}
	wg.Wait()
	assert.For(ctx, "diagnostics").ThatInteger(c.Len()).Equals(0)
	assert.For(ctx, "A").ThatInteger(r.Count(deviceA, handle.Buffer)).Equals(0)
	assert.For(ctx, "B").ThatInteger(r.Count(deviceB, handle.Buffer)).Equals(0)
}

func TestRoots(t *testing.T) {
	ctx := log.Testing(t)
	r, _ := setup(ctx)
	other := handle.Instance.Of(0x5)
	assert.For(ctx, "create").ThatError(r.Create(ctx, other, other, handle.Null, 0)).Succeeded()
	assert.For(ctx, "roots").ThatSlice(r.Roots()).Equals([]handle.Typed{instance, other})
	assert.For(ctx, "destroy").ThatError(r.Destroy(ctx, other, other, false)).Succeeded()
	assert.For(ctx, "remaining").ThatSlice(r.Roots()).Equals([]handle.Typed{instance})
}
