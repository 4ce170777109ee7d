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

package shim

import (
	"context"
	"sync"

	"github.com/google/vkcheck/core/fault"
	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/config"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/guard"
	"github.com/google/vkcheck/validation/handle"
	"github.com/google/vkcheck/validation/registry"
	"github.com/pkg/errors"
)

// Layer validates calls described by a Table.
//
// The registry is created on first use and released once the last instance
// is destroyed. The guard lives as long as the layer.
type Layer struct {
	settings config.Settings
	table    Table
	sink     diag.Sink
	guard    *guard.Guard

	mu    sync.Mutex
	reg   *registry.Registry
	roots int
}

// New returns a layer checking the calls of table with settings, reporting
// diagnostics at or above the configured severity to sink.
func New(settings config.Settings, table Table, sink diag.Sink) *Layer {
	if sink == nil {
		sink = diag.Discard
	}
	l := &Layer{
		settings: settings,
		table:    table,
		sink:     diag.Filter(settings.ReportSeverity, sink),
	}
	if settings.ThreadSafety {
		l.guard = guard.New(l.sink, guard.WithBuckets(settings.GuardBuckets))
	}
	return l
}

// Entry returns the description of the entry point name.
func (l *Layer) Entry(name string) (*Entry, bool) {
	e, ok := l.table[name]
	return e, ok
}

// Registry returns the live registry, or nil when no instance exists.
func (l *Layer) Registry() *registry.Registry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reg
}

// Guard returns the access guard, or nil when thread safety checks are off.
func (l *Layer) Guard() *guard.Guard { return l.guard }

func (l *Layer) registry(ctx context.Context) *registry.Registry {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reg == nil {
		l.reg = registry.New(l.sink, registry.WithShards(l.settings.Shards))
		log.D(ctx, "Registry created")
	}
	return l.reg
}

func (l *Layer) addRoot() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.roots++
}

func (l *Layer) dropRoot(ctx context.Context) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.roots--; l.roots <= 0 {
		l.roots, l.reg = 0, nil
		log.D(ctx, "Registry released")
	}
}

// Call checks a call of the entry point name with args around call.
//
// The guard accesses of the call are held from before validation until the
// produced handles are recorded. Handles are validated first; a call that
// fails validation is skipped and ErrValidationFailed returned. Otherwise
// destroyed and freed handles are released and call is made. Handles produced
// by a successful call are then recorded; call may fill in args for them. A
// nil call always succeeds.
func (l *Layer) Call(ctx context.Context, name string, args Args, call func() error) error {
	e, ok := l.table[name]
	if !ok {
		return errors.Wrapf(ErrUnknownEntry, "%s", name)
	}
	if err := e.check(args); err != nil {
		return err
	}
	ctx = log.Enter(ctx, name)
	dispatch := e.dispatch(args)

	if l.guard != nil {
		tok, _ := l.scope(ctx, e, args).Start()
		defer func() {
			if err := tok.Finish(); err != nil {
				log.D(ctx, "Finishing accesses: %v", err)
			}
		}()
	}

	var reg *registry.Registry
	if l.settings.ObjectTracking {
		reg = l.registry(ctx)
		if err := l.validate(ctx, reg, e, dispatch, args); err != nil {
			return errors.Wrapf(ErrValidationFailed, "%s: %v", name, err)
		}
		l.release(ctx, reg, e, dispatch, args)
	}

	var err error
	if call != nil {
		err = call()
	}
	if l.guard != nil {
		l.associate(e, args, err == nil)
	}
	if err != nil {
		return err
	}
	if reg != nil {
		l.record(ctx, reg, e, dispatch, args)
	}
	return nil
}

func (l *Layer) customAllocator(args Args) bool {
	return !args.One(AllocatorParam).IsNull()
}

func (l *Layer) validate(ctx context.Context, reg *registry.Registry, e *Entry, dispatch handle.Typed, args Args) error {
	errs := fault.List{}
	pool := e.pool(args)
	for _, p := range e.Params {
		if !p.Kind.Valid() || p.Role.output() {
			continue
		}
		invalid := e.invalidCode(p)
		if p.Role == Free {
			for _, h := range args[p.Name] {
				if !h.IsNull() {
					errs.Collect(reg.ValidateParent(ctx, dispatch, p.Kind.Of(h), pool, invalid, e.ParentCode))
				}
			}
			continue
		}
		hs := args[p.Name]
		if p.Role == Inherited {
			if !inherits(reg, dispatch, args) {
				continue
			}
			if len(hs) == 0 {
				hs = []handle.Handle{handle.Null}
			}
		}
		parent := e.parentCode(p)
		if parent == "" && l.settings.StrictWrongParent && p.Role != Dispatch {
			parent = diag.CodeWrongParent
		}
		for _, h := range hs {
			obj := p.Kind.Of(h)
			if err := reg.Validate(ctx, dispatch, obj, p.Nullable, invalid, parent); err != nil {
				errs.Collect(err)
				continue
			}
			if p.Role == Destroy {
				errs.Collect(reg.ValidateDestroy(ctx, dispatch, obj, l.customAllocator(args),
					e.AllocatorCodes[0], e.AllocatorCodes[1]))
			}
		}
	}
	return errs.Err()
}

// inherits returns true if the command buffer dispatch is secondary and begun
// inside a render pass, so that it inherits the render pass state.
func inherits(reg *registry.Registry, dispatch handle.Typed, args Args) bool {
	if args.One(UsageParam)&RenderPassContinue == 0 {
		return false
	}
	status, ok := reg.Status(dispatch, dispatch)
	return ok && status.Has(registry.StatusSecondary)
}

// release records the destroys, frees and resets made by the call. They are
// recorded before the call as the driver may reuse the handles at once.
func (l *Layer) release(ctx context.Context, reg *registry.Registry, e *Entry, dispatch handle.Typed, args Args) {
	for _, p := range e.Params {
		switch p.Role {
		case Destroy:
			for _, h := range args[p.Name] {
				obj := p.Kind.Of(h)
				if obj.IsNull() {
					continue
				}
				_, root := reg.Context(obj)
				root = root && obj.Kind == handle.Instance
				if err := reg.DestroyChecked(ctx, dispatch, obj, l.customAllocator(args), "", ""); err != nil {
					log.D(ctx, "Destroying %v: %v", obj, err)
				}
				if root {
					l.dropRoot(ctx)
				}
			}
		case Free:
			for _, h := range args[p.Name] {
				if !h.IsNull() {
					reg.DestroyChecked(ctx, dispatch, p.Kind.Of(h), false, "", "")
				}
			}
		}
	}
	if e.Flags.IsResetPool() {
		reg.ResetPool(ctx, dispatch, e.pool(args))
	}
}

// record records the handles produced by a successful call.
func (l *Layer) record(ctx context.Context, reg *registry.Registry, e *Entry, dispatch handle.Typed, args Args) {
	var status registry.Status
	if l.customAllocator(args) {
		status |= registry.StatusCustomAllocator
	}
	if args.One(LevelParam) == 1 {
		status |= registry.StatusSecondary
	}
	pool := e.pool(args).Handle
	for _, p := range e.Params {
		switch p.Role {
		case Create, Retrieve:
			for _, h := range args[p.Name] {
				if h.IsNull() {
					continue
				}
				err := reg.Create(ctx, dispatch, p.Kind.Of(h), pool, status)
				if err == nil && p.Kind == handle.Instance {
					l.addRoot()
				}
			}
		case SwapchainImages:
			for _, h := range args[p.Name] {
				if !h.IsNull() {
					reg.CreateSwapchainImage(ctx, dispatch, h, pool)
				}
			}
		}
	}
}

// scope collects the accesses the call makes.
func (l *Layer) scope(ctx context.Context, e *Entry, args Args) *guard.Scope {
	s := l.guard.Scope(ctx)
	for _, p := range e.Params {
		if p.Access == guard.None || !p.Kind.Valid() {
			continue
		}
		for _, h := range args[p.Name] {
			s.Add(p.Kind.Of(h), p.Access)
		}
	}
	if e.Flags.IsPoolContentsWrite() {
		s.WritePoolContents(e.pool(args).Handle)
	}
	return s
}

// associate maintains the pools of guarded children.
func (l *Layer) associate(e *Entry, args Args, succeeded bool) {
	pool := e.pool(args).Handle
	for _, p := range e.Params {
		switch {
		case p.Role == Create && succeeded && p.Kind.Info().GuardedByPool:
			for _, h := range args[p.Name] {
				if !h.IsNull() {
					l.guard.Associate(h, pool)
				}
			}
		case p.Role == Free && p.Kind.Info().GuardedByPool:
			for _, h := range args[p.Name] {
				l.guard.Disassociate(h)
			}
		case p.Role == Destroy && p.Kind.Info().IsPool():
			for _, h := range args[p.Name] {
				l.guard.DisassociatePool(h)
			}
		}
	}
}

// Audit reports every object still live under every instance, and the
// instances and devices themselves, as leaks. Nothing is removed. It
// returns the number of leaks reported.
func (l *Layer) Audit(ctx context.Context) int {
	reg := l.Registry()
	if reg == nil {
		return 0
	}
	ctx = log.Enter(ctx, "Audit")
	n := 0
	for _, root := range reg.Roots() {
		for _, dev := range reg.Snapshot(root, handle.Device) {
			n += reg.ReportUndestroyedObjects(ctx, dev.Typed(), diag.CodeDestroyDeviceLeak)
			l.leak(ctx, root, dev.Typed())
			n++
		}
		n += reg.ReportUndestroyedObjects(ctx, root, diag.CodeDestroyInstanceLeak)
		l.leak(ctx, root, root)
		n++
	}
	return n
}

func (l *Layer) leak(ctx context.Context, root, obj handle.Typed) {
	l.sink.Report(ctx, diag.New(diag.Leak, obj, diag.CodeObjectLeak,
		"OBJ ERROR : For %v, %v has not been destroyed.", root, obj))
}
