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

// Package shim drives the object registry and the access guard from a table
// describing the handle parameters of each API entry point.
package shim

import (
	"fmt"

	"github.com/google/vkcheck/core/fault"
	"github.com/google/vkcheck/validation/guard"
	"github.com/google/vkcheck/validation/handle"
	"github.com/pkg/errors"
)

// Errors returned by Layer.Call.
const (
	ErrUnknownEntry     = fault.Const("Unknown entry point")
	ErrBadArgs          = fault.Const("Bad arguments")
	ErrValidationFailed = fault.Const("Validation failed")
)

// Names of the scalar parameters an entry may declare.
const (
	// AllocatorParam is non-zero when the call passes allocation callbacks.
	AllocatorParam = "pAllocator"
	// LevelParam is 1 when allocated command buffers are secondary.
	LevelParam = "level"
	// UsageParam holds the usage flags a command buffer is begun with.
	UsageParam = "flags"
)

// RenderPassContinue is the usage flag of a secondary command buffer begun
// inside a render pass.
const RenderPassContinue = 0x2


// Role is the part a parameter plays in the lifetime of its handles.
type Role int

const (
	// Input handles must be live.
	Input Role = iota
	// Dispatch is the dispatchable handle the call is made through.
	Dispatch
	// Create handles are recorded once the call succeeds.
	Create
	// Destroy handles are released before the call.
	Destroy
	// Free handles are returned to the entry's pool before the call.
	Free
	// Retrieve handles are recorded once the call succeeds and may be
	// returned again by later calls.
	Retrieve
	// SwapchainImages handles are recorded in the swapchain image table.
	SwapchainImages
	// Inherited handles are only checked when the dispatch command buffer is
	// secondary and begun with RenderPassContinue. A missing non-nullable
	// inherited handle is then reported as invalid.
	Inherited
)

var roleNames = [...]string{"Input", "Dispatch", "Create", "Destroy", "Free", "Retrieve", "SwapchainImages", "Inherited"}

func (r Role) String() string {
	if r >= 0 && int(r) < len(roleNames) {
		return roleNames[r]
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// output returns true for roles whose handles are produced by the call.
func (r Role) output() bool {
	return r == Create || r == Retrieve || r == SwapchainImages
}

// Param describes one parameter of an entry point.
type Param struct {
	Name string
	// Kind is the kind of the handles passed, or handle.Unknown for scalars.
	Kind     handle.Kind
	Nullable bool
	Array    bool
	// Access is the synchronization the call requires of the handles.
	Access guard.Mode
	Role   Role
	// ParentCode is reported when a handle was created under another
	// context. When empty the entry's WrongParentCode applies.
	ParentCode string
}

// Flags is a bitfield describing pool-wide effects of an entry.
type Flags uint32

const (
	// ResetPool frees the children of the entry's pool.
	ResetPool Flags = 1 << iota
	// PoolContentsWrite takes write access to everything allocated from the
	// entry's pool.
	PoolContentsWrite
)

// IsResetPool returns true if the entry frees the children of its pool.
func (f Flags) IsResetPool() bool { return (f & ResetPool) != 0 }

// IsPoolContentsWrite returns true if the entry writes the contents of its pool.
func (f Flags) IsPoolContentsWrite() bool { return (f & PoolContentsWrite) != 0 }

// Entry describes one API entry point.
type Entry struct {
	Name   string
	Params []Param
	Flags  Flags
	// InvalidCodes overrides the code reported for an invalid handle, by
	// parameter name.
	InvalidCodes map[string]string
	// WrongParentCode is reported for handles created under another context
	// when the parameter names no code of its own.
	WrongParentCode string
	// ParentCode is reported when a freed handle was not allocated from the
	// entry's pool.
	ParentCode string
	// AllocatorCodes are the codes reported when a destroyed handle was
	// created with, and without, a custom allocator.
	AllocatorCodes [2]string
	// PoolParam names the pool parameter.
	PoolParam string
}

// Param returns the parameter called name.
func (e *Entry) Param(name string) (Param, bool) {
	for _, p := range e.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// invalidCode returns the code reported when a handle passed for p is invalid.
func (e *Entry) invalidCode(p Param) string {
	if code, ok := e.InvalidCodes[p.Name]; ok {
		return code
	}
	return fmt.Sprintf("VUID-%s-%s-parameter", e.Name, p.Name)
}

func (e *Entry) parentCode(p Param) string {
	if p.ParentCode != "" {
		return p.ParentCode
	}
	return e.WrongParentCode
}

// check verifies that args names only parameters of e, supplies every
// required input and passes a single value to every scalar parameter.
func (e *Entry) check(args Args) error {
	for name := range args {
		if _, ok := e.Param(name); !ok {
			return errors.Wrapf(ErrBadArgs, "%s has no parameter %s", e.Name, name)
		}
	}
	for _, p := range e.Params {
		n := len(args[p.Name])
		switch {
		case n == 0 && !p.Nullable && !p.Role.output() && p.Role != Inherited && p.Kind.Valid():
			return errors.Wrapf(ErrBadArgs, "%s: missing %s", e.Name, p.Name)
		case n > 1 && !p.Array:
			return errors.Wrapf(ErrBadArgs, "%s: %s takes a single value, got %d", e.Name, p.Name, n)
		}
	}
	if e.PoolParam != "" {
		if _, ok := e.Param(e.PoolParam); !ok {
			return errors.Wrapf(ErrBadArgs, "%s: pool parameter %s is not declared", e.Name, e.PoolParam)
		}
	}
	return nil
}

// dispatch returns the handle the call is made through: the first
// parameter when it is the dispatch handle or a destroyed context.
func (e *Entry) dispatch(args Args) handle.Typed {
	if len(e.Params) == 0 {
		return handle.Typed{}
	}
	p := e.Params[0]
	if p.Role == Dispatch || (p.Role == Destroy && p.Kind.Info().Context) {
		return p.Kind.Of(args.One(p.Name))
	}
	return handle.Typed{}
}

// pool returns the pool the entry allocates from, frees to or resets.
func (e *Entry) pool(args Args) handle.Typed {
	p, ok := e.Param(e.PoolParam)
	if !ok {
		return handle.Typed{}
	}
	return p.Kind.Of(args.One(p.Name))
}

// Table maps entry point names to their descriptions.
type Table map[string]*Entry

// Add inserts e, replacing any entry of the same name.
func (t Table) Add(e *Entry) Table {
	t[e.Name] = e
	return t
}

// Args holds the values passed for each parameter of a call. Handles are
// listed in order; scalar parameters hold a single value.
type Args map[string][]handle.Handle

// One returns the first value passed for name, or handle.Null.
func (a Args) One(name string) handle.Handle {
	if v := a[name]; len(v) > 0 {
		return v[0]
	}
	return handle.Null
}
