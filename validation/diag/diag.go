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

// Package diag defines the diagnostics reported by the validation engines and
// the sinks that receive them.
package diag

import (
	"context"
	"fmt"

	"github.com/google/vkcheck/core/fault"
	"github.com/google/vkcheck/validation/handle"
)

// Severity is the severity of a diagnostic.
type Severity int

// Severities, from least to most severe.
const (
	Info Severity = iota
	Warning
	Error
)

var severityNames = [...]string{Info: "Info", Warning: "Warning", Error: "Error"}

func (s Severity) String() string {
	if s >= 0 && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity returns the severity with the given name.
func ParseSeverity(name string) (Severity, bool) {
	for s, n := range severityNames {
		if n == name {
			return Severity(s), true
		}
	}
	return Info, false
}

// Class is the category of a reported condition.
type Class int

const (
	// Informational records, such as object creation traces.
	Informational Class = iota
	// UnknownObject is a handle that is not present in the expected registry.
	UnknownObject
	// WrongParent is an object that exists under a different context.
	WrongParent
	// AllocatorMismatch is a destroy whose allocator usage disagrees with the
	// create.
	AllocatorMismatch
	// Leak is an object still live when its owning context is torn down.
	Leak
	// RaceDetected is an access that violates the external synchronization
	// contract.
	RaceDetected
	// InternalInconsistency is a state the registry should never observe, such
	// as a double insert.
	InternalInconsistency
)

var classNames = [...]string{
	Informational:         "Info",
	UnknownObject:         "UnknownObject",
	WrongParent:           "WrongParent",
	AllocatorMismatch:     "AllocatorMismatch",
	Leak:                  "Leak",
	RaceDetected:          "RaceDetected",
	InternalInconsistency: "InternalInconsistency",
}

func (c Class) String() string {
	if c >= 0 && int(c) < len(classNames) {
		return classNames[c]
	}
	return fmt.Sprintf("Class(%d)", int(c))
}

// ParseClass returns the class with the given name.
func ParseClass(name string) (Class, bool) {
	for c, n := range classNames {
		if n == name {
			return Class(c), true
		}
	}
	return Informational, false
}

// Severity returns the severity a condition of class c is reported at.
func (c Class) Severity() Severity {
	if c == Informational {
		return Info
	}
	return Error
}

// Sentinel errors returned alongside the reported diagnostics.
const (
	ErrUnknownObject         = fault.Const("Unknown object")
	ErrWrongParent           = fault.Const("Object belongs to a different context")
	ErrAllocatorMismatch     = fault.Const("Allocator usage differs from creation")
	ErrLeak                  = fault.Const("Object leaked")
	ErrRaceDetected          = fault.Const("Simultaneous use from multiple threads")
	ErrInternalInconsistency = fault.Const("Internal inconsistency")
)

// Err returns the sentinel error for the class, or nil for Informational.
func (c Class) Err() error {
	switch c {
	case UnknownObject:
		return ErrUnknownObject
	case WrongParent:
		return ErrWrongParent
	case AllocatorMismatch:
		return ErrAllocatorMismatch
	case Leak:
		return ErrLeak
	case RaceDetected:
		return ErrRaceDetected
	case InternalInconsistency:
		return ErrInternalInconsistency
	}
	return nil
}

// Diagnostic is a single reported condition.
type Diagnostic struct {
	Severity Severity
	Class    Class
	Kind     handle.Kind
	Handle   handle.Handle
	Code     string
	Message  string
}

// New returns a diagnostic of class c about obj, with the severity of the
// class.
func New(c Class, obj handle.Typed, code, msg string, args ...interface{}) Diagnostic {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	return Diagnostic{
		Severity: c.Severity(),
		Class:    c,
		Kind:     obj.Kind,
		Handle:   obj.Handle,
		Code:     code,
		Message:  msg,
	}
}

// Object returns the typed handle the diagnostic is about.
func (d Diagnostic) Object() handle.Typed { return d.Kind.Of(d.Handle) }

func (d Diagnostic) String() string {
	return fmt.Sprintf("%v [%s] %v %v: %s", d.Severity, d.Code, d.Kind, d.Handle, d.Message)
}

// Sink receives diagnostics.
// Implementations must be safe to call from multiple goroutines.
type Sink interface {
	Report(ctx context.Context, d Diagnostic)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, d Diagnostic)

// Report calls f(ctx, d).
func (f SinkFunc) Report(ctx context.Context, d Diagnostic) { f(ctx, d) }

// Discard is a sink that drops every diagnostic.
var Discard Sink = SinkFunc(func(context.Context, Diagnostic) {})
