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

// Package handle holds the object model shared by the registry and the guard:
// the closed set of object kinds, the opaque handle values the application
// passes around and the fixed per-kind metadata table.
package handle

import (
	"fmt"
	"strconv"
	"strings"
)

// Handle is an opaque value identifying one live object of some kind.
// Values are only unique within a kind, and only while the object is alive.
type Handle uint64

// Null is the null handle sentinel.
const Null Handle = 0

// IsNull returns true if h is the null handle.
func (h Handle) IsNull() bool { return h == Null }

func (h Handle) String() string { return fmt.Sprintf("0x%x", uint64(h)) }

// Parse parses a handle written in decimal or with a 0x prefix.
func Parse(s string) (Handle, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 0, 64)
	if err != nil {
		return Null, err
	}
	return Handle(v), nil
}

// Typed is a handle paired with the kind it was declared as.
type Typed struct {
	Kind   Kind
	Handle Handle
}

// Of returns the typed handle of kind k with the value h.
func (k Kind) Of(h Handle) Typed { return Typed{Kind: k, Handle: h} }

// IsNull returns true if the handle value is null.
func (t Typed) IsNull() bool { return t.Handle.IsNull() }

func (t Typed) String() string { return fmt.Sprintf("%v %v", t.Kind, t.Handle) }
