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

// Package assert is a fluent assertion library for tests.
//
// Assertions are built from a Manager, normally wrapping a *testing.T:
//
//	assert.For(ctx, "live objects").ThatInteger(n).Equals(3)
//
// Each check returns true on success so tests can stop early when a
// precondition does not hold.
package assert

import (
	"bytes"
	"context"
	"fmt"

	"github.com/google/vkcheck/core/log"
)

// Output receives the text of failed assertions. *testing.T implements it.
type Output interface {
	Fatal(...interface{})
	Error(...interface{})
	Log(...interface{})
}

// Manager builds assertions that report to one Output.
type Manager struct {
	out Output
}

// To returns a Manager reporting to t, which is either an Output or a
// context.Context whose log handler receives the reports.
func To(t interface{}) Manager {
	switch t := t.(type) {
	case Output:
		return Manager{t}
	case context.Context:
		return Manager{logOutput{t}}
	default:
		panic(fmt.Errorf("Unsupported assertion target type %T", t))
	}
}

// For is shorthand for assert.To(t).For(msg, args...).
func For(t interface{}, msg string, args ...interface{}) *Assertion {
	return To(t).For(msg, args...)
}

// For starts an assertion titled by msg.
func (m Manager) For(msg string, args ...interface{}) *Assertion {
	a := &Assertion{to: m.out, out: &bytes.Buffer{}, level: Error}
	return a.Printf(msg, args...).Println()
}

// logOutput reports through the log of a context, so that log.Testing
// contexts fail the test on an error.
type logOutput struct{ ctx context.Context }

func (o logOutput) Fatal(args ...interface{}) { log.F(o.ctx, true, "%s", fmt.Sprint(args...)) }
func (o logOutput) Error(args ...interface{}) { log.E(o.ctx, "%s", fmt.Sprint(args...)) }
func (o logOutput) Log(args ...interface{})   { log.I(o.ctx, "%s", fmt.Sprint(args...)) }
