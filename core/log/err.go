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

package log

import (
	"context"
	"fmt"
	"strings"
)

// Err returns an error that wraps cause with msg and the trace of ctx.
// The cause is reachable through Cause, for github.com/pkg/errors, and
// through Unwrap.
func Err(ctx context.Context, cause error, msg string) error {
	return &err{trace: GetTrace(ctx), msg: msg, cause: cause}
}

// Errf is Err with a printf-style message.
func Errf(ctx context.Context, cause error, format string, args ...interface{}) error {
	return Err(ctx, cause, fmt.Sprintf(format, args...))
}

type err struct {
	trace []string // innermost first
	msg   string
	cause error
}

func (e *err) Cause() error  { return e.cause }
func (e *err) Unwrap() error { return e.cause }

func (e *err) Error() string {
	b := strings.Builder{}
	for i := len(e.trace) - 1; i >= 0; i-- {
		b.WriteString(e.trace[i])
		b.WriteString(" → ")
	}
	b.WriteString(e.msg)
	if e.cause != nil {
		fmt.Fprintf(&b, "\n   Cause: %v", e.cause)
	}
	return b.String()
}
