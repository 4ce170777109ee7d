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

package diag

import (
	"context"
	"sync"

	"github.com/google/vkcheck/core/log"
)

// Collector is a Sink that keeps every diagnostic it receives.
type Collector struct {
	mu   sync.Mutex
	list []Diagnostic
}

// Report appends d to the collected list.
func (c *Collector) Report(ctx context.Context, d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = append(c.list, d)
}

// Diagnostics returns a copy of the collected diagnostics in report order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.list...)
}

// Filter returns the collected diagnostics of class cl.
func (c *Collector) Filter(cl Class) []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []Diagnostic{}
	for _, d := range c.list {
		if d.Class == cl {
			out = append(out, d)
		}
	}
	return out
}

// Count returns the number of collected diagnostics of class cl.
func (c *Collector) Count(cl Class) int { return len(c.Filter(cl)) }

// Len returns the number of collected diagnostics.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.list)
}

// HasErrors returns true if any collected diagnostic has Error severity.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.list {
		if d.Severity >= Error {
			return true
		}
	}
	return false
}

// Reset discards the collected diagnostics.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.list = nil
}

// LogSink is a Sink that writes each diagnostic to the logger of the context.
type LogSink struct{}

// Report logs d with its kind, handle and code bound as values.
func (LogSink) Report(ctx context.Context, d Diagnostic) {
	l := log.Bind(ctx, log.V{
		"kind":   d.Kind,
		"handle": d.Handle,
		"code":   d.Code,
	})
	l.Logf(d.Severity.LogSeverity(), false, "%v: %s", d.Class, d.Message)
}

// LogSeverity maps s to the logging severity.
func (s Severity) LogSeverity() log.Severity {
	switch s {
	case Warning:
		return log.Warning
	case Error:
		return log.Error
	default:
		return log.Info
	}
}

// Broadcast returns a Sink that forwards every diagnostic to all of sinks.
// Nil sinks are ignored.
func Broadcast(sinks ...Sink) Sink {
	list := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			list = append(list, s)
		}
	}
	return SinkFunc(func(ctx context.Context, d Diagnostic) {
		for _, s := range list {
			s.Report(ctx, d)
		}
	})
}

// Filter returns a Sink that forwards diagnostics of at least severity min
// to to.
func Filter(min Severity, to Sink) Sink {
	return SinkFunc(func(ctx context.Context, d Diagnostic) {
		if d.Severity >= min {
			to.Report(ctx, d)
		}
	})
}
