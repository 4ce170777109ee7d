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

package guard

import (
	"context"
	"sort"

	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/config"
	"github.com/google/vkcheck/validation/handle"
	"github.com/google/vkcheck/validation/shardmap"
)

// use is the in-flight access count of one handle. threads counts the
// accesses in flight by thread name; the unnamed thread is "".
type use struct {
	readers int
	writers int
	threads map[string]int
}

// only returns true if every access in flight was made by the named thread.
func (u use) only(thread string) bool {
	return thread != "" && len(u.threads) == 1 && u.threads[thread] > 0
}

// other returns a thread other than thread with an access in flight,
// preferring named ones.
func (u use) other(thread string) string {
	names := make([]string, 0, len(u.threads))
	for t := range u.threads {
		if t != thread {
			names = append(names, t)
		}
	}
	sort.Strings(names)
	switch {
	case len(names) == 0:
		return ""
	case names[0] == "" && len(names) > 1:
		return names[1]
	default:
		return names[0]
	}
}

// release drops an access of thread, or of some thread if thread has none
// in flight.
func (u use) release(thread string) {
	if u.threads[thread] == 0 {
		thread = u.other(thread)
	}
	if u.threads[thread]--; u.threads[thread] <= 0 {
		delete(u.threads, thread)
	}
}

// counter holds the uses of the handles of one kind. Only handles with
// accesses in flight have an entry.
type counter struct {
	kind handle.Kind
	uses *shardmap.Map[use]
}

func newCounter(kind handle.Kind, buckets int) *counter {
	return &counter{kind: kind, uses: shardmap.New[use](buckets)}
}

// start counts an access to h, returning the thread of the conflicting access
// and true if it overlaps an incompatible one.
func (c *counter) start(ctx context.Context, h handle.Handle, mode Mode, thread string) (string, bool) {
	other, race := "", false
	c.uses.Compute(h, func(u use, _ bool) (use, bool) {
		if u.threads == nil {
			u.threads = map[string]int{}
		}
		busy := u.writers > 0 || (mode == Write && u.readers > 0)
		if busy && !u.only(thread) {
			other, race = u.other(thread), true
		}
		switch mode {
		case Write:
			u.writers++
		case Read:
			u.readers++
		}
		u.threads[thread]++
		if config.LogGuardCounts {
			log.D(ctx, "Start %v %v: readers %d writers %d", mode, c.kind.Of(h), u.readers, u.writers)
		}
		return u, true
	})
	return other, race
}

// finish releases an access to h made by thread, returning false if none was
// in flight.
func (c *counter) finish(ctx context.Context, h handle.Handle, mode Mode, thread string) bool {
	ok := false
	c.uses.Compute(h, func(u use, present bool) (use, bool) {
		if !present {
			return u, false
		}
		switch {
		case mode == Write && u.writers > 0:
			u.writers--
			ok = true
		case mode == Read && u.readers > 0:
			u.readers--
			ok = true
		}
		if ok {
			u.release(thread)
		}
		if config.LogGuardCounts {
			log.D(ctx, "Finish %v %v: readers %d writers %d", mode, c.kind.Of(h), u.readers, u.writers)
		}
		return u, u.readers > 0 || u.writers > 0
	})
	return ok
}
