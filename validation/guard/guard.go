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

// Package guard checks the external synchronization contract of handles: no
// two threads may use the same handle at once unless both only read it.
//
// Every access is bracketed by a start and a finish. A start that overlaps an
// access it is incompatible with is reported as a race straight away; the
// access is still counted so the matching finish balances.
package guard

import (
	"context"
	"fmt"

	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
	"github.com/google/vkcheck/validation/shardmap"
	"github.com/pkg/errors"
)

// Mode is the kind of access a call makes to a handle.
type Mode int

const (
	// None is no access. Handles with no synchronization contract use it.
	None Mode = iota
	// Read is a shared access.
	Read
	// Write is an exclusive access.
	Write
)

func (m Mode) String() string {
	switch m {
	case None:
		return "None"
	case Read:
		return "Read"
	case Write:
		return "Write"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Guard tracks the in-flight accesses of every handle.
type Guard struct {
	sink     diag.Sink
	buckets  int
	counters [handle.Count]*counter
	contents *counter // pool contents, keyed by pool
	pools    *shardmap.Map[handle.Handle]

	// held counts the pool accesses started by StartRead and StartWrite on
	// children, by child and pool, so the finish releases the same pool
	// whatever the association is by then.
	held *shardmap.Map[map[handle.Handle]int]
}

// Option configures a Guard.
type Option func(*Guard)

// WithBuckets sets the number of counter buckets per kind.
func WithBuckets(n int) Option {
	return func(g *Guard) { g.buckets = n }
}

// New returns a guard reporting races to sink.
func New(sink diag.Sink, opts ...Option) *Guard {
	if sink == nil {
		sink = diag.Discard
	}
	g := &Guard{sink: sink, buckets: shardmap.DefaultShards}
	for _, o := range opts {
		o(g)
	}
	for k := range g.counters {
		g.counters[k] = newCounter(handle.Kind(k), g.buckets)
	}
	g.contents = newCounter(handle.CommandPool, g.buckets)
	g.pools = shardmap.New[handle.Handle](g.buckets)
	g.held = shardmap.New[map[handle.Handle]int](g.buckets)
	return g
}

type threadKeyTy string

const threadKey threadKeyTy = "guard.threadKey"

// PutThread returns a new context naming the calling thread. Overlapping
// accesses made under the same non-empty name are nested uses by one thread
// and are not reported.
func PutThread(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, threadKey, name)
}

// GetThread returns the thread name assigned to ctx.
func GetThread(ctx context.Context) string {
	out, _ := ctx.Value(threadKey).(string)
	return out
}

// StartRead marks the start of a shared access to obj. It is finished by
// FinishRead, which releases the pool the start expanded to even if obj has
// been associated or disassociated since.
func (g *Guard) StartRead(ctx context.Context, obj handle.Typed) error {
	return g.startHeld(ctx, obj, Read)
}

// FinishRead marks the end of a shared access to obj.
func (g *Guard) FinishRead(ctx context.Context, obj handle.Typed) error {
	return g.finishHeld(ctx, obj, Read)
}

// StartWrite marks the start of an exclusive access to obj.
func (g *Guard) StartWrite(ctx context.Context, obj handle.Typed) error {
	return g.startHeld(ctx, obj, Write)
}

// FinishWrite marks the end of an exclusive access to obj.
func (g *Guard) FinishWrite(ctx context.Context, obj handle.Typed) error {
	return g.finishHeld(ctx, obj, Write)
}

func (g *Guard) startHeld(ctx context.Context, obj handle.Typed, mode Mode) error {
	accesses := g.expand(obj, mode)
	if len(accesses) > 1 {
		pool := accesses[0].obj.Handle
		g.held.Compute(obj.Handle, func(m map[handle.Handle]int, _ bool) (map[handle.Handle]int, bool) {
			if m == nil {
				m = map[handle.Handle]int{}
			}
			m[pool]++
			return m, true
		})
	}
	return g.start(ctx, accesses)
}

func (g *Guard) finishHeld(ctx context.Context, obj handle.Typed, mode Mode) error {
	if mode == None || obj.IsNull() || !obj.Kind.Valid() {
		return nil
	}
	pool, ok := handle.Null, false
	if obj.Kind.Info().GuardedByPool {
		current, _ := g.pools.Find(obj.Handle)
		g.held.Compute(obj.Handle, func(m map[handle.Handle]int, present bool) (map[handle.Handle]int, bool) {
			if !present {
				return m, false
			}
			pool, ok = current, m[current] > 0
			if !ok {
				for p := range m {
					if !ok || p < pool {
						pool, ok = p, true
					}
				}
			}
			if m[pool]--; m[pool] <= 0 {
				delete(m, pool)
			}
			return m, len(m) > 0
		})
	}
	return g.finish(ctx, g.accesses(obj, mode, pool, ok))
}

// StartWritePoolContents marks the start of an operation on every object
// allocated from pool, such as resetting it.
func (g *Guard) StartWritePoolContents(ctx context.Context, pool handle.Handle) error {
	return g.start(ctx, []access{{contents: true, obj: handle.CommandPool.Of(pool), mode: Write}})
}

// FinishWritePoolContents marks the end of an operation started by
// StartWritePoolContents.
func (g *Guard) FinishWritePoolContents(ctx context.Context, pool handle.Handle) error {
	return g.finish(ctx, []access{{contents: true, obj: handle.CommandPool.Of(pool), mode: Write}})
}

// Associate records that child was allocated from pool.
func (g *Guard) Associate(child, pool handle.Handle) {
	g.pools.Compute(child, func(handle.Handle, bool) (handle.Handle, bool) { return pool, true })
}

// Disassociate forgets the pool of child.
func (g *Guard) Disassociate(child handle.Handle) {
	g.pools.Erase(child)
}

// DisassociatePool forgets every child associated with pool.
func (g *Guard) DisassociatePool(pool handle.Handle) {
	for _, e := range g.pools.Snapshot(func(_ handle.Handle, p handle.Handle) bool { return p == pool }) {
		g.pools.Erase(e.Handle)
	}
}

// PoolOf returns the pool child was allocated from.
func (g *Guard) PoolOf(child handle.Handle) (handle.Handle, bool) {
	return g.pools.Find(child)
}

// InFlight returns the number of handles of kind k with accesses in flight.
func (g *Guard) InFlight(k handle.Kind) int {
	if k >= handle.Count {
		return 0
	}
	return g.counters[k].uses.Len()
}

// access is one counted access.
type access struct {
	contents bool
	obj      handle.Typed
	mode     Mode
}

func (a access) String() string {
	if a.contents {
		return fmt.Sprintf("contents of %v", a.obj)
	}
	return a.obj.String()
}

func (a access) less(b access) bool {
	if a.contents != b.contents {
		return !a.contents
	}
	if a.obj.Kind != b.obj.Kind {
		return a.obj.Kind < b.obj.Kind
	}
	return a.obj.Handle < b.obj.Handle
}

// expand returns the accesses a mode access to obj makes. Writing an object
// guarded by its pool also writes the pool; reading it reads the pool
// contents.
func (g *Guard) expand(obj handle.Typed, mode Mode) []access {
	if mode == None || obj.IsNull() || !obj.Kind.Valid() {
		return []access{}
	}
	pool, ok := handle.Null, false
	if obj.Kind.Info().GuardedByPool {
		pool, ok = g.pools.Find(obj.Handle)
	}
	return g.accesses(obj, mode, pool, ok)
}

func (g *Guard) accesses(obj handle.Typed, mode Mode, pool handle.Handle, pooled bool) []access {
	out := []access{}
	if pooled {
		switch mode {
		case Write:
			out = append(out, access{obj: obj.Kind.Pool().Of(pool), mode: Write})
		case Read:
			out = append(out, access{contents: true, obj: obj.Kind.Pool().Of(pool), mode: Read})
		}
	}
	return append(out, access{obj: obj, mode: mode})
}

func (g *Guard) counter(a access) *counter {
	if a.contents {
		return g.contents
	}
	return g.counters[a.obj.Kind]
}

func (g *Guard) start(ctx context.Context, accesses []access) error {
	thread := GetThread(ctx)
	var err error
	for _, a := range accesses {
		other, race := g.counter(a).start(ctx, a.obj.Handle, a.mode, thread)
		if !race {
			continue
		}
		g.sink.Report(ctx, diag.New(diag.RaceDetected, a.obj, diag.CodeMultipleThreads,
			"THREADING ERROR : %v access to %v is simultaneous with another access in thread %s and thread %s.",
			a.mode, a, threadName(other), threadName(thread)))
		if err == nil {
			err = errors.Wrapf(diag.ErrRaceDetected, "%v %v", a.mode, a)
		}
	}
	return err
}

func (g *Guard) finish(ctx context.Context, accesses []access) error {
	thread := GetThread(ctx)
	var err error
	for i := len(accesses) - 1; i >= 0; i-- {
		a := accesses[i]
		if g.counter(a).finish(ctx, a.obj.Handle, a.mode, thread) {
			continue
		}
		g.sink.Report(ctx, diag.New(diag.InternalInconsistency, a.obj, diag.CodeInternalError,
			"%v of %v finished without being started.", a.mode, a))
		if err == nil {
			err = errors.Wrapf(diag.ErrInternalInconsistency, "Finishing %v %v", a.mode, a)
		}
	}
	return err
}

func threadName(t string) string {
	if t == "" {
		return "<unnamed>"
	}
	return t
}
