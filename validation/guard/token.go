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
	"sync/atomic"

	"github.com/google/vkcheck/validation/handle"
)

// Token is a set of started accesses. Finish releases them; later calls do
// nothing. A nil Token is valid and holds nothing.
//
//	tok, _ := g.Write(ctx, queue)
//	defer tok.Finish()
type Token struct {
	g        *Guard
	ctx      context.Context
	accesses []access
	done     atomic.Bool
}

// Finish releases the accesses held by the token.
func (t *Token) Finish() error {
	if t == nil || !t.done.CompareAndSwap(false, true) {
		return nil
	}
	return t.g.finish(t.ctx, t.accesses)
}

// Read starts a shared access to obj and returns the token that finishes it.
// The token is returned even when a race is reported.
func (g *Guard) Read(ctx context.Context, obj handle.Typed) (*Token, error) {
	accesses := g.expand(obj, Read)
	return &Token{g: g, ctx: ctx, accesses: accesses}, g.start(ctx, accesses)
}

// Write starts an exclusive access to obj and returns the token that
// finishes it. The token is returned even when a race is reported.
func (g *Guard) Write(ctx context.Context, obj handle.Typed) (*Token, error) {
	accesses := g.expand(obj, Write)
	return &Token{g: g, ctx: ctx, accesses: accesses}, g.start(ctx, accesses)
}

// Scope collects the accesses made by one call so they can be started and
// finished together. A handle named more than once is accessed once, with the
// strongest mode requested.
type Scope struct {
	g     *Guard
	ctx   context.Context
	modes map[access]Mode
}

// Scope returns an empty scope for a call made with ctx.
func (g *Guard) Scope(ctx context.Context) *Scope {
	return &Scope{g: g, ctx: ctx, modes: map[access]Mode{}}
}

// Read adds a shared access to obj.
func (s *Scope) Read(obj handle.Typed) *Scope { return s.Add(obj, Read) }

// Write adds an exclusive access to obj.
func (s *Scope) Write(obj handle.Typed) *Scope { return s.Add(obj, Write) }

// Add adds an access to obj with mode.
func (s *Scope) Add(obj handle.Typed, mode Mode) *Scope {
	for _, a := range s.g.expand(obj, mode) {
		s.merge(a)
	}
	return s
}

// WritePoolContents adds an exclusive access to every object allocated from
// pool.
func (s *Scope) WritePoolContents(pool handle.Handle) *Scope {
	s.merge(access{contents: true, obj: handle.CommandPool.Of(pool), mode: Write})
	return s
}

func (s *Scope) merge(a access) {
	key := a
	key.mode = None
	if a.mode > s.modes[key] {
		s.modes[key] = a.mode
	}
}

// Len returns the number of distinct accesses in the scope.
func (s *Scope) Len() int { return len(s.modes) }

// Start starts every access in the scope, ordered by kind and handle, and
// returns the token that finishes them. The error is the first race
// reported; the token is returned regardless.
func (s *Scope) Start() (*Token, error) {
	accesses := make([]access, 0, len(s.modes))
	for key, mode := range s.modes {
		key.mode = mode
		accesses = append(accesses, key)
	}
	sort.Slice(accesses, func(i, j int) bool { return accesses[i].less(accesses[j]) })
	return &Token{g: s.g, ctx: s.ctx, accesses: accesses}, s.g.start(s.ctx, accesses)
}
