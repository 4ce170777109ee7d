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

package shardmap_test

import (
	"sort"
	"sync"
	"testing"

	"github.com/google/vkcheck/core/assert"
	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/handle"
	"github.com/google/vkcheck/validation/shardmap"
)

func TestShardCount(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct{ in, expect int }{
		{0, shardmap.DefaultShards},
		{1, 1},
		{3, 4},
		{64, 64},
		{100, 128},
	} {
		assert.For(ctx, "shards(%d)", test.in).ThatInteger(shardmap.New[int](test.in).Shards()).Equals(test.expect)
	}
}

func TestInsertFindErase(t *testing.T) {
	ctx := log.Testing(t)
	m := shardmap.New[string](0)
	assert.For(ctx, "insert").ThatBoolean(m.Insert(42, "pool")).IsTrue()
	assert.For(ctx, "duplicate").ThatBoolean(m.Insert(42, "other")).IsFalse()
	v, ok := m.Find(42)
	assert.For(ctx, "found").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "kept old").ThatString(v).Equals("pool")
	assert.For(ctx, "update").ThatBoolean(m.Update(42, func(s string) string { return s + "!" })).IsTrue()
	assert.For(ctx, "update missing").ThatBoolean(m.Update(7, func(s string) string { return s })).IsFalse()
	v, ok = m.Pop(42)
	assert.For(ctx, "popped").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "updated").ThatString(v).Equals("pool!")
	assert.For(ctx, "gone").ThatBoolean(m.Contains(42)).IsFalse()
	assert.For(ctx, "erase missing").ThatBoolean(m.Erase(42)).IsFalse()
}

func TestCompute(t *testing.T) {
	ctx := log.Testing(t)
	m := shardmap.New[int](4)
	inc := func(v int, ok bool) (int, bool) { return v + 1, true }
	dec := func(v int, ok bool) (int, bool) { return v - 1, v > 1 }
	m.Compute(9, inc)
	m.Compute(9, inc)
	v, _ := m.Find(9)
	assert.For(ctx, "incremented").ThatInteger(v).Equals(2)
	m.Compute(9, dec)
	assert.For(ctx, "kept").ThatBoolean(m.Contains(9)).IsTrue()
	m.Compute(9, dec)
	assert.For(ctx, "removed").ThatBoolean(m.Contains(9)).IsFalse()
	m.Compute(10, func(int, bool) (int, bool) { return 0, false })
	assert.For(ctx, "absent").ThatInteger(m.Len()).Equals(0)
}

func TestSnapshotWhileMutating(t *testing.T) {
	ctx := log.Testing(t)
	m := shardmap.New[int](8)
	for i := 1; i <= 100; i++ {
		m.Insert(handle.Handle(i), i)
	}
	even := m.Snapshot(func(h handle.Handle, v int) bool { return v%2 == 0 })
	assert.For(ctx, "even").ThatSlice(even).IsLength(50)
	for _, e := range m.Snapshot(nil) {
		m.Erase(e.Handle)
	}
	assert.For(ctx, "empty").ThatInteger(m.Len()).Equals(0)
	m.Insert(1, 1)
	m.Clear()
	assert.For(ctx, "cleared").ThatInteger(m.Len()).Equals(0)
}

func TestConcurrentAccess(t *testing.T) {
	ctx := log.Testing(t)
	m := shardmap.New[int](0)
	const workers, per = 8, 500
	wg := sync.WaitGroup{}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < per; i++ {
				h := handle.Handle(w*per + i + 1)
				m.Insert(h, w)
				if i%2 == 1 {
					m.Erase(h)
				}
			}
		}(w)
	}
	wg.Wait()
	entries := m.Snapshot(nil)
	assert.For(ctx, "remaining").ThatSlice(entries).IsLength(workers * per / 2)
	handles := make([]int, len(entries))
	for i, e := range entries {
		handles[i] = int(e.Handle)
	}
	sort.Ints(handles)
	assert.For(ctx, "first").ThatInteger(handles[0]).Equals(1)
}
