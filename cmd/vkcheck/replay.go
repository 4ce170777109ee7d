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

package main

import (
	"context"
	"sync"

	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/guard"
	"github.com/google/vkcheck/validation/shim"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// replay makes the calls of each phase through l.
func replay(ctx context.Context, l *shim.Layer, phases []Phase) error {
	for i, p := range phases {
		if err := replayPhase(log.V{"phase": i}.Bind(ctx), l, p); err != nil {
			return err
		}
	}
	return nil
}

// replayPhase makes the calls of p one step at a time. The calls of a step
// run on one goroutine per thread and are held in progress until every call
// of the step has started.
func replayPhase(ctx context.Context, l *shim.Layer, p Phase) error {
	for step, steps := 0, p.Steps(); step < steps; step++ {
		calls := []Call{}
		for _, t := range p.Threads {
			if step < len(p.Calls[t]) {
				calls = append(calls, p.Calls[t][step])
			}
		}
		started := &sync.WaitGroup{}
		started.Add(len(calls))
		g, gctx := errgroup.WithContext(ctx)
		for _, c := range calls {
			c := c
			g.Go(func() error { return replayCall(gctx, l, c, started) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}

func replayCall(ctx context.Context, l *shim.Layer, c Call, started *sync.WaitGroup) error {
	ctx = guard.PutThread(ctx, c.Thread)
	ctx = log.V{"line": c.Line, "thread": c.Thread}.Bind(ctx)
	once := sync.Once{}
	arrive := func() { once.Do(started.Done) }
	err := l.Call(ctx, c.Entry, c.Args, func() error {
		arrive()
		started.Wait()
		return nil
	})
	// Calls skipped by validation never reach the driver.
	arrive()
	switch errors.Cause(err) {
	case nil:
		return nil
	case shim.ErrValidationFailed:
		log.D(ctx, "Skipped: %v", err)
		return nil
	default:
		return log.Errf(ctx, err, "Line %d", c.Line)
	}
}
