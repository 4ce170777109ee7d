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

package diag_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/google/vkcheck/core/assert"
	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
)

func TestNew(t *testing.T) {
	ctx := log.Testing(t)
	d := diag.New(diag.Leak, handle.Buffer.Of(7), diag.CodeObjectLeak, "%s was not destroyed", "buffer")
	assert.For(ctx, "severity").That(d.Severity).Equals(diag.Error)
	assert.For(ctx, "object").That(d.Object()).Equals(handle.Buffer.Of(7))
	assert.For(ctx, "string").ThatString(d.String()).Equals(
		"Error [UNASSIGNED-ObjectTracker-ObjectLeak] Buffer 0x7: buffer was not destroyed")
	info := diag.New(diag.Informational, handle.Device.Of(1), diag.CodeInfo, "100% plain")
	assert.For(ctx, "unformatted").ThatString(info.Message).Equals("100% plain")
	assert.For(ctx, "info severity").That(info.Severity).Equals(diag.Info)
}

func TestClassErrors(t *testing.T) {
	ctx := log.Testing(t)
	assert.For(ctx, "info").ThatError(diag.Informational.Err()).Succeeded()
	assert.For(ctx, "race").ThatError(diag.RaceDetected.Err()).Equals(diag.ErrRaceDetected)
	for c := diag.Informational; c <= diag.InternalInconsistency; c++ {
		parsed, ok := diag.ParseClass(c.String())
		assert.For(ctx, "%v parsed", c).ThatBoolean(ok).IsTrue()
		assert.For(ctx, "%v round trip", c).That(parsed).Equals(c)
	}
}

func TestCollector(t *testing.T) {
	ctx := log.Testing(t)
	c := &diag.Collector{}
	c.Report(ctx, diag.New(diag.Informational, handle.Buffer.Of(1), diag.CodeInfo, "created"))
	assert.For(ctx, "no errors").ThatBoolean(c.HasErrors()).IsFalse()
	c.Report(ctx, diag.New(diag.UnknownObject, handle.Buffer.Of(2), diag.CodeUnknownObject, "unknown"))
	c.Report(ctx, diag.New(diag.UnknownObject, handle.Image.Of(3), diag.CodeUnknownObject, "unknown"))
	assert.For(ctx, "len").ThatInteger(c.Len()).Equals(3)
	assert.For(ctx, "unknown").ThatInteger(c.Count(diag.UnknownObject)).Equals(2)
	assert.For(ctx, "leaks").ThatSlice(c.Filter(diag.Leak)).IsEmpty()
	assert.For(ctx, "errors").ThatBoolean(c.HasErrors()).IsTrue()
	c.Reset()
	assert.For(ctx, "reset").ThatInteger(c.Len()).Equals(0)
}

func TestBroadcastAndFilter(t *testing.T) {
	ctx := log.Testing(t)
	all, errs := &diag.Collector{}, &diag.Collector{}
	sink := diag.Broadcast(all, nil, diag.Filter(diag.Error, errs))
	sink.Report(ctx, diag.New(diag.Informational, handle.Fence.Of(1), diag.CodeInfo, "info"))
	sink.Report(ctx, diag.New(diag.WrongParent, handle.Fence.Of(1), diag.CodeWrongParent, "wrong"))
	assert.For(ctx, "all").ThatInteger(all.Len()).Equals(2)
	assert.For(ctx, "errors").ThatInteger(errs.Len()).Equals(1)
	diag.Discard.Report(ctx, diag.Diagnostic{})
}

func TestLogSink(t *testing.T) {
	ctx := log.Testing(t)
	buf := &bytes.Buffer{}
	lctx := log.PutHandler(context.Background(), log.Writer(log.Normal, buf))
	diag.LogSink{}.Report(lctx, diag.New(diag.RaceDetected, handle.Queue.Of(0x10), diag.CodeMultipleThreads, "two writers"))
	assert.For(ctx, "logged").ThatString(buf.String()).Equals(
		"E: RaceDetected: two writers (code: UNASSIGNED-Threading-MultipleThreads, handle: 0x10, kind: Queue)\n")
}

func TestParseSeverity(t *testing.T) {
	ctx := log.Testing(t)
	s, ok := diag.ParseSeverity("Warning")
	assert.For(ctx, "ok").ThatBoolean(ok).IsTrue()
	assert.For(ctx, "warning").That(s).Equals(diag.Warning)
	_, ok = diag.ParseSeverity("Loud")
	assert.For(ctx, "bad").ThatBoolean(ok).IsFalse()
}
