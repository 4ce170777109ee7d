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

package diag_pb_test

import (
	"bytes"
	"testing"
	"time"

	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/google/vkcheck/core/assert"
	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/diag/diag_pb"
	"github.com/google/vkcheck/validation/handle"
)

var report = diag_pb.Report{
	Generated: time.Date(2026, time.October, 19, 8, 30, 0, 250, time.UTC),
	Diagnostics: []diag.Diagnostic{
		diag.New(diag.Leak, handle.Buffer.Of(0xffffffffffff0001), diag.CodeObjectLeak, "not destroyed"),
		diag.New(diag.Informational, handle.Device.Of(1), diag.CodeInfo, "created"),
		diag.New(diag.RaceDetected, handle.Unknown.Of(0), diag.CodeMultipleThreads, "race"),
	},
}


func TestBinaryRoundTrip(t *testing.T) {
	ctx := log.Testing(t)
	data, err := diag_pb.Marshal(report)
	if !assert.For(ctx, "marshal").ThatError(err).Succeeded() {
		return
	}
	got, err := diag_pb.Unmarshal(data)
	assert.For(ctx, "unmarshal").ThatError(err).Succeeded()
	assert.For(ctx, "time").ThatBoolean(got.Generated.Equal(report.Generated)).IsTrue()
	assert.For(ctx, "diagnostics").ThatSlice(got.Diagnostics).Equals(report.Diagnostics)
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := log.Testing(t)
	buf := &bytes.Buffer{}
	err := diag_pb.WriteJSON(buf, report)
	if !assert.For(ctx, "write").ThatError(err).Succeeded() {
		return
	}
	assert.For(ctx, "json").ThatString(buf.String()).Contains(`"code": "UNASSIGNED-ObjectTracker-ObjectLeak"`)
	got, err := diag_pb.ReadJSON(buf)
	assert.For(ctx, "read").ThatError(err).Succeeded()
	assert.For(ctx, "diagnostics").ThatSlice(got.Diagnostics).Equals(report.Diagnostics)
}

func TestInvalid(t *testing.T) {
	ctx := log.Testing(t)
	s := diag_pb.From(report.Diagnostics[0])
	s.Fields["class"] = &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: "Spilled"}}
	_, err := diag_pb.To(s)
	assert.For(ctx, "class").ThatError(err).Failed()
	_, err = diag_pb.Unmarshal([]byte{0xff, 0xff})
	assert.For(ctx, "garbage").ThatError(err).Failed()
}
