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

// Package diag_pb encodes diagnostics as protobuf well-known Struct messages,
// for binary report files and JSON dumps.
package diag_pb

import (
	"io"
	"time"

	"github.com/golang/protobuf/jsonpb"
	"github.com/golang/protobuf/proto"
	"github.com/golang/protobuf/ptypes"
	structpb "github.com/golang/protobuf/ptypes/struct"
	"github.com/golang/protobuf/ptypes/timestamp"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
	"github.com/pkg/errors"
)

// Field names of an encoded diagnostic.
const (
	fieldSeverity    = "severity"
	fieldClass       = "class"
	fieldKind        = "kind"
	fieldHandle      = "handle"
	fieldCode        = "code"
	fieldMessage     = "message"
	fieldGenerated   = "generated"
	fieldSeconds     = "seconds"
	fieldNanos       = "nanos"
	fieldDiagnostics = "diagnostics"
)

// Report is a set of diagnostics produced by one validation run.
type Report struct {
	Generated   time.Time
	Diagnostics []diag.Diagnostic
}

// From returns a new protobuf Struct constructed from the diagnostic.
// The handle is stored as a string, as a number field would lose precision
// above 2^53.
func From(d diag.Diagnostic) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldSeverity: str(d.Severity.String()),
		fieldClass:    str(d.Class.String()),
		fieldKind:     str(d.Kind.String()),
		fieldHandle:   str(d.Handle.String()),
		fieldCode:     str(d.Code),
		fieldMessage:  str(d.Message),
	}}
}

// To returns the diagnostic encoded in the protobuf Struct.
func To(s *structpb.Struct) (diag.Diagnostic, error) {
	out := diag.Diagnostic{}
	fields := s.GetFields()
	var ok bool
	if out.Severity, ok = diag.ParseSeverity(fields[fieldSeverity].GetStringValue()); !ok {
		return out, errors.Errorf("Invalid severity %q", fields[fieldSeverity].GetStringValue())
	}
	if out.Class, ok = diag.ParseClass(fields[fieldClass].GetStringValue()); !ok {
		return out, errors.Errorf("Invalid class %q", fields[fieldClass].GetStringValue())
	}
	if name := fields[fieldKind].GetStringValue(); name != handle.Unknown.String() {
		if out.Kind, ok = handle.ParseKind(name); !ok {
			return out, errors.Errorf("Invalid kind %q", name)
		}
	}
	h, err := handle.Parse(fields[fieldHandle].GetStringValue())
	if err != nil {
		return out, errors.Wrap(err, "Invalid handle")
	}
	out.Handle = h
	out.Code = fields[fieldCode].GetStringValue()
	out.Message = fields[fieldMessage].GetStringValue()
	return out, nil
}

// Encode returns the protobuf Struct holding the whole report.
func (r Report) Encode() (*structpb.Struct, error) {
	ts, err := ptypes.TimestampProto(r.Generated)
	if err != nil {
		return nil, err
	}
	list := &structpb.ListValue{}
	for _, d := range r.Diagnostics {
		list.Values = append(list.Values, &structpb.Value{
			Kind: &structpb.Value_StructValue{StructValue: From(d)},
		})
	}
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		fieldGenerated: {Kind: &structpb.Value_StructValue{StructValue: &structpb.Struct{
			Fields: map[string]*structpb.Value{
				fieldSeconds: num(float64(ts.Seconds)),
				fieldNanos:   num(float64(ts.Nanos)),
			},
		}}},
		fieldDiagnostics: {Kind: &structpb.Value_ListValue{ListValue: list}},
	}}, nil
}

// Decode returns the report held in the protobuf Struct.
func Decode(s *structpb.Struct) (Report, error) {
	out := Report{}
	generated := s.GetFields()[fieldGenerated].GetStructValue().GetFields()
	t, err := ptypes.Timestamp(&timestamp.Timestamp{
		Seconds: int64(generated[fieldSeconds].GetNumberValue()),
		Nanos:   int32(generated[fieldNanos].GetNumberValue()),
	})
	if err != nil {
		return out, errors.Wrap(err, "Invalid report time")
	}
	out.Generated = t
	for i, v := range s.GetFields()[fieldDiagnostics].GetListValue().GetValues() {
		d, err := To(v.GetStructValue())
		if err != nil {
			return out, errors.Wrapf(err, "Diagnostic %d", i)
		}
		out.Diagnostics = append(out.Diagnostics, d)
	}
	return out, nil
}

// Marshal returns the binary protobuf encoding of the report.
func Marshal(r Report) ([]byte, error) {
	s, err := r.Encode()
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

// Unmarshal decodes a report from its binary protobuf encoding.
func Unmarshal(data []byte) (Report, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return Report{}, errors.Wrap(err, "Decoding report")
	}
	return Decode(s)
}

// WriteJSON writes the report to w as indented JSON.
func WriteJSON(w io.Writer, r Report) error {
	s, err := r.Encode()
	if err != nil {
		return err
	}
	m := jsonpb.Marshaler{Indent: "  "}
	return m.Marshal(w, s)
}

// ReadJSON reads a report written by WriteJSON.
func ReadJSON(r io.Reader) (Report, error) {
	s := &structpb.Struct{}
	if err := jsonpb.Unmarshal(r, s); err != nil {
		return Report{}, errors.Wrap(err, "Decoding JSON report")
	}
	return Decode(s)
}

func str(s string) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_StringValue{StringValue: s}}
}

func num(n float64) *structpb.Value {
	return &structpb.Value{Kind: &structpb.Value_NumberValue{NumberValue: n}}
}
