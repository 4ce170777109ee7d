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

package log_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/vkcheck/core/assert"
	"github.com/google/vkcheck/core/log"
	pkgerrors "github.com/pkg/errors"
)

var fixedTime = time.Date(2026, time.October, 19, 12, 34, 56, 789000000, time.UTC)

type testMessage struct {
	msg      string
	severity log.Severity
	tag      string
	trace    []string
	values   log.V
	raw      string
	brief    string
	normal   string
	detailed string
}

func (m testMessage) send(h log.Handler) {
	ctx := log.PutHandler(context.Background(), h)
	ctx = log.PutClock(ctx, func() time.Time { return fixedTime })
	if m.tag != "" {
		ctx = log.PutTag(ctx, m.tag)
	}
	for _, name := range m.trace {
		ctx = log.Enter(ctx, name)
	}
	if m.values != nil {
		ctx = m.values.Bind(ctx)
	}
	log.From(ctx).Log(m.severity, false, m.msg)
}

var testMessages = []testMessage{
	{
		msg:      "plain warning",
		severity: log.Warning,
		raw:      "plain warning",
		brief:    "W: plain warning",
		normal:   "W: plain warning",
		detailed: "12:34:56.789 Warning: plain warning",
	},
	{
		msg:      "with values",
		severity: log.Info,
		values:   log.V{"dog": "woof", "cat": "meow"},
		raw:      "with values",
		brief:    "I: with values",
		normal:   "I: with values (cat: meow, dog: woof)",
		detailed: "12:34:56.789 Info: with values\n  cat: meow\n  dog: woof",
	},
	{
		msg:      "annotated",
		severity: log.Debug,
		tag:      "vk",
		trace:    []string{"outer", "inner"},
		raw:      "annotated",
		brief:    "D: annotated",
		normal:   "D <vk> [outer → inner]: annotated",
		detailed: "12:34:56.789 Debug <vk> [outer → inner]: annotated",
	},
}

func TestStyles(t *testing.T) {
	assert := assert.To(t)
	for _, test := range testMessages {
		for _, s := range []struct {
			style  log.Style
			expect string
		}{
			{log.Raw, test.raw},
			{log.Brief, test.brief},
			{log.Normal, test.normal},
			{log.Detailed, test.detailed},
		} {
			buf := &bytes.Buffer{}
			test.send(log.Writer(s.style, buf))
			got := strings.TrimSuffix(buf.String(), "\n")
			assert.For("%s %v", test.msg, s.style).ThatString(got).Equals(s.expect)
		}
	}
}

type messages []*log.Message

func (m *messages) Handle(msg *log.Message) { *m = append(*m, msg) }
func (m *messages) Close()                  {}

func TestBroadcast(t *testing.T) {
	assert := assert.To(t)
	a, b := &messages{}, &messages{}
	h := log.Broadcast(a, nil, b)
	for _, test := range testMessages {
		test.send(h)
	}
	assert.For("a").ThatSlice(*a).IsLength(len(testMessages))
	assert.For("b").ThatSlice(*b).IsLength(len(testMessages))
	assert.For("same message").That((*a)[0]).Equals((*b)[0])
}

func TestSeverityFilter(t *testing.T) {
	assert := assert.To(t)
	got := &messages{}
	ctx := log.PutHandler(context.Background(), got)
	ctx = log.PutFilter(ctx, log.SeverityFilter(log.Warning))
	log.D(ctx, "dropped")
	log.I(ctx, "dropped")
	log.W(ctx, "kept %d", 1)
	log.E(ctx, "kept %d", 2)
	assert.For("filtered").ThatSlice(*got).IsLength(2)
	assert.For("first").ThatString((*got)[0].Text).Equals("kept 1")
	assert.For("active").ThatBoolean(log.From(ctx).Active(log.Info)).IsFalse()
}

func TestShadowedValues(t *testing.T) {
	assert := assert.To(t)
	got := &messages{}
	ctx := log.PutHandler(context.Background(), got)
	ctx = log.V{"handle": 1, "kind": "Buffer"}.Bind(ctx)
	log.Bind(ctx, log.V{"handle": 2}).I("bound")
	assert.For("messages").ThatSlice(*got).IsLength(1)
	values := (*got)[0].Values
	assert.For("values").ThatSlice(values).IsLength(2)
	assert.For("handle").That(values.Get("handle")).Equals(2)
	assert.For("kind").That(values.Get("kind")).Equals("Buffer")
}

func TestChannel(t *testing.T) {
	assert := assert.To(t)
	got := &messages{}
	h := log.Channel(got, 4)
	for _, test := range testMessages {
		test.send(h)
	}
	h.Close()
	assert.For("delivered").ThatSlice(*got).IsLength(len(testMessages))
}

func TestErr(t *testing.T) {
	assert := assert.To(t)
	cause := errors.New("disk full")
	ctx := context.Background()
	err := log.Errf(ctx, cause, "writing %s", "report")
	assert.For("cause").ThatError(err).HasCause(cause)
	assert.For("unwrap").ThatBoolean(errors.Is(err, cause)).IsTrue()
	assert.For("message").ThatError(err).HasMessage("writing report\n   Cause: disk full")
	assert.For("no cause").ThatError(log.Err(ctx, nil, "plain")).HasMessage("plain")
	assert.For("pkg cause").That(pkgerrors.Cause(err)).Equals(cause)
	traced := log.Err(log.Enter(log.Enter(ctx, "replay"), "vkQueueSubmit"), cause, "Line 4")
	assert.For("traced").ThatError(traced).HasMessage("replay → vkQueueSubmit → Line 4\n   Cause: disk full")
}

func TestParseSeverity(t *testing.T) {
	assert := assert.To(t)
	for _, test := range []struct {
		name   string
		expect log.Severity
		ok     bool
	}{
		{"error", log.Error, true},
		{"WARNING", log.Warning, true},
		{"Info", log.Info, true},
		{"loud", log.Verbose, false},
	} {
		s, ok := log.ParseSeverity(test.name)
		assert.For(test.name).That(s).Equals(test.expect)
		assert.For(test.name).ThatBoolean(ok).Equals(test.ok)
	}
	s := log.Info
	assert.For("set").ThatError(s.Set("debug")).Succeeded()
	assert.For("set value").That(s).Equals(log.Debug)
	assert.For("set unknown").ThatError(s.Set("loud")).HasMessage(`Unknown severity "loud"`)
}

func TestTestingHandler(t *testing.T) {
	ctx := log.Testing(t)
	log.I(ctx, "routed to t.Log")
	log.D(log.Enter(ctx, "sub"), "with trace")
}
