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

package assert_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/vkcheck/core/assert"
	pkgerrors "github.com/pkg/errors"
)

type fakeT struct {
	fatal bytes.Buffer
	error bytes.Buffer
	log   bytes.Buffer
}

func (f *fakeT) Fatal(args ...interface{}) { fmt.Fprintln(&f.fatal, args...) }
func (f *fakeT) Error(args ...interface{}) { fmt.Fprintln(&f.error, args...) }
func (f *fakeT) Log(args ...interface{})   { fmt.Fprintln(&f.log, args...) }

func TestManager(t *testing.T) {
	const (
		expectLog   = "Info:manager test\n    log to info\n"
		expectError = "Error:manager test\n    log to error\n"
		expectFatal = "Critical:manager test\n    log to fatal\n"
	)
	fake := &fakeT{}
	assert.To(fake).For("manager test").Log("log to info")
	assert.To(fake).For("manager test").Error("log to error")
	assert.To(fake).For("manager test").Fatal("log to fatal")
	if fake.log.String() != expectLog {
		t.Errorf("For info got %q expected %q", fake.log.String(), expectLog)
	}
	if fake.error.String() != expectError {
		t.Errorf("For error got %q expected %q", fake.error.String(), expectError)
	}
	if fake.fatal.String() != expectFatal {
		t.Errorf("For fatal got %q expected %q", fake.fatal.String(), expectFatal)
	}
}

func TestPassingAssertionsAreSilent(t *testing.T) {
	fake := &fakeT{}
	a := assert.To(fake)
	cause := errors.New("cause")
	wrapped := pkgerrors.Wrap(cause, "context")
	var nilSlice []int
	results := []bool{
		a.For("value").That(3).Equals(3),
		a.For("value").That("a").NotEquals("b"),
		a.For("deep").That([]int{1, 2}).DeepEquals([]int{1, 2}),
		a.For("nil").That(nilSlice).IsNil(),
		a.For("not nil").That(cause).IsNotNil(),
		a.For("bool").ThatBoolean(true).IsTrue(),
		a.For("bool").ThatBoolean(false).IsFalse(),
		a.For("int").ThatInteger(4).IsAtLeast(4),
		a.For("int").ThatInteger(4).IsAtMost(5),
		a.For("string").ThatString("hello world").Contains("o w"),
		a.For("string").ThatString("hello").HasPrefix("he"),
		a.For("slice").ThatSlice([]string{"x"}).IsLength(1),
		a.For("slice").ThatSlice([]int{}).IsEmpty(),
		a.For("slice").ThatSlice([]int{1, 2}).Equals([]int{1, 2}),
		a.For("err").ThatError(nil).Succeeded(),
		a.For("err").ThatError(cause).Failed(),
		a.For("err").ThatError(wrapped).HasCause(cause),
		a.For("err").ThatError(fmt.Errorf("outer: %w", wrapped)).HasCause(cause),
		a.For("err").ThatError(wrapped).HasCause(wrapped),
		a.For("err").ThatError(cause).HasMessage("cause"),
	}
	for i, ok := range results {
		if !ok {
			t.Errorf("Assertion %d failed", i)
		}
	}
	if fake.error.Len() != 0 || fake.fatal.Len() != 0 {
		t.Errorf("Unexpected output: %q %q", fake.error.String(), fake.fatal.String())
	}
}

func TestFailingAssertionsReport(t *testing.T) {
	for _, test := range []struct {
		name   string
		check  func(a assert.Manager) bool
		expect string
	}{
		{"equals", func(a assert.Manager) bool { return a.For("equals").That(1).Equals(2) }, "Expect =="},
		{"cause", func(a assert.Manager) bool {
			return a.For("cause").ThatError(errors.New("a")).HasCause(errors.New("b"))
		}, "Cause"},
		{"slice", func(a assert.Manager) bool {
			return a.For("slice").ThatSlice([]int{1, 2}).Equals([]int{1, 3})
		}, "==>"},
		{"message of nil", func(a assert.Manager) bool {
			return a.For("message").ThatError(nil).HasMessage("x")
		}, "has message"},
	} {
		fake := &fakeT{}
		if test.check(assert.To(fake)) {
			t.Errorf("%s: expected the assertion to fail", test.name)
		}
		got := fake.error.String()
		if !strings.HasPrefix(got, "Error:") || !strings.Contains(got, test.expect) {
			t.Errorf("%s: unexpected report %q", test.name, got)
		}
	}
}

func TestCritical(t *testing.T) {
	fake := &fakeT{}
	assert.To(fake).For("critical").Critical().That(1).Equals(2)
	if fake.fatal.Len() == 0 {
		t.Errorf("Critical assertion did not reach Fatal")
	}
}
