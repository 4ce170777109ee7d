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

package assert

import "github.com/pkg/errors"

// OnError is the result of calling ThatError on an Assertion.
type OnError struct {
	*Assertion
	err error
}

// ThatError returns an OnError for assertions on a returned error.
func (a *Assertion) ThatError(err error) OnError {
	return OnError{Assertion: a, err: err}
}

// Succeeded asserts that no error was returned.
func (o OnError) Succeeded() bool {
	return o.Compare(o.err, "is", "success").Test(o.err == nil)
}

// Failed asserts that an error was returned.
func (o OnError) Failed() bool {
	return o.Expect("is", "failure").Test(o.err != nil)
}

// Equals asserts that the error is expect itself, unwrapped.
func (o OnError) Equals(expect error) bool {
	return o.Compare(o.err, "==", expect).Test(o.err == expect)
}

// HasMessage asserts that the full text of the error is expect.
func (o OnError) HasMessage(expect string) bool {
	if o.err == nil {
		return o.Compare(nil, "has message", expect).Test(false)
	}
	msg := o.err.Error()
	return o.Compare(msg, "has message", expect).Test(msg == expect)
}

// HasCause asserts that expect is the error or one it wraps, following both
// github.com/pkg/errors causes and Unwrap.
func (o OnError) HasCause(expect error) bool {
	found := o.err == nil && expect == nil
	for err := o.err; err != nil && !found; err = next(err) {
		found = err == expect
	}
	return o.Got(o.err).Add("Cause", errors.Cause(o.err)).Expect("==", expect).Test(found)
}

func next(err error) error {
	switch err := err.(type) {
	case interface{ Cause() error }:
		return err.Cause()
	case interface{ Unwrap() error }:
		return err.Unwrap()
	}
	return nil
}
