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

// OnBoolean is the result of calling ThatBoolean on an Assertion.
type OnBoolean struct {
	*Assertion
	value bool
}

// ThatBoolean returns an OnBoolean for assertions on a flag.
func (a *Assertion) ThatBoolean(value bool) OnBoolean {
	return OnBoolean{Assertion: a, value: value}
}

// Equals asserts that the flag is expect.
func (o OnBoolean) Equals(expect bool) bool { return o.is(expect) }

// IsTrue asserts that the flag is set.
func (o OnBoolean) IsTrue() bool { return o.is(true) }

// IsFalse asserts that the flag is clear.
func (o OnBoolean) IsFalse() bool { return o.is(false) }

func (o OnBoolean) is(expect bool) bool {
	return o.Compare(o.value, "is", expect).Test(o.value == expect)
}

// OnInteger is the result of calling ThatInteger on an Assertion. Counts of
// objects, diagnostics and accesses are checked with it.
type OnInteger struct {
	*Assertion
	value int
}

// ThatInteger returns an OnInteger for assertions on a count.
func (a *Assertion) ThatInteger(value int) OnInteger {
	return OnInteger{Assertion: a, value: value}
}

// Equals asserts that the count is expect.
func (o OnInteger) Equals(expect int) bool {
	return o.Compare(o.value, "==", expect).Test(o.value == expect)
}

// IsAtLeast asserts that the count is no less than min.
func (o OnInteger) IsAtLeast(min int) bool {
	return o.Compare(o.value, ">=", min).Test(o.value >= min)
}

// IsAtMost asserts that the count is no more than max.
func (o OnInteger) IsAtMost(max int) bool {
	return o.Compare(o.value, "<=", max).Test(o.value <= max)
}
