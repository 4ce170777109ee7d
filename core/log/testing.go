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

package log

import "context"

// Testing returns a context that logs to the test t. Errors fail the test
// and fatal messages stop it; both are printed with their trace and values.
// Everything else is printed briefly, with only the trace added.
func Testing(t testLog) context.Context {
	quiet := Style{Name: "test", Trace: true, Severity: SeverityShort}
	return PutHandler(context.Background(), handler{
		handle: func(m *Message) {
			t.Helper()
			switch {
			case m.Severity >= Fatal:
				t.Fatal(Normal.Print(m))
			case m.Severity >= Error:
				t.Error(Normal.Print(m))
			default:
				t.Log(quiet.Print(m))
			}
		},
	})
}

// testLog is the part of testing.TB that Testing writes to.
type testLog interface {
	Helper()
	Fatal(...interface{})
	Error(...interface{})
	Log(...interface{})
}
