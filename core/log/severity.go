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

import (
	"fmt"
	"strings"
)

// Severity defines the severity of a logging message.
type Severity int32

// The values must be kept in order from most verbose to least.
const (
	// Verbose indicates extremely verbose level messages.
	Verbose Severity = iota
	// Debug indicates debug-level messages.
	Debug
	// Info indicates minor informational messages that should generally be ignored.
	Info
	// Warning indicates issues that might affect performance or compatibility, but could be ignored.
	Warning
	// Error indicates non terminal failure conditions that may have an effect on results.
	Error
	// Fatal indicates a fatal error.
	Fatal
)

var severityNames = [...]string{
	Verbose: "Verbose",
	Debug:   "Debug",
	Info:    "Info",
	Warning: "Warning",
	Error:   "Error",
	Fatal:   "Fatal",
}

// String returns the full name of the severity.
func (s Severity) String() string {
	if s >= 0 && int(s) < len(severityNames) {
		return severityNames[s]
	}
	return "Unknown"
}

// Short returns the severity string with a single character.
func (s Severity) Short() string {
	if s >= 0 && int(s) < len(severityNames) {
		return severityNames[s][:1]
	}
	return "?"
}

// ParseSeverity returns the severity with the given name, ignoring case.
func ParseSeverity(name string) (Severity, bool) {
	for s, n := range severityNames {
		if strings.EqualFold(n, name) {
			return Severity(s), true
		}
	}
	return Verbose, false
}

// Set parses name into s, letting a Severity be used as a flag.Value.
func (s *Severity) Set(name string) error {
	v, ok := ParseSeverity(name)
	if !ok {
		return fmt.Errorf("Unknown severity %q", name)
	}
	*s = v
	return nil
}
