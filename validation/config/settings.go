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

package config

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/shardmap"
	"github.com/pkg/errors"
)

// Prefix is the key prefix of the layer's entries in a settings file.
const Prefix = "vkcheck."

// EnvPrefix is the prefix of the environment variables that override
// settings.
const EnvPrefix = "VKCHECK_"

// Settings are the runtime settings of the layer.
type Settings struct {
	// ObjectTracking enables the object registry checks.
	ObjectTracking bool
	// ThreadSafety enables the concurrency access guard.
	ThreadSafety bool
	// ReportSeverity is the minimum severity of diagnostics that are reported.
	ReportSeverity diag.Severity
	// Shards is the number of registry shards per kind.
	Shards int
	// GuardBuckets is the number of guard counter buckets per kind.
	GuardBuckets int
	// StrictWrongParent reports wrong-parent uses even at call sites that do
	// not name a code for them.
	StrictWrongParent bool
}

// Default returns the default settings.
func Default() Settings {
	return Settings{
		ObjectTracking: true,
		ThreadSafety:   true,
		ReportSeverity: diag.Info,
		Shards:         shardmap.DefaultShards,
		GuardBuckets:   shardmap.DefaultShards,
	}
}

// Set assigns the setting named key from its textual value.
func (s *Settings) Set(key, value string) error {
	var err error
	switch strings.ToLower(key) {
	case "object_tracking":
		s.ObjectTracking, err = strconv.ParseBool(value)
	case "thread_safety":
		s.ThreadSafety, err = strconv.ParseBool(value)
	case "strict_wrong_parent":
		s.StrictWrongParent, err = strconv.ParseBool(value)
	case "report_severity":
		sev, ok := diag.ParseSeverity(value)
		if !ok {
			return errors.Errorf("Unknown severity %q", value)
		}
		s.ReportSeverity = sev
	case "shards":
		s.Shards, err = positive(value)
	case "guard_buckets":
		s.GuardBuckets, err = positive(value)
	default:
		return errors.Errorf("Unknown setting %q", key)
	}
	return errors.Wrapf(err, "Setting %s", key)
}

func positive(value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, errors.Errorf("%d is not positive", n)
	}
	return n, nil
}

// Parse reads settings in the layer settings file format from r on top of
// the defaults. Each line is either blank, a '#' comment or "key = value".
// Keys without the layer prefix belong to other layers and are ignored.
func Parse(r io.Reader, name string) (Settings, error) {
	s := Default()
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		i := strings.IndexByte(text, '=')
		if i < 0 {
			return s, errors.Errorf("%s:%d: Expected key = value", name, line)
		}
		key := strings.TrimSpace(text[:i])
		if !strings.HasPrefix(key, Prefix) {
			continue
		}
		if err := s.Set(strings.TrimPrefix(key, Prefix), strings.TrimSpace(text[i+1:])); err != nil {
			return s, errors.Wrapf(err, "%s:%d", name, line)
		}
	}
	return s, errors.Wrapf(scanner.Err(), "Reading %s", name)
}

// Load reads the settings file at path.
func Load(path string) (Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return Default(), err
	}
	defer f.Close()
	return Parse(f, path)
}

// ApplyEnv overrides settings from VKCHECK_<KEY> variables found by lookup.
// os.LookupEnv is the usual lookup.
func (s *Settings) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, key := range []string{
		"object_tracking",
		"thread_safety",
		"report_severity",
		"shards",
		"guard_buckets",
		"strict_wrong_parent",
	} {
		env := EnvPrefix + strings.ToUpper(key)
		if value, ok := lookup(env); ok {
			if err := s.Set(key, value); err != nil {
				return errors.Wrapf(err, "Environment %s", env)
			}
		}
	}
	return nil
}
