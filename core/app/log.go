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

package app

import (
	"context"
	"os"
	"strings"

	"github.com/google/vkcheck/core/log"
	"github.com/pkg/errors"
)

const logChanBufferSize = 100

// LogFlags holds the logging options of the command line.
type LogFlags struct {
	Level log.Severity
	Style log.Style
}

var styles = []log.Style{log.Raw, log.Brief, log.Normal, log.Detailed}

// styleFlag adapts a log.Style to flag.Value.
type styleFlag struct{ s *log.Style }

func (f styleFlag) String() string {
	if f.s == nil {
		return ""
	}
	return f.s.Name
}

func (f styleFlag) Set(value string) error {
	for _, s := range styles {
		if strings.EqualFold(s.Name, value) {
			*f.s = s
			return nil
		}
	}
	return errors.Errorf("Unknown log style %q", value)
}

// wrapHandler serializes messages through a channel and stops the process
// after a message that asks for it.
func wrapHandler(to log.Handler) log.Handler {
	to = log.Channel(to, logChanBufferSize)
	return log.NewHandler(func(m *log.Message) {
		to.Handle(m)
		if m.StopProcess {
			to.Close()
			panic(FatalExit)
		}
	}, to.Close)
}

func prepareContext(flags *LogFlags) (context.Context, log.Handler) {
	// The style is read per message so the parsed flag takes effect.
	handler := wrapHandler(log.NewHandler(func(m *log.Message) {
		os.Stderr.WriteString(flags.Style.Print(m) + "\n")
	}, nil))
	ctx := context.Background()
	ctx = log.PutTag(ctx, Name)
	ctx = log.PutFilter(ctx, log.SeverityFilter(flags.Level))
	ctx = log.PutHandler(ctx, handler)
	return ctx, handler
}
