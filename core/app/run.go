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

// Package app provides the common entry point of the command line tools.
package app

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/vkcheck/core/log"
	"github.com/pkg/errors"
)

var (
	// Name is the full name of the application
	Name = strings.TrimSuffix(filepath.Base(os.Args[0]), filepath.Ext(os.Args[0]))
	// ExitFuncForTesting can be set to change the behaviour when the
	// application exits. It defaults to os.Exit
	ExitFuncForTesting = os.Exit
	// ShortHelp should be set to add a help message to the usage text.
	ShortHelp = ""
	// ShortUsage is usage text for the additional non-flag arguments.
	ShortUsage = ""
	// UsageFooter is printed at the bottom of the usage text
	UsageFooter = ""
)

// Run parses the command line, builds a primary context that is cancelled on
// interrupt and runs main with it. An error returned by main is logged and
// the process exits with FatalExit, unless the error is an ExitCode.
func Run(main func(ctx context.Context) error) {
	ExitFuncForTesting(int(run(os.Args[1:], main)))
}

func run(args []string, main func(ctx context.Context) error) (code ExitCode) {
	flags := LogFlags{Level: log.Info, Style: log.Normal}
	flag.Var(&flags.Level, "log-level", "minimum severity of log messages: Debug, Info, Warning, Error or Fatal")
	flag.Var(styleFlag{&flags.Style}, "log-style", "log message style: raw, brief, normal or detailed")
	flag.CommandLine.Usage = func() { usage(os.Stderr, "") }

	ctx, handler := prepareContext(&flags)
	defer handler.Close()

	defer func() {
		switch cause := recover().(type) {
		case nil:
		case ExitCode:
			code = cause
		default:
			panic(cause)
		}
	}()

	if err := flag.CommandLine.Parse(args); err != nil {
		return UsageExit
	}
	ctx = log.PutFilter(ctx, log.SeverityFilter(flags.Level))

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	err := main(ctx)
	if err == nil {
		return SuccessExit
	}
	if c, ok := errors.Cause(err).(ExitCode); ok {
		return c
	}
	log.E(ctx, "%v", err)
	return FatalExit
}

// Usage prints message with the formatting args to stderr, and then prints
// the command usage information and terminates the program.
func Usage(ctx context.Context, message string, args ...interface{}) {
	usage(os.Stderr, message, args...)
	panic(UsageExit)
}

func usage(w *os.File, message string, args ...interface{}) {
	if message != "" {
		fmt.Fprintf(w, message, args...)
		fmt.Fprintln(w)
		fmt.Fprintln(w)
	}
	if ShortHelp != "" {
		fmt.Fprintf(w, "%s: %s\n", Name, ShortHelp)
	}
	fmt.Fprintf(w, "Usage: %s [flags] %s\n", Name, ShortUsage)
	flag.CommandLine.SetOutput(w)
	flag.CommandLine.PrintDefaults()
	fmt.Fprint(w, UsageFooter)
}
