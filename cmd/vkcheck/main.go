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

// The vkcheck command replays recorded API call traces through the object
// lifetime and thread safety checks and reports what they find.
package main

import (
	"context"
	"flag"
	"io/ioutil"
	"os"
	"time"

	"github.com/google/vkcheck/core/app"
	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/config"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/diag/diag_pb"
	"github.com/google/vkcheck/validation/shim"
	"github.com/pkg/errors"
)

var (
	settingsPath = flag.String("settings", "", "layer settings file of vkcheck.<key> = <value> lines")
	out          = flag.String("out", "", "write the report as a binary protobuf to this file")
	jsonOut      = flag.Bool("json", false, "write the report as JSON to stdout")
	severity     = flag.String("severity", "", "minimum severity of reported diagnostics: Info, Warning or Error")
	audit        = flag.Bool("audit", true, "report objects still live at the end of the traces as leaks")
)

func main() {
	app.ShortHelp = "vkcheck checks API call traces for object lifetime and threading errors"
	app.Name = "vkcheck"
	app.ShortUsage = "<trace files>"
	app.Run(run)
}

func run(ctx context.Context) error {
	if flag.NArg() == 0 {
		app.Usage(ctx, "At least one trace file is required")
	}
	settings, err := loadSettings()
	if err != nil {
		return log.Err(ctx, err, "Loading settings")
	}

	collector := &diag.Collector{}
	l := shim.New(settings, shim.DefaultTable(), diag.Broadcast(collector, diag.LogSink{}))
	for _, path := range flag.Args() {
		phases, err := readTrace(path)
		if err != nil {
			return log.Err(ctx, err, "Reading trace")
		}
		if err := replay(log.Enter(ctx, path), l, phases); err != nil {
			return log.Errf(ctx, err, "Replaying %s", path)
		}
	}
	if *audit {
		if n := l.Audit(ctx); n > 0 {
			log.W(ctx, "%d objects were not destroyed", n)
		}
	}

	report := diag_pb.Report{Generated: time.Now(), Diagnostics: collector.Diagnostics()}
	if err := writeReport(report); err != nil {
		return log.Err(ctx, err, "Writing report")
	}
	errs := 0
	for _, d := range report.Diagnostics {
		if d.Severity >= diag.Error {
			errs++
		}
	}
	log.I(ctx, "%d diagnostics, %d errors", len(report.Diagnostics), errs)
	if errs > 0 {
		return app.FatalExit
	}
	return nil
}

// loadSettings reads the settings file, then the environment, then the
// -severity flag, each overriding the last.
func loadSettings() (config.Settings, error) {
	settings := config.Default()
	if *settingsPath != "" {
		var err error
		if settings, err = config.Load(*settingsPath); err != nil {
			return settings, err
		}
	}
	if err := settings.ApplyEnv(os.LookupEnv); err != nil {
		return settings, err
	}
	if *severity != "" {
		s, ok := diag.ParseSeverity(*severity)
		if !ok {
			return settings, errors.Errorf("Unknown severity %q", *severity)
		}
		settings.ReportSeverity = s
	}
	return settings, nil
}

func writeReport(report diag_pb.Report) error {
	if *out != "" {
		data, err := diag_pb.Marshal(report)
		if err != nil {
			return err
		}
		if err := ioutil.WriteFile(*out, data, 0666); err != nil {
			return err
		}
	}
	if *jsonOut {
		return diag_pb.WriteJSON(os.Stdout, report)
	}
	return nil
}
