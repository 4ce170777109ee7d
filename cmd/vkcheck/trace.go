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

package main

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/google/vkcheck/validation/handle"
	"github.com/google/vkcheck/validation/shim"
	"github.com/pkg/errors"
)

// phaseBreak separates phases of a trace.
const phaseBreak = "---"

// Call is one recorded call of a trace.
type Call struct {
	Line   int
	Thread string
	Entry  string
	Args   shim.Args
}

// Phase is a run of calls in which the calls of different threads are made
// concurrently, step by step.
type Phase struct {
	// Threads lists the threads in order of first appearance.
	Threads []string
	Calls   map[string][]Call
}

func (p *Phase) add(c Call) {
	if p.Calls == nil {
		p.Calls = map[string][]Call{}
	}
	if _, ok := p.Calls[c.Thread]; !ok {
		p.Threads = append(p.Threads, c.Thread)
	}
	p.Calls[c.Thread] = append(p.Calls[c.Thread], c)
}

// Steps returns the length of the longest thread of p.
func (p *Phase) Steps() int {
	n := 0
	for _, calls := range p.Calls {
		if len(calls) > n {
			n = len(calls)
		}
	}
	return n
}

// ParseTrace reads a trace of one call per line:
//
//	<thread> <entry> [name=value[,value...] ...]
//
// Values are handles in decimal, hex or octal. Text following a # is a
// comment and a line holding only --- starts a new phase.
func ParseTrace(r io.Reader, name string) ([]Phase, error) {
	phases := []Phase{}
	current := Phase{}
	flush := func() {
		if len(current.Threads) > 0 {
			phases = append(phases, current)
			current = Phase{}
		}
	}
	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := scanner.Text()
		if i := strings.IndexByte(text, '#'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		switch text {
		case "":
			continue
		case phaseBreak:
			flush()
			continue
		}
		c, err := parseCall(text)
		if err != nil {
			return nil, errors.Wrapf(err, "%s:%d", name, line)
		}
		c.Line = line
		current.add(c)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "Reading %s", name)
	}
	flush()
	return phases, nil
}

func parseCall(text string) (Call, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return Call{}, errors.Errorf("Expected <thread> <entry>, got %q", text)
	}
	c := Call{Thread: fields[0], Entry: fields[1], Args: shim.Args{}}
	for _, field := range fields[2:] {
		i := strings.IndexByte(field, '=')
		if i <= 0 {
			return Call{}, errors.Errorf("Expected name=value, got %q", field)
		}
		name, value := field[:i], field[i+1:]
		if _, dup := c.Args[name]; dup {
			return Call{}, errors.Errorf("Argument %s given twice", name)
		}
		handles := []handle.Handle{}
		if value != "" {
			for _, v := range strings.Split(value, ",") {
				h, err := handle.Parse(v)
				if err != nil {
					return Call{}, errors.Wrapf(err, "Argument %s", name)
				}
				handles = append(handles, h)
			}
		}
		c.Args[name] = handles
	}
	return c, nil
}

func readTrace(path string) ([]Phase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTrace(f, path)
}
