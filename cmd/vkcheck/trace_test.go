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
	"strings"
	"testing"

	"github.com/google/vkcheck/core/assert"
	"github.com/google/vkcheck/core/log"
	"github.com/google/vkcheck/validation/config"
	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/handle"
	"github.com/google/vkcheck/validation/shim"
)

const setup = `
# instance and device
main vkCreateInstance pInstance=0x1
main vkEnumeratePhysicalDevices instance=0x1 pPhysicalDevices=0x2
main vkCreateDevice physicalDevice=0x2 pDevice=0x10
main vkCreateCommandPool device=0x10 pCommandPool=0x30
main vkAllocateCommandBuffers device=0x10 commandPool=0x30 pCommandBuffers=0x31,0x32
---
`

const teardown = `
---
main vkDestroyCommandPool device=0x10 commandPool=0x30
main vkDestroyDevice device=0x10
main vkDestroyInstance instance=0x1
`

func TestParseTrace(t *testing.T) {
	ctx := log.Testing(t)
	phases, err := ParseTrace(strings.NewReader(setup+`
a vkBeginCommandBuffer commandBuffer=0x31  # record
b vkBeginCommandBuffer commandBuffer=50
a vkEndCommandBuffer commandBuffer=0x31
b vkFreeCommandBuffers device=0x10 commandPool=0x30 pCommandBuffers=
`), "trace")
	assert.For(ctx, "err").ThatError(err).Succeeded()
	if !assert.For(ctx, "phases").ThatSlice(phases).IsLength(2) {
		return
	}
	assert.For(ctx, "setup threads").ThatSlice(phases[0].Threads).Equals([]string{"main"})
	assert.For(ctx, "setup steps").ThatInteger(phases[0].Steps()).Equals(5)
	alloc := phases[0].Calls["main"][4]
	assert.For(ctx, "line").ThatInteger(alloc.Line).Equals(7)
	assert.For(ctx, "entry").ThatString(alloc.Entry).Equals("vkAllocateCommandBuffers")
	assert.For(ctx, "array").ThatSlice(alloc.Args["pCommandBuffers"]).Equals([]handle.Handle{0x31, 0x32})

	p := phases[1]
	assert.For(ctx, "threads").ThatSlice(p.Threads).Equals([]string{"a", "b"})
	assert.For(ctx, "steps").ThatInteger(p.Steps()).Equals(2)
	assert.For(ctx, "decimal").ThatSlice(p.Calls["b"][0].Args["commandBuffer"]).Equals([]handle.Handle{50})
	assert.For(ctx, "empty").ThatSlice(p.Calls["b"][1].Args["pCommandBuffers"]).IsEmpty()
}

func TestParseTraceErrors(t *testing.T) {
	ctx := log.Testing(t)
	for _, test := range []struct {
		trace string
		err   string
	}{
		{"main", `trace:1: Expected <thread> <entry>, got "main"`},
		{"\nmain vkDeviceWaitIdle device", `trace:2: Expected name=value, got "device"`},
		{"main vkDeviceWaitIdle device=1 device=2", "trace:1: Argument device given twice"},
	} {
		_, err := ParseTrace(strings.NewReader(test.trace), "trace")
		assert.For(ctx, test.trace).ThatError(err).HasMessage(test.err)
	}
	_, err := ParseTrace(strings.NewReader("main vkDeviceWaitIdle device=0xzz"), "trace")
	assert.For(ctx, "bad handle").ThatError(err).Failed()
}

func replayTrace(t *testing.T, trace string) *diag.Collector {
	ctx := log.Testing(t)
	phases, err := ParseTrace(strings.NewReader(trace), "trace")
	assert.For(ctx, "parse").ThatError(err).Succeeded()
	c := &diag.Collector{}
	s := config.Default()
	l := shim.New(s, shim.DefaultTable(), c)
	assert.For(ctx, "replay").ThatError(replay(ctx, l, phases)).Succeeded()
	return c
}

func TestReplayConcurrentRecording(t *testing.T) {
	ctx := log.Testing(t)
	c := replayTrace(t, setup+`
a vkBeginCommandBuffer commandBuffer=0x31
b vkBeginCommandBuffer commandBuffer=0x32
a vkEndCommandBuffer commandBuffer=0x31
b vkEndCommandBuffer commandBuffer=0x32
`+teardown)
	got := c.Filter(diag.RaceDetected)
	if assert.For(ctx, "races").ThatSlice(got).IsLength(2) {
		for _, d := range got {
			assert.For(ctx, "on pool").That(d.Object()).Equals(handle.CommandPool.Of(0x30))
		}
	}
	assert.For(ctx, "only races").ThatInteger(c.Len()).Equals(2)
}

func TestReplaySequentialPhases(t *testing.T) {
	ctx := log.Testing(t)
	c := replayTrace(t, setup+`
a vkBeginCommandBuffer commandBuffer=0x31
---
b vkBeginCommandBuffer commandBuffer=0x32
`+teardown)
	assert.For(ctx, "diagnostics").ThatSlice(c.Diagnostics()).IsEmpty()
}

func TestReplaySameThreadIsSequential(t *testing.T) {
	ctx := log.Testing(t)
	c := replayTrace(t, setup+`
a vkBeginCommandBuffer commandBuffer=0x31
a vkBeginCommandBuffer commandBuffer=0x32
`+teardown)
	assert.For(ctx, "diagnostics").ThatSlice(c.Diagnostics()).IsEmpty()
}

func TestReplayValidationFailureContinues(t *testing.T) {
	ctx := log.Testing(t)
	c := replayTrace(t, setup+`
a vkDestroyBuffer device=0x10 buffer=0x99
b vkDeviceWaitIdle device=0x10
`+teardown)
	got := c.Diagnostics()
	if assert.For(ctx, "diagnostics").ThatSlice(got).IsLength(1) {
		assert.For(ctx, "class").That(got[0].Class).Equals(diag.UnknownObject)
	}
}

func TestReplayBadEntry(t *testing.T) {
	ctx := log.Testing(t)
	phases, _ := ParseTrace(strings.NewReader("main vkNope device=0x10"), "trace")
	l := shim.New(config.Default(), shim.DefaultTable(), nil)
	err := replay(ctx, l, phases)
	assert.For(ctx, "err").ThatError(err).HasCause(shim.ErrUnknownEntry)
	assert.For(ctx, "line").ThatString(err.Error()).HasPrefix("Line 1")
}
