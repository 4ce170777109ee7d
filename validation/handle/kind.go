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

package handle

import "strings"

// Kind is the closed type tag of a handle.
type Kind uint8

// The object kinds. Unknown is never the kind of a live object.
const (
	Unknown Kind = iota
	Instance
	PhysicalDevice
	Device
	Queue
	Semaphore
	CommandBuffer
	Fence
	DeviceMemory
	Buffer
	Image
	Event
	QueryPool
	BufferView
	ImageView
	ShaderModule
	PipelineCache
	PipelineLayout
	RenderPass
	Pipeline
	DescriptorSetLayout
	Sampler
	DescriptorPool
	DescriptorSet
	Framebuffer
	CommandPool
	SamplerYcbcrConversion
	DescriptorUpdateTemplate
	SurfaceKHR
	SwapchainKHR
	DisplayKHR
	DisplayModeKHR
	DebugReportCallbackEXT
	DebugUtilsMessengerEXT
	ValidationCacheEXT

	// Count is the number of kinds, including Unknown.
	Count
)

// Valid returns true if k names a real object kind.
func (k Kind) Valid() bool { return k > Unknown && k < Count }

func (k Kind) String() string {
	if k < Count {
		return infos[k].Name
	}
	return "Unknown"
}

// Info returns the metadata of the kind.
func (k Kind) Info() Info {
	if k < Count {
		return infos[k]
	}
	return infos[Unknown]
}

// Pool returns the kind of pool objects of kind k are allocated from, or
// Unknown if k is not allocated from a pool.
func (k Kind) Pool() Kind {
	if k < Count {
		return pools[k]
	}
	return Unknown
}

// All returns every valid kind in declaration order.
func All() []Kind {
	out := make([]Kind, 0, Count-1)
	for k := Unknown + 1; k < Count; k++ {
		out = append(out, k)
	}
	return out
}

// OwnedBy returns the kinds whose objects belong to a context of kind ctx,
// in declaration order.
func OwnedBy(ctx Kind) []Kind {
	out := []Kind{}
	for k := Unknown + 1; k < Count; k++ {
		if infos[k].Parent == ctx {
			out = append(out, k)
		}
	}
	return out
}

// ParseKind looks up a kind by name. The match ignores case and an optional
// "Vk" prefix, so both "Buffer" and "VkBuffer" resolve to Buffer.
func ParseKind(name string) (Kind, bool) {
	if len(name) > 2 && strings.EqualFold(name[:2], "vk") {
		name = name[2:]
	}
	for k := Unknown + 1; k < Count; k++ {
		if strings.EqualFold(infos[k].Name, name) {
			return k, true
		}
	}
	return Unknown, false
}
