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

// Info is the fixed metadata of a kind.
type Info struct {
	// Name is the display name of the kind.
	Name string
	// Parent is the context kind that owns objects of this kind.
	// It is Unknown for Instance.
	Parent Kind
	// Context is true for kinds that own their own set of objects.
	Context bool
	// Child is the kind of the objects allocated from a pool of this kind, or
	// Unknown if this kind is not a pool.
	Child Kind
	// ResetFreesChildren is true for pools whose reset frees every child.
	ResetFreesChildren bool
	// Retrieved is true for kinds the application retrieves rather than
	// creates. They are never reported as leaks and may be recorded repeatedly.
	Retrieved bool
	// GuardedByPool is true for kinds whose accesses also mark the contents of
	// the pool they were allocated from.
	GuardedByPool bool
}

// IsPool returns true if the kind owns a child set.
func (i Info) IsPool() bool { return i.Child != Unknown }

var infos = [Count]Info{
	Unknown:                  {Name: "Unknown"},
	Instance:                 {Name: "Instance", Context: true},
	PhysicalDevice:           {Name: "PhysicalDevice", Parent: Instance, Retrieved: true},
	Device:                   {Name: "Device", Parent: Instance, Context: true},
	Queue:                    {Name: "Queue", Parent: Device, Retrieved: true},
	Semaphore:                {Name: "Semaphore", Parent: Device},
	CommandBuffer:            {Name: "CommandBuffer", Parent: Device, GuardedByPool: true},
	Fence:                    {Name: "Fence", Parent: Device},
	DeviceMemory:             {Name: "DeviceMemory", Parent: Device},
	Buffer:                   {Name: "Buffer", Parent: Device},
	Image:                    {Name: "Image", Parent: Device},
	Event:                    {Name: "Event", Parent: Device},
	QueryPool:                {Name: "QueryPool", Parent: Device},
	BufferView:               {Name: "BufferView", Parent: Device},
	ImageView:                {Name: "ImageView", Parent: Device},
	ShaderModule:             {Name: "ShaderModule", Parent: Device},
	PipelineCache:            {Name: "PipelineCache", Parent: Device},
	PipelineLayout:           {Name: "PipelineLayout", Parent: Device},
	RenderPass:               {Name: "RenderPass", Parent: Device},
	Pipeline:                 {Name: "Pipeline", Parent: Device},
	DescriptorSetLayout:      {Name: "DescriptorSetLayout", Parent: Device},
	Sampler:                  {Name: "Sampler", Parent: Device},
	DescriptorPool:           {Name: "DescriptorPool", Parent: Device, Child: DescriptorSet, ResetFreesChildren: true},
	DescriptorSet:            {Name: "DescriptorSet", Parent: Device},
	Framebuffer:              {Name: "Framebuffer", Parent: Device},
	CommandPool:              {Name: "CommandPool", Parent: Device, Child: CommandBuffer},
	SamplerYcbcrConversion:   {Name: "SamplerYcbcrConversion", Parent: Device},
	DescriptorUpdateTemplate: {Name: "DescriptorUpdateTemplate", Parent: Device},
	SurfaceKHR:               {Name: "SurfaceKHR", Parent: Instance},
	SwapchainKHR:             {Name: "SwapchainKHR", Parent: Device},
	DisplayKHR:               {Name: "DisplayKHR", Parent: Instance, Retrieved: true},
	DisplayModeKHR:           {Name: "DisplayModeKHR", Parent: Instance, Retrieved: true},
	DebugReportCallbackEXT:   {Name: "DebugReportCallbackEXT", Parent: Instance},
	DebugUtilsMessengerEXT:   {Name: "DebugUtilsMessengerEXT", Parent: Instance},
	ValidationCacheEXT:       {Name: "ValidationCacheEXT", Parent: Device},
}

var pools = func() [Count]Kind {
	out := [Count]Kind{}
	for k, info := range infos {
		if info.Child != Unknown {
			out[info.Child] = Kind(k)
		}
	}
	return out
}()
