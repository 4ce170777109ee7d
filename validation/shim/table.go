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

package shim

import (
	"fmt"

	"github.com/google/vkcheck/validation/diag"
	"github.com/google/vkcheck/validation/guard"
	"github.com/google/vkcheck/validation/handle"
)

func dispatch(name string, k handle.Kind, access guard.Mode) Param {
	return Param{Name: name, Kind: k, Access: access, Role: Dispatch}
}

func in(name string, k handle.Kind, access guard.Mode) Param {
	return Param{Name: name, Kind: k, Access: access, Role: Input}
}

func out(name string, k handle.Kind, role Role) Param {
	return Param{Name: name, Kind: k, Role: role}
}

func inherited(name string, k handle.Kind) Param {
	return Param{Name: name, Kind: k, Role: Inherited}
}

func scalar(name string) Param {
	return Param{Name: name, Kind: handle.Unknown, Nullable: true}
}

func (p Param) nullable() Param {
	p.Nullable = true
	return p
}

func (p Param) array() Param {
	p.Array = true
	return p
}

func (p Param) as(r Role) Param {
	p.Role = r
	return p
}

// newEntry returns an entry whose non-dispatch handle parameters report the
// conventional parent code of name.
func newEntry(name string, params ...Param) *Entry {
	e := &Entry{Name: name, Params: params}
	for i, p := range e.Params {
		if p.Role != Dispatch && p.Kind.Valid() && !p.Role.output() {
			e.Params[i].ParentCode = fmt.Sprintf("VUID-%s-%s-parent", name, p.Name)
		}
	}
	return e
}

// common replaces the per-parameter parent codes with the entry-wide code.
func (e *Entry) common(code string) *Entry {
	for i := range e.Params {
		e.Params[i].ParentCode = ""
	}
	e.WrongParentCode = code
	return e
}

func (e *Entry) pooled(name string, flags Flags) *Entry {
	e.PoolParam, e.Flags = name, flags
	return e
}

func (e *Entry) allocator(custom, def string) *Entry {
	e.AllocatorCodes = [2]string{custom, def}
	return e
}

func (e *Entry) freeing(code string) *Entry {
	e.ParentCode = code
	return e
}

func (e *Entry) invalid(param, code string) *Entry {
	if e.InvalidCodes == nil {
		e.InvalidCodes = map[string]string{}
	}
	e.InvalidCodes[param] = code
	return e
}

// destroyEntry describes vkDestroy<Kind> taking the handle as param.
func destroyEntry(k handle.Kind, param string, custom, def string) *Entry {
	parent := k.Info().Parent
	return newEntry(fmt.Sprintf("vkDestroy%v", k),
		dispatch(contextParam(parent), parent, guard.Read),
		in(param, k, guard.Write).nullable().as(Destroy),
		scalar(AllocatorParam),
	).allocator(custom, def)
}

// createEntry describes vkCreate<Kind> returning the handle through param.
func createEntry(k handle.Kind, param string) *Entry {
	parent := k.Info().Parent
	return newEntry(fmt.Sprintf("vkCreate%v", k),
		dispatch(contextParam(parent), parent, guard.Read),
		scalar(AllocatorParam),
		out(param, k, Create),
	)
}

func contextParam(k handle.Kind) string {
	if k == handle.Instance {
		return "instance"
	}
	return "device"
}

// DefaultTable returns the entry points of the core object lifetimes:
// instances and devices, queues, memory, buffers, images, synchronization
// primitives, descriptor and command pools, surfaces and swapchains.
func DefaultTable() Table {
	t := Table{}
	for _, e := range []*Entry{
		newEntry("vkCreateInstance",
			scalar(AllocatorParam),
			out("pInstance", handle.Instance, Create),
		),
		newEntry("vkDestroyInstance",
			in("instance", handle.Instance, guard.Write).nullable().as(Destroy),
			scalar(AllocatorParam),
		).allocator("VUID-vkDestroyInstance-instance-00630", "VUID-vkDestroyInstance-instance-00631"),
		newEntry("vkEnumeratePhysicalDevices",
			dispatch("instance", handle.Instance, guard.Read),
			out("pPhysicalDevices", handle.PhysicalDevice, Retrieve).array(),
		),
		newEntry("vkCreateDevice",
			dispatch("physicalDevice", handle.PhysicalDevice, guard.None),
			scalar(AllocatorParam),
			out("pDevice", handle.Device, Create),
		),
		newEntry("vkDestroyDevice",
			in("device", handle.Device, guard.Write).nullable().as(Destroy),
			scalar(AllocatorParam),
		).allocator("VUID-vkDestroyDevice-device-00379", "VUID-vkDestroyDevice-device-00380"),
		newEntry("vkGetDeviceQueue",
			dispatch("device", handle.Device, guard.Read),
			out("pQueue", handle.Queue, Retrieve),
		),
		newEntry("vkQueueSubmit",
			dispatch("queue", handle.Queue, guard.Write),
			in("pWaitSemaphores", handle.Semaphore, guard.None).array().nullable(),
			in("pCommandBuffers", handle.CommandBuffer, guard.None).array().nullable(),
			in("pSignalSemaphores", handle.Semaphore, guard.None).array().nullable(),
			in("fence", handle.Fence, guard.Write).nullable(),
		).common("VUID-vkQueueSubmit-commonparent").
			invalid("pWaitSemaphores", "VUID-VkSubmitInfo-pWaitSemaphores-parameter").
			invalid("pCommandBuffers", "VUID-VkSubmitInfo-pCommandBuffers-parameter").
			invalid("pSignalSemaphores", "VUID-VkSubmitInfo-pSignalSemaphores-parameter"),
		newEntry("vkQueueWaitIdle",
			dispatch("queue", handle.Queue, guard.Write),
		),
		newEntry("vkDeviceWaitIdle",
			dispatch("device", handle.Device, guard.Read),
		),

		newEntry("vkAllocateMemory",
			dispatch("device", handle.Device, guard.Read),
			scalar(AllocatorParam),
			out("pMemory", handle.DeviceMemory, Create),
		),
		newEntry("vkFreeMemory",
			dispatch("device", handle.Device, guard.Read),
			in("memory", handle.DeviceMemory, guard.Write).nullable().as(Destroy),
			scalar(AllocatorParam),
		),
		createEntry(handle.Buffer, "pBuffer"),
		destroyEntry(handle.Buffer, "buffer", "VUID-vkDestroyBuffer-buffer-00923", "VUID-vkDestroyBuffer-buffer-00924"),
		newEntry("vkBindBufferMemory",
			dispatch("device", handle.Device, guard.Read),
			in("buffer", handle.Buffer, guard.Write),
			in("memory", handle.DeviceMemory, guard.Read),
		),
		createEntry(handle.Image, "pImage"),
		destroyEntry(handle.Image, "image", "VUID-vkDestroyImage-image-01001", "VUID-vkDestroyImage-image-01002"),
		createEntry(handle.RenderPass, "pRenderPass"),
		destroyEntry(handle.RenderPass, "renderPass", "VUID-vkDestroyRenderPass-renderPass-00874", "VUID-vkDestroyRenderPass-renderPass-00875"),
		newEntry("vkCreateFramebuffer",
			dispatch("device", handle.Device, guard.Read),
			in("renderPass", handle.RenderPass, guard.None),
			in("pAttachments", handle.ImageView, guard.None).nullable().array(),
			scalar(AllocatorParam),
			out("pFramebuffer", handle.Framebuffer, Create),
		).common("VUID-VkFramebufferCreateInfo-commonparent"),
		destroyEntry(handle.Framebuffer, "framebuffer", "VUID-vkDestroyFramebuffer-framebuffer-00893", "VUID-vkDestroyFramebuffer-framebuffer-00894"),
		newEntry("vkBindImageMemory",
			dispatch("device", handle.Device, guard.Read),
			in("image", handle.Image, guard.Write),
			in("memory", handle.DeviceMemory, guard.Read),
		),
		newEntry("vkCreateImageView",
			dispatch("device", handle.Device, guard.Read),
			in("image", handle.Image, guard.None),
			scalar(AllocatorParam),
			out("pView", handle.ImageView, Create),
		).invalid("image", "VUID-VkImageViewCreateInfo-image-parameter").
			common(""),
		destroyEntry(handle.ImageView, "imageView", "VUID-vkDestroyImageView-imageView-01027", "VUID-vkDestroyImageView-imageView-01028"),

		createEntry(handle.Fence, "pFence"),
		destroyEntry(handle.Fence, "fence", "VUID-vkDestroyFence-fence-01121", "VUID-vkDestroyFence-fence-01122"),
		newEntry("vkResetFences",
			dispatch("device", handle.Device, guard.Read),
			in("pFences", handle.Fence, guard.Write).array(),
		),
		newEntry("vkWaitForFences",
			dispatch("device", handle.Device, guard.Read),
			in("pFences", handle.Fence, guard.Read).array(),
		),
		createEntry(handle.Semaphore, "pSemaphore"),
		destroyEntry(handle.Semaphore, "semaphore", "VUID-vkDestroySemaphore-semaphore-01138", "VUID-vkDestroySemaphore-semaphore-01139"),

		createEntry(handle.DescriptorPool, "pDescriptorPool"),
		destroyEntry(handle.DescriptorPool, "descriptorPool", "VUID-vkDestroyDescriptorPool-descriptorPool-00304", "VUID-vkDestroyDescriptorPool-descriptorPool-00305"),
		newEntry("vkResetDescriptorPool",
			dispatch("device", handle.Device, guard.Read),
			in("descriptorPool", handle.DescriptorPool, guard.Write),
		).pooled("descriptorPool", ResetPool),
		newEntry("vkAllocateDescriptorSets",
			dispatch("device", handle.Device, guard.Read),
			in("descriptorPool", handle.DescriptorPool, guard.Write),
			out("pDescriptorSets", handle.DescriptorSet, Create).array(),
		).pooled("descriptorPool", 0).
			invalid("descriptorPool", "VUID-VkDescriptorSetAllocateInfo-descriptorPool-parameter"),
		newEntry("vkFreeDescriptorSets",
			dispatch("device", handle.Device, guard.Read),
			in("descriptorPool", handle.DescriptorPool, guard.Write),
			in("pDescriptorSets", handle.DescriptorSet, guard.Write).array().nullable().as(Free),
		).pooled("descriptorPool", 0).freeing(diag.CodeFreeDescriptorSet),
		newEntry("vkUpdateDescriptorSets",
			dispatch("device", handle.Device, guard.Read),
			in("dstSet", handle.DescriptorSet, guard.Write).array().nullable(),
		).invalid("dstSet", "VUID-VkWriteDescriptorSet-dstSet-parameter"),

		createEntry(handle.CommandPool, "pCommandPool"),
		destroyEntry(handle.CommandPool, "commandPool", "VUID-vkDestroyCommandPool-commandPool-00042", "VUID-vkDestroyCommandPool-commandPool-00043").
			pooled("commandPool", PoolContentsWrite),
		newEntry("vkResetCommandPool",
			dispatch("device", handle.Device, guard.Read),
			in("commandPool", handle.CommandPool, guard.Write),
		).pooled("commandPool", PoolContentsWrite),
		newEntry("vkAllocateCommandBuffers",
			dispatch("device", handle.Device, guard.Read),
			in("commandPool", handle.CommandPool, guard.Write),
			scalar(LevelParam),
			out("pCommandBuffers", handle.CommandBuffer, Create).array(),
		).pooled("commandPool", 0).
			invalid("commandPool", "VUID-VkCommandBufferAllocateInfo-commandPool-parameter"),
		newEntry("vkFreeCommandBuffers",
			dispatch("device", handle.Device, guard.Read),
			in("commandPool", handle.CommandPool, guard.Write),
			in("pCommandBuffers", handle.CommandBuffer, guard.Write).array().nullable().as(Free),
		).pooled("commandPool", 0).freeing(diag.CodeFreeCommandBuffer),
		newEntry("vkBeginCommandBuffer",
			dispatch("commandBuffer", handle.CommandBuffer, guard.Write),
			scalar(UsageParam),
			inherited("framebuffer", handle.Framebuffer).nullable(),
			inherited("renderPass", handle.RenderPass),
		).invalid("framebuffer", "VUID-VkCommandBufferBeginInfo-flags-00055").
			invalid("renderPass", "VUID-VkCommandBufferBeginInfo-flags-00053").
			common("VUID-VkCommandBufferInheritanceInfo-commonparent"),
		newEntry("vkEndCommandBuffer",
			dispatch("commandBuffer", handle.CommandBuffer, guard.Write),
		),
		newEntry("vkCmdExecuteCommands",
			dispatch("commandBuffer", handle.CommandBuffer, guard.Write),
			in("pCommandBuffers", handle.CommandBuffer, guard.Read).array(),
		).common("VUID-vkCmdExecuteCommands-commonparent"),

		newEntry("vkCreateHeadlessSurfaceEXT",
			dispatch("instance", handle.Instance, guard.Read),
			scalar(AllocatorParam),
			out("pSurface", handle.SurfaceKHR, Create),
		),
		newEntry("vkDestroySurfaceKHR",
			dispatch("instance", handle.Instance, guard.Read),
			in("surface", handle.SurfaceKHR, guard.Write).nullable().as(Destroy),
			scalar(AllocatorParam),
		).allocator("VUID-vkDestroySurfaceKHR-surface-01267", "VUID-vkDestroySurfaceKHR-surface-01268"),
		newEntry("vkCreateSwapchainKHR",
			dispatch("device", handle.Device, guard.Read),
			in("surface", handle.SurfaceKHR, guard.Write),
			in("oldSwapchain", handle.SwapchainKHR, guard.Write).nullable(),
			scalar(AllocatorParam),
			out("pSwapchain", handle.SwapchainKHR, Create),
		).common("VUID-VkSwapchainCreateInfoKHR-commonparent").
			invalid("surface", "VUID-VkSwapchainCreateInfoKHR-surface-parameter").
			invalid("oldSwapchain", "VUID-VkSwapchainCreateInfoKHR-oldSwapchain-parameter"),
		destroyEntry(handle.SwapchainKHR, "swapchain", "VUID-vkDestroySwapchainKHR-swapchain-01283", "VUID-vkDestroySwapchainKHR-swapchain-01284"),
		newEntry("vkGetSwapchainImagesKHR",
			dispatch("device", handle.Device, guard.Read),
			in("swapchain", handle.SwapchainKHR, guard.Read),
			out("pSwapchainImages", handle.Image, SwapchainImages).array(),
		).pooled("swapchain", 0),
	} {
		t.Add(e)
	}
	return t
}
