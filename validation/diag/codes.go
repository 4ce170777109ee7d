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

package diag

// Diagnostic codes used when the caller does not supply a more specific one.
const (
	CodeInfo                = "UNASSIGNED-ObjectTracker-Info"
	CodeInternalError       = "UNASSIGNED-ObjectTracker-InternalError"
	CodeObjectLeak          = "UNASSIGNED-ObjectTracker-ObjectLeak"
	CodeUnknownObject       = "UNASSIGNED-ObjectTracker-UnknownObject"
	CodeWrongParent         = "UNASSIGNED-ObjectTracker-WrongParent"
	CodeCustomAllocator     = "UNASSIGNED-ObjectTracker-CustomAllocatorMismatch"
	CodeDefaultAllocator    = "UNASSIGNED-ObjectTracker-DefaultAllocatorMismatch"
	CodeMultipleThreads     = "UNASSIGNED-Threading-MultipleThreads"
	CodeFreeCommandBuffer   = "VUID-vkFreeCommandBuffers-pCommandBuffers-00048"
	CodeFreeDescriptorSet   = "VUID-vkFreeDescriptorSets-pDescriptorSets-00310"
	CodeDestroyDeviceLeak   = "VUID-vkDestroyDevice-device-00378"
	CodeDestroyInstanceLeak = "VUID-vkDestroyInstance-instance-00629"
)
