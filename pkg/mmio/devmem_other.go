// Copyright 2026 Ewout Prangsma
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// Author Ewout Prangsma
//

//go:build !linux

package mmio

import "syscall"

// DefaultDevMemPath is the physical memory device of Linux.
const DefaultDevMemPath = "/dev/mem"

type devMem struct {
	path string
}

// NewDevMem creates a Mapper that always fails; physical memory mapping
// is only supported on Linux.
func NewDevMem(path string) Mapper {
	if path == "" {
		path = DefaultDevMemPath
	}
	return &devMem{path: path}
}

// Map always fails on this platform.
func (m *devMem) Map(physAddr uintptr, length int) (Region, error) {
	return nil, maskAny(&OpError{Op: OpOpen, Path: m.path, Addr: physAddr, Err: syscall.ENOSYS})
}
