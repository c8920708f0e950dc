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

// Package mmio provides access to memory mapped peripheral registers.
//
// A Mapper turns a physical address range into a Region. All register
// access goes through the Region's bounds and alignment checked 32-bit
// accessors.
package mmio

import "github.com/pkg/errors"

// Mapper is the address space accessor used by register drivers.
type Mapper interface {
	// Map the physical address range [physAddr, physAddr+length) for
	// read/write access.
	Map(physAddr uintptr, length int) (Region, error)
}

// Region is a mapped range of peripheral registers.
// Offsets are relative to the physical address given to Map.
type Region interface {
	// Size returns the number of accessible bytes.
	Size() int
	// Load32 reads the 32-bit register at given byte offset.
	Load32(offset int) (uint32, error)
	// Store32 writes the 32-bit register at given byte offset.
	Store32(offset int, value uint32) error
	// Close releases the mapping.
	Close() error
}

// checkAccess validates a 32-bit access at given offset into a region
// of given size.
func checkAccess(offset, size int) error {
	if offset < 0 || offset+4 > size {
		return errors.Wrapf(OutOfRangeError, "offset 0x%x, size 0x%x", offset, size)
	}
	if offset%4 != 0 {
		return errors.Wrapf(MisalignedError, "offset 0x%x", offset)
	}
	return nil
}
