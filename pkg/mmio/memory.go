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

package mmio

import (
	"sync"
)

// Write is a single register write recorded by a memory region.
type Write struct {
	Offset int
	Value  uint32
}

// Memory is a Mapper backed by ordinary memory.
// It is used by virtual boards and by tests as a register fake.
type Memory struct {
	mutex   sync.Mutex
	mapErr  error
	maps    int
	regions []*MemoryRegion
}

// NewMemory creates an empty memory backed Mapper.
func NewMemory() *Memory {
	return &Memory{}
}

// FailMap makes subsequent calls to Map fail with given error.
func (m *Memory) FailMap(err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.mapErr = err
}

// MapCount returns the number of successful Map calls.
func (m *Memory) MapCount() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.maps
}

// Regions returns all regions created by Map.
func (m *Memory) Regions() []*MemoryRegion {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return append([]*MemoryRegion(nil), m.regions...)
}

// Map allocates a zeroed region of given length.
func (m *Memory) Map(physAddr uintptr, length int) (Region, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.mapErr != nil {
		return nil, m.mapErr
	}
	if length <= 0 {
		return nil, maskAny(OutOfRangeError)
	}
	r := &MemoryRegion{
		physAddr: physAddr,
		words:    make([]uint32, (length+3)/4),
		size:     length,
	}
	m.maps++
	m.regions = append(m.regions, r)
	return r, nil
}

// MemoryRegion is a Region backed by ordinary memory.
type MemoryRegion struct {
	mutex    sync.Mutex
	physAddr uintptr
	words    []uint32
	size     int
	writes   []Write
	closed   bool
}

// PhysAddr returns the physical address the region was mapped at.
func (r *MemoryRegion) PhysAddr() uintptr {
	return r.physAddr
}

// Size returns the number of accessible bytes.
func (r *MemoryRegion) Size() int {
	return r.size
}

// Load32 reads the 32-bit register at given byte offset.
func (r *MemoryRegion) Load32(offset int) (uint32, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := r.check(offset); err != nil {
		return 0, err
	}
	return r.words[offset/4], nil
}

// Store32 writes the 32-bit register at given byte offset.
func (r *MemoryRegion) Store32(offset int, value uint32) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := r.check(offset); err != nil {
		return err
	}
	r.words[offset/4] = value
	r.writes = append(r.writes, Write{Offset: offset, Value: value})
	return nil
}

// Poke sets a register without recording a write.
func (r *MemoryRegion) Poke(offset int, value uint32) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.words[offset/4] = value
}

// Writes returns all recorded writes in order.
func (r *MemoryRegion) Writes() []Write {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return append([]Write(nil), r.writes...)
}

// ResetWrites forgets all recorded writes.
func (r *MemoryRegion) ResetWrites() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.writes = nil
}

// Closed returns true once Close has been called.
func (r *MemoryRegion) Closed() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.closed
}

// Close releases the region.
func (r *MemoryRegion) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.closed = true
	return nil
}

func (r *MemoryRegion) check(offset int) error {
	if r.closed {
		return maskAny(ClosedError)
	}
	return checkAccess(offset, r.size)
}
