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
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	// DefaultDevMemPath is the physical memory device of Linux.
	DefaultDevMemPath = "/dev/mem"
	// Minimum number of pages mapped for a single region.
	minMappedPages = 2
)

type devMem struct {
	path string
}

// NewDevMem creates a Mapper that maps physical memory through the
// memory device at given path (typically /dev/mem).
func NewDevMem(path string) Mapper {
	if path == "" {
		path = DefaultDevMemPath
	}
	return &devMem{path: path}
}

// Map the physical address range [physAddr, physAddr+length) for
// read/write access.
// The mapping starts at the page containing physAddr and covers at least
// two pages. The file descriptor is closed before returning; the mapping
// stays valid until the region is closed.
func (m *devMem) Map(physAddr uintptr, length int) (Region, error) {
	pageSize := unix.Getpagesize()
	pageMask := uintptr(pageSize - 1)
	start := physAddr &^ pageMask
	offset := int(physAddr & pageMask)
	mapLen := minMappedPages * pageSize
	for offset+length > mapLen {
		mapLen += pageSize
	}

	fd, err := unix.Open(m.path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, maskAny(&OpError{Op: OpOpen, Path: m.path, Addr: physAddr, Err: err})
	}
	defer unix.Close(fd)

	mem, err := unix.Mmap(fd, int64(start), mapLen, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, maskAny(&OpError{Op: OpMmap, Path: m.path, Addr: physAddr, Err: err})
	}
	return &devMemRegion{
		mapping: mem,
		regs:    mem[offset : offset+length],
	}, nil
}

type devMemRegion struct {
	mutex   sync.Mutex
	mapping []byte
	regs    []byte
}

// Size returns the number of accessible bytes.
func (r *devMemRegion) Size() int {
	return len(r.regs)
}

// Load32 reads the 32-bit register at given byte offset.
func (r *devMemRegion) Load32(offset int) (uint32, error) {
	p, err := r.word(offset)
	if err != nil {
		return 0, err
	}
	return atomic.LoadUint32(p), nil
}

// Store32 writes the 32-bit register at given byte offset.
func (r *devMemRegion) Store32(offset int, value uint32) error {
	p, err := r.word(offset)
	if err != nil {
		return err
	}
	atomic.StoreUint32(p, value)
	return nil
}

// Close releases the mapping.
func (r *devMemRegion) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.mapping == nil {
		return nil
	}
	mem := r.mapping
	r.mapping, r.regs = nil, nil
	if err := unix.Munmap(mem); err != nil {
		return maskAny(err)
	}
	return nil
}

// word returns a pointer to the register at given offset.
// Registers are accessed as whole words; never through byte loads.
func (r *devMemRegion) word(offset int) (*uint32, error) {
	r.mutex.Lock()
	regs := r.regs
	r.mutex.Unlock()

	if regs == nil {
		return nil, maskAny(ClosedError)
	}
	if err := checkAccess(offset, len(regs)); err != nil {
		return nil, err
	}
	return (*uint32)(unsafe.Pointer(&regs[offset])), nil
}
