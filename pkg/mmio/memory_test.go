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
	"syscall"
	"testing"

	"github.com/pkg/errors"
)

func TestMemoryLoadStore(t *testing.T) {
	m := NewMemory()
	r, err := m.Map(0x01c20e00, 12)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if r.Size() != 12 {
		t.Errorf("Expected size 12, got %d", r.Size())
	}
	if err := r.Store32(8, 0xdeadbeef); err != nil {
		t.Fatalf("Store32 failed: %v", err)
	}
	v, err := r.Load32(8)
	if err != nil {
		t.Fatalf("Load32 failed: %v", err)
	}
	if v != 0xdeadbeef {
		t.Errorf("Expected 0xdeadbeef, got 0x%08x", v)
	}
	writes := r.(*MemoryRegion).Writes()
	if len(writes) != 1 || writes[0] != (Write{Offset: 8, Value: 0xdeadbeef}) {
		t.Errorf("Unexpected writes %v", writes)
	}
	if m.MapCount() != 1 {
		t.Errorf("Expected 1 map, got %d", m.MapCount())
	}
}

func TestMemoryBoundsChecks(t *testing.T) {
	m := NewMemory()
	r, err := m.Map(0, 12)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	tests := []struct {
		offset int
		check  func(error) bool
	}{
		{-4, IsOutOfRange},
		{12, IsOutOfRange},
		{10, IsOutOfRange},
		{2, IsMisaligned},
	}
	for _, test := range tests {
		if _, err := r.Load32(test.offset); !test.check(err) {
			t.Errorf("Load32(%d): unexpected error %v", test.offset, err)
		}
		if err := r.Store32(test.offset, 1); !test.check(err) {
			t.Errorf("Store32(%d): unexpected error %v", test.offset, err)
		}
	}
	if len(r.(*MemoryRegion).Writes()) != 0 {
		t.Error("Rejected stores must not be recorded")
	}
}

func TestMemoryClosed(t *testing.T) {
	m := NewMemory()
	r, _ := m.Map(0, 4)
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if _, err := r.Load32(0); !IsClosed(err) {
		t.Errorf("Expected closed error, got %v", err)
	}
}

func TestMemoryFailMap(t *testing.T) {
	m := NewMemory()
	m.FailMap(&OpError{Op: OpMmap, Path: "/dev/mem", Addr: 0x1000, Err: syscall.EINVAL})
	_, err := m.Map(0x1000, 4)
	if !IsMapFailed(err) {
		t.Errorf("Expected map failure, got %v", err)
	}
	if IsOpenFailed(err) {
		t.Error("Map failure must not be reported as open failure")
	}
	if errno, ok := Errno(err); !ok || errno != syscall.EINVAL {
		t.Errorf("Expected EINVAL, got %v (%v)", errno, ok)
	}
}

func TestOpErrorWrapped(t *testing.T) {
	err := errors.Wrap(maskAny(&OpError{Op: OpOpen, Path: "/dev/mem", Err: syscall.EACCES}), "Initialize failed")
	if !IsOpenFailed(err) {
		t.Errorf("Expected open failure, got %v", err)
	}
	if errno, ok := Errno(err); !ok || errno != syscall.EACCES {
		t.Errorf("Expected EACCES, got %v (%v)", errno, ok)
	}
}
