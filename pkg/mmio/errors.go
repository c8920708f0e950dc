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
	"fmt"
	"syscall"

	"github.com/pkg/errors"
)

var (
	OutOfRangeError = errors.New("register offset out of range")
	IsOutOfRange    = isErrorFunc(OutOfRangeError)
	MisalignedError = errors.New("misaligned register access")
	IsMisaligned    = isErrorFunc(MisalignedError)
	ClosedError     = errors.New("region closed")
	IsClosed        = isErrorFunc(ClosedError)

	maskAny = errors.WithStack
)

const (
	OpOpen = "open"
	OpMmap = "mmap"
)

// OpError is returned when opening the memory device or mapping
// the requested range failed.
type OpError struct {
	Op   string
	Path string
	Addr uintptr
	Err  error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s @0x%08x: %v", e.Op, e.Path, e.Addr, e.Err)
}

// Unwrap returns the underlying system error.
func (e *OpError) Unwrap() error { return e.Err }

// IsOpenFailed returns true when the given error was caused by a
// failure to open the memory device.
func IsOpenFailed(err error) bool {
	return isOp(err, OpOpen)
}

// IsMapFailed returns true when the given error was caused by a
// failure to map the physical range.
func IsMapFailed(err error) bool {
	return isOp(err, OpMmap)
}

// Errno returns the system error code carried by the given error.
func Errno(err error) (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno, true
	}
	return 0, false
}

func isOp(err error, op string) bool {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Op == op
	}
	return false
}

func isErrorFunc(typeOfError error) func(err error) bool {
	return func(err error) bool {
		return err == typeOfError || errors.Cause(err) == typeOfError
	}
}
