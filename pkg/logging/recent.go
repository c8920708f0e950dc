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

package logging

import (
	"strings"
	"sync"
)

// RecentLines keeps the last N log lines in memory.
type RecentLines struct {
	mutex sync.Mutex
	lines []string
	next  int
	full  bool
}

// NewRecentLines creates a buffer holding up to given number of lines.
func NewRecentLines(size int) *RecentLines {
	if size < 1 {
		size = 1
	}
	return &RecentLines{lines: make([]string, size)}
}

// Write adds all lines in p.
func (r *RecentLines) Write(p []byte) (int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, line := range strings.Split(strings.TrimRight(string(p), "\n"), "\n") {
		if line == "" {
			continue
		}
		r.lines[r.next] = line
		r.next = (r.next + 1) % len(r.lines)
		if r.next == 0 {
			r.full = true
		}
	}
	return len(p), nil
}

// Lines returns the buffered lines, oldest first.
func (r *RecentLines) Lines() []string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if !r.full {
		return append([]string(nil), r.lines[:r.next]...)
	}
	result := make([]string, 0, len(r.lines))
	result = append(result, r.lines[r.next:]...)
	return append(result, r.lines[:r.next]...)
}
