//    Copyright 2026 Ewout Prangsma
//
//    Licensed under the Apache License, Version 2.0 (the "License");
//    you may not use this file except in compliance with the License.
//    You may obtain a copy of the License at
//
//        http://www.apache.org/licenses/LICENSE-2.0
//
//    Unless required by applicable law or agreed to in writing, software
//    distributed under the License is distributed on an "AS IS" BASIS,
//    WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//    See the License for the specific language governing permissions and
//    limitations under the License.

package service

import (
	"sync"

	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

// stateEvent is a published channel state with its sequence number.
type stateEvent struct {
	seq   uint64
	state sunxipwm.ChannelState
}

// subscriber restores the publish order of events that arrive
// from concurrent goroutines.
type subscriber struct {
	mutex   sync.Mutex
	cb      func(sunxipwm.ChannelState)
	next    uint64
	pending map[uint64]sunxipwm.ChannelState
	closed  bool
}

// deliver queues the given event and invokes the callback for all
// events that are now in sequence.
func (sub *subscriber) deliver(ev stateEvent) {
	sub.mutex.Lock()
	defer sub.mutex.Unlock()

	if sub.closed || ev.seq < sub.next {
		return
	}
	sub.pending[ev.seq] = ev.state
	for {
		state, found := sub.pending[sub.next]
		if !found {
			return
		}
		delete(sub.pending, sub.next)
		sub.next++
		sub.cb(state)
	}
}

// close stops all further deliveries.
func (sub *subscriber) close() {
	sub.mutex.Lock()
	defer sub.mutex.Unlock()
	sub.closed = true
	sub.pending = nil
}
