//    Copyright 2017 Ewout Prangsma
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

package bridge

import (
	"time"

	aerr "github.com/ewoutp/go-aggregate-error"

	"github.com/binkynet/SunxiPWM/pkg/mmio"
)

// VirtualBridge is a bridge without hardware.
// Its registers live in memory.
type VirtualBridge struct {
	greenLed statusLed
	redLed   statusLed
	memory   *mmio.Memory
}

// NewVirtualBridge implements the bridge for a virtual worker.
func NewVirtualBridge() (*VirtualBridge, error) {
	return &VirtualBridge{
		greenLed: statusLed{name: "green"},
		redLed:   statusLed{name: "red"},
		memory:   mmio.NewMemory(),
	}, nil
}

// Turn Green status led on/off
func (p *VirtualBridge) SetGreenLED(on bool) error {
	return p.greenLed.Set(on)
}

// Turn Red status led on/off
func (p *VirtualBridge) SetRedLED(on bool) error {
	return p.redLed.Set(on)
}

// Blink Green status led with given duration between on/off
func (p *VirtualBridge) BlinkGreenLED(delay time.Duration) error {
	return p.greenLed.Blink(delay)
}

// Blink Red status led with given duration between on/off
func (p *VirtualBridge) BlinkRedLED(delay time.Duration) error {
	return p.redLed.Blink(delay)
}

// GreenLED returns the last value of the green led.
func (p *VirtualBridge) GreenLED() bool {
	return p.greenLed.IsOn()
}

// RedLED returns the last value of the red led.
func (p *VirtualBridge) RedLED() bool {
	return p.redLed.IsOn()
}

// Mapper returns the in-memory register accessor.
func (p *VirtualBridge) Mapper() mmio.Mapper {
	return p.memory
}

// Memory returns the in-memory register backing.
func (p *VirtualBridge) Memory() *mmio.Memory {
	return p.memory
}

func (p *VirtualBridge) Close() error {
	return closeLeds(&p.greenLed, &p.redLed)
}

// closeLeds turns off all given leds.
func closeLeds(leds ...*statusLed) error {
	var ae aerr.AggregateError
	for _, l := range leds {
		ae.Add(l.Set(false))
	}
	return ae.AsError()
}
