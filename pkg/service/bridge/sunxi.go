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
	"sync"
	"time"

	"github.com/ecc1/gpio"
	"github.com/pkg/errors"

	"github.com/binkynet/SunxiPWM/pkg/mmio"
)

const (
	sunxiGreenLedPin = 19
	sunxiRedLedPin   = 18
)

// SunxiConfig holds the board specific settings of a sunxi bridge.
type SunxiConfig struct {
	// Path of the physical memory device (default /dev/mem)
	DevMemPath string
	// GPIO numbers of the status leds. Negative disables the led.
	GreenLedPin int
	RedLedPin   int
}

// DefaultSunxiConfig returns the settings of the worker board.
func DefaultSunxiConfig() SunxiConfig {
	return SunxiConfig{
		DevMemPath:  mmio.DefaultDevMemPath,
		GreenLedPin: sunxiGreenLedPin,
		RedLedPin:   sunxiRedLedPin,
	}
}

type sunxiBridge struct {
	mutex    sync.Mutex
	greenLed statusLed
	redLed   statusLed
	mapper   mmio.Mapper
}

// NewSunxiBridge implements the bridge for Allwinner A10/A20 boards.
func NewSunxiBridge(cfg SunxiConfig) (API, error) {
	activeLow := true
	initialValue := false
	b := &sunxiBridge{
		greenLed: statusLed{name: "green"},
		redLed:   statusLed{name: "red"},
		mapper:   newInstrumentedMapper("sunxi", mmio.NewDevMem(cfg.DevMemPath)),
	}
	if cfg.GreenLedPin >= 0 {
		greenLed, err := gpio.Output(cfg.GreenLedPin, activeLow, initialValue)
		if err != nil {
			return nil, errors.Wrap(err, "Output[greenLed] failed")
		}
		b.greenLed.pin = greenLed
	}
	if cfg.RedLedPin >= 0 {
		redLed, err := gpio.Output(cfg.RedLedPin, activeLow, initialValue)
		if err != nil {
			return nil, errors.Wrap(err, "Output[redLed] failed")
		}
		b.redLed.pin = redLed
	}
	return b, nil
}

// Turn Green status led on/off
func (p *sunxiBridge) SetGreenLED(on bool) error {
	if err := p.greenLed.Set(on); err != nil {
		return errors.Wrap(err, "Set[greenLed] failed")
	}
	return nil
}

// Turn Red status led on/off
func (p *sunxiBridge) SetRedLED(on bool) error {
	if err := p.redLed.Set(on); err != nil {
		return errors.Wrap(err, "Set[redLed] failed")
	}
	return nil
}

// Blink Green status led with given duration between on/off
func (p *sunxiBridge) BlinkGreenLED(delay time.Duration) error {
	if err := p.greenLed.Blink(delay); err != nil {
		return errors.Wrap(err, "Blink[greenLed] failed")
	}
	return nil
}

// Blink Red status led with given duration between on/off
func (p *sunxiBridge) BlinkRedLED(delay time.Duration) error {
	if err := p.redLed.Blink(delay); err != nil {
		return errors.Wrap(err, "Blink[redLed] failed")
	}
	return nil
}

// Mapper returns the /dev/mem accessor of the board.
func (p *sunxiBridge) Mapper() mmio.Mapper {
	return p.mapper
}

// Close turns off both leds.
func (p *sunxiBridge) Close() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return closeLeds(&p.greenLed, &p.redLed)
}
