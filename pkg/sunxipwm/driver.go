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

// Package sunxipwm drives the PWM controller of Allwinner (sunxi) A10/A20
// SoCs through its memory mapped registers.
//
// The Driver does not lock. Callers that use a Driver from multiple
// goroutines must serialize all calls, since every operation is a
// read-modify-write of the shared control register.
package sunxipwm

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/SunxiPWM/pkg/mmio"
)

// Driver for the PWM controller.
type Driver struct {
	log    zerolog.Logger
	mapper mmio.Mapper
	region mmio.Region
}

// New creates a driver that maps the controller registers through
// the given mapper. Initialize must be called before anything else.
func New(mapper mmio.Mapper, log zerolog.Logger) *Driver {
	return &Driver{
		log:    log.With().Str("component", "sunxipwm").Logger(),
		mapper: mapper,
	}
}

// Initialized returns true once Initialize succeeded.
func (d *Driver) Initialized() bool {
	return d.region != nil
}

// Initialize maps the controller registers.
// Calling it on an initialized driver does nothing.
func (d *Driver) Initialize() error {
	if d.region != nil {
		return nil
	}
	region, err := d.mapper.Map(BaseAddress, RegisterBlockSize)
	if err != nil {
		operationErrorCounters.WithLabelValues("initialize", "").Inc()
		return errors.Wrapf(err, "Map(0x%08x) failed", BaseAddress)
	}
	d.region = region
	operationCounters.WithLabelValues("initialize", "").Inc()
	d.log.Debug().
		Str("address", fmt.Sprintf("0x%08x", BaseAddress)).
		Int("size", region.Size()).
		Msg("Mapped PWM registers")
	return nil
}

// Close releases the register mapping.
// The driver must be initialized again before further use.
func (d *Driver) Close() error {
	if d.region == nil {
		return nil
	}
	region := d.region
	d.region = nil
	if err := region.Close(); err != nil {
		return errors.Wrap(err, "Close failed")
	}
	return nil
}

// SetPolarity sets the output polarity of the given channel.
func (d *Driver) SetPolarity(ch Channel, pol Polarity) error {
	err := func() error {
		if err := d.check(ch); err != nil {
			return err
		}
		if !pol.Valid() {
			return InvalidArgument("invalid polarity %d", int(pol))
		}
		return d.modifyCtrl(func(r ControlRegister) ControlRegister {
			return r.WithActiveState(ch, pol == PolarityNormal)
		})
	}()
	return d.observe("set_polarity", ch, err)
}

// Configure sets the period and duty cycle (in nanoseconds) of the given
// channel, selecting the finest prescaler that can represent the period.
//
// Nothing is written when the period cannot be represented.
// The clock gating bit of the channel is cleared while the prescaler and
// period change and is restored afterwards.
func (d *Driver) Configure(ch Channel, periodNs, dutyNs uint64) error {
	err := func() error {
		if err := d.check(ch); err != nil {
			return err
		}
		setting, err := ComputeSetting(periodNs, dutyNs)
		if err != nil {
			return err
		}
		return d.commit(ch, setting)
	}()
	return d.observe("configure", ch, err)
}

// Enable starts the given channel (enable + clock gating).
func (d *Driver) Enable(ch Channel) error {
	return d.observe("enable", ch, d.setRunning(ch, true))
}

// Disable stops the given channel (enable + clock gating).
func (d *Driver) Disable(ch Channel) error {
	return d.observe("disable", ch, d.setRunning(ch, false))
}

// State reads back the current registers of the given channel.
func (d *Driver) State(ch Channel) (ChannelState, error) {
	if err := d.check(ch); err != nil {
		return ChannelState{}, err
	}
	ctrl, err := d.readCtrl()
	if err != nil {
		return ChannelState{}, err
	}
	word, err := d.region.Load32(periodRegOffset(ch))
	if err != nil {
		return ChannelState{}, maskAny(err)
	}
	return decodeState(ch, ctrl, word), nil
}

func (d *Driver) setRunning(ch Channel, on bool) error {
	if err := d.check(ch); err != nil {
		return err
	}
	return d.modifyCtrl(func(r ControlRegister) ControlRegister {
		return r.WithEnabled(ch, on).WithClockGating(ch, on)
	})
}

// commit writes the given setting to the registers of the given channel.
func (d *Driver) commit(ch Channel, setting Setting) error {
	ctrl, err := d.readCtrl()
	if err != nil {
		return err
	}
	gating := ctrl.ClockGating(ch)

	// Disconnect the divided clock from the counter before changing the prescaler
	if err := d.modifyCtrl(func(r ControlRegister) ControlRegister {
		return r.WithClockGating(ch, false)
	}); err != nil {
		return err
	}
	if err := d.modifyCtrl(func(r ControlRegister) ControlRegister {
		return r.WithPrescaler(ch, setting.Prescaler)
	}); err != nil {
		return err
	}
	if err := d.region.Store32(periodRegOffset(ch), setting.PeriodWord()); err != nil {
		return maskAny(err)
	}
	if gating {
		if err := d.modifyCtrl(func(r ControlRegister) ControlRegister {
			return r.WithClockGating(ch, true)
		}); err != nil {
			return err
		}
	}

	label := ch.String()
	periodTicksGauges.WithLabelValues(label).Set(float64(setting.PeriodTicks))
	dutyTicksGauges.WithLabelValues(label).Set(float64(setting.DutyTicks))
	prescalerGauges.WithLabelValues(label).Set(float64(setting.Prescaler))
	d.log.Debug().
		Str("channel", label).
		Int("prescaler", setting.Prescaler).
		Uint32("divisor", setting.Divisor()).
		Uint32("period_ticks", setting.PeriodTicks).
		Uint32("duty_ticks", setting.DutyTicks).
		Bool("clock_gating", gating).
		Msg("Configured PWM channel")
	return nil
}

// check verifies that the driver is initialized and the channel exists.
func (d *Driver) check(ch Channel) error {
	if d.region == nil {
		return maskAny(NotInitializedError)
	}
	if !ch.Valid() {
		return errors.Wrapf(InvalidChannelError, "channel %d", uint8(ch))
	}
	return nil
}

func (d *Driver) readCtrl() (ControlRegister, error) {
	v, err := d.region.Load32(ctrlRegOfs)
	if err != nil {
		return 0, maskAny(err)
	}
	return ControlRegister(v), nil
}

// modifyCtrl performs a single read-modify-write of the control register.
func (d *Driver) modifyCtrl(modify func(ControlRegister) ControlRegister) error {
	ctrl, err := d.readCtrl()
	if err != nil {
		return err
	}
	if err := d.region.Store32(ctrlRegOfs, uint32(modify(ctrl))); err != nil {
		return maskAny(err)
	}
	ctrlWriteCounter.Inc()
	return nil
}

// observe updates the operation metrics.
func (d *Driver) observe(op string, ch Channel, err error) error {
	operationCounters.WithLabelValues(op, ch.String()).Inc()
	if err != nil {
		operationErrorCounters.WithLabelValues(op, ch.String()).Inc()
	}
	return err
}
