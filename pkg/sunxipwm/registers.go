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

package sunxipwm

import (
	"fmt"
	"strings"
)

const (
	// BaseAddress is the physical address of the PWM controller registers.
	BaseAddress uintptr = 0x01c20e00

	ctrlRegOfs         = 0x00
	periodRegOfs       = 0x04
	periodRegIncrement = 0x04
	// RegisterBlockSize is the number of bytes covered by the controller registers.
	RegisterBlockSize = periodRegOfs + ChannelCount*periodRegIncrement

	// Bit distance between the fields of channel 0 and channel 1.
	channelShift = 15

	ctrlPrescalerMask  = 0x0F
	ctrlEnableBit      = 1 << 4
	ctrlActiveStateBit = 1 << 5
	ctrlClockGatingBit = 1 << 6

	// MaxPeriodTicks is the longest period (in ticks) of the period register.
	MaxPeriodTicks = 0x10000
	// MaxDutyTicks is the largest duty value (in ticks) of the period register.
	MaxDutyTicks = 0xFFFF
)

// Channel identifies one of the PWM outputs of the controller.
type Channel uint8

const (
	Channel0 Channel = 0
	Channel1 Channel = 1
	// ChannelCount is the number of channels of the controller.
	ChannelCount = 2
)

// Valid returns true if the channel exists on the controller.
func (c Channel) Valid() bool {
	return c < ChannelCount
}

func (c Channel) String() string {
	return fmt.Sprintf("pwm%d", uint8(c))
}

// Channels returns all channels of the controller.
func Channels() []Channel {
	return []Channel{Channel0, Channel1}
}

// Polarity of a PWM output.
type Polarity int

const (
	// PolarityNormal drives the output high during the duty part of the period.
	PolarityNormal Polarity = iota
	// PolarityInverted drives the output low during the duty part of the period.
	PolarityInverted
)

func (p Polarity) String() string {
	switch p {
	case PolarityNormal:
		return "normal"
	case PolarityInverted:
		return "inverted"
	default:
		return fmt.Sprintf("Polarity(%d)", int(p))
	}
}

// Valid returns true for known polarities.
func (p Polarity) Valid() bool {
	return p == PolarityNormal || p == PolarityInverted
}

// ParsePolarity parses "normal" or "inverted" (also "inversed").
func ParsePolarity(s string) (Polarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "normal", "":
		return PolarityNormal, nil
	case "inverted", "inversed":
		return PolarityInverted, nil
	}
	return PolarityNormal, InvalidArgument("invalid polarity '%s'", s)
}

// MarshalText implements encoding.TextMarshaler.
func (p Polarity) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, InvalidArgument("invalid polarity %d", int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Polarity) UnmarshalText(text []byte) error {
	x, err := ParsePolarity(string(text))
	if err != nil {
		return err
	}
	*p = x
	return nil
}

// ControlRegister is the value of the shared control register.
// Each channel owns a prescaler field (bits 0-3), an enable bit (4),
// an active state bit (5) and a clock gating bit (6), shifted
// by 15 bits per channel.
type ControlRegister uint32

func enableMask(ch Channel) uint32      { return ctrlEnableBit << (channelShift * uint(ch)) }
func activeStateMask(ch Channel) uint32 { return ctrlActiveStateBit << (channelShift * uint(ch)) }
func clockGatingMask(ch Channel) uint32 { return ctrlClockGatingBit << (channelShift * uint(ch)) }
func prescalerMask(ch Channel) uint32   { return ctrlPrescalerMask << (channelShift * uint(ch)) }

// Enabled returns the enable bit of the given channel.
func (r ControlRegister) Enabled(ch Channel) bool {
	return uint32(r)&enableMask(ch) != 0
}

// ActiveState returns the active state (polarity) bit of the given channel.
// A set bit means normal polarity.
func (r ControlRegister) ActiveState(ch Channel) bool {
	return uint32(r)&activeStateMask(ch) != 0
}

// ClockGating returns the clock gating bit of the given channel.
func (r ControlRegister) ClockGating(ch Channel) bool {
	return uint32(r)&clockGatingMask(ch) != 0
}

// Prescaler returns the prescaler index of the given channel.
func (r ControlRegister) Prescaler(ch Channel) int {
	return int((uint32(r) >> (channelShift * uint(ch))) & ctrlPrescalerMask)
}

// Polarity returns the polarity of the given channel.
func (r ControlRegister) Polarity(ch Channel) Polarity {
	if r.ActiveState(ch) {
		return PolarityNormal
	}
	return PolarityInverted
}

// WithEnabled returns a copy with the enable bit of the given channel set to on.
func (r ControlRegister) WithEnabled(ch Channel, on bool) ControlRegister {
	return r.with(enableMask(ch), on)
}

// WithActiveState returns a copy with the active state bit of the given channel set to on.
func (r ControlRegister) WithActiveState(ch Channel, on bool) ControlRegister {
	return r.with(activeStateMask(ch), on)
}

// WithClockGating returns a copy with the clock gating bit of the given channel set to on.
func (r ControlRegister) WithClockGating(ch Channel, on bool) ControlRegister {
	return r.with(clockGatingMask(ch), on)
}

// WithPrescaler returns a copy with the prescaler field of the given channel
// replaced by the given index.
func (r ControlRegister) WithPrescaler(ch Channel, index int) ControlRegister {
	v := uint32(r) &^ prescalerMask(ch)
	v |= (uint32(index) & ctrlPrescalerMask) << (channelShift * uint(ch))
	return ControlRegister(v)
}

func (r ControlRegister) with(mask uint32, on bool) ControlRegister {
	if on {
		return ControlRegister(uint32(r) | mask)
	}
	return ControlRegister(uint32(r) &^ mask)
}

// PackPeriod encodes a period register value.
// periodTicks must be in [1, MaxPeriodTicks]; dutyTicks is truncated to 16 bits.
func PackPeriod(periodTicks, dutyTicks uint32) uint32 {
	return ((periodTicks - 1) << 16) | (dutyTicks & MaxDutyTicks)
}

// UnpackPeriod decodes a period register value.
func UnpackPeriod(word uint32) (periodTicks, dutyTicks uint32) {
	return (word >> 16) + 1, word & MaxDutyTicks
}

// periodRegOffset returns the offset of the period register of the given channel.
func periodRegOffset(ch Channel) int {
	return periodRegOfs + int(ch)*periodRegIncrement
}
