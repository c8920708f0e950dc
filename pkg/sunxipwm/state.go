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

// ChannelState is the decoded register state of a single channel.
type ChannelState struct {
	Channel     Channel  `json:"channel"`
	Enabled     bool     `json:"enabled"`
	ClockGating bool     `json:"clock_gating"`
	Polarity    Polarity `json:"polarity"`
	Prescaler   int      `json:"prescaler"`
	// Divisor of the prescaler, 0 when the prescaler index is unusable
	Divisor     uint32 `json:"divisor"`
	PeriodTicks uint32 `json:"period_ticks"`
	DutyTicks   uint32 `json:"duty_ticks"`
	PeriodNs    uint64 `json:"period_ns"`
	DutyNs      uint64 `json:"duty_ns"`
}

// Running returns true when the channel counter is running.
func (s ChannelState) Running() bool {
	return s.Enabled && s.ClockGating
}

// FrequencyHz returns the output frequency, or 0 when unknown.
func (s ChannelState) FrequencyHz() float64 {
	if s.PeriodNs == 0 {
		return 0
	}
	return nsPerSecond / float64(s.PeriodNs)
}

// DutyCycle returns the duty as a fraction [0..1] of the period.
func (s ChannelState) DutyCycle() float64 {
	if s.PeriodTicks == 0 {
		return 0
	}
	return float64(s.DutyTicks) / float64(s.PeriodTicks)
}

// decodeState builds the state of the given channel from raw register values.
func decodeState(ch Channel, ctrl ControlRegister, periodWord uint32) ChannelState {
	periodTicks, dutyTicks := UnpackPeriod(periodWord)
	prescaler := ctrl.Prescaler(ch)
	divisor := PrescalerTable[prescaler]
	return ChannelState{
		Channel:     ch,
		Enabled:     ctrl.Enabled(ch),
		ClockGating: ctrl.ClockGating(ch),
		Polarity:    ctrl.Polarity(ch),
		Prescaler:   prescaler,
		Divisor:     divisor,
		PeriodTicks: periodTicks,
		DutyTicks:   dutyTicks,
		PeriodNs:    ticksToNs(uint64(periodTicks), divisor),
		DutyNs:      ticksToNs(uint64(dutyTicks), divisor),
	}
}
