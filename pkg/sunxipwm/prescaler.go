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
	"math/bits"

	"github.com/pkg/errors"
)

const (
	// ReferenceClockHz is the frequency of the clock feeding the prescalers.
	ReferenceClockHz = 24000000

	nsPerSecond = 1000000000
	// Prescaler indices searched are 0 .. prescalerSearchLimit-1.
	prescalerSearchLimit = 0x0F
)

// PrescalerTable maps a prescaler index to its clock divisor.
// A zero divisor marks an index that is not usable.
var PrescalerTable = [16]uint32{
	120, 180, 240, 360, 480, 0, 0, 0,
	12000, 24000, 36000, 48000, 72000, 0, 0, 0,
}

// Setting holds the register field values for a period/duty pair.
type Setting struct {
	// Prescaler index into PrescalerTable
	Prescaler int
	// Period in ticks of the divided clock [1, MaxPeriodTicks]
	PeriodTicks uint32
	// Duty in ticks of the divided clock [0, MaxDutyTicks]
	DutyTicks uint32
}

// Divisor returns the clock divisor of the prescaler.
func (s Setting) Divisor() uint32 {
	return PrescalerTable[s.Prescaler&ctrlPrescalerMask]
}

// PeriodWord returns the packed period register value.
func (s Setting) PeriodWord() uint32 {
	return PackPeriod(s.PeriodTicks, s.DutyTicks)
}

// ComputeSetting selects the finest prescaler that can represent the
// given period and computes the period and duty in ticks.
//
// Duty values above the period are clamped to the period (and to
// MaxDutyTicks).
//
// Periods that do not fit 65536 ticks of the coarsest divisor are
// rejected with PeriodUnrepresentableError. So are periods shorter
// than a single tick of the finest divisor (5000ns, 120 / 24MHz).
func ComputeSetting(periodNs, dutyNs uint64) (Setting, error) {
	if periodNs == 0 {
		return Setting{}, InvalidArgument("period must be > 0")
	}
	for prescaler := 0; prescaler < prescalerSearchLimit; prescaler++ {
		divisor := PrescalerTable[prescaler]
		if divisor == 0 {
			continue
		}
		ticks, ok := periodTicks(divisor, periodNs)
		if !ok || ticks == 0 || ticks-1 > MaxDutyTicks {
			continue
		}
		return Setting{
			Prescaler:   prescaler,
			PeriodTicks: uint32(ticks),
			DutyTicks:   dutyTicks(ticks, periodNs, dutyNs),
		}, nil
	}
	return Setting{}, errors.Wrapf(PeriodUnrepresentableError, "period %dns", periodNs)
}

// periodTicks returns (ReferenceClockHz / divisor) * periodNs / 1e9,
// truncating after each division.
// Returns false when the intermediate product does not fit 64 bits.
func periodTicks(divisor uint32, periodNs uint64) (uint64, bool) {
	rate := uint64(ReferenceClockHz / divisor)
	hi, lo := bits.Mul64(rate, periodNs)
	if hi != 0 {
		return 0, false
	}
	return lo / nsPerSecond, true
}

// dutyTicks returns periodTicks * dutyNs / periodNs (truncating),
// clamped to periodTicks and MaxDutyTicks.
func dutyTicks(periodTicks, periodNs, dutyNs uint64) uint32 {
	limit := periodTicks
	if limit > MaxDutyTicks {
		limit = MaxDutyTicks
	}
	hi, lo := bits.Mul64(periodTicks, dutyNs)
	if hi >= periodNs {
		return uint32(limit)
	}
	q, _ := bits.Div64(hi, lo, periodNs)
	if q > limit {
		return uint32(limit)
	}
	return uint32(q)
}

// ticksToNs converts a number of ticks of the clock divided by the given
// divisor into nanoseconds. Returns 0 for an unusable divisor.
// ticks is at most MaxPeriodTicks, so the product cannot overflow.
func ticksToNs(ticks uint64, divisor uint32) uint64 {
	if divisor == 0 {
		return 0
	}
	rate := uint64(ReferenceClockHz / divisor)
	return ticks * nsPerSecond / rate
}
