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
	"math"
	"testing"
)

func TestComputeSetting(t *testing.T) {
	tests := []struct {
		periodNs, dutyNs uint64
		expect           Setting
	}{
		// 50Hz servo signal
		{20000000, 1500000, Setting{Prescaler: 0, PeriodTicks: 4000, DutyTicks: 300}},
		{1000000, 250000, Setting{Prescaler: 0, PeriodTicks: 200, DutyTicks: 50}},
		// Shortest period with a non-zero tick count
		{5000, 2500, Setting{Prescaler: 0, PeriodTicks: 1, DutyTicks: 0}},
		// Longest period of prescaler 0
		{327684999, 0, Setting{Prescaler: 0, PeriodTicks: 65536, DutyTicks: 0}},
		// One more nanosecond needs the next prescaler
		{327685000, 0, Setting{Prescaler: 1, PeriodTicks: 43691, DutyTicks: 0}},
		// Longest representable period
		{196807807807, 0, Setting{Prescaler: 12, PeriodTicks: 65536, DutyTicks: 0}},
	}
	for _, test := range tests {
		s, err := ComputeSetting(test.periodNs, test.dutyNs)
		if err != nil {
			t.Errorf("ComputeSetting(%d, %d) failed: %v", test.periodNs, test.dutyNs, err)
			continue
		}
		if s != test.expect {
			t.Errorf("ComputeSetting(%d, %d): expected %+v, got %+v", test.periodNs, test.dutyNs, test.expect, s)
		}
	}
}

func TestComputeSettingServoDuty(t *testing.T) {
	s, err := ComputeSetting(20000000, 1500000)
	if err != nil {
		t.Fatalf("ComputeSetting failed: %v", err)
	}
	if s.PeriodTicks-1 > MaxDutyTicks {
		t.Errorf("Period ticks %d out of range", s.PeriodTicks)
	}
	if expect := uint32(uint64(s.PeriodTicks) * 1500000 / 20000000); s.DutyTicks != expect {
		t.Errorf("Expected duty %d, got %d", expect, s.DutyTicks)
	}
}

func TestComputeSettingSelectsFinestPrescaler(t *testing.T) {
	for periodNs := uint64(5000); periodNs <= 196807807807; periodNs = periodNs*3/2 + 7 {
		s, err := ComputeSetting(periodNs, periodNs/2)
		if err != nil {
			t.Errorf("ComputeSetting(%d) failed: %v", periodNs, err)
			continue
		}
		if PrescalerTable[s.Prescaler] == 0 {
			t.Errorf("ComputeSetting(%d) selected unusable prescaler %d", periodNs, s.Prescaler)
		}
		for lower := 0; lower < s.Prescaler; lower++ {
			divisor := PrescalerTable[lower]
			if divisor == 0 {
				continue
			}
			if ticks, ok := periodTicks(divisor, periodNs); ok && ticks >= 1 && ticks <= MaxPeriodTicks {
				t.Errorf("ComputeSetting(%d) selected %d while %d fits (%d ticks)", periodNs, s.Prescaler, lower, ticks)
			}
		}
	}
}

func TestComputeSettingShortestPeriod(t *testing.T) {
	tests := []struct {
		periodNs uint64
		ok       bool
	}{
		{4999, false},
		{5000, true},
		{9999, true},
	}
	for _, test := range tests {
		s, err := ComputeSetting(test.periodNs, 0)
		if !test.ok {
			if !IsPeriodUnrepresentable(err) {
				t.Errorf("ComputeSetting(%d): expected period unrepresentable, got %v", test.periodNs, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ComputeSetting(%d) failed: %v", test.periodNs, err)
		} else if s.Prescaler != 0 || s.PeriodTicks != 1 {
			t.Errorf("ComputeSetting(%d): expected 1 tick at prescaler 0, got %+v", test.periodNs, s)
		}
	}
}

func TestComputeSettingUnrepresentable(t *testing.T) {
	for _, periodNs := range []uint64{1, 4999, 196807807808, 1000000000000, math.MaxUint64} {
		if _, err := ComputeSetting(periodNs, 0); !IsPeriodUnrepresentable(err) {
			t.Errorf("ComputeSetting(%d): expected period unrepresentable, got %v", periodNs, err)
		}
	}
}

func TestComputeSettingZeroPeriod(t *testing.T) {
	if _, err := ComputeSetting(0, 0); !IsInvalidArgument(err) {
		t.Errorf("Expected invalid argument, got %v", err)
	}
}

func TestComputeSettingClampsDuty(t *testing.T) {
	tests := []struct {
		periodNs, dutyNs uint64
		expectDuty       uint32
	}{
		// Duty longer than period
		{20000000, 40000000, 4000},
		{20000000, math.MaxUint64, 4000},
		// Full duty at 65536 ticks does not fit the 16-bit field
		{327684999, 327684999, MaxDutyTicks},
		// Full duty below the limit is kept
		{20000000, 20000000, 4000},
	}
	for _, test := range tests {
		s, err := ComputeSetting(test.periodNs, test.dutyNs)
		if err != nil {
			t.Errorf("ComputeSetting(%d, %d) failed: %v", test.periodNs, test.dutyNs, err)
			continue
		}
		if s.DutyTicks != test.expectDuty {
			t.Errorf("ComputeSetting(%d, %d): expected duty %d, got %d", test.periodNs, test.dutyNs, test.expectDuty, s.DutyTicks)
		}
	}
}

func TestTicksToNs(t *testing.T) {
	if ns := ticksToNs(4000, 120); ns != 20000000 {
		t.Errorf("Expected 20000000, got %d", ns)
	}
	if ns := ticksToNs(4000, 0); ns != 0 {
		t.Errorf("Expected 0 for unusable divisor, got %d", ns)
	}
}
