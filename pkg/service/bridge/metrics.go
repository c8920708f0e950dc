//    Copyright 2023 Ewout Prangsma
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
	"github.com/binkynet/SunxiPWM/pkg/metrics"
	"github.com/binkynet/SunxiPWM/pkg/mmio"
)

const (
	subSystem = "bridge"
)

var (
	// Total number of times Mapper.Map is called
	mapCounters = metrics.MustRegisterCounterVec(subSystem,
		"map_total",
		"Total number of times Mapper.Map is called",
		"bridge")
	// Total number of times Mapper.Map failed
	mapErrorCounters = metrics.MustRegisterCounterVec(subSystem,
		"map_error_total",
		"Total number of times Mapper.Map failed",
		"bridge")
	// Total number of status led changes
	ledChangeCounters = metrics.MustRegisterCounterVec(subSystem,
		"led_change_total",
		"Total number of status led changes",
		"led")
)

// instrumentedMapper counts the Map calls of a mapper.
type instrumentedMapper struct {
	bridge string
	mapper mmio.Mapper
}

func newInstrumentedMapper(bridge string, mapper mmio.Mapper) mmio.Mapper {
	return &instrumentedMapper{bridge: bridge, mapper: mapper}
}

// Map the physical address range and update metrics.
func (m *instrumentedMapper) Map(physAddr uintptr, length int) (mmio.Region, error) {
	mapCounters.WithLabelValues(m.bridge).Inc()
	r, err := m.mapper.Map(physAddr, length)
	if err != nil {
		mapErrorCounters.WithLabelValues(m.bridge).Inc()
		return nil, err
	}
	return r, nil
}
