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
	"github.com/binkynet/SunxiPWM/pkg/metrics"
)

const (
	subSystem = "driver"
)

var (
	// Total number of driver operations per operation & channel
	operationCounters = metrics.MustRegisterCounterVec(subSystem,
		"operation_total",
		"Total number of driver operations",
		"operation", "channel")
	// Total number of failed driver operations per operation & channel
	operationErrorCounters = metrics.MustRegisterCounterVec(subSystem,
		"operation_error_total",
		"Total number of failed driver operations",
		"operation", "channel")
	// Total number of control register writes
	ctrlWriteCounter = metrics.MustRegisterCounter(subSystem,
		"ctrl_write_total",
		"Total number of control register writes")
	// Configured period in ticks per channel
	periodTicksGauges = metrics.MustRegisterGaugeVec(subSystem,
		"period_ticks",
		"Configured period in ticks",
		"channel")
	// Configured duty in ticks per channel
	dutyTicksGauges = metrics.MustRegisterGaugeVec(subSystem,
		"duty_ticks",
		"Configured duty in ticks",
		"channel")
	// Configured prescaler index per channel
	prescalerGauges = metrics.MustRegisterGaugeVec(subSystem,
		"prescaler",
		"Configured prescaler index",
		"channel")
)
