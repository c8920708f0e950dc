//    Copyright 2021 Ewout Prangsma
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
	"github.com/binkynet/SunxiPWM/pkg/metrics"
)

const (
	subSystem = "service"
)

var (
	// Total number of SetPolarity calls per channel
	setPolarityTotal = metrics.MustRegisterCounterVec(subSystem,
		"set_polarity_total",
		"Total number of SetPolarity calls per channel",
		"channel")
	// Total number of Configure calls per channel
	configureTotal = metrics.MustRegisterCounterVec(subSystem,
		"configure_total",
		"Total number of Configure calls per channel",
		"channel")
	// Total number of Enable calls per channel
	enableTotal = metrics.MustRegisterCounterVec(subSystem,
		"enable_total",
		"Total number of Enable calls per channel",
		"channel")
	// Total number of Disable calls per channel
	disableTotal = metrics.MustRegisterCounterVec(subSystem,
		"disable_total",
		"Total number of Disable calls per channel",
		"channel")
	// Total number of Apply calls per channel
	applyTotal = metrics.MustRegisterCounterVec(subSystem,
		"apply_total",
		"Total number of Apply calls per channel",
		"channel")
	// Total number of published channel state changes
	stateChangesTotal = metrics.MustRegisterCounterVec(subSystem,
		"state_changes_total",
		"Total number of published channel state changes",
		"channel")
)
