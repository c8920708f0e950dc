//    Copyright 2026 Ewout Prangsma
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
	"github.com/dustin/go-humanize"
)

// formatFrequency formats a frequency like "50 Hz" or "1.2 kHz".
func formatFrequency(hz float64) string {
	if hz == 0 {
		return "-"
	}
	return humanize.SIWithDigits(hz, 2, "Hz")
}

// formatDutyCycle formats a duty cycle fraction as percentage.
func formatDutyCycle(f float64) string {
	return humanize.FtoaWithDigits(f*100, 2) + "%"
}
