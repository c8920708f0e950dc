//    Copyright 2018 Ewout Prangsma
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

package environment

import "strings"

const (
	// BridgeTypeSunxi selects the Allwinner A10/A20 board.
	BridgeTypeSunxi = "sunxi"
	// BridgeTypeVirtual selects the in-memory board.
	BridgeTypeVirtual = "virtual"
	// BridgeTypeAuto selects the board from the running kernel.
	BridgeTypeAuto = "auto"
)

// bridgeTypeFromRelease derives the bridge type from a kernel release string.
func bridgeTypeFromRelease(release string) string {
	release = strings.ToLower(strings.TrimRight(release, "\x00 \n"))
	if strings.Contains(release, "sunxi") {
		return BridgeTypeSunxi
	}
	return BridgeTypeVirtual
}
