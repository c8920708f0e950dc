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

package environment

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestBridgeTypeFromRelease(t *testing.T) {
	tests := []struct {
		Release  string
		Expected string
	}{
		{"3.4.113-sunxi", BridgeTypeSunxi},
		{"5.15.93-SUNXI\x00\x00", BridgeTypeSunxi},
		{"6.1.21-v8+", BridgeTypeVirtual},
		{"", BridgeTypeVirtual},
	}
	for _, test := range tests {
		if got := bridgeTypeFromRelease(test.Release); got != test.Expected {
			t.Errorf("Release %q: expected %s, got %s", test.Release, test.Expected, got)
		}
	}
}

func TestAutoDetectBridgeType(t *testing.T) {
	got := AutoDetectBridgeType(zerolog.Nop())
	if got != BridgeTypeSunxi && got != BridgeTypeVirtual {
		t.Errorf("Unexpected bridge type %q", got)
	}
}
