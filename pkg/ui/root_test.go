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

package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

type fakeController struct {
	states []sunxipwm.ChannelState
	calls  []string
	err    error
}

func (c *fakeController) States(ctx context.Context) ([]sunxipwm.ChannelState, error) {
	return c.states, nil
}

func (c *fakeController) Enable(ctx context.Context, ch sunxipwm.Channel) error {
	c.calls = append(c.calls, "enable "+ch.String())
	return c.err
}

func (c *fakeController) Disable(ctx context.Context, ch sunxipwm.Channel) error {
	c.calls = append(c.calls, "disable "+ch.String())
	return c.err
}

func (c *fakeController) SetPolarity(ctx context.Context, ch sunxipwm.Channel, pol sunxipwm.Polarity) error {
	c.calls = append(c.calls, "polarity "+ch.String()+" "+pol.String())
	return c.err
}

type fakeLogs []string

func (l fakeLogs) Lines() []string { return l }

func testStates() []sunxipwm.ChannelState {
	return []sunxipwm.ChannelState{
		{
			Channel: sunxipwm.Channel0, Enabled: true, ClockGating: true,
			Divisor: 120, PeriodTicks: 4000, DutyTicks: 300,
			PeriodNs: 20000000, DutyNs: 1500000,
		},
		{
			Channel: sunxipwm.Channel1, Polarity: sunxipwm.PolarityInverted,
			Divisor: 120,
		},
	}
}

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

// loaded returns a root model that received the test states.
func loaded(t *testing.T, ctrl *fakeController) Root {
	t.Helper()
	ctrl.states = testStates()
	m, _ := NewRoot(ctrl, fakeLogs{"line 1", "line 2"}, "xterm").Update(statesMsg{states: ctrl.states})
	return m.(Root)
}

func TestViewRendersChannels(t *testing.T) {
	r := loaded(t, &fakeController{})
	view := r.View()
	for _, expected := range []string{"pwm0", "pwm1", "running", "stopped", "inverted", "50 Hz", "7.5%", "300/4000", "line 2"} {
		if !strings.Contains(view, expected) {
			t.Errorf("Expected view to contain %q:\n%s", expected, view)
		}
	}
}

func TestViewRendersError(t *testing.T) {
	r := loaded(t, &fakeController{})
	m, _ := r.Update(statesMsg{err: fmt.Errorf("not initialized")})
	if !strings.Contains(m.View(), "not initialized") {
		t.Error("Expected error in view")
	}
}

func TestKeysActOnSelectedChannel(t *testing.T) {
	ctrl := &fakeController{}
	r := loaded(t, ctrl)

	_, cmd := r.Update(keyMsg("e"))
	if cmd == nil {
		t.Fatal("Expected command")
	}
	if msg, ok := cmd().(statesMsg); !ok || msg.err != nil {
		t.Errorf("Unexpected message %#v", msg)
	}

	// Select channel 1
	m, _ := r.Update(tea.KeyMsg{Type: tea.KeyDown})
	r = m.(Root)
	_, cmd = r.Update(keyMsg("i"))
	cmd()
	_, cmd = r.Update(keyMsg("d"))
	cmd()

	expected := []string{"enable pwm0", "polarity pwm1 normal", "disable pwm1"}
	if strings.Join(ctrl.calls, ",") != strings.Join(expected, ",") {
		t.Errorf("Expected calls %v, got %v", expected, ctrl.calls)
	}
}

func TestKeyErrorIsReported(t *testing.T) {
	ctrl := &fakeController{err: fmt.Errorf("boom")}
	r := loaded(t, ctrl)
	_, cmd := r.Update(keyMsg("e"))
	msg, ok := cmd().(statesMsg)
	if !ok || msg.err == nil {
		t.Errorf("Expected error message, got %#v", msg)
	}
}

func TestKeysWithoutStates(t *testing.T) {
	r := NewRoot(&fakeController{}, nil, "")
	if _, cmd := r.Update(keyMsg("e")); cmd != nil {
		t.Error("Expected no command without channels")
	}
}

func TestQuit(t *testing.T) {
	r := loaded(t, &fakeController{})
	_, cmd := r.Update(keyMsg("q"))
	if cmd == nil {
		t.Fatal("Expected command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected QuitMsg")
	}
}
