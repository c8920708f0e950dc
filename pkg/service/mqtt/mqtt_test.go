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

package mqtt

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/binkynet/SunxiPWM/model"
	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

type fakeController struct {
	applied  []model.ChannelConfig
	enabled  []sunxipwm.Channel
	disabled []sunxipwm.Channel
}

func (c *fakeController) Apply(ctx context.Context, cfg model.ChannelConfig) error {
	c.applied = append(c.applied, cfg)
	return nil
}

func (c *fakeController) Enable(ctx context.Context, ch sunxipwm.Channel) error {
	c.enabled = append(c.enabled, ch)
	return nil
}

func (c *fakeController) Disable(ctx context.Context, ch sunxipwm.Channel) error {
	c.disabled = append(c.disabled, ch)
	return nil
}

func (c *fakeController) States(ctx context.Context) ([]sunxipwm.ChannelState, error) {
	return nil, nil
}

func (c *fakeController) Subscribe(cb func(sunxipwm.ChannelState)) context.CancelFunc {
	return func() {}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		Topic    string
		Payload  string
		Channel  sunxipwm.Channel
		Action   action
		PeriodNs uint64
		DutyNs   uint64
		Polarity sunxipwm.Polarity
		Enabled  bool
	}{
		{"pwm/pwm0/command", "enable", 0, actionEnable, 0, 0, 0, false},
		{"pwm/pwm1/command", " OFF\n", 1, actionDisable, 0, 0, 0, false},
		{"pwm/pwm1/command", `{"period_ns":20000000,"duty_ns":1500000,"polarity":"inverted"}`,
			1, actionApply, 20000000, 1500000, sunxipwm.PolarityInverted, true},
		{"pwm/pwm0/command", `{"period_ns":1000000,"enabled":false}`,
			0, actionApply, 1000000, 0, sunxipwm.PolarityNormal, false},
		{"pwm/pwm0/command", "freq=50Hz,duty=7.5%",
			0, actionApply, 20000000, 1500000, sunxipwm.PolarityNormal, true},
	}
	for _, test := range tests {
		cmd, err := parseCommand("pwm", test.Topic, []byte(test.Payload))
		if err != nil {
			t.Errorf("%s %q: unexpected error %v", test.Topic, test.Payload, err)
			continue
		}
		if cmd.Channel != test.Channel || cmd.Action != test.Action {
			t.Errorf("%s %q: got %s/%s", test.Topic, test.Payload, cmd.Channel, cmd.Action)
		}
		if cmd.Action != actionApply {
			continue
		}
		c := cmd.Config
		if c.Channel != test.Channel || c.PeriodNs != test.PeriodNs || c.DutyNs != test.DutyNs ||
			c.Polarity != test.Polarity || c.Enabled != test.Enabled {
			t.Errorf("%s %q: unexpected config %s", test.Topic, test.Payload, c)
		}
	}
}

func TestParseCommandErrors(t *testing.T) {
	tests := []struct {
		Topic   string
		Payload string
	}{
		{"other/pwm0/command", "enable"},
		{"pwm/pwm0/state", "enable"},
		{"pwm/pwm2/command", "enable"},
		{"pwm/led0/command", "enable"},
		{"pwm/pwm0/command", ""},
		{"pwm/pwm0/command", "{broken"},
		{"pwm/pwm0/command", `{"period_ns":0}`},
		{"pwm/pwm0/command", "ch=1,period=20ms"},
		{"pwm/pwm0/command", "bogus"},
	}
	for _, test := range tests {
		if _, err := parseCommand("pwm", test.Topic, []byte(test.Payload)); !model.IsValidation(err) {
			t.Errorf("%s %q: expected ValidationError, got %v", test.Topic, test.Payload, err)
		}
	}
}

func TestChannelTopic(t *testing.T) {
	if got := channelTopic("pwm", sunxipwm.Channel1, stateSuffix); got != "pwm/pwm1/state" {
		t.Errorf("Unexpected topic %s", got)
	}
	ch, err := parseCommandTopic("a/b", channelTopic("a/b", sunxipwm.Channel1, commandSuffix))
	if err != nil || ch != sunxipwm.Channel1 {
		t.Errorf("Expected pwm1, got %s (%v)", ch, err)
	}
}

func TestHandleCommand(t *testing.T) {
	ctrl := &fakeController{}
	b := New(Config{TopicPrefix: "home/pwm/"}, zerolog.Nop(), ctrl)
	if b.TopicPrefix() != "home/pwm" {
		t.Errorf("Unexpected prefix %s", b.TopicPrefix())
	}
	ctx := context.Background()
	if err := b.handleCommand(ctx, "home/pwm/pwm0/command", []byte("enable")); err != nil {
		t.Fatalf("handleCommand failed: %v", err)
	}
	if err := b.handleCommand(ctx, "home/pwm/pwm1/command", []byte("disable")); err != nil {
		t.Fatalf("handleCommand failed: %v", err)
	}
	if err := b.handleCommand(ctx, "home/pwm/pwm1/command", []byte("period=1ms,duty=50%")); err != nil {
		t.Fatalf("handleCommand failed: %v", err)
	}
	if len(ctrl.enabled) != 1 || ctrl.enabled[0] != 0 {
		t.Errorf("Unexpected enables %v", ctrl.enabled)
	}
	if len(ctrl.disabled) != 1 || ctrl.disabled[0] != 1 {
		t.Errorf("Unexpected disables %v", ctrl.disabled)
	}
	if len(ctrl.applied) != 1 || ctrl.applied[0].DutyNs != 500000 {
		t.Errorf("Unexpected applies %v", ctrl.applied)
	}
}

func TestPublishWithoutConnection(t *testing.T) {
	b := New(Config{}, zerolog.Nop(), &fakeController{})
	if err := b.Publish("x", []byte("y"), false); !IsNotConnected(err) {
		t.Errorf("Expected NotConnected, got %v", err)
	}
	if b.TopicPrefix() != DefaultTopicPrefix {
		t.Errorf("Unexpected prefix %s", b.TopicPrefix())
	}
}

func TestRunWithoutBroker(t *testing.T) {
	b := New(Config{}, zerolog.Nop(), &fakeController{})
	if err := b.Run(context.Background()); err != nil {
		t.Errorf("Expected nil, got %v", err)
	}
}
