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
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/binkynet/SunxiPWM/model"
	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

type action string

const (
	actionApply   action = "apply"
	actionEnable  action = "enable"
	actionDisable action = "disable"

	commandSuffix = "/command"
	stateSuffix   = "/state"
)

// command is a decoded command message.
type command struct {
	Channel sunxipwm.Channel
	Action  action
	// Only set for actionApply
	Config model.ChannelConfig
}

// channelTopic returns the topic of given channel and kind.
func channelTopic(prefix string, ch sunxipwm.Channel, suffix string) string {
	return fmt.Sprintf("%s/%s%s", prefix, ch, suffix)
}

// parseCommandTopic extracts the channel from a command topic.
func parseCommandTopic(prefix, topic string) (sunxipwm.Channel, error) {
	name := strings.TrimPrefix(topic, prefix+"/")
	if name == topic || !strings.HasSuffix(name, commandSuffix) {
		return 0, errors.Wrapf(model.ValidationError, "unexpected topic '%s'", topic)
	}
	name = strings.TrimSuffix(name, commandSuffix)
	if !strings.HasPrefix(name, "pwm") {
		return 0, errors.Wrapf(model.ValidationError, "unexpected topic '%s'", topic)
	}
	index, err := strconv.ParseUint(strings.TrimPrefix(name, "pwm"), 10, 8)
	if err != nil || !sunxipwm.Channel(index).Valid() {
		return 0, errors.Wrapf(model.ValidationError, "invalid channel in topic '%s'", topic)
	}
	return sunxipwm.Channel(index), nil
}

// parseCommand decodes a message received on a command topic.
// The payload is one of:
//
//	enable | disable
//	{"period_ns":20000000,"duty_ns":1500000,"polarity":"normal","enabled":true}
//	period=20ms,duty=1.5ms
func parseCommand(prefix, topic string, payload []byte) (command, error) {
	ch, err := parseCommandTopic(prefix, topic)
	if err != nil {
		return command{}, err
	}
	payload = bytes.TrimSpace(payload)
	switch strings.ToLower(string(payload)) {
	case string(actionEnable), "on":
		return command{Channel: ch, Action: actionEnable}, nil
	case string(actionDisable), "off":
		return command{Channel: ch, Action: actionDisable}, nil
	case "":
		return command{}, errors.Wrapf(model.ValidationError, "empty command for %s", ch)
	}

	var cfg model.ChannelConfig
	if payload[0] == '{' {
		cfg = model.ChannelConfig{Enabled: true}
		if err := json.Unmarshal(payload, &cfg); err != nil {
			return command{}, errors.Wrapf(model.ValidationError, "invalid JSON command: %s", err)
		}
		cfg.Channel = ch
		if err := cfg.Validate(); err != nil {
			return command{}, maskAny(err)
		}
	} else {
		cfg, err = model.ParseChannelConfig(fmt.Sprintf("ch=%d,%s", uint8(ch), payload))
		if err != nil {
			return command{}, maskAny(err)
		}
		if cfg.Channel != ch {
			return command{}, errors.Wrapf(model.ValidationError, "channel mismatch in command for %s", ch)
		}
	}
	return command{Channel: ch, Action: actionApply, Config: cfg}, nil
}
