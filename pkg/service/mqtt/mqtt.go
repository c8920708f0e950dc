// Copyright 2024 Ewout Prangsma
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

// Package mqtt connects the PWM service to an MQTT broker.
// Commands are received on <prefix>/pwm<N>/command, channel
// states are published on <prefix>/pwm<N>/state.
package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	mqttapi "github.com/eclipse/paho.mqtt.golang"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/SunxiPWM/model"
	"github.com/binkynet/SunxiPWM/pkg/service/util"
	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

const (
	// DefaultTopicPrefix is used when no topic prefix is configured.
	DefaultTopicPrefix = "sunxipwm"

	mqttPublishTimeout = time.Millisecond * 200
	mqttCommandTimeout = time.Second * 5
)

type Config struct {
	// Address of the broker (host:port)
	BrokerAddress string
	TopicPrefix   string
	ClientID      string
}

// Controller is the part of the PWM service used by the bridge.
type Controller interface {
	Apply(ctx context.Context, c model.ChannelConfig) error
	Enable(ctx context.Context, ch sunxipwm.Channel) error
	Disable(ctx context.Context, ch sunxipwm.Channel) error
	States(ctx context.Context) ([]sunxipwm.ChannelState, error)
	Subscribe(cb func(sunxipwm.ChannelState)) context.CancelFunc
}

// Bridge between the PWM service and an MQTT broker.
type Bridge struct {
	log         zerolog.Logger
	config      Config
	topicPrefix string
	controller  Controller

	mutex  sync.Mutex
	client mqttapi.Client
}

// New creates a bridge for given configuration.
func New(conf Config, log zerolog.Logger, controller Controller) *Bridge {
	prefix := strings.TrimSuffix(conf.TopicPrefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	if conf.ClientID == "" {
		conf.ClientID = prefix
	}
	return &Bridge{
		log:         log.With().Str("component", "mqtt").Logger(),
		config:      conf,
		topicPrefix: prefix,
		controller:  controller,
	}
}

// TopicPrefix returns the prefix of all topics of the bridge.
func (b *Bridge) TopicPrefix() string {
	return b.topicPrefix
}

// Run the bridge until the given context is canceled.
// Lost connections are re-established.
func (b *Bridge) Run(ctx context.Context) error {
	if b.config.BrokerAddress == "" {
		b.log.Info().Msg("No MQTT broker configured")
		return nil
	}
	return util.UntilCanceled(ctx, b.log, "MQTT session", func() error {
		return b.runSession(ctx)
	})
}

// runSession connects to the broker and serves until the connection
// is lost or the context is canceled.
func (b *Bridge) runSession(ctx context.Context) error {
	sessionsTotal.Inc()
	lost := make(chan error, 1)

	// Prepare MQTT client options
	opts := mqttapi.NewClientOptions().
		AddBroker("tcp://" + b.config.BrokerAddress).
		SetClientID(b.config.ClientID)
	opts.SetKeepAlive(2 * time.Second)
	opts.SetPingTimeout(1 * time.Second)
	opts.SetOrderMatters(false)
	opts.SetAutoReconnect(false)
	opts.SetDefaultPublishHandler(func(c mqttapi.Client, m mqttapi.Message) {
		// Ignore messages when no subscription match
	})
	opts.SetConnectionLostHandler(func(c mqttapi.Client, err error) {
		select {
		case lost <- err:
		default:
		}
	})

	// Connect client
	client := mqttapi.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return errors.Wrap(token.Error(), "failed to connect to mqtt")
	}
	defer client.Disconnect(250)

	commandTopic := b.topicPrefix + "/+" + commandSuffix
	if token := client.Subscribe(commandTopic, 0, func(_ mqttapi.Client, msg mqttapi.Message) {
		b.onMessage(ctx, msg.Topic(), msg.Payload())
	}); token.Wait() && token.Error() != nil {
		return errors.Wrapf(token.Error(), "failed to subscribe to '%s'", commandTopic)
	}

	b.mutex.Lock()
	b.client = client
	b.mutex.Unlock()
	defer func() {
		b.mutex.Lock()
		b.client = nil
		b.mutex.Unlock()
	}()

	// Publish state changes
	unsubscribe := b.controller.Subscribe(b.publishState)
	defer unsubscribe()
	if states, err := b.controller.States(ctx); err == nil {
		for _, s := range states {
			b.publishState(s)
		}
	}
	b.log.Info().
		Str("broker", b.config.BrokerAddress).
		Str("topic", commandTopic).
		Msg("Connected to MQTT broker")

	select {
	case err := <-lost:
		return errors.Wrap(err, "connection lost")
	case <-ctx.Done():
		return nil
	}
}

// onMessage handles a message received on a command topic.
func (b *Bridge) onMessage(ctx context.Context, topic string, payload []byte) {
	log := b.log.With().Str("topic", topic).Logger()
	if err := b.handleCommand(ctx, topic, payload); err != nil {
		commandErrorsTotal.Inc()
		log.Warn().Err(err).Str("payload", string(payload)).Msg("Command failed")
	}
}

// handleCommand decodes and executes a single command.
func (b *Bridge) handleCommand(ctx context.Context, topic string, payload []byte) error {
	cmd, err := parseCommand(b.topicPrefix, topic, payload)
	if err != nil {
		return err
	}
	commandsTotal.WithLabelValues(string(cmd.Action)).Inc()
	ctx, cancel := context.WithTimeout(ctx, mqttCommandTimeout)
	defer cancel()
	switch cmd.Action {
	case actionEnable:
		return b.controller.Enable(ctx, cmd.Channel)
	case actionDisable:
		return b.controller.Disable(ctx, cmd.Channel)
	default:
		return b.controller.Apply(ctx, cmd.Config)
	}
}

// publishState publishes the given channel state.
func (b *Bridge) publishState(state sunxipwm.ChannelState) {
	payload, err := json.Marshal(state)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to encode channel state")
		return
	}
	topic := channelTopic(b.topicPrefix, state.Channel, stateSuffix)
	if err := b.Publish(topic, payload, true); err != nil && !IsNotConnected(err) {
		b.log.Error().Err(err).Str("topic", topic).Msg("Failed to publish channel state")
	}
}

// Publish a message on given topic.
// Returns NotConnectedError when there is no broker connection.
func (b *Bridge) Publish(topic string, payload []byte, retained bool) error {
	b.mutex.Lock()
	client := b.client
	b.mutex.Unlock()

	if client == nil {
		return maskAny(NotConnectedError)
	}
	publishTotal.Inc()
	token := client.Publish(topic, 0, retained, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("failed to deliver MQTT message to '%s' in time", topic)
	}
	return maskAny(token.Error())
}
