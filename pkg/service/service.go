//    Copyright 2017-2022 Ewout Prangsma
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
	"context"
	"sync"
	"time"

	aerr "github.com/ewoutp/go-aggregate-error"
	"github.com/mattn/go-pubsub"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/binkynet/SunxiPWM/model"
	"github.com/binkynet/SunxiPWM/pkg/service/bridge"
	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

type Config struct {
	// Channel configurations applied after initialization
	Channels []model.ChannelConfig
	// If set, all channels are disabled when Run returns
	DisableOnExit bool
}

type Dependencies struct {
	Logger zerolog.Logger
	Bridge bridge.API
}

// Service owns the PWM driver and serializes all access to it.
type Service struct {
	Config
	Dependencies

	// Guards all driver calls
	sem       *semaphore.Weighted
	driver    *sunxipwm.Driver
	states    *pubsub.PubSub
	ready     chan struct{}
	readyOnce sync.Once

	subMutex    sync.Mutex
	seq         uint64
	lastSubID   uint64
	subscribers map[uint64]*subscriber
}

// NewService creates a Service instance and returns it.
func NewService(conf Config, deps Dependencies) (*Service, error) {
	if deps.Bridge == nil {
		return nil, errors.Wrap(InvalidArgumentError, "Bridge is nil")
	}
	for _, c := range conf.Channels {
		if err := c.Validate(); err != nil {
			return nil, errors.Wrapf(err, "Channel config %s", c)
		}
	}
	deps.Logger = deps.Logger.With().Str("component", "service").Logger()
	s := &Service{
		Config:       conf,
		Dependencies: deps,
		sem:          semaphore.NewWeighted(1),
		driver:       sunxipwm.New(deps.Bridge.Mapper(), deps.Logger),
		states:       pubsub.New(),
		ready:        make(chan struct{}),
		subscribers:  make(map[uint64]*subscriber),
	}
	s.states.Sub(s.dispatch)
	return s, nil
}

// Ready is closed once the driver is initialized and the
// configured channels are applied.
func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Run initializes the PWM controller, applies the configured channels
// and then waits until the given context is canceled.
func (s *Service) Run(ctx context.Context) error {
	log := s.Logger
	defer s.Bridge.Close()

	s.Bridge.BlinkGreenLED(time.Millisecond * 250)
	s.Bridge.SetRedLED(false)

	if err := s.initialize(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to initialize PWM controller")
		s.Bridge.SetGreenLED(false)
		s.Bridge.BlinkRedLED(time.Millisecond * 250)
		return err
	}
	for _, c := range s.Channels {
		if err := s.Apply(ctx, c); err != nil {
			log.Error().Err(err).Str("config", c.String()).Msg("Failed to apply channel config")
			s.Bridge.BlinkRedLED(time.Millisecond * 250)
			s.shutdown()
			return err
		}
	}
	s.Bridge.SetGreenLED(true)
	s.readyOnce.Do(func() { close(s.ready) })
	log.Info().Int("channels", len(s.Channels)).Msg("PWM controller ready")

	<-ctx.Done()
	log.Info().Msg("Shutting down PWM controller")
	if err := s.shutdown(); err != nil {
		log.Warn().Err(err).Msg("Shutdown failed")
		return err
	}
	return nil
}

// initialize maps the PWM registers.
func (s *Service) initialize(ctx context.Context) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return maskAny(err)
	}
	defer s.sem.Release(1)
	if err := s.driver.Initialize(); err != nil {
		return maskAny(err)
	}
	return nil
}

// shutdown optionally disables all channels and releases the driver.
func (s *Service) shutdown() error {
	s.sem.Acquire(context.Background(), 1)
	defer s.sem.Release(1)

	var ae aerr.AggregateError
	if s.DisableOnExit && s.driver.Initialized() {
		for _, ch := range sunxipwm.Channels() {
			ae.Add(s.driver.Disable(ch))
		}
	}
	ae.Add(s.driver.Close())
	return ae.AsError()
}

// SetPolarity sets the output polarity of the given channel.
func (s *Service) SetPolarity(ctx context.Context, ch sunxipwm.Channel, pol sunxipwm.Polarity) error {
	setPolarityTotal.WithLabelValues(channelLabel(ch)).Inc()
	return s.withDriver(ctx, ch, func(d *sunxipwm.Driver) error {
		return d.SetPolarity(ch, pol)
	})
}

// Configure sets the period and duty of the given channel.
func (s *Service) Configure(ctx context.Context, ch sunxipwm.Channel, periodNs, dutyNs uint64) error {
	configureTotal.WithLabelValues(channelLabel(ch)).Inc()
	return s.withDriver(ctx, ch, func(d *sunxipwm.Driver) error {
		return d.Configure(ch, periodNs, dutyNs)
	})
}

// Enable starts the given channel.
func (s *Service) Enable(ctx context.Context, ch sunxipwm.Channel) error {
	enableTotal.WithLabelValues(channelLabel(ch)).Inc()
	return s.withDriver(ctx, ch, func(d *sunxipwm.Driver) error {
		return d.Enable(ch)
	})
}

// Disable stops the given channel.
func (s *Service) Disable(ctx context.Context, ch sunxipwm.Channel) error {
	disableTotal.WithLabelValues(channelLabel(ch)).Inc()
	return s.withDriver(ctx, ch, func(d *sunxipwm.Driver) error {
		return d.Disable(ch)
	})
}

// Apply a complete channel configuration: polarity, period & duty, then
// enable or disable. All steps are performed under a single lock.
func (s *Service) Apply(ctx context.Context, c model.ChannelConfig) error {
	applyTotal.WithLabelValues(channelLabel(c.Channel)).Inc()
	if err := c.Validate(); err != nil {
		return maskAny(err)
	}
	// Reject unrepresentable periods before the polarity is written
	if _, err := sunxipwm.ComputeSetting(c.PeriodNs, c.DutyNs); err != nil {
		return maskAny(err)
	}
	return s.withDriver(ctx, c.Channel, func(d *sunxipwm.Driver) error {
		if err := d.SetPolarity(c.Channel, c.Polarity); err != nil {
			return err
		}
		if err := d.Configure(c.Channel, c.PeriodNs, c.DutyNs); err != nil {
			return err
		}
		if c.Enabled {
			return d.Enable(c.Channel)
		}
		return d.Disable(c.Channel)
	})
}

// State returns the current state of the given channel.
func (s *Service) State(ctx context.Context, ch sunxipwm.Channel) (sunxipwm.ChannelState, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return sunxipwm.ChannelState{}, maskAny(err)
	}
	defer s.sem.Release(1)
	state, err := s.driver.State(ch)
	if err != nil {
		return sunxipwm.ChannelState{}, maskAny(err)
	}
	return state, nil
}

// States returns the current state of all channels.
func (s *Service) States(ctx context.Context) ([]sunxipwm.ChannelState, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, maskAny(err)
	}
	defer s.sem.Release(1)
	result := make([]sunxipwm.ChannelState, 0, sunxipwm.ChannelCount)
	for _, ch := range sunxipwm.Channels() {
		state, err := s.driver.State(ch)
		if err != nil {
			return nil, maskAny(err)
		}
		result = append(result, state)
	}
	return result, nil
}

// Subscribe registers a callback that is invoked (asynchronously)
// with the new state of a channel after every change.
// Changes are delivered to a callback one at a time, in the order
// in which they happened.
// Call the returned function to unsubscribe.
func (s *Service) Subscribe(cb func(sunxipwm.ChannelState)) context.CancelFunc {
	s.subMutex.Lock()
	defer s.subMutex.Unlock()

	s.lastSubID++
	id := s.lastSubID
	sub := &subscriber{
		cb:      cb,
		next:    s.seq + 1,
		pending: make(map[uint64]sunxipwm.ChannelState),
	}
	s.subscribers[id] = sub
	return func() {
		s.subMutex.Lock()
		delete(s.subscribers, id)
		s.subMutex.Unlock()
		sub.close()
	}
}

// dispatch hands a published state to all current subscribers.
// pubsub calls it from a new goroutine for every event.
func (s *Service) dispatch(ev stateEvent) {
	s.subMutex.Lock()
	subs := make([]*subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.subMutex.Unlock()

	for _, sub := range subs {
		sub.deliver(ev)
	}
}

// withDriver calls the given function with the lock held and publishes
// the resulting state of the channel.
func (s *Service) withDriver(ctx context.Context, ch sunxipwm.Channel, f func(*sunxipwm.Driver) error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return maskAny(err)
	}
	defer s.sem.Release(1)

	if err := f(s.driver); err != nil {
		return maskAny(err)
	}
	state, err := s.driver.State(ch)
	if err != nil {
		return maskAny(err)
	}
	s.publish(state)
	return nil
}

// publish the given state to all subscribers.
func (s *Service) publish(state sunxipwm.ChannelState) {
	stateChangesTotal.WithLabelValues(state.Channel.String()).Inc()
	s.Logger.Info().
		Str("channel", state.Channel.String()).
		Bool("running", state.Running()).
		Str("polarity", state.Polarity.String()).
		Str("frequency", formatFrequency(state.FrequencyHz())).
		Str("duty", formatDutyCycle(state.DutyCycle())).
		Msg("PWM channel changed")
	s.subMutex.Lock()
	s.seq++
	seq := s.seq
	s.subMutex.Unlock()
	s.states.Pub(stateEvent{seq: seq, state: state})
}

// channelLabel returns the metrics label of given channel.
// All invalid channels share one label.
func channelLabel(ch sunxipwm.Channel) string {
	if !ch.Valid() {
		return "invalid"
	}
	return ch.String()
}
