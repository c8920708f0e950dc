package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

// ChannelConfig holds the desired configuration of a single PWM channel.
type ChannelConfig struct {
	// Channel index (0, 1)
	Channel sunxipwm.Channel `json:"channel"`
	// Period in nanoseconds
	PeriodNs uint64 `json:"period_ns"`
	// Duty in nanoseconds. Values above PeriodNs result in a 100% duty cycle.
	DutyNs uint64 `json:"duty_ns"`
	// Output polarity
	Polarity sunxipwm.Polarity `json:"polarity"`
	// If set, the channel is enabled after configuring it.
	Enabled bool `json:"enabled"`
}

// Period returns the period as duration.
func (c ChannelConfig) Period() time.Duration {
	return time.Duration(c.PeriodNs)
}

// Duty returns the duty as duration.
func (c ChannelConfig) Duty() time.Duration {
	return time.Duration(c.DutyNs)
}

// Validate the given configuration, returning nil on ok,
// or an error upon validation issues.
func (c ChannelConfig) Validate() error {
	if !c.Channel.Valid() {
		return errors.Wrapf(ValidationError, "invalid channel %d", uint8(c.Channel))
	}
	if c.PeriodNs == 0 {
		return errors.Wrapf(ValidationError, "period of %s is zero", c.Channel)
	}
	if !c.Polarity.Valid() {
		return errors.Wrapf(ValidationError, "invalid polarity of %s", c.Channel)
	}
	return nil
}

// String formats the configuration in the format accepted by ParseChannelConfig.
func (c ChannelConfig) String() string {
	return fmt.Sprintf("ch=%d,period=%s,duty=%s,polarity=%s,enabled=%t",
		uint8(c.Channel), c.Period(), c.Duty(), c.Polarity, c.Enabled)
}

// ParseChannelConfig parses a comma separated list of key=value pairs.
//
// Keys:
//
//	ch, channel   channel index
//	period        period as duration ("20ms") or nanoseconds ("20000000")
//	freq          period as frequency ("50Hz", "1kHz"), alternative to period
//	duty          duty as duration, nanoseconds or percentage of period ("7.5%")
//	polarity      normal | inverted
//	enabled       true | false (default true)
func ParseChannelConfig(s string) (ChannelConfig, error) {
	result := ChannelConfig{Enabled: true}
	var dutyStr string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			return ChannelConfig{}, errors.Wrapf(ValidationError, "expected key=value, got '%s'", part)
		}
		key, value := strings.ToLower(strings.TrimSpace(kv[0])), strings.TrimSpace(kv[1])
		switch key {
		case "ch", "channel":
			ch, err := strconv.ParseUint(value, 10, 8)
			if err != nil {
				return ChannelConfig{}, errors.Wrapf(ValidationError, "invalid channel '%s'", value)
			}
			result.Channel = sunxipwm.Channel(ch)
		case "period":
			ns, err := parseNanoseconds(value)
			if err != nil {
				return ChannelConfig{}, err
			}
			result.PeriodNs = ns
		case "freq", "frequency":
			ns, err := parseFrequency(value)
			if err != nil {
				return ChannelConfig{}, err
			}
			result.PeriodNs = ns
		case "duty":
			dutyStr = value
		case "polarity":
			pol, err := sunxipwm.ParsePolarity(value)
			if err != nil {
				return ChannelConfig{}, errors.Wrapf(ValidationError, "invalid polarity '%s'", value)
			}
			result.Polarity = pol
		case "enabled":
			enabled, err := strconv.ParseBool(value)
			if err != nil {
				return ChannelConfig{}, errors.Wrapf(ValidationError, "invalid enabled '%s'", value)
			}
			result.Enabled = enabled
		default:
			return ChannelConfig{}, errors.Wrapf(ValidationError, "unknown key '%s'", key)
		}
	}
	if dutyStr != "" {
		if pct := strings.TrimSuffix(dutyStr, "%"); pct != dutyStr {
			f, err := strconv.ParseFloat(pct, 64)
			if err != nil || f < 0 {
				return ChannelConfig{}, errors.Wrapf(ValidationError, "invalid duty '%s'", dutyStr)
			}
			result.DutyNs = uint64(float64(result.PeriodNs) * f / 100)
		} else {
			ns, err := parseNanoseconds(dutyStr)
			if err != nil {
				return ChannelConfig{}, err
			}
			result.DutyNs = ns
		}
	}
	if err := result.Validate(); err != nil {
		return ChannelConfig{}, maskAny(err)
	}
	return result, nil
}

// parseNanoseconds parses a duration ("1.5ms") or a plain number of nanoseconds.
func parseNanoseconds(value string) (uint64, error) {
	if ns, err := strconv.ParseUint(value, 10, 64); err == nil {
		return ns, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		return 0, errors.Wrapf(ValidationError, "invalid duration '%s'", value)
	}
	return uint64(d), nil
}

// parseFrequency parses a frequency ("50Hz", "1.2kHz") into a period in nanoseconds.
func parseFrequency(value string) (uint64, error) {
	f, unit, err := humanize.ParseSI(value)
	if err != nil || f <= 0 || (unit != "" && !strings.EqualFold(unit, "hz")) {
		return 0, errors.Wrapf(ValidationError, "invalid frequency '%s'", value)
	}
	return uint64(float64(time.Second) / f), nil
}
