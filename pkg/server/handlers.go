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

package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/binkynet/SunxiPWM/model"
	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

type errorResponse struct {
	Error string `json:"error"`
}

// GET /v1/pwm
func (s *Server) handleGetStates(c echo.Context) error {
	states, err := s.service.States(c.Request().Context())
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(http.StatusOK, states)
}

// GET /v1/pwm/:channel
func (s *Server) handleGetState(c echo.Context) error {
	ch, err := channelParam(c)
	if err != nil {
		return s.sendError(c, err)
	}
	state, err := s.service.State(c.Request().Context(), ch)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// PUT /v1/pwm/:channel
func (s *Server) handleApply(c echo.Context) error {
	ch, err := channelParam(c)
	if err != nil {
		return s.sendError(c, err)
	}
	cfg := model.ChannelConfig{Enabled: true}
	if err := c.Bind(&cfg); err != nil {
		return s.sendError(c, errors.Wrapf(model.ValidationError, "invalid body: %s", err))
	}
	cfg.Channel = ch
	if err := s.service.Apply(c.Request().Context(), cfg); err != nil {
		return s.sendError(c, err)
	}
	return s.sendState(c, ch)
}

// POST /v1/pwm/:channel/enable
func (s *Server) handleEnable(c echo.Context) error {
	ch, err := channelParam(c)
	if err != nil {
		return s.sendError(c, err)
	}
	if err := s.service.Enable(c.Request().Context(), ch); err != nil {
		return s.sendError(c, err)
	}
	return s.sendState(c, ch)
}

// POST /v1/pwm/:channel/disable
func (s *Server) handleDisable(c echo.Context) error {
	ch, err := channelParam(c)
	if err != nil {
		return s.sendError(c, err)
	}
	if err := s.service.Disable(c.Request().Context(), ch); err != nil {
		return s.sendError(c, err)
	}
	return s.sendState(c, ch)
}

// sendState responds with the current state of given channel.
func (s *Server) sendState(c echo.Context, ch sunxipwm.Channel) error {
	state, err := s.service.State(c.Request().Context(), ch)
	if err != nil {
		return s.sendError(c, err)
	}
	return c.JSON(http.StatusOK, state)
}

// sendError responds with the status code that matches the given error.
func (s *Server) sendError(c echo.Context, err error) error {
	code := statusCode(err)
	if code >= http.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Msg("Request failed")
	} else {
		s.log.Debug().Err(err).Str("path", c.Path()).Msg("Request rejected")
	}
	return c.JSON(code, errorResponse{Error: err.Error()})
}

// statusCode maps an error to an HTTP status code.
func statusCode(err error) int {
	switch {
	case sunxipwm.IsInvalidChannel(err), sunxipwm.IsInvalidArgument(err), model.IsValidation(err):
		return http.StatusBadRequest
	case sunxipwm.IsPeriodUnrepresentable(err):
		return http.StatusUnprocessableEntity
	case sunxipwm.IsNotInitialized(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// channelParam parses the :channel path parameter ("0", "1", "pwm0", "pwm1").
func channelParam(c echo.Context) (sunxipwm.Channel, error) {
	raw := c.Param("channel")
	value := raw
	if len(value) > 3 && value[:3] == "pwm" {
		value = value[3:]
	}
	index, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return 0, errors.Wrapf(sunxipwm.InvalidChannelError, "channel '%s'", raw)
	}
	ch := sunxipwm.Channel(index)
	if !ch.Valid() {
		return 0, errors.Wrapf(sunxipwm.InvalidChannelError, "channel '%s'", raw)
	}
	return ch, nil
}
