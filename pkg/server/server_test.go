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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/binkynet/SunxiPWM/model"
	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

type fakeService struct {
	err     error
	applied []model.ChannelConfig
	enabled []sunxipwm.Channel
}

func (s *fakeService) State(ctx context.Context, ch sunxipwm.Channel) (sunxipwm.ChannelState, error) {
	if s.err != nil {
		return sunxipwm.ChannelState{}, s.err
	}
	return sunxipwm.ChannelState{Channel: ch, Enabled: true, PeriodTicks: 4000}, nil
}

func (s *fakeService) States(ctx context.Context) ([]sunxipwm.ChannelState, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []sunxipwm.ChannelState{{Channel: 0}, {Channel: 1}}, nil
}

func (s *fakeService) Apply(ctx context.Context, c model.ChannelConfig) error {
	if s.err != nil {
		return s.err
	}
	s.applied = append(s.applied, c)
	return nil
}

func (s *fakeService) Enable(ctx context.Context, ch sunxipwm.Channel) error {
	if s.err != nil {
		return s.err
	}
	s.enabled = append(s.enabled, ch)
	return nil
}

func (s *fakeService) Disable(ctx context.Context, ch sunxipwm.Channel) error {
	return s.err
}

func newTestServer(t *testing.T, svc Service) http.Handler {
	t.Helper()
	s, err := New(Config{}, zerolog.Nop(), nil, svc)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s.newRouter()
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := do(newTestServer(t, &fakeService{}), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "OK" {
		t.Errorf("Unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestGetStates(t *testing.T) {
	rec := do(newTestServer(t, &fakeService{}), http.MethodGet, "/v1/pwm", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var states []sunxipwm.ChannelState
	if err := json.Unmarshal(rec.Body.Bytes(), &states); err != nil {
		t.Fatalf("Invalid body: %v", err)
	}
	if len(states) != 2 || states[1].Channel != sunxipwm.Channel1 {
		t.Errorf("Unexpected states %+v", states)
	}
}

func TestGetState(t *testing.T) {
	h := newTestServer(t, &fakeService{})
	for _, path := range []string{"/v1/pwm/1", "/v1/pwm/pwm1"} {
		rec := do(h, http.MethodGet, path, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d", path, rec.Code)
		}
		var state sunxipwm.ChannelState
		if err := json.Unmarshal(rec.Body.Bytes(), &state); err != nil {
			t.Fatalf("Invalid body: %v", err)
		}
		if state.Channel != sunxipwm.Channel1 || state.PeriodTicks != 4000 {
			t.Errorf("%s: unexpected state %+v", path, state)
		}
	}
	for _, path := range []string{"/v1/pwm/2", "/v1/pwm/x"} {
		if rec := do(h, http.MethodGet, path, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", path, rec.Code)
		}
	}
}

func TestApply(t *testing.T) {
	svc := &fakeService{}
	h := newTestServer(t, svc)
	rec := do(h, http.MethodPut, "/v1/pwm/0", `{"period_ns":20000000,"duty_ns":1500000,"polarity":"inverted"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(svc.applied) != 1 {
		t.Fatalf("Expected 1 apply, got %d", len(svc.applied))
	}
	c := svc.applied[0]
	if c.Channel != 0 || c.PeriodNs != 20000000 || c.DutyNs != 1500000 ||
		c.Polarity != sunxipwm.PolarityInverted || !c.Enabled {
		t.Errorf("Unexpected config %s", c)
	}
	if rec := do(h, http.MethodPut, "/v1/pwm/0", `{"polarity":"sideways"}`); rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestEnable(t *testing.T) {
	svc := &fakeService{}
	rec := do(newTestServer(t, svc), http.MethodPost, "/v1/pwm/1/enable", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if len(svc.enabled) != 1 || svc.enabled[0] != sunxipwm.Channel1 {
		t.Errorf("Unexpected enables %v", svc.enabled)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	tests := []struct {
		Err  error
		Code int
	}{
		{errors.WithStack(sunxipwm.NotInitializedError), http.StatusServiceUnavailable},
		{errors.Wrap(sunxipwm.PeriodUnrepresentableError, "period 1ns"), http.StatusUnprocessableEntity},
		{sunxipwm.InvalidArgument("bad"), http.StatusBadRequest},
		{errors.Wrap(model.ValidationError, "bad"), http.StatusBadRequest},
		{errors.New("device gone"), http.StatusInternalServerError},
	}
	for _, test := range tests {
		h := newTestServer(t, &fakeService{err: test.Err})
		rec := do(h, http.MethodPost, "/v1/pwm/0/disable", "")
		if rec.Code != test.Code {
			t.Errorf("%v: expected %d, got %d", test.Err, test.Code, rec.Code)
		}
		var resp errorResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Error == "" {
			t.Errorf("%v: expected error body, got %q", test.Err, rec.Body.String())
		}
	}
}
