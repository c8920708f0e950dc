// Copyright 2023 Ewout Prangsma
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
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/binkynet/SunxiPWM/pkg/sunxipwm"
)

const (
	refreshInterval = time.Second
	actionTimeout   = time.Second * 5
	maxLogLines     = 8
)

// Controller is the part of the PWM service used by the UI.
type Controller interface {
	States(ctx context.Context) ([]sunxipwm.ChannelState, error)
	Enable(ctx context.Context, ch sunxipwm.Channel) error
	Disable(ctx context.Context, ch sunxipwm.Channel) error
	SetPolarity(ctx context.Context, ch sunxipwm.Channel, pol sunxipwm.Polarity) error
}

// LogSource provides recent log lines.
type LogSource interface {
	Lines() []string
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	logStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	baseStyle  = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))
)

type Root struct {
	ctrl   Controller
	logs   LogSource
	term   string
	width  int
	height int

	table  table.Model
	states []sunxipwm.ChannelState
	err    error
}

var _ tea.Model = Root{}

// NewRoot creates the root model for given controller.
// logs is optional.
func NewRoot(ctrl Controller, logs LogSource, term string) Root {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Channel", Width: 8},
			{Title: "State", Width: 8},
			{Title: "Polarity", Width: 9},
			{Title: "Frequency", Width: 11},
			{Title: "Duty", Width: 8},
			{Title: "Prescaler", Width: 10},
			{Title: "Ticks", Width: 13},
		}),
		table.WithFocused(true),
		table.WithHeight(int(sunxipwm.ChannelCount)+3),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return Root{
		ctrl:  ctrl,
		logs:  logs,
		term:  term,
		table: t,
	}
}

// Init is the first function that will be called. It returns an optional
// initial command. To not perform an initial command return nil.
func (r Root) Init() tea.Cmd {
	return tea.Batch(r.loadStates(), doTick())
}

// Update is called when a message is received. Use it to inspect messages
// and, in response, update the model and/or send a command.
func (r Root) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		return r, tea.Batch(r.loadStates(), doTick())
	case statesMsg:
		r.err = msg.err
		if msg.err == nil {
			r.states = msg.states
			r.table.SetRows(stateRows(msg.states))
		}
		return r, nil
	case tea.WindowSizeMsg:
		r.height = msg.Height
		r.width = msg.Width
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return r, tea.Quit
		case "e":
			return r, r.act(func(ctx context.Context, s sunxipwm.ChannelState) error {
				return r.ctrl.Enable(ctx, s.Channel)
			})
		case "d":
			return r, r.act(func(ctx context.Context, s sunxipwm.ChannelState) error {
				return r.ctrl.Disable(ctx, s.Channel)
			})
		case "i":
			return r, r.act(func(ctx context.Context, s sunxipwm.ChannelState) error {
				pol := sunxipwm.PolarityInverted
				if s.Polarity == sunxipwm.PolarityInverted {
					pol = sunxipwm.PolarityNormal
				}
				return r.ctrl.SetPolarity(ctx, s.Channel, pol)
			})
		}
	}

	// Handle navigation in the table
	var cmd tea.Cmd
	r.table, cmd = r.table.Update(msg)
	return r, cmd
}

// View renders the program's UI, which is just a string. The view is
// rendered after every Update.
func (r Root) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sunxi PWM controller"))
	b.WriteString("\n")
	b.WriteString(baseStyle.Render(r.table.View()))
	b.WriteString("\n")
	if r.err != nil {
		b.WriteString(errorStyle.Render(r.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString("e - Enable  d - Disable  i - Invert polarity  q - Disconnect\n")
	if r.logs != nil {
		lines := r.logs.Lines()
		if len(lines) > maxLogLines {
			lines = lines[len(lines)-maxLogLines:]
		}
		if len(lines) > 0 {
			b.WriteString("\n")
			b.WriteString(logStyle.Render(strings.Join(lines, "\n")))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// selected returns the state of the selected channel.
func (r Root) selected() (sunxipwm.ChannelState, bool) {
	i := r.table.Cursor()
	if i < 0 || i >= len(r.states) {
		return sunxipwm.ChannelState{}, false
	}
	return r.states[i], true
}

// act returns a command that runs the given action on the selected
// channel and then reloads all states.
func (r Root) act(action func(context.Context, sunxipwm.ChannelState) error) tea.Cmd {
	state, ok := r.selected()
	if !ok {
		return nil
	}
	ctrl := r.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		if err := action(ctx, state); err != nil {
			return statesMsg{err: err}
		}
		states, err := ctrl.States(ctx)
		return statesMsg{states: states, err: err}
	}
}

type statesMsg struct {
	states []sunxipwm.ChannelState
	err    error
}

type tickMsg time.Time

func (r Root) loadStates() tea.Cmd {
	ctrl := r.ctrl
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		defer cancel()
		states, err := ctrl.States(ctx)
		return statesMsg{states: states, err: err}
	}
}

func doTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// stateRows formats the given states as table rows.
func stateRows(states []sunxipwm.ChannelState) []table.Row {
	rows := make([]table.Row, 0, len(states))
	for _, s := range states {
		state := "stopped"
		if s.Running() {
			state = "running"
		}
		freq := "-"
		if hz := s.FrequencyHz(); hz > 0 {
			freq = humanize.SIWithDigits(hz, 2, "Hz")
		}
		rows = append(rows, table.Row{
			s.Channel.String(),
			state,
			s.Polarity.String(),
			freq,
			humanize.FtoaWithDigits(s.DutyCycle()*100, 1) + "%",
			fmt.Sprintf("%d (/%d)", s.Prescaler, s.Divisor),
			strconv.FormatUint(uint64(s.DutyTicks), 10) + "/" + strconv.FormatUint(uint64(s.PeriodTicks), 10),
		})
	}
	return rows
}
