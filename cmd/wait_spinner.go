package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bnema/wallet-bridge/internal/bridge"
	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const pendingPollInterval = 500 * time.Millisecond

var pendingDetailStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

type roundTripDoneMsg struct {
	err error
}

type pendingPolledMsg struct {
	requests []bridge.PendingRequest
	at       time.Time
}

// pendingSource reports the requests the browser still owes an answer to.
type pendingSource func() []bridge.PendingRequest

// roundTripModel spins while the user answers in the browser and shows which
// request is outstanding and how long it has left.
type roundTripModel struct {
	spinner spinner.Model
	label   string
	wait    tea.Cmd
	poll    pendingSource
	now     func() time.Time

	pending []bridge.PendingRequest
	polled  time.Time
	err     error
	done    bool
}

func newRoundTripModel(label string, wait tea.Cmd, poll pendingSource) roundTripModel {
	s := spinner.New(
		spinner.WithSpinner(spinner.MiniDot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("39"))),
	)

	return roundTripModel{spinner: s, label: label, wait: wait, poll: poll, now: time.Now}
}

func (m roundTripModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.wait, m.pollPending())
}

func (m roundTripModel) pollPending() tea.Cmd {
	if m.poll == nil {
		return nil
	}
	poll := m.poll
	now := m.now
	return tea.Tick(pendingPollInterval, func(time.Time) tea.Msg {
		return pendingPolledMsg{requests: poll(), at: now()}
	})
}

func (m roundTripModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case pendingPolledMsg:
		if m.done {
			return m, nil
		}
		m.pending = msg.requests
		m.polled = msg.at
		return m, m.pollPending()
	case roundTripDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m roundTripModel) View() string {
	if m.done {
		return ""
	}

	line := fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	if detail := m.pendingDetail(); detail != "" {
		line += " " + pendingDetailStyle.Render(detail)
	}
	return line
}

func (m roundTripModel) pendingDetail() string {
	if len(m.pending) == 0 {
		return ""
	}

	oldest := m.pending[0]
	parts := []string{"request " + shortRequestID(oldest.ID)}
	if !oldest.Deadline.IsZero() && !m.polled.IsZero() {
		left := oldest.Deadline.Sub(m.polled).Round(time.Second)
		if left < 0 {
			left = 0
		}
		parts = append(parts, left.String()+" left")
	}
	if extra := len(m.pending) - 1; extra > 0 {
		parts = append(parts, fmt.Sprintf("+%d more", extra))
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func (a *app) pendingFor(ctx context.Context, browserID string) pendingSource {
	return func() []bridge.PendingRequest {
		requests, err := a.service.PendingRequests(ctx, domain.BrowserID(browserID))
		if err != nil {
			return nil
		}
		return requests
	}
}

func shortRequestID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// waitForBrowser runs wait behind a spinner. poll may be nil.
func waitForBrowser(ctx context.Context, output io.Writer, label string, poll pendingSource, wait func(context.Context) error) error {
	waitCmd := func() tea.Msg {
		return roundTripDoneMsg{err: wait(ctx)}
	}

	p := tea.NewProgram(
		newRoundTripModel(label, waitCmd, poll),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(roundTripModel)
	if !ok {
		return fmt.Errorf("unexpected final spinner model type %T", finalModel)
	}

	return result.err
}
