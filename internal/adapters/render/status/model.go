package status

import (
	"errors"
	"io"
	"sort"

	"github.com/bnema/wallet-bridge/internal/application"
	"github.com/bnema/wallet-bridge/internal/bridge"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnexpectedRenderModel = errors.New("unexpected final bubbletea model type")

// arrangedMsg carries the statuses in display order together with the
// counts of the full, unfiltered set.
type arrangedMsg struct {
	statuses  []application.Status
	total     int
	connected int
}

type model struct {
	statuses []application.Status
	opts     RenderOptions
	styles   styles
	output   string
}

func newModel(statuses []application.Status, opts RenderOptions) model {
	return model{
		statuses: statuses,
		opts:     opts,
		styles:   newStyles(),
	}
}

func (m model) Init() tea.Cmd {
	statuses, opts := m.statuses, m.opts
	return func() tea.Msg {
		return arrange(statuses, opts)
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	arranged, ok := msg.(arrangedMsg)
	if !ok {
		return m, nil
	}

	m.output = renderView(arranged, m.opts, m.styles)
	return m, tea.Quit
}

func (m model) View() string {
	return m.output
}

var phaseOrder = map[bridge.Phase]int{
	bridge.PhaseConnected:     0,
	bridge.PhaseConnecting:    1,
	bridge.PhaseDisconnected:  2,
	bridge.PhaseUninitialized: 3,
}

// arrange lists connected bridges first, then connecting ones, then the rest,
// by browser id within a phase. ConnectedOnly drops bridges without accounts.
func arrange(statuses []application.Status, opts RenderOptions) arrangedMsg {
	arranged := arrangedMsg{total: len(statuses)}
	for _, status := range statuses {
		if status.Connected() {
			arranged.connected++
		}
		if opts.ConnectedOnly && !status.Connected() {
			continue
		}
		arranged.statuses = append(arranged.statuses, status)
	}

	sort.SliceStable(arranged.statuses, func(i, j int) bool {
		left, right := arranged.statuses[i], arranged.statuses[j]
		if phaseOrder[left.Phase] != phaseOrder[right.Phase] {
			return phaseOrder[left.Phase] < phaseOrder[right.Phase]
		}
		return left.Browser.ID < right.Browser.ID
	})

	return arranged
}

// Render lays out bridge statuses for a terminal.
func Render(statuses []application.Status, opts RenderOptions) (string, error) {
	p := tea.NewProgram(
		newModel(statuses, opts),
		tea.WithInput(nil),
		tea.WithOutput(io.Discard),
	)

	finalModel, err := p.Run()
	if err != nil {
		return "", err
	}

	rendered, ok := finalModel.(model)
	if !ok {
		return "", ErrUnexpectedRenderModel
	}

	return rendered.View(), nil
}
