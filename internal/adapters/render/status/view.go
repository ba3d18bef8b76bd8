package status

import (
	"fmt"
	"strings"

	"github.com/bnema/wallet-bridge/internal/application"
	"github.com/bnema/wallet-bridge/internal/bridge"
	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/ethereum/go-ethereum/common"
)

type RenderOptions struct {
	// MaxAccounts caps the accounts listed per browser; zero lists all.
	MaxAccounts int
	// ConnectedOnly hides browsers without an authorized account.
	ConnectedOnly bool
}

func renderView(arranged arrangedMsg, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Wallet Bridges"),
		s.header.Render(fmt.Sprintf("browsers: %d  connected: %d", arranged.total, arranged.connected)),
	}

	switch {
	case arranged.total == 0:
		lines = append(lines, s.empty.Render("No browsers configured."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	case len(arranged.statuses) == 0:
		lines = append(lines, s.empty.Render("No connected browsers."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, status := range arranged.statuses {
		lines = append(lines, s.section.Render(renderBrowser(status, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderBrowser(status application.Status, opts RenderOptions, s styles) string {
	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.browser.Render(fmt.Sprintf("%s (%s)", status.Browser.Name, status.Browser.ID)),
		" ",
		phaseBadge(status.Phase, s),
	)

	parts := []string{title}
	if !status.Connected() {
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	parts = append(parts, field("network", networkLabel(status), s))
	for _, line := range accountLines(status.Accounts, opts.MaxAccounts, s) {
		parts = append(parts, line)
	}
	if status.HasCredential {
		parts = append(parts, field("credential", "stored", s))
	}
	if status.Pending > 0 {
		parts = append(parts, s.busy.Render(fmt.Sprintf("%d request(s) waiting on the browser", status.Pending)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func phaseBadge(phase bridge.Phase, s styles) string {
	switch phase {
	case bridge.PhaseConnected:
		return s.connected.Render("[connected]")
	case bridge.PhaseConnecting:
		return s.busy.Render("[connecting]")
	case bridge.PhaseDisconnected:
		return s.idle.Render("[disconnected]")
	default:
		return s.idle.Render("[idle]")
	}
}

func networkLabel(status application.Status) string {
	if status.Network != nil {
		return fmt.Sprintf("%s (chain %s, %s)", status.Network.Name, status.ChainID, status.ChainID.Hex())
	}
	return fmt.Sprintf("%s (%s)", domain.NetworkName(status.ChainID), status.ChainID.Hex())
}

func accountLines(accounts []string, limit int, s styles) []string {
	shown := accounts
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}

	lines := make([]string, 0, len(shown)+1)
	for i, account := range shown {
		key := "account"
		if len(accounts) > 1 {
			key = fmt.Sprintf("account %d", i+1)
		}
		lines = append(lines, field(key, DisplayAddress(account), s))
	}
	if hidden := len(accounts) - len(shown); hidden > 0 {
		lines = append(lines, s.label.Render(fmt.Sprintf("… and %d more", hidden)))
	}

	return lines
}

func field(key, value string, s styles) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, s.label.Render(key+":"), " ", s.detail.Render(value))
}

// DisplayAddress returns the EIP-55 checksummed form of a hex address and
// leaves anything else as delivered.
func DisplayAddress(account string) string {
	trimmed := strings.TrimSpace(account)
	if !common.IsHexAddress(trimmed) {
		return trimmed
	}
	return common.HexToAddress(trimmed).Hex()
}
