package opener

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/bnema/wallet-bridge/internal/ports"
)

var ErrBrowserUnavailable = errors.New("browser command not found")

type startFunc func(ctx context.Context, name string, args ...string) error

// Launcher opens links in one configured browser by running its command
// with the profile arguments followed by the URL.
type Launcher struct {
	command string
	args    []string
	start   startFunc
}

var _ ports.URLOpener = (*Launcher)(nil)

func NewLauncher(profile domain.BrowserProfile) *Launcher {
	args := make([]string, len(profile.Args))
	copy(args, profile.Args)

	return &Launcher{
		command: profile.Command,
		args:    args,
		start:   startDetached,
	}
}

func (l *Launcher) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(url) == "" {
		return errors.New("url is empty")
	}
	if strings.TrimSpace(l.command) == "" {
		return errors.New("browser command is empty")
	}

	args := append(append([]string{}, l.args...), url)
	if err := l.start(ctx, l.command, args...); err != nil {
		return fmt.Errorf("launch %s: %w", l.command, err)
	}

	return nil
}

// startDetached starts the browser and reaps it in the background. Browsers
// that hand the URL to an existing window exit immediately; others keep
// running past the request.
func startDetached(_ context.Context, name string, args ...string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrBrowserUnavailable, name)
		}
		return err
	}

	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() { _ = cmd.Wait() }()

	return nil
}
