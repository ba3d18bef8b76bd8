package pass

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path"
	"strings"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/bnema/wallet-bridge/internal/ports"
)

var (
	ErrUnavailable  = errors.New("pass command unavailable")
	ErrInvalidEntry = errors.New("invalid pass entry name")
)

const missingEntryMarker = "is not in the password store"

// invocation is one pass(1) call: its arguments, stdin and extra environment.
type invocation struct {
	args  []string
	input string
	env   []string
}

type runFunc func(ctx context.Context, inv invocation) (stdout string, stderr string, err error)

// Store keeps values in the user's pass(1) password store. Values may span
// several lines; connection state is stored as TOML.
type Store struct {
	run      runFunc
	storeDir string
}

var _ ports.KeyValueStore = (*Store)(nil)

type Option func(*Store)

// WithStoreDir points pass at a dedicated password store instead of
// ~/.password-store.
func WithStoreDir(dir string) Option {
	return func(s *Store) {
		s.storeDir = strings.TrimSpace(dir)
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{run: runPassCommand}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	entry, err := entryName(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, s.invocation(value+"\n", "insert", "--multiline", "--force", entry))
	if err != nil {
		return formatError("put", entry, err, stderr)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	entry, err := entryName(key)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	stdout, stderr, err := s.run(ctx, s.invocation("", "show", entry))
	if err != nil {
		if strings.Contains(stderr, missingEntryMarker) {
			return "", fmt.Errorf("pass entry %q: %w", entry, domain.ErrValueNotFound)
		}
		return "", formatError("get", entry, err, stderr)
	}

	return strings.TrimRight(stdout, "\r\n"), nil
}

// Delete treats an already missing entry as removed.
func (s *Store) Delete(ctx context.Context, key string) error {
	entry, err := entryName(key)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, stderr, err := s.run(ctx, s.invocation("", "rm", "--force", entry))
	if err != nil && !strings.Contains(stderr, missingEntryMarker) {
		return formatError("delete", entry, err, stderr)
	}
	return nil
}

func (s *Store) invocation(input string, args ...string) invocation {
	inv := invocation{args: args, input: input}
	if s.storeDir != "" {
		inv.env = []string{"PASSWORD_STORE_DIR=" + s.storeDir}
	}
	return inv
}

// entryName maps a store key onto a pass entry path. Keys are relative,
// slash separated, and may not climb out of the store.
func entryName(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if trimmed == "" || strings.HasPrefix(trimmed, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntry, key)
	}

	cleaned := path.Clean(trimmed)
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidEntry, key)
	}
	return cleaned, nil
}

func runPassCommand(ctx context.Context, inv invocation) (string, string, error) {
	bin, err := exec.LookPath("pass")
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", "", ErrUnavailable
		}
		return "", "", fmt.Errorf("locate pass command: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, inv.args...)
	if inv.input != "" {
		cmd.Stdin = strings.NewReader(inv.input)
	}
	if len(inv.env) > 0 {
		cmd.Env = append(os.Environ(), inv.env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err = cmd.Run()
	return stdout.String(), strings.TrimSpace(stderr.String()), err
}

func formatError(op string, entry string, err error, stderr string) error {
	if stderr == "" {
		return fmt.Errorf("pass %s %q: %w", op, entry, err)
	}
	return fmt.Errorf("pass %s %q: %w: %s", op, entry, err, stderr)
}
