package bridge

import (
	"time"

	"github.com/bnema/wallet-bridge/internal/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultTimeout bounds every browser round trip, connect and provider alike.
const DefaultTimeout = 60 * time.Second

type Option func(*Bridge)

func WithTimeout(timeout time.Duration) Option {
	return func(b *Bridge) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

func WithClock(clock ports.Clock) Option {
	return func(b *Bridge) {
		if clock != nil {
			b.clock = clock
		}
	}
}

func WithRequestIDGenerator(generate func() string) Option {
	return func(b *Bridge) {
		if generate != nil {
			b.newRequestID = generate
		}
	}
}

// WithStrictChainSwitch makes SwitchChain fail with domain.ErrUnsupportedChain
// instead of reporting the default network when the resulting chain is not
// one of the supported networks.
func WithStrictChainSwitch() Option {
	return func(b *Bridge) {
		b.strictChainSwitch = true
	}
}

func newRequestID() string {
	return uuid.NewString()
}
