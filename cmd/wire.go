package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/wallet-bridge/internal/adapters/credentials"
	"github.com/bnema/wallet-bridge/internal/adapters/delivery"
	"github.com/bnema/wallet-bridge/internal/adapters/hostinfo"
	"github.com/bnema/wallet-bridge/internal/adapters/opener"
	statusadapter "github.com/bnema/wallet-bridge/internal/adapters/render/status"
	tomlrepo "github.com/bnema/wallet-bridge/internal/adapters/repo/toml"
	chainstore "github.com/bnema/wallet-bridge/internal/adapters/store/chain"
	filestore "github.com/bnema/wallet-bridge/internal/adapters/store/file"
	passstore "github.com/bnema/wallet-bridge/internal/adapters/store/pass"
	"github.com/bnema/wallet-bridge/internal/application"
	"github.com/bnema/wallet-bridge/internal/bridge"
	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/bnema/wallet-bridge/internal/ports"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

const (
	envPrefix = "WB"

	keyDeliveryListen    = "delivery.listen"
	keyDeliveryScheme    = "delivery.scheme"
	keyWalletPageURL     = "wallet.page_url"
	keyBridgeTimeout     = "bridge.timeout"
	keyStrictChainSwitch = "bridge.strict_chain_switch"
	keyDefaultBrowser    = "bridge.default_browser"
	keyLogLevel          = "log.level"
	keyStateDir          = "state.dir"
	keyStateBackend      = "state.backend"
	keyStatePassDir      = "state.pass_dir"

	defaultListenAddr = "127.0.0.1:17345"
	defaultScheme     = "walletbridge"
)

type app struct {
	config         *viper.Viper
	service        *application.Service
	host           *deliveryHost
	statusRenderer func([]application.Status, statusadapter.RenderOptions) (string, error)
	httpClient     *http.Client
	logger         zerolog.Logger
}

func newConfig() (*viper.Viper, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	cfg := viper.New()
	cfg.SetEnvPrefix(envPrefix)
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	cfg.SetDefault(keyDeliveryListen, defaultListenAddr)
	cfg.SetDefault(keyDeliveryScheme, defaultScheme)
	cfg.SetDefault(keyWalletPageURL, "")
	cfg.SetDefault(keyBridgeTimeout, bridge.DefaultTimeout)
	cfg.SetDefault(keyStrictChainSwitch, false)
	cfg.SetDefault(keyDefaultBrowser, "chrome")
	cfg.SetDefault(keyLogLevel, zerolog.InfoLevel.String())
	cfg.SetDefault(keyStateDir, filepath.Join(homeDir, tomlrepo.ConfigDir, "state"))
	cfg.SetDefault(keyStateBackend, "auto")
	cfg.SetDefault(keyStatePassDir, "")

	return cfg, nil
}

func wireApp() (*app, error) {
	cfg, err := newConfig()
	if err != nil {
		return nil, err
	}

	// The repository reads the shared config file, so every key above can
	// also be set in ~/.wallet-bridge/config.toml.
	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	store, err := newStateStore(cfg.GetString(keyStateBackend), cfg.GetString(keyStateDir), cfg.GetString(keyStatePassDir))
	if err != nil {
		return nil, fmt.Errorf("wire state store: %w", err)
	}

	vault, err := credentials.NewVault(store)
	if err != nil {
		return nil, fmt.Errorf("wire credential vault: %w", err)
	}

	a := &app{
		config:         cfg,
		statusRenderer: statusadapter.Render,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		logger:         zerolog.Nop(),
	}
	a.host = &deliveryHost{
		hub:           delivery.NewHub(),
		listenAddr:    cfg.GetString(keyDeliveryListen),
		scheme:        cfg.GetString(keyDeliveryScheme),
		walletPageURL: cfg.GetString(keyWalletPageURL),
		httpClient:    a.httpClient,
		logger:        func() zerolog.Logger { return a.logger },
	}

	a.service, err = application.NewService(repo, vault, func(ctx context.Context, profile domain.BrowserProfile) (*bridge.Bridge, error) {
		opts := []bridge.Option{
			bridge.WithLogger(a.logger),
			bridge.WithTimeout(cfg.GetDuration(keyBridgeTimeout)),
		}
		if cfg.GetBool(keyStrictChainSwitch) {
			opts = append(opts, bridge.WithStrictChainSwitch())
		}

		return bridge.New(ctx, profile, bridge.Dependencies{
			Opener:      opener.NewLauncher(profile),
			HostInfo:    a.host,
			Deliveries:  a.host.hub,
			Store:       store,
			Credentials: vault,
		}, opts...)
	})
	if err != nil {
		return nil, fmt.Errorf("wire service: %w", err)
	}

	return a, nil
}

func newStateStore(backend string, dir string, passDir string) (ports.KeyValueStore, error) {
	passOpts := []passstore.Option{passstore.WithStoreDir(passDir)}

	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", "auto":
		return chainstore.NewPassFirstWithFileFallback(dir, passOpts...)
	case "file":
		return filestore.NewStore(dir), nil
	case "pass":
		return passstore.NewStore(passOpts...), nil
	default:
		return nil, fmt.Errorf("unknown state backend %q (want auto, file or pass)", backend)
	}
}

func (a *app) configureLogging(w io.Writer) error {
	level, err := zerolog.ParseLevel(a.config.GetString(keyLogLevel))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}

	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
	return nil
}

func (a *app) close() error {
	return errors.Join(a.service.Close(), a.host.Close())
}

// deliveryHost starts the delivery server the first time a bridge asks for
// its endpoint and answers host-info queries from it.
type deliveryHost struct {
	hub           *delivery.Hub
	listenAddr    string
	scheme        string
	walletPageURL string
	httpClient    *http.Client
	logger        func() zerolog.Logger

	mu     sync.Mutex
	server *delivery.Server
}

var _ ports.HostInfoProvider = (*deliveryHost)(nil)

func (h *deliveryHost) GetInfo(ctx context.Context) (domain.HostEndpoint, error) {
	server, err := h.start()
	if err != nil {
		return domain.HostEndpoint{}, err
	}

	return hostinfo.NewClient(server.URL(), h.httpClient).GetInfo(ctx)
}

func (h *deliveryHost) start() (*delivery.Server, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.server != nil {
		return h.server, nil
	}

	logger := h.logger()
	server, err := delivery.StartServerWithHub(h.hub, h.listenAddr, h.scheme, logger, delivery.WithWalletPage(h.walletPageURL))
	if err != nil {
		return nil, err
	}
	h.server = server
	logger.Debug().Str("addr", server.URL()).Msg("delivery server listening")

	return server, nil
}

func (h *deliveryHost) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.server == nil {
		return nil
	}
	err := h.server.Close()
	h.server = nil
	return err
}

func (a *app) deliveryURL() string {
	return "http://" + a.config.GetString(keyDeliveryListen)
}
