package delivery

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/rs/zerolog"
)

const (
	CallbackPath        = "/wallet/callback"
	InfoPath            = "/info"
	maxDeliveryBodySize = 1 << 20
)

var ErrMissingScheme = errors.New("callback scheme is required")

// Server is the inbound channel browsers deliver results to. It serves the
// wallet page outbound links point at and answers host-info queries with the
// callback scheme and its own port.
type Server struct {
	*Hub

	scheme        string
	walletPageURL string
	listener      net.Listener
	server        *http.Server
	logger        zerolog.Logger
	closeOnce     sync.Once
}

func StartServer(listenAddr string, scheme string, logger zerolog.Logger, opts ...ServerOption) (*Server, error) {
	return StartServerWithHub(NewHub(), listenAddr, scheme, logger, opts...)
}

// StartServerWithHub serves deliveries into an existing hub, so bridges may
// subscribe before the listener is up.
func StartServerWithHub(hub *Hub, listenAddr string, scheme string, logger zerolog.Logger, opts ...ServerOption) (*Server, error) {
	if strings.TrimSpace(scheme) == "" {
		return nil, ErrMissingScheme
	}
	if listenAddr == "" {
		listenAddr = "127.0.0.1:0"
	}

	s := &Server{
		Hub:    hub,
		scheme: scheme,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := validateWalletPage(s.walletPageURL); err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return nil, fmt.Errorf("listen delivery server: %w", err)
	}
	s.listener = listener

	mux := http.NewServeMux()
	mux.HandleFunc(WalletPagePath, s.handleWalletPage)
	mux.HandleFunc(CallbackPath, s.handleCallback)
	mux.HandleFunc(InfoPath, s.handleInfo)
	s.server = &http.Server{Handler: mux}

	go func() {
		if serveErr := s.server.Serve(s.listener); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			s.logger.Error().Err(serveErr).Msg("delivery server stopped")
		}
	}()

	return s, nil
}

func (s *Server) Port() int {
	if tcpAddr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcpAddr.Port
	}
	return 0
}

func (s *Server) URL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", s.Port())
}

func (s *Server) Endpoint() domain.HostEndpoint {
	return domain.HostEndpoint{Scheme: s.scheme, Port: s.Port()}
}

func (s *Server) Close() error {
	var closeErr error
	s.closeOnce.Do(func() {
		closeErr = s.server.Close()
	})
	return closeErr
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.Endpoint())
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	var (
		delivery domain.Delivery
		err      error
	)

	switch r.Method {
	case http.MethodGet:
		delivery, err = deliveryFromQuery(r.URL.Query())
	case http.MethodPost:
		delivery, err = deliveryFromBody(r.Body)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err != nil {
		s.logger.Debug().Err(err).Msg("rejected wallet delivery")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	subscribers := s.Publish(delivery)
	s.logger.Debug().
		Str("request_id", delivery.RequestID).
		Int("subscribers", subscribers).
		Msg("wallet delivery received")

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Wallet response received. You can close this window."))
}

func deliveryFromBody(body io.Reader) (domain.Delivery, error) {
	var delivery domain.Delivery
	if err := json.NewDecoder(io.LimitReader(body, maxDeliveryBodySize)).Decode(&delivery); err != nil {
		return domain.Delivery{}, fmt.Errorf("decode delivery: %w", err)
	}
	if err := validateDelivery(delivery); err != nil {
		return domain.Delivery{}, err
	}
	return delivery, nil
}

func validateDelivery(delivery domain.Delivery) error {
	if delivery.RequestID == "" {
		return errors.New("missing request id")
	}
	if len(delivery.Data) == 0 {
		return errors.New("missing delivery data")
	}
	if !json.Valid(delivery.Data) {
		return errors.New("delivery data is not valid json")
	}
	return nil
}
