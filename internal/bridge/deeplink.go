package bridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bnema/wallet-bridge/internal/domain"
)

const appWalletPath = "/app-wallet"

type Task string

const (
	TaskConnect  Task = "connect"
	TaskProvider Task = "provider"
)

// DeepLinkRequest is everything one outbound link carries.
type DeepLinkRequest struct {
	Task           Task
	CallbackScheme string
	RequestID      string
	Timestamp      time.Time
	ChainID        domain.ChainID
	Method         string
	Params         []any
}

// BuildRequestURL encodes req as an openable URL on the host endpoint. It has
// no side effects; a params value that cannot be represented as JSON fails
// with domain.ErrEncoding.
func BuildRequestURL(endpoint domain.HostEndpoint, req DeepLinkRequest) (string, error) {
	if err := endpoint.Validate(); err != nil {
		return "", err
	}
	if req.RequestID == "" {
		return "", errors.New("request id is required")
	}

	callbackScheme := req.CallbackScheme
	if callbackScheme == "" {
		callbackScheme = endpoint.Scheme
	}

	pairs := [][2]string{
		{"task", string(req.Task)},
		{"scheme", callbackScheme},
		{"requestId", req.RequestID},
		{"t", strconv.FormatInt(req.Timestamp.UnixMilli(), 10)},
		{"chainId", req.ChainID.String()},
	}

	switch req.Task {
	case TaskConnect:
	case TaskProvider:
		if req.Method == "" {
			return "", errors.New("provider method is required")
		}
		params := req.Params
		if params == nil {
			params = []any{}
		}
		encoded, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("%w: params for %s: %w", domain.ErrEncoding, req.Method, err)
		}
		pairs = append(pairs, [2]string{"method", req.Method}, [2]string{"params", string(encoded)})
	default:
		return "", fmt.Errorf("unsupported task %q", req.Task)
	}

	query := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		query = append(query, pair[0]+"="+escapeComponent(pair[1]))
	}

	target := url.URL{
		Scheme:   "http",
		Host:     "localhost:" + strconv.Itoa(endpoint.Port),
		Path:     appWalletPath,
		RawQuery: strings.Join(query, "&"),
	}

	return target.String(), nil
}

// escapeComponent percent-encodes spaces as %20 so pages reading the query
// with decodeURIComponent see the original text.
func escapeComponent(value string) string {
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}

// ParseRequestURL decodes a link produced by BuildRequestURL. Params are
// decoded with encoding/json defaults, so numbers come back as float64.
func ParseRequestURL(raw string) (DeepLinkRequest, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return DeepLinkRequest{}, fmt.Errorf("parse request url: %w", err)
	}
	if parsed.Path != appWalletPath {
		return DeepLinkRequest{}, fmt.Errorf("unexpected request path %q", parsed.Path)
	}

	q := parsed.Query()
	req := DeepLinkRequest{
		Task:           Task(q.Get("task")),
		CallbackScheme: q.Get("scheme"),
		RequestID:      q.Get("requestId"),
		Method:         q.Get("method"),
	}

	if rawTimestamp := q.Get("t"); rawTimestamp != "" {
		millis, err := strconv.ParseInt(rawTimestamp, 10, 64)
		if err != nil {
			return DeepLinkRequest{}, fmt.Errorf("parse timestamp: %w", err)
		}
		req.Timestamp = time.UnixMilli(millis)
	}
	if rawChainID := q.Get("chainId"); rawChainID != "" {
		chainID, err := domain.ParseChainID(rawChainID)
		if err != nil {
			return DeepLinkRequest{}, err
		}
		req.ChainID = chainID
	}
	if q.Has("params") {
		if err := json.Unmarshal([]byte(q.Get("params")), &req.Params); err != nil {
			return DeepLinkRequest{}, fmt.Errorf("decode params: %w", err)
		}
	}

	return req, nil
}
