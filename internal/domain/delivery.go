package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Delivery is one inbound result of a completed browser round trip.
type Delivery struct {
	RequestID string          `json:"requestId"`
	Data      json.RawMessage `json:"data"`
}

type ConnectResult struct {
	Accounts []string        `json:"accounts"`
	ChainID  ChainID         `json:"chainId"`
	Auth     *Credential     `json:"auth,omitempty"`
	Error    json.RawMessage `json:"error,omitempty"`
}

type ProviderResult struct {
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

func DecodeConnectResult(data json.RawMessage) (ConnectResult, error) {
	var result ConnectResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ConnectResult{}, fmt.Errorf("decode connect result: %w", err)
	}
	return result, nil
}

func DecodeProviderResult(data json.RawMessage) (ProviderResult, error) {
	var result ProviderResult
	if err := json.Unmarshal(data, &result); err != nil {
		return ProviderResult{}, fmt.Errorf("decode provider result: %w", err)
	}
	return result, nil
}

// DeliveredErrorFrom interprets an "error" field, which browsers send either
// as a plain string or as an {code, message} object. It returns nil when the
// field is absent, null, false or an empty string.
func DeliveredErrorFrom(raw json.RawMessage) *DeliveredError {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil
	}
	switch string(trimmed) {
	case "null", "false", `""`:
		return nil
	}

	var message string
	if err := json.Unmarshal(trimmed, &message); err == nil {
		return &DeliveredError{Message: message}
	}

	var structured struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &structured); err == nil && (structured.Code != 0 || structured.Message != "") {
		return &DeliveredError{Code: structured.Code, Message: structured.Message}
	}

	return &DeliveredError{Message: string(trimmed)}
}
