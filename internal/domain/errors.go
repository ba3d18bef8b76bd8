package domain

import (
	"errors"
	"fmt"
)

var (
	ErrRequestTimedOut      = errors.New("wallet request timed out")
	ErrNoExistingConnection = errors.New("no existing wallet connection")
	ErrEncoding             = errors.New("encode wallet request")
	ErrRequestAbandoned     = errors.New("wallet request abandoned")
	ErrDuplicateRequest     = errors.New("duplicate wallet request id")
	ErrUnsupportedChain     = errors.New("unsupported chain")
	ErrBrowserNotFound      = errors.New("browser profile not found")
	ErrValueNotFound        = errors.New("value not found")
)

// DeliveredError is a failure reported by the external browser itself, such
// as the user rejecting the request.
type DeliveredError struct {
	Code    int
	Message string
}

func (e *DeliveredError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("wallet error %d: %s", e.Code, e.Message)
	}
	return "wallet error: " + e.Message
}
