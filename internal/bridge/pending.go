package bridge

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/bnema/wallet-bridge/internal/domain"
	"github.com/rs/zerolog"
)

type outcome struct {
	data json.RawMessage
	err  error
}

type pendingRequest struct {
	id       string
	issuedAt time.Time
	deadline time.Time
	timer    *time.Timer
	resultCh chan outcome
}

// PendingRequest describes one request still waiting on the browser.
type PendingRequest struct {
	ID       string
	IssuedAt time.Time
	Deadline time.Time
}

// pendingTable correlates request ids with waiting callers. Every entry is
// completed at most once: by a delivery, by its timer, by Cancel or by Clear,
// and it is removed from the table before its result slot is written.
type pendingTable struct {
	mu      sync.Mutex
	entries map[string]*pendingRequest
	logger  zerolog.Logger
}

func newPendingTable(logger zerolog.Logger) *pendingTable {
	return &pendingTable{
		entries: make(map[string]*pendingRequest),
		logger:  logger,
	}
}

func (t *pendingTable) Register(requestID string, issuedAt time.Time, timeout time.Duration) (*pendingRequest, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.entries[requestID]; exists {
		return nil, domain.ErrDuplicateRequest
	}

	entry := &pendingRequest{
		id:       requestID,
		issuedAt: issuedAt,
		deadline: issuedAt.Add(timeout),
		resultCh: make(chan outcome, 1),
	}
	entry.timer = time.AfterFunc(timeout, func() {
		t.timeout(requestID, entry)
	})
	t.entries[requestID] = entry

	return entry, nil
}

// Resolve hands payload to the waiter of requestID. Late, duplicate or
// unknown deliveries are dropped and reported as false.
func (t *pendingTable) Resolve(requestID string, payload json.RawMessage) bool {
	entry, ok := t.take(requestID, nil)
	if !ok {
		t.logger.Debug().Str("request_id", requestID).Msg("dropping delivery without pending request")
		return false
	}

	entry.timer.Stop()
	entry.resultCh <- outcome{data: payload}
	return true
}

func (t *pendingTable) Cancel(requestID string, err error) bool {
	entry, ok := t.take(requestID, nil)
	if !ok {
		return false
	}

	entry.timer.Stop()
	entry.resultCh <- outcome{err: err}
	return true
}

// Clear abandons every pending request. Waiters observe ErrRequestAbandoned.
func (t *pendingTable) Clear() int {
	t.mu.Lock()
	entries := t.entries
	t.entries = make(map[string]*pendingRequest)
	t.mu.Unlock()

	for _, entry := range entries {
		entry.timer.Stop()
		entry.resultCh <- outcome{err: domain.ErrRequestAbandoned}
	}

	return len(entries)
}

func (t *pendingTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.entries)
}

// Snapshot lists outstanding requests, oldest first.
func (t *pendingTable) Snapshot() []PendingRequest {
	t.mu.Lock()
	requests := make([]PendingRequest, 0, len(t.entries))
	for _, entry := range t.entries {
		requests = append(requests, PendingRequest{ID: entry.id, IssuedAt: entry.issuedAt, Deadline: entry.deadline})
	}
	t.mu.Unlock()

	sort.Slice(requests, func(i, j int) bool {
		if requests[i].IssuedAt.Equal(requests[j].IssuedAt) {
			return requests[i].ID < requests[j].ID
		}
		return requests[i].IssuedAt.Before(requests[j].IssuedAt)
	})
	return requests
}

func (t *pendingTable) Has(requestID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.entries[requestID]
	return ok
}

func (t *pendingTable) timeout(requestID string, expected *pendingRequest) {
	entry, ok := t.take(requestID, expected)
	if !ok {
		return
	}

	t.logger.Debug().
		Str("request_id", requestID).
		Dur("elapsed", time.Since(entry.issuedAt)).
		Msg("wallet request timed out")
	entry.resultCh <- outcome{err: domain.ErrRequestTimedOut}
}

// take removes requestID from the table. When expected is set, the entry is
// only taken if it is that exact registration.
func (t *pendingTable) take(requestID string, expected *pendingRequest) (*pendingRequest, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entry, ok := t.entries[requestID]
	if !ok || (expected != nil && entry != expected) {
		return nil, false
	}
	delete(t.entries, requestID)

	return entry, true
}

// await blocks until the request completes or ctx ends. A cancelled context
// removes the entry so a later delivery is dropped.
func (t *pendingTable) await(ctx context.Context, entry *pendingRequest) (json.RawMessage, error) {
	select {
	case result := <-entry.resultCh:
		return result.data, result.err
	case <-ctx.Done():
		if t.Cancel(entry.id, ctx.Err()) {
			return nil, ctx.Err()
		}
		result := <-entry.resultCh
		return result.data, result.err
	}
}
