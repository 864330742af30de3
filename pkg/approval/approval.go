// Package approval records advisory human review requests raised when the
// assistant performs a sensitive action. The gate never blocks the turn;
// the action completes and the record waits for an operator verdict.
package approval

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status values for a review request.
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// Request is one advisory review record.
type Request struct {
	ID         string    `json:"id"`
	SessionID  string    `json:"session_id"`
	Action     string    `json:"action"`
	Context    string    `json:"context,omitempty"`
	Status     string    `json:"status"`
	Verdict    string    `json:"verdict,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	ResolvedAt time.Time `json:"resolved_at,omitzero"`
}

// Manager holds pending and resolved review requests in memory.
type Manager struct {
	mu       sync.Mutex
	requests map[string]*Request
}

// NewManager creates an empty review manager.
func NewManager() *Manager {
	return &Manager{requests: make(map[string]*Request)}
}

// Raise records a new review request for an action already taken.
func (m *Manager) Raise(sessionID, action, context string) Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	req := &Request{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Action:    action,
		Context:   context,
		Status:    StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	m.requests[req.ID] = req
	return *req
}

// Get returns a single request by id.
func (m *Manager) Get(id string) (Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return Request{}, fmt.Errorf("approval request not found: %s", id)
	}
	return *req, nil
}

// List returns all requests, newest first. Pass an empty status to list
// everything, or a status constant to filter.
func (m *Manager) List(status string) []Request {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Request, 0, len(m.requests))
	for _, req := range m.requests {
		if status != "" && req.Status != status {
			continue
		}
		out = append(out, *req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Resolve records an operator verdict on a pending request.
func (m *Manager) Resolve(id, status, verdict string) (Request, error) {
	if status != StatusApproved && status != StatusRejected {
		return Request{}, fmt.Errorf("invalid resolution status: %s", status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	req, ok := m.requests[id]
	if !ok {
		return Request{}, fmt.Errorf("approval request not found: %s", id)
	}
	if req.Status != StatusPending {
		return Request{}, fmt.Errorf("approval request %s already resolved", id)
	}

	req.Status = status
	req.Verdict = verdict
	req.ResolvedAt = time.Now().UTC()
	return *req, nil
}

// PendingCount returns the number of unresolved requests.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for _, req := range m.requests {
		if req.Status == StatusPending {
			n++
		}
	}
	return n
}
