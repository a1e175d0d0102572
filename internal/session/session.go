// SPDX-License-Identifier: AGPL-3.0-only

// Package session keeps per-conversation history in memory. History is
// process-local and bounded; it only exists to give the model short-range
// context across queries in one chat.
package session

import (
	"fmt"
	"strings"
	"sync"
)

// DefaultMaxHistory is how many exchanges a session remembers.
const DefaultMaxHistory = 2

type exchange struct {
	user      string
	assistant string
}

// Manager creates sessions and tracks their conversation history.
type Manager struct {
	mu         sync.Mutex
	counter    int
	sessions   map[string][]exchange
	maxHistory int
}

// NewManager creates a manager that remembers the last maxHistory exchanges
// per session. Values below 1 fall back to DefaultMaxHistory.
func NewManager(maxHistory int) *Manager {
	if maxHistory < 1 {
		maxHistory = DefaultMaxHistory
	}
	return &Manager{
		sessions:   make(map[string][]exchange),
		maxHistory: maxHistory,
	}
}

// CreateSession returns a new unique session id.
func (m *Manager) CreateSession() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	id := fmt.Sprintf("session_%d", m.counter)
	m.sessions[id] = nil
	return id
}

// AddExchange records one user/assistant exchange, trimming history beyond
// the retention limit.
func (m *Manager) AddExchange(sessionID, userMessage, assistantMessage string) {
	if sessionID == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.sessions[sessionID], exchange{user: userMessage, assistant: assistantMessage})
	if len(history) > m.maxHistory {
		history = history[len(history)-m.maxHistory:]
	}
	m.sessions[sessionID] = history
}

// History returns the session's recent exchanges formatted for prompt
// context, or "" for unknown or empty sessions.
func (m *Manager) History(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	history := m.sessions[sessionID]
	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history)*2)
	for _, ex := range history {
		lines = append(lines, "User: "+ex.user, "Assistant: "+ex.assistant)
	}
	return strings.Join(lines, "\n")
}

// Clear empties a session's history but keeps the session alive.
func (m *Manager) Clear(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; ok {
		m.sessions[sessionID] = nil
	}
}

// Delete removes a session entirely. It reports whether the session existed.
func (m *Manager) Delete(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[sessionID]; !ok {
		return false
	}
	delete(m.sessions, sessionID)
	return true
}
