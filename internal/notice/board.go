// Package notice collects user-facing messages raised by actions, shown on the
// next page render and pushed live to connected viewers.
package notice

import (
	"encoding/json"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// maxPending bounds the backlog when nobody renders the page.
const maxPending = 20

type Notice struct {
	Level   Level     `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Broadcaster pushes a serialized message to live viewers.
type Broadcaster interface {
	Broadcast(message []byte)
}

type Board struct {
	pending     []Notice
	broadcaster Broadcaster
	mu          sync.Mutex
}

// NewBoard creates a Board. broadcaster may be nil.
func NewBoard(broadcaster Broadcaster) *Board {
	return &Board{broadcaster: broadcaster}
}

func (b *Board) Info(message string)    { b.Push(LevelInfo, message) }
func (b *Board) Success(message string) { b.Push(LevelSuccess, message) }
func (b *Board) Error(message string)   { b.Push(LevelError, message) }

// Push records a notice and broadcasts it.
func (b *Board) Push(level Level, message string) {
	n := Notice{Level: level, Message: message, At: time.Now()}

	b.mu.Lock()
	b.pending = append(b.pending, n)
	if len(b.pending) > maxPending {
		b.pending = b.pending[len(b.pending)-maxPending:]
	}
	b.mu.Unlock()

	if b.broadcaster == nil {
		return
	}
	payload, err := json.Marshal(struct {
		Type string `json:"type"`
		Notice
	}{Type: "notice", Notice: n})
	if err == nil {
		b.broadcaster.Broadcast(payload)
	}
}

// Drain returns and clears the pending notices.
func (b *Board) Drain() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.pending
	b.pending = nil
	return out
}
