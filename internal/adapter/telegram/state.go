package telegram

import (
	"sync"

	"weightduel/internal/domain"
)

type mode int

const (
	modeIdle mode = iota
	modeAwaitingWeight
	modeAwaitingCorrection
)

type conversation struct {
	mode    mode
	entryID int64
}

// conversations holds per-identity dialog state. It lives in memory only; a
// restart drops pending prompts.
type conversations struct {
	mu sync.Mutex
	m  map[domain.Identity]conversation
}

func newConversations() *conversations {
	return &conversations{m: make(map[domain.Identity]conversation)}
}

func (c *conversations) get(id domain.Identity) conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.m[id]
}

func (c *conversations) set(id domain.Identity, conv conversation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[id] = conv
}

func (c *conversations) clear(id domain.Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.m, id)
}
