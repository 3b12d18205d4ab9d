package tokenstore

import (
	"sync"
	"time"
)

type Memory struct {
	mu     sync.RWMutex
	tokens Tokens
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) Get() (Tokens, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tokens.Live(m.now())
}

func (m *Memory) Set(access, refresh string) error {
	tokens, err := Issue(access, refresh, m.now())
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.tokens = tokens
	m.mu.Unlock()
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	m.tokens = Tokens{}
	m.mu.Unlock()
	return nil
}
