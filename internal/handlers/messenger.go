package handlers

import (
	"context"
	"sync"

	"github.com/ternarybob/casebot/internal/interfaces"
)

// responseMessenger collects what the pipeline sends to the user so a
// synchronous HTTP request can return it in the response.
type responseMessenger struct {
	mu       sync.Mutex
	messages []string
	filename string
	document []byte
}

var _ interfaces.Messenger = (*responseMessenger)(nil)

func (m *responseMessenger) SendText(_ context.Context, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, text)
	return nil
}

func (m *responseMessenger) SendDocument(_ context.Context, _ string, filename string, data []byte, caption string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.filename = filename
	m.document = data
	if caption != "" {
		m.messages = append(m.messages, caption)
	}
	return nil
}

func (m *responseMessenger) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.messages))
	copy(out, m.messages)
	return out
}
