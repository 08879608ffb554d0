package mocks

import (
	"context"
	"sync"

	"github.com/jwhitfield/taskward/internal/service/mail"
)

// MockSender is a configurable mock implementation of mail.Sender that
// records every message it is asked to deliver.
type MockSender struct {
	SendFn func(ctx context.Context, msg mail.Message) error

	mu   sync.Mutex
	sent []mail.Message
}

var _ mail.Sender = (*MockSender)(nil)

func (m *MockSender) Send(ctx context.Context, msg mail.Message) error {
	if m.SendFn != nil {
		if err := m.SendFn(ctx, msg); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

// Sent returns a copy of all messages delivered so far.
func (m *MockSender) Sent() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.sent))
	copy(out, m.sent)
	return out
}
