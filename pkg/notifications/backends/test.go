package backends

import (
	"context"
	"sync"
)

// TestBackend records delivered messages in memory for assertions.
type TestBackend struct {
	mu       sync.Mutex
	messages []*Message
	fail     error
}

// NewTestBackend creates a test backend.
func NewTestBackend() *TestBackend {
	return &TestBackend{}
}

func (b *TestBackend) Name() string { return "test" }

func (b *TestBackend) Handle(_ context.Context, msg *Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail != nil {
		return &BackendError{Backend: b.Name(), Err: b.fail}
	}
	b.messages = append(b.messages, msg)
	return nil
}

// Messages returns a copy of everything delivered so far.
func (b *TestBackend) Messages() []*Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// FailWith makes every subsequent Handle call return err.
func (b *TestBackend) FailWith(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fail = err
}

// Reset clears recorded messages and any injected failure.
func (b *TestBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = nil
	b.fail = nil
}
