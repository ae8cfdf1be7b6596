package broker

import (
	"context"
	"errors"
	"sync"

	"github.com/segmentio/kafka-go"
)

// MockKafka records written messages and serves queued ones to readers.
type MockKafka struct {
	mu              sync.Mutex
	WrittenMessages []kafka.Message
	ReadMessages    []kafka.Message
	ShouldFail      bool
}

func (m *MockKafka) WriteMessages(ctx context.Context, messages ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ShouldFail {
		return errors.New("mock kafka write failed")
	}
	m.WrittenMessages = append(m.WrittenMessages, messages...)
	return nil
}

// ReadMessage pops the next queued message, or blocks until ctx is done when
// the queue is empty.
func (m *MockKafka) ReadMessage(ctx context.Context) (kafka.Message, error) {
	m.mu.Lock()
	if m.ShouldFail {
		m.mu.Unlock()
		return kafka.Message{}, errors.New("mock kafka read failed")
	}
	if len(m.ReadMessages) > 0 {
		msg := m.ReadMessages[0]
		m.ReadMessages = m.ReadMessages[1:]
		m.mu.Unlock()
		return msg, nil
	}
	m.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

// Written returns a copy of the messages written so far.
func (m *MockKafka) Written() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]kafka.Message, len(m.WrittenMessages))
	copy(out, m.WrittenMessages)
	return out
}

func (m *MockKafka) Close() error { return nil }
