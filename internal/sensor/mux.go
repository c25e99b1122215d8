package sensor

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/google/uuid"
)

// LineSource delivers raw lines to subscribers.
type LineSource interface {
	// Subscribe creates a channel receiving every line read from the source.
	Subscribe() (string, <-chan string)
	// Unsubscribe closes and removes the channel with the given id.
	Unsubscribe(id string)
	// Monitor reads lines until the source ends, fails or ctx is done.
	Monitor(ctx context.Context) error
}

// Mux reads newline-delimited events from a single port, file or pipe and
// fans them out to subscribers. Delivery blocks until each subscriber has
// taken the line, so no sample is dropped between reader and recorder.
type Mux[T io.ReadCloser] struct {
	port         T
	subscribers  map[string]chan string
	subscriberMu sync.Mutex
	closing      bool
	closingMu    sync.Mutex
}

// NewMux wraps port.
func NewMux[T io.ReadCloser](port T) *Mux[T] {
	return &Mux[T]{
		port:        port,
		subscribers: make(map[string]chan string),
	}
}

func (m *Mux[T]) Subscribe() (string, <-chan string) {
	id := uuid.NewString()
	ch := make(chan string)
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	m.subscribers[id] = ch
	return id, ch
}

func (m *Mux[T]) Unsubscribe(id string) {
	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// Monitor scans the port and hands each line to every subscriber. It
// returns nil at end of input and ctx.Err() when cancelled.
func (m *Mux[T]) Monitor(ctx context.Context) error {
	scan := bufio.NewScanner(m.port)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	// The blocking Scan runs on its own goroutine so cancellation is not
	// held up by a quiet port.
	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			select {
			case scanErrChan <- err:
			case <-ctx.Done():
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case err := <-scanErrChan:
			return err

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return err
				default:
				}
				return nil
			}
			m.closingMu.Lock()
			closing := m.closing
			m.closingMu.Unlock()
			if closing {
				return nil
			}

			m.subscriberMu.Lock()
			for _, ch := range m.subscribers {
				select {
				case ch <- line:
				case <-ctx.Done():
					m.subscriberMu.Unlock()
					return ctx.Err()
				}
			}
			m.subscriberMu.Unlock()
		}
	}
}

// Close removes all subscribers and closes the port.
func (m *Mux[T]) Close() error {
	m.closingMu.Lock()
	m.closing = true
	m.closingMu.Unlock()

	m.subscriberMu.Lock()
	defer m.subscriberMu.Unlock()
	for id, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, id)
	}
	return m.port.Close()
}
