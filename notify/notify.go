// Package notify delivers best-effort email notifications through an outbox.
// Publishing never blocks a request and delivery failures are only logged.
package notify

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

var (
	ErrClosed    = errors.New("outbox closed")
	ErrQueueFull = errors.New("outbox queue full")
)

// Notification is one email job.
type Notification struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Kind      string    `json:"kind"`
	EntityID  string    `json:"entityId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// New builds a Notification with a fresh id.
func New(kind, entityID, to, subject, body string) Notification {
	return Notification{
		ID:        uuid.NewString(),
		To:        to,
		Subject:   subject,
		Body:      body,
		Kind:      kind,
		EntityID:  entityID,
		CreatedAt: time.Now().UTC(),
	}
}

// Sender sends a single email.
type Sender interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// Outbox accepts notifications for asynchronous delivery.
type Outbox interface {
	Publish(ctx context.Context, n Notification) error
	Close() error
}

// Queue is an in-process Outbox drained by a fixed pool of workers.
type Queue struct {
	sender Sender
	jobs   chan Notification
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewQueue starts workers goroutines that deliver through sender.
func NewQueue(sender Sender, workers, buffer int) *Queue {
	if workers < 1 {
		workers = 1
	}
	if buffer < 0 {
		buffer = 0
	}
	q := &Queue{
		sender: sender,
		jobs:   make(chan Notification, buffer),
	}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	return q
}

func (q *Queue) Publish(ctx context.Context, n Notification) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrClosed
	}
	select {
	case q.jobs <- n:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs and waits for queued ones to be delivered.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.jobs)
	q.mu.Unlock()

	q.wg.Wait()
	return nil
}

func (q *Queue) work() {
	defer q.wg.Done()
	for n := range q.jobs {
		_ = deliver(context.Background(), q.sender, n)
	}
}

func deliver(ctx context.Context, sender Sender, n Notification) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := sender.Send(ctx, n.To, n.Subject, n.Body); err != nil {
		log.Printf("Failed to send %s notification %s to %s: %v", n.Kind, n.ID, n.To, err)
		return err
	}
	log.Printf("Sent %s notification %s to %s", n.Kind, n.ID, n.To)
	return nil
}
