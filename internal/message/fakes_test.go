package message_test

import (
	"context"
	"sync"
	"time"

	"message-service/internal/events"
	"message-service/internal/message"
)

// fakeRepository is an in-memory Repository. RunInTx restores the previous
// state when the callback fails, like a rolled back transaction.
type fakeRepository struct {
	mu        sync.Mutex
	messages  []message.Message
	nextID    int64
	fail      map[string]error
	commits   int
	rollbacks int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{nextID: 1, fail: make(map[string]error)}
}

func (r *fakeRepository) failOn(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[op] = err
}

func (r *fakeRepository) RunInTx(ctx context.Context, fn func(ctx context.Context, repo message.Repository) error) error {
	r.mu.Lock()
	snapshot := append([]message.Message(nil), r.messages...)
	nextID := r.nextID
	r.mu.Unlock()

	if err := fn(ctx, r); err != nil {
		r.mu.Lock()
		r.messages = snapshot
		r.nextID = nextID
		r.rollbacks++
		r.mu.Unlock()
		return err
	}

	r.mu.Lock()
	r.commits++
	r.mu.Unlock()
	return nil
}

func (r *fakeRepository) Create(ctx context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m.ID = r.nextID
	m.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	r.nextID++
	r.messages = append(r.messages, *m)

	return r.fail["create"]
}

func (r *fakeRepository) GetAll(ctx context.Context) ([]message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fail["list"]; err != nil {
		return nil, err
	}
	return append(make([]message.Message, 0, len(r.messages)), r.messages...), nil
}

func (r *fakeRepository) GetByID(ctx context.Context, id int64) (*message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.fail["get"]; err != nil {
		return nil, err
	}
	for _, m := range r.messages {
		if m.ID == id {
			found := m
			return &found, nil
		}
	}
	return nil, message.ErrMessageNotFound
}

func (r *fakeRepository) Update(ctx context.Context, m *message.Message, columns ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(columns) == 0 {
		return nil
	}
	for i := range r.messages {
		if r.messages[i].ID != m.ID {
			continue
		}
		for _, column := range columns {
			switch column {
			case "body":
				r.messages[i].Body = m.Body
			case "username":
				r.messages[i].Username = m.Username
			}
		}
		return r.fail["update"]
	}
	return message.ErrMessageNotFound
}

func (r *fakeRepository) Delete(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.messages {
		if r.messages[i].ID == id {
			r.messages = append(r.messages[:i], r.messages[i+1:]...)
			return r.fail["delete"]
		}
	}
	return message.ErrMessageNotFound
}

func (r *fakeRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

func (r *fakeRepository) get(id int64) (message.Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.messages {
		if m.ID == id {
			return m, true
		}
	}
	return message.Message{}, false
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

func ptr(s string) *string {
	return &s
}
