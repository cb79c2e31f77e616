package service

import (
	"context"
	"sync"

	"github.com/spec-kit/ticket-activity/internal/events"
	"github.com/spec-kit/ticket-activity/internal/worker"
)

type published struct {
	room    string
	userID  int64
	event   events.Name
	payload any
}

// recordingBroadcaster captures calls in order.
type recordingBroadcaster struct {
	mu    sync.Mutex
	calls []published
}

func (b *recordingBroadcaster) Publish(room string, event events.Name, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, published{room: room, event: event, payload: payload})
}

func (b *recordingBroadcaster) Notify(userID int64, event events.Name, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = append(b.calls, published{userID: userID, event: event, payload: payload})
}

func (b *recordingBroadcaster) snapshot() []published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]published(nil), b.calls...)
}

func (b *recordingBroadcaster) inRoom(room string, event events.Name) []published {
	var out []published
	for _, c := range b.snapshot() {
		if c.room == room && c.event == event {
			out = append(out, c)
		}
	}
	return out
}

// inlineLanes runs tasks on the caller's goroutine.
type inlineLanes struct{}

func (inlineLanes) Submit(ctx context.Context, _ int64, task worker.Task) error {
	task(ctx)
	return nil
}
