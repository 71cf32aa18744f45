package events

import (
	"context"
	"errors"
	"testing"
)

func TestPublishInvokesSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher()
	var created, deleted int
	d.Subscribe(EventIssueCreated, func(context.Context, Event) error { created++; return nil })
	d.Subscribe(EventIssueDeleted, func(context.Context, Event) error { deleted++; return nil })

	if err := d.Publish(context.Background(), Event{Type: EventIssueCreated}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if created != 1 || deleted != 0 {
		t.Fatalf("unexpected counts created=%d deleted=%d", created, deleted)
	}
}

func TestPublishRunsAllHandlersAndJoinsErrors(t *testing.T) {
	d := NewInMemoryDispatcher()
	boom := errors.New("boom")
	var ran int
	d.Subscribe(EventProjectDeleted, func(context.Context, Event) error { ran++; return boom })
	d.Subscribe(EventProjectDeleted, func(context.Context, Event) error { ran++; return nil })

	err := d.Publish(context.Background(), Event{Type: EventProjectDeleted})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if ran != 2 {
		t.Fatalf("expected both handlers to run, got %d", ran)
	}
}
