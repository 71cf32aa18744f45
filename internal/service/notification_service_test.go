package service

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/sprintflow/internal/config"
	"github.com/spec-kit/sprintflow/internal/domain"
	"github.com/spec-kit/sprintflow/internal/events"
	"github.com/spec-kit/sprintflow/internal/repository/memory"
)

func TestNotificationServiceMailsAssignee(t *testing.T) {
	store := memory.NewStore()
	bob := &domain.User{Name: "Bob", Email: "bob@example.com", Role: domain.UserRoleMember}
	if err := store.Users().Create(context.Background(), bob); err != nil {
		t.Fatalf("create user: %v", err)
	}

	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	notifications := NewNotificationService(dispatcher, store.Users(), zap.New(core), config.NotificationConfig{EmailFrom: "noreply@example.com"})
	notifications.RegisterHandlers()

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:      events.EventIssueAssigned,
		ProjectID: "p1",
		IssueID:   "i1",
		Payload:   events.IssueAssignedPayload{AssigneeID: bob.ID, Title: "Bug1"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}

	sent := logs.FilterMessage("sendEmailNotification").All()
	if len(sent) != 1 {
		t.Fatalf("expected one email notification, got %d", len(sent))
	}
	fields := sent[0].ContextMap()
	if fields["to"] != "bob@example.com" || fields["from"] != "noreply@example.com" {
		t.Fatalf("unexpected notification fields %v", fields)
	}
}

func TestNotificationServiceSkipsEmailWithoutSender(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	dispatcher := events.NewInMemoryDispatcher()
	NewNotificationService(dispatcher, memory.NewStore().Users(), zap.New(core), config.NotificationConfig{}).RegisterHandlers()

	_ = dispatcher.Publish(context.Background(), events.Event{
		Type:    events.EventIssueAssigned,
		Payload: events.IssueAssignedPayload{AssigneeID: "u1", Title: "Bug1"},
	})
	_ = dispatcher.Publish(context.Background(), events.Event{Type: events.EventIssueCreated, IssueID: "i1"})

	if logs.FilterMessage("sendEmailNotification").Len() != 0 {
		t.Fatal("expected no email without a sender address")
	}
	if logs.FilterMessage(string(events.EventIssueCreated)).Len() != 1 {
		t.Fatal("expected lifecycle event to be logged")
	}
}
