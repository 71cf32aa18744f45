package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/sprintflow/internal/config"
	"github.com/spec-kit/sprintflow/internal/events"
	"github.com/spec-kit/sprintflow/internal/repository"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	users      repository.UserRepository
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, users repository.UserRepository, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		users:      users,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventProjectCreated, n.logEvent)
	n.dispatcher.Subscribe(events.EventProjectDeleted, n.logEvent)
	n.dispatcher.Subscribe(events.EventProjectMemberAdded, n.handleMemberAdded)
	n.dispatcher.Subscribe(events.EventIssueCreated, n.logEvent)
	n.dispatcher.Subscribe(events.EventIssueUpdated, n.logEvent)
	n.dispatcher.Subscribe(events.EventIssueDeleted, n.logEvent)
	n.dispatcher.Subscribe(events.EventIssueAssigned, n.handleIssueAssigned)
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("project_id", event.ProjectID),
		zap.String("issue_id", event.IssueID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleMemberAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ProjectMemberAddedPayload)
	if !ok {
		return n.logEvent(ctx, event)
	}
	n.sendEmail(ctx, event, payload.UserID, "you were added to a project")
	return nil
}

func (n *NotificationService) handleIssueAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.IssueAssignedPayload)
	if !ok {
		return n.logEvent(ctx, event)
	}
	n.sendEmail(ctx, event, payload.AssigneeID, "issue assigned: "+payload.Title)
	return nil
}

// sendEmail logs the notification that would be mailed to userID.
func (n *NotificationService) sendEmail(ctx context.Context, event events.Event, userID, subject string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || n.users == nil {
		return
	}
	user, err := n.users.GetByID(ctx, userID)
	if err != nil {
		n.logger.Warn("notification recipient lookup failed", zap.String("user_id", userID), zap.Error(err))
		return
	}
	n.logger.Info("sendEmailNotification",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", user.Email),
		zap.String("subject", subject),
		zap.String("event_type", string(event.Type)),
		zap.String("project_id", event.ProjectID),
		zap.String("issue_id", event.IssueID))
}
