// Package events handles event emission for kinship graph changes
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/sequoia/pkg/tracing"

	"github.com/Ramsey-B/sequoia/pkg/kafka"
	"github.com/Ramsey-B/sequoia/pkg/models"
)

// Emitter publishes domain events and notification requests. Emission is
// best-effort: a broker failure is logged, never surfaced to the caller,
// because the record store is the source of truth.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitPersonCreated emits a person.created event
func (e *Emitter) EmitPersonCreated(ctx context.Context, person *models.Person, actorID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitPersonCreated")
	defer span.End()

	data, _ := json.Marshal(person)
	e.publish(ctx, &kafka.DomainEvent{
		EventType: "person.created",
		SubjectID: person.ID,
		ActorID:   actorID,
		Data:      data,
	})
}

// EmitPersonUpdated emits a person.updated event
func (e *Emitter) EmitPersonUpdated(ctx context.Context, personID string, actorID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitPersonUpdated")
	defer span.End()

	e.publish(ctx, &kafka.DomainEvent{
		EventType: "person.updated",
		SubjectID: personID,
		ActorID:   actorID,
	})
}

// EmitRelationshipCreated emits a relationship.created event
func (e *Emitter) EmitRelationshipCreated(ctx context.Context, rel *models.Relationship, actorID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRelationshipCreated")
	defer span.End()

	data, _ := json.Marshal(rel)
	e.publish(ctx, &kafka.DomainEvent{
		EventType: "relationship.created",
		SubjectID: rel.ID,
		ActorID:   actorID,
		Data:      data,
	})
}

// EmitRelationshipRemoved emits a relationship.removed event
func (e *Emitter) EmitRelationshipRemoved(ctx context.Context, relID string, actorID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRelationshipRemoved")
	defer span.End()

	e.publish(ctx, &kafka.DomainEvent{
		EventType: "relationship.removed",
		SubjectID: relID,
		ActorID:   actorID,
	})
}

// EmitFamilyUpdated emits a family.updated event
func (e *Emitter) EmitFamilyUpdated(ctx context.Context, rootPersonID string, actorID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitFamilyUpdated")
	defer span.End()

	e.publish(ctx, &kafka.DomainEvent{
		EventType: "family.updated",
		SubjectID: rootPersonID,
		ActorID:   actorID,
	})
}

// EmitChangeSubmitted emits a change.submitted event
func (e *Emitter) EmitChangeSubmitted(ctx context.Context, change *models.PendingChange) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitChangeSubmitted")
	defer span.End()

	e.publish(ctx, &kafka.DomainEvent{
		EventType: "change.submitted",
		SubjectID: change.ID,
		ActorID:   change.CreatedByID,
	})
}

// EmitChangeResolved emits a change.resolved event
func (e *Emitter) EmitChangeResolved(ctx context.Context, change *models.PendingChange, resolvedByID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitChangeResolved")
	defer span.End()

	data, _ := json.Marshal(map[string]any{"status": change.Status})
	e.publish(ctx, &kafka.DomainEvent{
		EventType: "change.resolved",
		SubjectID: change.ID,
		ActorID:   resolvedByID,
		Data:      data,
	})
}

// NotifyApprovalRequested asks each designated approver to review a change
func (e *Emitter) NotifyApprovalRequested(ctx context.Context, change *models.PendingChange, approverIDs []string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.NotifyApprovalRequested")
	defer span.End()

	for _, approverID := range approverIDs {
		e.notify(ctx, &kafka.Notification{
			RecipientID: approverID,
			Kind:        "approval_requested",
			Subject:     "A change is waiting for your review",
			Body:        fmt.Sprintf("A %s change needs your approval.", change.ChangeType),
			ChangeID:    change.ID,
		})
	}
}

// NotifyChangeResolved tells the submitter how their change was resolved
func (e *Emitter) NotifyChangeResolved(ctx context.Context, change *models.PendingChange) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.NotifyChangeResolved")
	defer span.End()

	e.notify(ctx, &kafka.Notification{
		RecipientID: change.CreatedByID,
		Kind:        "change_resolved",
		Subject:     fmt.Sprintf("Your change was %s", change.Status),
		Body:        fmt.Sprintf("Your %s change has been %s.", change.ChangeType, change.Status),
		ChangeID:    change.ID,
	})
}

// NotifyProfileClaimed tells a user their profile claim went through
func (e *Emitter) NotifyProfileClaimed(ctx context.Context, userID string, personID string) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.NotifyProfileClaimed")
	defer span.End()

	e.notify(ctx, &kafka.Notification{
		RecipientID: userID,
		Kind:        "profile_claimed",
		Subject:     "Your profile is now linked",
		Body:        "Your account has been linked to a person in the family tree.",
		ChangeID:    personID,
	})
}

func (e *Emitter) publish(ctx context.Context, event *kafka.DomainEvent) {
	if e == nil || e.producer == nil {
		return
	}
	if err := e.producer.PublishDomainEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"event_type": event.EventType}).Error("Failed to emit domain event")
	}
}

func (e *Emitter) notify(ctx context.Context, notification *kafka.Notification) {
	if e == nil || e.producer == nil {
		return
	}
	if err := e.producer.PublishNotification(ctx, notification); err != nil {
		e.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"kind": notification.Kind}).Error("Failed to emit notification")
	}
}
