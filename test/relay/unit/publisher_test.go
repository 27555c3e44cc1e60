// Package unit contains unit tests for the outbox relay service.
// The relay is responsible for:
// 1. Listening to PostgreSQL NOTIFY events
// 2. Processing outbox events
// 3. Publishing task notifications to RabbitMQ
//
// Unit tests mock the broker side with MockTaskNotifyPublisher; the
// database side is exercised by the repository integration tests.
package unit

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/domain"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/services"
	"github.com/meedian/meedian-ams/task-schedule-service/test/mocks"
)

// TestOutboxPayload_RoundTripsToPublisher verifies that the payload the
// task service writes to the outbox is exactly what the relay hands to
// the publisher after unmarshaling.
func TestOutboxPayload_RoundTripsToPublisher(t *testing.T) {
	ctx := context.Background()

	roster := mocks.NewMockRosterRepository()
	roster.SeedMember(domain.Member{ID: 7, Name: "Asha", Email: "asha@school.edu", Role: domain.RoleMember})
	tasks := mocks.NewMockTaskRepository()
	publisher := mocks.NewMockTaskNotifyPublisher()
	svc := services.NewTaskService(tasks, services.NewValidator(roster), publisher)

	admin := domain.Principal{ID: 1, Role: domain.RoleAdmin}
	if _, err := svc.CreateTask(ctx, admin, ports.CreateTaskRequest{Title: "Set up lab", Assignees: []int64{7}}); err != nil {
		t.Fatalf("CreateTask() error: %v", err)
	}

	events := tasks.OutboxEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 outbox event, got %d", len(events))
	}
	if events[0].EventType != services.TaskNotifyEventType {
		t.Fatalf("event type = %s, want %s", events[0].EventType, services.TaskNotifyEventType)
	}

	// The wire contract is {senderId, recipientId, message}.
	var raw map[string]any
	if err := json.Unmarshal(events[0].Payload, &raw); err != nil {
		t.Fatalf("payload should be JSON: %v", err)
	}
	for _, key := range []string{"senderId", "recipientId", "message"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("payload missing %q field: %s", key, events[0].Payload)
		}
	}

	// The relay's side of the contract: unmarshal and publish.
	var evt ports.TaskNotifyEvent
	if err := json.Unmarshal(events[0].Payload, &evt); err != nil {
		t.Fatalf("payload should unmarshal into TaskNotifyEvent: %v", err)
	}
	if err := publisher.PublishTaskNotify(ctx, evt); err != nil {
		t.Fatalf("PublishTaskNotify() error: %v", err)
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(published))
	}
	if published[0].SenderID != 1 || published[0].RecipientID != 7 {
		t.Errorf("unexpected routing %+v", published[0])
	}
	if published[0].Message == "" {
		t.Error("notification message should not be empty")
	}
}

// TestMockPublisher_ErrorInjection tests error injection.
func TestMockPublisher_ErrorInjection(t *testing.T) {
	publisher := mocks.NewMockTaskNotifyPublisher()
	publisher.PublishError = context.DeadlineExceeded

	event := ports.TaskNotifyEvent{SenderID: 1, RecipientID: 7, Message: "x"}

	err := publisher.PublishTaskNotify(context.Background(), event)
	if err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded error, got: %v", err)
	}

	// Verify event was NOT captured on error
	if events := publisher.GetPublishedEvents(); len(events) != 0 {
		t.Errorf("expected 0 events after error, got %d", len(events))
	}
	if publisher.GetPublishCount() != 1 {
		t.Errorf("call should still be counted, got %d", publisher.GetPublishCount())
	}
}
