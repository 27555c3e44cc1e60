package ports

import (
	"context"
)

// TaskNotifyEvent is the payload handed to the messaging collaborator
// when a task touches a member other than the actor. Delivery is
// best-effort: a failed send never rolls back the state change that
// produced it.
type TaskNotifyEvent struct {
	SenderID    int64  `json:"senderId"`
	RecipientID int64  `json:"recipientId"`
	Message     string `json:"message"`
}

// OutboxEvent is one row written transactionally next to the state
// change it announces; the relay drains it to the broker.
type OutboxEvent struct {
	ID        string
	EventType string
	Payload   []byte
}

type TaskNotifyPublisher interface {
	PublishTaskNotify(ctx context.Context, evt TaskNotifyEvent) error
}
