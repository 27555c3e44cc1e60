package messaging

import (
	"context"
	"encoding/json"
	"time"

	"github.com/meedian/meedian-ams/task-schedule-service/internal/core/ports"
	amqp "github.com/rabbitmq/amqp091-go"
)

var _ ports.TaskNotifyPublisher = (*RabbitMQBroker)(nil)

// PublishTaskNotify hands one notification to the messaging
// collaborator. Fire-and-forget contract: the caller treats failures
// as best-effort.
func (rmq *RabbitMQBroker) PublishTaskNotify(ctx context.Context, evt ports.TaskNotifyEvent) error {
	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	// Respect context deadline
	if deadline, ok := ctx.Deadline(); ok {
		if time.Until(deadline) <= 0 {
			return ctx.Err()
		}
	}

	// Use circuit breaker to protect RabbitMQ publish operation
	_, err = rmq.cb.Execute(func() (interface{}, error) {
		err := rmq.ch.PublishWithContext(
			ctx,
			"",            // exchange (default)
			rmq.queueName, // routing key == queue name
			false,         // mandatory
			false,         // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
			},
		)
		return nil, err
	})
	return err
}
