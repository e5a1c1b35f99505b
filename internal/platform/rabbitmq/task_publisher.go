package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Task is the JSON envelope carried on every work queue. Kind names the
// operation within the queue, Payload is operation-specific.
type Task struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// DocumentTask payload for document_processing and embedding_generation.
type DocumentTask struct {
	DocumentID string `json:"document_id"`
	TenantID   string `json:"tenant_id"`
}

// ConnectorTask payload for connector_sync.
type ConnectorTask struct {
	ConnectorID string `json:"connector_id"`
	TenantID    string `json:"tenant_id"`
}

// EvaluationTask payload for evaluation.
type EvaluationTask struct {
	EvaluationID string `json:"evaluation_id"`
	TenantID     string `json:"tenant_id"`
}

type TaskPublisher struct {
	conn *amqp.Connection
}

func NewTaskPublisher(conn *amqp.Connection) *TaskPublisher {
	return &TaskPublisher{conn: conn}
}

// Publish marshals the payload into a Task envelope and sends it to queue
// with persistent delivery. The queue is declared durable on every publish
// so producers and consumers can start in any order.
func (p *TaskPublisher) Publish(ctx context.Context, queue, kind string, payload any) error {
	ch, err := p.conn.Channel()
	if err != nil {
		return fmt.Errorf("open rabbitmq channel failed: %w", err)
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue failed: %w", err)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal task payload failed: %w", err)
	}
	body, err := json.Marshal(Task{Kind: kind, Payload: raw})
	if err != nil {
		return fmt.Errorf("marshal task envelope failed: %w", err)
	}

	if err := ch.PublishWithContext(
		ctx,
		"",
		queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	); err != nil {
		return fmt.Errorf("publish task failed: %w", err)
	}
	return nil
}
