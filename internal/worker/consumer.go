package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"ragstack/internal/metrics"
	"ragstack/internal/platform/rabbitmq"
)

// handlerFunc processes one decoded task. A returned error nacks the
// delivery without requeue.
type handlerFunc func(ctx context.Context, task rabbitmq.Task) error

// consumer owns one channel on one queue and runs a single consume loop.
type consumer struct {
	conn      *amqp.Connection
	queueName string
	logger    *zap.Logger
	handle    handlerFunc

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newConsumer(conn *amqp.Connection, queueName string, logger *zap.Logger, handle handlerFunc) *consumer {
	return &consumer{
		conn:      conn,
		queueName: queueName,
		logger:    logger,
		handle:    handle,
	}
}

func (c *consumer) Start(ctx context.Context) error {
	if c.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	ch, err := c.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	_, err = ch.QueueDeclare(
		c.queueName,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(
		c.queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}

				var task rabbitmq.Task
				if err := json.Unmarshal(d.Body, &task); err != nil {
					c.logger.Error("worker decode task failed",
						zap.String("queue", c.queueName),
						zap.Error(err))
					metrics.QueueJobsTotal.WithLabelValues(c.queueName, "decode_error").Inc()
					_ = d.Nack(false, false)
					continue
				}

				if err := c.handle(workerCtx, task); err != nil {
					c.logger.Error("worker handle task failed",
						zap.String("queue", c.queueName),
						zap.String("kind", task.Kind),
						zap.Error(err))
					metrics.QueueJobsTotal.WithLabelValues(c.queueName, "error").Inc()
					_ = d.Nack(false, false)
					continue
				}

				metrics.QueueJobsTotal.WithLabelValues(c.queueName, "ok").Inc()
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (c *consumer) Close() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
}
