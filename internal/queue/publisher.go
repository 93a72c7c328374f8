package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	// SheetTasksQueue carries pending spreadsheet writes.
	SheetTasksQueue = "sheets.tasks"
	// DeadLetterQueue receives tasks the worker gave up on.
	DeadLetterQueue = "sheets.deadletter"
)

// Publisher publishes SheetTask messages to the broker.  Publishing
// is best-effort from the caller's point of view: the booking flow
// must complete even when the broker is down, so callers log the
// returned error and continue.  Messages are marked persistent and
// the queue durable, so accepted tasks survive a broker restart.
type Publisher struct {
	url    string
	logger zerolog.Logger
}

// NewPublisher constructs a Publisher for the given broker URL.
func NewPublisher(url string, logger zerolog.Logger) *Publisher {
	return &Publisher{url: url, logger: logger}
}

// Publish marshals the task and delivers it to the sheets.tasks
// queue.  The connection is dialed per publish; any error is logged
// and returned so the caller can choose to ignore it.
func (p *Publisher) Publish(ctx context.Context, task SheetTask) error {
	task.EnqueuedAt = time.Now().UTC()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	// Idempotent declare; durable so tasks survive broker restarts.
	if _, err := ch.QueueDeclare(SheetTasksQueue, true, false, false, false, nil); err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(task)
	if err != nil {
		p.logger.Error().Err(err).Msg("rabbitmq: marshal task failed")
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    task.EnqueuedAt,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", SheetTasksQueue, false, false, pub); err != nil {
		p.logger.Error().Err(err).Str("kind", task.Kind).Msg("rabbitmq: publish failed")
		return err
	}
	p.logger.Debug().Str("kind", task.Kind).Msg("sheet task published")
	return nil
}
