package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Notifier delivers a dead-letter notice to an operator.  The bot
// wires this to a message into the admin chat.
type Notifier func(ctx context.Context, text string)

// StartDeadLetterConsumer consumes the sheets.deadletter queue and
// surfaces each failed task to the operator.  It runs a reconnect
// loop with exponential backoff and returns only when ctx is
// cancelled; broker and processing errors are logged and the loop
// keeps running so the bot continues operating without the broker.
func StartDeadLetterConsumer(ctx context.Context, url string, notify Notifier, logger zerolog.Logger) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			logger.Warn().Err(err).Dur("retry_in", backoff).Msg("deadletter: dial failed")
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second // reset after successful connect

		if err := consumeDeadLetters(ctx, conn, notify, logger); err != nil {
			logger.Warn().Err(err).Msg("deadletter: consume loop ended, reconnecting")
			_ = conn.Close()
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
			}
		}
	}
}

func consumeDeadLetters(ctx context.Context, conn *amqp.Connection, notify Notifier, logger zerolog.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	msgs, err := ch.Consume(DeadLetterQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			var task SheetTask
			if err := json.Unmarshal(d.Body, &task); err != nil {
				logger.Error().Err(err).Msg("deadletter: undecodable message")
				_ = d.Nack(false, false) // do not requeue, it will never decode
				continue
			}
			if notify != nil {
				notify(ctx, formatDeadLetter(task))
			}
			logger.Warn().
				Str("kind", task.Kind).
				Int64("ticket_id", task.TicketID).
				Int64("custom_event_id", task.CustomEventID).
				Msg("sheet task dead-lettered")
			_ = d.Ack(false)
		}
	}
}

func formatDeadLetter(task SheetTask) string {
	return fmt.Sprintf(
		"⚠️ Запись в таблицу не прошла после всех попыток.\nЗадача: %s\nБилет: %d, заказ: %d, статус: %s.\nПеренесите данные вручную.",
		task.Kind, task.TicketID, task.CustomEventID, task.Status)
}
