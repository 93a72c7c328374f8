package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/conversation"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/payment"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/queue"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

// HandlePaymentNotification reacts to gateway webhooks.  Guarded
// status updates make redelivered notifications no-ops, so the
// gateway's at-least-once delivery needs no extra bookkeeping.
func (b *Bot) HandlePaymentNotification(ctx context.Context, n payment.Notification) error {
	ctx = b.logger.With().Str("payment_id", n.Object.ID).Str("event", n.Event).
		Logger().WithContext(ctx)
	l := zerolog.Ctx(ctx)

	switch n.Event {
	case payment.EventSucceeded:
	case payment.EventCanceled:
		l.Info().Msg("payment canceled by gateway")
		return nil
	default:
		l.Debug().Msg("ignoring webhook event")
		return nil
	}

	meta := n.Object.Metadata
	if id, ok := meta["ticket_id"]; ok {
		return b.ticketPaid(ctx, id, meta["user_id"])
	}
	if id, ok := meta["custom_event_id"]; ok {
		return b.birthdayPaid(ctx, id, meta["user_id"])
	}
	l.Warn().Msg("webhook without known metadata")
	return nil
}

func (b *Bot) ticketPaid(ctx context.Context, rawID, rawUserID string) error {
	l := zerolog.Ctx(ctx)
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad ticket_id metadata %q: %w", rawID, err)
	}
	err = b.tickets.UpdateStatusFrom(ctx, id, model.StatusPaid, model.StatusCreated)
	if errors.Is(err, repository.ErrStatusConflict) {
		l.Debug().Int64("ticket_id", id).Msg("ticket already left CREATED, webhook ignored")
		return nil
	}
	if err != nil {
		return err
	}
	l.Info().Int64("ticket_id", id).Msg("ticket paid")

	if chatID, ok := parseChatID(rawUserID); ok {
		b.reply(chatID, msgTicketPaid)
	}
	b.notifyOperator(fmt.Sprintf("💳 Билет #%d оплачен.", id))
	b.publishSheetTask(ctx, queue.SheetTask{
		Kind:     queue.TaskUpdateTicketStatus,
		TicketID: id,
		Status:   string(model.StatusPaid),
	})
	return nil
}

func (b *Bot) birthdayPaid(ctx context.Context, rawID, rawUserID string) error {
	l := zerolog.Ctx(ctx)
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("bad custom_event_id metadata %q: %w", rawID, err)
	}
	err = b.customEvents.UpdateStatusFrom(ctx, id, model.StatusPaid, model.StatusApproved)
	if errors.Is(err, repository.ErrStatusConflict) {
		l.Debug().Int64("custom_event_id", id).Msg("order already left APPROVED, webhook ignored")
		return nil
	}
	if err != nil {
		return err
	}
	l.Info().Int64("custom_event_id", id).Msg("birthday order paid")

	if chatID, ok := parseChatID(rawUserID); ok {
		b.reply(chatID, msgTicketPaid)
		b.endConversationQuietly(ctx, chatID, conversation.ConvBirthdayPaid)
	}
	b.notifyOperator(fmt.Sprintf("💳 Заказ дня рождения #%d оплачен.", id))
	b.publishSheetTask(ctx, queue.SheetTask{
		Kind:          queue.TaskUpdateCustomEventStatus,
		CustomEventID: id,
		Status:        string(model.StatusPaid),
	})
	return nil
}

// parseChatID turns the user_id metadata back into a chat id.  In
// private chats the two are the same value.
func parseChatID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	return id, err == nil && id != 0
}
