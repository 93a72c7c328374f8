package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/conversation"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/queue"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

// handleApprovalCallback processes an admin's confirm/reject tap.
// The guarded status update in the database is the authoritative
// single-use check; everything after it (keyboard removal, user
// notification, message cleanup) is best-effort and safe to repeat.
func (b *Bot) handleApprovalCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	l := zerolog.Ctx(ctx)
	adminChatID := cq.Message.Chat.ID

	token, err := DecodeApprovalToken(cq.Data)
	if err != nil {
		l.Warn().Err(err).Msg("undecodable approval callback")
		b.removeInlineKeyboard(adminChatID, cq.Message.MessageID)
		return
	}

	switch token.Entity {
	case EntityTicket:
		err = b.decideTicket(ctx, token)
	case EntityEvent:
		err = b.decideBirthday(ctx, token)
	}
	switch {
	case errors.Is(err, repository.ErrStatusConflict):
		b.reply(adminChatID, "Эта заявка уже обработана.")
		b.removeInlineKeyboard(adminChatID, cq.Message.MessageID)
		return
	case errors.Is(err, repository.ErrTicketNotFound), errors.Is(err, repository.ErrCustomEventNotFound):
		b.reply(adminChatID, fmt.Sprintf("Заявка #%d не найдена, возможно кнопка из старого сообщения.", token.RecordID))
		b.removeInlineKeyboard(adminChatID, cq.Message.MessageID)
		return
	case err != nil:
		l.Error().Err(err).Int64("record_id", token.RecordID).Str("entity", token.Entity).
			Msg("approval decision failed")
		b.reply(adminChatID, msgInternalError)
		return
	}

	b.removeInlineKeyboard(adminChatID, cq.Message.MessageID)
	verdict := "подтверждена"
	if token.Action == ActionReject {
		verdict = "отклонена"
	}
	b.reply(adminChatID, fmt.Sprintf("Заявка #%d %s.", token.RecordID, verdict))
}

// decideTicket applies an admin decision to a ticket reservation.
func (b *Bot) decideTicket(ctx context.Context, token ApprovalToken) error {
	l := zerolog.Ctx(ctx)

	to := model.StatusApproved
	if token.Action == ActionReject {
		to = model.StatusRejected
	}
	if err := b.tickets.UpdateStatusFrom(ctx, token.RecordID, to, model.StatusCreated, model.StatusPaid); err != nil {
		return err
	}

	ticket, err := b.tickets.GetByID(ctx, token.RecordID)
	if err != nil {
		return err
	}
	bt, err := b.baseTickets.GetByID(ctx, ticket.BaseTicketID)
	if err != nil {
		return err
	}

	if token.Action == ActionConfirm {
		if err := b.scheduleEvents.PromoteSeats(ctx, ticket.ScheduleEventID, bt.QtyChild, bt.QtyAdult); err != nil {
			// The approval stands; the counter drift needs a human.
			l.Error().Err(err).Int64("ticket_id", ticket.ID).Msg("promote seats failed")
			b.notifyOperator(fmt.Sprintf("Билет #%d подтверждён, но счётчики мест не сошлись. Проверьте сеанс %d.", ticket.ID, ticket.ScheduleEventID))
		}
		b.reply(token.ChatID, msgTicketApproved)
	} else {
		if err := b.scheduleEvents.AdjustSeats(ctx, ticket.ScheduleEventID, -bt.QtyChild, -bt.QtyAdult); err != nil {
			l.Error().Err(err).Int64("ticket_id", ticket.ID).Msg("release seats failed")
		}
		b.reply(token.ChatID, msgTicketRejected)
	}

	// The payment prompt in the user's chat is stale either way.
	b.deleteMessage(token.ChatID, token.MessageID)
	b.endConversationQuietly(ctx, ticket.UserID, "")

	b.publishSheetTask(ctx, queue.SheetTask{
		Kind:     queue.TaskUpdateTicketStatus,
		TicketID: ticket.ID,
		UserID:   ticket.UserID,
		Status:   string(to),
	})
	return nil
}

// decideBirthday applies an admin decision to a birthday order.
func (b *Bot) decideBirthday(ctx context.Context, token ApprovalToken) error {
	to := model.StatusApproved
	if token.Action == ActionReject {
		to = model.StatusRejected
	}
	if err := b.customEvents.UpdateStatusFrom(ctx, token.RecordID, to, model.StatusCreated, model.StatusPaid); err != nil {
		return err
	}
	ce, err := b.customEvents.GetByID(ctx, token.RecordID)
	if err != nil {
		return err
	}
	if token.Action == ActionConfirm {
		b.reply(token.ChatID, msgBdayApproved)
	} else {
		b.reply(token.ChatID, msgBdayRejected)
	}
	b.deleteMessage(token.ChatID, token.MessageID)

	b.publishSheetTask(ctx, queue.SheetTask{
		Kind:          queue.TaskUpdateCustomEventStatus,
		CustomEventID: ce.ID,
		UserID:        ce.UserID,
		Status:        string(to),
	})
	return nil
}

// endConversationQuietly clears a user's dialog state without seat
// release or user-facing messaging.  Used when the booking outcome
// is decided externally (admin decision, payment webhook) and the
// dialog is just waiting.  Empty name clears whichever flow is
// active.
func (b *Bot) endConversationQuietly(ctx context.Context, userID int64, name string) {
	var rec *conversation.Record
	if name == "" {
		rec = b.activeConversation(ctx, userID)
	} else {
		rec, _ = b.store.Load(ctx, userID, name)
	}
	if rec == nil {
		return
	}
	b.cleanupMessages(rec)
	b.timers.Cancel(userID, rec.Conversation)
	if err := b.store.Clear(ctx, userID, rec.Conversation); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("clear conversation failed")
	}
}
