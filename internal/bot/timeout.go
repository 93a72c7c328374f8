package bot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/conversation"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

// expireConversation fires when a dialog has seen no activity for
// the configured TTL.  A dialog waiting for payment has tentatively
// held seats that must go back into the pool; earlier states hold
// nothing.
func (b *Bot) expireConversation(userID int64, name string) {
	ctx := b.logger.With().Int64("user_id", userID).Str("conversation", name).
		Logger().WithContext(context.Background())
	l := zerolog.Ctx(ctx)

	rec, err := b.store.Load(ctx, userID, name)
	if err != nil {
		l.Error().Err(err).Msg("load conversation on expiry failed")
		return
	}
	if rec == nil {
		return
	}
	l.Info().Str("state", string(rec.Current)).Msg("conversation expired")

	bookingLives := b.releaseDraftSeats(ctx, rec)
	b.cleanupMessages(rec)
	if err := b.store.Clear(ctx, userID, name); err != nil {
		l.Error().Err(err).Msg("clear expired conversation failed")
	}
	if bookingLives {
		b.reply(rec.ChatID, msgSessionExpiredBooked)
	} else {
		b.reply(rec.ChatID, msgSessionExpired)
	}
}

// releaseDraftSeats returns a reservation's tentatively-held seats
// to the pool.  The ticket's guarded move to CANCELED is the
// exactly-once gate: if the ticket already left CREATED (paid,
// approved, rejected) the seats are someone else's responsibility
// and nothing is released here.  Returns true in that case, so the
// caller can tell the user their booking stands rather than send
// them back to the start.
func (b *Bot) releaseDraftSeats(ctx context.Context, rec *conversation.Record) bool {
	if rec.Conversation != conversation.ConvReserve || rec.Reserve == nil {
		return false
	}
	d := rec.Reserve
	if !d.SeatsHeld || d.TicketID == 0 {
		return false
	}
	l := zerolog.Ctx(ctx)

	err := b.tickets.UpdateStatusFrom(ctx, d.TicketID, model.StatusCanceled, model.StatusCreated)
	if err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			l.Debug().Int64("ticket_id", d.TicketID).Msg("ticket already decided, seats not released")
			return true
		}
		l.Error().Err(err).Int64("ticket_id", d.TicketID).Msg("cancel ticket failed")
		return false
	}
	if err := b.scheduleEvents.AdjustSeats(ctx, d.ScheduleEventID, -d.QtyChild, -d.QtyAdult); err != nil {
		l.Error().Err(err).Int64("ticket_id", d.TicketID).Msg("release seats failed")
		b.notifyOperator("Не удалось вернуть места по отменённому билету, проверьте счётчики сеанса.")
		return false
	}
	d.SeatsHeld = false
	return false
}

// RestoreConversations reloads persisted dialog state after a
// process restart and re-arms each record's inactivity timer with
// whatever TTL remains.
func (b *Bot) RestoreConversations(ctx context.Context) error {
	records, err := b.store.Restore(ctx)
	if err != nil {
		return err
	}
	for _, rec := range records {
		remaining := b.cfg.ConversationTTL - time.Since(rec.UpdatedAt)
		if remaining < time.Second {
			remaining = time.Second
		}
		userID, name := rec.UserID, rec.Conversation
		b.timers.Arm(userID, name, remaining, func() {
			b.expireConversation(userID, name)
		})
	}
	b.logger.Info().Int("count", len(records)).Msg("conversations restored")
	return nil
}
