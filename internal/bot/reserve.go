package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/conversation"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/payment"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/pricing"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/queue"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

var weekdayShort = [...]string{"вс", "пн", "вт", "ср", "чт", "пт", "сб"}

// startReserveFlow begins the ticket reservation dialog.  Any other
// in-progress flow for the user is cancelled first.
func (b *Bot) startReserveFlow(ctx context.Context, userID, chatID int64) {
	b.cancelAllConversations(ctx, userID, false)
	rec := &conversation.Record{
		UserID:       userID,
		ChatID:       chatID,
		Conversation: conversation.ConvReserve,
		Current:      conversation.StateStart,
		Reserve:      &conversation.ReserveDraft{},
	}
	b.renderReserveDates(ctx, rec, false)
}

// renderReserveDates renders the date-selection step.  It is also
// the restart point after a CapacityExceeded race.  Returns false
// when there is nothing to offer.
func (b *Bot) renderReserveDates(ctx context.Context, rec *conversation.Record, withBack bool) bool {
	now := time.Now()
	events, err := b.scheduleEvents.ListForMonth(ctx, now.Year(), now.Month())
	if err == nil {
		next, nextErr := b.scheduleEvents.ListForMonth(ctx, now.AddDate(0, 1, 0).Year(), now.AddDate(0, 1, 0).Month())
		if nextErr == nil {
			events = append(events, next...)
		}
	} else {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list schedule events failed")
		b.reply(rec.ChatID, msgInternalError)
		return false
	}

	var pairs [][2]string
	seen := make(map[string]bool)
	for _, ev := range events {
		if ev.StartsAt.Before(now) {
			continue
		}
		day := ev.StartsAt.Format("2006-01-02")
		if seen[day] {
			continue
		}
		seen[day] = true
		label := fmt.Sprintf("%s (%s)", ev.StartsAt.Format("02.01"), weekdayShort[ev.StartsAt.Weekday()])
		pairs = append(pairs, [2]string{label, "date:" + day})
	}
	if len(pairs) == 0 {
		b.reply(rec.ChatID, msgNoShowings)
		return false
	}
	b.prompt(rec, conversation.StateDate, msgChooseDate, append(pairs, navRow(withBack)...))
	return true
}

// handleReserveCallback routes inline-keyboard taps.  Every branch
// is gated on the state that rendered the keyboard: earlier prompts
// stay in the chat until the flow ends, and a tap on one of them
// must not yank the dialog backwards.
func (b *Bot) handleReserveCallback(ctx context.Context, rec *conversation.Record, chatID int64, data string) {
	switch {
	case strings.HasPrefix(data, "date:") && rec.Current == conversation.StateDate:
		day, err := time.Parse("2006-01-02", strings.TrimPrefix(data, "date:"))
		if err != nil {
			b.reply(chatID, msgInternalError)
			return
		}
		rec.Reserve.Date = day.Format("2006-01-02")
		b.renderReserveTimes(ctx, rec, day)

	case strings.HasPrefix(data, "se:") && rec.Current == conversation.StateTime:
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "se:"), 10, 64)
		if err != nil {
			b.reply(chatID, msgInternalError)
			return
		}
		rec.Reserve.ScheduleEventID = id
		b.renderReserveTickets(ctx, rec)

	case strings.HasPrefix(data, "bt:") && rec.Current == conversation.StateChoose:
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "bt:"), 10, 64)
		if err != nil {
			b.reply(chatID, msgInternalError)
			return
		}
		b.chooseReserveTicket(ctx, rec, id)

	case strings.HasPrefix(data, "wait:") && rec.Current == conversation.StateTime:
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "wait:"), 10, 64)
		if err != nil {
			b.reply(chatID, msgInternalError)
			return
		}
		b.joinWaitlist(ctx, rec, id)

	case data == "confirm:ok" && rec.Current == conversation.StateConfirm:
		b.finalizeReserve(ctx, rec)

	default:
		zerolog.Ctx(ctx).Debug().Str("data", data).Str("state", string(rec.Current)).
			Msg("tap on an out-of-step keyboard ignored")
	}
}

func (b *Bot) renderReserveTimes(ctx context.Context, rec *conversation.Record, day time.Time) {
	events, err := b.scheduleEvents.ListOnDate(ctx, day)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list showings failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	var pairs [][2]string
	for _, ev := range events {
		free := ev.FreeChildSeats()
		if free > 0 {
			label := fmt.Sprintf("%s %s (мест: %d)", ev.StartsAt.Format("15:04"), ev.TheaterEventName, free)
			pairs = append(pairs, [2]string{label, fmt.Sprintf("se:%d", ev.ID)})
		} else {
			label := fmt.Sprintf("%s %s — мест нет, лист ожидания", ev.StartsAt.Format("15:04"), ev.TheaterEventName)
			pairs = append(pairs, [2]string{label, fmt.Sprintf("wait:%d", ev.ID)})
		}
	}
	if len(pairs) == 0 {
		b.reprompt(rec, msgNoShowings)
		return
	}
	b.prompt(rec, conversation.StateTime, msgChooseTime, append(pairs, navRow(true)...))
}

func (b *Bot) renderReserveTickets(ctx context.Context, rec *conversation.Record) {
	se, te, err := b.loadShowing(ctx, rec.Reserve.ScheduleEventID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("load showing failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	baseTickets, err := b.baseTickets.ListAll(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list base tickets failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	now := time.Now()
	var pairs [][2]string
	for _, bt := range baseTickets {
		cost := b.prices.Resolve(ctx, se, te, &bt, now)
		label := fmt.Sprintf("%s — %d ₽", bt.Name, cost)
		pairs = append(pairs, [2]string{label, fmt.Sprintf("bt:%d", bt.ID)})
	}
	b.prompt(rec, conversation.StateChoose, msgChooseTicket, append(pairs, navRow(true)...))
}

// chooseReserveTicket validates availability for the chosen ticket
// type and either advances to contact collection or keeps the user
// at ticket selection with an explanation.
func (b *Bot) chooseReserveTicket(ctx context.Context, rec *conversation.Record, baseTicketID int64) {
	se, te, err := b.loadShowing(ctx, rec.Reserve.ScheduleEventID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("load showing failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	bt, err := b.baseTickets.GetByID(ctx, baseTicketID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("load base ticket failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	onlyChild := bt.QtyAdult == 0
	if !pricing.CheckAvailableSeats(se, bt.QtyChild, bt.QtyAdult, onlyChild) ||
		!pricing.CheckRatioConstraint(se, bt, te.Category, b.cfg.RatioExemptCategory) {
		b.reprompt(rec, msgSeatsGone)
		return
	}
	rec.Reserve.BaseTicketID = bt.ID
	rec.Reserve.QtyChild = bt.QtyChild
	rec.Reserve.QtyAdult = bt.QtyAdult
	rec.Reserve.Cost = b.prices.Resolve(ctx, se, te, bt, time.Now())
	b.prompt(rec, conversation.StateName, msgAskName, navRow(true))
}

func (b *Bot) handleReserveText(ctx context.Context, rec *conversation.Record, chatID int64, text string) {
	switch rec.Current {
	case conversation.StateName:
		rec.Reserve.Name = text
		b.prompt(rec, conversation.StatePhone, msgAskPhone, navRow(true))
	case conversation.StatePhone:
		phone, ok := NormalizePhone(text)
		if !ok {
			b.reprompt(rec, msgBadPhone)
			return
		}
		rec.Reserve.Phone = phone
		b.prompt(rec, conversation.StateEmail, msgAskEmail, navRow(true))
	case conversation.StateEmail:
		if !validEmail(text) {
			b.reprompt(rec, msgBadEmail)
			return
		}
		rec.Reserve.Email = strings.TrimSpace(text)
		b.renderReserveSummary(ctx, rec)
	}
}

func (b *Bot) renderReserveSummary(ctx context.Context, rec *conversation.Record) {
	se, te, err := b.loadShowing(ctx, rec.Reserve.ScheduleEventID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("load showing failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	bt, err := b.baseTickets.GetByID(ctx, rec.Reserve.BaseTicketID)
	if err != nil {
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	text := fmt.Sprintf(
		"Проверьте заявку:\n\n🎭 %s\n📅 %s в %s\n🎟 %s\n💰 %d ₽\n👤 %s\n📞 +7%s\n📧 %s",
		te.Name,
		se.StartsAt.Format("02.01.2006"), se.StartsAt.Format("15:04"),
		bt.Name, rec.Reserve.Cost,
		rec.Reserve.Name, rec.Reserve.Phone, rec.Reserve.Email)
	pairs := append([][2]string{{btnConfirm, "confirm:ok"}}, navRow(true)...)
	b.prompt(rec, conversation.StateConfirm, text, pairs)
}

// finalizeReserve holds the seats, creates the ticket and hands the
// booking off to admin approval and payment.  A seat race surfaces
// here as CapacityExceeded and restarts the user at date selection
// with the contact fields preserved.
func (b *Bot) finalizeReserve(ctx context.Context, rec *conversation.Record) {
	l := zerolog.Ctx(ctx)
	d := rec.Reserve

	err := b.scheduleEvents.AdjustSeats(ctx, d.ScheduleEventID, d.QtyChild, d.QtyAdult)
	if err != nil {
		if errors.Is(err, repository.ErrCapacityExceeded) {
			b.reply(rec.ChatID, msgSeatsGone)
			b.renderReserveDates(ctx, rec, false)
			return
		}
		l.Error().Err(err).Msg("hold seats failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	d.SeatsHeld = true

	ticket := &model.Ticket{
		UserID:          rec.UserID,
		ScheduleEventID: d.ScheduleEventID,
		BaseTicketID:    d.BaseTicketID,
		Cost:            d.Cost,
		Name:            d.Name,
		Phone:           d.Phone,
		Email:           d.Email,
	}
	if err := b.tickets.Create(ctx, ticket); err != nil {
		l.Error().Err(err).Msg("create ticket failed")
		// Undo the hold so the seats are not stranded.
		if relErr := b.scheduleEvents.AdjustSeats(ctx, d.ScheduleEventID, -d.QtyChild, -d.QtyAdult); relErr != nil {
			l.Error().Err(relErr).Msg("release seats after failed create")
		}
		d.SeatsHeld = false
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	d.TicketID = ticket.ID
	b.cleanupMessages(rec)

	sent, sendErr := b.tg.Send(tgbotapi.NewMessage(rec.ChatID, msgReserveDone))
	if sendErr != nil {
		l.Warn().Err(sendErr).Msg("send reserve summary failed")
	}
	b.sendTicketApprovalRequest(ctx, rec.ChatID, sent.MessageID, ticket)

	b.publishSheetTask(ctx, queue.SheetTask{
		Kind:            queue.TaskWriteReservation,
		TicketID:        ticket.ID,
		UserID:          rec.UserID,
		ScheduleEventID: d.ScheduleEventID,
		Name:            d.Name,
		Phone:           d.Phone,
		Cost:            d.Cost,
	})
	b.sendPaymentLink(ctx, rec, ticket)

	b.transition(rec, conversation.StatePaid)
	b.store.Save(rec)
	b.armTimeout(rec)
}

// sendTicketApprovalRequest publishes the admin-facing approval
// message with encoded confirm/reject tokens.
func (b *Bot) sendTicketApprovalRequest(ctx context.Context, userChatID int64, userMessageID int, ticket *model.Ticket) {
	se, te, err := b.loadShowing(ctx, ticket.ScheduleEventID)
	title := "?"
	when := "?"
	if err == nil {
		title = te.Name
		when = se.StartsAt.Format("02.01.2006 15:04")
	}
	text := fmt.Sprintf(
		"🆕 ЗАЯВКА НА БИЛЕТ #%d\n🎭 %s\n📅 %s\n💰 %d ₽\n👤 %s\n📞 +7%s",
		ticket.ID, title, when, ticket.Cost, ticket.Name, ticket.Phone)

	confirm := ApprovalToken{Action: ActionConfirm, Entity: EntityTicket, ChatID: userChatID, MessageID: userMessageID, RecordID: ticket.ID}
	reject := ApprovalToken{Action: ActionReject, Entity: EntityTicket, ChatID: userChatID, MessageID: userMessageID, RecordID: ticket.ID}
	msg := tgbotapi.NewMessage(b.cfg.AdminChatID, text)
	msg.ReplyMarkup = approvalMarkup(confirm, reject)
	if _, err := b.tg.Send(msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("send approval request failed")
	}
}

// sendPaymentLink creates a gateway payment for the ticket and sends
// the confirmation URL to the user.  Skipped when no gateway is
// configured; failures degrade to admin-side manual payment.
func (b *Bot) sendPaymentLink(ctx context.Context, rec *conversation.Record, ticket *model.Ticket) {
	if b.payments == nil {
		return
	}
	se, te, err := b.loadShowing(ctx, ticket.ScheduleEventID)
	desc := fmt.Sprintf("Билет #%d", ticket.ID)
	if err == nil {
		desc = fmt.Sprintf("Билет: %s, %s", te.Name, se.StartsAt.Format("02.01.2006 15:04"))
	}
	p, err := b.payments.Create(ctx, payment.CreateRequest{
		AmountRub:   ticket.Cost,
		Description: desc,
		Email:       ticket.Email,
		ReturnURL:   b.cfg.ReturnURL,
		Metadata: map[string]string{
			"ticket_id": strconv.FormatInt(ticket.ID, 10),
			"user_id":   strconv.FormatInt(ticket.UserID, 10),
		},
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("create payment failed")
		b.notifyOperator(fmt.Sprintf("Не удалось создать оплату для билета #%d: %v", ticket.ID, err))
		return
	}
	if err := b.tickets.SetPaymentID(ctx, ticket.ID, p.ID); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("store payment id failed")
	}
	b.reply(rec.ChatID, "Ссылка на оплату: "+p.ConfirmationURL)
}

func (b *Bot) joinWaitlist(ctx context.Context, rec *conversation.Record, scheduleEventID int64) {
	entry := &model.WaitlistEntry{
		UserID:          rec.UserID,
		ScheduleEventID: scheduleEventID,
		Name:            rec.Reserve.Name,
		Phone:           rec.Reserve.Phone,
	}
	if err := b.waitlist.Create(ctx, entry); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("create waitlist entry failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	b.publishSheetTask(ctx, queue.SheetTask{
		Kind:            queue.TaskWriteWaitlistEntry,
		WaitlistID:      entry.ID,
		UserID:          rec.UserID,
		ScheduleEventID: scheduleEventID,
	})
	b.reprompt(rec, msgWaitlistAdded)
}

func (b *Bot) loadShowing(ctx context.Context, scheduleEventID int64) (*model.ScheduleEvent, *model.TheaterEvent, error) {
	se, err := b.scheduleEvents.GetByID(ctx, scheduleEventID)
	if err != nil {
		return nil, nil, err
	}
	te, err := b.theaterEvents.GetByID(ctx, se.TheaterEventID)
	if err != nil {
		return nil, nil, err
	}
	return se, te, nil
}
