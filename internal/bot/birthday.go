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
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/queue"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

// Party show formats offered in the birthday dialog.  The cost of a
// format lives in admin settings under birthday_cost_<format> so it
// can be changed without a release.
const (
	formatShow          = "show"
	formatShowAnimation = "show_animation"
)

var formatLabels = map[string]string{
	formatShow:          "Спектакль",
	formatShowAnimation: "Спектакль + аниматоры",
}

// startBirthdayFlow begins the birthday-party order dialog.
func (b *Bot) startBirthdayFlow(ctx context.Context, userID, chatID int64) {
	b.cancelAllConversations(ctx, userID, false)
	rec := &conversation.Record{
		UserID:       userID,
		ChatID:       chatID,
		Conversation: conversation.ConvBirthdayOrder,
		Current:      conversation.StateStart,
		Birthday:     &conversation.BirthdayDraft{},
	}
	pairs := [][2]string{
		{"🏠 В театре", "place:theater"},
		{"🚗 Выездной", "place:offsite"},
	}
	b.prompt(rec, conversation.StatePlace, msgBdayPlace, append(pairs, navRow(false)...))
}

// handleBirthdayCallback routes inline-keyboard taps, each gated on
// the state whose keyboard carries the button so stale prompts left
// in the chat cannot rewind the dialog.
func (b *Bot) handleBirthdayCallback(ctx context.Context, rec *conversation.Record, chatID int64, data string) {
	switch {
	case data == "place:theater" && rec.Current == conversation.StatePlace:
		rec.Birthday.Place = model.PlaceTheater
		rec.Birthday.Address = ""
		b.prompt(rec, conversation.StateDate, msgBdayDate, navRow(true))

	case data == "place:offsite" && rec.Current == conversation.StatePlace:
		rec.Birthday.Place = model.PlaceOffsite
		b.prompt(rec, conversation.StateAddress, msgBdayAddress, navRow(true))

	case strings.HasPrefix(data, "ev:") && rec.Current == conversation.StateChoose:
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "ev:"), 10, 64)
		if err != nil {
			b.reply(chatID, msgInternalError)
			return
		}
		rec.Birthday.TheaterEventID = id
		b.prompt(rec, conversation.StateAge, msgBdayAge, navRow(true))

	case strings.HasPrefix(data, "fmt:") && rec.Current == conversation.StateFormat:
		format := strings.TrimPrefix(data, "fmt:")
		if _, ok := formatLabels[format]; !ok {
			b.reply(chatID, msgInternalError)
			return
		}
		rec.Birthday.Format = format
		b.prompt(rec, conversation.StateQtyChild, msgBdayQtyChild, navRow(true))

	case data == "confirm:ok" && rec.Current == conversation.StateConfirm:
		b.finalizeBirthday(ctx, rec)

	default:
		zerolog.Ctx(ctx).Debug().Str("data", data).Str("state", string(rec.Current)).
			Msg("tap on an out-of-step keyboard ignored")
	}
}

func (b *Bot) handleBirthdayText(ctx context.Context, rec *conversation.Record, chatID int64, text string) {
	d := rec.Birthday
	switch rec.Current {
	case conversation.StateAddress:
		d.Address = text
		b.prompt(rec, conversation.StateDate, msgBdayDate, navRow(true))

	case conversation.StateDate:
		day, err := time.Parse("02.01.2006", text)
		if err != nil || day.Before(time.Now().Truncate(24*time.Hour)) {
			b.reprompt(rec, msgBadDate)
			return
		}
		d.Date = day.Format("2006-01-02")
		b.prompt(rec, conversation.StateTime, msgBdayTime, navRow(true))

	case conversation.StateTime:
		at, err := time.Parse("15:04", text)
		if err != nil {
			b.reprompt(rec, msgBadTime)
			return
		}
		d.Time = at.Format("15:04")
		b.renderBirthdayEvents(ctx, rec)

	case conversation.StateAge:
		age, ok := ParseAge(text)
		if !ok {
			b.reprompt(rec, msgBadAge)
			return
		}
		d.Age = age
		b.renderBirthdayFormats(rec)

	case conversation.StateQtyChild:
		qty, ok := ParseQty(text, 1, b.childCap(ctx, d))
		if !ok {
			b.reprompt(rec, fmt.Sprintf("Введите число от 1 до %d.", b.childCap(ctx, d)))
			return
		}
		d.QtyChild = qty
		b.prompt(rec, conversation.StateQtyAdult, msgBdayQtyAdult, navRow(true))

	case conversation.StateQtyAdult:
		qty, ok := ParseQty(text, 1, b.cfg.MaxAdults)
		if !ok {
			b.reprompt(rec, fmt.Sprintf("Введите число от 1 до %d.", b.cfg.MaxAdults))
			return
		}
		d.QtyAdult = qty
		b.prompt(rec, conversation.StateNameChld, msgBdayChildName, navRow(true))

	case conversation.StateNameChld:
		d.ChildName = text
		b.prompt(rec, conversation.StateName, msgBdayName, navRow(true))

	case conversation.StateName:
		d.Name = text
		b.prompt(rec, conversation.StatePhone, msgAskPhone, navRow(true))

	case conversation.StatePhone:
		phone, ok := NormalizePhone(text)
		if !ok {
			b.reprompt(rec, msgBadPhone)
			return
		}
		d.Phone = phone
		b.prompt(rec, conversation.StateNote, msgBdayNote, navRow(true))

	case conversation.StateNote:
		if text != "-" {
			d.Note = text
		}
		b.renderBirthdaySummary(ctx, rec)
	}
}

func (b *Bot) renderBirthdayEvents(ctx context.Context, rec *conversation.Record) {
	events, err := b.theaterEvents.ListForBirthdays(ctx)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list birthday productions failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	var pairs [][2]string
	for _, ev := range events {
		label := ev.Name
		if ev.MinAgeChild > 0 {
			label = fmt.Sprintf("%s (%s+)", ev.Name, formatAge(ev.MinAgeChild))
		}
		pairs = append(pairs, [2]string{label, fmt.Sprintf("ev:%d", ev.ID)})
	}
	if len(pairs) == 0 {
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	b.prompt(rec, conversation.StateChoose, msgBdayEvent, append(pairs, navRow(true)...))
}

func (b *Bot) renderBirthdayFormats(rec *conversation.Record) {
	pairs := [][2]string{
		{formatLabels[formatShow], "fmt:" + formatShow},
		{formatLabels[formatShowAnimation], "fmt:" + formatShowAnimation},
	}
	b.prompt(rec, conversation.StateFormat, msgBdayFormat, append(pairs, navRow(true)...))
}

// childCap is the party size limit for the chosen venue, further
// reduced by the production's own guest cap when it has one.
func (b *Bot) childCap(ctx context.Context, d *conversation.BirthdayDraft) int {
	limit := b.cfg.MaxChildrenOnSite
	if d.Place == model.PlaceOffsite {
		limit = b.cfg.MaxChildrenOffsite
	}
	if d.TheaterEventID != 0 {
		te, err := b.theaterEvents.GetByID(ctx, d.TheaterEventID)
		if err == nil && te.MaxBirthdayGuests > 0 && te.MaxBirthdayGuests < limit {
			limit = te.MaxBirthdayGuests
		}
	}
	return limit
}

func (b *Bot) renderBirthdaySummary(ctx context.Context, rec *conversation.Record) {
	d := rec.Birthday
	te, err := b.theaterEvents.GetByID(ctx, d.TheaterEventID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("load production failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	place := "в театре"
	if d.Place == model.PlaceOffsite {
		place = "выездной, " + d.Address
	}
	cost := b.birthdayCost(ctx, d.Format)
	text := fmt.Sprintf(
		"Проверьте заказ:\n\n🎂 %s, %s лет\n🎭 %s (%s)\n📍 %s\n📅 %s в %s\n👧 детей: %d, 👨 взрослых: %d\n💰 %d ₽\n👤 %s, +7%s\n📝 %s",
		d.ChildName, formatAge(d.Age), te.Name, formatLabels[d.Format], place,
		d.Date, d.Time, d.QtyChild, d.QtyAdult, cost, d.Name, d.Phone, noteOrDash(d.Note))
	pairs := append([][2]string{{btnConfirm, "confirm:ok"}}, navRow(true)...)
	b.prompt(rec, conversation.StateConfirm, text, pairs)
}

// finalizeBirthday persists the order, notifies admins for approval
// and ends the dialog.  Payment happens later via the pay command,
// after an admin approves.
func (b *Bot) finalizeBirthday(ctx context.Context, rec *conversation.Record) {
	l := zerolog.Ctx(ctx)
	d := rec.Birthday
	ce := &model.CustomEvent{
		UserID:         rec.UserID,
		Place:          d.Place,
		Address:        d.Address,
		Date:           d.Date,
		Time:           d.Time,
		TheaterEventID: d.TheaterEventID,
		Age:            d.Age,
		Format:         d.Format,
		QtyChild:       d.QtyChild,
		QtyAdult:       d.QtyAdult,
		ChildName:      d.ChildName,
		Name:           d.Name,
		Phone:          d.Phone,
		Note:           d.Note,
		Cost:           b.birthdayCost(ctx, d.Format),
	}
	if err := b.customEvents.Create(ctx, ce); err != nil {
		l.Error().Err(err).Msg("create birthday order failed")
		b.reply(rec.ChatID, msgInternalError)
		return
	}
	d.CustomEventID = ce.ID

	sent, sendErr := b.tg.Send(tgbotapi.NewMessage(rec.ChatID, msgBdayDone))
	if sendErr != nil {
		l.Warn().Err(sendErr).Msg("send birthday summary failed")
	}
	b.sendBirthdayApprovalRequest(ctx, rec.ChatID, sent.MessageID, ce)

	b.publishSheetTask(ctx, queue.SheetTask{
		Kind:          queue.TaskWriteBirthdayOrder,
		CustomEventID: ce.ID,
		UserID:        rec.UserID,
		Name:          d.Name,
		Phone:         d.Phone,
		Cost:          ce.Cost,
	})

	b.cleanupMessages(rec)
	b.timers.Cancel(rec.UserID, rec.Conversation)
	if err := b.store.Clear(ctx, rec.UserID, rec.Conversation); err != nil {
		l.Error().Err(err).Msg("clear conversation failed")
	}
}

func (b *Bot) sendBirthdayApprovalRequest(ctx context.Context, userChatID int64, userMessageID int, ce *model.CustomEvent) {
	te, err := b.theaterEvents.GetByID(ctx, ce.TheaterEventID)
	title := "?"
	if err == nil {
		title = te.Name
	}
	place := "театр"
	if ce.Place == model.PlaceOffsite {
		place = ce.Address
	}
	text := fmt.Sprintf(
		"🎂 ЗАКАЗ ДНЯ РОЖДЕНИЯ #%d\n🎭 %s (%s)\n📍 %s\n📅 %s в %s\n👧 %d + 👨 %d\n💰 %d ₽\n👤 %s, +7%s\n📝 %s",
		ce.ID, title, formatLabels[ce.Format], place, ce.Date, ce.Time,
		ce.QtyChild, ce.QtyAdult, ce.Cost, ce.Name, ce.Phone, noteOrDash(ce.Note))

	confirm := ApprovalToken{Action: ActionConfirm, Entity: EntityEvent, ChatID: userChatID, MessageID: userMessageID, RecordID: ce.ID}
	reject := ApprovalToken{Action: ActionReject, Entity: EntityEvent, ChatID: userChatID, MessageID: userMessageID, RecordID: ce.ID}
	msg := tgbotapi.NewMessage(b.cfg.AdminChatID, text)
	msg.ReplyMarkup = approvalMarkup(confirm, reject)
	if _, err := b.tg.Send(msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("send approval request failed")
	}
}

// handleBirthdayPay creates a payment for the user's latest approved
// birthday order and sends the link.
func (b *Bot) handleBirthdayPay(ctx context.Context, userID, chatID int64) {
	ce, err := b.customEvents.LatestApprovedForUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomEventNotFound) {
			b.reply(chatID, msgNoPaidBirthday)
			return
		}
		zerolog.Ctx(ctx).Error().Err(err).Msg("load approved birthday order failed")
		b.reply(chatID, msgInternalError)
		return
	}
	if b.payments == nil || ce.Cost <= 0 {
		b.notifyOperator(fmt.Sprintf("Пользователь запросил оплату заказа #%d, но автооплата недоступна. Свяжитесь с ним вручную.", ce.ID))
		b.reply(chatID, "Администратор свяжется с вами для оплаты.")
		return
	}
	p, err := b.payments.Create(ctx, payment.CreateRequest{
		AmountRub:   ce.Cost,
		Description: fmt.Sprintf("День рождения #%d, %s", ce.ID, ce.Date),
		ReturnURL:   b.cfg.ReturnURL,
		Metadata: map[string]string{
			"custom_event_id": strconv.FormatInt(ce.ID, 10),
			"user_id":         strconv.FormatInt(userID, 10),
		},
	})
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("create payment failed")
		b.reply(chatID, msgInternalError)
		return
	}
	rec := &conversation.Record{
		UserID:       userID,
		ChatID:       chatID,
		Conversation: conversation.ConvBirthdayPaid,
		Current:      conversation.StatePaid,
		Birthday:     &conversation.BirthdayDraft{CustomEventID: ce.ID},
	}
	b.store.Save(rec)
	b.armTimeout(rec)
	b.reply(chatID, "Ссылка на оплату: "+p.ConfirmationURL)
}

// birthdayCost reads the price for a party format from admin
// settings.  Zero means the admins quote the price manually.
func (b *Bot) birthdayCost(ctx context.Context, format string) int {
	cost, err := b.settings.GetInt(ctx, "birthday_cost_"+format, 0)
	if err != nil {
		b.logger.Warn().Err(err).Str("format", format).Msg("read birthday cost failed")
		return 0
	}
	return cost
}

func formatAge(age float64) string {
	s := strconv.FormatFloat(age, 'f', -1, 64)
	return strings.ReplaceAll(s, ".", ",")
}

func noteOrDash(note string) string {
	if note == "" {
		return "-"
	}
	return note
}
