package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var monthNames = [...]string{"", "январь", "февраль", "март", "апрель", "май", "июнь",
	"июль", "август", "сентябрь", "октябрь", "ноябрь", "декабрь"}

// handleAfisha sends the playbill for the current month: every
// upcoming performance with its free seat count.
func (b *Bot) handleAfisha(ctx context.Context, chatID int64) {
	now := time.Now()
	events, err := b.scheduleEvents.ListForMonth(ctx, now.Year(), now.Month())
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("list playbill failed")
		b.reply(chatID, msgInternalError)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🎭 Афиша на %s:\n", monthNames[now.Month()])
	shown := 0
	for _, ev := range events {
		if ev.StartsAt.Before(now) {
			continue
		}
		shown++
		seats := fmt.Sprintf("мест: %d", ev.FreeChildSeats())
		if ev.SoldOut() {
			seats = "мест нет"
		}
		fmt.Fprintf(&sb, "\n%s (%s) %s — %s, %s",
			ev.StartsAt.Format("02.01"), weekdayShort[ev.StartsAt.Weekday()],
			ev.StartsAt.Format("15:04"), ev.TheaterEventName, seats)
	}
	if shown == 0 {
		b.reply(chatID, msgNoShowings)
		return
	}
	sb.WriteString("\n\nЗабронировать: /reserve")
	b.reply(chatID, sb.String())
}
