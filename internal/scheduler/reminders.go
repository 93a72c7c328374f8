// Package scheduler runs the periodic jobs: day-before performance
// reminders for confirmed bookings.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

// Notify delivers a reminder text to a chat.
type Notify func(chatID int64, text string)

// Reminders sends each approved ticket holder a reminder the day
// before the performance.  Dedup is a per-performance marker in the
// settings table, so a restart mid-window does not re-send.
type Reminders struct {
	scheduleEvents *repository.ScheduleEventRepo
	tickets        *repository.TicketRepo
	settings       *repository.SettingsRepo
	notify         Notify
	interval       time.Duration
	logger         zerolog.Logger
}

// NewReminders builds the reminder job.
func NewReminders(
	scheduleEvents *repository.ScheduleEventRepo,
	tickets *repository.TicketRepo,
	settings *repository.SettingsRepo,
	notify Notify,
	logger zerolog.Logger,
) *Reminders {
	return &Reminders{
		scheduleEvents: scheduleEvents,
		tickets:        tickets,
		settings:       settings,
		notify:         notify,
		interval:       time.Hour,
		logger:         logger.With().Str("job", "reminders").Logger(),
	}
}

// Run executes reminder passes until ctx is cancelled.
func (r *Reminders) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	r.pass(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.pass(ctx)
		}
	}
}

func (r *Reminders) pass(ctx context.Context) {
	tomorrow := time.Now().AddDate(0, 0, 1)
	events, err := r.scheduleEvents.ListOnDate(ctx, tomorrow)
	if err != nil {
		r.logger.Error().Err(err).Msg("list tomorrow's showings failed")
		return
	}
	for _, ev := range events {
		key := fmt.Sprintf("reminded_se_%d", ev.ID)
		done, err := r.settings.Get(ctx, key, "")
		if err != nil {
			r.logger.Error().Err(err).Int64("schedule_event_id", ev.ID).Msg("read reminder marker failed")
			continue
		}
		if done != "" {
			continue
		}
		tickets, err := r.tickets.ListApprovedForScheduleEvent(ctx, ev.ID)
		if err != nil {
			r.logger.Error().Err(err).Int64("schedule_event_id", ev.ID).Msg("list approved tickets failed")
			continue
		}
		text := fmt.Sprintf("Напоминаем: завтра в %s спектакль «%s». Ждём вас! 🎭",
			ev.StartsAt.Format("15:04"), ev.TheaterEventName)
		for _, t := range tickets {
			r.notify(t.UserID, text)
		}
		if err := r.settings.Set(ctx, key, time.Now().Format(time.RFC3339)); err != nil {
			r.logger.Error().Err(err).Int64("schedule_event_id", ev.ID).Msg("write reminder marker failed")
			continue
		}
		r.logger.Info().Int64("schedule_event_id", ev.ID).Int("tickets", len(tickets)).
			Msg("reminders sent")
	}
}
