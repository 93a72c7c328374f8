package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

// OverrideSource supplies individual-pricing rows keyed by
// (option tag, day kind, ticket type).  Implemented by
// repository.PriceOverrideRepo; tests supply fakes.
type OverrideSource interface {
	Get(ctx context.Context, optionTag, dayKind string, baseTicketID int64) (int, error)
}

// Alerter delivers a configuration-error notice to an operator
// channel.  It must not block the booking path; implementations
// send asynchronously or best-effort.
type Alerter func(ctx context.Context, text string)

// Resolver resolves the final price of a ticket type on a
// performance.  Productions without individual pricing use the
// ticket type's base price (with the time-window override);
// productions flagged for individual pricing consult the
// admin-configured override table.  A missing override row is a
// configuration error: it is logged, alerted to the operator and
// masked behind the base price so the user flow is never blocked.
type Resolver struct {
	overrides OverrideSource
	alert     Alerter
	logger    zerolog.Logger
}

// NewResolver constructs a Resolver.  alert may be nil when no
// operator channel is configured.
func NewResolver(overrides OverrideSource, alert Alerter, logger zerolog.Logger) *Resolver {
	return &Resolver{overrides: overrides, alert: alert, logger: logger}
}

// OptionTag derives the override-table tag for a performance.
// Priority order: gift/holiday option flags, then the production's
// own id for individually priced productions, then the production
// category.
func OptionTag(se *model.ScheduleEvent, te *model.TheaterEvent) string {
	switch {
	case se.GiftFlag:
		return "gift"
	case se.SantaFlag || se.TreeFlag:
		return "holiday"
	case te.IndividualPricing:
		return fmt.Sprintf("event-%d", te.ID)
	default:
		return te.Category
	}
}

// Resolve returns the price for one purchase of bt on performance
// se, as of the purchase date asOf.
func (r *Resolver) Resolve(ctx context.Context, se *model.ScheduleEvent, te *model.TheaterEvent, bt *model.BaseTicket, asOf time.Time) int {
	base := ResolvePrice(bt, asOf)
	if !te.IndividualPricing {
		return base
	}
	tag := OptionTag(se, te)
	kind := ClassifyDay(se.StartsAt, se.WeekdayOverride)
	cost, err := r.overrides.Get(ctx, tag, string(kind), bt.ID)
	if err != nil {
		if errors.Is(err, repository.ErrPriceOverrideNotFound) {
			r.logger.Warn().
				Str("option_tag", tag).
				Str("day_kind", string(kind)).
				Int64("base_ticket_id", bt.ID).
				Msg("price override missing, falling back to base price")
			if r.alert != nil {
				r.alert(ctx, fmt.Sprintf(
					"Нет цены в таблице спеццен: tag=%s day=%s ticket=%d (%s). Использована базовая цена %d.",
					tag, kind, bt.ID, bt.Name, base))
			}
			return base
		}
		r.logger.Error().Err(err).Msg("price override lookup failed, falling back to base price")
		return base
	}
	return cost
}
