package bot

import (
	"context"
	"crypto/sha1"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/config"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/conversation"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/payment"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/pricing"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/queue"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

// Storage interfaces the flows depend on, narrowed to the operations
// they actually call.  Implemented by the repository package; tests
// supply in-memory fakes.
type (
	TheaterEventStore interface {
		GetByID(ctx context.Context, id int64) (*model.TheaterEvent, error)
		ListForBirthdays(ctx context.Context) ([]model.TheaterEvent, error)
	}

	ScheduleEventStore interface {
		GetByID(ctx context.Context, id int64) (*model.ScheduleEvent, error)
		ListForMonth(ctx context.Context, year int, month time.Month) ([]repository.ScheduleEventSummary, error)
		ListOnDate(ctx context.Context, date time.Time) ([]repository.ScheduleEventSummary, error)
		AdjustSeats(ctx context.Context, id int64, deltaChild, deltaAdult int) error
		PromoteSeats(ctx context.Context, id int64, child, adult int) error
	}

	BaseTicketStore interface {
		GetByID(ctx context.Context, id int64) (*model.BaseTicket, error)
		ListAll(ctx context.Context) ([]model.BaseTicket, error)
	}

	TicketStore interface {
		Create(ctx context.Context, t *model.Ticket) error
		GetByID(ctx context.Context, id int64) (*model.Ticket, error)
		UpdateStatusFrom(ctx context.Context, id int64, to model.TicketStatus, from ...model.TicketStatus) error
		SetPaymentID(ctx context.Context, id int64, paymentID string) error
	}

	CustomEventStore interface {
		Create(ctx context.Context, ce *model.CustomEvent) error
		GetByID(ctx context.Context, id int64) (*model.CustomEvent, error)
		UpdateStatusFrom(ctx context.Context, id int64, to model.TicketStatus, from ...model.TicketStatus) error
		LatestApprovedForUser(ctx context.Context, userID int64) (*model.CustomEvent, error)
	}

	WaitlistStore interface {
		Create(ctx context.Context, w *model.WaitlistEntry) error
	}

	SettingsStore interface {
		GetInt(ctx context.Context, key string, def int) (int, error)
	}
)

// Deps carries everything the bot needs.  All storage fields and
// Store/Timers must be non-nil; Redis, Publisher and Payments may be
// nil and the corresponding feature degrades gracefully.
type Deps struct {
	Config config.Config
	Store  *conversation.Store
	Timers *conversation.Timers
	Redis  *redis.Client

	TheaterEvents  TheaterEventStore
	ScheduleEvents ScheduleEventStore
	BaseTickets    BaseTicketStore
	Tickets        TicketStore
	CustomEvents   CustomEventStore
	Waitlist       WaitlistStore
	Settings       SettingsStore
	Overrides      pricing.OverrideSource

	Publisher *queue.Publisher
	Payments  *payment.Client
	Logger    zerolog.Logger
}

// Bot drives the Telegram conversation flows.
type Bot struct {
	tg      telegramClient
	cfg     config.Config
	store   *conversation.Store
	timers  *conversation.Timers
	rdb     *redis.Client
	reserve *conversation.Machine
	bday    *conversation.Machine

	theaterEvents  TheaterEventStore
	scheduleEvents ScheduleEventStore
	baseTickets    BaseTicketStore
	tickets        TicketStore
	customEvents   CustomEventStore
	waitlist       WaitlistStore
	settings       SettingsStore

	prices    *pricing.Resolver
	publisher *queue.Publisher
	payments  *payment.Client
	logger    zerolog.Logger
}

// New authorizes against the Telegram API and builds the bot.
func New(deps Deps) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(deps.Config.BotToken)
	if err != nil {
		return nil, fmt.Errorf("telegram authorize: %w", err)
	}
	return newBot(&realTelegramClient{api: api}, deps), nil
}

// NewWithTelegramClient builds the bot around an injected transport
// client, used by tests.
func NewWithTelegramClient(tg telegramClient, deps Deps) *Bot {
	return newBot(tg, deps)
}

func newBot(tg telegramClient, deps Deps) *Bot {
	b := &Bot{
		tg:             tg,
		cfg:            deps.Config,
		store:          deps.Store,
		timers:         deps.Timers,
		rdb:            deps.Redis,
		reserve:        conversation.ReserveMachine(),
		bday:           conversation.BirthdayMachine(),
		theaterEvents:  deps.TheaterEvents,
		scheduleEvents: deps.ScheduleEvents,
		baseTickets:    deps.BaseTickets,
		tickets:        deps.Tickets,
		customEvents:   deps.CustomEvents,
		waitlist:       deps.Waitlist,
		settings:       deps.Settings,
		publisher:      deps.Publisher,
		payments:       deps.Payments,
		logger:         deps.Logger,
	}
	b.prices = pricing.NewResolver(deps.Overrides, func(ctx context.Context, text string) {
		b.notifyOperator(text)
	}, deps.Logger)
	return b
}

// Start polls updates until ctx is cancelled.  Each update gets a
// request id and a scoped logger on its context.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.tg.GetUpdatesChan(u)
	b.logger.Info().Str("username", b.tg.SelfUser().UserName).Msg("bot authorized")

	for {
		select {
		case <-ctx.Done():
			return
		case update := <-updates:
			l := b.logger.With().Str("request_id", uuid.New().String()).Logger()
			b.handleUpdate(l.WithContext(ctx), &update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update *tgbotapi.Update) {
	l := zerolog.Ctx(ctx)
	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		l.Debug().Int64("user_id", cq.From.ID).Str("data", cq.Data).Msg("handling callback")
		b.handleCallback(ctx, cq)
	case update.Message != nil:
		msg := update.Message
		if msg.From == nil {
			return
		}
		l.Debug().Int64("user_id", msg.From.ID).Str("text", msg.Text).Msg("handling message")
		if !b.allowUpdate(ctx, msg.From.ID) {
			l.Debug().Int64("user_id", msg.From.ID).Msg("debounced duplicate update")
			return
		}
		b.handleMessage(ctx, msg)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	text := strings.TrimSpace(msg.Text)

	// Commands interrupt any active flow.
	if strings.HasPrefix(text, "/") {
		switch {
		case strings.HasPrefix(text, "/start"):
			b.cancelAllConversations(ctx, msg.From.ID, false)
			b.reply(msg.Chat.ID, msgGreeting)
		case strings.HasPrefix(text, "/help"):
			b.reply(msg.Chat.ID, msgHelp)
		case strings.HasPrefix(text, "/reserve"):
			b.startReserveFlow(ctx, msg.From.ID, msg.Chat.ID)
		case strings.HasPrefix(text, "/birthday_pay"):
			b.handleBirthdayPay(ctx, msg.From.ID, msg.Chat.ID)
		case strings.HasPrefix(text, "/birthday"):
			b.startBirthdayFlow(ctx, msg.From.ID, msg.Chat.ID)
		case strings.HasPrefix(text, "/afisha"):
			b.handleAfisha(ctx, msg.Chat.ID)
		case strings.HasPrefix(text, "/cancel"):
			b.cancelAllConversations(ctx, msg.From.ID, true)
		default:
			b.reply(msg.Chat.ID, msgHelp)
		}
		return
	}

	rec := b.activeConversation(ctx, msg.From.ID)
	if rec == nil {
		b.reply(msg.Chat.ID, msgGreeting)
		return
	}
	switch rec.Conversation {
	case conversation.ConvReserve:
		b.handleReserveText(ctx, rec, msg.Chat.ID, text)
	case conversation.ConvBirthdayOrder:
		b.handleBirthdayText(ctx, rec, msg.Chat.ID, text)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	b.answerCallback(cq.ID, "")
	if cq.Message == nil {
		return
	}
	userID := cq.From.ID
	chatID := cq.Message.Chat.ID
	data := cq.Data

	if b.duplicateCallback(ctx, userID, data) {
		zerolog.Ctx(ctx).Debug().Int64("user_id", userID).Msg("suppressed repeated callback")
		return
	}

	if isApprovalCallback(data) {
		b.handleApprovalCallback(ctx, cq)
		return
	}

	rec := b.activeConversation(ctx, userID)
	if rec == nil {
		// Stale keyboard from a finished conversation.
		b.answerCallback(cq.ID, "Сценарий устарел, начните заново")
		return
	}
	switch data {
	case cbCancel:
		b.cancelConversation(ctx, rec, true)
		return
	case cbBack:
		b.handleBack(ctx, rec)
		return
	}
	switch rec.Conversation {
	case conversation.ConvReserve:
		b.handleReserveCallback(ctx, rec, chatID, data)
	case conversation.ConvBirthdayOrder:
		b.handleBirthdayCallback(ctx, rec, chatID, data)
	}
}

// activeConversation returns the user's in-progress dialog record,
// if any.  A user has at most one active flow; /reserve and
// /birthday reset each other.
func (b *Bot) activeConversation(ctx context.Context, userID int64) *conversation.Record {
	for _, name := range []string{conversation.ConvReserve, conversation.ConvBirthdayOrder} {
		rec, err := b.store.Load(ctx, userID, name)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Str("conversation", name).Msg("load conversation failed")
			continue
		}
		if rec != nil {
			return rec
		}
	}
	return nil
}

// cancelAllConversations ends any in-progress flow for the user,
// releasing tentatively-held seats the same way the inactivity
// timeout does.
func (b *Bot) cancelAllConversations(ctx context.Context, userID int64, announce bool) {
	rec := b.activeConversation(ctx, userID)
	if rec == nil {
		if announce {
			b.reply(userID, msgNothingCancel)
		}
		return
	}
	b.cancelConversation(ctx, rec, announce)
}

func (b *Bot) cancelConversation(ctx context.Context, rec *conversation.Record, announce bool) {
	b.releaseDraftSeats(ctx, rec)
	b.cleanupMessages(rec)
	b.timers.Cancel(rec.UserID, rec.Conversation)
	if err := b.store.Clear(ctx, rec.UserID, rec.Conversation); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("clear conversation failed")
	}
	if announce {
		b.reply(rec.ChatID, msgCanceled)
	}
}

// handleBack pops the current prompt and re-renders the previous
// one, restoring its exact text and keyboard.
func (b *Bot) handleBack(ctx context.Context, rec *conversation.Record) {
	if _, ok := rec.PopPrompt(); !ok {
		b.cancelConversation(ctx, rec, true)
		return
	}
	if len(rec.BackStack) == 0 {
		b.cancelConversation(ctx, rec, true)
		return
	}
	prev := rec.BackStack[len(rec.BackStack)-1]
	rec.Current = prev.State
	if id := b.sendKeyboard(rec.ChatID, prev.Text, prev.Keyboard); id != 0 {
		rec.DeleteMsgIDs = append(rec.DeleteMsgIDs, id)
	}
	b.store.Save(rec)
	b.armTimeout(rec)
}

// machineFor returns the transition table driving a record's flow,
// nil for flows without one (the post-approval payment wait).
func (b *Bot) machineFor(rec *conversation.Record) *conversation.Machine {
	switch rec.Conversation {
	case conversation.ConvReserve:
		return b.reserve
	case conversation.ConvBirthdayOrder:
		return b.bday
	}
	return nil
}

// transition moves a record to a new state through its machine.  An
// illegal transition is a flow-wiring bug; it is logged and applied
// anyway so the user is not stranded.
func (b *Bot) transition(rec *conversation.Record, state conversation.State) {
	if m := b.machineFor(rec); m != nil {
		if _, err := m.Step(rec.Current, state); err != nil {
			b.logger.Error().Err(err).Int64("user_id", rec.UserID).Msg("flow wiring bug")
		}
	}
	rec.Current = state
}

// prompt renders a dialog step: sends the text with its keyboard,
// pushes the prompt onto the back-stack, persists the record and
// pushes the inactivity deadline forward.
func (b *Bot) prompt(rec *conversation.Record, state conversation.State, text string, pairs [][2]string) {
	p := conversation.Prompt{State: state, Text: text, Keyboard: pairs}
	b.transition(rec, state)
	rec.PushPrompt(p)
	if id := b.sendKeyboard(rec.ChatID, text, pairs); id != 0 {
		rec.DeleteMsgIDs = append(rec.DeleteMsgIDs, id)
	}
	b.store.Save(rec)
	b.armTimeout(rec)
}

// reprompt re-renders the current step after invalid input without
// touching the back-stack.
func (b *Bot) reprompt(rec *conversation.Record, text string) {
	b.reply(rec.ChatID, text)
	b.store.Save(rec)
	b.armTimeout(rec)
}

func (b *Bot) armTimeout(rec *conversation.Record) {
	userID, name := rec.UserID, rec.Conversation
	b.timers.Arm(userID, name, b.cfg.ConversationTTL, func() {
		b.expireConversation(userID, name)
	})
}

// allowUpdate enforces the per-user debounce window.  Without Redis
// every update is allowed.
func (b *Bot) allowUpdate(ctx context.Context, userID int64) bool {
	if b.rdb == nil {
		return true
	}
	ok, err := b.rdb.SetNX(ctx, fmt.Sprintf("debounce:%d", userID), 1, b.cfg.DebounceWindow).Result()
	if err != nil {
		return true
	}
	return ok
}

// duplicateCallback suppresses an identical callback payload
// repeated by the same user within a short window (double-tap or
// transport redelivery).
func (b *Bot) duplicateCallback(ctx context.Context, userID int64, data string) bool {
	if b.rdb == nil {
		return false
	}
	key := fmt.Sprintf("cb:%d:%x", userID, sha1.Sum([]byte(data)))
	ok, err := b.rdb.SetNX(ctx, key, 1, 2*time.Second).Result()
	if err != nil {
		return false
	}
	return !ok
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.tg.Send(msg); err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
	}
}

// sendKeyboard sends a prompt with its inline keyboard and returns
// the sent message id, zero on failure.
func (b *Bot) sendKeyboard(chatID int64, text string, pairs [][2]string) int {
	msg := tgbotapi.NewMessage(chatID, text)
	if len(pairs) > 0 {
		msg.ReplyMarkup = toMarkup(pairs)
	}
	sent, err := b.tg.Send(msg)
	if err != nil {
		b.logger.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
		return 0
	}
	return sent.MessageID
}

// cleanupMessages deletes the prompt messages a finished dialog left
// behind, so the chat does not end on a keyboard that no longer
// works.
func (b *Bot) cleanupMessages(rec *conversation.Record) {
	for _, id := range rec.DeleteMsgIDs {
		b.deleteMessage(rec.ChatID, id)
	}
	rec.DeleteMsgIDs = nil
}

func (b *Bot) answerCallback(id, text string) {
	cb := tgbotapi.NewCallback(id, text)
	if _, err := b.tg.Request(cb); err != nil {
		b.logger.Debug().Err(err).Msg("answer callback failed")
	}
}

// deleteMessage removes a message, treating "already gone" as
// informational rather than an error.
func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.tg.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		if messageGone(err) {
			b.logger.Debug().Int64("chat_id", chatID).Int("message_id", messageID).
				Msg("message already gone")
			return
		}
		b.logger.Warn().Err(err).Msg("delete message failed")
	}
}

// removeInlineKeyboard strips the buttons from an admin approval
// message after it has been acted on.  Best-effort: the
// authoritative replay guard is the status check in the database.
func (b *Bot) removeInlineKeyboard(chatID int64, messageID int) {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}})
	if _, err := b.tg.Request(edit); err != nil && !messageGone(err) {
		b.logger.Debug().Err(err).Msg("remove keyboard failed")
	}
}

// notifyOperator sends a notice to the operator channel, falling
// back to the admin chat when none is configured.
func (b *Bot) notifyOperator(text string) {
	chatID := b.cfg.OperatorChatID
	if chatID == 0 {
		chatID = b.cfg.AdminChatID
	}
	b.reply(chatID, text)
}

// NotifyOperator exposes operator notification to the dead-letter
// consumer.
func (b *Bot) NotifyOperator(text string) { b.notifyOperator(text) }

// Notify sends a plain message to a chat, used by scheduled jobs.
func (b *Bot) Notify(chatID int64, text string) { b.reply(chatID, text) }

// publishSheetTask enqueues a spreadsheet write without letting a
// broker outage disturb the booking flow.
func (b *Bot) publishSheetTask(ctx context.Context, task queue.SheetTask) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, task); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Str("kind", task.Kind).
			Msg("sheet task publish failed, task lost until manual export")
	}
}
