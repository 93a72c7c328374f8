package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/config"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/conversation"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/model"
	"github.com/MikiEremiki/baby-domik-bot-sub001/internal/repository"
)

const (
	testUserID  = int64(42)
	testChatID  = int64(42)
	testAdminID = int64(900)
)

// fakeTelegram records outgoing traffic and hands out message ids.
type fakeTelegram struct {
	nextID int
	sent   []sentMessage
}

type sentMessage struct {
	chatID int64
	text   string
	markup *tgbotapi.InlineKeyboardMarkup
}

func (f *fakeTelegram) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	msg, ok := c.(tgbotapi.MessageConfig)
	if !ok {
		return tgbotapi.Message{}, nil
	}
	f.nextID++
	sm := sentMessage{chatID: msg.ChatID, text: msg.Text}
	if mk, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup); ok {
		sm.markup = &mk
	}
	f.sent = append(f.sent, sm)
	return tgbotapi.Message{MessageID: f.nextID, Chat: &tgbotapi.Chat{ID: msg.ChatID}}, nil
}

func (f *fakeTelegram) Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return nil
}

func (f *fakeTelegram) SelfUser() tgbotapi.User {
	return tgbotapi.User{UserName: "testbot"}
}

func (f *fakeTelegram) lastTextTo(t *testing.T, chatID int64) string {
	t.Helper()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].chatID == chatID {
			return f.sent[i].text
		}
	}
	t.Fatalf("no message sent to chat %d", chatID)
	return ""
}

func (f *fakeTelegram) lastMarkupTo(t *testing.T, chatID int64) *tgbotapi.InlineKeyboardMarkup {
	t.Helper()
	for i := len(f.sent) - 1; i >= 0; i-- {
		if f.sent[i].chatID == chatID && f.sent[i].markup != nil {
			return f.sent[i].markup
		}
	}
	t.Fatalf("no keyboard sent to chat %d", chatID)
	return nil
}

// memPersister is an in-memory conversation.Persister.
type memPersister struct {
	rows map[string][]byte
}

func pkey(userID int64, conversation string) string {
	return fmt.Sprintf("%d/%s", userID, conversation)
}

func (m *memPersister) Get(_ context.Context, userID int64, conversation string) ([]byte, error) {
	return m.rows[pkey(userID, conversation)], nil
}

func (m *memPersister) UpsertBatch(_ context.Context, rows []repository.ConversationRow) error {
	for _, row := range rows {
		m.rows[pkey(row.UserID, row.Conversation)] = row.Blob
	}
	return nil
}

func (m *memPersister) Delete(_ context.Context, userID int64, conversation string) error {
	delete(m.rows, pkey(userID, conversation))
	return nil
}

func (m *memPersister) ListAll(_ context.Context) ([]repository.ConversationRow, error) {
	return nil, nil
}

type fakeTheaterEvents struct {
	byID map[int64]*model.TheaterEvent
	list []model.TheaterEvent
}

func (f *fakeTheaterEvents) GetByID(_ context.Context, id int64) (*model.TheaterEvent, error) {
	te, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrTheaterEventNotFound
	}
	return te, nil
}

func (f *fakeTheaterEvents) ListForBirthdays(_ context.Context) ([]model.TheaterEvent, error) {
	return f.list, nil
}

// fakeScheduleEvents mirrors the repository's seat invariant: for
// each age group, 0 <= confirmed + nonconfirmed <= total.
type fakeScheduleEvents struct {
	events map[int64]*model.ScheduleEvent
	names  map[int64]string
}

func (f *fakeScheduleEvents) GetByID(_ context.Context, id int64) (*model.ScheduleEvent, error) {
	ev, ok := f.events[id]
	if !ok {
		return nil, repository.ErrScheduleEventNotFound
	}
	return ev, nil
}

func (f *fakeScheduleEvents) summaries(match func(time.Time) bool) []repository.ScheduleEventSummary {
	var out []repository.ScheduleEventSummary
	for _, ev := range f.events {
		if match(ev.StartsAt) {
			out = append(out, repository.ScheduleEventSummary{
				ScheduleEvent:    *ev,
				TheaterEventName: f.names[ev.TheaterEventID],
			})
		}
	}
	return out
}

func (f *fakeScheduleEvents) ListForMonth(_ context.Context, year int, month time.Month) ([]repository.ScheduleEventSummary, error) {
	return f.summaries(func(at time.Time) bool {
		return at.Year() == year && at.Month() == month
	}), nil
}

func (f *fakeScheduleEvents) ListOnDate(_ context.Context, date time.Time) ([]repository.ScheduleEventSummary, error) {
	day := date.Format("2006-01-02")
	return f.summaries(func(at time.Time) bool {
		return at.Format("2006-01-02") == day
	}), nil
}

func (f *fakeScheduleEvents) AdjustSeats(_ context.Context, id int64, deltaChild, deltaAdult int) error {
	ev, ok := f.events[id]
	if !ok {
		return repository.ErrScheduleEventNotFound
	}
	nc := ev.QtyChildNonConfirmed + deltaChild
	na := ev.QtyAdultNonConfirmed + deltaAdult
	if nc < 0 || na < 0 ||
		ev.QtyChildConfirmed+nc > ev.QtyChild ||
		ev.QtyAdultConfirmed+na > ev.QtyAdult {
		return repository.ErrCapacityExceeded
	}
	ev.QtyChildNonConfirmed, ev.QtyAdultNonConfirmed = nc, na
	return nil
}

func (f *fakeScheduleEvents) PromoteSeats(_ context.Context, id int64, child, adult int) error {
	ev, ok := f.events[id]
	if !ok {
		return repository.ErrScheduleEventNotFound
	}
	if ev.QtyChildNonConfirmed < child || ev.QtyAdultNonConfirmed < adult {
		return repository.ErrCapacityExceeded
	}
	ev.QtyChildNonConfirmed -= child
	ev.QtyAdultNonConfirmed -= adult
	ev.QtyChildConfirmed += child
	ev.QtyAdultConfirmed += adult
	return nil
}

type fakeBaseTickets struct {
	tickets []model.BaseTicket
}

func (f *fakeBaseTickets) GetByID(_ context.Context, id int64) (*model.BaseTicket, error) {
	for i := range f.tickets {
		if f.tickets[i].ID == id {
			return &f.tickets[i], nil
		}
	}
	return nil, repository.ErrBaseTicketNotFound
}

func (f *fakeBaseTickets) ListAll(_ context.Context) ([]model.BaseTicket, error) {
	return f.tickets, nil
}

type fakeTickets struct {
	nextID int64
	rows   map[int64]*model.Ticket
}

func (f *fakeTickets) Create(_ context.Context, t *model.Ticket) error {
	f.nextID++
	t.ID = f.nextID
	t.Status = model.StatusCreated
	c := *t
	f.rows[t.ID] = &c
	return nil
}

func (f *fakeTickets) GetByID(_ context.Context, id int64) (*model.Ticket, error) {
	t, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrTicketNotFound
	}
	return t, nil
}

func (f *fakeTickets) UpdateStatusFrom(_ context.Context, id int64, to model.TicketStatus, from ...model.TicketStatus) error {
	t, ok := f.rows[id]
	if !ok {
		return repository.ErrTicketNotFound
	}
	for _, s := range from {
		if t.Status == s {
			t.Status = to
			return nil
		}
	}
	return repository.ErrStatusConflict
}

func (f *fakeTickets) SetPaymentID(_ context.Context, id int64, paymentID string) error {
	t, ok := f.rows[id]
	if !ok {
		return repository.ErrTicketNotFound
	}
	t.PaymentID = &paymentID
	return nil
}

type fakeCustomEvents struct {
	nextID int64
	rows   map[int64]*model.CustomEvent
}

func (f *fakeCustomEvents) Create(_ context.Context, ce *model.CustomEvent) error {
	f.nextID++
	ce.ID = f.nextID
	ce.Status = model.StatusCreated
	c := *ce
	f.rows[ce.ID] = &c
	return nil
}

func (f *fakeCustomEvents) GetByID(_ context.Context, id int64) (*model.CustomEvent, error) {
	ce, ok := f.rows[id]
	if !ok {
		return nil, repository.ErrCustomEventNotFound
	}
	return ce, nil
}

func (f *fakeCustomEvents) UpdateStatusFrom(_ context.Context, id int64, to model.TicketStatus, from ...model.TicketStatus) error {
	ce, ok := f.rows[id]
	if !ok {
		return repository.ErrCustomEventNotFound
	}
	for _, s := range from {
		if ce.Status == s {
			ce.Status = to
			return nil
		}
	}
	return repository.ErrStatusConflict
}

func (f *fakeCustomEvents) LatestApprovedForUser(_ context.Context, userID int64) (*model.CustomEvent, error) {
	for _, ce := range f.rows {
		if ce.UserID == userID && ce.Status == model.StatusApproved {
			return ce, nil
		}
	}
	return nil, repository.ErrCustomEventNotFound
}

type fakeWaitlist struct {
	entries []model.WaitlistEntry
}

func (f *fakeWaitlist) Create(_ context.Context, w *model.WaitlistEntry) error {
	w.ID = int64(len(f.entries) + 1)
	f.entries = append(f.entries, *w)
	return nil
}

type fakeSettings struct {
	ints map[string]int
}

func (f *fakeSettings) GetInt(_ context.Context, key string, def int) (int, error) {
	if v, ok := f.ints[key]; ok {
		return v, nil
	}
	return def, nil
}

type fakeOverrideSource struct{}

func (fakeOverrideSource) Get(_ context.Context, _, _ string, _ int64) (int, error) {
	return 0, repository.ErrPriceOverrideNotFound
}

type flowFixture struct {
	bot      *Bot
	tg       *fakeTelegram
	showings *fakeScheduleEvents
	tickets  *fakeTickets
	store    *conversation.Store
	startsAt time.Time
}

// newFlowFixture wires a bot over in-memory stores with one showing
// of one production and two ticket types: a 1+1 package (id 1) and a
// child-only single (id 2).
func newFlowFixture(t *testing.T, hall model.ScheduleEvent) *flowFixture {
	t.Helper()
	startsAt := time.Now().Add(72 * time.Hour)
	hall.ID = 3
	hall.TheaterEventID = 7
	hall.StartsAt = startsAt

	tg := &fakeTelegram{}
	store := conversation.NewStore(&memPersister{rows: make(map[string][]byte)}, time.Second, zerolog.Nop())
	showings := &fakeScheduleEvents{
		events: map[int64]*model.ScheduleEvent{3: &hall},
		names:  map[int64]string{7: "Теремок"},
	}
	tickets := &fakeTickets{rows: make(map[int64]*model.Ticket)}

	b := NewWithTelegramClient(tg, Deps{
		Config: config.Config{
			AdminChatID:         testAdminID,
			ConversationTTL:     time.Minute,
			RatioExemptCategory: "workshop",
			MaxChildrenOnSite:   15,
			MaxChildrenOffsite:  10,
			MaxAdults:           20,
		},
		Store:  store,
		Timers: conversation.NewTimers(),
		TheaterEvents: &fakeTheaterEvents{
			byID: map[int64]*model.TheaterEvent{
				7: {ID: 7, Name: "Теремок", Category: "spektakl"},
			},
			list: []model.TheaterEvent{
				{ID: 7, Name: "Теремок", MinAgeChild: 3},
				{ID: 8, Name: "Гуси-лебеди", MinAgeChild: 3.5},
			},
		},
		ScheduleEvents: showings,
		BaseTickets: &fakeBaseTickets{tickets: []model.BaseTicket{
			{ID: 1, Name: "1 ребёнок + 1 взрослый", Cost: 1500, QtyChild: 1, QtyAdult: 1},
			{ID: 2, Name: "1 ребёнок", Cost: 800, QtyChild: 1, QtyAdult: 0},
		}},
		Tickets:      tickets,
		CustomEvents: &fakeCustomEvents{rows: make(map[int64]*model.CustomEvent)},
		Waitlist:     &fakeWaitlist{},
		Settings:     &fakeSettings{ints: map[string]int{}},
		Overrides:    fakeOverrideSource{},
		Logger:       zerolog.Nop(),
	})
	return &flowFixture{bot: b, tg: tg, showings: showings, tickets: tickets, store: store, startsAt: startsAt}
}

func (fx *flowFixture) sendText(text string) {
	fx.bot.handleMessage(context.Background(), &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testUserID},
		Chat:      &tgbotapi.Chat{ID: testChatID},
		Text:      text,
	})
}

func (fx *flowFixture) tap(data string) {
	fx.bot.handleCallback(context.Background(), &tgbotapi.CallbackQuery{
		ID:      "cb",
		From:    &tgbotapi.User{ID: testUserID},
		Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: testChatID}},
		Data:    data,
	})
}

func (fx *flowFixture) reserveRecord(t *testing.T) *conversation.Record {
	t.Helper()
	rec, err := fx.store.Load(context.Background(), testUserID, conversation.ConvReserve)
	require.NoError(t, err)
	return rec
}

func (fx *flowFixture) dateCallback() string {
	return "date:" + fx.startsAt.Format("2006-01-02")
}

// reserveToTicketChoice drives /reserve up to the ticket-type
// keyboard.
func (fx *flowFixture) reserveToTicketChoice() {
	fx.sendText("/reserve")
	fx.tap(fx.dateCallback())
	fx.tap("se:3")
}

// reserveThroughConfirm drives the whole reservation dialog to the
// final confirmation tap.
func (fx *flowFixture) reserveThroughConfirm() {
	fx.reserveToTicketChoice()
	fx.tap("bt:1")
	fx.sendText("Анна Смирнова")
	fx.sendText("+79159383529")
	fx.sendText("anna@example.com")
	fx.tap("confirm:ok")
}

func TestReservePackageTicketRejectedWhenOnlyChildSeatsRemain(t *testing.T) {
	// Three child seats free, zero adult seats free.
	fx := newFlowFixture(t, model.ScheduleEvent{
		QtyChild: 3, QtyAdult: 2, QtyAdultConfirmed: 2,
	})
	fx.reserveToTicketChoice()

	fx.tap("bt:1") // the 1+1 package needs an adult seat

	rec := fx.reserveRecord(t)
	require.NotNil(t, rec)
	assert.Equal(t, conversation.StateChoose, rec.Current, "user stays at ticket selection")
	assert.Equal(t, msgSeatsGone, fx.tg.lastTextTo(t, testChatID))
	assert.Empty(t, fx.tickets.rows, "no ticket may be created")
	assert.Zero(t, fx.showings.events[3].QtyChildNonConfirmed)
	assert.Zero(t, fx.showings.events[3].QtyAdultNonConfirmed)

	// A child-only ticket fits the remaining seats.
	fx.tap("bt:2")
	rec = fx.reserveRecord(t)
	require.NotNil(t, rec)
	assert.Equal(t, conversation.StateName, rec.Current)
}

func TestReserveTimeoutReleasesHeldSeats(t *testing.T) {
	fx := newFlowFixture(t, model.ScheduleEvent{QtyChild: 10, QtyAdult: 10})
	fx.reserveThroughConfirm()

	ticket := fx.tickets.rows[1]
	require.NotNil(t, ticket)
	assert.Equal(t, model.StatusCreated, ticket.Status)
	assert.Equal(t, 1, fx.showings.events[3].QtyChildNonConfirmed)
	assert.Equal(t, 1, fx.showings.events[3].QtyAdultNonConfirmed)

	rec := fx.reserveRecord(t)
	require.NotNil(t, rec)
	assert.Equal(t, conversation.StatePaid, rec.Current)

	fx.bot.expireConversation(testUserID, conversation.ConvReserve)

	assert.Equal(t, model.StatusCanceled, ticket.Status)
	assert.Zero(t, fx.showings.events[3].QtyChildNonConfirmed, "held seats go back to the pool")
	assert.Zero(t, fx.showings.events[3].QtyAdultNonConfirmed)
	assert.Equal(t, msgSessionExpired, fx.tg.lastTextTo(t, testChatID))

	rec = fx.reserveRecord(t)
	assert.Nil(t, rec, "expired dialog state is gone")
}

func TestReserveTimeoutAfterPaymentKeepsBooking(t *testing.T) {
	fx := newFlowFixture(t, model.ScheduleEvent{QtyChild: 10, QtyAdult: 10})
	fx.reserveThroughConfirm()

	// The gateway webhook landed before the inactivity deadline.
	fx.tickets.rows[1].Status = model.StatusPaid

	fx.bot.expireConversation(testUserID, conversation.ConvReserve)

	assert.Equal(t, model.StatusPaid, fx.tickets.rows[1].Status)
	assert.Equal(t, 1, fx.showings.events[3].QtyChildNonConfirmed, "paid booking keeps its seats")
	assert.Equal(t, 1, fx.showings.events[3].QtyAdultNonConfirmed)
	assert.Equal(t, msgSessionExpiredBooked, fx.tg.lastTextTo(t, testChatID))

	rec := fx.reserveRecord(t)
	assert.Nil(t, rec)
}

func TestReserveStaleKeyboardTapIgnored(t *testing.T) {
	fx := newFlowFixture(t, model.ScheduleEvent{QtyChild: 10, QtyAdult: 10})
	fx.reserveToTicketChoice()
	fx.tap("bt:1") // now collecting the visitor's name

	before := len(fx.tg.sent)
	fx.tap(fx.dateCallback()) // tap on the date keyboard left in the chat

	rec := fx.reserveRecord(t)
	require.NotNil(t, rec)
	assert.Equal(t, conversation.StateName, rec.Current, "stale tap must not rewind the dialog")
	assert.Len(t, fx.tg.sent, before, "stale tap produces no prompt")
}

func TestBirthdayEventButtonsCarryAgeLabels(t *testing.T) {
	fx := newFlowFixture(t, model.ScheduleEvent{QtyChild: 10, QtyAdult: 10})
	fx.sendText("/birthday")
	fx.tap("place:theater")
	fx.sendText(time.Now().AddDate(0, 0, 30).Format("02.01.2006"))
	fx.sendText("12:00")

	markup := fx.tg.lastMarkupTo(t, testChatID)
	var labels []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			labels = append(labels, btn.Text)
		}
	}
	assert.Contains(t, labels, "Теремок (3+)")
	assert.Contains(t, labels, "Гуси-лебеди (3,5+)")
}
