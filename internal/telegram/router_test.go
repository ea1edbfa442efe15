package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
	"github.com/ihovsky/MovieTrackerBot/internal/tmdb"
)

type fakeBot struct {
	mu   sync.Mutex
	sent []tgbotapi.Chattable
}

func (b *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return tgbotapi.Message{}, nil
}

func (b *fakeBot) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sent = append(b.sent, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (b *fakeBot) messages() []tgbotapi.MessageConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.MessageConfig
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.MessageConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

func (b *fakeBot) callbacks() []tgbotapi.CallbackConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []tgbotapi.CallbackConfig
	for _, c := range b.sent {
		if m, ok := c.(tgbotapi.CallbackConfig); ok {
			out = append(out, m)
		}
	}
	return out
}

type fakeCatalog struct {
	queries []string
	pages   []int
}

func (f *fakeCatalog) Trending(ctx context.Context, kind domain.ContentKind, window tmdb.Window, page int) tmdb.Page {
	return tmdb.Page{Items: []domain.Content{{Kind: kind, ID: 1, Title: "Trend"}}, Page: page, TotalPages: 3}
}

func (f *fakeCatalog) Popular(ctx context.Context, kind domain.ContentKind, page int) tmdb.Page {
	return tmdb.Page{}
}

func (f *fakeCatalog) Search(ctx context.Context, query string, page int) tmdb.Page {
	f.queries = append(f.queries, query)
	f.pages = append(f.pages, page)
	if query == "nothing" {
		return tmdb.Page{}
	}
	return tmdb.Page{Items: []domain.Content{{Kind: domain.KindSeries, ID: 10, Title: "Dark"}}, Page: page, TotalPages: 2}
}

func (f *fakeCatalog) Recommendations(ctx context.Context, kind domain.ContentKind, id int64, page int) tmdb.Page {
	return tmdb.Page{}
}

func (f *fakeCatalog) Details(ctx context.Context, kind domain.ContentKind, id int64) *domain.Content {
	if id != 10 {
		return nil
	}
	return &domain.Content{Kind: domain.KindSeries, ID: 10, Title: "Dark", PosterPath: "/dark.jpg",
		Series: &domain.SeriesInfo{NumberOfSeasons: 3}}
}

func (f *fakeCatalog) PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return "https://img.example" + path
}

type fakeSubs struct {
	subscribed map[int64]bool
	toggleErr  error
}

func (f *fakeSubs) Subscribe(ctx context.Context, userID, seriesID int64) (bool, error) {
	if seriesID != 10 {
		return false, domain.ErrContentNotFound
	}
	was := f.subscribed[seriesID]
	f.subscribed[seriesID] = true
	return !was, nil
}

func (f *fakeSubs) Unsubscribe(ctx context.Context, userID, seriesID int64) (bool, error) {
	was := f.subscribed[seriesID]
	delete(f.subscribed, seriesID)
	return was, nil
}

func (f *fakeSubs) ToggleNotifications(ctx context.Context, userID int64) (bool, error) {
	return false, f.toggleErr
}

func (f *fakeSubs) IsSubscribed(ctx context.Context, userID, seriesID int64) (bool, error) {
	return f.subscribed[seriesID], nil
}

func (f *fakeSubs) Subscriptions(ctx context.Context, userID int64) ([]domain.Series, error) {
	return nil, nil
}

type fakeUsers struct{}

func (fakeUsers) UpsertUser(ctx context.Context, p domain.Profile) (*domain.User, error) {
	return &domain.User{ID: p.ID, NotificationsEnabled: true}, nil
}

type fakeFreshness struct{}

func (fakeFreshness) Resolve(ctx context.Context, seriesID int64) domain.Freshness {
	next := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	return domain.Freshness{NextEpisodeDate: &next}
}

func newTestRouter() (*Router, *fakeBot, *fakeCatalog, *fakeSubs) {
	bot := &fakeBot{}
	catalog := &fakeCatalog{}
	subs := &fakeSubs{subscribed: map[int64]bool{}}
	r := NewRouter(bot, nil, catalog, subs, fakeUsers{}, fakeFreshness{}, Options{SiteURL: "https://site/?q="})
	return r, bot, catalog, subs
}

func textUpdate(text string) tgbotapi.Update {
	msg := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: 42, FirstName: "Ann"},
		Chat:      &tgbotapi.Chat{ID: 42},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		cmdLen := len(text)
		if i := strings.Index(text, " "); i > 0 {
			cmdLen = i
		}
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: cmdLen}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: msg}
}

func callbackUpdate(data string, markup *tgbotapi.InlineKeyboardMarkup) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: 2, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb",
		From: &tgbotapi.User{ID: 42},
		Message: &tgbotapi.Message{
			MessageID:   7,
			Chat:        &tgbotapi.Chat{ID: 42},
			ReplyMarkup: markup,
		},
		Data: data,
	}}
}

func TestStartShowsMainMenu(t *testing.T) {
	r, bot, _, _ := newTestRouter()
	r.HandleUpdate(context.Background(), textUpdate("/start"))

	msgs := bot.messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	if _, ok := msgs[0].ReplyMarkup.(tgbotapi.ReplyKeyboardMarkup); !ok {
		t.Fatalf("expected reply keyboard, got %T", msgs[0].ReplyMarkup)
	}
}

func TestFreeTextIsSearchAndPaginationReusesQuery(t *testing.T) {
	r, bot, catalog, _ := newTestRouter()
	ctx := context.Background()

	r.HandleUpdate(ctx, textUpdate("dark <series>"))
	msgs := bot.messages()
	if len(msgs) != 1 || !strings.Contains(msgs[0].Text, "dark &lt;series&gt;") {
		t.Fatalf("unexpected search reply: %+v", msgs)
	}

	r.HandleUpdate(ctx, callbackUpdate("srch:-:0:2", nil))
	if len(catalog.queries) != 2 || catalog.queries[1] != "dark <series>" || catalog.pages[1] != 2 {
		t.Fatalf("expected second page of the same query, got %v %v", catalog.queries, catalog.pages)
	}
}

func TestSearchCommandWithArguments(t *testing.T) {
	r, _, catalog, _ := newTestRouter()
	r.HandleUpdate(context.Background(), textUpdate("/search the office"))
	if len(catalog.queries) != 1 || catalog.queries[0] != "the office" {
		t.Fatalf("unexpected queries %v", catalog.queries)
	}
}

func TestSearchNothingFoundOffersRetry(t *testing.T) {
	r, bot, _, _ := newTestRouter()
	r.HandleUpdate(context.Background(), textUpdate("nothing"))

	msgs := bot.messages()
	if len(msgs) != 1 || msgs[0].Text != nothingFoundText {
		t.Fatalf("unexpected reply %+v", msgs)
	}
	kb := msgs[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if *kb.InlineKeyboard[0][0].CallbackData != "srch:-:0:1" || *kb.InlineKeyboard[1][0].CallbackData != "menu:-:0:1" {
		t.Fatalf("expected retry and menu buttons, got %+v", kb)
	}
}

func TestSeriesDetailsSendsPoster(t *testing.T) {
	r, bot, _, _ := newTestRouter()
	r.HandleUpdate(context.Background(), callbackUpdate("view:s:10:1", nil))

	var photo *tgbotapi.PhotoConfig
	for _, c := range bot.sent {
		if p, ok := c.(tgbotapi.PhotoConfig); ok {
			photo = &p
		}
	}
	if photo == nil {
		t.Fatal("expected a photo")
	}
	if !strings.Contains(photo.Caption, "Dark") || !strings.Contains(photo.Caption, "01.01.2030") {
		t.Fatalf("unexpected caption %q", photo.Caption)
	}
	kb := photo.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if *kb.InlineKeyboard[1][0].CallbackData != "sub:s:10:1" {
		t.Fatalf("expected subscribe button, got %+v", kb.InlineKeyboard[1][0])
	}
}

func TestDetailsNotFound(t *testing.T) {
	r, bot, _, _ := newTestRouter()
	r.HandleUpdate(context.Background(), callbackUpdate("view:m:999:1", nil))

	msgs := bot.messages()
	if len(msgs) != 1 || msgs[0].Text != notFoundText {
		t.Fatalf("unexpected reply %+v", msgs)
	}
}

func TestSubscribeCallbackFlipsButton(t *testing.T) {
	r, bot, _, subs := newTestRouter()
	card := detailsKeyboard(domain.Content{Kind: domain.KindSeries, ID: 10, Title: "Dark"}, false, "")

	r.HandleUpdate(context.Background(), callbackUpdate("sub:s:10:1", &card))

	if !subs.subscribed[10] {
		t.Fatal("expected subscription")
	}
	cbs := bot.callbacks()
	if len(cbs) != 1 || cbs[0].Text != subscribedText {
		t.Fatalf("unexpected callback answers %+v", cbs)
	}
	var edited bool
	for _, c := range bot.sent {
		if e, ok := c.(tgbotapi.EditMessageReplyMarkupConfig); ok {
			edited = *e.ReplyMarkup.InlineKeyboard[0][0].CallbackData == "unsub:s:10:1"
		}
	}
	if !edited {
		t.Fatal("expected the card keyboard to switch to unsubscribe")
	}

	r.HandleUpdate(context.Background(), callbackUpdate("sub:s:10:1", &card))
	if cbs := bot.callbacks(); cbs[len(cbs)-1].Text != alreadySubText {
		t.Fatalf("expected already subscribed answer, got %q", cbs[len(cbs)-1].Text)
	}
}

func TestToggleFailureOffersRetry(t *testing.T) {
	r, bot, _, subs := newTestRouter()
	subs.toggleErr = errors.New("db down")

	r.HandleUpdate(context.Background(), callbackUpdate("tgl:-:0:1", nil))

	msgs := bot.messages()
	if len(msgs) != 1 || msgs[0].Text != errorText {
		t.Fatalf("unexpected reply %+v", msgs)
	}
	kb := msgs[0].ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if *kb.InlineKeyboard[0][0].CallbackData != "set:-:0:1" {
		t.Fatalf("unexpected retry token %q", *kb.InlineKeyboard[0][0].CallbackData)
	}
}

func TestUnknownCallbackIsAnswered(t *testing.T) {
	r, bot, _, _ := newTestRouter()
	r.HandleUpdate(context.Background(), callbackUpdate("garbage", nil))

	if len(bot.callbacks()) != 1 || len(bot.messages()) != 0 {
		t.Fatalf("unexpected output %+v", bot.sent)
	}
}

func TestSessionsExpire(t *testing.T) {
	s := newSessions(2, 20*time.Millisecond)
	s.update(1, func(v *session) { v.Query = "q" })
	if s.get(1).Query != "q" {
		t.Fatal("expected stored query")
	}
	time.Sleep(60 * time.Millisecond)
	if s.get(1).Query != "" {
		t.Fatal("expected expired session")
	}
}
