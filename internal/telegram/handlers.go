package telegram

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ihovsky/MovieTrackerBot/assets"
	"github.com/ihovsky/MovieTrackerBot/internal/domain"
	"github.com/ihovsky/MovieTrackerBot/internal/tmdb"
)

// --- Generic helpers ---

func (r *Router) send(chatID int64, text string, markup any) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if markup != nil {
		msg.ReplyMarkup = markup
	}
	if _, err := r.bot.Send(msg); err != nil {
		r.log.Warn("send failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (r *Router) answerCallback(id, text string) {
	if _, err := r.bot.Request(tgbotapi.NewCallback(id, text)); err != nil {
		r.log.Debug("answer callback failed", zap.Error(err))
	}
}

// fail apologizes and offers to retry the action or go back to the menu.
func (r *Router) fail(req request, retry domain.Action, err error) {
	r.log.Error("request failed",
		zap.Int64("user_id", req.userID),
		zap.String("action", retry.Encode()),
		zap.Error(err),
	)
	r.send(req.chatID, errorText, errorKeyboard(retry))
}

// --- Core commands ---

func (r *Router) handleStart(req request) {
	r.send(req.chatID, assets.Text("start"), mainMenuKeyboard())
}

func (r *Router) handleHelp(req request) {
	r.send(req.chatID, assets.Text("help"), mainMenuKeyboard())
}

func (r *Router) handleMenu(req request) {
	r.send(req.chatID, menuText, mainMenuKeyboard())
}

// --- Trending / popular ---

func (r *Router) handlePeriod(req request, kind domain.ContentKind) {
	r.send(req.chatID, choosePeriodText, periodKeyboard(kind))
}

func (r *Router) handleTrendingMenu(req request) {
	r.send(req.chatID, "🔥 <b>Movies</b>", periodKeyboard(domain.KindMovie))
	r.send(req.chatID, "📺 <b>Series</b>", periodKeyboard(domain.KindSeries))
}

func (r *Router) handleTrending(ctx context.Context, req request, a domain.Action, window tmdb.Window) {
	kind := a.Kind
	if !kind.Valid() {
		kind = domain.KindMovie
	}
	period := "this week"
	if window == tmdb.WindowDay {
		period = "today"
	}
	title := fmt.Sprintf("🔥 <b>Trending %s %s</b>", kindPlural(kind), period)
	r.sendList(req, title, r.catalog.Trending(ctx, kind, window, a.Page), a, false)
}

func (r *Router) handlePopular(ctx context.Context, req request, a domain.Action) {
	kind := a.Kind
	if !kind.Valid() {
		kind = domain.KindMovie
	}
	title := fmt.Sprintf("⭐ <b>Popular %s</b>", kindPlural(kind))
	r.sendList(req, title, r.catalog.Popular(ctx, kind, a.Page), a, false)
}

func kindPlural(k domain.ContentKind) string {
	if k == domain.KindSeries {
		return "series"
	}
	return "movies"
}

// sendList renders a page of catalog results. An empty page is either an
// empty list or a failed lookup; both offer a retry.
func (r *Router) sendList(req request, title string, page tmdb.Page, current domain.Action, newSearch bool) {
	if len(page.Items) == 0 {
		text := emptyListText
		if newSearch {
			text = nothingFoundText
		}
		r.send(req.chatID, text, errorKeyboard(current))
		return
	}
	num := page.Page
	if num < 1 {
		num = current.Page
	}
	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	for i, c := range page.Items {
		b.WriteString("\n")
		b.WriteString(listLine(i+1, c))
	}
	r.send(req.chatID, b.String(), listKeyboard(page.Items, current, num, page.TotalPages, newSearch))
}

// --- Search ---

func (r *Router) askQuery(req request) {
	r.send(req.chatID, askQueryText, nil)
}

func (r *Router) handleSearch(ctx context.Context, req request, query string, page int) {
	if utf8.RuneCountInString(query) > 200 {
		query = truncate(query, 200)
	}
	r.sessions.update(req.userID, func(s *session) { s.Query = query })
	current := domain.Action{View: domain.ViewSearch, Page: page}
	title := fmt.Sprintf("🔍 <b>Results for «%s»</b>", html.EscapeString(query))
	r.sendList(req, title, r.catalog.Search(ctx, query, page), current, true)
}

// --- Details ---

func (r *Router) handleDetails(ctx context.Context, req request, a domain.Action) {
	if !a.Kind.Valid() || a.ID <= 0 {
		r.send(req.chatID, notFoundText, errorKeyboard(domain.Action{View: domain.ViewMenu}))
		return
	}
	c := r.catalog.Details(ctx, a.Kind, a.ID)
	if c == nil {
		r.send(req.chatID, notFoundText, errorKeyboard(a))
		return
	}

	var (
		f          domain.Freshness
		subscribed bool
	)
	if c.Kind == domain.KindSeries {
		f = r.freshness.Resolve(ctx, c.ID)
		ok, err := r.subs.IsSubscribed(ctx, req.userID, c.ID)
		if err != nil {
			r.fail(req, a, err)
			return
		}
		subscribed = ok
	}

	card := detailsCard(*c, f)
	markup := detailsKeyboard(*c, subscribed, r.siteURL)

	poster := r.catalog.PosterURL(c.PosterPath)
	if poster != "" && utf8.RuneCountInString(card) <= captionLimit {
		photo := tgbotapi.NewPhoto(req.chatID, tgbotapi.FileURL(poster))
		photo.Caption = card
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = markup
		_, err := r.bot.Send(photo)
		if err == nil {
			return
		}
		r.log.Debug("poster send failed, falling back to text", zap.Error(err))
	}
	r.send(req.chatID, card, markup)
}

// --- Subscriptions ---

func (r *Router) handleSubscribe(ctx context.Context, req request, cb *tgbotapi.CallbackQuery, a domain.Action) {
	if a.Kind != domain.KindSeries {
		r.answerCallback(cb.ID, seriesOnlyText)
		return
	}
	created, err := r.subs.Subscribe(ctx, req.userID, a.ID)
	switch {
	case errors.Is(err, domain.ErrContentNotFound):
		r.answerCallback(cb.ID, notFoundText)
		return
	case err != nil:
		r.answerCallback(cb.ID, "")
		r.fail(req, a, err)
		return
	}
	if created {
		r.answerCallback(cb.ID, subscribedText)
	} else {
		r.answerCallback(cb.ID, alreadySubText)
	}
	r.refreshSubscribeButton(cb, true)
}

func (r *Router) handleUnsubscribe(ctx context.Context, req request, cb *tgbotapi.CallbackQuery, a domain.Action) {
	removed, err := r.subs.Unsubscribe(ctx, req.userID, a.ID)
	if err != nil {
		r.answerCallback(cb.ID, "")
		r.fail(req, a, err)
		return
	}
	if removed {
		r.answerCallback(cb.ID, unsubscribedText)
	} else {
		r.answerCallback(cb.ID, notSubscribedText)
	}
	r.refreshSubscribeButton(cb, false)
}

// refreshSubscribeButton flips the subscribe/unsubscribe button on the card
// the callback came from.
func (r *Router) refreshSubscribeButton(cb *tgbotapi.CallbackQuery, subscribed bool) {
	if cb.Message.ReplyMarkup == nil {
		return
	}
	markup, changed := withSubscribeState(*cb.Message.ReplyMarkup, subscribed)
	if !changed {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(cb.Message.Chat.ID, cb.Message.MessageID, markup)
	if _, err := r.bot.Request(edit); err != nil {
		r.log.Debug("edit markup failed", zap.Error(err))
	}
}

// withSubscribeState returns a copy of markup with the subscribe button set
// to the given state.
func withSubscribeState(markup tgbotapi.InlineKeyboardMarkup, subscribed bool) (tgbotapi.InlineKeyboardMarkup, bool) {
	changed := false
	rows := make([][]tgbotapi.InlineKeyboardButton, len(markup.InlineKeyboard))
	for i, row := range markup.InlineKeyboard {
		rows[i] = append([]tgbotapi.InlineKeyboardButton(nil), row...)
		for j, btn := range row {
			if btn.CallbackData == nil {
				continue
			}
			a, err := domain.ParseAction(*btn.CallbackData)
			if err != nil || (a.View != domain.ViewSubscribe && a.View != domain.ViewUnsubscribe) {
				continue
			}
			rows[i][j] = subscribeButton(a.ID, subscribed)
			changed = true
		}
	}
	return tgbotapi.InlineKeyboardMarkup{InlineKeyboard: rows}, changed
}

func (r *Router) handleSubscriptions(ctx context.Context, req request) {
	series, err := r.subs.Subscriptions(ctx, req.userID)
	if err != nil {
		r.fail(req, domain.Action{View: domain.ViewSubscriptions}, err)
		return
	}
	r.send(req.chatID, subscriptionsText(series), subscriptionsKeyboard(series))
}

// --- Recommendations ---

func (r *Router) handleRecommendations(ctx context.Context, req request, a domain.Action) {
	if !a.Kind.Valid() {
		r.send(req.chatID, notFoundText, errorKeyboard(domain.Action{View: domain.ViewMenu}))
		return
	}
	r.sendList(req, "👍 <b>You may also like</b>", r.catalog.Recommendations(ctx, a.Kind, a.ID, a.Page), a, false)
}

// --- Settings ---

func (r *Router) handleSettings(req request) {
	enabled := true
	if req.user != nil {
		enabled = req.user.NotificationsEnabled
	}
	r.send(req.chatID, settingsText(enabled), settingsKeyboard(enabled))
}

func (r *Router) handleToggle(ctx context.Context, req request, cb *tgbotapi.CallbackQuery) {
	enabled, err := r.subs.ToggleNotifications(ctx, req.userID)
	if err != nil {
		r.answerCallback(cb.ID, "")
		r.fail(req, domain.Action{View: domain.ViewSettings}, err)
		return
	}
	status := "🔔 Notifications enabled"
	if !enabled {
		status = "🔕 Notifications disabled"
	}
	r.answerCallback(cb.ID, status)

	edit := tgbotapi.NewEditMessageTextAndMarkup(cb.Message.Chat.ID, cb.Message.MessageID,
		settingsText(enabled), settingsKeyboard(enabled))
	edit.ParseMode = tgbotapi.ModeHTML
	if _, err := r.bot.Request(edit); err != nil {
		r.log.Debug("edit settings failed", zap.Error(err))
	}
}
