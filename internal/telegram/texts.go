package telegram

import (
	"fmt"
	"net/url"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
)

// Reply keyboard labels. Pressing one sends the label as plain text.
const (
	btnTrendingMovies = "🔥 Trending movies"
	btnTrendingSeries = "📺 Trending series"
	btnSearch         = "🔍 Search"
	btnSubscriptions  = "👤 My subscriptions"
	btnAbout          = "ℹ️ About"
	btnSettings       = "⚙️ Settings"
)

// UI texts in English
const (
	menuText            = "🏠 Main menu. What would you like to see?"
	choosePeriodText    = "Trending for which period?"
	askQueryText        = "🔍 Send me a movie or series title."
	nothingFoundText    = "Nothing found. Try another title."
	emptyListText       = "The list is empty right now."
	notFoundText        = "😕 Could not find this title."
	errorText           = "😕 Something went wrong. Please try again."
	noSubscriptionsText = "You are not subscribed to any series yet. Open a series and press Subscribe."
	subscribedText      = "✅ Subscribed. I will notify you about new episodes."
	alreadySubText      = "You are already subscribed."
	unsubscribedText    = "❌ Unsubscribed."
	notSubscribedText   = "You were not subscribed."
	seriesOnlyText      = "Only series can be followed."
)

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnTrendingMovies),
			tgbotapi.NewKeyboardButton(btnTrendingSeries),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSearch),
			tgbotapi.NewKeyboardButton(btnSubscriptions),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnAbout),
			tgbotapi.NewKeyboardButton(btnSettings),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func button(text string, a domain.Action) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, a.Encode())
}

func menuRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(button("🏠 Main menu", domain.Action{View: domain.ViewMenu}))
}

// Inline keyboards

func periodKeyboard(kind domain.ContentKind) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("Today", domain.Action{View: domain.ViewTrendingDay, Kind: kind}),
			button("This week", domain.Action{View: domain.ViewTrendingWeek, Kind: kind}),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("⭐ Popular", domain.Action{View: domain.ViewPopular, Kind: kind}),
		),
		menuRow(),
	)
}

// pageRow builds prev/indicator/next buttons that repeat a with another page.
func pageRow(a domain.Action, page, total int) []tgbotapi.InlineKeyboardButton {
	if total < 1 {
		total = 1
	}
	var row []tgbotapi.InlineKeyboardButton
	if page > 1 {
		prev := a
		prev.Page = page - 1
		row = append(row, button("◀️ Back", prev))
	}
	row = append(row, button(fmt.Sprintf("%d/%d", page, total), domain.Action{View: domain.ViewNoop}))
	if page < total {
		next := a
		next.Page = page + 1
		row = append(row, button("Next ▶️", next))
	}
	return row
}

// listKeyboard has one button per item, pagination and a way back.
func listKeyboard(items []domain.Content, current domain.Action, page, total int, newSearch bool) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, c := range items {
		label := kindIcon(c.Kind) + " " + truncate(c.Title, 48)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button(label, domain.Action{View: domain.ViewDetails, Kind: c.Kind, ID: c.ID}),
		))
	}
	rows = append(rows, pageRow(current, page, total))
	if newSearch {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("🔍 New search", domain.Action{View: domain.ViewNewSearch}),
		))
	}
	rows = append(rows, menuRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func detailsKeyboard(c domain.Content, subscribed bool, siteURL string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if siteURL != "" {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("🎬 Watch", siteURL+url.QueryEscape(c.Title)),
		))
	}
	if c.Kind == domain.KindSeries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(subscribeButton(c.ID, subscribed)))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			button("👍 Similar", domain.Action{View: domain.ViewRecommend, Kind: c.Kind, ID: c.ID}),
		),
		menuRow(),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func subscribeButton(seriesID int64, subscribed bool) tgbotapi.InlineKeyboardButton {
	if subscribed {
		return button("❌ Unsubscribe", domain.Action{View: domain.ViewUnsubscribe, Kind: domain.KindSeries, ID: seriesID})
	}
	return button("✅ Subscribe to new episodes", domain.Action{View: domain.ViewSubscribe, Kind: domain.KindSeries, ID: seriesID})
}

func subscriptionsKeyboard(series []domain.Series) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	if len(series) == 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("📺 Trending series", domain.Action{View: domain.ViewTrendingWeek, Kind: domain.KindSeries}),
		))
	}
	for _, s := range series {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("📺 "+truncate(s.Title, 48), domain.Action{View: domain.ViewDetails, Kind: domain.KindSeries, ID: s.ID}),
		))
	}
	rows = append(rows, menuRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func settingsKeyboard(enabled bool) tgbotapi.InlineKeyboardMarkup {
	label := "🔔 Notifications on"
	if !enabled {
		label = "🔕 Notifications off"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button(label, domain.Action{View: domain.ViewToggle})),
		menuRow(),
	)
}

// errorKeyboard offers a retry of the failed action and a way back.
func errorKeyboard(retry domain.Action) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("🔄 Retry", retry)),
		menuRow(),
	)
}
