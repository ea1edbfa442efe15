package telegram

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
	"github.com/ihovsky/MovieTrackerBot/internal/metrics"
	"github.com/ihovsky/MovieTrackerBot/internal/tmdb"
)

// Catalog is the metadata client used by the conversation screens.
type Catalog interface {
	Trending(ctx context.Context, kind domain.ContentKind, window tmdb.Window, page int) tmdb.Page
	Popular(ctx context.Context, kind domain.ContentKind, page int) tmdb.Page
	Search(ctx context.Context, query string, page int) tmdb.Page
	Recommendations(ctx context.Context, kind domain.ContentKind, id int64, page int) tmdb.Page
	Details(ctx context.Context, kind domain.ContentKind, id int64) *domain.Content
	PosterURL(path string) string
}

// Subscriptions is implemented by subscription.Engine.
type Subscriptions interface {
	Subscribe(ctx context.Context, userID, seriesID int64) (bool, error)
	Unsubscribe(ctx context.Context, userID, seriesID int64) (bool, error)
	ToggleNotifications(ctx context.Context, userID int64) (bool, error)
	IsSubscribed(ctx context.Context, userID, seriesID int64) (bool, error)
	Subscriptions(ctx context.Context, userID int64) ([]domain.Series, error)
}

// Users records who talks to the bot.
type Users interface {
	UpsertUser(ctx context.Context, p domain.Profile) (*domain.User, error)
}

// Freshness resolves last/next episode dates for the series card.
type Freshness interface {
	Resolve(ctx context.Context, seriesID int64) domain.Freshness
}

// Options tunes the router.
type Options struct {
	SiteURL     string // prefix of the "Watch" link; the title is appended
	SessionSize int
	SessionTTL  time.Duration
	Metrics     *metrics.Metrics
}

// Router wires Telegram updates to handlers. HandleUpdate is safe for
// concurrent use.
type Router struct {
	bot       botAPI
	log       *zap.Logger
	catalog   Catalog
	subs      Subscriptions
	users     Users
	freshness Freshness
	sessions  *sessions
	siteURL   string
	metrics   *metrics.Metrics
}

// NewRouter creates a new Telegram router.
func NewRouter(bot botAPI, log *zap.Logger, catalog Catalog, subs Subscriptions, users Users, freshness Freshness, opts Options) *Router {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New(nil)
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	return &Router{
		bot:       bot,
		log:       log,
		catalog:   catalog,
		subs:      subs,
		users:     users,
		freshness: freshness,
		sessions:  newSessions(opts.SessionSize, opts.SessionTTL),
		siteURL:   opts.SiteURL,
		metrics:   opts.Metrics,
	}
}

// request carries the identity of one incoming update.
type request struct {
	chatID int64
	userID int64
	user   *domain.User // nil when the profile could not be stored
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("handler panic", zap.Any("panic", rec), zap.Int("update_id", upd.UpdateID))
		}
	}()

	// Text messages
	if upd.Message != nil && upd.Message.From != nil {
		r.metrics.UpdatesHandled.WithLabelValues("message").Inc()
		msg := upd.Message
		req := r.identify(ctx, msg.Chat.ID, msg.From)
		r.handleMessage(ctx, req, msg)
		return
	}

	// Callback queries (inline buttons)
	if cb := upd.CallbackQuery; cb != nil && cb.Message != nil && cb.From != nil {
		r.metrics.UpdatesHandled.WithLabelValues("callback").Inc()
		req := r.identify(ctx, cb.Message.Chat.ID, cb.From)
		r.handleCallback(ctx, req, cb)
		return
	}
}

func (r *Router) identify(ctx context.Context, chatID int64, from *tgbotapi.User) request {
	req := request{chatID: chatID, userID: from.ID}
	u, err := r.users.UpsertUser(ctx, domain.Profile{
		ID:        from.ID,
		Username:  from.UserName,
		FirstName: from.FirstName,
		LastName:  from.LastName,
	})
	if err != nil {
		r.log.Warn("upsert user failed", zap.Int64("user_id", from.ID), zap.Error(err))
		return req
	}
	req.user = u
	return req
}

func (r *Router) handleMessage(ctx context.Context, req request, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		args := strings.TrimSpace(msg.CommandArguments())
		switch msg.Command() {
		case "start":
			r.handleStart(req)
		case "help":
			r.handleHelp(req)
		case "trending":
			r.handleTrendingMenu(req)
		case "search":
			if args == "" {
				r.askQuery(req)
				return
			}
			r.handleSearch(ctx, req, args, 1)
		case "subscriptions":
			r.handleSubscriptions(ctx, req)
		case "settings":
			r.handleSettings(req)
		default:
			r.handleHelp(req)
		}
		return
	}

	text := strings.TrimSpace(msg.Text)
	switch text {
	case "":
		return
	case btnTrendingMovies:
		r.handlePeriod(req, domain.KindMovie)
	case btnTrendingSeries:
		r.handlePeriod(req, domain.KindSeries)
	case btnSearch:
		r.askQuery(req)
	case btnSubscriptions:
		r.handleSubscriptions(ctx, req)
	case btnAbout:
		r.handleHelp(req)
	case btnSettings:
		r.handleSettings(req)
	default:
		// Any other text is a search query.
		r.handleSearch(ctx, req, text, 1)
	}
}

func (r *Router) handleCallback(ctx context.Context, req request, cb *tgbotapi.CallbackQuery) {
	a, err := domain.ParseAction(cb.Data)
	if err != nil {
		r.log.Debug("unknown callback", zap.String("data", cb.Data), zap.Error(err))
		r.answerCallback(cb.ID, "")
		return
	}

	switch a.View {
	case domain.ViewSubscribe, domain.ViewUnsubscribe, domain.ViewToggle:
		// answered by the handler with a status text
	default:
		r.answerCallback(cb.ID, "")
	}

	switch a.View {
	case domain.ViewMenu:
		r.handleMenu(req)
	case domain.ViewTrendingDay:
		r.handleTrending(ctx, req, a, tmdb.WindowDay)
	case domain.ViewTrendingWeek:
		r.handleTrending(ctx, req, a, tmdb.WindowWeek)
	case domain.ViewPopular:
		r.handlePopular(ctx, req, a)
	case domain.ViewSearch:
		q := r.sessions.get(req.userID).Query
		if q == "" {
			r.askQuery(req)
			return
		}
		r.handleSearch(ctx, req, q, a.Page)
	case domain.ViewNewSearch:
		r.askQuery(req)
	case domain.ViewDetails:
		r.handleDetails(ctx, req, a)
	case domain.ViewSubscribe:
		r.handleSubscribe(ctx, req, cb, a)
	case domain.ViewUnsubscribe:
		r.handleUnsubscribe(ctx, req, cb, a)
	case domain.ViewRecommend:
		r.handleRecommendations(ctx, req, a)
	case domain.ViewSubscriptions:
		r.handleSubscriptions(ctx, req)
	case domain.ViewSettings:
		r.handleSettings(req)
	case domain.ViewToggle:
		r.handleToggle(ctx, req, cb)
	case domain.ViewNoop:
		// page indicator
	}
}
