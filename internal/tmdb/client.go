package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ihovsky/MovieTrackerBot/internal/domain"
)

// Window is the trending time window.
type Window string

const (
	WindowDay  Window = "day"
	WindowWeek Window = "week"
)

// Page is one page of normalized list results. The zero value is the empty
// sentinel returned on any failure.
type Page struct {
	Items      []domain.Content
	Page       int
	TotalPages int
}

// HasNext reports whether another page can be requested.
func (p Page) HasNext() bool { return p.Page > 0 && p.Page < p.TotalPages }

// errNotFound marks a 404 from the catalog; it is logged at debug level only.
var errNotFound = errors.New("tmdb: not found")

// Client provides access to the TMDB API.
type Client struct {
	token        string
	baseURL      string
	imageBaseURL string
	language     string
	httpClient   *http.Client
	timeout      time.Duration
	limiter      *rate.Limiter
	log          *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout bounds every request. It applies to a copy of the HTTP
// client, so a client passed to WithHTTPClient is left untouched.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRateLimit caps outbound requests per second. Zero disables the limit.
func WithRateLimit(perSecond int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), perSecond)
	}
}

// WithLogger sets the logger used for failed lookups.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a TMDB client authenticating with a v4 read access token.
func New(token, baseURL, imageBaseURL, language string, opts ...Option) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("tmdb access token required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("tmdb base url required")
	}
	client := &Client{
		token:        token,
		baseURL:      strings.TrimRight(baseURL, "/"),
		imageBaseURL: strings.TrimRight(strings.TrimSpace(imageBaseURL), "/"),
		language:     strings.TrimSpace(language),
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		log:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.timeout > 0 {
		hc := *client.httpClient
		hc.Timeout = client.timeout
		client.httpClient = &hc
	}
	return client, nil
}

// Trending lists trending movies or series for the window.
func (c *Client) Trending(ctx context.Context, kind domain.ContentKind, window Window, page int) Page {
	if window != WindowDay && window != WindowWeek {
		window = WindowWeek
	}
	return c.list(ctx, kind, fmt.Sprintf("/trending/%s/%s", pathKind(kind), window), page, nil)
}

// Popular lists popular movies or series.
func (c *Client) Popular(ctx context.Context, kind domain.ContentKind, page int) Page {
	return c.list(ctx, kind, fmt.Sprintf("/%s/popular", pathKind(kind)), page, nil)
}

// Search runs a multi search. People are dropped from the results.
func (c *Client) Search(ctx context.Context, query string, page int) Page {
	query = strings.TrimSpace(query)
	if query == "" {
		return Page{}
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	return c.list(ctx, "", "/search/multi", page, params)
}

// Recommendations lists titles similar to the given one.
func (c *Client) Recommendations(ctx context.Context, kind domain.ContentKind, id int64, page int) Page {
	if id <= 0 {
		return Page{}
	}
	return c.list(ctx, kind, fmt.Sprintf("/%s/%d/recommendations", pathKind(kind), id), page, nil)
}

// Details fetches a movie or series by id. It returns nil when the catalog has
// no such record or the lookup fails.
func (c *Client) Details(ctx context.Context, kind domain.ContentKind, id int64) *domain.Content {
	if id <= 0 || !kind.Valid() {
		return nil
	}
	var payload details
	if err := c.get(ctx, fmt.Sprintf("/%s/%d", pathKind(kind), id), nil, &payload); err != nil {
		c.logFailure("details", err, zap.String("kind", string(kind)), zap.Int64("content_id", id))
		return nil
	}
	if payload.ID == 0 {
		return nil
	}
	return payload.toContent(kind)
}

// SeasonDetails fetches a season with its episodes, or nil on failure.
func (c *Client) SeasonDetails(ctx context.Context, seriesID int64, season int) *domain.Season {
	if seriesID <= 0 || season < 0 {
		return nil
	}
	var payload seasonDetails
	if err := c.get(ctx, fmt.Sprintf("/tv/%d/season/%d", seriesID, season), nil, &payload); err != nil {
		c.logFailure("season details", err, zap.Int64("series_id", seriesID), zap.Int("season", season))
		return nil
	}
	return payload.toSeason()
}

// PosterURL returns the absolute poster URL, or "" when there is no poster.
func (c *Client) PosterURL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || c.imageBaseURL == "" {
		return ""
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.imageBaseURL + path
}

func (c *Client) list(ctx context.Context, kind domain.ContentKind, path string, page int, params url.Values) Page {
	if page < 1 {
		page = 1
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("page", strconv.Itoa(page))

	var payload listResponse
	if err := c.get(ctx, path, params, &payload); err != nil {
		c.logFailure("list", err, zap.String("path", path), zap.Int("page", page))
		return Page{}
	}
	out := Page{Page: payload.Page, TotalPages: payload.TotalPages}
	for _, r := range payload.Results {
		k, ok := kindOf(r.MediaType, kind)
		if !ok || r.ID <= 0 {
			continue
		}
		out.Items = append(out.Items, r.toContent(k))
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse tmdb url: %w", err)
	}
	if params == nil {
		params = url.Values{}
	}
	if c.language != "" {
		params.Set("language", c.language)
	}
	endpoint.RawQuery = params.Encode()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return errNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tmdb %s returned %d (latency=%v)", path, resp.StatusCode, latency)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode tmdb response: %w", err)
	}
	return nil
}

func (c *Client) logFailure(op string, err error, fields ...zap.Field) {
	fields = append(fields, zap.Error(err))
	if errors.Is(err, errNotFound) {
		c.log.Debug("tmdb "+op+": not found", fields...)
		return
	}
	c.log.Warn("tmdb "+op+" failed", fields...)
}

func pathKind(kind domain.ContentKind) string {
	if kind == domain.KindSeries {
		return "tv"
	}
	return "movie"
}
