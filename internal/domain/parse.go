package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrEmptyAction   = errors.New("empty action")
	ErrInvalidAction = errors.New("invalid action")
	ErrInvalidDate   = errors.New("invalid date")
)

// View names the screen an inline button leads to.
type View string

const (
	ViewMenu          View = "menu"
	ViewTrendingDay   View = "trd"
	ViewTrendingWeek  View = "trw"
	ViewPopular       View = "pop"
	ViewSearch        View = "srch"
	ViewNewSearch     View = "nsrch"
	ViewDetails       View = "view"
	ViewSubscribe     View = "sub"
	ViewUnsubscribe   View = "unsub"
	ViewRecommend     View = "rec"
	ViewSubscriptions View = "subs"
	ViewSettings      View = "set"
	ViewToggle        View = "tgl"
	ViewNoop          View = "noop"
)

var knownViews = map[View]bool{
	ViewMenu: true, ViewTrendingDay: true, ViewTrendingWeek: true, ViewPopular: true,
	ViewSearch: true, ViewNewSearch: true, ViewDetails: true, ViewSubscribe: true,
	ViewUnsubscribe: true, ViewRecommend: true, ViewSubscriptions: true,
	ViewSettings: true, ViewToggle: true, ViewNoop: true,
}

// Action is the decoded form of an inline-button token: "view:kind:id:page".
// Telegram limits callback data to 64 bytes; the short kind codes keep every
// token well below that.
type Action struct {
	View View
	Kind ContentKind // empty when the view is not about a single kind
	ID   int64
	Page int
}

// Encode renders the action as a callback token.
func (a Action) Encode() string {
	kind := "-"
	switch a.Kind {
	case KindMovie:
		kind = "m"
	case KindSeries:
		kind = "s"
	}
	page := a.Page
	if page < 1 {
		page = 1
	}
	return fmt.Sprintf("%s:%s:%d:%d", a.View, kind, a.ID, page)
}

// ParseAction decodes a callback token produced by Action.Encode.
func ParseAction(s string) (Action, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Action{}, ErrEmptyAction
	}
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return Action{}, fmt.Errorf("%w: %q", ErrInvalidAction, s)
	}
	view := View(parts[0])
	if !knownViews[view] {
		return Action{}, fmt.Errorf("%w: unknown view %q", ErrInvalidAction, parts[0])
	}
	var kind ContentKind
	if parts[1] != "-" {
		k, err := ParseKind(parts[1])
		if err != nil {
			return Action{}, fmt.Errorf("%w: %v", ErrInvalidAction, err)
		}
		kind = k
	}
	id, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || id < 0 {
		return Action{}, fmt.Errorf("%w: bad id %q", ErrInvalidAction, parts[2])
	}
	page, err := strconv.Atoi(parts[3])
	if err != nil || page < 1 {
		return Action{}, fmt.Errorf("%w: bad page %q", ErrInvalidAction, parts[3])
	}
	return Action{View: view, Kind: kind, ID: id, Page: page}, nil
}

// ParseAirDate parses the catalog's "YYYY-MM-DD" date. An empty string means
// "unknown" and yields nil without error.
func ParseAirDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDate, s)
	}
	return &t, nil
}
