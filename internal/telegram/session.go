package telegram

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// session is per-user scratch state. Losing it only costs the user a new
// search.
type session struct {
	Query string // last search, used by result pagination
}

// sessions is a bounded, time-boxed store of per-user scratch state.
// Safe for concurrent use.
type sessions struct {
	cache *expirable.LRU[int64, session]
}

func newSessions(size int, ttl time.Duration) *sessions {
	if size <= 0 {
		size = 10000
	}
	return &sessions{cache: expirable.NewLRU[int64, session](size, nil, ttl)}
}

func (s *sessions) get(userID int64) session {
	v, _ := s.cache.Get(userID)
	return v
}

func (s *sessions) update(userID int64, fn func(*session)) {
	v, _ := s.cache.Get(userID)
	fn(&v)
	s.cache.Add(userID, v)
}
