package domain

import "time"

// User is a messaging-platform user known to the bot.
type User struct {
	ID                   int64 // platform user id, also the chat id for private chats
	Username             string
	FirstName            string
	LastName             string
	NotificationsEnabled bool
	CreatedAt            time.Time // UTC
	LastActive           time.Time // UTC
}

// Profile carries the display attributes refreshed on every interaction.
type Profile struct {
	ID        int64
	Username  string
	FirstName string
	LastName  string
}

// Series is a tracked show. The ID is the catalog id, never generated locally.
type Series struct {
	ID              int64
	Title           string
	OriginalTitle   string
	PosterPath      string
	LastEpisodeDate *time.Time // calendar date, UTC midnight
	NextEpisodeDate *time.Time // calendar date, UTC midnight
	LastCheck       *time.Time // UTC, nullable until the first poll
}

// Notification is an outbox row addressed to a single user.
type Notification struct {
	ID          int64
	UserID      int64
	ContentID   int64
	ContentKind ContentKind
	Message     string
	CreatedAt   time.Time // UTC
	Sent        bool
}
