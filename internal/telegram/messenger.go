package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// botAPI is the subset of *tgbotapi.BotAPI used by this package.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Messenger delivers plain-text notifications. It satisfies
// dispatcher.Messenger.
type Messenger struct {
	bot botAPI
}

// NewMessenger wraps a bot client.
func NewMessenger(bot botAPI) *Messenger {
	return &Messenger{bot: bot}
}

// SendText sends a plain text message. The bot client has no per-call
// context; the HTTP client timeout bounds the request instead.
func (m *Messenger) SendText(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := m.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// SendPhoto sends a photo by URL with a caption. Captions over the platform
// limit go out as a separate text message.
func (m *Messenger) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(photoURL))
	long := len([]rune(caption)) > captionLimit
	if !long {
		photo.Caption = caption
	}
	if _, err := m.bot.Send(photo); err != nil {
		return err
	}
	if long {
		return m.SendText(ctx, chatID, caption)
	}
	return nil
}
