// Package bot contains the Telegram-facing layer: the update loop,
// the reservation and birthday dialog flows, admin approval
// callbacks and input validation.  The chat transport is consumed
// through a narrow client interface so tests can inject a fake.
package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type telegramClient interface {
	Send(tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	SelfUser() tgbotapi.User
}

type realTelegramClient struct {
	api *tgbotapi.BotAPI
}

func (c *realTelegramClient) Send(msg tgbotapi.Chattable) (tgbotapi.Message, error) {
	return c.api.Send(msg)
}

func (c *realTelegramClient) Request(msg tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	return c.api.Request(msg)
}

func (c *realTelegramClient) GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(cfg)
}

func (c *realTelegramClient) SelfUser() tgbotapi.User {
	return c.api.Self
}

// messageGone reports whether a transport error means the target
// message no longer exists (deleted by the user or already edited
// away).  Such errors are informational: the action's purpose is
// already achieved.
func messageGone(err error) bool {
	if err == nil {
		return false
	}
	text := err.Error()
	return strings.Contains(text, "message to delete not found") ||
		strings.Contains(text, "message to edit not found") ||
		strings.Contains(text, "message can't be deleted") ||
		strings.Contains(text, "message is not modified")
}
