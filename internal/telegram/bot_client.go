// Package telegram runs the chat interface: it routes commands from the
// configured chat, relays the agent's mid-flow questions, and reports
// application outcomes.
package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
)

// BotClient wraps the bot.Bot methods the dispatcher uses, so tests can
// substitute a fake.
type BotClient interface {
	// SendMessage sends a text message to a chat.
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error)

	// SendPhoto sends a photo to a chat.
	SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*tgmodels.Message, error)

	// GetMe returns information about the bot.
	GetMe(ctx context.Context) (*tgmodels.User, error)
}

type realBotClient struct {
	bot *bot.Bot
}

// NewBotClient wraps a *bot.Bot as a BotClient.
func NewBotClient(b *bot.Bot) BotClient {
	return &realBotClient{bot: b}
}

func (r *realBotClient) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	return r.bot.SendMessage(ctx, params)
}

func (r *realBotClient) SendPhoto(ctx context.Context, params *bot.SendPhotoParams) (*tgmodels.Message, error) {
	return r.bot.SendPhoto(ctx, params)
}

func (r *realBotClient) GetMe(ctx context.Context) (*tgmodels.User, error) {
	return r.bot.GetMe(ctx)
}
