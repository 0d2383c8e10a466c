package bot

import (
	"context"

	"github.com/pavelc4/aether-dl-bot/internal/telegram"
	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

type Bot struct {
	client *telegram.Client
}

func New(client *telegram.Client) *Bot {
	return &Bot{client: client}
}

func (b *Bot) Run(ctx context.Context, token string) error {
	return b.client.Start(ctx, token, func(context.Context) {
		logger.Info("Bot started and listening")
	})
}
