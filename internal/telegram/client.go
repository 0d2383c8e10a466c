package telegram

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"go.uber.org/zap"

	"github.com/pavelc4/aether-dl-bot/config"
	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

type Client struct {
	client *telegram.Client
	api    *tg.Client
	log    *zap.Logger
	me     *tg.User
}

// NewClient builds the MTProto client. gotd logs through zap; that output is
// only useful when debugging the protocol, so it stays silent otherwise.
func NewClient(cfg *config.Config, dispatcher tg.UpdateDispatcher) (*Client, error) {
	if err := os.MkdirAll(cfg.SessionDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	sessionPath := filepath.Join(cfg.SessionDir, "session.json")

	log := zap.NewNop()
	if cfg.MTProtoDebug {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("create mtproto logger: %w", err)
		}
		log = dev
	}

	opts := telegram.Options{
		SessionStorage: &session.FileStorage{Path: sessionPath},
		UpdateHandler:  dispatcher,
		Logger:         log.Named("mtproto"),
	}

	client := telegram.NewClient(cfg.AppID, cfg.AppHash, opts)

	return &Client{
		client: client,
		api:    client.API(),
		log:    log,
	}, nil
}

// Start logs in as a bot and blocks until ctx is done. ready runs once the
// session is authorized.
func (c *Client) Start(ctx context.Context, botToken string, ready func(ctx context.Context)) error {
	defer func() { _ = c.log.Sync() }()

	return c.client.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return fmt.Errorf("auth status failed: %w", err)
		}

		if !status.Authorized {
			if _, err := c.client.Auth().Bot(ctx, botToken); err != nil {
				return fmt.Errorf("bot login failed: %w", err)
			}
		}

		me, err := c.client.Self(ctx)
		if err != nil {
			return fmt.Errorf("get self failed: %w", err)
		}
		c.me = me

		logger.Info("Telegram client connected", "username", me.Username, "id", me.ID)
		if ready != nil {
			ready(ctx)
		}

		<-ctx.Done()
		return nil
	})
}

func (c *Client) API() *tg.Client {
	return c.api
}

func (c *Client) Me() *tg.User {
	return c.me
}
