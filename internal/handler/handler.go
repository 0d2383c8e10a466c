package handler

import (
	"context"

	"github.com/gotd/td/tg"

	"github.com/pavelc4/aether-dl-bot/internal/media"
	"github.com/pavelc4/aether-dl-bot/internal/telegram"
)

// Resolver finds and stages every rendition of a link.
type Resolver interface {
	Resolve(ctx context.Context, url, workDir string) (*media.Bundle, error)
}

// Messenger is the outgoing chat API the handlers talk to.
type Messenger interface {
	SendText(ctx context.Context, peer tg.InputPeerClass, replyTo int, html string) (int, error)
	SendVideo(ctx context.Context, peer tg.InputPeerClass, replyTo int, v telegram.Video) error
	DeleteMessage(ctx context.Context, peer tg.InputPeerClass, id int) error
}

// Request is one incoming message addressed to a handler.
type Request struct {
	Peer      tg.InputPeerClass
	MessageID int
	UserID    int64
}
