package bot

import (
	"context"
	"strings"
	"time"

	"github.com/gotd/td/tg"

	"github.com/pavelc4/aether-dl-bot/internal/handler"
	"github.com/pavelc4/aether-dl-bot/internal/provider"
	"github.com/pavelc4/aether-dl-bot/internal/telegram"
	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

// Messages older than this were sent while the bot was down; answering
// them now would only confuse people.
const staleAfter = 5 * time.Minute

type Downloader interface {
	Handle(ctx context.Context, req handler.Request, url string) error
}

type Basic interface {
	HandleStart(ctx context.Context, req handler.Request) error
	HandleHelp(ctx context.Context, req handler.Request) error
	HandleUnknown(ctx context.Context, req handler.Request) error
}

type Admin interface {
	HandleStats(ctx context.Context, req handler.Request) error
}

type Router struct {
	download Downloader
	admin    Admin
	basic    Basic
	registry *provider.Registry
	now      func() time.Time
}

func NewRouter(dl Downloader, adm Admin, basic Basic, registry *provider.Registry) *Router {
	return &Router{
		download: dl,
		admin:    adm,
		basic:    basic,
		registry: registry,
		now:      time.Now,
	}
}

func (r *Router) OnMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewMessage) error {
	msg, ok := update.Message.(*tg.Message)
	if !ok {
		return nil
	}
	return r.HandleMessage(ctx, e, msg)
}

func (r *Router) OnChannelMessage(ctx context.Context, e tg.Entities, update *tg.UpdateNewChannelMessage) error {
	msg, ok := update.Message.(*tg.Message)
	if !ok {
		return nil
	}
	return r.HandleMessage(ctx, e, msg)
}

func (r *Router) HandleMessage(ctx context.Context, e tg.Entities, msg *tg.Message) error {
	if msg.Out || msg.Message == "" {
		return nil
	}
	if r.now().Sub(time.Unix(int64(msg.Date), 0)) > staleAfter {
		logger.Debug("Ignoring stale message", "id", msg.ID, "date", msg.Date)
		return nil
	}

	peer, err := telegram.ResolvePeer(msg.PeerID, e)
	if err != nil {
		return err
	}

	req := handler.Request{
		Peer:      peer,
		MessageID: msg.ID,
		UserID:    telegram.SenderID(msg),
	}
	return r.Route(ctx, req, msg.Message)
}

// Route dispatches a message text that already passed the update filters.
func (r *Router) Route(ctx context.Context, req handler.Request, text string) error {
	text = stripBotMention(strings.TrimSpace(text))

	cmd, arg := splitCommand(text)
	switch cmd {
	case "":
	case "/start":
		return r.basic.HandleStart(ctx, req)
	case "/help":
		return r.basic.HandleHelp(ctx, req)
	case "/stats":
		return r.admin.HandleStats(ctx, req)
	case "/dl", "/video":
		if url := provider.ExtractURL(arg); url != "" && r.registry.Supported(url) {
			return r.download.Handle(ctx, req, url)
		}
		return r.basic.HandleHelp(ctx, req)
	default:
		return r.basic.HandleUnknown(ctx, req)
	}

	url := provider.ExtractURL(text)
	if url == "" || !r.registry.Supported(url) {
		return nil
	}
	logger.Info("Download requested", "url", url, "user", req.UserID)
	return r.download.Handle(ctx, req, url)
}

// stripBotMention turns "/help@aether_bot foo" into "/help foo".
func stripBotMention(text string) string {
	if !strings.HasPrefix(text, "/") {
		return text
	}
	parts := strings.Fields(text)
	if len(parts) == 0 {
		return text
	}
	cmd := parts[0]
	if idx := strings.Index(cmd, "@"); idx != -1 {
		return cmd[:idx] + text[len(cmd):]
	}
	return text
}

func splitCommand(text string) (cmd, arg string) {
	if !strings.HasPrefix(text, "/") {
		return "", ""
	}
	cmd = strings.Fields(text)[0]
	return strings.ToLower(cmd), strings.TrimSpace(text[len(cmd):])
}
