package handler

import (
	"context"
	"fmt"
	"strings"
)

const startText = "hi.\n" +
	"this is a bot for downloading tiktoks without watermarks. no ads, no spam, no sponsors.\n" +
	"send a tiktok link and get the video."

type BasicHandler struct {
	msg       Messenger
	providers []string
	maxMB     int64
}

func NewBasicHandler(m Messenger, providers []string, maxUploadSize int64) *BasicHandler {
	return &BasicHandler{msg: m, providers: providers, maxMB: maxUploadSize / (1024 * 1024)}
}

func (h *BasicHandler) HandleStart(ctx context.Context, req Request) error {
	_, err := h.msg.SendText(ctx, req.Peer, req.MessageID, startText)
	return err
}

func (h *BasicHandler) HandleHelp(ctx context.Context, req Request) error {
	_, err := h.msg.SendText(ctx, req.Peer, req.MessageID, h.helpText())
	return err
}

func (h *BasicHandler) HandleUnknown(ctx context.Context, req Request) error {
	_, err := h.msg.SendText(ctx, req.Peer, req.MessageID, "unknown command, see /help")
	return err
}

func (h *BasicHandler) helpText() string {
	var b strings.Builder
	b.WriteString("<b>Aether Downloader</b>\n\n")
	b.WriteString("Send a link (TikTok first of all) and I'll reply with the best quality video I can find.\n\n")
	b.WriteString("<b>Commands</b>\n")
	b.WriteString("• /dl [URL] - download a video\n")
	b.WriteString("• /start - about this bot\n")
	b.WriteString("• /help - this message\n")
	b.WriteString("• /stats - bot statistics (owner only)\n\n")
	fmt.Fprintf(&b, "Videos over %dmb can't be uploaded; you get direct links instead.\n", h.maxMB)
	if len(h.providers) > 0 {
		fmt.Fprintf(&b, "\nSources: <code>%s</code>", strings.Join(h.providers, ", "))
	}
	return b.String()
}
