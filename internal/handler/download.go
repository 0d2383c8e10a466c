package handler

import (
	"context"
	"errors"
	"time"

	"github.com/pavelc4/aether-dl-bot/internal/fetch"
	"github.com/pavelc4/aether-dl-bot/internal/resolver"
	"github.com/pavelc4/aether-dl-bot/internal/stats"
	"github.com/pavelc4/aether-dl-bot/internal/telegram"
	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

const (
	msgDownloading   = "downloading..."
	msgFailed        = "failed to download"
	msgInternalError = "failed to download (internal error)"

	cleanupTimeout = 15 * time.Second
)

type DownloadOptions struct {
	WorkDir       string
	MaxUploadSize int64
	Timeout       time.Duration
}

type DownloadHandler struct {
	resolver Resolver
	msg      Messenger
	stats    *stats.Stats
	opts     DownloadOptions
}

func NewDownloadHandler(r Resolver, m Messenger, st *stats.Stats, opts DownloadOptions) *DownloadHandler {
	return &DownloadHandler{
		resolver: r,
		msg:      m,
		stats:    st,
		opts:     opts,
	}
}

// Handle resolves url and answers req with the best video that fits the
// upload ceiling, or with links when none does. Staged files and the status
// message are gone when Handle returns.
func (h *DownloadHandler) Handle(ctx context.Context, req Request, url string) error {
	start := time.Now()
	log := logger.With("url", url, "user", req.UserID)

	statusID, err := h.msg.SendText(ctx, req.Peer, req.MessageID, msgDownloading)
	if err != nil {
		return err
	}
	defer h.deleteStatus(ctx, req, statusID)

	rctx := ctx
	if h.opts.Timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, h.opts.Timeout)
		defer cancel()
	}

	bundle, err := h.resolver.Resolve(rctx, url, h.opts.WorkDir)
	if err != nil {
		if errors.Is(err, resolver.ErrNoMedia) {
			log.Warn("No result")
			h.record(req, stats.NotFound, "", 0)
			h.reply(ctx, req, msgFailed)
			return nil
		}
		log.Error("Resolve failed", "error", err)
		h.record(req, stats.Failed, "", 0)
		h.reply(ctx, req, msgInternalError)
		return err
	}
	defer func() {
		if err := bundle.Cleanup(); err != nil {
			log.Warn("Cleanup failed", "error", err)
		}
	}()

	deliverable, _ := bundle.Partition(h.opts.MaxUploadSize)
	if len(deliverable) == 0 {
		log.Warn("Every candidate exceeds the upload limit", "candidates", len(bundle.Candidates))
		links := ReferenceLinks(bundle.Candidates, "")
		h.record(req, stats.Oversized, "", 0)
		h.reply(ctx, req, OversizedText(h.opts.MaxUploadSize/(1024*1024), links))
		return nil
	}

	best := deliverable[0]
	links := ReferenceLinks(bundle.Candidates, best.Path)
	video := telegram.Video{
		Path:      best.Path,
		Caption:   Caption(links),
		Streaming: best.Container == fetch.ContainerMP4 || best.Container == "",
	}
	if best.Resolution != nil {
		video.Width = best.Resolution.Width
		video.Height = best.Resolution.Height
	}

	if err := h.msg.SendVideo(ctx, req.Peer, req.MessageID, video); err != nil {
		logger.ErrorWithDuration("Upload failed", start, "url", url, "user", req.UserID, "path", best.Path, "error", err)
		h.record(req, stats.Failed, "", 0)
		h.reply(ctx, req, msgInternalError)
		return err
	}

	h.record(req, stats.Delivered, best.Provider, best.Size)
	logger.InfoWithDuration("Sent video", start,
		"url", url,
		"user", req.UserID,
		"provider", best.Provider,
		"res", best.Label(),
		"size", best.Size,
	)
	return nil
}

func (h *DownloadHandler) reply(ctx context.Context, req Request, text string) {
	if _, err := h.msg.SendText(ctx, req.Peer, req.MessageID, text); err != nil {
		logger.Error("Failed to reply", "error", err)
	}
}

func (h *DownloadHandler) deleteStatus(ctx context.Context, req Request, id int) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if err := h.msg.DeleteMessage(ctx, req.Peer, id); err != nil {
		logger.Error("Failed to delete status message", "msg_id", id, "error", err)
	}
}

func (h *DownloadHandler) record(req Request, outcome stats.Outcome, provider string, size int64) {
	if h.stats != nil {
		h.stats.Record(req.UserID, outcome, provider, size)
	}
}
