package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

const ytdlpFormat = "best[vcodec!=none][acodec!=none]/best"

type YtDlpProvider struct {
	binary  string
	cookies string
	timeout time.Duration
}

func NewYtDlp(binary, cookies string, timeout time.Duration) *YtDlpProvider {
	if binary == "" {
		binary = "yt-dlp"
	}
	return &YtDlpProvider{
		binary:  binary,
		cookies: cookies,
		timeout: timeout,
	}
}

func (yp *YtDlpProvider) Name() string {
	return "yt-dlp"
}

func (yp *YtDlpProvider) Supports(url string) bool {
	return hostMatches(url,
		"tiktok.com",
		"youtube.com",
		"youtu.be",
		"instagram.com",
		"twitter.com",
		"x.com",
		"reddit.com",
		"vimeo.com",
		"facebook.com",
	)
}

// Resolve asks yt-dlp for a single pre-muxed format so the returned URL is
// playable on its own.
func (yp *YtDlpProvider) Resolve(ctx context.Context, url string) ([]Location, error) {
	args := []string{
		"--dump-json",
		"--no-playlist",
		"--no-warnings",
		"-f", ytdlpFormat,
	}

	if yp.cookies != "" {
		if _, err := os.Stat(yp.cookies); err == nil {
			args = append(args, "--cookies", yp.cookies)
		} else {
			logger.Warn("Cookies file not found", "path", yp.cookies)
		}
	}
	args = append(args, url)

	if yp.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, yp.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, yp.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("yt-dlp failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	var meta ytdlpMeta
	if err := json.Unmarshal(stdout.Bytes(), &meta); err != nil {
		return nil, fmt.Errorf("decode json failed: %w", err)
	}

	if meta.URL == "" || isNonStreamableURL(meta.URL) {
		return nil, nil
	}

	logger.Debug("yt-dlp resolved",
		"id", meta.ID,
		"format", meta.FormatID,
		"res", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
	)

	return []Location{{URL: meta.URL, Headers: meta.HTTPHeaders}}, nil
}

func isNonStreamableURL(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range []string{".jpg", ".jpeg", ".png", ".webp"} {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}

type ytdlpMeta struct {
	ID          string            `json:"id"`
	FormatID    string            `json:"format_id"`
	URL         string            `json:"url"`
	Ext         string            `json:"ext"`
	Width       int               `json:"width"`
	Height      int               `json:"height"`
	HTTPHeaders map[string]string `json:"http_headers"`
}
