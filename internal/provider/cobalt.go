package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkghttp "github.com/pavelc4/aether-dl-bot/pkg/http"
)

type CobaltProvider struct {
	apiURL string
	apiKey string
	client *http.Client
}

func NewCobalt(apiURL, apiKey string, timeout time.Duration) *CobaltProvider {
	return &CobaltProvider{
		apiURL: apiURL,
		apiKey: apiKey,
		client: pkghttp.NewClient(timeout),
	}
}

func (cp *CobaltProvider) Name() string {
	return "Cobalt"
}

var cobaltDomains = []string{
	"tiktok.com",
	"douyin.com",
	"instagram.com",
	"instagr.am",
	"twitter.com",
	"x.com",
	"threads.net",
	"reddit.com",
	"redd.it",
	"twitch.tv",
	"facebook.com",
	"fb.watch",
	"vimeo.com",
	"pinterest.com",
	"pin.it",
	"streamable.com",
	"bilibili.com",
	"dailymotion.com",
	"dai.ly",
	"vk.com",
	"tumblr.com",
}

// Supports leaves YouTube to yt-dlp.
func (cp *CobaltProvider) Supports(url string) bool {
	if cp.apiURL == "" {
		return false
	}
	return hostMatches(url, cobaltDomains...)
}

func (cp *CobaltProvider) Resolve(ctx context.Context, url string) ([]Location, error) {
	apiResp, err := cp.requestAPI(ctx, url)
	if err != nil {
		return nil, err
	}

	return cp.parseResponse(apiResp)
}

type cobaltAPIResponse struct {
	Status string       `json:"status"`
	URL    string       `json:"url"`
	Picker []cobaltItem `json:"picker"`
	Error  cobaltError  `json:"error"`
}

type cobaltItem struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

type cobaltError struct {
	Code    string `json:"code"`
	Context any    `json:"context"`
}

func (cp *CobaltProvider) requestAPI(ctx context.Context, mediaURL string) (*cobaltAPIResponse, error) {
	requestBody := map[string]any{
		"url":          mediaURL,
		"downloadMode": "auto",
		"videoQuality": "max",
	}

	jsonBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cp.apiURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if cp.apiKey != "" {
		req.Header.Set("Authorization", "Api-Key "+cp.apiKey)
	}

	resp, err := cp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cobalt request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response failed: %w", err)
	}

	var cobaltResponse cobaltAPIResponse
	if err := json.Unmarshal(bodyBytes, &cobaltResponse); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("cobalt returned status %d: %s", resp.StatusCode, string(bodyBytes))
		}
		return nil, fmt.Errorf("decode response failed: %w", err)
	}

	// cobalt answers errors with a 4xx and a JSON body; prefer its code.
	if resp.StatusCode != http.StatusOK && cobaltResponse.Status != "error" {
		return nil, fmt.Errorf("cobalt returned status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return &cobaltResponse, nil
}

func (cp *CobaltProvider) parseResponse(resp *cobaltAPIResponse) ([]Location, error) {
	switch resp.Status {
	case "tunnel", "redirect":
		if resp.URL == "" {
			return nil, fmt.Errorf("empty URL in cobalt response")
		}
		return []Location{{URL: resp.URL}}, nil

	case "picker":
		var locs []Location
		for _, item := range resp.Picker {
			if item.URL == "" || item.Type != "video" {
				continue
			}
			locs = append(locs, Location{URL: item.URL})
		}
		return locs, nil

	case "error":
		// error.api.content.* means the post exists but has no media for us.
		if strings.HasPrefix(resp.Error.Code, "error.api.content.") {
			return nil, nil
		}
		return nil, fmt.Errorf("cobalt API error: %s", resp.Error.Code)

	default:
		return nil, fmt.Errorf("unknown cobalt status: %q", resp.Status)
	}
}
