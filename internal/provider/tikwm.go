package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	pkghttp "github.com/pavelc4/aether-dl-bot/pkg/http"
)

const DefaultTikWMAPI = "https://www.tikwm.com/api/"

type TikWMProvider struct {
	apiURL string
	client *http.Client
}

func NewTikWM(apiURL string, timeout time.Duration) *TikWMProvider {
	if apiURL == "" {
		apiURL = DefaultTikWMAPI
	}
	return &TikWMProvider{
		apiURL: apiURL,
		client: pkghttp.NewClient(timeout),
	}
}

func (tp *TikWMProvider) Name() string {
	return "TikWM"
}

func (tp *TikWMProvider) Supports(url string) bool {
	return hostMatches(url, "tiktok.com", "douyin.com")
}

// Resolve returns the HD rendition first and the SD one second. Slideshows
// carry images only and resolve to nothing.
func (tp *TikWMProvider) Resolve(ctx context.Context, url string) ([]Location, error) {
	resp, err := tp.fetchData(ctx, url)
	if err != nil {
		return nil, err
	}

	if len(resp.Data.Images) > 0 {
		return nil, nil
	}

	var locs []Location
	seen := make(map[string]bool, 2)
	for _, raw := range []string{resp.Data.HDPlay, resp.Data.Play} {
		if raw == "" {
			continue
		}
		u := absoluteURL(tp.apiURL, raw)
		if seen[u] {
			continue
		}
		seen[u] = true
		locs = append(locs, Location{URL: u})
	}
	return locs, nil
}

type tikWMResponse struct {
	Code int       `json:"code"`
	Msg  string    `json:"msg"`
	Data tikWMData `json:"data"`
}

type tikWMData struct {
	ID     string   `json:"id"`
	Title  string   `json:"title"`
	Play   string   `json:"play"`
	HDPlay string   `json:"hdplay"`
	Images []string `json:"images"`
	Size   int64    `json:"size"`
	HDSize int64    `json:"hd_size"`
}

func (tp *TikWMProvider) fetchData(ctx context.Context, tiktokURL string) (*tikWMResponse, error) {
	payload := map[string]any{"url": tiktokURL, "hd": 1}
	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tp.apiURL, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := tp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tikwm returned status %d", resp.StatusCode)
	}

	var result tikWMResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode failed: %w", err)
	}

	if result.Code != 0 {
		return nil, fmt.Errorf("tikwm error: %s", result.Msg)
	}

	return &result, nil
}
