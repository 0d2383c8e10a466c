package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var ErrBadStatus = errors.New("unexpected http status")

// StreamRequest issues a GET and hands back the open body. Headers override
// the default User-Agent. Any non-2xx answer is ErrBadStatus.
func StreamRequest(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, int64, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, "", fmt.Errorf("create request failed: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, 0, "", fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	return resp.Body, resp.ContentLength, resp.Header.Get("Content-Type"), nil
}
