package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestStreamRequest_HeadersAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Referer"); got != "https://www.tiktok.com/" {
			t.Errorf("Referer = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "custom" {
			t.Errorf("User-Agent = %q, want override", got)
		}
		w.Header().Set("Content-Type", "video/mp4")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	body, size, ct, err := StreamRequest(context.Background(), NewClient(5*time.Second), srv.URL, map[string]string{
		"Referer":    "https://www.tiktok.com/",
		"User-Agent": "custom",
	})
	if err != nil {
		t.Fatalf("StreamRequest: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if string(data) != "hello" || size != 5 || ct != "video/mp4" {
		t.Errorf("got body=%q size=%d ct=%q", data, size, ct)
	}
}

func TestStreamRequest_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusForbidden)
	}))
	defer srv.Close()

	_, _, _, err := StreamRequest(context.Background(), nil, srv.URL, nil)
	if !errors.Is(err, ErrBadStatus) {
		t.Errorf("err = %v, want ErrBadStatus", err)
	}
}
