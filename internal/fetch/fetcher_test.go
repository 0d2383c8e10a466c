package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pavelc4/aether-dl-bot/internal/provider"
)

var mp4Head = []byte{0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'i', 's', 'o', 'm'}

func entries(t *testing.T, dir string) []os.DirEntry {
	t.Helper()
	es, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatal(err)
	}
	return es
}

func TestFetch_WritesFile(t *testing.T) {
	payload := append(append([]byte{}, mp4Head...), bytes.Repeat([]byte("x"), 4096)...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Referer"); got != "https://ref.example/" {
			t.Errorf("Referer = %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("User-Agent = %q", got)
		}
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "nested", "work")
	f := New(5*time.Second, "test-agent")

	got, err := f.Fetch(context.Background(), provider.Location{
		URL:     srv.URL,
		Headers: map[string]string{"Referer": "https://ref.example/"},
	}, dir)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if filepath.Dir(got.Path) != dir || !strings.HasSuffix(got.Path, ".mp4") {
		t.Errorf("path = %q", got.Path)
	}
	if got.Size != int64(len(payload)) {
		t.Errorf("size = %d, want %d", got.Size, len(payload))
	}
	if got.Container != ContainerMP4 {
		t.Errorf("container = %q, want mp4", got.Container)
	}
	data, err := os.ReadFile(got.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(data, payload) {
		t.Error("file content differs from response body")
	}
}

func TestFetch_TinyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("abc"))
	}))
	defer srv.Close()

	got, err := New(time.Second, "").Fetch(context.Background(), provider.Location{URL: srv.URL}, t.TempDir())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if got.Size != 3 || got.Container != "" {
		t.Errorf("got %+v", got)
	}
}

func TestFetch_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr error
	}{
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) },
			wantErr: ErrBadStatus,
		},
		{
			name:    "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) },
			wantErr: ErrEmptyBody,
		},
		{
			name: "truncated body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Length", "100000")
				_, _ = w.Write(mp4Head)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			dir := t.TempDir()
			_, err := New(5*time.Second, "").Fetch(context.Background(), provider.Location{URL: srv.URL}, dir)
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
			if es := entries(t, dir); len(es) != 0 {
				t.Errorf("work dir should be empty after failure, has %d entries", len(es))
			}
		})
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(mp4Head)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	if _, err := New(time.Second, "").Fetch(ctx, provider.Location{URL: srv.URL}, dir); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if es := entries(t, dir); len(es) != 0 {
		t.Errorf("no file should be left, found %d", len(es))
	}
}

func TestFetch_ConcurrentNamesAreUnique(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(mp4Head)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := New(5*time.Second, "")

	const n = 32
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths = make(map[string]bool)
		errs  []error
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := f.Fetch(context.Background(), provider.Location{URL: fmt.Sprintf("%s/%d", srv.URL, i)}, dir)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			paths[got.Path] = true
		}(i)
	}
	wg.Wait()

	if len(errs) != 0 {
		t.Fatalf("fetch errors: %v", errs)
	}
	if len(paths) != n {
		t.Errorf("got %d distinct paths, want %d", len(paths), n)
	}
	if es := entries(t, dir); len(es) != n {
		t.Errorf("dir has %d files, want %d", len(es), n)
	}
}

func TestSniff(t *testing.T) {
	tests := []struct {
		head []byte
		want string
	}{
		{mp4Head, ContainerMP4},
		{[]byte("FLV\x01\x05"), ContainerFLV},
		{[]byte("#EXTM3U\n"), ContainerM3U8},
		{[]byte("DDSM...."), ContainerDASH},
		{[]byte("<html>"), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := Sniff(tt.head); got != tt.want {
			t.Errorf("Sniff(%q) = %q, want %q", tt.head, got, tt.want)
		}
	}
}
