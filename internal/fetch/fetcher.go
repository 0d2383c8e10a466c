package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pavelc4/aether-dl-bot/internal/provider"
	"github.com/pavelc4/aether-dl-bot/pkg/buffer"
	pkghttp "github.com/pavelc4/aether-dl-bot/pkg/http"
)

const fileExt = ".mp4"

var (
	ErrBadStatus = pkghttp.ErrBadStatus
	ErrEmptyBody = errors.New("empty response body")
)

// File is a fully written download inside the work dir.
type File struct {
	Path      string
	Size      int64
	Container string
}

type Fetcher struct {
	client    *http.Client
	userAgent string
}

func New(timeout time.Duration, userAgent string) *Fetcher {
	return &Fetcher{
		client:    pkghttp.NewClient(timeout),
		userAgent: userAgent,
	}
}

// Fetch downloads loc into a fresh uniquely named file under workDir. The
// file exists on disk only if Fetch returns a nil error.
func (f *Fetcher) Fetch(ctx context.Context, loc provider.Location, workDir string) (File, error) {
	headers := make(map[string]string, len(loc.Headers)+1)
	if f.userAgent != "" {
		headers["User-Agent"] = f.userAgent
	}
	for k, v := range loc.Headers {
		headers[k] = v
	}

	body, _, _, err := pkghttp.StreamRequest(ctx, f.client, loc.URL, headers)
	if err != nil {
		return File{}, err
	}
	defer body.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	switch {
	case errors.Is(err, io.EOF):
		return File{}, ErrEmptyBody
	case err != nil && !errors.Is(err, io.ErrUnexpectedEOF):
		return File{}, fmt.Errorf("read body failed: %w", err)
	}
	head = head[:n]

	file, path, err := createUnique(workDir)
	if err != nil {
		return File{}, err
	}

	size, err := writeAll(file, head, body)
	if err != nil {
		os.Remove(path)
		return File{}, err
	}

	return File{Path: path, Size: size, Container: Sniff(head)}, nil
}

func writeAll(file *os.File, head []byte, rest io.Reader) (int64, error) {
	n, err := file.Write(head)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("write failed: %w", err)
	}

	buf := buffer.Get()
	defer buffer.Put(buf)

	// Wrapped so os.File's ReadFrom does not bypass the pooled buffer.
	copied, err := io.CopyBuffer(struct{ io.Writer }{file}, rest, buf)
	if err != nil {
		file.Close()
		return 0, fmt.Errorf("download interrupted: %w", err)
	}

	if err := file.Close(); err != nil {
		return 0, fmt.Errorf("close failed: %w", err)
	}
	return int64(n) + copied, nil
}

func createUnique(dir string) (*os.File, string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create work dir: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}

	path := filepath.Join(dir, id.String()+fileExt)
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("create file: %w", err)
	}
	return file, path, nil
}
