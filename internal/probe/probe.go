package probe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/pavelc4/aether-dl-bot/internal/media"
)

var ErrNoVideoStream = errors.New("no video stream")

type Prober struct {
	binary  string
	timeout time.Duration
}

func New(binary string, timeout time.Duration) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary, timeout: timeout}
}

// Probe reads the pixel dimensions of the first video stream in path.
func (p *Prober) Probe(ctx context.Context, path string) (media.Resolution, error) {
	if _, err := os.Stat(path); err != nil {
		return media.Resolution{}, fmt.Errorf("stat %s: %w", path, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-of", "json",
		path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return media.Resolution{}, fmt.Errorf("ffprobe failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	return parseOutput(stdout.Bytes())
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Width  dimension `json:"width"`
	Height dimension `json:"height"`
}

// dimension accepts both 1080 and "1080".
type dimension int

func (d *dimension) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid dimension %s", b)
	}
	*d = dimension(n)
	return nil
}

func parseOutput(data []byte) (media.Resolution, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return media.Resolution{}, fmt.Errorf("decode ffprobe output: %w", err)
	}
	if len(out.Streams) == 0 {
		return media.Resolution{}, ErrNoVideoStream
	}

	s := out.Streams[0]
	if s.Width <= 0 || s.Height <= 0 {
		return media.Resolution{}, fmt.Errorf("%w: bad dimensions %dx%d", ErrNoVideoStream, s.Width, s.Height)
	}
	return media.Resolution{Width: int(s.Width), Height: int(s.Height)}, nil
}
