package fetch

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/pavelc4/aether-dl-bot/pkg/logger"
)

// Sweep removes staged files older than maxAge from dir. Requests always
// clean up after themselves, so anything left behind is from a crash.
func Sweep(ctx context.Context, dir string, maxAge time.Duration) (int, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+fileExt))
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs error
	for _, path := range matches {
		if err := ctx.Err(); err != nil {
			return removed, multierr.Append(errs, err)
		}

		info, err := os.Stat(path)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = multierr.Append(errs, err)
			}
			continue
		}
		if !info.Mode().IsRegular() || info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = multierr.Append(errs, err)
			continue
		}
		removed++
	}

	if removed > 0 {
		logger.Info("Removed stale staged files", "dir", dir, "count", removed)
	}
	return removed, errs
}
