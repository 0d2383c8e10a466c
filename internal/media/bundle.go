package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"go.uber.org/multierr"
)

// Bundle is the ranked result of one resolution. The files its candidates
// reference belong to the bundle until Cleanup removes them.
type Bundle struct {
	Candidates []Candidate

	once sync.Once
}

// NewBundle ranks candidates and takes ownership of their files.
func NewBundle(candidates []Candidate) *Bundle {
	ranked := make([]Candidate, len(candidates))
	copy(ranked, candidates)
	Rank(ranked)
	return &Bundle{Candidates: ranked}
}

func (b *Bundle) Best() (Candidate, bool) {
	if b == nil || len(b.Candidates) == 0 {
		return Candidate{}, false
	}
	return b.Candidates[0], true
}

func (b *Bundle) Partition(ceiling int64) (deliverable, oversized []Candidate) {
	return Partition(b.Candidates, ceiling)
}

func (b *Bundle) Paths() []string {
	paths := make([]string, 0, len(b.Candidates))
	for _, c := range b.Candidates {
		if c.Path != "" {
			paths = append(paths, c.Path)
		}
	}
	return paths
}

// Cleanup removes every staged file. Only the first call touches the disk;
// later calls return nil. Files that are already gone are not an error.
func (b *Bundle) Cleanup() error {
	if b == nil {
		return nil
	}
	var err error
	b.once.Do(func() {
		err = RemoveFiles(b.Paths())
	})
	return err
}

// RemoveFiles deletes paths, ignoring ones that no longer exist.
func RemoveFiles(paths []string) error {
	var err error
	for _, p := range paths {
		if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			err = multierr.Append(err, fmt.Errorf("remove %s: %w", p, rmErr))
		}
	}
	return err
}
