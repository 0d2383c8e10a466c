package media

import (
	"fmt"
	"sort"
)

type Status int

const (
	StatusPending Status = iota
	StatusDownloaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusDownloaded:
		return "downloaded"
	case StatusFailed:
		return "failed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) Area() int {
	return r.Width * r.Height
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Candidate is one discovered rendition of the requested media.
// A downloaded candidate always has Path and Size set; Resolution stays nil
// when the file could not be probed.
type Candidate struct {
	SourceURL  string
	Provider   string
	Size       int64
	Path       string
	Resolution *Resolution
	Container  string
	Status     Status
}

func (c Candidate) Downloaded() bool {
	return c.Status == StatusDownloaded && c.Path != ""
}

func (c Candidate) Label() string {
	if c.Resolution == nil {
		return "unknown"
	}
	return c.Resolution.String()
}

// Rank orders candidates best-first in place. Candidates with a resolution
// come first, by pixel area descending; the rest follow by size descending.
// Equal candidates keep their input order.
func Rank(candidates []Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return better(candidates[i], candidates[j])
	})
}

func better(a, b Candidate) bool {
	switch {
	case a.Resolution != nil && b.Resolution != nil:
		return a.Resolution.Area() > b.Resolution.Area()
	case a.Resolution != nil:
		return true
	case b.Resolution != nil:
		return false
	default:
		return a.Size > b.Size
	}
}

// Partition splits ranked candidates by the upload ceiling. A candidate of
// exactly ceiling bytes is deliverable. Both halves keep rank order.
func Partition(candidates []Candidate, ceiling int64) (deliverable, oversized []Candidate) {
	for _, c := range candidates {
		if c.Size <= ceiling {
			deliverable = append(deliverable, c)
		} else {
			oversized = append(oversized, c)
		}
	}
	return deliverable, oversized
}
