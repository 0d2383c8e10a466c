package stats

import (
	"sort"
	"sync"
	"time"
)

type Outcome int

const (
	Delivered Outcome = iota
	Oversized
	NotFound
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case Oversized:
		return "oversized"
	case NotFound:
		return "not_found"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats counts requests since process start. Nothing is persisted.
type Stats struct {
	mu        sync.RWMutex
	startTime time.Time
	now       func() time.Time

	requests  int64
	outcomes  map[Outcome]int64
	bytesSent int64
	providers map[string]int64
	users     map[int64]struct{}
	daily     map[string]*DayStats

	netSentBaseline uint64
	netRecvBaseline uint64
}

type DayStats struct {
	Requests  int64
	Delivered int64
	Users     int
	users     map[int64]struct{}
}

func New() *Stats {
	s := &Stats{
		startTime: time.Now(),
		now:       time.Now,
		outcomes:  make(map[Outcome]int64),
		providers: make(map[string]int64),
		users:     make(map[int64]struct{}),
		daily:     make(map[string]*DayStats),
	}
	s.netSentBaseline, s.netRecvBaseline = netCounters()
	return s
}

// Record stores one finished request. provider and bytes describe the
// delivered candidate and are ignored for other outcomes.
func (s *Stats) Record(userID int64, outcome Outcome, provider string, bytes int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests++
	s.outcomes[outcome]++
	if userID != 0 {
		s.users[userID] = struct{}{}
	}

	day := s.dayLocked()
	day.Requests++
	if userID != 0 {
		day.users[userID] = struct{}{}
	}

	if outcome == Delivered {
		day.Delivered++
		s.bytesSent += bytes
		if provider != "" {
			s.providers[provider]++
		}
	}
}

func (s *Stats) dayLocked() *DayStats {
	key := s.now().Format("2006-01-02")
	d, ok := s.daily[key]
	if !ok {
		d = &DayStats{users: make(map[int64]struct{})}
		s.daily[key] = d
	}
	return d
}

type ProviderCount struct {
	Name  string
	Count int64
}

type Snapshot struct {
	Uptime      time.Duration
	Requests    int64
	Delivered   int64
	Oversized   int64
	NotFound    int64
	Failed      int64
	BytesSent   int64
	UniqueUsers int
	Today       DayStats
	Providers   []ProviderCount
}

func (s *Stats) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Uptime:      time.Since(s.startTime),
		Requests:    s.requests,
		Delivered:   s.outcomes[Delivered],
		Oversized:   s.outcomes[Oversized],
		NotFound:    s.outcomes[NotFound],
		Failed:      s.outcomes[Failed],
		BytesSent:   s.bytesSent,
		UniqueUsers: len(s.users),
	}

	if d, ok := s.daily[s.now().Format("2006-01-02")]; ok {
		snap.Today = DayStats{Requests: d.Requests, Delivered: d.Delivered, Users: len(d.users)}
	}

	for name, n := range s.providers {
		snap.Providers = append(snap.Providers, ProviderCount{Name: name, Count: n})
	}
	sort.Slice(snap.Providers, func(i, j int) bool {
		if snap.Providers[i].Count != snap.Providers[j].Count {
			return snap.Providers[i].Count > snap.Providers[j].Count
		}
		return snap.Providers[i].Name < snap.Providers[j].Name
	})

	return snap
}
