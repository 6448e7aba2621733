// Package ratelimit implements a per-identifier dual-window admission
// counter held in process memory. State is deliberately not shared across
// instances: under horizontal scale-out each instance enforces its own
// approximation of the global quota. That admits more traffic than the
// nominal limit under high fan-out, in exchange for zero added latency per
// check. A globally exact limiter would need a shared counter store and is
// intentionally not attempted.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

const (
	LimitTypeMinute = "minute"
	LimitTypeDay    = "day"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed    bool
	Remaining  int
	ResetIn    time.Duration
	RetryAfter int    // seconds until retry is worthwhile; set when denied
	LimitType  string // which window denied, "minute" or "day"
}

type entry struct {
	minuteCount   int
	minuteResetAt time.Time
	dayCount      int
	dayResetAt    time.Time
}

// Limiter tracks two counters per identifier with independent reset clocks.
// The mutex covers the whole check-and-increment sequence and the sweep, so
// concurrent requests for the same identifier never lose updates.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry

	minuteLimit  int
	minuteWindow time.Duration
	dayLimit     int
	dayWindow    time.Duration

	now  func() time.Time
	stop chan struct{}
}

func New(minuteLimit int, minuteWindow time.Duration, dayLimit int, dayWindow time.Duration) *Limiter {
	return &Limiter{
		entries:      make(map[string]*entry),
		minuteLimit:  minuteLimit,
		minuteWindow: minuteWindow,
		dayLimit:     dayLimit,
		dayWindow:    dayWindow,
		now:          time.Now,
		stop:         make(chan struct{}),
	}
}

// Check admits or denies one call for the identifier. The minute window is
// evaluated before the day window, so the stricter limit names the denial.
func (l *Limiter) Check(identifier string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()

	e, ok := l.entries[identifier]
	if !ok || now.After(e.dayResetAt) {
		// First call, or the whole day window lapsed: start fresh.
		e = &entry{
			minuteCount:   1,
			minuteResetAt: now.Add(l.minuteWindow),
			dayCount:      1,
			dayResetAt:    now.Add(l.dayWindow),
		}
		l.entries[identifier] = e

		return Decision{
			Allowed:   true,
			Remaining: minInt(l.minuteLimit-1, l.dayLimit-1),
			ResetIn:   l.minuteWindow,
		}
	}

	if now.After(e.minuteResetAt) {
		e.minuteCount = 0
		e.minuteResetAt = now.Add(l.minuteWindow)
	}

	if e.minuteCount >= l.minuteLimit {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			ResetIn:    e.minuteResetAt.Sub(now),
			RetryAfter: secondsUntil(now, e.minuteResetAt),
			LimitType:  LimitTypeMinute,
		}
	}

	if e.dayCount >= l.dayLimit {
		return Decision{
			Allowed:    false,
			Remaining:  0,
			ResetIn:    e.dayResetAt.Sub(now),
			RetryAfter: secondsUntil(now, e.dayResetAt),
			LimitType:  LimitTypeDay,
		}
	}

	e.minuteCount++
	e.dayCount++

	return Decision{
		Allowed:   true,
		Remaining: minInt(l.minuteLimit-e.minuteCount, l.dayLimit-e.dayCount),
		ResetIn:   e.minuteResetAt.Sub(now),
	}
}

// Usage is a read-only snapshot of an identifier's counters.
type Usage struct {
	MinuteCount   int       `json:"minute_count"`
	MinuteResetAt time.Time `json:"minute_reset_at"`
	DayCount      int       `json:"day_count"`
	DayResetAt    time.Time `json:"day_reset_at"`
}

// GetUsage applies the same lazy expiry as Check: a lapsed minute window
// reads as zero, and an identifier whose day window lapsed reads as
// untracked even before the sweep reclaims it.
func (l *Limiter) GetUsage(identifier string) (Usage, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[identifier]
	if !ok {
		return Usage{}, false
	}

	now := l.now()
	if now.After(e.dayResetAt) {
		return Usage{}, false
	}

	u := Usage{
		MinuteCount:   e.minuteCount,
		MinuteResetAt: e.minuteResetAt,
		DayCount:      e.dayCount,
		DayResetAt:    e.dayResetAt,
	}
	if now.After(e.minuteResetAt) {
		u.MinuteCount = 0
	}

	return u, true
}

func (l *Limiter) Reset(identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, identifier)
}

func (l *Limiter) ResetAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make(map[string]*entry)
}

// Size reports how many identifiers are currently tracked.
func (l *Limiter) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return len(l.entries)
}

func (l *Limiter) MinuteLimit() int {
	return l.minuteLimit
}

func (l *Limiter) DayLimit() int {
	return l.dayLimit
}

// StartSweeper launches the periodic sweep that drops identifiers whose
// windows have both expired, bounding memory growth. The interval is
// independent of the window durations.
func (l *Limiter) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				l.sweep()
			case <-l.stop:
				return
			}
		}
	}()
}

func (l *Limiter) Stop() {
	close(l.stop)
}

func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for id, e := range l.entries {
		if now.After(e.dayResetAt) && now.After(e.minuteResetAt) {
			delete(l.entries, id)
		}
	}
}

func secondsUntil(now, t time.Time) int {
	secs := int(math.Ceil(t.Sub(now).Seconds()))
	if secs < 0 {
		return 0
	}
	return secs
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
