package nutrition

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lg/aroical-go-api/internal/kvstore"
)

const weightLogKey = "weight_log"

// ErrInvalidWeight rejects non-positive or absurd weights.
var ErrInvalidWeight = errors.New("weight_kg must be between 0 and 1000")

// WeightEntry is one day's weigh-in.
type WeightEntry struct {
	ID       uuid.UUID `json:"id"`
	Date     time.Time `json:"date"`
	WeightKg float64   `json:"weight_kg"`
}

// WeightLog owns the weigh-in history: at most one entry per calendar day,
// kept sorted by date.
type WeightLog struct {
	mu      sync.Mutex
	store   kvstore.Store
	cal     Calendar
	now     func() time.Time
	entries []WeightEntry
}

func NewWeightLog(ctx context.Context, store kvstore.Store, cal Calendar, now func() time.Time) *WeightLog {
	if now == nil {
		now = time.Now
	}
	w := &WeightLog{store: store, cal: cal, now: now}
	if _, err := loadJSON(ctx, store, weightLogKey, &w.entries); err != nil {
		log.Printf("[weightLog] load failed, starting empty: %v", err)
		w.entries = nil
	}
	return w
}

// LogWeight records kg for date's calendar day, replacing any existing entry
// on that day.
func (w *WeightLog) LogWeight(ctx context.Context, kg float64, date time.Time) (WeightEntry, error) {
	if kg <= 0 || kg > 1000 || math.IsNaN(kg) {
		return WeightEntry{}, ErrInvalidWeight
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	entry := WeightEntry{ID: uuid.New(), Date: date, WeightKg: kg}
	replaced := false
	for i := range w.entries {
		if w.cal.SameDay(w.entries[i].Date, date) {
			w.entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		w.entries = append(w.entries, entry)
	}
	sort.SliceStable(w.entries, func(i, j int) bool { return w.entries[i].Date.Before(w.entries[j].Date) })
	return entry, saveJSON(ctx, w.store, weightLogKey, w.entries)
}

// EntryForToday returns today's weigh-in, if any.
func (w *WeightLog) EntryForToday() (WeightEntry, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	for _, e := range w.entries {
		if w.cal.SameDay(e.Date, now) {
			return e, true
		}
	}
	return WeightEntry{}, false
}

// EntriesForLastDays returns weigh-ins on or after local midnight n-1 days
// ago, oldest first.
func (w *WeightLog) EntriesForLastDays(n int) []WeightEntry {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := []WeightEntry{}
	if n <= 0 {
		return out
	}
	start := w.cal.AddDays(w.now(), -(n - 1))
	for _, e := range w.entries {
		if !e.Date.Before(start) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Entries returns the whole history, oldest first.
func (w *WeightLog) Entries() []WeightEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]WeightEntry{}, w.entries...)
}
