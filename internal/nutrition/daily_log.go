package nutrition

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"lg/aroical-go-api/internal/kvstore"
)

const dailyLogsKey = "daily_logs"

// DailyLog is one calendar day's food entries. Identity is the local calendar
// day of Date, not the exact timestamp.
type DailyLog struct {
	ID      uuid.UUID   `json:"id"`
	Date    time.Time   `json:"date"`
	Entries []FoodEntry `json:"entries"`
}

func (l DailyLog) TotalCalories() int {
	total := 0
	for _, e := range l.Entries {
		total += e.Calories
	}
	return total
}

func (l DailyLog) TotalProtein() float64 {
	var total float64
	for _, e := range l.Entries {
		total += e.Protein
	}
	return total
}

func (l DailyLog) TotalCarbs() float64 {
	var total float64
	for _, e := range l.Entries {
		total += e.Carbs
	}
	return total
}

func (l DailyLog) TotalFat() float64 {
	var total float64
	for _, e := range l.Entries {
		total += e.Fat
	}
	return total
}

func (l DailyLog) clone() DailyLog {
	l.Entries = append([]FoodEntry{}, l.Entries...)
	return l
}

// DailyLogManager exclusively owns every DailyLog. At most one log exists per
// calendar day. Every mutation re-serializes the whole collection; at a few
// hundred logs that is cheap enough to keep the storage contract trivial.
type DailyLogManager struct {
	mu    sync.Mutex
	store kvstore.Store
	cal   Calendar
	now   func() time.Time
	logs  []DailyLog
}

// NewDailyLogManager loads saved logs. now may be nil (time.Now).
func NewDailyLogManager(ctx context.Context, store kvstore.Store, cal Calendar, now func() time.Time) *DailyLogManager {
	if now == nil {
		now = time.Now
	}
	m := &DailyLogManager{store: store, cal: cal, now: now}
	if _, err := loadJSON(ctx, store, dailyLogsKey, &m.logs); err != nil {
		log.Printf("[dailyLog] load failed, starting empty: %v", err)
		m.logs = nil
	}
	return m
}

// indexForDay returns the position of the log on day, or -1.
func (m *DailyLogManager) indexForDay(day time.Time) int {
	for i := range m.logs {
		if m.cal.SameDay(m.logs[i].Date, day) {
			return i
		}
	}
	return -1
}

// TodayLog returns today's log, creating, inserting at the front and saving an
// empty one if none exists. A save failure is returned alongside the log.
func (m *DailyLogManager) TodayLog(ctx context.Context) (DailyLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if i := m.indexForDay(now); i >= 0 {
		return m.logs[i].clone(), nil
	}
	fresh := DailyLog{ID: uuid.New(), Date: now, Entries: []FoodEntry{}}
	m.logs = append([]DailyLog{fresh}, m.logs...)
	return fresh.clone(), m.saveLocked(ctx)
}

// LogForDate looks up the log on date's calendar day. It never creates one.
func (m *DailyLogManager) LogForDate(date time.Time) (DailyLog, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if i := m.indexForDay(date); i >= 0 {
		return m.logs[i].clone(), true
	}
	return DailyLog{}, false
}

// AddEntry appends entry to today's log, creating the log if needed.
func (m *DailyLogManager) AddEntry(ctx context.Context, entry FoodEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if i := m.indexForDay(now); i >= 0 {
		m.logs[i].Entries = append(m.logs[i].Entries, entry)
	} else {
		fresh := DailyLog{ID: uuid.New(), Date: now, Entries: []FoodEntry{entry}}
		m.logs = append([]DailyLog{fresh}, m.logs...)
	}
	return m.saveLocked(ctx)
}

// RemoveEntry drops every entry with id from the log on date's day. Removing
// an entry that isn't there is a no-op. Nothing is saved when no log exists
// for that day.
func (m *DailyLogManager) RemoveEntry(ctx context.Context, id uuid.UUID, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.indexForDay(date)
	if i < 0 {
		return nil
	}
	kept := m.logs[i].Entries[:0]
	for _, e := range m.logs[i].Entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	m.logs[i].Entries = kept
	return m.saveLocked(ctx)
}

// RemoveTodayEntry removes id from today's log.
func (m *DailyLogManager) RemoveTodayEntry(ctx context.Context, id uuid.UUID) error {
	return m.RemoveEntry(ctx, id, m.now())
}

// CurrentStreak counts consecutive days, ending today, that have a log with
// at least one entry. An empty or missing today gives 0.
func (m *DailyLogManager) CurrentStreak() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	streak := 0
	day := m.cal.StartOfDay(m.now())
	for {
		i := m.indexForDay(day)
		if i < 0 || len(m.logs[i].Entries) == 0 {
			return streak
		}
		streak++
		day = day.AddDate(0, 0, -1)
	}
}

// LogsForLastDays returns logs dated on or after local midnight n-1 days ago,
// oldest first. n <= 0 yields nothing.
func (m *DailyLogManager) LogsForLastDays(n int) []DailyLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []DailyLog{}
	if n <= 0 {
		return out
	}
	start := m.cal.AddDays(m.now(), -(n - 1))
	for _, l := range m.logs {
		if !l.Date.Before(start) {
			out = append(out, l.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

// Logs returns a copy of the full collection in stored order (newest first
// for logs created through this manager).
func (m *DailyLogManager) Logs() []DailyLog {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]DailyLog, len(m.logs))
	for i, l := range m.logs {
		out[i] = l.clone()
	}
	return out
}

func (m *DailyLogManager) saveLocked(ctx context.Context) error {
	return saveJSON(ctx, m.store, dailyLogsKey, m.logs)
}
