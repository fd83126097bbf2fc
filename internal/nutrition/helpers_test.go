package nutrition

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"lg/aroical-go-api/internal/kvstore"
)

// ict is a fixed UTC+7 zone so day boundaries in tests never depend on the
// machine's local timezone.
var ict = time.FixedZone("ICT", 7*60*60)

// fakeClock is a settable clock for the managers' now func.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 10, 9, 30, 0, 0, ict)}
}

// failingStore accepts reads but rejects every write.
type failingStore struct{ kvstore.MemoryStore }

func (*failingStore) Set(context.Context, string, []byte) error {
	return errors.New("disk full")
}

func entry(name string, calories int) FoodEntry {
	return FoodEntry{
		ID:          uuid.New(),
		Name:        name,
		Calories:    calories,
		Protein:     10,
		Carbs:       20,
		Fat:         5,
		ServingSize: "1 plate",
	}
}

// dayAt returns the clock's day shifted by offset days, at hour:00 local.
func dayAt(clock *fakeClock, offset, hour int) time.Time {
	y, m, d := clock.t.Date()
	return time.Date(y, m, d+offset, hour, 0, 0, 0, ict)
}

// newLogManagerWith seeds a memory store with logs and loads a manager over it.
func newLogManagerWith(t *testing.T, clock *fakeClock, logs []DailyLog) (*DailyLogManager, kvstore.Store) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	if logs != nil {
		b, err := json.Marshal(logs)
		if err != nil {
			t.Fatalf("marshal seed logs: %v", err)
		}
		if err := store.Set(context.Background(), dailyLogsKey, b); err != nil {
			t.Fatalf("seed store: %v", err)
		}
	}
	return NewDailyLogManager(context.Background(), store, Calendar{Loc: ict}, clock.Now), store
}

func logOn(day time.Time, entries ...FoodEntry) DailyLog {
	if entries == nil {
		entries = []FoodEntry{}
	}
	return DailyLog{ID: uuid.New(), Date: day, Entries: entries}
}
