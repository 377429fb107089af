package activity

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/DigitalTwin/internal/shared/types"
)

func fixedClock() func() time.Time {
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	var n int
	return func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}
}

func newTestLogger(capacity int, sinks ...Sink) *Logger {
	return NewLogger(Config{Capacity: capacity, Clock: fixedClock()}, nil, sinks...)
}

func TestRecordFields(t *testing.T) {
	l := newTestLogger(10)

	rec := l.Record("app_opened", map[string]interface{}{"appName": "email"})

	assert.Equal(t, "app_opened", rec.Action)
	assert.Equal(t, DefaultActor, rec.Actor)
	assert.Equal(t, "email", rec.Details["appName"])
	assert.Regexp(t, `^session_[0-9A-Z]{26}$`, rec.SessionID)
	assert.Equal(t, 2024, rec.Timestamp.Year())
}

func TestRecordsAreIsolatedFromCallers(t *testing.T) {
	l := newTestLogger(10)

	details := map[string]interface{}{"folder": "inbox"}
	l.Record("email_folder_changed", details)
	details["folder"] = "sent"

	got := l.Records()
	require.Len(t, got, 1)
	assert.Equal(t, "inbox", got[0].Details["folder"])

	got[0].Details["folder"] = "drafts"
	assert.Equal(t, "inbox", l.Records()[0].Details["folder"])
}

func TestNilDetailsBecomeEmptyMap(t *testing.T) {
	l := newTestLogger(10)
	rec := l.Record("start_menu_toggled", nil)
	assert.NotNil(t, rec.Details)
	assert.Empty(t, rec.Details)
}

func TestCapacityEvictsOldestFirst(t *testing.T) {
	l := newTestLogger(DefaultCapacity)

	for i := 0; i < 105; i++ {
		l.Record(fmt.Sprintf("action_%d", i), nil)
	}

	records := l.Records()
	require.Len(t, records, DefaultCapacity)
	assert.Equal(t, DefaultCapacity, l.Len())
	assert.Equal(t, "action_5", records[0].Action)
	assert.Equal(t, "action_104", records[len(records)-1].Action)

	for i := 1; i < len(records); i++ {
		assert.True(t, records[i].Timestamp.After(records[i-1].Timestamp), "records must stay in insertion order")
	}
}

func TestLast(t *testing.T) {
	l := newTestLogger(5)
	for i := 0; i < 7; i++ {
		l.Record(fmt.Sprintf("a%d", i), nil)
	}

	last := l.Last(2)
	require.Len(t, last, 2)
	assert.Equal(t, "a5", last[0].Action)
	assert.Equal(t, "a6", last[1].Action)
	assert.Len(t, l.Last(0), 5)
	assert.Len(t, l.Last(50), 5)
}

func TestDefaultsApplied(t *testing.T) {
	l := NewLogger(Config{}, nil)
	assert.Equal(t, DefaultCapacity, l.Capacity())
	assert.Equal(t, DefaultActor, l.Actor())
}

func TestSinksReceiveEveryRecord(t *testing.T) {
	var got []string
	sink := SinkFunc(func(rec types.ActivityRecord) error {
		got = append(got, rec.Action)
		return nil
	})

	l := newTestLogger(10, sink)
	l.Record("theme_changed", nil)
	l.Record("app_opened", nil)

	assert.Equal(t, []string{"theme_changed", "app_opened"}, got)
}

func TestSinkSeesRecordAlreadyStored(t *testing.T) {
	var l *Logger
	var seen int
	l = newTestLogger(10, SinkFunc(func(rec types.ActivityRecord) error {
		seen = l.Len()
		return nil
	}))

	l.Record("session_started", nil)
	assert.Equal(t, 1, seen)
}

func TestSinkFailuresDoNotReachCaller(t *testing.T) {
	var delivered int
	failing := SinkFunc(func(types.ActivityRecord) error { return errors.New("dashboard offline") })
	panicking := SinkFunc(func(types.ActivityRecord) error { panic("boom") })
	counting := SinkFunc(func(types.ActivityRecord) error {
		delivered++
		return nil
	})

	l := newTestLogger(10, failing, panicking, counting)

	assert.NotPanics(t, func() {
		l.Record("file_deleted", map[string]interface{}{"fileName": "Budget_2024.xlsx"})
	})
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, 1, delivered, "later sinks still run after a failing one")
}

func TestAddSinkIgnoresNil(t *testing.T) {
	l := newTestLogger(10)
	l.AddSink(nil)
	assert.NotPanics(t, func() { l.Record("x", nil) })
}

func TestConcurrentRecord(t *testing.T) {
	l := NewLogger(Config{Capacity: 50}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				l.Record("search_performed", nil)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
}

func TestIsSuspicious(t *testing.T) {
	tests := []struct {
		action string
		want   bool
	}{
		{"failed_login", true},
		{"unauthorized_access", true},
		{"suspicious_activity", true},
		{"multiple_failed_logins", true},
		{"policy_denied", true},
		{"app_opened", false},
		{"file_uploaded", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSuspicious(tt.action))
		})
	}

	for _, a := range SuspiciousActions() {
		assert.True(t, IsSuspicious(a), a)
	}
}
