package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/dispatch"
	"attendance-bot/internal/model"
	"attendance-bot/internal/parse"
	"attendance-bot/internal/store"
	"attendance-bot/internal/timeacct"
)

// karachi is a fixed UTC+5 reporting zone, so the test does not depend on tzdata.
var karachi = timeacct.NewZone(time.FixedZone("PKT", 5*60*60))

type bot struct {
	ledger     *store.Ledger
	machine    *attendance.Machine
	dispatcher *dispatch.Dispatcher
}

// boot wires the attendance core over backend the way the daemon does.
func boot(t *testing.T, ctx context.Context, backend store.Backend) *bot {
	t.Helper()
	ledger := store.NewLedger(backend)
	require.NoError(t, ledger.Load(ctx))

	machine := attendance.NewMachine(ledger, karachi)
	d := dispatch.NewDispatcher("main", parse.NewClassifier(parse.DefaultThreshold), machine, 16)
	d.Start(ctx)
	return &bot{ledger: ledger, machine: machine, dispatcher: d}
}

func (b *bot) say(t *testing.T, ctx context.Context, user, name, text string, at time.Time) dispatch.Result {
	t.Helper()
	res, err := b.dispatcher.Submit(ctx, dispatch.Event{
		EmployeeID:   user,
		EmployeeName: name,
		Channel:      "main",
		Text:         text,
		Timestamp:    at,
	})
	require.NoError(t, err)
	require.NoError(t, res.Err)
	return res
}

// TestAttendanceLifecycle walks two employees through a day, restarts the bot
// in the middle of a session and verifies the ledger file at each step.
func TestAttendanceLifecycle(t *testing.T) {
	// --- Test Setup ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "attendance_data.csv")
	day := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	b := boot(t, ctx, store.NewCSVBackend(path))

	// --- Step 1: Morning check-ins, one misspelled ---
	res := b.say(t, ctx, "U1", "alice", "Check in", at(9, 0))
	assert.True(t, res.Outcome.Applied)
	res = b.say(t, ctx, "U2", "bob", "chek iin", at(9, 5))
	assert.True(t, res.Outcome.Applied)
	res = b.say(t, ctx, "U2", "bob", "check in", at(9, 6))
	assert.Equal(t, attendance.ReasonAlreadyCheckedIn, res.Outcome.Reason)

	// --- Step 2: Alice takes a break and tries to leave during it ---
	b.say(t, ctx, "U1", "alice", "break in", at(12, 0))
	res = b.say(t, ctx, "U1", "alice", "check out", at(12, 10))
	assert.Equal(t, attendance.ReasonEndBreakFirst, res.Outcome.Reason)
	b.say(t, ctx, "U1", "alice", "break out", at(12, 30))

	// Chatter from other channels and bots never reaches the ledger.
	res, err := b.dispatcher.Submit(ctx, dispatch.Event{EmployeeID: "U3", EmployeeName: "carol", Channel: "random", Text: "check in", Timestamp: at(9, 0)})
	require.NoError(t, err)
	assert.True(t, res.Ignored)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Employee Name,Check-In Date,Check-In Time,Check-Out Date,Check-Out Time,Total Break Time (hh:mm:ss),Total Time Worked (hh:mm:ss),Total Break-Ins\n"+
			"alice,2024-05-06,14:00:00,,,00:30:00,,1\n"+
			"bob,2024-05-06,14:05:00,,,00:00:00,,0\n",
		string(raw))

	// --- Step 3: Restart ---
	cancel()
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	b = boot(t, ctx, store.NewCSVBackend(path))

	// --- Step 4: Both check out after the restart ---
	res = b.say(t, ctx, "U1", "alice", "check out", at(17, 0))
	require.True(t, res.Outcome.Applied, "open session resumes after restart")
	assert.Equal(t, 7*time.Hour+30*time.Minute, res.Outcome.Worked)

	res = b.say(t, ctx, "U2", "bob", "check out", at(18, 5))
	require.True(t, res.Outcome.Applied)

	// --- Step 5: Alice comes back for an evening session ---
	res = b.say(t, ctx, "U1", "alice", "check in", at(19, 0))
	require.True(t, res.Outcome.Applied)
	assert.True(t, res.Outcome.NewSession)

	// --- Verification ---
	raw, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"Employee Name,Check-In Date,Check-In Time,Check-Out Date,Check-Out Time,Total Break Time (hh:mm:ss),Total Time Worked (hh:mm:ss),Total Break-Ins\n"+
			"alice,2024-05-06,14:00:00,2024-05-06,22:00:00,00:30:00,07:30:00,1\n"+
			"bob,2024-05-06,14:05:00,2024-05-06,23:05:00,00:00:00,09:00:00,0\n"+
			"alice,2024-05-07,00:00:00,,,00:00:00,,0\n",
		string(raw))

	st, ok := b.machine.State("U1")
	require.True(t, ok)
	assert.Equal(t, attendance.CheckedIn, st.Phase)
	assert.Zero(t, st.BreakIns)
}

// TestAttendanceLifecycle_SQLBackend runs a session against the gorm-backed ledger.
func TestAttendanceLifecycle_SQLBackend(t *testing.T) {
	// --- Test Setup ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	testDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, _ := testDB.DB()
	defer sqlDB.Close()
	require.NoError(t, testDB.AutoMigrate(&model.SessionRecord{}))

	b := boot(t, ctx, store.NewGormBackend(testDB))
	start := time.Date(2024, 5, 6, 9, 0, 0, 0, time.UTC)

	// --- Execution ---
	for i, text := range []string{"check in", "break in", "break out", "check out", "check in"} {
		res := b.say(t, ctx, "U1", "alice", text, start.Add(time.Duration(i)*2*time.Hour))
		require.True(t, res.Outcome.Applied, "%s: %s", text, res.Outcome.Reason)
	}

	// --- Verification ---
	var records []model.SessionRecord
	require.NoError(t, testDB.Order("seq").Find(&records).Error)
	require.Len(t, records, 2)

	assert.Equal(t, int64(1), records[0].Seq)
	assert.Equal(t, "02:00:00", records[0].TotalBreakDuration)
	require.NotNil(t, records[0].TotalWorkedDuration)
	assert.Equal(t, "04:00:00", *records[0].TotalWorkedDuration)
	assert.Equal(t, 1, records[0].TotalBreakIns)

	assert.True(t, records[1].IsOpen())
	assert.Equal(t, "22:00:00", records[1].CheckInTime)
}
