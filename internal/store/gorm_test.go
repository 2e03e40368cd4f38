package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"attendance-bot/internal/model"
)

// A helper function to create a mock database connection.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func newSQLiteDB(t *testing.T) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gormDB, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, gormDB.AutoMigrate(&model.SessionRecord{}))
	return gormDB
}

func TestGormBackend_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := NewGormBackend(newSQLiteDB(t))

	rows, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	want := []model.SessionRecord{
		{EmployeeName: "zoe", CheckInDate: "2024-05-06", CheckInTime: "14:00:00", CheckOutDate: strPtr("2024-05-06"), CheckOutTime: strPtr("22:00:00"), TotalBreakDuration: "00:30:00", TotalWorkedDuration: strPtr("07:30:00"), TotalBreakIns: 1},
		{EmployeeName: "adam", CheckInDate: "2024-05-06", CheckInTime: "14:10:00", TotalBreakDuration: "00:00:00"},
	}
	require.NoError(t, backend.Save(ctx, want))

	// A second save replaces rather than appends.
	want = append(want, model.SessionRecord{EmployeeName: "zoe", CheckInDate: "2024-05-07", CheckInTime: "14:00:00", TotalBreakDuration: "00:00:00"})
	require.NoError(t, backend.Save(ctx, want))

	got, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range got {
		assert.Equal(t, int64(i+1), got[i].Seq)
		got[i].Seq = 0
	}
	assert.Equal(t, want, got, "ledger order is preserved")
	assert.Nil(t, got[1].CheckOutTime)
}

func TestGormBackend_SaveFailure(t *testing.T) {
	gormDB, mock := newMockDB(t)
	backend := NewGormBackend(gormDB)

	mock.ExpectBegin().WillReturnError(errors.New("connection refused"))

	err := backend.Save(context.Background(), []model.SessionRecord{{EmployeeName: "zoe", CheckInDate: "2024-05-06", CheckInTime: "14:00:00", TotalBreakDuration: "00:00:00"}})
	assert.ErrorContains(t, err, "connection refused")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormBackend_LedgerWriteThrough(t *testing.T) {
	ctx := context.Background()
	gormDB := newSQLiteDB(t)
	ledger := NewLedger(NewGormBackend(gormDB))

	require.NoError(t, ledger.AppendOpenRow(ctx, "zoe", "2024-05-06", "14:00:00"))

	var count int64
	require.NoError(t, gormDB.Model(&model.SessionRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	reloaded := NewLedger(NewGormBackend(gormDB))
	require.NoError(t, reloaded.Load(ctx))
	_, ok := reloaded.OpenRow("zoe")
	assert.True(t, ok)
}
