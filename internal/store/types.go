package store

import (
	"context"
	"errors"

	"attendance-bot/internal/model"
)

var (
	// ErrNoOpenRow means an update targeted an employee without an open session row.
	ErrNoOpenRow = errors.New("no open session row")
	// ErrPersist wraps failures of the durable write that follows every mutation.
	ErrPersist = errors.New("ledger persist failed")
)

// Backend loads and saves the full ledger table.
type Backend interface {
	Load(ctx context.Context) ([]model.SessionRecord, error)
	Save(ctx context.Context, rows []model.SessionRecord) error
}

// FieldUpdate lists the open-row columns to overwrite. Nil fields are left unchanged.
type FieldUpdate struct {
	CheckOutDate        *string
	CheckOutTime        *string
	TotalBreakDuration  *string
	TotalWorkedDuration *string
	TotalBreakIns       *int
}

func (u FieldUpdate) apply(r *model.SessionRecord) {
	if u.CheckOutDate != nil {
		v := *u.CheckOutDate
		r.CheckOutDate = &v
	}
	if u.CheckOutTime != nil {
		v := *u.CheckOutTime
		r.CheckOutTime = &v
	}
	if u.TotalBreakDuration != nil {
		r.TotalBreakDuration = *u.TotalBreakDuration
	}
	if u.TotalWorkedDuration != nil {
		v := *u.TotalWorkedDuration
		r.TotalWorkedDuration = &v
	}
	if u.TotalBreakIns != nil {
		r.TotalBreakIns = *u.TotalBreakIns
	}
}
