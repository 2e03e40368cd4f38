package api

import (
	"context"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/dispatch"
	"attendance-bot/internal/model"
)

// StateReader exposes the in-memory session states.
type StateReader interface {
	State(employeeID string) (attendance.State, bool)
	States() map[string]attendance.State
}

// RowReader exposes the ledger rows.
type RowReader interface {
	Rows() []model.SessionRecord
}

// Submitter hands events to the attendance core.
type Submitter interface {
	Submit(ctx context.Context, ev dispatch.Event) (dispatch.Result, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	states         StateReader
	ledger         RowReader
	dispatcher     Submitter
	confirmSuccess bool
}

// NewHandler creates a new API handler.
func NewHandler(states StateReader, ledger RowReader, dispatcher Submitter, confirmSuccess bool) *Handler {
	return &Handler{
		states:         states,
		ledger:         ledger,
		dispatcher:     dispatcher,
		confirmSuccess: confirmSuccess,
	}
}
