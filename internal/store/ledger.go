package store

import (
	"context"
	"fmt"
	"log"
	"sync"

	"attendance-bot/internal/model"
)

// Ledger is the in-memory session table. Every mutation is written through
// to the backend before the call returns.
type Ledger struct {
	mu      sync.RWMutex
	backend Backend
	rows    []model.SessionRecord
	open    map[string]int // employee name -> index of the open row
}

// NewLedger creates an empty ledger persisted by backend.
func NewLedger(backend Backend) *Ledger {
	return &Ledger{
		backend: backend,
		open:    make(map[string]int),
	}
}

// Load replaces the in-memory rows with the backend's contents and rebuilds the open-row index.
func (l *Ledger) Load(ctx context.Context) error {
	rows, err := l.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load ledger: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.rows = rows
	l.open = make(map[string]int)
	for i, r := range rows {
		if !r.IsOpen() {
			continue
		}
		if prev, ok := l.open[r.EmployeeName]; ok {
			log.Printf("Warning: ledger row %d for %q is still open and superseded by row %d", prev+1, r.EmployeeName, i+1)
		}
		l.open[r.EmployeeName] = i
	}
	return nil
}

// AppendOpenRow starts a new open session row for the employee.
func (l *Ledger) AppendOpenRow(ctx context.Context, employeeName, checkInDate, checkInTime string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if prev, ok := l.open[employeeName]; ok {
		log.Printf("Warning: open row %d for %q superseded by a new check-in", prev+1, employeeName)
	}

	l.rows = append(l.rows, model.SessionRecord{
		EmployeeName:       employeeName,
		CheckInDate:        checkInDate,
		CheckInTime:        checkInTime,
		TotalBreakDuration: "00:00:00",
		TotalBreakIns:      0,
	})
	l.open[employeeName] = len(l.rows) - 1

	return l.persistLocked(ctx)
}

// UpdateOpenRow overwrites fields of the employee's open row. A row that
// receives a check-out time stops being open.
func (l *Ledger) UpdateOpenRow(ctx context.Context, employeeName string, update FieldUpdate) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx, ok := l.open[employeeName]
	if !ok {
		return fmt.Errorf("update for %q: %w", employeeName, ErrNoOpenRow)
	}

	update.apply(&l.rows[idx])
	if !l.rows[idx].IsOpen() {
		delete(l.open, employeeName)
	}

	return l.persistLocked(ctx)
}

// Persist writes the whole ledger to the backend. It is a no-op when the ledger is empty.
// Saves never overlap, so backends need not be safe for concurrent writes.
func (l *Ledger) Persist(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.persistLocked(ctx)
}

func (l *Ledger) persistLocked(ctx context.Context) error {
	if len(l.rows) == 0 {
		return nil
	}
	if err := l.backend.Save(ctx, l.rows); err != nil {
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

// OpenRow returns a copy of the employee's open row.
func (l *Ledger) OpenRow(employeeName string) (model.SessionRecord, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	idx, ok := l.open[employeeName]
	if !ok {
		return model.SessionRecord{}, false
	}
	return l.rows[idx], true
}

// Rows returns a copy of all rows in ledger order.
func (l *Ledger) Rows() []model.SessionRecord {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]model.SessionRecord, len(l.rows))
	copy(out, l.rows)
	return out
}

// Len returns the number of rows.
func (l *Ledger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rows)
}
