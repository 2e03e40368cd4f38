package attendance

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"attendance-bot/internal/model"
	"attendance-bot/internal/parse"
	"attendance-bot/internal/store"
	"attendance-bot/internal/timeacct"
)

// Ledger is the slice of store.Ledger the machine mutates.
type Ledger interface {
	AppendOpenRow(ctx context.Context, employeeName, checkInDate, checkInTime string) error
	UpdateOpenRow(ctx context.Context, employeeName string, update store.FieldUpdate) error
	OpenRow(employeeName string) (model.SessionRecord, bool)
}

// Machine validates intents against per-employee state and records the
// resulting sessions in the ledger.
type Machine struct {
	mu      sync.Mutex
	ledger  Ledger
	zone    *timeacct.Zone
	states  map[string]*State // keyed by employee ID
	claimed map[string]bool   // names whose open row a state of this run owns
}

// NewMachine creates a machine with no known employees.
func NewMachine(ledger Ledger, zone *timeacct.Zone) *Machine {
	return &Machine{
		ledger:  ledger,
		zone:    zone,
		states:  make(map[string]*State),
		claimed: make(map[string]bool),
	}
}

// Apply applies intent for the employee at the given instant. Rejections are
// reported through the Outcome; the error is reserved for a ledger that no
// longer matches the in-memory state, in which case nothing is changed.
func (m *Machine) Apply(ctx context.Context, employeeID, displayName string, intent parse.Intent, at time.Time) (Outcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	at = at.UTC()
	st := m.stateFor(employeeID, displayName)

	var (
		out Outcome
		err error
	)
	switch intent {
	case parse.IntentCheckIn:
		out, err = m.checkIn(ctx, st, displayName, at)
	case parse.IntentCheckOut:
		out, err = m.checkOut(ctx, st, at)
	case parse.IntentBreakIn:
		out = m.breakIn(st, at)
	case parse.IntentBreakOut:
		out, err = m.breakOut(ctx, st, at)
	default:
		out = m.reject(st, ReasonUnrecognized, at)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("ledger consistency violation for employee %s (%q): %w", employeeID, st.EmployeeName, err)
	}
	out.Intent = intent
	return out, nil
}

// State returns a copy of the employee's state.
func (m *Machine) State(employeeID string) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.states[employeeID]
	if !ok {
		return State{}, false
	}
	return *st, true
}

// States returns a copy of every known employee's state.
func (m *Machine) States() map[string]State {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]State, len(m.states))
	for id, st := range m.states {
		out[id] = *st
	}
	return out
}

// stateFor returns the employee's state, creating it on first contact. An
// open ledger row left by a previous run is resumed, unless another employee
// of this run already owns that name's open row.
func (m *Machine) stateFor(employeeID, displayName string) *State {
	if st, ok := m.states[employeeID]; ok {
		return st
	}

	st := &State{EmployeeName: displayName, Phase: NotCheckedIn}
	m.states[employeeID] = st

	if m.claimed[displayName] {
		return st
	}
	row, ok := m.ledger.OpenRow(displayName)
	if !ok {
		return st
	}
	checkInAt, err := m.zone.Parse(row.CheckInDate, row.CheckInTime)
	if err != nil {
		log.Printf("Warning: cannot resume open session of %q: %v", displayName, err)
		return st
	}
	breakTotal, err := timeacct.ParseHMS(row.TotalBreakDuration)
	if err != nil {
		log.Printf("Warning: ignoring break total of %q: %v", displayName, err)
		breakTotal = 0
	}

	m.claimed[displayName] = true
	st.Phase = CheckedIn
	st.CheckInAt = &checkInAt
	st.TotalBreak = breakTotal
	st.BreakIns = row.TotalBreakIns
	log.Printf("Resumed open session of %q checked in at %s %s", displayName, row.CheckInDate, row.CheckInTime)
	return st
}

func (m *Machine) checkIn(ctx context.Context, st *State, displayName string, at time.Time) (Outcome, error) {
	switch st.Phase {
	case CheckedIn, OnBreak:
		return m.reject(st, ReasonAlreadyCheckedIn, at), nil
	}

	newSession := st.Phase == CheckedOut
	date, clock := m.zone.Date(at), m.zone.Clock(at)
	if err := m.ledgerResult(m.ledger.AppendOpenRow(ctx, displayName, date, clock)); err != nil {
		return Outcome{}, err
	}
	m.claimed[displayName] = true

	*st = State{
		EmployeeName: displayName,
		Phase:        CheckedIn,
		CheckInAt:    &at,
	}

	out := m.apply(st, EffectCheckedIn, at)
	out.NewSession = newSession
	return out, nil
}

func (m *Machine) checkOut(ctx context.Context, st *State, at time.Time) (Outcome, error) {
	switch {
	case st.CheckInAt == nil:
		return m.reject(st, ReasonNotCheckedIn, at), nil
	case st.Phase == CheckedOut:
		return m.reject(st, ReasonAlreadyCheckedOut, at), nil
	case st.Phase == OnBreak:
		return m.reject(st, ReasonEndBreakFirst, at), nil
	}

	worked := at.Sub(*st.CheckInAt) - st.TotalBreak
	if worked < 0 {
		worked = 0
	}

	date, clock := m.zone.Date(at), m.zone.Clock(at)
	breakText, workedText := timeacct.FormatHMS(st.TotalBreak), timeacct.FormatHMS(worked)
	err := m.ledgerResult(m.ledger.UpdateOpenRow(ctx, st.EmployeeName, store.FieldUpdate{
		CheckOutDate:        &date,
		CheckOutTime:        &clock,
		TotalBreakDuration:  &breakText,
		TotalWorkedDuration: &workedText,
	}))
	if err != nil {
		return Outcome{}, err
	}

	st.Phase = CheckedOut
	st.CheckOutAt = &at

	out := m.apply(st, EffectCheckedOut, at)
	out.Worked = worked
	return out, nil
}

func (m *Machine) breakIn(st *State, at time.Time) Outcome {
	switch st.Phase {
	case NotCheckedIn:
		return m.reject(st, ReasonCheckInFirst, at)
	case CheckedOut:
		return m.reject(st, ReasonBreakAfterCheckout, at)
	case OnBreak:
		return m.reject(st, ReasonAlreadyOnBreak, at)
	}

	// The ledger learns about the break when it ends.
	st.Phase = OnBreak
	st.BreakStartAt = &at
	st.BreakIns++
	return m.apply(st, EffectBreakStarted, at)
}

func (m *Machine) breakOut(ctx context.Context, st *State, at time.Time) (Outcome, error) {
	if st.Phase != OnBreak {
		return m.reject(st, ReasonNotOnBreak, at), nil
	}

	elapsed := at.Sub(*st.BreakStartAt)
	if elapsed < 0 {
		elapsed = 0
	}
	total := st.TotalBreak + elapsed
	breakIns := st.BreakIns

	breakText := timeacct.FormatHMS(total)
	err := m.ledgerResult(m.ledger.UpdateOpenRow(ctx, st.EmployeeName, store.FieldUpdate{
		TotalBreakDuration: &breakText,
		TotalBreakIns:      &breakIns,
	}))
	if err != nil {
		return Outcome{}, err
	}

	st.Phase = CheckedIn
	st.BreakStartAt = nil
	st.TotalBreak = total

	out := m.apply(st, EffectBreakEnded, at)
	out.Break = elapsed
	return out, nil
}

// ledgerResult swallows persistence failures: the in-memory ledger already
// holds the change and the next successful write catches the file up.
func (m *Machine) ledgerResult(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, store.ErrPersist) {
		log.Printf("Error persisting ledger, continuing with in-memory state: %v", err)
		return nil
	}
	return err
}

func (m *Machine) apply(st *State, effect Effect, at time.Time) Outcome {
	out := m.outcome(st, at)
	out.Applied = true
	out.Effect = effect
	return out
}

func (m *Machine) reject(st *State, reason Reason, at time.Time) Outcome {
	out := m.outcome(st, at)
	out.Reason = reason
	return out
}

func (m *Machine) outcome(st *State, at time.Time) Outcome {
	return Outcome{
		Phase:      st.Phase,
		At:         at,
		LocalDate:  m.zone.Date(at),
		LocalTime:  m.zone.Clock(at),
		TotalBreak: st.TotalBreak,
		BreakIns:   st.BreakIns,
	}
}
