package attendance

import (
	"fmt"
	"time"
)

// Phase is the discrete state of an employee's current session.
type Phase int

const (
	NotCheckedIn Phase = iota
	CheckedIn
	OnBreak
	CheckedOut
)

func (p Phase) String() string {
	switch p {
	case NotCheckedIn:
		return "NotCheckedIn"
	case CheckedIn:
		return "CheckedIn"
	case OnBreak:
		return "OnBreak"
	case CheckedOut:
		return "CheckedOut"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// MarshalText renders the phase by name in JSON payloads.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a phase name written by MarshalText.
func (p *Phase) UnmarshalText(text []byte) error {
	for _, candidate := range []Phase{NotCheckedIn, CheckedIn, OnBreak, CheckedOut} {
		if candidate.String() == string(text) {
			*p = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", text)
}

// State is the in-memory session state of one employee.
//
// OnBreak implies BreakStartAt is set and CheckOutAt is not; CheckedOut
// implies CheckOutAt is set and BreakStartAt is not. TotalBreak and BreakIns
// only grow within a session and reset on a fresh check-in.
type State struct {
	EmployeeName string
	Phase        Phase
	CheckInAt    *time.Time
	CheckOutAt   *time.Time
	BreakStartAt *time.Time
	TotalBreak   time.Duration
	BreakIns     int
}
