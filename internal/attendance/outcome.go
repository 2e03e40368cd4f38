package attendance

import (
	"fmt"
	"time"

	"attendance-bot/internal/parse"
	"attendance-bot/internal/timeacct"
)

// Effect names a state change that was applied.
type Effect string

const (
	EffectCheckedIn    Effect = "checked in"
	EffectCheckedOut   Effect = "checked out"
	EffectBreakStarted Effect = "break started"
	EffectBreakEnded   Effect = "break ended"
)

// Reason names why a command was rejected.
type Reason string

const (
	ReasonAlreadyCheckedIn   Reason = "already checked in"
	ReasonNotCheckedIn       Reason = "not checked in"
	ReasonAlreadyCheckedOut  Reason = "already checked out"
	ReasonEndBreakFirst      Reason = "must end break first"
	ReasonCheckInFirst       Reason = "must check in first"
	ReasonBreakAfterCheckout Reason = "cannot break in after checkout"
	ReasonAlreadyOnBreak     Reason = "already on break"
	ReasonNotOnBreak         Reason = "not on break"
	ReasonUnrecognized       Reason = "unrecognized command"
)

// Outcome is the result of applying one intent. Exactly one of Effect and
// Reason is set, depending on Applied.
type Outcome struct {
	Intent  parse.Intent
	Applied bool
	Effect  Effect
	Reason  Reason

	Phase      Phase // phase after the command
	At         time.Time
	LocalDate  string
	LocalTime  string
	NewSession bool          // check-in that followed a check-out
	Break      time.Duration // length of the break that just ended
	TotalBreak time.Duration
	Worked     time.Duration // set on check-out
	BreakIns   int
}

// Message renders the reply addressed to mention.
func (o Outcome) Message(mention string) string {
	if !o.Applied {
		switch o.Reason {
		case ReasonAlreadyCheckedIn:
			return fmt.Sprintf("%s, you are already checked in!", mention)
		case ReasonNotCheckedIn:
			return fmt.Sprintf("%s, you haven't checked in yet!", mention)
		case ReasonAlreadyCheckedOut:
			return fmt.Sprintf("%s, you have already checked out. Please check in again before checking out!", mention)
		case ReasonEndBreakFirst:
			return fmt.Sprintf("%s, you cannot check out before ending your break!", mention)
		case ReasonCheckInFirst:
			return fmt.Sprintf("%s, you must check in before taking a break!", mention)
		case ReasonBreakAfterCheckout:
			return fmt.Sprintf("%s, you cannot break in after checking out! Please check in again.", mention)
		case ReasonAlreadyOnBreak:
			return fmt.Sprintf("%s, you are already on a break!", mention)
		case ReasonNotOnBreak:
			return fmt.Sprintf("%s, you are not on a break!", mention)
		default:
			return fmt.Sprintf("%s, I didn't understand that. Please check your spelling and try again.", mention)
		}
	}

	switch o.Effect {
	case EffectCheckedIn:
		msg := fmt.Sprintf("%s checked in at %s on %s.", mention, o.LocalTime, o.LocalDate)
		if o.NewSession {
			msg += " New session started."
		}
		return msg
	case EffectCheckedOut:
		return fmt.Sprintf("%s checked out at %s. Shift completed! Worked %s, breaks %s.",
			mention, o.LocalTime, timeacct.FormatHMS(o.Worked), timeacct.FormatHMS(o.TotalBreak))
	case EffectBreakStarted:
		return fmt.Sprintf("%s started a break at %s. Break-in count: %d", mention, o.LocalTime, o.BreakIns)
	case EffectBreakEnded:
		return fmt.Sprintf("%s ended a break at %s. Break duration: %s.", mention, o.LocalTime, timeacct.FormatHMS(o.Break))
	default:
		return fmt.Sprintf("%s, done.", mention)
	}
}
