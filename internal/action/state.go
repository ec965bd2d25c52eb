package action

import "fmt"

// Status is the observed state of an action in the browser.
//
// The zero value is StatusAbsent: nothing has been observed yet. It is
// distinct from StatusUnknown, which means a query ran but could not
// determine the state.
type Status int

const (
	StatusAbsent Status = iota
	StatusOn
	StatusOff
	StatusNone
	StatusUnknown
)

// ParseStatus maps a query token onto a Status. The boolean is false for
// tokens outside the enumeration; callers decide how to treat those.
func ParseStatus(token string) (Status, bool) {
	switch token {
	case "ON":
		return StatusOn, true
	case "OFF":
		return StatusOff, true
	case "NONE":
		return StatusNone, true
	case "UNKNOWN":
		return StatusUnknown, true
	default:
		return StatusAbsent, false
	}
}

func (s Status) String() string {
	switch s {
	case StatusAbsent:
		return ""
	case StatusOn:
		return "ON"
	case StatusOff:
		return "OFF"
	case StatusNone:
		return "NONE"
	case StatusUnknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Known reports whether s is one of the enumerated statuses, including
// StatusAbsent.
func (s Status) Known() bool {
	return s >= StatusAbsent && s <= StatusUnknown
}

// Definite reports whether s is a real on/off reading.
func (s Status) Definite() bool {
	return s == StatusOn || s == StatusOff
}

// ErrorCode is the user-facing error attached to an action state.
type ErrorCode int

const (
	NoError ErrorCode = iota
	// ErrQueryStatus: the query helper exited non-zero.
	ErrQueryStatus
	// ErrQueryDOM: the query ran but could not find the control.
	ErrQueryDOM
	// ErrScriptingDisabled: the browser refuses scripted JavaScript.
	ErrScriptingDisabled
	// ErrQueryException: the query helper could not be run or its output
	// could not be interpreted.
	ErrQueryException
)

// String returns the code shown to the user ("E1".."E4"), or "" for
// NoError.
func (e ErrorCode) String() string {
	switch e {
	case NoError:
		return ""
	case ErrQueryStatus:
		return "E1"
	case ErrQueryDOM:
		return "E2"
	case ErrScriptingDisabled:
		return "E3"
	case ErrQueryException:
		return "E4"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(e))
	}
}

// ParseErrorCode resolves a user-facing code ("E1".."E4").
func ParseErrorCode(code string) (ErrorCode, bool) {
	for e := ErrQueryStatus; e <= ErrQueryException; e++ {
		if e.String() == code {
			return e, true
		}
	}
	return NoError, false
}

// State is the (status, error) pair tracked for every action. It is a
// comparable value; two states are equal when both fields match.
type State struct {
	Status Status
	Error  ErrorCode
}

func (s State) String() string {
	if s.Error == NoError {
		return fmt.Sprintf("{%s}", s.Status)
	}
	return fmt.Sprintf("{%s %s}", s.Status, s.Error)
}
