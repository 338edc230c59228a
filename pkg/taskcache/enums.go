package taskcache

import (
	"fmt"
	"strconv"
)

// Priority is the importance of a task.
type Priority int8

// Priority values. The constant values are the wire codes.
const (
	PriorityNegative Priority = -1
	PriorityLow      Priority = 0
	PriorityMedium   Priority = 1
	PriorityHigh     Priority = 2
	PriorityTop      Priority = 3
)

// PriorityFromCode maps a wire code to a [Priority].
func PriorityFromCode(code int) (Priority, error) {
	switch code {
	case -1:
		return PriorityNegative, nil
	case 0:
		return PriorityLow, nil
	case 1:
		return PriorityMedium, nil
	case 2:
		return PriorityHigh, nil
	case 3:
		return PriorityTop, nil
	default:
		return 0, &CodeError{Kind: "priority", Code: code}
	}
}

// Code returns the wire code.
func (p Priority) Code() int { return int(p) }

func (p Priority) String() string {
	switch p {
	case PriorityNegative:
		return "negative"
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	case PriorityTop:
		return "top"
	default:
		return "priority(" + strconv.Itoa(int(p)) + ")"
	}
}

// DueDateModifier qualifies how strictly a due date applies.
type DueDateModifier uint8

// DueDateModifier values. The constant values are the wire codes.
const (
	DueBy      DueDateModifier = 0
	DueOn      DueDateModifier = 1
	DueAfter   DueDateModifier = 2
	Optionally DueDateModifier = 3
)

// DueDateModifierFromCode maps a wire code to a [DueDateModifier].
func DueDateModifierFromCode(code int) (DueDateModifier, error) {
	switch code {
	case 0:
		return DueBy, nil
	case 1:
		return DueOn, nil
	case 2:
		return DueAfter, nil
	case 3:
		return Optionally, nil
	default:
		return 0, &CodeError{Kind: "duedatemod", Code: code}
	}
}

// Code returns the wire code.
func (m DueDateModifier) Code() int { return int(m) }

func (m DueDateModifier) String() string {
	switch m {
	case DueBy:
		return "due-by"
	case DueOn:
		return "due-on"
	case DueAfter:
		return "due-after"
	case Optionally:
		return "optionally"
	default:
		return "duedatemod(" + strconv.Itoa(int(m)) + ")"
	}
}

// Status is the workflow state of a task.
type Status uint8

// Status values. The constant values are the wire codes.
const (
	StatusNone       Status = 0
	StatusNextAction Status = 1
	StatusActive     Status = 2
	StatusPlanning   Status = 3
	StatusDelegated  Status = 4
	StatusWaiting    Status = 5
	StatusHold       Status = 6
	StatusPostponed  Status = 7
	StatusSomeday    Status = 8
	StatusCanceled   Status = 9
	StatusReference  Status = 10
)

var statusNames = [...]string{
	StatusNone:       "none",
	StatusNextAction: "next-action",
	StatusActive:     "active",
	StatusPlanning:   "planning",
	StatusDelegated:  "delegated",
	StatusWaiting:    "waiting",
	StatusHold:       "hold",
	StatusPostponed:  "postponed",
	StatusSomeday:    "someday",
	StatusCanceled:   "canceled",
	StatusReference:  "reference",
}

// StatusFromCode maps a wire code to a [Status].
func StatusFromCode(code int) (Status, error) {
	if code < 0 || code >= len(statusNames) {
		return 0, &CodeError{Kind: "status", Code: code}
	}

	return Status(code), nil
}

// Code returns the wire code.
func (s Status) Code() int { return int(s) }

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}

	return "status(" + strconv.Itoa(int(s)) + ")"
}

// UnmarshalJSON decodes a wire code, rejecting codes outside the enumeration.
func (p *Priority) UnmarshalJSON(data []byte) error {
	code, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("priority: %w", err)
	}

	v, err := PriorityFromCode(code)
	if err != nil {
		return err
	}

	*p = v

	return nil
}

// UnmarshalJSON decodes a wire code, rejecting codes outside the enumeration.
func (m *DueDateModifier) UnmarshalJSON(data []byte) error {
	code, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("duedatemod: %w", err)
	}

	v, err := DueDateModifierFromCode(code)
	if err != nil {
		return err
	}

	*m = v

	return nil
}

// UnmarshalJSON decodes a wire code, rejecting codes outside the enumeration.
func (s *Status) UnmarshalJSON(data []byte) error {
	code, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	v, err := StatusFromCode(code)
	if err != nil {
		return err
	}

	*s = v

	return nil
}
