package syncengine

import "fmt"

// State is a position in the sync state machine.
type State int

const (
	Idle State = iota
	Staging
	Committing
	Fetching
	Reconciling
	Pushing
	Done
	Aborted
)

// Steps is the number of working states between Idle and Done.
const Steps = 5

var stateNames = [...]string{"idle", "staging", "committing", "fetching", "reconciling", "pushing", "done", "aborted"}

func (s State) String() string {
	if s < Idle || s > Aborted {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(b []byte) error {
	for i, name := range stateNames {
		if name == string(b) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown sync state %q", b)
}

// Status is the terminal outcome of a sync.
type Status int

const (
	Failed Status = iota
	Success
	Conflict
)

func (s Status) String() string {
	switch s {
	case Success:
		return "success"
	case Conflict:
		return "conflict"
	default:
		return "failed"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Status) UnmarshalText(b []byte) error {
	for _, v := range []Status{Failed, Success, Conflict} {
		if v.String() == string(b) {
			*s = v
			return nil
		}
	}
	return fmt.Errorf("unknown sync status %q", b)
}

// Result is the outcome of one Sync call.
type Result struct {
	Status     Status   `json:"status"`
	State      State    `json:"state"`               // Done or Aborted once Sync returns
	FailedAt   State    `json:"failed_at,omitempty"` // set when State is Aborted
	Branch     string   `json:"branch,omitempty"`
	CommitHash string   `json:"commit,omitempty"`
	Committed  bool     `json:"committed"`
	Pushed     bool     `json:"pushed"`
	Conflicts  []string `json:"conflicts,omitempty"`
	Message    string   `json:"message"`
}

// Step reports a completed (or skipped) working state.
type Step struct {
	State   State
	Skipped bool
	Detail  string
}
