package storage

// State is the outcome of connecting to and inspecting a database.
type State int

const (
	// StateMissing means the database could not be reached at all.
	StateMissing State = iota
	// StateIncorrect means the database is reachable but its schema differs.
	StateIncorrect
	// StateCorrect means every expected table and column is present.
	StateCorrect
)

func (s State) String() string {
	switch s {
	case StateCorrect:
		return "correct"
	case StateIncorrect:
		return "incorrect"
	case StateMissing:
		return "missing"
	default:
		return "unknown"
	}
}
