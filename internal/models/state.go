package models

import "strings"

// State is the listing bucket a caller asks for.
type State string

const (
	StateAll      State = "ALL"
	StateCurrent  State = "CURRENT"
	StatePast     State = "PAST"
	StateFuture   State = "FUTURE"
	StateWaiting  State = "WAITING"
	StateRejected State = "REJECTED"
)

// States lists every supported bucket.
var States = []State{StateAll, StateCurrent, StatePast, StateFuture, StateWaiting, StateRejected}

// ParseState matches a token case-insensitively.
func ParseState(token string) (State, bool) {
	s := State(strings.ToUpper(strings.TrimSpace(token)))
	for _, known := range States {
		if s == known {
			return s, true
		}
	}
	return "", false
}

// Viewpoint scopes a listing to the caller's bookings or to bookings of the caller's items.
type Viewpoint string

const (
	ViewpointBooker Viewpoint = "booker"
	ViewpointOwner  Viewpoint = "owner"
)
