package engage

import "strings"

// Move is the elicitation tactic behind one reply.
type Move string

const (
	MoveStall           Move = "stall"
	MoveProbe           Move = "probe"
	MoveFeignCompliance Move = "feign_compliance"
	MoveDelayExcuse     Move = "delay_excuse"
)

// Moves returns the full enumeration.
func Moves() []Move {
	return []Move{MoveStall, MoveProbe, MoveFeignCompliance, MoveDelayExcuse}
}

// Eliciting reports whether the move actively fishes for identifiers, as
// opposed to a neutral stall or delay.
func (m Move) Eliciting() bool {
	return m == MoveProbe || m == MoveFeignCompliance
}

// urgencyMarkers are pressure phrases scammers use to rush a mark. They
// trigger a delay_excuse so the exchange slows down instead of escalating.
var urgencyMarkers = []string{
	"urgent", "immediately", "right now", "last warning", "final warning",
	"within 10 minutes", "act now", "deadline", "expire", "jaldi", "abhi",
	"turant", "fatafat",
}

// State is the per-session strategy cursor, owned by the session record.
type State struct {
	Persona     Persona        `json:"persona,omitempty"`
	Language    string         `json:"language,omitempty"`
	ElicitTurns int            `json:"elicit_turns,omitempty"`
	LastMove    Move           `json:"last_move,omitempty"`
	Cursors     map[string]int `json:"cursors,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	if len(s.Cursors) > 0 {
		c.Cursors = make(map[string]int, len(s.Cursors))
		for k, v := range s.Cursors {
			c.Cursors[k] = v
		}
	}
	return c
}

// IsUrgent reports whether the turn text carries pressure phrasing.
func IsUrgent(turnText string) bool {
	lower := strings.ToLower(turnText)
	for _, marker := range urgencyMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// NextMove picks the strategy move for the upcoming reply. The first turns
// stall while classification settles; pressure keywords buy time with an
// excuse; after that probe and feign_compliance alternate so every other
// reply asks for something new. The cursor is advanced by the caller once
// the move is actually used.
func NextMove(st State, turnCount int, turnText string) Move {
	if st.Persona == "" || turnCount <= 2 {
		return MoveStall
	}
	if IsUrgent(turnText) {
		return MoveDelayExcuse
	}
	if st.ElicitTurns%2 == 0 {
		return MoveProbe
	}
	return MoveFeignCompliance
}
