// Package classify scores conversation text against the known scam
// categories and tracks per-session confidence, which only moves down
// through the silence decay rule.
package classify

// Type is a scam category label as it appears in reports.
type Type string

const (
	TypeBankFraud     Type = "Bank Fraud"
	TypeUPIFraud      Type = "UPI Fraud"
	TypePhishing      Type = "Phishing"
	TypeLoanScam      Type = "Loan Scam"
	TypeKYCScam       Type = "KYC Scam"
	TypeJobScam       Type = "Job Scam"
	TypeCourierScam   Type = "Courier Scam"
	TypeSextortion    Type = "Sextortion"
	TypeDigitalArrest Type = "Digital Arrest"
	TypeUtilityScam   Type = "Utility Scam"
	TypeLotteryScam   Type = "Lottery Scam"

	// TypeUnclassified is reported when nothing scored.
	TypeUnclassified Type = "Unclassified"
)

// Priority returns the tie-break ordering, most specific category first.
// When two categories score equal, the earlier entry wins. Tests pin this
// ordering; it is a contract, not an implementation detail.
func Priority() []Type {
	return []Type{
		TypeSextortion,
		TypeDigitalArrest,
		TypeCourierScam,
		TypeUtilityScam,
		TypeKYCScam,
		TypeJobScam,
		TypeLoanScam,
		TypeUPIFraud,
		TypeLotteryScam,
		TypeBankFraud,
		TypePhishing,
	}
}

// Result is one classification outcome for a session after a turn.
type Result struct {
	Type        Type    `json:"type"`
	Confidence  float64 `json:"confidence"`
	SignalCount int     `json:"signal_count"`
	Detected    bool    `json:"detected"`
}

// State is the accumulated classifier state carried on a session. Hits and
// Matches grow as turns arrive; Max is the high-water confidence that the
// decay rule alone may lower.
type State struct {
	Hits        map[Type]float64 `json:"hits,omitempty"`
	Matches     map[Type]int     `json:"matches,omitempty"`
	SilentTurns int              `json:"silent_turns,omitempty"`
	Max         float64          `json:"max,omitempty"`
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := State{SilentTurns: s.SilentTurns, Max: s.Max}
	if len(s.Hits) > 0 {
		c.Hits = make(map[Type]float64, len(s.Hits))
		for k, v := range s.Hits {
			c.Hits[k] = v
		}
	}
	if len(s.Matches) > 0 {
		c.Matches = make(map[Type]int, len(s.Matches))
		for k, v := range s.Matches {
			c.Matches[k] = v
		}
	}
	return c
}
