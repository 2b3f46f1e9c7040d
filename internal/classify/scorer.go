package classify

import (
	"strings"

	"github.com/antoniostano/jaal/internal/extract"
)

// Params are the tunable scoring knobs. The exact numbers are policy, not
// physics; everything here can be overridden from configuration.
type Params struct {
	TurnWeight     float64
	HistoryWeight  float64
	AffinityWeight float64
	Smoothing      float64

	// DetectionThreshold is the confidence at which a session is treated
	// as a confirmed scam. PersonaThreshold is the lower bar at which the
	// engagement layer may commit to a persona.
	DetectionThreshold float64
	PersonaThreshold   float64

	// DecayAfterTurns consecutive zero-signal turns start confidence
	// decay; each further silent turn multiplies confidence by
	// (1 - DecayRate).
	DecayAfterTurns int
	DecayRate       float64
}

// DefaultParams returns the shipped tuning.
func DefaultParams() Params {
	return Params{
		TurnWeight:         1.0,
		HistoryWeight:      0.5,
		AffinityWeight:     0.8,
		Smoothing:          2.0,
		DetectionThreshold: 0.5,
		PersonaThreshold:   0.4,
		DecayAfterTurns:    3,
		DecayRate:          0.15,
	}
}

// Classifier scores turns against the signal tables. It is stateless; all
// per-session accumulation lives in the State the caller passes in.
type Classifier struct {
	params Params
}

func New(params Params) *Classifier {
	if params.Smoothing <= 0 {
		params.Smoothing = DefaultParams().Smoothing
	}
	return &Classifier{params: params}
}

// Params returns the tuning the classifier was built with.
func (c *Classifier) Params() Params { return c.params }

// Observe scores one new turn, folds it into the session state and returns
// the resulting classification. Entities are the categories extracted so
// far in the session (including this turn).
func (c *Classifier) Observe(state *State, turnText string, entities map[extract.Category]bool) Result {
	if state.Hits == nil {
		state.Hits = make(map[Type]float64)
	}
	if state.Matches == nil {
		state.Matches = make(map[Type]int)
	}

	lower := strings.ToLower(turnText)

	var (
		best      Type
		bestScore float64
		signals   int
	)
	// Priority order doubles as the deterministic tie-break: the first
	// type to reach the maximum score keeps it.
	for _, t := range Priority() {
		turnHits, matched := countHits(lower, signalTable[t])
		histHits := state.Hits[t]

		var affinity float64
		for cat, bonus := range affinityTable[t] {
			if entities[cat] {
				affinity += bonus
			}
		}

		score := c.params.TurnWeight*turnHits +
			c.params.HistoryWeight*histHits +
			c.params.AffinityWeight*affinity

		state.Hits[t] += turnHits
		state.Matches[t] += matched
		signals += matched

		if score > bestScore {
			bestScore = score
			best = t
		}
	}

	if signals == 0 {
		state.SilentTurns++
	} else {
		state.SilentTurns = 0
	}

	confidence := bestScore / (bestScore + c.params.Smoothing)
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	// Once the detection threshold is crossed the session confidence only
	// ratchets up, except through the silence decay below.
	if state.Max >= c.params.DetectionThreshold && confidence < state.Max {
		confidence = state.Max
	}
	if signals == 0 && state.SilentTurns > c.params.DecayAfterTurns {
		confidence = state.Max * (1 - c.params.DecayRate)
		state.Max = confidence
	}
	if confidence > state.Max {
		state.Max = confidence
	}

	result := Result{
		Type:        best,
		Confidence:  confidence,
		SignalCount: state.Matches[best],
		Detected:    confidence >= c.params.DetectionThreshold,
	}
	if bestScore == 0 && state.Max == 0 {
		result.Type = TypeUnclassified
		result.SignalCount = 0
	}
	return result
}
