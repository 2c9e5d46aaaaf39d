package models

// UCIScore is a raw engine score for one searched position.
type UCIScore struct {
	// Exactly one of these will be set:
	CP   *int   `json:"cp,omitempty"`   // centipawns, positive means advantage for side to move
	Mate *int   `json:"mate,omitempty"` // in N, sign indicates who is mating (+ means side to move mates)
	Best string `json:"bestmove"`       // engine best move in UCI, e.g. "e2e4"
}

// mateValuePawns saturates forced-mate scores so "mate in 2" and "mate in 20"
// both register as the same decisive advantage when differenced against
// centipawn evals.
const mateValuePawns = 100.0

// MoverScore is a score exactly as the engine reports it: positive favors
// whoever is to move in the position that was searched. It must be converted
// to a WhiteScore before being compared across plies.
type MoverScore struct {
	CP   *int
	Mate *int
}

// WhiteScore is a score normalized so that positive always favors White,
// regardless of which side was to move when the engine was queried.
type WhiteScore struct {
	CP   *int
	Mate *int
}

// FromWhitePOV normalizes a mover-perspective score. sideToMove is "w" or "b"
// for the position the engine searched.
func (s MoverScore) FromWhitePOV(sideToMove string) WhiteScore {
	out := WhiteScore{}
	flip := sideToMove == "b"
	if s.CP != nil {
		cp := *s.CP
		if flip {
			cp = -cp
		}
		out.CP = &cp
	}
	if s.Mate != nil {
		m := *s.Mate
		if flip {
			m = -m
		}
		out.Mate = &m
	}
	return out
}

// Pawns collapses the score to a single float in pawn units. Mate scores
// saturate at ±mateValuePawns.
func (s WhiteScore) Pawns() float64 {
	if s.Mate != nil {
		if *s.Mate < 0 {
			return -mateValuePawns
		}
		return mateValuePawns
	}
	if s.CP != nil {
		return float64(*s.CP) / 100.0
	}
	return 0
}

// EvaluationResult is what the service returns for a single position.
// The score is from the mover's perspective; SideToMove is included so
// callers can normalize before cross-ply comparison.
type EvaluationResult struct {
	FEN        string   `json:"fen"`
	SideToMove string   `json:"side_to_move"` // "w" or "b"
	Score      UCIScore `json:"score"`
}

// Mover returns the typed mover-perspective view of the score.
func (r EvaluationResult) Mover() MoverScore {
	return MoverScore{CP: r.Score.CP, Mate: r.Score.Mate}
}

// CandidateMove is one ranked alternative from a multi-PV search.
type CandidateMove struct {
	Rank int    `json:"rank"` // 1 = engine's preferred move
	Move string `json:"move"` // UCI coordinate move
	CP   *int   `json:"cp,omitempty"`
	Mate *int   `json:"mate,omitempty"`
}

// StrengthConfig drives how we query the engine for a target rating.
// Computed per request, never persisted.
type StrengthConfig struct {
	Rating        int  `json:"rating"` // clamped requested rating
	LimitStrength bool `json:"limit_strength"`
	Elo           int  `json:"elo"`         // engine-native target, only when LimitStrength
	SkillLevel    int  `json:"skill_level"` // 0..20
	Depth         int  `json:"depth"`       // 0 means movetime only
	MoveTimeMS    int  `json:"move_time_ms"`

	// RandomMoveProb is the chance of substituting a weighted random legal
	// move instead of asking the engine. Zero at and above the native floor.
	RandomMoveProb float64 `json:"random_move_prob"`
}
