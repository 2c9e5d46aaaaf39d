package models

// Classification labels a played move by quality, judged from the eval swing
// it caused.
type Classification string

const (
	ClassBrilliant  Classification = "brilliant"
	ClassGood       Classification = "good"
	ClassInaccuracy Classification = "inaccuracy"
	ClassMistake    Classification = "mistake"
	ClassBlunder    Classification = "blunder"
)

// MoveReport is the per-ply output of a full-game analysis (what we return to
// the frontend).
type MoveReport struct {
	MoveUCI    string         `json:"move_uci"`
	MoveSAN    string         `json:"move_san"`
	MoveNumber int            `json:"move_number"`
	Ply        int            `json:"ply"`        // 1-based
	Color      string         `json:"color"`      // "w" or "b"
	FENAfter   string         `json:"fen_after"`
	EvalWhite  float64        `json:"eval_white"` // pawns, White's POV, after the move
	Class      Classification `json:"classification"`
}

// GameReport is a fully classified game.
type GameReport struct {
	Moves      []MoveReport `json:"moves"`
	Blunders   int          `json:"blunders"`
	Mistakes   int          `json:"mistakes"`
	Inaccurate int          `json:"inaccuracies"`
}
