// Post-game move classification: evaluate every position of a finished game,
// normalize the scores to White's point of view, and label each ply by the
// eval swing it caused from the mover's perspective.

package app

import (
	"context"
	"fmt"

	"github.com/notnil/chess"

	"example/chess-engine-api/app/models"
)

// Thresholds on the mover-perspective eval delta, in pawns. Boundaries are
// exclusive: a delta of exactly -3.0 is a mistake, not a blunder.
const (
	blunderThreshold    = -3.0
	mistakeThreshold    = -1.5
	inaccuracyThreshold = -0.5
	brilliantThreshold  = 0.5
)

// evaluator is the slice of EngineService the analysis pipeline needs.
type evaluator interface {
	Evaluate(ctx context.Context, fen string, depth int) (models.EvaluationResult, error)
}

// ClassifyDelta labels a single move given the eval change it caused, from
// the mover's perspective, in pawns.
func ClassifyDelta(delta float64) models.Classification {
	switch {
	case delta < blunderThreshold:
		return models.ClassBlunder
	case delta < mistakeThreshold:
		return models.ClassMistake
	case delta < inaccuracyThreshold:
		return models.ClassInaccuracy
	case delta > brilliantThreshold:
		return models.ClassBrilliant
	default:
		return models.ClassGood
	}
}

// moverDelta converts a White-POV eval change into the mover's perspective.
// A good move for Black shows as a decrease in White-POV score.
func moverDelta(prev, cur float64, color string) float64 {
	d := cur - prev
	if color == "b" {
		d = -d
	}
	return d
}

// ClassifyEvals labels every ply of a game. evalsAfter[i] is the White-POV
// eval, in pawns, of the position immediately after ply i+1 (mate scores
// already saturated by WhiteScore.Pawns). The first move has no prior
// reference and is always "good".
func ClassifyEvals(evalsAfter []float64) []models.Classification {
	out := make([]models.Classification, len(evalsAfter))
	for i := range evalsAfter {
		if i == 0 {
			out[i] = models.ClassGood
			continue
		}
		color := "w"
		if i%2 == 1 {
			color = "b"
		}
		out[i] = ClassifyDelta(moverDelta(evalsAfter[i-1], evalsAfter[i], color))
	}
	return out
}

// AnalyzeGame parses a PGN, evaluates the position after every ply at the
// given depth, and returns the classified move list.
func AnalyzeGame(ctx context.Context, eng evaluator, pgn string, depth int) (models.GameReport, error) {
	g := chess.NewGame()
	if err := g.UnmarshalText([]byte(pgn)); err != nil {
		return models.GameReport{}, fmt.Errorf("parse pgn: %w", err)
	}

	positions := g.Positions() // positions[i] is before move i, so len == moves+1
	moves := g.Moves()
	if len(moves) == 0 {
		return models.GameReport{}, fmt.Errorf("pgn has no moves")
	}

	evals := make([]float64, len(moves))
	fensAfter := make([]string, len(moves))
	for i := range moves {
		fen := positions[i+1].String()
		fensAfter[i] = fen

		res, err := eng.Evaluate(ctx, fen, depth)
		if err != nil {
			return models.GameReport{}, fmt.Errorf("evaluate ply %d: %w", i+1, err)
		}
		evals[i] = res.Mover().FromWhitePOV(res.SideToMove).Pawns()
	}

	classes := ClassifyEvals(evals)

	report := models.GameReport{Moves: make([]models.MoveReport, 0, len(moves))}
	for i, m := range moves {
		color := "w"
		if i%2 == 1 {
			color = "b"
		}
		report.Moves = append(report.Moves, models.MoveReport{
			MoveUCI:    chess.UCINotation{}.Encode(positions[i], m),
			MoveSAN:    chess.AlgebraicNotation{}.Encode(positions[i], m),
			MoveNumber: (i / 2) + 1,
			Ply:        i + 1,
			Color:      color,
			FENAfter:   fensAfter[i],
			EvalWhite:  evals[i],
			Class:      classes[i],
		})
		switch classes[i] {
		case models.ClassBlunder:
			report.Blunders++
		case models.ClassMistake:
			report.Mistakes++
		case models.ClassInaccuracy:
			report.Inaccurate++
		}
	}
	return report, nil
}
