// Maps a requested rating onto engine configuration. The engine can natively
// emulate ratings down to a floor; below that we run a shallow search and
// statistically substitute weak moves instead.

package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"example/chess-engine-api/app/models"
)

const (
	MinRating = 500
	MaxRating = 3200

	// NativeEloFloor is the lowest rating the engine's own strength
	// limiting can emulate.
	NativeEloFloor = 1350

	fullSkillLevel = 20

	weakenedDepth      = 4
	weakenedMoveTimeMS = 300

	// probability band for the statistical substitution, linear between
	// the bottom of the range and the native floor
	floorMoveProb  = 0.10
	bottomMoveProb = 0.70

	// captures read as "obvious" to a weak human, so they get extra weight
	// in the random draw
	captureWeight = 2.0
)

type StrengthModel struct {
	moveTime time.Duration // full-strength search budget
	log      zerolog.Logger

	// artificial response delay so weakened answers don't feel instant;
	// equal bounds of zero disable it (tests)
	delayMin time.Duration
	delayMax time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

func NewStrengthModel(moveTime time.Duration, logger zerolog.Logger) *StrengthModel {
	return &StrengthModel{
		moveTime: moveTime,
		log:      logger.With().Str("component", "strength").Logger(),
		delayMin: 400 * time.Millisecond,
		delayMax: 2 * time.Second,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ClampRating bounds a requested rating to the supported range.
func ClampRating(rating int) int {
	if rating < MinRating {
		return MinRating
	}
	if rating > MaxRating {
		return MaxRating
	}
	return rating
}

// ConfigForRating derives the per-request engine configuration. At or above
// the native floor the engine does the weakening itself; below it we keep the
// engine at full skill on a shallow budget and rely on move substitution.
func (m *StrengthModel) ConfigForRating(rating int) models.StrengthConfig {
	r := ClampRating(rating)
	if r >= NativeEloFloor {
		return models.StrengthConfig{
			Rating:        r,
			LimitStrength: true,
			Elo:           r,
			SkillLevel:    fullSkillLevel,
			MoveTimeMS:    int(m.moveTime.Milliseconds()),
		}
	}
	return models.StrengthConfig{
		Rating:         r,
		LimitStrength:  false,
		SkillLevel:     fullSkillLevel,
		Depth:          weakenedDepth,
		MoveTimeMS:     weakenedMoveTimeMS,
		RandomMoveProb: randomMoveProbability(r),
	}
}

func randomMoveProbability(rating int) float64 {
	if rating >= NativeEloFloor {
		return 0
	}
	frac := float64(NativeEloFloor-rating) / float64(NativeEloFloor-MinRating)
	return floorMoveProb + frac*(bottomMoveProb-floorMoveProb)
}

// SelectWeakenedMove picks a move for a below-floor rating. With probability
// cfg.RandomMoveProb it draws a weighted random legal move; otherwise it
// falls back to engineMove, the shallow engine query. Either branch is
// padded with a human-feeling delay before returning.
func (m *StrengthModel) SelectWeakenedMove(ctx context.Context, fen string, cfg models.StrengthConfig, engineMove func(context.Context) (string, error)) (string, error) {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	game := chess.NewGame(fenOpt)
	legal := game.ValidMoves()
	if len(legal) == 0 {
		return "", ErrNoLegalMoves
	}

	if len(legal) == 1 {
		move := chess.UCINotation{}.Encode(game.Position(), legal[0])
		return move, m.humanDelay(ctx)
	}

	if m.roll() < cfg.RandomMoveProb {
		move := m.weightedPick(game.Position(), legal)
		m.log.Debug().Int("rating", cfg.Rating).Str("move", move).Msg("substituted weakened move")
		return move, m.humanDelay(ctx)
	}

	move, err := engineMove(ctx)
	if err != nil {
		return "", err
	}
	return move, m.humanDelay(ctx)
}

// weightedPick draws among all legal moves, biased toward captures. The bias
// mimics a weak human's pull toward obvious material, not engine insight.
func (m *StrengthModel) weightedPick(pos *chess.Position, legal []*chess.Move) string {
	weights := make([]float64, len(legal))
	total := 0.0
	for i, mv := range legal {
		w := 1.0
		if mv.HasTag(chess.Capture) || mv.HasTag(chess.EnPassant) {
			w = captureWeight
		}
		weights[i] = w
		total += w
	}

	r := m.roll() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return chess.UCINotation{}.Encode(pos, legal[i])
		}
	}
	return chess.UCINotation{}.Encode(pos, legal[len(legal)-1])
}

func (m *StrengthModel) roll() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rng.Float64()
}

func (m *StrengthModel) humanDelay(ctx context.Context) error {
	if m.delayMax <= m.delayMin {
		return nil
	}
	span := m.delayMax - m.delayMin
	d := m.delayMin + time.Duration(m.roll()*float64(span))
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
