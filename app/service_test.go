package app

import (
	"context"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example/chess-engine-api/app/config"
	"example/chess-engine-api/app/models"
)

// fakeSubmitter scripts the command queue.
type fakeSubmitter struct {
	lastLines []string
	res       searchResult
	err       error
}

func (f *fakeSubmitter) Submit(_ context.Context, lines []string, _ time.Duration) (searchResult, error) {
	f.lastLines = lines
	return f.res, f.err
}

func (f *fakeSubmitter) sent() string {
	return strings.Join(f.lastLines, "\n")
}

func newTestService(queue submitter) *EngineService {
	return &EngineService{
		engineCfg: config.EngineConfig{
			Depth:        12,
			MoveTime:     time.Second,
			QueueTimeout: time.Second,
		},
		log:   zerolog.Nop(),
		queue: queue,
		strength: &StrengthModel{
			moveTime: time.Second,
			log:      zerolog.Nop(),
			rng:      rand.New(rand.NewSource(1)),
		},
	}
}

func cpLine(rank, cp int, move string) models.CandidateMove {
	return models.CandidateMove{Rank: rank, CP: &cp, Move: move}
}

func TestEvaluateReturnsMoverScore(t *testing.T) {
	queue := &fakeSubmitter{res: searchResult{
		BestMove: "e2e4",
		Lines:    []models.CandidateMove{cpLine(1, 23, "e2e4")},
	}}
	svc := newTestService(queue)

	res, err := svc.Evaluate(context.Background(), startFEN, 0)
	require.NoError(t, err)
	require.Equal(t, "w", res.SideToMove)
	require.Equal(t, 23, *res.Score.CP)
	require.Equal(t, "e2e4", res.Score.Best)

	// default depth, single line, strength limiting explicitly off
	require.Contains(t, queue.sent(), "go depth 12")
	require.Contains(t, queue.sent(), "MultiPV value 1")
	require.Contains(t, queue.sent(), "UCI_LimitStrength value false")
	require.Contains(t, queue.sent(), "position fen "+startFEN)
}

func TestEvaluateBlackToMovePerspective(t *testing.T) {
	afterE4 := "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	queue := &fakeSubmitter{res: searchResult{
		BestMove: "e7e5",
		Lines:    []models.CandidateMove{cpLine(1, -25, "e7e5")},
	}}
	svc := newTestService(queue)

	res, err := svc.Evaluate(context.Background(), afterE4, 10)
	require.NoError(t, err)
	require.Equal(t, "b", res.SideToMove)
	// raw score stays mover-perspective; normalization flips it for White
	require.Equal(t, -25, *res.Score.CP)
	require.InDelta(t, 0.25, res.Mover().FromWhitePOV(res.SideToMove).Pawns(), 1e-9)
}

func TestEvaluateDegradesOnTimeout(t *testing.T) {
	queue := &fakeSubmitter{err: ErrTimeout}
	svc := newTestService(queue)

	res, err := svc.Evaluate(context.Background(), startFEN, 10)
	require.NoError(t, err)
	require.Equal(t, 0, *res.Score.CP)
	require.Empty(t, res.Score.Best)
}

func TestEvaluateDegradesOnDesync(t *testing.T) {
	// terminal output arrived but carried no scored line
	queue := &fakeSubmitter{res: searchResult{BestMove: "e2e4"}}
	svc := newTestService(queue)

	res, err := svc.Evaluate(context.Background(), startFEN, 10)
	require.NoError(t, err)
	require.Equal(t, 0, *res.Score.CP)
}

func TestEvaluateRejectsBadFEN(t *testing.T) {
	svc := newTestService(&fakeSubmitter{})
	_, err := svc.Evaluate(context.Background(), "definitely not a fen", 10)
	require.ErrorIs(t, err, ErrInvalidPosition)
}

func TestBestMoveAboveFloorUsesNativeLimiting(t *testing.T) {
	queue := &fakeSubmitter{res: searchResult{BestMove: "g1f3"}}
	svc := newTestService(queue)

	move, err := svc.BestMove(context.Background(), startFEN, 2000)
	require.NoError(t, err)
	require.Equal(t, "g1f3", move)
	require.Contains(t, queue.sent(), "UCI_LimitStrength value true")
	require.Contains(t, queue.sent(), "UCI_Elo value 2000")
	require.Contains(t, queue.sent(), "go movetime 1000")
}

func TestBestMovePropagatesEngineFailure(t *testing.T) {
	queue := &fakeSubmitter{err: ErrEngineUnavailable}
	svc := newTestService(queue)

	_, err := svc.BestMove(context.Background(), startFEN, 2000)
	require.ErrorIs(t, err, ErrEngineUnavailable)
}

func TestBestMoveOnTerminalPosition(t *testing.T) {
	svc := newTestService(&fakeSubmitter{})
	_, err := svc.BestMove(context.Background(), stalemateFEN, 2000)
	require.ErrorIs(t, err, ErrNoLegalMoves)
}

func TestBestMoveWeakenedAlwaysLegalOrEngine(t *testing.T) {
	queue := &fakeSubmitter{res: searchResult{BestMove: "e2e4"}}
	svc := newTestService(queue)

	// below the floor either branch must produce a move; the substitution
	// branch never touches the queue
	for i := 0; i < 50; i++ {
		move, err := svc.BestMove(context.Background(), startFEN, 500)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(move), 4)
	}
}

func TestTopMovesRankedAndTrimmed(t *testing.T) {
	queue := &fakeSubmitter{res: searchResult{
		BestMove: "e2e4",
		Lines: []models.CandidateMove{
			cpLine(1, 30, "e2e4"),
			cpLine(2, 22, "d2d4"),
			cpLine(3, 10, "g1f3"),
		},
	}}
	svc := newTestService(queue)

	moves, err := svc.TopMoves(context.Background(), startFEN, 2000, 2)
	require.NoError(t, err)
	require.Len(t, moves, 2)
	require.Equal(t, 1, moves[0].Rank)
	require.Equal(t, "e2e4", moves[0].Move)
	require.Equal(t, 2, moves[1].Rank)
	require.Contains(t, queue.sent(), "MultiPV value 2")
}

func TestTopMovesDegradesToEmpty(t *testing.T) {
	queue := &fakeSubmitter{err: ErrEngineUnavailable}
	svc := newTestService(queue)

	moves, err := svc.TopMoves(context.Background(), startFEN, 2000, 3)
	require.NoError(t, err)
	require.Empty(t, moves)
}
