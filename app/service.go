// The public operations of the engine layer: best move at a target strength,
// fixed-depth evaluation, and ranked candidate moves. Everything goes through
// the command queue; concurrent callers block until their item completes.

package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"example/chess-engine-api/app/config"
	"example/chess-engine-api/app/models"
)

// EngineService owns the supervisor, queue and strength model. Construct it
// in the composition root, Start it once, Shutdown on exit.
type EngineService struct {
	engineCfg config.EngineConfig
	log       zerolog.Logger

	sup      *Supervisor
	queue    submitter
	strength *StrengthModel
}

// submitter is what the service needs from the command queue.
type submitter interface {
	Submit(ctx context.Context, lines []string, timeout time.Duration) (searchResult, error)
}

func NewEngineService(cfg *config.Config, logger zerolog.Logger) *EngineService {
	sup := NewSupervisor(cfg.Engine.Path, cfg.Engine.RestartBackoff, logger)
	queue := NewCommandQueue(sup, logger)
	sup.SetHooks(queue.EngineReady, queue.EngineTerminated)

	return &EngineService{
		engineCfg: cfg.Engine,
		log:       logger.With().Str("component", "service").Logger(),
		sup:       sup,
		queue:     queue,
		strength:  NewStrengthModel(cfg.Engine.MoveTime, logger),
	}
}

// Start spawns the engine process and blocks until the handshake completes.
func (s *EngineService) Start() error {
	return s.sup.Start()
}

func (s *EngineService) Shutdown() {
	if q, ok := s.queue.(*CommandQueue); ok {
		q.Close()
	}
	if s.sup != nil {
		_ = s.sup.Close()
	}
}

// BestMove returns the move to play for the given position at the requested
// rating, in UCI coordinate form. There is no legal fallback for a move, so
// every failure propagates.
func (s *EngineService) BestMove(ctx context.Context, fen string, rating int) (string, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return "", err
	}
	if len(game.ValidMoves()) == 0 {
		return "", ErrNoLegalMoves
	}

	cfg := s.strength.ConfigForRating(rating)
	if !cfg.LimitStrength {
		// below the engine's native floor: statistical weakening, which may
		// resolve without ever touching the queue
		return s.strength.SelectWeakenedMove(ctx, fen, cfg, func(ctx context.Context) (string, error) {
			return s.engineBestMove(ctx, fen, cfg)
		})
	}
	return s.engineBestMove(ctx, fen, cfg)
}

// Evaluate runs a fixed-depth search with no strength limiting and returns
// the raw score from the mover's perspective. Callers differencing across
// plies must normalize first (EvaluationResult.Mover().FromWhitePOV).
// Timeouts and engine unavailability degrade to a neutral result.
func (s *EngineService) Evaluate(ctx context.Context, fen string, depth int) (models.EvaluationResult, error) {
	game, err := gameFromFEN(fen)
	if err != nil {
		return models.EvaluationResult{}, err
	}
	stm := sideToMove(game)
	if depth <= 0 {
		depth = s.engineCfg.Depth
	}

	lines := encodeSetStrength(models.StrengthConfig{SkillLevel: fullSkillLevel})
	lines = append(lines, encodeSetPosition(fen))
	lines = append(lines, encodeSearch(depth, 0, 1)...)

	res, err := s.queue.Submit(ctx, lines, s.engineCfg.QueueTimeout)
	if err != nil {
		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrEngineUnavailable) {
			s.log.Warn().Err(err).Str("fen", fen).Msg("evaluation degraded to neutral")
			return neutralEvaluation(fen, stm), nil
		}
		return models.EvaluationResult{}, err
	}

	score, ok := primaryScore(res)
	if !ok {
		// terminal output without any scored line: desync, same contract
		// as a timeout
		s.log.Warn().Str("fen", fen).Msg("no scored line before bestmove")
		return neutralEvaluation(fen, stm), nil
	}
	score.Best = res.BestMove
	return models.EvaluationResult{FEN: fen, SideToMove: stm, Score: score}, nil
}

// TopMoves returns up to count ranked candidate moves for the position at the
// requested rating, rank 1 first. Timeouts and engine unavailability degrade
// to an empty list.
func (s *EngineService) TopMoves(ctx context.Context, fen string, rating, count int) ([]models.CandidateMove, error) {
	if _, err := gameFromFEN(fen); err != nil {
		return nil, err
	}
	if count < 1 {
		count = 1
	}

	cfg := s.strength.ConfigForRating(rating)
	lines := encodeSetStrength(cfg)
	lines = append(lines, encodeSetPosition(fen))
	lines = append(lines, encodeSearch(cfg.Depth, cfg.MoveTimeMS, count)...)

	res, err := s.queue.Submit(ctx, lines, s.engineCfg.QueueTimeout)
	if err != nil {
		if errors.Is(err, ErrTimeout) || errors.Is(err, ErrEngineUnavailable) {
			s.log.Warn().Err(err).Str("fen", fen).Msg("topmoves degraded to empty")
			return []models.CandidateMove{}, nil
		}
		return nil, err
	}

	if len(res.Lines) > count {
		res.Lines = res.Lines[:count]
	}
	return res.Lines, nil
}

func (s *EngineService) engineBestMove(ctx context.Context, fen string, cfg models.StrengthConfig) (string, error) {
	lines := encodeSetStrength(cfg)
	lines = append(lines, encodeSetPosition(fen))
	lines = append(lines, encodeSearch(cfg.Depth, cfg.MoveTimeMS, 1)...)

	res, err := s.queue.Submit(ctx, lines, s.engineCfg.QueueTimeout)
	if err != nil {
		return "", err
	}
	if res.BestMove == "" {
		return "", ErrNoLegalMoves
	}
	return res.BestMove, nil
}

func gameFromFEN(fen string) (*chess.Game, error) {
	fenOpt, err := chess.FEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}
	return chess.NewGame(fenOpt), nil
}

func sideToMove(game *chess.Game) string {
	if game.Position().Turn() == chess.Black {
		return "b"
	}
	return "w"
}

func neutralEvaluation(fen, stm string) models.EvaluationResult {
	zero := 0
	return models.EvaluationResult{
		FEN:        fen,
		SideToMove: stm,
		Score:      models.UCIScore{CP: &zero},
	}
}

func primaryScore(res searchResult) (models.UCIScore, bool) {
	for _, l := range res.Lines {
		if l.Rank == 1 {
			return models.UCIScore{CP: l.CP, Mate: l.Mate}, true
		}
	}
	return models.UCIScore{}, false
}
