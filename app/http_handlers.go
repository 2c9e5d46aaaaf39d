package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"example/chess-engine-api/app/models"
)

// engineService is the surface the HTTP layer consumes. *EngineService
// satisfies it; handler tests stub it.
type engineService interface {
	BestMove(ctx context.Context, fen string, rating int) (string, error)
	Evaluate(ctx context.Context, fen string, depth int) (models.EvaluationResult, error)
	TopMoves(ctx context.Context, fen string, rating, count int) ([]models.CandidateMove, error)
}

// Handlers wires the engine service into gin routes.
type Handlers struct {
	Engine       engineService
	DefaultDepth int
}

func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type moveRequest struct {
	FEN    string `json:"fen" binding:"required"`
	Rating int    `json:"rating"`
}

// PostMove returns the move to play at the requested rating.
func (h *Handlers) PostMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	move, err := h.Engine.BestMove(c.Request.Context(), req.FEN, req.Rating)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"move": move, "rating": req.Rating})
}

type evalRequest struct {
	FEN   string `json:"fen" binding:"required"`
	Depth int    `json:"depth"`
}

// PostEvaluate returns a mover-perspective evaluation of one position.
func (h *Handlers) PostEvaluate(c *gin.Context) {
	var req evalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.Engine.Evaluate(c.Request.Context(), req.FEN, req.Depth)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

type topMovesRequest struct {
	FEN    string `json:"fen" binding:"required"`
	Rating int    `json:"rating"`
	Count  int    `json:"count"`
}

// PostTopMoves returns up to count ranked candidate moves.
func (h *Handlers) PostTopMoves(c *gin.Context) {
	var req topMovesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Count <= 0 {
		req.Count = 3
	}

	moves, err := h.Engine.TopMoves(c.Request.Context(), req.FEN, req.Rating, req.Count)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(moves), "moves": moves})
}

type analyzeRequest struct {
	PGN   string `json:"pgn" binding:"required"`
	Depth int    `json:"depth"`
}

// PostAnalyze classifies every move of a finished game.
func (h *Handlers) PostAnalyze(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	depth := req.Depth
	if depth <= 0 {
		depth = h.DefaultDepth
	}

	report, err := AnalyzeGame(c.Request.Context(), h.Engine, req.PGN, depth)
	if err != nil {
		c.JSON(statusFor(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// statusFor maps the engine layer's failure taxonomy onto HTTP statuses the
// frontend can translate into retryable errors.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrEngineUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, ErrInvalidPosition), errors.Is(err, ErrNoLegalMoves):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
