package app

import "errors"

// Failure taxonomy for the engine layer. Callers match with errors.Is; the
// HTTP layer maps these onto status codes.
var (
	// ErrEngineUnavailable means the subprocess is not ready or has crashed
	// and not yet restarted. Retryable.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrTimeout means no terminal engine output arrived within the item's
	// budget. The process is left running; a slow search is not a crash.
	ErrTimeout = errors.New("engine search timed out")

	// ErrNoLegalMoves means the position is terminal (mate or stalemate).
	// Should be filtered upstream but is defended against here.
	ErrNoLegalMoves = errors.New("no legal moves in position")

	// ErrProtocol means engine output did not match any expected shape for
	// the outstanding request.
	ErrProtocol = errors.New("unexpected engine output")

	// ErrInvalidPosition means the caller's FEN did not parse.
	ErrInvalidPosition = errors.New("invalid position")
)
