// Pure translation between structured requests/responses and the engine's
// line-oriented UCI text protocol. No state is kept between calls; the codec
// knows nothing about the queue or the process.

package app

import (
	"fmt"
	"strconv"
	"strings"

	"example/chess-engine-api/app/models"
)

type eventKind int

const (
	eventUnknown eventKind = iota
	eventUCIOk
	eventReadyOk
	eventScoredLine
	eventBestMove
)

// engineEvent is one decoded line of engine output.
type engineEvent struct {
	Kind eventKind
	Rank int    // multipv rank for scored lines, 1-based
	CP   *int   // centipawns, mover's perspective
	Mate *int   // signed mate-in-N
	Move string // first pv move for scored lines, chosen move for bestmove
}

func encodeHandshake() string  { return "uci" }
func encodeReadyProbe() string { return "isready" }
func encodeNewGame() string    { return "ucinewgame" }

func encodeSetPosition(fen string) string {
	return fmt.Sprintf("position fen %s", fen)
}

// encodeSetStrength emits the engine-native strength options. When the config
// does not limit strength the options are explicitly reset, so a weakened
// request never inherits the previous caller's settings.
func encodeSetStrength(cfg models.StrengthConfig) []string {
	lines := []string{
		fmt.Sprintf("setoption name UCI_LimitStrength value %t", cfg.LimitStrength),
		fmt.Sprintf("setoption name Skill Level value %d", cfg.SkillLevel),
	}
	if cfg.LimitStrength {
		lines = append(lines, fmt.Sprintf("setoption name UCI_Elo value %d", cfg.Elo))
	}
	return lines
}

// encodeSearch builds the go command plus a MultiPV option line. MultiPV is
// always set explicitly so a single-line search never inherits a previous
// caller's multi-line mode. depth <= 0 means movetime only, moveTimeMS <= 0
// means depth only; both set means whichever bound hits first.
func encodeSearch(depth, moveTimeMS, multiPV int) []string {
	if multiPV < 1 {
		multiPV = 1
	}
	lines := []string{fmt.Sprintf("setoption name MultiPV value %d", multiPV)}
	var sb strings.Builder
	sb.WriteString("go")
	if depth > 0 {
		fmt.Fprintf(&sb, " depth %d", depth)
	}
	if moveTimeMS > 0 {
		fmt.Fprintf(&sb, " movetime %d", moveTimeMS)
	}
	if depth <= 0 && moveTimeMS <= 0 {
		// never issue an unbounded search
		sb.WriteString(" depth 12")
	}
	return append(lines, sb.String())
}

// decodeLine classifies one line of engine output. Diagnostic chatter
// (id/option banners, info strings without scores) decodes as eventUnknown
// and is skipped by consumers. A scored line is only emitted when the line
// carries a score; the engine streams improving estimates during search, so
// consumers keep the last score seen per rank.
func decodeLine(line string) engineEvent {
	line = strings.TrimSpace(line)
	switch {
	case line == "uciok":
		return engineEvent{Kind: eventUCIOk}
	case line == "readyok":
		return engineEvent{Kind: eventReadyOk}
	case strings.HasPrefix(line, "bestmove"):
		return decodeBestMove(line)
	case strings.HasPrefix(line, "info"):
		return decodeInfo(line)
	}
	return engineEvent{Kind: eventUnknown}
}

func decodeBestMove(line string) engineEvent {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return engineEvent{Kind: eventUnknown}
	}
	move := fields[1]
	if move == "(none)" {
		// terminal position, no move to play
		move = ""
	}
	return engineEvent{Kind: eventBestMove, Move: move}
}

func decodeInfo(line string) engineEvent {
	fields := strings.Fields(line)
	ev := engineEvent{Kind: eventScoredLine, Rank: 1}
	scored := false
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "multipv":
			if i+1 < len(fields) {
				if rank, err := strconv.Atoi(fields[i+1]); err == nil && rank > 0 {
					ev.Rank = rank
				}
				i++
			}
		case "score":
			if i+2 < len(fields) {
				if v, err := strconv.Atoi(fields[i+2]); err == nil {
					switch fields[i+1] {
					case "cp":
						ev.CP = &v
						scored = true
					case "mate":
						ev.Mate = &v
						scored = true
					}
				}
				i += 2
			}
		case "pv":
			if i+1 < len(fields) {
				ev.Move = fields[i+1]
			}
			i = len(fields)
		}
	}
	if !scored {
		return engineEvent{Kind: eventUnknown}
	}
	return ev
}
