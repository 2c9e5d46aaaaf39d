package app

import (
	"strings"
	"testing"

	"example/chess-engine-api/app/models"
)

func TestDecodeHandshakeAcks(t *testing.T) {
	if ev := decodeLine("uciok"); ev.Kind != eventUCIOk {
		t.Fatalf("uciok decoded as %v", ev.Kind)
	}
	if ev := decodeLine("readyok"); ev.Kind != eventReadyOk {
		t.Fatalf("readyok decoded as %v", ev.Kind)
	}
}

func TestDecodeScoredLine(t *testing.T) {
	ev := decodeLine("info depth 18 seldepth 24 multipv 2 score cp -45 nodes 100932 nps 1021 pv e7e5 g1f3 b8c6")
	if ev.Kind != eventScoredLine {
		t.Fatalf("expected scored line, got %v", ev.Kind)
	}
	if ev.Rank != 2 || ev.CP == nil || *ev.CP != -45 || ev.Mate != nil {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.Move != "e7e5" {
		t.Fatalf("expected pv hint e7e5, got %q", ev.Move)
	}
}

func TestDecodeScoredLineDefaultsToRankOne(t *testing.T) {
	ev := decodeLine("info depth 10 score cp 23 pv e2e4 e7e5")
	if ev.Kind != eventScoredLine || ev.Rank != 1 {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestDecodeMateScore(t *testing.T) {
	ev := decodeLine("info depth 12 score mate -3 pv h7h8q")
	if ev.Kind != eventScoredLine || ev.Mate == nil || *ev.Mate != -3 || ev.CP != nil {
		t.Fatalf("unexpected event: %+v", ev)
	}
}

func TestDecodeInfoWithoutScoreIsIgnored(t *testing.T) {
	for _, line := range []string{
		"info depth 5 currmove e2e4 currmovenumber 1",
		"info string NNUE evaluation using nn-5af11540bbfe.nnue",
	} {
		if ev := decodeLine(line); ev.Kind != eventUnknown {
			t.Fatalf("%q decoded as %v", line, ev.Kind)
		}
	}
}

func TestDecodeBestMove(t *testing.T) {
	ev := decodeLine("bestmove e2e4 ponder e7e5")
	if ev.Kind != eventBestMove || ev.Move != "e2e4" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev := decodeLine("bestmove (none)"); ev.Kind != eventBestMove || ev.Move != "" {
		t.Fatalf("terminal position should decode as empty move: %+v", ev)
	}
}

func TestDecodeDiagnosticLines(t *testing.T) {
	for _, line := range []string{
		"Stockfish 16 by the Stockfish developers (see AUTHORS file)",
		"option name Hash type spin default 16 min 1 max 33554432",
		"",
	} {
		if ev := decodeLine(line); ev.Kind != eventUnknown {
			t.Fatalf("%q decoded as %v", line, ev.Kind)
		}
	}
}

func TestEncodeSearchVariants(t *testing.T) {
	joined := strings.Join(encodeSearch(12, 0, 0), "\n")
	if !strings.Contains(joined, "go depth 12") || !strings.Contains(joined, "MultiPV value 1") {
		t.Fatalf("depth search: %q", joined)
	}

	joined = strings.Join(encodeSearch(0, 500, 0), "\n")
	if !strings.Contains(joined, "go movetime 500") {
		t.Fatalf("movetime search: %q", joined)
	}

	joined = strings.Join(encodeSearch(4, 300, 3), "\n")
	if !strings.Contains(joined, "MultiPV value 3") || !strings.Contains(joined, "go depth 4 movetime 300") {
		t.Fatalf("combined search: %q", joined)
	}

	// never issue an unbounded search
	joined = strings.Join(encodeSearch(0, 0, 0), "\n")
	if !strings.Contains(joined, "go depth") {
		t.Fatalf("unbounded search not defended: %q", joined)
	}
}

func TestEncodeSetStrength(t *testing.T) {
	lines := encodeSetStrength(models.StrengthConfig{LimitStrength: true, Elo: 1800, SkillLevel: 20})
	joined := strings.Join(lines, "\n")
	if !strings.Contains(joined, "UCI_LimitStrength value true") || !strings.Contains(joined, "UCI_Elo value 1800") {
		t.Fatalf("native limiting: %q", joined)
	}

	lines = encodeSetStrength(models.StrengthConfig{SkillLevel: 20})
	joined = strings.Join(lines, "\n")
	if !strings.Contains(joined, "UCI_LimitStrength value false") {
		t.Fatalf("limiting must be reset explicitly: %q", joined)
	}
	if strings.Contains(joined, "UCI_Elo") {
		t.Fatalf("no elo target without limiting: %q", joined)
	}
}

func TestEncodeSetPosition(t *testing.T) {
	const fen = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	if got := encodeSetPosition(fen); got != "position fen "+fen {
		t.Fatalf("unexpected position command: %q", got)
	}
}
