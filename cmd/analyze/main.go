// Command analyze classifies every move of a PGN file using a local engine.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"example/chess-engine-api/app"
	"example/chess-engine-api/app/config"
)

func main() {
	pgnFile := flag.String("pgn", "", "PGN file to analyze")
	depth := flag.Int("depth", 0, "search depth per position (0 = configured default)")
	flag.Parse()

	if *pgnFile == "" {
		fmt.Fprintln(os.Stderr, "usage: analyze -pgn game.pgn [-depth N]")
		os.Exit(2)
	}

	pgn, err := os.ReadFile(*pgnFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read pgn: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.WarnLevel)

	svc := app.NewEngineService(cfg, logger)
	if err := svc.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "start engine: %v\n", err)
		os.Exit(1)
	}
	defer svc.Shutdown()

	start := time.Now()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	report, err := app.AnalyzeGame(ctx, svc, string(pgn), *depth)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}

	for _, m := range report.Moves {
		marker := ""
		if m.Class != "good" {
			marker = fmt.Sprintf("  [%s]", m.Class)
		}
		fmt.Printf("%3d. %-6s (%s) eval %+0.2f%s\n", m.MoveNumber, m.MoveSAN, m.Color, m.EvalWhite, marker)
	}
	fmt.Printf("\n%d blunders, %d mistakes, %d inaccuracies in %d moves (%s)\n",
		report.Blunders, report.Mistakes, report.Inaccurate, len(report.Moves), time.Since(start).Round(time.Millisecond))
}
