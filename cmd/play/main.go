package main

import (
	"flag"
	"os"
	"time"

	"github.com/jaminalder/tic-tac-toe-ai/internal/config"
	"github.com/jaminalder/tic-tac-toe-ai/internal/console"
	"github.com/jaminalder/tic-tac-toe-ai/internal/engine"
	"github.com/jaminalder/tic-tac-toe-ai/internal/logging"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "", "Path to a YAML config file")
	difficulty := flag.Float64("difficulty", -1, "AI difficulty 0-1 (overrides config)")
	openingBias := flag.Float64("opening", -1, "Probability of the opening corner move (overrides config)")
	seed := flag.Uint64("seed", 0, "Random seed (0 = time based)")
	selfplay := flag.Int("selfplay", 0, "Play N engine-vs-engine games and print the tally")
	verbose := flag.Bool("v", false, "Log engine decisions")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	logger, err := logging.Setup(level, "console", os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to set up logging")
	}
	if *difficulty >= 0 {
		cfg.Difficulty = *difficulty
	}
	if *openingBias >= 0 {
		cfg.OpeningBias = *openingBias
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	s := engine.New(
		engine.WithDifficulty(cfg.Difficulty),
		engine.WithOpeningBias(cfg.OpeningBias),
		engine.WithSeed(*seed),
		engine.WithLogger(logger),
	)

	if *selfplay > 0 {
		logger.Info().Int("games", *selfplay).Uint64("seed", *seed).Msg("starting self-play")
		console.Report(os.Stdout, engine.SelfPlayN(s, *selfplay))
		return
	}
	console.PlayGame(os.Stdin, os.Stdout, s)
}
