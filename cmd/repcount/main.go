// repcount serves real-time repetition counting over HTTP and WebSocket.
//
//	repcount [-config repcount.yaml] [-pattern squat.yaml] [-detector state|template|threshold] [-debug]
//	repcount learn -exercise squat -o squat.yaml examples.json
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-repcount/internal/config"
	"github.com/teslashibe/go-repcount/internal/log"
	"github.com/teslashibe/go-repcount/pkg/detector"
	"github.com/teslashibe/go-repcount/pkg/engine"
	"github.com/teslashibe/go-repcount/pkg/performance"
	"github.com/teslashibe/go-repcount/pkg/pose"
	"github.com/teslashibe/go-repcount/pkg/sequence"
	"github.com/teslashibe/go-repcount/pkg/session"
	"github.com/teslashibe/go-repcount/pkg/web"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "learn" {
		if err := learn(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "learn: %v\n", err)
			os.Exit(1)
		}
		return
	}

	configPath := flag.String("config", "", "YAML config file")
	pattern := flag.String("pattern", "", "Learned pattern file (overrides REPCOUNT_PATTERN)")
	mode := flag.String("detector", "", "Detector: state, template or threshold (default: template when a pattern is set)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *pattern != "" {
		cfg.Pattern = *pattern
	}
	if *mode != "" {
		cfg.Mode = *mode
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
	}
	if *debug {
		cfg.LogLevel = "debug"
	}

	log.Init(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, cfg); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger := log.L()

	store, err := session.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	det, err := newDetector(cfg)
	if err != nil {
		return err
	}

	engCfg := cfg.Engine()
	engCfg.Logger = logger.With("component", "engine")
	eng := engine.New(engCfg, det, session.NewManager(store, logger.With("component", "session")))

	logger.Info("repcount starting",
		"addr", cfg.Addr(),
		"db", cfg.DBPath,
		"detector", cfg.DetectorMode(),
		"pattern", cfg.Pattern,
		"target_fps", cfg.TargetFPS,
		"memory_budget_mb", cfg.MemoryBudgetMB,
	)

	srv := web.NewServer(cfg.Addr(), eng, logger.With("component", "web"))
	srv.DefaultExercise = cfg.Exercise
	return srv.Run(ctx)
}

// newDetector builds the detector for the configured mode.
func newDetector(cfg config.Config) (engine.RepetitionDetector, error) {
	logger := log.With("component", "detector")

	switch cfg.DetectorMode() {
	case config.ModeTemplate:
		p, err := sequence.LoadPattern(cfg.Pattern)
		if err != nil {
			return nil, err
		}
		log.Info("template detection", "exercise", p.Exercise, "expected_duration", p.ExpectedDuration)
		return detector.NewTemplateDetector(p, performance.QualityHigh, logger)
	case config.ModeThreshold:
		log.Info("threshold detection", "low", cfg.ThresholdLow, "high", cfg.ThresholdHigh)
		return detector.NewThresholdDetector(cfg.ThresholdLow, cfg.ThresholdHigh), nil
	}

	if cfg.Detector != nil {
		return detector.New(*cfg.Detector, detector.WithLogger(logger))
	}
	return detector.NewForQuality(performance.QualityHigh, detector.WithLogger(logger)), nil
}

// learn builds a pattern from recorded examples. The input is a JSON
// array of sample sequences, one per repetition.
func learn(args []string) error {
	fs := flag.NewFlagSet("learn", flag.ExitOnError)
	exercise := fs.String("exercise", config.DefaultExercise, "Exercise name")
	out := fs.String("o", "pattern.yaml", "Output pattern file")
	fs.Parse(args)

	if fs.NArg() != 1 {
		return errors.New("usage: repcount learn [-exercise name] [-o file] examples.json")
	}

	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	var examples [][]pose.Sample
	if err := json.Unmarshal(data, &examples); err != nil {
		return fmt.Errorf("failed to parse examples: %w", err)
	}

	l := sequence.NewTemporalPatternLearner(*exercise, log.L())
	l.StartLearningSession()
	for i, ex := range examples {
		if err := l.RecordExampleSamples(ex); err != nil {
			return fmt.Errorf("example %d: %w", i, err)
		}
	}

	p, err := l.GenerateTemporalPattern()
	if err != nil {
		return err
	}
	if err := sequence.SavePattern(*out, p); err != nil {
		return err
	}
	log.Info("pattern saved", "path", *out, "examples", p.Examples, "expected_duration", p.ExpectedDuration)
	return nil
}
