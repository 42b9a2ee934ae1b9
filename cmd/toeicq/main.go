// Command toeicq manages the TOEIC listening question bank: generating
// questions with an LLM, verifying stored answers, dispensing questions for
// audio rendering, and reporting bank statistics.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/google/uuid"

	"toeicq/internal/llmimpl"
	"toeicq/pkg/bank"
	"toeicq/pkg/config"
	"toeicq/pkg/gen"
	"toeicq/pkg/logx"
	"toeicq/pkg/metrics"
	"toeicq/pkg/persistence"
	"toeicq/pkg/verify"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) < 1 {
		printUsage()
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch args[0] {
	case "gen":
		return runGen(ctx, args[1:])
	case "verify":
		return runVerify(ctx, args[1:])
	case "pick":
		return runPick(args[1:])
	case "img":
		return runImg(args[1:])
	case "stats":
		return runStats(ctx, args[1:])
	case "config":
		return runConfig(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 1
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `Usage: toeicq <command> [flags]

Commands:
  gen     --part=<1-4> --level=<1-5> --count=<n> [--db=path] [--model=name]
          Generate questions and insert them into the bank.
  verify  [--db=path] [--part=N] [--level=N] [--count=N] [--id=N] [--cross]
          Solve unverified questions with an LLM and record verdicts.
  pick    --part=N --level=N [--db=path] [--accent=json] [--sex=json]
          Dispense one unused verified question as JSON, marking it used.
  img     --id=N --file=name [--db=path]
          Record the rendered image filename for a question.
  stats   [--db=path] [--prom-url=url --batch=id]
          Print per part/level bank counts, optionally with batch cost totals.
  config  [--generator=m] [--verifier=m] [--cross-verifier=m] [--db-path=p]
          Update and print the persisted project configuration.
`)
}

// setup loads the project config, initializes logging, and opens the
// database singleton. The returned cleanup closes both.
func setup(dbPath, batchID string) (config.Config, func(), error) {
	if err := config.LoadConfig("."); err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return config.Config{}, nil, err
	}

	if err := config.EnsureSecretsLoaded(config.GetProjectDir()); err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to load secrets: %w", err)
	}

	logDir := filepath.Join(config.GetProjectDir(), "logs")
	if err := logx.InitializeLogFile(logDir, cfg.Logs.RotationCount, true); err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to initialize log file: %w", err)
	}

	if dbPath == "" {
		dbPath = cfg.Database.Path
	}
	if err := persistence.Initialize(dbPath, batchID); err != nil {
		_ = logx.CloseLogFile()
		return config.Config{}, nil, fmt.Errorf("failed to open database: %w", err)
	}

	cleanup := func() {
		_ = persistence.Close()
		_ = logx.CloseLogFile()
	}
	return cfg, cleanup, nil
}

// newRecorder always aggregates in memory for the end-of-run summary, and
// additionally exports to Prometheus when enabled.
func newRecorder(cfg config.Config) metrics.Recorder {
	if cfg.Metrics != nil && cfg.Metrics.Enabled {
		return metrics.MultiRecorder{metrics.NewInternalRecorder(), metrics.NewPrometheusRecorder()}
	}
	return metrics.NewInternalRecorder()
}

// logBatchUsage prints the aggregated token and cost totals for a batch.
func logBatchUsage(batchID string) {
	if bm := metrics.NewInternalRecorder().GetBatchMetrics(batchID); bm != nil {
		logx.Infof("batch %s usage: requests=%d errors=%d tokens=%d cost=$%.4f",
			batchID, bm.RequestCount, bm.ErrorCount, bm.TotalTokens, bm.TotalCost)
	}
}

// pushBatchMetrics ships the run's Prometheus counters to the configured
// Pushgateway. A failed push is logged, not fatal, so a metrics outage never
// loses generated questions.
func pushBatchMetrics(cfg config.Config, batchID string) {
	if cfg.Metrics == nil || !cfg.Metrics.Enabled || cfg.Metrics.PushgatewayURL == "" {
		return
	}
	if err := metrics.PushBatch(cfg.Metrics.PushgatewayURL, "toeicq", batchID); err != nil {
		logx.Errorf("metrics push failed: %v", err)
	}
}

func fail(err error) int {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return 1
}

func runGen(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("gen", flag.ExitOnError)
	part := fs.Int("part", 0, "TOEIC part (1-4)")
	level := fs.Int("level", 0, "difficulty level (1-5)")
	count := fs.Int("count", 0, "number of questions to generate")
	dbPath := fs.String("db", "", "SQLite database path")
	model := fs.String("model", "", "generator model (default from config)")
	_ = fs.Parse(args)

	if *part < config.MinPart || *part > config.MaxPart {
		return fail(fmt.Errorf("--part must be between %d and %d", config.MinPart, config.MaxPart))
	}
	if *level < config.MinLevel || *level > config.MaxLevel {
		return fail(fmt.Errorf("--level must be between %d and %d", config.MinLevel, config.MaxLevel))
	}
	if *count <= 0 {
		return fail(fmt.Errorf("--count must be positive"))
	}

	batchID := uuid.NewString()
	cfg, cleanup, err := setup(*dbPath, batchID)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	modelName := *model
	if modelName == "" {
		modelName = cfg.Models.Generator
	}

	factory := llmimpl.NewFactory(newRecorder(cfg), logx.NewLogger("llm"), batchID, *part)
	client, err := factory.NewClient(modelName)
	if err != nil {
		return fail(err)
	}

	generator := gen.NewGenerator(client, *part, *level)
	questions, err := generator.Generate(ctx, *count)
	if err != nil {
		return fail(err)
	}

	if err := persistence.Ops().InsertQuestions(*part, *level, questions); err != nil {
		return fail(err)
	}

	logx.Infof("inserted %d question(s) for part %d level %d, batch %s",
		len(questions), *part, *level, batchID)
	logBatchUsage(batchID)
	pushBatchMetrics(cfg, batchID)
	return 0
}

func runVerify(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	part := fs.Int("part", 0, "filter by TOEIC part")
	level := fs.Int("level", 0, "filter by difficulty level")
	count := fs.Int("count", 0, "limit number of questions")
	startID := fs.Int64("id", 0, "start from this question id (inclusive)")
	cross := fs.Bool("cross", false, "re-check passing questions with the cross-verifier model")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	batchID := uuid.NewString()
	cfg, cleanup, err := setup(*dbPath, batchID)
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	factory := llmimpl.NewFactory(newRecorder(cfg), logx.NewLogger("llm"), batchID, *part)
	client, err := factory.NewClient(cfg.Models.Verifier)
	if err != nil {
		return fail(err)
	}

	verifierCfg := verify.Config{
		PhotoRoot: filepath.Join(config.GetProjectDir(), cfg.Assets.PhotoRoot),
		Threshold: cfg.Verify.ConfidenceThreshold,
	}
	if *cross {
		crossClient, err := factory.NewClient(cfg.Models.CrossVerifier)
		if err != nil {
			return fail(err)
		}
		verifierCfg.CrossClient = crossClient
	}

	v := verify.NewVerifier(persistence.Ops(), client, verifierCfg)
	stats, err := v.Run(ctx, &persistence.QuestionFilter{
		Part:    *part,
		Level:   *level,
		StartID: *startID,
		Limit:   *count,
	})
	if err != nil {
		return fail(err)
	}
	logBatchUsage(batchID)
	pushBatchMetrics(cfg, batchID)
	if stats.Errors > 0 {
		return 1
	}
	return 0
}

func runPick(args []string) int {
	fs := flag.NewFlagSet("pick", flag.ExitOnError)
	part := fs.Int("part", 0, "TOEIC part (1-4)")
	level := fs.Int("level", 0, "difficulty level (1-5)")
	accent := fs.String("accent", "", `accent weights as JSON, e.g. '{"am":70,"au":30}'`)
	sex := fs.String("sex", "", `sex weights as JSON, e.g. '{"man":50,"woman":50}'`)
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	if *part < config.MinPart || *part > config.MaxPart {
		return fail(fmt.Errorf("--part must be between %d and %d", config.MinPart, config.MaxPart))
	}
	if *level < config.MinLevel || *level > config.MaxLevel {
		return fail(fmt.Errorf("--level must be between %d and %d", config.MinLevel, config.MaxLevel))
	}

	accents, err := bank.ParseWeights(*accent)
	if err != nil {
		return fail(err)
	}
	sexes, err := bank.ParseWeights(*sex)
	if err != nil {
		return fail(err)
	}

	_, cleanup, err := setup(*dbPath, uuid.NewString())
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	picker := bank.NewPicker(persistence.Ops(), accents, sexes)
	result, err := picker.Pick(*part, *level)
	if errors.Is(err, persistence.ErrNoUnusedQuestion) {
		return fail(fmt.Errorf("no unused question for part %d level %d", *part, *level))
	}
	if err != nil {
		return fail(err)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fail(err)
	}
	fmt.Println(string(out))
	return 0
}

// runImg records the filename of a rendered image against a question. The
// renderer writes the file under the part's photo directory; only the name
// is stored, the same way the original rows carry it.
func runImg(args []string) int {
	fs := flag.NewFlagSet("img", flag.ExitOnError)
	id := fs.Int64("id", 0, "question id")
	file := fs.String("file", "", "image filename under the part's photo directory")
	dbPath := fs.String("db", "", "SQLite database path")
	_ = fs.Parse(args)

	if *id <= 0 {
		return fail(fmt.Errorf("--id must be a positive question id"))
	}
	if *file == "" {
		return fail(fmt.Errorf("--file is required"))
	}

	_, cleanup, err := setup(*dbPath, uuid.NewString())
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	ops := persistence.Ops()
	q, err := ops.GetQuestionByID(*id)
	if err != nil {
		return fail(err)
	}
	if err := ops.UpdateImage(*id, *file); err != nil {
		return fail(err)
	}
	logx.Infof("recorded image %s for question %d (part %d)", *file, q.ID, q.Part)
	return 0
}

func runConfig(args []string) int {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	generator := fs.String("generator", "", "generator model")
	verifier := fs.String("verifier", "", "verifier model")
	crossVerifier := fs.String("cross-verifier", "", "cross-verifier model")
	dbPath := fs.String("db-path", "", "database path to persist")
	_ = fs.Parse(args)

	if err := config.LoadConfig("."); err != nil {
		return fail(fmt.Errorf("failed to load config: %w", err))
	}
	cfg, err := config.GetConfig()
	if err != nil {
		return fail(err)
	}

	if *generator != "" || *verifier != "" || *crossVerifier != "" {
		models := *cfg.Models
		if *generator != "" {
			models.Generator = *generator
		}
		if *verifier != "" {
			models.Verifier = *verifier
		}
		if *crossVerifier != "" {
			models.CrossVerifier = *crossVerifier
		}
		if err := config.UpdateModels(&models); err != nil {
			return fail(err)
		}
	}
	if *dbPath != "" {
		if err := config.UpdateDatabase(&config.DatabaseConfig{Path: *dbPath}); err != nil {
			return fail(err)
		}
	}

	cfg, err = config.GetConfig()
	if err != nil {
		return fail(err)
	}
	fmt.Printf("generator:      %s\n", cfg.Models.Generator)
	fmt.Printf("verifier:       %s\n", cfg.Models.Verifier)
	fmt.Printf("cross-verifier: %s\n", cfg.Models.CrossVerifier)
	fmt.Printf("database:       %s\n", cfg.Database.Path)
	return 0
}

func runStats(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	dbPath := fs.String("db", "", "SQLite database path")
	promURL := fs.String("prom-url", "", "Prometheus server URL for cost totals")
	batch := fs.String("batch", "", "batch id to aggregate costs for")
	_ = fs.Parse(args)

	cfg, cleanup, err := setup(*dbPath, uuid.NewString())
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	counts, err := persistence.Ops().CountByPartLevel()
	if err != nil {
		return fail(err)
	}

	fmt.Printf("%-6s %-6s %8s %10s %6s\n", "part", "level", "total", "verified", "used")
	for _, c := range counts {
		fmt.Printf("%-6d %-6d %8d %10d %6d\n", c.Part, c.Level, c.Total, c.Verified, c.Used)
	}

	promAddr := *promURL
	if promAddr == "" && cfg.Metrics != nil {
		promAddr = cfg.Metrics.PrometheusURL
	}
	if *batch != "" {
		if promAddr == "" {
			return fail(fmt.Errorf("--batch requires --prom-url or a configured Prometheus URL"))
		}
		svc, err := metrics.NewQueryService(promAddr)
		if err != nil {
			return fail(err)
		}
		bm, err := svc.GetBatchMetrics(ctx, *batch)
		if err != nil {
			return fail(err)
		}
		fmt.Printf("\nbatch %s: requests=%d prompt_tokens=%d completion_tokens=%d cost=$%.4f\n",
			*batch, bm.RequestCount, bm.PromptTokens, bm.CompletionTokens, bm.TotalCost)
	}
	return 0
}
