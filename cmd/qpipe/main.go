// Command qpipe runs the audio/video production pipeline over workspace
// entries: each subdirectory of the workspace is fed through the declared
// stage commands in order, stopping at the first failure.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"toeicq/pkg/config"
	"toeicq/pkg/logx"
	"toeicq/pkg/pipeline"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("qpipe", flag.ExitOnError)
	stage := fs.Int("stage", 0, "run only this stage (1-based)")
	maxStage := fs.Int("max-stage", 0, "run only the first N stages")
	workspaceDir := fs.String("workspace", "", "directory whose subdirectories are pipeline entries")
	pipelineFile := fs.String("pipeline", "", "pipeline definition file")
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, `Usage: qpipe [--stage=N|--max-stage=N] [--workspace=dir] [--pipeline=file.yaml] [name]

Runs the pipeline stages once per workspace subdirectory, passing the
directory name as the trailing argument. A positional name restricts the
run to that single entry.
`)
	}
	_ = fs.Parse(args)

	if fs.NArg() > 1 {
		fmt.Fprintf(os.Stderr, "Error: at most one entry name may be given\n")
		return 1
	}
	entry := fs.Arg(0)

	if err := config.LoadConfig("."); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	cfg, err := config.GetConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	logDir := filepath.Join(config.GetProjectDir(), "logs")
	if err := logx.InitializeLogFile(logDir, cfg.Logs.RotationCount, true); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize log file: %v\n", err)
		return 1
	}
	defer func() { _ = logx.CloseLogFile() }()

	file := *pipelineFile
	if file == "" {
		file = cfg.Pipeline.File
	}
	workDir := *workspaceDir
	if workDir == "" {
		workDir = cfg.Pipeline.WorkspaceDir
	}

	p, err := pipeline.Load(file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	stages, err := p.Select(pipeline.Selection{Stage: *stage, MaxStage: *maxStage})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	runner := pipeline.NewRunner(os.Stdout)
	if err := runner.RunWorkspace(ctx, stages, workDir, entry); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
