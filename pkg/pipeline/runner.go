package pipeline

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"sync"

	"toeicq/pkg/logx"
)

// Runner executes pipeline stages as local subprocesses. Stage output is
// streamed line by line to the writer, stdout lines prefixed "STDOUT:" and
// stderr lines "STDERR:".
type Runner struct {
	out    io.Writer
	outMu  sync.Mutex
	logger *logx.Logger

	// WorkDir, when set, is the working directory for every stage.
	WorkDir string
}

// NewRunner creates a runner writing stage output to out.
func NewRunner(out io.Writer) *Runner {
	if out == nil {
		out = os.Stdout
	}
	return &Runner{out: out, logger: logx.NewLogger("pipeline")}
}

// Run executes the stages in order, appending parameter (when non-empty) to
// each command. The first stage that exits non-zero or fails to start stops
// the run.
func (r *Runner) Run(ctx context.Context, stages []Stage, parameter string) error {
	for i, stage := range stages {
		argv := append([]string(nil), stage.Command...)
		if parameter != "" {
			argv = append(argv, parameter)
		}

		r.logger.Info("stage %d/%d (%s): running %v", i+1, len(stages), stage.Name, argv)

		if err := r.runStage(ctx, argv); err != nil {
			return fmt.Errorf("stage %d (%s): %w", i+1, stage.Name, err)
		}
	}
	return nil
}

// RunWorkspace runs the stage list once per subdirectory of workDir,
// passing the directory name as the trailing argument. A non-empty entry
// restricts the run to that single directory.
func (r *Runner) RunWorkspace(ctx context.Context, stages []Stage, workDir, entry string) error {
	entries, err := workspaceEntries(workDir, entry)
	if err != nil {
		return err
	}

	for _, name := range entries {
		r.logger.Info("processing workspace entry %s", name)
		if err := r.Run(ctx, stages, name); err != nil {
			return fmt.Errorf("entry %s: %w", name, err)
		}
	}
	return nil
}

// workspaceEntries lists the subdirectories of workDir, sorted by name.
func workspaceEntries(workDir, entry string) ([]string, error) {
	if entry != "" {
		info, err := os.Stat(filepath.Join(workDir, entry))
		if err != nil {
			return nil, fmt.Errorf("workspace entry %s: %w", entry, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("workspace entry %s is not a directory", entry)
		}
		return []string{entry}, nil
	}

	dirEntries, err := os.ReadDir(workDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace directory: %w", err)
	}

	var names []string
	for _, e := range dirEntries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("workspace directory %s has no entries", workDir)
	}
	sort.Strings(names)
	return names, nil
}

// runStage starts one subprocess and streams its output until exit.
func (r *Runner) runStage(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if r.WorkDir != "" {
		cmd.Dir = r.WorkDir
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start command: %w", err)
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go r.streamLines(&wg, stdout, "STDOUT")
	go r.streamLines(&wg, stderr, "STDERR")
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("command failed: %w", err)
	}
	return nil
}

func (r *Runner) streamLines(wg *sync.WaitGroup, pipe io.Reader, prefix string) {
	defer wg.Done()
	scanner := bufio.NewScanner(pipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		r.outMu.Lock()
		fmt.Fprintf(r.out, "%s: %s\n", prefix, scanner.Text())
		r.outMu.Unlock()
	}
}
