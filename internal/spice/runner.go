package spice

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	verrors "vlab/internal/errors"
	"vlab/internal/logging"
)

// Runner executes ngspice in batch mode with a bounded timeout.
type Runner struct {
	binary  string
	timeout time.Duration
}

// RunResult captures one ngspice invocation.
type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// NewRunner locates the ngspice binary among the candidate paths, falling
// back to a PATH lookup for bare names. The first hit wins.
func NewRunner(candidates []string, timeout time.Duration) (*Runner, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	for _, candidate := range candidates {
		if strings.ContainsRune(candidate, os.PathSeparator) {
			if _, err := os.Stat(candidate); err == nil {
				return &Runner{binary: candidate, timeout: timeout}, nil
			}
			continue
		}
		if resolved, err := exec.LookPath(candidate); err == nil {
			return &Runner{binary: resolved, timeout: timeout}, nil
		}
	}
	return nil, verrors.ErrNgspiceNotFound.GenWithStackByArgs(candidates)
}

// Binary returns the resolved executable path.
func (r *Runner) Binary() string {
	return r.binary
}

// Run writes the deck to a temp .cir file and executes `ngspice -b` on it.
// A non-zero exit is returned as ErrSimulationFailed carrying stderr.
func (r *Runner) Run(ctx context.Context, deck string) (*RunResult, error) {
	f, err := os.CreateTemp("", "vlab-*.cir")
	if err != nil {
		return nil, verrors.WrapError(verrors.ErrSimulationFailed, err, "temp netlist")
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := f.WriteString(deck); err != nil {
		f.Close()
		return nil, verrors.WrapError(verrors.ErrSimulationFailed, err, "write netlist")
	}
	if err := f.Close(); err != nil {
		return nil, verrors.WrapError(verrors.ErrSimulationFailed, err, "close netlist")
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, r.binary, "-b", path)
	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	result := &RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	logging.L().Debug("ngspice run finished",
		zap.String("binary", r.binary),
		zap.Duration("duration", result.Duration),
		zap.Error(runErr))

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return result, verrors.ErrSimulationFailed.GenWithStackByArgs(
				"ngspice timed out after "+r.timeout.String())
		}
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, verrors.ErrSimulationFailed.GenWithStackByArgs(
				"ngspice failed: "+strings.TrimSpace(result.Stderr))
		}
		return result, verrors.WrapError(verrors.ErrSimulationFailed, runErr, "ngspice")
	}
	return result, nil
}

// Version runs `ngspice -v` and returns the first line of its banner. Used
// by the health endpoint.
func (r *Runner) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, r.binary, "-v").CombinedOutput()
	if err != nil {
		return "", verrors.WrapError(verrors.ErrSimulationFailed, err, "ngspice -v")
	}
	banner := strings.TrimSpace(string(out))
	if i := strings.IndexByte(banner, '\n'); i >= 0 {
		banner = strings.TrimSpace(banner[:i])
	}
	return banner, nil
}
