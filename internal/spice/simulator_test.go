package spice

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	verrors "vlab/internal/errors"
)

// fakeNgspice writes a shell script that mimics the ngspice CLI surface the
// runner touches: `-v` for the banner, `-b <file>` for a batch run.
func fakeNgspice(t *testing.T, stdout string, exitCode int) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell-script fake not available on windows")
	}

	script := "#!/bin/sh\n" +
		"if [ \"$1\" = \"-v\" ]; then echo 'ngspice-38 : Circuit level simulation program'; exit 0; fi\n" +
		"cat <<'NGEOF'\n" + stdout + "\nNGEOF\n"
	if exitCode != 0 {
		script += "echo 'simulation aborted' >&2\n"
	}
	script += "exit " + strconv.Itoa(exitCode) + "\n"

	path := filepath.Join(t.TempDir(), "ngspice")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestNewRunnerNotFound(t *testing.T) {
	_, err := NewRunner([]string{filepath.Join(t.TempDir(), "missing/ngspice")}, time.Second)
	require.Error(t, err)
	require.True(t, verrors.Is(err, verrors.ErrNgspiceNotFound))
}

func TestRunnerVersion(t *testing.T) {
	bin := fakeNgspice(t, "", 0)
	runner, err := NewRunner([]string{bin}, time.Second)
	require.NoError(t, err)

	banner, err := runner.Version(context.Background())
	require.NoError(t, err)
	require.Contains(t, banner, "ngspice-38")
}

func TestServiceSimulateOP(t *testing.T) {
	bin := fakeNgspice(t, opOutput, 0)
	runner, err := NewRunner([]string{bin}, 5*time.Second)
	require.NoError(t, err)

	svc := NewService(runner, false)
	result, err := svc.Simulate(context.Background(), &Request{
		CircuitName: "Voltage Divider",
		Netlist:     dividerNetlist,
		Analysis:    AnalysisOP,
		Requested: []ResultRequest{
			{Type: "node_voltage", Name: "out"},
			{Type: "branch_current", Name: "V1"},
		},
	})
	require.NoError(t, err)
	require.True(t, result.Success)
	require.Len(t, result.NodeVoltages, 1)
	require.InEpsilon(t, 3.333333, *result.NodeVoltages[0].Voltage.Scalar, 1e-9)
	require.Len(t, result.BranchCurrents, 1)
}

func TestServiceSimulateTransient(t *testing.T) {
	bin := fakeNgspice(t, tranOutput, 0)
	runner, err := NewRunner([]string{bin}, 5*time.Second)
	require.NoError(t, err)

	svc := NewService(runner, false)
	result, err := svc.Simulate(context.Background(), &Request{
		Netlist:    dividerNetlist,
		Analysis:   AnalysisTransient,
		Parameters: Parameters{StepTime: "1us", EndTime: "1ms"},
		Requested:  []ResultRequest{{Type: "node_voltage", Name: "out"}},
	})
	require.NoError(t, err)
	require.Len(t, result.TimeAxis, 3)
	require.Len(t, result.NodeVoltages, 1)
	require.Len(t, result.NodeVoltages[0].Voltage.Series, 3)
}

func TestServiceSimulateNgspiceFailure(t *testing.T) {
	bin := fakeNgspice(t, "", 1)
	runner, err := NewRunner([]string{bin}, 5*time.Second)
	require.NoError(t, err)

	svc := NewService(runner, false)
	_, err = svc.Simulate(context.Background(), &Request{
		Netlist:  dividerNetlist,
		Analysis: AnalysisOP,
	})
	require.Error(t, err)
	require.True(t, verrors.Is(err, verrors.ErrSimulationFailed))
}

func TestServiceSimulateRejectsInvalidRequest(t *testing.T) {
	svc := NewService(&Runner{binary: "unused", timeout: time.Second}, false)

	_, err := svc.Simulate(context.Background(), &Request{
		Netlist:  dividerNetlist,
		Analysis: "noise",
	})
	require.Error(t, err)
	require.True(t, verrors.Is(err, verrors.ErrInvalidAnalysisParams))
}
