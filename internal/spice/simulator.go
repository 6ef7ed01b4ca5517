package spice

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"vlab/internal/logging"
	"vlab/internal/spice/rawfile"
)

// Service orchestrates one simulation end to end: validate, prepare the
// deck, run ngspice, parse, extract the requested results.
type Service struct {
	runner *Runner
	reader rawfile.FieldReader
}

// NewService wires a runner with the header reconciler. strictHeader makes
// malformed preamble lines fatal (see rawfile.Reconciler).
func NewService(runner *Runner, strictHeader bool) *Service {
	return &Service{
		runner: runner,
		reader: &rawfile.Reconciler{Strict: strictHeader},
	}
}

// Version reports the ngspice banner line.
func (s *Service) Version(ctx context.Context) (string, error) {
	return s.runner.Version(ctx)
}

// Simulate runs the request and returns a structured result. All failures
// come back as normalized errors; the caller decides how to record and
// surface them.
func (s *Service) Simulate(ctx context.Context, req *Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateNetlist(req.Netlist); err != nil {
		return nil, err
	}

	deck, err := PrepareNetlist(req)
	if err != nil {
		return nil, err
	}
	probes := ExtractProbes(req.Netlist)

	run, err := s.runner.Run(ctx, deck)
	if err != nil {
		return nil, err
	}

	data, err := parseOutput(s.reader, rawfile.FromReader(strings.NewReader(run.Stdout)), req.Analysis, probes)
	if err != nil {
		return nil, err
	}

	logging.L().Info("simulation completed",
		zap.String("circuit", data.circuit),
		zap.String("analysis", string(req.Analysis)),
		zap.Duration("duration", run.Duration),
		zap.Int("nodes", len(data.nodeVoltages)),
		zap.Int("branches", len(data.branchCurrents)))

	return s.extract(req, data), nil
}

// extract picks the caller's requested results out of the decoded output.
// Requested names that the run did not produce are skipped with a warning,
// not failed: the circuit may legitimately lack them.
func (s *Service) extract(req *Request, data *outputData) *Result {
	result := &Result{
		Success:       true,
		Message:       "Simulation completed successfully.",
		Analysis:      req.Analysis,
		TimeAxis:      data.timeAxis,
		FrequencyAxis: data.freqAxis,
	}

	for _, want := range req.Requested {
		switch want.Type {
		case "node_voltage":
			samples, ok := data.nodeVoltages[want.Name]
			if !ok {
				samples, ok = data.nodeVoltages[strings.ToLower(want.Name)]
			}
			if !ok {
				logging.L().Warn("requested node voltage not found",
					zap.String("node", want.Name))
				continue
			}
			result.NodeVoltages = append(result.NodeVoltages, NodeVoltage{
				Node:    want.Name,
				Voltage: waveformFor(req.Analysis, samples),
				Unit:    "V",
			})

		case "branch_current":
			samples, ok := lookupBranch(data.branchCurrents, want.Name)
			if !ok {
				logging.L().Warn("requested branch current not found",
					zap.String("branch", want.Name))
				continue
			}
			result.BranchCurrents = append(result.BranchCurrents, BranchCurrent{
				Branch:  want.Name,
				Current: waveformFor(req.Analysis, samples),
				Unit:    "A",
			})
		}
	}
	return result
}

// lookupBranch resolves a branch-current name against the naming ngspice
// actually used: exact, lowercased, or with the #branch suffix appended.
func lookupBranch(branches map[string][]float64, name string) ([]float64, bool) {
	for _, key := range []string{
		name,
		strings.ToLower(name),
		strings.ToLower(name) + "#branch",
	} {
		if samples, ok := branches[key]; ok {
			return samples, true
		}
	}
	return nil, false
}

// waveformFor renders samples as a scalar for operating point and a series
// for sweeps.
func waveformFor(analysis AnalysisType, samples []float64) Waveform {
	if analysis == AnalysisOP && len(samples) > 0 {
		return ScalarOf(samples[0])
	}
	return SeriesOf(samples)
}
