// Package spice prepares SPICE netlists, runs them through an external
// ngspice binary, and parses the batch output into structured results.
package spice

import (
	"encoding/json"
	"fmt"

	verrors "vlab/internal/errors"
)

// AnalysisType selects the simulation analysis.
type AnalysisType string

const (
	AnalysisOP        AnalysisType = "op"
	AnalysisTransient AnalysisType = "transient"
	AnalysisAC        AnalysisType = "ac"
)

// Valid reports whether the analysis type is one vlab can run. The SPICE
// dialect defines more (dc, noise, fourier); only these three are wired
// end to end.
func (a AnalysisType) Valid() bool {
	switch a {
	case AnalysisOP, AnalysisTransient, AnalysisAC:
		return true
	}
	return false
}

// Parameters carries per-analysis knobs. Fields not relevant to the chosen
// analysis are ignored.
type Parameters struct {
	// Transient
	StepTime string `json:"step_time,omitempty"`
	EndTime  string `json:"end_time,omitempty"`

	// AC sweep
	StartFrequency float64 `json:"start_frequency,omitempty"`
	StopFrequency  float64 `json:"stop_frequency,omitempty"`
	NumberOfPoints int     `json:"number_of_points,omitempty"`
	SweepType      string  `json:"sweep_type,omitempty"` // dec, oct, lin
}

// ResultRequest names one output the caller wants extracted.
type ResultRequest struct {
	Type string `json:"type"` // node_voltage | branch_current
	Name string `json:"name"`
}

// Request is a fully-specified simulation job.
type Request struct {
	CircuitName string          `json:"circuit_name"`
	Netlist     string          `json:"netlist_string"`
	Analysis    AnalysisType    `json:"analysis_type"`
	Parameters  Parameters      `json:"analysis_parameters"`
	Requested   []ResultRequest `json:"requested_results"`
}

// Validate checks the request before any file or subprocess work happens.
func (r *Request) Validate() error {
	if r.Netlist == "" {
		return verrors.ErrInvalidNetlist.GenWithStackByArgs("empty netlist")
	}
	if !r.Analysis.Valid() {
		return verrors.ErrInvalidAnalysisParams.GenWithStackByArgs(
			fmt.Sprintf("unsupported analysis type %q", r.Analysis))
	}
	switch r.Analysis {
	case AnalysisTransient:
		if r.Parameters.StepTime == "" || r.Parameters.EndTime == "" {
			return verrors.ErrInvalidAnalysisParams.GenWithStackByArgs(
				"transient analysis requires step_time and end_time")
		}
	case AnalysisAC:
		p := r.Parameters
		if p.StartFrequency <= 0 || p.StopFrequency <= 0 || p.NumberOfPoints <= 0 {
			return verrors.ErrInvalidAnalysisParams.GenWithStackByArgs(
				"ac analysis requires start_frequency, stop_frequency and number_of_points")
		}
	}
	for _, req := range r.Requested {
		if req.Type != "node_voltage" && req.Type != "branch_current" {
			return verrors.ErrInvalidAnalysisParams.GenWithStackByArgs(
				fmt.Sprintf("unknown requested result type %q", req.Type))
		}
	}
	return nil
}

// Waveform is either a single operating-point value or a sample series from
// a sweep. Exactly one of Scalar/Series is set. It marshals to a bare number
// or a number array to match the wire format clients expect.
type Waveform struct {
	Scalar *float64
	Series []float64
}

// ScalarOf builds a single-valued waveform.
func ScalarOf(v float64) Waveform {
	return Waveform{Scalar: &v}
}

// SeriesOf builds a sampled waveform.
func SeriesOf(vs []float64) Waveform {
	return Waveform{Series: vs}
}

// MarshalJSON renders a scalar as a number and a series as an array.
func (w Waveform) MarshalJSON() ([]byte, error) {
	if w.Scalar != nil {
		return json.Marshal(*w.Scalar)
	}
	if w.Series == nil {
		return json.Marshal([]float64{})
	}
	return json.Marshal(w.Series)
}

// UnmarshalJSON accepts either form.
func (w *Waveform) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		w.Scalar = &scalar
		w.Series = nil
		return nil
	}
	w.Scalar = nil
	return json.Unmarshal(data, &w.Series)
}

// NodeVoltage is one extracted node-voltage result.
type NodeVoltage struct {
	Node    string   `json:"node"`
	Voltage Waveform `json:"voltage"`
	Unit    string   `json:"unit"`
}

// BranchCurrent is one extracted branch-current result.
type BranchCurrent struct {
	Branch  string   `json:"branch"`
	Current Waveform `json:"current"`
	Unit    string   `json:"unit"`
}

// Result is the structured outcome of a simulation.
type Result struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	Analysis       AnalysisType    `json:"simulation_type"`
	NodeVoltages   []NodeVoltage   `json:"node_voltages"`
	BranchCurrents []BranchCurrent `json:"branch_currents"`
	TimeAxis       []float64       `json:"time_axis,omitempty"`
	FrequencyAxis  []float64       `json:"frequency_axis,omitempty"`
}
