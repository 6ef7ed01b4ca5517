package spice

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	verrors "vlab/internal/errors"
	"vlab/internal/spice/rawfile"
)

const opOutput = `
Note: Voltage Divider

Doing analysis at TEMP = 27.000000 and TNOM = 27.000000

No. of Data Rows : 1
	Node                                  Voltage
	----                                  -------
	in                               5.000000e+00
	out                              3.333333e+00

	Source	Current
	------	-------
	v1#branch	-1.66667e-03
`

const tranOutput = `
Circuit: RC Charge

Index   time            v(in)           v(out)          i(v1)
--------------------------------------------------------------
0	0.000000e+00	5.000000e+00	0.000000e+00	-5.000000e-03
1	1.000000e-06	5.000000e+00	1.812692e+00	-3.187308e-03
2	2.000000e-06	5.000000e+00	2.968386e+00	-2.031614e-03
`

const acOutput = `
Circuit: RC Filter

Index   frequency       v(out)
--------------------------------
0	1.000000e+03	4.999013e+00,	-1.802413e+00
1	1.000000e+04	4.904066e+00,	-1.756235e+01
2	1.000000e+05	1.571348e+00,	-7.171e+01
`

func parse(t *testing.T, out string, analysis AnalysisType, probes Probes) *outputData {
	t.Helper()
	data, err := parseOutput(&rawfile.Reconciler{},
		rawfile.FromReader(strings.NewReader(out)), analysis, probes)
	require.NoError(t, err)
	return data
}

func TestParseOpOutput(t *testing.T) {
	data := parse(t, opOutput, AnalysisOP, Probes{})
	// ngspice-38 echoes the title under the "Note" label.
	require.Equal(t, "Voltage Divider", data.circuit)
	require.Equal(t, []float64{5.0}, data.nodeVoltages["in"])
	require.Equal(t, []float64{3.333333}, data.nodeVoltages["out"])
	require.Equal(t, []float64{-1.66667e-03}, data.branchCurrents["v1#branch"])
}

func TestParseTranOutput(t *testing.T) {
	probes := Probes{Nodes: []string{"in", "out"}, Sources: []string{"V1"}}
	data := parse(t, tranOutput, AnalysisTransient, probes)

	require.Equal(t, "RC Charge", data.circuit)
	require.Equal(t, []float64{0, 1e-6, 2e-6}, data.timeAxis)
	require.Equal(t, []float64{5, 5, 5}, data.nodeVoltages["in"])
	require.Len(t, data.nodeVoltages["out"], 3)
	require.Equal(t, []float64{-5e-3, -3.187308e-3, -2.031614e-3}, data.branchCurrents["v1#branch"])
}

func TestParseACOutput(t *testing.T) {
	probes := Probes{Nodes: []string{"out"}}
	data := parse(t, acOutput, AnalysisAC, probes)

	require.Equal(t, []float64{1e3, 1e4, 1e5}, data.freqAxis)
	// Magnitude only; the phase after the comma is dropped.
	require.Equal(t, []float64{4.999013, 4.904066, 1.571348}, data.nodeVoltages["out"])
}

func TestParseOutputFailureLine(t *testing.T) {
	out := "Circuit: broken\n\nError: unknown device q1\n"
	_, err := parseOutput(&rawfile.Reconciler{},
		rawfile.FromReader(strings.NewReader(out)), AnalysisOP, Probes{})
	require.Error(t, err)
	require.True(t, verrors.Is(err, verrors.ErrSimulationFailed))
	require.Contains(t, err.Error(), "unknown device")
}

func TestParseOutputMissingHeader(t *testing.T) {
	_, err := parseOutput(&rawfile.Reconciler{},
		rawfile.Lines(), AnalysisOP, Probes{})
	require.Error(t, err)
	require.True(t, verrors.Is(err, verrors.ErrHeaderEOF))
}

func TestWaveformJSON(t *testing.T) {
	scalar, err := json.Marshal(ScalarOf(3.3))
	require.NoError(t, err)
	require.JSONEq(t, `3.3`, string(scalar))

	series, err := json.Marshal(SeriesOf([]float64{1, 2}))
	require.NoError(t, err)
	require.JSONEq(t, `[1,2]`, string(series))

	var w Waveform
	require.NoError(t, json.Unmarshal([]byte(`2.5`), &w))
	require.NotNil(t, w.Scalar)
	require.Equal(t, 2.5, *w.Scalar)

	require.NoError(t, json.Unmarshal([]byte(`[1,2,3]`), &w))
	require.Nil(t, w.Scalar)
	require.Equal(t, []float64{1, 2, 3}, w.Series)
}

func TestExtractRequestedResults(t *testing.T) {
	svc := &Service{reader: &rawfile.Reconciler{}}
	req := &Request{
		Analysis: AnalysisOP,
		Requested: []ResultRequest{
			{Type: "node_voltage", Name: "out"},
			{Type: "branch_current", Name: "V1"},
			{Type: "node_voltage", Name: "missing"},
		},
	}
	data := &outputData{
		nodeVoltages:   map[string][]float64{"out": {3.33}},
		branchCurrents: map[string][]float64{"v1#branch": {-1.6e-3}},
	}

	result := svc.extract(req, data)
	require.True(t, result.Success)
	require.Len(t, result.NodeVoltages, 1)
	require.Equal(t, "out", result.NodeVoltages[0].Node)
	require.NotNil(t, result.NodeVoltages[0].Voltage.Scalar)
	require.Equal(t, 3.33, *result.NodeVoltages[0].Voltage.Scalar)

	require.Len(t, result.BranchCurrents, 1)
	require.Equal(t, "V1", result.BranchCurrents[0].Branch)
	require.Equal(t, -1.6e-3, *result.BranchCurrents[0].Current.Scalar)
}
