package spice

import (
	"strconv"
	"strings"

	verrors "vlab/internal/errors"
	"vlab/internal/spice/rawfile"
)

// outputData is the raw decoded content of one ngspice batch run.
type outputData struct {
	circuit        string
	nodeVoltages   map[string][]float64
	branchCurrents map[string][]float64
	timeAxis       []float64
	freqAxis       []float64
}

// isFailureLine flags ngspice diagnostics that abort a run.
func isFailureLine(line string) bool {
	lower := strings.ToLower(line)
	return strings.Contains(lower, "error") || strings.Contains(lower, "fatal")
}

// parseOutput decodes ngspice batch stdout for the given analysis. The
// header reader extracts the echoed circuit title first; ngspice labels it
// "Circuit" or, since release 38, "Note", which is exactly the tolerance
// the injected reader provides.
func parseOutput(reader rawfile.FieldReader, lines rawfile.LineIterator, analysis AnalysisType, probes Probes) (*outputData, error) {
	circuit, err := reader.ReadHeaderField(lines, "Circuit")
	if err != nil {
		return nil, err
	}

	data := &outputData{
		circuit:        circuit,
		nodeVoltages:   make(map[string][]float64),
		branchCurrents: make(map[string][]float64),
	}

	switch analysis {
	case AnalysisOP:
		err = parseOpSections(lines, data)
	case AnalysisAC:
		err = parseSweepTable(lines, data, probes, true)
	case AnalysisTransient:
		err = parseSweepTable(lines, data, probes, false)
	default:
		err = verrors.ErrInvalidAnalysisParams.GenWithStackByArgs(string(analysis))
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// parseOpSections reads the operating-point Node/Voltage and Source/Current
// sections.
func parseOpSections(lines rawfile.LineIterator, data *outputData) error {
	const (
		sectionNone = iota
		sectionVoltage
		sectionCurrent
	)
	section := sectionNone

	for {
		raw, ok := lines.Next()
		if !ok {
			return nil
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "----") {
			continue
		}
		if isFailureLine(line) {
			return verrors.ErrSimulationFailed.GenWithStackByArgs(line)
		}

		switch {
		case strings.Contains(line, "Node") && strings.Contains(line, "Voltage"):
			section = sectionVoltage
			continue
		case strings.Contains(line, "Source") && strings.Contains(line, "Current"):
			section = sectionCurrent
			continue
		}
		if section == sectionNone {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		value, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		switch section {
		case sectionVoltage:
			data.nodeVoltages[fields[0]] = []float64{value}
		case sectionCurrent:
			data.branchCurrents[fields[0]] = []float64{value}
		}
	}
}

// parseSweepTable reads the `.print` table of an AC or transient run. Rows
// look like
//
//	Index   time          v(in)         v(out)        i(v1)
//	0       0.000000e+00  0.000000e+00  0.000000e+00  0.000000e+00
//
// with the axis in column 1, node columns next, and (for transient) source
// currents last, following the .print order built by PrepareNetlist.
func parseSweepTable(lines rawfile.LineIterator, data *outputData, probes Probes, isAC bool) error {
	axisWord := "time"
	if isAC {
		axisWord = "frequency"
	}

	inTable := false
	for {
		raw, ok := lines.Next()
		if !ok {
			return nil
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "-") {
			continue
		}
		if isFailureLine(line) {
			return verrors.ErrSimulationFailed.GenWithStackByArgs(line)
		}

		if strings.Contains(line, "Index") && strings.Contains(strings.ToLower(line), axisWord) {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		axis, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			// Status noise after the table (memory usage etc.).
			continue
		}

		values := make([]float64, 0, len(fields)-2)
		rowOK := true
		for _, f := range fields[2:] {
			// AC rows print "magnitude,phase"; keep the magnitude.
			f = strings.TrimSuffix(f, ",")
			if i := strings.IndexByte(f, ','); i >= 0 {
				f = f[:i]
			}
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				rowOK = false
				break
			}
			values = append(values, v)
		}
		if !rowOK {
			continue
		}

		if isAC {
			data.freqAxis = append(data.freqAxis, axis)
		} else {
			data.timeAxis = append(data.timeAxis, axis)
		}

		for i, node := range probes.Nodes {
			if i < len(values) {
				data.nodeVoltages[node] = append(data.nodeVoltages[node], values[i])
			}
		}
		if !isAC {
			for i, src := range probes.Sources {
				col := len(probes.Nodes) + i
				if col < len(values) {
					key := strings.ToLower(src) + "#branch"
					data.branchCurrents[key] = append(data.branchCurrents[key], values[col])
				}
			}
		}
	}
}
