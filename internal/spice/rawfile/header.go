package rawfile

import (
	"strconv"
	"strings"

	verrors "vlab/internal/errors"
)

// Variable is one entry of the header's variable table.
type Variable struct {
	Index int
	Name  string
	Type  string // time, frequency, voltage, current
}

// Header is the decoded preamble of an ngspice raw output stream, up to but
// not including the Values/Binary section.
type Header struct {
	Circuit      string
	Date         string
	Plotname     string
	Flags        string
	NumVariables int
	NumPoints    int
	Variables    []Variable
}

// ParseHeader reads a full raw-output preamble through the given field
// reader. It is the entry point for consumers of complete raw files, such
// as readers of ngspice's -r output; the batch-mode path only needs the
// title field and reads it directly. Injecting the reader here is what lets
// the Reconciler's label tolerance apply to every instance of the parse,
// without any global state.
func ParseHeader(reader FieldReader, lines LineIterator) (*Header, error) {
	h := &Header{}

	var err error
	if h.Circuit, err = reader.ReadHeaderField(lines, "Circuit"); err != nil {
		return nil, err
	}
	if h.Date, err = reader.ReadHeaderField(lines, "Date"); err != nil {
		return nil, err
	}
	if h.Plotname, err = reader.ReadHeaderField(lines, "Plotname"); err != nil {
		return nil, err
	}
	if h.Flags, err = reader.ReadHeaderField(lines, "Flags"); err != nil {
		return nil, err
	}

	value, err := reader.ReadHeaderField(lines, "No. Variables")
	if err != nil {
		return nil, err
	}
	if h.NumVariables, err = strconv.Atoi(value); err != nil {
		return nil, verrors.WrapError(verrors.ErrSimulationFailed, err, "bad variable count")
	}

	value, err = reader.ReadHeaderField(lines, "No. Points")
	if err != nil {
		return nil, err
	}
	if h.NumPoints, err = strconv.Atoi(value); err != nil {
		return nil, verrors.WrapError(verrors.ErrSimulationFailed, err, "bad point count")
	}

	// "Variables:" introduces an indented table rather than an inline value.
	if _, err = reader.ReadHeaderField(lines, "Variables"); err != nil {
		return nil, err
	}
	for i := 0; i < h.NumVariables; i++ {
		line, ok := lines.Next()
		if !ok {
			return nil, verrors.ErrHeaderEOF.GenWithStackByArgs("Variables")
		}
		fields := strings.Fields(line)
		if len(fields) < 3 {
			return nil, verrors.ErrSimulationFailed.GenWithStackByArgs(
				"short variable entry: " + strings.TrimSpace(line))
		}
		index, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, verrors.WrapError(verrors.ErrSimulationFailed, err, "bad variable index")
		}
		h.Variables = append(h.Variables, Variable{
			Index: index,
			Name:  fields[1],
			Type:  fields[2],
		})
	}

	return h, nil
}
