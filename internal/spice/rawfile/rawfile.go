// Package rawfile reads the header preamble of ngspice raw output.
//
// ngspice changed the label of the leading header field across releases:
// older versions emit "Circuit:", ngspice-38 emits "Note:". The Reconciler
// accepts both so the same parser works against either binary. The rest of
// the preamble (Date, Plotname, Flags, counts, variable table) is read
// through the same field reader so the tolerance applies uniformly.
package rawfile

import (
	"bufio"
	"io"
	"strings"

	"go.uber.org/zap"

	verrors "vlab/internal/errors"
	"vlab/internal/logging"
)

// headerSynonyms maps an expected label to alternate labels accepted as
// equivalent. The only known pair is Circuit/Note (ngspice-38 renamed the
// field).
var headerSynonyms = map[string][]string{
	"Circuit": {"Note"},
}

// LineIterator yields decoded header lines one at a time. Next reports
// ok=false once the sequence is exhausted. Implementations own any
// bytes-to-text decoding; the reconciler only ever sees strings.
type LineIterator interface {
	Next() (line string, ok bool)
}

// FieldReader extracts one labelled header field from a line sequence.
// Reconciler is the production implementation; tests may substitute their
// own.
type FieldReader interface {
	ReadHeaderField(lines LineIterator, expectedLabel string) (string, error)
}

// Reconciler reads "label: value" header fields, tolerating the known label
// synonyms. Zero value is ready to use (lenient mode).
type Reconciler struct {
	// Strict makes a header line without a colon fatal. The default
	// (lenient) skips such lines with a diagnostic, matching observed
	// ngspice output that interleaves banner text with the preamble.
	Strict bool
}

// ReadHeaderField pulls lines from the iterator until it finds a
// "label: value" field, then returns the trimmed value if the label matches
// expectedLabel or one of its synonyms.
//
// Blank lines are skipped and never count as a field. At most one field is
// consumed per successful return. The pass is single-direction and
// non-restartable; retrying is the caller's concern.
func (r *Reconciler) ReadHeaderField(lines LineIterator, expectedLabel string) (string, error) {
	for {
		raw, ok := lines.Next()
		if !ok {
			return "", verrors.ErrHeaderEOF.GenWithStackByArgs(expectedLabel)
		}

		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		label, value, found := strings.Cut(line, ":")
		if !found {
			if r.Strict {
				return "", verrors.ErrHeaderMalformed.GenWithStackByArgs(line, expectedLabel)
			}
			logging.L().Debug("skipping malformed header line",
				zap.String("line", line),
				zap.String("expected", expectedLabel))
			continue
		}

		label = strings.TrimSpace(label)
		value = strings.TrimSpace(value)

		if label == expectedLabel {
			return value, nil
		}
		for _, synonym := range headerSynonyms[expectedLabel] {
			if label == synonym {
				return value, nil
			}
		}
		return "", verrors.ErrHeaderLabelMismatch.GenWithStackByArgs(expectedLabel, label)
	}
}

// lineSlice iterates over an in-memory slice of lines.
type lineSlice struct {
	lines []string
	pos   int
}

func (it *lineSlice) Next() (string, bool) {
	if it.pos >= len(it.lines) {
		return "", false
	}
	line := it.lines[it.pos]
	it.pos++
	return line, true
}

// Lines returns a LineIterator over already-decoded lines.
func Lines(lines ...string) LineIterator {
	return &lineSlice{lines: lines}
}

// readerLines iterates over newline-delimited UTF-8 from an io.Reader,
// decoding once at this boundary.
type readerLines struct {
	scanner *bufio.Scanner
}

func (it *readerLines) Next() (string, bool) {
	if !it.scanner.Scan() {
		return "", false
	}
	return it.scanner.Text(), true
}

// FromReader returns a LineIterator over r. Raw simulator output arrives as
// bytes; this is the single place it becomes text.
func FromReader(r io.Reader) LineIterator {
	return &readerLines{scanner: bufio.NewScanner(r)}
}
