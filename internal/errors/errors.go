// Package errors defines the normalized error taxonomy for vlab.
// Every error that crosses a package boundary is one of the *errors.Error
// values below so callers can match on identity (errors.Is / ErrorEqual)
// instead of string-sniffing messages.
package errors

import (
	"github.com/pingcap/errors"
)

// Rawfile header parsing errors.
var (
	// ErrHeaderEOF: the header line sequence was exhausted before a field
	// with the expected label was found. Carries the expected label.
	ErrHeaderEOF = errors.Normalize(
		"expected header label %s but reached end of header",
		errors.RFCCodeText("VLAB:ErrHeaderEOF"),
	)

	// ErrHeaderLabelMismatch: a well-formed field was found but its label
	// matches neither the expected label nor its synonym set.
	ErrHeaderLabelMismatch = errors.Normalize(
		"expected header label %s instead of %s",
		errors.RFCCodeText("VLAB:ErrHeaderLabelMismatch"),
	)

	// ErrHeaderMalformed: a header line had no colon separator. Only
	// returned in strict mode; lenient mode skips the line.
	ErrHeaderMalformed = errors.Normalize(
		"malformed header line %q while expecting label %s",
		errors.RFCCodeText("VLAB:ErrHeaderMalformed"),
	)
)

// Simulation errors.
var (
	ErrNgspiceNotFound = errors.Normalize(
		"ngspice executable not found (searched %v)",
		errors.RFCCodeText("VLAB:ErrNgspiceNotFound"),
	)

	ErrInvalidNetlist = errors.Normalize(
		"invalid netlist: %s",
		errors.RFCCodeText("VLAB:ErrInvalidNetlist"),
	)

	ErrInvalidAnalysisParams = errors.Normalize(
		"invalid analysis parameters: %s",
		errors.RFCCodeText("VLAB:ErrInvalidAnalysisParams"),
	)

	ErrSimulationFailed = errors.Normalize(
		"simulation failed: %s",
		errors.RFCCodeText("VLAB:ErrSimulationFailed"),
	)
)

// Persistence errors.
var (
	ErrStoreUnavailable = errors.Normalize(
		"store unavailable",
		errors.RFCCodeText("VLAB:ErrStoreUnavailable"),
	)

	ErrNotFound = errors.Normalize(
		"%s not found",
		errors.RFCCodeText("VLAB:ErrNotFound"),
	)

	ErrConflict = errors.Normalize(
		"%s already registered",
		errors.RFCCodeText("VLAB:ErrConflict"),
	)
)

// Auth and API errors.
var (
	ErrUnauthorized = errors.Normalize(
		"could not validate credentials",
		errors.RFCCodeText("VLAB:ErrUnauthorized"),
	)

	ErrAPIInvalidParam = errors.Normalize(
		"invalid api parameter",
		errors.RFCCodeText("VLAB:ErrAPIInvalidParam"),
	)

	ErrInternalServer = errors.Normalize(
		"internal server error",
		errors.RFCCodeText("VLAB:ErrInternalServer"),
	)
)
