package errors

import (
	"github.com/pingcap/errors"
)

// WrapError wraps err into the given normalized error. Returns nil when err
// is nil so call sites can wrap unconditionally.
func WrapError(rfcError *errors.Error, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return rfcError.Wrap(err).GenWithStackByArgs(args...)
}

// Is reports whether err matches the given normalized error, unwrapping as
// needed.
func Is(err error, rfcError *errors.Error) bool {
	return rfcError.Equal(err)
}

// Cause returns the root cause of err.
func Cause(err error) error {
	return errors.Cause(err)
}

// RFCCode walks the error chain and returns the RFC code of the first
// normalized error it finds.
func RFCCode(err error) (errors.RFCErrorCode, bool) {
	type rfcCoder interface {
		RFCCode() errors.RFCErrorCode
	}
	for err != nil {
		if coder, ok := err.(rfcCoder); ok {
			return coder.RFCCode(), true
		}
		switch v := err.(type) {
		case interface{ Unwrap() error }:
			err = v.Unwrap()
		case interface{ Cause() error }:
			err = v.Cause()
		default:
			return "", false
		}
	}
	return "", false
}
