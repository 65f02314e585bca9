// Package errors defines the normalized error kinds a training job can fail with.
// Every failure surfaces as one of these codes so callers can tell them apart
// without matching on message text.
package errors

import (
	"context"
	stderrors "errors"

	"github.com/pingcap/errors"
)

// errors re-exported so callers only need this package
var (
	New      = errors.New
	Errorf   = errors.Errorf
	Trace    = errors.Trace
	Cause    = errors.Cause
	Annotate = errors.Annotate
)

var (
	ErrDirectoryNotFound = errors.Normalize(
		"training directory %s does not exist or is not a directory",
		errors.RFCCodeText("TRAIN:ErrDirectoryNotFound"),
	)
	ErrWriteFailure = errors.Normalize(
		"write model artifact %s failed",
		errors.RFCCodeText("TRAIN:ErrWriteFailure"),
	)
	ErrCancelled = errors.Normalize(
		"training job cancelled during epoch %d",
		errors.RFCCodeText("TRAIN:ErrCancelled"),
	)
	ErrConfigurationMissing = errors.Normalize(
		"%s is not set, pass %s or set %s",
		errors.RFCCodeText("TRAIN:ErrConfigurationMissing"),
	)

	ErrInvalidJobSpec = errors.Normalize(
		"invalid job spec %s",
		errors.RFCCodeText("TRAIN:ErrInvalidJobSpec"),
	)
	ErrLedgerFailure = errors.Normalize(
		"job ledger operation %s failed",
		errors.RFCCodeText("TRAIN:ErrLedgerFailure"),
	)
	ErrArtifactExportFailed = errors.Normalize(
		"export model artifact to %s failed",
		errors.RFCCodeText("TRAIN:ErrArtifactExportFailed"),
	)
)

// WrapError generates a new error based on given `*errors.Error`, wraps the err
// as cause error.
// A nil err yields a nil error, unlike `Wrap` in pingcap/errors.
func WrapError(rfcError *errors.Error, err error, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return rfcError.Wrap(err).GenWithStackByArgs(args...)
}

// RFCCode returns the code of the outermost normalized error in err's chain.
// The walk stops at the first *errors.Error, since its Cause skips to the
// root of whatever it wraps.
func RFCCode(err error) (errors.RFCErrorCode, bool) {
	type rfcCoder interface {
		RFCCode() errors.RFCErrorCode
	}
	for depth := 0; err != nil && depth < maxChainDepth; depth++ {
		if terr, ok := err.(rfcCoder); ok {
			return terr.RFCCode(), true
		}
		err = unwrapOnce(err)
	}
	return "", false
}

// Is reports whether err is of the same kind as target.
func Is(err error, target *errors.Error) bool {
	code, ok := RFCCode(err)
	return ok && code == target.RFCCode()
}

// IsCancelled reports whether err stops a job because it was interrupted.
func IsCancelled(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, ErrCancelled) {
		return true
	}
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}

const maxChainDepth = 64

func unwrapOnce(err error) error {
	switch e := err.(type) {
	case interface{ Cause() error }:
		return e.Cause()
	case interface{ Unwrap() error }:
		return e.Unwrap()
	}
	return nil
}
