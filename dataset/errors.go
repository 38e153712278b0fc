package dataset

import (
	"fmt"

	"github.com/sartorproj/goseq/frame"
	"github.com/sartorproj/goseq/sequence"
)

// Error kinds raised by the lower-level packages, re-exported so callers of
// Process and Replay can match every failure against this package.
type (
	UnsupportedFormatError     = frame.UnsupportedFormatError
	InsufficientDataError      = sequence.InsufficientDataError
	MissingSplitCriterionError = sequence.MissingSplitCriterionError
	DateNotFoundError          = sequence.DateNotFoundError
)

// ConfigLoadError is returned when a persisted configuration artifact is
// missing or cannot be decoded. Artifact is the file name inside the
// configuration directory.
type ConfigLoadError struct {
	Artifact string
	Err      error
}

func (e *ConfigLoadError) Error() string {
	return fmt.Sprintf("load dataset config: %s: %v", e.Artifact, e.Err)
}

func (e *ConfigLoadError) Unwrap() error {
	return e.Err
}
