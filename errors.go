package reqstream

import (
	"errors"
	"fmt"

	"github.com/reqstream/reqstream/internal/lazystream"
)

var (
	// ErrTooManyFields is returned when fields and files together exceed
	// the configured maximum. The parse yields no result.
	ErrTooManyFields = errors.New("too many fields")
	// ErrFieldTooLarge is returned when a single field value exceeds the
	// configured maximum field size.
	ErrFieldTooLarge = errors.New("field value too large")
	// ErrBoundaryNotFound is returned when the stream ends before the
	// expected multipart boundary, typically a truncated request.
	ErrBoundaryNotFound = errors.New("multipart boundary not found")
	// ErrLineTooLong is returned when a part header line exceeds the
	// configured line length limit.
	ErrLineTooLong = lazystream.ErrLineTooLong
	// ErrInvalidBoundary is returned when the boundary token is empty or
	// contains bytes a boundary cannot contain.
	ErrInvalidBoundary = errors.New("invalid multipart boundary")
)

// Sentinel errors upload handlers return to steer the pipeline.
var (
	// ErrSkipPart makes the parser drain and discard the current part.
	// The parse continues with the next part.
	ErrSkipPart = errors.New("skip part")
	// ErrStopPipeline, returned from NewFile, claims the part: handlers
	// later in the chain never see it.
	ErrStopPipeline = errors.New("stop later handlers")
	// ErrAbortUpload aborts the whole parse. Partial storage is released.
	ErrAbortUpload = errors.New("abort upload")
)

// MalformedPartError reports a part whose header block could not be used,
// e.g. a form-data part without a name. In lenient mode such parts are
// skipped; in strict mode the error fails the parse.
type MalformedPartError struct {
	Reason string
}

func (e MalformedPartError) Error() string {
	return fmt.Sprintf("malformed part: %s", e.Reason)
}
