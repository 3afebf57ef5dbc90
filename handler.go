package reqstream

import (
	"io"
)

//go:generate go run go.uber.org/mock/mockgen -source=handler.go -destination=mock/handler.go -package=mock

// UploadHandler decides how the payload of a file part is stored. Handlers
// are tried in the order they were configured; a handler that consumes a
// chunk outright stops it from reaching handlers later in the chain, while
// returning leftover bytes passes them on.
//
// The built-in chain is MemoryHandler followed by TemporaryFileHandler.
// Callers implement this interface to add storage backends, e.g. streaming
// straight to an object store.
type UploadHandler interface {
	// NewFile signals the start of a file part. Returning ErrStopPipeline
	// claims the part so later handlers never see it; ErrSkipPart discards
	// the part; any other error aborts the parse.
	NewFile(header Header) error

	// ReceiveDataChunk stores chunk. A nil remainder means the chunk was
	// consumed; a non-nil remainder is handed to the next handler in the
	// chain. ErrSkipPart discards the part, ErrAbortUpload aborts the
	// parse, any other error is a storage failure and also aborts.
	ReceiveDataChunk(chunk []byte) ([]byte, error)

	// FileComplete signals the end of the part. size is the total number
	// of decoded payload bytes. The first handler to return a non-nil
	// file owns the part's result.
	FileComplete(size int64) (*UploadedFile, error)

	// UploadComplete signals that the whole parse finished successfully.
	UploadComplete() error

	// Abort signals that the parse failed. Handlers must release any
	// storage created for parts still in flight.
	Abort() error
}

// RawPartHandler is an optional capability: a handler that also implements
// it gets direct access to the part's byte stream, bypassing the chunked
// pipeline for that part. Returning a nil file without error defers to the
// chunked pipeline.
type RawPartHandler interface {
	HandleRawPart(r io.Reader, header Header) (*UploadedFile, error)
}
