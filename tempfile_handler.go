package reqstream

import (
	"errors"
	"fmt"
	"os"
)

// TemporaryFileHandler streams file parts into files created under dir
// (os.TempDir when empty). It accepts every part offered to it, so it is
// meant to sit last in the handler chain. The temp file is created lazily
// on the first chunk, since a handler earlier in the chain may claim the
// whole part. Files belonging to a failed parse are removed by Abort.
type TemporaryFileHandler struct {
	dir string

	file    *os.File
	header  Header
	size    int64
	started bool
}

func NewTemporaryFileHandler(dir string) *TemporaryFileHandler {
	return &TemporaryFileHandler{
		dir: dir,
	}
}

func (h *TemporaryFileHandler) NewFile(header Header) error {
	// a leftover file means the previous part was claimed by an earlier
	// handler after bytes already reached us; drop it
	if err := h.discard(); err != nil {
		return err
	}

	h.header = header
	h.size = 0
	h.started = true

	return nil
}

func (h *TemporaryFileHandler) ReceiveDataChunk(chunk []byte) ([]byte, error) {
	if !h.started {
		return chunk, nil
	}

	if h.file == nil {
		file, err := os.CreateTemp(h.dir, "reqstream-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		h.file = file
	}

	n, err := h.file.Write(chunk)
	h.size += int64(n)
	if err != nil {
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	return nil, nil
}

func (h *TemporaryFileHandler) FileComplete(size int64) (*UploadedFile, error) {
	if !h.started {
		return nil, nil
	}
	h.started = false

	if h.file == nil {
		// an empty part that fell through to us still yields a stored file
		file, err := os.CreateTemp(h.dir, "reqstream-")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp file: %w", err)
		}
		h.file = file
	}

	path := h.file.Name()
	if err := h.file.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}
	h.file = nil

	return NewTempUploadedFile(h.header, path, h.size), nil
}

func (h *TemporaryFileHandler) UploadComplete() error {
	return h.discard()
}

func (h *TemporaryFileHandler) Abort() error {
	return h.discard()
}

// discard removes the in-flight file, if any. Completed files are owned by
// their UploadedFile and are not touched here.
func (h *TemporaryFileHandler) discard() error {
	h.started = false
	if h.file == nil {
		return nil
	}

	path := h.file.Name()
	closeErr := h.file.Close()
	removeErr := os.Remove(path)
	h.file = nil
	if closeErr != nil || removeErr != nil {
		return fmt.Errorf("failed to discard temp file: %w", errors.Join(closeErr, removeErr))
	}

	return nil
}
