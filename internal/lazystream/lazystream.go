// Package lazystream provides a pull-based byte stream with push-back,
// used to track multipart boundaries across chunk edges.
package lazystream

import (
	"bytes"
	"errors"
	"io"
)

// ErrLineTooLong is returned by ReadLine when no line terminator is found
// within the given limit.
var ErrLineTooLong = errors.New("line too long")

// DefaultChunkSize is the read size used against the underlying source
// when the caller does not specify one.
const DefaultChunkSize = 64 << 10

// Stream wraps an io.Reader and buffers bytes that were read but not yet
// consumed. Unget bytes are replayed, in their original order, before any
// new bytes are pulled from the source.
//
// A Stream is valid for a single parse and must not be shared between
// goroutines.
type Stream struct {
	src       io.Reader
	chunkSize int

	// replay holds unconsumed bytes in forward order.
	replay []byte
	eof    bool
}

// New creates a Stream reading from src in chunks of chunkSize bytes.
// chunkSize <= 0 selects DefaultChunkSize.
func New(src io.Reader, chunkSize int) *Stream {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	return &Stream{
		src:       src,
		chunkSize: chunkSize,
	}
}

// Read fills p from the replay buffer first, then from the source.
// It returns io.EOF only once both are exhausted.
func (s *Stream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if len(s.replay) > 0 {
		n := copy(p, s.replay)
		s.replay = s.replay[n:]
		return n, nil
	}

	if s.eof {
		return 0, io.EOF
	}

	limit := min(len(p), s.chunkSize)
	n, err := s.src.Read(p[:limit])
	if errors.Is(err, io.EOF) {
		s.eof = true
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	}

	return n, err
}

// Next reads up to size bytes, short only at end of stream.
func (s *Stream) Next(size int) ([]byte, error) {
	buf := make([]byte, 0, min(size, s.chunkSize))
	for len(buf) < size {
		p := make([]byte, min(size-len(buf), s.chunkSize))
		n, err := s.Read(p)
		buf = append(buf, p[:n]...)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return buf, err
		}
	}

	return buf, nil
}

// Unget pushes b back onto the stream. Successive ungets reconstruct the
// original forward order: the bytes most recently pushed back are returned
// first, followed by earlier pushed-back bytes, then the source.
func (s *Stream) Unget(b []byte) {
	if len(b) == 0 {
		return
	}

	replay := make([]byte, 0, len(b)+len(s.replay))
	replay = append(replay, b...)
	replay = append(replay, s.replay...)
	s.replay = replay
}

// ReadLine reads up to and including the next '\n'. If no terminator is
// found within max bytes, the read bytes are pushed back and ErrLineTooLong
// is returned. At end of stream a final unterminated line is returned with
// io.EOF.
func (s *Stream) ReadLine(max int) ([]byte, error) {
	line := make([]byte, 0, 64)
	for len(line) < max {
		p := make([]byte, min(s.chunkSize, max-len(line)))
		n, err := s.Read(p)
		if n > 0 {
			if i := bytes.IndexByte(p[:n], '\n'); i >= 0 {
				line = append(line, p[:i+1]...)
				s.Unget(p[i+1 : n])
				return line, nil
			}
			line = append(line, p[:n]...)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(line) == 0 {
					return nil, io.EOF
				}
				return line, io.EOF
			}
			return line, err
		}
	}

	s.Unget(line)
	return nil, ErrLineTooLong
}

// Exhaust consumes the stream to its end, discarding everything. Used to
// keep boundary tracking in sync after a part is skipped.
func (s *Stream) Exhaust() error {
	s.replay = nil
	if s.eof {
		return nil
	}

	_, err := io.Copy(io.Discard, s)
	return err
}
