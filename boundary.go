package reqstream

import (
	"bytes"
	"io"

	"github.com/reqstream/reqstream/internal/lazystream"
)

// scanState tracks where the scanner is in the multipart grammar.
type scanState int

const (
	// scanSeekingFirst: consuming the preamble before the first boundary.
	scanSeekingFirst scanState = iota
	// scanReadingHeaders: a separator was consumed, the part's header
	// block is next on the stream.
	scanReadingHeaders
	// scanReadingBody: a body reader is active, feeding bytes up to the
	// next boundary.
	scanReadingBody
	// scanDone: the terminal boundary was consumed.
	scanDone
)

// partScanner segments a stream into parts separated by "--<token>"
// delimiters. Boundary matches may straddle chunk edges: a partial match at
// the end of a chunk is retained and completed against the next chunk.
type partScanner struct {
	stream *lazystream.Stream
	// delim is "--" + token, without the leading CRLF.
	delim []byte
	// rollback bytes are withheld from part output so a delimiter split
	// across reads is never emitted as data: CRLF + delim + "--".
	rollback  int
	chunkSize int
	state     scanState
	cur       *partReader
}

func newPartScanner(stream *lazystream.Stream, token string, chunkSize int) *partScanner {
	delim := append([]byte("--"), token...)

	return &partScanner{
		stream:    stream,
		delim:     delim,
		rollback:  len(delim) + 6,
		chunkSize: chunkSize,
		state:     scanSeekingFirst,
	}
}

// validBoundary reports whether token is usable as a boundary per RFC 2046:
// 1-70 characters from a restricted set, not ending in a space.
func validBoundary(token string) bool {
	if len(token) == 0 || len(token) > 70 {
		return false
	}
	if token[len(token)-1] == ' ' {
		return false
	}
	for i := 0; i < len(token); i++ {
		c := token[i]
		switch {
		case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		default:
			if !bytes.ContainsRune([]byte("'()+_,-./:=? "), rune(c)) {
				return false
			}
		}
	}

	return true
}

// next advances to the next part. It drains whatever remains of the current
// part first, so boundary tracking survives callers that stop reading early.
// It returns false once the terminal boundary has been consumed.
func (sc *partScanner) next() (bool, error) {
	switch sc.state {
	case scanSeekingFirst:
		pr := &partReader{sc: sc}
		if err := pr.drain(); err != nil {
			return false, err
		}
	case scanReadingBody:
		if err := sc.cur.drain(); err != nil {
			return false, err
		}
	}
	sc.cur = nil

	if sc.state == scanDone {
		return false, nil
	}

	return true, nil
}

// bodyReader returns a reader over the current part's payload, ending just
// before the next boundary. Must be called after the part's header block has
// been consumed from the stream.
func (sc *partScanner) bodyReader() *partReader {
	pr := &partReader{sc: sc}
	sc.cur = pr
	sc.state = scanReadingBody

	return pr
}

// partReader yields the bytes of one part incrementally. It never holds more
// than one chunk plus the rollback margin, regardless of part size.
type partReader struct {
	sc      *partScanner
	buf     []byte
	pending []byte
	eof     bool
	done    bool
	err     error
}

func (pr *partReader) Read(p []byte) (int, error) {
	for len(pr.pending) == 0 {
		if pr.err != nil {
			return 0, pr.err
		}
		if pr.done {
			return 0, io.EOF
		}
		if err := pr.fill(); err != nil {
			pr.err = err
			return 0, err
		}
	}

	n := copy(p, pr.pending)
	pr.pending = pr.pending[n:]

	return n, nil
}

func (pr *partReader) drain() error {
	_, err := io.Copy(io.Discard, pr)
	return err
}

// fill reads more input and either extracts part data into pr.pending or
// consumes the part's closing delimiter.
func (pr *partReader) fill() error {
	sc := pr.sc

	if !pr.eof {
		chunk := make([]byte, sc.chunkSize)
		n, err := sc.stream.Read(chunk)
		pr.buf = append(pr.buf, chunk[:n]...)
		if err != nil {
			if err != io.EOF {
				return err
			}
			pr.eof = true
		}
	}

	if matched := pr.scanDelimiter(); matched {
		return nil
	}

	if pr.eof {
		// the stream ended before the part's closing boundary
		return ErrBoundaryNotFound
	}

	if len(pr.buf) > sc.rollback {
		cut := len(pr.buf) - sc.rollback
		pr.pending = pr.buf[:cut]
		pr.buf = pr.buf[cut:]
	}

	return nil
}

// scanDelimiter looks for a complete "--<token>" delimiter in pr.buf. On a
// match it emits the data before it, consumes the delimiter plus its suffix,
// and pushes everything after back onto the stream. A candidate whose suffix
// is not yet readable is left in place for the next fill.
func (pr *partReader) scanDelimiter() bool {
	sc := pr.sc
	buf := pr.buf

	for off := 0; ; {
		i := bytes.Index(buf[off:], sc.delim)
		if i < 0 {
			return false
		}
		i += off

		j := i + len(sc.delim)
		avail := len(buf) - j

		var next int
		var terminal bool
		switch {
		case avail >= 1 && buf[j] == '\n':
			next = j + 1
		case avail >= 2 && buf[j] == '\r' && buf[j+1] == '\n':
			next = j + 2
		case avail >= 2 && buf[j] == '-' && buf[j+1] == '-':
			terminal = true
			next = j + 2
			// swallow the CRLF that usually follows the terminal marker
			if next < len(buf) && buf[next] == '\r' {
				next++
			}
			if next < len(buf) && buf[next] == '\n' {
				next++
			}
		case !pr.eof && avail < 2:
			// the suffix may still be on its way
			return false
		case pr.eof && avail == 0,
			pr.eof && avail == 1 && buf[j] == '-':
			// stream ends on the delimiter itself: accept it as terminal
			terminal = true
			next = len(buf)
		case pr.eof && avail == 1 && buf[j] == '\r':
			next = len(buf)
		default:
			// the token continues, e.g. "--boundaryX": not a delimiter
			off = i + 1
			continue
		}

		data := buf[:i]
		if n := len(data); n > 0 && data[n-1] == '\n' {
			data = data[:n-1]
		}
		if n := len(data); n > 0 && data[n-1] == '\r' {
			data = data[:n-1]
		}

		sc.stream.Unget(buf[next:])
		pr.pending = data
		pr.buf = nil
		pr.done = true
		if terminal {
			sc.state = scanDone
		} else {
			sc.state = scanReadingHeaders
		}

		return true
	}
}
