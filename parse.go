package reqstream

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/reqstream/reqstream/internal/lazystream"
)

// Parse reads a multipart/form-data body from r and returns the collected
// fields and files. On any error the parse yields no result: collected
// temporary storage is released and handlers are told to abort, so callers
// never observe a half-parsed form.
func (p *Parser) Parse(r io.Reader) (result *ParseResult, err error) {
	if !validBoundary(p.boundary) {
		return nil, ErrInvalidBoundary
	}

	res := newParseResult()
	defer func() {
		if err == nil {
			return
		}
		for _, h := range p.handlers {
			if abortErr := h.Abort(); abortErr != nil {
				p.logger.Warn("failed to abort upload handler", "error", abortErr)
			}
		}
		if removeErr := res.RemoveAll(); removeErr != nil {
			p.logger.Warn("failed to remove stored files", "error", removeErr)
		}
	}()

	stream := lazystream.New(r, p.chunkSize)
	sc := newPartScanner(stream, p.boundary, p.chunkSize)

	var count uint
	for {
		more, err := sc.next()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}

		mimeHeader, err := readPartHeaders(stream, sc.delim, p.maxLineLength)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				return nil, ErrBoundaryNotFound
			case errors.Is(err, ErrLineTooLong), isMalformed(err):
				if p.strict {
					return nil, err
				}
				p.logger.Warn("skipping part with unusable headers", "error", err)
				if err := sc.bodyReader().drain(); err != nil {
					return nil, err
				}
				continue
			default:
				return nil, err
			}
		}

		header := newHeader(mimeHeader)
		if header.Name() == "" {
			err := MalformedPartError{Reason: "form-data part without a name"}
			if p.strict {
				return nil, err
			}
			p.logger.Warn("skipping part", "error", err)
			if err := sc.bodyReader().drain(); err != nil {
				return nil, err
			}
			continue
		}

		count++
		if count > p.maxFields {
			return nil, ErrTooManyFields
		}

		body := sc.bodyReader()
		if header.FileName() == "" {
			value, err := p.readFieldValue(body, header)
			if err != nil {
				return nil, err
			}
			res.addField(header.Name(), FieldValue{value: value, header: header})
			p.logger.Debug("parsed field", "name", header.Name())
			continue
		}

		file, err := p.runPipeline(body, header)
		switch {
		case errors.Is(err, ErrSkipPart):
			p.logger.Debug("handler skipped file part", "name", header.Name())
			continue
		case err != nil:
			return nil, err
		case file != nil:
			res.addFile(header.Name(), file)
			p.logger.Debug("stored file part",
				"name", header.Name(), "filename", file.FileName(), "size", file.Size())
		}
	}

	for _, h := range p.handlers {
		if err := h.UploadComplete(); err != nil {
			return nil, fmt.Errorf("failed to complete upload: %w", err)
		}
	}

	// drain any epilogue so the caller's stream is left fully consumed
	if err := stream.Exhaust(); err != nil {
		return nil, fmt.Errorf("failed to drain stream: %w", err)
	}

	return res, nil
}

func isMalformed(err error) bool {
	var malformed MalformedPartError
	return errors.As(err, &malformed)
}

// readFieldValue consumes a non-file part and decodes it to text: base64
// transfer encoding first (raw bytes on a failed decode), then the part's
// charset with replacement fallback.
func (p *Parser) readFieldValue(body io.Reader, header Header) (string, error) {
	limit := int64(p.maxFieldSize)

	buf := new(bytes.Buffer)
	n, err := io.CopyN(buf, body, limit+1)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if n > limit {
		return "", ErrFieldTooLarge
	}

	raw := buf.Bytes()
	if header.TransferEncoding() == "base64" {
		if decoded, err := base64.StdEncoding.DecodeString(string(stripWhitespace(raw))); err == nil {
			raw = decoded
		}
	}

	charset := header.Charset()
	if charset == "" {
		charset = p.charset
	}

	return decodeTextBestEffort(raw, charset), nil
}

// runPipeline feeds one file part through the handler chain. It returns the
// UploadedFile produced by whichever handler owned the part, nil when every
// handler passed, ErrSkipPart when a handler discarded the part, or an
// error that aborts the parse.
func (p *Parser) runPipeline(body io.Reader, header Header) (*UploadedFile, error) {
	for _, h := range p.handlers {
		rh, ok := h.(RawPartHandler)
		if !ok {
			continue
		}
		file, err := rh.HandleRawPart(body, header)
		if err != nil {
			return nil, fmt.Errorf("upload handler failed on raw part: %w", err)
		}
		if file != nil {
			return file, nil
		}
	}

	active := p.handlers
	for i, h := range p.handlers {
		err := h.NewFile(header)
		switch {
		case errors.Is(err, ErrStopPipeline):
			active = p.handlers[:i+1]
		case errors.Is(err, ErrSkipPart):
			return nil, ErrSkipPart
		case err != nil:
			return nil, fmt.Errorf("upload handler failed to start file: %w", err)
		default:
			continue
		}
		break
	}

	var b64 *base64Chunker
	if header.TransferEncoding() == "base64" {
		b64 = &base64Chunker{}
	}

	var size int64
	chunkBuf := make([]byte, p.chunkSize)
	for {
		n, readErr := body.Read(chunkBuf)
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, readErr
		}
		final := errors.Is(readErr, io.EOF)

		chunk := chunkBuf[:n]
		if b64 != nil {
			decoded, err := b64.decode(chunk, final)
			if err != nil {
				return nil, fmt.Errorf("failed to decode base64 part: %w", err)
			}
			chunk = decoded
		}

		size += int64(len(chunk))
		if len(chunk) > 0 {
			feed := chunk
			for _, h := range active {
				rest, err := h.ReceiveDataChunk(feed)
				switch {
				case errors.Is(err, ErrSkipPart):
					return nil, ErrSkipPart
				case errors.Is(err, ErrAbortUpload):
					return nil, ErrAbortUpload
				case err != nil:
					return nil, fmt.Errorf("upload handler failed to store chunk: %w", err)
				}
				if rest == nil {
					break
				}
				feed = rest
			}
		}

		if final {
			break
		}
	}

	for _, h := range active {
		file, err := h.FileComplete(size)
		if err != nil {
			return nil, fmt.Errorf("upload handler failed to complete file: %w", err)
		}
		if file != nil {
			return file, nil
		}
	}

	return nil, nil
}

// base64Chunker decodes a base64 stream chunk by chunk, carrying the bytes
// that do not yet fill a 4-byte quantum over to the next chunk.
type base64Chunker struct {
	carry []byte
}

func (d *base64Chunker) decode(chunk []byte, final bool) ([]byte, error) {
	compact := append(d.carry, stripWhitespace(chunk)...)

	keep := 0
	if !final {
		keep = len(compact) % 4
	}
	head := compact[:len(compact)-keep]
	d.carry = append([]byte(nil), compact[len(compact)-keep:]...)

	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(head)))
	n, err := base64.StdEncoding.Decode(decoded, head)
	if err != nil {
		return nil, err
	}

	return decoded[:n], nil
}

func stripWhitespace(b []byte) []byte {
	stripped := make([]byte, 0, len(b))
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r', '\n':
		default:
			stripped = append(stripped, c)
		}
	}

	return stripped
}
