package reqstream

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/reqstream/reqstream/internal/myio"
)

// UploadedFile is the stored result of one file part. Its content lives
// either in memory or in a temporary file, depending on which handler
// claimed the part. Once Parse returns successfully the caller owns the
// file; temporary storage is released via Remove or ParseResult.RemoveAll.
type UploadedFile struct {
	fieldName   string
	fileName    string
	contentType string
	size        int64
	header      Header

	content  []byte
	tmpPath  string
	location string
}

// NewMemoryUploadedFile builds an UploadedFile backed by an in-memory buffer.
func NewMemoryUploadedFile(header Header, content []byte) *UploadedFile {
	return &UploadedFile{
		fieldName:   header.Name(),
		fileName:    header.FileName(),
		contentType: header.ContentType(),
		size:        int64(len(content)),
		header:      header,
		content:     content,
	}
}

// NewTempUploadedFile builds an UploadedFile backed by a file on disk.
func NewTempUploadedFile(header Header, path string, size int64) *UploadedFile {
	return &UploadedFile{
		fieldName:   header.Name(),
		fileName:    header.FileName(),
		contentType: header.ContentType(),
		size:        size,
		header:      header,
		tmpPath:     path,
	}
}

// NewExternalUploadedFile records a file a custom handler stored outside
// the parser's own storage, e.g. in an object store. location is the
// backend-specific address of the content; Open and Bytes are unavailable
// for such files.
func NewExternalUploadedFile(header Header, location string, size int64) *UploadedFile {
	return &UploadedFile{
		fieldName:   header.Name(),
		fileName:    header.FileName(),
		contentType: header.ContentType(),
		size:        size,
		header:      header,
		location:    location,
	}
}

// ErrExternalContent is returned by Open and Bytes for files stored by a
// custom handler outside the parser's own storage.
var ErrExternalContent = errors.New("content stored externally")

// FieldName returns the form field the file was submitted under.
func (f *UploadedFile) FieldName() string { return f.fieldName }

// FileName returns the client-supplied file name, sanitized.
func (f *UploadedFile) FileName() string { return f.fileName }

// ContentType returns the declared media type of the file.
func (f *UploadedFile) ContentType() string { return f.contentType }

// Size returns the stored size in bytes.
func (f *UploadedFile) Size() int64 { return f.size }

// Header returns the full part header the file was parsed from.
func (f *UploadedFile) Header() Header { return f.header }

// InMemory reports whether the content is held in memory.
func (f *UploadedFile) InMemory() bool { return f.tmpPath == "" && f.location == "" }

// Location returns the backend-specific address of externally stored
// content, or "" for files the parser stores itself.
func (f *UploadedFile) Location() string { return f.location }

// Open returns a reader over the stored content. Disk-backed files may be
// opened multiple times; the caller closes each reader.
func (f *UploadedFile) Open() (io.ReadSeekCloser, error) {
	if f.location != "" {
		return nil, ErrExternalContent
	}
	if f.InMemory() {
		return myio.NopSeekCloser(bytes.NewReader(f.content)), nil
	}

	file, err := os.Open(f.tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}

	return file, nil
}

// Bytes reads the whole content into memory.
func (f *UploadedFile) Bytes() ([]byte, error) {
	if f.location != "" {
		return nil, ErrExternalContent
	}
	if f.InMemory() {
		return f.content, nil
	}

	b, err := os.ReadFile(f.tmpPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read stored file: %w", err)
	}

	return b, nil
}

// TempPath returns the path of the backing temporary file, or "" for
// in-memory content.
func (f *UploadedFile) TempPath() string { return f.tmpPath }

// Remove releases the backing temporary storage, if any.
func (f *UploadedFile) Remove() error {
	if f.tmpPath == "" {
		return nil
	}

	err := os.Remove(f.tmpPath)
	f.tmpPath = ""
	f.content = nil
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove stored file: %w", err)
	}

	return nil
}
