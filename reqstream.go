package reqstream

import (
	"io"
	"log/slog"
)

// Parser parses one multipart/form-data body. A Parser holds per-parse
// state (limits, handler instances), so create a new one for every request.
type Parser struct {
	boundary string
	handlers []UploadHandler
	parserConfig
}

func NewParser(boundary string, options ...ParserOption) *Parser {
	c := parserConfig{
		maxFields:     defaultMaxFields,
		maxFieldSize:  defaultMaxFieldSize,
		maxMemSize:    defaultMaxMemSize,
		maxLineLength: defaultMaxLineLength,
		chunkSize:     defaultChunkSize,
		charset:       defaultCharset,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		opt(&c)
	}

	p := &Parser{
		boundary:     boundary,
		handlers:     c.handlers,
		parserConfig: c,
	}
	if len(p.handlers) == 0 {
		p.handlers = []UploadHandler{
			NewMemoryHandler(c.maxMemSize),
			NewTemporaryFileHandler(c.tempDir),
		}
	}

	return p
}

type parserConfig struct {
	maxFields     uint
	maxFieldSize  DataSize
	maxMemSize    DataSize
	maxLineLength int
	chunkSize     int
	charset       string
	strict        bool
	tempDir       string
	handlers      []UploadHandler
	logger        *slog.Logger
}

type ParserOption func(*parserConfig)

type DataSize int64

const (
	_ DataSize = 1 << (iota * 10)
	KB
	MB
	GB
)

const (
	defaultMaxFields     = 10000
	defaultMaxFieldSize  = 2 * MB
	defaultMaxMemSize    = 32 * MB
	defaultMaxLineLength = int(8 * KB)
	defaultChunkSize     = int(64 * KB)
	defaultCharset       = "utf-8"
)

// WithMaxFields sets the maximum number of fields and files combined.
// Exceeding it aborts the parse.
// default: 10000
func WithMaxFields(maxFields uint) ParserOption {
	return func(c *parserConfig) {
		c.maxFields = maxFields
	}
}

// WithMaxFieldSize sets the maximum decoded size of a single non-file field.
// default: 2MB
func WithMaxFieldSize(maxFieldSize DataSize) ParserOption {
	return func(c *parserConfig) {
		c.maxFieldSize = maxFieldSize
	}
}

// WithMaxMemSize sets the maximum memory used to hold file contents before
// the default handler chain falls back to temporary files.
// default: 32MB
func WithMaxMemSize(maxMemSize DataSize) ParserOption {
	return func(c *parserConfig) {
		c.maxMemSize = maxMemSize
	}
}

// WithMaxLineLength caps the length of a single part header line.
// default: 8KB
func WithMaxLineLength(maxLineLength int) ParserOption {
	return func(c *parserConfig) {
		c.maxLineLength = maxLineLength
	}
}

// WithChunkSize sets the read size against the underlying stream.
// default: 64KB
func WithChunkSize(chunkSize int) ParserOption {
	return func(c *parserConfig) {
		c.chunkSize = chunkSize
	}
}

// WithCharset sets the charset used to decode field values when a part does
// not declare one.
// default: utf-8
func WithCharset(charset string) ParserOption {
	return func(c *parserConfig) {
		c.charset = charset
	}
}

// WithStrict makes malformed parts (missing name, over-long header lines)
// fail the whole parse instead of being skipped.
func WithStrict() ParserOption {
	return func(c *parserConfig) {
		c.strict = true
	}
}

// WithTempDir sets the directory used by the default TemporaryFileHandler.
// An empty string selects os.TempDir.
func WithTempDir(dir string) ParserOption {
	return func(c *parserConfig) {
		c.tempDir = dir
	}
}

// WithHandlers replaces the default upload handler chain
// (MemoryHandler then TemporaryFileHandler). Handlers are tried in order
// for every file part.
func WithHandlers(handlers ...UploadHandler) ParserOption {
	return func(c *parserConfig) {
		c.handlers = handlers
	}
}

// WithLogger sets the logger used for parse diagnostics. Logging is off by
// default.
func WithLogger(logger *slog.Logger) ParserOption {
	return func(c *parserConfig) {
		c.logger = logger
	}
}
