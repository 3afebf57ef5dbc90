package reqstream

import (
	"errors"
	"io"
	"net/textproto"
	"strings"
	"testing"

	"github.com/reqstream/reqstream/internal/lazystream"
)

func TestParseHeaderValue(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input  string
		main   string
		params map[string]string
	}{
		"plain params": {
			input: `form-data; name="field"`,
			main:  "form-data",
			params: map[string]string{
				"name": "field",
			},
		},
		"unquoted param": {
			input: "form-data; name=field",
			main:  "form-data",
			params: map[string]string{
				"name": "field",
			},
		},
		"quoted value with semicolon": {
			input: `form-data; name="a;b"; filename="c.txt"`,
			main:  "form-data",
			params: map[string]string{
				"name":     "a;b",
				"filename": "c.txt",
			},
		},
		"quoted value with escapes": {
			input: `form-data; filename="say \"hi\" \\ bye"`,
			main:  "form-data",
			params: map[string]string{
				"filename": `say "hi" \ bye`,
			},
		},
		"extended value wins over plain": {
			input: `form-data; filename="fallback.txt"; filename*=UTF-8''caf%C3%A9.txt`,
			main:  "form-data",
			params: map[string]string{
				"filename": "café.txt",
			},
		},
		"extended value order independent": {
			input: `form-data; filename*=UTF-8''caf%C3%A9.txt; filename="fallback.txt"`,
			main:  "form-data",
			params: map[string]string{
				"filename": "café.txt",
			},
		},
		"undecodable extended falls back to plain": {
			input: `form-data; filename="fallback.txt"; filename*=bogus-charset''x%ZZ`,
			main:  "form-data",
			params: map[string]string{
				"filename": "fallback.txt",
			},
		},
		"undecodable extended without plain keeps raw": {
			input: "form-data; filename*=nocharset",
			main:  "form-data",
			params: map[string]string{
				"filename": "nocharset",
			},
		},
		"extended latin-1": {
			input: "form-data; filename*=iso-8859-1''caf%E9.txt",
			main:  "form-data",
			params: map[string]string{
				"filename": "café.txt",
			},
		},
		"extended with language tag": {
			input: "form-data; filename*=UTF-8'en'hello.txt",
			main:  "form-data",
			params: map[string]string{
				"filename": "hello.txt",
			},
		},
		"case insensitive names": {
			input: `Form-Data; NAME="field"`,
			main:  "form-data",
			params: map[string]string{
				"name": "field",
			},
		},
		"empty": {
			input:  "",
			main:   "",
			params: map[string]string{},
		},
	}

	for name, tt := range tests {

		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			main, params := parseHeaderValue(tt.input)
			if main != tt.main {
				t.Errorf("main value is wrong: expected: %q, actual: %q", tt.main, main)
			}
			if len(params) != len(tt.params) {
				t.Errorf("param count is wrong: expected: %d, actual: %d", len(tt.params), len(params))
			}
			for key, want := range tt.params {
				if got := params[key]; got != want {
					t.Errorf("param %s is wrong: expected: %q, actual: %q", key, want, got)
				}
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input    string
		expected string
	}{
		"plain":              {"report.pdf", "report.pdf"},
		"windows path":       {`C:\Users\me\report.pdf`, "report.pdf"},
		"unix path":          {"/home/me/report.pdf", "report.pdf"},
		"mixed separators":   {`C:\dir/sub\report.pdf`, "report.pdf"},
		"html entities":      {"a&amp;b.txt", "a&b.txt"},
		"surrounding spaces": {"  report.pdf  ", "report.pdf"},
		"empty":              {"", ""},
	}

	for name, tt := range tests {

		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := sanitizeFileName(tt.input); got != tt.expected {
				t.Errorf("sanitized name is wrong: expected: %q, actual: %q", tt.expected, got)
			}
		})
	}
}

func TestNewHeader(t *testing.T) {
	t.Parallel()

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="upload"; filename="photo.jpg"`)
	h.Set("Content-Type", "image/jpeg; charset=utf-8")
	h.Set("Content-Transfer-Encoding", "Base64")
	h.Set("Content-Length", "1024")

	header := newHeader(h)

	if header.Name() != "upload" {
		t.Errorf("name is wrong: expected: upload, actual: %s", header.Name())
	}
	if header.FileName() != "photo.jpg" {
		t.Errorf("file name is wrong: expected: photo.jpg, actual: %s", header.FileName())
	}
	if header.ContentType() != "image/jpeg" {
		t.Errorf("content type is wrong: expected: image/jpeg, actual: %s", header.ContentType())
	}
	if header.Charset() != "utf-8" {
		t.Errorf("charset is wrong: expected: utf-8, actual: %s", header.Charset())
	}
	if header.TransferEncoding() != "base64" {
		t.Errorf("transfer encoding is wrong: expected: base64, actual: %s", header.TransferEncoding())
	}
	if header.ContentLength() != 1024 {
		t.Errorf("content length is wrong: expected: 1024, actual: %d", header.ContentLength())
	}
	if header.Get("Content-Type") != "image/jpeg; charset=utf-8" {
		t.Errorf("raw header is wrong: actual: %s", header.Get("Content-Type"))
	}
}

func TestNewHeaderDefaults(t *testing.T) {
	t.Parallel()

	header := newHeader(make(textproto.MIMEHeader))

	if header.Name() != "" {
		t.Errorf("name is wrong: expected empty, actual: %s", header.Name())
	}
	if header.FileName() != "" {
		t.Errorf("file name is wrong: expected empty, actual: %s", header.FileName())
	}
	if header.ContentType() != "" {
		t.Errorf("content type is wrong: expected empty, actual: %s", header.ContentType())
	}
	if header.ContentLength() != -1 {
		t.Errorf("content length is wrong: expected: -1, actual: %d", header.ContentLength())
	}
}

func TestNewHeaderLenientContentType(t *testing.T) {
	t.Parallel()

	// a media type mime.ParseMediaType rejects should still be usable
	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", `text/plain; charset="utf-8`)

	header := newHeader(h)
	if header.ContentType() != "text/plain" {
		t.Errorf("content type is wrong: expected: text/plain, actual: %s", header.ContentType())
	}
}

func TestReadPartHeaders(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input    string
		expected map[string]string
		rest     string
	}{
		"crlf terminated block": {
			input: "Content-Disposition: form-data; name=\"a\"\r\n" +
				"Content-Type: text/plain\r\n" +
				"\r\n" +
				"body",
			expected: map[string]string{
				"Content-Disposition": `form-data; name="a"`,
				"Content-Type":        "text/plain",
			},
			rest: "body",
		},
		"bare lf block": {
			input: "Content-Disposition: form-data; name=\"a\"\n" +
				"\n" +
				"body",
			expected: map[string]string{
				"Content-Disposition": `form-data; name="a"`,
			},
			rest: "body",
		},
		"line without colon is skipped": {
			input: "garbage line\r\n" +
				"Content-Type: text/plain\r\n" +
				"\r\n",
			expected: map[string]string{
				"Content-Type": "text/plain",
			},
		},
		"boundary without blank line ends the block": {
			input: "Content-Type: text/plain\r\n" +
				"--token\r\n",
			expected: map[string]string{
				"Content-Type": "text/plain",
			},
			rest: "--token\r\n",
		},
	}

	for name, tt := range tests {

		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			st := lazystream.New(strings.NewReader(tt.input), 16)
			header, err := readPartHeaders(st, []byte("--token"), 1024)
			if err != nil {
				t.Fatalf("unexpected error: %s", err)
			}

			for key, want := range tt.expected {
				if got := header.Get(key); got != want {
					t.Errorf("header %s is wrong: expected: %q, actual: %q", key, want, got)
				}
			}
			if len(header) != len(tt.expected) {
				t.Errorf("header count is wrong: expected: %d, actual: %d", len(tt.expected), len(header))
			}

			rest, err := io.ReadAll(st)
			if err != nil {
				t.Fatalf("failed to read rest: %s", err)
			}
			if string(rest) != tt.rest {
				t.Errorf("remaining stream is wrong: expected: %q, actual: %q", tt.rest, rest)
			}
		})
	}
}

func TestReadPartHeadersLimits(t *testing.T) {
	t.Parallel()

	t.Run("line too long", func(t *testing.T) {
		t.Parallel()

		st := lazystream.New(strings.NewReader("Header: "+strings.Repeat("a", 100)+"\r\n\r\n"), 16)
		_, err := readPartHeaders(st, []byte("--token"), 32)
		if !errors.Is(err, ErrLineTooLong) {
			t.Errorf("error is wrong: expected: %v, actual: %v", ErrLineTooLong, err)
		}
	})

	t.Run("too many header lines", func(t *testing.T) {
		t.Parallel()

		block := strings.Repeat("X-Junk: v\r\n", maxPartHeaders+1)
		st := lazystream.New(strings.NewReader(block), 64)
		_, err := readPartHeaders(st, []byte("--token"), 1024)

		var malformed MalformedPartError
		if !errors.As(err, &malformed) {
			t.Errorf("error is wrong: expected MalformedPartError, actual: %v", err)
		}
	})

	t.Run("eof before blank line", func(t *testing.T) {
		t.Parallel()

		st := lazystream.New(strings.NewReader("Content-Type: text/plain\r\n"), 16)
		_, err := readPartHeaders(st, []byte("--token"), 1024)
		if !errors.Is(err, io.EOF) {
			t.Errorf("error is wrong: expected: %v, actual: %v", io.EOF, err)
		}
	})
}

func TestDecodeCharset(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input    []byte
		charset  string
		expected string
		ok       bool
	}{
		"utf-8":              {[]byte("héllo"), "utf-8", "héllo", true},
		"utf-8 alias":        {[]byte("hello"), "UTF8", "hello", true},
		"empty charset":      {[]byte("hello"), "", "hello", true},
		"ascii":              {[]byte("hello"), "us-ascii", "hello", true},
		"invalid utf-8":      {[]byte{0xFF}, "utf-8", "", false},
		"latin-1":            {[]byte{0xE9}, "iso-8859-1", "é", true},
		"windows-1252":       {[]byte{0x93, 0x94}, "windows-1252", "\u201c\u201d", true},
		"shift_jis":          {[]byte{0x82, 0xA0}, "shift_jis", "あ", true},
		"unknown charset":    {[]byte("hello"), "no-such-charset", "", false},
		"latin-1 high bytes": {[]byte{0xFC, 0xDF}, "iso-8859-1", "üß", true},
	}

	for name, tt := range tests {

		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, ok := decodeCharset(tt.input, tt.charset)
			if ok != tt.ok {
				t.Fatalf("ok is wrong: expected: %t, actual: %t", tt.ok, ok)
			}
			if got != tt.expected {
				t.Errorf("decoded value is wrong: expected: %q, actual: %q", tt.expected, got)
			}
		})
	}
}

func TestDecodeTextBestEffort(t *testing.T) {
	t.Parallel()

	if got := decodeTextBestEffort([]byte("plain"), "utf-8"); got != "plain" {
		t.Errorf("decoded value is wrong: expected: plain, actual: %q", got)
	}
	if got := decodeTextBestEffort([]byte{'a', 0xFF, 'b'}, "utf-8"); got != "a�b" {
		t.Errorf("decoded value is wrong: expected: a�b, actual: %q", got)
	}
	if got := decodeTextBestEffort([]byte{0xE9}, "no-such-charset"); got != "�" {
		t.Errorf("decoded value is wrong: expected: �, actual: %q", got)
	}
}
