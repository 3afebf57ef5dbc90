package reqstream

import (
	"html"
	"mime"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/htmlindex"

	"github.com/reqstream/reqstream/internal/lazystream"
)

// headers per part are capped to keep an adversarial stream from growing
// the header map without bound
const maxPartHeaders = 1000

// Header describes one part of a multipart body: the Content-Disposition
// parameters plus the part's Content-Type and transfer encoding.
type Header struct {
	dispositionParams map[string]string
	contentType       string
	contentTypeParams map[string]string
	transferEncoding  string
	contentLength     int64
	header            textproto.MIMEHeader
}

// NewHeader builds a Header from a raw MIME header block. The parser builds
// headers itself during a parse; NewHeader exists so custom upload handlers
// can be exercised without one.
func NewHeader(h textproto.MIMEHeader) Header {
	return newHeader(h)
}

func newHeader(h textproto.MIMEHeader) Header {
	_, dispositionParams := parseHeaderValue(h.Get("Content-Disposition"))

	rawContentType := h.Get("Content-Type")
	contentType, contentTypeParams, err := mime.ParseMediaType(rawContentType)
	if err != nil {
		contentType, contentTypeParams = parseHeaderValue(rawContentType)
	}
	if rawContentType == "" {
		contentType = ""
	}

	contentLength := int64(-1)
	if cl := h.Get("Content-Length"); cl != "" {
		if n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64); err == nil && n >= 0 {
			contentLength = n
		}
	}

	return Header{
		dispositionParams: dispositionParams,
		contentType:       contentType,
		contentTypeParams: contentTypeParams,
		transferEncoding:  strings.ToLower(strings.TrimSpace(h.Get("Content-Transfer-Encoding"))),
		contentLength:     contentLength,
		header:            h,
	}
}

// Get returns the first value associated with the given key.
// If there are no values associated with the key, Get returns "".
func (h Header) Get(key string) string {
	return h.header.Get(key)
}

// Name returns the value of the "name" parameter in the "Content-Disposition"
// header field. If there are no values associated with the key, Name returns "".
func (h Header) Name() string {
	return strings.TrimSpace(h.dispositionParams["name"])
}

// FileName returns the "filename" parameter of the "Content-Disposition"
// header field, RFC 2231-decoded where possible and stripped of any
// client-side directory path.
func (h Header) FileName() string {
	return sanitizeFileName(h.dispositionParams["filename"])
}

// ContentType returns the media type of the part, without parameters.
// If the part carries no Content-Type header, ContentType returns "".
func (h Header) ContentType() string {
	return h.contentType
}

// ContentTypeParam returns a parameter of the part's Content-Type header,
// e.g. "charset".
func (h Header) ContentTypeParam(key string) string {
	return h.contentTypeParams[key]
}

// Charset returns the charset parameter of the part's Content-Type header.
func (h Header) Charset() string {
	return h.contentTypeParams["charset"]
}

// TransferEncoding returns the lower-cased Content-Transfer-Encoding of the
// part, e.g. "base64". Empty when absent.
func (h Header) TransferEncoding() string {
	return h.transferEncoding
}

// ContentLength returns the Content-Length header of the part, or -1 when
// absent. The value comes from the client and must not be trusted.
func (h Header) ContentLength() int64 {
	return h.contentLength
}

// sanitizeFileName unescapes HTML entities and drops the directory portion
// some clients (notably old IE) send as part of the filename.
func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	name = html.UnescapeString(name)
	if i := strings.LastIndexByte(name, '\\'); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	return strings.TrimSpace(name)
}

// readPartHeaders reads the header block of a part, terminated by a blank
// line. It tolerates bare-LF line endings and skips unparseable lines. A
// line that turns out to be the next boundary is pushed back so boundary
// tracking stays in sync.
func readPartHeaders(st *lazystream.Stream, boundary []byte, maxLine int) (textproto.MIMEHeader, error) {
	header := make(textproto.MIMEHeader)
	for i := 0; i < maxPartHeaders; i++ {
		line, err := st.ReadLine(maxLine)
		if err != nil {
			return header, err
		}

		trimmed := strings.TrimRight(string(line), "\r\n")
		if trimmed == "" {
			return header, nil
		}
		if strings.HasPrefix(trimmed, string(boundary)) {
			// no blank line before the next boundary: treat the header
			// block as finished and leave the boundary for the scanner
			st.Unget(line)
			return header, nil
		}

		name, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	return header, MalformedPartError{Reason: "too many header lines"}
}

// parseHeaderValue parses a header value of the form
// "main; key=value; key*=charset''escaped" into its main value and a
// parameter map. It is deliberately lenient: quoting errors and undecodable
// RFC 2231 values degrade instead of failing.
//
// For an extended (RFC 2231/5987) parameter the decoded value wins; if
// decoding fails the plain parameter of the same name is used, and if none
// exists the raw undecoded value is kept.
func parseHeaderValue(v string) (string, map[string]string) {
	params := make(map[string]string)
	if v == "" {
		return "", params
	}

	segments := splitParams(v)
	main := strings.ToLower(strings.TrimSpace(segments[0]))

	extDecoded := make(map[string]string)
	extRaw := make(map[string]string)
	for _, segment := range segments[1:] {
		name, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)

		if strings.HasSuffix(name, "*") {
			name = strings.TrimSuffix(name, "*")
			if decoded, ok := decodeExtValue(value); ok {
				extDecoded[name] = decoded
			} else {
				extRaw[name] = unquote(value)
			}
			continue
		}

		params[name] = unquote(value)
	}

	for name, value := range extDecoded {
		params[name] = value
	}
	for name, value := range extRaw {
		if _, ok := params[name]; !ok {
			params[name] = value
		}
	}
	return main, params
}

// splitParams splits a parameter list on ';', ignoring separators inside
// double-quoted strings.
func splitParams(v string) []string {
	var segments []string
	var inQuotes, escaped bool
	start := 0
	for i := 0; i < len(v); i++ {
		switch {
		case escaped:
			escaped = false
		case v[i] == '\\' && inQuotes:
			escaped = true
		case v[i] == '"':
			inQuotes = !inQuotes
		case v[i] == ';' && !inQuotes:
			segments = append(segments, v[start:i])
			start = i + 1
		}
	}
	segments = append(segments, v[start:])

	return segments
}

// unquote strips surrounding double quotes and unescapes \\ and \".
func unquote(v string) string {
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
		v = strings.ReplaceAll(v, `\\`, `\`)
		v = strings.ReplaceAll(v, `\"`, `"`)
	}

	return v
}

// decodeExtValue decodes an RFC 2231/5987 extended value of the form
// charset'lang'percent-escaped.
func decodeExtValue(v string) (string, bool) {
	charsetName, rest, ok := strings.Cut(v, "'")
	if !ok {
		return "", false
	}
	_, escaped, ok := strings.Cut(rest, "'")
	if !ok {
		return "", false
	}

	raw, err := url.PathUnescape(escaped)
	if err != nil {
		return "", false
	}

	return decodeCharset([]byte(raw), charsetName)
}

// decodeCharset interprets b in the named charset. ok is false when the
// charset is unknown or b is not valid in it.
func decodeCharset(b []byte, name string) (string, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "utf-8" || name == "utf8" || name == "us-ascii" || name == "ascii" {
		if !utf8.Valid(b) {
			return "", false
		}
		return string(b), true
	}

	enc, err := htmlindex.Get(name)
	if err != nil {
		return "", false
	}
	decoded, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", false
	}

	return string(decoded), true
}

// decodeTextBestEffort decodes b in the named charset, replacing anything
// undecodable instead of failing. Used for field values, where salvaging
// client data beats strictness.
func decodeTextBestEffort(b []byte, name string) string {
	if s, ok := decodeCharset(b, name); ok {
		return s
	}

	return strings.ToValidUTF8(string(b), "�")
}
