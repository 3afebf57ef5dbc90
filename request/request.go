// Package request parses raw HTTP request bytes, head block plus body, into
// a queryable request object. It owns no socket: the caller hands it a byte
// stream it has already accepted.
package request

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	"github.com/reqstream/reqstream"
	"github.com/reqstream/reqstream/internal/lazystream"
)

var (
	// ErrInvalidRequestLine is returned when the first line is not a
	// well-formed "METHOD target HTTP/x.y".
	ErrInvalidRequestLine = errors.New("invalid request line")
	// ErrNoHost is returned when neither the request target nor a Host
	// header names the host.
	ErrNoHost = errors.New("no host in request")
	// ErrHeaderTooLarge is returned when a header line exceeds the limit.
	ErrHeaderTooLarge = lazystream.ErrLineTooLong
	// ErrBodyConsumed is returned by Body after ParseForm has read it.
	ErrBodyConsumed = errors.New("request body already consumed")
)

const defaultMaxHeaderLine = 8 << 10

// Request is one parsed HTTP request. The head block is parsed eagerly by
// Parse; the body stays on the stream until Body or ParseForm consumes it.
type Request struct {
	Method   string
	Path     string
	RawQuery string
	Proto    string
	Scheme   string
	Host     string
	Port     int
	Header   textproto.MIMEHeader

	body         *lazystream.Stream
	bodyConsumed bool

	query       url.Values
	contentType string
	ctParams    map[string]string

	postForm url.Values
	files    *reqstream.ParseResult
	parsed   bool

	config config
}

type config struct {
	maxHeaderLine int
	parserOptions []reqstream.ParserOption
}

type Option func(*config)

// WithMaxHeaderLine caps the length of a single header line in the head
// block.
// default: 8KB
func WithMaxHeaderLine(max int) Option {
	return func(c *config) {
		c.maxHeaderLine = max
	}
}

// WithParserOptions configures the multipart parser used by ParseForm.
func WithParserOptions(options ...reqstream.ParserOption) Option {
	return func(c *config) {
		c.parserOptions = append(c.parserOptions, options...)
	}
}

// Parse reads the request line and headers from r and returns a Request
// whose body is still unconsumed.
func Parse(r io.Reader, options ...Option) (*Request, error) {
	c := config{maxHeaderLine: defaultMaxHeaderLine}
	for _, opt := range options {
		opt(&c)
	}

	stream := lazystream.New(r, lazystream.DefaultChunkSize)

	line, err := readHeadLine(stream, c.maxHeaderLine)
	if err != nil {
		return nil, err
	}

	req := &Request{
		Header: make(textproto.MIMEHeader),
		body:   stream,
	}
	req.config = c

	if err := req.parseRequestLine(line); err != nil {
		return nil, err
	}
	if err := req.parseHeaders(stream, c.maxHeaderLine); err != nil {
		return nil, err
	}
	if err := req.resolveHost(); err != nil {
		return nil, err
	}

	req.query, _ = url.ParseQuery(req.RawQuery)
	if ct := req.Header.Get("Content-Type"); ct != "" {
		mediaType, params, err := mime.ParseMediaType(ct)
		if err == nil {
			req.contentType = mediaType
			req.ctParams = params
		}
	}

	return req, nil
}

func readHeadLine(stream *lazystream.Stream, max int) (string, error) {
	line, err := stream.ReadLine(max)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	if len(line) == 0 {
		return "", ErrInvalidRequestLine
	}

	return strings.TrimRight(string(line), "\r\n"), nil
}

func (r *Request) parseRequestLine(line string) error {
	method, rest, ok := strings.Cut(line, " ")
	if !ok {
		return ErrInvalidRequestLine
	}
	target, proto, ok := strings.Cut(rest, " ")
	if !ok || method == "" || target == "" {
		return ErrInvalidRequestLine
	}

	r.Method = strings.ToUpper(method)
	r.Proto = strings.TrimSpace(proto)

	u, err := url.ParseRequestURI(target)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidRequestLine, target)
	}
	r.Path = u.Path
	r.RawQuery = u.RawQuery
	if u.Scheme != "" {
		r.Scheme = strings.ToLower(u.Scheme)
	}
	if u.Host != "" {
		r.Host = u.Host
	}

	return nil
}

func (r *Request) parseHeaders(stream *lazystream.Stream, maxLine int) error {
	for {
		line, err := stream.ReadLine(maxLine)
		if err != nil {
			if errors.Is(err, io.EOF) {
				// a head block without a blank line: everything read,
				// no body follows
				return nil
			}
			return err
		}

		trimmed := strings.TrimRight(string(line), "\r\n")
		if trimmed == "" {
			return nil
		}

		name, value, ok := strings.Cut(trimmed, ":")
		if !ok {
			continue
		}
		r.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
}

func (r *Request) resolveHost() error {
	host := r.Host
	if host == "" {
		host = r.Header.Get("Host")
	}
	if host == "" {
		return ErrNoHost
	}

	if h, p, err := splitHostPort(host); err == nil && p != 0 {
		r.Host = h
		r.Port = p
		return nil
	}

	r.Host = host
	switch r.Scheme {
	case "https":
		r.Port = 443
	default:
		r.Port = 80
	}

	return nil
}

func splitHostPort(hostport string) (string, int, error) {
	i := strings.LastIndexByte(hostport, ':')
	if i < 0 || strings.Contains(hostport[i:], "]") {
		return hostport, 0, nil
	}

	port, err := strconv.Atoi(hostport[i+1:])
	if err != nil || port < 0 {
		return "", 0, fmt.Errorf("invalid port in host %q", hostport)
	}

	return hostport[:i], port, nil
}

// Query returns the parsed query string parameters.
func (r *Request) Query() url.Values {
	return r.query
}

// ContentType returns the media type of the body, without parameters.
func (r *Request) ContentType() string {
	return r.contentType
}

// ContentLength returns the Content-Length header, or -1 when absent or
// unparseable.
func (r *Request) ContentLength() int64 {
	cl := r.Header.Get("Content-Length")
	if cl == "" {
		return -1
	}
	n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
	if err != nil || n < 0 {
		return -1
	}

	return n
}

// Cookies parses the Cookie header.
func (r *Request) Cookies() []*http.Cookie {
	hr := http.Request{Header: http.Header{"Cookie": {r.Header.Get("Cookie")}}}

	return hr.Cookies()
}

// Cookie returns the named cookie, if present.
func (r *Request) Cookie(name string) (*http.Cookie, bool) {
	for _, c := range r.Cookies() {
		if c.Name == name {
			return c, true
		}
	}

	return nil, false
}

// Body returns a reader over the unconsumed request body.
func (r *Request) Body() (io.Reader, error) {
	if r.bodyConsumed {
		return nil, ErrBodyConsumed
	}

	return r.body, nil
}

// ParseForm consumes the body according to its content type. Urlencoded
// bodies become form values; multipart bodies go through the streaming
// multipart parser, yielding both values and uploaded files. Any other
// content type leaves the form empty. A failed parse leaves empty maps,
// never partial ones.
func (r *Request) ParseForm() error {
	if r.parsed {
		return nil
	}
	if r.bodyConsumed {
		return ErrBodyConsumed
	}
	r.parsed = true
	r.bodyConsumed = true
	r.postForm = make(url.Values)

	switch r.contentType {
	case "multipart/form-data":
		boundary, ok := r.ctParams["boundary"]
		if !ok {
			return http.ErrMissingBoundary
		}

		parser := reqstream.NewParser(boundary, r.config.parserOptions...)
		result, err := parser.Parse(r.body)
		if err != nil {
			return fmt.Errorf("failed to parse multipart body: %w", err)
		}

		r.files = result
		for name, values := range result.FieldMap() {
			for _, v := range values {
				value, _ := v.Unwrap()
				r.postForm.Add(name, value)
			}
		}
	case "application/x-www-form-urlencoded":
		raw, err := io.ReadAll(r.body)
		if err != nil {
			return fmt.Errorf("failed to read body: %w", err)
		}
		form, err := url.ParseQuery(string(raw))
		if err != nil {
			return fmt.Errorf("failed to parse form body: %w", err)
		}
		r.postForm = form
	}

	return nil
}

// PostForm returns the form values parsed from the body. ParseForm must
// have been called.
func (r *Request) PostForm() url.Values {
	return r.postForm
}

// FormValue returns the first form value for key, consulting the body
// first and the query string second.
func (r *Request) FormValue(key string) string {
	if vs := r.postForm[key]; len(vs) > 0 {
		return vs[0]
	}

	return r.query.Get(key)
}

// FormFile returns the first uploaded file for key. ParseForm must have
// been called on a multipart request.
func (r *Request) FormFile(key string) (*reqstream.UploadedFile, bool) {
	if r.files == nil {
		return nil, false
	}

	return r.files.File(key)
}

// Files returns the full multipart parse result, or nil for non-multipart
// requests.
func (r *Request) Files() *reqstream.ParseResult {
	return r.files
}

// Close releases temporary storage held by uploaded files.
func (r *Request) Close() error {
	if r.files == nil {
		return nil
	}

	return r.files.RemoveAll()
}
