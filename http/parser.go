package httpform

import (
	"io"
	"mime"
	"net/http"

	"github.com/reqstream/reqstream"
)

type Parser struct {
	*reqstream.Parser
	reader io.Reader
}

func NewParser(req *http.Request, options ...reqstream.ParserOption) (*Parser, error) {
	contentType := req.Header.Get("Content-Type")
	d, params, err := mime.ParseMediaType(contentType)
	if err != nil || d != "multipart/form-data" {
		return nil, http.ErrNotMultipart
	}

	boundary, ok := params["boundary"]
	if !ok {
		return nil, http.ErrMissingBoundary
	}

	return &Parser{
		Parser: reqstream.NewParser(boundary, options...),
		reader: req.Body,
	}, nil
}

func (p *Parser) Parse() (*reqstream.ParseResult, error) {
	return p.Parser.Parse(p.reader)
}
