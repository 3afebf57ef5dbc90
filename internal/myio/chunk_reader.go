package myio

import "io"

type chunkReader struct {
	r io.Reader
	n int
}

// ChunkReader returns a Reader that yields at most n bytes per Read call,
// regardless of the buffer it is given. It is used to exercise boundary
// handling under arbitrary chunking of the input.
func ChunkReader(r io.Reader, n int) io.Reader {
	return &chunkReader{r: r, n: n}
}

func (cr *chunkReader) Read(p []byte) (int, error) {
	if len(p) > cr.n {
		p = p[:cr.n]
	}
	return cr.r.Read(p)
}
