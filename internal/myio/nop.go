// Package myio holds small io adapters shared by the parser and its tests.
package myio

import "io"

type nopSeekCloser struct {
	io.ReadSeeker
}

// NopSeekCloser gives a ReadSeeker a no-op Close, letting in-memory file
// content satisfy the same interface as an opened temp file.
func NopSeekCloser(r io.ReadSeeker) io.ReadSeekCloser {
	return nopSeekCloser{r}
}

func (nopSeekCloser) Close() error { return nil }
