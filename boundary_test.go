package reqstream

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/reqstream/reqstream/internal/lazystream"
	"github.com/reqstream/reqstream/internal/myio"
)

func TestValidBoundary(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		token string
		valid bool
	}{
		"alphanumeric":        {"boundaryABC123", true},
		"allowed punctuation": {"a'()+_,-./:=?b", true},
		"inner space":         {"a b", true},
		"trailing space":      {"ab ", false},
		"empty":               {"", false},
		"too long":            {strings.Repeat("a", 71), false},
		"max length":          {strings.Repeat("a", 70), true},
		"curly brace":         {"not{valid}", false},
		"control byte":        {"ab\x01", false},
	}

	for name, tt := range tests {

		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			if got := validBoundary(tt.token); got != tt.valid {
				t.Errorf("validity is wrong: expected: %t, actual: %t", tt.valid, got)
			}
		})
	}
}

// scanParts runs the scanner over input and collects every part's raw
// payload, header block included.
func scanParts(t *testing.T, input string, chunkSize int) ([]string, error) {
	t.Helper()

	stream := lazystream.New(strings.NewReader(input), chunkSize)
	sc := newPartScanner(stream, "token", chunkSize)

	var parts []string
	for {
		more, err := sc.next()
		if err != nil {
			return parts, err
		}
		if !more {
			return parts, nil
		}

		body, err := io.ReadAll(sc.bodyReader())
		if err != nil {
			return parts, err
		}
		parts = append(parts, string(body))
	}
}

func TestPartScanner(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input    string
		expected []string
	}{
		"two parts": {
			input:    "--token\r\nAAA\r\n--token\r\nBBB\r\n--token--\r\n",
			expected: []string{"AAA", "BBB"},
		},
		"preamble discarded": {
			input:    "preamble text\r\n--token\r\nAAA\r\n--token--",
			expected: []string{"AAA"},
		},
		"epilogue discarded": {
			input:    "--token\r\nAAA\r\n--token--\r\ntrailing junk",
			expected: []string{"AAA"},
		},
		"bare lf separators": {
			input:    "--token\nAAA\n--token\nBBB\n--token--\n",
			expected: []string{"AAA", "BBB"},
		},
		"terminal at eof": {
			input:    "--token\r\nAAA\r\n--token--",
			expected: []string{"AAA"},
		},
		"delimiter at eof treated as terminal": {
			input:    "--token\r\nAAA\r\n--token",
			expected: []string{"AAA"},
		},
		"half terminal at eof": {
			input:    "--token\r\nAAA\r\n--token-",
			expected: []string{"AAA"},
		},
		"empty part": {
			input:    "--token\r\n\r\n--token--",
			expected: []string{""},
		},
		"token prefix in body": {
			input:    "--token\r\n--tokenish is data\r\n--token--",
			expected: []string{"--tokenish is data"},
		},
		"body contains bare cr": {
			input:    "--token\r\nAAA\rBBB\r\n--token--",
			expected: []string{"AAA\rBBB"},
		},
	}

	for name, tt := range tests {

		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			for _, chunkSize := range []int{1, 2, 3, 7, 64, 4096} {
				parts, err := scanParts(t, tt.input, chunkSize)
				if err != nil {
					t.Fatalf("chunk size %d: unexpected error: %s", chunkSize, err)
				}
				if len(parts) != len(tt.expected) {
					t.Fatalf("chunk size %d: part count is wrong: expected: %d, actual: %d",
						chunkSize, len(tt.expected), len(parts))
				}
				for i, want := range tt.expected {
					if parts[i] != want {
						t.Errorf("chunk size %d: part %d is wrong: expected: %q, actual: %q",
							chunkSize, i, want, parts[i])
					}
				}
			}
		})
	}
}

func TestPartScannerTruncated(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no boundary":       "no delimiter here",
		"mid part":          "--token\r\nAAA",
		"partial delimiter": "--token\r\nAAA\r\n--tok",
	}

	for name, input := range tests {

		input := input
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := scanParts(t, input, 8)
			if !errors.Is(err, ErrBoundaryNotFound) {
				t.Errorf("error is wrong: expected: %v, actual: %v", ErrBoundaryNotFound, err)
			}
		})
	}
}

func TestPartScannerDelimiterAcrossReads(t *testing.T) {
	t.Parallel()

	body := strings.Repeat("payload ", 500)
	input := "--token\r\n" + body + "\r\n--token--"

	// one-byte source reads force the delimiter to straddle every fill
	stream := lazystream.New(myio.ChunkReader(strings.NewReader(input), 1), 4)
	sc := newPartScanner(stream, "token", 4)

	more, err := sc.next()
	if err != nil || !more {
		t.Fatalf("expected a part, got more=%t err=%v", more, err)
	}

	got, err := io.ReadAll(sc.bodyReader())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(got) != body {
		t.Errorf("part differs: expected %d bytes, actual %d bytes", len(body), len(got))
	}

	more, err = sc.next()
	if err != nil || more {
		t.Errorf("expected the terminal boundary, got more=%t err=%v", more, err)
	}
}

func TestPartScannerSkippedBodyIsDrained(t *testing.T) {
	t.Parallel()

	input := "--token\r\nAAA\r\n--token\r\nBBB\r\n--token--"

	stream := lazystream.New(strings.NewReader(input), 8)
	sc := newPartScanner(stream, "token", 8)

	if more, err := sc.next(); err != nil || !more {
		t.Fatalf("expected a part, got more=%t err=%v", more, err)
	}
	// start the first part's body but abandon it unread
	sc.bodyReader()

	if more, err := sc.next(); err != nil || !more {
		t.Fatalf("expected the second part, got more=%t err=%v", more, err)
	}
	got, err := io.ReadAll(sc.bodyReader())
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if string(got) != "BBB" {
		t.Errorf("part is wrong: expected: BBB, actual: %q", got)
	}
}
