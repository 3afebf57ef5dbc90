package reqstream

import (
	"testing"
)

func TestLimitsFromEnv(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		limits, err := LimitsFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if limits.MaxFields != defaultMaxFields {
			t.Errorf("max fields is wrong: expected: %d, actual: %d", defaultMaxFields, limits.MaxFields)
		}
		if DataSize(limits.MaxFieldSize) != defaultMaxFieldSize {
			t.Errorf("max field size is wrong: expected: %d, actual: %d", defaultMaxFieldSize, limits.MaxFieldSize)
		}
		if DataSize(limits.MaxMemSize) != defaultMaxMemSize {
			t.Errorf("max mem size is wrong: expected: %d, actual: %d", defaultMaxMemSize, limits.MaxMemSize)
		}
		if limits.MaxLineLength != defaultMaxLineLength {
			t.Errorf("max line length is wrong: expected: %d, actual: %d", defaultMaxLineLength, limits.MaxLineLength)
		}
		if limits.Strict {
			t.Error("strict must default to off")
		}
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("REQSTREAM_MAX_FIELDS", "50")
		t.Setenv("REQSTREAM_MAX_FIELD_SIZE", "1024")
		t.Setenv("REQSTREAM_MAX_MEM_SIZE", "2048")
		t.Setenv("REQSTREAM_MAX_LINE_LENGTH", "512")
		t.Setenv("REQSTREAM_STRICT", "true")

		limits, err := LimitsFromEnv()
		if err != nil {
			t.Fatalf("unexpected error: %s", err)
		}

		if limits.MaxFields != 50 {
			t.Errorf("max fields is wrong: expected: 50, actual: %d", limits.MaxFields)
		}
		if limits.MaxFieldSize != 1024 {
			t.Errorf("max field size is wrong: expected: 1024, actual: %d", limits.MaxFieldSize)
		}
		if limits.MaxMemSize != 2048 {
			t.Errorf("max mem size is wrong: expected: 2048, actual: %d", limits.MaxMemSize)
		}
		if limits.MaxLineLength != 512 {
			t.Errorf("max line length is wrong: expected: 512, actual: %d", limits.MaxLineLength)
		}
		if !limits.Strict {
			t.Error("strict must be on")
		}
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Setenv("REQSTREAM_MAX_FIELDS", "not-a-number")

		if _, err := LimitsFromEnv(); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestLimitsOptions(t *testing.T) {
	t.Parallel()

	limits := Limits{
		MaxFields:     7,
		MaxFieldSize:  512,
		MaxMemSize:    1024,
		MaxLineLength: 256,
		Strict:        true,
	}

	c := parserConfig{}
	for _, opt := range limits.Options() {
		opt(&c)
	}

	if c.maxFields != 7 {
		t.Errorf("max fields is wrong: expected: 7, actual: %d", c.maxFields)
	}
	if c.maxFieldSize != 512 {
		t.Errorf("max field size is wrong: expected: 512, actual: %d", c.maxFieldSize)
	}
	if c.maxMemSize != 1024 {
		t.Errorf("max mem size is wrong: expected: 1024, actual: %d", c.maxMemSize)
	}
	if c.maxLineLength != 256 {
		t.Errorf("max line length is wrong: expected: 256, actual: %d", c.maxLineLength)
	}
	if !c.strict {
		t.Error("strict must be on")
	}
}
