package reqstream

import (
	"fmt"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Limits is the environment-backed parser configuration. Services that tune
// limits per deployment rather than per call site load it once and apply it
// to every parser they build.
type Limits struct {
	MaxFields     uint  `env:"REQSTREAM_MAX_FIELDS" envDefault:"10000"`
	MaxFieldSize  int64 `env:"REQSTREAM_MAX_FIELD_SIZE" envDefault:"2097152"`
	MaxMemSize    int64 `env:"REQSTREAM_MAX_MEM_SIZE" envDefault:"33554432"`
	MaxLineLength int   `env:"REQSTREAM_MAX_LINE_LENGTH" envDefault:"8192"`
	Strict        bool  `env:"REQSTREAM_STRICT" envDefault:"false"`
}

// Options converts the limits into parser options.
func (l Limits) Options() []ParserOption {
	opts := []ParserOption{
		WithMaxFields(l.MaxFields),
		WithMaxFieldSize(DataSize(l.MaxFieldSize)),
		WithMaxMemSize(DataSize(l.MaxMemSize)),
		WithMaxLineLength(l.MaxLineLength),
	}
	if l.Strict {
		opts = append(opts, WithStrict())
	}

	return opts
}

var defaultEnvLoaded sync.Once

// LimitsFromEnv loads Limits from the environment, reading a .env file
// first if one exists.
func LimitsFromEnv() (Limits, error) {
	defaultEnvLoaded.Do(func() {
		// the .env file is optional
		_ = godotenv.Load()
	})

	limits, err := env.ParseAs[Limits]()
	if err != nil {
		return Limits{}, fmt.Errorf("failed to parse limits from environment: %w", err)
	}

	return limits, nil
}
