package session

import (
	"time"

	"github.com/rs/zerolog"

	"gemmad/internal/engine"
)

// Defaults applied when corresponding Config fields are unset.
const (
	DefaultChunks        = 10
	DefaultChunkInterval = 50 * time.Millisecond
	DefaultWorkers       = 1
	DefaultMaxTokens     = 512
	DefaultTemperature   = 0.8
)

// Config encapsulates all tunables for Session construction.
type Config struct {
	// Loader builds engine handles. Required.
	Loader engine.Loader
	// Engine options applied to every load (ModelPath is set per call).
	MaxTopK int
	CtxSize int
	Threads int
	// Workers bounds concurrent engine calls.
	Workers int
	// Chunks and ChunkInterval shape chunked replay.
	Chunks        int
	ChunkInterval time.Duration
	Logger        zerolog.Logger
	Publisher     EventPublisher
}

func (c Config) withDefaults() Config {
	if c.MaxTopK <= 0 {
		c.MaxTopK = engine.DefaultMaxTopK
	}
	if c.Workers <= 0 {
		c.Workers = DefaultWorkers
	}
	if c.Chunks <= 0 {
		c.Chunks = DefaultChunks
	}
	if c.ChunkInterval <= 0 {
		c.ChunkInterval = DefaultChunkInterval
	}
	if c.Publisher == nil {
		c.Publisher = noopPublisher{}
	}
	return c
}
