package session

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"gemmad/internal/engine/enginetest"
)

// createModelFile writes a small placeholder model bundle and returns its path.
func createModelFile(t *testing.T, name string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte("bundle"), 0o644))
	return p
}

func newTestSession(t *testing.T, l *enginetest.Loader) (*Session, *MemoryPublisher) {
	t.Helper()
	pub := NewMemoryPublisher()
	s := New(Config{
		Loader:        l,
		ChunkInterval: time.Millisecond,
		Logger:        zerolog.Nop(),
		Publisher:     pub,
	})
	t.Cleanup(s.Dispose)
	return s, pub
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return c
}
