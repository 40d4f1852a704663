// Package locator finds the model bundle on local storage by checking a
// short, ordered list of candidate paths.
package locator

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"gemmad/internal/common/fsutil"
)

// DefaultFileName is the model bundle the app ships against.
const DefaultFileName = "gemma-3n-E2B-it-int4.task"

// DefaultExternalDirs are the shared download folders checked after the
// app-private directory.
var DefaultExternalDirs = []string{
	"/sdcard/Download",
	"/storage/emulated/0/Download",
}

// Candidate is one location to check.
type Candidate struct {
	Path string
	// RequireReadable rejects a candidate that exists but cannot be opened.
	RequireReadable bool
}

// Locator searches candidates in order. It holds no cache: every call
// re-checks the filesystem.
type Locator struct {
	candidates []Candidate
	log        zerolog.Logger
}

// New returns a Locator over the given candidates. Paths starting with '~'
// are expanded; candidates whose home directory cannot be resolved are
// dropped.
func New(candidates []Candidate, log zerolog.Logger) *Locator {
	out := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		p, err := fsutil.ExpandHome(c.Path)
		if err != nil || p == "" {
			log.Warn().Err(err).Str("path", c.Path).Msg("dropping model candidate")
			continue
		}
		out = append(out, Candidate{Path: p, RequireReadable: c.RequireReadable})
	}
	return &Locator{candidates: out, log: log}
}

// DefaultCandidates builds the standard search order: internalDir/fileName
// first, then fileName inside each external directory (which must also be
// readable).
func DefaultCandidates(internalDir, fileName string, externalPaths []string) []Candidate {
	if fileName == "" {
		fileName = DefaultFileName
	}
	var out []Candidate
	if internalDir != "" {
		out = append(out, Candidate{Path: filepath.Join(internalDir, fileName)})
	}
	for _, p := range externalPaths {
		out = append(out, Candidate{Path: p, RequireReadable: true})
	}
	return out
}

// DefaultExternalPaths joins fileName onto DefaultExternalDirs.
func DefaultExternalPaths(fileName string) []string {
	if fileName == "" {
		fileName = DefaultFileName
	}
	out := make([]string, 0, len(DefaultExternalDirs))
	for _, d := range DefaultExternalDirs {
		out = append(out, filepath.Join(d, fileName))
	}
	return out
}

// Candidates returns a copy of the search order.
func (l *Locator) Candidates() []Candidate {
	return append([]Candidate(nil), l.candidates...)
}

// Locate returns the first candidate that exists (and is readable when
// required). ok is false when nothing matched; that is a normal outcome.
func (l *Locator) Locate() (path string, ok bool) {
	for _, c := range l.candidates {
		if !fsutil.PathExists(c.Path) {
			continue
		}
		if c.RequireReadable && !fsutil.IsReadable(c.Path) {
			l.log.Warn().Str("path", c.Path).Msg("model found but not readable")
			continue
		}
		l.log.Debug().Str("path", c.Path).Msg("model found")
		return c.Path, true
	}
	l.log.Debug().Int("candidates", len(l.candidates)).Msg("model file not found in any expected location")
	return "", false
}
