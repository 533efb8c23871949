package scraper

import (
	"context"
	"strings"
)

// session is the runtime surface handed to a running adapter. It carries the
// preloaded checkpoint, collects the checkpoint to save, and accumulates the
// structural fragments for the drift hash.
type session struct {
	runtime    *Runtime
	site       string
	checkpoint []byte
	saved      []byte
	fragments  strings.Builder
}

func (s *session) Delay(ctx context.Context) error {
	return s.runtime.limiter.Wait(ctx, s.site)
}

func (s *session) Checkpoint() []byte {
	return s.checkpoint
}

func (s *session) SaveCheckpoint(blob []byte) {
	s.saved = blob
}

func (s *session) ReportStructure(fragment string) {
	s.fragments.WriteString(fragment)
	s.fragments.WriteByte('\n')
}

// structureHash returns the hash over all reported fragments, empty when the
// adapter reported nothing.
func (s *session) structureHash() string {
	if s.fragments.Len() == 0 {
		return ""
	}
	return StructureHash(s.fragments.String())
}
