// Package artifact holds per-video intermediate results shared between
// analyzers within a single orchestrator run. The cache is injected at
// construction time; entries live only for the duration of one WithVideo
// scope so results from different videos never bleed into each other.
package artifact

import (
	"sync"

	"github.com/podiumhq/podium/pkg/metrics"
)

// Cache is a concurrent per-video artifact store. The transcript produced by
// the first speech-consuming analyzer is reused by the later ones.
type Cache struct {
	mu          sync.RWMutex
	transcripts map[string]string
}

// NewCache creates an empty artifact cache.
func NewCache() *Cache {
	return &Cache{transcripts: make(map[string]string)}
}

// PutTranscript stores the transcript for the video.
func (c *Cache) PutTranscript(videoPath, text string) {
	c.mu.Lock()
	c.transcripts[videoPath] = text
	n := len(c.transcripts)
	c.mu.Unlock()
	metrics.UpdateCacheEntries(n)
}

// Transcript returns the cached transcript, or "" when none exists.
func (c *Cache) Transcript(videoPath string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.transcripts[videoPath]
}

// Clear drops all artifacts for the video.
func (c *Cache) Clear(videoPath string) {
	c.mu.Lock()
	delete(c.transcripts, videoPath)
	n := len(c.transcripts)
	c.mu.Unlock()
	metrics.UpdateCacheEntries(n)
}

// Len returns the number of videos with cached artifacts.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.transcripts)
}

// WithVideo runs fn with the video's artifacts scoped to the call. The
// entries are cleared on every exit path, including panics.
func (c *Cache) WithVideo(videoPath string, fn func() error) error {
	defer c.Clear(videoPath)
	return fn()
}
