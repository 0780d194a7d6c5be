// Package executor carries the shared plumbing of the fetch/merge pipeline:
// request-unique temporary paths, guaranteed cleanup, output discovery and
// byte sources handed to the response streamer.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/grabtube/grabtube/internal/utils"
)

// TempPath returns a temporary file path unique to the calling request.
// The timestamp plus a random id keeps concurrent downloads of the same
// video from colliding.
func TempPath(dir, prefix, videoID, ext string) string {
	name := fmt.Sprintf("%s_%s_%d_%s%s",
		prefix, videoID, time.Now().UnixNano(), uuid.New().String()[:8], ext)
	return filepath.Join(dir, name)
}

// CleanupGroup tracks temporary files owned by a single request and deletes
// them all exactly once, on every exit path. Removal failures are logged,
// never surfaced.
type CleanupGroup struct {
	mu    sync.Mutex
	paths []string
}

func NewCleanupGroup() *CleanupGroup {
	return &CleanupGroup{}
}

// Add registers a path for deletion.
func (g *CleanupGroup) Add(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.paths = append(g.paths, path)
}

// Release removes a path from the group, transferring ownership to the
// caller (used when a file outlives the fetch step as the response body).
func (g *CleanupGroup) Release(path string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for i, p := range g.paths {
		if p == path {
			g.paths = append(g.paths[:i], g.paths[i+1:]...)
			return
		}
	}
}

// Cleanup deletes every tracked file. Safe to call multiple times and from
// defer.
func (g *CleanupGroup) Cleanup(ctx context.Context) {
	g.mu.Lock()
	paths := g.paths
	g.paths = nil
	g.mu.Unlock()

	for _, path := range paths {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			utils.LogWarn(ctx, "Failed to remove temporary file", utils.Fields{
				"path":  path,
				"error": err.Error(),
			})
		}
	}
}
