package executor

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTempPathUniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		p := TempPath("/tmp", "video", "dQw4w9WgXcQ", ".mp4")
		if seen[p] {
			t.Fatalf("duplicate temp path generated: %s", p)
		}
		seen[p] = true
	}
}

func TestTempPathShape(t *testing.T) {
	p := TempPath("/scratch", "audio", "abc123DEF-_", ".m4a")
	if filepath.Dir(p) != "/scratch" {
		t.Errorf("expected path under /scratch, got %s", p)
	}
	base := filepath.Base(p)
	if !strings.HasPrefix(base, "audio_abc123DEF-_") {
		t.Errorf("expected prefix and video id in name, got %s", base)
	}
	if !strings.HasSuffix(base, ".m4a") {
		t.Errorf("expected extension preserved, got %s", base)
	}
}

func TestCleanupGroupRemovesAllPaths(t *testing.T) {
	dir := t.TempDir()
	g := NewCleanupGroup()

	var paths []string
	for _, name := range []string{"a.mp4", "b.m4a", "c.mp4"} {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		g.Add(p)
		paths = append(paths, p)
	}

	g.Cleanup(context.Background())

	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", p)
		}
	}

	// Second call is a no-op.
	g.Cleanup(context.Background())
}

func TestCleanupGroupRelease(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "keep.mp4")
	removed := filepath.Join(dir, "drop.mp4")
	for _, p := range []string{kept, removed} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	g := NewCleanupGroup()
	g.Add(kept)
	g.Add(removed)
	g.Release(kept)
	g.Cleanup(context.Background())

	if _, err := os.Stat(kept); err != nil {
		t.Errorf("released path should survive cleanup: %v", err)
	}
	if _, err := os.Stat(removed); !os.IsNotExist(err) {
		t.Error("tracked path should be removed")
	}
}

func TestProbeOutputExpectedPath(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(p, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ProbeOutput(p, VideoExtensions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != p {
		t.Errorf("expected %s, got %s", p, got)
	}
}

func TestProbeOutputFallbackExtension(t *testing.T) {
	dir := t.TempDir()
	expected := filepath.Join(dir, "out.mp4")
	actual := filepath.Join(dir, "out.webm")
	if err := os.WriteFile(actual, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ProbeOutput(expected, VideoExtensions)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != actual {
		t.Errorf("expected fallback to %s, got %s", actual, got)
	}
}

func TestProbeOutputMissing(t *testing.T) {
	dir := t.TempDir()
	if _, err := ProbeOutput(filepath.Join(dir, "gone.mp4"), VideoExtensions); err == nil {
		t.Error("expected error when no candidate exists")
	}
}

func TestProbeOutputIgnoresEmptyFile(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "out.mp4")
	if err := os.WriteFile(empty, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ProbeOutput(empty, nil); err == nil {
		t.Error("expected zero-byte output to be treated as missing")
	}
}

func TestOpenBufferedDeletesOnClose(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "merged.mp4")
	content := []byte("merged bytes")
	if err := os.WriteFile(p, content, 0o644); err != nil {
		t.Fatal(err)
	}

	stream, err := OpenBuffered(p, "video/mp4")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stream.Size != int64(len(content)) {
		t.Errorf("expected size %d, got %d", len(content), stream.Size)
	}

	data, err := io.ReadAll(stream.Reader)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(data) != string(content) {
		t.Errorf("unexpected content: %q", data)
	}

	if err := stream.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Error("expected backing file to be deleted after close")
	}
}
