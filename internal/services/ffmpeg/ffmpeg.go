// Package ffmpeg wraps the transcode tool used to merge separately fetched
// video and audio streams and to convert audio to mp3.
package ffmpeg

import (
	"context"
	"fmt"
	"os/exec"
	"sync"

	"github.com/grabtube/grabtube/internal/utils"
)

// Tool is an injected dependency of the fetch pipeline. Availability is
// probed once per process; all concurrent first callers share the probe.
type Tool struct {
	Path string

	probeOnce sync.Once
	probeErr  error
}

func New(path string) *Tool {
	if path == "" {
		path = "ffmpeg"
	}
	return &Tool{Path: path}
}

// Available reports whether the binary can be found. The LookPath check
// runs once and its result is shared across requests.
func (t *Tool) Available() bool {
	t.probeOnce.Do(func() {
		_, t.probeErr = exec.LookPath(t.Path)
	})
	return t.probeErr == nil
}

// Merge combines a video-only and an audio-only file into one mp4
// container, copying the video stream and re-encoding audio to AAC.
func (t *Tool) Merge(ctx context.Context, videoPath, audioPath, outputPath string) error {
	args := MergeArgs(videoPath, audioPath, outputPath)
	cmd := exec.CommandContext(ctx, t.Path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		utils.LogError(ctx, "ffmpeg merge failed", err, utils.Fields{
			"output": string(output),
		})
		return fmt.Errorf("ffmpeg merge failed: %w", err)
	}
	return nil
}

// ConvertToMP3 re-encodes an audio file to mp3.
func (t *Tool) ConvertToMP3(ctx context.Context, inputPath, outputPath string) error {
	args := ConvertMP3Args(inputPath, outputPath)
	cmd := exec.CommandContext(ctx, t.Path, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		utils.LogError(ctx, "ffmpeg mp3 conversion failed", err, utils.Fields{
			"output": string(output),
		})
		return fmt.Errorf("ffmpeg conversion failed: %w", err)
	}
	return nil
}

// MergeArgs builds the argument list for a video+audio merge.
func MergeArgs(videoPath, audioPath, outputPath string) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-nostdin",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		"-movflags", "+faststart",
		outputPath,
	}
}

// ConvertMP3Args builds the argument list for an mp3 conversion.
func ConvertMP3Args(inputPath, outputPath string) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-nostdin",
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-ar", "44100",
		"-b:a", "192k",
		outputPath,
	}
}
