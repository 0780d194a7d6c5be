package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/grabtube/grabtube/internal/config"
	"github.com/grabtube/grabtube/internal/models"
	"github.com/grabtube/grabtube/internal/services/executor"
	"github.com/grabtube/grabtube/internal/services/ffmpeg"
	"github.com/grabtube/grabtube/internal/services/resolver"
	"github.com/grabtube/grabtube/internal/utils"
)

// ytdlpInfo mirrors the JSON document emitted by `yt-dlp -J`.
type ytdlpInfo struct {
	ID        string        `json:"id"`
	Title     string        `json:"title"`
	Uploader  string        `json:"uploader"`
	Duration  float64       `json:"duration"`
	Thumbnail string        `json:"thumbnail"`
	Formats   []ytdlpFormat `json:"formats"`
}

type ytdlpFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	Height         int     `json:"height"`
	FormatNote     string  `json:"format_note"`
	Filesize       int64   `json:"filesize"`
	FilesizeApprox int64   `json:"filesize_approx"`
	FPS            float64 `json:"fps"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	ABR            float64 `json:"abr"`
}

// Ytdlp shells out to the yt-dlp binary for both metadata and media bytes.
type Ytdlp struct {
	cfg  *config.DownloadConfig
	tool *ffmpeg.Tool
}

func NewYtdlp(cfg *config.DownloadConfig, tool *ffmpeg.Tool) *Ytdlp {
	return &Ytdlp{cfg: cfg, tool: tool}
}

func (p *Ytdlp) Name() string { return config.StrategyYtdlp }

func (p *Ytdlp) Resolve(ctx context.Context, videoID string) (*models.MediaInfo, error) {
	cmd := exec.CommandContext(ctx, p.cfg.YtdlpPath,
		"-J", "--no-playlist", "--no-warnings", "--skip-download",
		watchURL(videoID))

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		utils.LogError(ctx, "yt-dlp metadata extraction failed", err, utils.Fields{
			"video_id": videoID,
			"stderr":   msg,
		})
		return nil, utils.NewUpstreamError(fmt.Sprintf("Failed to fetch video info: %s", msg), 0)
	}

	var info ytdlpInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		return nil, utils.NewUpstreamError("Failed to parse video info", 0)
	}

	raw := make([]models.RawFormat, 0, len(info.Formats))
	for _, f := range info.Formats {
		size := f.Filesize
		if size == 0 {
			size = f.FilesizeApprox
		}
		raw = append(raw, models.RawFormat{
			Itag:      f.FormatID,
			Height:    f.Height,
			Label:     f.FormatNote,
			Size:      size,
			Container: f.Ext,
			FPS:       int(f.FPS),
			VCodec:    f.VCodec,
			ACodec:    f.ACodec,
			HasVideo:  f.VCodec != "" && f.VCodec != "none",
			HasAudio:  f.ACodec != "" && f.ACodec != "none",
			ABR:       int(f.ABR),
		})
	}

	qualities, bestAudio := resolver.Build(raw, p.cfg.MinHeight)
	if len(qualities) == 0 {
		return nil, utils.NewNoFormatsError()
	}

	return &models.MediaInfo{
		VideoID:     videoID,
		Title:       info.Title,
		Thumbnail:   info.Thumbnail,
		Author:      info.Uploader,
		Duration:    strconv.Itoa(int(info.Duration)),
		Qualities:   qualities,
		AudioFormat: bestAudio,
	}, nil
}

func (p *Ytdlp) Fetch(ctx context.Context, req FetchRequest) (*executor.MediaStream, error) {
	if req.Kind == models.DownloadTypeAudio {
		return p.fetchAudio(ctx, req)
	}
	return p.fetchVideo(ctx, req)
}

// fetchVideo prefers the single-call muxing path: one selector expressing
// "best video at or below H plus best audio" with yt-dlp doing the merge.
// Without the transcode tool it falls back to a pre-combined single stream
// piped incrementally.
func (p *Ytdlp) fetchVideo(ctx context.Context, req FetchRequest) (*executor.MediaStream, error) {
	itag := req.Itag

	if !p.tool.Available() {
		return p.pipe(ctx, req.VideoID, SingleFileSelector(req.Height, itag), nil, "video/mp4")
	}

	outPath := executor.TempPath(p.cfg.TempDir, "video", req.VideoID, ".mp4")
	cleanup := executor.NewCleanupGroup()
	cleanup.Add(outPath)
	defer cleanup.Cleanup(ctx)

	args := []string{
		"-f", VideoSelector(req.Height, itag),
		"--merge-output-format", "mp4",
		"--no-playlist", "--no-warnings",
		"-o", outPath,
		watchURL(req.VideoID),
	}
	if err := p.run(ctx, args); err != nil {
		return nil, utils.NewFetchError(err)
	}

	path, err := executor.ProbeOutput(outPath, executor.VideoExtensions)
	if err != nil {
		return nil, err
	}
	cleanup.Add(path)

	stream, err := executor.OpenBuffered(path, "video/mp4")
	if err != nil {
		return nil, utils.NewFetchError(err)
	}
	// The stream deletes the file itself once fully sent.
	cleanup.Release(path)
	cleanup.Release(outPath)
	return stream, nil
}

func (p *Ytdlp) fetchAudio(ctx context.Context, req FetchRequest) (*executor.MediaStream, error) {
	if !p.tool.Available() {
		return p.pipe(ctx, req.VideoID, "bestaudio/best", nil, "audio/mpeg")
	}

	outPath := executor.TempPath(p.cfg.TempDir, "audio", req.VideoID, ".mp3")
	cleanup := executor.NewCleanupGroup()
	cleanup.Add(outPath)
	defer cleanup.Cleanup(ctx)

	args := []string{
		"-f", "bestaudio/best",
		"-x", "--audio-format", "mp3",
		"--no-playlist", "--no-warnings",
		"-o", outPath,
		watchURL(req.VideoID),
	}
	if err := p.run(ctx, args); err != nil {
		return nil, utils.NewFetchError(err)
	}

	path, err := executor.ProbeOutput(outPath, executor.AudioExtensions)
	if err != nil {
		return nil, err
	}
	cleanup.Add(path)

	stream, err := executor.OpenBuffered(path, "audio/mpeg")
	if err != nil {
		return nil, utils.NewFetchError(err)
	}
	cleanup.Release(path)
	cleanup.Release(outPath)
	return stream, nil
}

func (p *Ytdlp) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, p.cfg.YtdlpPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("yt-dlp: %v: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// pipe streams yt-dlp stdout straight to the caller (incremental
// pass-through, size unknown upfront).
func (p *Ytdlp) pipe(ctx context.Context, videoID, formatSelector string, extraArgs []string, contentType string) (*executor.MediaStream, error) {
	args := []string{
		"-f", formatSelector,
		"--no-playlist", "--no-warnings",
		"-o", "-",
	}
	args = append(args, extraArgs...)
	args = append(args, watchURL(videoID))

	cmd := exec.CommandContext(ctx, p.cfg.YtdlpPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, utils.NewFetchError(err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Start(); err != nil {
		return nil, utils.NewFetchError(err)
	}

	return executor.Passthrough(&cmdStream{ReadCloser: stdout, cmd: cmd}, -1, contentType), nil
}

// cmdStream ties a subprocess's lifetime to its stdout reader.
type cmdStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (s *cmdStream) Close() error {
	err := s.ReadCloser.Close()
	// Reap the subprocess; an early client disconnect makes Wait return a
	// broken-pipe error, which is expected here.
	_ = s.cmd.Wait()
	return err
}

// VideoSelector builds the combined format selector for the preferred
// single-call muxing path.
func VideoSelector(height int, itag string) string {
	if itag != "" {
		return itag + "+bestaudio/" + itag
	}
	if height > 0 {
		return fmt.Sprintf("bestvideo[height<=%d]+bestaudio/best[height<=%d]", height, height)
	}
	return "bestvideo+bestaudio/best"
}

// SingleFileSelector builds a pre-combined selector for hosts without the
// transcode tool.
func SingleFileSelector(height int, itag string) string {
	if itag != "" {
		return itag
	}
	if height > 0 {
		return fmt.Sprintf("best[height<=%d]", height)
	}
	return "best"
}
