package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"

	"github.com/grabtube/grabtube/internal/config"
	"github.com/grabtube/grabtube/internal/models"
	"github.com/grabtube/grabtube/internal/services/executor"
	"github.com/grabtube/grabtube/internal/services/ffmpeg"
	"github.com/grabtube/grabtube/internal/services/resolver"
	"github.com/grabtube/grabtube/internal/utils"
)

// Native scrapes metadata and stream URLs in-process via the embedded
// youtube library, without shelling out for the fetch itself. Merging
// separately fetched tracks still requires the transcode tool.
type Native struct {
	client *youtube.Client
	cfg    *config.DownloadConfig
	tool   *ffmpeg.Tool
}

func NewNative(cfg *config.DownloadConfig, tool *ffmpeg.Tool) *Native {
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}
	return &Native{
		client: &youtube.Client{HTTPClient: httpClient},
		cfg:    cfg,
		tool:   tool,
	}
}

func (p *Native) Name() string { return config.StrategyNative }

func (p *Native) Resolve(ctx context.Context, videoID string) (*models.MediaInfo, error) {
	video, err := p.client.GetVideoContext(ctx, videoID)
	if err != nil {
		utils.LogError(ctx, "Failed to scrape video metadata", err, utils.Fields{
			"video_id": videoID,
		})
		return nil, utils.NewUpstreamError(fmt.Sprintf("Failed to fetch video info: %v", err), 0)
	}

	raw := make([]models.RawFormat, 0, len(video.Formats))
	for _, f := range video.Formats {
		container, codec := parseMimeType(f.MimeType)
		isVideo := strings.HasPrefix(f.MimeType, "video")
		entry := models.RawFormat{
			Itag:      strconv.Itoa(f.ItagNo),
			Height:    f.Height,
			Label:     f.QualityLabel,
			Size:      f.ContentLength,
			Container: container,
			FPS:       f.FPS,
			HasVideo:  isVideo,
			HasAudio:  f.AudioChannels > 0,
			ABR:       f.Bitrate / 1000,
		}
		if isVideo {
			entry.VCodec = codec
			if entry.HasAudio {
				entry.ACodec = "mp4a"
			}
		} else {
			entry.ACodec = codec
		}
		raw = append(raw, entry)
	}

	qualities, bestAudio := resolver.Build(raw, p.cfg.MinHeight)
	if len(qualities) == 0 {
		return nil, utils.NewNoFormatsError()
	}

	info := &models.MediaInfo{
		VideoID:     videoID,
		Title:       video.Title,
		Author:      video.Author,
		Duration:    strconv.Itoa(int(video.Duration.Seconds())),
		Qualities:   qualities,
		AudioFormat: bestAudio,
	}
	if len(video.Thumbnails) > 0 {
		info.Thumbnail = video.Thumbnails[0].URL
	}
	return info, nil
}

func (p *Native) Fetch(ctx context.Context, req FetchRequest) (*executor.MediaStream, error) {
	video, err := p.client.GetVideoContext(ctx, req.VideoID)
	if err != nil {
		return nil, utils.NewUpstreamError(fmt.Sprintf("Failed to fetch video: %v", err), 0)
	}

	if req.Itag != "" {
		return p.fetchByItag(ctx, video, req.Itag)
	}
	if req.Kind == models.DownloadTypeAudio {
		return p.fetchAudio(ctx, video)
	}
	return p.fetchVideo(ctx, video, req.Height)
}

// fetchByItag streams exactly the format the caller named, trusting the
// token without further checks.
func (p *Native) fetchByItag(ctx context.Context, video *youtube.Video, itag string) (*executor.MediaStream, error) {
	itagNo, err := strconv.Atoi(itag)
	if err != nil {
		return nil, utils.NewNoMatchingFormatError(itag)
	}
	for i := range video.Formats {
		if video.Formats[i].ItagNo == itagNo {
			f := &video.Formats[i]
			return p.passthrough(ctx, video, f, mimeContentType(f.MimeType))
		}
	}
	return nil, utils.NewNoMatchingFormatError(itag)
}

// mimeContentType strips codec parameters from a format's mime type, so an
// audio-only itag is served as audio/* rather than a hardcoded video type.
func mimeContentType(mimeType string) string {
	return strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0])
}

// fetchVideo downloads video-only and audio-only tracks into request-unique
// temporary files and merges them. Without the transcode tool it falls back
// to the best pre-combined format, streamed incrementally.
func (p *Native) fetchVideo(ctx context.Context, video *youtube.Video, height int) (*executor.MediaStream, error) {
	if !p.tool.Available() {
		combined := bestCombinedFormat(video.Formats, height)
		if combined == nil {
			return nil, utils.NewNoFormatsError()
		}
		return p.passthrough(ctx, video, combined, "video/mp4")
	}

	videoFormat := bestVideoOnlyFormat(video.Formats, height)
	if videoFormat == nil {
		// Some videos only publish pre-muxed tracks.
		if combined := bestCombinedFormat(video.Formats, height); combined != nil {
			return p.passthrough(ctx, video, combined, "video/mp4")
		}
		return nil, utils.NewNoFormatsError()
	}
	audioFormat := bestAudioFormat(video.Formats)
	if audioFormat == nil {
		return p.passthrough(ctx, video, videoFormat, "video/mp4")
	}

	cleanup := executor.NewCleanupGroup()
	defer cleanup.Cleanup(ctx)

	videoPath := executor.TempPath(p.cfg.TempDir, "video", video.ID, ".mp4")
	audioPath := executor.TempPath(p.cfg.TempDir, "audio", video.ID, ".m4a")
	cleanup.Add(videoPath)
	cleanup.Add(audioPath)

	if err := p.downloadStream(ctx, video, videoFormat, videoPath); err != nil {
		return nil, utils.NewFetchError(err)
	}
	if err := p.downloadStream(ctx, video, audioFormat, audioPath); err != nil {
		return nil, utils.NewFetchError(err)
	}

	return p.mergeTracks(ctx, video.ID, videoPath, audioPath)
}

// mergeTracks combines downloaded video and audio tracks into one container.
// The input files are deleted on every outcome; the merged file transfers
// ownership to the returned stream and is deleted when the merge fails.
func (p *Native) mergeTracks(ctx context.Context, videoID, videoPath, audioPath string) (*executor.MediaStream, error) {
	cleanup := executor.NewCleanupGroup()
	cleanup.Add(videoPath)
	cleanup.Add(audioPath)
	mergedPath := executor.TempPath(p.cfg.TempDir, "merged", videoID, ".mp4")
	cleanup.Add(mergedPath)
	defer cleanup.Cleanup(ctx)

	if err := p.tool.Merge(ctx, videoPath, audioPath, mergedPath); err != nil {
		return nil, utils.NewMergeError(err)
	}

	stream, err := executor.OpenBuffered(mergedPath, "video/mp4")
	if err != nil {
		return nil, utils.NewOutputNotFoundError(mergedPath)
	}
	// Merged file is now owned by the stream; intermediates still get
	// removed by the deferred cleanup.
	cleanup.Release(mergedPath)
	return stream, nil
}

func (p *Native) fetchAudio(ctx context.Context, video *youtube.Video) (*executor.MediaStream, error) {
	audioFormat := bestAudioFormat(video.Formats)
	if audioFormat == nil {
		return nil, utils.NewNoFormatsError()
	}

	if !p.tool.Available() {
		return p.passthrough(ctx, video, audioFormat, "audio/mpeg")
	}

	cleanup := executor.NewCleanupGroup()
	defer cleanup.Cleanup(ctx)

	rawPath := executor.TempPath(p.cfg.TempDir, "audio", video.ID, ".m4a")
	mp3Path := executor.TempPath(p.cfg.TempDir, "audio", video.ID, ".mp3")
	cleanup.Add(rawPath)
	cleanup.Add(mp3Path)

	if err := p.downloadStream(ctx, video, audioFormat, rawPath); err != nil {
		return nil, utils.NewFetchError(err)
	}
	if err := p.tool.ConvertToMP3(ctx, rawPath, mp3Path); err != nil {
		return nil, utils.NewMergeError(err)
	}

	stream, err := executor.OpenBuffered(mp3Path, "audio/mpeg")
	if err != nil {
		return nil, utils.NewOutputNotFoundError(mp3Path)
	}
	cleanup.Release(mp3Path)
	return stream, nil
}

func (p *Native) passthrough(ctx context.Context, video *youtube.Video, format *youtube.Format, contentType string) (*executor.MediaStream, error) {
	stream, size, err := p.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, utils.NewFetchError(err)
	}
	return executor.Passthrough(stream, size, contentType), nil
}

func (p *Native) downloadStream(ctx context.Context, video *youtube.Video, format *youtube.Format, outputPath string) error {
	stream, _, err := p.client.GetStreamContext(ctx, video, format)
	if err != nil {
		return fmt.Errorf("failed to get stream: %w", err)
	}
	defer stream.Close()

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, stream); err != nil {
		return fmt.Errorf("failed to write stream to file: %w", err)
	}
	return nil
}

// bestVideoOnlyFormat selects the highest video-only format at or below the
// requested height (any height when zero), preferring mp4 containers.
func bestVideoOnlyFormat(formats youtube.FormatList, height int) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "video") || f.AudioChannels > 0 {
			continue
		}
		if height > 0 && f.Height > height {
			continue
		}
		if best == nil || betterVideo(f, best) {
			best = f
		}
	}
	return best
}

// bestCombinedFormat selects the highest pre-muxed format (video with audio
// already present) at or below the requested height.
func bestCombinedFormat(formats youtube.FormatList, height int) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "video") || f.AudioChannels == 0 {
			continue
		}
		if height > 0 && f.Height > height {
			continue
		}
		if best == nil || f.Height > best.Height {
			best = f
		}
	}
	return best
}

// bestAudioFormat selects the audio-only format with the highest bitrate,
// preferring mp4/m4a containers.
func bestAudioFormat(formats youtube.FormatList) *youtube.Format {
	var best *youtube.Format
	for i := range formats {
		f := &formats[i]
		if !strings.HasPrefix(f.MimeType, "audio") {
			continue
		}
		preferred := strings.Contains(f.MimeType, "mp4") || strings.Contains(f.MimeType, "m4a")
		if best == nil {
			best = f
			continue
		}
		bestPreferred := strings.Contains(best.MimeType, "mp4") || strings.Contains(best.MimeType, "m4a")
		if preferred != bestPreferred {
			if preferred {
				best = f
			}
			continue
		}
		if f.Bitrate > best.Bitrate {
			best = f
		}
	}
	return best
}

func betterVideo(a, b *youtube.Format) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	aMP4 := strings.Contains(a.MimeType, "mp4")
	bMP4 := strings.Contains(b.MimeType, "mp4")
	if aMP4 != bMP4 {
		return aMP4
	}
	return a.Bitrate > b.Bitrate
}

// parseMimeType splits `video/mp4; codecs="avc1.64001F, mp4a.40.2"` into
// the container extension and the primary codec tag.
func parseMimeType(mimeType string) (container, codec string) {
	parts := strings.SplitN(mimeType, ";", 2)
	if slash := strings.Index(parts[0], "/"); slash >= 0 {
		container = strings.TrimSpace(parts[0][slash+1:])
	}
	if len(parts) == 2 {
		rest := parts[1]
		if start := strings.Index(rest, `"`); start >= 0 {
			if end := strings.Index(rest[start+1:], `"`); end >= 0 {
				codecs := rest[start+1 : start+1+end]
				codec = strings.TrimSpace(strings.SplitN(codecs, ",", 2)[0])
			}
		}
	}
	return container, codec
}
