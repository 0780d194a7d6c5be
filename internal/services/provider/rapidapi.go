package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/grabtube/grabtube/internal/config"
	"github.com/grabtube/grabtube/internal/models"
	"github.com/grabtube/grabtube/internal/services/executor"
	"github.com/grabtube/grabtube/internal/services/resolver"
	"github.com/grabtube/grabtube/internal/utils"
)

// RapidAPI resolves metadata and direct download URLs through the hosted
// resolution API. The credential is checked per request; a missing key is a
// 500 at request time, never a boot failure.
type RapidAPI struct {
	cfg       *config.ProviderConfig
	download  *config.DownloadConfig
	apiClient *http.Client
	// No timeout on the media client: downloads legitimately run longer
	// than any sane fixed deadline, the request context bounds them.
	mediaClient *http.Client
}

func NewRapidAPI(cfg *config.ProviderConfig, download *config.DownloadConfig) *RapidAPI {
	return &RapidAPI{
		cfg:         cfg,
		download:    download,
		apiClient:   &http.Client{Timeout: 30 * time.Second},
		mediaClient: &http.Client{},
	}
}

func (p *RapidAPI) Name() string { return config.StrategyRapidAPI }

// flexString tolerates providers that emit either a JSON string or number.
type flexString string

func (s *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = flexString(v)
		return nil
	}
	*s = flexString(data)
	return nil
}

type rapidFormat struct {
	Itag          flexString `json:"itag"`
	FormatID      flexString `json:"formatId"`
	Height        int        `json:"height"`
	QualityLabel  string     `json:"qualityLabel"`
	Filesize      int64      `json:"filesize"`
	ContentLength flexString `json:"contentLength"`
	Ext           string     `json:"ext"`
	HasAudio      *bool      `json:"hasAudio"`
	HasVideo      *bool      `json:"hasVideo"`
	FPS           int        `json:"fps"`
	VCodec        string     `json:"vcodec"`
	ACodec        string     `json:"acodec"`
	URL           string     `json:"url"`
	DownloadURL   string     `json:"downloadUrl"`
}

type rapidAudio struct {
	URL         string `json:"url"`
	DownloadURL string `json:"downloadUrl"`
}

type rapidResponse struct {
	Title         string        `json:"title"`
	Thumbnail     string        `json:"thumbnail"`
	Thumbnails    []rapidThumb  `json:"thumbnails"`
	Author        string        `json:"author"`
	Uploader      string        `json:"uploader"`
	Duration      flexString    `json:"duration"`
	LengthSeconds flexString    `json:"lengthSeconds"`
	Formats       []rapidFormat `json:"formats"`
	Audio         *rapidAudio   `json:"audio"`
	URL           string        `json:"url"`
	DownloadURL   string        `json:"downloadUrl"`
}

type rapidThumb struct {
	URL string `json:"url"`
}

func (p *RapidAPI) Resolve(ctx context.Context, videoID string) (*models.MediaInfo, error) {
	data, err := p.lookup(ctx, videoID)
	if err != nil {
		return nil, err
	}

	raw := make([]models.RawFormat, 0, len(data.Formats))
	for _, f := range data.Formats {
		raw = append(raw, f.toRaw())
	}

	qualities, bestAudio := resolver.Build(raw, p.download.MinHeight)
	if len(qualities) == 0 {
		// The hosted API sometimes omits the format list even for
		// downloadable videos; offer the standard ladder.
		qualities = defaultQualities()
	}
	if bestAudio == nil {
		bestAudio = &models.FormatDescriptor{
			Quality:   "audio",
			Itag:      "audio",
			Container: "mp3",
			HasAudio:  true,
			ABR:       128,
		}
	}

	return &models.MediaInfo{
		VideoID:     videoID,
		Title:       orDefault(data.Title, "Unknown Title"),
		Thumbnail:   data.thumbnailURL(),
		Author:      orDefault(orDefault(data.Author, data.Uploader), "Unknown"),
		Duration:    data.durationSeconds(),
		Qualities:   qualities,
		AudioFormat: bestAudio,
	}, nil
}

func (p *RapidAPI) Fetch(ctx context.Context, req FetchRequest) (*executor.MediaStream, error) {
	data, err := p.lookup(ctx, req.VideoID)
	if err != nil {
		return nil, err
	}

	downloadURL, contentType := p.pickDownloadURL(data, req)
	if downloadURL == "" {
		return nil, utils.NewError(utils.ErrorCodeNoMatchingFormat,
			"No download URL available for this video", http.StatusNotFound)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, utils.NewFetchError(err)
	}
	resp, err := p.mediaClient.Do(httpReq)
	if err != nil {
		return nil, utils.NewFetchError(err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, utils.NewUpstreamError("Failed to download video from source", resp.StatusCode)
	}

	return executor.Passthrough(resp.Body, resp.ContentLength, contentType), nil
}

// pickDownloadURL mirrors the selection ladder of the hosted-API revision:
// audio link for audio requests, itag or height match for video, best
// available height as fallback, then any direct link on the response.
func (p *RapidAPI) pickDownloadURL(data *rapidResponse, req FetchRequest) (string, string) {
	if req.Kind == models.DownloadTypeAudio {
		if data.Audio != nil {
			return orDefault(data.Audio.URL, data.Audio.DownloadURL), "audio/mpeg"
		}
		return "", "audio/mpeg"
	}

	if req.Itag != "" {
		for _, f := range data.Formats {
			if f.itag() == req.Itag {
				return orDefault(f.URL, f.DownloadURL), "video/mp4"
			}
		}
	}

	if req.Height > 0 {
		for _, f := range data.Formats {
			if resolver.HeightOf(f.toRaw()) == req.Height {
				if url := orDefault(f.URL, f.DownloadURL); url != "" {
					return url, "video/mp4"
				}
			}
		}
	}

	var best *rapidFormat
	bestHeight := -1
	for i := range data.Formats {
		f := &data.Formats[i]
		if f.HasVideo != nil && !*f.HasVideo {
			continue
		}
		h := resolver.HeightOf(f.toRaw())
		if h > bestHeight && orDefault(f.URL, f.DownloadURL) != "" {
			best = f
			bestHeight = h
		}
	}
	if best != nil {
		return orDefault(best.URL, best.DownloadURL), "video/mp4"
	}

	return orDefault(data.URL, data.DownloadURL), "video/mp4"
}

func (p *RapidAPI) lookup(ctx context.Context, videoID string) (*rapidResponse, error) {
	if p.cfg.RapidAPIKey == "" {
		return nil, utils.NewConfigurationMissingError("RAPIDAPI_KEY")
	}

	url := fmt.Sprintf("https://%s/dl?id=%s", p.cfg.RapidAPIHost, videoID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, utils.NewFetchError(err)
	}
	req.Header.Set("x-rapidapi-key", p.cfg.RapidAPIKey)
	req.Header.Set("x-rapidapi-host", p.cfg.RapidAPIHost)

	resp, err := p.apiClient.Do(req)
	if err != nil {
		utils.LogError(ctx, "Resolution API unreachable", err, utils.Fields{
			"video_id": videoID,
		})
		return nil, utils.NewUpstreamError("Failed to fetch video info", 0)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, utils.NewUpstreamError(
			fmt.Sprintf("Failed to fetch video info: %s", resp.Status), resp.StatusCode)
	}

	var data rapidResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, utils.NewUpstreamError("Failed to parse video info", 0)
	}
	return &data, nil
}

func (f *rapidFormat) itag() string {
	if f.Itag != "" {
		return string(f.Itag)
	}
	return string(f.FormatID)
}

func (f *rapidFormat) toRaw() models.RawFormat {
	size := f.Filesize
	if size == 0 {
		if n, err := strconv.ParseInt(string(f.ContentLength), 10, 64); err == nil {
			size = n
		}
	}
	fps := f.FPS
	if fps == 0 {
		fps = 30
	}
	return models.RawFormat{
		Itag:      f.itag(),
		Height:    f.Height,
		Label:     f.QualityLabel,
		Size:      size,
		Container: orDefault(f.Ext, "mp4"),
		FPS:       fps,
		VCodec:    orDefault(f.VCodec, "video"),
		ACodec:    orDefault(f.ACodec, "audio"),
		HasVideo:  f.HasVideo == nil || *f.HasVideo,
		HasAudio:  f.HasAudio == nil || *f.HasAudio,
		URL:       orDefault(f.URL, f.DownloadURL),
	}
}

func (d *rapidResponse) thumbnailURL() string {
	if d.Thumbnail != "" {
		return d.Thumbnail
	}
	if len(d.Thumbnails) > 0 {
		return d.Thumbnails[0].URL
	}
	return ""
}

func (d *rapidResponse) durationSeconds() string {
	if d.Duration != "" {
		return string(d.Duration)
	}
	if d.LengthSeconds != "" {
		return string(d.LengthSeconds)
	}
	return "0"
}

// defaultQualities is the standard ladder served when the provider omits a
// parseable format list.
func defaultQualities() []models.FormatDescriptor {
	ladder := []struct {
		quality string
		itag    string
	}{
		{"1080p", "137"},
		{"720p", "136"},
		{"480p", "135"},
		{"360p", "134"},
	}
	out := make([]models.FormatDescriptor, 0, len(ladder))
	for _, l := range ladder {
		out = append(out, models.FormatDescriptor{
			Quality:   l.quality,
			Itag:      l.itag,
			Container: "mp4",
			HasAudio:  true,
			FPS:       30,
			VCodec:    "video",
			ACodec:    "audio",
		})
	}
	return out
}

func orDefault(value, fallback string) string {
	if value != "" {
		return value
	}
	return fallback
}
