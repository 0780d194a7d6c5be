package models

// DownloadType selects whether the video track or only the audio track of a
// video is downloaded.
type DownloadType string

const (
	DownloadTypeVideo DownloadType = "video"
	DownloadTypeAudio DownloadType = "audio"
)

// FormatDescriptor describes one retrievable stream variant as reported by a
// provider. Quality labels are unique within a MediaInfo format list.
type FormatDescriptor struct {
	Quality   string `json:"quality"`
	Size      int64  `json:"size"`
	Itag      string `json:"itag"`
	Container string `json:"container"`
	HasAudio  bool   `json:"hasAudio"`
	FPS       int    `json:"fps"`
	VCodec    string `json:"vcodec"`
	ACodec    string `json:"acodec"`
	ABR       int    `json:"abr,omitempty"`
}

// MediaInfo is the aggregate returned by the video-info endpoint. The
// qualities slice is ordered descending by numeric quality.
type MediaInfo struct {
	VideoID     string             `json:"-"`
	Title       string             `json:"title"`
	Thumbnail   string             `json:"thumbnail"`
	Author      string             `json:"author"`
	Duration    string             `json:"duration"`
	Qualities   []FormatDescriptor `json:"qualities"`
	AudioFormat *FormatDescriptor  `json:"audioFormat,omitempty"`
}

// VideoInfoRequest is the body of POST /video-info.
type VideoInfoRequest struct {
	URL string `json:"url" binding:"required"`
}

// DownloadRequest is the body of POST /download. DownloadType defaults to
// video when omitted.
type DownloadRequest struct {
	URL          string       `json:"url" binding:"required"`
	Itag         string       `json:"itag,omitempty"`
	Quality      string       `json:"quality,omitempty"`
	DownloadType DownloadType `json:"downloadType,omitempty"`
}

func (r *DownloadRequest) Kind() DownloadType {
	if r.DownloadType == DownloadTypeAudio {
		return DownloadTypeAudio
	}
	return DownloadTypeVideo
}

// RawFormat is a provider-neutral format entry before resolver
// normalization. Height may be zero when only the quality label is known.
type RawFormat struct {
	Itag      string
	Height    int
	Label     string
	Size      int64
	Container string
	FPS       int
	VCodec    string
	ACodec    string
	HasAudio  bool
	HasVideo  bool
	ABR       int
	URL       string
}
