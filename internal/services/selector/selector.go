// Package selector picks the format descriptor a download request resolves to.
package selector

import (
	"github.com/grabtube/grabtube/internal/models"
	"github.com/grabtube/grabtube/internal/utils"
)

// BestAudioItag is the generic selector token used when no standalone audio
// descriptor was resolved; providers understand it as "best audio available".
const BestAudioItag = "bestaudio"

// Select resolves a download request against resolved media info.
//
// A request carrying an explicit itag is trusted as-is, without checking it
// against the format list. Otherwise an exact quality-label match is
// preferred, falling back to the highest-quality descriptor with video.
// Audio requests use the precomputed best-audio descriptor.
func Select(info *models.MediaInfo, req *models.DownloadRequest) (*models.FormatDescriptor, error) {
	if req.Kind() == models.DownloadTypeAudio {
		if info.AudioFormat != nil {
			return info.AudioFormat, nil
		}
		return &models.FormatDescriptor{
			Quality:   "audio",
			Itag:      BestAudioItag,
			Container: "mp3",
			HasAudio:  true,
		}, nil
	}

	if req.Itag != "" {
		return &models.FormatDescriptor{
			Quality:  req.Quality,
			Itag:     req.Itag,
			HasAudio: true,
		}, nil
	}

	if req.Quality != "" {
		for i := range info.Qualities {
			if info.Qualities[i].Quality == req.Quality {
				return &info.Qualities[i], nil
			}
		}
	}

	// Fall back to the best available descriptor with video. The quality
	// list is sorted descending, so the first video entry wins.
	for i := range info.Qualities {
		if info.Qualities[i].VCodec != "" && info.Qualities[i].VCodec != "none" {
			return &info.Qualities[i], nil
		}
	}
	if len(info.Qualities) > 0 {
		return &info.Qualities[0], nil
	}

	return nil, utils.NewNoMatchingFormatError(req.Quality)
}
