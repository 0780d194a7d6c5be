// Package resolver normalizes provider-reported format lists into the
// response shape served by the video-info endpoint.
package resolver

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/grabtube/grabtube/internal/models"
)

// DefaultMinHeight is the smallest usable vertical resolution.
const DefaultMinHeight = 144

var heightToken = regexp.MustCompile(`(\d+)p`)

// HeightOf derives the vertical resolution of a raw entry, preferring the
// explicit field over a trailing "NNNp" token in the quality label.
func HeightOf(f models.RawFormat) int {
	if f.Height > 0 {
		return f.Height
	}
	if matches := heightToken.FindStringSubmatch(f.Label); len(matches) > 1 {
		if h, err := strconv.Atoi(matches[1]); err == nil {
			return h
		}
	}
	return 0
}

// QualityHeight extracts the numeric component of a quality label such as
// "720p". Returns 0 when the label carries no number.
func QualityHeight(label string) int {
	if matches := heightToken.FindStringSubmatch(label); len(matches) > 1 {
		if h, err := strconv.Atoi(matches[1]); err == nil {
			return h
		}
	}
	h, err := strconv.Atoi(strings.TrimSuffix(label, "p"))
	if err != nil {
		return 0
	}
	return h
}

// Build collapses raw provider formats into a deduplicated quality list plus
// the single best audio-only descriptor. Entries below minHeight or without
// a usable video codec are skipped. When two entries collide on a quality
// label the one with audio wins, else the larger one. The result is sorted
// strictly descending by height. Pure transformation, no provider calls.
func Build(raw []models.RawFormat, minHeight int) ([]models.FormatDescriptor, *models.FormatDescriptor) {
	if minHeight <= 0 {
		minHeight = DefaultMinHeight
	}

	byLabel := make(map[string]models.FormatDescriptor)
	var bestAudio *models.FormatDescriptor

	for _, f := range raw {
		if !f.HasVideo || f.VCodec == "" || f.VCodec == "none" {
			// Audio-only candidates compete on bitrate.
			if f.HasAudio && (bestAudio == nil || f.ABR > bestAudio.ABR) {
				bestAudio = &models.FormatDescriptor{
					Quality:   "audio",
					Size:      f.Size,
					Itag:      f.Itag,
					Container: f.Container,
					HasAudio:  true,
					ACodec:    f.ACodec,
					ABR:       f.ABR,
				}
			}
			continue
		}

		height := HeightOf(f)
		if height < minHeight {
			continue
		}

		label := fmt.Sprintf("%dp", height)
		desc := models.FormatDescriptor{
			Quality:   label,
			Size:      f.Size,
			Itag:      f.Itag,
			Container: f.Container,
			HasAudio:  f.HasAudio,
			FPS:       f.FPS,
			VCodec:    f.VCodec,
			ACodec:    f.ACodec,
		}

		existing, ok := byLabel[label]
		if !ok || preferOver(desc, existing) {
			byLabel[label] = desc
		}
	}

	qualities := make([]models.FormatDescriptor, 0, len(byLabel))
	for _, desc := range byLabel {
		qualities = append(qualities, desc)
	}
	sort.Slice(qualities, func(i, j int) bool {
		return QualityHeight(qualities[i].Quality) > QualityHeight(qualities[j].Quality)
	})

	return qualities, bestAudio
}

// preferOver decides whether a new descriptor replaces an existing one with
// the same quality label: audio presence wins, then size.
func preferOver(next, existing models.FormatDescriptor) bool {
	if next.HasAudio != existing.HasAudio {
		return next.HasAudio
	}
	return next.Size > existing.Size
}
