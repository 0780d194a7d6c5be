// Package provider holds the metadata/fetch strategies the pipeline can run
// against: a hosted resolution API, the yt-dlp command line tool, or the
// embedded scraping library. All three satisfy the same contract and are
// selected by configuration at startup.
package provider

import (
	"context"
	"fmt"

	"github.com/grabtube/grabtube/internal/config"
	"github.com/grabtube/grabtube/internal/models"
	"github.com/grabtube/grabtube/internal/services/executor"
	"github.com/grabtube/grabtube/internal/services/ffmpeg"
)

// FetchRequest identifies one stream to retrieve. Format is the descriptor
// chosen by the selector and Height the requested cap for strategies that
// express "best at or below H" natively. Itag is set only when the caller
// supplied an explicit low-level format token, which is passed through to
// the tool untouched.
type FetchRequest struct {
	VideoID string
	Format  *models.FormatDescriptor
	Kind    models.DownloadType
	Height  int
	Itag    string
}

// Provider resolves metadata and fetches media bytes for one video.
type Provider interface {
	Name() string
	Resolve(ctx context.Context, videoID string) (*models.MediaInfo, error)
	Fetch(ctx context.Context, req FetchRequest) (*executor.MediaStream, error)
}

// New builds the provider selected by configuration. The transcode tool is
// injected so availability probing is shared across strategies.
func New(cfg *config.Config, tool *ffmpeg.Tool) (Provider, error) {
	switch cfg.Provider.Strategy {
	case config.StrategyYtdlp:
		return NewYtdlp(&cfg.Download, tool), nil
	case config.StrategyNative:
		return NewNative(&cfg.Download, tool), nil
	case config.StrategyRapidAPI:
		return NewRapidAPI(&cfg.Provider, &cfg.Download), nil
	default:
		return nil, fmt.Errorf("unknown provider strategy: %s", cfg.Provider.Strategy)
	}
}

func watchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}
