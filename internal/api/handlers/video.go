package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/grabtube/grabtube/internal/config"
	"github.com/grabtube/grabtube/internal/models"
	"github.com/grabtube/grabtube/internal/services/parser"
	"github.com/grabtube/grabtube/internal/services/provider"
	"github.com/grabtube/grabtube/internal/services/resolver"
	"github.com/grabtube/grabtube/internal/services/selector"
	"github.com/grabtube/grabtube/internal/utils"
)

type VideoHandler struct {
	provider provider.Provider
	cfg      *config.DownloadConfig
}

func NewVideoHandler(p provider.Provider, cfg *config.DownloadConfig) *VideoHandler {
	return &VideoHandler{
		provider: p,
		cfg:      cfg,
	}
}

// VideoInfo godoc
// @Summary Get video metadata and quality options
// @Description Resolve a YouTube URL into title, author, duration, thumbnail and the list of downloadable qualities
// @Tags video
// @Accept json
// @Produce json
// @Param request body models.VideoInfoRequest true "Video URL"
// @Success 200 {object} models.MediaInfo
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /video-info [post]
func (h *VideoHandler) VideoInfo(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.VideoInfoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewInvalidURLError())
		return
	}

	videoID, err := parser.ParseVideoID(req.URL)
	if err != nil {
		h.errorResponse(c, utils.AsAppError(err))
		return
	}

	info, err := h.provider.Resolve(ctx, videoID)
	if err != nil {
		utils.LogError(ctx, "Failed to resolve video info", err, utils.Fields{
			"video_id": videoID,
			"provider": h.provider.Name(),
		})
		h.errorResponse(c, utils.AsAppError(err))
		return
	}

	utils.LogInfo(ctx, "Resolved video info", utils.Fields{
		"video_id":  videoID,
		"qualities": len(info.Qualities),
	})
	c.JSON(http.StatusOK, info)
}

// Download godoc
// @Summary Download a video or audio stream
// @Description Fetch the selected stream and relay it to the caller as an attachment
// @Tags video
// @Accept json
// @Produce application/octet-stream
// @Param request body models.DownloadRequest true "Download request"
// @Success 200 {file} binary
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /download [post]
func (h *VideoHandler) Download(c *gin.Context) {
	var req models.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, utils.NewInvalidURLError())
		return
	}

	videoID, err := parser.ParseVideoID(req.URL)
	if err != nil {
		h.errorResponse(c, utils.AsAppError(err))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.cfg.DownloadTimeout)
	defer cancel()

	info, err := h.provider.Resolve(ctx, videoID)
	if err != nil {
		utils.LogError(ctx, "Failed to resolve video before download", err, utils.Fields{
			"video_id": videoID,
		})
		h.errorResponse(c, utils.AsAppError(err))
		return
	}

	desc, err := selector.Select(info, &req)
	if err != nil {
		h.errorResponse(c, utils.AsAppError(err))
		return
	}

	kind := req.Kind()
	fetchReq := provider.FetchRequest{
		VideoID: videoID,
		Format:  desc,
		Kind:    kind,
		Itag:    req.Itag,
	}
	if kind == models.DownloadTypeVideo {
		fetchReq.Height = resolver.QualityHeight(desc.Quality)
	}

	stream, err := h.provider.Fetch(ctx, fetchReq)
	if err != nil {
		utils.LogError(ctx, "Failed to fetch media", err, utils.Fields{
			"video_id": videoID,
			"quality":  desc.Quality,
			"kind":     string(kind),
		})
		h.errorResponse(c, utils.AsAppError(err))
		return
	}
	defer stream.Close()

	filename, contentType := downloadArtifact(info.Title, kind)
	if stream.ContentType != "" {
		contentType = stream.ContentType
	}

	c.Header("Content-Type", contentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	c.Header("Cache-Control", "no-cache")
	if stream.Size > 0 {
		c.Header("Content-Length", strconv.FormatInt(stream.Size, 10))
	}
	c.Status(http.StatusOK)

	written, err := io.Copy(c.Writer, stream.Reader)
	if err != nil {
		// Headers are gone; all that is left is logging the interruption.
		utils.LogError(ctx, "Stream interrupted", err, utils.Fields{
			"video_id":      videoID,
			"bytes_written": written,
			"file_name":     filename,
		})
		return
	}

	utils.LogInfo(ctx, "Download completed", utils.Fields{
		"video_id":      videoID,
		"bytes_written": written,
		"file_name":     filename,
	})
}

// downloadArtifact derives the attachment filename and content type for a
// download of the given kind.
func downloadArtifact(title string, kind models.DownloadType) (string, string) {
	base := utils.SanitizeFilename(title)
	if kind == models.DownloadTypeAudio {
		return base + ".mp3", "audio/mpeg"
	}
	return base + ".mp4", "video/mp4"
}

func (h *VideoHandler) errorResponse(c *gin.Context, err *utils.AppError) {
	c.JSON(err.StatusCode, gin.H{
		"error":      err.Message,
		"request_id": c.GetString("request_id"),
	})
}
