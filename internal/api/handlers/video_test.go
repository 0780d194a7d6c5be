package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/grabtube/grabtube/internal/config"
	"github.com/grabtube/grabtube/internal/models"
	"github.com/grabtube/grabtube/internal/services/executor"
	"github.com/grabtube/grabtube/internal/services/provider"
	"github.com/grabtube/grabtube/internal/utils"
)

type stubProvider struct {
	info       *models.MediaInfo
	resolveErr error
	fetchErr   error
	stream     *executor.MediaStream
	lastFetch  provider.FetchRequest
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Resolve(ctx context.Context, videoID string) (*models.MediaInfo, error) {
	if s.resolveErr != nil {
		return nil, s.resolveErr
	}
	return s.info, nil
}

func (s *stubProvider) Fetch(ctx context.Context, req provider.FetchRequest) (*executor.MediaStream, error) {
	s.lastFetch = req
	if s.fetchErr != nil {
		return nil, s.fetchErr
	}
	return s.stream, nil
}

func testMediaInfo() *models.MediaInfo {
	return &models.MediaInfo{
		VideoID:  "dQw4w9WgXcQ",
		Title:    "Test Video!",
		Author:   "Tester",
		Duration: "212",
		Qualities: []models.FormatDescriptor{
			{Quality: "1080p", Itag: "137", Container: "mp4", VCodec: "avc1", ACodec: "none"},
			{Quality: "720p", Itag: "22", Container: "mp4", HasAudio: true, VCodec: "avc1", ACodec: "mp4a"},
		},
		AudioFormat: &models.FormatDescriptor{
			Quality: "audio", Itag: "140", Container: "m4a", HasAudio: true, VCodec: "none", ACodec: "mp4a", ABR: 128,
		},
	}
}

func testRouter(p provider.Provider) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.DownloadConfig{DownloadTimeout: 30 * time.Second}
	h := NewVideoHandler(p, cfg)

	engine := gin.New()
	engine.POST("/video-info", h.VideoInfo)
	engine.POST("/download", h.Download)
	return engine
}

func postJSON(t *testing.T, engine *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestVideoInfoSuccess(t *testing.T) {
	p := &stubProvider{info: testMediaInfo()}
	engine := testRouter(p)

	w := postJSON(t, engine, "/video-info", models.VideoInfoRequest{
		URL: "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var info models.MediaInfo
	if err := json.Unmarshal(w.Body.Bytes(), &info); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if info.Title != "Test Video!" {
		t.Errorf("Expected title 'Test Video!', got %q", info.Title)
	}
	if len(info.Qualities) != 2 {
		t.Errorf("Expected 2 qualities, got %d", len(info.Qualities))
	}
	if strings.Contains(w.Body.String(), "videoID") {
		t.Error("Internal video ID should not be serialized")
	}
}

func TestVideoInfoInvalidURL(t *testing.T) {
	testCases := []struct {
		name string
		body interface{}
	}{
		{
			name: "Not a YouTube URL",
			body: models.VideoInfoRequest{URL: "https://example.com/watch?v=dQw4w9WgXcQ"},
		},
		{
			name: "Missing url field",
			body: map[string]string{},
		},
		{
			name: "ID too short",
			body: models.VideoInfoRequest{URL: "https://youtu.be/short"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := &stubProvider{info: testMediaInfo()}
			engine := testRouter(p)

			w := postJSON(t, engine, "/video-info", tc.body)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", w.Code)
			}

			var resp map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("unmarshal error response: %v", err)
			}
			if resp["error"] != "Invalid YouTube URL" {
				t.Errorf("Expected 'Invalid YouTube URL', got %v", resp["error"])
			}
		})
	}
}

func TestVideoInfoResolveFailure(t *testing.T) {
	p := &stubProvider{resolveErr: utils.NewNoFormatsError()}
	engine := testRouter(p)

	w := postJSON(t, engine, "/video-info", models.VideoInfoRequest{
		URL: "https://youtu.be/dQw4w9WgXcQ",
	})

	if w.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", w.Code)
	}
}

func TestDownloadVideoSuccess(t *testing.T) {
	content := "fake mp4 bytes"
	p := &stubProvider{
		info: testMediaInfo(),
		stream: &executor.MediaStream{
			Reader:      io.NopCloser(strings.NewReader(content)),
			Size:        int64(len(content)),
			ContentType: "video/mp4",
		},
	}
	engine := testRouter(p)

	w := postJSON(t, engine, "/download", models.DownloadRequest{
		URL:     "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		Quality: "720p",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if w.Body.String() != content {
		t.Errorf("Expected body %q, got %q", content, w.Body.String())
	}

	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") {
		t.Errorf("Expected attachment disposition, got %q", disposition)
	}
	if !strings.Contains(disposition, "test_video_.mp4") {
		t.Errorf("Expected sanitized filename in %q", disposition)
	}
	if ct := w.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("Expected Content-Type video/mp4, got %q", ct)
	}
	if cl := w.Header().Get("Content-Length"); cl != "14" {
		t.Errorf("Expected Content-Length 14, got %q", cl)
	}

	if p.lastFetch.Kind != models.DownloadTypeVideo {
		t.Errorf("Expected video fetch, got %s", p.lastFetch.Kind)
	}
	if p.lastFetch.Height != 720 {
		t.Errorf("Expected fetch height 720, got %d", p.lastFetch.Height)
	}
}

func TestDownloadAudioFilename(t *testing.T) {
	p := &stubProvider{
		info: testMediaInfo(),
		stream: &executor.MediaStream{
			Reader:      io.NopCloser(strings.NewReader("mp3")),
			Size:        -1,
			ContentType: "audio/mpeg",
		},
	}
	engine := testRouter(p)

	w := postJSON(t, engine, "/download", models.DownloadRequest{
		URL:          "https://youtu.be/dQw4w9WgXcQ",
		DownloadType: models.DownloadTypeAudio,
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Header().Get("Content-Disposition"), ".mp3") {
		t.Errorf("Expected mp3 filename, got %q", w.Header().Get("Content-Disposition"))
	}
	if w.Header().Get("Content-Length") != "" {
		t.Error("Content-Length should be omitted for streams of unknown size")
	}
	if p.lastFetch.Kind != models.DownloadTypeAudio {
		t.Errorf("Expected audio fetch, got %s", p.lastFetch.Kind)
	}
}

func TestDownloadQualityFallback(t *testing.T) {
	p := &stubProvider{
		info: testMediaInfo(),
		stream: &executor.MediaStream{
			Reader: io.NopCloser(strings.NewReader("x")),
			Size:   1,
		},
	}
	engine := testRouter(p)

	// 240p is not in the list, the best available quality is used instead.
	w := postJSON(t, engine, "/download", models.DownloadRequest{
		URL:     "https://youtu.be/dQw4w9WgXcQ",
		Quality: "240p",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if p.lastFetch.Format == nil || p.lastFetch.Format.Quality != "1080p" {
		t.Errorf("Expected fallback to 1080p, got %+v", p.lastFetch.Format)
	}
}

func TestDownloadFetchFailure(t *testing.T) {
	p := &stubProvider{
		info:     testMediaInfo(),
		fetchErr: utils.NewFetchError(errors.New("yt-dlp exited with status 1")),
	}
	engine := testRouter(p)

	w := postJSON(t, engine, "/download", models.DownloadRequest{
		URL: "https://youtu.be/dQw4w9WgXcQ",
	})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "yt-dlp exited") {
		t.Errorf("Expected fetch error message, got %s", w.Body.String())
	}
}
