package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kkdai/youtube/v2"

	"github.com/grabtube/grabtube/internal/config"
	"github.com/grabtube/grabtube/internal/services/ffmpeg"
	"github.com/grabtube/grabtube/internal/utils"
)

func TestParseMimeType(t *testing.T) {
	testCases := []struct {
		mime      string
		container string
		codec     string
	}{
		{`video/mp4; codecs="avc1.64001F, mp4a.40.2"`, "mp4", "avc1.64001F"},
		{`video/webm; codecs="vp9"`, "webm", "vp9"},
		{`audio/mp4; codecs="mp4a.40.2"`, "mp4", "mp4a.40.2"},
		{`audio/webm; codecs="opus"`, "webm", "opus"},
		{`video/mp4`, "mp4", ""},
		{``, "", ""},
	}

	for _, tc := range testCases {
		container, codec := parseMimeType(tc.mime)
		if container != tc.container || codec != tc.codec {
			t.Errorf("parseMimeType(%q) = (%q, %q), want (%q, %q)",
				tc.mime, container, codec, tc.container, tc.codec)
		}
	}
}

func TestMimeContentType(t *testing.T) {
	testCases := []struct {
		mime string
		want string
	}{
		{`video/mp4; codecs="avc1.64001F, mp4a.40.2"`, "video/mp4"},
		{`audio/mp4; codecs="mp4a.40.2"`, "audio/mp4"},
		{`audio/webm; codecs="opus"`, "audio/webm"},
		{`video/webm`, "video/webm"},
	}

	for _, tc := range testCases {
		if got := mimeContentType(tc.mime); got != tc.want {
			t.Errorf("mimeContentType(%q) = %q, want %q", tc.mime, got, tc.want)
		}
	}
}

func TestMergeTracksFailureCleansUp(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "video_dQw4w9WgXcQ_1.mp4")
	audioPath := filepath.Join(dir, "audio_dQw4w9WgXcQ_1.m4a")
	for _, path := range []string{videoPath, audioPath} {
		if err := os.WriteFile(path, []byte("track bytes"), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}

	p := &Native{
		cfg:  &config.DownloadConfig{TempDir: dir},
		tool: ffmpeg.New(filepath.Join(dir, "no-such-ffmpeg")),
	}

	_, err := p.mergeTracks(context.Background(), "dQw4w9WgXcQ", videoPath, audioPath)
	if err == nil {
		t.Fatal("expected merge to fail with a missing binary")
	}
	if appErr := utils.AsAppError(err); appErr.Code != utils.ErrorCodeMergeFailed {
		t.Errorf("expected MERGE_FAILED, got %s", appErr.Code)
	}

	entries, readErr := os.ReadDir(dir)
	if readErr != nil {
		t.Fatalf("read temp dir: %v", readErr)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("expected empty temp dir after failed merge, found %v", names)
	}
}

func TestBestVideoOnlyFormatRespectsHeightCap(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1"`, Height: 1080},
		{ItagNo: 136, MimeType: `video/mp4; codecs="avc1"`, Height: 720},
		{ItagNo: 135, MimeType: `video/mp4; codecs="avc1"`, Height: 480},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a"`},
	}

	f := bestVideoOnlyFormat(formats, 720)
	if f == nil || f.ItagNo != 136 {
		t.Fatalf("expected itag 136, got %+v", f)
	}

	f = bestVideoOnlyFormat(formats, 0)
	if f == nil || f.ItagNo != 137 {
		t.Fatalf("expected highest without cap, got %+v", f)
	}
}

func TestBestVideoOnlyFormatSkipsMuxed(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1, mp4a"`, Height: 720, AudioChannels: 2},
	}
	if f := bestVideoOnlyFormat(formats, 0); f != nil {
		t.Errorf("expected no video-only format, got itag %d", f.ItagNo)
	}
}

func TestBestCombinedFormat(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 137, MimeType: `video/mp4; codecs="avc1"`, Height: 1080},
		{ItagNo: 22, MimeType: `video/mp4; codecs="avc1, mp4a"`, Height: 720, AudioChannels: 2},
		{ItagNo: 18, MimeType: `video/mp4; codecs="avc1, mp4a"`, Height: 360, AudioChannels: 2},
	}

	f := bestCombinedFormat(formats, 0)
	if f == nil || f.ItagNo != 22 {
		t.Fatalf("expected best pre-muxed itag 22, got %+v", f)
	}

	f = bestCombinedFormat(formats, 480)
	if f == nil || f.ItagNo != 18 {
		t.Fatalf("expected 360p under the 480 cap, got %+v", f)
	}
}

func TestBestAudioFormatPrefersM4AThenBitrate(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 128000},
		{ItagNo: 139, MimeType: `audio/mp4; codecs="mp4a.40.5"`, Bitrate: 48000},
	}

	f := bestAudioFormat(formats)
	if f == nil || f.ItagNo != 140 {
		t.Fatalf("expected preferred-container itag 140, got %+v", f)
	}
}

func TestBestAudioFormatFallsBackToAnyAudio(t *testing.T) {
	formats := youtube.FormatList{
		{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160000},
		{ItagNo: 250, MimeType: `audio/webm; codecs="opus"`, Bitrate: 70000},
	}

	f := bestAudioFormat(formats)
	if f == nil || f.ItagNo != 251 {
		t.Fatalf("expected highest-bitrate webm, got %+v", f)
	}
}
