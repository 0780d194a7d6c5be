package provider

import "testing"

func TestVideoSelector(t *testing.T) {
	testCases := []struct {
		name     string
		height   int
		itag     string
		expected string
	}{
		{
			name:     "Height cap",
			height:   720,
			expected: "bestvideo[height<=720]+bestaudio/best[height<=720]",
		},
		{
			name:     "Explicit itag bypasses height",
			height:   720,
			itag:     "137",
			expected: "137+bestaudio/137",
		},
		{
			name:     "No constraints",
			expected: "bestvideo+bestaudio/best",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := VideoSelector(tc.height, tc.itag); got != tc.expected {
				t.Errorf("VideoSelector(%d, %q) = %q, want %q", tc.height, tc.itag, got, tc.expected)
			}
		})
	}
}

func TestSingleFileSelector(t *testing.T) {
	if got := SingleFileSelector(480, ""); got != "best[height<=480]" {
		t.Errorf("unexpected selector: %s", got)
	}
	if got := SingleFileSelector(0, ""); got != "best" {
		t.Errorf("unexpected selector: %s", got)
	}
	if got := SingleFileSelector(480, "22"); got != "22" {
		t.Errorf("expected itag passthrough, got %s", got)
	}
}
