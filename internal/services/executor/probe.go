package executor

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/grabtube/grabtube/internal/utils"
)

// Candidate output extensions per media kind. The fetch tool does not
// report its resolved output path, so when the templated path is missing
// these are probed in order.
var (
	VideoExtensions = []string{".mp4", ".webm", ".mkv"}
	AudioExtensions = []string{".m4a", ".webm", ".opus", ".mp3"}
)

// ProbeOutput locates the file actually written by the fetch tool. The
// expected path is checked first; if absent, the path is re-tried with each
// candidate extension. This is a fallback for tools that rewrite the output
// extension during muxing, not regular control flow.
func ProbeOutput(expectedPath string, candidateExts []string) (string, error) {
	if fileExists(expectedPath) {
		return expectedPath, nil
	}

	base := strings.TrimSuffix(expectedPath, filepath.Ext(expectedPath))
	for _, candidate := range candidateExts {
		path := base + candidate
		if fileExists(path) {
			return path, nil
		}
	}

	return "", utils.NewOutputNotFoundError(expectedPath)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
