package classify

import (
	"bufio"
	"os"
	"strings"

	"voxarchive/internal/catalog"
	"voxarchive/internal/fileutil"
)

// ReadTranscript returns the spoken lines of a transcript file: blank lines,
// "#" headers and "=" separators are dropped, timestamps and speaker labels
// are kept.
func ReadTranscript(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "=") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return strings.Join(lines, "\n"), nil
}

// transcriptFile returns the first existing transcript of ep, local engine
// first.
func transcriptFile(ep catalog.Episode) string {
	for _, path := range []string{ep.TranscriptionFilePath, ep.TranscriptionFilePathAssemblyAI} {
		if fileutil.Exists(path) {
			return path
		}
	}
	return ""
}

// loadText reads the preferred transcript, falling back to the cloud one when
// the local file has no spoken lines.
func loadText(ep catalog.Episode) (string, error) {
	var firstErr error
	for _, path := range []string{ep.TranscriptionFilePath, ep.TranscriptionFilePathAssemblyAI} {
		if !fileutil.Exists(path) {
			continue
		}
		text, err := ReadTranscript(path)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if text != "" {
			return text, nil
		}
	}
	return "", firstErr
}
