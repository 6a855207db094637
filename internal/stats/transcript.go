package stats

import (
	"os"
	"strings"
	"unicode/utf8"
)

// TranscriptAnalysis summarises one transcript file.
type TranscriptAnalysis struct {
	FileSizeBytes           int64
	TotalCharacters         int
	TranscriptionCharacters int
	EstimatedTokens         int
}

// AnalyzeTranscript measures the spoken text of a transcript file. Header
// comments and separators are ignored, and the "[mm:ss - mm:ss] SPEAKER: "
// prefix is stripped from utterance lines.
func AnalyzeTranscript(path string) (TranscriptAnalysis, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return TranscriptAnalysis{}, err
	}
	content := string(data)
	var spoken []string
	for line := range strings.SplitSeq(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "=") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.Contains(line, "]") {
			_, text, ok := strings.Cut(line, ": ")
			if !ok {
				continue
			}
			line = text
		}
		spoken = append(spoken, line)
	}
	text := strings.Join(spoken, " ")
	return TranscriptAnalysis{
		FileSizeBytes:           int64(len(data)),
		TotalCharacters:         utf8.RuneCountInString(content),
		TranscriptionCharacters: utf8.RuneCountInString(text),
		EstimatedTokens:         EstimateTokens(text),
	}, nil
}
