package transcribe

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

const (
	generatedLayout   = "2006-01-02 15:04:05"
	unknownSpeaker    = "UNKNOWN"
	speakerPrefix     = "SPEAKER_"
	fullTextHeading   = "# Full Transcription (without speaker labels)"
	utterancesHeading = "# Speaker-labeled Transcription"
)

// Document is everything written to a transcript file.
type Document struct {
	Title     string
	AudioPath string
	Engine    string
	Generated time.Time
	Result    Result
}

// Format renders the transcript file: header comments, one
// "[mm:ss - mm:ss] SPEAKER_x: text" line per utterance, then the unlabelled
// full text when present.
func Format(doc Document) string {
	var b strings.Builder
	title := doc.Title
	if title == "" {
		title = "Unknown"
	}
	fmt.Fprintf(&b, "# Transcription: %s\n", title)
	fmt.Fprintf(&b, "# Generated: %s\n", doc.Generated.Format(generatedLayout))
	fmt.Fprintf(&b, "# Audio file: %s\n", filepath.Base(doc.AudioPath))
	fmt.Fprintf(&b, "# Service: %s\n", doc.Engine)
	b.WriteString("\n")

	if len(doc.Result.Utterances) > 0 {
		b.WriteString(utterancesHeading + "\n\n")
		for _, u := range doc.Result.Utterances {
			fmt.Fprintf(&b, "[%s - %s] %s: %s\n",
				clock(u.Start), clock(u.End), NormalizeSpeaker(u.Speaker), strings.TrimSpace(u.Text))
		}
	}

	if text := strings.TrimSpace(doc.Result.FullText); text != "" {
		b.WriteString("\n" + fullTextHeading + "\n\n")
		b.WriteString(text + "\n")
	}
	return b.String()
}

// NormalizeSpeaker maps engine speaker labels onto SPEAKER_x.
func NormalizeSpeaker(label string) string {
	label = strings.TrimSpace(label)
	switch {
	case label == "" || strings.EqualFold(label, unknownSpeaker):
		return unknownSpeaker
	case strings.HasPrefix(label, speakerPrefix):
		return label
	default:
		return speakerPrefix + label
	}
}

// clock formats d as mm:ss with minutes allowed past 59.
func clock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
