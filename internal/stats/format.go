package stats

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// FormatDuration renders seconds as HH:MM:SS with hours unbounded.
func FormatDuration(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	total := int64(seconds)
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// FormatSize renders a byte count with binary units (1 KB = 1024 B).
func FormatSize(bytes int64) string {
	size := float64(bytes)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if size < 1024 {
			return fmt.Sprintf("%.2f %s", size, unit)
		}
		size /= 1024
	}
	return fmt.Sprintf("%.2f TB", size)
}

// EstimateTokens approximates the LLM token count of text: the larger of
// the word count and 80% of characters/4.
func EstimateTokens(text string) int {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0
	}
	chars := utf8.RuneCountInString(strings.Join(words, " "))
	return max(len(words), int(float64(chars)/4*0.8))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round1(float64(part) / float64(whole) * 100)
}
