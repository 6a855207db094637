// Package audiolinks finds the downloadable audio URL on each episode page.
package audiolinks

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// audioExtensions are the substrings a candidate URL must contain.
var audioExtensions = []string{".mp3", ".m4a"}

// strategy pairs a selector with the attribute holding the candidate URL.
type strategy struct {
	selector string
	attr     string
}

// strategies are tried in order; the first acceptable candidate wins.
var strategies = []strategy{
	{`source[type="audio/mp3"]`, "src"},
	{`source[type="audio/mpeg"], source[type="audio/m4a"], source[type="audio/mp4"], source[type="audio/x-m4a"]`, "src"},
	{"source[src]", "src"},
	{"audio[src]", "src"},
	{"a[href]", "href"},
}

// Extract returns the first audio link on the page, exactly as written in
// the markup (relative links stay relative). The boolean is false when the
// page has no acceptable candidate.
func Extract(html []byte) (string, bool, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", false, fmt.Errorf("parse episode page: %w", err)
	}
	for _, s := range strategies {
		var found string
		doc.Find(s.selector).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			candidate := strings.TrimSpace(sel.AttrOr(s.attr, ""))
			if isAudioLink(candidate) {
				found = candidate
				return false
			}
			return true
		})
		if found != "" {
			return found, true, nil
		}
	}
	return "", false, nil
}

func isAudioLink(candidate string) bool {
	if candidate == "" {
		return false
	}
	lower := strings.ToLower(candidate)
	for _, ext := range audioExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return false
}
