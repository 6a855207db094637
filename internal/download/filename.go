package download

import (
	"net/url"
	"path"
	"strings"

	"voxarchive/internal/textutil"
)

// FileName derives the local audio file name for an episode: the episode URL
// path without its "episodes/" prefix, sanitized, plus the audio URL's
// extension (".mp3" when it has none).
func FileName(episodeURL, audioURL string) string {
	episodePath := episodeURL
	if parsed, err := url.Parse(episodeURL); err == nil {
		episodePath = parsed.Path
	}
	episodePath = strings.Trim(episodePath, "/")
	episodePath = strings.TrimPrefix(episodePath, "episodes/")

	name := textutil.SanitizeFileName(episodePath)
	if name == "" {
		name = "episode"
	}
	ext := extensionOf(audioURL)
	if !strings.HasSuffix(name, ext) {
		name += ext
	}
	return name
}

func extensionOf(audioURL string) string {
	audioPath := audioURL
	if parsed, err := url.Parse(audioURL); err == nil {
		audioPath = parsed.Path
	}
	base := path.Base(audioPath)
	if idx := strings.LastIndex(base, "."); idx >= 0 && idx < len(base)-1 {
		ext := textutil.SanitizeFileName(base[idx:])
		if ext != "" {
			return "." + strings.TrimPrefix(ext, ".")
		}
	}
	return ".mp3"
}
