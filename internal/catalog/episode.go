package catalog

import "encoding/json"

// AudioMetadata caches probe results for a downloaded audio file. The cache is
// valid while FileSizeBytes matches the file on disk.
type AudioMetadata struct {
	FileSizeBytes   int64   `json:"file_size_bytes"`
	DurationSeconds float64 `json:"duration_seconds"`
	AnalyzedDate    string  `json:"analyzed_date"`
}

// Episode is one catalog record. URL is the unique key; every other field is
// optional and owned by a single stage.
type Episode struct {
	URL                             string         `json:"url"`
	Page                            int            `json:"page,omitempty"`
	Title                           string         `json:"title,omitempty"`
	PublishDate                     string         `json:"publish_date,omitempty"`
	AudioLink                       string         `json:"audio_link,omitempty"`
	FilePath                        string         `json:"file_path,omitempty"`
	AudioMetadata                   *AudioMetadata `json:"audio_metadata,omitempty"`
	TranscriptionFilePath           string         `json:"transcription_file_path,omitempty"`
	TranscriptionFilePathAssemblyAI string         `json:"transcription_file_path_assemblyai,omitempty"`
}

// UnmarshalJSON accepts the legacy "date" key as a stand-in for publish_date.
func (e *Episode) UnmarshalJSON(data []byte) error {
	type plain Episode
	var raw struct {
		plain
		Date *string `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = Episode(raw.plain)
	if e.PublishDate == "" && raw.Date != nil {
		e.PublishDate = *raw.Date
	}
	return nil
}

// Key returns the identifier used in the series map: the local audio path
// when known, otherwise the episode URL.
func (e Episode) Key() string {
	if e.FilePath != "" {
		return e.FilePath
	}
	return e.URL
}

// TranscriptPath returns the preferred transcript path, local engine first.
func (e Episode) TranscriptPath() string {
	if e.TranscriptionFilePath != "" {
		return e.TranscriptionFilePath
	}
	return e.TranscriptionFilePathAssemblyAI
}

func (e Episode) clone() Episode {
	if e.AudioMetadata != nil {
		meta := *e.AudioMetadata
		e.AudioMetadata = &meta
	}
	return e
}

// Patch carries stage results to merge into a record. Zero values mean
// "no value" and are never applied.
type Patch struct {
	Page                            int
	Title                           string
	PublishDate                     string
	AudioLink                       string
	FilePath                        string
	AudioMetadata                   *AudioMetadata
	TranscriptionFilePath           string
	TranscriptionFilePathAssemblyAI string
}

// IsEmpty reports whether the patch carries no values.
func (p Patch) IsEmpty() bool {
	return p.Page == 0 && p.Title == "" && p.PublishDate == "" && p.AudioLink == "" &&
		p.FilePath == "" && p.AudioMetadata == nil &&
		p.TranscriptionFilePath == "" && p.TranscriptionFilePathAssemblyAI == ""
}

// apply merges p into e and reports whether anything changed.
func (p Patch) apply(e *Episode, force bool) bool {
	changed := false
	mergeString := func(dst *string, value string) {
		if value == "" || *dst == value {
			return
		}
		if *dst == "" || force {
			*dst = value
			changed = true
		}
	}
	if p.Page > 0 && e.Page != p.Page && (e.Page == 0 || force) {
		e.Page = p.Page
		changed = true
	}
	mergeString(&e.Title, p.Title)
	mergeString(&e.PublishDate, p.PublishDate)
	mergeString(&e.AudioLink, p.AudioLink)
	mergeString(&e.FilePath, p.FilePath)
	if p.AudioMetadata != nil && (e.AudioMetadata == nil || force) {
		if e.AudioMetadata == nil || *e.AudioMetadata != *p.AudioMetadata {
			meta := *p.AudioMetadata
			e.AudioMetadata = &meta
			changed = true
		}
	}
	mergeString(&e.TranscriptionFilePath, p.TranscriptionFilePath)
	mergeString(&e.TranscriptionFilePathAssemblyAI, p.TranscriptionFilePathAssemblyAI)
	return changed
}
