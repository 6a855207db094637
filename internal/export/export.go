// Package export writes the series map joined with the catalog as CSV.
package export

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"

	"voxarchive/internal/catalog"
	"voxarchive/internal/fileutil"
	"voxarchive/internal/series"
)

// Header is the CSV column order.
var Header = []string{"series_name", "episode_num", "episode_date", "episode_url", "episode_file_path_mp3"}

// Row is one exported episode.
type Row struct {
	SeriesName  string
	EpisodeNum  int
	EpisodeDate string
	EpisodeURL  string
	FilePath    string
}

// Summary describes an export.
type Summary struct {
	Rows         int
	Series       int
	NamedSeries  int
	Independent  int
	MissingDates int
	MissingURLs  int
}

// BuildRows joins every series map entry with its catalog record, looked up
// by file_path first and URL second. Independent episodes are numbered by
// list position. Rows are sorted by series name, then number.
func BuildRows(m *series.Map, episodes []catalog.Episode) []Row {
	byPath := make(map[string]catalog.Episode, len(episodes))
	byURL := make(map[string]catalog.Episode, len(episodes))
	for _, ep := range episodes {
		if ep.FilePath != "" {
			byPath[ep.FilePath] = ep
		}
		byURL[ep.URL] = ep
	}
	lookup := func(key string) catalog.Episode {
		if ep, ok := byPath[key]; ok {
			return ep
		}
		return byURL[key]
	}
	row := func(name string, number int, key string) Row {
		ep := lookup(key)
		return Row{SeriesName: name, EpisodeNum: number, EpisodeDate: ep.PublishDate, EpisodeURL: ep.URL, FilePath: key}
	}

	var rows []Row
	for i, key := range m.Independent {
		rows = append(rows, row(series.Independent, i+1, key))
	}
	for _, name := range m.Names() {
		for _, entry := range m.Entries(name) {
			rows = append(rows, row(name, entry.Number, entry.Key))
		}
	}
	slices.SortStableFunc(rows, func(a, b Row) int {
		return cmp.Or(cmp.Compare(a.SeriesName, b.SeriesName), cmp.Compare(a.EpisodeNum, b.EpisodeNum))
	})
	return rows
}

// Summarize counts rows by kind and missing fields.
func Summarize(rows []Row) Summary {
	s := Summary{Rows: len(rows)}
	names := map[string]struct{}{}
	for _, r := range rows {
		names[r.SeriesName] = struct{}{}
		if r.SeriesName == series.Independent {
			s.Independent++
		}
		if r.EpisodeDate == "" {
			s.MissingDates++
		}
		if r.EpisodeURL == "" {
			s.MissingURLs++
		}
	}
	s.Series = len(names)
	s.NamedSeries = s.Series
	if _, ok := names[series.Independent]; ok {
		s.NamedSeries--
	}
	return s
}

// WriteCSV writes rows with a header line.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{r.SeriesName, strconv.Itoa(r.EpisodeNum), r.EpisodeDate, r.EpisodeURL, r.FilePath}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes the CSV for m and episodes to path.
func Export(path string, m *series.Map, episodes []catalog.Episode) (Summary, error) {
	rows := BuildRows(m, episodes)
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return Summary{}, fmt.Errorf("encode csv: %w", err)
	}
	if err := fileutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
		return Summary{}, fmt.Errorf("write csv: %w", err)
	}
	return Summarize(rows), nil
}
