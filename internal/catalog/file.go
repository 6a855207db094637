package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"voxarchive/internal/fileutil"
	"voxarchive/internal/services"
)

// ErrCorruptCatalog reports an episodes.json that exists but cannot be parsed.
var ErrCorruptCatalog = fmt.Errorf("%w: catalog", services.ErrCorruptData)

// Catalog is the on-disk document.
type Catalog struct {
	Episodes       []Episode `json:"episodes"`
	ProcessedPages []int     `json:"processed_pages"`
	LastUpdated    *string   `json:"last_updated"`
}

// Load reads the catalog at path. A missing file yields an empty catalog.
func Load(path string) (Catalog, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return emptyCatalog(), false, nil
		}
		return Catalog{}, false, fmt.Errorf("read catalog: %w", err)
	}
	var doc Catalog
	if err := json.Unmarshal(data, &doc); err != nil {
		return Catalog{}, true, fmt.Errorf("%w: %s: %v", ErrCorruptCatalog, path, err)
	}
	if doc.Episodes == nil {
		doc.Episodes = []Episode{}
	}
	if doc.ProcessedPages == nil {
		doc.ProcessedPages = []int{}
	}
	return doc, true, nil
}

// Save writes doc to path atomically, stamping LastUpdated with now.
func Save(path string, doc *Catalog, now time.Time) error {
	stamp := now.Format(time.RFC3339)
	doc.LastUpdated = &stamp
	if doc.Episodes == nil {
		doc.Episodes = []Episode{}
	}
	pages := slices.Clone(doc.ProcessedPages)
	slices.Sort(pages)
	doc.ProcessedPages = slices.Compact(pages)
	if doc.ProcessedPages == nil {
		doc.ProcessedPages = []int{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save catalog: %w", err)
	}
	return nil
}

func emptyCatalog() Catalog {
	return Catalog{Episodes: []Episode{}, ProcessedPages: []int{}}
}
