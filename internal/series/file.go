package series

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"voxarchive/internal/fileutil"
	"voxarchive/internal/services"
)

// ErrCorruptSeries reports a series.json that exists but cannot be parsed.
var ErrCorruptSeries = fmt.Errorf("%w: series map", services.ErrCorruptData)

// Load reads the series map at path. A missing file yields an empty map.
// Call Migrated on the result to learn whether a legacy form was converted.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("read series map: %w", err)
	}
	m := New()
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptSeries, path, err)
	}
	return m, nil
}

// LoadExisting is Load for readers that need classification output: a
// missing file is a configuration error.
func LoadExisting(path string) (*Map, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrConfiguration, "series", "load", fmt.Sprintf("%s not found; run classify first", path), nil)
		}
		return nil, fmt.Errorf("stat series map: %w", err)
	}
	return Load(path)
}

// Save writes m to path atomically.
func Save(path string, m *Map) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode series map: %w", err)
	}
	data = append(data, '\n')
	if err := fileutil.WriteFileAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("save series map: %w", err)
	}
	m.migrated = false
	return nil
}
