// Package series maintains the persisted series map (series.json): which
// episodes belong to a named series and at which position, plus the flat
// list of independent episodes.
package series

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strconv"
	"strings"

	"voxarchive/internal/services"
	"voxarchive/internal/textutil"
)

// Independent is the reserved name for episodes that belong to no series.
const Independent = "INDEPENDENT"

// Map is the series map. Episode keys are unique across the whole map.
type Map struct {
	Independent []string
	Series      map[string]map[int]string

	migrated bool
}

// Entry is one episode position inside a series.
type Entry struct {
	Number int
	Key    string
}

// New returns an empty map.
func New() *Map {
	return &Map{Independent: []string{}, Series: map[string]map[int]string{}}
}

// Migrated reports whether decoding converted the legacy keyed INDEPENDENT
// bucket into the list form.
func (m *Map) Migrated() bool { return m.migrated }

// IsIndependent reports whether name is the independent sentinel.
func IsIndependent(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), Independent)
}

// Locate returns the series and 1-based position holding key.
func (m *Map) Locate(key string) (string, int, bool) {
	if idx := slices.Index(m.Independent, key); idx >= 0 {
		return Independent, idx + 1, true
	}
	for _, name := range m.Names() {
		for number, existing := range m.Series[name] {
			if existing == key {
				return name, number, true
			}
		}
	}
	return "", 0, false
}

// Contains reports whether key is already classified.
func (m *Map) Contains(key string) bool {
	_, _, ok := m.Locate(key)
	return ok
}

// CanonicalName returns the spelling of an existing series matching name
// case-insensitively, or the trimmed name itself.
func (m *Map) CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	if IsIndependent(name) {
		return Independent
	}
	folded := textutil.FoldKey(name)
	for _, existing := range m.Names() {
		if textutil.FoldKey(existing) == folded {
			return existing
		}
	}
	return name
}

// AddIndependent appends key to the independent list and returns its position.
func (m *Map) AddIndependent(key string) (int, error) {
	if err := m.checkUnassigned(key); err != nil {
		return 0, err
	}
	m.Independent = append(m.Independent, key)
	return len(m.Independent), nil
}

// Assign places key in series name at number. When that slot is held by a
// different key the episode goes to the next free number after the current
// maximum instead; collided reports that case. Non-positive numbers are
// treated the same way.
func (m *Map) Assign(name string, number int, key string) (assigned int, collided bool, err error) {
	name = m.CanonicalName(name)
	if name == "" {
		return 0, false, services.Wrap(services.ErrValidation, "series", "assign", "series name is empty", nil)
	}
	if name == Independent {
		assigned, err = m.AddIndependent(key)
		return assigned, false, err
	}
	if err := m.checkUnassigned(key); err != nil {
		return 0, false, err
	}
	if m.Series == nil {
		m.Series = map[string]map[int]string{}
	}
	slots := m.Series[name]
	if slots == nil {
		slots = map[int]string{}
		m.Series[name] = slots
	}
	if _, taken := slots[number]; taken || number <= 0 {
		collided = true
		number = maxNumber(slots) + 1
	}
	slots[number] = key
	return number, collided, nil
}

// Names returns the named series (excluding Independent) sorted by name.
func (m *Map) Names() []string {
	return slices.Sorted(maps.Keys(m.Series))
}

// Entries returns the episodes of name ordered by number. Independent
// episodes are numbered by list position.
func (m *Map) Entries(name string) []Entry {
	if IsIndependent(name) {
		out := make([]Entry, len(m.Independent))
		for i, key := range m.Independent {
			out[i] = Entry{Number: i + 1, Key: key}
		}
		return out
	}
	slots := m.Series[name]
	out := make([]Entry, 0, len(slots))
	for number, key := range slots {
		out = append(out, Entry{Number: number, Key: key})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// Counts returns the number of episodes in named series and in Independent.
func (m *Map) Counts() (inSeries, independent int) {
	for _, slots := range m.Series {
		inSeries += len(slots)
	}
	return inSeries, len(m.Independent)
}

func (m *Map) checkUnassigned(key string) error {
	if strings.TrimSpace(key) == "" {
		return services.Wrap(services.ErrValidation, "series", "assign", "episode key is empty", nil)
	}
	if name, number, ok := m.Locate(key); ok {
		return services.Wrap(services.ErrValidation, "series", "assign",
			fmt.Sprintf("%s already assigned to %s #%d", key, name, number), nil)
	}
	return nil
}

func maxNumber(slots map[int]string) int {
	highest := 0
	for number := range slots {
		highest = max(highest, number)
	}
	return highest
}

// MarshalJSON encodes the map as {"name": {"<n>": key}, "INDEPENDENT": [keys]}.
func (m *Map) MarshalJSON() ([]byte, error) {
	doc := make(map[string]any, len(m.Series)+1)
	for name, slots := range m.Series {
		encoded := make(map[string]string, len(slots))
		for number, key := range slots {
			encoded[strconv.Itoa(number)] = key
		}
		doc[name] = encoded
	}
	independent := m.Independent
	if independent == nil {
		independent = []string{}
	}
	doc[Independent] = independent
	return json.Marshal(doc)
}

// UnmarshalJSON decodes both the list form and the legacy keyed form of the
// INDEPENDENT bucket.
func (m *Map) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := New()
	for name, body := range raw {
		if name == Independent {
			list, migrated, err := decodeIndependent(body)
			if err != nil {
				return err
			}
			out.Independent = list
			out.migrated = migrated
			continue
		}
		var encoded map[string]string
		if err := json.Unmarshal(body, &encoded); err != nil {
			return fmt.Errorf("series %q: %w", name, err)
		}
		slots := make(map[int]string, len(encoded))
		for rawNumber, key := range encoded {
			number, err := strconv.Atoi(strings.TrimSpace(rawNumber))
			if err != nil {
				return fmt.Errorf("series %q: episode number %q is not an integer", name, rawNumber)
			}
			slots[number] = key
		}
		out.Series[name] = slots
	}
	*m = *out
	return nil
}

func decodeIndependent(body json.RawMessage) ([]string, bool, error) {
	var list []string
	if err := json.Unmarshal(body, &list); err == nil {
		if list == nil {
			list = []string{}
		}
		return list, false, nil
	}
	var keyed map[string]string
	if err := json.Unmarshal(body, &keyed); err != nil {
		return nil, false, fmt.Errorf("INDEPENDENT: %w", err)
	}
	type numbered struct {
		raw    string
		number int
		ok     bool
	}
	entries := make([]numbered, 0, len(keyed))
	for rawKey := range keyed {
		number, err := strconv.Atoi(strings.TrimSpace(rawKey))
		entries = append(entries, numbered{raw: rawKey, number: number, ok: err == nil})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ok != b.ok {
			return a.ok
		}
		if a.ok && a.number != b.number {
			return a.number < b.number
		}
		return a.raw < b.raw
	})
	list = make([]string, 0, len(entries))
	for _, entry := range entries {
		list = append(list, keyed[entry.raw])
	}
	return list, true, nil
}
