package catalog

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"voxarchive/internal/services"
)

// Store is the single in-memory owner of a catalog file.
type Store struct {
	path   string
	doc    Catalog
	index  map[string]int
	pages  map[int]struct{}
	dirty  bool
	onDisk bool
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp last_updated.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Open loads the catalog at path. Duplicate URLs found in the file are folded
// into their first occurrence.
func Open(path string, opts ...Option) (*Store, error) {
	doc, exists, err := Load(path)
	if err != nil {
		return nil, err
	}
	s := &Store{
		path:   path,
		index:  make(map[string]int, len(doc.Episodes)),
		pages:  make(map[int]struct{}, len(doc.ProcessedPages)),
		onDisk: exists,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	episodes := make([]Episode, 0, len(doc.Episodes))
	for _, ep := range doc.Episodes {
		if pos, ok := s.index[ep.URL]; ok {
			patchFrom(ep).apply(&episodes[pos], false)
			s.dirty = true
			continue
		}
		s.index[ep.URL] = len(episodes)
		episodes = append(episodes, ep)
	}
	doc.Episodes = episodes
	for _, page := range doc.ProcessedPages {
		s.pages[page] = struct{}{}
	}
	s.doc = doc
	return s, nil
}

// OpenExisting is Open for stages that consume discovery output: a missing
// catalog file is a configuration error instead of an empty catalog.
func OpenExisting(path string, opts ...Option) (*Store, error) {
	s, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	if !s.onDisk {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "open", fmt.Sprintf("%s not found; run discover first", path), nil)
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Len returns the number of episodes.
func (s *Store) Len() int { return len(s.doc.Episodes) }

// Get returns a copy of the episode stored under url.
func (s *Store) Get(url string) (Episode, bool) {
	pos, ok := s.index[url]
	if !ok {
		return Episode{}, false
	}
	return s.doc.Episodes[pos].clone(), true
}

// Episodes returns copies of all episodes in catalog order.
func (s *Store) Episodes() []Episode {
	out := make([]Episode, len(s.doc.Episodes))
	for i, ep := range s.doc.Episodes {
		out[i] = ep.clone()
	}
	return out
}

// Select yields copies of the episodes matching pred, in catalog order.
// A nil predicate matches everything.
func (s *Store) Select(pred func(Episode) bool) iter.Seq[Episode] {
	return func(yield func(Episode) bool) {
		for i := 0; i < len(s.doc.Episodes); i++ {
			ep := s.doc.Episodes[i].clone()
			if pred != nil && !pred(ep) {
				continue
			}
			if !yield(ep) {
				return
			}
		}
	}
}

type upsertOptions struct {
	force bool
}

// UpsertOption adjusts merge behaviour.
type UpsertOption func(*upsertOptions)

// Force lets non-empty patch values replace existing ones.
func Force() UpsertOption {
	return func(o *upsertOptions) { o.force = true }
}

// Upsert finds or creates the record for url and merges patch into it.
// Existing values are only replaced when Force is given; empty patch values
// are never applied. The merged record is returned.
func (s *Store) Upsert(url string, patch Patch, opts ...UpsertOption) (Episode, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return Episode{}, services.Wrap(services.ErrValidation, "catalog", "upsert", "episode url is empty", nil)
	}
	var options upsertOptions
	for _, opt := range opts {
		opt(&options)
	}

	pos, ok := s.index[url]
	if !ok {
		pos = len(s.doc.Episodes)
		s.doc.Episodes = append(s.doc.Episodes, Episode{URL: url})
		s.index[url] = pos
		s.dirty = true
	}
	if patch.apply(&s.doc.Episodes[pos], options.force) {
		s.dirty = true
	}
	return s.doc.Episodes[pos].clone(), nil
}

// MarkPageProcessed records a fully handled listing page.
func (s *Store) MarkPageProcessed(page int) {
	if page <= 0 {
		return
	}
	if _, ok := s.pages[page]; ok {
		return
	}
	s.pages[page] = struct{}{}
	s.doc.ProcessedPages = append(s.doc.ProcessedPages, page)
	s.dirty = true
}

// PageProcessed reports whether page was marked processed.
func (s *Store) PageProcessed(page int) bool {
	_, ok := s.pages[page]
	return ok
}

// ProcessedPages returns the processed page numbers in ascending order.
func (s *Store) ProcessedPages() []int {
	pages := slices.Clone(s.doc.ProcessedPages)
	slices.Sort(pages)
	return pages
}

// LastUpdated returns the stamp written by the last save, if any.
func (s *Store) LastUpdated() string {
	if s.doc.LastUpdated == nil {
		return ""
	}
	return *s.doc.LastUpdated
}

// Dirty reports whether there are unsaved changes.
func (s *Store) Dirty() bool { return s.dirty }

// Save persists the catalog when it changed since the last save or has never
// been written. Unchanged catalogs are left byte-for-byte untouched.
func (s *Store) Save() error {
	if !s.dirty && s.onDisk {
		return nil
	}
	if err := Save(s.path, &s.doc, s.now()); err != nil {
		return err
	}
	s.dirty = false
	s.onDisk = true
	return nil
}

func patchFrom(ep Episode) Patch {
	return Patch{
		Page:                            ep.Page,
		Title:                           ep.Title,
		PublishDate:                     ep.PublishDate,
		AudioLink:                       ep.AudioLink,
		FilePath:                        ep.FilePath,
		AudioMetadata:                   ep.AudioMetadata,
		TranscriptionFilePath:           ep.TranscriptionFilePath,
		TranscriptionFilePathAssemblyAI: ep.TranscriptionFilePathAssemblyAI,
	}
}
