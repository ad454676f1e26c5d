// Package filestore reads records kept as individual files under a
// per-owner directory:
//
//	<root>/<owner>/<slug>.json
//
// JSON is the primary format. A <slug>.yaml or <slug>.yml file is read when
// no JSON file exists.
package filestore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"homestead/internal/record/normalize"
)

var (
	ErrNotFound   = errors.New("file record not found")
	ErrInvalidKey = errors.New("invalid owner or slug")
)

// extensions in lookup order.
var extensions = []string{".json", ".yaml", ".yml"}

type Entry struct {
	Slug     string
	Document normalize.Document
	ModTime  time.Time
}

type Store struct {
	Root string
}

func New(root string) *Store {
	return &Store{Root: root}
}

// Read returns the decoded document for (owner, slug). A missing file is
// ErrNotFound; content that fails to decode is a *normalize.DecodeError.
func (s *Store) Read(owner, slug string) (*Entry, error) {
	if err := validKey(owner); err != nil {
		return nil, err
	}
	if err := validKey(slug); err != nil {
		return nil, err
	}

	dir := os.DirFS(filepath.Join(s.Root, owner))
	for _, ext := range extensions {
		entry, err := readEntry(dir, slug+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return entry, err
	}
	return nil, ErrNotFound
}

// List returns every readable document of owner sorted by slug. A document
// that fails to decode fails the whole listing.
func (s *Store) List(owner string) ([]Entry, error) {
	if err := validKey(owner); err != nil {
		return nil, err
	}

	dir := os.DirFS(filepath.Join(s.Root, owner))
	names, err := doublestar.Glob(dir, "*.{json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", owner, err)
	}

	chosen := make(map[string]string, len(names))
	for _, name := range names {
		ext := path.Ext(name)
		slug := strings.TrimSuffix(name, ext)
		if prev, ok := chosen[slug]; ok && rank(path.Ext(prev)) <= rank(ext) {
			continue
		}
		chosen[slug] = name
	}

	entries := make([]Entry, 0, len(chosen))
	for _, name := range chosen {
		entry, err := readEntry(dir, name)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Slug < entries[j].Slug })
	return entries, nil
}

func readEntry(dir fs.FS, name string) (*Entry, error) {
	info, err := fs.Stat(dir, name)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fs.ErrNotExist
	}
	data, err := fs.ReadFile(dir, name)
	if err != nil {
		return nil, err
	}

	ext := path.Ext(name)
	var doc normalize.Document
	if ext == ".json" {
		doc, _, err = normalize.Decode(data)
	} else {
		doc, err = decodeYAML(data)
	}
	if err != nil {
		return nil, err
	}

	return &Entry{
		Slug:     strings.TrimSuffix(name, ext),
		Document: doc,
		ModTime:  info.ModTime(),
	}, nil
}

func decodeYAML(data []byte) (normalize.Document, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &normalize.DecodeError{Reason: "invalid yaml", Err: err}
	}
	if doc == nil {
		return nil, &normalize.DecodeError{Reason: "empty document"}
	}
	return normalize.Document(doc), nil
}

func rank(ext string) int {
	for i, e := range extensions {
		if e == ext {
			return i
		}
	}
	return len(extensions)
}

func validKey(key string) error {
	if key == "" || key == "." || key == ".." ||
		strings.ContainsAny(key, `/\`+"\x00") || strings.HasPrefix(key, ".") {
		return ErrInvalidKey
	}
	return nil
}
