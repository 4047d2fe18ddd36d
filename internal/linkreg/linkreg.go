// Package linkreg maintains the external link registry file (link.typ at
// the wiki root): one entry per known note id, kept in sync by the
// watcher and the note-creation path.
package linkreg

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
)

var entryRe = regexp.MustCompile(`#zlink\("(\d{10})"\)`)

// Registry is the serialized id registry. All mutations rewrite the file
// atomically; concurrent callers are serialized by a single lock since
// the file is one shared resource anyway.
type Registry struct {
	mu   sync.Mutex
	path string
}

// New creates a registry over the given file path. The file need not
// exist yet; it is created on first mutation.
func New(path string) *Registry {
	return &Registry{path: path}
}

// Path returns the registry file path.
func (r *Registry) Path() string {
	return r.path
}

// Add inserts an entry for id if not already present.
func (r *Registry) Add(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := ids[id]; ok {
		return nil
	}
	ids[id] = struct{}{}
	return r.write(ids)
}

// Remove drops the entry for id if present.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := ids[id]; !ok {
		return nil
	}
	delete(ids, id)
	return r.write(ids)
}

// Generate replaces the registry wholesale with the given ids.
func (r *Registry) Generate(ids []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return r.write(set)
}

// IDs returns the ids currently recorded, sorted.
func (r *Registry) IDs() ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, err := r.load()
	if err != nil {
		return nil, err
	}
	return sortedKeys(set), nil
}

// load parses the registry file into a set. A missing file is an empty
// registry, not an error.
func (r *Registry) load() (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return ids, nil
		}
		return nil, fmt.Errorf("linkreg: read %s: %w", r.path, err)
	}
	for _, m := range entryRe.FindAllStringSubmatch(string(data), -1) {
		ids[m[1]] = struct{}{}
	}
	return ids, nil
}

// write rewrites the file: tmp file then rename, entries sorted so the
// output is deterministic and diff-friendly.
func (r *Registry) write(ids map[string]struct{}) error {
	var b strings.Builder
	b.WriteString("// Generated link registry. Do not edit by hand.\n")
	for _, id := range sortedKeys(ids) {
		fmt.Fprintf(&b, "#zlink(%q)\n", id)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".linkreg-tmp-*")
	if err != nil {
		return fmt.Errorf("linkreg: create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(b.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("linkreg: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("linkreg: close temp: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("linkreg: rename: %w", err)
	}
	return nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
