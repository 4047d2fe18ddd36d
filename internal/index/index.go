// Package index maintains the in-memory cross-reference index over the
// note directory: note metadata keyed by id and backlink locations keyed
// by target id.
package index

import (
	"context"
	"strings"
	"sync"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// NoteInfo is one index entry: parsed header facts plus the file the
// entry was derived from. Entries are overwritten wholesale on re-index,
// never merged.
type NoteInfo struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Archived bool     `json:"archived"`
	Legacy   bool     `json:"legacy"`
	AltID    string   `json:"alt_id,omitempty"`
	EvoID    string   `json:"evo_id,omitempty"`
	Aliases  []string `json:"aliases,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
	Path     string   `json:"path"`
}

// BacklinkLocation is one @id occurrence pointing at a note. StartChar
// and EndChar are UTF-16 code-unit offsets within the line, per the
// position encoding contract.
type BacklinkLocation struct {
	File      string `json:"file"`
	Line      int    `json:"line"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
}

// Index owns the two concurrent maps. Each map has its own lock so a
// reader of note metadata never contends with a writer of backlinks.
// Nothing coordinates a sequence of mutations across the maps: a reader
// between UpdateFile's purge and re-add steps may transiently see a
// file's old backlinks gone and its new ones not yet present. That is
// accepted; the index favours availability over strict read consistency.
type Index struct {
	store storage.Provider

	notesMu sync.RWMutex
	notes   map[string]NoteInfo

	backMu    sync.RWMutex
	backlinks map[string][]BacklinkLocation

	sumMu sync.Mutex
	sums  map[string]string // path → content checksum, used to skip no-op updates
}

// New creates an empty index over the given note store.
func New(store storage.Provider) *Index {
	return &Index{
		store:     store,
		notes:     make(map[string]NoteInfo),
		backlinks: make(map[string][]BacklinkLocation),
		sums:      make(map[string]string),
	}
}

// RebuildFull clears both maps and re-indexes every note file. Each file
// is added independently; one file's failure skips that file only. The
// rebuild is not atomic with respect to concurrent readers, which may
// observe a partially repopulated index mid-rebuild.
func (x *Index) RebuildFull(ctx context.Context) (int, error) {
	metas, err := x.store.List()
	if err != nil {
		return 0, err
	}

	x.notesMu.Lock()
	x.notes = make(map[string]NoteInfo, len(metas))
	x.notesMu.Unlock()
	x.backMu.Lock()
	x.backlinks = make(map[string][]BacklinkLocation)
	x.backMu.Unlock()
	x.sumMu.Lock()
	x.sums = make(map[string]string, len(metas))
	x.sumMu.Unlock()

	for _, m := range metas {
		if err := ctx.Err(); err != nil {
			return x.Len(), err
		}
		data, err := x.store.Read(m.Path)
		if err != nil {
			continue
		}
		x.indexFile(m.Path, data)
	}
	return x.Len(), nil
}

// UpdateFile re-indexes a single file: its previous backlink
// contributions are purged, then the current content is parsed and
// re-added. Must be called whenever the file's content changes on disk.
// An unchanged checksum short-circuits the whole operation.
func (x *Index) UpdateFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := x.store.Read(path)
	if err != nil {
		return err
	}

	cs := checksum.Sum(data)
	x.sumMu.Lock()
	unchanged := x.sums[path] == cs
	x.sumMu.Unlock()
	if unchanged {
		return nil
	}

	x.removeBacklinksFrom(path)
	x.indexFile(path, data)
	return nil
}

// RemoveByPath removes the metadata entry keyed by the file's name stem
// and purges every backlink location the file contributed. Must be
// called when a file is deleted.
func (x *Index) RemoveByPath(path string) {
	id := storage.IDFromPath(path)

	x.notesMu.Lock()
	delete(x.notes, id)
	x.notesMu.Unlock()

	x.removeBacklinksFrom(path)

	x.sumMu.Lock()
	delete(x.sums, path)
	x.sumMu.Unlock()
}

// Get returns the index entry for id, if any.
func (x *Index) Get(id string) (NoteInfo, bool) {
	x.notesMu.RLock()
	defer x.notesMu.RUnlock()
	info, ok := x.notes[id]
	return info, ok
}

// GetBacklinks returns all known reference locations pointing at id,
// across all indexed files. The slice is a copy; order is insertion
// order and carries no meaning.
func (x *Index) GetBacklinks(id string) []BacklinkLocation {
	x.backMu.RLock()
	defer x.backMu.RUnlock()
	locs := x.backlinks[id]
	if len(locs) == 0 {
		return nil
	}
	out := make([]BacklinkLocation, len(locs))
	copy(out, locs)
	return out
}

// Search returns every note whose title, id, aliases, keywords, or
// abstract contains the query, case-insensitively. No ranking.
func (x *Index) Search(query string) []NoteInfo {
	q := strings.ToLower(query)

	x.notesMu.RLock()
	defer x.notesMu.RUnlock()

	var out []NoteInfo
	for _, n := range x.notes {
		if matchesQuery(n, q) {
			out = append(out, n)
		}
	}
	return out
}

// Len returns the number of indexed notes.
func (x *Index) Len() int {
	x.notesMu.RLock()
	defer x.notesMu.RUnlock()
	return len(x.notes)
}

func matchesQuery(n NoteInfo, q string) bool {
	if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(n.ID, q) {
		return true
	}
	for _, a := range n.Aliases {
		if strings.Contains(strings.ToLower(a), q) {
			return true
		}
	}
	for _, k := range n.Keywords {
		if strings.Contains(strings.ToLower(k), q) {
			return true
		}
	}
	return n.Abstract != "" && strings.Contains(strings.ToLower(n.Abstract), q)
}

// indexFile extracts both kinds of facts independently: a file with no
// valid header still contributes backlinks. The metadata entry is keyed
// by the header's own id, which may differ from the filename stem; a
// mismatch is tolerated and never flagged.
func (x *Index) indexFile(path string, data []byte) {
	content := string(data)

	if h := parser.ParseHeader(content); h != nil {
		info := NoteInfo{
			ID:       h.ID,
			Title:    h.Title,
			Archived: h.Archived,
			Legacy:   h.Legacy,
			AltID:    h.AltID,
			EvoID:    h.EvoID,
			Aliases:  h.Aliases,
			Keywords: h.Keywords,
			Abstract: h.Abstract,
			Path:     path,
		}
		x.notesMu.Lock()
		x.notes[h.ID] = info
		x.notesMu.Unlock()
	}

	// Byte offsets become UTF-16 here, while the owning line's text is
	// at hand; locations never leave the index in byte units.
	lines := strings.Split(content, "\n")
	refs := parser.FindAllRefs(content)
	if len(refs) > 0 {
		x.backMu.Lock()
		for _, r := range refs {
			line := ""
			if r.Line < len(lines) {
				line = lines[r.Line]
			}
			x.backlinks[r.ID] = append(x.backlinks[r.ID], BacklinkLocation{
				File:      path,
				Line:      r.Line,
				StartChar: parser.ByteToUTF16(line, r.Start),
				EndChar:   parser.ByteToUTF16(line, r.End),
			})
		}
		x.backMu.Unlock()
	}

	x.sumMu.Lock()
	x.sums[path] = checksum.Sum(data)
	x.sumMu.Unlock()
}

// removeBacklinksFrom drops every location contributed by path, then
// drops any target whose list became empty, so the map never carries
// zero-length entries and absence always means "no backlinks".
func (x *Index) removeBacklinksFrom(path string) {
	x.backMu.Lock()
	defer x.backMu.Unlock()
	for id, locs := range x.backlinks {
		kept := locs[:0]
		for _, loc := range locs {
			if loc.File != path {
				kept = append(kept, loc)
			}
		}
		if len(kept) == 0 {
			delete(x.backlinks, id)
		} else {
			x.backlinks[id] = kept
		}
	}
}
