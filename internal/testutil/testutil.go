// Package testutil provides shared test helpers for setting up note
// directories and indexes.
package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/linkreg"
	"github.com/starford/ansuz/internal/storage"
)

// Note renders a minimal valid note: import marker, title at +3, tag
// line at +4, link line at +5, then the body.
func Note(id, title, tagLine, linkLine, body string) string {
	return fmt.Sprintf("#import \"../include.typ\": *\n#show: zettel\n\n= %s <%s>\n%s\n%s\n%s", title, id, tagLine, linkLine, body)
}

// TestWiki creates a temporary note directory with storage, index, and
// link registry.
func TestWiki(t *testing.T) (string, *storage.FS, *index.Index, *linkreg.Registry) {
	t.Helper()
	noteDir := t.TempDir()
	store, err := storage.NewFS(noteDir)
	if err != nil {
		t.Fatal(err)
	}
	idx := index.New(store)
	reg := linkreg.New(filepath.Join(t.TempDir(), "link.typ"))
	return noteDir, store, idx, reg
}

// WriteNote writes a note file into the store.
func WriteNote(t *testing.T, store *storage.FS, id, content string) {
	t.Helper()
	if err := store.Write(storage.NoteFileName(id), []byte(content)); err != nil {
		t.Fatal(err)
	}
}
