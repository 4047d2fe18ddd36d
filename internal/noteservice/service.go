// Package noteservice coordinates storage, index, status propagation,
// and the link registry behind one service API.
package noteservice

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/diagnose"
	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/linkreg"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/status"
	"github.com/starford/ansuz/internal/storage"
)

// NoteDetail is the full representation of a note.
type NoteDetail struct {
	index.NoteInfo
	Content   string                   `json:"content"`
	Status    string                   `json:"status,omitempty"`
	Backlinks []index.BacklinkLocation `json:"backlinks"`
}

// Service coordinates note operations.
type Service struct {
	store storage.Provider
	idx   *index.Index
	reg   *linkreg.Registry
	now   func() time.Time
}

// NewService creates a new note service.
func NewService(store storage.Provider, idx *index.Index, reg *linkreg.Registry) *Service {
	return &Service{store: store, idx: idx, reg: reg, now: time.Now}
}

// Index exposes the underlying index for read-only queries.
func (s *Service) Index() *index.Index {
	return s.idx
}

// GetNote returns the indexed metadata for id enriched with content,
// derived status, and backlink locations.
func (s *Service) GetNote(_ context.Context, id string) (*NoteDetail, error) {
	info, ok := s.idx.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.Read(info.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperr.ErrNotFound
		}
		return nil, err
	}
	content := string(data)

	detail := &NoteDetail{
		NoteInfo:  info,
		Content:   content,
		Backlinks: s.idx.GetBacklinks(id),
	}
	if tag, ok := parser.ComputeStatusTag(parser.CountTodos(content), info.Archived); ok {
		detail.Status = tag.String()
	}
	if detail.Backlinks == nil {
		detail.Backlinks = []index.BacklinkLocation{}
	}
	return detail, nil
}

// CreateNote creates a new note with a timestamp-derived id, registers
// it in the link registry, and indexes it. Returns the new note's id.
func (s *Service) CreateNote(ctx context.Context, withMetadata bool) (string, error) {
	id := s.now().Format("0601021504")
	path := storage.NoteFileName(id)

	if _, err := s.store.Read(path); err != nil {
		content := noteTemplate(id, withMetadata)
		if err := s.store.Write(path, []byte(content)); err != nil {
			return "", err
		}
		if err := s.idx.UpdateFile(ctx, path); err != nil {
			return "", err
		}
	}

	if err := s.reg.Add(id); err != nil {
		return "", err
	}
	return id, nil
}

// DeleteNote removes a note from storage, the index, and the registry.
func (s *Service) DeleteNote(_ context.Context, id string) error {
	path := storage.NoteFileName(id)
	if err := s.store.Delete(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	s.idx.RemoveByPath(path)
	return s.reg.Remove(id)
}

// Search returns index entries matching the query.
func (s *Service) Search(_ context.Context, query string) []index.NoteInfo {
	return s.idx.Search(query)
}

// Backlinks returns all reference locations pointing at id.
func (s *Service) Backlinks(_ context.Context, id string) []index.BacklinkLocation {
	return s.idx.GetBacklinks(id)
}

// FormatText normalizes raw note text: reference checkbox resolution,
// nested aggregation, tag correction.
func (s *Service) FormatText(ctx context.Context, content string) string {
	return status.FormatContent(ctx, content, s.store)
}

// FormatNote formats the note on disk and writes the result back when it
// changed. Reports whether a write happened.
func (s *Service) FormatNote(ctx context.Context, id string) (bool, error) {
	info, ok := s.idx.Get(id)
	if !ok {
		return false, apperr.ErrNotFound
	}
	data, err := s.store.Read(info.Path)
	if err != nil {
		return false, err
	}
	formatted := status.FormatContent(ctx, string(data), s.store)
	if formatted == string(data) {
		return false, nil
	}
	if err := s.store.Write(info.Path, []byte(formatted)); err != nil {
		return false, err
	}
	return true, s.idx.UpdateFile(ctx, info.Path)
}

// Diagnostics reports archived/legacy references inside the note.
func (s *Service) Diagnostics(_ context.Context, id string) ([]diagnose.Diagnostic, error) {
	info, ok := s.idx.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.Read(info.Path)
	if err != nil {
		return nil, err
	}
	return diagnose.Check(string(data), s.idx), nil
}

// Reconcile recomputes the note's status tag and, when it lands on done
// or wip, propagates the matching checkbox state into every file that
// references the note, writing the edits to disk and re-indexing the
// touched files. Returns the applied edit batch.
func (s *Service) Reconcile(ctx context.Context, id string) (status.WorkspaceEdit, error) {
	info, ok := s.idx.Get(id)
	if !ok {
		return nil, apperr.ErrNotFound
	}
	data, err := s.store.Read(info.Path)
	if err != nil {
		return nil, err
	}
	content := string(data)
	h := parser.ParseHeader(content)
	if h == nil {
		return nil, nil
	}
	tag, ok := parser.ComputeStatusTag(parser.CountTodos(content), h.Archived)
	if !ok || tag == parser.StatusTodo {
		return nil, nil
	}

	edits, err := status.PropagateTagChange(ctx, h.ID, tag, s.idx, s.store)
	if err != nil {
		return nil, err
	}
	for file, fileEdits := range edits {
		data, err := s.store.Read(file)
		if err != nil {
			continue
		}
		updated := status.ApplyEdits(string(data), fileEdits)
		if err := s.store.Write(file, []byte(updated)); err != nil {
			continue
		}
		if err := s.idx.UpdateFile(ctx, file); err != nil {
			return edits, fmt.Errorf("reindex %s: %w", file, err)
		}
	}
	return edits, nil
}

// RegenerateLinks rebuilds the registry wholesale from the note files
// currently on disk.
func (s *Service) RegenerateLinks(_ context.Context) error {
	metas, err := s.store.List()
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(metas))
	for _, m := range metas {
		ids = append(ids, storage.IDFromPath(m.Path))
	}
	return s.reg.Generate(ids)
}

// noteTemplate is the skeleton of a freshly created note.
func noteTemplate(id string, withMetadata bool) string {
	head := ""
	if withMetadata {
		head = "/* Metadata:\nAliases: \nAbstract: \nKeyword: \nGenerated: true\n*/\n"
	}
	return head + parser.ImportMarker + "\n#show: zettel\n\n=  <" + id + ">\n#tag.\n\n"
}
