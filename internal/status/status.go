// Package status derives the canonical status tag of a note from its
// checklist contents and keeps checklist markers consistent, both within
// a note and across the notes that reference it.
package status

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Edit is a single full-line replacement.
type Edit struct {
	Line    int    `json:"line"`
	NewText string `json:"new_text"`
}

// WorkspaceEdit is a batch of line edits grouped by file path.
type WorkspaceEdit map[string][]Edit

// ComputeTagEdit re-derives the note's status tag and compares it with
// the token literally present on the tag line. It returns nil when they
// already agree (or the note has no checklist items), otherwise the
// single-line replacement: the old token substituted in place, or the
// new one appended when the line had none.
//
// This is the one authoritative "what should the tag line say"
// computation; effective-status checks reuse it rather than trusting a
// possibly stale on-disk tag.
func ComputeTagEdit(content string) *Edit {
	h := parser.ParseHeader(content)
	if h == nil {
		return nil
	}
	todos := parser.CountTodos(content)
	tag, ok := parser.ComputeStatusTag(todos, h.Archived)
	if !ok {
		return nil
	}

	lines, _ := splitLines(content)
	if h.TagLine >= len(lines) {
		return nil
	}
	tagLine := lines[h.TagLine]

	current := currentTagToken(tagLine)
	if current == tag.Token() {
		return nil
	}

	newLine := ""
	if current != "" {
		newLine = strings.ReplaceAll(tagLine, current, tag.Token())
	} else {
		newLine = tagLine + " " + tag.Token()
	}
	return &Edit{Line: h.TagLine, NewText: newLine}
}

// ApplyTagEdit returns content with the tag-line edit applied, or the
// content unchanged when no edit is needed.
func ApplyTagEdit(content string) string {
	edit := ComputeTagEdit(content)
	if edit == nil {
		return content
	}
	lines, trailing := splitLines(content)
	if edit.Line < len(lines) {
		lines[edit.Line] = edit.NewText
	}
	return joinLines(lines, trailing)
}

// FormatContent normalizes a note: reference-based checkbox resolution,
// then nested-checkbox aggregation, then tag-line correction, in that
// order. Referenced notes are read through store.
func FormatContent(ctx context.Context, content string, store storage.Provider) string {
	afterRefs := updateRefCheckboxes(ctx, content, store)
	afterNested := UpdateNestedCheckboxes(afterRefs)
	return ApplyTagEdit(afterNested)
}

// refIsDone reports whether the note id has an effective status of done.
// Effective means: the tag line ComputeTagEdit would produce for the
// current on-disk content, falling back to the line as it stands when no
// edit is needed. An unreadable or unparsable note is never done.
func refIsDone(_ context.Context, store storage.Provider, id string) bool {
	data, err := store.Read(storage.NoteFileName(id))
	if err != nil {
		return false
	}
	content := string(data)
	h := parser.ParseHeader(content)
	if h == nil {
		return false
	}

	lines, _ := splitLines(content)
	existing := ""
	if h.TagLine < len(lines) {
		existing = lines[h.TagLine]
	}
	effective := existing
	if edit := ComputeTagEdit(content); edit != nil {
		effective = edit.NewText
	}
	return strings.Contains(effective, "#tag.done")
}

// updateRefCheckboxes resolves `- [ ] @id` checkboxes: a box is checked
// only when every referenced note on the line is effectively done.
func updateRefCheckboxes(ctx context.Context, content string, store storage.Provider) string {
	lines, trailing := splitLines(content)
	changed := false

	for i, line := range lines {
		if !isTodoLine(line) {
			continue
		}
		refs := parser.FindAllRefs(line)
		if len(refs) == 0 {
			continue
		}
		allDone := true
		for _, r := range refs {
			if !refIsDone(ctx, store, r.ID) {
				allDone = false
				break
			}
		}
		newState := byte(' ')
		if allDone {
			newState = 'x'
		}
		if state, ok := todoState(line); ok && state != rune(newState) {
			if newLine, ok := replaceTodoState(line, newState); ok {
				lines[i] = newLine
				changed = true
			}
		}
	}

	if !changed {
		return content
	}
	return joinLines(lines, trailing)
}

// UpdateNestedCheckboxes aggregates checklist state bottom-up over the
// indentation forest: an item with descendants is checked iff all of
// them are checked; leaves are left untouched. Deepest items are
// processed first so a parent's fresh state is visible to its own
// ancestor. The operation is idempotent.
func UpdateNestedCheckboxes(content string) string {
	lines, trailing := splitLines(content)

	type todoItem struct {
		lineIdx int
		indent  int
	}
	var items []todoItem
	for i, line := range lines {
		if isTodoLine(line) {
			items = append(items, todoItem{lineIdx: i, indent: indentWidth(line)})
		}
	}

	for i := len(items) - 1; i >= 0; i-- {
		var descendants []int
		for j := i + 1; j < len(items); j++ {
			if items[j].indent <= items[i].indent {
				break
			}
			descendants = append(descendants, items[j].lineIdx)
		}
		if len(descendants) == 0 {
			continue
		}

		allDone := true
		for _, d := range descendants {
			if state, ok := todoState(lines[d]); !ok || state != 'x' {
				allDone = false
				break
			}
		}

		newState := byte(' ')
		if allDone {
			newState = 'x'
		}
		if state, ok := todoState(lines[items[i].lineIdx]); ok && state != rune(newState) {
			if newLine, ok := replaceTodoState(lines[items[i].lineIdx], newState); ok {
				lines[items[i].lineIdx] = newLine
			}
		}
	}

	return joinLines(lines, trailing)
}

// PropagateTagChange produces the cross-file edits implied by a note's
// new status: in every file that references id, each checklist line
// textually containing `@id` whose checkbox disagrees with the target
// state (checked iff done) gets one full-line replacement. Candidate
// files come from the backlink table, deduplicated; unreadable files are
// skipped. Nested aggregation is a note-local concern and is not re-run
// here.
func PropagateTagChange(ctx context.Context, id string, tag parser.StatusTag, idx *index.Index, store storage.Provider) (WorkspaceEdit, error) {
	newState := byte(' ')
	if tag == parser.StatusDone {
		newState = 'x'
	}
	pattern := "@" + id

	files := make(map[string]struct{})
	for _, loc := range idx.GetBacklinks(id) {
		files[loc.File] = struct{}{}
	}

	changes := make(WorkspaceEdit)
	for file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := store.Read(file)
		if err != nil {
			continue
		}
		lines, _ := splitLines(string(data))
		var edits []Edit
		for i, line := range lines {
			if !strings.Contains(line, pattern) || !isTodoLine(line) {
				continue
			}
			if state, ok := todoState(line); !ok || state == rune(newState) {
				continue
			}
			if newLine, ok := replaceTodoState(line, newState); ok {
				edits = append(edits, Edit{Line: i, NewText: newLine})
			}
		}
		if len(edits) > 0 {
			changes[file] = edits
		}
	}
	return changes, nil
}

// ApplyEdits returns content with the given full-line replacements
// applied. Edits past the end of the text are ignored.
func ApplyEdits(content string, edits []Edit) string {
	lines, trailing := splitLines(content)
	for _, e := range edits {
		if e.Line >= 0 && e.Line < len(lines) {
			lines[e.Line] = e.NewText
		}
	}
	return joinLines(lines, trailing)
}

// currentTagToken returns the status token present on a tag line, or ""
// when the line carries none.
func currentTagToken(line string) string {
	for _, tok := range []string{"#tag.done", "#tag.wip", "#tag.todo"} {
		if strings.Contains(line, tok) {
			return tok
		}
	}
	return ""
}

// isTodoLine recognizes the checklist shape: optional indentation, then
// `- [`, one state character, `]`.
func isTodoLine(line string) bool {
	t := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(t, "- [") && len(t) >= 5
}

// todoState returns the state character of a checklist line.
func todoState(line string) (rune, bool) {
	t := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(t, "- [") || len(t) < 5 {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(t[3:])
	return r, true
}

// replaceTodoState returns line with its state character replaced.
func replaceTodoState(line string, newState byte) (string, bool) {
	indent := indentWidth(line)
	t := line[indent:]
	if !strings.HasPrefix(t, "- [") || len(t) < 5 {
		return "", false
	}
	_, size := utf8.DecodeRuneInString(t[3:])
	pos := indent + 3
	return line[:pos] + string(newState) + line[pos+size:], true
}

// indentWidth is the byte length of the leading whitespace; checklist
// depth is keyed on it.
func indentWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// splitLines splits content on "\n" and reports whether a trailing
// newline was present, so transforms can round-trip it exactly.
func splitLines(content string) ([]string, bool) {
	trailing := strings.HasSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	if trailing {
		lines = lines[:len(lines)-1]
	}
	return lines, trailing
}

func joinLines(lines []string, trailing bool) string {
	out := strings.Join(lines, "\n")
	if trailing {
		out += "\n"
	}
	return out
}
