// Package parser extracts headers, references, and checklist state from
// note content. All functions are stateless: text in, data out.
package parser

import (
	"regexp"
	"strings"
)

// ImportMarker is the line every note header block starts with. The title
// line sits three lines below it, the tag line four, and the
// evolution/alternative link line five.
const ImportMarker = `#import "../include.typ": *`

var (
	refRe   = regexp.MustCompile(`@(\d+)`)
	titleRe = regexp.MustCompile(`^=\s+.*<(\d{10})>`)
	evoRe   = regexp.MustCompile(`#evolution_link\s*\(\s*<(\d{10})>\s*\)`)
	altRe   = regexp.MustCompile(`#alternative_link\s*\(\s*<(\d{10})>\s*\)`)
)

// Header holds the parsed facts of one note's preamble.
type Header struct {
	ID       string
	Title    string
	Archived bool
	Legacy   bool
	AltID    string // successor note when archived
	EvoID    string // newer insight when legacy
	Aliases  []string
	Keywords []string
	Abstract string

	// 0-based line indices into the content the header was parsed from.
	TitleLine int
	TagLine   int
}

// TodoStatus counts checklist markers outside fenced code blocks.
type TodoStatus struct {
	Completed  int
	Incomplete int
}

// RefOccurrence is one @ID token in a line. Start and End are byte
// offsets within that line; convert with ByteToUTF16 before they cross
// the protocol boundary.
type RefOccurrence struct {
	ID    string
	Line  int
	Start int
	End   int
}

// StatusTag is the derived checklist classification of a note.
type StatusTag int

const (
	StatusTodo StatusTag = iota
	StatusWip
	StatusDone
)

// Token returns the literal tag-line token for the status.
func (s StatusTag) Token() string {
	switch s {
	case StatusDone:
		return "#tag.done"
	case StatusWip:
		return "#tag.wip"
	default:
		return "#tag.todo"
	}
}

func (s StatusTag) String() string {
	return strings.TrimPrefix(s.Token(), "#tag.")
}

// ParseHeader parses the header block of a note. It returns nil when the
// import marker or the title pattern is missing; callers treat nil as
// "not a note", never as an error.
func ParseHeader(content string) *Header {
	lines := splitLines(content)

	importIdx := -1
	for i, l := range lines {
		if strings.TrimSpace(l) == ImportMarker {
			importIdx = i
			break
		}
	}
	if importIdx < 0 {
		return nil
	}

	titleIdx := importIdx + 3
	tagIdx := importIdx + 4
	if titleIdx >= len(lines) {
		return nil
	}

	m := titleRe.FindStringSubmatch(lines[titleIdx])
	if m == nil {
		return nil
	}
	h := &Header{
		ID:        m[1],
		Title:     titleFromMatch(m[0]),
		TitleLine: titleIdx,
		TagLine:   tagIdx,
	}

	tagLine := lineAt(lines, tagIdx)
	h.Archived = strings.Contains(tagLine, "#tag.archived")
	h.Legacy = strings.Contains(tagLine, "#tag.legacy")

	linkLine := lineAt(lines, importIdx+5)
	if em := evoRe.FindStringSubmatch(linkLine); em != nil {
		h.EvoID = em[1]
	}
	if am := altRe.FindStringSubmatch(linkLine); am != nil {
		h.AltID = am[1]
	}

	parseMetadataBlock(lines[:importIdx], h)
	return h
}

// parseMetadataBlock scans a `/* Metadata: ... */` block preceding the
// import line. Unrecognized lines inside the block are ignored.
func parseMetadataBlock(lines []string, h *Header) {
	inMeta := false
	for _, line := range lines {
		switch strings.TrimSpace(line) {
		case "/* Metadata:":
			inMeta = true
			continue
		case "*/":
			return
		}
		if !inMeta {
			continue
		}
		if val, ok := strings.CutPrefix(line, "Aliases:"); ok {
			h.Aliases = splitCommaList(val)
		} else if val, ok := strings.CutPrefix(line, "Abstract:"); ok {
			if t := strings.TrimSpace(val); t != "" {
				h.Abstract = t
			}
		} else if val, ok := strings.CutPrefix(line, "Keyword:"); ok {
			h.Keywords = splitCommaList(val)
		}
	}
}

// titleFromMatch strips the leading `=` heading marker and the trailing
// `<ID>` label from a matched title line.
func titleFromMatch(match string) string {
	t := strings.TrimSpace(strings.TrimLeft(match, "="))
	if i := strings.LastIndex(t, "<"); i >= 0 {
		t = t[:i]
	}
	return strings.TrimSpace(t)
}

// CountTodos counts checklist markers line by line. A trimmed line that
// starts with a triple-backtick fence toggles skipping; lines inside a
// fence never count. The state character sits right after `- [`; x/X is
// complete, a space is incomplete, anything else is ignored.
func CountTodos(content string) TodoStatus {
	var status TodoStatus
	inFence := false

	for _, line := range splitLines(content) {
		trimmed := strings.TrimLeft(line, " \t")
		if strings.HasPrefix(trimmed, "```") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if !strings.HasPrefix(trimmed, "- [") || len(trimmed) < 5 {
			continue
		}
		switch trimmed[3] {
		case 'x', 'X':
			status.Completed++
		case ' ':
			status.Incomplete++
		}
	}
	return status
}

// FindAllRefs returns every `@` followed by exactly 10 digits, line-major
// and left to right. A longer digit run is not a reference at all, so an
// 11-digit token yields nothing rather than its first 10 digits.
func FindAllRefs(content string) []RefOccurrence {
	var refs []RefOccurrence
	for lineNum, line := range splitLines(content) {
		for _, idx := range refRe.FindAllStringSubmatchIndex(line, -1) {
			digits := line[idx[2]:idx[3]]
			if len(digits) != 10 {
				continue
			}
			refs = append(refs, RefOccurrence{
				ID:    digits,
				Line:  lineNum,
				Start: idx[0],
				End:   idx[1],
			})
		}
	}
	return refs
}

// ComputeStatusTag derives the status tag from checklist counts. A note
// with no checklist items has no tag at all, archived or not.
func ComputeStatusTag(todos TodoStatus, archived bool) (StatusTag, bool) {
	if todos.Completed == 0 && todos.Incomplete == 0 {
		return 0, false
	}
	if archived {
		return StatusDone, true
	}
	if todos.Incomplete == 0 {
		return StatusDone, true
	}
	if todos.Completed > 0 {
		return StatusWip, true
	}
	return StatusTodo, true
}

// ByteToUTF16 converts a byte offset within one line to a UTF-16
// code-unit count. Positions crossing the core boundary are UTF-16 units,
// never bytes.
func ByteToUTF16(line string, byteOffset int) int {
	if byteOffset > len(line) {
		byteOffset = len(line)
	}
	n := 0
	for _, r := range line[:byteOffset] {
		if r >= 0x10000 {
			n += 2
		} else {
			n++
		}
	}
	return n
}

// splitLines splits content the way line indices are counted throughout
// this package: by "\n", with no phantom empty line after a trailing
// newline.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func lineAt(lines []string, idx int) string {
	if idx < 0 || idx >= len(lines) {
		return ""
	}
	return lines[idx]
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
