// Package diagnose inspects note content for references to archived or
// legacy notes and suggests their replacements.
package diagnose

import (
	"fmt"
	"strings"

	"github.com/starford/ansuz/internal/index"
	"github.com/starford/ansuz/internal/parser"
)

// Severity levels, mildest last.
const (
	SeverityWarning = "warning"
	SeverityInfo    = "info"
)

// Diagnostic kinds.
const (
	KindArchived = "archived"
	KindLegacy   = "legacy"
)

// Diagnostic flags one @id occurrence that points at a superseded note.
// StartChar and EndChar are UTF-16 code units.
type Diagnostic struct {
	Line      int    `json:"line"`
	StartChar int    `json:"start_char"`
	EndChar   int    `json:"end_char"`
	Severity  string `json:"severity"`
	Kind      string `json:"kind"`
	Message   string `json:"message"`
	OldID     string `json:"old_id"`
	NewID     string `json:"new_id,omitempty"`
}

// Check scans content for @id references and reports those whose target
// is archived (warning, suggest the alternative note) or legacy (info,
// suggest the evolution note). A legacy reference immediately followed
// by its own evolution id on the same line is considered already
// annotated and is not reported.
func Check(content string, idx *index.Index) []Diagnostic {
	var out []Diagnostic

	for lineNum, line := range strings.Split(content, "\n") {
		for _, r := range parser.FindAllRefs(line) {
			info, ok := idx.Get(r.ID)
			if !ok {
				continue
			}

			switch {
			case info.Archived:
				msg := fmt.Sprintf("Note @%s is archived.", r.ID)
				if info.AltID != "" {
					msg += fmt.Sprintf(" New version: @%s", info.AltID)
				}
				out = append(out, Diagnostic{
					Line:      lineNum,
					StartChar: parser.ByteToUTF16(line, r.Start),
					EndChar:   parser.ByteToUTF16(line, r.End),
					Severity:  SeverityWarning,
					Kind:      KindArchived,
					Message:   msg,
					OldID:     r.ID,
					NewID:     info.AltID,
				})

			case info.Legacy:
				if info.EvoID != "" && nextRefID(line[r.End:]) == info.EvoID {
					continue
				}
				msg := fmt.Sprintf("Note @%s is legacy.", r.ID)
				if info.EvoID != "" {
					msg += fmt.Sprintf(" Newer insights: @%s", info.EvoID)
				}
				out = append(out, Diagnostic{
					Line:      lineNum,
					StartChar: parser.ByteToUTF16(line, r.Start),
					EndChar:   parser.ByteToUTF16(line, r.End),
					Severity:  SeverityInfo,
					Kind:      KindLegacy,
					Message:   msg,
					OldID:     r.ID,
					NewID:     info.EvoID,
				})
			}
		}
	}
	return out
}

// nextRefID returns the id of an @-token at the start of rest (after
// leading spaces), or "".
func nextRefID(rest string) string {
	trimmed := strings.TrimLeft(rest, " \t")
	after, ok := strings.CutPrefix(trimmed, "@")
	if !ok {
		return ""
	}
	end := 0
	for end < len(after) && after[end] >= '0' && after[end] <= '9' {
		end++
	}
	if end != 10 {
		return ""
	}
	return after[:end]
}
