package parser

import (
	"testing"
)

const noteWithMeta = `/* Metadata:
Aliases: ZK LSP
Abstract: A test note.
Keyword: test, go
Generated: true
*/
#import "../include.typ": *
#show: zettel

= Test Note <2602082037>
#tag.archived #tag.done
#alternative_link(<2602131642>)

Some content here. @2602082135
`

const noteNoMeta = `#import "../include.typ": *
#show: zettel

= Simple Note <2602082106>
#tag.todo

Content. @2602082037
`

func TestParseHeader_WithMetadata(t *testing.T) {
	h := ParseHeader(noteWithMeta)
	if h == nil {
		t.Fatal("expected header, got nil")
	}
	if h.ID != "2602082037" {
		t.Errorf("id = %q, want 2602082037", h.ID)
	}
	if h.Title != "Test Note" {
		t.Errorf("title = %q, want %q", h.Title, "Test Note")
	}
	if !h.Archived || h.Legacy {
		t.Errorf("archived = %v, legacy = %v", h.Archived, h.Legacy)
	}
	if h.AltID != "2602131642" {
		t.Errorf("alt id = %q, want 2602131642", h.AltID)
	}
	if h.EvoID != "" {
		t.Errorf("evo id = %q, want empty", h.EvoID)
	}
	if len(h.Aliases) != 1 || h.Aliases[0] != "ZK LSP" {
		t.Errorf("aliases = %v", h.Aliases)
	}
	if len(h.Keywords) != 2 || h.Keywords[0] != "test" || h.Keywords[1] != "go" {
		t.Errorf("keywords = %v", h.Keywords)
	}
	if h.Abstract != "A test note." {
		t.Errorf("abstract = %q", h.Abstract)
	}
	// Import line at index 6: title at +3, tag at +4.
	if h.TitleLine != 9 || h.TagLine != 10 {
		t.Errorf("title line = %d, tag line = %d, want 9, 10", h.TitleLine, h.TagLine)
	}
}

func TestParseHeader_NoMetadata(t *testing.T) {
	h := ParseHeader(noteNoMeta)
	if h == nil {
		t.Fatal("expected header, got nil")
	}
	if h.ID != "2602082106" {
		t.Errorf("id = %q, want 2602082106", h.ID)
	}
	if h.Title != "Simple Note" {
		t.Errorf("title = %q, want %q", h.Title, "Simple Note")
	}
	if h.Archived {
		t.Error("archived should be false")
	}
	if h.TitleLine != 3 || h.TagLine != 4 {
		t.Errorf("title line = %d, tag line = %d, want 3, 4", h.TitleLine, h.TagLine)
	}
}

func TestParseHeader_NotANote(t *testing.T) {
	if h := ParseHeader("# Just some markdown\n\ntext\n"); h != nil {
		t.Errorf("expected nil header, got %+v", h)
	}
	// Import marker present but no valid title line.
	if h := ParseHeader(ImportMarker + "\n\n\nnot a title\n"); h != nil {
		t.Errorf("expected nil header for bad title line, got %+v", h)
	}
}

func TestCountTodos_SkipsFences(t *testing.T) {
	content := "- [ ] incomplete\n- [x] done\n```\n- [ ] skipped\n```\n- [X] also done\n"
	s := CountTodos(content)
	if s.Incomplete != 1 {
		t.Errorf("incomplete = %d, want 1", s.Incomplete)
	}
	if s.Completed != 2 {
		t.Errorf("completed = %d, want 2", s.Completed)
	}
}

func TestCountTodos_IgnoresOtherMarkers(t *testing.T) {
	s := CountTodos("- [-] cancelled\n- [?] unsure\n  - [ ] nested counts\n")
	if s.Completed != 0 || s.Incomplete != 1 {
		t.Errorf("status = %+v, want 0 completed / 1 incomplete", s)
	}
}

func TestFindAllRefs_Basic(t *testing.T) {
	refs := FindAllRefs("see @2602082037 and @2602082106")
	if len(refs) != 2 {
		t.Fatalf("len(refs) = %d, want 2", len(refs))
	}
	if refs[0].ID != "2602082037" || refs[1].ID != "2602082106" {
		t.Errorf("refs = %v", refs)
	}
	if refs[0].Start != 4 || refs[0].End != 15 {
		t.Errorf("first ref span = [%d,%d), want [4,15)", refs[0].Start, refs[0].End)
	}
}

func TestFindAllRefs_WrongDigitCount(t *testing.T) {
	refs := FindAllRefs("short @123 long @12345678901 exact @1234567890")
	if len(refs) != 1 {
		t.Fatalf("len(refs) = %d, want 1 (%v)", len(refs), refs)
	}
	if refs[0].ID != "1234567890" {
		t.Errorf("id = %q", refs[0].ID)
	}
}

func TestFindAllRefs_LineMajorOrder(t *testing.T) {
	refs := FindAllRefs("@1111111111 @2222222222\n@3333333333\n")
	if len(refs) != 3 {
		t.Fatalf("len(refs) = %d, want 3", len(refs))
	}
	if refs[0].Line != 0 || refs[1].Line != 0 || refs[2].Line != 1 {
		t.Errorf("lines = %d,%d,%d", refs[0].Line, refs[1].Line, refs[2].Line)
	}
	if refs[1].Start <= refs[0].Start {
		t.Error("expected left-to-right order within a line")
	}
}

func TestByteToUTF16_ASCII(t *testing.T) {
	line := "plain ascii @1234567890"
	for _, off := range []int{0, 5, 12, len(line)} {
		if got := ByteToUTF16(line, off); got != off {
			t.Errorf("ByteToUTF16(%d) = %d, want identity for ASCII", off, got)
		}
	}
}

func TestByteToUTF16_CJK(t *testing.T) {
	// Two 3-byte CJK runes before the reference.
	line := "Hello, world 你好 @2602171536"
	refs := FindAllRefs(line)
	if len(refs) != 1 {
		t.Fatalf("len(refs) = %d, want 1", len(refs))
	}
	if refs[0].Start != 20 {
		t.Errorf("byte start = %d, want 20", refs[0].Start)
	}
	if got := ByteToUTF16(line, refs[0].Start); got != 16 {
		t.Errorf("utf16 start = %d, want 16", got)
	}
	if got := ByteToUTF16(line, refs[0].End); got != 27 {
		t.Errorf("utf16 end = %d, want 27", got)
	}
}

func TestByteToUTF16_SurrogatePair(t *testing.T) {
	// 😀 is 4 bytes in UTF-8 and 2 code units in UTF-16.
	line := "a😀b@1234567890"
	refs := FindAllRefs(line)
	if len(refs) != 1 {
		t.Fatalf("len(refs) = %d, want 1", len(refs))
	}
	if got := ByteToUTF16(line, refs[0].Start); got != 4 {
		t.Errorf("utf16 start = %d, want 4", got)
	}
}

func TestComputeStatusTag(t *testing.T) {
	cases := []struct {
		name     string
		todos    TodoStatus
		archived bool
		want     StatusTag
		present  bool
	}{
		{"all complete", TodoStatus{Completed: 3}, false, StatusDone, true},
		{"mixed", TodoStatus{Completed: 1, Incomplete: 2}, false, StatusWip, true},
		{"all incomplete", TodoStatus{Incomplete: 2}, false, StatusTodo, true},
		{"archived overrides", TodoStatus{Completed: 1, Incomplete: 1}, true, StatusDone, true},
		{"empty", TodoStatus{}, false, 0, false},
		{"empty archived", TodoStatus{}, true, 0, false},
	}
	for _, c := range cases {
		tag, ok := ComputeStatusTag(c.todos, c.archived)
		if ok != c.present {
			t.Errorf("%s: present = %v, want %v", c.name, ok, c.present)
			continue
		}
		if ok && tag != c.want {
			t.Errorf("%s: tag = %v, want %v", c.name, tag, c.want)
		}
	}
}

func TestStatusTagToken(t *testing.T) {
	if StatusDone.Token() != "#tag.done" || StatusWip.Token() != "#tag.wip" || StatusTodo.Token() != "#tag.todo" {
		t.Error("unexpected tag tokens")
	}
	if StatusWip.String() != "wip" {
		t.Errorf("String() = %q", StatusWip.String())
	}
}
