package mcpserver

// NoteFormatContract describes the canonical Typst note format that
// LLM consumers should follow when creating or updating notes.
const NoteFormatContract = `# Ansuz Note Format Contract

Every note stored in Ansuz MUST follow this structure.

## Structure

` + "```" + `typst
/* Metadata:
Aliases: short-name, other-name
Abstract: One-sentence summary of the note.
Keyword: topic-one, topic-two
*/
#import "../include.typ": *
#show: zettel

= Human-readable title <2501201530>
#tag.todo
#evolution_link(<2412010900>)

Body text in Typst markup.

- [ ] open item
- [x] finished item
- [ ] depends on @2411150830
` + "```" + `

## Rules

1. **File name is the note ID.** Exactly ten ASCII digits plus ` + "`" + `.typ` + "`" + `,
   derived from the creation timestamp (YYMMDDHHMM).
2. **The import line is mandatory.** ` + "`" + `#import "../include.typ": *` + "`" + ` marks
   the file as a note; without it the file is ignored.
3. **The title line** comes three lines after the import line and carries
   the ID in angle brackets: ` + "`" + `= Title <2501201530>` + "`" + `.
4. **The tag line** follows the title line. Exactly one lifecycle tag:
   ` + "`" + `#tag.todo` + "`" + `, ` + "`" + `#tag.wip` + "`" + `, ` + "`" + `#tag.done` + "`" + `, ` + "`" + `#tag.archived` + "`" + ` or ` + "`" + `#tag.legacy` + "`" + `.
   The formatter keeps it consistent with the checklist, so prefer
   ` + "`" + `#tag.todo` + "`" + ` on new notes and let formatting take over.
5. **The link line** (optional) follows the tag line:
   ` + "`" + `#evolution_link(<id>)` + "`" + ` points at the successor of a legacy note,
   ` + "`" + `#alternative_link(<id>)` + "`" + ` points at the replacement of an archived one.
6. **References** use ` + "`" + `@` + "`" + ` plus exactly ten digits: ` + "`" + `@2411150830` + "`" + `.
7. **Checklist items** are ` + "`" + `- [ ]` + "`" + ` / ` + "`" + `- [x]` + "`" + ` lines. Items whose text
   references other notes get their checkbox managed automatically.
8. **The metadata block** (optional) precedes the import line and holds
   ` + "`" + `Aliases:` + "`" + `, ` + "`" + `Abstract:` + "`" + ` and ` + "`" + `Keyword:` + "`" + ` fields used by search.
9. **Encoding** is UTF-8 with a trailing newline.
`
