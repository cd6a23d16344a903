package mcpserver

// NoteFormatContract describes the note file format and label rules that
// LLM consumers should follow when creating or renaming notes.
const NoteFormatContract = `# Notepad Note Format

Each top-level note is one UTF-8 text file at ` + "`" + `<root>/notepad/<label>.note` + "`" + `.
The file content is the note text; nothing else is stored in it.

## Labels

1. A label is the note's display name and its file stem.
2. Labels are 1 to 200 bytes long and unique among top-level notes.
3. Labels MUST be valid UTF-8 and MUST NOT contain ` + "`" + `/` + "`" + `, ` + "`" + `\` + "`" + ` or control characters,
   start or end with whitespace, or be ` + "`" + `.` + "`" + ` or ` + "`" + `..` + "`" + `.
4. Renaming never overwrites an existing note; pick a free label instead.

## Text

Free-form text. Structure is optional and only used for display and search:

` + "```" + `
---
title: Groceries for the weekend   # OPTIONAL – shown next to the label
tags: [shopping, home]             # OPTIONAL – list or comma separated
---

Milk, eggs and #bread.
` + "```" + `

- The first non-blank body line (without a leading ` + "`" + `#` + "`" + `) becomes the tooltip summary.
- Inline ` + "`" + `#tags` + "`" + ` in the body are merged with frontmatter tags.
- Without a frontmatter title, a leading ` + "`" + `# Heading` + "`" + ` is used as the title.

## Concurrency

` + "`" + `write_note` + "`" + ` accepts the ` + "`" + `checksum` + "`" + ` returned by ` + "`" + `read_note` + "`" + `.
When the file changed in between, the write is rejected; read again and retry.
`
