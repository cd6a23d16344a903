package index

import (
	"log/slog"
	"time"

	"github.com/starford/notepad/internal/checksum"
	"github.com/starford/notepad/internal/parser"
)

// Doc is the searchable content of one note.
type Doc struct {
	Label string
	Text  string
}

// Sync brings the index up to date with docs:
//   - new/changed docs are parsed and upserted
//   - labels no longer present are deleted from the index
func Sync(idx NoteIndex, docs []Doc, logger *slog.Logger) error {
	checksums, err := idx.AllChecksums()
	if err != nil {
		return err
	}

	live := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		live[d.Label] = struct{}{}

		if checksums[d.Label] == checksum.SumString(d.Text) {
			continue
		}
		if err := IndexDoc(idx, d); err != nil {
			logger.Warn("sync: index failed", slog.String("label", d.Label), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("label", d.Label))
		}
	}

	for label := range checksums {
		if _, ok := live[label]; !ok {
			if err := idx.DeleteNote(label); err != nil {
				logger.Warn("sync: delete failed", slog.String("label", label), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("label", label))
			}
		}
	}

	return nil
}

// IndexDoc parses d and upserts it into the index.
func IndexDoc(idx NoteIndex, d Doc) error {
	data := []byte(d.Text)
	res := parser.Parse(data)
	tags := res.Tags
	if tags == nil {
		tags = []string{}
	}
	return idx.UpsertNote(NoteRow{
		Label:     d.Label,
		Title:     res.Title,
		Checksum:  checksum.Sum(data),
		Tags:      tags,
		UpdatedAt: time.Now(),
	}, res.Body)
}
