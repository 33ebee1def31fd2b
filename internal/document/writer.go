package document

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fumiama/go-docx"
)

// DraftWriter builds a draft response .docx incrementally: one heading
// followed by Q/A blocks. The question run is bold at 11pt (half-point
// units, so "22").
type DraftWriter struct {
	doc   *docx.Docx
	count int
}

// NewDraftWriter returns a writer with the given heading already added.
func NewDraftWriter(heading string) *DraftWriter {
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText(heading).Size("32").Bold()
	doc.AddParagraph()
	return &DraftWriter{doc: doc}
}

// AddEntry appends one numbered question and its draft answer.
func (w *DraftWriter) AddEntry(index int, question, answer string) {
	w.count++
	w.doc.AddParagraph().AddText(fmt.Sprintf("Q%d: %s", index, question)).Size("22").Bold()
	w.doc.AddParagraph().AddText(answer).Size("22")
	w.doc.AddParagraph()
}

// Entries reports how many Q/A blocks have been added.
func (w *DraftWriter) Entries() int {
	return w.count
}

// Save writes the document to path, creating parent directories as needed.
func (w *DraftWriter) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create document %s: %w", path, err)
	}
	defer f.Close()

	if _, err := w.doc.WriteTo(f); err != nil {
		return fmt.Errorf("failed to write document %s: %w", path, err)
	}
	return nil
}
