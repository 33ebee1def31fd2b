package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftWriterRoundTrip(t *testing.T) {
	w := NewDraftWriter("RFP Draft Responses")
	w.AddEntry(1, "What is your uptime SLA?", "99.95% measured monthly.")
	w.AddEntry(2, "Describe your incident response process?", "Incidents are triaged within 15 minutes.")
	assert.Equal(t, 2, w.Entries())

	path := filepath.Join(t.TempDir(), "out", "draft.docx")
	require.NoError(t, w.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	paragraphs, err := ReadParagraphs(path)
	require.NoError(t, err)

	joined := ""
	for _, p := range paragraphs {
		joined += p + "\n"
	}
	assert.Contains(t, joined, "RFP Draft Responses")
	assert.Contains(t, joined, "Q1: What is your uptime SLA?")
	assert.Contains(t, joined, "99.95% measured monthly.")
	assert.Contains(t, joined, "Q2: Describe your incident response process?")
}

func TestDraftWriterEmptyHasNoEntries(t *testing.T) {
	w := NewDraftWriter("Drafts Needing Review")
	assert.Zero(t, w.Entries())
}
