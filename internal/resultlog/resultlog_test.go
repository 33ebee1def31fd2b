package resultlog

import (
	"bufio"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendWritesOneJSONLinePerRecord(t *testing.T) {
	l, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, l.Append(Record{
		RunID:       "run-1",
		Question:    "What is your uptime SLA?",
		TopScore:    0.82,
		NeedsReview: false,
		TopAnswers:  []string{"99.95% measured monthly."},
		Draft:       "99.95% measured monthly.",
	}))
	require.NoError(t, l.Append(Record{
		RunID:       "run-1",
		Question:    "Describe your incident response process?",
		TopScore:    0.31,
		NeedsReview: true,
		Draft:       "No relevant information found in the database.",
	}))

	f, err := os.Open(l.Path())
	require.NoError(t, err)
	defer f.Close()

	var records []Record
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec Record
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())

	require.Len(t, records, 2)
	assert.Equal(t, "What is your uptime SLA?", records[0].Question)
	assert.NotEmpty(t, records[0].Timestamp)
	assert.True(t, records[1].NeedsReview)
	assert.InDelta(t, 0.31, records[1].TopScore, 1e-6)
}

func TestAppendAccumulatesAcrossLoggers(t *testing.T) {
	dir := t.TempDir()

	l1, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, l1.Append(Record{Question: "Q1?"}))

	l2, err := New(dir)
	require.NoError(t, err)
	require.NoError(t, l2.Append(Record{Question: "Q2?"}))

	data, err := os.ReadFile(l2.Path())
	require.NoError(t, err)
	assert.Equal(t, 2, countLines(data))
}

func countLines(data []byte) int {
	n := 0
	for _, b := range data {
		if b == '\n' {
			n++
		}
	}
	return n
}
