package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rfp-assist/backend/internal/draft"
	"github.com/rfp-assist/backend/internal/metrics"
	"github.com/rfp-assist/backend/internal/resultlog"
	"github.com/rfp-assist/backend/internal/vector"
)

func topScoreSampleCount(t *testing.T) uint64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, metrics.TopScore.Write(&m))
	return m.GetHistogram().GetSampleCount()
}

type fakeEmbedder struct {
	failOn string
	calls  int
}

func (f *fakeEmbedder) GenerateEmbedding(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return nil, errors.New("embedding service unavailable")
	}
	return []float32{float32(len(text))}, nil
}

// fakeStore pops one response per Search call, in order.
type fakeStore struct {
	responses [][]vector.Match
	upserted  []vector.Point
	searches  int
}

func (f *fakeStore) EnsureCollection(context.Context) error { return nil }

func (f *fakeStore) Upsert(_ context.Context, points []vector.Point) error {
	f.upserted = append(f.upserted, points...)
	return nil
}

func (f *fakeStore) Search(context.Context, []float32, int, float32) ([]vector.Match, error) {
	f.searches++
	if len(f.responses) == 0 {
		return nil, nil
	}
	matches := f.responses[0]
	f.responses = f.responses[1:]
	return matches, nil
}

func (f *fakeStore) Close() error { return nil }

type fakeRefiner struct {
	out string
	err error
}

func (f *fakeRefiner) RefineDraft(context.Context, string, []string) (string, error) {
	return f.out, f.err
}

func newTestEngine(t *testing.T, embedder Embedder, store vector.Store) (*Engine, string) {
	t.Helper()

	outputDir := t.TempDir()
	auditLog, err := resultlog.New(t.TempDir())
	require.NoError(t, err)

	engine := NewEngine(
		embedder,
		store,
		draft.NewSynthesizer(draft.DefaultConfig()),
		draft.NewReviewGate(0.60),
		auditLog,
		Config{SearchLimit: 5, MinScore: 0.3, OutputDir: outputDir},
	)
	return engine, outputDir
}

const questionnaire = "Vendor Questionnaire\n" +
	"What security certifications does your firm hold?\n" +
	"How do you manage third-party vendor risk today?\n"

func TestRunBytesDraftsAndGates(t *testing.T) {
	store := &fakeStore{responses: [][]vector.Match{
		{{Score: 0.88, Answer: "We hold SOC 2 Type II certification.", Source: "rfp_2023.docx"}},
		nil, // second question finds nothing
	}}
	engine, _ := newTestEngine(t, &fakeEmbedder{}, store)

	result, err := engine.RunBytes(context.Background(), "questions.txt", []byte(questionnaire), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Questions)
	assert.Equal(t, 1, result.NeedsReview)
	assert.Zero(t, result.Failed)
	require.Len(t, result.Records, 2)

	assert.False(t, result.Records[0].NeedsReview)
	assert.Contains(t, result.Records[0].Draft, "We hold SOC 2 Type II certification.")
	assert.Contains(t, result.Records[0].Draft, "[Source: rfp_2023.docx | Score: 0.88]")

	assert.True(t, result.Records[1].NeedsReview)
	assert.Contains(t, result.Records[1].Draft, "[! Needs review: low similarity score (0.00)]")
	assert.Contains(t, result.Records[1].Draft, draft.SentinelNoMatches)

	// Full draft always written; review draft only when something is flagged.
	_, err = os.Stat(result.DraftPath)
	require.NoError(t, err)
	require.NotEmpty(t, result.ReviewDraftPath)
	_, err = os.Stat(result.ReviewDraftPath)
	require.NoError(t, err)

	logData, err := os.ReadFile(result.LogPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(logData), "\n"))
}

func TestRunBytesNoReviewDraftWhenAllPass(t *testing.T) {
	store := &fakeStore{responses: [][]vector.Match{
		{{Score: 0.9, Answer: "Answer one with enough length to pass.", Source: "a.docx"}},
		{{Score: 0.8, Answer: "Answer two with enough length to pass.", Source: "b.docx"}},
	}}
	engine, outputDir := newTestEngine(t, &fakeEmbedder{}, store)

	result, err := engine.RunBytes(context.Background(), "questions.txt", []byte(questionnaire), nil)
	require.NoError(t, err)

	assert.Zero(t, result.NeedsReview)
	assert.Empty(t, result.ReviewDraftPath)

	entries, err := os.ReadDir(outputDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, filepath.Base(result.DraftPath), entries[0].Name())
}

func TestRunBytesIsolatesGatewayFailure(t *testing.T) {
	store := &fakeStore{responses: [][]vector.Match{
		{{Score: 0.9, Answer: "Answer for the second question here.", Source: "a.docx"}},
	}}
	embedder := &fakeEmbedder{failOn: "security certifications"}
	engine, _ := newTestEngine(t, embedder, store)

	scoresBefore := topScoreSampleCount(t)
	result, err := engine.RunBytes(context.Background(), "questions.txt", []byte(questionnaire), nil)
	require.NoError(t, err)

	// The failed question must not feed its synthetic 0.0 into the score
	// histogram; only the drafted one is observed.
	assert.Equal(t, scoresBefore+1, topScoreSampleCount(t))

	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.NeedsReview)
	require.Len(t, result.Records, 2)

	assert.True(t, result.Records[0].NeedsReview)
	assert.NotEmpty(t, result.Records[0].Error)
	assert.Equal(t, errorDraft, result.Records[0].Draft)

	assert.False(t, result.Records[1].NeedsReview)
	assert.Empty(t, result.Records[1].Error)
}

func TestRunBytesNoQuestions(t *testing.T) {
	engine, _ := newTestEngine(t, &fakeEmbedder{}, &fakeStore{})

	_, err := engine.RunBytes(context.Background(), "questions.txt",
		[]byte("Just prose paragraphs.\nNothing resembling a question here.\n"), nil)
	require.ErrorIs(t, err, ErrNoQuestions)
}

func TestRunBytesProgressEvents(t *testing.T) {
	store := &fakeStore{responses: [][]vector.Match{
		{{Score: 0.9, Answer: "Answer one with enough length to pass.", Source: "a.docx"}},
		{{Score: 0.8, Answer: "Answer two with enough length to pass.", Source: "b.docx"}},
	}}
	engine, _ := newTestEngine(t, &fakeEmbedder{}, store)

	var events []ProgressEvent
	_, err := engine.RunBytes(context.Background(), "questions.txt", []byte(questionnaire), func(e ProgressEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)

	require.Len(t, events, 3)
	assert.Equal(t, "question", events[0].Stage)
	assert.Equal(t, 1, events[0].Index)
	assert.Equal(t, 2, events[1].Index)
	assert.Equal(t, "done", events[2].Stage)
}

func TestRunBytesRefinerReplacesDraft(t *testing.T) {
	store := &fakeStore{responses: [][]vector.Match{
		{{Score: 0.9, Answer: "Answer one with enough length to pass.", Source: "a.docx"}},
		{{Score: 0.8, Answer: "Answer two with enough length to pass.", Source: "b.docx"}},
	}}
	outputDir := t.TempDir()
	auditLog, err := resultlog.New(t.TempDir())
	require.NoError(t, err)

	engine := NewEngine(&fakeEmbedder{}, store,
		draft.NewSynthesizer(draft.DefaultConfig()), draft.NewReviewGate(0.60), auditLog,
		Config{SearchLimit: 5, OutputDir: outputDir, RefineDrafts: true},
	).WithRefiner(&fakeRefiner{out: "Polished answer."})

	result, err := engine.RunBytes(context.Background(), "questions.txt", []byte(questionnaire), nil)
	require.NoError(t, err)
	assert.Equal(t, "Polished answer.", result.Records[0].Draft)
}

func TestRunBytesRefinerFailureKeepsComposedDraft(t *testing.T) {
	store := &fakeStore{responses: [][]vector.Match{
		{{Score: 0.9, Answer: "Answer one with enough length to pass.", Source: "a.docx"}},
		{{Score: 0.8, Answer: "Answer two with enough length to pass.", Source: "b.docx"}},
	}}
	outputDir := t.TempDir()
	auditLog, err := resultlog.New(t.TempDir())
	require.NoError(t, err)

	engine := NewEngine(&fakeEmbedder{}, store,
		draft.NewSynthesizer(draft.DefaultConfig()), draft.NewReviewGate(0.60), auditLog,
		Config{SearchLimit: 5, OutputDir: outputDir, RefineDrafts: true},
	).WithRefiner(&fakeRefiner{err: errors.New("model overloaded")})

	result, err := engine.RunBytes(context.Background(), "questions.txt", []byte(questionnaire), nil)
	require.NoError(t, err)
	assert.Zero(t, result.Failed)
	assert.Contains(t, result.Records[0].Draft, "Answer one with enough length to pass.")
}
