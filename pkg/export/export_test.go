package export

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notice-watcher/pkg/clean"
	"notice-watcher/pkg/config"
	"notice-watcher/pkg/models"
	"notice-watcher/pkg/store"
	"notice-watcher/pkg/utils"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func testCleaner() *clean.Cleaner {
	return clean.NewCleaner(config.CleanerConfig{LookaheadLines: 15})
}

func writeArtifact(t *testing.T, records []models.CandidateRecord) string {
	t.Helper()
	data, err := json.Marshal(records)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "delta_update.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestSplitAndClean_WritesPerRecordDocuments(t *testing.T) {
	artifact := writeArtifact(t, []models.CandidateRecord{
		{
			ID:          "aaa",
			Title:       "Drug A",
			DetailURL:   "https://example.org/a",
			Description: "approved",
			Date:        "01/15/2026",
			RawText:     "Approval was based on trial results.\nThis review was conducted under Project Orbis.\nTail.",
			FetchedAt:   "2026-01-15 08:00:00",
		},
	})
	outDir := t.TempDir()

	results, err := NewSplitter(testCleaner(), nil, testLogger()).SplitAndClean(artifact, outDir)
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "aaa", results[0].ID)
	assert.Equal(t, filepath.Join(outDir, "aaa.json"), results[0].File)
	assert.Equal(t, CorpusHash("Approval was based on trial results."), results[0].CorpusHash)

	raw, err := os.ReadFile(results[0].File)
	require.NoError(t, err)
	var doc models.CleanedDocument
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "Approval was based on trial results.", doc.Corpus)
	assert.Equal(t, results[0].CorpusHash, doc.CorpusHash)
	assert.Equal(t, "Drug A", doc.Title)
	assert.NotContains(t, string(raw), "raw_text")
	assert.NotContains(t, string(raw), "fetched_at")
}

func TestSplitAndClean_SkipsRecordsWithoutID(t *testing.T) {
	artifact := writeArtifact(t, []models.CandidateRecord{
		{ID: "", Title: "Orphan row", RawText: "text"},
		{ID: "bbb", Title: "Drug B", RawText: "Some substantial raw text for drug B."},
	})
	outDir := t.TempDir()

	results, err := NewSplitter(testCleaner(), nil, testLogger()).SplitAndClean(artifact, outDir)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bbb", results[0].ID)

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSplitAndClean_MissingInput(t *testing.T) {
	_, err := NewSplitter(testCleaner(), nil, testLogger()).
		SplitAndClean(filepath.Join(t.TempDir(), "absent.json"), t.TempDir())
	assert.ErrorIs(t, err, utils.ErrFilesystem)
}

func TestSplitAndClean_MalformedInput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := NewSplitter(testCleaner(), nil, testLogger()).SplitAndClean(path, t.TempDir())
	assert.ErrorIs(t, err, utils.ErrParsing)
}

func TestSplitAndClean_RecordsDrift(t *testing.T) {
	log := testLogger()
	drift, err := store.OpenDriftIndex(t.TempDir(), logrus.NewEntry(log))
	require.NoError(t, err)
	defer drift.Close()

	artifact := writeArtifact(t, []models.CandidateRecord{
		{ID: "ccc", Title: "Drug C", RawText: "Substantial raw text for drift tracking."},
	})
	outDir := t.TempDir()

	results, err := NewSplitter(testCleaner(), drift, log).SplitAndClean(artifact, outDir)
	require.NoError(t, err)
	require.Len(t, results, 1)

	hash, exists, err := drift.Hash("ccc")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, results[0].CorpusHash, hash)
}

func TestCorpusHash_Deterministic(t *testing.T) {
	assert.Equal(t, CorpusHash("corpus"), CorpusHash("corpus"))
	assert.NotEqual(t, CorpusHash("corpus"), CorpusHash("corpus "))
	assert.Len(t, CorpusHash(""), 16)
}

func TestCombineJSONL(t *testing.T) {
	inDir := t.TempDir()
	docs := []models.CleanedDocument{
		{ID: "aaa", Title: "Drug A", DetailURL: "https://example.org/a", Date: "01/15/2026", Corpus: "corpus a"},
		{ID: "bbb", Title: "Drug B", Description: "fallback description", Corpus: ""},
	}
	for _, doc := range docs {
		data, err := json.MarshalIndent(doc, "", "  ")
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(inDir, doc.ID+".json"), data, 0o644))
	}

	outPath := filepath.Join(t.TempDir(), "feed", "notices.jsonl")
	stats, err := CombineJSONL(inDir, outPath, "oncology_notices", testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	assert.Equal(t, 2, stats.Lines)
	assert.Zero(t, stats.Errors)

	raw, err := os.ReadFile(outPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var first FeedLine
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "aaa", first.ID)
	assert.Equal(t, "corpus a", first.Content)
	assert.Equal(t, "oncology_notices", first.Source)
	assert.Equal(t, "https://example.org/a", first.URL)

	var second FeedLine
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, "fallback description", second.Content, "empty corpus falls back to description")
}

func TestCombineJSONL_ArrayFileAndBadFile(t *testing.T) {
	inDir := t.TempDir()

	arr := []models.CleanedDocument{{ID: "x", Corpus: "one"}, {ID: "y", Corpus: "two"}}
	data, err := json.Marshal(arr)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "batch.json"), data, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(inDir, "broken.json"), []byte("{oops"), 0o644))

	outPath := filepath.Join(t.TempDir(), "feed.jsonl")
	stats, err := CombineJSONL(inDir, outPath, "src", testLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Files)
	assert.Equal(t, 2, stats.Lines)
	assert.Equal(t, 1, stats.Errors)
}

func TestCombineJSONL_EmptyDir(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "feed.jsonl")
	stats, err := CombineJSONL(t.TempDir(), outPath, "src", testLogger())
	require.NoError(t, err)
	assert.Zero(t, stats.Lines)
	_, err = os.Stat(outPath)
	assert.NoError(t, err, "feed file is created even when empty")
}
