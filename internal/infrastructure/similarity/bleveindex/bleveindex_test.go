package bleveindex

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tesso57/rsscluster/internal/domain/corpus"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func testDocs() []corpus.Document {
	return []corpus.Document{
		{
			ID:      "https://a.example.com/go",
			Tokens:  []string{"golang", "release", "brings", "generics", "iterators", "performance"},
			Payload: corpus.Payload{Feed: "https://a.example.com/rss", Title: "Go release"},
		},
		{
			ID:      "https://b.example.com/go",
			Tokens:  []string{"golang", "release", "brings", "generics", "iterators", "faster"},
			Payload: corpus.Payload{Feed: "https://b.example.com/rss", Title: "New Go version"},
		},
		{
			ID:      "https://c.example.com/pasta",
			Tokens:  []string{"cooking", "pasta", "tomato", "sauce", "recipe", "basil"},
			Payload: corpus.Payload{Feed: "https://c.example.com/rss", Title: "Pasta night"},
		},
	}
}

func openTrained(t *testing.T, dir string) *Backend {
	t.Helper()
	b, err := Open(dir, "test", 10, quietLogger)
	require.NoError(t, err)
	docs := testDocs()
	require.NoError(t, b.Train(context.Background(), docs, "lsi"))
	require.NoError(t, b.Index(context.Background(), docs))
	return b
}

func TestFindSimilarRanksNearDuplicate(t *testing.T) {
	b := openTrained(t, t.TempDir())
	defer b.Close()

	results, err := b.FindSimilar(context.Background(), testDocs()[0])
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Equal(t, "https://a.example.com/go", results[0].ID)
	require.InDelta(t, 1.0, results[0].Score, 1e-9)

	require.Equal(t, "https://b.example.com/go", results[1].ID)
	require.Greater(t, results[1].Score, 0.0)
	require.Less(t, results[1].Score, 1.0)
	require.Equal(t, "New Go version", results[1].Payload.Title)
	require.Equal(t, "https://b.example.com/rss", results[1].Payload.Feed)
}

func TestFindSimilarEmptyTokens(t *testing.T) {
	b := openTrained(t, t.TempDir())
	defer b.Close()

	results, err := b.FindSimilar(context.Background(), corpus.Document{ID: "x"})
	require.NoError(t, err)
	require.Empty(t, results)
}

func TestTrainRecordsMethodAndResets(t *testing.T) {
	b := openTrained(t, t.TempDir())
	defer b.Close()

	method, err := b.Method()
	require.NoError(t, err)
	require.Equal(t, "lsi", method)

	require.NoError(t, b.Train(context.Background(), nil, "tfidf"))
	count, err := b.DocCount()
	require.NoError(t, err)
	require.Zero(t, count)

	method, err = b.Method()
	require.NoError(t, err)
	require.Equal(t, "tfidf", method)
}

func TestSessionPersistsAcrossOpen(t *testing.T) {
	dir := t.TempDir()
	b := openTrained(t, dir)
	require.NoError(t, b.Close())

	reopened, err := Open(dir, "test", 10, quietLogger)
	require.NoError(t, err)
	defer reopened.Close()

	count, err := reopened.DocCount()
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	trained, err := reopened.SessionTrained(context.Background())
	require.NoError(t, err)
	require.True(t, trained)

	results, err := reopened.FindSimilar(context.Background(), testDocs()[2])
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, "https://c.example.com/pasta", results[0].ID)
}

func TestOpenNewSessionIsEmpty(t *testing.T) {
	b, err := Open(t.TempDir(), "fresh", 0, nil)
	require.NoError(t, err)
	defer b.Close()

	count, err := b.DocCount()
	require.NoError(t, err)
	require.Zero(t, count)

	trained, err := b.SessionTrained(context.Background())
	require.NoError(t, err)
	require.False(t, trained)

	_, err = Open(t.TempDir(), " ", 0, nil)
	require.Error(t, err)
}

func TestIndexHonoursCancelledContext(t *testing.T) {
	b, err := Open(t.TempDir(), "cancel", 0, quietLogger)
	require.NoError(t, err)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, b.Index(ctx, testDocs()), context.Canceled)
}
