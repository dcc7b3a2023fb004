package archive

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parchment-labs/docproc/constants"
	"github.com/parchment-labs/docproc/internal/common"
	"github.com/parchment-labs/docproc/internal/document"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewRepository(context.Background(), Config{
		DSN: filepath.Join(t.TempDir(), "archive.db"),
	}, nil)
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func sampleRecord(id string) document.NormalizedRecord {
	return document.NormalizedRecord{
		DocumentID: id,
		Title:      "Invoice #42",
		Content:    "Invoice No: 42\nTotal: $99.00",
		Metadata:   map[string]any{"lines": float64(2)},
		ExtractedFields: document.ExtractedFields{
			"invoice_no": document.Scalar("42"),
			"amounts":    document.List([]string{"$99.00"}),
		},
		SourceType:      constants.SourceText,
		ProcessedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ConfidenceScore: 0.92,
		Method:          constants.MethodAIAssisted,
	}
}

func TestRepositorySaveAndGet(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec := sampleRecord("doc-1")
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, rec.Title, got.Title)
	assert.Equal(t, rec.Content, got.Content)
	assert.Equal(t, rec.Metadata, got.Metadata)
	assert.Equal(t, "42", got.ExtractedFields["invoice_no"].String())
	assert.Equal(t, constants.MethodAIAssisted, got.Method)
	assert.True(t, rec.ProcessedAt.Equal(got.ProcessedAt))
	assert.InDelta(t, 0.92, got.ConfidenceScore, 1e-9)
}

func TestRepositorySaveUpserts(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	rec := sampleRecord("doc-1")
	require.NoError(t, repo.Save(ctx, rec))

	rec.Title = "Corrected title"
	rec.ConfidenceScore = 0.5
	require.NoError(t, repo.Save(ctx, rec))

	got, err := repo.Get(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "Corrected title", got.Title)
	assert.InDelta(t, 0.5, got.ConfidenceScore, 1e-9)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestRepositoryListFilters(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	first := sampleRecord("doc-1")
	second := sampleRecord("doc-2")
	second.Method = constants.MethodRuleBased
	second.ConfidenceScore = 0.4
	second.ProcessedAt = first.ProcessedAt.Add(time.Hour)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "doc-2", all[0].DocumentID, "newest first")

	aiOnly, err := repo.List(ctx, ListFilter{Method: constants.MethodAIAssisted})
	require.NoError(t, err)
	require.Len(t, aiOnly, 1)
	assert.Equal(t, "doc-1", aiOnly[0].DocumentID)

	confident, err := repo.List(ctx, ListFilter{MinConfidence: 0.9})
	require.NoError(t, err)
	require.Len(t, confident, 1)

	from := first.ProcessedAt.Add(30 * time.Minute)
	recent, err := repo.List(ctx, ListFilter{From: &from})
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "doc-2", recent[0].DocumentID)

	limited, err := repo.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestRebindPostgresPlaceholders(t *testing.T) {
	q := dialectPostgres.rebind("SELECT 1 WHERE a = ? AND b = ?")
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", q)

	assert.Equal(t, "no params", dialectSQLite.rebind("no params"))
	assert.Equal(t, "a = ?", dialectSQLite.rebind("a = ?"))
}

func TestDetectDialect(t *testing.T) {
	d, driver := detectDialect("postgres://u:p@localhost/db")
	assert.Equal(t, dialectPostgres, d)
	assert.Equal(t, "pgx", driver)

	d, driver = detectDialect("/tmp/archive.db")
	assert.Equal(t, dialectSQLite, d)
	assert.Equal(t, "sqlite", driver)
}
