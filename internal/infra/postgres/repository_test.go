package postgres

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cemdocs/doc-classify/internal/core/classify"
	"github.com/cemdocs/doc-classify/internal/core/indexing"
	"github.com/cemdocs/doc-classify/internal/platform/database"
	"github.com/cemdocs/doc-classify/pkg/config"
)

const testDimension = 4

// setupRepository はTEST_DATABASE_HOSTが設定されている場合のみ実データベースに接続します
func setupRepository(t *testing.T) *Repository {
	t.Helper()

	host := os.Getenv("TEST_DATABASE_HOST")
	if host == "" {
		t.Skip("TEST_DATABASE_HOST is not set")
	}

	cfg := config.DatabaseConfig{
		Host:     host,
		Port:     getenvIntDefault("TEST_DATABASE_PORT", 5432),
		User:     getenvDefault("TEST_DATABASE_USER", "postgres"),
		Password: getenvDefault("TEST_DATABASE_PASSWORD", "postgres"),
		DBName:   getenvDefault("TEST_DATABASE_NAME", "doc_classify_test"),
		SSLMode:  "disable",
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, EnsureSchema(ctx, pool, testDimension))

	_, err = pool.Exec(ctx, `TRUNCATE docs_inserted_chunks, docs_inserted, template_chunks, templates`)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRepository(pool, logger)
}

func getenvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvIntDefault(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func TestRepository_TemplateRoundTrip(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	supplyID, err := repo.StoreTemplate(ctx, indexing.NewTemplate{
		Name:           "supply.txt",
		Version:        "v1",
		Embedding:      []float32{1, 0, 0, 0},
		Title:          mo.Some("Договор поставки"),
		TitleEmbedding: mo.Some([]float32{1, 0, 0, 0}),
	}, []indexing.StoredChunk{
		{Ord: 0, Heading: "Предмет", Text: "Поставщик обязуется поставить товар.", Embedding: []float32{1, 0, 0, 0}},
		{Ord: 1, Heading: "Цена", Text: "Цена товара согласована сторонами.", Embedding: []float32{0, 1, 0, 0}},
	})
	require.NoError(t, err)

	_, err = repo.StoreTemplate(ctx, indexing.NewTemplate{
		Name:      "services.txt",
		Embedding: []float32{0, 1, 0, 0},
	}, nil)
	require.NoError(t, err)

	templates, err := repo.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	assert.Equal(t, "services.txt", templates[0].Name)
	assert.Equal(t, "supply.txt", templates[1].Name)
	assert.Equal(t, "v1", templates[1].Version)

	match, err := repo.FindBestTemplate(ctx,
		[]float32{1, 0, 0, 0},
		mo.Some([]float32{1, 0, 0, 0}),
		classify.DefaultWeights(),
	)
	require.NoError(t, err)
	m := match.MustGet()
	assert.Equal(t, supplyID, m.TemplateID)
	assert.Equal(t, "supply.txt", m.TemplateName)
	assert.InDelta(t, 1.0, m.DocSimilarity, 1e-6)
	assert.InDelta(t, 1.0, m.TitleSimilarity.MustGet(), 1e-6)
	assert.InDelta(t, 1.0, m.Combined, 1e-6)
}

func TestRepository_FindBestTemplate_NoTitleVector(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	id, err := repo.StoreTemplate(ctx, indexing.NewTemplate{
		Name:      "supply.txt",
		Embedding: []float32{0, 0, 1, 0},
	}, nil)
	require.NoError(t, err)

	match, err := repo.FindBestTemplate(ctx,
		[]float32{0, 0, 1, 0},
		mo.None[[]float32](),
		classify.DefaultWeights(),
	)
	require.NoError(t, err)
	m := match.MustGet()
	assert.Equal(t, id, m.TemplateID)
	assert.True(t, m.TitleSimilarity.IsAbsent())
	assert.InDelta(t, m.DocSimilarity, m.Combined, 1e-9)
}

func TestRepository_FindBestTemplate_EmptyIndex(t *testing.T) {
	repo := setupRepository(t)

	match, err := repo.FindBestTemplate(context.Background(),
		[]float32{1, 0, 0, 0},
		mo.None[[]float32](),
		classify.DefaultWeights(),
	)
	require.NoError(t, err)
	assert.True(t, match.IsAbsent())
}

func TestRepository_DocumentRebuild(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	templateID, err := repo.StoreTemplate(ctx, indexing.NewTemplate{
		Name:      "supply.txt",
		Version:   "v2",
		Embedding: []float32{1, 0, 0, 0},
	}, []indexing.StoredChunk{
		{Ord: 1, Heading: "Цена", Text: "Цена товара согласована сторонами.", Embedding: []float32{0, 1, 0, 0}},
		{Ord: 0, Heading: "Предмет", Text: "Поставщик обязуется поставить товар.", Embedding: []float32{1, 0, 0, 0}},
	})
	require.NoError(t, err)

	docID, err := repo.StoreIncomingDocument(ctx, indexing.NewIncomingDocument{
		Name:            "incoming.txt",
		Embedding:       []float32{1, 0, 0, 0},
		SimilarityScore: mo.Some(0.9),
		SessionID:       "session-1",
	}, []indexing.StoredChunk{
		{Ord: 0, Heading: "Предмет", Text: "Исходный текст.", Embedding: []float32{1, 0, 0, 0}},
	})
	require.NoError(t, err)

	// 確定前はテンプレート情報なし
	detail, err := repo.GetDocument(ctx, docID)
	require.NoError(t, err)
	d := detail.MustGet()
	assert.Equal(t, "incoming.txt", d.Name)
	assert.Equal(t, "session-1", d.SessionID)
	assert.True(t, d.UserChoiceID.IsAbsent())
	assert.True(t, d.TemplateName.IsAbsent())

	require.NoError(t, repo.UpdateUserChoice(ctx, docID, templateID))

	detail, err = repo.GetDocument(ctx, docID)
	require.NoError(t, err)
	d = detail.MustGet()
	assert.Equal(t, templateID, d.UserChoiceID.MustGet())
	assert.Equal(t, "supply.txt", d.TemplateName.MustGet())
	assert.Equal(t, "v2", d.TemplateVersion.MustGet())

	missing, err := repo.GetDocument(ctx, uuid.New())
	require.NoError(t, err)
	assert.True(t, missing.IsAbsent())

	// ord順で返り、ベクトル列は読み込まない
	chunks, err := repo.TemplateChunks(ctx, templateID)
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Предмет", chunks[0].Heading)
	assert.Equal(t, "Цена", chunks[1].Heading)
	assert.Nil(t, chunks[0].Embedding)

	err = repo.ReplaceDocumentChunks(ctx, docID, []indexing.StoredChunk{
		{Ord: 0, Heading: "Предмет", Text: "Отредактированный текст.", Embedding: []float32{1, 0, 0, 0}},
		{Ord: 1, Heading: "Цена", Text: "Новый раздел о цене.", Embedding: []float32{0, 1, 0, 0}},
	})
	require.NoError(t, err)

	docChunks, err := repo.DocumentChunks(ctx, docID)
	require.NoError(t, err)
	require.Len(t, docChunks, 2)
	assert.Equal(t, "Отредактированный текст.", docChunks[0].Text)
	assert.Equal(t, "Новый раздел о цене.", docChunks[1].Text)

	err = repo.ReplaceDocumentChunks(ctx, uuid.New(), nil)
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestEnsureSchema_CreatesVectorIndexes(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	rows, err := repo.pool.Query(ctx, `
		SELECT indexname FROM pg_indexes
		WHERE schemaname = current_schema() AND indexdef LIKE '%ivfflat%'`)
	require.NoError(t, err)
	defer rows.Close()

	names := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names[name] = true
	}
	require.NoError(t, rows.Err())

	for _, want := range []string{
		"idx_templates_embedding",
		"idx_template_chunks_embedding",
		"idx_docs_inserted_embedding",
		"idx_docs_inserted_chunks_embedding",
	} {
		assert.True(t, names[want], want)
	}
}

func TestRepository_SessionLifecycle(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	templateID, err := repo.StoreTemplate(ctx, indexing.NewTemplate{
		Name:      "supply.txt",
		Embedding: []float32{1, 0, 0, 0},
	}, nil)
	require.NoError(t, err)

	docID, err := repo.StoreIncomingDocument(ctx, indexing.NewIncomingDocument{
		Name:              "incoming.txt",
		Embedding:         []float32{1, 0, 0, 0},
		SimilarTemplateID: mo.Some(templateID),
		SimilarityScore:   mo.Some(0.95),
		SessionID:         "session-1",
	}, []indexing.StoredChunk{
		{Ord: 0, Text: "Текст документа.", Embedding: []float32{1, 0, 0, 0}},
	})
	require.NoError(t, err)

	records, err := repo.ResultsBySession(ctx, "session-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, docID, records[0].DocID)
	assert.Equal(t, "incoming.txt", records[0].DocName)
	assert.Equal(t, templateID, records[0].TemplateID.MustGet())
	assert.Equal(t, "supply.txt", records[0].TemplateName.MustGet())
	assert.InDelta(t, 0.95, records[0].SimilarityScore.MustGet(), 1e-9)
	assert.True(t, records[0].UserChoiceID.IsAbsent())

	require.NoError(t, repo.UpdateUserChoice(ctx, docID, templateID))

	records, err = repo.ResultsBySession(ctx, "session-1", 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, templateID, records[0].UserChoiceID.MustGet())

	err = repo.UpdateUserChoice(ctx, uuid.New(), templateID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	require.NoError(t, repo.ClearSession(ctx, "session-1"))

	records, err = repo.ResultsBySession(ctx, "session-1", 0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
