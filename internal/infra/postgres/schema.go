package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema は拡張・テーブル・索引を作成します。
// ベクトル列の次元は使用する埋め込みモデルに合わせて指定します
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}

	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS templates (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT,
			embedding vector(%d),
			title TEXT,
			title_emb vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimension, dimension),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS template_chunks (
			chunk_id TEXT PRIMARY KEY,
			template_id UUID NOT NULL REFERENCES templates(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL,
			heading TEXT,
			text TEXT NOT NULL,
			embedding vector(%d)
		)`, dimension),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS docs_inserted (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			version TEXT,
			embedding vector(%d),
			similar_template_id UUID REFERENCES templates(id),
			similarity_score DOUBLE PRECISION,
			session_id TEXT,
			title TEXT,
			title_emb vector(%d),
			user_choice_id UUID REFERENCES templates(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, dimension, dimension),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS docs_inserted_chunks (
			chunk_id TEXT PRIMARY KEY,
			doc_id UUID NOT NULL REFERENCES docs_inserted(id) ON DELETE CASCADE,
			ord INTEGER NOT NULL,
			heading TEXT,
			text TEXT NOT NULL,
			embedding vector(%d)
		)`, dimension),
		`CREATE INDEX IF NOT EXISTS idx_templates_embedding
			ON templates USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS idx_template_chunks_embedding
			ON template_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS idx_docs_inserted_embedding
			ON docs_inserted USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS idx_docs_inserted_chunks_embedding
			ON docs_inserted_chunks USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE INDEX IF NOT EXISTS idx_docs_inserted_session
			ON docs_inserted (session_id)`,
	}

	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	return nil
}
