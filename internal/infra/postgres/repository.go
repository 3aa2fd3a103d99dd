package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/samber/mo"

	"github.com/cemdocs/doc-classify/internal/core/classify"
	"github.com/cemdocs/doc-classify/internal/core/indexing"
	"github.com/cemdocs/doc-classify/internal/platform/database"
)

// ErrDocumentNotFound は対象の文書が存在しない場合のエラー
var ErrDocumentNotFound = indexing.ErrDocumentNotFound

const defaultResultsLimit = 100

// Repository はpgvectorを使ったテンプレート・文書の保存と類似検索を提供します
type Repository struct {
	pool       *pgxpool.Pool
	txProvider *database.TransactionProvider
	logger     *slog.Logger
}

var (
	_ indexing.TemplateStore  = (*Repository)(nil)
	_ indexing.DocumentStore  = (*Repository)(nil)
	_ classify.TemplateFinder = (*Repository)(nil)
)

// NewRepository は新しい Repository を作成します
func NewRepository(pool *pgxpool.Pool, logger *slog.Logger) *Repository {
	return &Repository{
		pool:       pool,
		txProvider: database.NewTransactionProvider(pool),
		logger:     logger,
	}
}

// StoreTemplate はテンプレートの親行とチャンク行を1トランザクションで保存します
func (r *Repository) StoreTemplate(ctx context.Context, tpl indexing.NewTemplate, chunks []indexing.StoredChunk) (uuid.UUID, error) {
	id := uuid.New()
	return database.Transact(ctx, r.txProvider, func(tx pgx.Tx) (uuid.UUID, error) {
		_, err := tx.Exec(ctx, `
			INSERT INTO templates (id, name, version, embedding, title, title_emb)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			id, tpl.Name, tpl.Version,
			pgvector.NewVector(tpl.Embedding),
			optString(tpl.Title), optVector(tpl.TitleEmbedding),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert template: %w", err)
		}

		if err := insertChunks(ctx, tx, `
			INSERT INTO template_chunks (chunk_id, template_id, ord, heading, text, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (chunk_id) DO NOTHING`, id, chunks,
		); err != nil {
			return uuid.Nil, err
		}
		return id, nil
	})
}

// ListTemplates は登録済みテンプレートの一覧を名前順で返します
func (r *Repository) ListTemplates(ctx context.Context) ([]indexing.TemplateInfo, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(version, '')
		FROM templates
		ORDER BY name ASC, created_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []indexing.TemplateInfo
	for rows.Next() {
		var t indexing.TemplateInfo
		if err := rows.Scan(&t.ID, &t.Name, &t.Version); err != nil {
			return nil, fmt.Errorf("failed to scan template row: %w", err)
		}
		templates = append(templates, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate template rows: %w", err)
	}
	return templates, nil
}

// StoreIncomingDocument は分類済みの入力文書とそのチャンクを保存します
func (r *Repository) StoreIncomingDocument(ctx context.Context, doc indexing.NewIncomingDocument, chunks []indexing.StoredChunk) (uuid.UUID, error) {
	id := uuid.New()
	return database.Transact(ctx, r.txProvider, func(tx pgx.Tx) (uuid.UUID, error) {
		_, err := tx.Exec(ctx, `
			INSERT INTO docs_inserted
				(id, name, version, embedding, similar_template_id, similarity_score, session_id, title, title_emb)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			id, doc.Name, doc.Version,
			pgvector.NewVector(doc.Embedding),
			optUUID(doc.SimilarTemplateID), optFloat(doc.SimilarityScore),
			doc.SessionID,
			optString(doc.Title), optVector(doc.TitleEmbedding),
		)
		if err != nil {
			return uuid.Nil, fmt.Errorf("failed to insert incoming document: %w", err)
		}

		if err := insertChunks(ctx, tx, `
			INSERT INTO docs_inserted_chunks (chunk_id, doc_id, ord, heading, text, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (chunk_id) DO NOTHING`, id, chunks,
		); err != nil {
			return uuid.Nil, err
		}
		return id, nil
	})
}

// FindBestTemplate は本文ベクトル（と存在すれば表題ベクトル）に最も近いテンプレートを返します。
// 表題ベクトルのあるテンプレートは重み付き平均で、無いものは本文類似度のみで比較します
func (r *Repository) FindBestTemplate(ctx context.Context, docVector []float32, titleVector mo.Option[[]float32], weights classify.Weights) (mo.Option[classify.Match], error) {
	var row pgx.Row
	if tv, ok := titleVector.Get(); ok {
		row = r.pool.QueryRow(ctx, `
			WITH candidate AS (
				SELECT id, name, created_at,
					(1 - (embedding <=> $1)) AS doc_similarity,
					CASE WHEN title_emb IS NOT NULL
						THEN (1 - (title_emb <=> $2))
						ELSE NULL
					END AS title_similarity
				FROM templates
				WHERE embedding IS NOT NULL
			)
			SELECT id, name, doc_similarity, title_similarity,
				CASE WHEN title_similarity IS NOT NULL AND ($3::float8 + $4::float8) > 0
					THEN ($3 * doc_similarity + $4 * title_similarity) / ($3 + $4)
					ELSE doc_similarity
				END AS combined_similarity
			FROM candidate
			ORDER BY combined_similarity DESC, created_at ASC, id ASC
			LIMIT 1`,
			pgvector.NewVector(docVector), pgvector.NewVector(tv),
			weights.Document, weights.Title,
		)
	} else {
		row = r.pool.QueryRow(ctx, `
			SELECT id, name,
				(1 - (embedding <=> $1)) AS doc_similarity,
				NULL::float8 AS title_similarity,
				(1 - (embedding <=> $1)) AS combined_similarity
			FROM templates
			WHERE embedding IS NOT NULL
			ORDER BY combined_similarity DESC, created_at ASC, id ASC
			LIMIT 1`,
			pgvector.NewVector(docVector),
		)
	}

	var (
		m         classify.Match
		titleSimi *float64
	)
	err := row.Scan(&m.TemplateID, &m.TemplateName, &m.DocSimilarity, &titleSimi, &m.Combined)
	if errors.Is(err, pgx.ErrNoRows) {
		return mo.None[classify.Match](), nil
	}
	if err != nil {
		return mo.None[classify.Match](), fmt.Errorf("failed to search templates: %w", err)
	}
	m.TitleSimilarity = mo.PointerToOption(titleSimi)
	return mo.Some(m), nil
}

// ResultsBySession はセッション内の分類結果を新しい順で返します
func (r *Repository) ResultsBySession(ctx context.Context, sessionID string, limit int) ([]indexing.ClassificationRecord, error) {
	if limit <= 0 {
		limit = defaultResultsLimit
	}
	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.name, d.created_at, d.similarity_score, d.user_choice_id,
			t.id, t.name, t.version
		FROM docs_inserted d
		LEFT JOIN templates t ON t.id = d.similar_template_id
		WHERE d.session_id = $1
		ORDER BY d.created_at DESC, d.similarity_score DESC
		LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query session results: %w", err)
	}
	defer rows.Close()

	var records []indexing.ClassificationRecord
	for rows.Next() {
		var (
			rec             indexing.ClassificationRecord
			score           *float64
			userChoiceID    *uuid.UUID
			templateID      *uuid.UUID
			templateName    *string
			templateVersion *string
		)
		if err := rows.Scan(&rec.DocID, &rec.DocName, &rec.CreatedAt,
			&score, &userChoiceID, &templateID, &templateName, &templateVersion,
		); err != nil {
			return nil, fmt.Errorf("failed to scan result row: %w", err)
		}
		rec.SessionID = sessionID
		rec.SimilarityScore = mo.PointerToOption(score)
		rec.UserChoiceID = mo.PointerToOption(userChoiceID)
		rec.TemplateID = mo.PointerToOption(templateID)
		rec.TemplateName = mo.PointerToOption(templateName)
		rec.TemplateVersion = mo.PointerToOption(templateVersion)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate result rows: %w", err)
	}
	return records, nil
}

// GetDocument は文書の詳細をユーザー確定済みテンプレートと結合して返します
func (r *Repository) GetDocument(ctx context.Context, docID uuid.UUID) (mo.Option[indexing.DocumentDetail], error) {
	row := r.pool.QueryRow(ctx, `
		SELECT d.id, d.name, COALESCE(d.version, ''), d.created_at,
			d.similarity_score, COALESCE(d.session_id, ''), d.user_choice_id,
			t.name, t.version
		FROM docs_inserted d
		LEFT JOIN templates t ON t.id = d.user_choice_id
		WHERE d.id = $1`,
		docID,
	)

	var (
		detail          indexing.DocumentDetail
		score           *float64
		userChoiceID    *uuid.UUID
		templateName    *string
		templateVersion *string
	)
	err := row.Scan(&detail.DocID, &detail.Name, &detail.Version, &detail.CreatedAt,
		&score, &detail.SessionID, &userChoiceID, &templateName, &templateVersion,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return mo.None[indexing.DocumentDetail](), nil
	}
	if err != nil {
		return mo.None[indexing.DocumentDetail](), fmt.Errorf("failed to fetch document: %w", err)
	}
	detail.SimilarityScore = mo.PointerToOption(score)
	detail.UserChoiceID = mo.PointerToOption(userChoiceID)
	detail.TemplateName = mo.PointerToOption(templateName)
	detail.TemplateVersion = mo.PointerToOption(templateVersion)
	return mo.Some(detail), nil
}

// TemplateChunks はテンプレートのチャンクをord順で返します
func (r *Repository) TemplateChunks(ctx context.Context, templateID uuid.UUID) ([]indexing.StoredChunk, error) {
	return r.chunksByParent(ctx, `
		SELECT ord, COALESCE(heading, ''), text
		FROM template_chunks
		WHERE template_id = $1
		ORDER BY ord ASC`, templateID)
}

// DocumentChunks は文書のチャンクをord順で返します
func (r *Repository) DocumentChunks(ctx context.Context, docID uuid.UUID) ([]indexing.StoredChunk, error) {
	return r.chunksByParent(ctx, `
		SELECT ord, COALESCE(heading, ''), text
		FROM docs_inserted_chunks
		WHERE doc_id = $1
		ORDER BY ord ASC`, docID)
}

// ReplaceDocumentChunks は文書の全チャンクを置き換えます
func (r *Repository) ReplaceDocumentChunks(ctx context.Context, docID uuid.UUID, chunks []indexing.StoredChunk) error {
	_, err := database.Transact(ctx, r.txProvider, func(tx pgx.Tx) (struct{}, error) {
		var exists bool
		err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM docs_inserted WHERE id = $1)`, docID).Scan(&exists)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to check document: %w", err)
		}
		if !exists {
			return struct{}{}, fmt.Errorf("doc %s: %w", docID, ErrDocumentNotFound)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM docs_inserted_chunks WHERE doc_id = $1`, docID); err != nil {
			return struct{}{}, fmt.Errorf("failed to delete document chunks: %w", err)
		}

		if err := insertChunks(ctx, tx, `
			INSERT INTO docs_inserted_chunks (chunk_id, doc_id, ord, heading, text, embedding)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (chunk_id) DO NOTHING`, docID, chunks,
		); err != nil {
			return struct{}{}, err
		}

		r.logger.Info("document chunks replaced",
			slog.String("doc_id", docID.String()),
			slog.Int("chunks", len(chunks)),
		)
		return struct{}{}, nil
	})
	return err
}

func (r *Repository) chunksByParent(ctx context.Context, query string, parentID uuid.UUID) ([]indexing.StoredChunk, error) {
	rows, err := r.pool.Query(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []indexing.StoredChunk
	for rows.Next() {
		var c indexing.StoredChunk
		if err := rows.Scan(&c.Ord, &c.Heading, &c.Text); err != nil {
			return nil, fmt.Errorf("failed to scan chunk row: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate chunk rows: %w", err)
	}
	return chunks, nil
}

// UpdateUserChoice は文書に対するユーザーのテンプレート選択を記録します
func (r *Repository) UpdateUserChoice(ctx context.Context, docID, templateID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE docs_inserted SET user_choice_id = $2 WHERE id = $1`,
		docID, templateID,
	)
	if err != nil {
		return fmt.Errorf("failed to update user choice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("doc %s: %w", docID, ErrDocumentNotFound)
	}
	return nil
}

// ClearSession はセッションの文書とチャンクをすべて削除します
func (r *Repository) ClearSession(ctx context.Context, sessionID string) error {
	_, err := database.Transact(ctx, r.txProvider, func(tx pgx.Tx) (struct{}, error) {
		if _, err := tx.Exec(ctx, `
			DELETE FROM docs_inserted_chunks
			WHERE doc_id IN (SELECT id FROM docs_inserted WHERE session_id = $1)`,
			sessionID,
		); err != nil {
			return struct{}{}, fmt.Errorf("failed to delete session chunks: %w", err)
		}
		tag, err := tx.Exec(ctx, `DELETE FROM docs_inserted WHERE session_id = $1`, sessionID)
		if err != nil {
			return struct{}{}, fmt.Errorf("failed to delete session documents: %w", err)
		}
		r.logger.Info("session cleared",
			slog.String("session_id", sessionID),
			slog.Int64("documents", tag.RowsAffected()),
		)
		return struct{}{}, nil
	})
	return err
}

func insertChunks(ctx context.Context, tx pgx.Tx, query string, parentID uuid.UUID, chunks []indexing.StoredChunk) error {
	for _, c := range chunks {
		chunkID := fmt.Sprintf("%s:%d", parentID, c.Ord)
		_, err := tx.Exec(ctx, query,
			chunkID, parentID, c.Ord, c.Heading, c.Text, pgvector.NewVector(c.Embedding),
		)
		if err != nil {
			return fmt.Errorf("failed to insert chunk %s: %w", chunkID, err)
		}
	}
	return nil
}

func optString(o mo.Option[string]) *string {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

func optFloat(o mo.Option[float64]) *float64 {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

func optUUID(o mo.Option[uuid.UUID]) *uuid.UUID {
	if v, ok := o.Get(); ok {
		return &v
	}
	return nil
}

func optVector(o mo.Option[[]float32]) *pgvector.Vector {
	if v, ok := o.Get(); ok {
		vec := pgvector.NewVector(v)
		return &vec
	}
	return nil
}
