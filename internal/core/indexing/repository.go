package indexing

import (
	"context"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// TemplateStore はテンプレートの永続化を提供します。
// 親行とチャンク行は1トランザクションで、必ず親行を先に書き込みます
type TemplateStore interface {
	StoreTemplate(ctx context.Context, tpl NewTemplate, chunks []StoredChunk) (uuid.UUID, error)
	ListTemplates(ctx context.Context) ([]TemplateInfo, error)
	// TemplateChunks はテンプレートのチャンクをord順で返します。
	// 再構築用途のためベクトル列は読み込みません
	TemplateChunks(ctx context.Context, templateID uuid.UUID) ([]StoredChunk, error)
}

// DocumentStore は入力文書の永続化とセッション管理を提供します
type DocumentStore interface {
	StoreIncomingDocument(ctx context.Context, doc NewIncomingDocument, chunks []StoredChunk) (uuid.UUID, error)
	ResultsBySession(ctx context.Context, sessionID string, limit int) ([]ClassificationRecord, error)
	GetDocument(ctx context.Context, docID uuid.UUID) (mo.Option[DocumentDetail], error)
	// DocumentChunks は文書のチャンクをord順で返します（ベクトル列は読み込みません）
	DocumentChunks(ctx context.Context, docID uuid.UUID) ([]StoredChunk, error)
	// ReplaceDocumentChunks は文書の全チャンクを渡されたチャンク列で置き換えます。
	// 文書が存在しない場合は ErrDocumentNotFound を返します
	ReplaceDocumentChunks(ctx context.Context, docID uuid.UUID, chunks []StoredChunk) error
	UpdateUserChoice(ctx context.Context, docID, templateID uuid.UUID) error
	ClearSession(ctx context.Context, sessionID string) error
}
