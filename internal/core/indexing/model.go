package indexing

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/mo"
)

// NewTemplate は登録するテンプレートの入力データです
type NewTemplate struct {
	Name           string
	Version        string
	Embedding      []float32
	Title          mo.Option[string]
	TitleEmbedding mo.Option[[]float32]
}

// NewIncomingDocument は分類済みの入力文書の保存データです
type NewIncomingDocument struct {
	Name              string
	Version           string
	Embedding         []float32
	SimilarTemplateID mo.Option[uuid.UUID]
	SimilarityScore   mo.Option[float64]
	SessionID         string
	Title             mo.Option[string]
	TitleEmbedding    mo.Option[[]float32]
}

// StoredChunk は親文書に属する1チャンクの保存データです。
// チャンクIDは保存層が「<親ID>:<Ord>」形式で組み立てます
type StoredChunk struct {
	Ord       int
	Heading   string
	Text      string
	Embedding []float32
}

// TemplateInfo はテンプレート一覧表示用の軽量ビューです
type TemplateInfo struct {
	ID      uuid.UUID
	Name    string
	Version string
}

// DocumentDetail は保存済み入力文書の詳細ビューです。
// テンプレート名・版はユーザー確定済みテンプレートのもの
type DocumentDetail struct {
	DocID           uuid.UUID
	Name            string
	Version         string
	CreatedAt       time.Time
	SimilarityScore mo.Option[float64]
	SessionID       string
	UserChoiceID    mo.Option[uuid.UUID]
	TemplateName    mo.Option[string]
	TemplateVersion mo.Option[string]
}

// EditedChunk は再構築画面で編集された1チャンクの入力です
type EditedChunk struct {
	Heading string
	Text    string
}

// ClassificationRecord はセッション内の1件の分類結果です
type ClassificationRecord struct {
	DocID           uuid.UUID
	DocName         string
	CreatedAt       time.Time
	SimilarityScore mo.Option[float64]
	TemplateID      mo.Option[uuid.UUID]
	TemplateName    mo.Option[string]
	TemplateVersion mo.Option[string]
	SessionID       string
	UserChoiceID    mo.Option[uuid.UUID]
}
