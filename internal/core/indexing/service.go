package indexing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/mo"

	"github.com/cemdocs/doc-classify/internal/core/classify"
	"github.com/cemdocs/doc-classify/internal/core/document"
	"github.com/cemdocs/doc-classify/internal/core/embedding"
)

var (
	// ErrEmptyDocument は要素列にテキストが含まれていない場合のエラー
	ErrEmptyDocument = errors.New("document contains no text")
	// ErrDocumentNotFound は対象の文書が存在しない場合のエラー
	ErrDocumentNotFound = errors.New("document not found")
	// ErrNoConfirmedTemplate は文書にユーザー確定済みテンプレートが無い場合のエラー
	ErrNoConfirmedTemplate = errors.New("document has no confirmed template")
)

// TemplateInput はテンプレート登録の入力です
type TemplateInput struct {
	Name    string
	Version string
	Title   string
	// Elements はパース済みの文書要素列
	Elements []document.Element
}

// IncomingInput は入力文書処理の入力です
type IncomingInput struct {
	Name      string
	Version   string
	Title     string
	SessionID string
	Elements  []document.Element
}

// IncomingResult は入力文書1件の処理結果です
type IncomingResult struct {
	DocID          uuid.UUID
	Classification classify.Result
	Stats          document.Stats
}

// Service はテンプレート索引の構築と入力文書の分類パイプラインを提供します
type Service struct {
	chunker    *document.Chunker
	embedder   *embedding.Service
	classifier *classify.Service
	templates  TemplateStore
	documents  DocumentStore
	logger     *slog.Logger
}

// NewService は新しい Service を作成します
func NewService(
	chunker *document.Chunker,
	embedder *embedding.Service,
	classifier *classify.Service,
	templates TemplateStore,
	documents DocumentStore,
	logger *slog.Logger,
) *Service {
	return &Service{
		chunker:    chunker,
		embedder:   embedder,
		classifier: classifier,
		templates:  templates,
		documents:  documents,
		logger:     logger,
	}
}

// IndexTemplate は文書要素列からテンプレートを索引へ登録します。
// 全文ベクトル・表題ベクトル・チャンクベクトルを作成し、親行を先に保存します
func (s *Service) IndexTemplate(ctx context.Context, input TemplateInput) (uuid.UUID, document.Stats, error) {
	fullText := joinElements(input.Elements)
	if strings.TrimSpace(fullText) == "" {
		return uuid.Nil, document.Stats{}, ErrEmptyDocument
	}

	docVector, err := s.embedder.EncodeOne(ctx, fullText)
	if err != nil {
		return uuid.Nil, document.Stats{}, fmt.Errorf("failed to embed template document: %w", err)
	}

	title, titleVector, err := s.embedTitle(ctx, input.Title)
	if err != nil {
		return uuid.Nil, document.Stats{}, err
	}

	chunks, stats, err := s.embedChunks(ctx, input.Elements)
	if err != nil {
		return uuid.Nil, document.Stats{}, err
	}

	id, err := s.templates.StoreTemplate(ctx, NewTemplate{
		Name:           input.Name,
		Version:        input.Version,
		Embedding:      docVector,
		Title:          title,
		TitleEmbedding: titleVector,
	}, chunks)
	if err != nil {
		return uuid.Nil, document.Stats{}, fmt.Errorf("failed to store template: %w", err)
	}

	s.logger.Info("template indexed",
		slog.String("template_id", id.String()),
		slog.String("name", input.Name),
		slog.Int("chunks", stats.TotalChunks),
		slog.Int("estimated_pages", stats.EstimatedPages),
	)
	return id, stats, nil
}

// ProcessIncoming は入力文書を分類し、チャンクと共に保存します
func (s *Service) ProcessIncoming(ctx context.Context, input IncomingInput) (IncomingResult, error) {
	fullText := joinElements(input.Elements)
	if strings.TrimSpace(fullText) == "" {
		return IncomingResult{}, ErrEmptyDocument
	}

	docVector, err := s.embedder.EncodeOne(ctx, fullText)
	if err != nil {
		return IncomingResult{}, fmt.Errorf("failed to embed incoming document: %w", err)
	}

	title, titleVector, err := s.embedTitle(ctx, input.Title)
	if err != nil {
		return IncomingResult{}, err
	}

	classification, err := s.classifier.Classify(ctx, docVector, titleVector)
	if err != nil {
		return IncomingResult{}, fmt.Errorf("failed to classify document: %w", err)
	}

	chunks, stats, err := s.embedChunks(ctx, input.Elements)
	if err != nil {
		return IncomingResult{}, err
	}

	doc := NewIncomingDocument{
		Name:           input.Name,
		Version:        input.Version,
		Embedding:      docVector,
		SessionID:      input.SessionID,
		Title:          title,
		TitleEmbedding: titleVector,
	}
	if m, ok := classification.Match.Get(); ok {
		doc.SimilarTemplateID = mo.Some(m.TemplateID)
		doc.SimilarityScore = mo.Some(m.Combined)
	}

	id, err := s.documents.StoreIncomingDocument(ctx, doc, chunks)
	if err != nil {
		return IncomingResult{}, fmt.Errorf("failed to store incoming document: %w", err)
	}

	s.logger.Info("incoming document processed",
		slog.String("doc_id", id.String()),
		slog.String("name", input.Name),
		slog.String("session_id", input.SessionID),
		slog.String("label", string(classification.Label)),
	)
	return IncomingResult{
		DocID:          id,
		Classification: classification,
		Stats:          stats,
	}, nil
}

// Templates は登録済みテンプレートの一覧を返します
func (s *Service) Templates(ctx context.Context) ([]TemplateInfo, error) {
	return s.templates.ListTemplates(ctx)
}

// Results はセッションの分類結果一覧を返します
func (s *Service) Results(ctx context.Context, sessionID string, limit int) ([]ClassificationRecord, error) {
	return s.documents.ResultsBySession(ctx, sessionID, limit)
}

// ConfirmTemplate は文書に対するユーザーのテンプレート選択を記録します
func (s *Service) ConfirmTemplate(ctx context.Context, docID, templateID uuid.UUID) error {
	return s.documents.UpdateUserChoice(ctx, docID, templateID)
}

// ClearSession はセッションの文書とチャンクをすべて削除します
func (s *Service) ClearSession(ctx context.Context, sessionID string) error {
	return s.documents.ClearSession(ctx, sessionID)
}

// Document は保存済み文書の詳細を返します
func (s *Service) Document(ctx context.Context, docID uuid.UUID) (DocumentDetail, error) {
	detail, err := s.documents.GetDocument(ctx, docID)
	if err != nil {
		return DocumentDetail{}, fmt.Errorf("failed to fetch document: %w", err)
	}
	d, ok := detail.Get()
	if !ok {
		return DocumentDetail{}, fmt.Errorf("doc %s: %w", docID, ErrDocumentNotFound)
	}
	return d, nil
}

// DocumentChunks は文書のチャンクをord順で返します
func (s *Service) DocumentChunks(ctx context.Context, docID uuid.UUID) ([]StoredChunk, error) {
	return s.documents.DocumentChunks(ctx, docID)
}

// TemplateChunksForEdit は文書のユーザー確定済みテンプレートのチャンクを返します。
// 確定済みテンプレートが無い場合は ErrNoConfirmedTemplate を返します
func (s *Service) TemplateChunksForEdit(ctx context.Context, docID uuid.UUID) ([]StoredChunk, error) {
	detail, err := s.Document(ctx, docID)
	if err != nil {
		return nil, err
	}
	templateID, ok := detail.UserChoiceID.Get()
	if !ok {
		return nil, fmt.Errorf("doc %s: %w", docID, ErrNoConfirmedTemplate)
	}
	chunks, err := s.templates.TemplateChunks(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch template chunks: %w", err)
	}
	return chunks, nil
}

// SaveEditedDocument は編集後のチャンク列で文書のチャンクを全置換します。
// 元実装と異なり編集後テキストも再度ベクトル化して保存します
func (s *Service) SaveEditedDocument(ctx context.Context, docID uuid.UUID, edited []EditedChunk) error {
	if len(edited) == 0 {
		return ErrEmptyDocument
	}

	texts := make([]string, len(edited))
	for i, ch := range edited {
		texts[i] = ch.Text
	}
	vectors, err := s.embedder.Encode(ctx, texts)
	if err != nil {
		return fmt.Errorf("failed to embed edited chunks: %w", err)
	}

	chunks := make([]StoredChunk, len(edited))
	for i, ch := range edited {
		chunks[i] = StoredChunk{
			Ord:       i,
			Heading:   ch.Heading,
			Text:      ch.Text,
			Embedding: vectors[i],
		}
	}

	if err := s.documents.ReplaceDocumentChunks(ctx, docID, chunks); err != nil {
		return fmt.Errorf("failed to replace document chunks: %w", err)
	}

	s.logger.Info("document chunks replaced",
		slog.String("doc_id", docID.String()),
		slog.Int("chunks", len(chunks)),
	)
	return nil
}

func (s *Service) embedTitle(ctx context.Context, title string) (mo.Option[string], mo.Option[[]float32], error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return mo.None[string](), mo.None[[]float32](), nil
	}
	vector, err := s.embedder.EncodeOne(ctx, title)
	if err != nil {
		return mo.None[string](), mo.None[[]float32](), fmt.Errorf("failed to embed title: %w", err)
	}
	return mo.Some(title), mo.Some(vector), nil
}

func (s *Service) embedChunks(ctx context.Context, elements []document.Element) ([]StoredChunk, document.Stats, error) {
	cleaned := s.chunker.Clean(elements)
	chunks, stats := s.chunker.Chunk(cleaned)

	texts := make([]string, len(chunks))
	for i, ch := range chunks {
		texts[i] = ch.Text
	}
	vectors, err := s.embedder.Encode(ctx, texts)
	if err != nil {
		return nil, document.Stats{}, fmt.Errorf("failed to embed chunks: %w", err)
	}

	stored := make([]StoredChunk, len(chunks))
	for i, ch := range chunks {
		stored[i] = StoredChunk{
			Ord:       ch.Index,
			Heading:   strings.Join(ch.SectionPath, " > "),
			Text:      ch.Text,
			Embedding: vectors[i],
		}
	}
	return stored, stats, nil
}

func joinElements(elements []document.Element) string {
	texts := make([]string, 0, len(elements))
	for _, e := range elements {
		if e.Text != "" {
			texts = append(texts, e.Text)
		}
	}
	return strings.Join(texts, "\n")
}
