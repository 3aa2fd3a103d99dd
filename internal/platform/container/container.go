package container

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cemdocs/doc-classify/internal/core/audit"
	"github.com/cemdocs/doc-classify/internal/core/classify"
	"github.com/cemdocs/doc-classify/internal/core/document"
	"github.com/cemdocs/doc-classify/internal/core/embedding"
	"github.com/cemdocs/doc-classify/internal/core/indexing"
	infraopenai "github.com/cemdocs/doc-classify/internal/infra/openai"
	"github.com/cemdocs/doc-classify/internal/infra/postgres"
	"github.com/cemdocs/doc-classify/internal/platform/database"
	"github.com/cemdocs/doc-classify/pkg/config"
)

// tfidfMaxFeatures はフォールバックエンコーダの語彙サイズ。
// 保存次元より大きくしても切り詰められるだけなので次元に合わせる
const tfidfMaxFeatures = 4096

// ServiceContainer はアプリケーションの依存関係を保持します
type ServiceContainer struct {
	IndexingService *indexing.Service
	ClassifyService *classify.Service
	AuditEngine     *audit.Engine
	Embedder        *embedding.Service
	Repository      *postgres.Repository

	logger *slog.Logger
	pool   *pgxpool.Pool
}

type containerOptions struct {
	logger  *slog.Logger
	encoder embedding.Encoder
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替えます
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerEncoder はカスタムのエンコーダを注入します
func WithContainerEncoder(encoder embedding.Encoder) ContainerOption {
	return func(opts *containerOptions) {
		opts.encoder = encoder
	}
}

// NewContainer は設定からコンテナを生成します。
// スキーマの作成まで行うため、初回起動時にも追加の準備は不要です
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}
	logger := options.logger

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := postgres.EnsureSchema(ctx, pool, cfg.Embedding.TargetDimension); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	encoder := options.encoder
	if encoder == nil {
		encoder, err = newEncoder(ctx, cfg.Embedding, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to initialize embedding encoder: %w", err)
		}
	}

	embedder := embedding.NewService(
		encoder,
		cfg.Embedding.TargetDimension,
		logger,
		embedding.WithNormalize(cfg.Embedding.Normalize),
		embedding.WithBatchSize(cfg.Embedding.BatchSize),
	)

	repository := postgres.NewRepository(pool, logger)

	classifier := classify.NewService(repository, classify.Weights{
		Document: cfg.Classify.DocumentWeight,
		Title:    cfg.Classify.TitleWeight,
	}, logger)

	indexingService := indexing.NewService(
		document.NewChunker(),
		embedder,
		classifier,
		repository,
		repository,
		logger,
	)

	return &ServiceContainer{
		IndexingService: indexingService,
		ClassifyService: classifier,
		AuditEngine:     audit.NewEngine(),
		Embedder:        embedder,
		Repository:      repository,
		logger:          logger,
		pool:            pool,
	}, nil
}

// Close は保持しているリソースを解放します
func (c *ServiceContainer) Close() {
	c.pool.Close()
}

// newEncoder は設定に応じてエンコーダを選択します。
// エンドポイント未設定のときだけTF-IDFフォールバックを使い、
// 設定済みエンドポイントの疎通確認失敗は構築エラーとして返します。
// フォールバックのベクトルは別プロセスで作った索引と比較できないため、
// 設定ミスを黙ってフォールバックで覆い隠してはならない
func newEncoder(ctx context.Context, cfg config.EmbeddingConfig, logger *slog.Logger) (embedding.Encoder, error) {
	if cfg.BaseURL == "" || cfg.Model == "" {
		logger.Warn("embedding endpoint not configured, using tf-idf encoder",
			slog.String("note", "tf-idf vectors are not comparable across independently fitted instances"),
		)
		return embedding.NewTFIDFEncoder(tfidfMaxFeatures), nil
	}

	encoder, err := infraopenai.NewEncoder(ctx, cfg.APIKey,
		infraopenai.WithBaseURL(cfg.BaseURL),
		infraopenai.WithModel(cfg.Model),
		infraopenai.WithDimension(cfg.TargetDimension),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding endpoint %s is configured but unusable: %w", cfg.BaseURL, err)
	}

	logger.Info("using remote embedding endpoint",
		slog.String("model", cfg.Model),
		slog.Int("dimension", encoder.Dimension()),
	)
	return encoder, nil
}
