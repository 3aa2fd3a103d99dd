package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/cemdocs/doc-classify/internal/core/embedding"
)

// Encoder はOpenAI互換の埋め込みAPIでテキストをベクトルに変換します。
// ローカルで動かすOpenAI互換サーバもBaseURLの指定で利用できます
type Encoder struct {
	client    openai.Client
	model     string
	dimension int
}

const (
	// DefaultModel はモデル未指定時のデフォルトモデル
	DefaultModel = "text-embedding-3-small"

	// maxBatchSize はOpenAI APIの1リクエストあたりの最大件数
	maxBatchSize = 100
)

type encoderOptions struct {
	baseURL   string
	model     string
	dimension int
}

// EncoderOption は Encoder のオプション設定
type EncoderOption func(*encoderOptions)

// WithBaseURL はAPIのエンドポイントを上書きします
func WithBaseURL(baseURL string) EncoderOption {
	return func(o *encoderOptions) {
		o.baseURL = baseURL
	}
}

// WithModel はモデル名を上書きします
func WithModel(model string) EncoderOption {
	return func(o *encoderOptions) {
		o.model = model
	}
}

// WithDimension はAPIへ要求するベクトル次元を指定します。
// 0の場合はモデル既定の次元をそのまま使います
func WithDimension(dimension int) EncoderOption {
	return func(o *encoderOptions) {
		o.dimension = dimension
	}
}

// NewEncoder は新しい Encoder を作成します。
// 作成時にダミーテキストを1件エンコードして疎通を確認し、
// 実際の出力次元を記録します
func NewEncoder(ctx context.Context, apiKey string, opts ...EncoderOption) (*Encoder, error) {
	options := encoderOptions{
		model: DefaultModel,
	}
	for _, opt := range opts {
		opt(&options)
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if options.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(options.baseURL))
	}

	e := &Encoder{
		client:    openai.NewClient(clientOpts...),
		model:     options.model,
		dimension: options.dimension,
	}

	probe, err := e.Encode(ctx, []string{"ping"})
	if err != nil {
		return nil, fmt.Errorf("embedding backend probe failed: %w", err)
	}
	e.dimension = len(probe[0])

	return e, nil
}

// Encode はテキスト列の埋め込みを生成します（最大100件）
func (e *Encoder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}
	if len(texts) > maxBatchSize {
		return nil, fmt.Errorf("batch size exceeds maximum of %d", maxBatchSize)
	}

	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(e.model),
	}

	if len(texts) == 1 {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfString: openai.String(texts[0]),
		}
	} else {
		params.Input = openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		}
	}

	if e.dimension > 0 {
		params.Dimensions = openai.Int(int64(e.dimension))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("backend returned %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	embeddings := make([][]float32, 0, len(resp.Data))
	for _, data := range resp.Data {
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		embeddings = append(embeddings, vector)
	}

	return embeddings, nil
}

// Name はモデル名を返します
func (e *Encoder) Name() string {
	return e.model
}

// Dimension は出力ベクトルの次元数を返します
func (e *Encoder) Dimension() int {
	return e.dimension
}

// MaxBatchSize はバッチ処理の最大サイズを返します
func (e *Encoder) MaxBatchSize() int {
	return maxBatchSize
}

// インターフェース実装の確認
var _ embedding.Encoder = (*Encoder)(nil)
