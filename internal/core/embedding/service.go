package embedding

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Service はエンコーダをラップし、保存用の固定次元への変換と
// L2正規化を適用します
type Service struct {
	encoder   Encoder
	targetDim int
	normalize bool
	batchSize int
	logger    *slog.Logger

	resizeWarn sync.Once
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithNormalize はL2正規化の有無を設定します
func WithNormalize(enabled bool) ServiceOption {
	return func(s *Service) { s.normalize = enabled }
}

// WithBatchSize は1回のバックエンド呼び出しあたりの最大テキスト数を設定します
func WithBatchSize(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// NewService は新しい Service を作成します
func NewService(encoder Encoder, targetDim int, logger *slog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		encoder:   encoder,
		targetDim: targetDim,
		normalize: true,
		batchSize: 32,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TargetDimension は保存ベクトルの次元を返します
func (s *Service) TargetDimension() int {
	return s.targetDim
}

// EncoderName は使用中のエンコーダの識別子を返します
func (s *Service) EncoderName() string {
	return s.encoder.Name()
}

// Encode はテキスト列をバッチ単位でエンコードし、固定次元へ揃えて返します
func (s *Service) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}
		vectors, err := s.encoder.Encode(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to encode batch [%d:%d]: %w", start, end, err)
		}
		if len(vectors) != end-start {
			return nil, fmt.Errorf("encoder returned %d vectors for %d texts", len(vectors), end-start)
		}
		for _, v := range vectors {
			out = append(out, s.fit(v))
		}
	}
	return out, nil
}

// EncodeOne は単一テキストをエンコードします
func (s *Service) EncodeOne(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, fmt.Errorf("no vector generated")
	}
	return vectors[0], nil
}

func (s *Service) fit(v []float32) []float32 {
	if len(v) != s.targetDim {
		s.resizeWarn.Do(func() {
			s.logger.Warn("resizing embedding vectors to target dimension",
				slog.String("encoder", s.encoder.Name()),
				slog.Int("encoder_dim", len(v)),
				slog.Int("target_dim", s.targetDim),
			)
		})
		v = Resize(v, s.targetDim)
	}
	if s.normalize {
		v = Normalize(v)
	}
	return v
}
