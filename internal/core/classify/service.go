package classify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/samber/mo"
)

// Result は1文書の分類結果です
type Result struct {
	Match mo.Option[Match]
	Label Label
}

// Score は最良一致の合成類似度を返します。一致が無い場合は None
func (r Result) Score() mo.Option[float64] {
	m, ok := r.Match.Get()
	if !ok {
		return mo.None[float64]()
	}
	return mo.Some(m.Combined)
}

// Service は文書ベクトルと表題ベクトルからテンプレート分類を行います
type Service struct {
	finder  TemplateFinder
	weights Weights
	logger  *slog.Logger
}

// NewService は新しい Service を作成します
func NewService(finder TemplateFinder, weights Weights, logger *slog.Logger) *Service {
	return &Service{
		finder:  finder,
		weights: weights,
		logger:  logger,
	}
}

// Weights は設定されている合成重みを返します
func (s *Service) Weights() Weights {
	return s.weights
}

// Classify は最も類似したテンプレートを検索し、判定区分を付けて返します。
// 類似度の下限による足切りは行わず、常に最良一致を返します
func (s *Service) Classify(ctx context.Context, docVector []float32, titleVector mo.Option[[]float32]) (Result, error) {
	match, err := s.finder.FindBestTemplate(ctx, docVector, titleVector, s.weights)
	if err != nil {
		return Result{}, fmt.Errorf("failed to find best template: %w", err)
	}

	result := Result{Match: match}
	result.Label = LabelForScore(result.Score())

	if m, ok := match.Get(); ok {
		s.logger.Debug("best template found",
			slog.String("template_id", m.TemplateID.String()),
			slog.String("template_name", m.TemplateName),
			slog.Float64("doc_similarity", m.DocSimilarity),
			slog.Float64("combined_similarity", m.Combined),
		)
	} else {
		s.logger.Debug("no templates available for classification")
	}

	return result, nil
}
