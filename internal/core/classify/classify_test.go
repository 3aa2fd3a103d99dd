package classify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeights_Combine(t *testing.T) {
	w := Weights{Document: 0.7, Title: 0.3}

	// 表題類似度がある場合は重み付き平均
	got := w.Combine(0.80, mo.Some(0.60))
	assert.InDelta(t, 0.74, got, 1e-9)

	// 表題類似度が無い場合は本文類似度をそのまま返す
	assert.Equal(t, 0.92, w.Combine(0.92, mo.None[float64]()))

	// 重みの合計が正でない場合も本文類似度のみ
	zero := Weights{Document: 0, Title: 0}
	assert.Equal(t, 0.85, zero.Combine(0.85, mo.Some(0.10)))

	neg := Weights{Document: -1, Title: 0.5}
	assert.Equal(t, 0.85, neg.Combine(0.85, mo.Some(0.10)))
}

func TestLabelForScore(t *testing.T) {
	tests := []struct {
		name  string
		score mo.Option[float64]
		want  Label
	}{
		{"absent", mo.None[float64](), LabelUndetermined},
		{"zero", mo.Some(0.0), LabelUndetermined},
		{"exact match boundary", mo.Some(0.90), LabelMatch},
		{"high", mo.Some(0.97), LabelMatch},
		{"likely boundary", mo.Some(0.80), LabelLikelyMatch},
		{"just below match", mo.Some(0.899), LabelLikelyMatch},
		{"low positive", mo.Some(0.41), LabelLikelyNonStandard},
		{"just above zero", mo.Some(0.001), LabelLikelyNonStandard},
		{"negative cosine", mo.Some(-0.2), LabelLikelyNonStandard},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, LabelForScore(tt.score))
		})
	}
}

type stubFinder struct {
	match   mo.Option[Match]
	err     error
	gotDoc  []float32
	gotOpts mo.Option[[]float32]
}

func (s *stubFinder) FindBestTemplate(_ context.Context, doc []float32, title mo.Option[[]float32], _ Weights) (mo.Option[Match], error) {
	s.gotDoc = doc
	s.gotOpts = title
	return s.match, s.err
}

func TestService_Classify(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	templateID := uuid.New()

	finder := &stubFinder{
		match: mo.Some(Match{
			TemplateID:      templateID,
			TemplateName:    "Договор поставки",
			DocSimilarity:   0.80,
			TitleSimilarity: mo.Some(0.60),
			Combined:        0.74,
		}),
	}
	svc := NewService(finder, DefaultWeights(), logger)

	result, err := svc.Classify(context.Background(), []float32{1, 0}, mo.Some([]float32{0, 1}))
	require.NoError(t, err)

	m, ok := result.Match.Get()
	require.True(t, ok)
	assert.Equal(t, templateID, m.TemplateID)
	assert.Equal(t, LabelLikelyNonStandard, result.Label)
	assert.Equal(t, mo.Some(0.74), result.Score())
	assert.True(t, finder.gotOpts.IsPresent())
}

func TestService_Classify_NoTemplates(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewService(&stubFinder{match: mo.None[Match]()}, DefaultWeights(), logger)

	result, err := svc.Classify(context.Background(), []float32{1, 0}, mo.None[[]float32]())
	require.NoError(t, err)

	assert.False(t, result.Match.IsPresent())
	assert.Equal(t, LabelUndetermined, result.Label)
	assert.False(t, result.Score().IsPresent())
}
