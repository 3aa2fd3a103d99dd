package classify

import (
	"github.com/google/uuid"
	"github.com/samber/mo"
)

// Weights は文書本文と表題の類似度を合成する際の重みです
type Weights struct {
	Document float64
	Title    float64
}

// DefaultWeights は既定の合成重みを返します
func DefaultWeights() Weights {
	return Weights{Document: 0.7, Title: 0.3}
}

// Combine は本文類似度と表題類似度（存在する場合）を重み付き平均で合成します。
// 表題類似度が無い場合や重みの合計が正でない場合は本文類似度をそのまま返します
func (w Weights) Combine(doc float64, title mo.Option[float64]) float64 {
	t, ok := title.Get()
	if !ok {
		return doc
	}
	sum := w.Document + w.Title
	if sum <= 0 {
		return doc
	}
	return (w.Document*doc + w.Title*t) / sum
}

// Match はテンプレート検索の最良一致です
type Match struct {
	TemplateID      uuid.UUID
	TemplateName    string
	DocSimilarity   float64
	TitleSimilarity mo.Option[float64]
	Combined        float64
}

// Label は合成類似度から導かれる判定区分です
type Label string

const (
	// LabelMatch はスコア0.90以上
	LabelMatch Label = "Соответствует найденному шаблону"
	// LabelLikelyMatch はスコア0.80以上0.90未満
	LabelLikelyMatch Label = "Скорее всего соответствует предложенным шаблонам"
	// LabelLikelyNonStandard はスコア0より大きく0.80未満
	LabelLikelyNonStandard Label = "Скорее всего не соответствует ни одному шаблону (нестандартный)"
	// LabelUndetermined はスコアが無いかゼロ
	LabelUndetermined Label = "Затрудняюсь ответить"
)

// LabelForScore はスコアを判定区分に写像します
func LabelForScore(score mo.Option[float64]) Label {
	s, ok := score.Get()
	switch {
	case !ok || s == 0:
		return LabelUndetermined
	case s >= 0.9:
		return LabelMatch
	case s >= 0.8:
		return LabelLikelyMatch
	default:
		return LabelLikelyNonStandard
	}
}
