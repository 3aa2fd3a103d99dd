package embedding

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// TFIDFEncoder は外部の埋め込みバックエンドが使えない場合の
// フォールバックとして動作する簡易TF-IDFベクトライザです。
// 最初のEncode呼び出しで渡されたテキスト群を語彙構築用コーパスとして
// 1度だけ学習し、以降は同じ語彙でベクトル化します
type TFIDFEncoder struct {
	maxFeatures  int
	tokenPattern *regexp.Regexp

	fitOnce    sync.Once
	fitErr     error
	vocabulary map[string]int
	idf        []float64
}

// NewTFIDFEncoder は指定次元までの語彙を持つTF-IDFエンコーダを作成します
func NewTFIDFEncoder(maxFeatures int) *TFIDFEncoder {
	return &TFIDFEncoder{
		maxFeatures:  maxFeatures,
		tokenPattern: regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`),
	}
}

// Name はエンコーダの識別子を返します
func (e *TFIDFEncoder) Name() string { return "tfidf" }

// Dimension は出力ベクトルの次元を返します
func (e *TFIDFEncoder) Dimension() int { return e.maxFeatures }

// Encode はテキスト列をTF-IDFベクトルに変換します。
// 未学習の場合は入力を語彙構築用コーパスとして学習します
func (e *TFIDFEncoder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("no texts provided")
	}

	e.fitOnce.Do(func() {
		e.fitErr = e.fit(texts)
	})
	if e.fitErr != nil {
		return nil, fmt.Errorf("tfidf fit failed: %w", e.fitErr)
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.embed(text)
	}
	return out, nil
}

func (e *TFIDFEncoder) fit(corpus []string) error {
	df := make(map[string]int)
	total := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			total[tok]++
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return fmt.Errorf("no tokens found in corpus")
	}

	// 出現頻度の高い順に語彙を最大次元数まで採用する
	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > e.maxFeatures {
		terms = terms[:e.maxFeatures]
	}
	sort.Strings(terms)

	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	n := float64(len(corpus))
	for i, term := range terms {
		e.vocabulary[term] = i
		// 平滑化IDF
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return nil
}

func (e *TFIDFEncoder) embed(text string) []float32 {
	vec := make([]float64, e.maxFeatures)
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	out := make([]float32, e.maxFeatures)
	if total == 0 {
		return out
	}
	for idx, count := range tf {
		vec[idx] = float64(count) / float64(total) * e.idf[idx]
	}
	norm := 0.0
	for _, v := range vec {
		norm += v * v
	}
	norm = math.Sqrt(norm)
	for i, v := range vec {
		if norm > 0 {
			out[i] = float32(v / norm)
		}
	}
	return out
}

func (e *TFIDFEncoder) tokenize(text string) []string {
	return e.tokenPattern.FindAllString(strings.ToLower(text), -1)
}

var _ Encoder = (*TFIDFEncoder)(nil)
