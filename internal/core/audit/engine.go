package audit

import (
	"strings"
	"time"
	"unicode/utf8"
)

// minContractLength はこの文字数未満のテキストを契約書とみなさない閾値
const minContractLength = 50

// Engine は契約書テキストを固定のチェックリストに照らして監査します。
// 終了日の判定が現在日付に依存するため、時計は注入可能にしてあります
type Engine struct {
	now func() time.Time
}

// EngineOption は Engine のオプション設定
type EngineOption func(*Engine)

// WithClock は現在時刻の取得関数を差し替えます
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine は新しい Engine を作成します
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Audit はテキストを監査し、判定区分と違反一覧を返します。
// 空または短すぎるテキストは違反なしの「判定不能」になります
func (e *Engine) Audit(text string) Report {
	if strings.TrimSpace(text) == "" || utf8.RuneCountInString(text) < minContractLength {
		return Report{Status: StatusUndetermined}
	}

	c := newContract(text)
	now := e.now()

	var findings []Finding
	for _, check := range rules {
		findings = append(findings, check(c, now)...)
	}

	status := StatusStandard
	if len(findings) > 0 {
		status = StatusNonStandard
	}
	return Report{Status: status, Findings: findings}
}
