package audit

// Status は契約書の標準性判定の結果区分です
type Status string

const (
	// StatusStandard は標準条項からの逸脱が見つからなかった状態
	StatusStandard Status = "СТАНДАРТНЫЙ"
	// StatusNonStandard は1件以上の逸脱が見つかった状態
	StatusNonStandard Status = "НЕ СТАНДАРТНЫЙ"
	// StatusUndetermined はテキストが空または短すぎて判定できない状態
	StatusUndetermined Status = "НЕ МОГУ ОПРЕДЕЛИТЬ"
)

// Finding は1件のルール違反です。
// Evidence は違反箇所の抜粋で、「条項が存在しない」タイプの違反では空になります
type Finding struct {
	Description string
	Evidence    string
}

// Report は監査の結果です
type Report struct {
	Status   Status
	Findings []Finding
}
