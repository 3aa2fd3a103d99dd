package document

// ElementType は文書を構成するブロックの種別です
type ElementType string

const (
	// ElementHeading は見出しブロック
	ElementHeading ElementType = "heading"
	// ElementParagraph は本文段落ブロック
	ElementParagraph ElementType = "paragraph"
	// ElementTable は表ブロック（行を " | " 区切りで平坦化したもの）
	ElementTable ElementType = "table"
	// ElementTitle は文書表題ブロック
	ElementTitle ElementType = "title"
	// ElementList は箇条書きブロック
	ElementList ElementType = "list"
)

// Element はパーサが抽出した文書ブロックです。
// Level は見出しの階層（1〜6）で、見出し以外では0
type Element struct {
	Type  ElementType
	Level int
	Text  string
}

// Chunk は分割された文書片です
type Chunk struct {
	// Index はチャンクの通し番号（0始まり）
	Index int
	// SectionPath はチャンクが属する見出し階層
	SectionPath []string
	// Text はチャンク本文
	Text string
	// TokenEstimate は概算トークン数（空白区切りの語数）
	TokenEstimate int
	// NoChunking は短い文書を分割せず丸ごと1チャンクにした場合にtrue
	NoChunking bool
}

// Stats は分割処理の統計情報です
type Stats struct {
	TotalChunks    int
	AvgChunkChars  int
	EstimatedPages int
}
