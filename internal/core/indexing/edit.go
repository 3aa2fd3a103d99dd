package indexing

import "strings"

// headingMarker は再構築テキストでチャンク見出しを示す行頭記号
const headingMarker = "## "

// FormatChunksForEdit はチャンク列を編集用テキストに整形します。
// 見出しは「## 」で始まる行として出力し、ParseEditedDocument で元に戻せます
func FormatChunksForEdit(chunks []StoredChunk) string {
	var b strings.Builder
	for i, ch := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		if ch.Heading != "" {
			b.WriteString(headingMarker)
			b.WriteString(ch.Heading)
			b.WriteString("\n")
		}
		b.WriteString(strings.TrimSpace(ch.Text))
	}
	return b.String()
}

// ReconstructText はチャンク列をそのまま本文テキストへ連結します
func ReconstructText(chunks []StoredChunk) string {
	parts := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		text := strings.TrimSpace(ch.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
	}
	return strings.Join(parts, "\n\n")
}

// ParseEditedDocument は編集後テキストをチャンク列へ戻します。
// 「## 」行が新しいチャンクの開始で、最初の見出しより前のテキストは
// 見出し無しチャンクになります。空のチャンクは捨てます
func ParseEditedDocument(text string) []EditedChunk {
	var (
		chunks  []EditedChunk
		heading string
		body    []string
	)
	flush := func() {
		joined := strings.TrimSpace(strings.Join(body, "\n"))
		if joined != "" {
			chunks = append(chunks, EditedChunk{Heading: heading, Text: joined})
		}
		body = body[:0]
	}

	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, headingMarker) {
			flush()
			heading = strings.TrimSpace(strings.TrimPrefix(line, headingMarker))
			continue
		}
		body = append(body, line)
	}
	flush()
	return chunks
}
