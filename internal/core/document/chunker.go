package document

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	defaultTargetChars  = 1200
	defaultMaxChars     = 2000
	defaultOverlapChars = 200
	defaultWordsPerPage = 300

	// この頻度以上かつこの長さ以下の行はヘッダ/フッタとみなして除去する
	boilerplateMinCount = 6
	boilerplateMaxLen   = 80

	// 推定ページ数がこの値未満の文書は分割しない
	minPagesForSplit = 4
)

var (
	spaceRe     = regexp.MustCompile(`[ \t]+`)
	blankRunsRe = regexp.MustCompile(`\n{3,}`)
	wordRe      = regexp.MustCompile(`[\p{L}\p{N}_]+`)
)

// Chunker は見出し構造を保ったまま文書を固定サイズ帯のチャンクへ分割します。
// サイズはすべて文字数（rune数）で数えます
type Chunker struct {
	targetChars  int
	maxChars     int
	overlapChars int
	wordsPerPage int
}

// ChunkerOption はChunkerの設定オプションです
type ChunkerOption func(*Chunker)

// WithTargetChars はチャンクの目標文字数を設定します
func WithTargetChars(n int) ChunkerOption {
	return func(c *Chunker) { c.targetChars = n }
}

// WithMaxChars はチャンクの最大文字数を設定します
func WithMaxChars(n int) ChunkerOption {
	return func(c *Chunker) { c.maxChars = n }
}

// WithOverlapChars は隣接チャンク間の重複文字数を設定します
func WithOverlapChars(n int) ChunkerOption {
	return func(c *Chunker) { c.overlapChars = n }
}

// WithWordsPerPage はページ数推定に使う1ページあたりの語数を設定します
func WithWordsPerPage(n int) ChunkerOption {
	return func(c *Chunker) { c.wordsPerPage = n }
}

// NewChunker は新しいChunkerを作成します
func NewChunker(opts ...ChunkerOption) *Chunker {
	c := &Chunker{
		targetChars:  defaultTargetChars,
		maxChars:     defaultMaxChars,
		overlapChars: defaultOverlapChars,
		wordsPerPage: defaultWordsPerPage,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean は空白を正規化し、ノイズ行と繰り返しのヘッダ/フッタを除去します
func (c *Chunker) Clean(elements []Element) []Element {
	cleaned := make([]Element, 0, len(elements))
	for _, e := range elements {
		t := strings.TrimSpace(spaceRe.ReplaceAllString(e.Text, " "))
		t = blankRunsRe.ReplaceAllString(t, "\n\n")
		if t == "" {
			continue
		}
		// 1〜2文字だけの段落はアーティファクトの可能性が高いので落とす（見出しは残す）
		if e.Type != ElementHeading && utf8.RuneCountInString(t) <= 2 && !wordRe.MatchString(t) {
			continue
		}
		e.Text = t
		cleaned = append(cleaned, e)
	}

	// 高頻度の短い行はページヘッダ/フッタとみなす
	freq := make(map[string]int)
	for _, e := range cleaned {
		for _, line := range strings.Split(e.Text, "\n") {
			if s := strings.TrimSpace(line); s != "" {
				freq[s]++
			}
		}
	}
	isBoiler := func(line string) bool {
		return freq[line] >= boilerplateMinCount && utf8.RuneCountInString(line) <= boilerplateMaxLen
	}

	result := make([]Element, 0, len(cleaned))
	for _, e := range cleaned {
		var kept []string
		for _, line := range strings.Split(e.Text, "\n") {
			if !isBoiler(strings.TrimSpace(line)) {
				kept = append(kept, line)
			}
		}
		if len(kept) == 0 {
			continue
		}
		e.Text = strings.TrimSpace(strings.Join(kept, "\n"))
		if e.Text != "" {
			result = append(result, e)
		}
	}
	return result
}

// EstimatePages は語数から文書のページ数を概算します（最低1）
func (c *Chunker) EstimatePages(elements []Element) int {
	words := 0
	for _, e := range elements {
		words += len(wordRe.FindAllString(e.Text, -1))
	}
	pages := int(math.Ceil(float64(words) / float64(c.wordsPerPage)))
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Chunk は前処理済み要素列をチャンクへ分割します。
// 推定ページ数が閾値未満の短い文書は分割せず全文を1チャンクで返します
func (c *Chunker) Chunk(elements []Element) ([]Chunk, Stats) {
	if len(elements) == 0 {
		return nil, Stats{}
	}

	pages := c.EstimatePages(elements)

	if pages < minPagesForSplit {
		texts := make([]string, 0, len(elements))
		for _, e := range elements {
			texts = append(texts, e.Text)
		}
		full := strings.Join(texts, "\n\n")
		chunks := []Chunk{{
			Index:         0,
			Text:          full,
			TokenEstimate: len(strings.Fields(full)),
			NoChunking:    true,
		}}
		return chunks, c.stats(chunks, pages)
	}

	var (
		chunks      []Chunk
		sectionPath []string
		buff        string
	)

	emit := func(force bool) {
		if buff == "" {
			return
		}
		if utf8.RuneCountInString(buff) < c.targetChars && !force {
			return
		}
		text := strings.TrimSpace(buff)
		path := make([]string, len(sectionPath))
		copy(path, sectionPath)
		chunks = append(chunks, Chunk{
			Index:         len(chunks),
			SectionPath:   path,
			Text:          text,
			TokenEstimate: len(strings.Fields(text)),
		})
		// 末尾を残して次チャンクとの重複を作る
		runes := []rune(text)
		if len(runes) > c.overlapChars {
			runes = runes[len(runes)-c.overlapChars:]
		}
		buff = string(runes) + "\n"
	}

	for _, e := range elements {
		var piece string
		if e.Type == ElementHeading {
			// 新しいセクションの開始。バッファが十分溜まっていれば先に確定させる
			if utf8.RuneCountInString(buff) >= c.targetChars/2 {
				emit(true)
			}
			level := e.Level
			if level < 1 {
				level = 1
			}
			if level <= len(sectionPath) {
				sectionPath = sectionPath[:level-1]
			}
			sectionPath = append(sectionPath, e.Text)
			// 見出し行自体もチャンク本文に含めて文脈を固定する
			piece = "\n# " + e.Text + "\n"
		} else {
			piece = e.Text + "\n"
		}

		if utf8.RuneCountInString(buff)+utf8.RuneCountInString(piece) > c.maxChars {
			emit(true)
		}
		buff += piece
		if utf8.RuneCountInString(buff) >= c.targetChars {
			emit(false)
		}
	}

	emit(true)
	return chunks, c.stats(chunks, pages)
}

func (c *Chunker) stats(chunks []Chunk, pages int) Stats {
	total := 0
	for _, ch := range chunks {
		total += utf8.RuneCountInString(ch.Text)
	}
	avg := 0
	if len(chunks) > 0 {
		avg = total / len(chunks)
	}
	return Stats{
		TotalChunks:    len(chunks),
		AvgChunkChars:  avg,
		EstimatedPages: pages,
	}
}
