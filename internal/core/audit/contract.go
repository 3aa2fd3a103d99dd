package audit

import (
	"strings"
	"unicode/utf8"
)

// contract は監査対象テキストのビューです。
// 原文と小文字化した文字列のバイトオフセットは常に一致します
// （キリル文字・ASCIIの大文字小文字はUTF-8で同じバイト長のため）
type contract struct {
	raw   string
	lower string
	lines []string
}

func newContract(text string) *contract {
	return &contract{
		raw:   text,
		lower: strings.ToLower(text),
		lines: strings.Split(text, "\n"),
	}
}

func (c *contract) containsAny(subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(c.lower, s) {
			return true
		}
	}
	return false
}

// indexFrom は from 以降で sub が最初に現れるバイト位置を返します
func indexFrom(s, sub string, from int) int {
	i := strings.Index(s[from:], sub)
	if i == -1 {
		return -1
	}
	return i + from
}

// clauseEnd は idx から始まる条項の終端を返します。
// 文末のピリオドか改行のうち先に現れる方、どちらも無ければ文字列末尾
func clauseEnd(s string, idx int) int {
	end := indexFrom(s, ".", idx)
	nl := indexFrom(s, "\n", idx)
	if end == -1 || (nl != -1 && nl < end) {
		end = nl
	}
	if end == -1 {
		end = len(s)
	}
	return end
}

// sentenceBounds は idx を含む文または行の範囲を返します
func sentenceBounds(s string, idx int) (int, int) {
	sentStart := strings.LastIndex(s[:idx], ".")
	lineStart := strings.LastIndex(s[:idx], "\n")
	start := sentStart
	if lineStart > start {
		start = lineStart
	}
	if start == -1 {
		start = 0
	} else {
		start++
	}
	return start, clauseEnd(s, idx)
}

// floorRune は i をrune境界まで切り下げます。
// 文字数ベースの近似オフセットでスライスする際にUTF-8を壊さないために使います
func floorRune(s string, i int) int {
	if i <= 0 {
		return 0
	}
	if i >= len(s) {
		return len(s)
	}
	for i > 0 && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
