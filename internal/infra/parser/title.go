package parser

import (
	"regexp"
	"strings"
)

var (
	spacedContractRe = regexp.MustCompile(`[Дд]\s+[Оо]\s+[Гг]\s+[Оо]\s+[Вв]\s+[Оо]\s+[Рр]`)
	contractNumberRe = regexp.MustCompile(`\s*№\s*[\p{L}\p{N}_\s\-/.]+`)
	numberOrDateRe   = regexp.MustCompile(`\s+(?:от\s+\d{2}\.\d{2}\.\d{4}|№\s+[\p{L}\p{N}_\s\-/.]+)`)
	dateRe           = regexp.MustCompile(`^\d{2}\.\d{2}\.\d{4}`)
	multiSpaceRe     = regexp.MustCompile(`\s+`)
)

// ExtractTitle はテキストの冒頭から文書の名称を抽出します。
// 「ДОГОВОР …」で始まる契約書は番号部分を除いた表題（必要なら次の行まで）を、
// それ以外の文書は最初の非空行を番号・日付の手前まで切り出して返します。
// 抽出できなければ空文字列
func ExtractTitle(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			lines = append(lines, s)
		}
	}
	if len(lines) == 0 {
		return ""
	}

	for i, line := range lines {
		lower := strings.ToLower(line)
		if !strings.HasPrefix(lower, "договор") && !strings.HasPrefix(lower, "д о г о в о р") {
			continue
		}

		// 「Д О Г О В О Р」のような分かち書きを正規化する
		cleaned := spacedContractRe.ReplaceAllString(line, "ДОГОВОР")

		title := cleaned
		if loc := contractNumberRe.FindStringIndex(cleaned); loc != nil {
			title = strings.TrimSpace(cleaned[:loc[0]])
		}

		// 表題が次の行に続く場合がある（場所や日付の行は除外）
		if i+1 < len(lines) {
			next := lines[i+1]
			nextLower := strings.ToLower(next)
			if !strings.HasPrefix(nextLower, "г.") && !strings.HasPrefix(nextLower, "от ") && nextLower != "от" {
				title += " " + next
			}
		}
		return strings.TrimSpace(multiSpaceRe.ReplaceAllString(title, " "))
	}

	// 「ДОГОВОР」で始まらない文書は最初の行を番号・日付の手前で切る
	first := lines[0]
	if loc := numberOrDateRe.FindStringIndex(strings.ToLower(first)); loc != nil {
		return strings.TrimSpace(first[:loc[0]])
	}

	words := strings.Fields(first)
	var titleWords []string
	for k, word := range words {
		lower := strings.ToLower(word)
		if lower == "№" || lower == "от" {
			break
		}
		if k > 0 {
			prev := strings.ToLower(words[k-1])
			if isDigits(word) && (prev == "№" || prev == "от") {
				break
			}
			if dateRe.MatchString(word) && prev == "от" {
				break
			}
		}
		titleWords = append(titleWords, word)
	}
	return strings.TrimSpace(strings.Join(titleWords, " "))
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
