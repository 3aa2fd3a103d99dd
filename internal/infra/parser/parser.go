package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/cemdocs/doc-classify/internal/core/document"
)

// 見出し判定のヒューリスティック: 短い行のうち、全て大文字、番号付き、
// または章・条のキーワードで始まるものを見出しとして扱う
const headingMaxChars = 100

var numberedHeadingRe = regexp.MustCompile(`^\d+\.?\s+[А-ЯЁA-Z]`)

var headingKeywords = []string{"ГЛАВА", "РАЗДЕЛ", "СТАТЬЯ", "ПУНКТ"}

// ReadFile はファイルをテキストとして読み込みます。
// 現在サポートする形式は .txt のみです。UTF-8で読めない場合は
// Windows-1251として再デコードします
func ReadFile(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".txt" {
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	text := string(raw)
	if !utf8.ValidString(text) {
		decoded, err := charmap.Windows1251.NewDecoder().Bytes(raw)
		if err != nil {
			return "", fmt.Errorf("failed to decode file as windows-1251: %w", err)
		}
		text = string(decoded)
	}
	return text, nil
}

// ParseFile はファイルを文書要素列に変換します
func ParseFile(path string) ([]document.Element, error) {
	text, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseText(text), nil
}

// ParseText はテキストを空行区切りの段落に分割し、見出しを昇格させます
func ParseText(text string) []document.Element {
	var elements []document.Element
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if isHeading(para) {
			elements = append(elements, document.Element{
				Type:  document.ElementHeading,
				Level: 1,
				Text:  para,
			})
			continue
		}
		elements = append(elements, document.Element{
			Type: document.ElementParagraph,
			Text: para,
		})
	}
	return elements
}

func isHeading(text string) bool {
	if utf8.RuneCountInString(text) >= headingMaxChars {
		return false
	}
	if isAllUpper(text) || numberedHeadingRe.MatchString(text) {
		return true
	}
	upper := strings.ToUpper(text)
	for _, kw := range headingKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

// isAllUpper はテキストに小文字が1つも含まれないかを判定します。
// 文字を1つも含まないテキストはfalse
func isAllUpper(text string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return hasLetter
}
