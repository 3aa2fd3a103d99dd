package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cemdocs/doc-classify/internal/core/document"
)

func TestParseText(t *testing.T) {
	text := `ДОГОВОР ПОСТАВКИ

Настоящий договор заключен между сторонами о нижеследующем.

1. Предмет договора

Поставщик обязуется передать товар, а покупатель принять и оплатить его.`

	elements := ParseText(text)

	require.Len(t, elements, 4)
	assert.Equal(t, document.ElementHeading, elements[0].Type)
	assert.Equal(t, 1, elements[0].Level)
	assert.Equal(t, document.ElementParagraph, elements[1].Type)
	assert.Equal(t, document.ElementHeading, elements[2].Type)
	assert.Equal(t, document.ElementParagraph, elements[3].Type)
}

func TestParseText_HeadingKeywords(t *testing.T) {
	elements := ParseText("Раздел 3. Ответственность сторон")
	require.Len(t, elements, 1)
	assert.Equal(t, document.ElementHeading, elements[0].Type)
}

func TestParseText_LongUppercaseIsNotHeading(t *testing.T) {
	// 100文字以上は見出しとして扱わない
	long := ""
	for i := 0; i < 30; i++ {
		long += "ДОГОВОР "
	}
	elements := ParseText(long)
	require.Len(t, elements, 1)
	assert.Equal(t, document.ElementParagraph, elements[0].Type)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "contract.txt")
	require.NoError(t, os.WriteFile(path, []byte("ДОГОВОР АРЕНДЫ\n\nТекст договора."), 0o644))

	elements, err := ParseFile(path)
	require.NoError(t, err)
	require.Len(t, elements, 2)
	assert.Equal(t, document.ElementHeading, elements[0].Type)
}

func TestParseFile_UnsupportedFormat(t *testing.T) {
	_, err := ParseFile("contract.docx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "contract with number",
			text: "ДОГОВОР ПОСТАВКИ № 123-45/2026\nг. Москва",
			want: "ДОГОВОР ПОСТАВКИ",
		},
		{
			name: "spaced out contract word",
			text: "Д О Г О В О Р аренды № 7\nг. Казань",
			want: "ДОГОВОР аренды",
		},
		{
			name: "title continues on next line",
			text: "ДОГОВОР\nвозмездного оказания услуг",
			want: "ДОГОВОР возмездного оказания услуг",
		},
		{
			name: "plain document cut at date",
			text: "Счет-договор от 01.02.2026 на поставку",
			want: "Счет-договор",
		},
		{
			name: "plain document cut at number sign",
			text: "Акт приемки № 55",
			want: "Акт приемки",
		},
		{
			name: "empty text",
			text: "   \n\n  ",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.text))
		})
	}
}
