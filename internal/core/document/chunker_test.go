package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunker_ShortDocumentSingleChunk(t *testing.T) {
	c := NewChunker()
	elements := []Element{
		{Type: ElementHeading, Level: 1, Text: "ДОГОВОР ПОСТАВКИ"},
		{Type: ElementParagraph, Text: "Стороны заключили настоящий договор о нижеследующем."},
		{Type: ElementParagraph, Text: "Поставщик обязуется передать товар покупателю."},
	}

	chunks, stats := c.Chunk(elements)

	require.Len(t, chunks, 1)
	assert.True(t, chunks[0].NoChunking)
	assert.Empty(t, chunks[0].SectionPath)
	assert.Contains(t, chunks[0].Text, "ДОГОВОР ПОСТАВКИ")
	assert.Contains(t, chunks[0].Text, "передать товар")
	assert.Equal(t, 1, stats.TotalChunks)
	assert.Equal(t, 1, stats.EstimatedPages)
}

func TestChunker_EmptyInput(t *testing.T) {
	c := NewChunker()

	chunks, stats := c.Chunk(nil)

	assert.Empty(t, chunks)
	assert.Equal(t, Stats{}, stats)
}

func TestChunker_Clean_NormalizesWhitespaceAndDropsNoise(t *testing.T) {
	c := NewChunker()
	elements := []Element{
		{Type: ElementParagraph, Text: "  текст   с \t лишними   пробелами  "},
		{Type: ElementParagraph, Text: "   "},
		{Type: ElementParagraph, Text: "--"},
		{Type: ElementHeading, Level: 1, Text: "1."},
	}

	cleaned := c.Clean(elements)

	require.Len(t, cleaned, 2)
	assert.Equal(t, "текст с лишними пробелами", cleaned[0].Text)
	// 見出しは短くても残す
	assert.Equal(t, ElementHeading, cleaned[1].Type)
}

func TestChunker_Clean_RemovesBoilerplate(t *testing.T) {
	c := NewChunker()
	var elements []Element
	for i := 0; i < 6; i++ {
		elements = append(elements, Element{
			Type: ElementParagraph,
			Text: "ООО «Ромашка» стр. 1\nсодержательный абзац номер " + strings.Repeat("х", i+1),
		})
	}

	cleaned := c.Clean(elements)

	require.Len(t, cleaned, 6)
	for _, e := range cleaned {
		assert.NotContains(t, e.Text, "ООО «Ромашка» стр. 1")
		assert.Contains(t, e.Text, "содержательный абзац")
	}
}

func TestChunker_SectionPathFollowsHeadingLevels(t *testing.T) {
	c := NewChunker(
		WithWordsPerPage(1),
		WithTargetChars(10),
		WithMaxChars(1000),
		WithOverlapChars(2),
	)
	elements := []Element{
		{Type: ElementHeading, Level: 1, Text: "A"},
		{Type: ElementParagraph, Text: "aaaaaaaaaaaa"},
		{Type: ElementHeading, Level: 2, Text: "B"},
		{Type: ElementParagraph, Text: "bbbbbbbbbb"},
		{Type: ElementHeading, Level: 1, Text: "C"},
		{Type: ElementParagraph, Text: "cccccccccc"},
	}

	chunks, _ := c.Chunk(elements)

	require.Len(t, chunks, 4)
	assert.Equal(t, []string{"A"}, chunks[0].SectionPath)
	assert.Equal(t, []string{"A", "B"}, chunks[1].SectionPath)
	// レベル1の見出しで階層がリセットされる
	assert.Equal(t, []string{"C"}, chunks[2].SectionPath)
	assert.Equal(t, []string{"C"}, chunks[3].SectionPath)

	assert.Contains(t, chunks[0].Text, "# A")
	assert.Contains(t, chunks[1].Text, "# B")
	assert.Contains(t, chunks[2].Text, "# C")
	for i, ch := range chunks {
		assert.Equal(t, i, ch.Index)
		assert.False(t, ch.NoChunking)
	}
}

func TestChunker_MaxCharsForcesFlush(t *testing.T) {
	c := NewChunker(
		WithWordsPerPage(1),
		WithTargetChars(1000),
		WithMaxChars(20),
		WithOverlapChars(0),
	)
	// wordsPerPage=1 なので語数を4以上にして分割パスへ入れる
	elements := []Element{
		{Type: ElementParagraph, Text: "аааа бббб вввв"},
		{Type: ElementParagraph, Text: "гггг дддд ееее"},
	}

	chunks, _ := c.Chunk(elements)

	require.Len(t, chunks, 2)
	assert.Contains(t, chunks[0].Text, "аааа")
	assert.Contains(t, chunks[1].Text, "гггг")
	assert.NotContains(t, chunks[0].Text, "гггг")
}

func TestChunker_OverlapCarriesTail(t *testing.T) {
	c := NewChunker(
		WithWordsPerPage(1),
		WithTargetChars(10),
		WithMaxChars(1000),
		WithOverlapChars(4),
	)
	// wordsPerPage=1 なので語数を4以上にして分割パスへ入れる
	elements := []Element{
		{Type: ElementParagraph, Text: "0123456789ab"},
		{Type: ElementParagraph, Text: "next one two three"},
	}

	chunks, _ := c.Chunk(elements)

	require.GreaterOrEqual(t, len(chunks), 2)
	// 前チャンクの末尾4文字が次チャンクの先頭に重複する
	assert.True(t, strings.HasPrefix(chunks[1].Text, "89ab"))
}

func TestChunker_EstimatePages(t *testing.T) {
	c := NewChunker()
	elements := []Element{
		{Type: ElementParagraph, Text: strings.Repeat("слово ", 450)},
	}

	assert.Equal(t, 2, c.EstimatePages(elements))
	assert.Equal(t, 1, c.EstimatePages(nil))
}
