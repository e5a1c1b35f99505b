package textsplit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, Split("", 100, 10))
}

func TestSplitShortText(t *testing.T) {
	chunks := Split("hello world", 100, 10)
	require.Len(t, chunks, 1)
	assert.Equal(t, "hello world", chunks[0])
}

func TestSplitChunkBounds(t *testing.T) {
	text := strings.Repeat("a", 2500)
	chunks := Split(text, 1000, 150)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 1000)
	}
}

func TestSplitOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 50)
	chunks := Split(text, 100, 20)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		tail := string(prev[len(prev)-20:])
		assert.True(t, strings.HasPrefix(chunks[i], tail), "chunk %d should start with previous tail", i)
	}
}

func TestSplitCoversAllText(t *testing.T) {
	text := strings.Repeat("x", 3333)
	chunks := Split(text, 500, 50)

	var covered int
	for i, c := range chunks {
		if i == 0 {
			covered = len([]rune(c))
			continue
		}
		covered += len([]rune(c)) - 50
	}
	assert.GreaterOrEqual(t, covered, len([]rune(text)))
}

func TestSplitOverlapClamped(t *testing.T) {
	// overlap >= size must not loop forever
	chunks := Split(strings.Repeat("y", 300), 100, 100)
	assert.NotEmpty(t, chunks)
	assert.Less(t, len(chunks), 50)
}

func TestSplitMultibyte(t *testing.T) {
	text := strings.Repeat("日本語のテキスト", 40)
	chunks := Split(text, 50, 10)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), 50)
	}
	assert.Equal(t, text[:len(chunks[0])], chunks[0])
}
