package usecase

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTokenCounterCount(t *testing.T) {
	c := NewTokenCounter(newTestLogger())

	assert.Zero(t, c.Count(""))
	short := c.Count("hello world")
	long := c.Count(strings.Repeat("hello world ", 50))
	assert.Greater(t, short, 0)
	assert.Greater(t, long, short)
}

func TestTokenCounterTruncate(t *testing.T) {
	c := NewTokenCounter(newTestLogger())
	text := strings.Repeat("the quick brown fox jumps over the lazy dog ", 100)

	kept := c.Truncate(text, 50)
	assert.LessOrEqual(t, c.Count(kept), 50)
	assert.True(t, strings.HasPrefix(text, kept))

	assert.Equal(t, "short", c.Truncate("short", 1000), "text within the limit is unchanged")
	assert.Equal(t, "", c.Truncate(text, 0))
}

func TestTokenCounterByteFallback(t *testing.T) {
	c := &TokenCounter{logger: newTestLogger()}

	assert.Equal(t, 25, c.Count(strings.Repeat("a", 100)))
	got := c.Truncate(strings.Repeat("a", 100), 10)
	assert.Len(t, got, 40)
}

func TestTokenCounterByteFallbackRuneBoundary(t *testing.T) {
	c := &TokenCounter{logger: newTestLogger()}

	// Every rune is 3 bytes, so a 40-byte cut would land mid-rune.
	text := strings.Repeat("日本語", 40)
	got := c.Truncate(text, 10)

	assert.True(t, utf8.ValidString(got), "truncation must not split a rune")
	assert.LessOrEqual(t, len(got), 40)
	assert.True(t, strings.HasPrefix(text, got))
}
