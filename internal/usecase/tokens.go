package usecase

import (
	"log/slog"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures and trims prompt text so the writer's input stays
// inside the model context window. It uses the cl100k_base encoding; if the
// encoding cannot be loaded it falls back to a bytes/4 estimate, which is
// pessimistic enough for budgeting.
type TokenCounter struct {
	enc    *tiktoken.Tiktoken
	logger *slog.Logger
}

func NewTokenCounter(logger *slog.Logger) *TokenCounter {
	if logger == nil {
		logger = slog.Default()
	}
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		logger.Warn("tokenizer unavailable, using byte estimate", "error", err)
		enc = nil
	}
	return &TokenCounter{enc: enc, logger: logger}
}

func (t *TokenCounter) Count(text string) int {
	if t.enc == nil {
		return len(text) / 4
	}
	return len(t.enc.Encode(text, nil, nil))
}

// Truncate returns text cut down to at most limit tokens. Text already
// within the limit is returned unchanged.
func (t *TokenCounter) Truncate(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if t.enc == nil {
		max := limit * 4
		if len(text) <= max {
			return text
		}
		// Back up to a rune boundary so the cut never produces invalid UTF-8.
		for max > 0 && !utf8.RuneStart(text[max]) {
			max--
		}
		return text[:max]
	}
	tokens := t.enc.Encode(text, nil, nil)
	if len(tokens) <= limit {
		return text
	}
	return t.enc.Decode(tokens[:limit])
}
