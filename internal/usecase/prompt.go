package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultMaxPromptChars bounds the payload sent to the sentiment service.
const DefaultMaxPromptChars = 12000

const instructionTemplate = "Based on all of the following posts, recommend an action for %s (buy/sell/hold) and briefly explain why:\n"

// PromptBuilder assembles the sentiment payload from novel texts.
type PromptBuilder struct {
	Symbols []string
	// IncludeInstructions prefixes the payload with the instruction template.
	// Lexicon scorers read raw text only and leave it off.
	IncludeInstructions bool
	MaxChars            int
}

// Build joins texts with "\n" after the optional instruction header. Texts
// are kept whole while the payload fits MaxChars characters; the first text
// that does not fit ends the payload. It returns "" when texts is empty.
func (b PromptBuilder) Build(texts []string) string {
	if len(texts) == 0 {
		return ""
	}

	limit := b.MaxChars
	if limit <= 0 {
		limit = DefaultMaxPromptChars
	}

	var sb strings.Builder
	used := 0
	if b.IncludeInstructions {
		header := fmt.Sprintf(instructionTemplate, strings.Join(b.Symbols, ", "))
		sb.WriteString(header)
		used = utf8.RuneCountInString(header)
	}

	written := 0
	for _, text := range texts {
		size := utf8.RuneCountInString(text)
		if written > 0 {
			size++
		}
		if used+size > limit {
			if written == 0 {
				// an oversized first text is cut instead of dropped
				sb.WriteString(truncateRunes(text, limit-used))
			}
			break
		}
		if written > 0 {
			sb.WriteByte('\n')
		}
		sb.WriteString(text)
		used += size
		written++
	}
	return sb.String()
}

func truncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
