// Package parser extracts flashcards from deck markdown files.
//
// A deck file is a sequence of cards separated by "---" lines. Within a
// card, "Q:", "A:", and "C:" prefixes start the question, answer, and
// optional context fields; following unprefixed lines continue the current
// field. A card without a question is skipped.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"
)

// Card is the parsed content of one flashcard, before it gets an identity
// or any scheduling state.
type Card struct {
	Question string
	Answer   string
	Context  string
}

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	contextPrefix  = "C:"
	separator      = "---"
)

// ParseFile reads a deck file and extracts all cards.
func ParseFile(path string) ([]Card, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Parse reads deck content and extracts all cards.
func Parse(r io.Reader) ([]Card, error) {
	scanner := bufio.NewScanner(r)

	var cards []Card
	var block []string

	flush := func() {
		if card, ok := parseBlock(block); ok {
			cards = append(cards, card)
		}
		block = block[:0]
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == separator {
			flush()
			continue
		}
		// A new Q: starts a new card even without a separator.
		if strings.HasPrefix(line, questionPrefix) && blockHasQuestion(block) {
			flush()
		}
		block = append(block, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return cards, nil
}

func blockHasQuestion(block []string) bool {
	for _, line := range block {
		if strings.HasPrefix(line, questionPrefix) {
			return true
		}
	}
	return false
}

// parseBlock assembles one card from the lines between separators.
func parseBlock(block []string) (Card, bool) {
	var card Card
	var field *string

	appendLine := func(dst *string, s string) {
		if *dst == "" {
			*dst = s
		} else {
			*dst += "\n" + s
		}
	}

	for _, line := range block {
		switch {
		case strings.HasPrefix(line, questionPrefix):
			field = &card.Question
			appendLine(field, trimPrefix(line, questionPrefix))
		case strings.HasPrefix(line, answerPrefix):
			field = &card.Answer
			appendLine(field, trimPrefix(line, answerPrefix))
		case strings.HasPrefix(line, contextPrefix):
			field = &card.Context
			appendLine(field, trimPrefix(line, contextPrefix))
		default:
			if field != nil {
				appendLine(field, line)
			}
		}
	}

	if card.Question == "" {
		return Card{}, false
	}
	return card, true
}

func trimPrefix(line, prefix string) string {
	s := line[len(prefix):]
	return strings.TrimPrefix(s, " ")
}
