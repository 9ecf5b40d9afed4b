package parser

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expectedQ     string
		expectedA     string
		expectedC     string
	}{
		{
			name:          "single card",
			input:         "Q: What is the capital of France?\nA: Paris",
			expectedCards: 1,
			expectedQ:     "What is the capital of France?",
			expectedA:     "Paris",
		},
		{
			name:          "card with context",
			input:         "Q: Define stability\nA: Expected interval at 90% recall\nC: scheduling",
			expectedCards: 1,
			expectedQ:     "Define stability",
			expectedA:     "Expected interval at 90% recall",
			expectedC:     "scheduling",
		},
		{
			name:          "separator splits cards",
			input:         "Q: one\nA: 1\n---\nQ: two\nA: 2",
			expectedCards: 2,
			expectedQ:     "one",
			expectedA:     "1",
		},
		{
			name:          "new question starts a new card without separator",
			input:         "Q: one\nA: 1\nQ: two\nA: 2",
			expectedCards: 2,
			expectedQ:     "one",
			expectedA:     "1",
		},
		{
			name:          "multiline answer",
			input:         "Q: list two primes\nA: 2\n3",
			expectedCards: 1,
			expectedQ:     "list two primes",
			expectedA:     "2\n3",
		},
		{
			name:          "block without question is skipped",
			input:         "A: orphan answer\n---\nQ: kept\nA: yes",
			expectedCards: 1,
			expectedQ:     "kept",
			expectedA:     "yes",
		},
		{
			name:          "empty input",
			input:         "",
			expectedCards: 0,
		},
		{
			name:          "separators only",
			input:         "---\n---\n",
			expectedCards: 0,
		},
		{
			name:          "prefix without space",
			input:         "Q:compact\nA:also compact",
			expectedCards: 1,
			expectedQ:     "compact",
			expectedA:     "also compact",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if len(cards) != tc.expectedCards {
				t.Fatalf("Expected %d cards, but got %d", tc.expectedCards, len(cards))
			}
			if tc.expectedCards == 0 {
				return
			}
			if cards[0].Question != tc.expectedQ {
				t.Errorf("Expected question %q, but got %q", tc.expectedQ, cards[0].Question)
			}
			if cards[0].Answer != tc.expectedA {
				t.Errorf("Expected answer %q, but got %q", tc.expectedA, cards[0].Answer)
			}
			if cards[0].Context != tc.expectedC {
				t.Errorf("Expected context %q, but got %q", tc.expectedC, cards[0].Context)
			}
		})
	}
}

func TestParseSecondCard(t *testing.T) {
	cards, err := Parse(strings.NewReader("Q: one\nA: 1\n---\nQ: two\nA: 2\nC: numbers"))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, but got %d", len(cards))
	}
	second := cards[1]
	if second.Question != "two" || second.Answer != "2" || second.Context != "numbers" {
		t.Errorf("Unexpected second card: %+v", second)
	}
}
