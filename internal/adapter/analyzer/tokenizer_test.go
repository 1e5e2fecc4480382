package analyzer

import (
	"testing"
)

func TestTokenizer_Tokenize_WithStopwords(t *testing.T) {
	tok := NewTokenizer(true)

	tokens := tok.Tokenize("What color is the sky?")
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0] != "color" || tokens[1] != "sky" {
		t.Errorf("expected [color sky], got %v", tokens)
	}
}

func TestTokenizer_Tokenize_KeepStopwords(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("The sky is blue.")
	if len(tokens) != 4 {
		t.Errorf("expected 4 tokens, got %d: %v", len(tokens), tokens)
	}
}

func TestTokenizer_Lowercases(t *testing.T) {
	tok := NewTokenizer(true)

	tokens := tok.Tokenize("Paris FRANCE")
	if len(tokens) != 2 || tokens[0] != "paris" || tokens[1] != "france" {
		t.Errorf("expected lower-cased tokens, got %v", tokens)
	}
}

func TestTokenizer_ShortWordRemoval(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("a I go to")
	for _, token := range tokens {
		if len(token) < 2 {
			t.Errorf("short token %q should be removed, got %v", token, tokens)
		}
	}
}

func TestTokenizer_Unicode(t *testing.T) {
	tok := NewTokenizer(false)

	tokens := tok.Tokenize("Überall grüne Wiesen")
	if len(tokens) != 3 {
		t.Errorf("expected 3 tokens, got %d: %v", len(tokens), tokens)
	}
	if tokens[0] != "überall" {
		t.Errorf("expected unicode lower-casing, got %q", tokens[0])
	}
}

func TestTokenizer_CountTokens(t *testing.T) {
	tok := NewTokenizer(false)

	if n := tok.CountTokens(""); n != 0 {
		t.Errorf("expected 0 tokens for empty text, got %d", n)
	}
	if n := tok.CountTokens("one two three four five six seven eight nine ten"); n != 13 {
		t.Errorf("expected 13 tokens, got %d", n)
	}
}
