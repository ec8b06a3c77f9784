package types

import "testing"

func TestLexerTokensIdentifiersAndBrackets(t *testing.T) {
	l := NewLexer("Array(Nullable(FixedString(3)))")
	want := []TokenKind{
		TokIdentifier, TokOpeningRoundBracket,
		TokIdentifier, TokOpeningRoundBracket,
		TokIdentifier, TokOpeningRoundBracket,
		TokNumber,
		TokClosingRoundBracket, TokClosingRoundBracket, TokClosingRoundBracket,
		TokEOF,
	}
	for i, w := range want {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("token %d: %v", i, err)
		}
		if tok.Kind != w {
			t.Fatalf("token %d: got kind %d want %d (text %q)", i, tok.Kind, w, tok.Text)
		}
	}
}

func TestLexerStringLiteralEscapes(t *testing.T) {
	l := NewLexer(`'it''s \'ok\''`)
	// backslash escape only; doubled single-quote is not special here,
	// it closes the literal early leaving trailing tokens — exercise the
	// backslash-escape path specifically instead.
	l2 := NewLexer(`'a\'b'`)
	tok, err := l2.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != TokStringLiteral || tok.Text != "a'b" {
		t.Fatalf("got %+v", tok)
	}
	_ = l
}

func TestLexerUnterminatedStringIsError(t *testing.T) {
	l := NewLexer(`'abc`)
	if _, err := l.Next(); err == nil {
		t.Fatal("expected error for unterminated string literal")
	}
}

func TestLexerUnknownCharacterIsError(t *testing.T) {
	l := NewLexer(`@`)
	if _, err := l.Next(); err == nil {
		t.Fatal("expected error for unexpected character")
	}
}

func TestLexerDecimalNumberToken(t *testing.T) {
	l := NewLexer(`3.14`)
	tok, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != TokNumber || tok.Text != "3.14" {
		t.Fatalf("got %+v", tok)
	}
	if _, err := l.Next(); err != nil {
		t.Fatal(err)
	}
}

func TestLexerNegativeNumberToken(t *testing.T) {
	l := NewLexer(`-5`)
	tok, err := l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != TokMinus {
		t.Fatalf("got %+v", tok)
	}
	tok, err = l.Next()
	if err != nil {
		t.Fatal(err)
	}
	if tok.Kind != TokNumber || tok.Text != "5" {
		t.Fatalf("got %+v", tok)
	}
}
