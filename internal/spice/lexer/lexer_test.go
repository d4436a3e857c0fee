// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lexer

import (
	"testing"

	"github.com/aleutian-labs/spicetrace/internal/spice/token"
)

func kinds(t *testing.T, src string) []token.Kind {
	t.Helper()
	l := New([]byte(src), "test.cir")
	var got []token.Kind
	for {
		tok := l.Next()
		got = append(got, tok.Kind)
		if tok.Kind == token.EOF {
			return got
		}
	}
}

func TestLexer_DotDirectiveAndIdent(t *testing.T) {
	got := kinds(t, ".model nmos1 nmos\n")
	want := []token.Kind{token.Dot, token.Ident, token.Ident, token.Newline, token.EOF}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds[%d] = %v, want %v (full: %v)", i, got[i], want[i], got)
		}
	}
}

func TestLexer_SISuffixesCaseInsensitive(t *testing.T) {
	cases := []struct {
		src    string
		suffix string
	}{
		{"1MEG", "meg"},
		{"1Meg", "meg"},
		{"1p", "p"},
		{"1N", "n"},
		{"2.5u", "u"},
		{"3k", "k"},
		{"4G", "g"},
		{"5t", "t"},
	}
	for _, c := range cases {
		l := New([]byte(c.src), "t.cir")
		tok := l.Next()
		if tok.Kind != token.Number {
			t.Fatalf("%q: kind = %v, want Number", c.src, tok.Kind)
		}
		if tok.Suffix != c.suffix {
			t.Fatalf("%q: suffix = %q, want %q", c.src, tok.Suffix, c.suffix)
		}
	}
}

func TestLexer_MegDoesNotShadowSingleM(t *testing.T) {
	// "m" alone is a valid (milli) suffix and must not require the "eg" tail.
	l := New([]byte("1m"), "t.cir")
	tok := l.Next()
	if tok.Kind != token.Number || tok.Suffix != "m" {
		t.Fatalf("got kind=%v suffix=%q, want Number/\"m\"", tok.Kind, tok.Suffix)
	}
}

func TestLexer_SignedValueBeforeDigitIsNumber(t *testing.T) {
	l := New([]byte("-0.7"), "t.cir")
	tok := l.Next()
	if tok.Kind != token.Number {
		t.Fatalf("kind = %v, want Number", tok.Kind)
	}
	if tok.Lexeme != "-0.7" {
		t.Fatalf("lexeme = %q, want -0.7", tok.Lexeme)
	}
}

func TestLexer_BareOperatorIsNotNumber(t *testing.T) {
	l := New([]byte("a+b"), "t.cir")
	var got []token.Kind
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		got = append(got, tok.Kind)
	}
	want := []token.Kind{token.Ident, token.Operator, token.Ident}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexer_ParenthesizedExpressionTokens(t *testing.T) {
	got := kinds(t, "w=(l*2)\n")
	want := []token.Kind{
		token.Ident, token.Equals, token.LParen, token.Ident, token.Operator,
		token.Number, token.RParen, token.Newline, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("kinds = %v, want %v", got, want)
	}
}

func TestLexer_TracksLineNumbers(t *testing.T) {
	l := New([]byte("a\nb\nc\n"), "t.cir")
	var lines []int
	for {
		tok := l.Next()
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.Ident {
			lines = append(lines, tok.Line)
		}
	}
	want := []int{1, 2, 3}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("lines[%d] = %d, want %d", i, lines[i], want[i])
		}
	}
}
