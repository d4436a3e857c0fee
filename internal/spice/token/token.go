// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package token defines the lexical token vocabulary shared by the SPICE
// lexer and parser.
package token

// Kind identifies the lexical category of a Token.
type Kind int

const (
	// Unknown is the zero value: a byte sequence the lexer could not
	// classify into any other kind. It is preserved verbatim.
	Unknown Kind = iota

	// Dot is a dot-directive lexeme, e.g. ".model", ".subckt", ".ends".
	// The lexeme includes the leading '.'.
	Dot

	// Ident is a maximal run of [A-Za-z0-9_] starting with a letter or
	// underscore.
	Ident

	// Equals is the single character '='.
	Equals

	// Number is a numeric literal, optionally signed, with an optional
	// fractional part, an optional exponent, and an optional trailing SI
	// suffix. The lexeme spans the full matched text including any
	// consumed suffix; Suffix holds the suffix text separately (empty if
	// none was present).
	Number

	// Operator is one of '+ - * / ^' encountered outside the numeric
	// sub-lexer (i.e. not absorbed as a leading sign).
	Operator

	// LParen is '('.
	LParen

	// RParen is ')'.
	RParen

	// Comma is ','.
	Comma

	// String is a quoted string; the lexeme is the interior text with the
	// surrounding quote characters removed.
	String

	// Value is a generic value token: any run of characters that is not a
	// number, string, or operator, read up to the next whitespace, '=',
	// '(', ')', or ','.
	Value

	// Newline marks a line boundary. The lexer emits newlines as tokens so
	// the parser can recover at end-of-line without re-scanning.
	Newline

	// EOF is returned forever once the source is exhausted.
	EOF
)

// String returns a human-readable name for k, used in log messages.
func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case Dot:
		return "dot"
	case Ident:
		return "ident"
	case Equals:
		return "equals"
	case Number:
		return "number"
	case Operator:
		return "operator"
	case LParen:
		return "lparen"
	case RParen:
		return "rparen"
	case Comma:
		return "comma"
	case String:
		return "string"
	case Value:
		return "value"
	case Newline:
		return "newline"
	case EOF:
		return "eof"
	default:
		return "invalid"
	}
}

// Token is a single lexical unit produced by the lexer. Tokens are
// transient: the parser consumes them one at a time and does not retain a
// token stream.
type Token struct {
	Kind Kind

	// Lexeme is the token's text. For String tokens the surrounding quotes
	// are stripped; for Number tokens the suffix (if any) is included.
	Lexeme string

	// Suffix is the SI suffix consumed as part of a Number token ("meg",
	// "k", "u", ...), lowercased, or empty if none was present. Populated
	// only for Number tokens.
	Suffix string

	// Line is the 1-based source line on which the token started.
	Line int

	// File is the source filename the token came from, for diagnostics.
	File string
}
