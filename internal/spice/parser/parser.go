// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package parser implements the recursive-descent SPICE directive parser:
// it recognizes ".model" and ".subckt" ... ".ends", routes everything else
// to a skip-and-recover path, and hands completed records to an Indexer.
//
// Description:
//
//	The parser never returns an error for malformed input it can recover
//	from — every parse failure is logged (if a logger was supplied) and
//	parsing resumes at the next line. Only store-write errors and context
//	cancellation propagate out of Parse.
//
// Thread Safety:
//
//	A Parser is not safe for concurrent use; one Parser is constructed per
//	source file and driven from a single goroutine.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aleutian-labs/spicetrace/internal/spice/classify"
	"github.com/aleutian-labs/spicetrace/internal/spice/lexer"
	"github.com/aleutian-labs/spicetrace/internal/spice/record"
	"github.com/aleutian-labs/spicetrace/internal/spice/token"
)

// Indexer receives completed records as the parser emits them. A model is
// inserted with all of its parameters as one logical unit; see
// store.Store for the concrete (transactional) implementation.
type Indexer interface {
	InsertModel(ctx context.Context, rec record.ModelRecord) error
	InsertSubcircuit(ctx context.Context, rec record.SubcircuitRecord) error
}

// Parser drives a Lexer over a single file's token stream and emits
// ModelRecord / SubcircuitRecord values to an Indexer.
type Parser struct {
	lex        *lexer.Lexer
	cur        token.Token
	atTopLevel bool

	indexer   Indexer
	logger    *slog.Logger
	file      string
	origLines []string
}

// New constructs a Parser over lex, attributing emitted records to file.
// origLines holds the file's original (non-case-normalized) lines, indexed
// from 0 for line 1, used only to recover the original casing of a captured
// SubcircuitRecord.Content (see spec.md §9 on case normalization). logger
// may be nil to suppress anomaly logging entirely.
func New(lex *lexer.Lexer, file string, origLines []string, indexer Indexer, logger *slog.Logger) *Parser {
	p := &Parser{
		lex:        lex,
		atTopLevel: true,
		indexer:    indexer,
		logger:     logger,
		file:       file,
		origLines:  origLines,
	}
	p.cur = p.lex.Next()
	return p
}

// Parse consumes the entire token stream, emitting records to the Indexer
// as directives complete. It returns only on a propagated store error or
// context cancellation; all other anomalies are logged and recovered from.
func (p *Parser) Parse(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch p.cur.Kind {
		case token.EOF:
			return nil
		case token.Newline:
			p.advance()
		case token.Dot:
			if err := p.dispatchDot(ctx); err != nil {
				return err
			}
		default:
			p.skipToNewline()
		}
	}
}

func (p *Parser) advance() token.Token {
	t := p.cur
	p.cur = p.lex.Next()
	return t
}

func (p *Parser) expectIdent() (token.Token, bool) {
	if p.cur.Kind == token.Ident {
		return p.advance(), true
	}
	return token.Token{}, false
}

// skipToNewline consumes tokens through and including the next Newline, or
// stops at EOF without consuming it. This is the parser's universal
// recovery point.
func (p *Parser) skipToNewline() {
	for {
		switch p.cur.Kind {
		case token.EOF:
			return
		case token.Newline:
			p.advance()
			return
		default:
			p.advance()
		}
	}
}

func (p *Parser) logf(line int, format string, args ...any) {
	if p.logger == nil {
		return
	}
	p.logger.Warn(fmt.Sprintf(format, args...), slog.String("file", p.file), slog.Int("line", line))
}

func (p *Parser) dispatchDot(ctx context.Context) error {
	word := strings.ToLower(p.cur.Lexeme)
	switch word {
	case ".model":
		return p.parseModelDirective(ctx)
	case ".subckt":
		return p.parseSubcktDirective(ctx)
	case ".ends":
		p.logf(p.cur.Line, "unexpected .ends at top level")
		p.advance()
		p.skipToNewline()
		return nil
	default:
		p.skipToNewline()
		return nil
	}
}

// parseModelDirective parses a ".model" directive starting with p.cur as
// the ".model" dot token. It always consumes through the end of the
// directive's last line before returning, on every path.
func (p *Parser) parseModelDirective(ctx context.Context) error {
	dotLine := p.cur.Line
	p.advance() // consume ".model"

	nameTok, ok1 := p.expectIdent()
	typeTok, ok2 := p.expectIdent()
	if !ok1 || !ok2 {
		p.logf(dotLine, "model directive missing name or type, skipped")
		p.skipToNewline()
		return nil
	}

	openParen := false
	if p.cur.Kind == token.LParen {
		p.advance()
		openParen = true
	}

	buf := p.scanParamRegion(openParen)
	p.skipToNewline()

	lexemes := make([]string, 0, len(buf))
	for i := 0; i < len(buf); i++ {
		t := buf[i]
		// Parens wrapping a lone parameter name ("(l)=0.18u") are not
		// expression grouping; only the name goes into the joined text.
		if t.Kind == token.LParen && i+3 < len(buf) && buf[i+1].Kind == token.Ident &&
			buf[i+2].Kind == token.RParen && buf[i+3].Kind == token.Equals {
			lexemes = append(lexemes, buf[i+1].Lexeme)
			i += 2
			continue
		}
		lexeme := t.Lexeme
		if t.Kind == token.Number {
			// A sign the lexer absorbed into a number is not an operator.
			lexeme = strings.TrimLeft(lexeme, "+-")
		}
		lexemes = append(lexemes, lexeme)
	}
	joined := strings.Join(lexemes, " ")
	if classify.IsExpression(joined) {
		p.logf(dotLine, "model %q dropped: parameter text contains an expression", nameTok.Lexeme)
		return nil
	}

	params := p.collectParams(buf)

	if !p.atTopLevel {
		p.logf(dotLine, "model %q dropped: .model directive inside .subckt body", nameTok.Lexeme)
		return nil
	}

	rec := record.ModelRecord{
		Name:       nameTok.Lexeme,
		Type:       typeTok.Lexeme,
		SourceFile: p.file,
		Line:       dotLine,
		Parameters: params,
	}
	if err := p.indexer.InsertModel(ctx, rec); err != nil {
		return fmt.Errorf("inserting model %q at %s:%d: %w", rec.Name, p.file, dotLine, err)
	}
	return nil
}

// scanParamRegion buffers the tokens of a .model directive's parameter
// region without consuming the terminating newline (the caller does that).
// When openParen is true, the region runs to the matching close paren
// (tracking nested/per-parameter parens via depth, per spec.md §4.3's
// "(l)=0.18u" form); when false, it runs to the next newline.
func (p *Parser) scanParamRegion(openParen bool) []token.Token {
	depth := 0
	if openParen {
		depth = 1
	}

	var buf []token.Token
	for {
		switch p.cur.Kind {
		case token.EOF:
			return buf
		case token.Dot:
			// Malformed input (directive text bled into the next line's
			// dot-directive); stop scanning and let the caller recover.
			return buf
		case token.Newline:
			if !openParen {
				return buf
			}
			// Inside an open parameter list, newlines don't terminate the
			// region; consume and keep scanning for the matching paren.
			p.advance()
		case token.LParen:
			depth++
			buf = append(buf, p.cur)
			p.advance()
		case token.RParen:
			tok := p.cur
			depth--
			p.advance()
			if openParen && depth == 0 {
				return buf
			}
			buf = append(buf, tok)
		default:
			buf = append(buf, p.cur)
			p.advance()
		}
	}
}

// collectParams performs the two-pass scan's collection half: it walks a
// pre-buffered, expression-free token region and binds each "Ident '='
// Value" pair it finds, tolerating a stray enclosing paren around the
// parameter name ("(l)=0.18u"). On a failed match it logs the anomaly,
// advances by one token and continues, per spec.md §4.3's recovery rule.
func (p *Parser) collectParams(buf []token.Token) map[string]classify.ParameterValue {
	params := make(map[string]classify.ParameterValue)

	i := 0
	for i < len(buf) {
		t := buf[i]

		if t.Kind == token.LParen || t.Kind == token.RParen {
			i++
			continue
		}
		if t.Kind != token.Ident {
			i++
			continue
		}

		name := strings.ToLower(t.Lexeme)
		i++

		if i < len(buf) && buf[i].Kind == token.RParen {
			i++
		}

		if i >= len(buf) || buf[i].Kind != token.Equals {
			p.logf(t.Line, "parameter %q has no '=', skipped", name)
			continue
		}
		i++ // consume '='

		if i >= len(buf) {
			p.logf(t.Line, "parameter %q has no value, skipped", name)
			break
		}
		valueTok := buf[i]
		i++

		params[name] = classify.Classify(valueTok.Lexeme)
	}

	return params
}

// parseSubcktDirective parses a ".subckt" ... ".ends" block starting with
// p.cur as the ".subckt" dot token.
func (p *Parser) parseSubcktDirective(ctx context.Context) error {
	startLine := p.cur.Line
	p.advance() // consume ".subckt"

	var name string
	if nameTok, ok := p.expectIdent(); ok {
		name = nameTok.Lexeme
	} else {
		p.logf(startLine, "subckt directive missing name")
	}
	p.skipToNewline()

	wasTop := p.atTopLevel
	p.atTopLevel = false

	nestDepth := 0
	endsLine := 0
	closed := false

loop:
	for {
		if err := ctx.Err(); err != nil {
			p.atTopLevel = wasTop
			return err
		}
		switch p.cur.Kind {
		case token.EOF:
			break loop
		case token.Newline:
			p.advance()
		case token.Dot:
			word := strings.ToLower(p.cur.Lexeme)
			switch word {
			case ".subckt":
				nestDepth++
				p.logf(p.cur.Line, "nested .subckt dropped inside %q", name)
				p.advance()
				p.skipToNewline()
			case ".ends":
				if nestDepth > 0 {
					nestDepth--
					p.advance()
					p.skipToNewline()
					continue loop
				}
				endsLine = p.cur.Line
				p.advance()
				p.skipToNewline()
				closed = true
				break loop
			case ".model":
				if err := p.parseModelDirective(ctx); err != nil {
					p.atTopLevel = wasTop
					return err
				}
			default:
				p.advance()
				p.skipToNewline()
			}
		default:
			p.skipToNewline()
		}
	}

	p.atTopLevel = wasTop

	if !closed {
		p.logf(startLine, "unclosed subckt %q: reached EOF before matching .ends", name)
		return nil
	}
	if name == "" {
		return nil
	}

	rec := record.SubcircuitRecord{
		Name:       name,
		Content:    p.captureLines(startLine, endsLine),
		SourceFile: p.file,
		Line:       startLine,
	}
	if err := p.indexer.InsertSubcircuit(ctx, rec); err != nil {
		return fmt.Errorf("inserting subckt %q at %s:%d: %w", rec.Name, p.file, startLine, err)
	}
	return nil
}

// captureLines joins the original-case source lines [startLine, endsLine]
// (1-based, inclusive) with newlines.
func (p *Parser) captureLines(startLine, endsLine int) string {
	if startLine < 1 {
		startLine = 1
	}
	if endsLine > len(p.origLines) {
		endsLine = len(p.origLines)
	}
	if endsLine < startLine {
		return ""
	}
	return strings.Join(p.origLines[startLine-1:endsLine], "\n")
}
