// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package classify decides whether a SPICE parameter's raw text is a
// numeric value with an SI multiplier, an opaque string, or an expression
// (which the caller must reject wholesale — see IsExpression).
package classify

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Kind is the classification tag for a ParameterValue.
type Kind int

const (
	// Numeric means Scaled is a finite, real scaled double.
	Numeric Kind = iota
	// String means the value carries no scaled numeric.
	String
)

// ParameterValue is the tagged-variant result of classifying a parameter's
// raw text: {Numeric(raw, scaled), String(raw)}. Downstream code switches
// on Kind rather than relying on a type hierarchy.
type ParameterValue struct {
	// Raw is the parameter's original text, unchanged except for whatever
	// case normalization the driver already applied to the whole file.
	Raw string

	Kind Kind

	// Scaled is the parsed-and-multiplied numeric value. Zero and
	// meaningless when Kind == String.
	Scaled float64
}

// reservedFunctionNames are SPICE builtin/user-function names whose
// appearance followed by whitespace or '(' marks the value as an
// expression, even if no parenthesis, comma, or arithmetic operator is
// otherwise present in the text scanned so far.
var reservedFunctionNames = map[string]bool{
	"abs": true, "acos": true, "acosh": true, "asin": true, "asinh": true,
	"atan": true, "atanh": true, "cos": true, "cosh": true, "exp": true,
	"ln": true, "log": true, "log10": true, "max": true, "min": true,
	"pow": true, "pwr": true, "sin": true, "sinh": true, "sqrt": true,
	"tan": true, "tanh": true, "uramp": true, "ceil": true, "floor": true,
	"nint": true, "sgn": true, "buf": true, "inv": true, "table": true,
}

// callPattern matches a bare word immediately followed by '(' — the
// "\w+\s*\(" rule from the expression detector.
var callPattern = regexp.MustCompile(`[A-Za-z0-9_]+\s*\(`)

// siMultiplier maps a lowercase SI suffix to its multiplier. "meg" is
// checked ahead of "m" by callers since both are valid prefixes of the same
// input ("1meg" must not be read as "1m" + stray "eg").
var siMultiplier = map[string]float64{
	"meg": 1e6,
	"t":   1e12,
	"g":   1e9,
	"k":   1e3,
	"m":   1e-3,
	"u":   1e-6,
	"n":   1e-9,
	"p":   1e-12,
}

// IsExpression reports whether raw must be treated as a SPICE expression:
// it contains arithmetic/grouping/argument-separator characters, or looks
// like a function call. A single leading sign directly in front of a
// numeric value is not, by itself, expression evidence — see the signed
// numeric resolution in SPEC_FULL.md §3 (vth=-0.7 classifies as numeric,
// not expression).
func IsExpression(raw string) bool {
	text := strings.TrimSpace(raw)
	if text == "" {
		return false
	}

	scan := stripLeadingSign(text)
	for _, r := range scan {
		switch r {
		case '(', ')', '+', '-', '*', '/', ',':
			return true
		}
	}

	if callPattern.MatchString(text) {
		return true
	}

	lower := strings.ToLower(text)
	for name := range reservedFunctionNames {
		if strings.HasPrefix(lower, name) {
			rest := lower[len(name):]
			if rest == "" {
				continue
			}
			if rest[0] == ' ' || rest[0] == '\t' || rest[0] == '(' {
				return true
			}
		}
	}

	return false
}

// stripLeadingSign removes a single leading '+' or '-' directly followed by
// a digit or decimal point, so that the arithmetic-character scan in
// IsExpression doesn't treat a signed numeric literal as an expression.
func stripLeadingSign(text string) string {
	if len(text) < 2 {
		return text
	}
	if text[0] != '+' && text[0] != '-' {
		return text
	}
	c := text[1]
	if (c >= '0' && c <= '9') || c == '.' {
		return text[1:]
	}
	return text
}

// Classify determines the classification of a single parameter's raw text.
// The parser passes the value token's lexeme as raw: the lowercased source
// text of the value, with any SI suffix included (the lexer keeps it in
// the lexeme) and the quotes removed from a quoted value.
//
// Algorithm (spec.md §4.2):
//  1. Expression detection: IsExpression(raw) => String classification, and
//     the caller (the parser) is responsible for discarding the entire
//     parent .model directive — Classify itself never discards anything.
//  2. Numeric parse: strip a trailing SI suffix ("meg" takes precedence
//     over "m"), parse the remainder as a float64, multiply by the
//     suffix's multiplier.
//  3. Fallback: if numeric parsing fails, classify as String.
func Classify(raw string) ParameterValue {
	if IsExpression(raw) {
		return ParameterValue{Raw: raw, Kind: String}
	}

	if scaled, ok := parseNumeric(raw); ok {
		return ParameterValue{Raw: raw, Kind: Numeric, Scaled: scaled}
	}

	return ParameterValue{Raw: raw, Kind: String}
}

// parseNumeric attempts to strip a recognized SI suffix from text and parse
// the remainder as a float64, returning the scaled value.
func parseNumeric(text string) (float64, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, false
	}

	lower := strings.ToLower(text)

	if strings.HasSuffix(lower, "meg") {
		if v, err := strconv.ParseFloat(text[:len(text)-3], 64); err == nil && isFiniteReal(v) {
			return v * siMultiplier["meg"], true
		}
	}

	if len(lower) >= 1 {
		last := lower[len(lower)-1:]
		if mult, ok := siMultiplier[last]; ok {
			if v, err := strconv.ParseFloat(text[:len(text)-1], 64); err == nil && isFiniteReal(v) {
				return v * mult, true
			}
		}
	}

	if v, err := strconv.ParseFloat(text, 64); err == nil && isFiniteReal(v) {
		return v, true
	}

	return 0, false
}

func isFiniteReal(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
