// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package classify

import (
	"math"
	"testing"
)

func TestClassify_NegativeNumberIsNumeric(t *testing.T) {
	pv := Classify("-0.7")
	if pv.Kind != Numeric {
		t.Fatalf("Classify(-0.7).Kind = %v, want Numeric", pv.Kind)
	}
	if pv.Scaled != -0.7 {
		t.Fatalf("Classify(-0.7).Scaled = %v, want -0.7", pv.Scaled)
	}
}

func TestClassify_SISuffixedNumberIsNumeric(t *testing.T) {
	cases := map[string]float64{
		"1MEG": 1e6,
		"1meg": 1e6,
		"2.5u": 2.5e-6,
		"3k":   3e3,
		"1p":   1e-12,
		"4t":   4e12,
	}
	for raw, want := range cases {
		pv := Classify(raw)
		if pv.Kind != Numeric {
			t.Fatalf("Classify(%q).Kind = %v, want Numeric", raw, pv.Kind)
		}
		// Scaled is the parsed body times the suffix multiplier, so it can
		// differ from the decimal literal by double-precision rounding.
		if math.Abs(pv.Scaled-want) > 1e-15*math.Abs(want) {
			t.Fatalf("Classify(%q).Scaled = %v, want %v", raw, pv.Scaled, want)
		}
	}
}

func TestClassify_ParenthesizedExpressionIsString(t *testing.T) {
	pv := Classify("(l*2)")
	if pv.Kind != String {
		t.Fatalf("Classify((l*2)).Kind = %v, want String", pv.Kind)
	}
}

func TestClassify_FunctionCallIsString(t *testing.T) {
	pv := Classify("sqrt(w)")
	if pv.Kind != String {
		t.Fatalf("Classify(sqrt(w)).Kind = %v, want String", pv.Kind)
	}
}

func TestClassify_ArithmeticWithLeadingSignIsString(t *testing.T) {
	// A leading sign alone doesn't make a raw value an expression, but a
	// second operator inside it does.
	pv := Classify("-w+1")
	if pv.Kind != String {
		t.Fatalf("Classify(-w+1).Kind = %v, want String", pv.Kind)
	}
}

func TestClassify_BareIdentifierIsString(t *testing.T) {
	pv := Classify("mymodel")
	if pv.Kind != String {
		t.Fatalf("Classify(mymodel).Kind = %v, want String", pv.Kind)
	}
}

func TestIsExpression_ReservedFunctionNamePrefix(t *testing.T) {
	if !IsExpression("sin(x)") {
		t.Fatal("IsExpression(sin(x)) = false, want true")
	}
}

func TestIsExpression_PlainNumberIsNotExpression(t *testing.T) {
	if IsExpression("1.5n") {
		t.Fatal("IsExpression(1.5n) = true, want false")
	}
}
