// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package ngspice

import "testing"

func TestParseMeasurements_BasicLines(t *testing.T) {
	output := []byte(`
Note: No compatibility mode selected!

vout = 1.234500e+00
iout = -5.000000e-03
random text with no equals sign
malformed =
`)
	got := parseMeasurements(output)
	if len(got) != 2 {
		t.Fatalf("expected 2 measurements, got %d (%v)", len(got), got)
	}
	if got[0].Name != "vout" || got[0].Value != 1.2345 {
		t.Errorf("unexpected first measurement: %+v", got[0])
	}
	if got[1].Name != "iout" || got[1].Value != -0.005 {
		t.Errorf("unexpected second measurement: %+v", got[1])
	}
}

func TestParseMeasurements_NoMatches(t *testing.T) {
	got := parseMeasurements([]byte("nothing of interest here\n"))
	if got == nil {
		t.Fatal("expected a non-nil empty slice, got nil")
	}
	if len(got) != 0 {
		t.Fatalf("expected no measurements, got %v", got)
	}
}

func TestParseMeasurements_IgnoresMultiWordLeftHandSide(t *testing.T) {
	got := parseMeasurements([]byte("this is not a name = 1.0\n"))
	if len(got) != 0 {
		t.Fatalf("expected multi-word left-hand sides to be ignored, got %v", got)
	}
}

func TestNew_DefaultsBinaryPath(t *testing.T) {
	b := New("", 0)
	if b.BinaryPath != "ngspice" {
		t.Errorf("expected default binary path 'ngspice', got %q", b.BinaryPath)
	}
}
