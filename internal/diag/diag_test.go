// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package diag

import (
	"context"
	"testing"
)

func TestDiffSubcircuits_IdenticalContentReturnsNil(t *testing.T) {
	body := ".subckt inv1 a y\nm1 y a 0 0 nmos1\n.ends"
	hunks, err := DiffSubcircuits(context.Background(), "inv1", body, body)
	if err != nil {
		t.Fatalf("DiffSubcircuits: %v", err)
	}
	if hunks != nil {
		t.Fatalf("expected nil hunks for identical content, got %v", hunks)
	}
}

func TestDiffSubcircuits_DetectsChangedLine(t *testing.T) {
	oldBody := ".subckt inv1 a y\nm1 y a 0 0 nmos1 l=0.18u\n.ends"
	newBody := ".subckt inv1 a y\nm1 y a 0 0 nmos1 l=0.5u\n.ends"

	hunks, err := DiffSubcircuits(context.Background(), "inv1", oldBody, newBody)
	if err != nil {
		t.Fatalf("DiffSubcircuits: %v", err)
	}
	if len(hunks) == 0 {
		t.Fatal("expected at least one hunk for a changed line")
	}
}
