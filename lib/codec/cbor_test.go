// Copyright 2026 The Workline Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/workline-foundation/workline/lib/ref"
)

type sample struct {
	Project ref.ProjectID   `cbor:"project"`
	Actor   ref.UserID      `cbor:"actor"`
	Amount  decimal.Decimal `cbor:"amount"`
	At      time.Time       `cbor:"at"`
	Note    string          `cbor:"note,omitempty"`
}

func TestRoundTripPreservesValueTypes(t *testing.T) {
	original := sample{
		Project: ref.NewProjectID(),
		Actor:   ref.MustUserID("alice"),
		Amount:  decimal.RequireFromString("1234.56"),
		At:      time.Date(2026, 2, 3, 10, 30, 0, 123456789, time.UTC),
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sample
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.Project != original.Project {
		t.Errorf("Project = %v, want %v", decoded.Project, original.Project)
	}
	if decoded.Actor != original.Actor {
		t.Errorf("Actor = %v, want %v", decoded.Actor, original.Actor)
	}
	if !decoded.Amount.Equal(original.Amount) {
		t.Errorf("Amount = %v, want %v", decoded.Amount, original.Amount)
	}
	if !decoded.At.Equal(original.At) {
		t.Errorf("At = %v, want %v", decoded.At, original.At)
	}
}

func TestEncodingIsDeterministic(t *testing.T) {
	value := sample{
		Project: ref.NewProjectID(),
		Actor:   ref.MustUserID("bob"),
		Amount:  decimal.RequireFromString("0.01"),
		At:      time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Note:    "snapshot",
	}

	first, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(value)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("same value produced different encodings")
	}
}

func TestUnmarshalIgnoresUnknownFields(t *testing.T) {
	data, err := Marshal(map[string]any{
		"actor":   "carol",
		"surplus": "ignored",
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded struct {
		Actor ref.UserID `cbor:"actor"`
	}
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Actor.String() != "carol" {
		t.Errorf("Actor = %q, want %q", decoded.Actor, "carol")
	}
}
