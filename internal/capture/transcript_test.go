// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_capture

import "testing"

func TestTranscriptInterimReplacedUntilFinal(t *testing.T) {
	b := NewTranscriptBuffer()

	b.SetInterim("bu")
	b.SetInterim("buy mi")
	if got := b.String(); got != "buy mi" {
		t.Fatalf("expected latest interim only, got %q", got)
	}

	b.CommitFinal("buy milk")
	if got := b.String(); got != "buy milk " {
		t.Fatalf("expected committed segment with separator, got %q", got)
	}
	if got := b.Committed(); got != "buy milk " {
		t.Fatalf("expected committed text, got %q", got)
	}
}

func TestTranscriptCommittedSurvivesLaterInterims(t *testing.T) {
	b := NewTranscriptBuffer()

	b.CommitFinal("first segment")
	b.SetInterim("second seg")
	if got := b.String(); got != "first segment second seg" {
		t.Fatalf("unexpected transcript %q", got)
	}

	b.CommitFinal("second segment")
	if got := b.String(); got != "first segment second segment " {
		t.Fatalf("unexpected transcript %q", got)
	}
}

func TestTranscriptSetOverwritesEverything(t *testing.T) {
	b := NewTranscriptBuffer()
	b.CommitFinal("dictated text")
	b.SetInterim("more")

	b.Set("hand edited")
	if got := b.String(); got != "hand edited" {
		t.Fatalf("expected overwritten transcript, got %q", got)
	}

	b.Reset()
	if got := b.String(); got != "" {
		t.Fatalf("expected empty transcript after reset, got %q", got)
	}
}
