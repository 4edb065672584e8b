// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_capture

import "sync"

// TranscriptBuffer accumulates recognition results. Final segments are
// appended durably with a trailing separator; interim hypotheses replace each
// other and are dropped once a final for the utterance arrives. This holds
// regardless of event arrival order, which is what makes per-utterance
// sequence numbers unnecessary.
type TranscriptBuffer struct {
	mu        sync.Mutex
	committed string
	interim   string
}

func NewTranscriptBuffer() *TranscriptBuffer {
	return &TranscriptBuffer{}
}

// SetInterim replaces the current non-final hypothesis.
func (b *TranscriptBuffer) SetInterim(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.interim = text
}

// CommitFinal appends a finalized segment and clears the pending interim.
func (b *TranscriptBuffer) CommitFinal(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed += text + " "
	b.interim = ""
}

// Set overwrites the whole buffer. Used when the user edits the transcript
// field directly.
func (b *TranscriptBuffer) Set(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = text
	b.interim = ""
}

// String returns the committed text followed by the latest interim
// hypothesis, if any.
func (b *TranscriptBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed + b.interim
}

// Committed returns only the durably finalized text.
func (b *TranscriptBuffer) Committed() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed
}

func (b *TranscriptBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = ""
	b.interim = ""
}
