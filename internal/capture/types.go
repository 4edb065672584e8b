// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_capture

import "errors"

// Recording state constants. A recorder moves Idle → Recording → Finalizing
// → Idle on the normal path and Recording → Aborted → Idle on the error
// path.
const (
	StateIdle       = "idle"
	StateRecording  = "recording"
	StateFinalizing = "finalizing"
	StateAborted    = "aborted"
)

// StreamSource identifies which device stream produced an event.
type StreamSource string

const (
	SourceAudio       StreamSource = "audio"
	SourceRecognition StreamSource = "recognition"
)

var (
	// ErrUnsupportedCapability is returned by Start when the host lacks
	// microphone capture or speech recognition support.
	ErrUnsupportedCapability = errors.New("capture: microphone or speech recognition not supported")

	// ErrDeviceAccessDenied is returned by Start when the microphone stream
	// cannot be opened.
	ErrDeviceAccessDenied = errors.New("capture: microphone access denied")

	// ErrStreamError marks a mid-recording failure of either device stream.
	ErrStreamError = errors.New("capture: device stream failed")

	// ErrRecorderBusy is returned by Start when a recording session is
	// already in progress.
	ErrRecorderBusy = errors.New("capture: recording already in progress")
)

// ============================================================================
// Events
// ============================================================================

// Event is a message produced by one of the two device streams. Both streams
// emit onto a single ordered channel consumed by the recorder loop, so shared
// buffers are only ever mutated from one goroutine.
type Event interface {
	isEvent()
}

// AudioChunkEvent carries a fragment of recorded audio.
type AudioChunkEvent struct {
	Data []byte
}

// InterimTranscriptEvent carries a non-final recognition hypothesis. Each
// interim replaces the previous one; nothing is committed.
type InterimTranscriptEvent struct {
	Text string
}

// FinalTranscriptEvent carries a finalized recognition segment. Finals are
// appended durably and are never superseded by later interims.
type FinalTranscriptEvent struct {
	Text string
}

// StreamStoppedEvent is the stop acknowledgment of a device stream. The
// recorder waits for both acknowledgments before a session counts as
// finalized.
type StreamStoppedEvent struct {
	Source StreamSource
}

// StreamErrorEvent reports a mid-recording device failure.
type StreamErrorEvent struct {
	Source StreamSource
	Err    error
}

func (AudioChunkEvent) isEvent()        {}
func (InterimTranscriptEvent) isEvent() {}
func (FinalTranscriptEvent) isEvent()   {}
func (StreamStoppedEvent) isEvent()     {}
func (StreamErrorEvent) isEvent()       {}

// ============================================================================
// Device streams
// ============================================================================

// AudioStream is the microphone-capture producer. Open begins delivery of
// AudioChunkEvents onto the given channel; Stop requests shutdown and must
// eventually be acknowledged with a StreamStoppedEvent{SourceAudio}. Sends
// must be non-blocking: once the recorder stops consuming, dropped events are
// expected and harmless.
type AudioStream interface {
	Open(events chan<- Event) error
	Stop()
}

// RecognitionStream is the speech-to-text producer. Same contract as
// AudioStream, emitting Interim/FinalTranscriptEvents and acknowledging Stop
// with StreamStoppedEvent{SourceRecognition}.
type RecognitionStream interface {
	Open(events chan<- Event) error
	Stop()
}
