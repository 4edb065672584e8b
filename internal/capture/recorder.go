// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_capture

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/echonotes/web-backend/pkg/commons"
)

// DefaultSafetyTimeout bounds unattended recordings. When it fires the
// session finalizes exactly as if the user had stopped manually.
const DefaultSafetyTimeout = 60 * time.Second

const eventChannelSize = 128

// Recorder coordinates one recording session across two independently
// lifecycled producers: the microphone stream (binary chunks) and the
// recognition stream (interim/final text segments). Both emit typed events
// onto a single ordered channel; one loop goroutine consumes it and is the
// only writer to the chunk list and transcript buffer while recording.
//
// The two streams share no clock. Chunk and transcript events may interleave
// in any order; the only contract is that both streams must be stopped and
// drained before the session counts as finalized.
//
// A Recorder is single-use: once finalized or aborted it returns to Idle and
// a new recording needs a new Recorder.
type Recorder struct {
	logger      commons.Logger
	audio       AudioStream
	recognition RecognitionStream
	transcript  *TranscriptBuffer
	timeout     time.Duration
	onAbort     func(error)

	mu       sync.Mutex
	state    string
	chunks   [][]byte
	blob     []byte
	abortErr error

	events chan Event
	stopCh chan struct{}
	done   chan struct{}
	safety *time.Timer
}

type RecorderOption func(*Recorder)

// WithSafetyTimeout overrides the 60s unattended-recording bound.
func WithSafetyTimeout(d time.Duration) RecorderOption {
	return func(r *Recorder) { r.timeout = d }
}

// WithAbortNotifier installs a non-fatal error callback invoked when a
// device stream fails mid-recording.
func WithAbortNotifier(fn func(error)) RecorderOption {
	return func(r *Recorder) { r.onAbort = fn }
}

// NewRecorder builds a recorder bound to the given streams and transcript
// buffer. Either stream may be nil when the host lacks the capability;
// Start reports that as ErrUnsupportedCapability.
func NewRecorder(logger commons.Logger, audio AudioStream, recognition RecognitionStream, transcript *TranscriptBuffer, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		logger:      logger,
		audio:       audio,
		recognition: recognition,
		transcript:  transcript,
		timeout:     DefaultSafetyTimeout,
		state:       StateIdle,
		stopCh:      make(chan struct{}, 1),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the current recording state.
func (r *Recorder) State() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Active reports whether the session has started and not yet drained.
func (r *Recorder) Active() bool {
	switch r.State() {
	case StateRecording, StateFinalizing, StateAborted:
		return true
	}
	return false
}

// Events returns the channel device streams emit onto. Producers must use
// non-blocking sends; once the loop exits, events are dropped by design.
func (r *Recorder) Events() chan<- Event {
	return r.events
}

// Start opens both device streams, arms the safety timer and enters
// Recording. The recognition stream opens first, mirroring the capture
// order on the device side.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrRecorderBusy
	}
	if r.audio == nil || r.recognition == nil {
		r.mu.Unlock()
		return ErrUnsupportedCapability
	}
	r.events = make(chan Event, eventChannelSize)
	r.mu.Unlock()

	if err := r.recognition.Open(r.events); err != nil {
		return fmt.Errorf("%w: recognition open: %v", ErrStreamError, err)
	}
	if err := r.audio.Open(r.events); err != nil {
		r.recognition.Stop()
		return fmt.Errorf("%w: %v", ErrDeviceAccessDenied, err)
	}

	r.mu.Lock()
	r.state = StateRecording
	r.safety = time.AfterFunc(r.timeout, r.requestStop)
	r.mu.Unlock()

	go r.loop()
	return nil
}

// Stop requests finalization of an in-progress recording. The safety timer
// is cancelled first so a late firing cannot cause a stale double-stop.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.state != StateRecording {
		r.mu.Unlock()
		return
	}
	if r.safety != nil {
		r.safety.Stop()
	}
	r.mu.Unlock()
	r.requestStop()
}

// Finalize stops the recording and blocks until both streams have drained,
// returning the concatenated audio blob. Returns the abort error if the
// session ended on the error path.
func (r *Recorder) Finalize(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	started := r.events != nil
	r.mu.Unlock()
	if !started {
		return nil, nil
	}
	r.Stop()
	select {
	case <-r.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.abortErr != nil {
		return nil, r.abortErr
	}
	return r.blob, nil
}

// Blob returns the finalized audio, nil until the session has drained.
func (r *Recorder) Blob() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.blob
}

func (r *Recorder) requestStop() {
	select {
	case r.stopCh <- struct{}{}:
	default:
	}
}

func (r *Recorder) setState(state string) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
}

// loop is the single consumer of the event channel. It owns all chunk and
// transcript mutation between Start and drain.
func (r *Recorder) loop() {
	defer close(r.done)

	var audioStopped, recognitionStopped bool
	var finalizing, aborted bool

	for {
		select {
		case ev := <-r.events:
			switch e := ev.(type) {
			case AudioChunkEvent:
				if !aborted && len(e.Data) > 0 {
					// Copy to avoid producer-side reuse of the buffer.
					buf := make([]byte, len(e.Data))
					copy(buf, e.Data)
					r.mu.Lock()
					r.chunks = append(r.chunks, buf)
					r.mu.Unlock()
				}

			case InterimTranscriptEvent:
				if !aborted {
					r.transcript.SetInterim(e.Text)
				}

			case FinalTranscriptEvent:
				if !aborted {
					r.transcript.CommitFinal(e.Text)
				}

			case StreamStoppedEvent:
				switch e.Source {
				case SourceAudio:
					audioStopped = true
				case SourceRecognition:
					recognitionStopped = true
				}

			case StreamErrorEvent:
				if finalizing || aborted {
					// An erroring stream will never acknowledge its stop;
					// the error counts as the acknowledgment.
					switch e.Source {
					case SourceAudio:
						audioStopped = true
					case SourceRecognition:
						recognitionStopped = true
					}
					break
				}
				// Abort: partial audio is discarded, transcript text already
				// committed stays.
				aborted = true
				finalizing = true
				r.setState(StateAborted)
				r.mu.Lock()
				if r.safety != nil {
					r.safety.Stop()
				}
				r.chunks = nil
				r.abortErr = fmt.Errorf("%w: %s: %v", ErrStreamError, e.Source, e.Err)
				r.mu.Unlock()
				switch e.Source {
				case SourceAudio:
					audioStopped = true
				case SourceRecognition:
					recognitionStopped = true
				}
				r.audio.Stop()
				r.recognition.Stop()
				r.logger.Warnf("recording aborted: source=%s err=%v", e.Source, e.Err)
				if r.onAbort != nil {
					r.onAbort(r.abortErr)
				}
			}

		case <-r.stopCh:
			if finalizing {
				continue
			}
			finalizing = true
			r.setState(StateFinalizing)
			r.recognition.Stop()
			r.audio.Stop()
		}

		if finalizing && audioStopped && recognitionStopped {
			r.drain(aborted)
			return
		}
	}
}

// drain concludes the session: on the normal path the chunks are consumed
// into one blob, on the abort path they were already discarded. Either way
// the recorder returns to Idle.
func (r *Recorder) drain(aborted bool) {
	r.mu.Lock()
	if !aborted {
		total := 0
		for _, c := range r.chunks {
			total += len(c)
		}
		blob := make([]byte, 0, total)
		for _, c := range r.chunks {
			blob = append(blob, c...)
		}
		r.blob = blob
	}
	r.chunks = nil
	r.state = StateIdle
	r.mu.Unlock()
}
