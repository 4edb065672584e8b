// Copyright (c) 2024-2025 EchoNotes
//
// Licensed under GPL-2.0. See LICENSE.md for details.
package internal_capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/echonotes/web-backend/pkg/types"
)

// fakePersistence records createNote calls and can block or fail on demand.
type fakePersistence struct {
	mu       sync.Mutex
	payloads []*CreateNotePayload
	failWith error
	blockCh  chan struct{}
}

func (f *fakePersistence) CreateNote(ctx context.Context, auth types.SimplePrinciple, payload *CreateNotePayload) error {
	if f.blockCh != nil {
		<-f.blockCh
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	f.payloads = append(f.payloads, payload)
	return nil
}

func (f *fakePersistence) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payloads)
}

func testPrincipal() types.SimplePrinciple {
	return &types.UserPrinciple{UserId: 7, Email: "user@example.com", CurrentToken: "tok"}
}

func newTestSession(t *testing.T, persistence Persistence, opts ...SessionOption) (*Session, *fakeStream, *fakeStream) {
	t.Helper()
	logger := newTestLogger(t)
	audio, recognition := newFakePair()
	factory := func(transcript *TranscriptBuffer, onAbort func(error)) *Recorder {
		return NewRecorder(logger, audio, recognition, transcript, WithAbortNotifier(onAbort))
	}
	attachments := NewAttachments(logger, newCountingPreviewer(), nil)
	return NewSession(logger, testPrincipal(), persistence, factory, attachments, opts...), audio, recognition
}

// Typed title and text only: the payload carries them with empty transcript
// and no media, and the session resets to its defaults on success.
func TestSubmitTypedNoteAndReset(t *testing.T) {
	persistence := &fakePersistence{}
	saved := 0
	s, _, _ := newTestSession(t, persistence, WithSavedCallback(func() { saved++ }))

	s.SetTitle("Groceries")
	s.SetText("milk, eggs")

	assert.NoError(t, s.Submit(context.Background()))

	assert.Equal(t, 1, persistence.calls())
	payload := persistence.payloads[0]
	assert.Equal(t, "Groceries", payload.Title)
	assert.Equal(t, "milk, eggs", payload.Content)
	assert.Equal(t, "", payload.Transcript)
	assert.Nil(t, payload.Audio)
	assert.Empty(t, payload.Images)

	assert.Equal(t, DefaultTitle, s.Title())
	assert.Equal(t, DefaultText, s.Text())
	assert.Equal(t, 1, saved)
}

// An empty session never reaches the persistence API.
func TestSubmitEmptySessionIsNoOp(t *testing.T) {
	persistence := &fakePersistence{}
	s, _, _ := newTestSession(t, persistence)

	s.SetTitle("")
	s.SetText("")

	assert.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, 0, persistence.calls())
	assert.Equal(t, "", s.Text(), "state must be unchanged")
}

// Two submissions racing each other result in exactly one createNote call.
func TestSubmitInFlightGuard(t *testing.T) {
	persistence := &fakePersistence{blockCh: make(chan struct{})}
	s, _, _ := newTestSession(t, persistence)
	s.SetText("something")

	done := make(chan error, 1)
	go func() { done <- s.Submit(context.Background()) }()

	// Wait until the first submit is parked inside the persistence call.
	assert.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.submitting
	}, time.Second, 5*time.Millisecond)

	assert.NoError(t, s.Submit(context.Background()), "second submit must be ignored, not fail")
	assert.Equal(t, 0, persistence.calls())

	close(persistence.blockCh)
	assert.NoError(t, <-done)
	assert.Equal(t, 1, persistence.calls())
}

func TestSubmitFailureLeavesSessionIntact(t *testing.T) {
	persistence := &fakePersistence{failWith: errors.New("persistence unreachable")}
	s, _, _ := newTestSession(t, persistence)
	s.SetTitle("Draft")
	s.SetText("body")
	s.AddAttachments(File{Name: "pic.png", Data: []byte{1}})

	err := s.Submit(context.Background())
	assert.Error(t, err)

	assert.Equal(t, "Draft", s.Title())
	assert.Equal(t, "body", s.Text())
	assert.Equal(t, 1, s.Attachments().Len(), "attachments must survive a failed submit")

	// The guard is released, a retry goes through.
	persistence.mu.Lock()
	persistence.failWith = nil
	persistence.mu.Unlock()
	assert.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, 1, persistence.calls())
}

// Submitting mid-recording finalizes first: both streams stop and the
// payload carries the concatenated blob.
func TestSubmitFinalizesActiveRecording(t *testing.T) {
	persistence := &fakePersistence{}
	s, audio, recognition := newTestSession(t, persistence)

	assert.NoError(t, s.StartRecording())
	audio.emit(AudioChunkEvent{Data: []byte{0x01}})
	audio.emit(AudioChunkEvent{Data: []byte{0x02}})
	recognition.emit(FinalTranscriptEvent{Text: "spoken note"})

	assert.NoError(t, s.Submit(context.Background()))

	assert.Equal(t, 1, persistence.calls())
	payload := persistence.payloads[0]
	assert.NotNil(t, payload.Audio)
	assert.Equal(t, []byte{0x01, 0x02}, payload.Audio.Data)
	assert.Equal(t, "spoken note ", payload.Transcript)
	assert.True(t, audio.stopWasRequested())
	assert.True(t, recognition.stopWasRequested())
	assert.Equal(t, StateIdle, s.RecordingState())
}

func TestSubmitAppliesAudioEncoder(t *testing.T) {
	persistence := &fakePersistence{}
	s, audio, _ := newTestSession(t, persistence, WithAudioEncoder(func(pcm []byte) []byte {
		return EncodeWAV(pcm, 16000, 1)
	}))

	assert.NoError(t, s.StartRecording())
	audio.emit(AudioChunkEvent{Data: []byte{0x01, 0x02, 0x03, 0x04}})
	assert.NoError(t, s.StopRecording(context.Background()))

	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, s.AudioBlob(), "blob stays raw")

	assert.NoError(t, s.Submit(context.Background()))
	payload := persistence.payloads[0]
	assert.Equal(t, "RIFF", string(payload.Audio.Data[:4]))
	assert.Equal(t, []byte{0x01, 0x02, 0x03, 0x04}, payload.Audio.Data[44:])
}

func TestStartRecordingWhileActiveIsRejected(t *testing.T) {
	s, _, _ := newTestSession(t, &fakePersistence{})

	assert.NoError(t, s.StartRecording())
	assert.ErrorIs(t, s.StartRecording(), ErrRecorderBusy)
	assert.NoError(t, s.StopRecording(context.Background()))

	// Back at idle a new recording may start.
	assert.NoError(t, s.StartRecording())
	assert.NoError(t, s.StopRecording(context.Background()))
}

func TestAbandonReleasesAttachments(t *testing.T) {
	s, _, _ := newTestSession(t, &fakePersistence{})
	s.AddAttachments(File{Name: "a"}, File{Name: "b"})

	s.Abandon()

	assert.Equal(t, 0, s.Attachments().Len())
}

func TestSubmitRequiresSomeContent(t *testing.T) {
	persistence := &fakePersistence{}
	s, _, _ := newTestSession(t, persistence)
	s.SetTitle("only a title")
	s.SetText("")

	// A title alone does not make the session non-empty.
	assert.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, 0, persistence.calls())

	s.AddAttachments(File{Name: "pic.png", Data: []byte{1}})
	assert.NoError(t, s.Submit(context.Background()))
	assert.Equal(t, 1, persistence.calls())
}
